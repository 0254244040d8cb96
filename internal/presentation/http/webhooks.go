package httppresentation

import (
	"errors"
	"io"
	"net/http"

	apppayment "github.com/Zhima-Mochi/minishop-inventory/internal/application/payment"
	"github.com/Zhima-Mochi/minishop-inventory/internal/domain/domainerr"
)

const headerWebhookSignature = "X-Webhook-Signature"

// handlePaymentWebhook passes the raw body through untouched: the signature
// covers the exact bytes the provider sent.
func (h *Handler) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		h.writeDomainError(w, r, domainerr.Validation("could not read request body"))
		return
	}

	res, err := h.deps.Webhook.Execute(r.Context(), apppayment.Delivery{
		Body:      body,
		Signature: r.Header.Get(headerWebhookSignature),
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

package httppresentation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Zhima-Mochi/minishop-inventory/internal/domain/domainerr"
	"github.com/Zhima-Mochi/minishop-inventory/internal/observability"
	"github.com/Zhima-Mochi/minishop-inventory/internal/observability/logctx"
	"github.com/gorilla/mux"
)

const (
	maxBodyBytes   = 1 << 20
	internalDetail = "Internal server error"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// statusFor maps a domain failure kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domainerr.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domainerr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainerr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domainerr.ErrPrecondition),
		errors.Is(err, domainerr.ErrInvalidTransition):
		return http.StatusBadRequest
	case errors.Is(err, domainerr.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domainerr.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError renders err as {"detail": ...}. Unclassified failures are
// logged and hidden behind a generic message.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logctx.FromOr(r.Context(), h.log).Error("request_failed",
			observability.F("route", routeTemplate(r)),
			observability.F("error", err),
		)
		writeDetail(w, status, internalDetail)
		return
	}

	detail, ok := domainerr.Detail(err)
	if !ok {
		detail = http.StatusText(status)
	}
	writeDetail(w, status, detail)
}

// decodeJSON reads a bounded JSON body. Malformed bodies are validation
// failures.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domainerr.Validation("request body is required")
		}
		return domainerr.Validation(fmt.Sprintf("invalid JSON body: %v", err))
	}
	return nil
}

// pathID reads the {id} route variable. The route pattern only admits digits,
// so an overflow is the only way to fail here.
func pathID(r *http.Request, notFound error) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, notFound
	}
	return id, nil
}

func required(field string) error {
	return domainerr.Validation(field + " is required")
}

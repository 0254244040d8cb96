package payment

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-inventory/internal/domain/domainerr"
	"github.com/shopspring/decimal"
)

const EventPaymentSucceeded = "payment.succeeded"

var (
	ErrMissingSignature = domainerr.New(domainerr.ErrUnauthenticated, "Missing webhook signature")
	ErrInvalidSignature = domainerr.New(domainerr.ErrForbidden, "Invalid webhook signature")
	ErrInvalidPayload   = domainerr.New(domainerr.ErrValidation, "Invalid webhook payload")
)

// Notification is the payload a payment provider posts to the webhook.
type Notification struct {
	EventType string          `json:"event_type"`
	OrderID   int64           `json:"order_id"`
	PaymentID string          `json:"payment_id"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp *time.Time      `json:"timestamp,omitempty"`
}

// ParseNotification decodes and validates a raw webhook body.
func ParseNotification(body []byte) (*Notification, error) {
	var n Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, payloadError(err.Error())
	}
	switch {
	case n.EventType == "":
		return nil, payloadError("event_type is required")
	case n.OrderID <= 0:
		return nil, payloadError("order_id must be a positive integer")
	case n.PaymentID == "":
		return nil, payloadError("payment_id is required")
	}
	return &n, nil
}

// DedupKey identifies a delivery for replay protection. Retries of the same
// event carry the same key.
func (n *Notification) DedupKey() string {
	return fmt.Sprintf("%s:%s:%d", n.EventType, n.PaymentID, n.OrderID)
}

func payloadError(reason string) error {
	return domainerr.New(domainerr.ErrValidation, fmt.Sprintf("%s: %s", ErrInvalidPayload.Msg, reason))
}

package payment

import (
	"testing"

	"github.com/Zhima-Mochi/minishop-inventory/internal/domain/domainerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("whsec_test")

func TestSignKnownVector(t *testing.T) {
	// HMAC-SHA256("key", "The quick brown fox jumps over the lazy dog")
	got := Sign([]byte("key"), []byte("The quick brown fox jumps over the lazy dog"))
	assert.Equal(t, "sha256=f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8", got)
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event_type":"payment.succeeded","order_id":1,"payment_id":"pay_1"}`)
	good := Sign(secret, body)

	require.NoError(t, VerifySignature(secret, body, good))

	tests := []struct {
		name   string
		header string
		body   []byte
		want   error
		kind   error
	}{
		{"missing", "", body, ErrMissingSignature, domainerr.ErrUnauthenticated},
		{"blank", "   ", body, ErrMissingSignature, domainerr.ErrUnauthenticated},
		{"no prefix", good[len(SignaturePrefix):], body, ErrInvalidSignature, domainerr.ErrForbidden},
		{"wrong secret", Sign([]byte("other"), body), body, ErrInvalidSignature, domainerr.ErrForbidden},
		{"tampered body", good, append([]byte(" "), body...), ErrInvalidSignature, domainerr.ErrForbidden},
		{"garbage", "sha256=zz", body, ErrInvalidSignature, domainerr.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifySignature(secret, tt.body, tt.header)
			require.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestParseNotification(t *testing.T) {
	n, err := ParseNotification([]byte(`{
		"event_type": "payment.succeeded",
		"order_id": 42,
		"payment_id": "pay_abc",
		"amount": 19.90,
		"timestamp": "2024-05-01T10:00:00Z"
	}`))
	require.NoError(t, err)
	assert.Equal(t, EventPaymentSucceeded, n.EventType)
	assert.Equal(t, int64(42), n.OrderID)
	assert.Equal(t, "19.9", n.Amount.String())
	require.NotNil(t, n.Timestamp)
	assert.Equal(t, "payment.succeeded:pay_abc:42", n.DedupKey())
}

func TestParseNotificationRejects(t *testing.T) {
	bodies := map[string]string{
		"not json":           `{`,
		"missing event_type": `{"order_id":1,"payment_id":"p"}`,
		"missing order_id":   `{"event_type":"payment.succeeded","payment_id":"p"}`,
		"negative order_id":  `{"event_type":"payment.succeeded","order_id":-1,"payment_id":"p"}`,
		"missing payment_id": `{"event_type":"payment.succeeded","order_id":1}`,
		"order_id as string": `{"event_type":"payment.succeeded","order_id":"1","payment_id":"p"}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			_, err := ParseNotification([]byte(body))
			require.ErrorIs(t, err, domainerr.ErrValidation)
			detail, ok := domainerr.Detail(err)
			require.True(t, ok)
			assert.Contains(t, detail, "Invalid webhook payload")
		})
	}
}

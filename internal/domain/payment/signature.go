package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const SignaturePrefix = "sha256="

// Sign returns the X-Webhook-Signature value for body.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return SignaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks header against the HMAC of body in constant time.
func VerifySignature(secret, body []byte, header string) error {
	if strings.TrimSpace(header) == "" {
		return ErrMissingSignature
	}
	if !strings.HasPrefix(header, SignaturePrefix) {
		return ErrInvalidSignature
	}
	expected := Sign(secret, body)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(header))) {
		return ErrInvalidSignature
	}
	return nil
}

package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Verifier checks a webhook delivery's signature against its raw body.
type Verifier interface {
	Verify(body []byte, signature string) bool
}

// HMACVerifier verifies hex-encoded HMAC-SHA256 signatures with a
// constant-time compare.
type HMACVerifier struct {
	secret []byte
}

// NewHMACVerifier builds a verifier for the shared secret.
func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

// Verify reports whether the signature matches the body.
func (v *HMACVerifier) Verify(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

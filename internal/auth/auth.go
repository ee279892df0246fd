// Package auth verifies batch signatures. Clients sign the raw request body
// with HMAC-SHA1 over a shared secret and send the hex digest in a header;
// the gateway recomputes the digest and compares in constant time.
package auth

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
)

// Verifier checks HMAC-SHA1 signatures against a static shared secret.
// It holds no mutable state and is safe for concurrent use.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier for the given shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify reports whether providedSignature is the hex HMAC-SHA1 digest of
// rawBody under the shared secret. It returns false for an empty body, a
// missing or non-hex signature, or a digest mismatch. It never errors:
// malformed input is simply not verified.
func (v *Verifier) Verify(rawBody []byte, providedSignature string) bool {
	if len(rawBody) == 0 || providedSignature == "" {
		return false
	}

	provided, err := hex.DecodeString(providedSignature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha1.New, v.secret)
	mac.Write(rawBody)
	return hmac.Equal(provided, mac.Sum(nil))
}

// Sign returns the hex HMAC-SHA1 digest of body under the shared secret.
// Used by tests and client tooling; the server side only verifies.
func (v *Verifier) Sign(body []byte) string {
	mac := hmac.New(sha1.New, v.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

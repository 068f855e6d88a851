// Package webhook verifies signed callbacks from the verification vendor.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	dErrors "kycdesk/pkg/domain-errors"
)

// DigestHeader carries the hex HMAC-SHA256 of the raw request body.
const DigestHeader = "X-Payload-Digest"

// Verifier checks payload digests against a shared secret.
type Verifier struct {
	secret        []byte
	allowUnsigned bool
}

// NewVerifier builds a verifier. allowUnsigned lets requests without a
// digest through, for local development against a vendor sandbox.
func NewVerifier(secret string, allowUnsigned bool) *Verifier {
	return &Verifier{secret: []byte(secret), allowUnsigned: allowUnsigned}
}

// Sign returns the lowercase hex digest of payload.
func (v *Verifier) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares digest with the expected signature in constant time.
func (v *Verifier) Verify(payload []byte, digest string) error {
	digest = strings.TrimSpace(digest)
	if digest == "" {
		if v.allowUnsigned {
			return nil
		}
		return dErrors.New(dErrors.CodeUnauthorized, "missing payload digest")
	}
	if len(v.secret) == 0 {
		return dErrors.New(dErrors.CodeUnauthorized, "webhook secret not configured")
	}
	got, err := hex.DecodeString(strings.ToLower(digest))
	if err != nil {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid payload digest")
	}
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid payload digest")
	}
	return nil
}

package webhook

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "kycdesk/pkg/domain-errors"
)

func TestVerify(t *testing.T) {
	v := NewVerifier("s3cret", false)
	body := []byte(`{"providerApplicantId":"p-1","status":"GREEN"}`)
	sig := v.Sign(body)

	assert.NoError(t, v.Verify(body, sig))
	assert.NoError(t, v.Verify(body, strings.ToUpper(sig)))

	for name, digest := range map[string]string{
		"missing":  "",
		"not hex":  "zz",
		"mismatch": NewVerifier("other", false).Sign(body),
	} {
		err := v.Verify(body, digest)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized), name)
	}

	assert.Error(t, v.Verify([]byte(`{"tampered":true}`), sig))
}

func TestVerifyAllowUnsigned(t *testing.T) {
	v := NewVerifier("", true)
	assert.NoError(t, v.Verify([]byte("{}"), ""))
	assert.Error(t, v.Verify([]byte("{}"), "abcd"))
}

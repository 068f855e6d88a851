package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	base := New(CodeNotFound, "application not found")
	wrapped := fmt.Errorf("load: %w", base)

	assert.True(t, HasCode(wrapped, CodeNotFound))
	assert.False(t, HasCode(wrapped, CodeConflict))
	assert.False(t, HasCode(nil, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
}

func TestIsMatchesCodeAndMessage(t *testing.T) {
	err := Wrap(errors.New("boom"), CodeUnauthorized, "invalid token")
	assert.ErrorIs(t, err, New(CodeUnauthorized, "invalid token"))
	assert.NotErrorIs(t, err, New(CodeUnauthorized, "token has expired"))
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("db down")))
	assert.Equal(t, CodeValidation, CodeOf(New(CodeValidation, "reason is required")))
}

func TestHTTPStatusRoundTrip(t *testing.T) {
	for _, code := range []Code{CodeBadRequest, CodeUnauthorized, CodeForbidden, CodeNotFound, CodeConflict, CodeRateLimited, CodeUnavailable, CodeTimeout} {
		assert.Equal(t, code, CodeForStatus(HTTPStatus(code)), "code %s", code)
	}
	assert.Equal(t, http.StatusConflict, HTTPStatus(CodeInvalidState))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(Code("mystery")))
}

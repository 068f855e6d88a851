package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	dErrors "kycdesk/pkg/domain-errors"
)

// ErrorCategory is the normalised failure taxonomy for agent calls.
type ErrorCategory string

const (
	ErrorTimeout          ErrorCategory = "timeout"
	ErrorBadData          ErrorCategory = "bad_data"
	ErrorOutage           ErrorCategory = "outage"
	ErrorContractMismatch ErrorCategory = "contract_mismatch"
	ErrorRateLimited      ErrorCategory = "rate_limited"
	ErrorInternal         ErrorCategory = "internal"
)

// Error wraps an agent failure with its category.
type Error struct {
	Category   ErrorCategory
	Op         string
	Message    string
	Underlying error
	Retryable  bool
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("agent %s [%s]: %s: %v", e.Op, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("agent %s [%s]: %s", e.Op, e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

func newError(category ErrorCategory, op, message string, underlying error) *Error {
	return &Error{
		Category:   category,
		Op:         op,
		Message:    message,
		Underlying: underlying,
		Retryable:  category == ErrorTimeout || category == ErrorOutage || category == ErrorRateLimited,
	}
}

// IsRetryable reports whether err is worth retrying later.
func IsRetryable(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Retryable
}

// CategoryOf extracts the category, defaulting to internal.
func CategoryOf(err error) ErrorCategory {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Category
	}
	return ErrorInternal
}

// AsDomainError maps an agent failure to a coded error for API callers.
func AsDomainError(err error) error {
	switch CategoryOf(err) {
	case ErrorTimeout:
		return dErrors.Wrap(err, dErrors.CodeTimeout, "analysis agent timed out")
	case ErrorOutage, ErrorRateLimited:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "analysis agent unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "analysis agent failed")
	}
}

// classifyTransport categorises an error raised before a response arrived.
func classifyTransport(op string, err error) *Error {
	var netErr net.Error
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return newError(ErrorTimeout, op, "request timed out", err)
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return newError(ErrorBadData, op, "malformed response", err)
	case errors.Is(err, context.Canceled):
		return newError(ErrorInternal, op, "request cancelled", err)
	default:
		return newError(ErrorOutage, op, "agent unreachable", err)
	}
}

// classifyStatus categorises a non-2xx response.
func classifyStatus(op string, status int, body string) *Error {
	msg := fmt.Sprintf("status %d", status)
	if body != "" {
		msg += ": " + truncate(body, 200)
	}
	switch {
	case status == http.StatusTooManyRequests:
		return newError(ErrorRateLimited, op, msg, nil)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return newError(ErrorTimeout, op, msg, nil)
	case status >= 500:
		return newError(ErrorOutage, op, msg, nil)
	default:
		return newError(ErrorContractMismatch, op, msg, nil)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

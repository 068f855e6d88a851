// Package api is the console's typed client for the kycdesk REST backend.
// Every failure comes back as a coded domain error so screens can decide
// between showing a message, redirecting to login, or a not-found state.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"kycdesk/internal/desk/session"
	dErrors "kycdesk/pkg/domain-errors"
)

// ErrSessionExpired is returned when the server rejects the stored token.
var ErrSessionExpired = dErrors.New(dErrors.CodeUnauthorized, "session expired, please sign in again")

// credentialPaths answer 401 for bad credentials, not for a stale token.
var credentialPaths = map[string]bool{
	"/api/auth/register":     true,
	"/api/auth/authenticate": true,
}

// Client calls the backend with the session's bearer token.
type Client struct {
	http    *resty.Client
	session *session.Session
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func New(baseURL string, timeout time.Duration, sess *session.Session, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		session: sess,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// errorBody mirrors the server's error envelope.
type errorBody struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx)
	if token := c.session.Token(); token != "" {
		req.SetAuthToken(token)
	}
	return req
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req := c.request(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	return c.execute(ctx, req, method, path, out)
}

func (c *Client) execute(ctx context.Context, req *resty.Request, method, path string, out any) error {
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return transportError(err)
	}
	if !resp.IsError() {
		return nil
	}
	return c.statusError(ctx, path, resp.StatusCode(), resp.Body())
}

// statusError maps a non-2xx response. Auth failures outside the
// credential endpoints end the session.
func (c *Client) statusError(ctx context.Context, path string, status int, raw []byte) error {
	var body errorBody
	_ = json.Unmarshal(raw, &body)
	msg := body.Description

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		if !credentialPaths[path] {
			if err := c.session.Logout(ctx); err != nil {
				c.logger.WarnContext(ctx, "failed to clear session", "error", err)
			}
			return ErrSessionExpired
		}
		if msg == "" {
			msg = "invalid credentials"
		}
		return dErrors.New(dErrors.CodeUnauthorized, msg)
	case status == http.StatusNotFound:
		if msg == "" {
			msg = "not found"
		}
		return dErrors.New(dErrors.CodeNotFound, msg)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return dErrors.New(dErrors.CodeTimeout, "the server took too long to respond")
	case status >= 500:
		return dErrors.New(dErrors.CodeUnavailable, fmt.Sprintf("server error (%d), try again", status))
	}
	code := dErrors.Code(body.Code)
	if code == "" {
		code = dErrors.CodeBadRequest
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return dErrors.New(code, msg)
}

func transportError(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return dErrors.Wrap(err, dErrors.CodeTimeout, "the server took too long to respond")
	case errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "request cancelled")
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "cannot reach the server")
	}
}

// IsTransient reports whether err is worth a manual retry.
func IsTransient(err error) bool {
	return dErrors.HasCode(err, dErrors.CodeUnavailable) || dErrors.HasCode(err, dErrors.CodeTimeout)
}

// IsAuth reports whether err ended the session.
func IsAuth(err error) bool {
	return dErrors.HasCode(err, dErrors.CodeUnauthorized) || dErrors.HasCode(err, dErrors.CodeForbidden)
}

// IsNotFound reports a missing record.
func IsNotFound(err error) bool {
	return dErrors.HasCode(err, dErrors.CodeNotFound)
}

func idPath(format string, id int64) string {
	return fmt.Sprintf(format, id)
}

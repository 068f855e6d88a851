package api

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"kycdesk/internal/agent"
	"kycdesk/internal/audit"
	authmodels "kycdesk/internal/auth/models"
	"kycdesk/internal/kyc/models"
	"kycdesk/internal/kyc/review"
	dErrors "kycdesk/pkg/domain-errors"
)

// Me is the signed-in operator as the server sees it.
type Me struct {
	UserID   int64           `json:"userId"`
	Username string          `json:"username"`
	Role     authmodels.Role `json:"role"`
}

// Register creates an account and signs in.
func (c *Client) Register(ctx context.Context, creds authmodels.Credentials) (*authmodels.AuthResponse, error) {
	return c.authenticate(ctx, "/api/auth/register", creds)
}

// Login signs in and stores the token in the session.
func (c *Client) Login(ctx context.Context, creds authmodels.Credentials) (*authmodels.AuthResponse, error) {
	return c.authenticate(ctx, "/api/auth/authenticate", creds)
}

func (c *Client) authenticate(ctx context.Context, path string, creds authmodels.Credentials) (*authmodels.AuthResponse, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	var out authmodels.AuthResponse
	if err := c.do(ctx, http.MethodPost, path, creds, &out); err != nil {
		return nil, err
	}
	if err := c.session.Login(ctx, out); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store session")
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*Me, error) {
	var out Me
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	var out []*models.Customer
	if err := c.do(ctx, http.MethodGet, "/api/customers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	var out models.Customer
	if err := c.do(ctx, http.MethodGet, idPath("/api/customers/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateCustomer(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	var out models.Customer
	if err := c.do(ctx, http.MethodPost, "/api/customers", customer, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCustomer(ctx context.Context, id int64, customer *models.Customer) (*models.Customer, error) {
	var out models.Customer
	if err := c.do(ctx, http.MethodPut, idPath("/api/customers/%d", id), customer, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCustomer(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/api/customers/%d", id), nil, nil)
}

func (c *Client) Initiate(ctx context.Context, customerID int64) (*models.Application, error) {
	return c.applicationCall(ctx, http.MethodPost, idPath("/api/kyc/initiate/%d", customerID))
}

func (c *Client) GetApplication(ctx context.Context, id int64) (*models.Application, error) {
	return c.applicationCall(ctx, http.MethodGet, idPath("/api/kyc/%d", id))
}

func (c *Client) Submit(ctx context.Context, id int64) (*models.Application, error) {
	return c.applicationCall(ctx, http.MethodPost, idPath("/api/kyc/%d/submit", id))
}

func (c *Client) Resubmit(ctx context.Context, id int64) (*models.Application, error) {
	return c.applicationCall(ctx, http.MethodPost, idPath("/api/kyc/%d/resubmit", id))
}

func (c *Client) applicationCall(ctx context.Context, method, path string) (*models.Application, error) {
	var out models.Application
	if err := c.do(ctx, method, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Upload sends one document as multipart form data.
func (c *Client) Upload(ctx context.Context, appID int64, docType models.DocumentType, fileName string, r io.Reader) (*models.Document, error) {
	if fileName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "a file is required")
	}
	var out models.Document
	req := c.request(ctx).
		SetFileReader("file", fileName, r).
		SetFormData(map[string]string{"type": string(docType)})
	if err := c.execute(ctx, req, http.MethodPost, idPath("/api/kyc/%d/upload", appID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Decide sends a reviewer decision. Callers validate first; the server
// enforces the same policy.
func (c *Client) Decide(ctx context.Context, d review.Decision) (*models.Application, error) {
	q := url.Values{}
	q.Set("reviewerName", d.Reviewer)
	var path string
	switch d.Action {
	case review.ActionApprove:
		path = "/api/kyc/%d/approve"
		if d.Comment != "" {
			q.Set("comment", d.Comment)
		}
	case review.ActionReject:
		path = "/api/kyc/%d/reject"
		q.Set("reason", d.Reason)
	case review.ActionRequestInfo:
		path = "/api/kyc/%d/request-info"
		q.Set("comment", d.Comment)
	default:
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown review action: "+string(d.Action))
	}
	var out models.Application
	req := c.request(ctx).SetQueryParamsFromValues(q)
	if err := c.execute(ctx, req, http.MethodPost, idPath(path, d.ApplicationID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListByCustomer(ctx context.Context, customerID int64) ([]*models.Application, error) {
	return c.applicationList(ctx, idPath("/api/kyc/customer/%d", customerID))
}

func (c *Client) ListApplications(ctx context.Context) ([]*models.Application, error) {
	return c.applicationList(ctx, "/api/kyc/applications")
}

func (c *Client) ListByStatus(ctx context.Context, status models.Status) ([]*models.Application, error) {
	return c.applicationList(ctx, "/api/kyc/applications/status/"+url.PathEscape(string(status)))
}

func (c *Client) ReviewQueue(ctx context.Context) ([]*models.Application, error) {
	return c.applicationList(ctx, "/api/kyc/review-queue")
}

func (c *Client) applicationList(ctx context.Context, path string) ([]*models.Application, error) {
	var out []*models.Application
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) History(ctx context.Context, appID int64) ([]audit.Event, error) {
	var out []audit.Event
	if err := c.do(ctx, http.MethodGet, idPath("/api/kyc/%d/history", appID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Analytics(ctx context.Context) (*models.Summary, error) {
	var out models.Summary
	if err := c.do(ctx, http.MethodGet, "/api/kyc/analytics/summary", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AgentHealth(ctx context.Context) (*agent.Health, error) {
	var out agent.Health
	if err := c.do(ctx, http.MethodGet, "/api/agent/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AgentInfo(ctx context.Context) (*agent.Info, error) {
	var out agent.Info
	if err := c.do(ctx, http.MethodGet, "/api/agent/info", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QuickAssess asks the backend for an advisory single-pass screening.
func (c *Client) QuickAssess(ctx context.Context, customerID int64) (*agent.QuickAssessment, error) {
	var out agent.QuickAssessment
	if err := c.do(ctx, http.MethodPost, idPath("/api/agent/quick/%d", customerID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ParseID reads a numeric record id typed by the operator.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "id must be a positive number")
	}
	return id, nil
}

// Package handler exposes the KYC review workflow over HTTP.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"kycdesk/internal/agent"
	"kycdesk/internal/audit"
	"kycdesk/internal/kyc/models"
	"kycdesk/internal/kyc/review"
	"kycdesk/internal/kyc/service"
	"kycdesk/internal/platform/middleware"
	"kycdesk/internal/webhook"
	dErrors "kycdesk/pkg/domain-errors"
	"kycdesk/pkg/platform/httputil"
	"kycdesk/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/kyc-mocks.go -package=mocks Service

// Service is the KYC workflow surface the handler drives.
type Service interface {
	CreateCustomer(ctx context.Context, c *models.Customer) (*models.Customer, error)
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)
	ListCustomers(ctx context.Context) ([]*models.Customer, error)
	UpdateCustomer(ctx context.Context, id int64, c *models.Customer) (*models.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error

	Initiate(ctx context.Context, customerID int64) (*models.Application, error)
	Upload(ctx context.Context, appID int64, docType models.DocumentType, fileName string, r io.Reader) (*models.Document, error)
	Submit(ctx context.Context, appID int64) (*models.Application, error)
	Resubmit(ctx context.Context, appID int64) (*models.Application, error)
	Decide(ctx context.Context, d review.Decision) (*models.Application, error)

	Get(ctx context.Context, id int64) (*models.Application, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]*models.Application, error)
	List(ctx context.Context) ([]*models.Application, error)
	ListByStatus(ctx context.Context, status string) ([]*models.Application, error)
	ReviewQueue(ctx context.Context) ([]*models.Application, error)
	History(ctx context.Context, appID int64) ([]audit.Event, error)
	Analytics(ctx context.Context) (*models.Summary, error)

	AgentHealth(ctx context.Context) (*agent.Health, error)
	AgentInfo(ctx context.Context) (*agent.Info, error)
	QuickAssess(ctx context.Context, customerID int64) (*agent.QuickAssessment, error)

	ProcessWebhook(ctx context.Context, event service.WebhookEvent) (*models.Application, error)
}

const (
	requestTimeout  = 30 * time.Second
	maxWebhookBytes = 1 << 20
	multipartSlack  = 1 << 20
)

// Handler serves customer, application, reviewer and webhook endpoints.
type Handler struct {
	svc            Service
	verifier       *webhook.Verifier
	jwtValidator   middleware.JWTValidator
	logger         *slog.Logger
	maxUploadBytes int64
}

func New(svc Service, verifier *webhook.Verifier, jwtValidator middleware.JWTValidator, logger *slog.Logger, maxUploadBytes int64) *Handler {
	return &Handler{
		svc:            svc,
		verifier:       verifier,
		jwtValidator:   jwtValidator,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// Register mounts the routes on the /api router. Webhooks are public and
// authenticated by their payload digest; everything else needs a bearer token.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Post("/webhooks/kyc", h.handleWebhook)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		r.Get("/customers", h.handleListCustomers)
		r.Post("/customers", h.handleCreateCustomer)
		r.Get("/customers/{id}", h.handleGetCustomer)
		r.Put("/customers/{id}", h.handleUpdateCustomer)
		r.Delete("/customers/{id}", h.handleDeleteCustomer)

		r.Post("/kyc/initiate/{customerId}", h.handleInitiate)
		r.Get("/kyc/customer/{customerId}", h.handleListByCustomer)
		r.Get("/kyc/applications", h.handleListApplications)
		r.Get("/kyc/applications/status/{status}", h.handleListByStatus)
		r.Get("/kyc/review-queue", h.handleReviewQueue)
		r.Get("/kyc/analytics/summary", h.handleAnalytics)

		r.Get("/kyc/{id}", h.handleGetApplication)
		r.Get("/kyc/{id}/history", h.handleHistory)
		r.Post("/kyc/{id}/upload", h.handleUpload)
		r.Post("/kyc/{id}/submit", h.handleSubmit)
		r.Post("/kyc/{id}/resubmit", h.handleResubmit)
		r.Post("/kyc/{id}/approve", h.handleDecision(review.ActionApprove))
		r.Post("/kyc/{id}/reject", h.handleDecision(review.ActionReject))
		r.Post("/kyc/{id}/request-info", h.handleDecision(review.ActionRequestInfo))

		r.Get("/agent/health", h.handleAgentHealth)
		r.Get("/agent/info", h.handleAgentInfo)
		r.Post("/agent/quick/{customerId}", h.handleQuickAssess)
	})
}

// writeFailure logs by severity and writes the coded error.
func (h *Handler) writeFailure(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	requestID := middleware.GetRequestID(ctx)
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeUnavailable, dErrors.CodeTimeout:
		h.logger.ErrorContext(ctx, msg,
			"error", err,
			"request_id", requestID,
		)
	default:
		h.logger.WarnContext(ctx, msg,
			"error", err,
			"request_id", requestID,
		)
	}
	httputil.WriteError(w, err)
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid "+name+": "+raw)
	}
	return id, nil
}

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unreadable body"))
		return
	}
	if err := h.verifier.Verify(body, r.Header.Get(webhook.DigestHeader)); err != nil {
		h.writeFailure(ctx, w, err, "webhook signature rejected")
		return
	}

	var event service.WebhookEvent
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&event); err != nil {
		h.logger.WarnContext(ctx, "invalid webhook payload",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	app, err := h.svc.ProcessWebhook(ctx, event)
	if err != nil {
		h.writeFailure(ctx, w, err, "failed to process webhook")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, WebhookResponse{
		ApplicationID: app.ID,
		Status:        string(app.Status),
	})
}

func (h *Handler) handleAgentHealth(w http.ResponseWriter, r *http.Request) {
	health, err := h.svc.AgentHealth(r.Context())
	if err != nil {
		h.writeFailure(r.Context(), w, err, "agent health check failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, health)
}

func (h *Handler) handleAgentInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.AgentInfo(r.Context())
	if err != nil {
		h.writeFailure(r.Context(), w, err, "agent info failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, info)
}

func (h *Handler) handleQuickAssess(w http.ResponseWriter, r *http.Request) {
	customerID, err := pathID(r, "customerId")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	qa, err := h.svc.QuickAssess(r.Context(), customerID)
	if err != nil {
		h.writeFailure(r.Context(), w, err, "quick assessment failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, qa)
}

// WebhookResponse acknowledges a processed vendor result.
type WebhookResponse struct {
	ApplicationID int64  `json:"applicationId"`
	Status        string `json:"status"`
}

// principalName is used when a reviewer action omits reviewerName.
func principalName(ctx context.Context) string {
	return requestcontext.Username(ctx)
}

// Package handler serves registration, login and the current-user probe.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"kycdesk/internal/auth/models"
	"kycdesk/internal/platform/middleware"
	dErrors "kycdesk/pkg/domain-errors"
	"kycdesk/pkg/platform/httputil"
)

//go:generate mockgen -source=handler.go -destination=mocks/auth-mocks.go -package=mocks Service

// Service is the auth surface the handler drives.
type Service interface {
	Register(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error)
	Authenticate(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error)
	Me(ctx context.Context) (*models.User, error)
}

// Handler handles /auth endpoints.
type Handler struct {
	auth         Service
	limiter      *middleware.IPLimiter
	jwtValidator middleware.JWTValidator
	logger       *slog.Logger
}

func New(auth Service, limiter *middleware.IPLimiter, jwtValidator middleware.JWTValidator, logger *slog.Logger) *Handler {
	return &Handler{
		auth:         auth,
		limiter:      limiter,
		jwtValidator: jwtValidator,
		logger:       logger,
	}
}

// Register mounts /auth on the /api router. Register and authenticate are
// public and rate limited per client IP.
func (h *Handler) Register(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))
		r.Use(middleware.ContentTypeJSON)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(h.limiter, h.logger))
			r.Post("/register", h.handleRegister)
			r.Post("/authenticate", h.handleAuthenticate)
		})
		r.With(middleware.RequireAuth(h.jwtValidator, h.logger)).Get("/me", h.handleMe)
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	creds, ok := httputil.DecodeAndPrepare[models.Credentials](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	resp, err := h.auth.Register(ctx, *creds)
	if err != nil {
		h.logger.WarnContext(ctx, "registration failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

// loginRequest skips the registration rules so every failed login reads
// "invalid credentials".
type loginRequest models.Credentials

func (h *Handler) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	creds, ok := httputil.DecodeAndPrepare[loginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	resp, err := h.auth.Authenticate(ctx, models.Credentials(*creds))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// MeResponse describes the authenticated operator.
type MeResponse struct {
	UserID   int64       `json:"userId"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Me(r.Context())
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			h.logger.ErrorContext(r.Context(), "failed to load current user",
				"error", err,
				"request_id", middleware.GetRequestID(r.Context()),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MeResponse{UserID: user.ID, Username: user.Username, Role: user.Role})
}

// Package httptransport assembles the server's HTTP surface: global
// middleware, the /api handlers, stored documents, health and metrics.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kycdesk/internal/documents"
	"kycdesk/internal/platform/metrics"
	"kycdesk/internal/platform/middleware"
	"kycdesk/pkg/platform/httputil"
)

// Registrar mounts a handler's routes on the /api router.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Config is everything NewRouter needs.
type Config struct {
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
	JWTValidator middleware.JWTValidator
	Handlers     []Registrar
	UploadDir    string
	HealthChecks map[string]HealthCheck
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// NewRouter builds the chi router with global middleware applied in order.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.LatencyMiddleware(cfg.Metrics))
	}

	r.Route("/api", func(r chi.Router) {
		for _, h := range cfg.Handlers {
			h.Register(r)
		}
	})

	if cfg.UploadDir != "" {
		files := http.StripPrefix(documents.URLPrefix, http.FileServer(http.Dir(cfg.UploadDir)))
		r.With(middleware.RequireAuth(cfg.JWTValidator, cfg.Logger)).
			Handle(documents.URLPrefix+"*", files)
	}

	r.Get("/health", healthHandler(cfg.HealthChecks))

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := HealthResponse{Status: "ok"}
		status := http.StatusOK
		for name, check := range checks {
			if resp.Checks == nil {
				resp.Checks = make(map[string]string, len(checks))
			}
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}

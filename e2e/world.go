// Package e2e drives the console against an in-process server with the
// scenarios under features/.
package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"kycdesk/internal/agent"
	"kycdesk/internal/audit"
	auditmemory "kycdesk/internal/audit/store/memory"
	authhandler "kycdesk/internal/auth/handler"
	authmodels "kycdesk/internal/auth/models"
	authservice "kycdesk/internal/auth/service"
	userstore "kycdesk/internal/auth/store/user"
	"kycdesk/internal/desk/api"
	"kycdesk/internal/desk/screen"
	"kycdesk/internal/desk/session"
	"kycdesk/internal/documents"
	"kycdesk/internal/events"
	jwttoken "kycdesk/internal/jwt_token"
	kychandler "kycdesk/internal/kyc/handler"
	kycmetrics "kycdesk/internal/kyc/metrics"
	"kycdesk/internal/kyc/models"
	kycservice "kycdesk/internal/kyc/service"
	kycmemory "kycdesk/internal/kyc/store/memory"
	"kycdesk/internal/platform/metrics"
	"kycdesk/internal/platform/middleware"
	httptransport "kycdesk/internal/transport/http"
	"kycdesk/internal/webhook"
)

// fakeAgent serves the analysis endpoints with a configurable report.
type fakeAgent struct {
	mu     sync.Mutex
	report agent.Report
}

func (f *fakeAgent) set(r agent.Report) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.report = r
}

func (f *fakeAgent) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/analyze":
		f.mu.Lock()
		report := f.report
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(report)
	default:
		_ = json.NewEncoder(w).Encode(agent.Health{Status: "healthy", Service: "fake-agent"})
	}
}

// world is one scenario's system under test plus the state steps share.
type world struct {
	server  *httptest.Server
	agentUp *httptest.Server
	agent   *fakeAgent
	kyc     *kycservice.Service
	jwt     *jwttoken.JWTService

	session *session.Session
	client  *api.Client
	desk    *screen.Dispatcher

	customer *models.Customer
	view     *screen.ApplicationView
	lastErr  error

	cancelWorkers context.CancelFunc
	workersDone   chan struct{}
}

func newWorld(uploadDir string) (*world, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := &world{agent: &fakeAgent{}}
	w.agent.set(agent.Report{CaseID: "CASE-1", RiskScore: 10, Status: "APPROVED"})
	w.agentUp = httptest.NewServer(w.agent)

	files, err := documents.NewLocalStorage(uploadDir, 1<<20)
	if err != nil {
		return nil, err
	}
	store := kycmemory.New()
	reg := prometheus.NewRegistry()
	w.kyc = kycservice.New(store, kycservice.NewLocalTx(store), agent.New(w.agentUp.URL, 5*time.Second), files,
		kycservice.WithLogger(logger),
		kycservice.WithMetrics(kycmetrics.New(reg)),
		kycservice.WithAuditPublisher(audit.NewPublisher(auditmemory.NewInMemoryStore())),
		kycservice.WithEventPublisher(events.NewLogPublisher(logger, events.NewListener(logger))),
	)

	w.jwt = jwttoken.NewJWTService("e2e-signing-key", "kycdesk")
	validator := jwttoken.NewJWTServiceAdapter(w.jwt)
	auth := authservice.New(userstore.New(), w.jwt, time.Hour, authservice.WithLogger(logger))

	w.server = httptest.NewServer(httptransport.NewRouter(httptransport.Config{
		Logger:       logger,
		Metrics:      metrics.New(reg),
		Gatherer:     reg,
		JWTValidator: validator,
		Handlers: []httptransport.Registrar{
			authhandler.New(auth, middleware.NewIPLimiter(100), validator, logger),
			kychandler.New(w.kyc, webhook.NewVerifier("e2e-secret", false), validator, logger, 1<<20),
		},
		UploadDir: files.Dir(),
	}))

	w.session = session.New(session.NewMemoryStore())
	w.client = api.New(w.server.URL, 5*time.Second, w.session, api.WithLogger(logger))
	w.desk = screen.New(w.client, w.session, screen.WithLogger(logger))
	return w, nil
}

func (w *world) startWorkers() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancelWorkers = cancel
	w.workersDone = make(chan struct{})
	go func() {
		defer close(w.workersDone)
		_ = w.kyc.Run(ctx)
	}()
}

func (w *world) close() {
	if w.cancelWorkers != nil {
		w.cancelWorkers()
		<-w.workersDone
	}
	w.server.Close()
	w.agentUp.Close()
}

func (w *world) register(ctx context.Context, username string) error {
	_, err := w.client.Register(ctx, authmodels.Credentials{Username: username, Password: "correct-horse-battery"})
	return err
}

func (w *world) refresh(ctx context.Context) error {
	if w.view == nil {
		return fmt.Errorf("no application in this scenario")
	}
	view, err := w.desk.OpenApplication(ctx, w.view.Application.ID)
	if err != nil {
		return err
	}
	w.view = view
	return nil
}

package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"kycdesk/internal/agent"
	"kycdesk/internal/audit"
	"kycdesk/internal/documents"
	"kycdesk/internal/events"
	"kycdesk/internal/kyc/metrics"
	"kycdesk/internal/kyc/models"
	dErrors "kycdesk/pkg/domain-errors"
	"kycdesk/pkg/platform/sentinel"
)

//go:generate mockgen -source=service.go -destination=mocks/service-mocks.go -package=mocks AgentClient EventPublisher

// Store is the persistence surface for customers, applications and
// documents. Implementations return sentinel errors.
type Store interface {
	CreateCustomer(ctx context.Context, c *models.Customer) error
	FindCustomer(ctx context.Context, id int64) (*models.Customer, error)
	ListCustomers(ctx context.Context) ([]*models.Customer, error)
	UpdateCustomer(ctx context.Context, c *models.Customer) error
	DeleteCustomer(ctx context.Context, id int64) ([]string, error)

	CreateApplication(ctx context.Context, app *models.Application) error
	FindApplication(ctx context.Context, id int64) (*models.Application, error)
	FindApplicationForUpdate(ctx context.Context, id int64) (*models.Application, error)
	FindByProviderApplicantID(ctx context.Context, providerID string) (*models.Application, error)
	ListApplications(ctx context.Context, filter models.ApplicationFilter) ([]*models.Application, error)
	UpdateApplication(ctx context.Context, app *models.Application) error
	AddDocument(ctx context.Context, doc *models.Document) error
}

// TxRunner runs fn atomically. The ctx handed to fn carries the
// transaction so other stores can join it.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}

// AgentClient is the external analysis service.
type AgentClient interface {
	Health(ctx context.Context) (*agent.Health, error)
	Info(ctx context.Context) (*agent.Info, error)
	Analyze(ctx context.Context, req agent.AnalyzeRequest) (*agent.Report, error)
	QuickAssess(ctx context.Context, req agent.AnalyzeRequest) (*agent.QuickAssessment, error)
}

// DocumentStorage persists uploaded files.
type DocumentStorage interface {
	Save(ctx context.Context, originalName string, r io.Reader) (*documents.Stored, error)
	Delete(ctx context.Context, url string) error
}

// AuditPublisher records application transitions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
	List(ctx context.Context, applicationID int64) ([]audit.Event, error)
}

// EventPublisher announces completed applications.
type EventPublisher interface {
	PublishCompleted(ctx context.Context, event events.KycCompleted) error
}

// SystemActor attributes automated transitions.
const SystemActor = "system"

const defaultQueueSize = 64

// Service is the system of record for the KYC review workflow.
type Service struct {
	store   Store
	tx      TxRunner
	agent   AgentClient
	files   DocumentStorage
	audit   AuditPublisher
	events  EventPublisher
	metrics *metrics.Metrics
	logger  *slog.Logger

	workers int
	jobs    chan analysisJob
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.audit = p }
}

func WithEventPublisher(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithAnalysisWorkers sets the worker count and queue capacity used by Run.
func WithAnalysisWorkers(workers, queueSize int) Option {
	return func(s *Service) {
		if workers > 0 {
			s.workers = workers
		}
		if queueSize > 0 {
			s.jobs = make(chan analysisJob, queueSize)
		}
	}
}

func New(store Store, tx TxRunner, agentClient AgentClient, files DocumentStorage, opts ...Option) *Service {
	s := &Service{
		store:   store,
		tx:      tx,
		agent:   agentClient,
		files:   files,
		logger:  slog.Default(),
		workers: 1,
		jobs:    make(chan analysisJob, defaultQueueSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LocalTx serialises transactions over a store without native
// transactions, such as the in-memory store.
type LocalTx struct {
	mu    sync.Mutex
	store Store
}

func NewLocalTx(store Store) *LocalTx {
	return &LocalTx{store: store}
}

func (t *LocalTx) RunInTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx, t.store)
}

// storeErr translates store sentinels into coded errors. Coded errors pass
// through unchanged.
func storeErr(err error, subject string) error {
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, subject+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, subject+" conflicts with an existing record")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeInvalidState, subject+" is in the wrong state")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "storage unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "storage timed out")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
	}
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to record audit event",
			"error", err,
			"application_id", event.ApplicationID,
			"action", string(event.Action),
		)
	}
}

func (s *Service) publishCompleted(ctx context.Context, app *models.Application) {
	if s.events == nil || !app.Status.Terminal() {
		return
	}
	event := events.KycCompleted{
		ApplicationID: app.ID,
		CustomerID:    app.CustomerID,
		Status:        string(app.Status),
		ReviewedBy:    app.ReviewedBy,
		OccurredAt:    app.UpdatedAt,
	}
	if err := s.events.PublishCompleted(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish kyc completed",
			"error", err,
			"application_id", app.ID,
		)
	}
}

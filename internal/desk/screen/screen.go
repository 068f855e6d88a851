// Package screen holds the console's screen controllers. Each operation
// checks the route guard before touching the backend, validates locally
// before dispatch, and refetches after a mutation so the caller only ever
// renders server state.
package screen

import (
	"context"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"kycdesk/internal/agent"
	"kycdesk/internal/audit"
	"kycdesk/internal/desk/api"
	"kycdesk/internal/kyc/models"
	"kycdesk/internal/kyc/review"
)

//go:generate mockgen -source=screen.go -destination=mocks/screen-mocks.go -package=mocks Backend

// Backend is the part of the REST client the screens drive.
type Backend interface {
	ListCustomers(ctx context.Context) ([]*models.Customer, error)
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)
	CreateCustomer(ctx context.Context, customer *models.Customer) (*models.Customer, error)
	UpdateCustomer(ctx context.Context, id int64, customer *models.Customer) (*models.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error

	Initiate(ctx context.Context, customerID int64) (*models.Application, error)
	GetApplication(ctx context.Context, id int64) (*models.Application, error)
	Submit(ctx context.Context, id int64) (*models.Application, error)
	Resubmit(ctx context.Context, id int64) (*models.Application, error)
	Upload(ctx context.Context, appID int64, docType models.DocumentType, fileName string, r io.Reader) (*models.Document, error)
	Decide(ctx context.Context, d review.Decision) (*models.Application, error)

	ListByCustomer(ctx context.Context, customerID int64) ([]*models.Application, error)
	ListApplications(ctx context.Context) ([]*models.Application, error)
	ListByStatus(ctx context.Context, status models.Status) ([]*models.Application, error)
	ReviewQueue(ctx context.Context) ([]*models.Application, error)
	History(ctx context.Context, appID int64) ([]audit.Event, error)
	Analytics(ctx context.Context) (*models.Summary, error)
	AgentHealth(ctx context.Context) (*agent.Health, error)
}

// Authenticator reports whether a session is active.
type Authenticator interface {
	IsAuthenticated() bool
}

var _ Backend = (*api.Client)(nil)

// Dispatcher runs screen operations against the backend.
type Dispatcher struct {
	backend  Backend
	auth     Authenticator
	logger   *slog.Logger
	now      func() time.Time
	inflight singleflight.Group
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithClock sets the clock used for local customer validation.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

func New(backend Backend, auth Authenticator, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		backend: backend,
		auth:    auth,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"kycdesk/pkg/requestcontext"
)

// Publisher captures structured audit events. Synchronous by default; with
// WithAsyncBuffer it hands events to a background Worker.
type Publisher struct {
	store  Store
	logger *slog.Logger
	inbox  chan Event
	done   chan struct{}
	once   sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous persistence with a buffer of size n.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.inbox = make(chan Event, n)
		}
	}
}

// WithLogger sets the logger used for dropped or failed events.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.done = make(chan struct{})
		worker := NewWorker(store, p.inbox, p.logger)
		go func() {
			defer close(p.done)
			worker.Run(context.Background())
		}()
	}
	return p
}

// Emit fills in ID, time and request metadata from ctx, then records the
// event. In async mode a full buffer drops the event with a warning.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}
	if event.UserAgent == "" {
		event.UserAgent = requestcontext.UserAgent(ctx)
	}
	if event.ClientInfo == "" {
		event.ClientInfo = ClientInfo(event.UserAgent)
	}

	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit buffer full, dropping event",
			"application_id", event.ApplicationID,
			"action", string(event.Action),
			"request_id", event.RequestID,
		)
	}
	return nil
}

// List returns the trail for one application, oldest first.
func (p *Publisher) List(ctx context.Context, applicationID int64) ([]Event, error) {
	return p.store.ListByApplication(ctx, applicationID)
}

// Close stops accepting events and waits for buffered ones to persist.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.inbox == nil {
			return
		}
		close(p.inbox)
		select {
		case <-p.done:
		case <-time.After(5 * time.Second):
			p.logger.Warn("audit drain timed out")
		}
	})
}

package audit

import (
	"context"
	"log/slog"
)

// Worker consumes audit events from a channel and persists them.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run drains the inbox until it is closed. A failed append is logged and
// the worker moves on, since the decision it records is already committed.
func (w *Worker) Run(ctx context.Context) {
	for event := range w.inbox {
		if err := w.store.Append(ctx, event); err != nil {
			w.logger.ErrorContext(ctx, "failed to persist audit event",
				"error", err,
				"application_id", event.ApplicationID,
				"action", string(event.Action),
				"request_id", event.RequestID,
			)
		}
	}
}

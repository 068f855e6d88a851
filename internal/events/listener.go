package events

import (
	"context"
	"log/slog"
	"sync"
)

// FollowUp is the action triggered by a completed application.
type FollowUp string

const (
	FollowUpWelcome   FollowUp = "welcome_notice"
	FollowUpRejection FollowUp = "rejection_notice"
	FollowUpNone      FollowUp = ""
)

// FollowUpFor maps a final status to its follow-up.
func FollowUpFor(status string) FollowUp {
	switch status {
	case "APPROVED":
		return FollowUpWelcome
	case "REJECTED":
		return FollowUpRejection
	default:
		return FollowUpNone
	}
}

// Listener reacts to completion events. Notification delivery is out of
// scope, so it records and logs the follow-up it would send.
type Listener struct {
	logger *slog.Logger

	mu      sync.Mutex
	handled []KycCompleted
}

func NewListener(logger *slog.Logger) *Listener {
	return &Listener{logger: logger}
}

func (l *Listener) Handle(ctx context.Context, event KycCompleted) {
	l.mu.Lock()
	l.handled = append(l.handled, event)
	l.mu.Unlock()

	followUp := FollowUpFor(event.Status)
	if followUp == FollowUpNone {
		l.logger.WarnContext(ctx, "kyc completed with non-final status",
			"application_id", event.ApplicationID,
			"status", event.Status,
		)
		return
	}
	l.logger.InfoContext(ctx, "kyc follow-up scheduled",
		"application_id", event.ApplicationID,
		"customer_id", event.CustomerID,
		"follow_up", string(followUp),
	)
}

// Handled returns a copy of the events seen so far.
func (l *Listener) Handled() []KycCompleted {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]KycCompleted(nil), l.handled...)
}

// LogPublisher logs events and hands them straight to an optional listener.
// It stands in for Kafka when no brokers are configured.
type LogPublisher struct {
	logger   *slog.Logger
	listener *Listener
}

func NewLogPublisher(logger *slog.Logger, listener *Listener) *LogPublisher {
	return &LogPublisher{logger: logger, listener: listener}
}

func (p *LogPublisher) PublishCompleted(ctx context.Context, event KycCompleted) error {
	p.logger.InfoContext(ctx, "kyc completed",
		"application_id", event.ApplicationID,
		"customer_id", event.CustomerID,
		"status", event.Status,
	)
	if p.listener != nil {
		p.listener.Handle(ctx, event)
	}
	return nil
}

// Package audit records who moved a KYC application between states, from
// where and when.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action names a recorded application transition.
type Action string

const (
	ActionSubmitted         Action = "submitted"
	ActionResubmitted       Action = "resubmitted"
	ActionAnalysisCleared   Action = "analysis_cleared"
	ActionAnalysisEscalated Action = "analysis_escalated"
	ActionAnalysisFailed    Action = "analysis_failed"
	ActionWebhookReceived   Action = "webhook_received"
	ActionApproved          Action = "approved"
	ActionRejected          Action = "rejected"
	ActionInfoRequested     Action = "info_requested"
)

// Event is one append-only audit record.
type Event struct {
	ID            uuid.UUID `json:"id"`
	ApplicationID int64     `json:"applicationId"`
	Action        Action    `json:"action"`
	FromStatus    string    `json:"fromStatus"`
	ToStatus      string    `json:"toStatus"`
	Actor         string    `json:"actor"`
	Comment       string    `json:"comment,omitempty"`
	RequestID     string    `json:"requestId,omitempty"`
	ClientIP      string    `json:"clientIp,omitempty"`
	UserAgent     string    `json:"userAgent,omitempty"`
	ClientInfo    string    `json:"clientInfo,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByApplication(ctx context.Context, applicationID int64) ([]Event, error)
}

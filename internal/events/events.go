// Package events publishes the outcome of finished KYC applications.
package events

import (
	"context"
	"time"
)

// KycCompleted is emitted when an application reaches APPROVED or REJECTED.
type KycCompleted struct {
	ApplicationID int64     `json:"applicationId"`
	CustomerID    int64     `json:"customerId"`
	Status        string    `json:"status"`
	ReviewedBy    string    `json:"reviewedBy,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// Publisher delivers completion events.
type Publisher interface {
	PublishCompleted(ctx context.Context, event KycCompleted) error
}

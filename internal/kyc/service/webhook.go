package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"kycdesk/internal/agent"
	"kycdesk/internal/audit"
	"kycdesk/internal/kyc/models"
	"kycdesk/internal/kyc/review"
	dErrors "kycdesk/pkg/domain-errors"
	"kycdesk/pkg/requestcontext"
)

// Vendor verdicts carried by result webhooks.
const (
	VendorGreen    = "GREEN"
	VendorApproved = "APPROVED"
)

// WebhookEvent is a vendor verification result. RiskScore is on the
// vendor's hazard scale.
type WebhookEvent struct {
	ProviderApplicantID string          `json:"providerApplicantId"`
	Status              string          `json:"status"`
	RiskScore           *agent.Hazard   `json:"riskScore"`
	RiskLabels          json.RawMessage `json:"riskLabels"`
}

// Validate checks the fields required for routing.
func (e *WebhookEvent) Validate() error {
	e.ProviderApplicantID = strings.TrimSpace(e.ProviderApplicantID)
	e.Status = strings.ToUpper(strings.TrimSpace(e.Status))
	if e.ProviderApplicantID == "" {
		return dErrors.New(dErrors.CodeValidation, "providerApplicantId is required")
	}
	if e.Status == "" {
		return dErrors.New(dErrors.CodeValidation, "status is required")
	}
	return nil
}

// ProcessWebhook applies a vendor result. Vendors can clear or escalate an
// application but never reject it.
func (s *Service) ProcessWebhook(ctx context.Context, event WebhookEvent) (*models.Application, error) {
	requestID := requestcontext.RequestID(ctx)
	if err := event.Validate(); err != nil {
		s.metrics.IncWebhook("invalid")
		return nil, err
	}
	var score *models.RiskScore
	if event.RiskScore != nil {
		converted, err := event.RiskScore.RiskScore()
		if err != nil {
			s.metrics.IncWebhook("invalid")
			return nil, err
		}
		score = &converted
	}

	now := requestcontext.Now(ctx)
	var (
		updated *models.Application
		ignored bool
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context, store Store) error {
		found, err := store.FindByProviderApplicantID(ctx, event.ProviderApplicantID)
		if err != nil {
			return storeErr(err, "application")
		}
		app, err := store.FindApplicationForUpdate(ctx, found.ID)
		if err != nil {
			return storeErr(err, "application")
		}
		// Drafts have not been submitted, so no vendor result can apply yet.
		if app.Status.Terminal() || app.Status == models.StatusDraft {
			ignored = true
			updated = app
			return nil
		}
		from := app.Status

		if score != nil {
			app.RiskScore = score
		}
		if labels := bytes.TrimSpace(event.RiskLabels); len(labels) > 0 && !bytes.Equal(labels, []byte("null")) {
			app.RiskLabels = models.ResultPayload(labels)
		}

		cleared := (event.Status == VendorGreen || event.Status == VendorApproved) &&
			app.Status == models.StatusSubmitted &&
			models.RiskTierOf(app.RiskScore).Tier == models.TierLow
		switch {
		case cleared:
			if err := review.Advance(app, review.EventAnalysisCleared, now); err != nil {
				return err
			}
			app.SetManualReview(false)
			app.ReviewedBy = SystemActor
			reviewedAt := now
			app.ReviewedAt = &reviewedAt
		case review.EventAnalysisEscalated.Allowed(app.Status):
			if err := review.Advance(app, review.EventAnalysisEscalated, now); err != nil {
				return err
			}
			app.SetManualReview(true)
		default:
			app.SetManualReview(true)
			app.UpdatedAt = now
		}

		if err := store.UpdateApplication(ctx, app); err != nil {
			return storeErr(err, "application")
		}
		s.emitAudit(ctx, audit.Event{
			ApplicationID: app.ID,
			Action:        audit.ActionWebhookReceived,
			FromStatus:    string(from),
			ToStatus:      string(app.Status),
			Actor:         SystemActor,
			Comment:       event.Status,
		})
		updated = app
		return nil
	})
	if err != nil {
		s.metrics.IncWebhook("error")
		s.logger.WarnContext(ctx, "webhook not applied",
			"error", err,
			"provider_applicant_id", event.ProviderApplicantID,
			"request_id", requestID,
		)
		return nil, err
	}
	if ignored {
		s.metrics.IncWebhook("ignored")
		s.logger.InfoContext(ctx, "webhook ignored, application not awaiting a result",
			"application_id", updated.ID,
			"status", string(updated.Status),
			"request_id", requestID,
		)
		return updated, nil
	}

	s.metrics.IncWebhook("applied")
	if updated.Status.Terminal() {
		s.publishCompleted(ctx, updated)
	}
	s.logger.InfoContext(ctx, "webhook applied",
		"application_id", updated.ID,
		"vendor_status", event.Status,
		"status", string(updated.Status),
		"request_id", requestID,
	)
	return updated, nil
}

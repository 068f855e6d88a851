package service

import (
	"context"

	"kycdesk/internal/audit"
	"kycdesk/internal/kyc/models"
	"kycdesk/internal/kyc/review"
	"kycdesk/pkg/requestcontext"
)

var decisionActions = map[review.Action]audit.Action{
	review.ActionApprove:     audit.ActionApproved,
	review.ActionReject:      audit.ActionRejected,
	review.ActionRequestInfo: audit.ActionInfoRequested,
}

// Decide applies a reviewer decision. An invalid decision is refused before
// the store is touched.
func (s *Service) Decide(ctx context.Context, d review.Decision) (*models.Application, error) {
	requestID := requestcontext.RequestID(ctx)
	if err := d.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	var decided *models.Application
	err := s.tx.RunInTx(ctx, func(ctx context.Context, store Store) error {
		app, err := store.FindApplicationForUpdate(ctx, d.ApplicationID)
		if err != nil {
			return storeErr(err, "application")
		}
		from := app.Status
		if err := review.Apply(app, d, now); err != nil {
			return err
		}
		if err := store.UpdateApplication(ctx, app); err != nil {
			return storeErr(err, "application")
		}
		comment := d.Comment
		if d.Action == review.ActionReject {
			comment = d.Reason
		}
		s.emitAudit(ctx, audit.Event{
			ApplicationID: app.ID,
			Action:        decisionActions[d.Action],
			FromStatus:    string(from),
			ToStatus:      string(app.Status),
			Actor:         d.Reviewer,
			Comment:       comment,
		})
		decided = app
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "review decision refused",
			"error", err,
			"application_id", d.ApplicationID,
			"action", string(d.Action),
			"request_id", requestID,
		)
		return nil, err
	}

	s.publishCompleted(ctx, decided)
	s.metrics.IncDecision(string(d.Action))
	s.logger.InfoContext(ctx, "review decision applied",
		"application_id", decided.ID,
		"action", string(d.Action),
		"status", string(decided.Status),
		"reviewer", decided.ReviewedBy,
		"request_id", requestID,
	)
	return s.Get(ctx, decided.ID)
}

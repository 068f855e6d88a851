package review

import (
	"time"

	"kycdesk/internal/kyc/models"
	kstrings "kycdesk/pkg/platform/strings"
)

// Apply validates d and moves app to the decision's target status,
// recording who decided and when. app is left untouched on error.
func Apply(app *models.Application, d Decision, at time.Time) error {
	if err := d.Validate(); err != nil {
		return err
	}
	p := policies[d.Action]
	next, err := Next(app.Status, p.event)
	if err != nil {
		return err
	}

	app.Status = next
	app.ReviewedBy = d.Reviewer
	reviewedAt := at
	app.ReviewedAt = &reviewedAt
	app.UpdatedAt = at
	if p.clearsManualQA {
		app.SetManualReview(false)
	}

	switch d.Action {
	case ActionReject:
		app.RejectionReason = d.Reason
	case ActionApprove, ActionRequestInfo:
		app.AdminComments = kstrings.AppendNote(app.AdminComments, p.commentPrefix, d.Comment)
	}
	return nil
}

// Advance applies a non-reviewer event such as submission or an automated
// analysis outcome.
func Advance(app *models.Application, e Event, at time.Time) error {
	next, err := Next(app.Status, e)
	if err != nil {
		return err
	}
	app.Status = next
	app.UpdatedAt = at
	return nil
}

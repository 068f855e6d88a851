package review

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycdesk/internal/kyc/models"
	"kycdesk/pkg/testutil"
)

var decidedAt = time.Date(2026, 10, 16, 10, 30, 0, 0, time.UTC)

func underReview() *models.Application {
	app := &models.Application{ID: 11, Status: models.StatusUnderReview, AdminComments: "Agent: medium risk"}
	app.SetManualReview(true)
	return app
}

func TestApply(t *testing.T) {
	testutil.Given(t, "an application under review", func(t *testing.T) {
		testutil.When(t, "a reviewer approves with a comment", func(t *testing.T) {
			app := underReview()
			err := Apply(app, Decision{Action: ActionApprove, Reviewer: "J. Tan", Comment: "documents consistent"}, decidedAt)
			require.NoError(t, err)

			testutil.Then(t, "status, attribution and comment log are recorded", func(t *testing.T) {
				assert.Equal(t, models.StatusApproved, app.Status)
				assert.Equal(t, "J. Tan", app.ReviewedBy)
				require.NotNil(t, app.ReviewedAt)
				assert.Equal(t, decidedAt, *app.ReviewedAt)
				assert.False(t, app.NeedsManualReview())
				assert.Equal(t, "Agent: medium risk | Manual Approval: documents consistent", app.AdminComments)
			})
		})

		testutil.When(t, "a reviewer rejects", func(t *testing.T) {
			app := underReview()
			err := Apply(app, Decision{Action: ActionReject, Reviewer: "J. Tan", Reason: "Unverifiable address"}, decidedAt)
			require.NoError(t, err)

			testutil.Then(t, "the reason is kept and comments untouched", func(t *testing.T) {
				assert.Equal(t, models.StatusRejected, app.Status)
				assert.Equal(t, "Unverifiable address", app.RejectionReason)
				assert.Equal(t, "Agent: medium risk", app.AdminComments)
			})
		})

		testutil.When(t, "a reviewer requests information", func(t *testing.T) {
			app := underReview()
			err := Apply(app, Decision{Action: ActionRequestInfo, Reviewer: "A. Putri", Comment: "Upload SPT Pajak"}, decidedAt)
			require.NoError(t, err)

			testutil.Then(t, "the request is appended and manual review stays flagged", func(t *testing.T) {
				assert.Equal(t, models.StatusActionRequired, app.Status)
				assert.Equal(t, "Agent: medium risk | Additional Info Requested: Upload SPT Pajak", app.AdminComments)
				assert.True(t, app.NeedsManualReview())
			})
		})

		testutil.When(t, "a reject has no reason", func(t *testing.T) {
			app := underReview()
			before := *app.Clone()
			err := Apply(app, Decision{Action: ActionReject, Reviewer: "J. Tan"}, decidedAt)

			testutil.Then(t, "the application is unchanged", func(t *testing.T) {
				require.Error(t, err)
				assert.Equal(t, before, *app)
			})
		})
	})
}

func TestApplyOverwritesPreviousAttribution(t *testing.T) {
	app := underReview()
	require.NoError(t, Apply(app, Decision{Action: ActionRequestInfo, Reviewer: "A. Putri", Comment: "need NPWP"}, decidedAt))
	later := decidedAt.Add(time.Hour)
	require.NoError(t, Apply(app, Decision{Action: ActionApprove, Reviewer: "J. Tan"}, later))

	assert.Equal(t, "J. Tan", app.ReviewedBy)
	assert.Equal(t, later, *app.ReviewedAt)
}

func TestApplyRefusesTerminalApplications(t *testing.T) {
	app := &models.Application{Status: models.StatusRejected}
	err := Apply(app, Decision{Action: ActionApprove, Reviewer: "J. Tan"}, decidedAt)
	require.Error(t, err)
	assert.Equal(t, models.StatusRejected, app.Status)
	assert.Empty(t, app.ReviewedBy)
}

func TestAdvance(t *testing.T) {
	app := &models.Application{Status: models.StatusDraft}
	require.NoError(t, Advance(app, EventSubmit, decidedAt))
	assert.Equal(t, models.StatusSubmitted, app.Status)
	assert.Error(t, Advance(app, EventSubmit, decidedAt))
}

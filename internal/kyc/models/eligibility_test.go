package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubmitAndUploadGating(t *testing.T) {
	for _, s := range AllStatuses() {
		app := &Application{Status: s}
		assert.Equal(t, s == StatusDraft, CanSubmit(app), "CanSubmit(%s)", s)
		assert.Equal(t, s == StatusDraft, CanUpload(app), "CanUpload(%s)", s)
	}
	assert.False(t, CanSubmit(nil))
}

func TestReviewGating(t *testing.T) {
	reviewable := map[Status]bool{
		StatusSubmitted:      true,
		StatusUnderReview:    true,
		StatusActionRequired: true,
	}
	for _, s := range AllStatuses() {
		assert.Equal(t, reviewable[s], CanReview(&Application{Status: s}), "CanReview(%s)", s)
	}
	assert.False(t, CanReview(&Application{Status: "ESCALATED"}))
}

func TestReviewQueueMembership(t *testing.T) {
	flagged := &Application{Status: StatusSubmitted}
	flagged.SetManualReview(true)

	assert.True(t, (&Application{Status: StatusUnderReview}).InReviewQueue())
	assert.True(t, flagged.InReviewQueue())
	assert.False(t, (&Application{Status: StatusApproved}).InReviewQueue())
}

func TestReadinessChecklist(t *testing.T) {
	customer := &Customer{LinkedinURL: "https://linkedin.com/in/siti", CompanyName: ""}
	docs := []Document{
		{DocumentType: DocPassport},
		{DocumentType: DocRekeningKoran},
	}

	items := ReadinessChecklist(customer, docs)
	assert.Len(t, items, 4)
	assert.True(t, items[0].Satisfied, "linkedin")
	assert.True(t, items[1].Satisfied, "identity")
	assert.True(t, items[2].Satisfied, "bank statement")
	assert.False(t, items[3].Satisfied, "company")

	empty := ReadinessChecklist(nil, []Document{{DocumentType: DocKTPBack}})
	for _, item := range empty {
		assert.False(t, item.Satisfied, item.Label)
	}
}

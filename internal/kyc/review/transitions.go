// Package review is the human-in-the-loop state machine for KYC
// applications: which events move an application between statuses, who
// may raise them, and what a reviewer decision must carry.
package review

import (
	"fmt"

	"kycdesk/internal/kyc/models"
	dErrors "kycdesk/pkg/domain-errors"
)

// Event names a transition trigger.
type Event string

const (
	EventSubmit            Event = "SUBMIT"
	EventResubmit          Event = "RESUBMIT"
	EventAnalysisEscalated Event = "ANALYSIS_ESCALATED"
	EventAnalysisCleared   Event = "ANALYSIS_CLEARED"
	EventApprove           Event = "APPROVE"
	EventReject            Event = "REJECT"
	EventRequestInfo       Event = "REQUEST_INFO"
)

// Actor is who may raise an event.
type Actor string

const (
	ActorApplicant  Actor = "applicant"
	ActorAutomation Actor = "automation"
	ActorReviewer   Actor = "reviewer"
)

type edge struct {
	actor Actor
	from  []models.Status
	to    models.Status
}

var reviewable = []models.Status{models.StatusSubmitted, models.StatusUnderReview, models.StatusActionRequired}

var edges = map[Event]edge{
	EventSubmit:            {actor: ActorApplicant, from: []models.Status{models.StatusDraft}, to: models.StatusSubmitted},
	EventResubmit:          {actor: ActorApplicant, from: []models.Status{models.StatusActionRequired}, to: models.StatusSubmitted},
	EventAnalysisEscalated: {actor: ActorAutomation, from: []models.Status{models.StatusSubmitted, models.StatusUnderReview}, to: models.StatusUnderReview},
	EventAnalysisCleared:   {actor: ActorAutomation, from: []models.Status{models.StatusSubmitted}, to: models.StatusApproved},
	EventApprove:           {actor: ActorReviewer, from: reviewable, to: models.StatusApproved},
	EventReject:            {actor: ActorReviewer, from: reviewable, to: models.StatusRejected},
	EventRequestInfo:       {actor: ActorReviewer, from: reviewable, to: models.StatusActionRequired},
}

// AllEvents lists every event in the table.
func AllEvents() []Event {
	return []Event{
		EventSubmit, EventResubmit, EventAnalysisEscalated, EventAnalysisCleared,
		EventApprove, EventReject, EventRequestInfo,
	}
}

// Actor returns who may raise e.
func (e Event) Actor() Actor {
	return edges[e].actor
}

// Target is the status e leads to.
func (e Event) Target() models.Status {
	return edges[e].to
}

// Allowed reports whether e applies from status.
func (e Event) Allowed(from models.Status) bool {
	ed, ok := edges[e]
	if !ok {
		return false
	}
	for _, s := range ed.from {
		if s == from {
			return true
		}
	}
	return false
}

// Next returns the status reached by applying e in from.
func Next(from models.Status, e Event) (models.Status, error) {
	if _, ok := edges[e]; !ok {
		return "", dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown event %s", e))
	}
	if !e.Allowed(from) {
		return "", dErrors.New(dErrors.CodeInvalidState,
			fmt.Sprintf("cannot %s an application that is %s", humanEvent(e), from.Label()))
	}
	return edges[e].to, nil
}

// EventsFrom lists the events that apply in status s.
func EventsFrom(s models.Status) []Event {
	var out []Event
	for _, e := range AllEvents() {
		if e.Allowed(s) {
			out = append(out, e)
		}
	}
	return out
}

func humanEvent(e Event) string {
	switch e {
	case EventSubmit:
		return "submit"
	case EventResubmit:
		return "resubmit"
	case EventApprove:
		return "approve"
	case EventReject:
		return "reject"
	case EventRequestInfo:
		return "request information on"
	default:
		return "analyse"
	}
}

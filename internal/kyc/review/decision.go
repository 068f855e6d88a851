package review

import (
	"strings"

	"kycdesk/internal/kyc/models"
	dErrors "kycdesk/pkg/domain-errors"
)

// Action is a reviewer decision kind.
type Action string

const (
	ActionApprove     Action = "APPROVE"
	ActionReject      Action = "REJECT"
	ActionRequestInfo Action = "REQUEST_INFO"
)

// requirement is the per-action input policy.
type requirement struct {
	event          Event
	commentNeeded  bool
	reasonNeeded   bool
	commentPrefix  string
	clearsManualQA bool
}

var policies = map[Action]requirement{
	ActionApprove:     {event: EventApprove, commentPrefix: "Manual Approval: ", clearsManualQA: true},
	ActionReject:      {event: EventReject, reasonNeeded: true, clearsManualQA: true},
	ActionRequestInfo: {event: EventRequestInfo, commentNeeded: true, commentPrefix: "Additional Info Requested: "},
}

// Actions lists reviewer actions.
func Actions() []Action {
	return []Action{ActionApprove, ActionReject, ActionRequestInfo}
}

// ParseAction accepts wire names such as "approve" or "request-info".
func ParseAction(raw string) (Action, error) {
	a := Action(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), "-", "_")))
	if _, ok := policies[a]; !ok {
		return "", dErrors.New(dErrors.CodeBadRequest, "unknown review action: "+raw)
	}
	return a, nil
}

// Event returns the transition the action raises.
func (a Action) Event() Event {
	return policies[a].event
}

// Target returns the status the action leads to.
func (a Action) Target() models.Status {
	return a.Event().Target()
}

// Decision is one reviewer decision against an application. Approve,
// reject and request-info share this shape and differ only in which text
// field is mandatory.
type Decision struct {
	ApplicationID int64
	Action        Action
	Reviewer      string
	Comment       string
	Reason        string
}

// Validate trims the inputs and enforces the action's policy. A decision
// that fails here must never be sent or applied.
func (d *Decision) Validate() error {
	p, ok := policies[d.Action]
	if !ok {
		return dErrors.New(dErrors.CodeBadRequest, "unknown review action: "+string(d.Action))
	}
	d.Reviewer = strings.TrimSpace(d.Reviewer)
	d.Comment = strings.TrimSpace(d.Comment)
	d.Reason = strings.TrimSpace(d.Reason)

	if d.Reviewer == "" {
		return dErrors.New(dErrors.CodeValidation, "reviewer name is required")
	}
	if p.reasonNeeded && d.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "rejection reason is required")
	}
	if p.commentNeeded && d.Comment == "" {
		return dErrors.New(dErrors.CodeValidation, "comment describing the missing information is required")
	}
	return nil
}

package models

import (
	"strings"

	dErrors "kycdesk/pkg/domain-errors"
)

// Status is the lifecycle state of a KYC application.
type Status string

const (
	StatusDraft          Status = "DRAFT"
	StatusSubmitted      Status = "SUBMITTED"
	StatusUnderReview    Status = "UNDER_REVIEW"
	StatusApproved       Status = "APPROVED"
	StatusRejected       Status = "REJECTED"
	StatusActionRequired Status = "ACTION_REQUIRED"
)

// Color is a presentation token shared by status badges and risk tiers.
type Color string

const (
	ColorGray   Color = "gray"
	ColorBlue   Color = "blue"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorRed    Color = "red"
	ColorOrange Color = "orange"
)

type statusPresentation struct {
	label string
	color Color
}

// Every Status must have an entry; status_test.go walks AllStatuses to
// enforce it.
var statusPresentations = map[Status]statusPresentation{
	StatusDraft:          {label: "Draft", color: ColorGray},
	StatusSubmitted:      {label: "Submitted", color: ColorBlue},
	StatusUnderReview:    {label: "Under Review", color: ColorYellow},
	StatusApproved:       {label: "Approved", color: ColorGreen},
	StatusRejected:       {label: "Rejected", color: ColorRed},
	StatusActionRequired: {label: "Action Required", color: ColorOrange},
}

// AllStatuses lists the closed set of statuses in lifecycle order.
func AllStatuses() []Status {
	return []Status{
		StatusDraft,
		StatusSubmitted,
		StatusUnderReview,
		StatusApproved,
		StatusRejected,
		StatusActionRequired,
	}
}

// ParseStatus accepts a status name in any case.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := statusPresentations[s]; !ok {
		return "", dErrors.New(dErrors.CodeValidation, "unknown status: "+raw)
	}
	return s, nil
}

// Known reports whether s is one of the closed set.
func (s Status) Known() bool {
	_, ok := statusPresentations[s]
	return ok
}

// Terminal reports whether no further transition exists from s.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Label returns the human label, or the raw value for an unknown status.
func (s Status) Label() string {
	if p, ok := statusPresentations[s]; ok {
		return p.label
	}
	return string(s)
}

// Color returns the badge colour, or the raw value for an unknown status.
func (s Status) Color() Color {
	if p, ok := statusPresentations[s]; ok {
		return p.color
	}
	return Color(s)
}

// StatusLabel is Label for raw wire values.
func StatusLabel(raw string) string {
	return Status(raw).Label()
}

// StatusColor is Color for raw wire values.
func StatusColor(raw string) Color {
	return Status(raw).Color()
}

package review

import "kycdesk/internal/kyc/models"

// Findings is what automated analysis learned about an application.
type Findings struct {
	AgentFailed         bool
	AgentStatus         string
	Score               *models.RiskScore
	PEPMatch            bool
	SanctionsMatch      bool
	ManualReviewAdvised bool
}

// Reason explains an automated outcome.
type Reason string

const (
	ReasonAgentFailed     Reason = "agent_failed"
	ReasonSanctioned      Reason = "sanctions_match"
	ReasonPEP             Reason = "pep_match"
	ReasonAgentNotApprove Reason = "agent_not_approved"
	ReasonNoScore         Reason = "no_score"
	ReasonElevatedRisk    Reason = "elevated_risk"
	ReasonReviewAdvised   Reason = "manual_review_advised"
	ReasonLowRisk         Reason = "low_risk"
)

// Outcome is the result of triage. Its event is always one of the two
// automated events, so automation can clear or escalate but never reject.
type Outcome struct {
	event  Event
	Reason Reason
}

// Event is EventAnalysisCleared or EventAnalysisEscalated.
func (o Outcome) Event() Event { return o.event }

// Cleared reports an automatic approval.
func (o Outcome) Cleared() bool { return o.event == EventAnalysisCleared }

func escalate(r Reason) Outcome { return Outcome{event: EventAnalysisEscalated, Reason: r} }

// Triage applies the automated outcome rules. Pure: no I/O.
// Rule priority (fail-fast):
//  1. Agent failure
//  2. Sanctions match (compliance-critical)
//  3. PEP match
//  4. Agent verdict other than APPROVED
//  5. Score absent or outside the Low tier
//  6. Agent asked for a human look
func Triage(f Findings) Outcome {
	if f.AgentFailed {
		return escalate(ReasonAgentFailed)
	}
	if f.SanctionsMatch {
		return escalate(ReasonSanctioned)
	}
	if f.PEPMatch {
		return escalate(ReasonPEP)
	}
	if f.AgentStatus != string(models.StatusApproved) {
		return escalate(ReasonAgentNotApprove)
	}
	if f.Score == nil {
		return escalate(ReasonNoScore)
	}
	if f.Score.Tier() != models.TierLow {
		return escalate(ReasonElevatedRisk)
	}
	if f.ManualReviewAdvised {
		return escalate(ReasonReviewAdvised)
	}
	return Outcome{event: EventAnalysisCleared, Reason: ReasonLowRisk}
}

// AutomatedEvents lists the events automation may raise.
func AutomatedEvents() []Event {
	var out []Event
	for _, e := range AllEvents() {
		if e.Actor() == ActorAutomation {
			out = append(out, e)
		}
	}
	return out
}

package models

import (
	"encoding/json"
	"fmt"
	"strings"

	dErrors "kycdesk/pkg/domain-errors"
)

// RiskScore is an application's 0-100 score where a HIGHER value means LOWER
// risk. Scores produced by the analysis agent use the opposite scale and
// must be converted by the agent package before they become a RiskScore.
type RiskScore int

const (
	MinRiskScore RiskScore = 0
	MaxRiskScore RiskScore = 100

	// Lower bounds, inclusive.
	lowRiskFloor    RiskScore = 70
	mediumRiskFloor RiskScore = 40
)

// NewRiskScore range-checks v.
func NewRiskScore(v int) (RiskScore, error) {
	s := RiskScore(v)
	if s < MinRiskScore || s > MaxRiskScore {
		return 0, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("risk score %d outside 0-100", v))
	}
	return s, nil
}

// MustRiskScore is NewRiskScore for constants and tests.
func MustRiskScore(v int) *RiskScore {
	s, err := NewRiskScore(v)
	if err != nil {
		panic(err)
	}
	return &s
}

func (s RiskScore) Int() int { return int(s) }

// UnmarshalJSON rejects out-of-range scores on the wire.
func (s *RiskScore) UnmarshalJSON(data []byte) error {
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := NewRiskScore(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// RiskTier is the application-level risk band derived from a RiskScore.
type RiskTier string

const (
	TierLow     RiskTier = "Low"
	TierMedium  RiskTier = "Medium"
	TierHigh    RiskTier = "High"
	TierUnknown RiskTier = "Unknown"
)

// Label is the badge text, e.g. "Low Risk".
func (t RiskTier) Label() string {
	if t == TierUnknown {
		return string(t)
	}
	return string(t) + " Risk"
}

// TierView pairs a tier with its colour.
type TierView struct {
	Tier  RiskTier `json:"tier"`
	Color Color    `json:"color"`
}

// Tier bands s.
func (s RiskScore) Tier() RiskTier {
	switch {
	case s >= lowRiskFloor:
		return TierLow
	case s >= mediumRiskFloor:
		return TierMedium
	default:
		return TierHigh
	}
}

var tierColors = map[RiskTier]Color{
	TierLow:     ColorGreen,
	TierMedium:  ColorYellow,
	TierHigh:    ColorRed,
	TierUnknown: ColorGray,
}

// RiskTierOf derives the tier for an optional score. A nil score is Unknown.
func RiskTierOf(score *RiskScore) TierView {
	tier := TierUnknown
	if score != nil {
		tier = score.Tier()
	}
	return TierView{Tier: tier, Color: tierColors[tier]}
}

// RiskLevel is the standing customer-level assessment. It is maintained on
// the customer record and is never derived from an application's RiskScore.
type RiskLevel string

const (
	RiskLevelUnassessed RiskLevel = ""
	RiskLevelLow        RiskLevel = "LOW"
	RiskLevelMedium     RiskLevel = "MEDIUM"
	RiskLevelHigh       RiskLevel = "HIGH"
	RiskLevelCritical   RiskLevel = "CRITICAL"
)

// ParseRiskLevel accepts an empty string as unassessed.
func ParseRiskLevel(raw string) (RiskLevel, error) {
	l := RiskLevel(strings.ToUpper(strings.TrimSpace(raw)))
	switch l {
	case RiskLevelUnassessed, RiskLevelLow, RiskLevelMedium, RiskLevelHigh, RiskLevelCritical:
		return l, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "riskLevel must be LOW, MEDIUM, HIGH or CRITICAL")
}

// Label renders an unassessed level explicitly.
func (l RiskLevel) Label() string {
	if l == RiskLevelUnassessed {
		return "Unassessed"
	}
	return string(l)
}

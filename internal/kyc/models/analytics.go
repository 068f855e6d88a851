package models

import "github.com/shopspring/decimal"

// Summary is the dashboard analytics block.
type Summary struct {
	Total               int     `json:"total"`
	Approved            int     `json:"approved"`
	Rejected            int     `json:"rejected"`
	UnderReview         int     `json:"underReview"`
	PendingManualReview int     `json:"pendingManualReview"`
	PEPMatches          int     `json:"pepMatches"`
	SanctionsMatches    int     `json:"sanctionsMatches"`
	AdverseMediaCases   int     `json:"adverseMediaCases"`
	AverageRiskScore    float64 `json:"averageRiskScore"`
}

// Summarize counts apps. The average covers applications with a score,
// rounded half-up to two decimals, and is 0 when none has one.
func Summarize(apps []*Application) Summary {
	var s Summary
	sum := decimal.Zero
	scored := 0
	for _, a := range apps {
		s.Total++
		switch a.Status {
		case StatusApproved:
			s.Approved++
		case StatusRejected:
			s.Rejected++
		case StatusUnderReview:
			s.UnderReview++
		}
		if a.NeedsManualReview() {
			s.PendingManualReview++
		}
		if a.PEPMatch {
			s.PEPMatches++
		}
		if a.SanctionsMatch {
			s.SanctionsMatches++
		}
		if a.AdverseMediaFound {
			s.AdverseMediaCases++
		}
		if a.RiskScore != nil {
			sum = sum.Add(decimal.NewFromInt(int64(a.RiskScore.Int())))
			scored++
		}
	}
	if scored > 0 {
		s.AverageRiskScore = sum.Div(decimal.NewFromInt(int64(scored))).Round(2).InexactFloat64()
	}
	return s
}

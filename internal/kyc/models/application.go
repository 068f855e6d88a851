package models

import "time"

// Application is one KYC verification case for a customer.
type Application struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customerId"`
	Customer   *Customer `json:"customer,omitempty"`
	Status     Status    `json:"status"`

	RiskScore  *RiskScore    `json:"riskScore"`
	RiskLabels ResultPayload `json:"riskLabels"`
	CaseID     string        `json:"caseId,omitempty"`

	AgentReport              ResultPayload `json:"agentReport"`
	DocumentCheckerResult    ResultPayload `json:"documentCheckerResult"`
	ResumeCrosscheckerResult ResultPayload `json:"resumeCrosscheckerResult"`
	ExternalSearchResult     ResultPayload `json:"externalSearchResult"`
	WealthCalculatorResult   ResultPayload `json:"wealthCalculatorResult"`

	PEPMatch            bool          `json:"pepMatch"`
	SanctionsMatch      bool          `json:"sanctionsMatch"`
	AdverseMediaFound   bool          `json:"adverseMediaFound"`
	AdverseMediaSources ResultPayload `json:"adverseMediaSources"`

	RequiresManualReview *bool      `json:"requiresManualReview"`
	AdminComments        string     `json:"adminComments,omitempty"`
	RejectionReason      string     `json:"rejectionReason,omitempty"`
	ReviewedBy           string     `json:"reviewedBy,omitempty"`
	ReviewedAt           *time.Time `json:"reviewedAt"`

	ProviderApplicantID string     `json:"providerApplicantId,omitempty"`
	Documents           []Document `json:"documents"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Tier derives the application risk band from RiskScore.
func (a *Application) Tier() TierView {
	return RiskTierOf(a.RiskScore)
}

// NeedsManualReview treats an unset flag as false.
func (a *Application) NeedsManualReview() bool {
	return a.RequiresManualReview != nil && *a.RequiresManualReview
}

// InReviewQueue reports membership of the reviewer queue: under review, or
// explicitly flagged for manual review.
func (a *Application) InReviewQueue() bool {
	return a.Status == StatusUnderReview || a.NeedsManualReview()
}

// SetManualReview stores an explicit flag value.
func (a *Application) SetManualReview(v bool) {
	a.RequiresManualReview = &v
}

// DocumentURLs lists retrieval URLs of the attached documents.
func (a *Application) DocumentURLs() []string {
	urls := make([]string, 0, len(a.Documents))
	for _, d := range a.Documents {
		urls = append(urls, d.FileURL)
	}
	return urls
}

// Clone returns a deep copy so in-memory stores never share mutable state
// with callers.
func (a *Application) Clone() *Application {
	if a == nil {
		return nil
	}
	cp := *a
	if a.RiskScore != nil {
		s := *a.RiskScore
		cp.RiskScore = &s
	}
	if a.RequiresManualReview != nil {
		v := *a.RequiresManualReview
		cp.RequiresManualReview = &v
	}
	if a.ReviewedAt != nil {
		t := *a.ReviewedAt
		cp.ReviewedAt = &t
	}
	if a.Customer != nil {
		c := *a.Customer
		cp.Customer = &c
	}
	cp.Documents = append([]Document(nil), a.Documents...)
	return &cp
}

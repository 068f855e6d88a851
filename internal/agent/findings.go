package agent

import (
	"bytes"
	"encoding/json"
	"strings"

	"kycdesk/internal/kyc/models"
)

// Sub-agent keys inside details.sub_agent_results.
const (
	subDocumentChecker    = "Document_Checker"
	subResumeCrosschecker = "Resume_Crosschecker"
	subExternalSearch     = "External_Search"
	subWealthCalculator   = "Wealth_Calculator"
)

// Findings is what the review workflow takes from a report: the converted
// score, screening flags, and the sub-agent outputs kept as opaque blobs.
type Findings struct {
	CaseID              string
	Status              string
	Reasoning           string
	Score               *models.RiskScore
	ManualReviewAdvised bool

	PEPMatch            bool
	SanctionsMatch      bool
	AdverseMediaFound   bool
	AdverseMediaSources models.ResultPayload

	AgentReport        models.ResultPayload
	DocumentChecker    models.ResultPayload
	ResumeCrosschecker models.ResultPayload
	ExternalSearch     models.ResultPayload
	WealthCalculator   models.ResultPayload
}

type details struct {
	SubAgentResults map[string]json.RawMessage `json:"sub_agent_results"`
	RiskBreakdown   *struct {
		AdverseMedia  bool   `json:"adverse_media"`
		SanctionsFlag bool   `json:"sanctions_flag"`
		PEPStatus     string `json:"pep_status"`
	} `json:"risk_breakdown"`
	Citations json.RawMessage `json:"citations"`
}

// ParseFindings extracts findings from r. An out-of-range score is a
// contract violation; a details blob that does not match the expected shape
// is kept verbatim and contributes no flags.
func ParseFindings(r *Report) (*Findings, error) {
	score, err := r.RiskScore.RiskScore()
	if err != nil {
		return nil, newError(ErrorBadData, "analyze", "invalid risk score", err)
	}
	f := &Findings{
		CaseID:              r.CaseID,
		Status:              strings.ToUpper(strings.TrimSpace(r.Status)),
		Reasoning:           strings.TrimSpace(r.Reasoning),
		Score:               &score,
		ManualReviewAdvised: r.RequiresManualReview != nil && *r.RequiresManualReview,
	}

	raw := bytes.TrimSpace(r.Details)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return f, nil
	}
	f.AgentReport = models.ResultPayload(raw)

	var d details
	if err := json.Unmarshal(raw, &d); err != nil {
		return f, nil
	}
	f.DocumentChecker = blob(d.SubAgentResults[subDocumentChecker])
	f.ResumeCrosschecker = blob(d.SubAgentResults[subResumeCrosschecker])
	f.ExternalSearch = blob(d.SubAgentResults[subExternalSearch])
	f.WealthCalculator = blob(d.SubAgentResults[subWealthCalculator])

	if rb := d.RiskBreakdown; rb != nil {
		f.AdverseMediaFound = rb.AdverseMedia
		f.SanctionsMatch = rb.SanctionsFlag
		f.PEPMatch = rb.PEPStatus == "POTENTIAL_PEP" || rb.PEPStatus == "CONFIRMED_PEP"
	}

	var citations []json.RawMessage
	if json.Unmarshal(d.Citations, &citations) == nil && len(citations) > 0 {
		f.AdverseMediaSources = blob(d.Citations)
	}
	return f, nil
}

func blob(raw json.RawMessage) models.ResultPayload {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	return models.ResultPayload(raw)
}

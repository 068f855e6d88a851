package agent

import (
	"encoding/json"
	"fmt"

	"kycdesk/internal/kyc/models"
	dErrors "kycdesk/pkg/domain-errors"
)

// Hazard is the agent's own 0-100 score where HIGHER means MORE risk. It is
// the inverse of models.RiskScore and converts only through RiskScore.
type Hazard int

// RiskScore converts to the application scale (higher = lower risk).
func (h Hazard) RiskScore() (models.RiskScore, error) {
	if h < 0 || h > 100 {
		return 0, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("agent risk_score %d outside 0-100", int(h)))
	}
	return models.NewRiskScore(100 - int(h))
}

// AnalyzeRequest is the body of POST /analyze and /analyze/quick.
type AnalyzeRequest struct {
	CustomerID  string   `json:"customer_id"`
	Name        string   `json:"name"`
	NIK         string   `json:"nik,omitempty"`
	Files       []string `json:"files,omitempty"`
	LinkedinURL string   `json:"linkedin_url,omitempty"`
	CompanyName string   `json:"company_name,omitempty"`
}

// Report is the full analysis result.
type Report struct {
	CaseID               string          `json:"case_id"`
	RiskScore            Hazard          `json:"risk_score"`
	Status               string          `json:"status"`
	Reasoning            string          `json:"reasoning"`
	FoundInDB            bool            `json:"found_in_db"`
	RequiresManualReview *bool           `json:"requires_manual_review"`
	ProcessingTimeMS     *int            `json:"processing_time_ms"`
	Details              json.RawMessage `json:"details"`
}

// QuickAssessment is the result of POST /analyze/quick.
type QuickAssessment struct {
	QuickAssessment bool     `json:"quick_assessment"`
	RiskScore       Hazard   `json:"risk_score"`
	RiskIndicators  []string `json:"risk_indicators"`
	Recommendation  string   `json:"recommendation"`
	Message         string   `json:"message"`
}

// Health is the GET / probe body.
type Health struct {
	Status          string   `json:"status"`
	Service         string   `json:"service"`
	Version         string   `json:"version,omitempty"`
	Timestamp       string   `json:"timestamp,omitempty"`
	AgentsAvailable []string `json:"agents_available,omitempty"`
}

// AgentInfo describes one sub-agent. Display only.
type AgentInfo struct {
	Name        string   `json:"name"`
	Model       string   `json:"model,omitempty"`
	Description string   `json:"description,omitempty"`
	Tools       []string `json:"tools,omitempty"`
}

// Info is the GET /info body. Display only.
type Info struct {
	Service     string            `json:"service"`
	Version     string            `json:"version,omitempty"`
	Description string            `json:"description,omitempty"`
	Agents      []AgentInfo       `json:"agents,omitempty"`
	Endpoints   map[string]string `json:"endpoints,omitempty"`
}

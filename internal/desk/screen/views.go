package screen

import (
	"strings"

	"kycdesk/internal/kyc/models"
)

// ResultSection is one opaque agent payload prepared for display.
type ResultSection struct {
	Title   string
	Present bool
	Body    string
}

// DocumentRow is one uploaded document.
type DocumentRow struct {
	Type     models.DocumentType
	Label    string
	FileName string
	URL      string
}

// ApplicationView is everything the detail screen renders for one
// application. It is built from server state only.
type ApplicationView struct {
	Application *models.Application

	StatusLabel string
	StatusColor models.Color
	Tier        models.TierView

	CanSubmit   bool
	CanUpload   bool
	CanReview   bool
	CanResubmit bool

	NeedsManualReview bool
	Checklist         []models.CheckItem
	Documents         []DocumentRow
	Comments          []string
	Results           []ResultSection
}

// NewApplicationView derives the display fields of app.
func NewApplicationView(app *models.Application) *ApplicationView {
	v := &ApplicationView{
		Application:       app,
		StatusLabel:       models.StatusLabel(string(app.Status)),
		StatusColor:       models.StatusColor(string(app.Status)),
		Tier:              app.Tier(),
		CanSubmit:         models.CanSubmit(app),
		CanUpload:         models.CanUpload(app),
		CanReview:         models.CanReview(app),
		CanResubmit:       models.CanResubmit(app),
		NeedsManualReview: app.NeedsManualReview(),
		Checklist:         models.ReadinessChecklist(app.Customer, app.Documents),
		Comments:          splitComments(app.AdminComments),
	}
	for _, doc := range app.Documents {
		v.Documents = append(v.Documents, DocumentRow{
			Type:     doc.DocumentType,
			Label:    doc.DocumentType.Label(),
			FileName: doc.FileName,
			URL:      doc.FileURL,
		})
	}
	for _, r := range []struct {
		title   string
		payload models.ResultPayload
	}{
		{"Agent Report", app.AgentReport},
		{"Document Checker", app.DocumentCheckerResult},
		{"Resume Cross-checker", app.ResumeCrosscheckerResult},
		{"External Search", app.ExternalSearchResult},
		{"Wealth Calculator", app.WealthCalculatorResult},
		{"Adverse Media Sources", app.AdverseMediaSources},
		{"Risk Labels", app.RiskLabels},
	} {
		v.Results = append(v.Results, ResultSection{
			Title:   r.title,
			Present: r.payload.Present(),
			Body:    r.payload.Display(),
		})
	}
	return v
}

func splitComments(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, " | ")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ApplicationRow is one line of a list screen.
type ApplicationRow struct {
	ID           int64
	CustomerName string
	Status       string
	StatusColor  models.Color
	Tier         models.TierView
	ManualReview bool
}

// NewApplicationRows derives list rows.
func NewApplicationRows(apps []*models.Application) []ApplicationRow {
	rows := make([]ApplicationRow, 0, len(apps))
	for _, app := range apps {
		row := ApplicationRow{
			ID:           app.ID,
			Status:       models.StatusLabel(string(app.Status)),
			StatusColor:  models.StatusColor(string(app.Status)),
			Tier:         app.Tier(),
			ManualReview: app.NeedsManualReview(),
		}
		if app.Customer != nil {
			row.CustomerName = app.Customer.FullName()
		}
		rows = append(rows, row)
	}
	return rows
}

// CustomerView is the customer detail screen.
type CustomerView struct {
	Customer     *models.Customer
	RiskLevel    string
	Applications []ApplicationRow
}

package models

// CanSubmit reports whether the application may be submitted for analysis.
func CanSubmit(app *Application) bool {
	return app != nil && app.Status == StatusDraft
}

// CanUpload reports whether documents may still be attached.
func CanUpload(app *Application) bool {
	return app != nil && app.Status == StatusDraft
}

// CanReview reports whether a reviewer decision may be taken.
func CanReview(app *Application) bool {
	if app == nil {
		return false
	}
	switch app.Status {
	case StatusSubmitted, StatusUnderReview, StatusActionRequired:
		return true
	}
	return false
}

// CanResubmit reports whether the customer may re-enter the submission
// pipeline after a request for information.
func CanResubmit(app *Application) bool {
	return app != nil && app.Status == StatusActionRequired
}

// CheckItem is one line of the advisory readiness checklist.
type CheckItem struct {
	Label     string `json:"label"`
	Satisfied bool   `json:"satisfied"`
}

// ReadinessChecklist reports which inputs the analysis agent will have.
// It is advisory and never blocks submission.
func ReadinessChecklist(customer *Customer, documents []Document) []CheckItem {
	var hasIdentity, hasBankStatement bool
	for _, d := range documents {
		hasIdentity = hasIdentity || d.DocumentType.ProvesIdentity()
		hasBankStatement = hasBankStatement || d.DocumentType.IsBankStatement()
	}
	var linkedin, company bool
	if customer != nil {
		linkedin = customer.LinkedinURL != ""
		company = customer.CompanyName != ""
	}
	return []CheckItem{
		{Label: "LinkedIn profile URL provided", Satisfied: linkedin},
		{Label: "Identity document (KTP or passport) uploaded", Satisfied: hasIdentity},
		{Label: "Bank statement uploaded", Satisfied: hasBankStatement},
		{Label: "Company name provided", Satisfied: company},
	}
}

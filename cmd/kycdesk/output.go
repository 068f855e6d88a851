package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"kycdesk/internal/agent"
	"kycdesk/internal/audit"
	"kycdesk/internal/desk/screen"
	"kycdesk/internal/kyc/models"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func scoreText(score *models.RiskScore) string {
	if score == nil {
		return "-"
	}
	return fmt.Sprint(score.Int())
}

func printCustomers(w io.Writer, customers []*models.Customer) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tCITIZENSHIP\tRISK LEVEL")
	for _, c := range customers {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", c.ID, c.FullName(), c.Email, c.Citizenship, c.RiskLevel.Label())
	}
	_ = tw.Flush()
}

func printCustomer(w io.Writer, v *screen.CustomerView) {
	c := v.Customer
	tw := newTable(w)
	fmt.Fprintf(tw, "Customer\t%d\n", c.ID)
	fmt.Fprintf(tw, "Name\t%s\n", c.FullName())
	fmt.Fprintf(tw, "Email\t%s\n", c.Email)
	fmt.Fprintf(tw, "Phone\t%s\n", orDash(c.PhoneNumber))
	fmt.Fprintf(tw, "Date of birth\t%s\n", c.DateOfBirth)
	fmt.Fprintf(tw, "Citizenship\t%s\n", c.Citizenship)
	fmt.Fprintf(tw, "Identity number\t%s\n", orDash(c.IdentityNumber()))
	fmt.Fprintf(tw, "Address\t%s\n", orDash(strings.Join(nonEmpty(c.Address, c.Kelurahan, c.Kecamatan, c.Kabupaten, c.Provinsi, c.PostalCode), ", ")))
	fmt.Fprintf(tw, "Occupation\t%s\n", orDash(c.Occupation))
	fmt.Fprintf(tw, "Company\t%s\n", orDash(c.CompanyName))
	fmt.Fprintf(tw, "LinkedIn\t%s\n", orDash(c.LinkedinURL))
	if c.NetWorth.Valid {
		fmt.Fprintf(tw, "Net worth\t%s\n", c.NetWorth.Decimal.StringFixed(2))
	}
	fmt.Fprintf(tw, "Risk level\t%s\n", v.RiskLevel)
	_ = tw.Flush()
	fmt.Fprintln(w)
	printApplications(w, v.Applications)
}

func nonEmpty(parts ...string) []string {
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

func printApplications(w io.Writer, rows []screen.ApplicationRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No applications")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tCUSTOMER\tSTATUS\tRISK\tMANUAL REVIEW")
	for _, r := range rows {
		manual := ""
		if r.ManualReview {
			manual = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.ID, orDash(r.CustomerName), r.Status, r.Tier.Tier.Label(), manual)
	}
	_ = tw.Flush()
}

func check(ok bool) string {
	if ok {
		return "[x]"
	}
	return "[ ]"
}

func printApplication(w io.Writer, v *screen.ApplicationView) {
	app := v.Application
	tw := newTable(w)
	fmt.Fprintf(tw, "Application\t%d\n", app.ID)
	if app.Customer != nil {
		fmt.Fprintf(tw, "Customer\t%s (%d)\n", app.Customer.FullName(), app.CustomerID)
	} else {
		fmt.Fprintf(tw, "Customer\t%d\n", app.CustomerID)
	}
	fmt.Fprintf(tw, "Status\t%s (%s)\n", v.StatusLabel, v.StatusColor)
	fmt.Fprintf(tw, "Risk score\t%s\n", scoreText(app.RiskScore))
	fmt.Fprintf(tw, "Risk tier\t%s (%s)\n", v.Tier.Tier.Label(), v.Tier.Color)
	fmt.Fprintf(tw, "PEP match\t%t\n", app.PEPMatch)
	fmt.Fprintf(tw, "Sanctions match\t%t\n", app.SanctionsMatch)
	fmt.Fprintf(tw, "Adverse media\t%t\n", app.AdverseMediaFound)
	fmt.Fprintf(tw, "Manual review\t%t\n", v.NeedsManualReview)
	fmt.Fprintf(tw, "Case\t%s\n", orDash(app.CaseID))
	fmt.Fprintf(tw, "Reviewed by\t%s\n", orDash(app.ReviewedBy))
	fmt.Fprintf(tw, "Reviewed at\t%s\n", formatTime(app.ReviewedAt))
	if app.RejectionReason != "" {
		fmt.Fprintf(tw, "Rejection reason\t%s\n", app.RejectionReason)
	}
	_ = tw.Flush()

	var actions []string
	if v.CanUpload {
		actions = append(actions, "upload")
	}
	if v.CanSubmit {
		actions = append(actions, "submit")
	}
	if v.CanResubmit {
		actions = append(actions, "resubmit")
	}
	if v.CanReview {
		actions = append(actions, "approve", "reject", "request-info")
	}
	fmt.Fprintf(w, "\nAvailable actions: %s\n", orDash(strings.Join(actions, ", ")))

	fmt.Fprintln(w, "\nReadiness")
	for _, item := range v.Checklist {
		fmt.Fprintf(w, "  %s %s\n", check(item.Satisfied), item.Label)
	}

	fmt.Fprintln(w, "\nDocuments")
	if len(v.Documents) == 0 {
		fmt.Fprintln(w, "  none")
	}
	for _, d := range v.Documents {
		fmt.Fprintf(w, "  %s: %s (%s)\n", d.Label, d.FileName, d.URL)
	}

	if len(v.Comments) > 0 {
		fmt.Fprintln(w, "\nComments")
		for _, c := range v.Comments {
			fmt.Fprintf(w, "  - %s\n", c)
		}
	}
	for _, r := range v.Results {
		if !r.Present {
			continue
		}
		fmt.Fprintf(w, "\n%s\n%s\n", r.Title, r.Body)
	}
}

func printHistory(w io.Writer, events []audit.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No history")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "WHEN\tACTION\tFROM\tTO\tACTOR\tCOMMENT")
	for _, e := range events {
		at := e.OccurredAt
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", formatTime(&at), e.Action,
			models.StatusLabel(e.FromStatus), models.StatusLabel(e.ToStatus), e.Actor, orDash(e.Comment))
	}
	_ = tw.Flush()
}

func printDashboard(w io.Writer, d *screen.Dashboard, lang screen.Lang) {
	fmt.Fprintln(w, "Summary")
	if d.SummaryErr != nil {
		fmt.Fprintln(w, "  "+screen.Message(d.SummaryErr, lang))
	} else if s := d.Summary; s != nil {
		tw := newTable(w)
		fmt.Fprintf(tw, "  Total\t%d\n", s.Total)
		fmt.Fprintf(tw, "  Approved\t%d\n", s.Approved)
		fmt.Fprintf(tw, "  Rejected\t%d\n", s.Rejected)
		fmt.Fprintf(tw, "  Under review\t%d\n", s.UnderReview)
		fmt.Fprintf(tw, "  Pending manual review\t%d\n", s.PendingManualReview)
		fmt.Fprintf(tw, "  PEP matches\t%d\n", s.PEPMatches)
		fmt.Fprintf(tw, "  Sanctions matches\t%d\n", s.SanctionsMatches)
		fmt.Fprintf(tw, "  Adverse media cases\t%d\n", s.AdverseMediaCases)
		fmt.Fprintf(tw, "  Average risk score\t%.2f\n", s.AverageRiskScore)
		_ = tw.Flush()
	}

	fmt.Fprintln(w, "\nReview queue")
	if d.QueueErr != nil {
		fmt.Fprintln(w, "  "+screen.Message(d.QueueErr, lang))
	} else {
		printApplications(w, d.Queue)
	}

	fmt.Fprintln(w, "\nAgent")
	if d.AgentErr != nil {
		fmt.Fprintln(w, "  "+screen.Message(d.AgentErr, lang))
	} else if d.Agent != nil {
		fmt.Fprintf(w, "  %s\n", d.Agent.Status)
	}
}

func printAgent(w io.Writer, health *agent.Health, info *agent.Info) {
	tw := newTable(w)
	fmt.Fprintf(tw, "Status\t%s\n", health.Status)
	fmt.Fprintf(tw, "Service\t%s\n", orDash(health.Service))
	fmt.Fprintf(tw, "Version\t%s\n", orDash(health.Version))
	_ = tw.Flush()
	if len(info.Agents) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw = newTable(w)
	fmt.Fprintln(tw, "AGENT\tDESCRIPTION")
	for _, a := range info.Agents {
		fmt.Fprintf(tw, "%s\t%s\n", a.Name, a.Description)
	}
	_ = tw.Flush()
}

func printQuickAssessment(w io.Writer, customerID int64, qa *agent.QuickAssessment) {
	tw := newTable(w)
	fmt.Fprintf(tw, "Customer\t%d\n", customerID)
	if score, err := qa.RiskScore.RiskScore(); err == nil {
		fmt.Fprintf(tw, "Risk score\t%d (%s)\n", score.Int(), score.Tier().Label())
	} else {
		fmt.Fprintf(tw, "Risk score\t-\n")
	}
	fmt.Fprintf(tw, "Recommendation\t%s\n", orDash(qa.Recommendation))
	if len(qa.RiskIndicators) > 0 {
		fmt.Fprintf(tw, "Indicators\t%s\n", strings.Join(qa.RiskIndicators, ", "))
	}
	if qa.Message != "" {
		fmt.Fprintf(tw, "Message\t%s\n", qa.Message)
	}
	_ = tw.Flush()
}

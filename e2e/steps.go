package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"kycdesk/internal/agent"
	authmodels "kycdesk/internal/auth/models"
	"kycdesk/internal/desk/screen"
	"kycdesk/internal/kyc/models"
	"kycdesk/internal/kyc/review"
	dErrors "kycdesk/pkg/domain-errors"
)

type worldKey struct{}

// steps binds the feature vocabulary to a world. The reviewer name is what
// decisions are attributed to.
type steps struct {
	w        *world
	reviewer string
}

func registerSteps(sc *godog.ScenarioContext, uploadDir func() string) {
	s := &steps{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		w, err := newWorld(uploadDir())
		if err != nil {
			return ctx, err
		}
		s.w = w
		s.reviewer = ""
		return context.WithValue(ctx, worldKey{}, w), nil
	})
	sc.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		if s.w != nil {
			s.w.close()
		}
		return ctx, err
	})

	sc.Step(`^a signed-in reviewer "([^"]*)"$`, s.signedInReviewer)
	sc.Step(`^a WNI customer with NIK "([^"]*)"$`, s.wniCustomer)
	sc.Step(`^the analysis agent reports hazard (\d+) with a sanctions match$`, s.agentReportsSanctions)
	sc.Step(`^analysis workers are running$`, s.workersRunning)
	sc.Step(`^the reviewer's token has been revoked$`, s.tokenRevoked)

	sc.Step(`^I initiate a KYC application for the customer$`, s.initiate)
	sc.Step(`^I upload a "([^"]*)" document named "([^"]*)"$`, s.upload)
	sc.Step(`^I submit the application$`, s.submit)
	sc.Step(`^I reject the application with reason "([^"]*)"$`, s.reject)
	sc.Step(`^I request more information with comment "([^"]*)"$`, s.requestInfo)
	sc.Step(`^I open the dashboard$`, s.openDashboard)

	sc.Step(`^the application status is "([^"]*)"$`, s.statusIs)
	sc.Step(`^the application eventually reaches status "([^"]*)"$`, s.eventuallyStatus)
	sc.Step(`^the upload succeeds$`, s.noError)
	sc.Step(`^the upload is refused with "([^"]*)"$`, s.uploadRefused)
	sc.Step(`^the decision is refused with "([^"]*)"$`, s.refusedWith)
	sc.Step(`^the rejection reason is "([^"]*)"$`, s.rejectionReasonIs)
	sc.Step(`^the application was reviewed by "([^"]*)"$`, s.reviewedBy)
	sc.Step(`^the application is in the review queue$`, s.inReviewQueue)
	sc.Step(`^I am redirected to "([^"]*)"$`, s.redirectedTo)
}

func (s *steps) signedInReviewer(ctx context.Context, name string) error {
	s.reviewer = name
	return s.w.register(ctx, name)
}

func (s *steps) wniCustomer(ctx context.Context, nik string) error {
	dob, err := models.ParseDate("1990-04-12")
	if err != nil {
		return err
	}
	view, err := s.w.desk.CreateCustomer(ctx, &models.Customer{
		FirstName:   "Siti",
		LastName:    "Rahma",
		Email:       "siti." + nik[len(nik)-4:] + "@example.id",
		DateOfBirth: dob,
		Citizenship: models.CitizenshipWNI,
		NIK:         nik,
		PhoneNumber: "+6281234567890",
		Address:     "Jl. Merdeka 10, Jakarta",
	})
	if err != nil {
		return err
	}
	s.w.customer = view.Customer
	return nil
}

func (s *steps) agentReportsSanctions(hazard int) error {
	details, err := json.Marshal(map[string]any{
		"risk_breakdown": map[string]any{"sanctions_flag": true},
	})
	if err != nil {
		return err
	}
	s.w.agent.set(agent.Report{
		CaseID:    "CASE-SANCTIONS",
		RiskScore: agent.Hazard(hazard),
		Status:    "APPROVED",
		Reasoning: "name matches a consolidated sanctions list entry",
		Details:   details,
	})
	return nil
}

func (s *steps) workersRunning() error {
	s.w.startWorkers()
	return nil
}

func (s *steps) tokenRevoked(ctx context.Context) error {
	user, ok := s.w.session.User()
	if !ok {
		return fmt.Errorf("no signed-in user")
	}
	return s.w.session.Login(ctx, authmodels.AuthResponse{
		Token:     "revoked." + user.Username,
		UserID:    user.ID,
		Username:  user.Username,
		Role:      authmodels.Role(user.Role),
		ExpiresAt: time.Now().Add(time.Hour),
	})
}

func (s *steps) initiate(ctx context.Context) error {
	if s.w.customer == nil {
		return fmt.Errorf("no customer in this scenario")
	}
	view, err := s.w.desk.Initiate(ctx, s.w.customer.ID)
	if err != nil {
		return err
	}
	s.w.view = view
	return nil
}

func (s *steps) upload(ctx context.Context, docType, fileName string) error {
	view, err := s.w.desk.Upload(ctx, s.w.view.Application, docType, fileName, strings.NewReader("%PDF-1.4 scanned"))
	s.w.lastErr = err
	if err == nil {
		s.w.view = view
	}
	return nil
}

func (s *steps) submit(ctx context.Context) error {
	view, err := s.w.desk.Submit(ctx, s.w.view.Application)
	if err != nil {
		return err
	}
	s.w.view = view
	return nil
}

func (s *steps) decide(ctx context.Context, d review.Decision) {
	view, err := s.w.desk.Review(ctx, s.w.view.Application, d)
	s.w.lastErr = err
	if err == nil {
		s.w.view = view
	}
}

func (s *steps) reject(ctx context.Context, reason string) error {
	s.decide(ctx, review.Decision{Action: review.ActionReject, Reviewer: s.reviewer, Reason: reason})
	return nil
}

func (s *steps) requestInfo(ctx context.Context, comment string) error {
	s.decide(ctx, review.Decision{Action: review.ActionRequestInfo, Reviewer: s.reviewer, Comment: comment})
	return s.noError()
}

func (s *steps) openDashboard(ctx context.Context) error {
	_, err := s.w.desk.LoadDashboard(ctx)
	s.w.lastErr = err
	return nil
}

func (s *steps) noError() error {
	err := s.w.lastErr
	s.w.lastErr = nil
	return err
}

func (s *steps) refusedWith(code string) error {
	err := s.w.lastErr
	s.w.lastErr = nil
	if err == nil {
		return fmt.Errorf("expected a %s refusal, got success", code)
	}
	if got := dErrors.CodeOf(err); string(got) != code {
		return fmt.Errorf("expected %s, got %s: %v", code, got, err)
	}
	return nil
}

// uploadRefused also confirms the server refuses when the console's own
// eligibility check is bypassed.
func (s *steps) uploadRefused(ctx context.Context, code string) error {
	if err := s.refusedWith(code); err != nil {
		return err
	}
	_, err := s.w.client.Upload(ctx, s.w.view.Application.ID, models.DocBankStatement, "direct.pdf", strings.NewReader("x"))
	if err == nil {
		return fmt.Errorf("server accepted an upload to a %s application", s.w.view.Application.Status)
	}
	if got := dErrors.CodeOf(err); string(got) != code {
		return fmt.Errorf("server refused with %s, expected %s", got, code)
	}
	return nil
}

func (s *steps) statusIs(ctx context.Context, want string) error {
	if err := s.noError(); err != nil {
		return err
	}
	if err := s.w.refresh(ctx); err != nil {
		return err
	}
	if got := string(s.w.view.Application.Status); got != want {
		return fmt.Errorf("status is %s, expected %s", got, want)
	}
	return nil
}

func (s *steps) eventuallyStatus(ctx context.Context, want string) error {
	deadline := time.Now().Add(5 * time.Second)
	for {
		if err := s.w.refresh(ctx); err != nil {
			return err
		}
		got := string(s.w.view.Application.Status)
		if got == want {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("status stayed %s, expected %s", got, want)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func (s *steps) rejectionReasonIs(want string) error {
	if got := s.w.view.Application.RejectionReason; got != want {
		return fmt.Errorf("rejection reason is %q, expected %q", got, want)
	}
	return nil
}

func (s *steps) reviewedBy(want string) error {
	if got := s.w.view.Application.ReviewedBy; got != want {
		return fmt.Errorf("reviewed by %q, expected %q", got, want)
	}
	return nil
}

func (s *steps) inReviewQueue(ctx context.Context) error {
	rows, err := s.w.desk.ReviewQueue(ctx)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if row.ID == s.w.view.Application.ID {
			if !row.ManualReview {
				return fmt.Errorf("application %d queued without the manual review flag", row.ID)
			}
			return nil
		}
	}
	return fmt.Errorf("application %d not in the review queue", s.w.view.Application.ID)
}

func (s *steps) redirectedTo(route string) error {
	err := s.w.lastErr
	s.w.lastErr = nil
	to, ok := screen.IsRedirect(err)
	if !ok {
		return fmt.Errorf("expected a redirect, got %v", err)
	}
	if to != route {
		return fmt.Errorf("redirected to %s, expected %s", to, route)
	}
	if s.w.session.IsAuthenticated() {
		return fmt.Errorf("session still authenticated after redirect")
	}
	return nil
}

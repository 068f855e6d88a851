package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"kycdesk/internal/agent"
	"kycdesk/internal/kyc/handler/mocks"
	"kycdesk/internal/kyc/models"
	"kycdesk/internal/kyc/review"
	"kycdesk/internal/kyc/service"
	"kycdesk/internal/platform/middleware"
	"kycdesk/internal/webhook"
	dErrors "kycdesk/pkg/domain-errors"
	"kycdesk/pkg/platform/httputil"
	"kycdesk/pkg/testutil"
)

const (
	validToken    = "valid-token"
	webhookSecret = "shared-secret"
)

type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (*middleware.JWTClaims, error) {
	if token != validToken {
		return nil, errors.New("bad token")
	}
	return &middleware.JWTClaims{UserID: 7, Username: "ayu", Role: "ADMIN"}, nil
}

type KycHandlerSuite struct {
	suite.Suite
	router http.Handler
	svc    *mocks.MockService
}

func TestKycHandlerSuite(t *testing.T) {
	suite.Run(t, new(KycHandlerSuite))
}

func (s *KycHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.svc = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := New(s.svc, webhook.NewVerifier(webhookSecret, false), stubValidator{}, logger, 1<<20)
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Route("/api", h.Register)
	s.router = r
}

func (s *KycHandlerSuite) do(req *http.Request) (int, *httputil.ErrorResponse, string) {
	rr := testutil.DoRequest(s.router, req)
	body := rr.Body.String()
	if rr.Code >= 400 {
		return rr.Code, testutil.UnmarshalResponse[httputil.ErrorResponse](s.T(), rr), body
	}
	return rr.Code, nil, body
}

func authed(req *http.Request) *http.Request {
	return testutil.WithBearer(req, validToken)
}

func (s *KycHandlerSuite) TestAuthRequired() {
	t := s.T()
	testutil.Given(t, "no bearer token", func(t *testing.T) {
		code, errResp, _ := s.do(testutil.NewRequest(t, http.MethodGet, "/api/kyc/applications"))
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, string(dErrors.CodeUnauthorized), errResp.Error)
	})
	testutil.Given(t, "an invalid bearer token", func(t *testing.T) {
		req := testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/api/kyc/applications"), "forged")
		code, _, _ := s.do(req)
		assert.Equal(t, http.StatusUnauthorized, code)
	})
}

func (s *KycHandlerSuite) TestCreateCustomer() {
	s.svc.EXPECT().CreateCustomer(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, c *models.Customer) (*models.Customer, error) {
			s.Equal("Budi", c.FirstName)
			c.ID = 11
			return c, nil
		})

	req := authed(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/customers", map[string]any{
		"firstName":   "Budi",
		"lastName":    "Santoso",
		"email":       "budi@example.co.id",
		"dateOfBirth": "1990-04-12",
		"citizenship": "WNI",
		"nik":         "3174051204900001",
	}))
	code, _, body := s.do(req)
	s.Equal(http.StatusCreated, code)
	s.Contains(body, `"id":11`)
}

func (s *KycHandlerSuite) TestCustomerErrors() {
	t := s.T()
	testutil.Given(t, "a non-numeric id", func(t *testing.T) {
		code, errResp, _ := s.do(authed(testutil.NewRequest(t, http.MethodGet, "/api/customers/abc")))
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, string(dErrors.CodeBadRequest), errResp.Error)
	})
	testutil.Given(t, "an unknown customer", func(t *testing.T) {
		s.svc.EXPECT().GetCustomer(gomock.Any(), int64(99)).Return(nil, dErrors.New(dErrors.CodeNotFound, "customer not found"))
		code, errResp, _ := s.do(authed(testutil.NewRequest(t, http.MethodGet, "/api/customers/99")))
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "customer not found", errResp.ErrorDescription)
	})
	testutil.Given(t, "a storage failure", func(t *testing.T) {
		s.svc.EXPECT().DeleteCustomer(gomock.Any(), int64(3)).Return(dErrors.New(dErrors.CodeInternal, "storage failure: disk"))
		code, errResp, _ := s.do(authed(testutil.NewRequest(t, http.MethodDelete, "/api/customers/3")))
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Empty(t, errResp.ErrorDescription, "internal errors carry no description")
	})
	testutil.Given(t, "a successful delete", func(t *testing.T) {
		s.svc.EXPECT().DeleteCustomer(gomock.Any(), int64(4)).Return(nil)
		code, _, _ := s.do(authed(testutil.NewRequest(t, http.MethodDelete, "/api/customers/4")))
		assert.Equal(t, http.StatusNoContent, code)
	})
}

func (s *KycHandlerSuite) TestReviewerActions() {
	t := s.T()
	testutil.Given(t, "a reject with reason and reviewer", func(t *testing.T) {
		s.svc.EXPECT().Decide(gomock.Any(), review.Decision{
			ApplicationID: 5,
			Action:        review.ActionReject,
			Reviewer:      "J. Tan",
			Reason:        "Unverifiable address",
		}).Return(&models.Application{ID: 5, Status: models.StatusRejected, ReviewedBy: "J. Tan"}, nil)

		req := authed(testutil.NewRequest(t, http.MethodPost, "/api/kyc/5/reject?reason=Unverifiable+address&reviewerName=J.+Tan"))
		code, _, body := s.do(req)
		assert.Equal(t, http.StatusOK, code)
		assert.Contains(t, body, `"status":"REJECTED"`)
	})
	testutil.Given(t, "an approve without reviewerName", func(t *testing.T) {
		s.svc.EXPECT().Decide(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, d review.Decision) (*models.Application, error) {
				assert.Equal(t, "ayu", d.Reviewer)
				assert.Equal(t, "docs ok", d.Comment)
				return &models.Application{ID: 6, Status: models.StatusApproved}, nil
			})
		req := authed(testutil.NewRequest(t, http.MethodPost, "/api/kyc/6/approve?comment=docs+ok"))
		code, _, _ := s.do(req)
		assert.Equal(t, http.StatusOK, code)
	})
	testutil.Given(t, "an approve with a blank reviewerName", func(t *testing.T) {
		s.svc.EXPECT().Decide(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, d review.Decision) (*models.Application, error) {
				assert.Equal(t, "ayu", d.Reviewer)
				return &models.Application{ID: 6, Status: models.StatusApproved}, nil
			})
		req := authed(testutil.NewRequest(t, http.MethodPost, "/api/kyc/6/approve?reviewerName=%20%20"))
		code, _, _ := s.do(req)
		assert.Equal(t, http.StatusOK, code)
	})
	testutil.Given(t, "a decision on a finalized application", func(t *testing.T) {
		s.svc.EXPECT().Decide(gomock.Any(), gomock.Any()).Return(nil, dErrors.New(dErrors.CodeInvalidState, "cannot request info on an Approved application"))
		req := authed(testutil.NewRequest(t, http.MethodPost, "/api/kyc/6/request-info?comment=more&reviewerName=Ayu"))
		code, errResp, _ := s.do(req)
		assert.Equal(t, http.StatusConflict, code)
		assert.Equal(t, string(dErrors.CodeInvalidState), errResp.Error)
	})
}

func (s *KycHandlerSuite) TestUpload() {
	t := s.T()
	testutil.Given(t, "a multipart upload", func(t *testing.T) {
		s.svc.EXPECT().Upload(gomock.Any(), int64(8), models.DocumentType("BANK_STATEMENT"), "statement.pdf", gomock.Any()).DoAndReturn(
			func(_ context.Context, _ int64, _ models.DocumentType, _ string, r io.Reader) (*models.Document, error) {
				content, err := io.ReadAll(r)
				require.NoError(t, err)
				assert.Equal(t, "%PDF", string(content))
				return &models.Document{ID: 1, ApplicationID: 8, DocumentType: models.DocBankStatement, FileURL: "/files/x.pdf"}, nil
			})
		req := authed(testutil.NewMultipartRequest(t, "/api/kyc/8/upload", "file", "statement.pdf", []byte("%PDF"),
			map[string]string{"type": "BANK_STATEMENT"}))
		code, _, body := s.do(req)
		assert.Equal(t, http.StatusCreated, code)
		assert.Contains(t, body, `"fileUrl":"/files/x.pdf"`)
	})
	testutil.Given(t, "a form without a file", func(t *testing.T) {
		req := authed(testutil.NewMultipartRequest(t, "/api/kyc/8/upload", "file", "", nil,
			map[string]string{"type": "BANK_STATEMENT"}))
		code, errResp, _ := s.do(req)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "file is required", errResp.ErrorDescription)
	})
}

func (s *KycHandlerSuite) TestListings() {
	s.svc.EXPECT().ListByStatus(gomock.Any(), "under_review").Return([]*models.Application{{ID: 1, Status: models.StatusUnderReview}}, nil)
	code, _, body := s.do(authed(testutil.NewRequest(s.T(), http.MethodGet, "/api/kyc/applications/status/under_review")))
	s.Equal(http.StatusOK, code)
	s.Contains(body, `"UNDER_REVIEW"`)

	s.svc.EXPECT().Analytics(gomock.Any()).Return(&models.Summary{Total: 3, AverageRiskScore: 57.67}, nil)
	code, _, body = s.do(authed(testutil.NewRequest(s.T(), http.MethodGet, "/api/kyc/analytics/summary")))
	s.Equal(http.StatusOK, code)
	s.Contains(body, `"averageRiskScore":57.67`)
}

func (s *KycHandlerSuite) TestQuickAssess() {
	t := s.T()
	testutil.Given(t, "a customer id", func(t *testing.T) {
		s.svc.EXPECT().QuickAssess(gomock.Any(), int64(3)).Return(&agent.QuickAssessment{
			QuickAssessment: true,
			RiskScore:       65,
			RiskIndicators:  []string{"pep_possible"},
			Recommendation:  "MANUAL_REVIEW",
		}, nil)
		code, _, body := s.do(authed(testutil.NewRequest(t, http.MethodPost, "/api/agent/quick/3")))
		assert.Equal(t, http.StatusOK, code)
		assert.Contains(t, body, `"recommendation":"MANUAL_REVIEW"`)
	})
	testutil.Given(t, "the agent is unreachable", func(t *testing.T) {
		s.svc.EXPECT().QuickAssess(gomock.Any(), int64(3)).Return(nil, dErrors.New(dErrors.CodeUnavailable, "analysis agent unavailable"))
		code, errResp, _ := s.do(authed(testutil.NewRequest(t, http.MethodPost, "/api/agent/quick/3")))
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, string(dErrors.CodeUnavailable), errResp.Error)
	})
	testutil.Given(t, "a malformed customer id", func(t *testing.T) {
		code, _, _ := s.do(authed(testutil.NewRequest(t, http.MethodPost, "/api/agent/quick/abc")))
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func (s *KycHandlerSuite) TestWebhook() {
	t := s.T()
	payload := `{"providerApplicantId":"abc","status":"GREEN","riskScore":12}`
	signer := webhook.NewVerifier(webhookSecret, false)

	testutil.Given(t, "a correctly signed payload", func(t *testing.T) {
		s.svc.EXPECT().ProcessWebhook(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, e service.WebhookEvent) (*models.Application, error) {
				assert.Equal(t, "abc", e.ProviderApplicantID)
				require.NotNil(t, e.RiskScore)
				assert.EqualValues(t, 12, *e.RiskScore)
				return &models.Application{ID: 2, Status: models.StatusApproved}, nil
			})
		req := testutil.NewRequest(t, http.MethodPost, "/api/webhooks/kyc")
		req.Body = io.NopCloser(strings.NewReader(payload))
		req.Header.Set(webhook.DigestHeader, signer.Sign([]byte(payload)))
		code, _, body := s.do(req)
		assert.Equal(t, http.StatusOK, code)
		assert.Contains(t, body, `"status":"APPROVED"`)
	})

	testutil.Given(t, "a tampered payload", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodPost, "/api/webhooks/kyc")
		req.Body = io.NopCloser(strings.NewReader(strings.Replace(payload, "12", "2", 1)))
		req.Header.Set(webhook.DigestHeader, signer.Sign([]byte(payload)))
		code, errResp, _ := s.do(req)
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, string(dErrors.CodeUnauthorized), errResp.Error)
	})

	testutil.Given(t, "an unsigned payload", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodPost, "/api/webhooks/kyc")
		req.Body = io.NopCloser(strings.NewReader(payload))
		code, _, _ := s.do(req)
		assert.Equal(t, http.StatusUnauthorized, code)
	})
}

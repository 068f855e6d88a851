package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	authmodels "kycdesk/internal/auth/models"
	"kycdesk/internal/desk/session"
	"kycdesk/internal/kyc/models"
	"kycdesk/internal/kyc/review"
	dErrors "kycdesk/pkg/domain-errors"
)

type ClientSuite struct {
	suite.Suite
	ctx     context.Context
	router  chi.Router
	server  *httptest.Server
	session *session.Session
	client  *Client
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.ctx = context.Background()
	s.router = chi.NewRouter()
	s.server = httptest.NewServer(s.router)
	s.T().Cleanup(s.server.Close)
	s.session = session.New(session.NewMemoryStore())
	s.client = New(s.server.URL, 2*time.Second, s.session)
}

func (s *ClientSuite) login() {
	require.NoError(s.T(), s.session.Login(s.ctx, authmodels.AuthResponse{
		Token: "tok", UserID: 1, Username: "reviewer", Role: authmodels.RoleAdmin,
		ExpiresAt: time.Now().Add(time.Hour),
	}))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *ClientSuite) TestLoginStoresSession() {
	s.router.Post("/api/auth/authenticate", func(w http.ResponseWriter, r *http.Request) {
		var creds authmodels.Credentials
		require.NoError(s.T(), json.NewDecoder(r.Body).Decode(&creds))
		s.Equal("reviewer", creds.Username)
		writeJSON(w, http.StatusOK, authmodels.AuthResponse{Token: "fresh", UserID: 2, Username: "reviewer", Role: authmodels.RoleUser})
	})

	resp, err := s.client.Login(s.ctx, authmodels.Credentials{Username: " reviewer ", Password: "password123"})
	require.NoError(s.T(), err)
	s.Equal("fresh", resp.Token)
	s.Equal("fresh", s.session.Token())
}

func (s *ClientSuite) TestLoginRejectedKeepsSessionEmpty() {
	s.router.Post("/api/auth/authenticate", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized", "error_description": "invalid credentials"})
	})

	_, err := s.client.Login(s.ctx, authmodels.Credentials{Username: "reviewer", Password: "password123"})
	require.ErrorIs(s.T(), err, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials"))
	s.False(s.session.IsAuthenticated())
}

func (s *ClientSuite) TestInvalidCredentialsNeverSent() {
	var calls atomic.Int32
	s.router.Post("/api/auth/register", func(w http.ResponseWriter, r *http.Request) { calls.Add(1) })

	_, err := s.client.Register(s.ctx, authmodels.Credentials{Username: "ab", Password: "password123"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Zero(calls.Load())
}

func (s *ClientSuite) TestBearerTokenSent() {
	s.login()
	s.router.Get("/api/kyc/review-queue", func(w http.ResponseWriter, r *http.Request) {
		s.Equal("Bearer tok", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, []*models.Application{{ID: 4, Status: models.StatusUnderReview}})
	})

	apps, err := s.client.ReviewQueue(s.ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), apps, 1)
	s.Equal(models.StatusUnderReview, apps[0].Status)
}

func (s *ClientSuite) TestUnauthorizedMidSessionLogsOut() {
	s.login()
	s.router.Get("/api/kyc/applications", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized", "error_description": "token has expired"})
	})

	_, err := s.client.ListApplications(s.ctx)
	s.True(IsAuth(err))
	s.False(IsTransient(err))
	s.False(s.session.IsAuthenticated())
}

func (s *ClientSuite) TestForbiddenLogsOut() {
	s.login()
	s.router.Get("/api/customers", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := s.client.ListCustomers(s.ctx)
	s.True(IsAuth(err))
	s.False(s.session.IsAuthenticated())
}

func (s *ClientSuite) TestNotFound() {
	s.login()
	s.router.Get("/api/kyc/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "error_description": "application not found"})
	})

	_, err := s.client.GetApplication(s.ctx, 99)
	s.True(IsNotFound(err))
	s.Equal("application not found", dErrors.MessageOf(err))
	s.True(s.session.IsAuthenticated())
}

func (s *ClientSuite) TestServerErrorIsTransient() {
	s.login()
	s.router.Get("/api/kyc/analytics/summary", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error"})
	})

	_, err := s.client.Analytics(s.ctx)
	s.True(IsTransient(err))
	s.True(s.session.IsAuthenticated())
}

func (s *ClientSuite) TestUnreachableIsTransient() {
	s.server.Close()
	_, err := s.client.AgentHealth(s.ctx)
	s.True(IsTransient(err))
}

func (s *ClientSuite) TestTimeoutIsTransient() {
	s.login()
	s.client = New(s.server.URL, 50*time.Millisecond, s.session)
	s.router.Get("/api/agent/info", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})

	_, err := s.client.AgentInfo(s.ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
}

func (s *ClientSuite) TestValidationErrorPassesThrough() {
	s.login()
	s.router.Post("/api/kyc/{id}/submit", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "invalid_state", "error_description": "cannot submit an application in status Approved"})
	})

	_, err := s.client.Submit(s.ctx, 3)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *ClientSuite) TestDecideQueryParams() {
	s.login()
	s.router.Post("/api/kyc/{id}/reject", func(w http.ResponseWriter, r *http.Request) {
		s.Equal("12", chi.URLParam(r, "id"))
		s.Equal("Unverifiable address", r.URL.Query().Get("reason"))
		s.Equal("J. Tan", r.URL.Query().Get("reviewerName"))
		writeJSON(w, http.StatusOK, models.Application{ID: 12, Status: models.StatusRejected, ReviewedBy: "J. Tan"})
	})
	s.router.Post("/api/kyc/{id}/request-info", func(w http.ResponseWriter, r *http.Request) {
		s.Equal("Need bank statement", r.URL.Query().Get("comment"))
		writeJSON(w, http.StatusOK, models.Application{ID: 12, Status: models.StatusActionRequired})
	})

	app, err := s.client.Decide(s.ctx, review.Decision{ApplicationID: 12, Action: review.ActionReject, Reviewer: "J. Tan", Reason: "Unverifiable address"})
	require.NoError(s.T(), err)
	s.Equal(models.StatusRejected, app.Status)

	app, err = s.client.Decide(s.ctx, review.Decision{ApplicationID: 12, Action: review.ActionRequestInfo, Reviewer: "J. Tan", Comment: "Need bank statement"})
	require.NoError(s.T(), err)
	s.Equal(models.StatusActionRequired, app.Status)
}

func (s *ClientSuite) TestUploadMultipart() {
	s.login()
	s.router.Post("/api/kyc/{id}/upload", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(s.T(), r.ParseMultipartForm(1<<20))
		s.Equal("KTP_FRONT", r.FormValue("type"))
		f, header, err := r.FormFile("file")
		require.NoError(s.T(), err)
		defer f.Close()
		body, _ := io.ReadAll(f)
		s.Equal("ktp.jpg", header.Filename)
		s.Equal("image-bytes", string(body))
		writeJSON(w, http.StatusCreated, models.Document{ID: 1, DocumentType: models.DocumentType("KTP_FRONT"), FileName: "ktp.jpg"})
	})

	doc, err := s.client.Upload(s.ctx, 5, "KTP_FRONT", "ktp.jpg", strings.NewReader("image-bytes"))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "ktp.jpg", doc.FileName)
}

func (s *ClientSuite) TestQuickAssess() {
	s.login()
	s.router.Post("/api/agent/quick/{customerId}", func(w http.ResponseWriter, r *http.Request) {
		s.Equal("12", chi.URLParam(r, "customerId"))
		writeJSON(w, http.StatusOK, map[string]any{"quick_assessment": true, "risk_score": 20, "recommendation": "APPROVE"})
	})

	qa, err := s.client.QuickAssess(s.ctx, 12)
	require.NoError(s.T(), err)
	s.True(qa.QuickAssessment)
	s.Equal("APPROVE", qa.Recommendation)
}

func (s *ClientSuite) TestParseID() {
	id, err := ParseID("42")
	require.NoError(s.T(), err)
	s.Equal(int64(42), id)
	_, err = ParseID("abc")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	_, err = ParseID("0")
	s.Error(err)
}

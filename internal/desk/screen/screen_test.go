package screen

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"kycdesk/internal/agent"
	"kycdesk/internal/desk/api"
	"kycdesk/internal/desk/screen/mocks"
	"kycdesk/internal/kyc/models"
	"kycdesk/internal/kyc/review"
	dErrors "kycdesk/pkg/domain-errors"
	"kycdesk/pkg/testutil"
)

type DispatcherSuite struct {
	suite.Suite
	ctx     context.Context
	ctrl    *gomock.Controller
	backend *mocks.MockBackend
	auth    *mocks.MockAuthenticator
	d       *Dispatcher
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.backend = mocks.NewMockBackend(s.ctrl)
	s.auth = mocks.NewMockAuthenticator(s.ctrl)
	s.d = New(s.backend, s.auth,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC) }),
	)
}

func (s *DispatcherSuite) signedIn() {
	s.auth.EXPECT().IsAuthenticated().Return(true).AnyTimes()
}

func application(id int64, status models.Status) *models.Application {
	return &models.Application{ID: id, CustomerID: 1, Status: status}
}

func (s *DispatcherSuite) TestGuard() {
	s.T().Run("protected routes redirect without a session and never fetch", func(t *testing.T) {
		s.auth.EXPECT().IsAuthenticated().Return(false).AnyTimes()

		_, err := s.d.LoadDashboard(s.ctx)
		to, ok := IsRedirect(err)
		require.True(t, ok)
		assert.Equal(t, RouteLogin, to)

		_, err = s.d.OpenApplication(s.ctx, 3)
		assert.Equal(t, &Redirect{To: RouteLogin}, err)

		_, err = s.d.Customers(s.ctx)
		assert.Equal(t, &Redirect{To: RouteLogin}, err)
	})

	s.T().Run("public routes pass", func(t *testing.T) {
		assert.NoError(t, s.d.Guard(RouteLogin))
		assert.NoError(t, s.d.Guard(RouteRegister))
		assert.True(t, Protected(RouteDashboard))
	})
}

func (s *DispatcherSuite) TestReview() {
	s.signedIn()
	t := s.T()

	testutil.Given(t, "a rejection without a reason", func(t *testing.T) {
		app := application(7, models.StatusUnderReview)
		testutil.When(t, "dispatched", func(t *testing.T) {
			_, err := s.d.Review(s.ctx, app, review.Decision{Action: review.ActionReject, Reviewer: "J. Tan", Reason: "  "})
			testutil.Then(t, "it fails validation without a request or mutation", func(t *testing.T) {
				assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
				assert.Equal(t, models.StatusUnderReview, app.Status)
			})
		})
	})

	testutil.Given(t, "an approved application", func(t *testing.T) {
		app := application(8, models.StatusApproved)
		testutil.When(t, "a reviewer approves again", func(t *testing.T) {
			_, err := s.d.Review(s.ctx, app, review.Decision{Action: review.ActionApprove, Reviewer: "J. Tan"})
			testutil.Then(t, "it is refused locally", func(t *testing.T) {
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
			})
		})
	})

	testutil.Given(t, "an application under review", func(t *testing.T) {
		app := application(9, models.StatusUnderReview)
		reviewedAt := time.Now()
		s.backend.EXPECT().Decide(gomock.Any(), review.Decision{
			ApplicationID: 9, Action: review.ActionApprove, Reviewer: "J. Tan", Comment: "ok",
		}).Return(&models.Application{ID: 9, Status: models.StatusApproved}, nil)
		s.backend.EXPECT().GetApplication(gomock.Any(), int64(9)).Return(&models.Application{
			ID: 9, Status: models.StatusApproved, ReviewedBy: "J. Tan", ReviewedAt: &reviewedAt,
		}, nil)

		testutil.When(t, "a reviewer approves", func(t *testing.T) {
			view, err := s.d.Review(s.ctx, app, review.Decision{Action: review.ActionApprove, Reviewer: " J. Tan ", Comment: "ok"})
			testutil.Then(t, "the refetched application is shown", func(t *testing.T) {
				require.NoError(t, err)
				assert.Equal(t, "Approved", view.StatusLabel)
				assert.Equal(t, "J. Tan", view.Application.ReviewedBy)
				assert.NotNil(t, view.Application.ReviewedAt)
				assert.False(t, view.CanReview)
			})
		})
	})
}

func (s *DispatcherSuite) TestReviewCollapsesConcurrentDispatch() {
	s.signedIn()
	app := application(11, models.StatusSubmitted)
	release := make(chan struct{})
	s.backend.EXPECT().Decide(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, review.Decision) (*models.Application, error) {
			<-release
			return &models.Application{ID: 11, Status: models.StatusActionRequired}, nil
		}).Times(1)
	s.backend.EXPECT().GetApplication(gomock.Any(), int64(11)).
		Return(&models.Application{ID: 11, Status: models.StatusActionRequired}, nil).Times(2)

	decision := review.Decision{Action: review.ActionRequestInfo, Reviewer: "Ana", Comment: "Need payslip"}
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.d.Review(s.ctx, app, decision)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	s.NoError(errs[0])
	s.NoError(errs[1])
}

func (s *DispatcherSuite) TestSessionExpiryRedirects() {
	s.signedIn()
	s.backend.EXPECT().Decide(gomock.Any(), gomock.Any()).Return(nil, api.ErrSessionExpired)

	_, err := s.d.Review(s.ctx, application(4, models.StatusSubmitted),
		review.Decision{Action: review.ActionApprove, Reviewer: "Ana"})
	s.Equal(&Redirect{To: RouteLogin}, err)
}

func (s *DispatcherSuite) TestMissingApplication() {
	s.signedIn()
	s.backend.EXPECT().GetApplication(gomock.Any(), int64(404)).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "application not found"))

	_, err := s.d.OpenApplication(s.ctx, 404)
	var nf *NotFound
	s.Require().ErrorAs(err, &nf)
	s.Equal(RouteApplications, nf.BackTo)
}

func (s *DispatcherSuite) TestSubmitAndUpload() {
	s.signedIn()

	_, err := s.d.Submit(s.ctx, application(1, models.StatusSubmitted))
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

	_, err = s.d.Upload(s.ctx, application(1, models.StatusDraft), "KTP_FRONT", "", nil)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation), "file is required")

	_, err = s.d.Upload(s.ctx, application(1, models.StatusDraft), "SELFIE", "a.jpg", strings.NewReader("x"))
	s.True(dErrors.HasCode(err, dErrors.CodeValidation), "unknown type")

	_, err = s.d.Upload(s.ctx, application(1, models.StatusSubmitted), "KTP_FRONT", "a.jpg", strings.NewReader("x"))
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

	s.backend.EXPECT().Upload(gomock.Any(), int64(1), models.DocumentType("KTP_FRONT"), "a.jpg", gomock.Any()).
		Return(&models.Document{ID: 1}, nil)
	s.backend.EXPECT().Submit(gomock.Any(), int64(1)).Return(application(1, models.StatusSubmitted), nil)
	s.backend.EXPECT().GetApplication(gomock.Any(), int64(1)).Return(&models.Application{
		ID: 1, Status: models.StatusDraft,
		Documents: []models.Document{{DocumentType: "KTP_FRONT", FileName: "a.jpg", FileURL: "/files/x_a.jpg"}},
	}, nil)
	s.backend.EXPECT().GetApplication(gomock.Any(), int64(1)).Return(application(1, models.StatusSubmitted), nil)

	view, err := s.d.Upload(s.ctx, application(1, models.StatusDraft), "KTP_FRONT", "a.jpg", strings.NewReader("x"))
	s.Require().NoError(err)
	s.Require().Len(view.Documents, 1)
	s.True(view.Checklist[1].Satisfied)

	view, err = s.d.Submit(s.ctx, application(1, models.StatusDraft))
	s.Require().NoError(err)
	s.Equal(models.StatusSubmitted, view.Application.Status)
}

func (s *DispatcherSuite) TestCreateCustomerValidatesLocally() {
	s.signedIn()
	_, err := s.d.CreateCustomer(s.ctx, &models.Customer{FirstName: "Budi"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *DispatcherSuite) TestDeleteCustomerRefreshesList() {
	s.signedIn()
	s.backend.EXPECT().DeleteCustomer(gomock.Any(), int64(2)).Return(nil)
	s.backend.EXPECT().ListCustomers(gomock.Any()).Return([]*models.Customer{{ID: 1}}, nil)

	customers, err := s.d.DeleteCustomer(s.ctx, 2)
	s.Require().NoError(err)
	s.Len(customers, 1)
}

func (s *DispatcherSuite) TestDashboardKeepsHealthySections() {
	s.signedIn()
	s.backend.EXPECT().Analytics(gomock.Any()).Return(&models.Summary{Total: 3}, nil)
	s.backend.EXPECT().ReviewQueue(gomock.Any()).Return(nil, dErrors.New(dErrors.CodeUnavailable, "server error (503), try again"))
	s.backend.EXPECT().AgentHealth(gomock.Any()).Return(&agent.Health{Status: "healthy"}, nil)

	dash, err := s.d.LoadDashboard(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, dash.Summary.Total)
	s.Error(dash.QueueErr)
	s.NoError(dash.AgentErr)
}

func (s *DispatcherSuite) TestDashboardAuthFailureRedirects() {
	s.signedIn()
	s.backend.EXPECT().Analytics(gomock.Any()).Return(nil, api.ErrSessionExpired)
	s.backend.EXPECT().ReviewQueue(gomock.Any()).Return(nil, nil).AnyTimes()
	s.backend.EXPECT().AgentHealth(gomock.Any()).Return(nil, nil).AnyTimes()

	_, err := s.d.LoadDashboard(s.ctx)
	s.Equal(&Redirect{To: RouteLogin}, err)
}

func (s *DispatcherSuite) TestApplicationsByStatus() {
	s.signedIn()
	_, err := s.d.Applications(s.ctx, "PENDING")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	s.backend.EXPECT().ListByStatus(gomock.Any(), models.StatusUnderReview).Return([]*models.Application{
		{ID: 1, Status: models.StatusUnderReview, Customer: &models.Customer{FirstName: "Siti", LastName: "Rahma"}},
	}, nil)
	rows, err := s.d.Applications(s.ctx, "UNDER_REVIEW")
	s.Require().NoError(err)
	s.Equal("Siti Rahma", rows[0].CustomerName)
	s.Equal("Under Review", rows[0].Status)
}

func TestApplicationView(t *testing.T) {
	app := &models.Application{
		ID:                    5,
		Status:                models.StatusUnderReview,
		RiskScore:             models.MustRiskScore(55),
		AdminComments:         "Agent Analysis: pep | Additional Info Requested: payslip",
		DocumentCheckerResult: models.ResultPayload(`{"ok":true}`),
		ExternalSearchResult:  models.ResultPayload("not json"),
	}
	view := NewApplicationView(app)

	assert.Equal(t, "Under Review", view.StatusLabel)
	assert.Equal(t, models.TierMedium, view.Tier.Tier)
	assert.True(t, view.CanReview)
	assert.False(t, view.CanSubmit)
	assert.Equal(t, []string{"Agent Analysis: pep", "Additional Info Requested: payslip"}, view.Comments)
	assert.Len(t, view.Checklist, 4)

	byTitle := map[string]ResultSection{}
	for _, r := range view.Results {
		byTitle[r.Title] = r
	}
	assert.True(t, byTitle["Document Checker"].Present)
	assert.Contains(t, byTitle["Document Checker"].Body, `"ok": true`)
	assert.Equal(t, "not json", byTitle["External Search"].Body)
	assert.False(t, byTitle["Wealth Calculator"].Present)
}

func TestMessage(t *testing.T) {
	cases := []struct {
		name string
		err  error
		lang Lang
		want string
	}{
		{"nil", nil, English, ""},
		{"validation keeps detail", dErrors.New(dErrors.CodeValidation, "rejection reason is required"), English, "Please check your input: rejection reason is required"},
		{"redirect", &Redirect{To: RouteLogin}, Indonesian, "Sesi Anda telah berakhir. Silakan masuk kembali."},
		{"expired session", api.ErrSessionExpired, English, "Your session has ended. Please sign in again."},
		{"bad credentials", dErrors.New(dErrors.CodeUnauthorized, "invalid credentials"), Indonesian, "Nama pengguna atau kata sandi salah."},
		{"not found state", &NotFound{What: "application", BackTo: RouteApplications}, English, "The requested record could not be found."},
		{"transient", dErrors.New(dErrors.CodeUnavailable, "x"), Indonesian, "Server tidak tersedia. Coba lagi sebentar lagi."},
		{"plain error", errors.New("boom"), English, "Something went wrong. Try again."},
		{"unknown lang", dErrors.New(dErrors.CodeTimeout, "x"), Lang("fr"), "The server took too long to respond. Try again."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Message(tc.err, tc.lang))
		})
	}
	assert.Equal(t, Indonesian, ParseLang("id"))
	assert.Equal(t, English, ParseLang("de"))
}

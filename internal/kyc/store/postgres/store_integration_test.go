//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"kycdesk/internal/kyc/models"
	pgplatform "kycdesk/internal/platform/postgres"
	"kycdesk/pkg/platform/sentinel"
	"kycdesk/pkg/platform/tx"
	"kycdesk/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	ctx   context.Context
	pg    *containers.PostgresContainer
	store *Store
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())
	s.Require().NoError(pgplatform.Migrate(s.ctx, s.pg.DB))
	s.store = New(s.pg.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.pg.DB.ExecContext(s.ctx, `TRUNCATE customers, kyc_applications, kyc_documents RESTART IDENTITY CASCADE`)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newCustomer(email, nik string) *models.Customer {
	now := time.Now().UTC().Truncate(time.Microsecond)
	c := &models.Customer{
		FirstName:   "Budi",
		LastName:    "Santoso",
		Email:       email,
		DateOfBirth: models.Date{Time: time.Date(1985, 2, 14, 0, 0, 0, 0, time.UTC)},
		Citizenship: models.CitizenshipWNI,
		NIK:         nik,
		PhoneNumber: "+628111",
		NetWorth:    decimal.NewNullDecimal(decimal.RequireFromString("1250000.50")),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.Require().NoError(s.store.CreateCustomer(s.ctx, c))
	return c
}

func (s *PostgresStoreSuite) TestCustomerRoundTripAndConflicts() {
	c := s.newCustomer("budi@example.com", "3171234567890001")

	found, err := s.store.FindCustomer(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal("3171234567890001", found.NIK)
	s.True(found.NetWorth.Decimal.Equal(decimal.RequireFromString("1250000.5")))
	s.Equal("1985-02-14", found.DateOfBirth.String())

	err = s.store.CreateCustomer(s.ctx, &models.Customer{Email: "budi@example.com", Citizenship: models.CitizenshipWNI,
		DateOfBirth: c.DateOfBirth})
	s.ErrorIs(err, sentinel.ErrConflict)

	_, err = s.store.FindCustomer(s.ctx, 999)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestApplicationLifecycle() {
	c := s.newCustomer("app@example.com", "")
	now := time.Now().UTC().Truncate(time.Microsecond)
	app := &models.Application{CustomerID: c.ID, Status: models.StatusDraft, ProviderApplicantID: "prov-1",
		CreatedAt: now, UpdatedAt: now}
	s.Require().NoError(s.store.CreateApplication(s.ctx, app))

	s.Require().NoError(s.store.AddDocument(s.ctx, &models.Document{ApplicationID: app.ID,
		DocumentType: models.DocBankStatement, FileName: "bca.pdf", FileURL: "/files/x_bca.pdf", UploadedAt: now}))

	score := models.MustRiskScore(82)
	app.Status = models.StatusUnderReview
	app.RiskScore = score
	app.DocumentCheckerResult = `{"ok":true}`
	app.SetManualReview(true)
	s.Require().NoError(s.store.UpdateApplication(s.ctx, app))

	found, err := s.store.FindByProviderApplicantID(s.ctx, "prov-1")
	s.Require().NoError(err)
	s.Equal(models.StatusUnderReview, found.Status)
	s.Require().NotNil(found.RiskScore)
	s.Equal(82, found.RiskScore.Int())
	s.True(found.NeedsManualReview())
	s.Equal(models.ResultPayload(`{"ok":true}`), found.DocumentCheckerResult)
	s.Require().Len(found.Documents, 1)
	s.Require().NotNil(found.Customer)
	s.Equal("app@example.com", found.Customer.Email)

	queue, err := s.store.ListApplications(s.ctx, models.ApplicationFilter{ReviewQueue: true})
	s.Require().NoError(err)
	s.Len(queue, 1)

	byStatus, err := s.store.ListApplications(s.ctx, models.ApplicationFilter{
		Statuses: []models.Status{models.StatusApproved, models.StatusRejected}})
	s.Require().NoError(err)
	s.Empty(byStatus)

	var urls []string
	s.Require().NoError(tx.Run(s.ctx, s.pg.DB, func(ctx context.Context) error {
		var err error
		urls, err = s.store.DeleteCustomer(ctx, c.ID)
		return err
	}))
	s.Equal([]string{"/files/x_bca.pdf"}, urls)
	_, err = s.store.FindApplication(s.ctx, app.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.DeleteCustomer(s.ctx, c.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestForUpdateInsideTransaction() {
	c := s.newCustomer("tx@example.com", "")
	app := &models.Application{CustomerID: c.ID, Status: models.StatusSubmitted, ProviderApplicantID: "prov-tx"}
	s.Require().NoError(s.store.CreateApplication(s.ctx, app))

	err := tx.Run(s.ctx, s.pg.DB, func(ctx context.Context) error {
		locked, err := s.store.FindApplicationForUpdate(ctx, app.ID)
		if err != nil {
			return err
		}
		locked.Status = models.StatusApproved
		return s.store.UpdateApplication(ctx, locked)
	})
	s.Require().NoError(err)

	found, err := s.store.FindApplication(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, found.Status)
}

func (s *PostgresStoreSuite) TestMissingParents() {
	s.ErrorIs(s.store.CreateApplication(s.ctx, &models.Application{CustomerID: 404, Status: models.StatusDraft,
		ProviderApplicantID: "x"}), sentinel.ErrNotFound)
	s.ErrorIs(s.store.AddDocument(s.ctx, &models.Document{ApplicationID: 404, DocumentType: models.DocNPWP}),
		sentinel.ErrNotFound)
}

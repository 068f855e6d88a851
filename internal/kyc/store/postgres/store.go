// Package postgres persists customers, applications and documents in
// PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"kycdesk/internal/kyc/models"
	pgplatform "kycdesk/internal/platform/postgres"
	"kycdesk/pkg/platform/sentinel"
	"kycdesk/pkg/platform/tx"
)

// Store reads and writes through a *sql.DB, or through a *sql.Tx when one is
// bound with NewTx or carried in the context.
type Store struct {
	db    *sql.DB
	bound tx.Executor
}

// New creates a store on db.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// NewTx binds a store to an open transaction.
func NewTx(t *sql.Tx) *Store {
	return &Store{bound: t}
}

func (s *Store) exec(ctx context.Context) tx.Executor {
	if s.bound != nil {
		return s.bound
	}
	return tx.Exec(ctx, s.db)
}

func mapWriteErr(err error) error {
	if pgplatform.IsUniqueViolation(err, "") {
		return fmt.Errorf("%w: %v", sentinel.ErrConflict, err)
	}
	return err
}

const customerColumns = `id, first_name, last_name, email, date_of_birth, citizenship, nik, national_id,
	phone_number, address, kelurahan, kecamatan, kabupaten, provinsi, postal_code, occupation,
	company_name, linkedin_url, risk_level, net_worth, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*models.Customer, error) {
	var (
		c          models.Customer
		dob        time.Time
		nik, natID sql.NullString
		netWorth   decimal.NullDecimal
		risk       string
	)
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &dob, &c.Citizenship, &nik, &natID,
		&c.PhoneNumber, &c.Address, &c.Kelurahan, &c.Kecamatan, &c.Kabupaten, &c.Provinsi, &c.PostalCode,
		&c.Occupation, &c.CompanyName, &c.LinkedinURL, &risk, &netWorth, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.DateOfBirth = models.Date{Time: dob}
	c.NIK = nik.String
	c.NationalID = natID.String
	c.RiskLevel = models.RiskLevel(risk)
	c.NetWorth = netWorth
	return &c, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (s *Store) CreateCustomer(ctx context.Context, c *models.Customer) error {
	err := s.exec(ctx).QueryRowContext(ctx, `
		INSERT INTO customers (first_name, last_name, email, date_of_birth, citizenship, nik, national_id,
			phone_number, address, kelurahan, kecamatan, kabupaten, provinsi, postal_code, occupation,
			company_name, linkedin_url, risk_level, net_worth, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
		RETURNING id`,
		c.FirstName, c.LastName, c.Email, c.DateOfBirth.Time, string(c.Citizenship), nullable(c.NIK), nullable(c.NationalID),
		c.PhoneNumber, c.Address, c.Kelurahan, c.Kecamatan, c.Kabupaten, c.Provinsi, c.PostalCode, c.Occupation,
		c.CompanyName, c.LinkedinURL, string(c.RiskLevel), c.NetWorth, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert customer: %w", mapWriteErr(err))
	}
	return nil
}

func (s *Store) FindCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	row := s.exec(ctx).QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return c, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()
	out := make([]*models.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	res, err := s.exec(ctx).ExecContext(ctx, `
		UPDATE customers SET first_name=$2, last_name=$3, email=$4, date_of_birth=$5, citizenship=$6,
			nik=$7, national_id=$8, phone_number=$9, address=$10, kelurahan=$11, kecamatan=$12,
			kabupaten=$13, provinsi=$14, postal_code=$15, occupation=$16, company_name=$17,
			linkedin_url=$18, risk_level=$19, net_worth=$20, updated_at=$21
		WHERE id = $1`,
		c.ID, c.FirstName, c.LastName, c.Email, c.DateOfBirth.Time, string(c.Citizenship),
		nullable(c.NIK), nullable(c.NationalID), c.PhoneNumber, c.Address, c.Kelurahan, c.Kecamatan,
		c.Kabupaten, c.Provinsi, c.PostalCode, c.Occupation, c.CompanyName,
		c.LinkedinURL, string(c.RiskLevel), c.NetWorth, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update customer: %w", mapWriteErr(err))
	}
	return requireOneRow(res)
}

// DeleteCustomer returns the file URLs of every document removed with the
// customer. The customer row is locked first so no application can be
// added between collecting the URLs and the cascade; callers run it inside
// a transaction for the lock to hold.
func (s *Store) DeleteCustomer(ctx context.Context, id int64) ([]string, error) {
	ex := s.exec(ctx)
	var locked int64
	err := ex.QueryRowContext(ctx, `SELECT id FROM customers WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock customer: %w", err)
	}

	rows, err := ex.QueryContext(ctx, `
		SELECT d.file_url FROM kyc_documents d
		JOIN kyc_applications a ON a.id = d.application_id
		WHERE a.customer_id = $1
		ORDER BY d.id`, id)
	if err != nil {
		return nil, fmt.Errorf("list customer documents: %w", err)
	}
	defer rows.Close()
	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("scan document url: %w", err)
		}
		if url != "" {
			urls = append(urls, url)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	res, err := ex.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("delete customer: %w", err)
	}
	if err := requireOneRow(res); err != nil {
		return nil, err
	}
	return urls, nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

const applicationColumns = `a.id, a.customer_id, a.status, a.risk_score, a.risk_labels, a.case_id, a.agent_report,
	a.document_checker_result, a.resume_crosschecker_result, a.external_search_result, a.wealth_calculator_result,
	a.pep_match, a.sanctions_match, a.adverse_media_found, a.adverse_media_sources, a.requires_manual_review,
	a.admin_comments, a.rejection_reason, a.reviewed_by, a.reviewed_at, a.provider_applicant_id,
	a.created_at, a.updated_at`

func scanApplication(row rowScanner) (*models.Application, error) {
	var (
		a                               models.Application
		status                          string
		score                           sql.NullInt16
		labels, report                  string
		docChecker, resume, ext, wealth sql.NullString
		sources                         sql.NullString
		manual                          sql.NullBool
		reviewedAt                      sql.NullTime
	)
	err := row.Scan(&a.ID, &a.CustomerID, &status, &score, &labels, &a.CaseID, &report,
		&docChecker, &resume, &ext, &wealth,
		&a.PEPMatch, &a.SanctionsMatch, &a.AdverseMediaFound, &sources, &manual,
		&a.AdminComments, &a.RejectionReason, &a.ReviewedBy, &reviewedAt, &a.ProviderApplicantID,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Status = models.Status(status)
	if score.Valid {
		rs, err := models.NewRiskScore(int(score.Int16))
		if err != nil {
			return nil, fmt.Errorf("application %d: %w", a.ID, err)
		}
		a.RiskScore = &rs
	}
	a.RiskLabels = models.ResultPayload(labels)
	a.AgentReport = models.ResultPayload(report)
	a.DocumentCheckerResult = models.ResultPayload(docChecker.String)
	a.ResumeCrosscheckerResult = models.ResultPayload(resume.String)
	a.ExternalSearchResult = models.ResultPayload(ext.String)
	a.WealthCalculatorResult = models.ResultPayload(wealth.String)
	a.AdverseMediaSources = models.ResultPayload(sources.String)
	if manual.Valid {
		a.SetManualReview(manual.Bool)
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		a.ReviewedAt = &t
	}
	return &a, nil
}

func applicationArgs(a *models.Application) []any {
	var score sql.NullInt16
	if a.RiskScore != nil {
		score = sql.NullInt16{Int16: int16(a.RiskScore.Int()), Valid: true}
	}
	var manual sql.NullBool
	if a.RequiresManualReview != nil {
		manual = sql.NullBool{Bool: *a.RequiresManualReview, Valid: true}
	}
	var reviewedAt sql.NullTime
	if a.ReviewedAt != nil {
		reviewedAt = sql.NullTime{Time: *a.ReviewedAt, Valid: true}
	}
	return []any{
		a.CustomerID, string(a.Status), score, string(a.RiskLabels), a.CaseID, string(a.AgentReport),
		nullable(string(a.DocumentCheckerResult)), nullable(string(a.ResumeCrosscheckerResult)),
		nullable(string(a.ExternalSearchResult)), nullable(string(a.WealthCalculatorResult)),
		a.PEPMatch, a.SanctionsMatch, a.AdverseMediaFound, nullable(string(a.AdverseMediaSources)), manual,
		a.AdminComments, a.RejectionReason, a.ReviewedBy, reviewedAt, a.ProviderApplicantID,
		a.CreatedAt, a.UpdatedAt,
	}
}

func (s *Store) CreateApplication(ctx context.Context, a *models.Application) error {
	err := s.exec(ctx).QueryRowContext(ctx, `
		INSERT INTO kyc_applications (customer_id, status, risk_score, risk_labels, case_id, agent_report,
			document_checker_result, resume_crosschecker_result, external_search_result, wealth_calculator_result,
			pep_match, sanctions_match, adverse_media_found, adverse_media_sources, requires_manual_review,
			admin_comments, rejection_reason, reviewed_by, reviewed_at, provider_applicant_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
		RETURNING id`, applicationArgs(a)...,
	).Scan(&a.ID)
	if err != nil {
		if pgplatform.IsForeignKeyViolation(err) {
			return fmt.Errorf("customer %d: %w", a.CustomerID, sentinel.ErrNotFound)
		}
		return fmt.Errorf("insert application: %w", mapWriteErr(err))
	}
	return nil
}

func (s *Store) UpdateApplication(ctx context.Context, a *models.Application) error {
	args := append([]any{a.ID}, applicationArgs(a)...)
	res, err := s.exec(ctx).ExecContext(ctx, `
		UPDATE kyc_applications SET customer_id=$2, status=$3, risk_score=$4, risk_labels=$5, case_id=$6,
			agent_report=$7, document_checker_result=$8, resume_crosschecker_result=$9,
			external_search_result=$10, wealth_calculator_result=$11, pep_match=$12, sanctions_match=$13,
			adverse_media_found=$14, adverse_media_sources=$15, requires_manual_review=$16,
			admin_comments=$17, rejection_reason=$18, reviewed_by=$19, reviewed_at=$20,
			provider_applicant_id=$21, created_at=$22, updated_at=$23
		WHERE id = $1`, args...)
	if err != nil {
		return fmt.Errorf("update application: %w", mapWriteErr(err))
	}
	return requireOneRow(res)
}

func (s *Store) findOne(ctx context.Context, where string, arg any, lock bool) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM kyc_applications a WHERE ` + where
	if lock {
		query += ` FOR UPDATE`
	}
	a, err := scanApplication(s.exec(ctx).QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find application: %w", err)
	}
	if err := s.hydrate(ctx, []*models.Application{a}); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) FindApplication(ctx context.Context, id int64) (*models.Application, error) {
	return s.findOne(ctx, `a.id = $1`, id, false)
}

// FindApplicationForUpdate row-locks the application until the surrounding
// transaction ends.
func (s *Store) FindApplicationForUpdate(ctx context.Context, id int64) (*models.Application, error) {
	return s.findOne(ctx, `a.id = $1`, id, true)
}

func (s *Store) FindByProviderApplicantID(ctx context.Context, providerID string) (*models.Application, error) {
	return s.findOne(ctx, `a.provider_applicant_id = $1`, providerID, false)
}

func (s *Store) ListApplications(ctx context.Context, f models.ApplicationFilter) ([]*models.Application, error) {
	var (
		conds []string
		args  []any
	)
	if f.CustomerID != 0 {
		args = append(args, f.CustomerID)
		conds = append(conds, fmt.Sprintf("a.customer_id = $%d", len(args)))
	}
	if len(f.Statuses) > 0 {
		args = append(args, pq.Array(f.StatusStrings()))
		conds = append(conds, fmt.Sprintf("a.status = ANY($%d)", len(args)))
	}
	if f.ReviewQueue {
		args = append(args, string(models.StatusUnderReview))
		conds = append(conds, fmt.Sprintf("(a.status = $%d OR a.requires_manual_review IS TRUE)", len(args)))
	}
	query := `SELECT ` + applicationColumns + ` FROM kyc_applications a`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY a.id`

	rows, err := s.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()
	out := make([]*models.Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.hydrate(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// hydrate loads owners and documents for apps with one query each.
func (s *Store) hydrate(ctx context.Context, apps []*models.Application) error {
	if len(apps) == 0 {
		return nil
	}
	appIDs := make([]int64, 0, len(apps))
	customerIDs := make([]int64, 0, len(apps))
	byID := make(map[int64]*models.Application, len(apps))
	for _, a := range apps {
		a.Documents = []models.Document{}
		appIDs = append(appIDs, a.ID)
		customerIDs = append(customerIDs, a.CustomerID)
		byID[a.ID] = a
	}

	rows, err := s.exec(ctx).QueryContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = ANY($1)`,
		pq.Array(customerIDs))
	if err != nil {
		return fmt.Errorf("load customers: %w", err)
	}
	owners := make(map[int64]*models.Customer)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			rows.Close()
			return fmt.Errorf("scan customer: %w", err)
		}
		owners[c.ID] = c
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	for _, a := range apps {
		if c, ok := owners[a.CustomerID]; ok {
			cp := *c
			a.Customer = &cp
		}
	}

	rows, err = s.exec(ctx).QueryContext(ctx, `
		SELECT id, application_id, document_type, file_name, file_url, uploaded_at
		FROM kyc_documents WHERE application_id = ANY($1) ORDER BY id`, pq.Array(appIDs))
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d models.Document
		var docType string
		if err := rows.Scan(&d.ID, &d.ApplicationID, &docType, &d.FileName, &d.FileURL, &d.UploadedAt); err != nil {
			return fmt.Errorf("scan document: %w", err)
		}
		d.DocumentType = models.DocumentType(docType)
		if a, ok := byID[d.ApplicationID]; ok {
			a.Documents = append(a.Documents, d)
		}
	}
	return rows.Err()
}

func (s *Store) AddDocument(ctx context.Context, d *models.Document) error {
	err := s.exec(ctx).QueryRowContext(ctx, `
		INSERT INTO kyc_documents (application_id, document_type, file_name, file_url, uploaded_at)
		SELECT $1, $2, $3, $4, $5 WHERE EXISTS (SELECT 1 FROM kyc_applications WHERE id = $1)
		RETURNING id`,
		d.ApplicationID, string(d.DocumentType), d.FileName, d.FileURL, d.UploadedAt,
	).Scan(&d.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

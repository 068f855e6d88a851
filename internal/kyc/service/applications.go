package service

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"

	"kycdesk/internal/audit"
	"kycdesk/internal/kyc/models"
	"kycdesk/internal/kyc/review"
	dErrors "kycdesk/pkg/domain-errors"
	"kycdesk/pkg/requestcontext"
)

// Initiate opens a DRAFT application for the customer.
func (s *Service) Initiate(ctx context.Context, customerID int64) (*models.Application, error) {
	now := requestcontext.Now(ctx)
	if _, err := s.store.FindCustomer(ctx, customerID); err != nil {
		return nil, storeErr(err, "customer")
	}
	app := &models.Application{
		CustomerID:          customerID,
		Status:              models.StatusDraft,
		ProviderApplicantID: uuid.NewString(),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.store.CreateApplication(ctx, app); err != nil {
		return nil, storeErr(err, "application")
	}
	s.logger.InfoContext(ctx, "kyc application initiated",
		"application_id", app.ID,
		"customer_id", customerID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return s.Get(ctx, app.ID)
}

// Upload stores a document against a DRAFT application.
func (s *Service) Upload(ctx context.Context, appID int64, docType models.DocumentType, fileName string, r io.Reader) (*models.Document, error) {
	requestID := requestcontext.RequestID(ctx)
	docType, err := models.ParseDocumentType(string(docType))
	if err != nil {
		return nil, err
	}
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "file is required")
	}
	app, err := s.store.FindApplication(ctx, appID)
	if err != nil {
		return nil, storeErr(err, "application")
	}
	if !models.CanUpload(app) {
		return nil, uploadRefused()
	}

	stored, err := s.files.Save(ctx, fileName, r)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeValidation) {
			return nil, err
		}
		s.logger.ErrorContext(ctx, "failed to store document",
			"error", err,
			"application_id", appID,
			"request_id", requestID,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store document")
	}

	doc := &models.Document{
		ApplicationID: appID,
		DocumentType:  docType,
		FileName:      fileName,
		FileURL:       stored.URL,
		UploadedAt:    requestcontext.Now(ctx),
	}
	// The application may have been submitted while the file was written.
	err = s.tx.RunInTx(ctx, func(ctx context.Context, store Store) error {
		current, err := store.FindApplicationForUpdate(ctx, appID)
		if err != nil {
			return storeErr(err, "application")
		}
		if !models.CanUpload(current) {
			return uploadRefused()
		}
		if err := store.AddDocument(ctx, doc); err != nil {
			return storeErr(err, "application")
		}
		return nil
	})
	if err != nil {
		if delErr := s.files.Delete(ctx, stored.URL); delErr != nil {
			s.logger.WarnContext(ctx, "failed to remove orphaned document",
				"error", delErr,
				"file_url", stored.URL,
				"request_id", requestID,
			)
		}
		return nil, err
	}
	s.metrics.IncUpload(string(docType))
	s.logger.InfoContext(ctx, "document uploaded",
		"application_id", appID,
		"document_type", string(docType),
		"size_bytes", stored.Size,
		"request_id", requestID,
	)
	return doc, nil
}

func uploadRefused() error {
	return dErrors.New(dErrors.CodeInvalidState,
		"documents can only be uploaded while the application is "+models.StatusDraft.Label())
}

// Submit moves a DRAFT application into analysis.
func (s *Service) Submit(ctx context.Context, appID int64) (*models.Application, error) {
	return s.enterAnalysis(ctx, appID, review.EventSubmit, audit.ActionSubmitted)
}

// Resubmit sends an ACTION_REQUIRED application back into analysis.
func (s *Service) Resubmit(ctx context.Context, appID int64) (*models.Application, error) {
	return s.enterAnalysis(ctx, appID, review.EventResubmit, audit.ActionResubmitted)
}

func (s *Service) enterAnalysis(ctx context.Context, appID int64, event review.Event, action audit.Action) (*models.Application, error) {
	now := requestcontext.Now(ctx)
	var updated *models.Application
	err := s.tx.RunInTx(ctx, func(ctx context.Context, store Store) error {
		app, err := store.FindApplicationForUpdate(ctx, appID)
		if err != nil {
			return storeErr(err, "application")
		}
		from := app.Status
		if err := review.Advance(app, event, now); err != nil {
			return err
		}
		if err := store.UpdateApplication(ctx, app); err != nil {
			return storeErr(err, "application")
		}
		s.emitAudit(ctx, audit.Event{
			ApplicationID: app.ID,
			Action:        action,
			FromStatus:    string(from),
			ToStatus:      string(app.Status),
			Actor:         actorName(ctx, string(event.Actor())),
		})
		updated = app
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Enqueue(ctx, updated.ID)
	s.logger.InfoContext(ctx, "kyc application submitted",
		"application_id", updated.ID,
		"event", string(event),
		"request_id", requestcontext.RequestID(ctx),
	)
	return updated, nil
}

// actorName prefers the authenticated username over a role name.
func actorName(ctx context.Context, fallback string) string {
	if name := requestcontext.Username(ctx); name != "" {
		return name
	}
	return fallback
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Application, error) {
	app, err := s.store.FindApplication(ctx, id)
	if err != nil {
		return nil, storeErr(err, "application")
	}
	return app, nil
}

func (s *Service) ListByCustomer(ctx context.Context, customerID int64) ([]*models.Application, error) {
	if _, err := s.store.FindCustomer(ctx, customerID); err != nil {
		return nil, storeErr(err, "customer")
	}
	return s.list(ctx, models.ApplicationFilter{CustomerID: customerID})
}

func (s *Service) List(ctx context.Context) ([]*models.Application, error) {
	return s.list(ctx, models.ApplicationFilter{})
}

// ListByStatus accepts the wire status name.
func (s *Service) ListByStatus(ctx context.Context, rawStatus string) ([]*models.Application, error) {
	status, err := models.ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, models.ApplicationFilter{Statuses: []models.Status{status}})
}

// ReviewQueue lists applications awaiting a human decision.
func (s *Service) ReviewQueue(ctx context.Context) ([]*models.Application, error) {
	return s.list(ctx, models.ApplicationFilter{ReviewQueue: true})
}

func (s *Service) list(ctx context.Context, f models.ApplicationFilter) ([]*models.Application, error) {
	apps, err := s.store.ListApplications(ctx, f)
	if err != nil {
		return nil, storeErr(err, "applications")
	}
	return apps, nil
}

// History returns the audit trail of an application.
func (s *Service) History(ctx context.Context, appID int64) ([]audit.Event, error) {
	if _, err := s.store.FindApplication(ctx, appID); err != nil {
		return nil, storeErr(err, "application")
	}
	if s.audit == nil {
		return []audit.Event{}, nil
	}
	events, err := s.audit.List(ctx, appID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load history")
	}
	return events, nil
}

// Analytics summarises every application.
func (s *Service) Analytics(ctx context.Context) (*models.Summary, error) {
	apps, err := s.store.ListApplications(ctx, models.ApplicationFilter{})
	if err != nil {
		return nil, storeErr(err, "applications")
	}
	summary := models.Summarize(apps)
	return &summary, nil
}

package screen

import (
	"context"
	"fmt"
	"io"
	"strings"

	"kycdesk/internal/audit"
	"kycdesk/internal/kyc/models"
	"kycdesk/internal/kyc/review"
	dErrors "kycdesk/pkg/domain-errors"
)

func applicationRoute(id int64) string {
	return fmt.Sprintf("%s/%d", RouteApplications, id)
}

// OpenApplication loads the detail view of one application.
func (d *Dispatcher) OpenApplication(ctx context.Context, id int64) (*ApplicationView, error) {
	if err := d.Guard(applicationRoute(id)); err != nil {
		return nil, err
	}
	return d.refetch(ctx, id)
}

func (d *Dispatcher) refetch(ctx context.Context, id int64) (*ApplicationView, error) {
	app, err := d.backend.GetApplication(ctx, id)
	if err != nil {
		return nil, settle(err, "application", RouteApplications)
	}
	return NewApplicationView(app), nil
}

// Review validates and dispatches one reviewer decision. A decision that
// fails validation never reaches the backend. Identical decisions in
// flight at the same time share one request.
func (d *Dispatcher) Review(ctx context.Context, app *models.Application, decision review.Decision) (*ApplicationView, error) {
	if err := d.Guard(applicationRoute(app.ID)); err != nil {
		return nil, err
	}
	if !models.CanReview(app) {
		return nil, dErrors.New(dErrors.CodeInvalidState,
			fmt.Sprintf("applications in status %s cannot be reviewed", models.StatusLabel(string(app.Status))))
	}
	decision.ApplicationID = app.ID
	if err := decision.Validate(); err != nil {
		return nil, err
	}

	key := strings.Join([]string{
		fmt.Sprint(decision.ApplicationID), string(decision.Action),
		decision.Reviewer, decision.Comment, decision.Reason,
	}, "\x00")
	_, err, shared := d.inflight.Do(key, func() (any, error) {
		return d.backend.Decide(ctx, decision)
	})
	if err != nil {
		return nil, settle(err, "application", RouteApplications)
	}
	if shared {
		d.logger.DebugContext(ctx, "review dispatch shared with concurrent caller", "application_id", app.ID)
	}
	return d.refetch(ctx, app.ID)
}

// Submit sends a draft to analysis.
func (d *Dispatcher) Submit(ctx context.Context, app *models.Application) (*ApplicationView, error) {
	if err := d.Guard(applicationRoute(app.ID)); err != nil {
		return nil, err
	}
	if !models.CanSubmit(app) {
		return nil, dErrors.New(dErrors.CodeInvalidState, "only draft applications can be submitted")
	}
	if _, err := d.backend.Submit(ctx, app.ID); err != nil {
		return nil, settle(err, "application", RouteApplications)
	}
	return d.refetch(ctx, app.ID)
}

// Resubmit returns an application awaiting information to analysis.
func (d *Dispatcher) Resubmit(ctx context.Context, app *models.Application) (*ApplicationView, error) {
	if err := d.Guard(applicationRoute(app.ID)); err != nil {
		return nil, err
	}
	if !models.CanResubmit(app) {
		return nil, dErrors.New(dErrors.CodeInvalidState, "only applications awaiting information can be resubmitted")
	}
	if _, err := d.backend.Resubmit(ctx, app.ID); err != nil {
		return nil, settle(err, "application", RouteApplications)
	}
	return d.refetch(ctx, app.ID)
}

// Upload attaches a document to a draft.
func (d *Dispatcher) Upload(ctx context.Context, app *models.Application, rawType, fileName string, r io.Reader) (*ApplicationView, error) {
	if err := d.Guard(applicationRoute(app.ID)); err != nil {
		return nil, err
	}
	if r == nil || strings.TrimSpace(fileName) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "a file is required")
	}
	docType, err := models.ParseDocumentType(rawType)
	if err != nil {
		return nil, err
	}
	if !models.CanUpload(app) {
		return nil, dErrors.New(dErrors.CodeInvalidState, "documents can only be added to draft applications")
	}
	if _, err := d.backend.Upload(ctx, app.ID, docType, fileName, r); err != nil {
		return nil, settle(err, "application", RouteApplications)
	}
	return d.refetch(ctx, app.ID)
}

// Initiate opens a draft application for a customer.
func (d *Dispatcher) Initiate(ctx context.Context, customerID int64) (*ApplicationView, error) {
	if err := d.Guard(customerRoute(customerID)); err != nil {
		return nil, err
	}
	app, err := d.backend.Initiate(ctx, customerID)
	if err != nil {
		return nil, settle(err, "customer", RouteCustomers)
	}
	return d.refetch(ctx, app.ID)
}

// History loads the audit trail of an application.
func (d *Dispatcher) History(ctx context.Context, id int64) ([]audit.Event, error) {
	if err := d.Guard(applicationRoute(id)); err != nil {
		return nil, err
	}
	events, err := d.backend.History(ctx, id)
	if err != nil {
		return nil, settle(err, "application", RouteApplications)
	}
	return events, nil
}

// Applications lists every application, or those in one status.
func (d *Dispatcher) Applications(ctx context.Context, rawStatus string) ([]ApplicationRow, error) {
	if err := d.Guard(RouteApplications); err != nil {
		return nil, err
	}
	var (
		apps []*models.Application
		err  error
	)
	if strings.TrimSpace(rawStatus) == "" {
		apps, err = d.backend.ListApplications(ctx)
	} else {
		status, perr := models.ParseStatus(rawStatus)
		if perr != nil {
			return nil, perr
		}
		apps, err = d.backend.ListByStatus(ctx, status)
	}
	if err != nil {
		return nil, settle(err, "applications", RouteDashboard)
	}
	return NewApplicationRows(apps), nil
}

// ReviewQueue lists applications waiting on a reviewer.
func (d *Dispatcher) ReviewQueue(ctx context.Context) ([]ApplicationRow, error) {
	if err := d.Guard(RouteReviewQueue); err != nil {
		return nil, err
	}
	apps, err := d.backend.ReviewQueue(ctx)
	if err != nil {
		return nil, settle(err, "review queue", RouteDashboard)
	}
	return NewApplicationRows(apps), nil
}

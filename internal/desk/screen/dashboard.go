package screen

import (
	"context"

	"golang.org/x/sync/errgroup"

	"kycdesk/internal/agent"
	"kycdesk/internal/desk/api"
	"kycdesk/internal/kyc/models"
)

// Dashboard holds the landing screen sections. A section that failed
// carries its error and the others still render.
type Dashboard struct {
	Summary    *models.Summary
	SummaryErr error

	Queue    []ApplicationRow
	QueueErr error

	Agent    *agent.Health
	AgentErr error
}

// LoadDashboard fetches analytics, the review queue and agent health
// concurrently. Only an auth failure aborts the whole screen.
func (d *Dispatcher) LoadDashboard(ctx context.Context) (*Dashboard, error) {
	if err := d.Guard(RouteDashboard); err != nil {
		return nil, err
	}
	var dash Dashboard
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		summary, err := d.backend.Analytics(gctx)
		dash.Summary, dash.SummaryErr = summary, err
		return authOnly(err)
	})
	g.Go(func() error {
		apps, err := d.backend.ReviewQueue(gctx)
		if err == nil {
			dash.Queue = NewApplicationRows(apps)
		}
		dash.QueueErr = err
		return authOnly(err)
	})
	g.Go(func() error {
		health, err := d.backend.AgentHealth(gctx)
		dash.Agent, dash.AgentErr = health, err
		return authOnly(err)
	})

	if err := g.Wait(); err != nil {
		return nil, settle(err, "dashboard", RouteDashboard)
	}
	for _, err := range []error{dash.SummaryErr, dash.QueueErr, dash.AgentErr} {
		if err != nil {
			d.logger.WarnContext(ctx, "dashboard section failed", "error", err)
		}
	}
	return &dash, nil
}

func authOnly(err error) error {
	if api.IsAuth(err) {
		return err
	}
	return nil
}

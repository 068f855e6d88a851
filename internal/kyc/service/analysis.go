package service

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"kycdesk/internal/agent"
	"kycdesk/internal/audit"
	"kycdesk/internal/kyc/models"
	"kycdesk/internal/kyc/review"
	kstrings "kycdesk/pkg/platform/strings"
	"kycdesk/pkg/requestcontext"
)

const tracerName = "kycdesk/internal/kyc/service"

const (
	prefixAgentAnalysis = "Agent Analysis: "
	prefixAgentFailed   = "Agent Analysis Failed: "
)

type analysisJob struct {
	applicationID int64
	requestID     string
}

// Enqueue schedules analysis without blocking the caller. When the queue is
// full the application stays SUBMITTED and remains reviewable by hand.
func (s *Service) Enqueue(ctx context.Context, appID int64) {
	job := analysisJob{applicationID: appID, requestID: requestcontext.RequestID(ctx)}
	select {
	case s.jobs <- job:
	default:
		s.metrics.IncQueueFull()
		s.logger.WarnContext(ctx, "analysis queue full, application left for manual review",
			"application_id", appID,
			"request_id", job.requestID,
		)
	}
}

// Run drains the analysis queue with the configured number of workers until
// ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < s.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case job := <-s.jobs:
					jobCtx := requestcontext.WithRequestID(ctx, job.requestID)
					if err := s.Analyze(jobCtx, job.applicationID); err != nil {
						s.logger.ErrorContext(jobCtx, "analysis failed",
							"error", err,
							"application_id", job.applicationID,
							"request_id", job.requestID,
						)
					}
				}
			}
		})
	}
	s.logger.InfoContext(ctx, "analysis workers started", "workers", s.workers)
	return g.Wait()
}

// Analyze runs the agent against a SUBMITTED application and applies the
// automated outcome. Applications in any other status are left alone.
func (s *Service) Analyze(ctx context.Context, appID int64) (err error) {
	requestID := requestcontext.RequestID(ctx)
	ctx, span := otel.Tracer(tracerName).Start(ctx, "kyc.analysis")
	span.SetAttributes(attribute.Int64("kyc.application_id", appID))
	start := time.Now()
	defer func() {
		s.metrics.ObserveAnalysis(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "analysis failed")
		}
		span.End()
	}()

	app, err := s.store.FindApplication(ctx, appID)
	if err != nil {
		return storeErr(err, "application")
	}
	if app.Status != models.StatusSubmitted {
		s.logger.InfoContext(ctx, "skipping analysis, application no longer submitted",
			"application_id", appID,
			"status", string(app.Status),
			"request_id", requestID,
		)
		return nil
	}
	customer := app.Customer
	if customer == nil {
		if customer, err = s.store.FindCustomer(ctx, app.CustomerID); err != nil {
			return storeErr(err, "customer")
		}
	}

	findings, agentErr := s.runAgent(ctx, app, customer)
	if agentErr != nil {
		s.logger.WarnContext(ctx, "agent analysis failed, escalating",
			"error", agentErr,
			"application_id", appID,
			"category", string(agent.CategoryOf(agentErr)),
			"request_id", requestID,
		)
	}

	var (
		outcome review.Outcome
		applied *models.Application
	)
	now := requestcontext.Now(ctx)
	err = s.tx.RunInTx(ctx, func(ctx context.Context, store Store) error {
		current, err := store.FindApplicationForUpdate(ctx, appID)
		if err != nil {
			return storeErr(err, "application")
		}
		if current.Status != models.StatusSubmitted {
			return nil
		}
		from := current.Status
		action := audit.ActionAnalysisFailed
		comment := ""
		if agentErr != nil {
			outcome = review.Triage(review.Findings{AgentFailed: true})
			current.AdminComments = kstrings.AppendNote(current.AdminComments, prefixAgentFailed, agentErr.Error())
			comment = agentErr.Error()
		} else {
			recordFindings(current, findings)
			outcome = review.Triage(review.Findings{
				AgentStatus:         findings.Status,
				Score:               findings.Score,
				PEPMatch:            findings.PEPMatch,
				SanctionsMatch:      findings.SanctionsMatch,
				ManualReviewAdvised: findings.ManualReviewAdvised,
			})
			current.AdminComments = kstrings.AppendNote(current.AdminComments, prefixAgentAnalysis, findings.Reasoning)
			action = audit.ActionAnalysisEscalated
			if outcome.Cleared() {
				action = audit.ActionAnalysisCleared
			}
			comment = string(outcome.Reason)
		}
		if err := review.Advance(current, outcome.Event(), now); err != nil {
			return err
		}
		if outcome.Cleared() {
			current.SetManualReview(false)
			current.ReviewedBy = SystemActor
			reviewedAt := now
			current.ReviewedAt = &reviewedAt
		} else {
			current.SetManualReview(true)
		}
		if err := store.UpdateApplication(ctx, current); err != nil {
			return storeErr(err, "application")
		}
		s.emitAudit(ctx, audit.Event{
			ApplicationID: current.ID,
			Action:        action,
			FromStatus:    string(from),
			ToStatus:      string(current.Status),
			Actor:         SystemActor,
			Comment:       comment,
		})
		applied = current
		return nil
	})
	if err != nil {
		return err
	}
	if applied == nil {
		s.logger.InfoContext(ctx, "analysis result discarded, application changed during analysis",
			"application_id", appID,
			"request_id", requestID,
		)
		return nil
	}

	s.metrics.IncAutomatedOutcome(string(outcome.Event()), string(outcome.Reason))
	if outcome.Cleared() {
		s.publishCompleted(ctx, applied)
	}
	span.SetAttributes(
		attribute.String("kyc.outcome", string(outcome.Event())),
		attribute.String("kyc.reason", string(outcome.Reason)),
	)
	s.logger.InfoContext(ctx, "analysis applied",
		"application_id", appID,
		"status", string(applied.Status),
		"reason", string(outcome.Reason),
		"request_id", requestID,
	)
	return nil
}

func (s *Service) runAgent(ctx context.Context, app *models.Application, customer *models.Customer) (*agent.Findings, error) {
	report, err := s.agent.Analyze(ctx, agent.AnalyzeRequest{
		CustomerID:  strconv.FormatInt(customer.ID, 10),
		Name:        customer.FullName(),
		NIK:         customer.IdentityNumber(),
		Files:       kstrings.DedupeAndTrim(app.DocumentURLs()),
		LinkedinURL: customer.LinkedinURL,
		CompanyName: customer.CompanyName,
	})
	if err != nil {
		return nil, err
	}
	return agent.ParseFindings(report)
}

func recordFindings(app *models.Application, f *agent.Findings) {
	app.CaseID = f.CaseID
	app.RiskScore = f.Score
	app.AgentReport = f.AgentReport
	app.DocumentCheckerResult = f.DocumentChecker
	app.ResumeCrosscheckerResult = f.ResumeCrosschecker
	app.ExternalSearchResult = f.ExternalSearch
	app.WealthCalculatorResult = f.WealthCalculator
	app.PEPMatch = f.PEPMatch
	app.SanctionsMatch = f.SanctionsMatch
	app.AdverseMediaFound = f.AdverseMediaFound
	app.AdverseMediaSources = f.AdverseMediaSources
}

// Package agent talks to the external multi-agent analysis service. The
// service's reports are opaque apart from the score and screening flags
// extracted by ParseFindings.
package agent

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"kycdesk/pkg/platform/circuit"
)

const tracerName = "kycdesk/internal/agent"

// Client calls the analysis agent over HTTP.
type Client struct {
	http    *resty.Client
	tracer  trace.Tracer
	metrics *Metrics
	breaker *circuit.Breaker
}

// Option configures a Client.
type Option func(*Client)

// WithMetrics records call latency and failures.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithBreaker fails calls fast while the agent keeps failing.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

// New builds a client for baseURL. Every call is bounded by timeout.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Health probes GET /.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.call(ctx, "health", http.MethodGet, "/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Info fetches GET /info.
func (c *Client) Info(ctx context.Context) (*Info, error) {
	var out Info
	if err := c.call(ctx, "info", http.MethodGet, "/info", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Analyze runs the full multi-agent analysis.
func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest) (*Report, error) {
	var out Report
	if err := c.call(ctx, "analyze", http.MethodPost, "/analyze", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QuickAssess runs the single-pass assessment without sub-agent delegation.
func (c *Client) QuickAssess(ctx context.Context, req AnalyzeRequest) (*QuickAssessment, error) {
	var out QuickAssessment
	if err := c.call(ctx, "quick_assess", http.MethodPost, "/analyze/quick", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) call(ctx context.Context, op, method, path string, body, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "agent."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
	start := time.Now()
	defer func() {
		c.metrics.observe(op, time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(CategoryOf(err)))
		}
		span.End()
	}()

	if c.breaker != nil {
		if !c.breaker.Allow() {
			return newError(ErrorOutage, op, "circuit "+c.breaker.Name()+" open, call skipped", nil)
		}
		defer func() { c.record(err) }()
	}

	req := c.http.R().SetContext(ctx).SetResult(out)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return classifyTransport(op, err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode()))
	if resp.IsError() {
		return classifyStatus(op, resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return nil
}

// record feeds the breaker. A reply the client could not use still proves
// the agent is up; cancellations say nothing about it.
func (c *Client) record(err error) {
	switch {
	case err == nil:
		c.breaker.RecordSuccess()
	case IsRetryable(err):
		c.breaker.RecordFailure()
	case CategoryOf(err) == ErrorBadData, CategoryOf(err) == ErrorContractMismatch:
		c.breaker.RecordSuccess()
	}
}

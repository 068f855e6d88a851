// Package metrics holds Prometheus instruments for the review workflow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Decisions         *prometheus.CounterVec
	AutomatedOutcomes *prometheus.CounterVec
	AnalysisDuration  prometheus.Histogram
	AnalysisQueueFull prometheus.Counter
	Webhooks          *prometheus.CounterVec
	Uploads           *prometheus.CounterVec
}

// New registers the instruments with reg, or the default registry when nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kycdesk_review_decisions_total",
			Help: "Reviewer decisions applied, by action",
		}, []string{"action"}),
		AutomatedOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kycdesk_automated_outcomes_total",
			Help: "Automated analysis outcomes, by event and reason",
		}, []string{"event", "reason"}),
		AnalysisDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "kycdesk_analysis_duration_seconds",
			Help:    "Wall time of one application analysis including the agent call",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
		}),
		AnalysisQueueFull: f.NewCounter(prometheus.CounterOpts{
			Name: "kycdesk_analysis_queue_full_total",
			Help: "Submissions whose analysis could not be queued",
		}),
		Webhooks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kycdesk_webhooks_total",
			Help: "Vendor webhooks processed, by result",
		}, []string{"result"}),
		Uploads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kycdesk_document_uploads_total",
			Help: "Stored documents, by document type",
		}, []string{"type"}),
	}
}

func (m *Metrics) IncDecision(action string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(action).Inc()
}

func (m *Metrics) IncAutomatedOutcome(event, reason string) {
	if m == nil {
		return
	}
	m.AutomatedOutcomes.WithLabelValues(event, reason).Inc()
}

func (m *Metrics) ObserveAnalysis(seconds float64) {
	if m == nil {
		return
	}
	m.AnalysisDuration.Observe(seconds)
}

func (m *Metrics) IncQueueFull() {
	if m == nil {
		return
	}
	m.AnalysisQueueFull.Inc()
}

func (m *Metrics) IncWebhook(result string) {
	if m == nil {
		return
	}
	m.Webhooks.WithLabelValues(result).Inc()
}

func (m *Metrics) IncUpload(docType string) {
	if m == nil {
		return
	}
	m.Uploads.WithLabelValues(docType).Inc()
}

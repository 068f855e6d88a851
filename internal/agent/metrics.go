package agent

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics observes calls to the analysis agent.
type Metrics struct {
	CallLatency *prometheus.HistogramVec
	CallErrors  *prometheus.CounterVec
}

// NewMetrics registers the agent client metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		CallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kycdesk_agent_call_duration_seconds",
			Help:    "Duration of calls to the analysis agent by operation",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
		}, []string{"op"}),
		CallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kycdesk_agent_call_errors_total",
			Help: "Failed calls to the analysis agent by operation and category",
		}, []string{"op", "category"}),
	}
}

func (m *Metrics) observe(op string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.CallLatency.WithLabelValues(op).Observe(d.Seconds())
	if err != nil {
		m.CallErrors.WithLabelValues(op, string(CategoryOf(err))).Inc()
	}
}

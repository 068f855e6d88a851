package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRequest(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveRequest("GET", "/api/kyc/{id}", "200", 0.01)
	m.ObserveRequest("GET", "/api/kyc/{id}", "200", 0.02)
	m.IncrementUsersCreated()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/kyc/{id}", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UsersCreated))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementUsersCreated()
		m.IncrementLoginFailures()
		m.ObserveRequest("GET", "/", "200", 1)
	})
}

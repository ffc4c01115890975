package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/auth/login", "POST", 200, 10*time.Millisecond)
	m.RecordRequest("/api/auth/login", "POST", 200, 5*time.Millisecond)
	m.RecordError("/api/auth/login", "POST", "UNAUTHORIZED")
	m.RecordRateLimited("/api/auth/login", "ip")
	m.RecordNotification("welcome", "sent")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/api/auth/login", "POST", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("/api/auth/login", "POST", "UNAUTHORIZED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited.WithLabelValues("/api/auth/login", "ip")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("welcome", "sent")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
		m.RecordRateLimited("/", "ip")
		m.RecordNotification("welcome", "dead")
	})
}

package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("/leads", http.MethodGet, 200, 15*time.Millisecond)
	m.RecordRequest("/leads", http.MethodGet, 200, 5*time.Millisecond)
	m.RecordError("/leads/assign", http.MethodPost, "PERMISSION_DENIED")
	m.RecordLeadOperation("assign", "ok")
	m.RecordLogin("ok")
	m.RecordRateLimited()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/leads", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPErrorsTotal.WithLabelValues(http.MethodPost, "/leads/assign", "PERMISSION_DENIED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LeadOperationsTotal.WithLabelValues("assign", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitedTotal))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", http.MethodGet, 200, time.Millisecond)
		m.RecordError("/", http.MethodGet, "X")
		m.RecordLeadOperation("create", "ok")
		m.RecordLogin("ok")
		m.RecordRateLimited()
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.RecordLogin("ok")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `crm_logins_total{outcome="ok"} 1`)
}

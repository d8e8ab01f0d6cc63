package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveSync("upsert", nil)
	m.ObserveSync("upsert", errors.New("boom"))
	m.ObserveSync("upsert", nil)
	m.ChoreCompleted()
	m.ExpenseRecorded()
	m.ExpenseRecorded()
	m.ObserveReminder("overdue", nil)
	m.ObserveCache("balances", true)
	m.RateLimited()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.syncOperations.WithLabelValues("upsert", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.syncOperations.WithLabelValues("upsert", ResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.choreCompletions))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.expenses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reminders.WithLabelValues("overdue", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("balances", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveHTTP("GET", "/healthz", 200, time.Millisecond)
		m.ObserveSync("delete", nil)
		m.ObserveReminder("due_today", nil)
		m.ChoreCompleted()
		m.ExpenseRecorded()
		m.ObserveCache("timeline", false)
		m.RateLimited()
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveHTTP("GET", "/api/chores", 200, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `room8_http_requests_total{method="GET",route="/api/chores",status="200"} 1`), body)
	assert.Contains(t, body, "room8_http_request_duration_seconds_bucket")
}

func TestIsAlreadyRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "dup_total", Help: "dup"})
	require.NoError(t, reg.Register(c))

	err := reg.Register(prometheus.NewCounter(prometheus.CounterOpts{Name: "dup_total", Help: "dup"}))
	assert.True(t, IsAlreadyRegistered(err))
	assert.False(t, IsAlreadyRegistered(errors.New("other")))
}

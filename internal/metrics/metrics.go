// Package metrics exposes prometheus collectors for the household services.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "room8"

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics groups every collector. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	syncOperations   *prometheus.CounterVec
	reminders        *prometheus.CounterVec
	choreCompletions prometheus.Counter
	expenses         prometheus.Counter
	cacheLookups     *prometheus.CounterVec
	rateLimited      prometheus.Counter
}

// New builds the collectors on a fresh registry, with Go runtime and
// process collectors included.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		syncOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calendar_sync_total",
			Help:      "Chore calendar sync operations by action and result.",
		}, []string{"action", "result"}),
		reminders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_total",
			Help:      "Chore reminders emitted by kind and result.",
		}, []string{"kind", "result"}),
		choreCompletions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chore_completions_total",
			Help:      "Chore completions recorded.",
		}),
		expenses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expenses_recorded_total",
			Help:      "Expenses added to the ledger.",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Derived-view cache lookups by cache and outcome.",
		}, []string{"cache", "outcome"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.syncOperations,
		m.reminders,
		m.choreCompletions,
		m.expenses,
		m.cacheLookups,
		m.rateLimited,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveSync(action string, err error) {
	if m == nil {
		return
	}
	m.syncOperations.WithLabelValues(action, result(err)).Inc()
}

func (m *Metrics) ObserveReminder(kind string, err error) {
	if m == nil {
		return
	}
	m.reminders.WithLabelValues(kind, result(err)).Inc()
}

func (m *Metrics) ChoreCompleted() {
	if m == nil {
		return
	}
	m.choreCompletions.Inc()
}

func (m *Metrics) ExpenseRecorded() {
	if m == nil {
		return
	}
	m.expenses.Inc()
}

func (m *Metrics) ObserveCache(cache string, hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheLookups.WithLabelValues(cache, outcome).Inc()
}

func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}

// IsAlreadyRegistered reports whether err is a duplicate registration.
func IsAlreadyRegistered(err error) bool {
	var are prometheus.AlreadyRegisteredError
	return errors.As(err, &are)
}

package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newLimiter(t *testing.T, perMinute int) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)}
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour, Now: clock.Now})
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestAllowWithinWindow(t *testing.T) {
	rl, clock := newLimiter(t, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d", i+1)
	}
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "clients are tracked separately")
	assert.Equal(t, int64(1), rl.Hits())

	// Steady traffic does not extend the window.
	clock.Advance(30 * time.Second)
	assert.False(t, rl.Allow("10.0.0.1"))
	clock.Advance(30 * time.Second)
	assert.True(t, rl.Allow("10.0.0.1"))
}

func TestCleanupForgetsIdleClients(t *testing.T) {
	rl, clock := newLimiter(t, 5)
	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")
	require.Equal(t, 2, rl.ActiveClients())

	clock.Advance(time.Minute)
	rl.Allow("10.0.0.2")
	clock.Advance(90 * time.Second)
	rl.cleanupStaleEntries()

	assert.Equal(t, 1, rl.ActiveClients())
}

func TestDefaultsApplied(t *testing.T) {
	rl := NewLimiter(Config{})
	defer rl.Stop()
	assert.Equal(t, DefaultConfig().RequestsPerMinute, rl.requestsPerMinute)
	assert.Equal(t, DefaultConfig().CleanupInterval, rl.cleanupInterval)
}

func TestStopIsIdempotent(t *testing.T) {
	rl := NewLimiter(DefaultConfig())
	assert.NotPanics(t, func() {
		rl.Stop()
		rl.Stop()
	})
}

func TestMiddleware(t *testing.T) {
	rl, clock := newLimiter(t, 1)
	ip := func(r *http.Request) string { return r.RemoteAddr }
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	t.Run("default rejection", func(t *testing.T) {
		h := rl.Middleware(ip, nil)(ok)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/chores", nil)
		req.RemoteAddr = "192.0.2.1"
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		clock.Advance(15 * time.Second)
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "45", rec.Header().Get("Retry-After"))
	})

	t.Run("custom rejection", func(t *testing.T) {
		var called bool
		h := rl.Middleware(ip, func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusTooManyRequests)
		})(ok)

		req := httptest.NewRequest(http.MethodPost, "/api/chores", nil)
		req.RemoteAddr = "192.0.2.2"
		h.ServeHTTP(httptest.NewRecorder(), req)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.True(t, called)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	})
}

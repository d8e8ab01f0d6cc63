// Package ratelimit limits requests per client over fixed one-minute
// windows.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const window = time.Minute

// Limiter provides rate limiting functionality
type Limiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
	hits         atomic.Int64

	requestsPerMinute int
	cleanupInterval   time.Duration
	now               func() time.Time
}

type clientInfo struct {
	windowStart time.Time
	lastRequest time.Time
	requests    int
}

// Config holds rate limiter configuration
type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
	// Now overrides the clock; nil uses time.Now.
	Now func() time.Time
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 120,
		CleanupInterval:   5 * time.Minute,
	}
}

// NewLimiter creates a new rate limiter and starts its cleanup loop.
// Stop must be called to release it.
func NewLimiter(config Config) *Limiter {
	defaults := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = defaults.RequestsPerMinute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = defaults.CleanupInterval
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	rl := &Limiter{
		clients:           make(map[string]*clientInfo),
		stopCleanup:       make(chan struct{}),
		requestsPerMinute: config.RequestsPerMinute,
		cleanupInterval:   config.CleanupInterval,
		now:               config.Now,
	}
	go rl.startCleanup()
	return rl
}

// Allow checks if a request from the given client should be allowed
func (rl *Limiter) Allow(clientIP string) bool {
	_, ok := rl.allow(clientIP)
	return ok
}

// allow also reports how long until the client's window resets.
func (rl *Limiter) allow(clientIP string) (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	client, exists := rl.clients[clientIP]
	if !exists || now.Sub(client.windowStart) >= window {
		rl.clients[clientIP] = &clientInfo{windowStart: now, lastRequest: now, requests: 1}
		return 0, true
	}

	client.lastRequest = now
	if client.requests >= rl.requestsPerMinute {
		rl.hits.Add(1)
		return window - now.Sub(client.windowStart), false
	}
	client.requests++
	return 0, true
}

func (rl *Limiter) startCleanup() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries forgets clients idle for longer than two windows.
func (rl *Limiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-2 * window)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// ActiveClients returns the number of currently tracked clients
func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Hits returns how many requests were rejected since start.
func (rl *Limiter) Hits() int64 {
	return rl.hits.Load()
}

// Stop gracefully shuts down the rate limiter cleanup goroutine
func (rl *Limiter) Stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

// Middleware rejects clients over their quota. onLimit writes the
// rejection; nil falls back to a plain-text 429. Retry-After is set
// before onLimit runs.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			retryAfter, ok := rl.allow(extractIP(r))
			if !ok {
				seconds := int(retryAfter.Round(time.Second) / time.Second)
				if seconds < 1 {
					seconds = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				if onLimit != nil {
					onLimit(w, r)
				} else {
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

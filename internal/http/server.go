package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"room8/internal/cache"
	"room8/internal/log"
	"room8/internal/metrics"
	"room8/internal/middleware/ratelimit"
	"room8/internal/middleware/security"
	"room8/internal/middleware/trace"
	"room8/internal/schedule"
	"room8/internal/services"
)

const (
	balancesCacheSize    = 64
	totalsCacheSize      = 16
	timelineCacheSize    = 64
	cacheCleanupInterval = 10 * time.Minute
)

// Options tunes the server. Zero values fall back to defaults; a nil
// Metrics records nothing.
type Options struct {
	RateLimitPerMinute int
	CacheTTL           time.Duration
	Metrics            *metrics.Metrics
	Logger             *log.Logger
	// Ready reports whether backing services are reachable. Nil means
	// always ready.
	Ready func(context.Context) error
}

type Server struct {
	http.Server
	household *services.Household
	logger    *log.Logger
	metrics   *metrics.Metrics
	ready     func(context.Context) error

	detector *security.Detector
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware

	// Derived views keyed by household revision, so any write invalidates
	// them.
	caches        *cache.Manager
	balancesCache *cache.LRUCache[balancesView]
	totalsCache   *cache.LRUCache[totalsView]
	timelineCache *cache.LRUCache[[]schedule.Day]

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server. Shutdown must be called to stop its background loops.
func NewServer(addr string, household *services.Household, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentHTTP, Handler: slog.Default().Handler()})
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	m := opts.Metrics
	observe := func(name string) cache.Option {
		return cache.WithObserver(func(hit bool) { m.ObserveCache(name, hit) })
	}

	s := &Server{
		household:     household,
		logger:        logger,
		metrics:       m,
		ready:         opts.Ready,
		detector:      security.NewDetector(),
		limiter:       ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		caches:        cache.NewManager(),
		balancesCache: cache.NewLRUCache[balancesView](balancesCacheSize, opts.CacheTTL, observe("balances")),
		totalsCache:   cache.NewLRUCache[totalsView](totalsCacheSize, opts.CacheTTL, observe("totals")),
		timelineCache: cache.NewLRUCache[[]schedule.Day](timelineCacheSize, opts.CacheTTL, observe("timeline")),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP, m.ObserveHTTP)

	s.caches.Register(s.balancesCache)
	s.caches.Register(s.totalsCache)
	s.caches.Register(s.timelineCache)
	s.caches.StartCleanup(cacheCleanupInterval)

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.HandleFunc("GET /api/roommates", s.handleListRoommates)
	mux.HandleFunc("POST /api/roommates", s.handleAddRoommate)
	mux.HandleFunc("GET /api/roommates/{id}", s.handleGetRoommate)
	mux.HandleFunc("PUT /api/roommates/{id}", s.handleUpdateRoommate)
	mux.HandleFunc("DELETE /api/roommates/{id}", s.handleRemoveRoommate)

	mux.HandleFunc("GET /api/chores", s.handleListChores)
	mux.HandleFunc("POST /api/chores", s.handleAddChore)
	mux.HandleFunc("GET /api/chores/overdue", s.handleOverdueChores)
	mux.HandleFunc("GET /api/chores/due-today", s.handleDueTodayChores)
	mux.HandleFunc("GET /api/chores/{id}", s.handleGetChore)
	mux.HandleFunc("PUT /api/chores/{id}", s.handleUpdateChore)
	mux.HandleFunc("DELETE /api/chores/{id}", s.handleDeleteChore)
	mux.HandleFunc("POST /api/chores/{id}/assign", s.handleAssignChore)
	mux.HandleFunc("POST /api/chores/{id}/complete", s.handleCompleteChore)
	mux.HandleFunc("GET /api/chores/{id}/completions", s.handleChoreCompletions)
	mux.HandleFunc("GET /api/schedule", s.handleSchedule)
	mux.HandleFunc("GET /api/timeline", s.handleTimeline)

	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/expenses", s.handleAddExpense)
	mux.HandleFunc("GET /api/expenses/totals", s.handleTotals)
	mux.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)
	mux.HandleFunc("GET /api/balances", s.handleBalances)

	mux.HandleFunc("GET /api/fridge", s.handleListFridge)
	mux.HandleFunc("POST /api/fridge", s.handleAddFridgeItem)
	mux.HandleFunc("PATCH /api/fridge/{id}/position", s.handleMoveFridgeItem)
	mux.HandleFunc("DELETE /api/fridge/{id}", s.handleDeleteFridgeItem)

	mux.HandleFunc("GET /api/calendar-items", s.handleListCalendarItems)
	mux.HandleFunc("POST /api/calendar-items", s.handleAddCalendarItem)
	mux.HandleFunc("DELETE /api/calendar-items/{id}", s.handleDeleteCalendarItem)
}

// middleware wraps the mux, outermost first: tracing, request logger,
// security headers, probe detection, rate limiting.
func (s *Server) middleware(mux http.Handler) http.Handler {
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	h := trace.Route(mux)
	h = s.withRateLimit(h)
	h = s.detector.Middleware(h)
	h = headers.Middleware(h)
	h = log.RequestIDMiddleware(trace.RequestID)(h)
	h = log.Middleware(s.logger)(h)
	return s.tracer.Middleware(h)
}

// withRateLimit limits API calls per client; probes and metrics are exempt.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.metrics.RateLimited()
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldPath, r.URL.Path)
		TooManyRequestsError("rate limit exceeded, try again later").Write(w)
	})(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			limited.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops the background loops, then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// ListenAndServe treats a graceful shutdown as success.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", "addr", s.Addr)
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen on %s: %w", s.Addr, err)
	}
	return nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "not ready").Write(w)
			return
		}
	}
	NewJSONResponse().Data(map[string]string{"status": "ready"}).Write(w)
}

// revisionKey prefixes parts with the household revision.
func (s *Server) revisionKey(parts ...string) string {
	return fmt.Sprintf("%d|%s", s.household.Revision(), strings.Join(parts, "|"))
}

// Package trace assigns every request an id, logs its completion and
// reports it to an observer.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"room8/internal/log"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"

	// HeaderRequestID carries the id in both directions.
	HeaderRequestID = "X-Request-ID"

	// UnmatchedRoute labels requests no route matched.
	UnmatchedRoute = "unmatched"

	maxRequestIDLength = 64
)

// Observer receives one call per completed request. route is the matched
// mux pattern, which keeps label cardinality bounded.
type Observer func(method, route string, status int, elapsed time.Duration)

// Middleware handles request tracing and logging
type Middleware struct {
	logger        *log.Logger
	extractIP     func(*http.Request) string
	observe       Observer
	totalRequests atomic.Int64
}

// NewMiddleware builds the tracer. extractIP and observe may be nil.
func NewMiddleware(logger *log.Logger, extractIP func(*http.Request) string, observe Observer) *Middleware {
	return &Middleware{
		logger:    logger.WithComponent(log.ComponentHTTP),
		extractIP: extractIP,
		observe:   observe,
	}
}

// Middleware returns HTTP middleware for request tracing. A well-formed
// incoming X-Request-ID is kept, otherwise a fresh one is generated.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.totalRequests.Add(1)

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := r.Header.Get(HeaderRequestID)
		if !validRequestID(requestID) {
			requestID = GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)

		route := &routeHolder{}
		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = context.WithValue(ctx, routeKey{}, route)
		r = r.WithContext(ctx)

		logger := m.logger.With(log.FieldRequestID, requestID)
		logger.DebugContext(ctx, "HTTP request started",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		elapsed := time.Since(start)
		log.NewStructuredLogger(logger).LogHTTPEnd(ctx, r, rw.statusCode, elapsed.Milliseconds(), clientIP)

		if m.observe != nil {
			pattern := route.pattern
			if pattern == "" {
				pattern = r.Pattern
			}
			if pattern == "" {
				pattern = UnmatchedRoute
			}
			m.observe(r.Method, pattern, rw.statusCode, elapsed)
		}
	})
}

type routeKey struct{}

type routeHolder struct {
	pattern string
}

// Route wraps a mux so the tracer sees the matched pattern even when
// middleware between them replaced the request. The mux records the
// pattern on the request it was given.
func Route(mux http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
		if holder, ok := r.Context().Value(routeKey{}).(*routeHolder); ok {
			holder.pattern = r.Pattern
		}
	})
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, c := range id {
		if c < '!' || c > '~' {
			return false
		}
	}
	return true
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// RequestID is GetRequestID for middleware that only sees the request.
func RequestID(r *http.Request) string {
	return GetRequestID(r.Context())
}

// TotalRequests returns how many requests passed through.
func (m *Middleware) TotalRequests() int64 {
	return m.totalRequests.Load()
}

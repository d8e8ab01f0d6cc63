package log

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey string

const loggerContextKey contextKey = "logger"

// NewContext returns ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// FromContext extracts a logger from ctx, falling back to the slog default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// Middleware adds logger to every request context.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

// RequestIDMiddleware enriches the request logger with the request id.
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := FromContext(r.Context()).With(FieldRequestID, extractRequestID(r))
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

// StructuredLogger logs well-known household events with consistent fields.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogHTTPEnd logs request completion at a level matching the status class.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.logger.Logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

func (sl *StructuredLogger) LogChoreCompleted(ctx context.Context, choreID, name, frequency, completedBy string) {
	fields := NewFields().
		WithChore(choreID, name, frequency).
		WithOperation(OpComplete).
		ToSlice()
	fields = append(fields, FieldParticipantID, completedBy)

	sl.logger.WithComponent(ComponentHousehold).InfoContext(ctx, "Chore completed", fields...)
}

func (sl *StructuredLogger) LogExpenseCreated(ctx context.Context, id, title, amount, category, paidBy string) {
	fields := NewFields().
		WithExpense(id, title, amount, category).
		WithOperation(OpCreate).
		ToSlice()
	fields = append(fields, FieldParticipantID, paidBy)

	sl.logger.WithComponent(ComponentHousehold).InfoContext(ctx, "Expense recorded", fields...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	all := fields.
		WithError(err).
		WithOperation(operation)

	sl.logger.WithComponent(component).ErrorContext(ctx, msg, all.ToSlice()...)
}

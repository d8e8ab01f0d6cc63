package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func jsonLogger(buf *bytes.Buffer, component string) *Logger {
	return New(Config{
		Component: component,
		Handler:   slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	return rec
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, ComponentLedger)

	logger.Info("balances computed", "count", 3)

	rec := decode(t, &buf)
	if rec[FieldComponent] != ComponentLedger {
		t.Errorf("component = %v, want %s", rec[FieldComponent], ComponentLedger)
	}
	if rec["count"] != float64(3) {
		t.Errorf("count = %v, want 3", rec["count"])
	}
}

func TestWithComponentDoesNotDuplicate(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, ComponentApp).WithComponent(ComponentCalendar)

	logger.Warn("event failed")

	if n := strings.Count(buf.String(), `"component"`); n != 1 {
		t.Fatalf("component key appears %d times in %s", n, buf.String())
	}
	if logger.Component() != ComponentCalendar {
		t.Errorf("Component() = %s", logger.Component())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewHandlerFormats(t *testing.T) {
	tests := []struct {
		format string
		check  func(string) bool
	}{
		{FormatJSON, func(s string) bool { return strings.HasPrefix(s, "{") }},
		{FormatText, func(s string) bool { return strings.Contains(s, "msg=hello") }},
		{"unknown", func(s string) bool { return strings.Contains(s, "msg=hello") }},
		{FormatTint, func(s string) bool { return strings.Contains(s, "hello") }},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			slog.New(NewHandler(&buf, tt.format, slog.LevelInfo)).Info("hello")
			if !tt.check(buf.String()) {
				t.Errorf("unexpected output for %s: %q", tt.format, buf.String())
			}
		})
	}
}

func TestNewHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewHandler(&buf, FormatJSON, slog.LevelWarn)).Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info record written at warn level: %s", buf.String())
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	logger := FromContext(context.Background())
	if logger == nil || logger.Logger == nil {
		t.Fatal("expected a usable fallback logger")
	}
	if logger.Component() != "unknown" {
		t.Errorf("component = %s, want unknown", logger.Component())
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := jsonLogger(&buf, ComponentHTTP)

	handler := Middleware(base)(RequestIDMiddleware(func(*http.Request) string { return "req-42" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("inside")
		}),
	))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/chores", nil))

	rec := decode(t, &buf)
	if rec[FieldRequestID] != "req-42" {
		t.Errorf("request_id = %v, want req-42", rec[FieldRequestID])
	}
}

func TestStructuredLoggerLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "INFO"},
		{404, "WARN"},
		{503, "ERROR"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		sl := NewStructuredLogger(jsonLogger(&buf, ComponentHTTP))
		sl.LogHTTPEnd(context.Background(), httptest.NewRequest(http.MethodGet, "/healthz", nil), tt.status, 3, "127.0.0.1")

		rec := decode(t, &buf)
		if rec["level"] != tt.level {
			t.Errorf("status %d logged at %v, want %s", tt.status, rec["level"], tt.level)
		}
	}
}

func TestLogErrorIncludesOperation(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(jsonLogger(&buf, ComponentApp))

	sl.LogError(context.Background(), "sync failed", errors.New("boom"), ComponentWorker, OpSync, nil)

	rec := decode(t, &buf)
	if rec[FieldError] != "boom" || rec[FieldOperation] != OpSync || rec[FieldComponent] != ComponentWorker {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestLogChoreCompleted(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(jsonLogger(&buf, ComponentApp))

	sl.LogChoreCompleted(context.Background(), "c1", "Trash", "weekly", "p1")

	rec := decode(t, &buf)
	if rec[FieldChoreID] != "c1" || rec[FieldParticipantID] != "p1" || rec[FieldComponent] != ComponentHousehold {
		t.Errorf("unexpected record: %v", rec)
	}
}

package http

import (
	"errors"
	"net/http"
	"strings"

	"room8/internal/core"
	"room8/internal/log"
)

// validationErrors are domain rule violations reported as 400.
var validationErrors = []error{
	core.ErrInvalidAmount,
	core.ErrEmptyTitle,
	core.ErrTitleTooLong,
	core.ErrEmptyName,
	core.ErrEmptySplit,
	core.ErrDuplicateSplit,
	core.ErrEmptyPayer,
	core.ErrUnknownParticipant,
	core.ErrInvalidCategory,
	core.ErrInvalidFrequency,
	core.ErrInvalidPriority,
	core.ErrInvalidDuration,
	core.ErrUnsupportedItem,
	core.ErrInvalidItemType,
	core.ErrInvalidColor,
	core.ErrEmptyText,
	core.ErrEmptyEmoji,
	core.ErrInvalidPlacement,
}

func statusFor(err error) int {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return http.StatusBadRequest
	}
	if errors.Is(err, core.ErrNotFound) {
		return http.StatusNotFound
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// writeError maps err to a status. Client errors echo the message; server
// errors are logged and hidden.
func writeError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	status := statusFor(err)
	if status < http.StatusInternalServerError {
		ErrorResponse(status, err.Error()).Write(w)
		return
	}

	ctx := r.Context()
	log.NewStructuredLogger(log.FromContext(ctx)).
		LogError(ctx, "Request failed", err, log.ComponentHTTP, operation, log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")))
	InternalServerError("internal error").Write(w)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func sanitizeAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, sanitizeInput(v))
	}
	return out
}

func sanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := sanitizeInput(*s)
	return &v
}

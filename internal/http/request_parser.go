package http

// This file implements request body decoding and query parameter parsing
// shared by every handler. Failures are *requestError values, which the
// handlers report as 400.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"room8/internal/core"
)

const (
	maxBodyBytes = 1 << 20
	dateLayout   = "2006-01-02"
)

// requestError is a malformed request, as opposed to a domain rule
// violation.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// decodeJSON reads a single JSON object into dst. Unknown fields and
// trailing data are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		case errors.As(err, &maxErr):
			return badRequest("request body exceeds %d bytes", maxErr.Limit)
		default:
			return badRequest("invalid JSON body: %v", err)
		}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return badRequest("request body must contain a single JSON object")
	}
	return nil
}

// ParseDateParam reads key as YYYY-MM-DD in loc. A missing value yields def.
func ParseDateParam(query url.Values, key string, def time.Time, loc *time.Location) (time.Time, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseInLocation(dateLayout, v, loc)
	if err != nil {
		return time.Time{}, badRequest("%s must be a YYYY-MM-DD date", key)
	}
	return d, nil
}

// ParseIntParam reads key as an integer within [lo, hi]. A missing value
// yields def.
func ParseIntParam(query url.Values, key string, def, lo, hi int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < lo || n > hi {
		return 0, badRequest("%s must be an integer between %d and %d", key, lo, hi)
	}
	return n, nil
}

// parseTimestamp accepts a bare date, taken as midnight in loc, or an
// RFC 3339 timestamp.
func parseTimestamp(field, v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if d, err := time.ParseInLocation(dateLayout, v, loc); err == nil {
		return d, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Time{}, badRequest("%s must be a YYYY-MM-DD date or an RFC 3339 timestamp", field)
}

// optionalTimestamp is parseTimestamp for optional fields: nil and blank
// yield nil.
func optionalTimestamp(field string, v *string, loc *time.Location) (*time.Time, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	t, err := parseTimestamp(field, *v, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// amountField accepts an amount as a JSON number or a decimal string,
// including a comma as decimal separator.
type amountField string

func (a *amountField) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = amountField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("amount must be a number or a decimal string")
	}
	*a = amountField(n.String())
	return nil
}

// Decimal parses the amount with the ledger's rounding rules.
func (a amountField) Decimal() (decimal.Decimal, error) {
	return core.ParseAmount(string(a))
}

package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseDateParam(t *testing.T) {
	def := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		query   url.Values
		want    time.Time
		wantErr bool
	}{
		{"missing uses default", url.Values{}, def, false},
		{"blank uses default", url.Values{"date": {"  "}}, def, false},
		{"valid date", url.Values{"date": {"2024-03-02"}}, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), false},
		{"wrong layout", url.Values{"date": {"02/03/2024"}}, time.Time{}, true},
		{"impossible date", url.Values{"date": {"2024-02-30"}}, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDateParam(tt.query, "date", def, time.UTC)
			if tt.wantErr {
				var reqErr *requestError
				if !errors.As(err, &reqErr) {
					t.Fatalf("err = %v, want *requestError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		name    string
		query   url.Values
		want    int
		wantErr bool
	}{
		{"missing uses default", url.Values{}, 7, false},
		{"in range", url.Values{"days": {"14"}}, 14, false},
		{"lower bound", url.Values{"days": {"0"}}, 0, false},
		{"above range", url.Values{"days": {"400"}}, 0, true},
		{"negative", url.Values{"days": {"-1"}}, 0, true},
		{"not a number", url.Values{"days": {"week"}}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIntParam(tt.query, "days", 7, 0, 365)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		want    string
		wantErr string
	}{
		{"valid", `{"name":"Alex"}`, "Alex", ""},
		{"empty body", ``, "", "empty"},
		{"malformed", `{"name":`, "", "invalid JSON"},
		{"unknown field", `{"name":"Alex","age":3}`, "", "unknown field"},
		{"trailing data", `{"name":"Alex"}{"name":"Sam"}`, "", "single JSON object"},
		{"too large", `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`, "", "exceeds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := decodeJSON(httptest.NewRecorder(), r, &p)

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if p.Name != tt.want {
					t.Errorf("Name = %q, want %q", p.Name, tt.want)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	loc := time.FixedZone("CET", 3600)

	d, err := parseTimestamp("date", "2024-01-15", loc)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, loc)) {
		t.Errorf("bare date = %v, want local midnight", d)
	}

	ts, err := parseTimestamp("date", "2024-01-15T10:30:00Z", loc)
	if err != nil {
		t.Fatal(err)
	}
	if !ts.Equal(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)) {
		t.Errorf("timestamp = %v", ts)
	}

	if _, err := parseTimestamp("date", "yesterday", loc); err == nil {
		t.Error("expected error")
	}

	blank := " "
	if got, err := optionalTimestamp("date", &blank, loc); err != nil || got != nil {
		t.Errorf("blank optional = %v, %v", got, err)
	}
}

func TestAmountField(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{`"12.34"`, "12.34", false},
		{`"12,50"`, "12.5", false},
		{`9.999`, "10", false},
		{`30`, "30", false},
		{`"-5"`, "", true},
		{`true`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var a amountField
			err := a.UnmarshalJSON([]byte(tt.raw))
			if err == nil {
				var d decimal.Decimal
				d, err = a.Decimal()
				if err == nil && d.String() != tt.want {
					t.Errorf("amount = %s, want %s", d.String(), tt.want)
				}
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

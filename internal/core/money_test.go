package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"1.005", "1", true}, // half to even
		{"1.015", "1.02", true},
		{" 2.50 ", "2.5", true},
		{"-1", "", false},
		{"0", "", false},
		{"0.004", "", false},
		{"1e3", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[string]string{
		"12.3":  "$12.30",
		"-3.33": "-$3.33",
		"0":     "$0.00",
	}
	for in, want := range cases {
		if got := FormatAmount(decimal.RequireFromString(in)); got != want {
			t.Fatalf("FormatAmount(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateAmountRejectsSubCent(t *testing.T) {
	if err := ValidateAmount(decimal.RequireFromString("10.001")); err == nil {
		t.Fatal("expected error for sub-cent amount")
	}
	if err := ValidateAmount(decimal.RequireFromString("10.01")); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}

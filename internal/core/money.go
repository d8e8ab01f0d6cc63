// Package core provides money parsing and handling utilities.
//
// Amounts are fixed-point decimals rounded to the currency's minor unit
// (cents). Rounding is always half-to-even.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MinorUnitPlaces is the number of decimal places of the currency minor unit.
const MinorUnitPlaces int32 = 2

// ParseAmount converts a decimal string to a positive amount rounded to the
// minor unit.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Returns ErrInvalidAmount for malformed, negative or zero values.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,34")  -> 12.34
//	ParseAmount("12.345") -> 12.34 (half to even)
//	ParseAmount("12.355") -> 12.36
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = RoundMinor(d)
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// RoundMinor rounds d half-to-even to the minor unit.
func RoundMinor(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(MinorUnitPlaces)
}

// ValidateAmount rejects non-positive amounts and amounts finer than the
// minor unit.
func ValidateAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrInvalidAmount
	}
	if !d.Equal(RoundMinor(d)) {
		return ErrInvalidAmount
	}
	return nil
}

// FormatAmount renders d with exactly two decimals and a currency symbol,
// e.g. "$12.30" or "-$3.33".
func FormatAmount(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixedBank(MinorUnitPlaces)
	}
	return "$" + d.StringFixedBank(MinorUnitPlaces)
}

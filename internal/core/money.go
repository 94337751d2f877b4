// Package core provides money parsing and handling utilities.
//
// Amounts live as int64 cents everywhere inside the process. Major units
// (reais) only exist at the edges, converted with ToCents and FromCents.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// ToCents converts a major-unit amount to cents, rounding half away from zero
// on the third decimal place.
//
// Examples:
//
//	ToCents(12.34)  -> 1234
//	ToCents(12.345) -> 1235
//	ToCents(-0.015) -> -2
func ToCents(d decimal.Decimal) (int64, error) {
	c := d.Shift(2).Round(0)
	if c.GreaterThan(maxCents) || c.LessThan(minCents) {
		return 0, ErrAmountOverflow
	}
	return c.IntPart(), nil
}

// FromCents converts cents back to an exact major-unit amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// FormatMajor renders cents as a plain two-decimal major-unit string ("12.34").
func FormatMajor(cents int64) string {
	return FromCents(cents).StringFixed(2)
}

// ParseDecimalToCents converts a user-typed decimal string to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive cents.
// Returns an error for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents, err := ToCents(d)
	if err != nil {
		return 0, err
	}
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// Major returns the amount in major units for serialization.
func (m Money) Major() decimal.Decimal {
	return FromCents(m.Cents)
}

func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

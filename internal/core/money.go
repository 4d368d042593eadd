// Package core provides the ledger's domain types, money parsing and the
// error kinds returned by the store.
//
// Monetary values are fixed-point decimals so repeated aggregation never
// drifts the way binary floating point does.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money wraps a fixed-point decimal amount.
type Money struct {
	Amount decimal.Decimal
}

// NewMoney builds Money from a decimal.
func NewMoney(d decimal.Decimal) Money {
	return Money{Amount: d}
}

// Amount bounds. Exponents are checked before any arithmetic so text like
// "1e30000000" never gets expanded.
const (
	maxFractionDigits = 18
	maxIntegerDigits  = 18
)

var maxMagnitude = decimal.New(1, maxIntegerDigits)

// ParseAmount converts caller-supplied text to a decimal.
//
// Surrounding spaces are ignored and a single decimal comma is accepted as a
// dot (12,34 == 12.34). A comma followed by exactly three digits ("1,234")
// is rejected since it reads as a thousands separator. Any value that does
// not denote a finite number (empty, "abc", "NaN", "Inf", "1.2.3") fails with
// a *ValidationError wrapping ErrInvalidAmount, as does anything with more
// than 18 integer or 18 fractional digits. Sign is not restricted.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("-5")     -> -5, nil
//	ParseAmount("ten")    -> 0, error
//	ParseAmount("1,234")  -> 0, error
//	ParseAmount("1e40")   -> 0, error
func ParseAmount(field, s string) (Money, error) {
	raw := s
	invalid := &ValidationError{Field: field, Value: raw, Err: ErrInvalidAmount}

	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, invalid
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		if i := strings.IndexByte(s, ','); len(s)-i-1 == 3 && isDigits(s[i+1:]) {
			return Money{}, invalid
		}
		s = strings.Replace(s, ",", ".", 1)
	}
	// decimal.NewFromString rejects NaN and infinities.
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, invalid
	}
	if exp := d.Exponent(); exp < -maxFractionDigits || exp > maxIntegerDigits {
		return Money{}, invalid
	}
	if d.Abs().GreaterThanOrEqual(maxMagnitude) {
		return Money{}, invalid
	}
	return Money{Amount: d}, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MustParseAmount is ParseAmount for literals known to be valid.
func MustParseAmount(s string) Money {
	m, err := ParseAmount("amount", s)
	if err != nil {
		panic(err)
	}
	return m
}

// String renders the canonical form persisted by the store.
func (m Money) String() string {
	return m.Amount.String()
}

// Display renders the amount with two decimals for console output.
func (m Money) Display() string {
	return m.Amount.StringFixed(2)
}

func (m Money) Equal(o Money) bool {
	return m.Amount.Equal(o.Amount)
}

func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// Abs returns the magnitude, used when printing a shortfall.
func (m Money) Abs() Money {
	return Money{Amount: m.Amount.Abs()}
}

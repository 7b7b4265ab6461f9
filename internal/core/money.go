// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between cents and decimal representations.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// maxCents keeps amounts well inside int64 so that sums cannot overflow.
const maxCents = int64(1) << 53

var hundred = decimal.NewFromInt(100)

// ParseAmount converts a decimal string to Money with half-up rounding to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. A comma
// is only a decimal separator when one or two digits follow it, so a
// thousands-grouped "1,000" is rejected rather than read as 1.00. The result
// must be strictly positive after rounding.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234 cents
//	ParseAmount("12,5")   -> 1250 cents
//	ParseAmount("1.005")  -> 101 cents (rounds up)
//	ParseAmount("1,000")  -> ErrInvalidAmount
//	ParseAmount("-5")     -> ErrInvalidAmount
//	ParseAmount("0.001")  -> ErrInvalidAmount (rounds to zero)
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	if i := strings.IndexByte(s, ','); i >= 0 {
		frac := s[i+1:]
		if strings.Contains(frac, ",") || strings.Contains(s, ".") || len(frac) < 1 || len(frac) > 2 {
			return Money{}, ErrInvalidAmount
		}
		s = s[:i] + "." + frac
	}
	// decimal.NewFromString also takes exponents, which no input form produces
	if strings.ContainsAny(s, "eE") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Mul(hundred).Round(0)
	if !cents.IsPositive() || cents.GreaterThanOrEqual(decimal.NewFromInt(maxCents)) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

// MustAmount is ParseAmount for literals known to be valid.
func MustAmount(s string) Money {
	m, err := ParseAmount(s)
	if err != nil {
		panic(fmt.Sprintf("core: invalid amount literal %q", s))
	}
	return m
}

func (m Money) Validate() error {
	if m.Cents <= 0 || m.Cents >= maxCents {
		return ErrInvalidAmount
	}
	return nil
}

// Decimal returns the exact decimal value of m.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float returns the value as a float64 for chart rendering.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

func (m Money) IsZero() bool {
	return m.Cents == 0
}

// String renders the amount with exactly two decimal digits, e.g. "42.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// FormatBalance renders a balance the way the budget views label it.
func FormatBalance(m Money) string {
	if m.Cents < 0 {
		return "Balance: -$" + Money{Cents: -m.Cents}.String()
	}
	return "Balance: $" + m.String()
}

// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// RoundCents rounds a Money value to two decimal places (half away from zero).
// Every subtotal the billing pipeline produces passes through this, so
// aggregate identities hold exactly at cent precision.
func RoundCents(m Money) Money {
	return m.Round(2)
}

// Percent returns amount * pct / 100, rounded to cents.
func Percent(amount Money, pct Money) Money {
	return RoundCents(amount.Mul(pct).Div(decimal.NewFromInt(100)))
}

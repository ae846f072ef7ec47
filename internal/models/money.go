package models

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("amount must be a non-negative number")
	ErrAmountPrecision = errors.New("amount must not have more than two decimal places")
	ErrAmountTooLarge  = errors.New("amount must not exceed 1000000000000")
)

// maxAmountInput bounds the length of a submitted amount before parsing.
const maxAmountInput = 32

var maxAmount = decimal.New(1, 12)

// ParseAmount parses a monetary form value. An empty value is the zero
// amount, matching the form's default.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	// Plain decimal notation only; exponents would let a short value expand
	// into millions of digits.
	if len(s) > maxAmountInput || strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ValidateAmount checks the bounds and the 0.01 granularity.
func ValidateAmount(d decimal.Decimal) error {
	if d.IsZero() {
		return nil
	}
	if d.IsNegative() {
		return ErrInvalidAmount
	}
	// The exponent check keeps the comparison from expanding huge values.
	if d.Exponent() > 12 || d.GreaterThan(maxAmount) {
		return ErrAmountTooLarge
	}
	if !d.Equal(d.Round(2)) {
		return ErrAmountPrecision
	}
	return nil
}

// Package core provides money parsing and formatting utilities.
//
// Amounts are kept as decimals end to end, including when rendered.
package core

import (
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// ParseAmount converts a user supplied amount into a positive decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signs,
// thousands separators, exponents and zero are rejected.
//
// Examples:
//
//	ParseAmount("50")    -> 50, nil
//	ParseAmount("12,5")  -> 12.5, nil
//	ParseAmount("abc")   -> ErrInvalidAmount
//	ParseAmount("-3")    -> ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if s == "." {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatMoney renders an amount as "$1,234.50". Negative values keep the
// sign after the currency symbol ("$-50.00").
func FormatMoney(d decimal.Decimal) string {
	r := d.Round(2)
	fixed := r.Abs().StringFixed(2)
	sign := ""
	if r.IsNegative() {
		sign = "-"
	}
	return "$" + sign + humanize.BigComma(r.Abs().BigInt()) + fixed[strings.IndexByte(fixed, '.'):]
}

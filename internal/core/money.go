// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer paise (Money.Cents) so stored values never drift;
// arithmetic that needs fractions goes through shopspring/decimal and is
// rounded half-up to two places before it becomes Money again.
package core

import (
	"errors"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Money is an amount in the smallest currency unit (paise).
type Money struct {
	Cents int64
}

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidNumber  = errors.New("invalid number")
	ErrAmountTooLarge = errors.New("amount too large")
)

// MaxAmount is the largest absolute amount, in rupees, that becomes Money.
// At ₹1e12 (1e14 paise) it leaves int64 headroom for summing many records.
var MaxAmount = decimal.NewFromInt(1_000_000_000_000)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive cents.
// Returns an error for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
//	ParseDecimalToCents("12.344") -> 1234, nil (rounds down)
func ParseDecimalToCents(s string) (int64, error) {
	d, err := ParseNumber(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	m, err := MoneyFromDecimal(d)
	if err != nil || m.Cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return m.Cents, nil
}

// ParseNumber parses a non-negative decimal string. Thousands separators are
// not supported; a single comma is treated as the decimal separator.
func ParseNumber(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidNumber
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidNumber
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return decimal.Zero, ErrInvalidNumber
	}
	if parts[0] == "" && (len(parts) == 1 || parts[1] == "") {
		return decimal.Zero, ErrInvalidNumber
	}
	for _, part := range parts {
		for _, r := range part {
			if !unicode.IsDigit(r) || r > unicode.MaxASCII {
				return decimal.Zero, ErrInvalidNumber
			}
		}
	}
	if parts[0] == "" {
		s = "0" + s
	}
	s = strings.TrimSuffix(s, ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidNumber
	}
	return d, nil
}

// Round2 rounds half-up (away from zero) to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// MoneyFromDecimal rounds d to two places and converts it to Money. Amounts
// beyond MaxAmount return ErrAmountTooLarge instead of wrapping.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	r := Round2(d)
	if r.Abs().GreaterThan(MaxAmount) {
		return Money{}, ErrAmountTooLarge
	}
	return Money{Cents: r.Shift(2).IntPart()}, nil
}

// Decimal returns the amount in rupees.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) IsZero() bool { return m.Cents == 0 }

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// String formats the amount with two decimals, e.g. "1800.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON writes the amount as a JSON number in rupees.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().StringFixed(2)), nil
}

// UnmarshalJSON accepts a JSON number (or numeric string) in rupees.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		m.Cents = 0
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ErrInvalidAmount
	}
	v, err := MoneyFromDecimal(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// FormatRupees formats an amount as "₹1800.00". Digit grouping is left to
// the presentation layer.
func FormatRupees(m Money) string {
	if m.Cents < 0 {
		return "-₹" + Money{Cents: -m.Cents}.String()
	}
	return "₹" + m.String()
}

// Package core provides money parsing and handling utilities.
//
// Amounts are kept as decimals in a single base unit (USD-equivalent). The
// cash-flow direction of a transaction never comes from the sign of its
// amount, so transaction amounts are always non-negative.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// Money is a decimal amount. It encodes to JSON as a bare number.
type Money struct {
	decimal.Decimal
}

// NewMoney converts a float, e.g. from a chart or a test fixture.
func NewMoney(f float64) Money {
	return Money{decimal.NewFromFloat(f)}
}

// MoneyFromInt builds a whole-unit amount.
func MoneyFromInt(i int64) Money {
	return Money{decimal.NewFromInt(i)}
}

// ParseMoney parses a non-negative decimal amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Returns an error for empty input, malformed numbers and negative values.
//
// Examples:
//
//	ParseMoney("12.34") -> 12.34, nil
//	ParseMoney("0")     -> 0, nil
//	ParseMoney("-1")    -> error
func ParseMoney(s string) (Money, error) {
	m, err := ParseSignedMoney(s)
	if err != nil {
		return Money{}, err
	}
	if m.IsNegative() {
		return Money{}, ErrInvalidAmount
	}
	return m, nil
}

// ParseSignedMoney is ParseMoney without the sign check; budgets use it.
func ParseSignedMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return Money{d}, nil
}

func (m Money) Add(o Money) Money {
	return Money{m.Decimal.Add(o.Decimal)}
}

func (m Money) Sub(o Money) Money {
	return Money{m.Decimal.Sub(o.Decimal)}
}

// Mul scales the amount, e.g. for currency conversion.
func (m Money) Mul(factor int64) Money {
	return Money{m.Decimal.Mul(decimal.NewFromInt(factor))}
}

// Float64 returns the value for ratio and percentage math.
func (m Money) Float64() float64 {
	return m.InexactFloat64()
}

// Cmp compares two amounts like decimal.Cmp.
func (m Money) Cmp(o Money) int {
	return m.Decimal.Cmp(o.Decimal)
}

// Equal reports numeric equality regardless of scale.
func (m Money) Equal(o Money) bool {
	return m.Decimal.Equal(o.Decimal)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	return m.Decimal.UnmarshalJSON(b)
}

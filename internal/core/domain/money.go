package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MinorUnitExponent is the number of decimal places held in minor units.
const MinorUnitExponent = 2

// Money is an amount in currency minor units (cents). All balances, prices and
// differences use it so arithmetic never drifts.
type Money int64

// MoneyFromDecimal converts a decimal major-unit amount to minor units,
// rounding half away from zero.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money(d.Shift(MinorUnitExponent).Round(0).IntPart())
}

// ParseMoney parses a major-unit string such as "1346.40".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid money amount %q: %w", s, err)
	}
	return MoneyFromDecimal(d), nil
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -MinorUnitExponent)
}

// MulRate multiplies the amount by a rate and rounds back to minor units.
func (m Money) MulRate(rate decimal.Decimal) Money {
	return MoneyFromDecimal(m.Decimal().Mul(rate))
}

// Abs returns the absolute amount.
func (m Money) Abs() Money {
	if m < 0 {
		return -m
	}
	return m
}

// Sign returns -1, 0 or 1.
func (m Money) Sign() int {
	switch {
	case m < 0:
		return -1
	case m > 0:
		return 1
	}
	return 0
}

// String formats the amount in major units with two decimals.
func (m Money) String() string {
	return m.Decimal().StringFixed(MinorUnitExponent)
}

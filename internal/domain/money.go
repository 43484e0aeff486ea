package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(math.MaxInt64)
)

// ParsePrice converts a decimal amount such as "19.99" into cents.
func ParsePrice(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: price %q", ErrInvalidInput, s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: negative price %q", ErrInvalidInput, s)
	}
	if d.Exponent() < -2 && !d.Equal(d.Round(2)) {
		return 0, fmt.Errorf("%w: price %q has more than two decimals", ErrInvalidInput, s)
	}
	cents := d.Mul(hundred)
	if cents.GreaterThan(maxCents) {
		return 0, fmt.Errorf("%w: price %q is too large", ErrInvalidInput, s)
	}
	return cents.IntPart(), nil
}

// PriceDecimal renders cents as a decimal amount.
func PriceDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

package checkout

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fatflowers/caterpay/pkg/types"
)

// MaxMinorUnits is the largest charge Stripe Checkout accepts, in cents.
const MaxMinorUnits = 99999999

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(MaxMinorUnits)
)

// ToMinorUnits converts a USD amount to cents, rounding half away from zero.
// Amounts that round to zero or below, or above MaxMinorUnits, are rejected.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	cents := amount.Mul(hundred).Round(0)
	if !cents.IsPositive() {
		return 0, fmt.Errorf("%w: %s", types.ErrInvalidAmount, amount.String())
	}
	if cents.GreaterThan(maxCents) {
		return 0, fmt.Errorf("%w: %s exceeds %s", types.ErrInvalidAmount, amount.String(), maxCents.Shift(-2).StringFixed(2))
	}
	return cents.IntPart(), nil
}

// normalizeAmount returns the amount as charged, in whole cents.
func normalizeAmount(amount *decimal.Decimal) (decimal.Decimal, int64, error) {
	if amount == nil {
		return decimal.Zero, 0, fmt.Errorf("%w: amount is required", types.ErrInvalidAmount)
	}
	cents, err := ToMinorUnits(*amount)
	if err != nil {
		return decimal.Zero, 0, err
	}
	return decimal.New(cents, -2), cents, nil
}

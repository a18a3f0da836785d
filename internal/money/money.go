// Package money provides integer-cent arithmetic for monetary values.
// All amounts are int64 minor units (cents for USD). No float64 ever
// enters a monetary computation; percentage math goes through
// shopspring/decimal with half-up rounding.
package money

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ApplyPercent returns percent of base in cents, rounded half-up to the
// nearest cent. percent is expressed as a percentage (8 means 8%, not 0.08).
//
// Example: ApplyPercent(10000, decimal 8) == 800.
func ApplyPercent(baseCents int64, percent decimal.Decimal) int64 {
	if baseCents == 0 || percent.IsZero() {
		return 0
	}

	amount := decimal.NewFromInt(baseCents).Mul(percent).Div(hundred)
	return roundHalfUp(amount)
}

// MulDecimal multiplies a cent amount by an arbitrary decimal factor and
// rounds half-up. Used for labor pricing (rate * fractional hours).
func MulDecimal(cents int64, factor decimal.Decimal) int64 {
	if cents == 0 || factor.IsZero() {
		return 0
	}

	return roundHalfUp(decimal.NewFromInt(cents).Mul(factor))
}

// Distribute splits totalCents into n parts whose sum is exactly
// totalCents. The remainder after integer division is assigned one cent at
// a time to the first parts, so no cent is ever dropped or duplicated.
// Returns nil if n <= 0.
func Distribute(totalCents int64, n int) []int64 {
	if n <= 0 {
		return nil
	}

	negative := totalCents < 0
	if negative {
		totalCents = -totalCents
	}

	base := totalCents / int64(n)
	remainder := totalCents % int64(n)

	parts := make([]int64, n)
	for i := range parts {
		parts[i] = base
		if int64(i) < remainder {
			parts[i]++
		}
		if negative {
			parts[i] = -parts[i]
		}
	}

	return parts
}

// roundHalfUp rounds a decimal amount of cents to the nearest whole cent,
// with ties going away from zero (banker-safe for customer-facing totals:
// 0.5 cents always rounds up in magnitude).
func roundHalfUp(d decimal.Decimal) int64 {
	// decimal.Round implements round-half-away-from-zero.
	return d.Round(0).IntPart()
}

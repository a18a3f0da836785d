// Package pricing computes line item totals and order-level rollups.
// Everything here is pure: no I/O, no side effects, integer-cent results.
// The order service calls RecomputeOrderTotals inside the same database
// transaction as the mutation that triggered it.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/harborworks/drydock/internal/domain"
	"github.com/harborworks/drydock/internal/money"
)

// LineItem carries the pricing inputs for a single billable unit.
// Taxable is an explicit input: the engine never re-derives it from the
// originating service record.
type LineItem struct {
	PricingMode     domain.PricingMode
	Category        domain.LineItemCategory
	Quantity        int32
	UnitCostCents   int64
	LaborHours      decimal.Decimal
	FixedPriceCents int64
	DiscountCents   int64
	DiscountPercent decimal.Decimal
	TaxCents        int64
	TaxPercent      decimal.Decimal
	Taxable         bool
	Hidden          bool
	Status          domain.LineItemStatus
}

// LineTotal is the computed breakdown for one line item.
type LineTotal struct {
	BaseCents     int64
	DiscountCents int64
	TaxCents      int64
	TotalCents    int64
}

// ComputeLineTotal computes a line item's total from its pricing mode plus
// discount and tax adjustments.
//
//   - Base: fixed_price_cents (fixed_price), rate * labor_hours
//     (labor_rate), or unit_cost_cents * quantity (parts_cost).
//   - Discount: discount_cents or discount_percent of base, floored at
//     zero. Cents and percent are mutually exclusive.
//   - Tax: computed on the post-discount base, suppressed when the item is
//     not taxable. Cents and percent are mutually exclusive.
//
// Hidden and declined items still get a computed total for display; the
// rollup is what excludes them from order sums.
func ComputeLineTotal(item LineItem) (LineTotal, error) {
	const op = "pricing.compute"

	if item.Quantity < 0 {
		return LineTotal{}, domain.Errorf(domain.EINVALID, op, "negative quantity: %d", item.Quantity)
	}
	if item.UnitCostCents < 0 || item.FixedPriceCents < 0 {
		return LineTotal{}, domain.Invalid(op, "negative base amount")
	}
	if item.LaborHours.IsNegative() {
		return LineTotal{}, domain.Invalid(op, "negative labor hours")
	}
	if item.DiscountCents < 0 || item.TaxCents < 0 {
		return LineTotal{}, domain.Invalid(op, "negative adjustment amount")
	}
	if item.DiscountPercent.IsNegative() || item.TaxPercent.IsNegative() {
		return LineTotal{}, domain.Invalid(op, "negative adjustment percent")
	}
	if item.DiscountCents != 0 && !item.DiscountPercent.IsZero() {
		return LineTotal{}, domain.Invalid(op, "discount cents and percent are mutually exclusive")
	}
	if item.TaxCents != 0 && !item.TaxPercent.IsZero() {
		return LineTotal{}, domain.Invalid(op, "tax cents and percent are mutually exclusive")
	}

	var base int64
	switch item.PricingMode {
	case domain.PricingFixed:
		base = item.FixedPriceCents
	case domain.PricingLaborRate:
		base = money.MulDecimal(item.UnitCostCents, item.LaborHours)
	case domain.PricingPartsCost:
		base = item.UnitCostCents * int64(item.Quantity)
	default:
		return LineTotal{}, domain.Errorf(domain.EINVALID, op, "unknown pricing mode: %s", item.PricingMode)
	}

	discount := item.DiscountCents
	if !item.DiscountPercent.IsZero() {
		discount = money.ApplyPercent(base, item.DiscountPercent)
	}

	// A line item's post-discount value never goes negative.
	postDiscount := base - discount
	if postDiscount < 0 {
		discount = base
		postDiscount = 0
	}

	var tax int64
	if item.Taxable {
		tax = item.TaxCents
		if !item.TaxPercent.IsZero() {
			tax = money.ApplyPercent(postDiscount, item.TaxPercent)
		}
	}

	return LineTotal{
		BaseCents:     base,
		DiscountCents: discount,
		TaxCents:      tax,
		TotalCents:    postDiscount + tax,
	}, nil
}

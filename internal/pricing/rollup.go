package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/harborworks/drydock/internal/domain"
	"github.com/harborworks/drydock/internal/money"
)

// OrderTotals is the authoritative rollup of an order's line items.
// The calculated_* columns on the orders table are a materialized cache of
// these values, refreshed transactionally on every line-item mutation.
type OrderTotals struct {
	// Per-category post-line-discount, pre-tax breakdown for reporting.
	LaborCents    int64
	PartsCents    int64
	SubletCents   int64
	SuppliesCents int64

	// SubtotalCents is the sum of all included line items' post-discount,
	// pre-order-discount amounts.
	SubtotalCents int64

	// DiscountCents is the order-level discount applied to the subtotal.
	DiscountCents int64

	// TaxCents is the order-level tax on the discounted subtotal.
	TaxCents int64

	// LineTaxCents is the sum of taxes already embedded in line totals.
	// Line tax and order tax are additive, not compounding.
	LineTaxCents int64

	TotalCents int64
}

// Included reports whether a line item contributes to order totals.
// Hidden and declined items retain their own computed total for display
// but contribute zero to any rollup.
func Included(item LineItem) bool {
	return !item.Hidden && item.Status != domain.LineItemDeclined
}

// RecomputeOrderTotals sums an order's line items into order-level totals,
// applying the order-level discount and tax on top of line-level figures.
//
// The function is idempotent: identical inputs produce identical outputs.
// Callers must invoke it as a single full recomputation pass after every
// line-item mutation; totals are never incrementally patched.
func RecomputeOrderTotals(discountPercent, taxPercent decimal.Decimal, items []LineItem) (OrderTotals, error) {
	const op = "pricing.rollup"

	if discountPercent.IsNegative() || taxPercent.IsNegative() {
		return OrderTotals{}, domain.Invalid(op, "negative order-level percent")
	}

	var totals OrderTotals
	for _, item := range items {
		lt, err := ComputeLineTotal(item)
		if err != nil {
			return OrderTotals{}, err
		}
		if !Included(item) {
			continue
		}

		postDiscount := lt.BaseCents - lt.DiscountCents
		switch item.Category {
		case domain.CategoryLabor:
			totals.LaborCents += postDiscount
		case domain.CategoryParts:
			totals.PartsCents += postDiscount
		case domain.CategorySublet:
			totals.SubletCents += postDiscount
		case domain.CategoryShopSupply:
			totals.SuppliesCents += postDiscount
		default:
			return OrderTotals{}, domain.Errorf(domain.EINVALID, op, "unknown line item category: %s", item.Category)
		}

		totals.SubtotalCents += postDiscount
		totals.LineTaxCents += lt.TaxCents
	}

	// Order-level discount never exceeds the subtotal.
	totals.DiscountCents = money.ApplyPercent(totals.SubtotalCents, discountPercent)
	if totals.DiscountCents > totals.SubtotalCents {
		totals.DiscountCents = totals.SubtotalCents
	}

	discounted := totals.SubtotalCents - totals.DiscountCents
	totals.TaxCents = money.ApplyPercent(discounted, taxPercent)
	totals.TotalCents = discounted + totals.TaxCents + totals.LineTaxCents

	return totals, nil
}

package domain

import (
	"github.com/shopspring/decimal"
)

// PricingMode determines how a line item's base amount is derived.
type PricingMode string

const (
	// PricingFixed uses fixed_price_cents as the base.
	PricingFixed PricingMode = "fixed_price"

	// PricingLaborRate uses unit_cost_cents (hourly rate) * labor_hours.
	PricingLaborRate PricingMode = "labor_rate"

	// PricingPartsCost uses unit_cost_cents * quantity.
	PricingPartsCost PricingMode = "parts_cost"
)

// LineItemCategory tags a line item for the order-level reporting breakdown.
type LineItemCategory string

const (
	CategoryLabor      LineItemCategory = "labor"
	CategoryParts      LineItemCategory = "parts"
	CategorySublet     LineItemCategory = "sublet"
	CategoryShopSupply LineItemCategory = "shop_supply"
)

// LineItemStatus is the approval state of a line item. Declined items stay
// on the order for display but contribute zero to the rollup.
type LineItemStatus string

const (
	LineItemPending  LineItemStatus = "pending"
	LineItemApproved LineItemStatus = "approved"
	LineItemDeclined LineItemStatus = "declined"
)

// LineItemPatch lists only the fields a caller intends to change on a line
// item. Nil pointers are left untouched; the single validated update path
// in the order service applies the patch, there is no per-field fallback
// logic anywhere else.
type LineItemPatch struct {
	Title           *string           `validate:"omitempty,min=1,max=200"`
	Category        *LineItemCategory `validate:"omitempty,oneof=labor parts sublet shop_supply"`
	PricingMode     *PricingMode      `validate:"omitempty,oneof=fixed_price labor_rate parts_cost"`
	Quantity        *int32            `validate:"omitempty,gte=0"`
	UnitCostCents   *int64            `validate:"omitempty,gte=0"`
	LaborHours      *decimal.Decimal
	FixedPriceCents *int64 `validate:"omitempty,gte=0"`
	DiscountCents   *int64 `validate:"omitempty,gte=0"`
	DiscountPercent *decimal.Decimal
	TaxCents        *int64 `validate:"omitempty,gte=0"`
	TaxPercent      *decimal.Decimal
	Taxable         *bool
	Hidden          *bool
	Status          *LineItemStatus `validate:"omitempty,oneof=pending approved declined"`
	Ordinal         *int32          `validate:"omitempty,gte=0"`
}

// Line item domain errors.
var (
	ErrLineItemNotFound = &Error{Code: ENOTFOUND, Message: "Line item not found"}
	ErrInvalidLineItem  = &Error{Code: EINVALID, Message: "Invalid line item"}
)

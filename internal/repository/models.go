package repository

import (
	"github.com/jackc/pgx/v5/pgtype"
)

// Order is a work order row. The calculated_* columns are a materialized
// cache of the pricing rollup; they are refreshed inside the same
// transaction as any line-item mutation and are never authoritative on
// their own.
type Order struct {
	ID                      pgtype.UUID
	TenantID                pgtype.UUID
	CustomerID              pgtype.UUID
	VehicleID               pgtype.UUID
	OrderNumber             string
	Status                  string
	Deleted                 bool
	DiscountPercent         pgtype.Numeric
	TaxPercent              pgtype.Numeric
	CalculatedLaborCents    int64
	CalculatedPartsCents    int64
	CalculatedSubletCents   int64
	CalculatedSuppliesCents int64
	CalculatedSubtotalCents int64
	CalculatedDiscountCents int64
	CalculatedTaxCents      int64
	CalculatedTotalCents    int64
	CreatedAt               pgtype.Timestamptz
	UpdatedAt               pgtype.Timestamptz
}

// LineItem is a billable unit attached to an order. Ordinal is the display
// order, not insertion order. Discount and tax each carry either a cents
// value or a percent, never both.
type LineItem struct {
	ID              pgtype.UUID
	TenantID        pgtype.UUID
	OrderID         pgtype.UUID
	Ordinal         int32
	Title           string
	Category        string
	PricingMode     string
	Quantity        int32
	UnitCostCents   int64
	LaborHours      pgtype.Numeric
	FixedPriceCents int64
	DiscountCents   int64
	DiscountPercent pgtype.Numeric
	TaxCents        int64
	TaxPercent      pgtype.Numeric
	Taxable         bool
	Hidden          bool
	Status          string
	CreatedAt       pgtype.Timestamptz
	UpdatedAt       pgtype.Timestamptz
}

// Transaction is an append-only ledger entry against an order. Amounts are
// unsigned; Kind carries the sign. Corrections are new rows, never
// mutations of settled amounts.
type Transaction struct {
	ID                    pgtype.UUID
	TenantID              pgtype.UUID
	OrderID               pgtype.UUID
	CustomerID            pgtype.UUID
	Kind                  string
	AmountCents           int64
	Status                string
	Gateway               string
	PaymentReference      pgtype.Text
	OverrideAuthorization bool
	FailureReason         pgtype.Text
	CreatedAt             pgtype.Timestamptz
	ResolvedAt            pgtype.Timestamptz
}

// Authorization is a pre-approved spending ceiling a customer granted for
// an order.
type Authorization struct {
	ID                  pgtype.UUID
	TenantID            pgtype.UUID
	OrderID             pgtype.UUID
	AuthorizedCostCents int64
	Active              bool
	CreatedAt           pgtype.Timestamptz
}

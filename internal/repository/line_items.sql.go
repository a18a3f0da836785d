package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const lineItemColumns = `id, tenant_id, order_id, ordinal, title, category, pricing_mode,
	quantity, unit_cost_cents, labor_hours, fixed_price_cents,
	discount_cents, discount_percent, tax_cents, tax_percent,
	taxable, hidden, status, created_at, updated_at`

func scanLineItem(row interface{ Scan(dest ...any) error }) (LineItem, error) {
	var i LineItem
	err := row.Scan(
		&i.ID, &i.TenantID, &i.OrderID, &i.Ordinal, &i.Title, &i.Category, &i.PricingMode,
		&i.Quantity, &i.UnitCostCents, &i.LaborHours, &i.FixedPriceCents,
		&i.DiscountCents, &i.DiscountPercent, &i.TaxCents, &i.TaxPercent,
		&i.Taxable, &i.Hidden, &i.Status, &i.CreatedAt, &i.UpdatedAt,
	)
	return i, err
}

const createLineItem = `-- name: CreateLineItem :one
INSERT INTO line_items (
	tenant_id, order_id, ordinal, title, category, pricing_mode,
	quantity, unit_cost_cents, labor_hours, fixed_price_cents,
	discount_cents, discount_percent, tax_cents, tax_percent,
	taxable, hidden, status
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
)
RETURNING ` + lineItemColumns

type CreateLineItemParams struct {
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
}

func (q *Queries) CreateLineItem(ctx context.Context, arg CreateLineItemParams) (LineItem, error) {
	row := q.db.QueryRow(ctx, createLineItem,
		arg.TenantID, arg.OrderID, arg.Ordinal, arg.Title, arg.Category, arg.PricingMode,
		arg.Quantity, arg.UnitCostCents, arg.LaborHours, arg.FixedPriceCents,
		arg.DiscountCents, arg.DiscountPercent, arg.TaxCents, arg.TaxPercent,
		arg.Taxable, arg.Hidden, arg.Status,
	)
	return scanLineItem(row)
}

const getLineItem = `-- name: GetLineItem :one
SELECT ` + lineItemColumns + `
FROM line_items
WHERE tenant_id = $1 AND id = $2`

type GetLineItemParams struct {
	TenantID pgtype.UUID
	ID       pgtype.UUID
}

func (q *Queries) GetLineItem(ctx context.Context, arg GetLineItemParams) (LineItem, error) {
	row := q.db.QueryRow(ctx, getLineItem, arg.TenantID, arg.ID)
	return scanLineItem(row)
}

const listLineItems = `-- name: ListLineItems :many
SELECT ` + lineItemColumns + `
FROM line_items
WHERE tenant_id = $1 AND order_id = $2
ORDER BY ordinal, created_at`

type ListLineItemsParams struct {
	TenantID pgtype.UUID
	OrderID  pgtype.UUID
}

func (q *Queries) ListLineItems(ctx context.Context, arg ListLineItemsParams) ([]LineItem, error) {
	rows, err := q.db.Query(ctx, listLineItems, arg.TenantID, arg.OrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []LineItem
	for rows.Next() {
		i, err := scanLineItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateLineItem = `-- name: UpdateLineItem :one
UPDATE line_items
SET ordinal = $3,
	title = $4,
	category = $5,
	pricing_mode = $6,
	quantity = $7,
	unit_cost_cents = $8,
	labor_hours = $9,
	fixed_price_cents = $10,
	discount_cents = $11,
	discount_percent = $12,
	tax_cents = $13,
	tax_percent = $14,
	taxable = $15,
	hidden = $16,
	status = $17,
	updated_at = now()
WHERE tenant_id = $1 AND id = $2
RETURNING ` + lineItemColumns

type UpdateLineItemParams struct {
	TenantID        pgtype.UUID
	ID              pgtype.UUID
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
}

func (q *Queries) UpdateLineItem(ctx context.Context, arg UpdateLineItemParams) (LineItem, error) {
	row := q.db.QueryRow(ctx, updateLineItem,
		arg.TenantID, arg.ID, arg.Ordinal, arg.Title, arg.Category, arg.PricingMode,
		arg.Quantity, arg.UnitCostCents, arg.LaborHours, arg.FixedPriceCents,
		arg.DiscountCents, arg.DiscountPercent, arg.TaxCents, arg.TaxPercent,
		arg.Taxable, arg.Hidden, arg.Status,
	)
	return scanLineItem(row)
}

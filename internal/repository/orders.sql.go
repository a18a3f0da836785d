package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, tenant_id, customer_id, vehicle_id, order_number, status, deleted,
	discount_percent, tax_percent,
	calculated_labor_cents, calculated_parts_cents, calculated_sublet_cents, calculated_supplies_cents,
	calculated_subtotal_cents, calculated_discount_cents, calculated_tax_cents, calculated_total_cents,
	created_at, updated_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID, &i.TenantID, &i.CustomerID, &i.VehicleID, &i.OrderNumber, &i.Status, &i.Deleted,
		&i.DiscountPercent, &i.TaxPercent,
		&i.CalculatedLaborCents, &i.CalculatedPartsCents, &i.CalculatedSubletCents, &i.CalculatedSuppliesCents,
		&i.CalculatedSubtotalCents, &i.CalculatedDiscountCents, &i.CalculatedTaxCents, &i.CalculatedTotalCents,
		&i.CreatedAt, &i.UpdatedAt,
	)
	return i, err
}

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (
	tenant_id, customer_id, vehicle_id, order_number, status, discount_percent, tax_percent
) VALUES (
	$1, $2, $3, $4, $5, $6, $7
)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	TenantID        pgtype.UUID
	CustomerID      pgtype.UUID
	VehicleID       pgtype.UUID
	OrderNumber     string
	Status          string
	DiscountPercent pgtype.Numeric
	TaxPercent      pgtype.Numeric
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.TenantID, arg.CustomerID, arg.VehicleID, arg.OrderNumber, arg.Status,
		arg.DiscountPercent, arg.TaxPercent,
	)
	return scanOrder(row)
}

const getOrder = `-- name: GetOrder :one
SELECT ` + orderColumns + `
FROM orders
WHERE tenant_id = $1 AND id = $2`

type GetOrderParams struct {
	TenantID pgtype.UUID
	ID       pgtype.UUID
}

func (q *Queries) GetOrder(ctx context.Context, arg GetOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, getOrder, arg.TenantID, arg.ID)
	return scanOrder(row)
}

const getOrderForUpdate = `-- name: GetOrderForUpdate :one
SELECT ` + orderColumns + `
FROM orders
WHERE tenant_id = $1 AND id = $2
FOR UPDATE`

// GetOrderForUpdate acquires the order's row lock, serializing rollup and
// ledger operations per order. Must be called inside a transaction.
func (q *Queries) GetOrderForUpdate(ctx context.Context, arg GetOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, getOrderForUpdate, arg.TenantID, arg.ID)
	return scanOrder(row)
}

const updateOrderPercents = `-- name: UpdateOrderPercents :one
UPDATE orders
SET discount_percent = $3, tax_percent = $4, updated_at = now()
WHERE tenant_id = $1 AND id = $2
RETURNING ` + orderColumns

type UpdateOrderPercentsParams struct {
	TenantID        pgtype.UUID
	ID              pgtype.UUID
	DiscountPercent pgtype.Numeric
	TaxPercent      pgtype.Numeric
}

func (q *Queries) UpdateOrderPercents(ctx context.Context, arg UpdateOrderPercentsParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderPercents, arg.TenantID, arg.ID, arg.DiscountPercent, arg.TaxPercent)
	return scanOrder(row)
}

const updateOrderTotals = `-- name: UpdateOrderTotals :exec
UPDATE orders
SET calculated_labor_cents = $3,
	calculated_parts_cents = $4,
	calculated_sublet_cents = $5,
	calculated_supplies_cents = $6,
	calculated_subtotal_cents = $7,
	calculated_discount_cents = $8,
	calculated_tax_cents = $9,
	calculated_total_cents = $10,
	updated_at = now()
WHERE tenant_id = $1 AND id = $2`

type UpdateOrderTotalsParams struct {
	TenantID      pgtype.UUID
	ID            pgtype.UUID
	LaborCents    int64
	PartsCents    int64
	SubletCents   int64
	SuppliesCents int64
	SubtotalCents int64
	DiscountCents int64
	TaxCents      int64
	TotalCents    int64
}

func (q *Queries) UpdateOrderTotals(ctx context.Context, arg UpdateOrderTotalsParams) error {
	_, err := q.db.Exec(ctx, updateOrderTotals,
		arg.TenantID, arg.ID,
		arg.LaborCents, arg.PartsCents, arg.SubletCents, arg.SuppliesCents,
		arg.SubtotalCents, arg.DiscountCents, arg.TaxCents, arg.TotalCents,
	)
	return err
}

const tombstoneOrder = `-- name: TombstoneOrder :exec
UPDATE orders
SET deleted = true, updated_at = now()
WHERE tenant_id = $1 AND id = $2`

// TombstoneOrder soft-deletes an order. Rows are never physically removed
// while transactions reference them.
func (q *Queries) TombstoneOrder(ctx context.Context, arg GetOrderParams) error {
	_, err := q.db.Exec(ctx, tombstoneOrder, arg.TenantID, arg.ID)
	return err
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const authorizationColumns = `id, tenant_id, order_id, authorized_cost_cents, active, created_at`

func scanAuthorization(row interface{ Scan(dest ...any) error }) (Authorization, error) {
	var i Authorization
	err := row.Scan(&i.ID, &i.TenantID, &i.OrderID, &i.AuthorizedCostCents, &i.Active, &i.CreatedAt)
	return i, err
}

const createAuthorization = `-- name: CreateAuthorization :one
INSERT INTO authorizations (tenant_id, order_id, authorized_cost_cents, active)
VALUES ($1, $2, $3, true)
RETURNING ` + authorizationColumns

type CreateAuthorizationParams struct {
	TenantID            pgtype.UUID
	OrderID             pgtype.UUID
	AuthorizedCostCents int64
}

func (q *Queries) CreateAuthorization(ctx context.Context, arg CreateAuthorizationParams) (Authorization, error) {
	row := q.db.QueryRow(ctx, createAuthorization, arg.TenantID, arg.OrderID, arg.AuthorizedCostCents)
	return scanAuthorization(row)
}

const listAuthorizations = `-- name: ListAuthorizations :many
SELECT ` + authorizationColumns + `
FROM authorizations
WHERE tenant_id = $1 AND order_id = $2
ORDER BY created_at`

type ListAuthorizationsParams struct {
	TenantID pgtype.UUID
	OrderID  pgtype.UUID
}

func (q *Queries) ListAuthorizations(ctx context.Context, arg ListAuthorizationsParams) ([]Authorization, error) {
	rows, err := q.db.Query(ctx, listAuthorizations, arg.TenantID, arg.OrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Authorization
	for rows.Next() {
		i, err := scanAuthorization(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const sumActiveAuthorizations = `-- name: SumActiveAuthorizations :one
SELECT COALESCE(SUM(authorized_cost_cents), 0)::bigint
FROM authorizations
WHERE tenant_id = $1 AND order_id = $2 AND active`

// SumActiveAuthorizations returns the active authorization ceiling for an
// order; zero when no authorizations exist.
func (q *Queries) SumActiveAuthorizations(ctx context.Context, arg ListAuthorizationsParams) (int64, error) {
	var sum int64
	err := q.db.QueryRow(ctx, sumActiveAuthorizations, arg.TenantID, arg.OrderID).Scan(&sum)
	return sum, err
}

const deactivateAuthorization = `-- name: DeactivateAuthorization :exec
UPDATE authorizations
SET active = false
WHERE tenant_id = $1 AND id = $2`

type DeactivateAuthorizationParams struct {
	TenantID pgtype.UUID
	ID       pgtype.UUID
}

func (q *Queries) DeactivateAuthorization(ctx context.Context, arg DeactivateAuthorizationParams) error {
	_, err := q.db.Exec(ctx, deactivateAuthorization, arg.TenantID, arg.ID)
	return err
}

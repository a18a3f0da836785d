package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const transactionColumns = `id, tenant_id, order_id, customer_id, kind, amount_cents, status,
	gateway, payment_reference, override_authorization, failure_reason, created_at, resolved_at`

func scanTransaction(row interface{ Scan(dest ...any) error }) (Transaction, error) {
	var i Transaction
	err := row.Scan(
		&i.ID, &i.TenantID, &i.OrderID, &i.CustomerID, &i.Kind, &i.AmountCents, &i.Status,
		&i.Gateway, &i.PaymentReference, &i.OverrideAuthorization, &i.FailureReason,
		&i.CreatedAt, &i.ResolvedAt,
	)
	return i, err
}

const createTransaction = `-- name: CreateTransaction :one
INSERT INTO transactions (
	tenant_id, order_id, customer_id, kind, amount_cents, status,
	gateway, payment_reference, override_authorization, failure_reason
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
)
RETURNING ` + transactionColumns

type CreateTransactionParams struct {
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
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRow(ctx, createTransaction,
		arg.TenantID, arg.OrderID, arg.CustomerID, arg.Kind, arg.AmountCents, arg.Status,
		arg.Gateway, arg.PaymentReference, arg.OverrideAuthorization, arg.FailureReason,
	)
	return scanTransaction(row)
}

const getTransaction = `-- name: GetTransaction :one
SELECT ` + transactionColumns + `
FROM transactions
WHERE tenant_id = $1 AND id = $2`

type GetTransactionParams struct {
	TenantID pgtype.UUID
	ID       pgtype.UUID
}

func (q *Queries) GetTransaction(ctx context.Context, arg GetTransactionParams) (Transaction, error) {
	row := q.db.QueryRow(ctx, getTransaction, arg.TenantID, arg.ID)
	return scanTransaction(row)
}

const listTransactions = `-- name: ListTransactions :many
SELECT ` + transactionColumns + `
FROM transactions
WHERE tenant_id = $1 AND order_id = $2
ORDER BY created_at`

type ListTransactionsParams struct {
	TenantID pgtype.UUID
	OrderID  pgtype.UUID
}

func (q *Queries) ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]Transaction, error) {
	rows, err := q.db.Query(ctx, listTransactions, arg.TenantID, arg.OrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Transaction
	for rows.Next() {
		i, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getTransactionByReference = `-- name: GetTransactionByReference :one
SELECT ` + transactionColumns + `
FROM transactions
WHERE tenant_id = $1 AND gateway = $2 AND payment_reference = $3
ORDER BY created_at DESC
LIMIT 1`

type GetTransactionByReferenceParams struct {
	TenantID         pgtype.UUID
	Gateway          string
	PaymentReference pgtype.Text
}

// GetTransactionByReference finds the latest transaction carrying a gateway
// payment reference. Webhook events identify transactions this way.
func (q *Queries) GetTransactionByReference(ctx context.Context, arg GetTransactionByReferenceParams) (Transaction, error) {
	row := q.db.QueryRow(ctx, getTransactionByReference, arg.TenantID, arg.Gateway, arg.PaymentReference)
	return scanTransaction(row)
}

const updateTransactionStatus = `-- name: UpdateTransactionStatus :one
UPDATE transactions
SET status = $3, failure_reason = $4, resolved_at = now()
WHERE tenant_id = $1 AND id = $2
RETURNING ` + transactionColumns

type UpdateTransactionStatusParams struct {
	TenantID      pgtype.UUID
	ID            pgtype.UUID
	Status        string
	FailureReason pgtype.Text
}

// UpdateTransactionStatus resolves a transaction's settlement state.
// Status is the only mutable column; amounts on settled transactions are
// corrected by appending new rows.
func (q *Queries) UpdateTransactionStatus(ctx context.Context, arg UpdateTransactionStatusParams) (Transaction, error) {
	row := q.db.QueryRow(ctx, updateTransactionStatus, arg.TenantID, arg.ID, arg.Status, arg.FailureReason)
	return scanTransaction(row)
}

const updateTransactionReference = `-- name: UpdateTransactionReference :one
UPDATE transactions
SET payment_reference = $3, status = $4, failure_reason = $5,
	resolved_at = CASE WHEN $4 = 'pending' THEN NULL ELSE now() END
WHERE tenant_id = $1 AND id = $2
RETURNING ` + transactionColumns

type UpdateTransactionReferenceParams struct {
	TenantID         pgtype.UUID
	ID               pgtype.UUID
	PaymentReference pgtype.Text
	Status           string
	FailureReason    pgtype.Text
}

// UpdateTransactionReference rewrites a transaction's payment reference
// once the gateway's intent ID is learned. A charge persisted during a
// gateway timeout carries its idempotency key as the reference until a
// retry or the reconciliation sweep reclaims it.
func (q *Queries) UpdateTransactionReference(ctx context.Context, arg UpdateTransactionReferenceParams) (Transaction, error) {
	row := q.db.QueryRow(ctx, updateTransactionReference,
		arg.TenantID, arg.ID, arg.PaymentReference, arg.Status, arg.FailureReason,
	)
	return scanTransaction(row)
}

const listPendingTransactionsBefore = `-- name: ListPendingTransactionsBefore :many
SELECT ` + transactionColumns + `
FROM transactions
WHERE status = 'pending' AND created_at < $1
ORDER BY created_at
LIMIT $2`

type ListPendingTransactionsBeforeParams struct {
	CreatedBefore time.Time
	Limit         int32
}

// ListPendingTransactionsBefore returns stale pending transactions across
// all tenants for the reconciliation worker.
func (q *Queries) ListPendingTransactionsBefore(ctx context.Context, arg ListPendingTransactionsBeforeParams) ([]Transaction, error) {
	rows, err := q.db.Query(ctx, listPendingTransactionsBefore, arg.CreatedBefore, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Transaction
	for rows.Next() {
		i, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

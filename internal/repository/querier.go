package repository

import (
	"context"
)

// Querier is the query surface the services program against. *Queries is
// the real implementation; tests substitute an in-memory fake.
type Querier interface {
	CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error)
	GetOrder(ctx context.Context, arg GetOrderParams) (Order, error)
	GetOrderForUpdate(ctx context.Context, arg GetOrderParams) (Order, error)
	UpdateOrderPercents(ctx context.Context, arg UpdateOrderPercentsParams) (Order, error)
	UpdateOrderTotals(ctx context.Context, arg UpdateOrderTotalsParams) error
	TombstoneOrder(ctx context.Context, arg GetOrderParams) error

	CreateLineItem(ctx context.Context, arg CreateLineItemParams) (LineItem, error)
	GetLineItem(ctx context.Context, arg GetLineItemParams) (LineItem, error)
	ListLineItems(ctx context.Context, arg ListLineItemsParams) ([]LineItem, error)
	UpdateLineItem(ctx context.Context, arg UpdateLineItemParams) (LineItem, error)

	CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error)
	GetTransaction(ctx context.Context, arg GetTransactionParams) (Transaction, error)
	GetTransactionByReference(ctx context.Context, arg GetTransactionByReferenceParams) (Transaction, error)
	ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]Transaction, error)
	UpdateTransactionStatus(ctx context.Context, arg UpdateTransactionStatusParams) (Transaction, error)
	UpdateTransactionReference(ctx context.Context, arg UpdateTransactionReferenceParams) (Transaction, error)
	ListPendingTransactionsBefore(ctx context.Context, arg ListPendingTransactionsBeforeParams) ([]Transaction, error)

	CreateAuthorization(ctx context.Context, arg CreateAuthorizationParams) (Authorization, error)
	ListAuthorizations(ctx context.Context, arg ListAuthorizationsParams) ([]Authorization, error)
	SumActiveAuthorizations(ctx context.Context, arg ListAuthorizationsParams) (int64, error)
	DeactivateAuthorization(ctx context.Context, arg DeactivateAuthorizationParams) error
}

var _ Querier = (*Queries)(nil)

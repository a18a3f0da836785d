package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/harborworks/drydock/internal/repository"
)

// fakeStore is an in-memory Store. ExecTx runs fn against the fake
// directly; single-goroutine tests get the same visibility the real
// transaction would provide.
type fakeStore struct {
	mu     sync.Mutex
	orders []repository.Order
	items  []repository.LineItem
	txns   []repository.Transaction
	auths  []repository.Authorization
	seq    int64
}

var _ Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

func (f *fakeStore) ExecTx(ctx context.Context, fn func(repository.Querier) error) error {
	return fn(f)
}

func (f *fakeStore) nextTime() pgtype.Timestamptz {
	f.seq++
	return pgtype.Timestamptz{Time: time.Unix(f.seq, 0), Valid: true}
}

func (f *fakeStore) CreateOrder(_ context.Context, arg repository.CreateOrderParams) (repository.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	o := repository.Order{
		ID:              repository.UUID(uuid.New()),
		TenantID:        arg.TenantID,
		CustomerID:      arg.CustomerID,
		VehicleID:       arg.VehicleID,
		OrderNumber:     arg.OrderNumber,
		Status:          arg.Status,
		DiscountPercent: arg.DiscountPercent,
		TaxPercent:      arg.TaxPercent,
		CreatedAt:       f.nextTime(),
	}
	f.orders = append(f.orders, o)
	return o, nil
}

func (f *fakeStore) findOrder(arg repository.GetOrderParams) (int, error) {
	for i := range f.orders {
		if f.orders[i].TenantID == arg.TenantID && f.orders[i].ID == arg.ID {
			return i, nil
		}
	}
	return -1, pgx.ErrNoRows
}

func (f *fakeStore) GetOrder(_ context.Context, arg repository.GetOrderParams) (repository.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i, err := f.findOrder(arg)
	if err != nil {
		return repository.Order{}, err
	}
	return f.orders[i], nil
}

func (f *fakeStore) GetOrderForUpdate(ctx context.Context, arg repository.GetOrderParams) (repository.Order, error) {
	return f.GetOrder(ctx, arg)
}

func (f *fakeStore) UpdateOrderPercents(_ context.Context, arg repository.UpdateOrderPercentsParams) (repository.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i, err := f.findOrder(repository.GetOrderParams{TenantID: arg.TenantID, ID: arg.ID})
	if err != nil {
		return repository.Order{}, err
	}
	f.orders[i].DiscountPercent = arg.DiscountPercent
	f.orders[i].TaxPercent = arg.TaxPercent
	return f.orders[i], nil
}

func (f *fakeStore) UpdateOrderTotals(_ context.Context, arg repository.UpdateOrderTotalsParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	i, err := f.findOrder(repository.GetOrderParams{TenantID: arg.TenantID, ID: arg.ID})
	if err != nil {
		return err
	}
	o := &f.orders[i]
	o.CalculatedLaborCents = arg.LaborCents
	o.CalculatedPartsCents = arg.PartsCents
	o.CalculatedSubletCents = arg.SubletCents
	o.CalculatedSuppliesCents = arg.SuppliesCents
	o.CalculatedSubtotalCents = arg.SubtotalCents
	o.CalculatedDiscountCents = arg.DiscountCents
	o.CalculatedTaxCents = arg.TaxCents
	o.CalculatedTotalCents = arg.TotalCents
	return nil
}

func (f *fakeStore) TombstoneOrder(_ context.Context, arg repository.GetOrderParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	i, err := f.findOrder(arg)
	if err != nil {
		return err
	}
	f.orders[i].Deleted = true
	return nil
}

func (f *fakeStore) CreateLineItem(_ context.Context, arg repository.CreateLineItemParams) (repository.LineItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	li := repository.LineItem{
		ID:              repository.UUID(uuid.New()),
		TenantID:        arg.TenantID,
		OrderID:         arg.OrderID,
		Ordinal:         arg.Ordinal,
		Title:           arg.Title,
		Category:        arg.Category,
		PricingMode:     arg.PricingMode,
		Quantity:        arg.Quantity,
		UnitCostCents:   arg.UnitCostCents,
		LaborHours:      arg.LaborHours,
		FixedPriceCents: arg.FixedPriceCents,
		DiscountCents:   arg.DiscountCents,
		DiscountPercent: arg.DiscountPercent,
		TaxCents:        arg.TaxCents,
		TaxPercent:      arg.TaxPercent,
		Taxable:         arg.Taxable,
		Hidden:          arg.Hidden,
		Status:          arg.Status,
		CreatedAt:       f.nextTime(),
	}
	f.items = append(f.items, li)
	return li, nil
}

func (f *fakeStore) GetLineItem(_ context.Context, arg repository.GetLineItemParams) (repository.LineItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.items {
		if f.items[i].TenantID == arg.TenantID && f.items[i].ID == arg.ID {
			return f.items[i], nil
		}
	}
	return repository.LineItem{}, pgx.ErrNoRows
}

func (f *fakeStore) ListLineItems(_ context.Context, arg repository.ListLineItemsParams) ([]repository.LineItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []repository.LineItem
	for i := range f.items {
		if f.items[i].TenantID == arg.TenantID && f.items[i].OrderID == arg.OrderID {
			out = append(out, f.items[i])
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Ordinal < out[b].Ordinal })
	return out, nil
}

func (f *fakeStore) UpdateLineItem(_ context.Context, arg repository.UpdateLineItemParams) (repository.LineItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.items {
		if f.items[i].TenantID != arg.TenantID || f.items[i].ID != arg.ID {
			continue
		}
		li := &f.items[i]
		li.Ordinal = arg.Ordinal
		li.Title = arg.Title
		li.Category = arg.Category
		li.PricingMode = arg.PricingMode
		li.Quantity = arg.Quantity
		li.UnitCostCents = arg.UnitCostCents
		li.LaborHours = arg.LaborHours
		li.FixedPriceCents = arg.FixedPriceCents
		li.DiscountCents = arg.DiscountCents
		li.DiscountPercent = arg.DiscountPercent
		li.TaxCents = arg.TaxCents
		li.TaxPercent = arg.TaxPercent
		li.Taxable = arg.Taxable
		li.Hidden = arg.Hidden
		li.Status = arg.Status
		return *li, nil
	}
	return repository.LineItem{}, pgx.ErrNoRows
}

func (f *fakeStore) CreateTransaction(_ context.Context, arg repository.CreateTransactionParams) (repository.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	txn := repository.Transaction{
		ID:                    repository.UUID(uuid.New()),
		TenantID:              arg.TenantID,
		OrderID:               arg.OrderID,
		CustomerID:            arg.CustomerID,
		Kind:                  arg.Kind,
		AmountCents:           arg.AmountCents,
		Status:                arg.Status,
		Gateway:               arg.Gateway,
		PaymentReference:      arg.PaymentReference,
		OverrideAuthorization: arg.OverrideAuthorization,
		FailureReason:         arg.FailureReason,
		CreatedAt:             f.nextTime(),
	}
	f.txns = append(f.txns, txn)
	return txn, nil
}

func (f *fakeStore) GetTransaction(_ context.Context, arg repository.GetTransactionParams) (repository.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.txns {
		if f.txns[i].TenantID == arg.TenantID && f.txns[i].ID == arg.ID {
			return f.txns[i], nil
		}
	}
	return repository.Transaction{}, pgx.ErrNoRows
}

func (f *fakeStore) GetTransactionByReference(_ context.Context, arg repository.GetTransactionByReferenceParams) (repository.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := len(f.txns) - 1; i >= 0; i-- {
		t := f.txns[i]
		if t.TenantID == arg.TenantID && t.Gateway == arg.Gateway && t.PaymentReference == arg.PaymentReference {
			return t, nil
		}
	}
	return repository.Transaction{}, pgx.ErrNoRows
}

func (f *fakeStore) ListTransactions(_ context.Context, arg repository.ListTransactionsParams) ([]repository.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []repository.Transaction
	for i := range f.txns {
		if f.txns[i].TenantID == arg.TenantID && f.txns[i].OrderID == arg.OrderID {
			out = append(out, f.txns[i])
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateTransactionStatus(_ context.Context, arg repository.UpdateTransactionStatusParams) (repository.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.txns {
		if f.txns[i].TenantID != arg.TenantID || f.txns[i].ID != arg.ID {
			continue
		}
		f.txns[i].Status = arg.Status
		f.txns[i].FailureReason = arg.FailureReason
		f.txns[i].ResolvedAt = f.nextTime()
		return f.txns[i], nil
	}
	return repository.Transaction{}, pgx.ErrNoRows
}

func (f *fakeStore) UpdateTransactionReference(_ context.Context, arg repository.UpdateTransactionReferenceParams) (repository.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.txns {
		if f.txns[i].TenantID != arg.TenantID || f.txns[i].ID != arg.ID {
			continue
		}
		f.txns[i].PaymentReference = arg.PaymentReference
		f.txns[i].Status = arg.Status
		f.txns[i].FailureReason = arg.FailureReason
		if arg.Status != "pending" {
			f.txns[i].ResolvedAt = f.nextTime()
		}
		return f.txns[i], nil
	}
	return repository.Transaction{}, pgx.ErrNoRows
}

func (f *fakeStore) ListPendingTransactionsBefore(_ context.Context, arg repository.ListPendingTransactionsBeforeParams) ([]repository.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []repository.Transaction
	for i := range f.txns {
		t := f.txns[i]
		if t.Status != "pending" || !t.CreatedAt.Time.Before(arg.CreatedBefore) {
			continue
		}
		out = append(out, t)
		if int32(len(out)) >= arg.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) CreateAuthorization(_ context.Context, arg repository.CreateAuthorizationParams) (repository.Authorization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a := repository.Authorization{
		ID:                  repository.UUID(uuid.New()),
		TenantID:            arg.TenantID,
		OrderID:             arg.OrderID,
		AuthorizedCostCents: arg.AuthorizedCostCents,
		Active:              true,
		CreatedAt:           f.nextTime(),
	}
	f.auths = append(f.auths, a)
	return a, nil
}

func (f *fakeStore) ListAuthorizations(_ context.Context, arg repository.ListAuthorizationsParams) ([]repository.Authorization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []repository.Authorization
	for i := range f.auths {
		if f.auths[i].TenantID == arg.TenantID && f.auths[i].OrderID == arg.OrderID {
			out = append(out, f.auths[i])
		}
	}
	return out, nil
}

func (f *fakeStore) SumActiveAuthorizations(_ context.Context, arg repository.ListAuthorizationsParams) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var sum int64
	for i := range f.auths {
		a := f.auths[i]
		if a.TenantID == arg.TenantID && a.OrderID == arg.OrderID && a.Active {
			sum += a.AuthorizedCostCents
		}
	}
	return sum, nil
}

func (f *fakeStore) DeactivateAuthorization(_ context.Context, arg repository.DeactivateAuthorizationParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.auths {
		if f.auths[i].TenantID == arg.TenantID && f.auths[i].ID == arg.ID {
			f.auths[i].Active = false
			return nil
		}
	}
	return pgx.ErrNoRows
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestOrderService(t *testing.T, store Store, tenantID string) OrderService {
	t.Helper()
	svc, err := NewOrderService(store, tenantID, testLogger())
	if err != nil {
		t.Fatalf("NewOrderService() error = %v", err)
	}
	return svc
}

package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/harborworks/drydock/internal/billing"
	"github.com/harborworks/drydock/internal/domain"
	"github.com/harborworks/drydock/internal/repository"
)

type ledgerFixture struct {
	store   *fakeStore
	gateway *billing.MockGateway
	orders  OrderService
	ledger  LedgerService
	orderID uuid.UUID
}

// newLedgerFixture builds a tenant with one order totaling 10000 cents.
func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	tenantID := uuid.New().String()
	store := newFakeStore()
	gateway := billing.NewMockGateway()

	orders := newTestOrderService(t, store, tenantID)
	ledgerSvc, err := NewLedgerService(store, gateway, tenantID, testLogger())
	if err != nil {
		t.Fatalf("NewLedgerService() error = %v", err)
	}

	detail := createTestOrder(t, orders, 0, 0)
	if _, err := orders.AddLineItem(context.Background(), orderUUID(detail), AddLineItemParams{
		Title:           "Survey and valuation",
		Category:        domain.CategoryLabor,
		PricingMode:     domain.PricingFixed,
		FixedPriceCents: 10000,
		Status:          domain.LineItemApproved,
	}); err != nil {
		t.Fatalf("AddLineItem() error = %v", err)
	}

	return &ledgerFixture{
		store:   store,
		gateway: gateway,
		orders:  orders,
		ledger:  ledgerSvc,
		orderID: orderUUID(detail),
	}
}

func TestChargeOrderLifecycle(t *testing.T) {
	ctx := context.Background()
	fx := newLedgerFixture(t)

	result, err := fx.ledger.ChargeOrder(ctx, ChargeOrderParams{
		OrderID:        fx.orderID,
		AmountCents:    10000,
		IdempotencyKey: "key-1",
	})
	if err != nil {
		t.Fatalf("ChargeOrder() error = %v", err)
	}
	if result.Transaction.Status != string(domain.TxnPending) {
		t.Fatalf("transaction status = %q, want pending", result.Transaction.Status)
	}

	// Pending funds are visible but not collected.
	b, err := fx.ledger.Balance(ctx, fx.orderID)
	if err != nil {
		t.Fatalf("Balance() error = %v", err)
	}
	if b.PendingCents != 10000 || b.DueCents != 10000 || b.PaidCents != 0 {
		t.Fatalf("balance = %+v, want pending=10000 due=10000 paid=0", b)
	}

	// Gateway settles; the reconciliation sweep picks it up.
	if err := fx.gateway.SimulateSucceeded(result.Charge.IntentID); err != nil {
		t.Fatalf("SimulateSucceeded() error = %v", err)
	}
	resolved, err := fx.ledger.ResolvePending(ctx, time.Now(), 10)
	if err != nil {
		t.Fatalf("ResolvePending() error = %v", err)
	}
	if resolved != 1 {
		t.Fatalf("ResolvePending() = %d, want 1", resolved)
	}

	b, err = fx.ledger.Balance(ctx, fx.orderID)
	if err != nil {
		t.Fatalf("Balance() error = %v", err)
	}
	if b.PaidCents != 10000 || b.DueCents != 0 || b.PendingCents != 0 {
		t.Fatalf("balance after settle = %+v, want paid=10000 due=0 pending=0", b)
	}
}

func TestChargeOrderRetrySameKey(t *testing.T) {
	ctx := context.Background()
	fx := newLedgerFixture(t)

	first, err := fx.ledger.ChargeOrder(ctx, ChargeOrderParams{
		OrderID:        fx.orderID,
		AmountCents:    10000,
		IdempotencyKey: "key-retry",
	})
	if err != nil {
		t.Fatalf("ChargeOrder() error = %v", err)
	}
	second, err := fx.ledger.ChargeOrder(ctx, ChargeOrderParams{
		OrderID:        fx.orderID,
		AmountCents:    10000,
		IdempotencyKey: "key-retry",
	})
	if err != nil {
		t.Fatalf("ChargeOrder() retry error = %v", err)
	}

	if first.Transaction.ID != second.Transaction.ID {
		t.Errorf("retry recorded a second transaction")
	}
	txns, _ := fx.store.ListTransactions(ctx, repository.ListTransactionsParams{
		TenantID: first.Transaction.TenantID,
		OrderID:  first.Transaction.OrderID,
	})
	if len(txns) != 1 {
		t.Errorf("ledger rows = %d, want 1", len(txns))
	}
}

func TestChargeOrderOverAuthorization(t *testing.T) {
	ctx := context.Background()
	fx := newLedgerFixture(t)

	if _, err := fx.ledger.Authorize(ctx, fx.orderID, 20000); err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}

	_, err := fx.ledger.ChargeOrder(ctx, ChargeOrderParams{
		OrderID:        fx.orderID,
		AmountCents:    25000,
		IdempotencyKey: "key-over",
	})
	if !errors.Is(err, ErrOverAuthorization) {
		t.Fatalf("ChargeOrder() error = %v, want ErrOverAuthorization", err)
	}
	if len(fx.gateway.CallLog) != 0 {
		t.Errorf("gateway called despite authorization block: %v", fx.gateway.CallLog)
	}

	// An explicit override records the payment anyway, flagged for audit.
	result, err := fx.ledger.ChargeOrder(ctx, ChargeOrderParams{
		OrderID:               fx.orderID,
		AmountCents:           25000,
		IdempotencyKey:        "key-over",
		OverrideAuthorization: true,
	})
	if err != nil {
		t.Fatalf("ChargeOrder(override) error = %v", err)
	}
	if !result.Transaction.OverrideAuthorization {
		t.Errorf("override flag not stored on transaction")
	}

	// Charges within the ceiling pass without an override.
	if _, err := fx.ledger.ChargeOrder(ctx, ChargeOrderParams{
		OrderID:        fx.orderID,
		AmountCents:    15000,
		IdempotencyKey: "key-within",
	}); err != nil {
		t.Errorf("ChargeOrder(within ceiling) error = %v", err)
	}
}

func TestChargeOrderGatewayTimeout(t *testing.T) {
	ctx := context.Background()
	fx := newLedgerFixture(t)

	fx.gateway.CreateChargeFunc = func(context.Context, billing.CreateChargeParams) (*billing.ChargeResult, error) {
		return nil, billing.ErrGatewayTimeout
	}

	// The outcome is unknown, so the charge lands on the ledger as
	// pending under its idempotency key rather than vanishing.
	result, err := fx.ledger.ChargeOrder(ctx, ChargeOrderParams{
		OrderID:        fx.orderID,
		AmountCents:    10000,
		IdempotencyKey: "key-timeout",
	})
	if err != nil {
		t.Fatalf("ChargeOrder() error = %v", err)
	}
	if result.Transaction.Status != string(domain.TxnPending) {
		t.Fatalf("status = %q, want pending", result.Transaction.Status)
	}
	if got := repository.FromText(result.Transaction.PaymentReference); got != "key-timeout" {
		t.Fatalf("payment reference = %q, want the idempotency key", got)
	}

	// The sweep re-issues the charge under the same key and learns the
	// gateway-assigned intent ID; the row stays pending until the
	// gateway decides.
	fx.gateway.CreateChargeFunc = nil
	resolved, err := fx.ledger.ResolvePending(ctx, time.Now(), 10)
	if err != nil {
		t.Fatalf("ResolvePending() error = %v", err)
	}
	if resolved != 0 {
		t.Fatalf("ResolvePending() = %d, want 0 while the intent is undecided", resolved)
	}

	txn, err := fx.store.GetTransaction(ctx, repository.GetTransactionParams{
		TenantID: result.Transaction.TenantID,
		ID:       result.Transaction.ID,
	})
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	intentID := repository.FromText(txn.PaymentReference)
	if intentID == "" || intentID == "key-timeout" {
		t.Fatalf("payment reference = %q, want a gateway intent ID", intentID)
	}

	// Once the gateway settles, the next sweep collects it.
	if err := fx.gateway.SimulateSucceeded(intentID); err != nil {
		t.Fatalf("SimulateSucceeded() error = %v", err)
	}
	resolved, err = fx.ledger.ResolvePending(ctx, time.Now(), 10)
	if err != nil {
		t.Fatalf("ResolvePending() error = %v", err)
	}
	if resolved != 1 {
		t.Fatalf("ResolvePending() = %d, want 1", resolved)
	}

	b, err := fx.ledger.Balance(ctx, fx.orderID)
	if err != nil {
		t.Fatalf("Balance() error = %v", err)
	}
	if b.PaidCents != 10000 || b.DueCents != 0 || b.PendingCents != 0 {
		t.Fatalf("balance = %+v, want paid=10000 due=0 pending=0", b)
	}
}

func TestChargeOrderTimeoutRetryAbsorbsPlaceholder(t *testing.T) {
	ctx := context.Background()
	fx := newLedgerFixture(t)

	fx.gateway.CreateChargeFunc = func(context.Context, billing.CreateChargeParams) (*billing.ChargeResult, error) {
		return nil, billing.ErrGatewayTimeout
	}
	first, err := fx.ledger.ChargeOrder(ctx, ChargeOrderParams{
		OrderID:        fx.orderID,
		AmountCents:    10000,
		IdempotencyKey: "key-flaky",
	})
	if err != nil {
		t.Fatalf("ChargeOrder() error = %v", err)
	}

	// A retried confirmation rewrites the placeholder with the real
	// intent ID instead of opening a second ledger row.
	fx.gateway.CreateChargeFunc = nil
	second, err := fx.ledger.ChargeOrder(ctx, ChargeOrderParams{
		OrderID:        fx.orderID,
		AmountCents:    10000,
		IdempotencyKey: "key-flaky",
	})
	if err != nil {
		t.Fatalf("ChargeOrder() retry error = %v", err)
	}
	if second.Transaction.ID != first.Transaction.ID {
		t.Errorf("retry recorded a second transaction")
	}
	if got := repository.FromText(second.Transaction.PaymentReference); got != second.Charge.IntentID {
		t.Errorf("payment reference = %q, want intent %q", got, second.Charge.IntentID)
	}

	txns, _ := fx.store.ListTransactions(ctx, repository.ListTransactionsParams{
		TenantID: first.Transaction.TenantID,
		OrderID:  first.Transaction.OrderID,
	})
	if len(txns) != 1 {
		t.Errorf("ledger rows = %d, want 1", len(txns))
	}
}

func TestChargeOrderGatewayRejected(t *testing.T) {
	ctx := context.Background()
	fx := newLedgerFixture(t)

	fx.gateway.CreateChargeFunc = func(context.Context, billing.CreateChargeParams) (*billing.ChargeResult, error) {
		return nil, fmt.Errorf("%w: card_declined", billing.ErrGatewayRejected)
	}

	_, err := fx.ledger.ChargeOrder(ctx, ChargeOrderParams{
		OrderID:        fx.orderID,
		AmountCents:    10000,
		IdempotencyKey: "key-declined",
	})
	if !errors.Is(err, billing.ErrGatewayRejected) {
		t.Fatalf("ChargeOrder() error = %v, want ErrGatewayRejected", err)
	}
	if domain.ErrorCode(err) != domain.EPAYMENT {
		t.Errorf("error code = %q, want EPAYMENT", domain.ErrorCode(err))
	}

	// The refused attempt stays on the record without touching the
	// balance.
	if len(fx.store.txns) != 1 {
		t.Fatalf("ledger rows = %d, want 1", len(fx.store.txns))
	}
	if fx.store.txns[0].Status != string(domain.TxnFailed) {
		t.Fatalf("status = %q, want failed", fx.store.txns[0].Status)
	}

	b, err := fx.ledger.Balance(ctx, fx.orderID)
	if err != nil {
		t.Fatalf("Balance() error = %v", err)
	}
	if b.PaidCents != 0 || b.PendingCents != 0 || b.DueCents != 10000 {
		t.Fatalf("balance = %+v, want paid=0 pending=0 due=10000", b)
	}

	// A failed attempt does not block retrying the same key.
	fx.gateway.CreateChargeFunc = nil
	retry, err := fx.ledger.ChargeOrder(ctx, ChargeOrderParams{
		OrderID:        fx.orderID,
		AmountCents:    10000,
		IdempotencyKey: "key-declined",
	})
	if err != nil {
		t.Fatalf("ChargeOrder() retry error = %v", err)
	}
	if retry.Transaction.Status != string(domain.TxnPending) {
		t.Errorf("retry status = %q, want pending", retry.Transaction.Status)
	}
}

func TestSettleTransactionOverAuthorization(t *testing.T) {
	ctx := context.Background()
	fx := newLedgerFixture(t)

	if _, err := fx.ledger.Authorize(ctx, fx.orderID, 20000); err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}

	// Recording as pending does not consume the ceiling, so the check
	// must run again at settlement.
	txn, err := fx.ledger.RecordTransaction(ctx, RecordTransactionParams{
		OrderID:     fx.orderID,
		Kind:        domain.TxnPayment,
		Status:      domain.TxnPending,
		AmountCents: 25000,
		Gateway:     "terminal",
	})
	if err != nil {
		t.Fatalf("RecordTransaction() error = %v", err)
	}

	_, err = fx.ledger.SettleTransaction(ctx, repository.FromUUID(txn.ID), domain.TxnSucceeded, "")
	if !errors.Is(err, ErrOverAuthorization) {
		t.Fatalf("SettleTransaction() error = %v, want ErrOverAuthorization", err)
	}

	// The row stays pending for an explicit override decision.
	current, err := fx.store.GetTransaction(ctx, repository.GetTransactionParams{
		TenantID: txn.TenantID,
		ID:       txn.ID,
	})
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if current.Status != string(domain.TxnPending) {
		t.Fatalf("status = %q, want pending", current.Status)
	}
	b, err := fx.ledger.Balance(ctx, fx.orderID)
	if err != nil {
		t.Fatalf("Balance() error = %v", err)
	}
	if b.PaidCents != 0 {
		t.Fatalf("paid = %d, want 0 past the ceiling", b.PaidCents)
	}

	// An entry carrying the override settles past the ceiling, flagged
	// for audit.
	override, err := fx.ledger.RecordTransaction(ctx, RecordTransactionParams{
		OrderID:               fx.orderID,
		Kind:                  domain.TxnPayment,
		Status:                domain.TxnPending,
		AmountCents:           25000,
		Gateway:               "terminal",
		OverrideAuthorization: true,
	})
	if err != nil {
		t.Fatalf("RecordTransaction(override) error = %v", err)
	}
	settled, err := fx.ledger.SettleTransaction(ctx, repository.FromUUID(override.ID), domain.TxnSucceeded, "")
	if err != nil {
		t.Fatalf("SettleTransaction(override) error = %v", err)
	}
	if settled.Status != string(domain.TxnSucceeded) {
		t.Errorf("status = %q, want succeeded", settled.Status)
	}
}

func TestRecordTransactionDuplicateReference(t *testing.T) {
	ctx := context.Background()
	fx := newLedgerFixture(t)

	params := RecordTransactionParams{
		OrderID:          fx.orderID,
		Kind:             domain.TxnPayment,
		Status:           domain.TxnSucceeded,
		AmountCents:      6000,
		Gateway:          "terminal",
		PaymentReference: "batch-42",
	}
	first, err := fx.ledger.RecordTransaction(ctx, params)
	if err != nil {
		t.Fatalf("RecordTransaction() error = %v", err)
	}
	second, err := fx.ledger.RecordTransaction(ctx, params)
	if err != nil {
		t.Fatalf("RecordTransaction() retry error = %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("duplicate reference recorded a second transaction")
	}

	b, err := fx.ledger.Balance(ctx, fx.orderID)
	if err != nil {
		t.Fatalf("Balance() error = %v", err)
	}
	if b.PaidCents != 6000 {
		t.Errorf("PaidCents = %d, want 6000 (duplicate must not double-count)", b.PaidCents)
	}

	// Same reference on a different gateway is a distinct payment.
	params.Gateway = "cash_register"
	third, err := fx.ledger.RecordTransaction(ctx, params)
	if err != nil {
		t.Fatalf("RecordTransaction(other gateway) error = %v", err)
	}
	if third.ID == first.ID {
		t.Errorf("reference scoping leaked across gateways")
	}
}

func TestVoidTransitionRules(t *testing.T) {
	ctx := context.Background()
	fx := newLedgerFixture(t)

	payment, err := fx.ledger.RecordTransaction(ctx, RecordTransactionParams{
		OrderID:     fx.orderID,
		Kind:        domain.TxnPayment,
		Status:      domain.TxnSucceeded,
		AmountCents: 10000,
		Gateway:     "terminal",
	})
	if err != nil {
		t.Fatalf("RecordTransaction() error = %v", err)
	}

	// Succeeded payments are immutable: corrections go through refunds.
	if _, err := fx.ledger.VoidTransaction(ctx, repository.FromUUID(payment.ID)); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("VoidTransaction(payment) error = %v, want ErrInvalidTransition", err)
	}

	refund, err := fx.ledger.RecordTransaction(ctx, RecordTransactionParams{
		OrderID:     fx.orderID,
		Kind:        domain.TxnRefund,
		Status:      domain.TxnSucceeded,
		AmountCents: 2500,
		Gateway:     "terminal",
	})
	if err != nil {
		t.Fatalf("RecordTransaction(refund) error = %v", err)
	}
	voided, err := fx.ledger.VoidTransaction(ctx, repository.FromUUID(refund.ID))
	if err != nil {
		t.Fatalf("VoidTransaction(refund) error = %v", err)
	}
	if voided.Status != string(domain.TxnVoided) {
		t.Errorf("refund status = %q, want voided", voided.Status)
	}

	// Voided refunds no longer reduce the paid total.
	b, err := fx.ledger.Balance(ctx, fx.orderID)
	if err != nil {
		t.Fatalf("Balance() error = %v", err)
	}
	if b.RefundedCents != 0 || b.PaidCents != 10000 {
		t.Errorf("balance = %+v, want refunded=0 paid=10000", b)
	}
}

func TestSettleTransaction(t *testing.T) {
	ctx := context.Background()
	fx := newLedgerFixture(t)

	pending, err := fx.ledger.RecordTransaction(ctx, RecordTransactionParams{
		OrderID:     fx.orderID,
		Kind:        domain.TxnPayment,
		Status:      domain.TxnPending,
		AmountCents: 10000,
		Gateway:     "check",
	})
	if err != nil {
		t.Fatalf("RecordTransaction() error = %v", err)
	}

	settled, err := fx.ledger.SettleTransaction(ctx, repository.FromUUID(pending.ID), domain.TxnSucceeded, "")
	if err != nil {
		t.Fatalf("SettleTransaction() error = %v", err)
	}
	if settled.Status != string(domain.TxnSucceeded) {
		t.Fatalf("status = %q, want succeeded", settled.Status)
	}

	// Settled means settled.
	if _, err := fx.ledger.SettleTransaction(ctx, repository.FromUUID(pending.ID), domain.TxnFailed, "bounced"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("re-settle error = %v, want ErrInvalidTransition", err)
	}
	if _, err := fx.ledger.SettleTransaction(ctx, repository.FromUUID(pending.ID), domain.TxnVoided, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("SettleTransaction(voided) error = %v, want ErrInvalidTransition", err)
	}
}

func TestSettlePaymentReference(t *testing.T) {
	ctx := context.Background()
	fx := newLedgerFixture(t)

	result, err := fx.ledger.ChargeOrder(ctx, ChargeOrderParams{
		OrderID:        fx.orderID,
		AmountCents:    10000,
		IdempotencyKey: "key-webhook",
	})
	if err != nil {
		t.Fatalf("ChargeOrder() error = %v", err)
	}
	reference := repository.FromText(result.Transaction.PaymentReference)

	settled, err := fx.ledger.SettlePaymentReference(ctx, reference, domain.TxnSucceeded, "")
	if err != nil {
		t.Fatalf("SettlePaymentReference() error = %v", err)
	}
	if settled.Status != string(domain.TxnSucceeded) {
		t.Fatalf("status = %q, want succeeded", settled.Status)
	}

	// Re-delivered event with the same outcome is a no-op.
	again, err := fx.ledger.SettlePaymentReference(ctx, reference, domain.TxnSucceeded, "")
	if err != nil {
		t.Fatalf("replayed SettlePaymentReference() error = %v", err)
	}
	if again.ID != settled.ID {
		t.Errorf("replay settled a different transaction")
	}

	// Conflicting outcome after settlement is rejected.
	if _, err := fx.ledger.SettlePaymentReference(ctx, reference, domain.TxnFailed, "card_declined"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("conflicting settle error = %v, want ErrInvalidTransition", err)
	}

	// Unknown references surface as not found.
	if _, err := fx.ledger.SettlePaymentReference(ctx, "pi_unknown", domain.TxnSucceeded, ""); !errors.Is(err, ErrTransactionNotFound) {
		t.Errorf("unknown reference error = %v, want ErrTransactionNotFound", err)
	}
}

func TestRefundPayment(t *testing.T) {
	ctx := context.Background()
	fx := newLedgerFixture(t)

	result, err := fx.ledger.ChargeOrder(ctx, ChargeOrderParams{
		OrderID:        fx.orderID,
		AmountCents:    10000,
		IdempotencyKey: "key-refund",
	})
	if err != nil {
		t.Fatalf("ChargeOrder() error = %v", err)
	}

	// Pending payments cannot be refunded.
	_, err = fx.ledger.RefundPayment(ctx, RefundPaymentParams{
		TransactionID: repository.FromUUID(result.Transaction.ID),
		AmountCents:   4000,
	})
	if !errors.Is(err, ErrNotRefundable) {
		t.Fatalf("RefundPayment(pending) error = %v, want ErrNotRefundable", err)
	}

	if err := fx.gateway.SimulateSucceeded(result.Charge.IntentID); err != nil {
		t.Fatalf("SimulateSucceeded() error = %v", err)
	}
	if _, err := fx.ledger.ResolvePending(ctx, time.Now(), 10); err != nil {
		t.Fatalf("ResolvePending() error = %v", err)
	}

	refund, err := fx.ledger.RefundPayment(ctx, RefundPaymentParams{
		TransactionID: repository.FromUUID(result.Transaction.ID),
		AmountCents:   4000,
		Reason:        "requested_by_customer",
	})
	if err != nil {
		t.Fatalf("RefundPayment() error = %v", err)
	}
	if refund.Transaction.Kind != string(domain.TxnRefund) || refund.Transaction.AmountCents != 4000 {
		t.Fatalf("refund transaction = %+v, want refund of 4000", refund.Transaction)
	}

	b, err := fx.ledger.Balance(ctx, fx.orderID)
	if err != nil {
		t.Fatalf("Balance() error = %v", err)
	}
	if b.PaidCents != 10000 || b.RefundedCents != 4000 || b.DueCents != 4000 {
		t.Fatalf("balance = %+v, want paid=10000 refunded=4000 due=4000", b)
	}

	// A refund larger than the original payment is rejected locally.
	_, err = fx.ledger.RefundPayment(ctx, RefundPaymentParams{
		TransactionID: repository.FromUUID(result.Transaction.ID),
		AmountCents:   20000,
	})
	if domain.ErrorCode(err) != domain.EINVALID {
		t.Errorf("oversized refund error code = %q, want EINVALID", domain.ErrorCode(err))
	}
}

func TestBalanceOverpaymentBecomesCredit(t *testing.T) {
	ctx := context.Background()
	fx := newLedgerFixture(t)

	if _, err := fx.ledger.RecordTransaction(ctx, RecordTransactionParams{
		OrderID:     fx.orderID,
		Kind:        domain.TxnPayment,
		Status:      domain.TxnSucceeded,
		AmountCents: 13000,
		Gateway:     "terminal",
	}); err != nil {
		t.Fatalf("RecordTransaction() error = %v", err)
	}

	b, err := fx.ledger.Balance(ctx, fx.orderID)
	if err != nil {
		t.Fatalf("Balance() error = %v", err)
	}
	if b.DueCents != 0 {
		t.Errorf("DueCents = %d, want 0 (never negative)", b.DueCents)
	}
	if b.CreditCents != 3000 {
		t.Errorf("CreditCents = %d, want 3000", b.CreditCents)
	}
}

func TestPaymentsOnTombstonedOrder(t *testing.T) {
	ctx := context.Background()
	fx := newLedgerFixture(t)

	if _, err := fx.ledger.RecordTransaction(ctx, RecordTransactionParams{
		OrderID:     fx.orderID,
		Kind:        domain.TxnPayment,
		Status:      domain.TxnSucceeded,
		AmountCents: 10000,
		Gateway:     "terminal",
	}); err != nil {
		t.Fatalf("RecordTransaction() error = %v", err)
	}
	if err := fx.orders.DeleteOrder(ctx, fx.orderID); err != nil {
		t.Fatalf("DeleteOrder() error = %v", err)
	}

	// New payments are rejected, but the record stays correctable.
	_, err := fx.ledger.RecordTransaction(ctx, RecordTransactionParams{
		OrderID:     fx.orderID,
		Kind:        domain.TxnPayment,
		Status:      domain.TxnSucceeded,
		AmountCents: 500,
		Gateway:     "terminal",
	})
	if !errors.Is(err, ErrOrderTombstone) {
		t.Fatalf("payment on tombstone error = %v, want ErrOrderTombstone", err)
	}
	if _, err := fx.ledger.RecordTransaction(ctx, RecordTransactionParams{
		OrderID:     fx.orderID,
		Kind:        domain.TxnRefund,
		Status:      domain.TxnSucceeded,
		AmountCents: 10000,
		Gateway:     "terminal",
	}); err != nil {
		t.Fatalf("refund on tombstone error = %v", err)
	}
}

func TestReleaseAuthorizationRestoresNothing(t *testing.T) {
	ctx := context.Background()
	fx := newLedgerFixture(t)

	auth, err := fx.ledger.Authorize(ctx, fx.orderID, 5000)
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}

	b, err := fx.ledger.Balance(ctx, fx.orderID)
	if err != nil {
		t.Fatalf("Balance() error = %v", err)
	}
	if b.AuthorizedCents != 5000 {
		t.Fatalf("AuthorizedCents = %d, want 5000", b.AuthorizedCents)
	}

	if err := fx.ledger.ReleaseAuthorization(ctx, repository.FromUUID(auth.ID)); err != nil {
		t.Fatalf("ReleaseAuthorization() error = %v", err)
	}
	b, err = fx.ledger.Balance(ctx, fx.orderID)
	if err != nil {
		t.Fatalf("Balance() error = %v", err)
	}
	if b.AuthorizedCents != 0 {
		t.Errorf("AuthorizedCents after release = %d, want 0", b.AuthorizedCents)
	}
}

func TestResolvePendingSkipsManualEntries(t *testing.T) {
	ctx := context.Background()
	fx := newLedgerFixture(t)

	if _, err := fx.ledger.RecordTransaction(ctx, RecordTransactionParams{
		OrderID:     fx.orderID,
		Kind:        domain.TxnPayment,
		Status:      domain.TxnPending,
		AmountCents: 10000,
		Gateway:     "check",
	}); err != nil {
		t.Fatalf("RecordTransaction() error = %v", err)
	}

	resolved, err := fx.ledger.ResolvePending(ctx, time.Now(), 10)
	if err != nil {
		t.Fatalf("ResolvePending() error = %v", err)
	}
	if resolved != 0 {
		t.Errorf("ResolvePending() = %d, want 0 (manual entries are not polled)", resolved)
	}
	if len(fx.gateway.CallLog) != 0 {
		t.Errorf("gateway polled for a manual entry: %v", fx.gateway.CallLog)
	}
}

func TestResolvePendingFailedCharge(t *testing.T) {
	ctx := context.Background()
	fx := newLedgerFixture(t)

	result, err := fx.ledger.ChargeOrder(ctx, ChargeOrderParams{
		OrderID:        fx.orderID,
		AmountCents:    10000,
		IdempotencyKey: "key-fail",
	})
	if err != nil {
		t.Fatalf("ChargeOrder() error = %v", err)
	}
	if err := fx.gateway.SimulateFailed(result.Charge.IntentID, "card_declined", "Your card was declined."); err != nil {
		t.Fatalf("SimulateFailed() error = %v", err)
	}

	resolved, err := fx.ledger.ResolvePending(ctx, time.Now(), 10)
	if err != nil {
		t.Fatalf("ResolvePending() error = %v", err)
	}
	if resolved != 1 {
		t.Fatalf("ResolvePending() = %d, want 1", resolved)
	}

	txn, err := fx.store.GetTransaction(ctx, repository.GetTransactionParams{
		TenantID: result.Transaction.TenantID,
		ID:       result.Transaction.ID,
	})
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if txn.Status != string(domain.TxnFailed) {
		t.Errorf("status = %q, want failed", txn.Status)
	}

	b, err := fx.ledger.Balance(ctx, fx.orderID)
	if err != nil {
		t.Fatalf("Balance() error = %v", err)
	}
	if b.PaidCents != 0 || b.PendingCents != 0 || b.DueCents != 10000 {
		t.Errorf("balance = %+v, want paid=0 pending=0 due=10000", b)
	}
}

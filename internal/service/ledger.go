package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/harborworks/drydock/internal/billing"
	"github.com/harborworks/drydock/internal/domain"
	"github.com/harborworks/drydock/internal/ledger"
	"github.com/harborworks/drydock/internal/repository"
	"github.com/harborworks/drydock/internal/telemetry"
)

// LedgerService provides business logic for the append-only transaction
// ledger. Settled amounts are never mutated: corrections enter as new
// transactions, and the only in-place writes are status transitions
// permitted by domain.CanTransition.
//
// Gateway I/O always happens outside the order's row lock. The lock is
// held only for the local reads and writes that decide whether a
// transaction may be recorded.
type LedgerService interface {
	// ChargeOrder opens a charge with the payment gateway and records the
	// resulting transaction. Retrying with the same idempotency key is a
	// safe no-op returning the already-recorded transaction. A gateway
	// timeout still records the charge, pending under the idempotency
	// key, for the reconciliation sweep to resolve; a terminal gateway
	// rejection records a failed transaction and returns the error.
	ChargeOrder(ctx context.Context, params ChargeOrderParams) (*PaymentResult, error)

	// RefundPayment refunds a succeeded payment through the gateway, in
	// full when AmountCents is zero, and records a refund transaction.
	RefundPayment(ctx context.Context, params RefundPaymentParams) (*PaymentResult, error)

	// RecordTransaction records a ledger entry that did not pass through
	// the gateway adapter: counter payments, external terminal captures,
	// writeoffs and goodwill adjustments.
	RecordTransaction(ctx context.Context, params RecordTransactionParams) (repository.Transaction, error)

	// SettleTransaction moves a pending transaction to succeeded or
	// failed. Any other transition returns ErrInvalidTransition.
	SettleTransaction(ctx context.Context, txnID uuid.UUID, status domain.TransactionStatus, failureReason string) (repository.Transaction, error)

	// SettlePaymentReference settles the pending transaction carrying a
	// gateway payment reference. Webhook events identify transactions by
	// reference, not by ledger ID. Settling an already-settled reference
	// to the same status is a no-op.
	SettlePaymentReference(ctx context.Context, reference string, status domain.TransactionStatus, failureReason string) (repository.Transaction, error)

	// VoidTransaction voids a succeeded refund. Succeeded payments are
	// corrected with a refund instead, and every other transition
	// returns ErrInvalidTransition.
	VoidTransaction(ctx context.Context, txnID uuid.UUID) (repository.Transaction, error)

	// Balance computes the reconciled financial state of an order from
	// its transaction set. Works on tombstoned orders: the financial
	// record outlives the order.
	Balance(ctx context.Context, orderID uuid.UUID) (*ledger.Balance, error)

	// Authorize records a customer-approved spending ceiling for an order.
	Authorize(ctx context.Context, orderID uuid.UUID, amountCents int64) (repository.Authorization, error)

	// ReleaseAuthorization deactivates an authorization, removing it from
	// the order's ceiling.
	ReleaseAuthorization(ctx context.Context, authorizationID uuid.UUID) error

	// ResolvePending sweeps pending gateway transactions created before
	// cutoff, polls the gateway for their authoritative status, and
	// settles the ones the gateway has decided. This sweep crosses tenant
	// boundaries; it is the reconciliation worker's entry point.
	ResolvePending(ctx context.Context, cutoff time.Time, limit int32) (int, error)
}

// ChargeOrderParams contains parameters for charging an order.
type ChargeOrderParams struct {
	OrderID     uuid.UUID `validate:"required"`
	CustomerID  uuid.UUID
	AmountCents int64  `validate:"required,gt=0"`
	Currency    string `validate:"omitempty,len=3"`
	Description string

	// CustomerRef identifies the paying customer at the gateway.
	CustomerRef string

	// IdempotencyKey deduplicates retried confirmations. It is recorded
	// as the transaction's payment reference.
	IdempotencyKey string `validate:"required"`

	// OverrideAuthorization records the payment even when it exceeds the
	// customer's authorized ceiling. The override is stored on the
	// transaction for audit.
	OverrideAuthorization bool
}

// RefundPaymentParams contains parameters for refunding a payment.
type RefundPaymentParams struct {
	TransactionID uuid.UUID `validate:"required"`

	// AmountCents refunds a partial amount; zero refunds the full payment.
	AmountCents int64 `validate:"gte=0"`

	// Reason: "duplicate", "fraudulent", "requested_by_customer".
	Reason string
}

// RecordTransactionParams contains parameters for a manual ledger entry.
type RecordTransactionParams struct {
	OrderID     uuid.UUID                `validate:"required"`
	CustomerID  uuid.UUID
	Kind        domain.TransactionKind   `validate:"required,oneof=payment refund authorization_hold adjustment"`
	Status      domain.TransactionStatus `validate:"required,oneof=pending succeeded failed"`
	AmountCents int64                    `validate:"required,gt=0"`
	Gateway     string                   `validate:"required"`

	// PaymentReference scopes duplicate detection per gateway. Optional
	// for cash-drawer style entries.
	PaymentReference string

	OverrideAuthorization bool
	FailureReason         string

	// reclaimReference absorbs a pending placeholder row recorded under
	// the charge's idempotency key during a gateway timeout: when set and
	// an open row carries it, that row is rewritten with the learned
	// intent ID instead of inserting a second row.
	reclaimReference string
}

// PaymentResult pairs the recorded transaction with the gateway's answer.
// Charge is nil when no gateway call was made (duplicate no-op).
type PaymentResult struct {
	Transaction repository.Transaction
	Charge      *billing.ChargeResult
}

type ledgerService struct {
	store    Store
	provider billing.Provider
	tenantID pgtype.UUID
	tenant   string
	logger   *slog.Logger
}

// NewLedgerService creates a LedgerService scoped to one tenant, backed by
// the given payment provider.
func NewLedgerService(store Store, provider billing.Provider, tenantID string, logger *slog.Logger) (LedgerService, error) {
	var tenantUUID pgtype.UUID
	if err := tenantUUID.Scan(tenantID); err != nil {
		return nil, fmt.Errorf("invalid tenant ID: %w", err)
	}

	return &ledgerService{
		store:    store,
		provider: provider,
		tenantID: tenantUUID,
		tenant:   tenantID,
		logger:   logger,
	}, nil
}

func (s *ledgerService) ChargeOrder(ctx context.Context, params ChargeOrderParams) (*PaymentResult, error) {
	const op = "service.ledger.charge"

	if err := validate.Struct(params); err != nil {
		return nil, domain.WrapError(err, domain.EINVALID, op, "invalid charge")
	}
	currency := params.Currency
	if currency == "" {
		currency = "usd"
	}
	gateway := s.provider.Name()

	// Pre-flight outside any lock: reject over-ceiling charges before
	// money moves at the gateway. Retried idempotency keys are absorbed
	// after the call, once the gateway has echoed back the same intent.
	txns, err := s.store.ListTransactions(ctx, repository.ListTransactionsParams{
		TenantID: s.tenantID,
		OrderID:  repository.UUID(params.OrderID),
	})
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "list transactions")
	}
	if !params.OverrideAuthorization {
		authorized, err := s.store.SumActiveAuthorizations(ctx, repository.ListAuthorizationsParams{
			TenantID: s.tenantID,
			OrderID:  repository.UUID(params.OrderID),
		})
		if err != nil {
			return nil, domain.WrapError(err, domain.EINTERNAL, op, "sum authorizations")
		}
		if ledger.ExceedsAuthorization(authorized, params.AmountCents, ledgerEntries(txns)) {
			if telemetry.Business != nil {
				telemetry.Business.AuthorizationBlocked.WithLabelValues(s.tenant).Inc()
			}
			return nil, ErrOverAuthorization
		}
	}

	if telemetry.Business != nil {
		telemetry.Business.PaymentAttempts.WithLabelValues(s.tenant, gateway).Inc()
	}

	start := time.Now()
	charge, err := s.provider.CreateCharge(ctx, billing.CreateChargeParams{
		AmountCents:    params.AmountCents,
		Currency:       currency,
		CustomerRef:    params.CustomerRef,
		Description:    params.Description,
		IdempotencyKey: params.IdempotencyKey,
		Metadata: map[string]string{
			"order_id":  params.OrderID.String(),
			"tenant_id": s.tenant,
		},
	})
	if telemetry.Business != nil {
		telemetry.Business.GatewayLatency.WithLabelValues(gateway, "create_charge").Observe(time.Since(start).Seconds())
	}
	switch {
	case err == nil:
		// Fall through to record the gateway's answer.
	case billing.IsTimeout(err):
		// Outcome unknown: the provider may have opened the charge. The
		// ledger keeps a pending row under the idempotency key so the
		// reconciliation sweep or a retried confirmation can reclaim it
		// with the real intent ID; a dropped error here would orphan a
		// charge the gateway settled.
		s.logger.WarnContext(ctx, "gateway charge timed out, recording pending",
			slog.String("order_id", params.OrderID.String()),
			slog.String("idempotency_key", params.IdempotencyKey),
		)
		txn, recErr := s.record(ctx, op, RecordTransactionParams{
			OrderID:               params.OrderID,
			CustomerID:            params.CustomerID,
			Kind:                  domain.TxnPayment,
			Status:                domain.TxnPending,
			AmountCents:           params.AmountCents,
			Gateway:               gateway,
			PaymentReference:      params.IdempotencyKey,
			OverrideAuthorization: params.OverrideAuthorization,
		})
		if recErr != nil {
			return nil, recErr
		}
		return &PaymentResult{Transaction: txn}, nil
	case billing.IsRejected(err):
		// Terminal refusal: the balance is unaffected but the attempt
		// stays on the record.
		if _, recErr := s.record(ctx, op, RecordTransactionParams{
			OrderID:               params.OrderID,
			CustomerID:            params.CustomerID,
			Kind:                  domain.TxnPayment,
			Status:                domain.TxnFailed,
			AmountCents:           params.AmountCents,
			Gateway:               gateway,
			PaymentReference:      params.IdempotencyKey,
			OverrideAuthorization: params.OverrideAuthorization,
			FailureReason:         err.Error(),
		}); recErr != nil {
			return nil, recErr
		}
		return nil, domain.WrapError(err, domain.EPAYMENT, op, "gateway charge")
	default:
		// No charge was opened (bad key, amount below minimum): nothing
		// to reconcile.
		return nil, domain.WrapError(err, domain.EPAYMENT, op, "gateway charge")
	}

	txn, err := s.record(ctx, op, RecordTransactionParams{
		OrderID:               params.OrderID,
		CustomerID:            params.CustomerID,
		Kind:                  domain.TxnPayment,
		Status:                txnStatus(charge.Status),
		AmountCents:           params.AmountCents,
		Gateway:               gateway,
		PaymentReference:      charge.IntentID,
		OverrideAuthorization: params.OverrideAuthorization,
		FailureReason:         charge.FailureMessage,
		reclaimReference:      params.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	return &PaymentResult{Transaction: txn, Charge: charge}, nil
}

func (s *ledgerService) RefundPayment(ctx context.Context, params RefundPaymentParams) (*PaymentResult, error) {
	const op = "service.ledger.refund"

	if err := validate.Struct(params); err != nil {
		return nil, domain.WrapError(err, domain.EINVALID, op, "invalid refund")
	}

	payment, err := s.store.GetTransaction(ctx, repository.GetTransactionParams{
		TenantID: s.tenantID,
		ID:       repository.UUID(params.TransactionID),
	})
	if err != nil {
		return nil, mapTxnErr(err, op)
	}
	if payment.Kind != string(domain.TxnPayment) || payment.Status != string(domain.TxnSucceeded) {
		return nil, ErrNotRefundable
	}

	amount := params.AmountCents
	if amount == 0 {
		amount = payment.AmountCents
	}
	if amount > payment.AmountCents {
		return nil, domain.Invalid(op, "refund exceeds payment amount")
	}

	gateway := s.provider.Name()
	start := time.Now()
	refund, err := s.provider.CreateRefund(ctx, billing.CreateRefundParams{
		IntentID:    repository.FromText(payment.PaymentReference),
		AmountCents: params.AmountCents,
		Reason:      params.Reason,
	})
	if telemetry.Business != nil {
		telemetry.Business.GatewayLatency.WithLabelValues(gateway, "create_refund").Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, domain.WrapError(err, domain.EPAYMENT, op, "gateway refund")
	}

	txn, err := s.record(ctx, op, RecordTransactionParams{
		OrderID:          repository.FromUUID(payment.OrderID),
		CustomerID:       repository.FromUUID(payment.CustomerID),
		Kind:             domain.TxnRefund,
		Status:           txnStatus(refund.Status),
		AmountCents:      amount,
		Gateway:          gateway,
		PaymentReference: refund.RefundID,
	})
	if err != nil {
		return nil, err
	}

	return &PaymentResult{Transaction: txn}, nil
}

func (s *ledgerService) RecordTransaction(ctx context.Context, params RecordTransactionParams) (repository.Transaction, error) {
	const op = "service.ledger.record"

	if err := validate.Struct(params); err != nil {
		return repository.Transaction{}, domain.WrapError(err, domain.EINVALID, op, "invalid transaction")
	}
	return s.record(ctx, op, params)
}

// record writes a ledger entry under the order's row lock. The duplicate
// and authorization guards re-run inside the transaction so concurrent
// writers serialize on the same decision.
func (s *ledgerService) record(ctx context.Context, op string, params RecordTransactionParams) (repository.Transaction, error) {
	var out repository.Transaction
	var duplicate bool
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		order, err := q.GetOrderForUpdate(ctx, repository.GetOrderParams{
			TenantID: s.tenantID,
			ID:       repository.UUID(params.OrderID),
		})
		if err != nil {
			return mapOrderErr(err, op)
		}
		// Refunds and adjustments stay legal after tombstoning: the
		// financial record must remain correctable. New payments do not.
		if order.Deleted && params.Kind == domain.TxnPayment {
			return ErrOrderTombstone
		}

		txns, err := q.ListTransactions(ctx, repository.ListTransactionsParams{
			TenantID: s.tenantID,
			OrderID:  order.ID,
		})
		if err != nil {
			return domain.WrapError(err, domain.EINTERNAL, op, "list transactions")
		}

		// A reference already recorded as succeeded or still pending on
		// this gateway means a retried confirmation: absorb it without a
		// second row. Failed attempts may be retried with a fresh row.
		if dup := findOpenReference(txns, params.Gateway, params.PaymentReference); dup != nil {
			if telemetry.Business != nil {
				telemetry.Business.DuplicateSuppressed.WithLabelValues(s.tenant, params.Gateway).Inc()
			}
			duplicate = true
			out = *dup
			return nil
		}

		// A timeout placeholder recorded under the idempotency key is
		// rewritten in place once the gateway's intent ID is known.
		var placeholder *repository.Transaction
		if params.reclaimReference != "" && params.reclaimReference != params.PaymentReference {
			if ph := findOpenReference(txns, params.Gateway, params.reclaimReference); ph != nil && ph.Status == string(domain.TxnPending) {
				placeholder = ph
			}
		}

		if params.Kind == domain.TxnPayment && params.Status == domain.TxnSucceeded && !params.OverrideAuthorization {
			authorized, err := q.SumActiveAuthorizations(ctx, repository.ListAuthorizationsParams{
				TenantID: s.tenantID,
				OrderID:  order.ID,
			})
			if err != nil {
				return domain.WrapError(err, domain.EINTERNAL, op, "sum authorizations")
			}
			if ledger.ExceedsAuthorization(authorized, params.AmountCents, ledgerEntries(txns)) {
				if telemetry.Business != nil {
					telemetry.Business.AuthorizationBlocked.WithLabelValues(s.tenant).Inc()
				}
				return ErrOverAuthorization
			}
		}

		if placeholder != nil {
			out, err = q.UpdateTransactionReference(ctx, repository.UpdateTransactionReferenceParams{
				TenantID:         s.tenantID,
				ID:               placeholder.ID,
				PaymentReference: repository.Text(params.PaymentReference),
				Status:           string(params.Status),
				FailureReason:    repository.Text(params.FailureReason),
			})
			if err != nil {
				return domain.WrapError(err, domain.EINTERNAL, op, "reclaim transaction")
			}
			return nil
		}

		out, err = q.CreateTransaction(ctx, repository.CreateTransactionParams{
			TenantID:              s.tenantID,
			OrderID:               order.ID,
			CustomerID:            repository.UUID(params.CustomerID),
			Kind:                  string(params.Kind),
			AmountCents:           params.AmountCents,
			Status:                string(params.Status),
			Gateway:               params.Gateway,
			PaymentReference:      repository.Text(params.PaymentReference),
			OverrideAuthorization: params.OverrideAuthorization,
			FailureReason:         repository.Text(params.FailureReason),
		})
		if err != nil {
			return domain.WrapError(err, domain.EINTERNAL, op, "create transaction")
		}
		return nil
	})
	if err != nil {
		return repository.Transaction{}, err
	}
	if duplicate {
		return out, nil
	}

	s.observeSettled(params.Kind, domain.TransactionStatus(out.Status), out.AmountCents, params.Gateway, params.FailureReason)

	s.logger.InfoContext(ctx, "transaction recorded",
		slog.String("transaction_id", repository.FromUUID(out.ID).String()),
		slog.String("order_id", params.OrderID.String()),
		slog.String("kind", out.Kind),
		slog.String("status", out.Status),
		slog.Int64("amount_cents", out.AmountCents),
	)
	return out, nil
}

func (s *ledgerService) SettleTransaction(ctx context.Context, txnID uuid.UUID, status domain.TransactionStatus, failureReason string) (repository.Transaction, error) {
	const op = "service.ledger.settle"

	if status != domain.TxnSucceeded && status != domain.TxnFailed {
		return repository.Transaction{}, ErrInvalidTransition
	}
	return s.transition(ctx, op, txnID, status, failureReason)
}

func (s *ledgerService) SettlePaymentReference(ctx context.Context, reference string, status domain.TransactionStatus, failureReason string) (repository.Transaction, error) {
	const op = "service.ledger.settle_reference"

	if reference == "" {
		return repository.Transaction{}, ErrMissingReference
	}
	if status != domain.TxnSucceeded && status != domain.TxnFailed {
		return repository.Transaction{}, ErrInvalidTransition
	}

	txn, err := s.store.GetTransactionByReference(ctx, repository.GetTransactionByReferenceParams{
		TenantID:         s.tenantID,
		Gateway:          s.provider.Name(),
		PaymentReference: repository.Text(reference),
	})
	if err != nil {
		return repository.Transaction{}, mapTxnErr(err, op)
	}
	// The gateway may push an event after the reconciliation sweep already
	// settled the row. Same terminal status means nothing to do.
	if txn.Status == string(status) {
		return txn, nil
	}
	return s.transition(ctx, op, repository.FromUUID(txn.ID), status, failureReason)
}

func (s *ledgerService) VoidTransaction(ctx context.Context, txnID uuid.UUID) (repository.Transaction, error) {
	const op = "service.ledger.void"
	return s.transition(ctx, op, txnID, domain.TxnVoided, "")
}

// transition applies a status change under the order lock, enforcing the
// append-only transition rules.
func (s *ledgerService) transition(ctx context.Context, op string, txnID uuid.UUID, to domain.TransactionStatus, failureReason string) (repository.Transaction, error) {
	var out repository.Transaction
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		txn, err := q.GetTransaction(ctx, repository.GetTransactionParams{
			TenantID: s.tenantID,
			ID:       repository.UUID(txnID),
		})
		if err != nil {
			return mapTxnErr(err, op)
		}

		if _, err := q.GetOrderForUpdate(ctx, repository.GetOrderParams{
			TenantID: s.tenantID,
			ID:       txn.OrderID,
		}); err != nil {
			return mapOrderErr(err, op)
		}

		// Re-read under the lock; a concurrent settle may have won.
		txn, err = q.GetTransaction(ctx, repository.GetTransactionParams{
			TenantID: s.tenantID,
			ID:       repository.UUID(txnID),
		})
		if err != nil {
			return mapTxnErr(err, op)
		}

		if !domain.CanTransition(domain.TransactionKind(txn.Kind), domain.TransactionStatus(txn.Status), to) {
			return ErrInvalidTransition
		}

		// The ceiling is checked when a succeeded payment is recorded,
		// but a payment recorded as pending bypasses that. Re-check at
		// settlement so the pending path cannot cross the ceiling
		// without an explicit override on the row.
		if to == domain.TxnSucceeded && txn.Kind == string(domain.TxnPayment) && !txn.OverrideAuthorization {
			txns, err := q.ListTransactions(ctx, repository.ListTransactionsParams{
				TenantID: s.tenantID,
				OrderID:  txn.OrderID,
			})
			if err != nil {
				return domain.WrapError(err, domain.EINTERNAL, op, "list transactions")
			}
			authorized, err := q.SumActiveAuthorizations(ctx, repository.ListAuthorizationsParams{
				TenantID: s.tenantID,
				OrderID:  txn.OrderID,
			})
			if err != nil {
				return domain.WrapError(err, domain.EINTERNAL, op, "sum authorizations")
			}
			// The settling row is still pending in txns and contributes
			// nothing to the paid total; its amount is the candidate.
			if ledger.ExceedsAuthorization(authorized, txn.AmountCents, ledgerEntries(txns)) {
				if telemetry.Business != nil {
					telemetry.Business.AuthorizationBlocked.WithLabelValues(s.tenant).Inc()
				}
				return ErrOverAuthorization
			}
		}

		out, err = q.UpdateTransactionStatus(ctx, repository.UpdateTransactionStatusParams{
			TenantID:      s.tenantID,
			ID:            repository.UUID(txnID),
			Status:        string(to),
			FailureReason: repository.Text(failureReason),
		})
		if err != nil {
			return domain.WrapError(err, domain.EINTERNAL, op, "update status")
		}
		return nil
	})
	if err != nil {
		return repository.Transaction{}, err
	}

	s.observeSettled(domain.TransactionKind(out.Kind), to, out.AmountCents, out.Gateway, failureReason)

	s.logger.InfoContext(ctx, "transaction settled",
		slog.String("transaction_id", txnID.String()),
		slog.String("kind", out.Kind),
		slog.String("status", out.Status),
	)
	return out, nil
}

func (s *ledgerService) Balance(ctx context.Context, orderID uuid.UUID) (*ledger.Balance, error) {
	const op = "service.ledger.balance"

	order, err := s.store.GetOrder(ctx, repository.GetOrderParams{
		TenantID: s.tenantID,
		ID:       repository.UUID(orderID),
	})
	if err != nil {
		return nil, mapOrderErr(err, op)
	}

	txns, err := s.store.ListTransactions(ctx, repository.ListTransactionsParams{
		TenantID: s.tenantID,
		OrderID:  order.ID,
	})
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "list transactions")
	}

	authorized, err := s.store.SumActiveAuthorizations(ctx, repository.ListAuthorizationsParams{
		TenantID: s.tenantID,
		OrderID:  order.ID,
	})
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "sum authorizations")
	}

	b := ledger.Compute(order.CalculatedTotalCents, authorized, ledgerEntries(txns))
	return &b, nil
}

func (s *ledgerService) Authorize(ctx context.Context, orderID uuid.UUID, amountCents int64) (repository.Authorization, error) {
	const op = "service.ledger.authorize"

	if amountCents <= 0 {
		return repository.Authorization{}, ErrInvalidAmount
	}

	order, err := s.store.GetOrder(ctx, repository.GetOrderParams{
		TenantID: s.tenantID,
		ID:       repository.UUID(orderID),
	})
	if err != nil {
		return repository.Authorization{}, mapOrderErr(err, op)
	}
	if order.Deleted {
		return repository.Authorization{}, ErrOrderTombstone
	}

	auth, err := s.store.CreateAuthorization(ctx, repository.CreateAuthorizationParams{
		TenantID:            s.tenantID,
		OrderID:             order.ID,
		AuthorizedCostCents: amountCents,
	})
	if err != nil {
		return repository.Authorization{}, domain.WrapError(err, domain.EINTERNAL, op, "create authorization")
	}
	return auth, nil
}

func (s *ledgerService) ReleaseAuthorization(ctx context.Context, authorizationID uuid.UUID) error {
	const op = "service.ledger.release_authorization"

	if err := s.store.DeactivateAuthorization(ctx, repository.DeactivateAuthorizationParams{
		TenantID: s.tenantID,
		ID:       repository.UUID(authorizationID),
	}); err != nil {
		return domain.WrapError(err, domain.EINTERNAL, op, "deactivate authorization")
	}
	return nil
}

func (s *ledgerService) ResolvePending(ctx context.Context, cutoff time.Time, limit int32) (int, error) {
	const op = "service.ledger.resolve_pending"

	stale, err := s.store.ListPendingTransactionsBefore(ctx, repository.ListPendingTransactionsBeforeParams{
		CreatedBefore: cutoff,
		Limit:         limit,
	})
	if err != nil {
		return 0, domain.WrapError(err, domain.EINTERNAL, op, "list pending")
	}
	if telemetry.Business != nil {
		telemetry.Business.PendingStale.Set(float64(len(stale)))
	}

	gateway := s.provider.Name()
	resolved := 0
	for _, txn := range stale {
		if txn.Gateway != gateway {
			// Manual entries settle through SettleTransaction, not here.
			continue
		}

		start := time.Now()
		status, err := s.provider.GetStatus(ctx, repository.FromText(txn.PaymentReference))
		if telemetry.Business != nil {
			telemetry.Business.GatewayLatency.WithLabelValues(gateway, "get_status").Observe(time.Since(start).Seconds())
		}
		if err != nil {
			// A payment row the gateway cannot find is a charge recorded
			// during a timeout, still referenced by its idempotency key.
			if errors.Is(err, billing.ErrChargeNotFound) && txn.Kind == string(domain.TxnPayment) {
				settled, rErr := s.reclaimStale(ctx, txn)
				if rErr != nil {
					s.observeResolved("error")
					s.logger.WarnContext(ctx, "stale charge reclaim failed",
						slog.String("transaction_id", repository.FromUUID(txn.ID).String()),
						slog.String("error", rErr.Error()),
					)
					continue
				}
				if settled {
					s.observeResolved("reclaimed")
					resolved++
				} else {
					s.observeResolved("still_pending")
				}
				continue
			}
			s.observeResolved("error")
			s.logger.WarnContext(ctx, "gateway status poll failed",
				slog.String("transaction_id", repository.FromUUID(txn.ID).String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		if status == billing.StatusPending {
			s.observeResolved("still_pending")
			continue
		}

		if err := s.settleStale(ctx, txn, txnStatus(status)); err != nil {
			s.observeResolved("error")
			s.logger.ErrorContext(ctx, "failed to settle stale transaction",
				slog.String("transaction_id", repository.FromUUID(txn.ID).String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		s.observeResolved(string(status))
		resolved++
	}

	return resolved, nil
}

// reclaimStale re-issues the charge for a pending payment row still
// carrying its idempotency key as the payment reference. The gateway
// deduplicates on the key, so this recovers whatever intent the timed-out
// call opened, or opens the one it never placed; either way the row gains
// a real intent ID to poll. No funds move without a separate confirmation.
func (s *ledgerService) reclaimStale(ctx context.Context, txn repository.Transaction) (bool, error) {
	const op = "service.ledger.reclaim_stale"

	gateway := s.provider.Name()
	start := time.Now()
	charge, err := s.provider.CreateCharge(ctx, billing.CreateChargeParams{
		AmountCents:    txn.AmountCents,
		Currency:       "usd",
		IdempotencyKey: repository.FromText(txn.PaymentReference),
		Metadata: map[string]string{
			"order_id":  repository.FromUUID(txn.OrderID).String(),
			"tenant_id": repository.FromUUID(txn.TenantID).String(),
		},
	})
	if telemetry.Business != nil {
		telemetry.Business.GatewayLatency.WithLabelValues(gateway, "create_charge").Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return false, err
	}

	status := txnStatus(charge.Status)
	err = s.store.ExecTx(ctx, func(q repository.Querier) error {
		if _, err := q.GetOrderForUpdate(ctx, repository.GetOrderParams{
			TenantID: txn.TenantID,
			ID:       txn.OrderID,
		}); err != nil {
			return mapOrderErr(err, op)
		}

		current, err := q.GetTransaction(ctx, repository.GetTransactionParams{
			TenantID: txn.TenantID,
			ID:       txn.ID,
		})
		if err != nil {
			return mapTxnErr(err, op)
		}
		if current.Status != string(domain.TxnPending) {
			return nil
		}

		if _, err := q.UpdateTransactionReference(ctx, repository.UpdateTransactionReferenceParams{
			TenantID:         txn.TenantID,
			ID:               txn.ID,
			PaymentReference: repository.Text(charge.IntentID),
			Status:           string(status),
			FailureReason:    repository.Text(charge.FailureMessage),
		}); err != nil {
			return domain.WrapError(err, domain.EINTERNAL, op, "reclaim transaction")
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return status != domain.TxnPending, nil
}

// settleStale settles one polled transaction under its order's lock. The
// sweep crosses tenants, so scoping comes from the row itself rather than
// the service's tenant.
func (s *ledgerService) settleStale(ctx context.Context, txn repository.Transaction, to domain.TransactionStatus) error {
	const op = "service.ledger.settle_stale"

	return s.store.ExecTx(ctx, func(q repository.Querier) error {
		if _, err := q.GetOrderForUpdate(ctx, repository.GetOrderParams{
			TenantID: txn.TenantID,
			ID:       txn.OrderID,
		}); err != nil {
			return mapOrderErr(err, op)
		}

		current, err := q.GetTransaction(ctx, repository.GetTransactionParams{
			TenantID: txn.TenantID,
			ID:       txn.ID,
		})
		if err != nil {
			return mapTxnErr(err, op)
		}
		if current.Status != string(domain.TxnPending) {
			return nil
		}

		_, err = q.UpdateTransactionStatus(ctx, repository.UpdateTransactionStatusParams{
			TenantID: txn.TenantID,
			ID:       txn.ID,
			Status:   string(to),
		})
		if err != nil {
			return domain.WrapError(err, domain.EINTERNAL, op, "update status")
		}
		return nil
	})
}

func (s *ledgerService) observeSettled(kind domain.TransactionKind, status domain.TransactionStatus, amountCents int64, gateway, failureReason string) {
	if telemetry.Business == nil {
		return
	}
	switch {
	case kind == domain.TxnPayment && status == domain.TxnSucceeded:
		telemetry.Business.PaymentSucceeded.WithLabelValues(s.tenant, gateway).Inc()
		telemetry.Business.RevenueCollected.WithLabelValues(s.tenant, gateway).Add(float64(amountCents))
	case kind == domain.TxnPayment && status == domain.TxnFailed:
		telemetry.Business.PaymentFailed.WithLabelValues(s.tenant, gateway, failureReason).Inc()
	case kind == domain.TxnRefund && status == domain.TxnSucceeded:
		telemetry.Business.RefundsIssued.WithLabelValues(s.tenant, gateway).Inc()
		telemetry.Business.RefundAmount.WithLabelValues(s.tenant).Add(float64(amountCents))
	}
}

func (s *ledgerService) observeResolved(outcome string) {
	if telemetry.Business != nil {
		telemetry.Business.PendingResolved.WithLabelValues(outcome).Inc()
	}
}

// txnStatus maps the gateway's normalized status onto the ledger's.
func txnStatus(status billing.ChargeStatus) domain.TransactionStatus {
	switch status {
	case billing.StatusSucceeded:
		return domain.TxnSucceeded
	case billing.StatusFailed:
		return domain.TxnFailed
	default:
		return domain.TxnPending
	}
}

// findOpenReference matches any non-failed transaction carrying the given
// reference, so a retried charge neither re-hits the gateway nor records a
// second row while the first is still pending.
func findOpenReference(txns []repository.Transaction, gateway, reference string) *repository.Transaction {
	if reference == "" {
		return nil
	}
	for i := range txns {
		t := &txns[i]
		if t.Gateway != gateway || repository.FromText(t.PaymentReference) != reference {
			continue
		}
		if t.Status == string(domain.TxnSucceeded) || t.Status == string(domain.TxnPending) {
			return t
		}
	}
	return nil
}

// mapTxnErr converts driver-level lookup failures into domain errors.
func mapTxnErr(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrTransactionNotFound
	}
	return domain.WrapError(err, domain.EINTERNAL, op, "load transaction")
}

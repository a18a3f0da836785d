// Package ledger computes balance state from an order's append-only
// transaction set. Like pricing, everything here is pure; the ledger
// service owns persistence and the order-scoped lock.
package ledger

import (
	"github.com/google/uuid"

	"github.com/harborworks/drydock/internal/domain"
)

// Transaction is the minimal view of a ledger entry needed for balance
// computation. Amounts are unsigned; Kind carries the sign.
type Transaction struct {
	ID               uuid.UUID
	Kind             domain.TransactionKind
	Status           domain.TransactionStatus
	AmountCents      int64
	Gateway          string
	PaymentReference string
}

// Balance is the reconciled financial state of an order.
// DueCents is never negative: overpayment is reported via CreditCents,
// never folded into a negative due amount.
type Balance struct {
	TotalCents      int64
	PaidCents       int64
	RefundedCents   int64
	AdjustedCents   int64
	PendingCents    int64
	DueCents        int64
	CreditCents     int64
	AuthorizedCents int64

	// UncollectedCents is the authorized-but-uncollected headroom:
	// the active authorization ceiling minus net collected funds.
	UncollectedCents int64
}

// Compute derives the balance for an order whose authoritative total is
// totalCents and whose active authorization ceiling sums to
// authorizedCents (zero when no authorizations exist).
func Compute(totalCents, authorizedCents int64, txns []Transaction) Balance {
	b := Balance{
		TotalCents:      totalCents,
		AuthorizedCents: authorizedCents,
	}

	for _, txn := range txns {
		switch txn.Status {
		case domain.TxnSucceeded:
			switch txn.Kind {
			case domain.TxnPayment:
				b.PaidCents += txn.AmountCents
			case domain.TxnRefund:
				b.RefundedCents += txn.AmountCents
			case domain.TxnAdjustment:
				b.AdjustedCents += txn.AmountCents
			}
		case domain.TxnPending:
			if txn.Kind == domain.TxnPayment {
				b.PendingCents += txn.AmountCents
			}
		}
	}

	net := b.PaidCents - b.RefundedCents
	if due := totalCents - net; due > 0 {
		b.DueCents = due
	} else {
		b.CreditCents = -due
	}

	if headroom := authorizedCents - net; headroom > 0 {
		b.UncollectedCents = headroom
	}

	return b
}

// ExceedsAuthorization reports whether recording a succeeded payment of
// amountCents on top of the existing transactions would push the net paid
// total past the active authorization ceiling. A zero ceiling means no
// authorizations exist and nothing is enforced.
func ExceedsAuthorization(authorizedCents, amountCents int64, txns []Transaction) bool {
	if authorizedCents <= 0 {
		return false
	}

	b := Compute(0, authorizedCents, txns)
	return b.PaidCents-b.RefundedCents+amountCents > authorizedCents
}

// FindByReference returns the succeeded transaction carrying the given
// idempotency key on the given gateway, or nil. Used for the
// DuplicateReference guard against retried client confirmations.
func FindByReference(txns []Transaction, gateway, reference string) *Transaction {
	if reference == "" {
		return nil
	}
	for i := range txns {
		t := &txns[i]
		if t.Status == domain.TxnSucceeded && t.Gateway == gateway && t.PaymentReference == reference {
			return t
		}
	}
	return nil
}

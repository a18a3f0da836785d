package domain

// TransactionKind classifies a ledger entry. Amounts are stored unsigned;
// the kind carries the sign (payments increase the paid total, refunds
// decrease it).
type TransactionKind string

const (
	TxnPayment           TransactionKind = "payment"
	TxnRefund            TransactionKind = "refund"
	TxnAuthorizationHold TransactionKind = "authorization_hold"
	TxnAdjustment        TransactionKind = "adjustment"
)

// TransactionStatus is the settlement state of a ledger entry.
type TransactionStatus string

const (
	TxnPending   TransactionStatus = "pending"
	TxnSucceeded TransactionStatus = "succeeded"
	TxnFailed    TransactionStatus = "failed"
	TxnVoided    TransactionStatus = "voided"
)

// CanTransition reports whether a transaction of the given kind may move
// from one status to another. The ledger is append-only: a succeeded
// payment is corrected by adding a refund transaction, never by voiding or
// mutating it, so succeeded -> voided is allowed for refund kinds only.
func CanTransition(kind TransactionKind, from, to TransactionStatus) bool {
	switch from {
	case TxnPending:
		return to == TxnSucceeded || to == TxnFailed
	case TxnSucceeded:
		return to == TxnVoided && kind == TxnRefund
	default:
		return false
	}
}

// Transaction domain errors.
var (
	ErrTransactionNotFound = &Error{Code: ENOTFOUND, Message: "Transaction not found"}
	ErrDuplicateReference  = &Error{Code: ECONFLICT, Message: "Payment reference already recorded for this gateway"}
	ErrOverAuthorization   = &Error{Code: EPAYMENT, Message: "Payment would exceed authorized ceiling"}
	ErrInvalidTransition   = &Error{Code: ECONFLICT, Message: "Invalid transaction status transition"}
)

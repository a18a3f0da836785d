package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/harborworks/drydock/internal/domain"
	"github.com/harborworks/drydock/internal/service"
)

// LedgerHandler exposes the transaction ledger as JSON endpoints: charges,
// refunds, manual entries, settlement transitions and authorizations.
type LedgerHandler struct {
	ledger service.LedgerService
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(ledger service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

type chargeRequest struct {
	CustomerID            uuid.UUID `json:"customer_id"`
	AmountCents           int64     `json:"amount_cents"`
	Currency              string    `json:"currency"`
	Description           string    `json:"description"`
	CustomerRef           string    `json:"customer_ref"`
	IdempotencyKey        string    `json:"idempotency_key"`
	OverrideAuthorization bool      `json:"override_authorization"`
}

type chargeResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	IntentID    string              `json:"intent_id,omitempty"`
}

// Charge handles POST /api/v1/orders/{order_id}/charges
// Retrying with the same idempotency key returns the original transaction.
func (h *LedgerHandler) Charge(w http.ResponseWriter, r *http.Request) {
	orderID, err := PathUUID(r, "order_id")
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	var req chargeRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	result, err := h.ledger.ChargeOrder(r.Context(), service.ChargeOrderParams{
		OrderID:               orderID,
		CustomerID:            req.CustomerID,
		AmountCents:           req.AmountCents,
		Currency:              req.Currency,
		Description:           req.Description,
		CustomerRef:           req.CustomerRef,
		IdempotencyKey:        req.IdempotencyKey,
		OverrideAuthorization: req.OverrideAuthorization,
	})
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	resp := chargeResponse{Transaction: newTransactionResponse(result.Transaction)}
	if result.Charge != nil {
		resp.IntentID = result.Charge.IntentID
	}
	RespondJSON(w, http.StatusCreated, resp)
}

// Balance handles GET /api/v1/orders/{order_id}/balance
func (h *LedgerHandler) Balance(w http.ResponseWriter, r *http.Request) {
	orderID, err := PathUUID(r, "order_id")
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	balance, err := h.ledger.Balance(r.Context(), orderID)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, newBalanceResponse(balance))
}

type recordTransactionRequest struct {
	CustomerID            uuid.UUID `json:"customer_id"`
	Kind                  string    `json:"kind"`
	Status                string    `json:"status"`
	AmountCents           int64     `json:"amount_cents"`
	Gateway               string    `json:"gateway"`
	PaymentReference      string    `json:"payment_reference"`
	OverrideAuthorization bool      `json:"override_authorization"`
	FailureReason         string    `json:"failure_reason"`
}

// RecordTransaction handles POST /api/v1/orders/{order_id}/transactions
// Records ledger entries that bypass the gateway adapter: counter
// payments, external terminal captures, writeoffs.
func (h *LedgerHandler) RecordTransaction(w http.ResponseWriter, r *http.Request) {
	orderID, err := PathUUID(r, "order_id")
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	var req recordTransactionRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	txn, err := h.ledger.RecordTransaction(r.Context(), service.RecordTransactionParams{
		OrderID:               orderID,
		CustomerID:            req.CustomerID,
		Kind:                  domain.TransactionKind(req.Kind),
		Status:                domain.TransactionStatus(req.Status),
		AmountCents:           req.AmountCents,
		Gateway:               req.Gateway,
		PaymentReference:      req.PaymentReference,
		OverrideAuthorization: req.OverrideAuthorization,
		FailureReason:         req.FailureReason,
	})
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	RespondJSON(w, http.StatusCreated, newTransactionResponse(txn))
}

type refundRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Reason      string `json:"reason"`
}

// Refund handles POST /api/v1/transactions/{transaction_id}/refund
// Zero amount_cents refunds the full payment.
func (h *LedgerHandler) Refund(w http.ResponseWriter, r *http.Request) {
	txnID, err := PathUUID(r, "transaction_id")
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	var req refundRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	result, err := h.ledger.RefundPayment(r.Context(), service.RefundPaymentParams{
		TransactionID: txnID,
		AmountCents:   req.AmountCents,
		Reason:        req.Reason,
	})
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	RespondJSON(w, http.StatusCreated, newTransactionResponse(result.Transaction))
}

type settleRequest struct {
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason"`
}

// Settle handles POST /api/v1/transactions/{transaction_id}/settle
// Moves a pending transaction to succeeded or failed.
func (h *LedgerHandler) Settle(w http.ResponseWriter, r *http.Request) {
	txnID, err := PathUUID(r, "transaction_id")
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	var req settleRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	txn, err := h.ledger.SettleTransaction(r.Context(), txnID, domain.TransactionStatus(req.Status), req.FailureReason)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, newTransactionResponse(txn))
}

// Void handles POST /api/v1/transactions/{transaction_id}/void
// Only succeeded refunds can be voided; payments are corrected by refund.
func (h *LedgerHandler) Void(w http.ResponseWriter, r *http.Request) {
	txnID, err := PathUUID(r, "transaction_id")
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	txn, err := h.ledger.VoidTransaction(r.Context(), txnID)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, newTransactionResponse(txn))
}

type authorizeRequest struct {
	AmountCents int64 `json:"amount_cents"`
}

// Authorize handles POST /api/v1/orders/{order_id}/authorizations
func (h *LedgerHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	orderID, err := PathUUID(r, "order_id")
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	var req authorizeRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	auth, err := h.ledger.Authorize(r.Context(), orderID, req.AmountCents)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	RespondJSON(w, http.StatusCreated, newAuthorizationResponse(auth))
}

// ReleaseAuthorization handles DELETE /api/v1/authorizations/{authorization_id}
func (h *LedgerHandler) ReleaseAuthorization(w http.ResponseWriter, r *http.Request) {
	authID, err := PathUUID(r, "authorization_id")
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	if err := h.ledger.ReleaseAuthorization(r.Context(), authID); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

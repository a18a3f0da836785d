// Package webhook receives payment gateway push events. Webhook routes
// carry no auth middleware; each handler verifies the event signature
// itself.
package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v82"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"

	"github.com/harborworks/drydock/internal/domain"
	"github.com/harborworks/drydock/internal/handler"
	"github.com/harborworks/drydock/internal/service"
	"github.com/harborworks/drydock/internal/telemetry"
)

// StripeHandler settles pending ledger transactions from Stripe
// payment_intent events. It is the push-based counterpart of the
// reconciliation worker's poll: whichever side learns the outcome first
// settles the transaction, the other becomes a no-op.
type StripeHandler struct {
	ledger service.LedgerService
	config StripeWebhookConfig
	logger *slog.Logger
}

// StripeWebhookConfig contains configuration for Stripe webhook handling.
type StripeWebhookConfig struct {
	// WebhookSecret is the webhook signing secret from the Stripe dashboard.
	WebhookSecret string

	// TenantID scopes event processing. Events whose metadata carries a
	// different tenant_id are acknowledged but not applied.
	TenantID string
}

// NewStripeHandler creates a new Stripe webhook handler.
func NewStripeHandler(ledger service.LedgerService, config StripeWebhookConfig, logger *slog.Logger) *StripeHandler {
	return &StripeHandler{ledger: ledger, config: config, logger: logger}
}

// HandleWebhook processes incoming Stripe webhook events.
//
// Stripe CLI testing:
//
//	stripe listen --forward-to localhost:3000/webhooks/stripe
//	stripe trigger payment_intent.succeeded
func (h *StripeHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "", "Error reading request body"))
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EUNAUTHORIZED, "", "Missing signature"))
		return
	}

	event, err := stripewebhook.ConstructEvent(payload, signature, h.config.WebhookSecret)
	if err != nil {
		h.logger.Warn("webhook signature verification failed", "error", err)
		handler.ErrorResponse(w, r, domain.Errorf(domain.EUNAUTHORIZED, "", "Invalid signature"))
		return
	}

	if telemetry.Business != nil {
		telemetry.Business.WebhookReceived.WithLabelValues(h.config.TenantID, string(event.Type)).Inc()
		defer func() {
			telemetry.Business.WebhookLatency.WithLabelValues(h.config.TenantID, string(event.Type)).Observe(time.Since(start).Seconds())
		}()
	}

	switch event.Type {
	case "payment_intent.succeeded":
		h.settleIntent(r, event, domain.TxnSucceeded, "")

	case "payment_intent.payment_failed":
		h.settleIntent(r, event, domain.TxnFailed, "")

	case "payment_intent.canceled":
		h.settleIntent(r, event, domain.TxnFailed, "canceled")

	case "payment_intent.created":
		// Monitoring only; the charge flow already recorded the pending row.

	default:
		h.logger.Debug("unhandled webhook event type", "type", string(event.Type))
	}

	// Always acknowledge. Stripe retries on non-2xx, and every handler
	// above is idempotent, so a transient failure is better re-delivered.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"received": true}`))
}

// settleIntent settles the transaction carrying the event's intent ID.
func (h *StripeHandler) settleIntent(r *http.Request, event stripe.Event, status domain.TransactionStatus, reason string) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		h.logger.Error("failed to parse payment intent from webhook", "event_id", event.ID, "error", err)
		return
	}

	if tenant := intent.Metadata["tenant_id"]; tenant != "" && tenant != h.config.TenantID {
		h.logger.Warn("webhook event for foreign tenant ignored",
			"event_id", event.ID, "event_tenant", tenant)
		return
	}

	if reason == "" && intent.LastPaymentError != nil {
		reason = intent.LastPaymentError.Msg
	}

	_, err := h.ledger.SettlePaymentReference(r.Context(), intent.ID, status, reason)
	switch {
	case err == nil:
		h.logger.Info("webhook settled transaction",
			"intent_id", intent.ID, "status", string(status))
	case errors.Is(err, service.ErrTransactionNotFound):
		// The charge flow may not have recorded the row yet. The
		// reconciliation worker converges it from the gateway's status.
		h.logger.Info("webhook for unknown payment reference", "intent_id", intent.ID)
	case errors.Is(err, service.ErrInvalidTransition):
		// Already settled by the worker or an API call.
		h.logger.Debug("webhook for already-settled transaction", "intent_id", intent.ID)
	default:
		h.logger.Error("webhook settlement failed", "intent_id", intent.ID, "error", err)
	}
}

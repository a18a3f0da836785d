package billing

import (
	"context"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// StripeGateway implements Provider using the Stripe API.
type StripeGateway struct {
	cfg StripeConfig
	sc  *client.API
}

// NewStripeGateway creates a Stripe-backed payment gateway. The HTTP
// client carries the configured timeout so a hung provider call can never
// block a confirmation flow indefinitely.
func NewStripeGateway(cfg StripeConfig) (*StripeGateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	backendConfig := &stripe.BackendConfig{
		HTTPClient: &http.Client{Timeout: cfg.timeout()},
	}
	if cfg.MaxNetworkRetries > 0 {
		backendConfig.MaxNetworkRetries = stripe.Int64(int64(cfg.MaxNetworkRetries))
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig)
	sc := &client.API{}
	sc.Init(cfg.APIKey, &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})

	return &StripeGateway{cfg: cfg, sc: sc}, nil
}

// Name returns the gateway name used to scope payment references.
func (s *StripeGateway) Name() string {
	return GatewayStripe
}

// CreateCharge creates a Stripe payment intent for the given amount.
// The idempotency key makes retried calls return the original intent
// instead of double-charging.
func (s *StripeGateway) CreateCharge(ctx context.Context, p CreateChargeParams) (*ChargeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.timeout())
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(p.AmountCents),
		Currency: stripe.String(p.Currency),
	}
	params.Context = ctx
	if p.CustomerRef != "" {
		params.Customer = stripe.String(p.CustomerRef)
	}
	if p.Description != "" {
		params.Description = stripe.String(p.Description)
	}
	if p.IdempotencyKey != "" {
		params.SetIdempotencyKey(p.IdempotencyKey)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := s.sc.PaymentIntents.New(params)
	if err != nil {
		return nil, wrapStripeError(err)
	}

	return chargeResultFromIntent(pi), nil
}

// GetStatus retrieves the authoritative status of a payment intent.
func (s *StripeGateway) GetStatus(ctx context.Context, intentID string) (ChargeStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.timeout())
	defer cancel()

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := s.sc.PaymentIntents.Get(intentID, params)
	if err != nil {
		return "", wrapStripeError(err)
	}

	return mapIntentStatus(pi.Status), nil
}

// CreateRefund refunds a payment intent, partially when AmountCents is set.
func (s *StripeGateway) CreateRefund(ctx context.Context, p CreateRefundParams) (*RefundResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.timeout())
	defer cancel()

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(p.IntentID),
	}
	params.Context = ctx
	if p.AmountCents > 0 {
		params.Amount = stripe.Int64(p.AmountCents)
	}
	if p.Reason != "" {
		params.Reason = stripe.String(p.Reason)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	r, err := s.sc.Refunds.New(params)
	if err != nil {
		return nil, wrapStripeError(err)
	}

	return &RefundResult{
		RefundID:    r.ID,
		IntentID:    p.IntentID,
		Status:      mapRefundStatus(r.Status),
		AmountCents: r.Amount,
		CreatedAt:   time.Unix(r.Created, 0),
	}, nil
}

func chargeResultFromIntent(pi *stripe.PaymentIntent) *ChargeResult {
	res := &ChargeResult{
		IntentID:    pi.ID,
		Status:      mapIntentStatus(pi.Status),
		AmountCents: pi.Amount,
		Currency:    string(pi.Currency),
		CreatedAt:   time.Unix(pi.Created, 0),
	}
	if pi.LastPaymentError != nil {
		res.FailureCode = string(pi.LastPaymentError.Code)
		res.FailureMessage = pi.LastPaymentError.Msg
	}
	return res
}

// mapIntentStatus normalizes Stripe payment intent statuses onto the
// three-way contract the ledger consumes.
func mapIntentStatus(status stripe.PaymentIntentStatus) ChargeStatus {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return StatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return StatusFailed
	default:
		// requires_payment_method, requires_confirmation,
		// requires_action, requires_capture, processing.
		return StatusPending
	}
}

func mapRefundStatus(status stripe.RefundStatus) ChargeStatus {
	switch status {
	case stripe.RefundStatusSucceeded:
		return StatusSucceeded
	case stripe.RefundStatusFailed, stripe.RefundStatusCanceled:
		return StatusFailed
	default:
		return StatusPending
	}
}

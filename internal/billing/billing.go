package billing

import (
	"context"
	"time"
)

// Gateway name constants. payment_reference uniqueness is scoped per
// gateway, so every Provider implementation must report a stable name.
const (
	GatewayStripe = "stripe"
	GatewayMock   = "mock"
)

// ChargeStatus is the normalized provider status. The ledger only ever
// consumes this three-way contract; provider-specific states are mapped
// here and never leak past this package.
type ChargeStatus string

const (
	// StatusPending means the provider has accepted the charge but not
	// settled it. The reconciliation worker re-polls these.
	StatusPending ChargeStatus = "pending"

	// StatusSucceeded means funds were captured.
	StatusSucceeded ChargeStatus = "succeeded"

	// StatusFailed is terminal: declined, canceled, or expired.
	StatusFailed ChargeStatus = "failed"
)

// Provider is the capability interface for an external payment provider.
// Implementations: StripeGateway, MockGateway. Any concrete billing vendor
// satisfying these three operations can back the ledger.
type Provider interface {
	// Name returns the gateway name used to scope payment references.
	Name() string

	// CreateCharge opens a charge with the provider and returns the
	// provider-assigned intent identifier and its status.
	CreateCharge(ctx context.Context, params CreateChargeParams) (*ChargeResult, error)

	// GetStatus retrieves the authoritative status of an existing charge.
	// The reconciliation worker uses this to resolve pending transactions;
	// the ledger never guesses.
	GetStatus(ctx context.Context, intentID string) (ChargeStatus, error)

	// CreateRefund refunds a settled charge, in full when AmountCents is
	// zero or partially otherwise.
	CreateRefund(ctx context.Context, params CreateRefundParams) (*RefundResult, error)
}

// CreateChargeParams contains parameters for creating a charge.
type CreateChargeParams struct {
	// AmountCents is the amount in smallest currency unit (cents for USD).
	AmountCents int64

	// Currency code (ISO 4217) - e.g., "usd".
	Currency string

	// CustomerRef identifies the paying customer at the provider.
	CustomerRef string

	// Description appears on the customer's statement.
	Description string

	// Metadata for filtering and reporting (order_id, tenant_id).
	Metadata map[string]string

	// IdempotencyKey prevents duplicate charges on retried calls. It is
	// also the payment_reference recorded against the ledger.
	IdempotencyKey string
}

// ChargeResult is the minimal `{status, amount, reference}` contract the
// ledger consumes. Nothing downstream depends on provider-specific fields.
type ChargeResult struct {
	// IntentID is the provider-assigned charge identifier (pi_... for Stripe).
	IntentID string

	Status      ChargeStatus
	AmountCents int64
	Currency    string

	// FailureCode and FailureMessage are set when Status is failed.
	FailureCode    string
	FailureMessage string

	CreatedAt time.Time
}

// CreateRefundParams contains parameters for creating a refund.
type CreateRefundParams struct {
	// IntentID is the charge being refunded.
	IntentID string

	// AmountCents refunds a partial amount; zero refunds the full charge.
	AmountCents int64

	// Reason: "duplicate", "fraudulent", "requested_by_customer".
	Reason string

	Metadata map[string]string
}

// RefundResult is the provider's answer to a refund request.
type RefundResult struct {
	RefundID    string
	IntentID    string
	Status      ChargeStatus
	AmountCents int64
	CreatedAt   time.Time
}

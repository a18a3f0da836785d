package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
)

var (
	// ErrGatewayTimeout is returned when the provider call timed out or
	// the connection failed before a definitive answer. The transaction
	// stays pending and the reconciliation worker resolves it from the
	// provider's authoritative status.
	ErrGatewayTimeout = errors.New("billing: gateway call timed out")

	// ErrGatewayRejected is terminal: the provider refused the operation
	// (card declined, invalid request). The transaction is marked failed.
	ErrGatewayRejected = errors.New("billing: gateway rejected the operation")

	// ErrChargeNotFound is returned when the intent does not exist.
	ErrChargeNotFound = errors.New("billing: charge not found")

	// ErrInvalidAPIKey is returned when the provider API key is invalid or missing.
	ErrInvalidAPIKey = errors.New("billing: invalid or missing API key")

	// ErrAmountTooSmall is returned when the amount is below the provider's minimum.
	ErrAmountTooSmall = errors.New("billing: amount too small (minimum $0.50 USD)")
)

// GatewayError wraps a provider API error with classification context.
type GatewayError struct {
	Message       string // Human-readable error message
	Code          string // Provider error code (e.g., "card_declined")
	DeclineCode   string // Card decline reason (if applicable)
	RequestID     string // Provider request ID for debugging
	OriginalError error  // Original error from the provider SDK
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway: %s (code: %s)", e.Message, e.Code)
	}
	return fmt.Sprintf("gateway: %s", e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.OriginalError
}

// IsTimeout reports whether err is a transient gateway failure that leaves
// the outcome unknown (re-poll, never retry blindly).
func IsTimeout(err error) bool {
	if errors.Is(err, ErrGatewayTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge.Code == "rate_limit" || ge.Code == "api_connection_error"
	}
	return false
}

// IsRejected reports whether err is a terminal provider rejection.
func IsRejected(err error) bool {
	if errors.Is(err, ErrGatewayRejected) {
		return true
	}
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge.Code == "card_declined" || ge.DeclineCode != ""
	}
	return false
}

// wrapStripeError converts a Stripe SDK error into the package's
// classified error types.
func wrapStripeError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrGatewayTimeout, err)
	}

	var sErr *stripe.Error
	if errors.As(err, &sErr) {
		ge := &GatewayError{
			Message:       sErr.Msg,
			Code:          string(sErr.Code),
			DeclineCode:   string(sErr.DeclineCode),
			RequestID:     sErr.RequestID,
			OriginalError: err,
		}

		switch sErr.Code {
		case stripe.ErrorCodeResourceMissing:
			return fmt.Errorf("%w: %s", ErrChargeNotFound, sErr.Msg)
		case stripe.ErrorCodeAmountTooSmall:
			return fmt.Errorf("%w: %s", ErrAmountTooSmall, sErr.Msg)
		case stripe.ErrorCodeRateLimit:
			return fmt.Errorf("%w: %v", ErrGatewayTimeout, ge)
		case stripe.ErrorCodeCardDeclined, stripe.ErrorCodeExpiredCard, stripe.ErrorCodeIncorrectCVC:
			return fmt.Errorf("%w: %v", ErrGatewayRejected, ge)
		}

		if sErr.HTTPStatusCode == 401 {
			return fmt.Errorf("%w: %s", ErrInvalidAPIKey, sErr.Msg)
		}
		if sErr.HTTPStatusCode >= 500 {
			return fmt.Errorf("%w: %v", ErrGatewayTimeout, ge)
		}
		if sErr.Type == stripe.ErrorTypeInvalidRequest || sErr.Type == stripe.ErrorTypeCard {
			return fmt.Errorf("%w: %v", ErrGatewayRejected, ge)
		}
		return ge
	}

	return fmt.Errorf("%w: %v", ErrGatewayTimeout, err)
}

package billing

import (
	"errors"
	"time"
)

// StripeConfig contains configuration for the Stripe gateway.
type StripeConfig struct {
	// APIKey is the Stripe secret key (sk_test_... or sk_live_...)
	APIKey string

	// Timeout is the HTTP timeout for Stripe API calls.
	// Default: 30s. Gateway calls are the only external I/O in the core
	// and must never block unbounded.
	Timeout time.Duration

	// MaxNetworkRetries is passed through to the Stripe SDK for transient
	// connection failures. Retries are safe because every mutating call
	// carries an idempotency key.
	MaxNetworkRetries int
}

// Validate checks that required configuration is present.
func (c *StripeConfig) Validate() error {
	if c.APIKey == "" {
		return errors.New("stripe: API key is required")
	}
	return nil
}

// IsTestMode returns true if using test mode API keys.
func (c *StripeConfig) IsTestMode() bool {
	return len(c.APIKey) > 7 && c.APIKey[:8] == "sk_test_"
}

func (c *StripeConfig) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return c.Timeout
}

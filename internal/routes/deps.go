package routes

import (
	"net/http"

	"github.com/harborworks/drydock/internal/handler"
)

// APIDeps contains dependencies for the JSON API routes.
type APIDeps struct {
	Orders *handler.OrderHandler
	Ledger *handler.LedgerHandler
}

// WebhookDeps contains dependencies for webhook routes.
type WebhookDeps struct {
	StripeHandler http.HandlerFunc
}

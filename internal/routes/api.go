package routes

import (
	"github.com/harborworks/drydock/internal/router"
)

// RegisterAPIRoutes registers the JSON API. Path IDs are UUIDs; handlers
// reject anything else with EINVALID.
func RegisterAPIRoutes(r *router.Router, deps APIDeps) {
	// Orders and line items
	r.Post("/api/v1/orders", deps.Orders.Create)
	r.Get("/api/v1/orders/{order_id}", deps.Orders.Get)
	r.Patch("/api/v1/orders/{order_id}/percents", deps.Orders.SetPercents)
	r.Post("/api/v1/orders/{order_id}/recompute", deps.Orders.Recompute)
	r.Delete("/api/v1/orders/{order_id}", deps.Orders.Delete)
	r.Post("/api/v1/orders/{order_id}/line-items", deps.Orders.AddLineItem)
	r.Patch("/api/v1/orders/{order_id}/line-items/{line_item_id}", deps.Orders.UpdateLineItem)

	// Ledger
	r.Post("/api/v1/orders/{order_id}/charges", deps.Ledger.Charge)
	r.Get("/api/v1/orders/{order_id}/balance", deps.Ledger.Balance)
	r.Post("/api/v1/orders/{order_id}/transactions", deps.Ledger.RecordTransaction)
	r.Post("/api/v1/orders/{order_id}/authorizations", deps.Ledger.Authorize)
	r.Delete("/api/v1/authorizations/{authorization_id}", deps.Ledger.ReleaseAuthorization)
	r.Post("/api/v1/transactions/{transaction_id}/refund", deps.Ledger.Refund)
	r.Post("/api/v1/transactions/{transaction_id}/settle", deps.Ledger.Settle)
	r.Post("/api/v1/transactions/{transaction_id}/void", deps.Ledger.Void)
}

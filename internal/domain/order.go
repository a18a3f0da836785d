package domain

// OrderStatus tracks a work order through the shop workflow.
type OrderStatus string

const (
	OrderStatusEstimate   OrderStatus = "estimate"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusInvoiced   OrderStatus = "invoiced"
	OrderStatusClosed     OrderStatus = "closed"
)

// Order-related domain errors.
var (
	ErrOrderNotFound  = &Error{Code: ENOTFOUND, Message: "Order not found"}
	ErrOrderTombstone = &Error{Code: EGONE, Message: "Order has been deleted"}
)

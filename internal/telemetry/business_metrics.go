package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for the financial ledger.
// All metrics include tenant_id for multi-shop dashboard segmentation.
type BusinessMetrics struct {
	// Pricing
	OrdersCreated   *prometheus.CounterVec
	LineItemsAdded  *prometheus.CounterVec
	RollupsComputed *prometheus.CounterVec
	OrderValue      *prometheus.HistogramVec

	// Payments
	PaymentAttempts      *prometheus.CounterVec
	PaymentSucceeded     *prometheus.CounterVec
	PaymentFailed        *prometheus.CounterVec
	DuplicateSuppressed  *prometheus.CounterVec
	AuthorizationBlocked *prometheus.CounterVec

	// Refunds
	RefundsIssued *prometheus.CounterVec
	RefundAmount  *prometheus.CounterVec

	// Revenue tracking
	RevenueCollected *prometheus.CounterVec

	// Reconciliation worker
	PendingResolved *prometheus.CounterVec
	PendingStale    prometheus.Gauge
	ResolveDuration prometheus.Histogram

	// External API performance
	GatewayLatency *prometheus.HistogramVec

	// Webhooks
	WebhookReceived *prometheus.CounterVec
	WebhookLatency  *prometheus.HistogramVec
}

// NewBusinessMetrics creates and registers all business metrics
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "drydock"
	}

	subsystem := "ledger"

	m := &BusinessMetrics{
		OrdersCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_created_total",
				Help:      "Total work orders created",
			},
			[]string{"tenant_id"},
		),
		LineItemsAdded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "line_items_added_total",
				Help:      "Total line items added to orders",
			},
			[]string{"tenant_id", "category"}, // category: labor, parts, sublet, shop_supply
		),
		RollupsComputed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rollups_computed_total",
				Help:      "Total order total recomputations",
			},
			[]string{"tenant_id"},
		),
		OrderValue: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_value_cents",
				Help:      "Order total distribution in cents",
				Buckets:   []float64{5000, 10000, 25000, 50000, 100000, 250000, 500000, 1000000, 2500000},
			},
			[]string{"tenant_id"},
		),

		PaymentAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_attempts_total",
				Help:      "Total payment transactions recorded",
			},
			[]string{"tenant_id", "gateway"},
		),
		PaymentSucceeded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_succeeded_total",
				Help:      "Total payments settled as succeeded",
			},
			[]string{"tenant_id", "gateway"},
		),
		PaymentFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_failed_total",
				Help:      "Total payments settled as failed",
			},
			[]string{"tenant_id", "gateway", "failure_reason"},
		),
		DuplicateSuppressed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "duplicate_references_suppressed_total",
				Help:      "Total retried payment references absorbed as no-ops",
			},
			[]string{"tenant_id", "gateway"},
		),
		AuthorizationBlocked: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "authorization_blocked_total",
				Help:      "Total payments rejected for exceeding the authorized ceiling",
			},
			[]string{"tenant_id"},
		),

		RefundsIssued: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "refunds_issued_total",
				Help:      "Total refunds issued to customers",
			},
			[]string{"tenant_id", "gateway"},
		),
		RefundAmount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "refund_amount_cents",
				Help:      "Total refund amount in cents",
			},
			[]string{"tenant_id"},
		),

		RevenueCollected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "revenue_collected_cents",
				Help:      "Total revenue collected in cents (excludes refunds)",
			},
			[]string{"tenant_id", "gateway"},
		),

		PendingResolved: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "pending_resolved_total",
				Help:      "Total stale pending transactions resolved by the worker",
			},
			[]string{"outcome"}, // outcome: succeeded, failed, still_pending, error
		),
		PendingStale: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "pending_stale",
				Help:      "Stale pending transactions seen in the last reconciliation sweep",
			},
		),
		ResolveDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "resolve_duration_seconds",
				Help:      "Reconciliation sweep duration",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
		),

		GatewayLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "gateway_api_duration_seconds",
				Help:      "Payment gateway call duration (differentiates app slowness from provider issues)",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"gateway", "operation"}, // operation: create_charge, get_status, create_refund
		),

		WebhookReceived: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_received_total",
				Help:      "Total gateway webhook events received",
			},
			[]string{"tenant_id", "event_type"},
		),
		WebhookLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_duration_seconds",
				Help:      "Gateway webhook processing duration",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"tenant_id", "event_type"},
		),
	}

	return m
}

// Global instance for easy access from services
var Business *BusinessMetrics

// InitBusinessMetrics initializes the global business metrics instance
func InitBusinessMetrics(namespace string) *BusinessMetrics {
	Business = NewBusinessMetrics(namespace)
	return Business
}

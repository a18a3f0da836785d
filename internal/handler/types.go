package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborworks/drydock/internal/ledger"
	"github.com/harborworks/drydock/internal/repository"
	"github.com/harborworks/drydock/internal/service"
)

// OrderResponse is the wire shape of an order with its line items and
// authoritative totals.
type OrderResponse struct {
	ID              uuid.UUID           `json:"id"`
	CustomerID      uuid.UUID           `json:"customer_id"`
	VehicleID       uuid.UUID           `json:"vehicle_id"`
	OrderNumber     string              `json:"order_number"`
	Status          string              `json:"status"`
	DiscountPercent decimal.Decimal     `json:"discount_percent"`
	TaxPercent      decimal.Decimal     `json:"tax_percent"`
	Totals          OrderTotalsResponse `json:"totals"`
	LineItems       []LineItemResponse  `json:"line_items"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// OrderTotalsResponse is the rollup breakdown, all integer cents.
type OrderTotalsResponse struct {
	LaborCents    int64 `json:"labor_cents"`
	PartsCents    int64 `json:"parts_cents"`
	SubletCents   int64 `json:"sublet_cents"`
	SuppliesCents int64 `json:"supplies_cents"`
	SubtotalCents int64 `json:"subtotal_cents"`
	DiscountCents int64 `json:"discount_cents"`
	TaxCents      int64 `json:"tax_cents"`
	TotalCents    int64 `json:"total_cents"`
}

// LineItemResponse pairs a line item with its computed breakdown.
type LineItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	Ordinal         int32           `json:"ordinal"`
	Title           string          `json:"title"`
	Category        string          `json:"category"`
	PricingMode     string          `json:"pricing_mode"`
	Quantity        int32           `json:"quantity"`
	UnitCostCents   int64           `json:"unit_cost_cents"`
	LaborHours      decimal.Decimal `json:"labor_hours"`
	FixedPriceCents int64           `json:"fixed_price_cents"`
	DiscountCents   int64           `json:"discount_cents"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxCents        int64           `json:"tax_cents"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
	Taxable         bool            `json:"taxable"`
	Hidden          bool            `json:"hidden"`
	Status          string          `json:"status"`

	ComputedBaseCents     int64 `json:"computed_base_cents"`
	ComputedDiscountCents int64 `json:"computed_discount_cents"`
	ComputedTaxCents      int64 `json:"computed_tax_cents"`
	ComputedTotalCents    int64 `json:"computed_total_cents"`
}

// TransactionResponse is the wire shape of a ledger entry.
type TransactionResponse struct {
	ID                    uuid.UUID  `json:"id"`
	OrderID               uuid.UUID  `json:"order_id"`
	CustomerID            uuid.UUID  `json:"customer_id"`
	Kind                  string     `json:"kind"`
	AmountCents           int64      `json:"amount_cents"`
	Status                string     `json:"status"`
	Gateway               string     `json:"gateway"`
	PaymentReference      string     `json:"payment_reference,omitempty"`
	OverrideAuthorization bool       `json:"override_authorization,omitempty"`
	FailureReason         string     `json:"failure_reason,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	ResolvedAt            *time.Time `json:"resolved_at,omitempty"`
}

// BalanceResponse is the reconciled financial state of an order.
type BalanceResponse struct {
	TotalCents       int64 `json:"total_cents"`
	PaidCents        int64 `json:"paid_cents"`
	RefundedCents    int64 `json:"refunded_cents"`
	AdjustedCents    int64 `json:"adjusted_cents"`
	PendingCents     int64 `json:"pending_cents"`
	DueCents         int64 `json:"due_cents"`
	CreditCents      int64 `json:"credit_cents"`
	AuthorizedCents  int64 `json:"authorized_cents"`
	UncollectedCents int64 `json:"uncollected_cents"`
}

// AuthorizationResponse is the wire shape of a spending ceiling.
type AuthorizationResponse struct {
	ID                  uuid.UUID `json:"id"`
	OrderID             uuid.UUID `json:"order_id"`
	AuthorizedCostCents int64     `json:"authorized_cost_cents"`
	Active              bool      `json:"active"`
	CreatedAt           time.Time `json:"created_at"`
}

func newOrderResponse(d *service.OrderDetail) OrderResponse {
	items := make([]LineItemResponse, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, LineItemResponse{
			ID:              repository.FromUUID(it.LineItem.ID),
			Ordinal:         it.LineItem.Ordinal,
			Title:           it.LineItem.Title,
			Category:        it.LineItem.Category,
			PricingMode:     it.LineItem.PricingMode,
			Quantity:        it.LineItem.Quantity,
			UnitCostCents:   it.LineItem.UnitCostCents,
			LaborHours:      repository.FromNumeric(it.LineItem.LaborHours),
			FixedPriceCents: it.LineItem.FixedPriceCents,
			DiscountCents:   it.LineItem.DiscountCents,
			DiscountPercent: repository.FromNumeric(it.LineItem.DiscountPercent),
			TaxCents:        it.LineItem.TaxCents,
			TaxPercent:      repository.FromNumeric(it.LineItem.TaxPercent),
			Taxable:         it.LineItem.Taxable,
			Hidden:          it.LineItem.Hidden,
			Status:          it.LineItem.Status,

			ComputedBaseCents:     it.Total.BaseCents,
			ComputedDiscountCents: it.Total.DiscountCents,
			ComputedTaxCents:      it.Total.TaxCents,
			ComputedTotalCents:    it.Total.TotalCents,
		})
	}

	return OrderResponse{
		ID:              repository.FromUUID(d.Order.ID),
		CustomerID:      repository.FromUUID(d.Order.CustomerID),
		VehicleID:       repository.FromUUID(d.Order.VehicleID),
		OrderNumber:     d.Order.OrderNumber,
		Status:          d.Order.Status,
		DiscountPercent: repository.FromNumeric(d.Order.DiscountPercent),
		TaxPercent:      repository.FromNumeric(d.Order.TaxPercent),
		Totals: OrderTotalsResponse{
			LaborCents:    d.Totals.LaborCents,
			PartsCents:    d.Totals.PartsCents,
			SubletCents:   d.Totals.SubletCents,
			SuppliesCents: d.Totals.SuppliesCents,
			SubtotalCents: d.Totals.SubtotalCents,
			DiscountCents: d.Totals.DiscountCents,
			TaxCents:      d.Totals.TaxCents + d.Totals.LineTaxCents,
			TotalCents:    d.Totals.TotalCents,
		},
		LineItems: items,
		CreatedAt: d.Order.CreatedAt.Time,
		UpdatedAt: d.Order.UpdatedAt.Time,
	}
}

func newTransactionResponse(t repository.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:                    repository.FromUUID(t.ID),
		OrderID:               repository.FromUUID(t.OrderID),
		CustomerID:            repository.FromUUID(t.CustomerID),
		Kind:                  t.Kind,
		AmountCents:           t.AmountCents,
		Status:                t.Status,
		Gateway:               t.Gateway,
		PaymentReference:      repository.FromText(t.PaymentReference),
		OverrideAuthorization: t.OverrideAuthorization,
		FailureReason:         repository.FromText(t.FailureReason),
		CreatedAt:             t.CreatedAt.Time,
	}
	if t.ResolvedAt.Valid {
		resolved := t.ResolvedAt.Time
		resp.ResolvedAt = &resolved
	}
	return resp
}

func newBalanceResponse(b *ledger.Balance) BalanceResponse {
	return BalanceResponse{
		TotalCents:       b.TotalCents,
		PaidCents:        b.PaidCents,
		RefundedCents:    b.RefundedCents,
		AdjustedCents:    b.AdjustedCents,
		PendingCents:     b.PendingCents,
		DueCents:         b.DueCents,
		CreditCents:      b.CreditCents,
		AuthorizedCents:  b.AuthorizedCents,
		UncollectedCents: b.UncollectedCents,
	}
}

func newAuthorizationResponse(a repository.Authorization) AuthorizationResponse {
	return AuthorizationResponse{
		ID:                  repository.FromUUID(a.ID),
		OrderID:             repository.FromUUID(a.OrderID),
		AuthorizedCostCents: a.AuthorizedCostCents,
		Active:              a.Active,
		CreatedAt:           a.CreatedAt.Time,
	}
}

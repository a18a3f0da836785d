package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborworks/drydock/internal/domain"
	"github.com/harborworks/drydock/internal/service"
)

// OrderHandler exposes work order and line item operations as JSON
// endpoints. All financial semantics live in the service layer; the
// handler only translates between wire shapes and service calls.
type OrderHandler struct {
	orders service.OrderService
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orders service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type createOrderRequest struct {
	CustomerID      uuid.UUID       `json:"customer_id"`
	VehicleID       uuid.UUID       `json:"vehicle_id"`
	OrderNumber     string          `json:"order_number"`
	Status          string          `json:"status"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
}

// Create handles POST /api/v1/orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	detail, err := h.orders.CreateOrder(r.Context(), service.CreateOrderParams{
		CustomerID:      req.CustomerID,
		VehicleID:       req.VehicleID,
		OrderNumber:     req.OrderNumber,
		Status:          domain.OrderStatus(req.Status),
		DiscountPercent: req.DiscountPercent,
		TaxPercent:      req.TaxPercent,
	})
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	RespondJSON(w, http.StatusCreated, newOrderResponse(detail))
}

// Get handles GET /api/v1/orders/{order_id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := PathUUID(r, "order_id")
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	detail, err := h.orders.GetOrder(r.Context(), orderID)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, newOrderResponse(detail))
}

type setPercentsRequest struct {
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
}

// SetPercents handles PATCH /api/v1/orders/{order_id}/percents
func (h *OrderHandler) SetPercents(w http.ResponseWriter, r *http.Request) {
	orderID, err := PathUUID(r, "order_id")
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	var req setPercentsRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	detail, err := h.orders.SetOrderPercents(r.Context(), orderID, req.DiscountPercent, req.TaxPercent)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, newOrderResponse(detail))
}

// Recompute handles POST /api/v1/orders/{order_id}/recompute
// Recomputing an unchanged order returns identical totals.
func (h *OrderHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	orderID, err := PathUUID(r, "order_id")
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	detail, err := h.orders.RecomputeTotals(r.Context(), orderID)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, newOrderResponse(detail))
}

// Delete handles DELETE /api/v1/orders/{order_id}
// Tombstones the order; the financial record is kept.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	orderID, err := PathUUID(r, "order_id")
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	if err := h.orders.DeleteOrder(r.Context(), orderID); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type addLineItemRequest struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	PricingMode string `json:"pricing_mode"`

	Quantity        int32           `json:"quantity"`
	UnitCostCents   int64           `json:"unit_cost_cents"`
	LaborHours      decimal.Decimal `json:"labor_hours"`
	FixedPriceCents int64           `json:"fixed_price_cents"`

	DiscountCents   int64           `json:"discount_cents"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxCents        int64           `json:"tax_cents"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
	Taxable         bool            `json:"taxable"`

	Hidden  bool   `json:"hidden"`
	Status  string `json:"status"`
	Ordinal int32  `json:"ordinal"`
}

// AddLineItem handles POST /api/v1/orders/{order_id}/line-items
func (h *OrderHandler) AddLineItem(w http.ResponseWriter, r *http.Request) {
	orderID, err := PathUUID(r, "order_id")
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	var req addLineItemRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	detail, err := h.orders.AddLineItem(r.Context(), orderID, service.AddLineItemParams{
		Title:           req.Title,
		Category:        domain.LineItemCategory(req.Category),
		PricingMode:     domain.PricingMode(req.PricingMode),
		Quantity:        req.Quantity,
		UnitCostCents:   req.UnitCostCents,
		LaborHours:      req.LaborHours,
		FixedPriceCents: req.FixedPriceCents,
		DiscountCents:   req.DiscountCents,
		DiscountPercent: req.DiscountPercent,
		TaxCents:        req.TaxCents,
		TaxPercent:      req.TaxPercent,
		Taxable:         req.Taxable,
		Hidden:          req.Hidden,
		Status:          domain.LineItemStatus(req.Status),
		Ordinal:         req.Ordinal,
	})
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	RespondJSON(w, http.StatusCreated, newOrderResponse(detail))
}

type updateLineItemRequest struct {
	Title       *string `json:"title"`
	Category    *string `json:"category"`
	PricingMode *string `json:"pricing_mode"`

	Quantity        *int32           `json:"quantity"`
	UnitCostCents   *int64           `json:"unit_cost_cents"`
	LaborHours      *decimal.Decimal `json:"labor_hours"`
	FixedPriceCents *int64           `json:"fixed_price_cents"`

	DiscountCents   *int64           `json:"discount_cents"`
	DiscountPercent *decimal.Decimal `json:"discount_percent"`
	TaxCents        *int64           `json:"tax_cents"`
	TaxPercent      *decimal.Decimal `json:"tax_percent"`
	Taxable         *bool            `json:"taxable"`

	Hidden  *bool   `json:"hidden"`
	Status  *string `json:"status"`
	Ordinal *int32  `json:"ordinal"`
}

func (req *updateLineItemRequest) patch() domain.LineItemPatch {
	p := domain.LineItemPatch{
		Title:           req.Title,
		Quantity:        req.Quantity,
		UnitCostCents:   req.UnitCostCents,
		LaborHours:      req.LaborHours,
		FixedPriceCents: req.FixedPriceCents,
		DiscountCents:   req.DiscountCents,
		DiscountPercent: req.DiscountPercent,
		TaxCents:        req.TaxCents,
		TaxPercent:      req.TaxPercent,
		Taxable:         req.Taxable,
		Hidden:          req.Hidden,
		Ordinal:         req.Ordinal,
	}
	if req.Category != nil {
		c := domain.LineItemCategory(*req.Category)
		p.Category = &c
	}
	if req.PricingMode != nil {
		m := domain.PricingMode(*req.PricingMode)
		p.PricingMode = &m
	}
	if req.Status != nil {
		s := domain.LineItemStatus(*req.Status)
		p.Status = &s
	}
	return p
}

// UpdateLineItem handles PATCH /api/v1/orders/{order_id}/line-items/{line_item_id}
// Absent fields are left untouched.
func (h *OrderHandler) UpdateLineItem(w http.ResponseWriter, r *http.Request) {
	orderID, err := PathUUID(r, "order_id")
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	lineItemID, err := PathUUID(r, "line_item_id")
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	var req updateLineItemRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	detail, err := h.orders.UpdateLineItem(r.Context(), orderID, lineItemID, req.patch())
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, newOrderResponse(detail))
}

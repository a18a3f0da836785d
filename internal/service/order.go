package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/harborworks/drydock/internal/domain"
	"github.com/harborworks/drydock/internal/pricing"
	"github.com/harborworks/drydock/internal/repository"
	"github.com/harborworks/drydock/internal/telemetry"
)

var validate = validator.New()

// OrderService provides business logic for work orders and their line
// items. Every mutation recomputes the order's cached totals inside the
// same transaction, under the order's row lock, so the cache can never
// drift from the line items it summarizes.
type OrderService interface {
	// CreateOrder opens a new work order with zeroed totals.
	CreateOrder(ctx context.Context, params CreateOrderParams) (*OrderDetail, error)

	// GetOrder retrieves an order with its line items and computed totals.
	// Tombstoned orders return ErrOrderTombstone.
	GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDetail, error)

	// SetOrderPercents updates the order-level discount and tax percents
	// and recomputes totals.
	SetOrderPercents(ctx context.Context, orderID uuid.UUID, discountPercent, taxPercent decimal.Decimal) (*OrderDetail, error)

	// AddLineItem appends a line item to the order and recomputes totals.
	AddLineItem(ctx context.Context, orderID uuid.UUID, params AddLineItemParams) (*OrderDetail, error)

	// UpdateLineItem applies a partial update to a line item and recomputes
	// totals. Nil patch fields are left untouched.
	UpdateLineItem(ctx context.Context, orderID, lineItemID uuid.UUID, patch domain.LineItemPatch) (*OrderDetail, error)

	// RecomputeTotals re-derives the cached totals from the current line
	// items. Idempotent: recomputing an unchanged order yields identical
	// totals.
	RecomputeTotals(ctx context.Context, orderID uuid.UUID) (*OrderDetail, error)

	// DeleteOrder tombstones an order. The row and its transactions are
	// kept for the financial record; subsequent operations return
	// ErrOrderTombstone.
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
}

// CreateOrderParams contains parameters for opening a work order.
type CreateOrderParams struct {
	CustomerID  uuid.UUID          `validate:"required"`
	VehicleID   uuid.UUID          `validate:"required"`
	OrderNumber string             `validate:"required,min=1,max=32"`
	Status      domain.OrderStatus `validate:"omitempty,oneof=estimate in_progress invoiced closed"`

	// Order-level percents. Zero values mean no order discount or tax.
	DiscountPercent decimal.Decimal
	TaxPercent      decimal.Decimal
}

// AddLineItemParams contains parameters for adding a line item.
type AddLineItemParams struct {
	Title       string                  `validate:"required,min=1,max=200"`
	Category    domain.LineItemCategory `validate:"required,oneof=labor parts sublet shop_supply"`
	PricingMode domain.PricingMode      `validate:"required,oneof=fixed_price labor_rate parts_cost"`

	Quantity        int32 `validate:"gte=0"`
	UnitCostCents   int64 `validate:"gte=0"`
	LaborHours      decimal.Decimal
	FixedPriceCents int64 `validate:"gte=0"`

	DiscountCents   int64 `validate:"gte=0"`
	DiscountPercent decimal.Decimal
	TaxCents        int64 `validate:"gte=0"`
	TaxPercent      decimal.Decimal
	Taxable         bool

	Hidden  bool
	Status  domain.LineItemStatus `validate:"omitempty,oneof=pending approved declined"`
	Ordinal int32                 `validate:"gte=0"`
}

// LineItemDetail pairs a stored line item with its computed breakdown.
type LineItemDetail struct {
	LineItem repository.LineItem
	Total    pricing.LineTotal
}

// OrderDetail aggregates an order with its line items and rollup.
type OrderDetail struct {
	Order  repository.Order
	Items  []LineItemDetail
	Totals pricing.OrderTotals
}

type orderService struct {
	store    Store
	tenantID pgtype.UUID
	tenant   string
	logger   *slog.Logger
}

// NewOrderService creates a new OrderService scoped to one tenant.
func NewOrderService(store Store, tenantID string, logger *slog.Logger) (OrderService, error) {
	var tenantUUID pgtype.UUID
	if err := tenantUUID.Scan(tenantID); err != nil {
		return nil, fmt.Errorf("invalid tenant ID: %w", err)
	}

	return &orderService{
		store:    store,
		tenantID: tenantUUID,
		tenant:   tenantID,
		logger:   logger,
	}, nil
}

func (s *orderService) CreateOrder(ctx context.Context, params CreateOrderParams) (*OrderDetail, error) {
	const op = "service.order.create"

	if err := validate.Struct(params); err != nil {
		return nil, domain.WrapError(err, domain.EINVALID, op, "invalid order")
	}

	status := params.Status
	if status == "" {
		status = domain.OrderStatusEstimate
	}

	order, err := s.store.CreateOrder(ctx, repository.CreateOrderParams{
		TenantID:        s.tenantID,
		CustomerID:      repository.UUID(params.CustomerID),
		VehicleID:       repository.UUID(params.VehicleID),
		OrderNumber:     params.OrderNumber,
		Status:          string(status),
		DiscountPercent: repository.Numeric(params.DiscountPercent),
		TaxPercent:      repository.Numeric(params.TaxPercent),
	})
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "create order")
	}

	if telemetry.Business != nil {
		telemetry.Business.OrdersCreated.WithLabelValues(s.tenant).Inc()
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", repository.FromUUID(order.ID).String()),
		slog.String("order_number", order.OrderNumber),
	)

	return &OrderDetail{Order: order, Items: []LineItemDetail{}}, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDetail, error) {
	const op = "service.order.get"

	order, err := s.store.GetOrder(ctx, repository.GetOrderParams{
		TenantID: s.tenantID,
		ID:       repository.UUID(orderID),
	})
	if err != nil {
		return nil, mapOrderErr(err, op)
	}
	if order.Deleted {
		return nil, ErrOrderTombstone
	}

	items, err := s.store.ListLineItems(ctx, repository.ListLineItemsParams{
		TenantID: s.tenantID,
		OrderID:  order.ID,
	})
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "list line items")
	}

	return buildDetail(order, items)
}

func (s *orderService) SetOrderPercents(ctx context.Context, orderID uuid.UUID, discountPercent, taxPercent decimal.Decimal) (*OrderDetail, error) {
	const op = "service.order.set_percents"

	if discountPercent.IsNegative() || taxPercent.IsNegative() {
		return nil, domain.Invalid(op, "negative percent")
	}

	var detail *OrderDetail
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		order, err := s.lockOrder(ctx, q, orderID, op)
		if err != nil {
			return err
		}

		order, err = q.UpdateOrderPercents(ctx, repository.UpdateOrderPercentsParams{
			TenantID:        s.tenantID,
			ID:              order.ID,
			DiscountPercent: repository.Numeric(discountPercent),
			TaxPercent:      repository.Numeric(taxPercent),
		})
		if err != nil {
			return domain.WrapError(err, domain.EINTERNAL, op, "update percents")
		}

		detail, err = s.recomputeLocked(ctx, q, order, op)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *orderService) AddLineItem(ctx context.Context, orderID uuid.UUID, params AddLineItemParams) (*OrderDetail, error) {
	const op = "service.order.add_line_item"

	if err := validate.Struct(params); err != nil {
		return nil, domain.WrapError(err, domain.EINVALID, op, "invalid line item")
	}

	status := params.Status
	if status == "" {
		status = domain.LineItemPending
	}

	// Surface pricing violations (mixed discount forms, negative amounts)
	// before touching the database.
	if _, err := pricing.ComputeLineTotal(pricing.LineItem{
		PricingMode:     params.PricingMode,
		Category:        params.Category,
		Quantity:        params.Quantity,
		UnitCostCents:   params.UnitCostCents,
		LaborHours:      params.LaborHours,
		FixedPriceCents: params.FixedPriceCents,
		DiscountCents:   params.DiscountCents,
		DiscountPercent: params.DiscountPercent,
		TaxCents:        params.TaxCents,
		TaxPercent:      params.TaxPercent,
		Taxable:         params.Taxable,
		Hidden:          params.Hidden,
		Status:          status,
	}); err != nil {
		return nil, err
	}

	var detail *OrderDetail
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		order, err := s.lockOrder(ctx, q, orderID, op)
		if err != nil {
			return err
		}

		if _, err := q.CreateLineItem(ctx, repository.CreateLineItemParams{
			TenantID:        s.tenantID,
			OrderID:         order.ID,
			Ordinal:         params.Ordinal,
			Title:           params.Title,
			Category:        string(params.Category),
			PricingMode:     string(params.PricingMode),
			Quantity:        params.Quantity,
			UnitCostCents:   params.UnitCostCents,
			LaborHours:      repository.Numeric(params.LaborHours),
			FixedPriceCents: params.FixedPriceCents,
			DiscountCents:   params.DiscountCents,
			DiscountPercent: repository.Numeric(params.DiscountPercent),
			TaxCents:        params.TaxCents,
			TaxPercent:      repository.Numeric(params.TaxPercent),
			Taxable:         params.Taxable,
			Hidden:          params.Hidden,
			Status:          string(status),
		}); err != nil {
			return domain.WrapError(err, domain.EINTERNAL, op, "create line item")
		}

		detail, err = s.recomputeLocked(ctx, q, order, op)
		return err
	})
	if err != nil {
		return nil, err
	}

	if telemetry.Business != nil {
		telemetry.Business.LineItemsAdded.WithLabelValues(s.tenant, string(params.Category)).Inc()
	}

	return detail, nil
}

func (s *orderService) UpdateLineItem(ctx context.Context, orderID, lineItemID uuid.UUID, patch domain.LineItemPatch) (*OrderDetail, error) {
	const op = "service.order.update_line_item"

	if err := validate.Struct(patch); err != nil {
		return nil, domain.WrapError(err, domain.EINVALID, op, "invalid line item patch")
	}

	var detail *OrderDetail
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		order, err := s.lockOrder(ctx, q, orderID, op)
		if err != nil {
			return err
		}

		li, err := q.GetLineItem(ctx, repository.GetLineItemParams{
			TenantID: s.tenantID,
			ID:       repository.UUID(lineItemID),
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrLineItemNotFound
			}
			return domain.WrapError(err, domain.EINTERNAL, op, "get line item")
		}
		if li.OrderID != order.ID {
			return ErrLineItemNotFound
		}

		if _, err := q.UpdateLineItem(ctx, applyPatch(li, patch)); err != nil {
			return domain.WrapError(err, domain.EINTERNAL, op, "update line item")
		}

		detail, err = s.recomputeLocked(ctx, q, order, op)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *orderService) RecomputeTotals(ctx context.Context, orderID uuid.UUID) (*OrderDetail, error) {
	const op = "service.order.recompute"

	var detail *OrderDetail
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		order, err := s.lockOrder(ctx, q, orderID, op)
		if err != nil {
			return err
		}
		detail, err = s.recomputeLocked(ctx, q, order, op)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *orderService) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	const op = "service.order.delete"

	return s.store.ExecTx(ctx, func(q repository.Querier) error {
		order, err := s.lockOrder(ctx, q, orderID, op)
		if err != nil {
			return err
		}

		if err := q.TombstoneOrder(ctx, repository.GetOrderParams{
			TenantID: s.tenantID,
			ID:       order.ID,
		}); err != nil {
			return domain.WrapError(err, domain.EINTERNAL, op, "tombstone order")
		}

		s.logger.InfoContext(ctx, "order tombstoned",
			slog.String("order_id", orderID.String()),
		)
		return nil
	})
}

// lockOrder acquires the order's row lock and rejects tombstoned orders.
// All rollup and ledger writes for one order serialize on this lock.
func (s *orderService) lockOrder(ctx context.Context, q repository.Querier, orderID uuid.UUID, op string) (repository.Order, error) {
	order, err := q.GetOrderForUpdate(ctx, repository.GetOrderParams{
		TenantID: s.tenantID,
		ID:       repository.UUID(orderID),
	})
	if err != nil {
		return repository.Order{}, mapOrderErr(err, op)
	}
	if order.Deleted {
		return repository.Order{}, ErrOrderTombstone
	}
	return order, nil
}

// recomputeLocked re-derives totals from the order's line items and writes
// the cache columns. Caller must hold the order's row lock.
func (s *orderService) recomputeLocked(ctx context.Context, q repository.Querier, order repository.Order, op string) (*OrderDetail, error) {
	items, err := q.ListLineItems(ctx, repository.ListLineItemsParams{
		TenantID: s.tenantID,
		OrderID:  order.ID,
	})
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "list line items")
	}

	detail, err := buildDetail(order, items)
	if err != nil {
		return nil, err
	}

	t := detail.Totals
	if err := q.UpdateOrderTotals(ctx, repository.UpdateOrderTotalsParams{
		TenantID:      s.tenantID,
		ID:            order.ID,
		LaborCents:    t.LaborCents,
		PartsCents:    t.PartsCents,
		SubletCents:   t.SubletCents,
		SuppliesCents: t.SuppliesCents,
		SubtotalCents: t.SubtotalCents,
		DiscountCents: t.DiscountCents,
		TaxCents:      t.TaxCents + t.LineTaxCents,
		TotalCents:    t.TotalCents,
	}); err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "update totals")
	}

	detail.Order.CalculatedLaborCents = t.LaborCents
	detail.Order.CalculatedPartsCents = t.PartsCents
	detail.Order.CalculatedSubletCents = t.SubletCents
	detail.Order.CalculatedSuppliesCents = t.SuppliesCents
	detail.Order.CalculatedSubtotalCents = t.SubtotalCents
	detail.Order.CalculatedDiscountCents = t.DiscountCents
	detail.Order.CalculatedTaxCents = t.TaxCents + t.LineTaxCents
	detail.Order.CalculatedTotalCents = t.TotalCents

	if telemetry.Business != nil {
		telemetry.Business.RollupsComputed.WithLabelValues(s.tenant).Inc()
		telemetry.Business.OrderValue.WithLabelValues(s.tenant).Observe(float64(t.TotalCents))
	}

	return detail, nil
}

// buildDetail computes per-line breakdowns and the order rollup.
func buildDetail(order repository.Order, items []repository.LineItem) (*OrderDetail, error) {
	details := make([]LineItemDetail, 0, len(items))
	pitems := make([]pricing.LineItem, 0, len(items))
	for _, li := range items {
		p := pricingItem(li)
		total, err := pricing.ComputeLineTotal(p)
		if err != nil {
			return nil, err
		}
		details = append(details, LineItemDetail{LineItem: li, Total: total})
		pitems = append(pitems, p)
	}

	totals, err := pricing.RecomputeOrderTotals(
		repository.FromNumeric(order.DiscountPercent),
		repository.FromNumeric(order.TaxPercent),
		pitems,
	)
	if err != nil {
		return nil, err
	}

	return &OrderDetail{Order: order, Items: details, Totals: totals}, nil
}

// applyPatch merges non-nil patch fields over the stored row.
func applyPatch(li repository.LineItem, patch domain.LineItemPatch) repository.UpdateLineItemParams {
	p := repository.UpdateLineItemParams{
		TenantID:        li.TenantID,
		ID:              li.ID,
		Ordinal:         li.Ordinal,
		Title:           li.Title,
		Category:        li.Category,
		PricingMode:     li.PricingMode,
		Quantity:        li.Quantity,
		UnitCostCents:   li.UnitCostCents,
		LaborHours:      li.LaborHours,
		FixedPriceCents: li.FixedPriceCents,
		DiscountCents:   li.DiscountCents,
		DiscountPercent: li.DiscountPercent,
		TaxCents:        li.TaxCents,
		TaxPercent:      li.TaxPercent,
		Taxable:         li.Taxable,
		Hidden:          li.Hidden,
		Status:          li.Status,
	}

	if patch.Ordinal != nil {
		p.Ordinal = *patch.Ordinal
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Category != nil {
		p.Category = string(*patch.Category)
	}
	if patch.PricingMode != nil {
		p.PricingMode = string(*patch.PricingMode)
	}
	if patch.Quantity != nil {
		p.Quantity = *patch.Quantity
	}
	if patch.UnitCostCents != nil {
		p.UnitCostCents = *patch.UnitCostCents
	}
	if patch.LaborHours != nil {
		p.LaborHours = repository.Numeric(*patch.LaborHours)
	}
	if patch.FixedPriceCents != nil {
		p.FixedPriceCents = *patch.FixedPriceCents
	}
	if patch.DiscountCents != nil {
		p.DiscountCents = *patch.DiscountCents
	}
	if patch.DiscountPercent != nil {
		p.DiscountPercent = repository.Numeric(*patch.DiscountPercent)
	}
	if patch.TaxCents != nil {
		p.TaxCents = *patch.TaxCents
	}
	if patch.TaxPercent != nil {
		p.TaxPercent = repository.Numeric(*patch.TaxPercent)
	}
	if patch.Taxable != nil {
		p.Taxable = *patch.Taxable
	}
	if patch.Hidden != nil {
		p.Hidden = *patch.Hidden
	}
	if patch.Status != nil {
		p.Status = string(*patch.Status)
	}

	return p
}

// mapOrderErr converts driver-level lookup failures into domain errors.
func mapOrderErr(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrOrderNotFound
	}
	return domain.WrapError(err, domain.EINTERNAL, op, "load order")
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/auth"
	"storefront/internal/coupon"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// totalTolerance is the largest accepted gap between a client total and the computed one.
var totalTolerance = decimal.RequireFromString("0.01")

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	coupons     coupon.Evaluator
	logger      zerolog.Logger
	now         func() time.Time
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	coupons coupon.Evaluator,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		coupons:     coupons,
		logger:      logger.With().Str("service", "order").Logger(),
		now:         time.Now,
	}
}

// CreateOrder places an order. Stock decrements, the order number, the coupon
// redemption and the order rows all commit together or not at all.
func (s *orderService) CreateOrder(ctx context.Context, userID uuid.UUID, req *model.OrderRequest) (*model.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.CreateOrder")
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", userID.String()),
		attribute.Int("item_count", len(req.Items)),
	)

	var order *model.Order
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		order, err = s.placeOrder(ctx, tx, userID, req)
		return err
	})
	if err != nil {
		recordFailure(span, err)
		metrics.OrderFailures.WithLabelValues(failureReason(err)).Inc()
		s.logger.Warn().
			Err(err).
			Str("user_id", userID.String()).
			Msg("order placement failed")
		return nil, err
	}

	span.SetAttributes(attribute.String("order_number", order.OrderNumber))
	metrics.OrdersCreated.WithLabelValues(string(order.PaymentMethod)).Inc()

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Int("item_count", len(order.Items)).
		Float64("total", order.TotalAmount).
		Msg("order created successfully")

	return order, nil
}

func (s *orderService) placeOrder(ctx context.Context, tx pgx.Tx, userID uuid.UUID, req *model.OrderRequest) (*model.Order, error) {
	now := s.now().UTC()
	order := &model.Order{
		ID:              uuid.New(),
		UserID:          userID,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Status:          model.StatusProcessing,
		PaymentStatus:   model.PaymentPending,
		StatusHistory: []model.StatusHistoryEntry{
			{Status: model.StatusProcessing, Note: "Order created", Timestamp: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if order.ShippingAddress.Country == "" {
		order.ShippingAddress.Country = model.DefaultCountry
	}

	subtotal := decimal.Zero
	for _, item := range req.Items {
		product, err := s.productRepo.DecrementStock(ctx, tx, item.ProductID, item.Quantity)
		if err != nil {
			return nil, err
		}

		line := model.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  item.Quantity,
		}
		if len(product.Images) > 0 {
			line.Image = product.Images[0]
		}
		order.Items = append(order.Items, line)

		subtotal = subtotal.Add(decimal.NewFromFloat(product.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	subtotal = subtotal.Round(2)

	discount := decimal.Zero
	if req.CouponCode != nil && strings.TrimSpace(*req.CouponCode) != "" {
		c, amount, err := s.coupons.Redeem(ctx, tx, *req.CouponCode, subtotal.InexactFloat64())
		if err != nil {
			return nil, err
		}
		code := c.Code
		order.CouponCode = &code
		discount = decimal.NewFromFloat(amount)
	}

	shipping := decimal.NewFromFloat(req.ShippingCost).Round(2)
	total := subtotal.Sub(discount).Add(shipping).Round(2)

	if req.TotalAmount != nil {
		if decimal.NewFromFloat(*req.TotalAmount).Sub(total).Abs().GreaterThan(totalTolerance) {
			return nil, model.NewDomainError(model.KindValidation, model.ErrCodeTotalMismatch,
				fmt.Sprintf("Order total %.2f does not match the computed total %s", *req.TotalAmount, total.StringFixed(2)))
		}
	}

	order.Subtotal = subtotal.InexactFloat64()
	order.Discount = discount.InexactFloat64()
	order.ShippingCost = shipping.InexactFloat64()
	order.TotalAmount = total.InexactFloat64()

	n, err := s.orderRepo.NextOrderNumber(ctx, tx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate order number: %w", err)
	}
	order.OrderNumber = model.FormatOrderNumber(now, n)

	if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	return order, nil
}

func (s *orderService) GetByID(ctx context.Context, caller auth.Principal, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	// Other users' orders are reported as missing.
	if order == nil || (!caller.IsAdmin() && order.UserID != caller.UserID) {
		return nil, model.ErrOrderNotFound
	}

	return order, nil
}

func (s *orderService) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, model.Pagination, error) {
	filter.Limit, filter.Offset = page(filter.Limit, filter.Offset)
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, model.Pagination{}, model.NewValidationError(fmt.Sprintf("unknown order status %q", filter.Status))
	}

	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list orders")
		return nil, model.Pagination{}, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, model.Pagination{Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, note string) (*model.Order, error) {
	return s.mutate(ctx, "OrderService.UpdateStatus", id, func(tx pgx.Tx, order *model.Order) (bool, error) {
		if status == model.StatusCancelled {
			if err := order.Cancel(note, s.now().UTC()); err != nil {
				return false, err
			}
			return true, s.restock(ctx, tx, order)
		}
		return true, order.UpdateStatus(status, note, s.now().UTC())
	})
}

func (s *orderService) Cancel(ctx context.Context, caller auth.Principal, id uuid.UUID, note string) (*model.Order, error) {
	return s.mutate(ctx, "OrderService.Cancel", id, func(tx pgx.Tx, order *model.Order) (bool, error) {
		if !caller.IsAdmin() {
			if order.UserID != caller.UserID {
				return false, model.ErrOrderNotFound
			}
			if order.Status != model.StatusPending && order.Status != model.StatusProcessing {
				return false, model.NewDomainError(model.KindInvalidState, model.ErrCodeInvalidTransition,
					fmt.Sprintf("An order that is %s can no longer be cancelled", order.Status))
			}
		}

		if err := order.Cancel(note, s.now().UTC()); err != nil {
			return false, err
		}
		return true, s.restock(ctx, tx, order)
	})
}

func (s *orderService) Refund(ctx context.Context, id uuid.UUID, note string) (*model.Order, error) {
	return s.mutate(ctx, "OrderService.Refund", id, func(tx pgx.Tx, order *model.Order) (bool, error) {
		restock, err := order.Refund(note, s.now().UTC())
		if err != nil {
			return false, err
		}
		if restock {
			return true, s.restock(ctx, tx, order)
		}
		return true, nil
	})
}

func (s *orderService) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus) (*model.Order, error) {
	return s.mutate(ctx, "OrderService.UpdatePaymentStatus", id, func(_ pgx.Tx, order *model.Order) (bool, error) {
		return false, order.UpdatePaymentStatus(status, s.now().UTC())
	})
}

// mutate loads and locks an order, applies change and persists the result in
// one transaction. change reports whether it appended a history entry.
func (s *orderService) mutate(
	ctx context.Context,
	spanName string,
	id uuid.UUID,
	change func(tx pgx.Tx, order *model.Order) (bool, error),
) (*model.Order, error) {
	ctx, span := tracer.Start(ctx, spanName)
	defer span.End()
	span.SetAttributes(attribute.String("order_id", id.String()))

	var order *model.Order
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		order, err = s.orderRepo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("failed to load order: %w", err)
		}
		if order == nil {
			return model.ErrOrderNotFound
		}

		appended, err := change(tx, order)
		if err != nil {
			return err
		}

		var entry *model.StatusHistoryEntry
		if appended {
			entry = &order.StatusHistory[len(order.StatusHistory)-1]
		}
		return s.orderRepo.UpdateState(ctx, tx, order, entry)
	})
	if err != nil {
		recordFailure(span, err)
		return nil, err
	}

	metrics.OrderTransitions.WithLabelValues(string(order.Status)).Inc()

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("status", string(order.Status)).
		Str("payment_status", string(order.PaymentStatus)).
		Msg("order updated")

	return order, nil
}

// restock returns every line item to stock. Products deleted since the order
// was placed are skipped.
func (s *orderService) restock(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	for _, item := range order.Items {
		ok, err := s.productRepo.RestoreStock(ctx, tx, item.ProductID, item.Quantity)
		if err != nil {
			return fmt.Errorf("failed to restore stock: %w", err)
		}
		if !ok {
			s.logger.Warn().
				Str("order_id", order.ID.String()).
				Str("product_id", item.ProductID.String()).
				Msg("product no longer exists, stock not restored")
		}
	}
	return nil
}

func (s *orderService) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return runInTx(ctx, s.orderRepo.BeginTx, s.logger, fn)
}

func recordFailure(span trace.Span, err error) {
	span.RecordError(err)
	if _, ok := model.AsDomainError(err); !ok {
		span.SetStatus(codes.Error, err.Error())
	}
}

func failureReason(err error) string {
	if de, ok := model.AsDomainError(err); ok {
		return strings.ToLower(de.Code)
	}
	return "internal"
}

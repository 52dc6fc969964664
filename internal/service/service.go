package service

import (
	"context"
	"fmt"

	"storefront/internal/auth"
	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
)

// tracer is shared by the services that emit spans.
var tracer = otel.Tracer("storefront/service")

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ProductService defines operations for catalogue management.
type ProductService interface {
	// List retrieves products matching the filter.
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, model.Pagination, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// Create adds a product to the catalogue.
	Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error)

	// Update replaces a product's definition.
	Update(ctx context.Context, id uuid.UUID, req *model.ProductRequest) (*model.Product, error)

	// Delete removes a product. Orders keep their line item snapshots.
	Delete(ctx context.Context, id uuid.UUID) error
}

// OrderService defines the order processor.
type OrderService interface {
	// CreateOrder places an order for userID, reserving stock and redeeming any coupon atomically.
	CreateOrder(ctx context.Context, userID uuid.UUID, req *model.OrderRequest) (*model.Order, error)

	// GetByID retrieves an order visible to the caller.
	GetByID(ctx context.Context, caller auth.Principal, id uuid.UUID) (*model.Order, error)

	// List retrieves orders matching the filter, newest first.
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, model.Pagination, error)

	// UpdateStatus moves an order along the status machine.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, note string) (*model.Order, error)

	// Cancel cancels an order on behalf of the caller and restores stock.
	Cancel(ctx context.Context, caller auth.Principal, id uuid.UUID, note string) (*model.Order, error)

	// Refund cancels an order, marks it refunded and restores stock if it was still live.
	Refund(ctx context.Context, id uuid.UUID, note string) (*model.Order, error)

	// UpdatePaymentStatus sets the payment status of an order.
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus) (*model.Order, error)
}

// CouponService defines coupon administration and checks.
type CouponService interface {
	Check(ctx context.Context, req *model.CouponCheckRequest) (*model.CouponCheckResponse, error)
	Create(ctx context.Context, req *model.CouponRequest) (*model.Coupon, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error)
	List(ctx context.Context, limit, offset int) ([]model.Coupon, model.Pagination, error)
	Update(ctx context.Context, id uuid.UUID, req *model.CouponRequest) (*model.Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AddressService defines address book operations, always scoped to one user.
type AddressService interface {
	List(ctx context.Context, userID uuid.UUID) ([]model.Address, error)
	Create(ctx context.Context, userID uuid.UUID, req *model.AddressRequest) (*model.Address, error)
	Update(ctx context.Context, userID, id uuid.UUID, req *model.AddressRequest) (*model.Address, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	SetDefault(ctx context.Context, userID, id uuid.UUID) (*model.Address, error)
}

// UserService defines account operations.
type UserService interface {
	// GetByID retrieves a user's profile.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)

	// List retrieves accounts, oldest first.
	List(ctx context.Context, limit, offset int) ([]model.User, model.Pagination, error)

	// Create registers an account with a hashed password.
	Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error)

	// UpdateRole changes a user's role on behalf of an admin.
	UpdateRole(ctx context.Context, actor auth.Principal, id uuid.UUID, role model.Role) (*model.User, error)

	// SetActive enables or disables an account.
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*model.User, error)
}

// DashboardService defines the dashboard aggregator.
type DashboardService interface {
	// Stats computes the dashboard for a reporting window ending now.
	Stats(ctx context.Context, filter model.TimeFilter, includeEmpty bool) (*model.DashboardStats, error)
}

// page clamps listing bounds.
func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// runInTx runs fn in a transaction that is committed only if fn succeeds.
func runInTx(
	ctx context.Context,
	begin func(context.Context) (pgx.Tx, error),
	logger zerolog.Logger,
	fn func(tx pgx.Tx) error,
) error {
	tx, err := begin(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to commit transaction")
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

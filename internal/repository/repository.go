package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// List retrieves products matching the filter and the total match count.
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, int, error)

	// GetByID retrieves a single product by its ID. Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs. Missing IDs are skipped.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)

	// Create inserts a new product.
	Create(ctx context.Context, product *model.Product) error

	// Update replaces the mutable fields of an existing product.
	Update(ctx context.Context, product *model.Product) error

	// Delete removes a product.
	Delete(ctx context.Context, id uuid.UUID) error

	// DecrementStock atomically takes quantity units from stock within tx
	// and returns the product as it is after the decrement.
	// Fails with ErrProductNotFound or an insufficient-stock error without
	// modifying anything.
	DecrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) (*model.Product, error)

	// RestoreStock returns quantity units to stock within tx.
	// Returns false when the product no longer exists.
	RestoreStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) (bool, error)

	// Inventory counts all products and those with stock at or below threshold.
	Inventory(ctx context.Context, lowStockThreshold int) (model.InventoryStats, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// NextOrderNumber increments and returns the order counter for day within tx.
	NextOrderNumber(ctx context.Context, tx pgx.Tx, day time.Time) (int64, error)

	// CreateOrder inserts an order with its items and history within tx.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// GetByID retrieves an order with its items and history. Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetForUpdate retrieves and row-locks an order within tx. Returns nil when absent.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)

	// List retrieves orders matching the filter, newest first, and the total match count.
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error)

	// UpdateState persists status and payment status within tx and appends entry
	// to the history when it is not nil.
	UpdateState(ctx context.Context, tx pgx.Tx, order *model.Order, entry *model.StatusHistoryEntry) error
}

// CouponRepository defines the interface for coupon data access operations.
type CouponRepository interface {
	// Create inserts a new coupon. Duplicate codes yield a conflict error.
	Create(ctx context.Context, coupon *model.Coupon) error

	// Upsert inserts a coupon or replaces the definition of the one with the same code,
	// keeping its used count. Returns true when a new row was inserted.
	Upsert(ctx context.Context, coupon *model.Coupon) (bool, error)

	// Update replaces the mutable fields of an existing coupon.
	Update(ctx context.Context, coupon *model.Coupon) error

	// Delete removes a coupon.
	Delete(ctx context.Context, id uuid.UUID) error

	// GetByID retrieves a coupon by ID. Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error)

	// GetByCode retrieves a coupon by its normalised code. Returns nil when absent.
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)

	// GetByCodeForUpdate retrieves and row-locks a coupon within tx. Returns nil when absent.
	GetByCodeForUpdate(ctx context.Context, tx pgx.Tx, code string) (*model.Coupon, error)

	// List retrieves coupons ordered by creation time and the total count.
	List(ctx context.Context, limit, offset int) ([]model.Coupon, int, error)

	// IncrementUsage bumps the used count within tx if the usage limit allows it.
	// Returns false when the limit has been reached.
	IncrementUsage(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
}

// UserRepository defines the interface for user data access operations.
type UserRepository interface {
	// Create inserts a new user. Duplicate emails yield a conflict error.
	Create(ctx context.Context, user *model.User) error

	// GetByID retrieves a user. Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)

	// GetByEmail retrieves a user by lowercased email. Returns nil when absent.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// List retrieves users ordered by creation time and the total count.
	List(ctx context.Context, limit, offset int) ([]model.User, int, error)

	// UpdateRole changes a user's role.
	UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error

	// UpdateActive enables or disables a user.
	UpdateActive(ctx context.Context, id uuid.UUID, active bool) error
}

// AddressRepository defines the interface for address book data access operations.
type AddressRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// ListByUser retrieves a user's addresses, default first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Address, error)

	// GetByID retrieves one of a user's addresses. Returns nil when absent.
	GetByID(ctx context.Context, userID, id uuid.UUID) (*model.Address, error)

	// LockOwner row-locks the owning user within tx, serialising address changes per user.
	LockOwner(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error

	// GetForUpdate retrieves and row-locks one of a user's addresses within tx. Returns nil when absent.
	GetForUpdate(ctx context.Context, tx pgx.Tx, userID, id uuid.UUID) (*model.Address, error)

	// CountByUser counts a user's addresses within tx.
	CountByUser(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int, error)

	// Create inserts an address within tx.
	Create(ctx context.Context, tx pgx.Tx, address *model.Address) error

	// Update replaces an address's editable fields within tx. It never touches the default flag.
	Update(ctx context.Context, tx pgx.Tx, address *model.Address) error

	// Delete removes one of a user's addresses within tx and reports whether it was the default.
	Delete(ctx context.Context, tx pgx.Tx, userID, id uuid.UUID) (bool, error)

	// ClearDefault unsets the default flag on all of a user's addresses within tx.
	ClearDefault(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error

	// SetDefault marks one address as default within tx. Returns false when it does not exist.
	SetDefault(ctx context.Context, tx pgx.Tx, userID, id uuid.UUID) (bool, error)

	// PromoteNewest makes the most recently created address the default within tx.
	PromoteNewest(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error
}

// DashboardRepository defines the read-only aggregation queries behind the admin dashboard.
type DashboardRepository interface {
	// PeriodTotals sums sales, counts orders and distinct customers in [from, to).
	PeriodTotals(ctx context.Context, statuses []model.OrderStatus, from, to time.Time) (model.PeriodTotals, error)

	// RecentOrders retrieves the newest orders placed by non-admin users.
	RecentOrders(ctx context.Context, limit int) ([]model.RecentOrder, error)

	// TopProducts ranks products by quantity sold in [from, to).
	TopProducts(ctx context.Context, statuses []model.OrderStatus, from, to time.Time, limit int) ([]model.ProductSales, error)

	// SalesBuckets groups sales in [from, to) by day or month.
	SalesBuckets(ctx context.Context, statuses []model.OrderStatus, from, to time.Time, unit string) ([]model.SalesBucket, error)
}

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a Postgres unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func statusStrings(statuses []model.OrderStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

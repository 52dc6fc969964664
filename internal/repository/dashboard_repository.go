package repository

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// dashboardRepository implements the DashboardRepository interface using PostgreSQL.
type dashboardRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewDashboardRepository creates a new PostgreSQL-backed dashboard repository.
func NewDashboardRepository(pool *pgxpool.Pool, logger zerolog.Logger) DashboardRepository {
	return &dashboardRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "dashboard").Logger(),
	}
}

// PeriodTotals sums sales, counts orders and distinct customers in [from, to).
func (r *dashboardRepository) PeriodTotals(ctx context.Context, statuses []model.OrderStatus, from, to time.Time) (model.PeriodTotals, error) {
	var totals model.PeriodTotals

	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_amount), 0)::float8, COUNT(*), COUNT(DISTINCT user_id)
		FROM orders
		WHERE status = ANY($1) AND created_at >= $2 AND created_at < $3`,
		statusStrings(statuses), from, to,
	).Scan(&totals.TotalSales, &totals.TotalOrders, &totals.TotalCustomers)
	if err != nil {
		r.logger.Error().Err(err).Time("from", from).Time("to", to).Msg("failed to aggregate period totals")
		return totals, fmt.Errorf("failed to aggregate period totals: %w", err)
	}

	return totals, nil
}

// RecentOrders retrieves the newest orders placed by non-admin users.
func (r *dashboardRepository) RecentOrders(ctx context.Context, limit int) ([]model.RecentOrder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT o.id, o.order_number, u.name, u.role, o.total_amount, o.status, o.created_at
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE u.role <> 'admin'
		ORDER BY o.created_at DESC, o.id
		LIMIT $1`, limit)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query recent orders")
		return nil, fmt.Errorf("failed to query recent orders: %w", err)
	}
	defer rows.Close()

	orders := []model.RecentOrder{}
	for rows.Next() {
		var (
			o            model.RecentOrder
			role, status string
		)
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.UserName, &role, &o.TotalAmount, &status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recent order: %w", err)
		}
		o.UserRole = model.Role(role)
		o.Status = model.OrderStatus(status)
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

// TopProducts ranks products by quantity sold in [from, to).
func (r *dashboardRepository) TopProducts(ctx context.Context, statuses []model.OrderStatus, from, to time.Time, limit int) ([]model.ProductSales, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT oi.product_id, SUM(oi.quantity)::int, SUM(oi.price * oi.quantity)::float8
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status = ANY($1) AND o.created_at >= $2 AND o.created_at < $3
		GROUP BY oi.product_id
		ORDER BY SUM(oi.quantity) DESC, oi.product_id
		LIMIT $4`,
		statusStrings(statuses), from, to, limit,
	)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query top products")
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	defer rows.Close()

	sales := []model.ProductSales{}
	for rows.Next() {
		var s model.ProductSales
		if err := rows.Scan(&s.ProductID, &s.QuantitySold, &s.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan top product: %w", err)
		}
		sales = append(sales, s)
	}

	return sales, rows.Err()
}

// SalesBuckets groups sales in [from, to) by day or month, in UTC.
func (r *dashboardRepository) SalesBuckets(ctx context.Context, statuses []model.OrderStatus, from, to time.Time, unit string) ([]model.SalesBucket, error) {
	if unit != "day" && unit != "month" {
		return nil, fmt.Errorf("unsupported bucket unit %q", unit)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT date_trunc($4, created_at AT TIME ZONE 'UTC') AS bucket,
			SUM(total_amount)::float8, COUNT(*)
		FROM orders
		WHERE status = ANY($1) AND created_at >= $2 AND created_at < $3
		GROUP BY bucket
		ORDER BY bucket`,
		statusStrings(statuses), from, to, unit,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("unit", unit).Msg("failed to query sales buckets")
		return nil, fmt.Errorf("failed to query sales buckets: %w", err)
	}
	defer rows.Close()

	buckets := []model.SalesBucket{}
	for rows.Next() {
		var b model.SalesBucket
		if err := rows.Scan(&b.Start, &b.Sales, &b.Orders); err != nil {
			return nil, fmt.Errorf("failed to scan sales bucket: %w", err)
		}
		b.Start = b.Start.UTC()
		buckets = append(buckets, b)
	}

	return buckets, rows.Err()
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const orderColumns = `id, order_number, user_id, shipping_address, payment_method, status,
	payment_status, coupon_code, subtotal, discount, shipping_cost, total_amount, created_at, updated_at`

// querier is the subset of pgxpool.Pool and pgx.Tx used for reads.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// NextOrderNumber increments and returns the order counter for day within tx.
// The upsert serialises concurrent callers on the counter row.
func (r *orderRepository) NextOrderNumber(ctx context.Context, tx pgx.Tx, day time.Time) (int64, error) {
	query := `
		INSERT INTO order_counters (day, value)
		VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET value = order_counters.value + 1
		RETURNING value
	`

	var n int64
	if err := tx.QueryRow(ctx, query, day).Scan(&n); err != nil {
		r.logger.Error().Err(err).Time("day", day).Msg("failed to advance order counter")
		return 0, fmt.Errorf("failed to advance order counter: %w", err)
	}

	return n, nil
}

// CreateOrder inserts an order with its items and history within tx.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (id, order_number, user_id, shipping_address, payment_method, status,
			payment_status, coupon_code, subtotal, discount, shipping_cost, total_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := tx.Exec(ctx, query,
		order.ID, order.OrderNumber, order.UserID, order.ShippingAddress, string(order.PaymentMethod),
		string(order.Status), string(order.PaymentStatus), order.CouponCode, order.Subtotal,
		order.Discount, order.ShippingCost, order.TotalAmount, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	batch := &pgx.Batch{}
	for pos, item := range order.Items {
		batch.Queue(`
			INSERT INTO order_items (id, order_id, product_id, name, price, quantity, image, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			item.ID, order.ID, item.ProductID, item.Name, item.Price, item.Quantity, item.Image, pos,
		)
	}
	for _, entry := range order.StatusHistory {
		batch.Queue(`
			INSERT INTO order_status_history (order_id, status, note, created_at)
			VALUES ($1, $2, $3, $4)`,
			order.ID, string(entry.Status), entry.Note, entry.Timestamp,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			r.logger.Error().
				Err(err).
				Str("order_id", order.ID.String()).
				Msg("failed to create order lines")
			return fmt.Errorf("failed to create order lines: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to create order lines: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Int("item_count", len(order.Items)).
		Msg("order created successfully")

	return nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o                               model.Order
		paymentMethod, status, payState string
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.ShippingAddress, &paymentMethod, &status,
		&payState, &o.CouponCode, &o.Subtotal, &o.Discount, &o.ShippingCost, &o.TotalAmount,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.PaymentMethod = model.PaymentMethod(paymentMethod)
	o.Status = model.OrderStatus(status)
	o.PaymentStatus = model.PaymentStatus(payState)
	return &o, nil
}

// GetByID retrieves an order by its ID along with its items and history.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.get(ctx, r.pool, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
}

// GetForUpdate retrieves and row-locks an order within tx.
func (r *orderRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	return r.get(ctx, tx, "SELECT "+orderColumns+" FROM orders WHERE id = $1 FOR UPDATE", id)
}

func (r *orderRepository) get(ctx context.Context, q querier, query string, id uuid.UUID) (*model.Order, error) {
	order, err := scanOrder(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	orders := []model.Order{*order}
	if err := r.attachLines(ctx, q, orders); err != nil {
		return nil, err
	}

	return &orders[0], nil
}

// List retrieves orders matching the filter, newest first.
func (r *orderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error) {
	var (
		conds []string
		args  []any
	)
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM orders"+where, args...).Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count orders")
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf("SELECT %s FROM orders%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d",
		orderColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, 0, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}
	rows.Close()

	if err := r.attachLines(ctx, r.pool, orders); err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// attachLines loads items and status history for all orders with one query each.
func (r *orderRepository) attachLines(ctx context.Context, q querier, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	index := make(map[uuid.UUID]int, len(orders))
	ids := make([]uuid.UUID, len(orders))
	for i := range orders {
		index[orders[i].ID] = i
		ids[i] = orders[i].ID
		orders[i].Items = []model.OrderItem{}
		orders[i].StatusHistory = []model.StatusHistoryEntry{}
	}

	rows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, name, price, quantity, image
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY position, id`, uuidStrings(ids))
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query order items")
		return fmt.Errorf("failed to query order items: %w", err)
	}
	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.Price, &item.Quantity, &item.Image); err != nil {
			rows.Close()
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating order items: %w", err)
	}

	rows, err = q.Query(ctx, `
		SELECT order_id, status, note, created_at
		FROM order_status_history
		WHERE order_id = ANY($1::uuid[])
		ORDER BY id`, uuidStrings(ids))
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query order history")
		return fmt.Errorf("failed to query order history: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			orderID uuid.UUID
			status  string
			entry   model.StatusHistoryEntry
		)
		if err := rows.Scan(&orderID, &status, &entry.Note, &entry.Timestamp); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order history row")
			return fmt.Errorf("failed to scan order history: %w", err)
		}
		entry.Status = model.OrderStatus(status)
		i := index[orderID]
		orders[i].StatusHistory = append(orders[i].StatusHistory, entry)
	}

	return rows.Err()
}

// UpdateState persists status and payment status within tx.
func (r *orderRepository) UpdateState(ctx context.Context, tx pgx.Tx, order *model.Order, entry *model.StatusHistoryEntry) error {
	_, err := tx.Exec(ctx,
		"UPDATE orders SET status = $2, payment_status = $3, updated_at = $4 WHERE id = $1",
		order.ID, string(order.Status), string(order.PaymentStatus), order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to update order state")
		return fmt.Errorf("failed to update order state: %w", err)
	}

	if entry == nil {
		return nil
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO order_status_history (order_id, status, note, created_at) VALUES ($1, $2, $3, $4)",
		order.ID, string(entry.Status), entry.Note, entry.Timestamp,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to append order history")
		return fmt.Errorf("failed to append order history: %w", err)
	}

	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const couponColumns = `id, code, discount_type, discount_amount, min_purchase_amount, max_discount_amount,
	start_date, end_date, usage_limit, used_count, is_active, created_at, updated_at`

// couponRepository implements the CouponRepository interface using PostgreSQL.
type couponRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCouponRepository creates a new PostgreSQL-backed coupon repository.
func NewCouponRepository(pool *pgxpool.Pool, logger zerolog.Logger) CouponRepository {
	return &couponRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "coupon").Logger(),
	}
}

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var (
		c            model.Coupon
		discountType string
	)
	err := row.Scan(
		&c.ID, &c.Code, &discountType, &c.DiscountAmount, &c.MinPurchaseAmount, &c.MaxDiscountAmount,
		&c.StartDate, &c.EndDate, &c.UsageLimit, &c.UsedCount, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.DiscountType = model.DiscountType(discountType)
	return &c, nil
}

func duplicateCode(code string) error {
	return model.NewDomainError(model.KindConflict, model.ErrCodeConflict,
		fmt.Sprintf("Coupon code %s already exists", code))
}

// Create inserts a new coupon.
func (r *couponRepository) Create(ctx context.Context, c *model.Coupon) error {
	query := `
		INSERT INTO coupons (id, code, discount_type, discount_amount, min_purchase_amount,
			max_discount_amount, start_date, end_date, usage_limit, used_count, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.pool.Exec(ctx, query,
		c.ID, c.Code, string(c.DiscountType), c.DiscountAmount, c.MinPurchaseAmount, c.MaxDiscountAmount,
		c.StartDate, c.EndDate, c.UsageLimit, c.UsedCount, c.IsActive, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return duplicateCode(c.Code)
		}
		r.logger.Error().Err(err).Str("code", c.Code).Msg("failed to create coupon")
		return fmt.Errorf("failed to create coupon: %w", err)
	}

	return nil
}

// Upsert inserts a coupon or replaces the definition of the one with the same code.
func (r *couponRepository) Upsert(ctx context.Context, c *model.Coupon) (bool, error) {
	query := `
		INSERT INTO coupons (id, code, discount_type, discount_amount, min_purchase_amount,
			max_discount_amount, start_date, end_date, usage_limit, used_count, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, $10, $11, $11)
		ON CONFLICT (code) DO UPDATE SET
			discount_type = EXCLUDED.discount_type,
			discount_amount = EXCLUDED.discount_amount,
			min_purchase_amount = EXCLUDED.min_purchase_amount,
			max_discount_amount = EXCLUDED.max_discount_amount,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			usage_limit = EXCLUDED.usage_limit,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
		RETURNING (xmax = 0)
	`

	var inserted bool
	err := r.pool.QueryRow(ctx, query,
		c.ID, c.Code, string(c.DiscountType), c.DiscountAmount, c.MinPurchaseAmount, c.MaxDiscountAmount,
		c.StartDate, c.EndDate, c.UsageLimit, c.IsActive, c.UpdatedAt,
	).Scan(&inserted)
	if err != nil {
		r.logger.Error().Err(err).Str("code", c.Code).Msg("failed to upsert coupon")
		return false, fmt.Errorf("failed to upsert coupon: %w", err)
	}

	return inserted, nil
}

// Update replaces the mutable fields of an existing coupon.
func (r *couponRepository) Update(ctx context.Context, c *model.Coupon) error {
	query := `
		UPDATE coupons
		SET code = $2, discount_type = $3, discount_amount = $4, min_purchase_amount = $5,
			max_discount_amount = $6, start_date = $7, end_date = $8, usage_limit = $9,
			is_active = $10, updated_at = $11
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		c.ID, c.Code, string(c.DiscountType), c.DiscountAmount, c.MinPurchaseAmount, c.MaxDiscountAmount,
		c.StartDate, c.EndDate, c.UsageLimit, c.IsActive, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return duplicateCode(c.Code)
		}
		r.logger.Error().Err(err).Str("coupon_id", c.ID.String()).Msg("failed to update coupon")
		return fmt.Errorf("failed to update coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCouponNotFound
	}

	return nil
}

// Delete removes a coupon.
func (r *couponRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM coupons WHERE id = $1", id)
	if err != nil {
		r.logger.Error().Err(err).Str("coupon_id", id.String()).Msg("failed to delete coupon")
		return fmt.Errorf("failed to delete coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCouponNotFound
	}
	return nil
}

// GetByID retrieves a coupon by ID.
func (r *couponRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	return r.getOne(ctx, r.pool, "SELECT "+couponColumns+" FROM coupons WHERE id = $1", id)
}

// GetByCode retrieves a coupon by its normalised code.
func (r *couponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	return r.getOne(ctx, r.pool, "SELECT "+couponColumns+" FROM coupons WHERE code = $1", code)
}

// GetByCodeForUpdate retrieves and row-locks a coupon within tx.
func (r *couponRepository) GetByCodeForUpdate(ctx context.Context, tx pgx.Tx, code string) (*model.Coupon, error) {
	return r.getOne(ctx, tx, "SELECT "+couponColumns+" FROM coupons WHERE code = $1 FOR UPDATE", code)
}

func (r *couponRepository) getOne(ctx context.Context, q querier, query string, key any) (*model.Coupon, error) {
	c, err := scanCoupon(q.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Interface("key", key).Msg("failed to query coupon")
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}
	return c, nil
}

// List retrieves coupons ordered by creation time.
func (r *couponRepository) List(ctx context.Context, limit, offset int) ([]model.Coupon, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM coupons").Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count coupons")
		return nil, 0, fmt.Errorf("failed to count coupons: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		"SELECT "+couponColumns+" FROM coupons ORDER BY created_at DESC, code LIMIT $1 OFFSET $2",
		limit, offset,
	)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query coupons")
		return nil, 0, fmt.Errorf("failed to query coupons: %w", err)
	}
	defer rows.Close()

	coupons := []model.Coupon{}
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating coupons: %w", err)
	}

	return coupons, total, nil
}

// IncrementUsage bumps the used count within tx if the usage limit allows it.
func (r *couponRepository) IncrementUsage(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	tag, err := tx.Exec(ctx,
		"UPDATE coupons SET used_count = used_count + 1, updated_at = NOW() WHERE id = $1 AND used_count < usage_limit",
		id,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("coupon_id", id.String()).Msg("failed to increment coupon usage")
		return false, fmt.Errorf("failed to increment coupon usage: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

package coupon

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type evaluator struct {
	repo   repository.CouponRepository
	logger zerolog.Logger
	now    func() time.Time
}

// NewEvaluator creates a coupon evaluator backed by the coupon repository.
func NewEvaluator(repo repository.CouponRepository, logger zerolog.Logger) Evaluator {
	return &evaluator{
		repo:   repo,
		logger: logger.With().Str("component", "coupon-evaluator").Logger(),
		now:    time.Now,
	}
}

func (e *evaluator) Check(ctx context.Context, code string, purchaseAmount float64) (*model.CouponCheckResponse, error) {
	normalized := Normalize(code)

	c, err := e.repo.GetByCode(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to look up coupon: %w", err)
	}

	discount, err := e.evaluate(c, purchaseAmount)
	if err != nil {
		e.logger.Debug().Str("code", normalized).Err(err).Msg("coupon rejected")
		return nil, err
	}

	return &model.CouponCheckResponse{Coupon: c, Discount: discount}, nil
}

func (e *evaluator) Redeem(ctx context.Context, tx pgx.Tx, code string, purchaseAmount float64) (*model.Coupon, float64, error) {
	normalized := Normalize(code)

	c, err := e.repo.GetByCodeForUpdate(ctx, tx, normalized)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to lock coupon: %w", err)
	}

	discount, err := e.evaluate(c, purchaseAmount)
	if err != nil {
		return nil, 0, err
	}

	ok, err := e.repo.IncrementUsage(ctx, tx, c.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to record coupon usage: %w", err)
	}
	if !ok {
		metrics.CouponChecks.WithLabelValues("exhausted").Inc()
		return nil, 0, invalid("Coupon usage limit has been reached")
	}
	c.UsedCount++

	e.logger.Info().
		Str("code", c.Code).
		Float64("discount", discount).
		Int("used_count", c.UsedCount).
		Msg("coupon redeemed")

	return c, discount, nil
}

func (e *evaluator) evaluate(c *model.Coupon, purchaseAmount float64) (float64, error) {
	if c == nil {
		metrics.CouponChecks.WithLabelValues("not_found").Inc()
		return 0, model.ErrCouponNotFound
	}

	if err := Validate(c, purchaseAmount, e.now()); err != nil {
		metrics.CouponChecks.WithLabelValues("invalid").Inc()
		return 0, err
	}

	metrics.CouponChecks.WithLabelValues("valid").Inc()
	return CalculateDiscount(c, purchaseAmount), nil
}

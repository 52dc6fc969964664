package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/coupon"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// couponService implements CouponService.
type couponService struct {
	couponRepo repository.CouponRepository
	evaluator  coupon.Evaluator
	logger     zerolog.Logger
	now        func() time.Time
}

// NewCouponService creates a new coupon service.
func NewCouponService(couponRepo repository.CouponRepository, evaluator coupon.Evaluator, logger zerolog.Logger) CouponService {
	return &couponService{
		couponRepo: couponRepo,
		evaluator:  evaluator,
		logger:     logger.With().Str("service", "coupon").Logger(),
		now:        time.Now,
	}
}

func (s *couponService) Check(ctx context.Context, req *model.CouponCheckRequest) (*model.CouponCheckResponse, error) {
	return s.evaluator.Check(ctx, req.Code, req.PurchaseAmount)
}

func (s *couponService) Create(ctx context.Context, req *model.CouponRequest) (*model.Coupon, error) {
	c := coupon.FromRequest(req)
	c.ID = uuid.New()
	c.CreatedAt = s.now().UTC()
	c.UpdatedAt = c.CreatedAt

	if err := s.couponRepo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info().Str("code", c.Code).Msg("coupon created")
	return c, nil
}

func (s *couponService) GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	c, err := s.couponRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("coupon_id", id.String()).Msg("failed to get coupon")
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}
	if c == nil {
		return nil, model.ErrCouponNotFound
	}
	return c, nil
}

func (s *couponService) List(ctx context.Context, limit, offset int) ([]model.Coupon, model.Pagination, error) {
	limit, offset = page(limit, offset)

	coupons, total, err := s.couponRepo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list coupons")
		return nil, model.Pagination{}, fmt.Errorf("failed to list coupons: %w", err)
	}

	return coupons, model.Pagination{Total: total, Limit: limit, Offset: offset}, nil
}

func (s *couponService) Update(ctx context.Context, id uuid.UUID, req *model.CouponRequest) (*model.Coupon, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c := coupon.FromRequest(req)
	c.ID = existing.ID
	c.UsedCount = existing.UsedCount
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.now().UTC()

	if err := s.couponRepo.Update(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info().Str("code", c.Code).Msg("coupon updated")
	return c, nil
}

func (s *couponService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.couponRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Str("coupon_id", id.String()).Msg("coupon deleted")
	return nil
}

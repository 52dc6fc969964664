package coupon

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ImportResult summarises a catalogue import.
type ImportResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

// Importer upserts a coupon catalogue into the coupon store by code.
type Importer struct {
	loader   Loader
	repo     repository.CouponRepository
	validate *validator.Validate
	logger   zerolog.Logger
	now      func() time.Time
}

// NewImporter creates an importer reading catalogues through loader.
func NewImporter(loader Loader, repo repository.CouponRepository, logger zerolog.Logger) *Importer {
	return &Importer{
		loader:   loader,
		repo:     repo,
		validate: validation.New(),
		logger:   logger.With().Str("component", "coupon-importer").Logger(),
		now:      time.Now,
	}
}

// Import loads the catalogue at path and upserts every valid definition.
// Invalid definitions are skipped and counted; a storage failure aborts the import.
func (im *Importer) Import(ctx context.Context, path string) (ImportResult, error) {
	var result ImportResult

	requests, err := im.loader.Load(ctx, path)
	if err != nil {
		return result, err
	}

	for i := range requests {
		req := &requests[i]
		if err := im.validate.Struct(req); err != nil {
			result.Skipped++
			metrics.CouponsImported.WithLabelValues("skipped").Inc()
			im.logger.Warn().
				Int("entry", i+1).
				Str("code", req.Code).
				Str("reason", validation.Describe(err)).
				Msg("skipping invalid coupon definition")
			continue
		}

		c := FromRequest(req)
		c.ID = uuid.New()
		c.CreatedAt = im.now().UTC()
		c.UpdatedAt = c.CreatedAt
		inserted, err := im.repo.Upsert(ctx, c)
		if err != nil {
			return result, fmt.Errorf("failed to import coupon %s: %w", c.Code, err)
		}

		if inserted {
			result.Inserted++
			metrics.CouponsImported.WithLabelValues("inserted").Inc()
		} else {
			result.Updated++
			metrics.CouponsImported.WithLabelValues("updated").Inc()
		}
	}

	im.logger.Info().
		Str("path", path).
		Int("inserted", result.Inserted).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Msg("coupon catalogue imported")

	return result, nil
}

// FromRequest builds a coupon from a validated request. Coupons are active unless
// the request says otherwise.
func FromRequest(req *model.CouponRequest) *model.Coupon {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return &model.Coupon{
		Code:              Normalize(req.Code),
		DiscountType:      req.DiscountType,
		DiscountAmount:    req.DiscountAmount,
		MinPurchaseAmount: req.MinPurchaseAmount,
		MaxDiscountAmount: req.MaxDiscountAmount,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		UsageLimit:        req.UsageLimit,
		IsActive:          active,
	}
}

package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/dashboard"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const (
	recentOrdersLimit = 5
	topProductsLimit  = 5
	missingProduct    = "Product not found"
)

// dashboardService implements DashboardService.
type dashboardService struct {
	dashboardRepo     repository.DashboardRepository
	productRepo       repository.ProductRepository
	lowStockThreshold int
	logger            zerolog.Logger
	now               func() time.Time
}

// NewDashboardService creates the dashboard aggregator.
func NewDashboardService(
	dashboardRepo repository.DashboardRepository,
	productRepo repository.ProductRepository,
	lowStockThreshold int,
	logger zerolog.Logger,
) DashboardService {
	return &dashboardService{
		dashboardRepo:     dashboardRepo,
		productRepo:       productRepo,
		lowStockThreshold: lowStockThreshold,
		logger:            logger.With().Str("service", "dashboard").Logger(),
		now:               time.Now,
	}
}

// Stats runs the independent aggregations concurrently; the first failure cancels the rest.
func (s *dashboardService) Stats(ctx context.Context, filter model.TimeFilter, includeEmpty bool) (*model.DashboardStats, error) {
	if filter == "" {
		filter = model.FilterMonth
	}
	if !filter.Valid() {
		return nil, model.NewValidationError(fmt.Sprintf("timeFilter must be one of [week month year], got %q", filter))
	}

	ctx, span := tracer.Start(ctx, "DashboardService.Stats")
	defer span.End()
	span.SetAttributes(attribute.String("time_filter", string(filter)))

	now := s.now().UTC()
	w := dashboard.WindowFor(filter, now)
	statuses := dashboard.CountedStatuses

	var (
		current, previous model.PeriodTotals
		recent            []model.RecentOrder
		sales             []model.ProductSales
		buckets           []model.SalesBucket
		inventory         model.InventoryStats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		current, err = s.dashboardRepo.PeriodTotals(gctx, statuses, w.From, w.To)
		return err
	})
	g.Go(func() (err error) {
		previous, err = s.dashboardRepo.PeriodTotals(gctx, statuses, w.PrevFrom, w.From)
		return err
	})
	g.Go(func() (err error) {
		recent, err = s.dashboardRepo.RecentOrders(gctx, recentOrdersLimit)
		return err
	})
	g.Go(func() (err error) {
		sales, err = s.dashboardRepo.TopProducts(gctx, statuses, w.From, w.To, topProductsLimit)
		return err
	})
	g.Go(func() (err error) {
		buckets, err = s.dashboardRepo.SalesBuckets(gctx, statuses, w.From, w.To, dashboard.SeriesUnit(filter))
		return err
	})
	g.Go(func() (err error) {
		inventory, err = s.productRepo.Inventory(gctx, s.lowStockThreshold)
		return err
	})

	if err := g.Wait(); err != nil {
		recordFailure(span, err)
		s.logger.Error().Err(err).Str("time_filter", string(filter)).Msg("failed to aggregate dashboard")
		return nil, fmt.Errorf("failed to aggregate dashboard: %w", err)
	}

	top, err := s.enrichTopProducts(ctx, sales)
	if err != nil {
		recordFailure(span, err)
		return nil, err
	}

	current = dashboard.Finalize(current)
	previous = dashboard.Finalize(previous)

	for i := range recent {
		recent[i].TotalAmount = dashboard.RoundMoney(recent[i].TotalAmount)
	}
	if recent == nil {
		recent = []model.RecentOrder{}
	}

	return &model.DashboardStats{
		TimeFilter:   filter,
		From:         w.From,
		To:           w.To,
		Totals:       current,
		Previous:     previous,
		Deltas:       dashboard.Deltas(previous, current),
		RecentOrders: recent,
		TopProducts:  top,
		SalesSeries:  dashboard.BuildSeries(filter, w.From, w.To, buckets, includeEmpty),
		Inventory:    inventory,
	}, nil
}

// enrichTopProducts attaches catalogue data to best sellers. Products deleted
// since they were sold keep their figures under a placeholder name.
func (s *dashboardService) enrichTopProducts(ctx context.Context, sales []model.ProductSales) ([]model.TopProduct, error) {
	top := make([]model.TopProduct, 0, len(sales))
	if len(sales) == 0 {
		return top, nil
	}

	ids := make([]uuid.UUID, len(sales))
	for i, ps := range sales {
		ids[i] = ps.ProductID
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load top products")
		return nil, fmt.Errorf("failed to load top products: %w", err)
	}

	byID := make(map[uuid.UUID]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for _, ps := range sales {
		tp := model.TopProduct{
			ProductID:    ps.ProductID,
			Name:         missingProduct,
			Images:       []string{},
			QuantitySold: ps.QuantitySold,
			Revenue:      dashboard.RoundMoney(ps.Revenue),
		}
		if p, ok := byID[ps.ProductID]; ok {
			tp.Name = p.Name
			tp.Category = p.Category
			if p.Images != nil {
				tp.Images = p.Images
			}
		}
		top = append(top, tp)
	}

	return top, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/coupon"
	"storefront/internal/database"
	"storefront/internal/handler"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"
	"storefront/internal/telemetry"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger, "storefront-api")
	logger.Info().Msg("starting storefront API server")

	// Cancelled on shutdown; owns pool and tracer lifetimes.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Tracing.Enabled {
		tp, err := telemetry.InitTracer(ctx, cfg.Tracing.ServiceName)
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer func() {
			flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer flushCancel()
			if err := tp.Shutdown(flushCtx); err != nil {
				logger.Error().Err(err).Msg("failed to flush traces")
			}
		}()
		logger.Info().Str("service_name", cfg.Tracing.ServiceName).Msg("tracing enabled")
	}

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	server := newServer(cfg, pool, logger)

	// ListenAndServe failures surface here.
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Wait for SIGINT/SIGTERM or a server failure.
	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newServer wires repositories, services and handlers into the HTTP server.
func newServer(cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) *http.Server {
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	couponRepo := repository.NewCouponRepository(pool, logger)
	addressRepo := repository.NewAddressRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)
	dashboardRepo := repository.NewDashboardRepository(pool, logger)

	evaluator := coupon.NewEvaluator(couponRepo, logger)

	// Wire services on top of the repositories.
	productService := service.NewProductService(productRepo, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, evaluator, logger)
	couponService := service.NewCouponService(couponRepo, evaluator, logger)
	addressService := service.NewAddressService(addressRepo, logger)
	userService := service.NewUserService(userRepo, logger)
	dashboardService := service.NewDashboardService(dashboardRepo, productRepo, cfg.Dashboard.LowStockThreshold, logger)

	handlers := router.Handlers{
		Products:  handler.NewProductHandler(productService, logger),
		Orders:    handler.NewOrderHandler(orderService, logger),
		Coupons:   handler.NewCouponHandler(couponService, logger),
		Addresses: handler.NewAddressHandler(addressService, logger),
		Users:     handler.NewUserHandler(userService, logger),
		Dashboard: handler.NewDashboardHandler(dashboardService, logger),
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)

	mux := router.New(handlers, tokens, userRepo, router.Options{
		Tracing:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
	}, logger)

	return &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

package coupon

import (
	"context"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
)

// Evaluator decides whether a coupon applies to a purchase and how much it takes off.
type Evaluator interface {
	// Check evaluates a code against a purchase amount without side effects.
	Check(ctx context.Context, code string, purchaseAmount float64) (*model.CouponCheckResponse, error)

	// Redeem evaluates a code within tx, locking the coupon row, and consumes one use.
	// It returns the coupon and the discount granted.
	Redeem(ctx context.Context, tx pgx.Tx, code string, purchaseAmount float64) (*model.Coupon, float64, error)
}

// Loader reads a coupon catalogue.
type Loader interface {
	// Load reads a gzipped JSON-lines catalogue, one coupon definition per line.
	Load(ctx context.Context, path string) ([]model.CouponRequest, error)
}

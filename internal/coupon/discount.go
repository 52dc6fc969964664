package coupon

import (
	"fmt"
	"strings"
	"time"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Normalize returns the canonical stored form of a coupon code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CalculateDiscount returns the discount c grants on amount, rounded to cents.
// The result never exceeds amount nor the coupon's maximum discount.
func CalculateDiscount(c *model.Coupon, amount float64) float64 {
	purchase := decimal.NewFromFloat(amount)
	if !purchase.IsPositive() {
		return 0
	}

	var discount decimal.Decimal
	switch c.DiscountType {
	case model.DiscountPercentage:
		discount = purchase.Mul(decimal.NewFromFloat(c.DiscountAmount)).Div(hundred)
	default:
		discount = decimal.NewFromFloat(c.DiscountAmount)
	}
	discount = discount.Round(2)

	if c.MaxDiscountAmount != nil {
		discount = decimal.Min(discount, decimal.NewFromFloat(*c.MaxDiscountAmount))
	}
	discount = decimal.Min(discount, purchase)
	if discount.IsNegative() {
		return 0
	}

	return discount.InexactFloat64()
}

// Validate checks that c can be applied to amount at now.
func Validate(c *model.Coupon, amount float64, now time.Time) error {
	switch {
	case !c.IsActive:
		return invalid("Coupon is not active")
	case now.Before(c.StartDate):
		return invalid("Coupon is not valid yet")
	case now.After(c.EndDate):
		return invalid("Coupon has expired")
	case c.UsedCount >= c.UsageLimit:
		return invalid("Coupon usage limit has been reached")
	case c.MinPurchaseAmount != nil && amount < *c.MinPurchaseAmount:
		return invalid(fmt.Sprintf("Minimum purchase amount for this coupon is %.2f", *c.MinPurchaseAmount))
	}
	return nil
}

func invalid(reason string) error {
	return model.NewDomainError(model.KindInvalidState, model.ErrCodeCouponInvalid, reason)
}

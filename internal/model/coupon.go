package model

import (
	"time"

	"github.com/google/uuid"
)

// DiscountType selects how a coupon's amount is interpreted.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Coupon is a redeemable discount code.
type Coupon struct {
	ID                uuid.UUID    `json:"id" db:"id"`
	Code              string       `json:"code" db:"code"`
	DiscountType      DiscountType `json:"discountType" db:"discount_type"`
	DiscountAmount    float64      `json:"discountAmount" db:"discount_amount"`
	MinPurchaseAmount *float64     `json:"minPurchaseAmount,omitempty" db:"min_purchase_amount"`
	MaxDiscountAmount *float64     `json:"maxDiscountAmount,omitempty" db:"max_discount_amount"`
	StartDate         time.Time    `json:"startDate" db:"start_date"`
	EndDate           time.Time    `json:"endDate" db:"end_date"`
	UsageLimit        int          `json:"usageLimit" db:"usage_limit"`
	UsedCount         int          `json:"usedCount" db:"used_count"`
	IsActive          bool         `json:"isActive" db:"is_active"`
	CreatedAt         time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time    `json:"updatedAt" db:"updated_at"`
}

// CouponRequest is the payload for creating or replacing a coupon.
// The same shape is used for each line of a coupon catalogue file.
type CouponRequest struct {
	Code              string       `json:"code" validate:"required,min=3,max=50"`
	DiscountType      DiscountType `json:"discountType" validate:"required,oneof=percentage fixed"`
	DiscountAmount    float64      `json:"discountAmount" validate:"gt=0"`
	MinPurchaseAmount *float64     `json:"minPurchaseAmount,omitempty" validate:"omitempty,gte=0"`
	MaxDiscountAmount *float64     `json:"maxDiscountAmount,omitempty" validate:"omitempty,gt=0"`
	StartDate         time.Time    `json:"startDate" validate:"required"`
	EndDate           time.Time    `json:"endDate" validate:"required,gtfield=StartDate"`
	UsageLimit        int          `json:"usageLimit" validate:"gte=1"`
	IsActive          *bool        `json:"isActive,omitempty"`
}

// CouponCheckRequest asks whether a code applies to a purchase amount.
type CouponCheckRequest struct {
	Code           string  `json:"code" validate:"required,max=50"`
	PurchaseAmount float64 `json:"purchaseAmount" validate:"gte=0"`
}

// CouponCheckResponse is the outcome of a successful coupon check.
type CouponCheckResponse struct {
	Coupon   *Coupon `json:"coupon"`
	Discount float64 `json:"discount"`
}

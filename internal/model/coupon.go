package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType selects how a coupon's discount value is interpreted.
type DiscountType string

const (
	DiscountPercentage   DiscountType = "PERCENTAGE"
	DiscountFixedAmount  DiscountType = "FIXED_AMOUNT"
	DiscountFreeShipping DiscountType = "FREE_SHIPPING"
)

// Coupon represents a coupon in the system
type Coupon struct {
	ID             int64
	Code           string
	DiscountType   DiscountType
	DiscountValue  decimal.Decimal
	MinOrderAmount decimal.Decimal
	ExpiryDate     time.Time
	UsageLimit     int
	UsageCount     int
	Active         bool
	CreatedAt      time.Time
}

// ApplyResult is the outcome of a successful apply.
type ApplyResult struct {
	OriginalPrice decimal.Decimal
	Discount      decimal.Decimal
	FinalPrice    decimal.Decimal
}

// CouponResponse is the API response DTO for a single coupon.
// Money fields are rendered with exactly two fractional digits.
type CouponResponse struct {
	ID             int64        `json:"id"`
	Code           string       `json:"code"`
	DiscountType   DiscountType `json:"discount_type"`
	DiscountValue  string       `json:"discount_value"`
	MinOrderAmount string       `json:"min_order_amount"`
	ExpiryDate     time.Time    `json:"expiry_date"`
	UsageLimit     int          `json:"usage_limit"`
	UsageCount     int          `json:"usage_count"`
	Active         bool         `json:"active"`
	CreatedAt      time.Time    `json:"created_at"`
}

// NewCouponResponse maps a stored coupon to its API shape.
func NewCouponResponse(c *Coupon) *CouponResponse {
	return &CouponResponse{
		ID:             c.ID,
		Code:           c.Code,
		DiscountType:   c.DiscountType,
		DiscountValue:  c.DiscountValue.StringFixed(2),
		MinOrderAmount: c.MinOrderAmount.StringFixed(2),
		ExpiryDate:     c.ExpiryDate,
		UsageLimit:     c.UsageLimit,
		UsageCount:     c.UsageCount,
		Active:         c.Active,
		CreatedAt:      c.CreatedAt,
	}
}

// ApplyCouponResponse is the API response DTO for POST /api/coupons/:code/apply
type ApplyCouponResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	OriginalPrice string `json:"original_price"`
	Discount      string `json:"discount"`
	FinalPrice    string `json:"final_price"`
}

// NewApplyCouponResponse maps an apply result to its API shape.
func NewApplyCouponResponse(r *ApplyResult) *ApplyCouponResponse {
	return &ApplyCouponResponse{
		Success:       true,
		Message:       "coupon applied",
		OriginalPrice: r.OriginalPrice.StringFixed(2),
		Discount:      r.Discount.StringFixed(2),
		FinalPrice:    r.FinalPrice.StringFixed(2),
	}
}

// CreateCouponRequest is the DTO for creating a coupon
type CreateCouponRequest struct {
	DiscountType   string           `json:"discount_type" validate:"required,oneof=PERCENTAGE FIXED_AMOUNT FREE_SHIPPING"`
	DiscountValue  *decimal.Decimal `json:"discount_value" validate:"required,gt=0"`
	MinOrderAmount *decimal.Decimal `json:"min_order_amount" validate:"required,gte=0"`
	ExpiryDate     *time.Time       `json:"expiry_date" validate:"required,gt"`
	UsageLimit     *int             `json:"usage_limit" validate:"required,gte=1"`
}

// ApplyCouponRequest is the DTO for applying a coupon to an order
type ApplyCouponRequest struct {
	OrderAmount *decimal.Decimal `json:"order_amount" validate:"required,gt=0"`
}

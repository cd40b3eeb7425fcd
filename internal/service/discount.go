package service

import (
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/discount-coupon-service/internal/model"
)

var hundred = decimal.NewFromInt(100)

// CalculateDiscount returns the discount a coupon grants on orderAmount,
// rounded half away from zero to two places. It performs no I/O.
func CalculateDiscount(discountType model.DiscountType, value, orderAmount decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal

	switch discountType {
	case model.DiscountPercentage:
		discount = orderAmount.Mul(value).Div(hundred)
	case model.DiscountFixedAmount:
		discount = decimal.Min(value, orderAmount)
	case model.DiscountFreeShipping:
		// Shipping cost is not modelled, so the order total is unchanged.
		discount = decimal.Zero
	default:
		log.Warn().Str("discount_type", string(discountType)).Msg("unknown discount type, no discount applied")
		discount = decimal.Zero
	}

	return discount.Round(2)
}

// FinalPrice subtracts discount from orderAmount, floored at zero.
func FinalPrice(orderAmount, discount decimal.Decimal) decimal.Decimal {
	return decimal.Max(orderAmount.Sub(discount), decimal.Zero).Round(2)
}

package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/discount-coupon-service/internal/model"
)

// ApplyServiceInterface defines the interface for applying coupons to orders.
type ApplyServiceInterface interface {
	Apply(ctx context.Context, code string, orderAmount decimal.Decimal) (*model.ApplyResult, error)
}

// ApplyHandler handles HTTP requests for coupon application.
type ApplyHandler struct {
	service   ApplyServiceInterface
	validator *validator.Validate
}

// NewApplyHandler creates a new ApplyHandler with the given service and validator.
func NewApplyHandler(svc ApplyServiceInterface, v *validator.Validate) *ApplyHandler {
	return &ApplyHandler{service: svc, validator: v}
}

// ApplyCoupon handles POST /api/coupons/:code/apply requests.
func (h *ApplyHandler) ApplyCoupon(c *fiber.Ctx) error {
	code := c.Params("code")
	if err := h.validator.Var(code, codeRule); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: code is invalid"})
	}

	var req model.ApplyCouponRequest

	// Parse JSON body
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	// Validate request
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(validationBody(err))
	}

	result, err := h.service.Apply(c.Context(), code, *req.OrderAmount)
	if err != nil {
		return respondError(c, err, code, "failed to apply coupon")
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Str("coupon_code", code).
		Str("final_price", result.FinalPrice.StringFixed(2)).
		Msg("coupon applied successfully")

	return c.Status(fiber.StatusOK).JSON(model.NewApplyCouponResponse(result))
}

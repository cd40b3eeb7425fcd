package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/discount-coupon-service/internal/model"
)

// codeRule constrains the :code path parameter.
const codeRule = "required,notblank,max=20"

// CouponServiceInterface defines the interface for coupon business logic.
type CouponServiceInterface interface {
	Create(ctx context.Context, req *model.CreateCouponRequest) (*model.Coupon, error)
	List(ctx context.Context) ([]model.Coupon, error)
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	Delete(ctx context.Context, code string) error
}

// CouponHandler handles HTTP requests for coupon operations.
type CouponHandler struct {
	service   CouponServiceInterface
	validator *validator.Validate
}

// NewCouponHandler creates a new CouponHandler with the given service and validator.
func NewCouponHandler(svc CouponServiceInterface, v *validator.Validate) *CouponHandler {
	return &CouponHandler{service: svc, validator: v}
}

// CreateCoupon handles POST /api/coupons requests to issue a new coupon.
func (h *CouponHandler) CreateCoupon(c *fiber.Ctx) error {
	var req model.CreateCouponRequest

	// Parse JSON body
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	// Validate request
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(validationBody(err))
	}

	coupon, err := h.service.Create(c.Context(), &req)
	if err != nil {
		return respondError(c, err, "", "failed to create coupon")
	}

	return c.Status(fiber.StatusCreated).JSON(model.NewCouponResponse(coupon))
}

// ListCoupons handles GET /api/coupons requests.
func (h *CouponHandler) ListCoupons(c *fiber.Ctx) error {
	coupons, err := h.service.List(c.Context())
	if err != nil {
		return respondError(c, err, "", "failed to list coupons")
	}

	resp := make([]*model.CouponResponse, 0, len(coupons))
	for i := range coupons {
		resp = append(resp, model.NewCouponResponse(&coupons[i]))
	}
	return c.JSON(resp)
}

// GetCoupon handles GET /api/coupons/:code requests to retrieve coupon details.
func (h *CouponHandler) GetCoupon(c *fiber.Ctx) error {
	code := c.Params("code")
	if err := h.validator.Var(code, codeRule); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: code is invalid"})
	}

	coupon, err := h.service.GetByCode(c.Context(), code)
	if err != nil {
		return respondError(c, err, code, "failed to get coupon")
	}

	log.Debug().
		Str("coupon_code", coupon.Code).
		Int("usage_count", coupon.UsageCount).
		Int("usage_limit", coupon.UsageLimit).
		Msg("coupon retrieved")

	return c.JSON(model.NewCouponResponse(coupon))
}

// DeleteCoupon handles DELETE /api/coupons/:code requests.
func (h *CouponHandler) DeleteCoupon(c *fiber.Ctx) error {
	code := c.Params("code")
	if err := h.validator.Var(code, codeRule); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: code is invalid"})
	}

	if err := h.service.Delete(c.Context(), code); err != nil {
		return respondError(c, err, code, "failed to delete coupon")
	}

	return c.Status(fiber.StatusNoContent).Send(nil)
}

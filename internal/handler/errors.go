package handler

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/discount-coupon-service/internal/service"
)

// fieldNames maps request struct fields to their JSON names.
var fieldNames = map[string]string{
	"DiscountType":   "discount_type",
	"DiscountValue":  "discount_value",
	"MinOrderAmount": "min_order_amount",
	"ExpiryDate":     "expiry_date",
	"UsageLimit":     "usage_limit",
	"OrderAmount":    "order_amount",
}

// fieldMessage describes a single failed rule, e.g. "usage_limit must be at least 1".
func fieldMessage(fe validator.FieldError) (field, msg string) {
	field, ok := fieldNames[fe.Field()]
	if !ok {
		field = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return field, field + " is required"
	case "oneof":
		return field, field + " must be one of PERCENTAGE, FIXED_AMOUNT, FREE_SHIPPING"
	}

	switch field {
	case "discount_value", "order_amount":
		if fe.Tag() == "gt" {
			return field, field + " must be greater than 0"
		}
	case "min_order_amount":
		if fe.Tag() == "gte" {
			return field, "min_order_amount cannot be negative"
		}
	case "expiry_date":
		if fe.Tag() == "gt" {
			return field, "expiry_date must be in the future"
		}
	case "usage_limit":
		if fe.Tag() == "gte" {
			return field, "usage_limit must be at least 1"
		}
	}
	return field, field + " is invalid"
}

// validationBody builds the 400 body for a failed struct validation.
// "error" carries the first failing field; "validation_errors" maps every
// failing field by its JSON name.
func validationBody(err error) fiber.Map {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return fiber.Map{"error": "invalid request"}
	}

	fields := make(map[string]string, len(ve))
	var first string
	for i, fe := range ve {
		field, msg := fieldMessage(fe)
		if i == 0 {
			first = msg
		}
		if _, seen := fields[field]; !seen {
			fields[field] = msg
		}
	}
	return fiber.Map{
		"error":             "invalid request: " + first,
		"validation_errors": fields,
	}
}

// respondError maps service errors to HTTP status codes and writes the error body.
// Unexpected errors are logged and reported without internal detail.
func respondError(c *fiber.Ctx, err error, code string, msg string) error {
	var invalidErr *service.InvalidCouponError

	switch {
	case errors.Is(err, service.ErrCouponNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": notFoundMessage(code)})
	case errors.Is(err, service.ErrCouponExpired):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "coupon expired"})
	case errors.As(err, &invalidErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": invalidErr.Reason})
	case errors.Is(err, service.ErrInvalidRequest):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": service.ErrConflict.Error()})
	}

	log.Error().
		Err(err).
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Str("coupon_code", code).
		Msg(msg)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

func notFoundMessage(code string) string {
	if code == "" {
		return service.ErrCouponNotFound.Error()
	}
	return fmt.Sprintf("coupon with code '%s' not found", code)
}

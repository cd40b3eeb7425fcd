package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/discount-coupon-service/internal/model"
	"github.com/fairyhunter13/discount-coupon-service/internal/service"
	appvalidator "github.com/fairyhunter13/discount-coupon-service/internal/validator"
)

// mockApplyService is a mock implementation of ApplyServiceInterface.
type mockApplyService struct {
	applyFn func(ctx context.Context, code string, orderAmount decimal.Decimal) (*model.ApplyResult, error)
}

func (m *mockApplyService) Apply(ctx context.Context, code string, orderAmount decimal.Decimal) (*model.ApplyResult, error) {
	if m.applyFn != nil {
		return m.applyFn(ctx, code, orderAmount)
	}
	return &model.ApplyResult{OriginalPrice: orderAmount, FinalPrice: orderAmount}, nil
}

func setupApplyTestApp(mockSvc *mockApplyService) *fiber.App {
	app := fiber.New()
	h := NewApplyHandler(mockSvc, appvalidator.New())
	app.Post("/api/coupons/:code/apply", h.ApplyCoupon)
	return app
}

func doApply(t *testing.T, app *fiber.App, code, body string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/coupons/"+code+"/apply", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return resp, result
}

// calculatingService runs the real discount arithmetic so the handler output
// can be checked end to end without a database.
func calculatingService(discountType model.DiscountType, value string) *mockApplyService {
	return &mockApplyService{
		applyFn: func(ctx context.Context, code string, orderAmount decimal.Decimal) (*model.ApplyResult, error) {
			discount := service.CalculateDiscount(discountType, decimal.RequireFromString(value), orderAmount)
			return &model.ApplyResult{
				OriginalPrice: orderAmount,
				Discount:      discount,
				FinalPrice:    service.FinalPrice(orderAmount, discount),
			}, nil
		},
	}
}

func TestApplyCoupon_Scenarios(t *testing.T) {
	testCases := []struct {
		name         string
		discountType model.DiscountType
		value        string
		body         string
		wantOriginal string
		wantDiscount string
		wantFinal    string
	}{
		{
			name:         "percentage",
			discountType: model.DiscountPercentage,
			value:        "10",
			body:         `{"order_amount": 200}`,
			wantOriginal: "200.00",
			wantDiscount: "20.00",
			wantFinal:    "180.00",
		},
		{
			name:         "fixed_amount_capped",
			discountType: model.DiscountFixedAmount,
			value:        "500",
			body:         `{"order_amount": "300.00"}`,
			wantOriginal: "300.00",
			wantDiscount: "300.00",
			wantFinal:    "0.00",
		},
		{
			name:         "free_shipping",
			discountType: model.DiscountFreeShipping,
			value:        "1",
			body:         `{"order_amount": 150.5}`,
			wantOriginal: "150.50",
			wantDiscount: "0.00",
			wantFinal:    "150.50",
		},
		{
			name:         "percentage_rounds_half_up",
			discountType: model.DiscountPercentage,
			value:        "15",
			body:         `{"order_amount": 0.3}`,
			wantOriginal: "0.30",
			wantDiscount: "0.05",
			wantFinal:    "0.25",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			app := setupApplyTestApp(calculatingService(tc.discountType, tc.value))

			resp, result := doApply(t, app, "SALEAB12CD", tc.body)

			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
			assert.Equal(t, true, result["success"])
			assert.Equal(t, "coupon applied", result["message"])
			assert.Equal(t, tc.wantOriginal, result["original_price"])
			assert.Equal(t, tc.wantDiscount, result["discount"])
			assert.Equal(t, tc.wantFinal, result["final_price"])
		})
	}
}

func TestApplyCoupon_PassesCodeAndAmount(t *testing.T) {
	var gotCode string
	var gotAmount decimal.Decimal
	mockSvc := &mockApplyService{
		applyFn: func(ctx context.Context, code string, orderAmount decimal.Decimal) (*model.ApplyResult, error) {
			gotCode = code
			gotAmount = orderAmount
			return &model.ApplyResult{OriginalPrice: orderAmount, FinalPrice: orderAmount}, nil
		},
	}
	app := setupApplyTestApp(mockSvc)

	resp, _ := doApply(t, app, "SALEXY34ZW", `{"order_amount": "99.99"}`)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "SALEXY34ZW", gotCode)
	assert.True(t, gotAmount.Equal(decimal.RequireFromString("99.99")))
}

func TestApplyCoupon_RejectedCoupons(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"not_found", service.ErrCouponNotFound, fiber.StatusNotFound, "coupon with code 'SALEAB12CD' not found"},
		{"expired", service.ErrCouponExpired, fiber.StatusBadRequest, "coupon expired"},
		{"inactive", &service.InvalidCouponError{Reason: service.ReasonInactive}, fiber.StatusBadRequest, "coupon inactive"},
		{"limit_exceeded", &service.InvalidCouponError{Reason: service.ReasonUsageLimitExceeded}, fiber.StatusBadRequest, "usage limit exceeded"},
		{
			"below_minimum",
			&service.InvalidCouponError{Reason: "minimum order amount for this coupon is 100.00"},
			fiber.StatusBadRequest,
			"minimum order amount for this coupon is 100.00",
		},
		{"conflict", service.ErrConflict, fiber.StatusConflict, service.ErrConflict.Error()},
		{"internal", errors.New("connection reset"), fiber.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockSvc := &mockApplyService{
				applyFn: func(ctx context.Context, code string, orderAmount decimal.Decimal) (*model.ApplyResult, error) {
					return nil, tc.err
				},
			}
			app := setupApplyTestApp(mockSvc)

			resp, result := doApply(t, app, "SALEAB12CD", `{"order_amount": 200}`)

			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			assert.Equal(t, tc.wantMsg, result["error"])
		})
	}
}

func TestApplyCoupon_InvalidBody(t *testing.T) {
	testCases := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"missing_amount", `{}`, "invalid request: order_amount is required"},
		{"zero_amount", `{"order_amount": 0}`, "invalid request: order_amount must be greater than 0"},
		{"negative_amount", `{"order_amount": -10}`, "invalid request: order_amount must be greater than 0"},
		{"sub_cent_amount", `{"order_amount": 0.001}`, "invalid request: order_amount must be greater than 0"},
		{"sub_cent_amount_rounds_down", `{"order_amount": "0.004"}`, "invalid request: order_amount must be greater than 0"},
		{"malformed_json", `{"order_amount":`, "invalid request body"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			mockSvc := &mockApplyService{
				applyFn: func(ctx context.Context, code string, orderAmount decimal.Decimal) (*model.ApplyResult, error) {
					called = true
					return nil, nil
				},
			}
			app := setupApplyTestApp(mockSvc)

			resp, result := doApply(t, app, "SALEAB12CD", tc.body)

			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tc.wantMsg, result["error"])
			assert.False(t, called)
		})
	}
}

func TestApplyCoupon_CodeTooLong(t *testing.T) {
	app := setupApplyTestApp(&mockApplyService{})

	resp, result := doApply(t, app, "SALEAB12CDSALEAB12CDX", `{"order_amount": 10}`)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid request: code is invalid", result["error"])
}

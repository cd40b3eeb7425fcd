package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/discount-coupon-service/internal/metrics"
	"github.com/fairyhunter13/discount-coupon-service/internal/model"
	"github.com/fairyhunter13/discount-coupon-service/pkg/database"
)

// createAttempts bounds inserts when a generated code loses a uniqueness race.
const createAttempts = 2

// CouponRepositoryInterface defines the interface for coupon data access.
type CouponRepositoryInterface interface {
	Insert(ctx context.Context, coupon *model.Coupon) error
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	List(ctx context.Context) ([]model.Coupon, error)
	DeleteByCode(ctx context.Context, code string) error
	GetCouponForUpdate(ctx context.Context, tx database.TxQuerier, code string) (*model.Coupon, error)
	IncrementUsage(ctx context.Context, tx database.TxQuerier, code string) error
}

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CouponService provides business logic for coupon operations.
type CouponService struct {
	pool       TxBeginner
	couponRepo CouponRepositoryInterface
	codes      *CodeGenerator
	now        func() time.Time
}

// NewCouponService creates a new CouponService with the given pool, repository and code generator.
func NewCouponService(pool *pgxpool.Pool, couponRepo CouponRepositoryInterface, codes *CodeGenerator) *CouponService {
	return NewCouponServiceWithTxBeginner(pool, couponRepo, codes)
}

// NewCouponServiceWithTxBeginner creates a CouponService with a custom TxBeginner.
// Primarily used for testing.
func NewCouponServiceWithTxBeginner(pool TxBeginner, couponRepo CouponRepositoryInterface, codes *CodeGenerator) *CouponService {
	return &CouponService{
		pool:       pool,
		couponRepo: couponRepo,
		codes:      codes,
		now:        time.Now,
	}
}

// Create issues a new coupon with a freshly generated code.
// Returns ErrInvalidRequest if request data is nil or incomplete.
// Returns ErrConflict if the generated code collided on every attempt.
func (s *CouponService) Create(ctx context.Context, req *model.CreateCouponRequest) (*model.Coupon, error) {
	// Defense-in-depth: the handler validates, but the service must not panic on nil fields
	if req == nil || req.DiscountValue == nil || req.MinOrderAmount == nil || req.ExpiryDate == nil || req.UsageLimit == nil {
		return nil, ErrInvalidRequest
	}
	if !req.ExpiryDate.After(s.now()) {
		return nil, fmt.Errorf("%w: expiry_date must be in the future", ErrInvalidRequest)
	}
	if !req.DiscountValue.Round(2).IsPositive() {
		return nil, fmt.Errorf("%w: discount_value must be greater than 0", ErrInvalidRequest)
	}
	if req.MinOrderAmount.Round(2).IsNegative() || *req.UsageLimit < 1 {
		return nil, ErrInvalidRequest
	}

	log.Info().Str("discount_type", req.DiscountType).Msg("creating coupon")

	for attempt := 1; attempt <= createAttempts; attempt++ {
		code, err := s.codes.Generate(ctx, s.couponRepo)
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}

		coupon := &model.Coupon{
			Code:           code,
			DiscountType:   model.DiscountType(req.DiscountType),
			DiscountValue:  req.DiscountValue.Round(2),
			MinOrderAmount: req.MinOrderAmount.Round(2),
			ExpiryDate:     *req.ExpiryDate,
			UsageLimit:     *req.UsageLimit,
			UsageCount:     0,
			Active:         true,
		}

		err = s.couponRepo.Insert(ctx, coupon)
		if err == nil {
			metrics.CouponCreated()
			log.Info().Str("coupon_code", coupon.Code).Int64("coupon_id", coupon.ID).Msg("coupon created")
			return coupon, nil
		}
		if !errors.Is(err, ErrCouponExists) {
			return nil, fmt.Errorf("insert coupon: %w", err)
		}

		log.Warn().Str("coupon_code", code).Int("attempt", attempt).Msg("generated code already taken, regenerating")
	}

	return nil, ErrConflict
}

// List returns every stored coupon. The slice is empty, never nil, when there are none.
func (s *CouponService) List(ctx context.Context) ([]model.Coupon, error) {
	coupons, err := s.couponRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	if coupons == nil {
		coupons = []model.Coupon{}
	}
	return coupons, nil
}

// GetByCode retrieves a coupon by its code.
// Returns ErrCouponNotFound if the coupon doesn't exist.
func (s *CouponService) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	return coupon, nil
}

// Delete removes a coupon by its code.
// Returns ErrCouponNotFound if the coupon doesn't exist.
func (s *CouponService) Delete(ctx context.Context, code string) error {
	if err := s.couponRepo.DeleteByCode(ctx, code); err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			return ErrCouponNotFound
		}
		return fmt.Errorf("delete coupon: %w", err)
	}

	metrics.CouponDeleted()
	log.Info().Str("coupon_code", code).Msg("coupon deleted")
	return nil
}

// Apply validates a coupon against orderAmount and, on success, consumes one use.
// The coupon row stays locked (SELECT FOR UPDATE) from the first check to the commit,
// so concurrent applies on the same code serialize and cannot overrun the usage limit.
// Checks run in a fixed order and the first failure wins:
// orderAmount is taken at cent precision; ErrInvalidRequest is returned when that is not positive.
//   - ErrCouponNotFound if the coupon doesn't exist
//   - InvalidCouponError (coupon inactive) if the coupon is disabled
//   - ErrCouponExpired if the expiry date has passed
//   - InvalidCouponError (usage limit exceeded) if every use is consumed
//   - InvalidCouponError (minimum order amount) if orderAmount is below the minimum
func (s *CouponService) Apply(ctx context.Context, code string, orderAmount decimal.Decimal) (result *model.ApplyResult, err error) {
	orderAmount = orderAmount.Round(2)
	if !orderAmount.IsPositive() {
		return nil, fmt.Errorf("%w: order_amount must be greater than 0", ErrInvalidRequest)
	}

	defer func() { metrics.ApplyObserved(applyOutcome(err)) }()

	log.Info().Str("coupon_code", code).Str("order_amount", orderAmount.StringFixed(2)).Msg("applying coupon")

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	coupon, err := s.couponRepo.GetCouponForUpdate(ctx, tx, code)
	if err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("get coupon for update: %w", err)
	}

	if err := s.check(coupon, orderAmount); err != nil {
		log.Warn().Err(err).Str("coupon_code", code).Msg("coupon rejected")
		return nil, err
	}

	discount := CalculateDiscount(coupon.DiscountType, coupon.DiscountValue, orderAmount)
	finalPrice := FinalPrice(orderAmount, discount)

	if err := s.couponRepo.IncrementUsage(ctx, tx, code); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("increment usage: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit apply: %w", err)
	}

	log.Info().
		Str("coupon_code", code).
		Str("discount", discount.StringFixed(2)).
		Str("final_price", finalPrice.StringFixed(2)).
		Msg("coupon applied")

	return &model.ApplyResult{
		OriginalPrice: orderAmount,
		Discount:      discount,
		FinalPrice:    finalPrice,
	}, nil
}

// check runs the apply rules against a locked coupon in their contractual order.
func (s *CouponService) check(coupon *model.Coupon, orderAmount decimal.Decimal) error {
	if !coupon.Active {
		return invalid(ReasonInactive)
	}
	if s.now().After(coupon.ExpiryDate) {
		return ErrCouponExpired
	}
	if coupon.UsageCount >= coupon.UsageLimit {
		return invalid(ReasonUsageLimitExceeded)
	}
	if orderAmount.LessThan(coupon.MinOrderAmount) {
		return invalid(fmt.Sprintf("minimum order amount for this coupon is %s", coupon.MinOrderAmount.StringFixed(2)))
	}
	return nil
}

// applyOutcome labels an apply error for the coupon_apply_total metric.
func applyOutcome(err error) string {
	var invalidErr *InvalidCouponError
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, ErrCouponNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, ErrCouponExpired):
		return metrics.ResultExpired
	case errors.Is(err, ErrConflict):
		return metrics.ResultConflict
	case errors.As(err, &invalidErr):
		switch invalidErr.Reason {
		case ReasonInactive:
			return metrics.ResultInactive
		case ReasonUsageLimitExceeded:
			return metrics.ResultLimitExceeded
		default:
			return metrics.ResultBelowMinimum
		}
	default:
		return metrics.ResultError
	}
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/discount-coupon-service/internal/model"
	"github.com/fairyhunter13/discount-coupon-service/internal/service"
	"github.com/fairyhunter13/discount-coupon-service/pkg/database"
)

const couponColumns = `id, code, discount_type, discount_value, min_order_amount, expiry_date,
	usage_limit, usage_count, active, created_at`

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// PoolInterface defines the database operations needed by repositories.
// This allows for easier testing with mocks.
type PoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// CouponRepository provides data access for coupons using pgx.
type CouponRepository struct {
	pool PoolInterface
}

// NewCouponRepository creates a new CouponRepository with the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// NewCouponRepositoryWithPool creates a new CouponRepository with a custom pool interface.
// This is primarily used for testing.
func NewCouponRepositoryWithPool(pool PoolInterface) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// Insert inserts a new coupon and fills in its store-assigned ID and CreatedAt.
// Returns service.ErrCouponExists if a coupon with the same code already exists.
func (r *CouponRepository) Insert(ctx context.Context, coupon *model.Coupon) error {
	query := `INSERT INTO coupons
		(code, discount_type, discount_value, min_order_amount, expiry_date, usage_limit, usage_count, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		coupon.Code,
		string(coupon.DiscountType),
		coupon.DiscountValue,
		coupon.MinOrderAmount,
		coupon.ExpiryDate,
		coupon.UsageLimit,
		coupon.UsageCount,
		coupon.Active,
	).Scan(&coupon.ID, &coupon.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return service.ErrCouponExists
		}
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

// GetByCode retrieves a coupon by its code.
// Returns nil, nil if the coupon is not found (service layer handles this).
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

	coupon, err := scanCoupon(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found - let service handle
		}
		return nil, fmt.Errorf("get coupon by code %s: %w", code, err)
	}
	return coupon, nil
}

// ExistsByCode reports whether a coupon with the given code is stored.
func (r *CouponRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM coupons WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check coupon code %s: %w", code, err)
	}
	return exists, nil
}

// List retrieves all coupons ordered by creation.
// On success, returns an empty slice (not nil) when no coupons exist.
func (r *CouponRepository) List(ctx context.Context) ([]model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	coupons := []model.Coupon{}
	for rows.Next() {
		coupon, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, *coupon)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coupon rows: %w", err)
	}

	return coupons, nil
}

// DeleteByCode deletes a coupon by its code.
// Returns service.ErrCouponNotFound if no row matched.
func (r *CouponRepository) DeleteByCode(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM coupons WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("delete coupon %s: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrCouponNotFound
	}
	return nil
}

// GetCouponForUpdate retrieves a coupon with a row lock (SELECT FOR UPDATE).
// This locks the row until the transaction completes.
// Returns service.ErrCouponNotFound if the coupon doesn't exist.
func (r *CouponRepository) GetCouponForUpdate(ctx context.Context, tx database.TxQuerier, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1 FOR UPDATE`

	coupon, err := scanCoupon(tx.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrCouponNotFound
		}
		return nil, fmt.Errorf("get coupon for update %s: %w", code, err)
	}
	return coupon, nil
}

// IncrementUsage consumes one use of a coupon.
// The update only applies while usage_count < usage_limit; when it matches no row
// service.ErrConflict is returned and the usage count is left untouched.
func (r *CouponRepository) IncrementUsage(ctx context.Context, tx database.TxQuerier, code string) error {
	query := `UPDATE coupons SET usage_count = usage_count + 1
		WHERE code = $1 AND usage_count < usage_limit`

	tag, err := tx.Exec(ctx, query, code)
	if err != nil {
		return fmt.Errorf("increment usage for %s: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrConflict
	}
	return nil
}

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var (
		coupon       model.Coupon
		discountType string
	)
	err := row.Scan(
		&coupon.ID,
		&coupon.Code,
		&discountType,
		&coupon.DiscountValue,
		&coupon.MinOrderAmount,
		&coupon.ExpiryDate,
		&coupon.UsageLimit,
		&coupon.UsageCount,
		&coupon.Active,
		&coupon.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	coupon.DiscountType = model.DiscountType(discountType)
	return &coupon, nil
}

package service

import "errors"

var (
	// ErrCouponExists is returned by the repository when a coupon code collides with an existing row
	ErrCouponExists = errors.New("coupon already exists")

	// ErrCouponNotFound is returned when a coupon cannot be found
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrInvalidRequest is returned when request data is invalid or incomplete
	ErrInvalidRequest = errors.New("invalid request")

	// ErrCouponExpired is returned when a coupon's expiry date has passed
	ErrCouponExpired = errors.New("coupon expired")

	// ErrCouponInvalid is the kind shared by every InvalidCouponError
	ErrCouponInvalid = errors.New("invalid coupon")

	// ErrConflict is returned when a concurrent writer won a race; the caller may retry
	ErrConflict = errors.New("concurrent update conflict, retry the request")
)

// Reasons carried by InvalidCouponError.
const (
	ReasonInactive           = "coupon inactive"
	ReasonUsageLimitExceeded = "usage limit exceeded"
)

// InvalidCouponError reports a business rule that rejected an apply.
// It matches ErrCouponInvalid under errors.Is.
type InvalidCouponError struct {
	Reason string
}

func (e *InvalidCouponError) Error() string {
	return e.Reason
}

func (e *InvalidCouponError) Unwrap() error {
	return ErrCouponInvalid
}

func invalid(reason string) error {
	return &InvalidCouponError{Reason: reason}
}

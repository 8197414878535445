// internal/domain/coupon/errors.go
package coupon

import (
	"errors"
	"fmt"
)

var (
	// ErrCouponNotFound is returned when no coupon exists for a code.
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrCouponInactive is returned when a coupon has been disabled by an administrator.
	ErrCouponInactive = errors.New("coupon is not active")

	// ErrCouponNotYetValid is returned when the validity window has not opened.
	ErrCouponNotYetValid = errors.New("coupon is not valid yet")

	// ErrCouponExpired is returned when the validity window has closed.
	ErrCouponExpired = errors.New("coupon has expired")

	// ErrCouponExhausted is returned when the usage limit has been reached.
	ErrCouponExhausted = errors.New("coupon usage limit reached")
)

// BelowMinimumError carries the minimum purchase so callers can display it.
type BelowMinimumError struct {
	Minimum int64 // Minor currency units
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("minimum purchase of %.2f required to use this coupon", float64(e.Minimum)/100)
}

// internal/domain/order/errors.go
package order

import (
	"errors"
	"fmt"
)

var (
	// ErrOrderNotFound is returned when no order matches the lookup
	ErrOrderNotFound = errors.New("order not found")
	// ErrEmptyCart is returned when order assembly is attempted on an empty cart
	ErrEmptyCart = errors.New("cart is empty")
	// ErrForbidden is returned when the requester may not act on the order
	ErrForbidden = errors.New("not allowed to access this order")
)

// InvalidTransitionError is returned when a status change is not permitted
// from the order's current state.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

// FieldError reports the first shipping field that failed validation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

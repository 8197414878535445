// internal/domain/payment/gateway.go
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/storefront-backend/internal/domain/order"
)

// ErrGatewayUnreachable is returned when the payment provider could not be
// reached or did not answer within the configured timeout. Callers may
// retry; nothing was charged.
var ErrGatewayUnreachable = errors.New("payment gateway unreachable")

// ErrSessionNotFound is returned when no payment session matches the lookup
var ErrSessionNotFound = errors.New("payment session not found")

// DeclinedError is returned when the gateway answered and said no.
// Retrying the same request will not help.
type DeclinedError struct {
	Code   string
	Detail string
}

func (e *DeclinedError) Error() string {
	return fmt.Sprintf("payment declined (%s): %s", e.Code, e.Detail)
}

// Outcome is a gateway's answer to a session or refund request.
type Outcome struct {
	ExternalID  string
	Status      string
	PaymentURL  string // Hosted checkout URL, empty for COD
	RequiresPay bool   // False when the method settles offline
}

// Gateway abstracts how an order gets settled. CashOnDelivery settles
// offline, HostedCardPayment drives a third-party checkout page.
type Gateway interface {
	// Name identifies the gateway in logs and session records
	Name() string
	// CreateSession starts a payment for the order
	CreateSession(ctx context.Context, ord *order.Order) (*Outcome, error)
	// Refund returns money for a settled order
	Refund(ctx context.Context, ord *order.Order, amount int64) (*order.RefundOutcome, error)
}

// internal/domain/payment/cod.go
package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/your-org/storefront-backend/internal/domain/order"
)

// CashOnDelivery settles orders offline at the door. Creating a session
// involves no external call and never fails; a refund is an accounting
// entry handled by support, recorded here as immediately succeeded.
type CashOnDelivery struct{}

// NewCashOnDelivery creates the COD gateway
func NewCashOnDelivery() *CashOnDelivery {
	return &CashOnDelivery{}
}

// Name identifies the gateway
func (g *CashOnDelivery) Name() string {
	return "cod"
}

// CreateSession acknowledges the order without any online settlement
func (g *CashOnDelivery) CreateSession(ctx context.Context, ord *order.Order) (*Outcome, error) {
	return &Outcome{
		ExternalID:  fmt.Sprintf("cod_%s", uuid.NewString()),
		Status:      "accepted",
		RequiresPay: false,
	}, nil
}

// Refund records an offline refund as settled
func (g *CashOnDelivery) Refund(ctx context.Context, ord *order.Order, amount int64) (*order.RefundOutcome, error) {
	return &order.RefundOutcome{
		RefundID:  fmt.Sprintf("codrf_%s", uuid.NewString()),
		Status:    "succeeded",
		Succeeded: true,
	}, nil
}

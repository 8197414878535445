package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/your-org/storefront-backend/internal/domain/order"
)

func TestCanAccess(t *testing.T) {
	owner := uint(7)

	ownedOrder := &order.Order{ID: 42, UserID: &owner}
	guestOrder := &order.Order{ID: 43, UserID: nil}

	tests := []struct {
		name      string
		ord       *order.Order
		requester order.Requester
		want      bool
	}{
		{"owner may access own order", ownedOrder, order.Requester{UserID: 7}, true},
		{"stranger may not access owned order", ownedOrder, order.Requester{UserID: 99}, false},
		{"unauthenticated caller may not access owned order", ownedOrder, order.Requester{}, false},
		{"admin may access any order", ownedOrder, order.Requester{UserID: 99, IsAdmin: true}, true},
		{"guest order accessible by possession", guestOrder, order.Requester{}, true},
		{"guest order accessible to authenticated users", guestOrder, order.Requester{UserID: 7}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, canAccess(tt.ord, tt.requester))
		})
	}
}

package order

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOrderNumber(t *testing.T) {
	number := GenerateOrderNumber(42)
	expected := fmt.Sprintf("ORD-%s-00042", time.Now().Format("20060102"))
	assert.Equal(t, expected, number)
}

func TestOwnedBy(t *testing.T) {
	owner := uint(7)

	owned := &Order{UserID: &owner}
	assert.True(t, owned.OwnedBy(7))
	assert.False(t, owned.OwnedBy(8))

	guest := &Order{UserID: nil}
	assert.False(t, guest.OwnedBy(7))
}

func TestAddStatusHistory(t *testing.T) {
	ord := &Order{ID: 42}

	ord.AddStatusHistory(OrderStatusPending, "Order created", 7)
	ord.AddStatusHistory(OrderStatusProcessing, "Packed", 9)

	require.Len(t, ord.StatusHistory, 2)
	first := ord.StatusHistory[0]
	assert.Equal(t, uint(42), first.OrderID)
	assert.Equal(t, OrderStatusPending, first.Status)
	assert.Equal(t, "Order created", first.Comment)
	assert.Equal(t, uint(7), first.CreatedBy)
	assert.False(t, first.CreatedAt.IsZero())

	assert.Equal(t, OrderStatusProcessing, ord.StatusHistory[1].Status)
}

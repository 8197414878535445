package order

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_ForwardPath(t *testing.T) {
	policy := DefaultCancellationPolicy()

	assert.True(t, CanTransition(OrderStatusPending, OrderStatusProcessing, policy))
	assert.True(t, CanTransition(OrderStatusProcessing, OrderStatusShipped, policy))
	assert.True(t, CanTransition(OrderStatusShipped, OrderStatusDelivered, policy))
}

func TestCanTransition_RejectsSkipsAndBackwards(t *testing.T) {
	policy := DefaultCancellationPolicy()

	tests := []struct {
		name string
		from OrderStatus
		to   OrderStatus
	}{
		{"skip processing", OrderStatusPending, OrderStatusShipped},
		{"skip to delivered", OrderStatusPending, OrderStatusDelivered},
		{"skip shipped", OrderStatusProcessing, OrderStatusDelivered},
		{"backwards to pending", OrderStatusProcessing, OrderStatusPending},
		{"backwards from shipped", OrderStatusShipped, OrderStatusProcessing},
		{"backwards from delivered", OrderStatusDelivered, OrderStatusShipped},
		{"self transition", OrderStatusProcessing, OrderStatusProcessing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, CanTransition(tt.from, tt.to, policy))
		})
	}
}

func TestCanTransition_TerminalStates(t *testing.T) {
	policy := DefaultCancellationPolicy()
	targets := []OrderStatus{
		OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled,
	}

	for _, to := range targets {
		assert.False(t, CanTransition(OrderStatusDelivered, to, policy), "delivered -> %s", to)
		assert.False(t, CanTransition(OrderStatusCancelled, to, policy), "cancelled -> %s", to)
	}
}

func TestDefaultCancellationPolicy(t *testing.T) {
	policy := DefaultCancellationPolicy()

	assert.True(t, CanTransition(OrderStatusPending, OrderStatusCancelled, policy))
	assert.True(t, CanTransition(OrderStatusProcessing, OrderStatusCancelled, policy))
	assert.False(t, CanTransition(OrderStatusShipped, OrderStatusCancelled, policy))
	assert.False(t, CanTransition(OrderStatusDelivered, OrderStatusCancelled, policy))
}

func TestCustomCancellationPolicy(t *testing.T) {
	// A deployment with returns support may allow cancelling shipped orders.
	policy := NewCancellationPolicy(OrderStatusPending, OrderStatusProcessing, OrderStatusShipped)

	assert.True(t, CanTransition(OrderStatusShipped, OrderStatusCancelled, policy))
	assert.False(t, CanTransition(OrderStatusDelivered, OrderStatusCancelled, policy))
}

func TestValidateTransition_ErrorDetails(t *testing.T) {
	err := ValidateTransition(OrderStatusShipped, OrderStatusPending, DefaultCancellationPolicy())
	assert.Error(t, err)

	var invalid *InvalidTransitionError
	assert.True(t, errors.As(err, &invalid))
	assert.Equal(t, OrderStatusShipped, invalid.From)
	assert.Equal(t, OrderStatusPending, invalid.To)

	assert.NoError(t, ValidateTransition(OrderStatusPending, OrderStatusProcessing, DefaultCancellationPolicy()))
}

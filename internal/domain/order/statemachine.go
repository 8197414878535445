// internal/domain/order/statemachine.go
package order

// The order lifecycle only moves forward: pending -> processing -> shipped
// -> delivered. Skipping a step or moving backwards is rejected. Cancellation
// is a side exit governed by a CancellationPolicy, and both delivered and
// cancelled are terminal.

// nextStatus maps each status to its only legal forward successor.
var nextStatus = map[OrderStatus]OrderStatus{
	OrderStatusPending:    OrderStatusProcessing,
	OrderStatusProcessing: OrderStatusShipped,
	OrderStatusShipped:    OrderStatusDelivered,
}

// CancellationPolicy decides which statuses an order may be cancelled from.
// The default refuses once fulfilment has started; deployments with a
// return-merchandise flow can swap in a wider policy.
type CancellationPolicy struct {
	allowedFrom map[OrderStatus]bool
}

// DefaultCancellationPolicy allows cancellation only before shipment.
func DefaultCancellationPolicy() CancellationPolicy {
	return CancellationPolicy{
		allowedFrom: map[OrderStatus]bool{
			OrderStatusPending:    true,
			OrderStatusProcessing: true,
		},
	}
}

// NewCancellationPolicy builds a policy allowing cancellation from the
// given statuses.
func NewCancellationPolicy(from ...OrderStatus) CancellationPolicy {
	allowed := make(map[OrderStatus]bool, len(from))
	for _, s := range from {
		allowed[s] = true
	}
	return CancellationPolicy{allowedFrom: allowed}
}

// Allows reports whether an order in the given status may be cancelled.
func (p CancellationPolicy) Allows(status OrderStatus) bool {
	return p.allowedFrom[status]
}

// CanTransition reports whether an order may move from one status to
// another under the given cancellation policy.
func CanTransition(from, to OrderStatus, policy CancellationPolicy) bool {
	if from == to {
		return false
	}
	if to == OrderStatusCancelled {
		return policy.Allows(from)
	}
	return nextStatus[from] == to
}

// ValidateTransition returns an InvalidTransitionError when the move is
// not permitted.
func ValidateTransition(from, to OrderStatus, policy CancellationPolicy) error {
	if !CanTransition(from, to, policy) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}

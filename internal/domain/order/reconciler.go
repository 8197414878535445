// internal/domain/order/reconciler.go
package order

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Refunder issues a full refund for a paid order through whatever gateway
// settled it.
type Refunder interface {
	Refund(ctx context.Context, ord *Order, amount int64) (*RefundOutcome, error)
}

// RefundOutcome is what the gateway reported about a refund attempt.
type RefundOutcome struct {
	RefundID  string
	Status    string
	Succeeded bool
}

// Notifier delivers cancellation notices. Implementations are expected to
// be best-effort; the reconciler only logs their failures.
type Notifier interface {
	NotifyCustomerCancelled(ctx context.Context, notice *CancellationNotice) error
	NotifyAdminCancelled(ctx context.Context, notice *CancellationNotice) error
}

// CancellationNotice carries everything a notification needs about a
// cancelled order.
type CancellationNotice struct {
	Order  *Order
	Reason string
	Refund *RefundRecord
}

// Requester identifies who is asking for the cancellation.
type Requester struct {
	UserID  uint
	IsAdmin bool
}

// CancellationReceipt summarizes what the reconciler did.
type CancellationReceipt struct {
	OrderID       uint          `json:"order_id"`
	OrderNumber   string        `json:"order_number"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Refund        *RefundRecord `json:"refund,omitempty"`
}

// Reconciler coordinates order cancellation: authorization, the policy
// check, the refund for paid orders, the state flip and the notifications,
// in that order.
type Reconciler struct {
	store    Store
	refunder Refunder
	notifier Notifier
	policy   CancellationPolicy
	logger   *logrus.Logger
}

// NewReconciler creates a cancellation reconciler
func NewReconciler(store Store, refunder Refunder, notifier Notifier, policy CancellationPolicy, logger *logrus.Logger) *Reconciler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Reconciler{
		store:    store,
		refunder: refunder,
		notifier: notifier,
		policy:   policy,
		logger:   logger,
	}
}

// Cancel cancels an order on behalf of the requester.
//
// A paid order gets a full refund attempt first; the gateway's answer,
// including a rejection, is recorded as a RefundRecord but never blocks
// the cancellation itself. Payment status ends up refunded when the
// gateway confirmed, refund_pending when the attempt is unresolved, and
// untouched when the order was never paid. Notifications go out after the
// state flip and their failures only reach the log.
func (r *Reconciler) Cancel(ctx context.Context, orderID uint, reason string, requester Requester) (*CancellationReceipt, error) {
	ord, err := r.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !requester.IsAdmin && !ord.OwnedBy(requester.UserID) {
		return nil, ErrForbidden
	}

	if !r.policy.Allows(ord.Status) {
		return nil, &InvalidTransitionError{From: ord.Status, To: OrderStatusCancelled}
	}

	paymentStatus := ord.PaymentStatus
	var refundRecord *RefundRecord

	if ord.PaymentStatus == PaymentStatusPaid {
		refundRecord = &RefundRecord{
			OrderID: ord.ID,
			Amount:  ord.TotalAmount,
			Reason:  reason,
		}

		outcome, refundErr := r.refunder.Refund(ctx, ord, ord.TotalAmount)
		switch {
		case refundErr != nil:
			// The gateway could not be reached or rejected the call.
			// The cancellation still goes through; the refund stays
			// pending for later reconciliation.
			refundRecord.Status = "pending"
			paymentStatus = PaymentStatusRefundPending
			r.logger.WithError(refundErr).WithField("order_id", ord.ID).
				Warn("refund attempt failed, marking refund pending")
		case outcome.Succeeded:
			refundRecord.RefundID = outcome.RefundID
			refundRecord.Status = outcome.Status
			paymentStatus = PaymentStatusRefunded
		default:
			refundRecord.RefundID = outcome.RefundID
			refundRecord.Status = outcome.Status
			paymentStatus = PaymentStatusRefundPending
		}

		if err := r.store.SaveRefund(ctx, refundRecord); err != nil {
			// The refund already happened at the gateway; losing the
			// record must not undo the cancellation.
			r.logger.WithError(err).WithField("order_id", ord.ID).
				Error("failed to persist refund record")
		}
	}

	if err := r.store.SetCancelled(ctx, ord.ID, paymentStatus, reason, requester.UserID); err != nil {
		return nil, err
	}
	ord.Status = OrderStatusCancelled
	ord.PaymentStatus = paymentStatus

	notice := &CancellationNotice{Order: ord, Reason: reason, Refund: refundRecord}
	if err := r.notifier.NotifyCustomerCancelled(ctx, notice); err != nil {
		r.logger.WithError(err).WithField("order_id", ord.ID).
			Warn("failed to send customer cancellation notice")
	}
	if err := r.notifier.NotifyAdminCancelled(ctx, notice); err != nil {
		r.logger.WithError(err).WithField("order_id", ord.ID).
			Warn("failed to send admin cancellation notice")
	}

	return &CancellationReceipt{
		OrderID:       ord.ID,
		OrderNumber:   ord.OrderNumber,
		Status:        ord.Status,
		PaymentStatus: ord.PaymentStatus,
		Refund:        refundRecord,
	}, nil
}

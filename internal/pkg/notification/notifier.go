// internal/pkg/notification/notifier.go
package notification

import (
	"context"
	"fmt"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/pkg/email"
)

// Mailer is the slice of the email service the notifier needs.
type Mailer interface {
	SendOrderConfirmation(to string, data email.OrderConfirmationData) error
	SendOrderCancellation(to string, data email.OrderCancellationData) error
	SendAdminCancellationAlert(to string, data email.OrderCancellationData) error
	SendOrderStatusUpdate(to string, data email.OrderStatusUpdateData) error
}

// EmailNotifier implements order.Notifier by queueing emails on the
// dispatcher. The enqueue itself always succeeds; delivery problems are
// the worker's to log.
type EmailNotifier struct {
	dispatcher *Dispatcher
	mailer     Mailer
	adminEmail string
}

// NewEmailNotifier creates an email-backed notifier
func NewEmailNotifier(dispatcher *Dispatcher, mailer Mailer, cfg *config.Config) *EmailNotifier {
	return &EmailNotifier{
		dispatcher: dispatcher,
		mailer:     mailer,
		adminEmail: cfg.App.AdminEmail,
	}
}

// NotifyCustomerCancelled queues the customer-facing cancellation email
func (n *EmailNotifier) NotifyCustomerCancelled(ctx context.Context, notice *order.CancellationNotice) error {
	to := notice.Order.ShippingAddress.Email
	data := cancellationData(notice)
	data.UserName = notice.Order.ShippingAddress.FullName

	n.dispatcher.Submit(Job{
		Name: fmt.Sprintf("customer-cancellation-%s", notice.Order.OrderNumber),
		Run: func(ctx context.Context) error {
			return n.mailer.SendOrderCancellation(to, data)
		},
	})
	return nil
}

// NotifyAdminCancelled queues the operations alert
func (n *EmailNotifier) NotifyAdminCancelled(ctx context.Context, notice *order.CancellationNotice) error {
	to := n.adminEmail
	data := cancellationData(notice)

	n.dispatcher.Submit(Job{
		Name: fmt.Sprintf("admin-cancellation-%s", notice.Order.OrderNumber),
		Run: func(ctx context.Context) error {
			return n.mailer.SendAdminCancellationAlert(to, data)
		},
	})
	return nil
}

// NotifyOrderConfirmed queues the order confirmation email
func (n *EmailNotifier) NotifyOrderConfirmed(ctx context.Context, ord *order.Order) error {
	to := ord.ShippingAddress.Email
	items := make([]email.OrderLine, 0, len(ord.Items))
	for _, item := range ord.Items {
		items = append(items, email.OrderLine{
			Name:     item.Name,
			SKU:      item.SKU,
			Quantity: item.Quantity,
			Price:    formatAmount(item.Price),
			Total:    formatAmount(item.TotalPrice),
		})
	}
	data := email.OrderConfirmationData{
		OrderNumber:   ord.OrderNumber,
		OrderDate:     ord.CreatedAt.Format("02 Jan 2006"),
		OrderTotal:    formatAmount(ord.TotalAmount),
		PaymentMethod: string(ord.PaymentMethod),
		Items:         items,
	}
	data.UserName = ord.ShippingAddress.FullName

	n.dispatcher.Submit(Job{
		Name: fmt.Sprintf("order-confirmation-%s", ord.OrderNumber),
		Run: func(ctx context.Context) error {
			return n.mailer.SendOrderConfirmation(to, data)
		},
	})
	return nil
}

// NotifyStatusChanged queues a status update email
func (n *EmailNotifier) NotifyStatusChanged(ctx context.Context, ord *order.Order, message string) error {
	to := ord.ShippingAddress.Email
	data := email.OrderStatusUpdateData{
		OrderNumber:   ord.OrderNumber,
		Status:        string(ord.Status),
		StatusMessage: message,
	}
	data.UserName = ord.ShippingAddress.FullName

	n.dispatcher.Submit(Job{
		Name: fmt.Sprintf("status-update-%s", ord.OrderNumber),
		Run: func(ctx context.Context) error {
			return n.mailer.SendOrderStatusUpdate(to, data)
		},
	})
	return nil
}

func cancellationData(notice *order.CancellationNotice) email.OrderCancellationData {
	data := email.OrderCancellationData{
		OrderNumber: notice.Order.OrderNumber,
		Reason:      notice.Reason,
	}
	if notice.Refund != nil {
		data.RefundAmount = formatAmount(notice.Refund.Amount)
		data.RefundStatus = notice.Refund.Status
	}
	return data
}

// formatAmount renders minor currency units for display
func formatAmount(amount int64) string {
	return fmt.Sprintf("₹%.2f", float64(amount)/100)
}

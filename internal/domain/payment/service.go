// internal/domain/payment/service.go
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
)

// Service routes payment operations to the gateway that matches the
// order's payment method and keeps session state in the database. It
// implements order.Refunder for the cancellation reconciler.
type Service struct {
	db           *gorm.DB
	config       *config.Config
	orderService *order.Service
	gateways     map[order.PaymentMethod]Gateway
}

// NewService creates a payment service with the given gateways
func NewService(db *gorm.DB, cfg *config.Config, orderService *order.Service) *Service {
	return &Service{
		db:           db,
		config:       cfg,
		orderService: orderService,
		gateways: map[order.PaymentMethod]Gateway{
			order.PaymentMethodCOD:    NewCashOnDelivery(),
			order.PaymentMethodOnline: NewHostedCardPayment(cfg.Gateway),
		},
	}
}

// ErrOrderNotPayable is returned when the order is not in a state that
// accepts a payment session.
var ErrOrderNotPayable = errors.New("order is not awaiting payment")

// canAccess reports whether the requester may act on an order's payments.
// Guest orders have no owner; possession of the order ID is the only
// credential a guest has.
func canAccess(ord *order.Order, requester order.Requester) bool {
	if ord.UserID == nil || requester.IsAdmin {
		return true
	}
	return ord.OwnedBy(requester.UserID)
}

// CreateSession starts a payment for a pending unpaid order. The session
// exists only for an order that already exists; a customer abandoning the
// checkout page can call this again and gets a fresh session.
func (s *Service) CreateSession(ctx context.Context, orderID uint, requester order.Requester) (*PaymentSession, error) {
	ord, err := s.orderService.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !canAccess(ord, requester) {
		return nil, order.ErrForbidden
	}
	if ord.Status != order.OrderStatusPending || ord.PaymentStatus != order.PaymentStatusUnpaid {
		return nil, ErrOrderNotPayable
	}

	gateway, ok := s.gateways[ord.PaymentMethod]
	if !ok {
		return nil, fmt.Errorf("no gateway for payment method %s", ord.PaymentMethod)
	}

	outcome, err := gateway.CreateSession(ctx, ord)
	if err != nil {
		return nil, err
	}

	session := &PaymentSession{
		OrderID:    ord.ID,
		ExternalID: outcome.ExternalID,
		Amount:     ord.TotalAmount,
		Currency:   "INR",
		Status:     SessionStatusCreated,
		PaymentURL: outcome.PaymentURL,
	}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to save payment session: %w", err)
	}

	// COD settles at the door; there is nothing more for the customer to
	// do online, so the session completes immediately and the order stays
	// unpaid until delivery.
	if !outcome.RequiresPay {
		if err := s.db.WithContext(ctx).Model(session).
			Update("status", SessionStatusCompleted).Error; err != nil {
			return nil, fmt.Errorf("failed to finalize session: %w", err)
		}
		session.Status = SessionStatusCompleted
	}

	return session, nil
}

// ConfirmPayment applies the gateway's final word on a session, delivered
// via webhook. Settled sessions mark the order paid. The gateway retries
// webhooks, so a confirmation for an already completed session is a no-op.
func (s *Service) ConfirmPayment(ctx context.Context, externalID, externalStatus string) (*PaymentSession, error) {
	var session PaymentSession
	result := s.db.WithContext(ctx).Where("external_id = ?", externalID).First(&session)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to retrieve payment session: %w", result.Error)
	}

	if session.Status == SessionStatusCompleted {
		return &session, nil
	}

	settled := externalStatus == "paid" || externalStatus == "succeeded" || externalStatus == "captured"
	newStatus := SessionStatusFailed
	if settled {
		newStatus = SessionStatusCompleted
	}

	if err := s.db.WithContext(ctx).Model(&session).Update("status", newStatus).Error; err != nil {
		return nil, fmt.Errorf("failed to update payment session: %w", err)
	}
	session.Status = newStatus

	if settled {
		comment := fmt.Sprintf("Payment settled via gateway session %s", session.ExternalID)
		if _, err := s.orderService.MarkPaid(ctx, session.OrderID, comment); err != nil {
			return nil, err
		}
	}

	return &session, nil
}

// Refund returns money for a settled order through the gateway that took
// the payment. Implements order.Refunder.
func (s *Service) Refund(ctx context.Context, ord *order.Order, amount int64) (*order.RefundOutcome, error) {
	gateway, ok := s.gateways[ord.PaymentMethod]
	if !ok {
		return nil, fmt.Errorf("no gateway for payment method %s", ord.PaymentMethod)
	}
	return gateway.Refund(ctx, ord, amount)
}

// GetSessionsForOrder lists payment sessions for an order, newest first.
// Sessions carry the hosted payment URL, so the same ownership rule as
// session creation applies.
func (s *Service) GetSessionsForOrder(ctx context.Context, orderID uint, requester order.Requester) ([]PaymentSession, error) {
	ord, err := s.orderService.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !canAccess(ord, requester) {
		return nil, order.ErrForbidden
	}

	var sessions []PaymentSession
	if err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to list payment sessions: %w", err)
	}
	return sessions, nil
}

// VerifyWebhookSignature checks the HMAC-SHA256 signature the gateway
// attaches to webhook deliveries.
func (s *Service) VerifyWebhookSignature(payload []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.config.Gateway.WebhookSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

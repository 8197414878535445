// internal/domain/order/store.go
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/domain/product"
)

// Store is the persistence surface the cancellation reconciler needs.
type Store interface {
	GetOrder(ctx context.Context, orderID uint) (*Order, error)
	SaveRefund(ctx context.Context, record *RefundRecord) error
	SetCancelled(ctx context.Context, orderID uint, paymentStatus PaymentStatus, comment string, cancelledBy uint) error
}

// GormStore backs Store with the orders tables.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a Store backed by the given database
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// GetOrder loads an order with its items
func (s *GormStore) GetOrder(ctx context.Context, orderID uint) (*Order, error) {
	var ord Order
	result := s.db.WithContext(ctx).Preload("Items").First(&ord, orderID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", result.Error)
	}
	return &ord, nil
}

// SaveRefund persists a refund record
func (s *GormStore) SaveRefund(ctx context.Context, record *RefundRecord) error {
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to save refund record: %w", err)
	}
	return nil
}

// SetCancelled marks an order cancelled, records the status change and puts
// reserved stock back. Everything happens in one transaction.
func (s *GormStore) SetCancelled(ctx context.Context, orderID uint, paymentStatus PaymentStatus, comment string, cancelledBy uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ord Order
		if err := tx.Preload("Items").First(&ord, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to retrieve order: %w", err)
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{
			"status":         OrderStatusCancelled,
			"payment_status": paymentStatus,
			"cancelled_at":   now,
			"updated_at":     now,
		}
		if err := tx.Model(&Order{}).Where("id = ?", orderID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to cancel order: %w", err)
		}

		for _, item := range ord.Items {
			if err := product.RestoreStock(tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		history := OrderStatusHistory{
			OrderID:   orderID,
			Status:    OrderStatusCancelled,
			Comment:   comment,
			CreatedBy: cancelledBy,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to record cancellation: %w", err)
		}

		return nil
	})
}

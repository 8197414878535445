// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/domain/product"
)

// Service handles order assembly and lifecycle operations
type Service struct {
	db             *gorm.DB
	config         *config.Config
	cartService    *cart.Service
	couponService  *coupon.Service
	productService *product.Service
	policy         CancellationPolicy
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config, cartService *cart.Service, couponService *coupon.Service, productService *product.Service) *Service {
	return &Service{
		db:             db,
		config:         cfg,
		cartService:    cartService,
		couponService:  couponService,
		productService: productService,
		policy:         DefaultCancellationPolicy(),
	}
}

// Policy returns the cancellation policy orders created by this service
// are governed by.
func (s *Service) Policy() CancellationPolicy {
	return s.policy
}

// CreateOrderRequest represents order creation input
type CreateOrderRequest struct {
	ShippingAddress ShippingAddress `json:"shipping_address" binding:"required"`
	PaymentMethod   PaymentMethod   `json:"payment_method" binding:"required,oneof=cod online"`
	CouponCode      string          `json:"coupon_code"`
	Notes           string          `json:"notes"`
}

// CreateOrder assembles an order from the requester's cart.
//
// Item prices are snapshotted from the catalog at this moment, not from
// the cart lines, so a price changed since the item was added is the price
// the customer pays. Coupon usage and stock are both claimed inside the
// same transaction; if either claim fails nothing is written.
func (s *Service) CreateOrder(ctx context.Context, userID *uint, sessionID string, req *CreateOrderRequest) (*Order, error) {
	if err := ValidateShippingAddress(&req.ShippingAddress); err != nil {
		return nil, err
	}

	lines, err := s.cartService.Lines(ctx, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	productIDs := make([]uint, 0, len(lines))
	for _, line := range lines {
		productIDs = append(productIDs, line.ProductID)
	}
	products, err := s.productService.GetProducts(productIDs)
	if err != nil {
		return nil, err
	}

	var subtotal int64
	items := make([]OrderItem, 0, len(lines))
	for _, line := range lines {
		prod, ok := products[line.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %d is no longer available", line.ProductID)
		}
		unitPrice := prod.EffectivePrice()
		items = append(items, OrderItem{
			ProductID:  prod.ID,
			SKU:        prod.SKU,
			Name:       prod.Name,
			Quantity:   line.Quantity,
			Price:      unitPrice,
			TotalPrice: unitPrice * int64(line.Quantity),
		})
		subtotal += unitPrice * int64(line.Quantity)
	}

	var discount int64
	couponCode := ""
	if req.CouponCode != "" {
		validation, err := s.couponService.Validate(req.CouponCode, subtotal)
		if err != nil {
			return nil, err
		}
		discount = validation.DiscountAmount
		couponCode = validation.Coupon.Code
	}

	ord := &Order{
		UserID:          userID,
		Status:          OrderStatusPending,
		PaymentStatus:   PaymentStatusUnpaid,
		PaymentMethod:   req.PaymentMethod,
		SubtotalAmount:  subtotal,
		DiscountAmount:  discount,
		TotalAmount:     subtotal - discount,
		CouponCode:      couponCode,
		ShippingAddress: req.ShippingAddress,
		Items:           items,
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	// Claim stock for tracked products. The decrement carries its own
	// quantity guard, so two concurrent orders cannot both take the last
	// unit.
	for _, line := range lines {
		prod := products[line.ProductID]
		if !prod.TrackQuantity {
			continue
		}
		if err := product.ReserveStock(tx, prod.ID, line.Quantity); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	// Claim a coupon use the same way: the usage limit is enforced in the
	// statement itself, so a concurrent checkout taking the last use makes
	// this one fail cleanly instead of overspending the coupon.
	if couponCode != "" {
		if err := coupon.Redeem(tx, couponCode); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Create(ord).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	ord.OrderNumber = GenerateOrderNumber(ord.ID)
	if err := tx.Model(ord).UpdateColumn("order_number", ord.OrderNumber).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to set order number: %w", err)
	}

	createdBy := uint(0)
	if userID != nil {
		createdBy = *userID
	}
	ord.AddStatusHistory(OrderStatusPending, "Order created", createdBy)
	if err := tx.Create(&ord.StatusHistory[0]).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to record order status: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	// The order exists at this point; a cart that fails to clear is an
	// annoyance, not a reason to fail the checkout. Clearing is idempotent
	// so a retry from the client is harmless.
	if err := s.cartService.ClearCart(ctx, userID, sessionID); err != nil {
		logrus.WithError(err).WithField("order_id", ord.ID).Warn("failed to clear cart after order creation")
	}

	return ord, nil
}

// GetOrder retrieves an order by ID with its items, refunds and history
func (s *Service) GetOrder(ctx context.Context, orderID uint) (*Order, error) {
	var ord Order
	result := s.db.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Refunds").
		First(&ord, orderID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", result.Error)
	}
	return &ord, nil
}

// GetOrderByNumber retrieves an order by its order number
func (s *Service) GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	var ord Order
	result := s.db.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Refunds").
		Where("order_number = ?", orderNumber).
		First(&ord)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", result.Error)
	}
	return &ord, nil
}

// ListOptions controls order listing
type ListOptions struct {
	Page   int
	Limit  int
	Status OrderStatus // Empty means all statuses
	UserID *uint       // Nil means all users (admin listing)
}

// ListOrders returns a page of orders newest first, with the total count
// for pagination.
func (s *Service) ListOrders(ctx context.Context, opts ListOptions) ([]Order, int64, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 || opts.Limit > 100 {
		opts.Limit = 20
	}

	query := s.db.WithContext(ctx).Model(&Order{})
	if opts.UserID != nil {
		query = query.Where("user_id = ?", *opts.UserID)
	}
	if opts.Status != "" {
		query = query.Where("status = ?", opts.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []Order
	offset := (opts.Page - 1) * opts.Limit
	if err := query.Preload("Items").
		Order("created_at DESC").
		Offset(offset).
		Limit(opts.Limit).
		Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, total, nil
}

// UpdateOrderStatus moves an order to a new status. Illegal moves, including
// any transition out of delivered or cancelled, are rejected with an
// InvalidTransitionError before anything is written.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID uint, newStatus OrderStatus, comment string, updatedBy uint) (*Order, error) {
	ord, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := ValidateTransition(ord.Status, newStatus, s.policy); err != nil {
		return nil, err
	}
	if newStatus == OrderStatusCancelled {
		// Cancellation runs refunds and notifications and goes through
		// the reconciler, not a bare status update.
		return nil, &InvalidTransitionError{From: ord.Status, To: newStatus}
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":     newStatus,
		"updated_at": now,
	}
	switch newStatus {
	case OrderStatusProcessing:
		updates["processed_at"] = now
	case OrderStatusShipped:
		updates["shipped_at"] = now
	case OrderStatusDelivered:
		updates["delivered_at"] = now
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", tx.Error)
	}

	if err := tx.Model(&Order{}).Where("id = ?", ord.ID).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	history := OrderStatusHistory{
		OrderID:   ord.ID,
		Status:    newStatus,
		Comment:   comment,
		CreatedBy: updatedBy,
	}
	if err := tx.Create(&history).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to record order status: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit status update: %w", err)
	}

	return s.GetOrder(ctx, orderID)
}

// MarkPaid records a successful payment settlement against a pending order.
// It is a no-op when the order is already paid, so a gateway retrying its
// webhook does not produce duplicate history rows.
func (s *Service) MarkPaid(ctx context.Context, orderID uint, comment string) (*Order, error) {
	ord, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord.PaymentStatus == PaymentStatusPaid {
		return ord, nil
	}
	if ord.Status == OrderStatusCancelled {
		return nil, &InvalidTransitionError{From: ord.Status, To: ord.Status}
	}

	if err := s.db.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND payment_status = ?", ord.ID, PaymentStatusUnpaid).
		Update("payment_status", PaymentStatusPaid).Error; err != nil {
		return nil, fmt.Errorf("failed to mark order paid: %w", err)
	}

	history := OrderStatusHistory{
		OrderID: ord.ID,
		Status:  ord.Status,
		Comment: comment,
	}
	if err := s.db.WithContext(ctx).Create(&history).Error; err != nil {
		logrus.WithError(err).WithField("order_id", ord.ID).Warn("failed to record payment history")
	}

	return s.GetOrder(ctx, orderID)
}

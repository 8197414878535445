// internal/domain/coupon/service.go
package coupon

import (
	"fmt"
	"strings"
	"time"

	"github.com/your-org/storefront-backend/internal/config"
	"gorm.io/gorm"
)

// Service handles coupon business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new coupon service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// Validation is the result of a successful coupon check
type Validation struct {
	Coupon         *Coupon `json:"coupon"`
	DiscountAmount int64   `json:"discount_amount"`
}

// Validate checks a code against a cart subtotal and computes the discount.
// It never increments the usage counter: a shopper checking a code is not a
// purchase, and reserving a limited-use coupon here would strand uses. The
// counter moves only through Redeem at order commit.
func (s *Service) Validate(code string, subtotal int64) (*Validation, error) {
	coupon, err := s.GetByCode(code)
	if err != nil {
		return nil, err
	}

	if err := coupon.Usable(time.Now().UTC(), subtotal); err != nil {
		return nil, err
	}

	return &Validation{
		Coupon:         coupon,
		DiscountAmount: coupon.DiscountFor(subtotal),
	}, nil
}

// GetByCode looks up a coupon by its normalized code
func (s *Service) GetByCode(code string) (*Coupon, error) {
	var coupon Coupon
	result := s.db.Where("code = ?", NormalizeCode(code)).First(&coupon)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to retrieve coupon: %w", result.Error)
	}
	return &coupon, nil
}

// Redeem consumes one use of a coupon inside the given transaction.
//
// The guard lives in the WHERE clause so the check and the increment are a
// single statement: two concurrent checkouts racing for the last use of a
// coupon cannot both match the row, and the loser gets ErrCouponExhausted.
func Redeem(tx *gorm.DB, code string) error {
	result := tx.Model(&Coupon{}).
		Where("code = ? AND is_active = ? AND (max_uses = 0 OR usage_count < max_uses)",
			NormalizeCode(code), true).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))

	if result.Error != nil {
		return fmt.Errorf("failed to redeem coupon: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCouponExhausted
	}
	return nil
}

// NormalizeCode uppercases a code for case-insensitive comparison against
// stored codes.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// --- Administration ---

// CreateCouponRequest represents coupon creation data
type CreateCouponRequest struct {
	Code          string       `json:"code" binding:"required"`
	DiscountType  DiscountType `json:"discount_type" binding:"required,oneof=percentage fixed"`
	DiscountValue float64      `json:"discount_value" binding:"required,gt=0"`
	MinPurchase   int64        `json:"min_purchase" binding:"min=0"`
	MaxUses       int          `json:"max_uses" binding:"min=0"`
	ValidFrom     time.Time    `json:"valid_from" binding:"required"`
	ValidUntil    time.Time    `json:"valid_until" binding:"required"`
	IsActive      *bool        `json:"is_active"`
}

// UpdateCouponRequest represents coupon update data
type UpdateCouponRequest struct {
	DiscountValue *float64   `json:"discount_value"`
	MinPurchase   *int64     `json:"min_purchase"`
	MaxUses       *int       `json:"max_uses"`
	ValidFrom     *time.Time `json:"valid_from"`
	ValidUntil    *time.Time `json:"valid_until"`
	IsActive      *bool      `json:"is_active"`
}

// CreateCoupon creates a new coupon with a normalized code
func (s *Service) CreateCoupon(req *CreateCouponRequest) (*Coupon, error) {
	if req.DiscountType == DiscountTypePercentage && req.DiscountValue > 100 {
		return nil, fmt.Errorf("percentage discount cannot exceed 100")
	}
	if !req.ValidUntil.After(req.ValidFrom) {
		return nil, fmt.Errorf("valid_until must be after valid_from")
	}

	coupon := Coupon{
		Code:          NormalizeCode(req.Code),
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		MinPurchase:   req.MinPurchase,
		MaxUses:       req.MaxUses,
		ValidFrom:     req.ValidFrom,
		ValidUntil:    req.ValidUntil,
		IsActive:      true,
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}

	if err := s.db.Create(&coupon).Error; err != nil {
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}
	return &coupon, nil
}

// UpdateCoupon updates the mutable fields of an existing coupon
func (s *Service) UpdateCoupon(id uint, req *UpdateCouponRequest) (*Coupon, error) {
	var coupon Coupon
	if err := s.db.First(&coupon, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to retrieve coupon: %w", err)
	}

	updates := map[string]interface{}{}
	if req.DiscountValue != nil {
		updates["discount_value"] = *req.DiscountValue
	}
	if req.MinPurchase != nil {
		updates["min_purchase"] = *req.MinPurchase
	}
	if req.MaxUses != nil {
		updates["max_uses"] = *req.MaxUses
	}
	if req.ValidFrom != nil {
		updates["valid_from"] = *req.ValidFrom
	}
	if req.ValidUntil != nil {
		updates["valid_until"] = *req.ValidUntil
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(&coupon).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update coupon: %w", err)
		}
	}
	return &coupon, nil
}

// ListCoupons retrieves all coupons, newest first
func (s *Service) ListCoupons() ([]Coupon, error) {
	var coupons []Coupon
	if err := s.db.Order("created_at DESC").Find(&coupons).Error; err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	return coupons, nil
}

// DeleteCoupon soft-deletes a coupon
func (s *Service) DeleteCoupon(id uint) error {
	result := s.db.Delete(&Coupon{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete coupon: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCouponNotFound
	}
	return nil
}

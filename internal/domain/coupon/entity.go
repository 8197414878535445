// internal/domain/coupon/entity.go
package coupon

import (
	"time"

	"gorm.io/gorm"
)

// DiscountType enumerates how a coupon's value is applied
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// Coupon represents a promotional code.
// Codes are stored uppercase; lookups normalize before comparing.
// Monetary fields are in minor currency units.
type Coupon struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Code          string         `gorm:"uniqueIndex;not null;size:50" json:"code"`
	DiscountType  DiscountType   `gorm:"not null;size:20" json:"discount_type"`
	DiscountValue float64        `gorm:"not null" json:"discount_value"` // Percent for percentage, amount for fixed
	MinPurchase   int64          `gorm:"default:0" json:"min_purchase"`
	MaxUses       int            `gorm:"default:0" json:"max_uses"` // 0 means unlimited
	UsageCount    int            `gorm:"default:0" json:"usage_count"`
	ValidFrom     time.Time      `json:"valid_from"`
	ValidUntil    time.Time      `json:"valid_until"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (Coupon) TableName() string {
	return "coupons"
}

// Usable reports whether the coupon can be applied to a cart with the given
// subtotal at the given instant. It returns the specific rejection reason and
// never touches the usage counter; reservation happens only at order commit.
func (c *Coupon) Usable(now time.Time, subtotal int64) error {
	if !c.IsActive {
		return ErrCouponInactive
	}
	if now.Before(c.ValidFrom) {
		return ErrCouponNotYetValid
	}
	if now.After(c.ValidUntil) {
		return ErrCouponExpired
	}
	if subtotal < c.MinPurchase {
		return &BelowMinimumError{Minimum: c.MinPurchase}
	}
	if c.MaxUses > 0 && c.UsageCount >= c.MaxUses {
		return ErrCouponExhausted
	}
	return nil
}

// DiscountFor computes the discount amount for a subtotal.
// Percentage discounts can never exceed the subtotal by construction;
// fixed discounts clamp at the subtotal.
func (c *Coupon) DiscountFor(subtotal int64) int64 {
	switch c.DiscountType {
	case DiscountTypePercentage:
		return int64(float64(subtotal) * c.DiscountValue / 100)
	case DiscountTypeFixed:
		amount := int64(c.DiscountValue)
		if amount > subtotal {
			return subtotal
		}
		return amount
	default:
		return 0
	}
}

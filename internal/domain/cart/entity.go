// internal/domain/cart/entity.go
package cart

import (
	"time"

	"gorm.io/gorm"
)

// CartItem represents a cart line stored in the database for authenticated users
type CartItem struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    *uint          `gorm:"index" json:"user_id"`
	ProductID uint           `gorm:"not null;index" json:"product_id"`
	Quantity  int            `gorm:"not null;default:1" json:"quantity"`
	Price     int64          `gorm:"not null" json:"price"` // Per-unit price at the time of adding
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (CartItem) TableName() string {
	return "cart_items"
}

// SessionCart represents a cart for guest users (stored in Redis)
type SessionCart struct {
	SessionID string            `json:"session_id"`
	Items     []SessionCartItem `json:"items"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// SessionCartItem represents a cart line for guest users
type SessionCartItem struct {
	ProductID uint      `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Price     int64     `json:"price"`
	AddedAt   time.Time `json:"added_at"`
}

// Line is a storage-independent cart line used for merging and order assembly.
type Line struct {
	ProductID uint  `json:"product_id"`
	Quantity  int   `json:"quantity"`
	Price     int64 `json:"price"`
}

// CartTotals represents calculated cart totals
type CartTotals struct {
	ItemCount     int   `json:"item_count"`     // Number of unique lines
	TotalQuantity int   `json:"total_quantity"` // Sum of all quantities
	SubTotal      int64 `json:"sub_total"`
}

// MergeLines folds guest lines into user lines. Lines for the same product are
// summed, everything else is appended; the result never holds two lines for
// one product. Merging an empty guest cart returns the user lines unchanged,
// which is what makes the login-time merge idempotent.
func MergeLines(userLines, guestLines []Line) []Line {
	merged := make([]Line, len(userLines))
	copy(merged, userLines)

	index := make(map[uint]int, len(merged))
	for i, line := range merged {
		index[line.ProductID] = i
	}

	for _, guest := range guestLines {
		if i, ok := index[guest.ProductID]; ok {
			merged[i].Quantity += guest.Quantity
			continue
		}
		index[guest.ProductID] = len(merged)
		merged = append(merged, guest)
	}

	return merged
}

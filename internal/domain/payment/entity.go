// internal/domain/payment/entity.go
package payment

import (
	"time"

	"gorm.io/gorm"
)

// SessionStatus represents the state of a payment session
type SessionStatus string

const (
	SessionStatusCreated   SessionStatus = "created"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusFailed    SessionStatus = "failed"
)

// PaymentSession links an order to a hosted checkout at the gateway. One
// order can accumulate several sessions when the customer abandons and
// retries, but at most one ever completes.
type PaymentSession struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	OrderID    uint           `gorm:"not null;index" json:"order_id"`
	ExternalID string         `gorm:"uniqueIndex;size:100" json:"external_id"`
	Amount     int64          `gorm:"not null" json:"amount"`
	Currency   string         `gorm:"size:10;default:'INR'" json:"currency"`
	Status     SessionStatus  `gorm:"not null;default:'created'" json:"status"`
	PaymentURL string         `gorm:"size:500" json:"payment_url"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (PaymentSession) TableName() string {
	return "payment_sessions"
}

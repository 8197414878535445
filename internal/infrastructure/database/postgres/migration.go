// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/user"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Dependency order: referenced tables first.
	models := []interface{}{
		&user.User{},
		&product.Product{},
		&cart.CartItem{},
		&coupon.Coupon{},
		&order.Order{},
		&order.OrderItem{},
		&order.OrderStatusHistory{},
		&order.RefundRecord{},
		&payment.PaymentSession{},
	}

	for _, model := range models {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_active ON products(is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_sku ON products(sku)",

		// Cart indexes
		"CREATE INDEX IF NOT EXISTS idx_cart_items_user_product ON cart_items(user_id, product_id)",

		// Coupon indexes
		"CREATE INDEX IF NOT EXISTS idx_coupons_active_valid ON coupons(is_active, valid_from, valid_until)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_payment_status ON orders(payment_status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC)",

		// Order items indexes
		"CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_product ON order_items(product_id)",

		// Order status history indexes
		"CREATE INDEX IF NOT EXISTS idx_order_status_history_order ON order_status_history(order_id, created_at DESC)",

		// Refund record indexes
		"CREATE INDEX IF NOT EXISTS idx_refund_records_order ON refund_records(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_refund_records_status ON refund_records(status)",

		// Payment session indexes
		"CREATE INDEX IF NOT EXISTS idx_payment_sessions_order ON payment_sessions(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_payment_sessions_status ON payment_sessions(status)",
	}

	successCount := 0
	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("⚠️ Failed to create index: %v", err)
		} else {
			successCount++
		}
	}

	log.Printf("✅ Created %d indexes", successCount)
	return nil
}

// SeedInitialData inserts development data into the database
func (m *Migration) SeedInitialData() error {
	log.Println("🌱 Seeding initial data...")

	if err := m.seedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	if err := m.seedProducts(); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}
	if err := m.seedCoupons(); err != nil {
		return fmt.Errorf("failed to seed coupons: %w", err)
	}

	log.Println("✅ Initial data seeded successfully")
	return nil
}

func (m *Migration) seedAdminUser() error {
	var existing user.User
	result := m.db.Where("email = ?", "admin@example.com").First(&existing)
	if result.Error == nil {
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("admin123"), 10)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	adminUser := user.User{
		Email:     "admin@example.com",
		Password:  string(hashedPassword),
		FirstName: "Admin",
		LastName:  "User",
		IsActive:  true,
		IsAdmin:   true,
	}

	if err := m.db.Create(&adminUser).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	log.Println("✅ Created admin user: admin@example.com")
	return nil
}

func (m *Migration) seedProducts() error {
	products := []product.Product{
		{
			SKU:           "SEED-001",
			Name:          "Wireless Gaming Mouse",
			Description:   "Ergonomic wireless gaming mouse with high-precision sensor and customizable buttons.",
			Price:         7999,
			IsActive:      true,
			TrackQuantity: true,
			Quantity:      50,
		},
		{
			SKU:           "SEED-002",
			Name:          "Mechanical Keyboard",
			Description:   "Tenkeyless mechanical keyboard with hot-swappable switches.",
			Price:         12999,
			IsActive:      true,
			TrackQuantity: true,
			Quantity:      30,
		},
		{
			SKU:         "SEED-003",
			Name:        "Extended Warranty",
			Description: "Two year extended warranty, delivered by email.",
			Price:       4999,
			IsActive:    true,
			// Not stock-tracked: sold without inventory limits.
			TrackQuantity: false,
		},
	}

	for _, prod := range products {
		var existing product.Product
		result := m.db.Where("sku = ?", prod.SKU).First(&existing)
		if result.Error != nil {
			if err := m.db.Create(&prod).Error; err != nil {
				log.Printf("⚠️ Failed to create product %s: %v", prod.SKU, err)
			}
		}
	}

	return nil
}

func (m *Migration) seedCoupons() error {
	now := time.Now().UTC()
	coupons := []coupon.Coupon{
		{
			Code:          "WELCOME10",
			DiscountType:  coupon.DiscountTypePercentage,
			DiscountValue: 10,
			MinPurchase:   5000,
			MaxUses:       0, // Unlimited
			ValidFrom:     now,
			ValidUntil:    now.AddDate(1, 0, 0),
			IsActive:      true,
		},
		{
			Code:          "FLAT500",
			DiscountType:  coupon.DiscountTypeFixed,
			DiscountValue: 500,
			MinPurchase:   10000,
			MaxUses:       100,
			ValidFrom:     now,
			ValidUntil:    now.AddDate(0, 3, 0),
			IsActive:      true,
		},
	}

	for _, c := range coupons {
		var existing coupon.Coupon
		result := m.db.Where("code = ?", c.Code).First(&existing)
		if result.Error != nil {
			if err := m.db.Create(&c).Error; err != nil {
				log.Printf("⚠️ Failed to create coupon %s: %v", c.Code, err)
			}
		}
	}

	return nil
}

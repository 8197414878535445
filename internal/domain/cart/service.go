// internal/domain/cart/service.go
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
)

// guestCartTTL bounds how long an abandoned guest cart survives in Redis.
const guestCartTTL = 24 * time.Hour

// Service handles cart business logic.
//
// Carts for authenticated users live in Postgres, guest carts live in Redis
// keyed by session token. No locking is applied across concurrent mutations of
// the same identity: two browser tabs writing the same cart last-write-wins.
// That is an accepted limitation of the store, not something this layer hides.
type Service struct {
	db          *gorm.DB
	redisClient *redis.Client
	config      *config.Config
}

// NewService creates a new cart service
func NewService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *Service {
	return &Service{
		db:          db,
		redisClient: redisClient,
		config:      cfg,
	}
}

// CartItemResponse represents a cart line with product details
type CartItemResponse struct {
	ProductID uint             `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Price     int64            `json:"price"`
	Product   *product.Product `json:"product,omitempty"`
	AddedAt   time.Time        `json:"added_at"`
}

// CartResponse represents a shopping cart with items and summary
type CartResponse struct {
	SessionID string             `json:"session_id,omitempty"`
	UserID    *uint              `json:"user_id,omitempty"`
	Items     []CartItemResponse `json:"items"`
	Totals    CartTotals         `json:"totals"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// AddToCartRequest represents add to cart request
type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemRequest represents update cart item request
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

// GetCart retrieves the cart for a user or guest session.
// A missing cart is an empty cart, never an error.
func (s *Service) GetCart(ctx context.Context, userID *uint, sessionID string) (*CartResponse, error) {
	lines, updatedAt, err := s.getLines(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	items := make([]CartItemResponse, len(lines))
	for i, line := range lines {
		items[i] = CartItemResponse{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.Price,
		}
	}

	if err := s.loadProductDetails(items); err != nil {
		return nil, err
	}

	return &CartResponse{
		SessionID: sessionID,
		UserID:    userID,
		Items:     items,
		Totals:    calculateTotals(items),
		UpdatedAt: updatedAt,
	}, nil
}

// Lines returns the raw cart lines for an identity, for order assembly.
func (s *Service) Lines(ctx context.Context, userID *uint, sessionID string) ([]Line, error) {
	lines, _, err := s.getLines(ctx, userID, sessionID)
	return lines, err
}

// AddToCart adds an item to the cart, capturing the current effective price
func (s *Service) AddToCart(ctx context.Context, userID *uint, sessionID string, req *AddToCartRequest) (*CartResponse, error) {
	var prod product.Product
	result := s.db.Where("id = ? AND is_active = ?", req.ProductID, true).First(&prod)
	if result.Error != nil {
		return nil, fmt.Errorf("product not found or inactive")
	}

	lines, _, err := s.getLines(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	// Fold into an existing line for the same product
	found := false
	for i := range lines {
		if lines[i].ProductID == req.ProductID {
			lines[i].Quantity += req.Quantity
			lines[i].Price = prod.EffectivePrice()
			if !prod.InStock(lines[i].Quantity) {
				return nil, fmt.Errorf("insufficient stock. Available: %d", prod.Quantity)
			}
			found = true
			break
		}
	}
	if !found {
		if !prod.InStock(req.Quantity) {
			return nil, fmt.Errorf("insufficient stock. Available: %d", prod.Quantity)
		}
		lines = append(lines, Line{
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
			Price:     prod.EffectivePrice(),
		})
	}

	if err := s.SaveCart(ctx, userID, sessionID, lines); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID, sessionID)
}

// UpdateCartItem sets the quantity of a cart line; zero removes it
func (s *Service) UpdateCartItem(ctx context.Context, userID *uint, sessionID string, productID uint, req *UpdateCartItemRequest) (*CartResponse, error) {
	lines, _, err := s.getLines(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	found := false
	updated := lines[:0]
	for _, line := range lines {
		if line.ProductID == productID {
			found = true
			if req.Quantity == 0 {
				continue
			}
			line.Quantity = req.Quantity
		}
		updated = append(updated, line)
	}
	if !found {
		return nil, fmt.Errorf("item not found in cart")
	}

	if req.Quantity > 0 {
		var prod product.Product
		if err := s.db.Where("id = ?", productID).First(&prod).Error; err == nil {
			if !prod.InStock(req.Quantity) {
				return nil, fmt.Errorf("insufficient stock. Available: %d", prod.Quantity)
			}
		}
	}

	if err := s.SaveCart(ctx, userID, sessionID, updated); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID, sessionID)
}

// RemoveFromCart removes a line from the cart
func (s *Service) RemoveFromCart(ctx context.Context, userID *uint, sessionID string, productID uint) (*CartResponse, error) {
	return s.UpdateCartItem(ctx, userID, sessionID, productID, &UpdateCartItemRequest{Quantity: 0})
}

// SaveCart overwrites the stored cart for an identity. There are no partial
// update semantics; callers always hand over the full line set.
func (s *Service) SaveCart(ctx context.Context, userID *uint, sessionID string, lines []Line) error {
	if userID != nil {
		return s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("user_id = ?", *userID).Delete(&CartItem{}).Error; err != nil {
				return fmt.Errorf("failed to clear user cart: %w", err)
			}
			for _, line := range lines {
				item := CartItem{
					UserID:    userID,
					ProductID: line.ProductID,
					Quantity:  line.Quantity,
					Price:     line.Price,
				}
				if err := tx.Create(&item).Error; err != nil {
					return fmt.Errorf("failed to save cart item: %w", err)
				}
			}
			return nil
		})
	}

	return s.saveGuestCart(ctx, sessionID, lines)
}

// ClearCart removes the stored cart entirely. It is idempotent so callers can
// safely retry after a crash between order commit and cart clear.
func (s *Service) ClearCart(ctx context.Context, userID *uint, sessionID string) error {
	if userID != nil {
		return s.db.Where("user_id = ?", *userID).Delete(&CartItem{}).Error
	}
	return s.redisClient.Del(ctx, guestCartKey(sessionID)).Err()
}

// GetCartItemCount returns the total quantity across the cart
func (s *Service) GetCartItemCount(ctx context.Context, userID *uint, sessionID string) (int, error) {
	lines, _, err := s.getLines(ctx, userID, sessionID)
	if err != nil {
		return 0, nil
	}

	total := 0
	for _, line := range lines {
		total += line.Quantity
	}
	return total, nil
}

// MergeGuestCartToUser folds the guest cart into the user cart at the moment a
// guest session becomes authenticated, then clears the guest cart. Re-invoking
// it with an already-cleared guest cart is a no-op, so a retried login cannot
// duplicate lines.
func (s *Service) MergeGuestCartToUser(ctx context.Context, userID uint, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	// getGuestCart maps a missing key to an empty cart, so any error here
	// is a real store failure and the merge must not be silently skipped.
	guestCart, err := s.getGuestCart(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load guest cart for merge: %w", err)
	}
	if len(guestCart.Items) == 0 {
		return nil // Nothing to merge
	}

	userLines, _, err := s.getLines(ctx, &userID, "")
	if err != nil {
		return fmt.Errorf("failed to load user cart for merge: %w", err)
	}

	guestLines := make([]Line, len(guestCart.Items))
	for i, item := range guestCart.Items {
		guestLines[i] = Line{ProductID: item.ProductID, Quantity: item.Quantity, Price: item.Price}
	}

	if err := s.SaveCart(ctx, &userID, "", MergeLines(userLines, guestLines)); err != nil {
		return fmt.Errorf("failed to save merged cart: %w", err)
	}

	return s.ClearCart(ctx, nil, sessionID)
}

// Private helper methods

func (s *Service) getLines(ctx context.Context, userID *uint, sessionID string) ([]Line, time.Time, error) {
	if userID != nil {
		var dbItems []CartItem
		err := s.db.Where("user_id = ?", *userID).Order("id").Find(&dbItems).Error
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to retrieve user cart: %w", err)
		}

		lines := make([]Line, len(dbItems))
		updatedAt := time.Now().UTC()
		for i, item := range dbItems {
			lines[i] = Line{ProductID: item.ProductID, Quantity: item.Quantity, Price: item.Price}
			if i == 0 {
				updatedAt = item.UpdatedAt
			}
		}
		return lines, updatedAt, nil
	}

	sessionCart, err := s.getGuestCart(ctx, sessionID)
	if err != nil {
		return nil, time.Time{}, err
	}

	lines := make([]Line, len(sessionCart.Items))
	for i, item := range sessionCart.Items {
		lines[i] = Line{ProductID: item.ProductID, Quantity: item.Quantity, Price: item.Price}
	}
	return lines, sessionCart.UpdatedAt, nil
}

func (s *Service) getGuestCart(ctx context.Context, sessionID string) (*SessionCart, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID required for guest cart")
	}

	cartData, err := s.redisClient.Get(ctx, guestCartKey(sessionID)).Result()
	if err == redis.Nil {
		// Cart doesn't exist, return empty cart
		now := time.Now().UTC()
		return &SessionCart{
			SessionID: sessionID,
			Items:     []SessionCartItem{},
			CreatedAt: now,
			UpdatedAt: now,
			ExpiresAt: now.Add(guestCartTTL),
		}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to retrieve guest cart: %w", err)
	}

	var sessionCart SessionCart
	if err := json.Unmarshal([]byte(cartData), &sessionCart); err != nil {
		return nil, err
	}
	return &sessionCart, nil
}

func (s *Service) saveGuestCart(ctx context.Context, sessionID string, lines []Line) error {
	if sessionID == "" {
		return fmt.Errorf("session ID required for guest cart")
	}

	now := time.Now().UTC()
	sessionCart := SessionCart{
		SessionID: sessionID,
		Items:     make([]SessionCartItem, len(lines)),
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(guestCartTTL),
	}
	for i, line := range lines {
		sessionCart.Items[i] = SessionCartItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.Price,
			AddedAt:   now,
		}
	}

	cartData, err := json.Marshal(&sessionCart)
	if err != nil {
		return err
	}
	return s.redisClient.Set(ctx, guestCartKey(sessionID), cartData, guestCartTTL).Err()
}

func (s *Service) loadProductDetails(items []CartItemResponse) error {
	for i := range items {
		var prod product.Product
		err := s.db.Where("id = ?", items[i].ProductID).First(&prod).Error
		if err != nil {
			continue // Skip if product not found
		}
		items[i].Product = &prod
	}
	return nil
}

func calculateTotals(items []CartItemResponse) CartTotals {
	var totals CartTotals
	totals.ItemCount = len(items)
	for _, item := range items {
		totals.TotalQuantity += item.Quantity
		totals.SubTotal += item.Price * int64(item.Quantity)
	}
	return totals
}

func guestCartKey(sessionID string) string {
	return fmt.Sprintf("cart:session:%s", sessionID)
}

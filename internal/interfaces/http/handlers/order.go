// internal/interfaces/http/handlers/order.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/pkg/notification"
	"gorm.io/gorm"
)

// OrderHandler handles order endpoints
type OrderHandler struct {
	orderService *order.Service
	reconciler   *order.Reconciler
	notifier     *notification.EmailNotifier
	config       *config.Config
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, reconciler *order.Reconciler, notifier *notification.EmailNotifier) *OrderHandler {
	cartService := cart.NewService(db, redisClient, cfg)
	couponService := coupon.NewService(db, cfg)
	productService := product.NewService(db, cfg)

	return &OrderHandler{
		orderService: order.NewService(db, cfg, cartService, couponService, productService),
		reconciler:   reconciler,
		notifier:     notifier,
		config:       cfg,
	}
}

// CreateOrder handles POST /orders. Guests order with their session cart;
// authenticated users with their persisted cart.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, sessionID := requesterIdentity(c)

	var req order.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	ord, err := h.orderService.CreateOrder(c.Request.Context(), userID, sessionID, &req)
	if err != nil {
		h.respondCreateOrderError(c, err)
		return
	}

	if h.notifier != nil {
		if err := h.notifier.NotifyOrderConfirmed(c.Request.Context(), ord); err != nil {
			logrus.WithError(err).WithField("order_id", ord.ID).
				Warn("Failed to queue order confirmation email")
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order created successfully",
		"data":    ord,
	})
}

func (h *OrderHandler) respondCreateOrderError(c *gin.Context, err error) {
	var fieldErr *order.FieldError
	var stockErr *product.ErrInsufficientStock
	var minErr *coupon.BelowMinimumError

	switch {
	case errors.Is(err, order.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
	case errors.As(err, &fieldErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fieldErr.Message,
			"field": fieldErr.Field,
		})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, coupon.ErrCouponNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Coupon not found"})
	case errors.Is(err, coupon.ErrCouponExhausted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, coupon.ErrCouponInactive),
		errors.Is(err, coupon.ErrCouponNotYetValid),
		errors.Is(err, coupon.ErrCouponExpired),
		errors.As(err, &minErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		logrus.WithError(err).Error("Order creation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
	}
}

// GetOrders handles GET /orders for the authenticated user
func (h *OrderHandler) GetOrders(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	opts := listOptionsFromQuery(c)
	opts.UserID = &userID

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data": gin.H{
			"orders": orders,
			"total":  total,
			"page":   opts.Page,
			"limit":  opts.Limit,
		},
	})
}

// GetOrder handles GET /orders/:id for the owner or an admin
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	ord, err := h.orderService.GetOrder(c.Request.Context(), uint(orderID))
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve order"})
		return
	}

	if !viewableBy(c, ord) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    ord,
	})
}

// TrackOrder handles GET /orders/track/:number. Tracking exposes only the
// status timeline: order numbers travel in emails and can be guessed from
// the date, so no addresses or amounts come back here.
func (h *OrderHandler) TrackOrder(c *gin.Context) {
	ord, err := h.orderService.GetOrderByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve order"})
		return
	}

	timeline := make([]gin.H, 0, len(ord.StatusHistory))
	for _, entry := range ord.StatusHistory {
		timeline = append(timeline, gin.H{
			"status":     entry.Status,
			"comment":    entry.Comment,
			"created_at": entry.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data": gin.H{
			"order_number":   ord.OrderNumber,
			"status":         ord.Status,
			"payment_status": ord.PaymentStatus,
			"created_at":     ord.CreatedAt,
			"timeline":       timeline,
		},
	})
}

// CancelOrderRequest carries the customer's stated reason
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// CancelOrder handles POST /orders/:id/cancel. Everything downstream of the
// request, refund included, goes through the reconciler.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	// Body is optional; an empty one is a cancellation without a reason.
	var req CancelOrderRequest
	_ = c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = "Cancelled by customer"
	}

	requester := order.Requester{
		UserID:  userID,
		IsAdmin: middleware.IsAdminFromContext(c),
	}

	receipt, err := h.reconciler.Cancel(c.Request.Context(), uint(orderID), req.Reason, requester)
	if err != nil {
		h.respondCancelError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled successfully",
		"data":    receipt,
	})
}

func (h *OrderHandler) respondCancelError(c *gin.Context, err error) {
	var transitionErr *order.InvalidTransitionError

	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, order.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	case errors.As(err, &transitionErr):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logrus.WithError(err).Error("Order cancellation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel order"})
	}
}

// --- Admin handlers ---

// AdminListOrders handles GET /admin/orders with an optional status filter
func (h *OrderHandler) AdminListOrders(c *gin.Context) {
	opts := listOptionsFromQuery(c)

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data": gin.H{
			"orders": orders,
			"total":  total,
			"page":   opts.Page,
			"limit":  opts.Limit,
		},
	})
}

// UpdateOrderStatusRequest represents a status transition request
type UpdateOrderStatusRequest struct {
	Status  order.OrderStatus `json:"status" binding:"required,oneof=processing shipped delivered"`
	Comment string            `json:"comment"`
}

// UpdateOrderStatus handles PUT /admin/orders/:id/status. Cancellation is
// not a valid target here; it has its own endpoint backed by the reconciler.
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	adminID, _ := middleware.GetUserIDFromContext(c)

	ord, err := h.orderService.UpdateOrderStatus(c.Request.Context(), uint(orderID), req.Status, req.Comment, adminID)
	if err != nil {
		var transitionErr *order.InvalidTransitionError
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		case errors.As(err, &transitionErr):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logrus.WithError(err).Error("Order status update failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order status"})
		}
		return
	}

	if h.notifier != nil && ord.ShippingAddress.Email != "" {
		if err := h.notifier.NotifyStatusChanged(c.Request.Context(), ord, req.Comment); err != nil {
			logrus.WithError(err).WithField("order_id", ord.ID).
				Warn("Failed to queue status update email")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated successfully",
		"data":    ord,
	})
}

// viewableBy reports whether the requester may read an order. Admins see
// everything; users see their own; a guest order has no owner, so
// possession of its ID is the only credential anyone can present.
func viewableBy(c *gin.Context, ord *order.Order) bool {
	if ord.UserID == nil {
		return true
	}
	if middleware.IsAdminFromContext(c) {
		return true
	}
	if userID, ok := middleware.GetUserIDFromContext(c); ok {
		return ord.OwnedBy(userID)
	}
	return false
}

func listOptionsFromQuery(c *gin.Context) order.ListOptions {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	opts := order.ListOptions{
		Page:  page,
		Limit: limit,
	}
	if status := c.Query("status"); status != "" {
		opts.Status = order.OrderStatus(status)
	}
	return opts
}

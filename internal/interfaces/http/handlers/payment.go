// internal/interfaces/http/handlers/payment.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// PaymentHandler handles payment session and webhook endpoints
type PaymentHandler struct {
	paymentService *payment.Service
	config         *config.Config
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *payment.Service, cfg *config.Config) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		config:         cfg,
	}
}

// CreateSession handles POST /orders/:id/payment. COD orders complete
// immediately; online orders get a hosted payment URL to redirect to.
func (h *PaymentHandler) CreateSession(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var requester order.Requester
	if userID, ok := middleware.GetUserIDFromContext(c); ok {
		requester.UserID = userID
		requester.IsAdmin = middleware.IsAdminFromContext(c)
	}

	session, err := h.paymentService.CreateSession(c.Request.Context(), uint(orderID), requester)
	if err != nil {
		h.respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Payment session created successfully",
		"data":    session,
	})
}

func (h *PaymentHandler) respondSessionError(c *gin.Context, err error) {
	var declined *payment.DeclinedError

	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, order.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	case errors.Is(err, payment.ErrOrderNotPayable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &declined):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error": "Payment declined",
			"code":  declined.Code,
		})
	case errors.Is(err, payment.ErrGatewayUnreachable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Payment gateway is unavailable, please retry"})
	default:
		logrus.WithError(err).Error("Payment session creation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create payment session"})
	}
}

// GetSessions handles GET /orders/:id/payment for the owner or an admin
func (h *PaymentHandler) GetSessions(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var requester order.Requester
	if userID, ok := middleware.GetUserIDFromContext(c); ok {
		requester.UserID = userID
		requester.IsAdmin = middleware.IsAdminFromContext(c)
	}

	sessions, err := h.paymentService.GetSessionsForOrder(c.Request.Context(), uint(orderID), requester)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		case errors.Is(err, order.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve payment sessions"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment sessions retrieved successfully",
		"data":    sessions,
	})
}

// webhookEvent is the gateway's settlement callback payload
type webhookEvent struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// Webhook handles POST /payments/webhook. The signature covers the raw
// body, so the body is read before any parsing. A replayed event for an
// already completed session is acknowledged without side effects.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	signature := c.GetHeader("X-Webhook-Signature")
	if !h.paymentService.VerifyWebhookSignature(body, signature) {
		logrus.WithField("ip", c.ClientIP()).Warn("Webhook signature verification failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid webhook signature"})
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil || event.SessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook payload"})
		return
	}

	session, err := h.paymentService.ConfirmPayment(c.Request.Context(), event.SessionID, event.Status)
	if err != nil {
		if errors.Is(err, payment.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment session not found"})
			return
		}
		logrus.WithError(err).WithField("session_id", event.SessionID).
			Error("Webhook payment confirmation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process webhook"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Webhook processed successfully",
		"data": gin.H{
			"session_id": session.ExternalID,
			"status":     session.Status,
		},
	})
}

// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/pkg/notification"
	"gorm.io/gorm"
)

// SetupRoutes wires every API route group onto the given router group.
//
// The notifier is built once in main so its dispatcher can be drained on
// shutdown; everything else is constructed here from the shared connections.
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, notifier *notification.EmailNotifier) {
	cartService := cart.NewService(db, redisClient, cfg)
	couponService := coupon.NewService(db, cfg)
	productService := product.NewService(db, cfg)
	orderService := order.NewService(db, cfg, cartService, couponService, productService)
	paymentService := payment.NewService(db, cfg, orderService)

	reconciler := order.NewReconciler(
		order.NewGormStore(db),
		paymentService,
		notifier,
		orderService.Policy(),
		nil,
	)

	productHandler := handlers.NewProductHandler(db, cfg)
	cartHandler := handlers.NewCartHandler(db, redisClient, cfg)
	couponHandler := handlers.NewCouponHandler(db, redisClient, cfg)
	orderHandler := handlers.NewOrderHandler(db, redisClient, cfg, reconciler, notifier)
	paymentHandler := handlers.NewPaymentHandler(paymentService, cfg)
	invoiceHandler := handlers.NewInvoiceHandler(orderService, cfg)

	setupProductRoutes(rg, cfg, productHandler)
	setupCartRoutes(rg, cfg, cartHandler)
	setupCouponRoutes(rg, cfg, couponHandler)
	setupOrderRoutes(rg, cfg, orderHandler, paymentHandler, invoiceHandler)
	setupWebhookRoutes(rg, paymentHandler)
	setupAdminRoutes(rg, cfg, couponHandler, orderHandler)
}

// setupProductRoutes sets up public catalog routes
func setupProductRoutes(rg *gin.RouterGroup, cfg *config.Config, productHandler *handlers.ProductHandler) {
	products := rg.Group("/products")
	{
		products.GET("", productHandler.GetProducts)
		products.GET("/:id", productHandler.GetProduct)
	}
}

// setupCartRoutes sets up cart routes. Carts work for guest sessions and
// authenticated users alike, so auth is optional but a session is minted
// for everyone.
func setupCartRoutes(rg *gin.RouterGroup, cfg *config.Config, cartHandler *handlers.CartHandler) {
	cartGroup := rg.Group("/cart")
	cartGroup.Use(middleware.OptionalAuthMiddleware(cfg))
	cartGroup.Use(middleware.GuestSession())
	{
		cartGroup.GET("", cartHandler.GetCart)
		cartGroup.GET("/count", cartHandler.GetCartCount)
		cartGroup.POST("/items", cartHandler.AddToCart)
		cartGroup.PUT("/items/:id", cartHandler.UpdateCartItem)
		cartGroup.DELETE("/items/:id", cartHandler.RemoveFromCart)
		cartGroup.DELETE("", cartHandler.ClearCart)

		// Merging a guest cart requires knowing who the user is
		merge := cartGroup.Group("")
		merge.Use(middleware.AuthMiddleware(cfg))
		{
			merge.POST("/merge", cartHandler.MergeCart)
		}
	}
}

// setupCouponRoutes sets up the public coupon validation route
func setupCouponRoutes(rg *gin.RouterGroup, cfg *config.Config, couponHandler *handlers.CouponHandler) {
	coupons := rg.Group("/coupons")
	coupons.Use(middleware.OptionalAuthMiddleware(cfg))
	coupons.Use(middleware.GuestSession())
	{
		coupons.POST("/validate", couponHandler.ValidateCoupon)
	}
}

// setupOrderRoutes sets up order routes. Creation and payment are open to
// guests with a session; listing and cancellation require an account.
func setupOrderRoutes(rg *gin.RouterGroup, cfg *config.Config, orderHandler *handlers.OrderHandler, paymentHandler *handlers.PaymentHandler, invoiceHandler *handlers.InvoiceHandler) {
	orders := rg.Group("/orders")
	orders.Use(middleware.OptionalAuthMiddleware(cfg))
	orders.Use(middleware.GuestSession())
	{
		orders.POST("", orderHandler.CreateOrder)
		orders.GET("/track/:number", orderHandler.TrackOrder)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.POST("/:id/payment", paymentHandler.CreateSession)
		orders.GET("/:id/payment", paymentHandler.GetSessions)
		orders.GET("/:id/invoice", invoiceHandler.GetInvoice)

		authed := orders.Group("")
		authed.Use(middleware.AuthMiddleware(cfg))
		{
			authed.GET("", orderHandler.GetOrders)
			authed.POST("/:id/cancel", orderHandler.CancelOrder)
		}
	}
}

// setupWebhookRoutes sets up gateway callback routes. Webhooks authenticate
// with an HMAC signature over the body, never with a user token.
func setupWebhookRoutes(rg *gin.RouterGroup, paymentHandler *handlers.PaymentHandler) {
	webhooks := rg.Group("/webhooks")
	{
		webhooks.POST("/payment", paymentHandler.Webhook)
	}
}

// setupAdminRoutes sets up admin management routes
func setupAdminRoutes(rg *gin.RouterGroup, cfg *config.Config, couponHandler *handlers.CouponHandler, orderHandler *handlers.OrderHandler) {
	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg))
	admin.Use(middleware.AdminMiddleware())
	{
		coupons := admin.Group("/coupons")
		{
			coupons.GET("", couponHandler.ListCoupons)
			coupons.POST("", couponHandler.CreateCoupon)
			coupons.PUT("/:id", couponHandler.UpdateCoupon)
			coupons.DELETE("/:id", couponHandler.DeleteCoupon)
		}

		orders := admin.Group("/orders")
		{
			orders.GET("", orderHandler.AdminListOrders)
			orders.PUT("/:id/status", orderHandler.UpdateOrderStatus)
			orders.POST("/:id/cancel", orderHandler.CancelOrder)
		}
	}
}

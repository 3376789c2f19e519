// Package router sets up the HTTP routing for the application.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/cashback-engine/backend/internal/integration/entrypoint/controller"
	"github.com/cashback-engine/backend/internal/integration/entrypoint/middleware"
)

// Router holds the Gin engine and controller dependencies.
type Router struct {
	engine             *gin.Engine
	healthController   *controller.HealthController
	saleController     *controller.SaleController
	cashbackController *controller.CashbackController
	redeemRateLimiter  *middleware.RateLimiter
	authMiddleware     *middleware.AuthMiddleware
}

// NewRouter creates a new router instance with all dependencies.
func NewRouter(
	healthController *controller.HealthController,
	saleController *controller.SaleController,
	cashbackController *controller.CashbackController,
	redeemRateLimiter *middleware.RateLimiter,
	authMiddleware *middleware.AuthMiddleware,
) *Router {
	return &Router{
		healthController:   healthController,
		saleController:     saleController,
		cashbackController: cashbackController,
		redeemRateLimiter:  redeemRateLimiter,
		authMiddleware:     authMiddleware,
	}
}

// Setup configures and returns the Gin engine with all routes.
func (r *Router) Setup(environment string) *gin.Engine {
	// Set Gin mode based on environment
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else if environment == "test" {
		gin.SetMode(gin.TestMode)
	}

	// Create router with default middleware (logger and recovery)
	r.engine = gin.Default()

	// Setup routes
	r.setupHealthRoutes()
	r.setupAPIRoutes()

	return r.engine
}

// setupHealthRoutes configures health check endpoints.
func (r *Router) setupHealthRoutes() {
	r.engine.GET("/health", r.healthController.Check)
}

// setupAPIRoutes configures the main API routes.
func (r *Router) setupAPIRoutes() {
	// API v1 group
	v1 := r.engine.Group("/api/v1")
	{
		// Sale routes (require service authentication)
		if r.saleController != nil && r.authMiddleware != nil {
			sales := v1.Group("/sales")
			sales.Use(r.authMiddleware.Authenticate())
			{
				sales.POST("/evaluate", r.saleController.Evaluate)
				sales.POST("/reprocess", r.saleController.Reprocess)
				sales.POST("/:id/cancel", r.saleController.Cancel)
			}
		}

		// Cashback routes (require service authentication)
		if r.cashbackController != nil && r.authMiddleware != nil {
			cashback := v1.Group("/cashback")
			cashback.Use(r.authMiddleware.Authenticate())
			{
				if r.redeemRateLimiter != nil {
					cashback.POST("/redeem", r.redeemRateLimiter.Middleware(), r.cashbackController.Redeem)
				} else {
					cashback.POST("/redeem", r.cashbackController.Redeem)
				}
			}

			customers := v1.Group("/customers")
			customers.Use(r.authMiddleware.Authenticate())
			{
				customers.GET("/:cpf/balance", r.cashbackController.Balance)
			}
		}
	}
}

// Engine returns the underlying Gin engine.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

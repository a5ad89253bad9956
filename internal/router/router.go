package router

import (
	"github.com/gin-gonic/gin"

	"ledgerlens/internal/config"
	"ledgerlens/internal/handler"
	"ledgerlens/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	receiptH *handler.ReceiptHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Protected routes - require valid JWT
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(&cfg.JWT))

	receipts := protected.Group("/receipts")
	receipts.POST("", receiptH.Submit)
	receipts.GET("/export", receiptH.Export)
	receipts.GET("/:token", receiptH.Status)
	receipts.GET("/:token/result", receiptH.Result)

	return r
}

package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BariBariGood/custom-checkout-app/internal/api/handlers"
	"github.com/BariBariGood/custom-checkout-app/internal/api/middleware"
	"github.com/BariBariGood/custom-checkout-app/internal/config"
	"github.com/BariBariGood/custom-checkout-app/internal/repository"
	"github.com/BariBariGood/custom-checkout-app/internal/service"
	"github.com/BariBariGood/custom-checkout-app/internal/shopify"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, repos *repository.Repositories, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(customRecovery(logger))
	router.Use(loggingMiddleware(logger))
	router.Use(middleware.CORSMiddleware())

	// One provisioner for the process: its per-product eviction dedup only
	// works when all requests share it.
	client := shopify.NewClient(cfg.Shopify.APIVersion, logger)
	provisioner := service.NewProvisioner(client, repos.ProvisionEvent, cfg.Variants, logger)

	// Root: friendly response so GET / returns 200 instead of 404
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "Custom Checkout App",
			"endpoints": []string{
				"GET /health",
				"GET /auth?shop=",
				"GET /auth/callback",
				"GET /shop?shop=",
				"POST /create-custom-variant",
				"GET /check-product-variants?shop=&product_id=",
			},
		})
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// OAuth install flow
	router.GET("/auth", handlers.HandleAuthBegin(cfg, repos, logger))
	router.GET("/auth/callback", handlers.HandleAuthCallback(cfg, repos, logger))
	router.GET("/shop", handlers.HandleShopHome(cfg, repos, logger))

	// Variant API consumed by the storefront widget
	router.POST("/create-custom-variant", handlers.HandleCreateCustomVariant(cfg, repos, provisioner, logger))
	router.GET("/check-product-variants", handlers.HandleCheckProductVariants(cfg, repos, provisioner, logger))

	// Admin routes require a configured API key hash
	if cfg.Admin.APIKeyHash != "" {
		admin := router.Group("/admin")
		admin.Use(middleware.AdminAuthMiddleware(cfg.Admin, logger))
		{
			admin.GET("/sessions", handlers.HandleListSessions(repos, logger))
			admin.DELETE("/sessions/:shop", handlers.HandleDeleteSession(repos, logger))
			admin.GET("/provisions", handlers.HandleListProvisions(repos, logger))
		}
	}

	return router
}

// customRecovery is a custom recovery middleware that logs panics
func customRecovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			zap.Any("error", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal server error",
			"details": fmt.Sprintf("%v", recovered),
		})
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}

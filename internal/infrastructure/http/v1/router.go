// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"ventapos/internal/domain/catalog/product"
	"ventapos/internal/domain/inventory/batch"
	"ventapos/internal/domain/sales"
	"ventapos/internal/infrastructure/http/v1/handlers"
	"ventapos/internal/infrastructure/http/v1/middleware"
	"ventapos/internal/infrastructure/metrics"
	"ventapos/internal/infrastructure/storage/postgres"
	"ventapos/internal/infrastructure/storage/postgres/catalog_repo"
	"ventapos/internal/infrastructure/storage/postgres/inventory_repo"
	"ventapos/internal/infrastructure/storage/postgres/sales_repo"
	"ventapos/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool.
	Pool *postgres.Pool

	// Logger for request logging.
	Logger *logger.Logger

	// JWTValidator for token validation.
	JWTValidator middleware.JWTValidator
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(metrics.HTTP())
	router.Use(middleware.ErrorHandler())

	// Health and metrics endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Pool.Unwrap())
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Wiring: one TxManager, repos, services.
	txm := postgres.NewTxManager(cfg.Pool)
	categoryRepo := catalog_repo.NewCategoryRepo(txm)
	productRepo := catalog_repo.NewProductRepo(txm)
	batchRepo := inventory_repo.NewBatchRepo(txm)
	saleRepo := sales_repo.NewSaleRepo(txm)

	productService := product.NewService(productRepo, categoryRepo, txm)
	batchService := batch.NewService(batchRepo, productRepo, txm)
	saleService := sales.NewService(saleRepo, batchRepo, productRepo, txm)

	baseHandler := handlers.NewBaseHandler()

	// API v1, JWT-protected
	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTValidator))
	{
		productHandler := handlers.NewProductHandler(baseHandler, productService, batchService)
		productHandler.RegisterRoutes(api.Group("/products"))

		batchHandler := handlers.NewBatchHandler(baseHandler, batchService)
		batchHandler.RegisterRoutes(api.Group("/batches"))

		saleHandler := handlers.NewSaleHandler(baseHandler, saleService)
		saleHandler.RegisterRoutes(api.Group("/sales"))
	}

	return router
}

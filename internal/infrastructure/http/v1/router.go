// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/catalogs/location"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/catalogs/warehouse"
	"stockledger/internal/domain/documents"
	"stockledger/internal/domain/registers/stock"
	"stockledger/internal/domain/reorder"
	"stockledger/internal/infrastructure/http/v1/handlers"
	"stockledger/internal/infrastructure/http/v1/middleware"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/pkg/logger"
)

// RouterConfig holds everything the router wires together.
type RouterConfig struct {
	Logger *logger.Logger

	// Pool is used by readiness checks only; handlers go through services.
	Pool *postgres.Pool

	Auth middleware.TenantAuthConfig

	Documents  *documents.Service
	StockQuery *stock.QueryEngine
	Reorder    *reorder.Service
	Products   *product.Service
	Warehouses *warehouse.Service
	Locations  *location.Service

	// Audit serves document change history.
	Audit handlers.AuditHistorian
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Order matters: recovery outermost, then trace so the logger and error
	// handler see request ids.
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	router.GET("/healthz", healthHandler.Live)
	router.GET("/readyz", healthHandler.Ready)

	api := router.Group("/api/v1")
	api.Use(middleware.TenantAuth(cfg.Auth))

	registerDocumentRoutes(api, cfg)
	registerStockRoutes(api, cfg)
	registerReorderRoutes(api, cfg)
	registerCatalogRoutes(api, cfg)

	return router
}

func registerDocumentRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	handler := handlers.NewDocumentHandler(cfg.Documents)
	auditHandler := handlers.NewAuditHandler(cfg.Audit)

	docs := rg.Group("/documents")
	{
		docs.POST("", handler.Create)
		docs.GET("", handler.List)
		docs.GET("/:id", handler.Get)
		docs.PATCH("/:id", handler.Update)
		docs.POST("/:id/confirm", handler.Confirm)
		docs.POST("/:id/post", handler.Post)
		docs.POST("/:id/cancel", handler.Cancel)
		docs.GET("/:id/history", auditHandler.DocumentHistory)
	}
}

func registerStockRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	handler := handlers.NewStockHandler(cfg.StockQuery)

	stockGroup := rg.Group("/stock")
	{
		stockGroup.GET("/levels", handler.Levels)
		stockGroup.GET("/moves", handler.Moves)
		stockGroup.GET("/reservations", handler.Reservations)
	}
}

func registerReorderRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	handler := handlers.NewReorderHandler(cfg.Reorder)

	reorderGroup := rg.Group("/reorder")
	{
		reorderGroup.POST("/policies", handler.CreatePolicy)
		reorderGroup.GET("/policies", handler.ListPolicies)
		reorderGroup.GET("/policies/:id", handler.GetPolicy)
		reorderGroup.PATCH("/policies/:id", handler.UpdatePolicy)
		reorderGroup.GET("/suggestions", handler.Suggestions)
	}
}

func registerCatalogRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	handler := handlers.NewCatalogHandler(cfg.Products, cfg.Warehouses, cfg.Locations)

	products := rg.Group("/products")
	{
		products.POST("", handler.CreateProduct)
		products.GET("", handler.ListProducts)
		products.GET("/:id", handler.GetProduct)
		products.PATCH("/:id", handler.UpdateProduct)
	}

	warehouses := rg.Group("/warehouses")
	{
		warehouses.POST("", handler.CreateWarehouse)
		warehouses.GET("", handler.ListWarehouses)
		warehouses.GET("/:id", handler.GetWarehouse)
	}

	locations := rg.Group("/locations")
	{
		locations.POST("", handler.CreateLocation)
		locations.GET("", handler.ListLocations)
		locations.GET("/:id", handler.GetLocation)
	}
}

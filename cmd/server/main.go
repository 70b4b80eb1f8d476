// Package main is the entry point for the stockledger API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"stockledger/internal/config"
	"stockledger/internal/core/clock"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/catalogs/location"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/catalogs/warehouse"
	"stockledger/internal/domain/documents"
	"stockledger/internal/domain/registers/stock"
	"stockledger/internal/domain/reorder"
	v1 "stockledger/internal/infrastructure/http/v1"
	"stockledger/internal/infrastructure/http/v1/middleware"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	ctx := logger.WithLogger(context.Background(), log)
	log.Info("starting stockledger server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.Database.DSN)
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns
	poolCfg.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	documentRepo := postgres.NewDocumentRepo(txManager)
	stockRepo := postgres.NewStockMoveRepo(txManager)
	reservationRepo := postgres.NewReservationRepo(txManager)
	settingsRepo := postgres.NewSettingsRepo(txManager)
	reorderRepo := postgres.NewReorderPolicyRepo(txManager)
	productRepo := postgres.NewProductRepo(txManager)
	warehouseRepo := postgres.NewWarehouseRepo(txManager)
	locationRepo := postgres.NewLocationRepo(txManager)

	idempotencyStore := postgres.NewIdempotencyStore(txManager, cfg.Idempotency.TTL)
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- Domain services ---
	clk := clock.System{}
	ids := id.UUIDGenerator{}

	documentService := documents.NewService(documents.ServiceDeps{
		Documents:    documentRepo,
		Settings:     settingsRepo,
		Moves:        stockRepo,
		Reservations: reservationRepo,
		Products:     productRepo,
		Locations:    locationRepo,
		Warehouses:   warehouseRepo,
		Tx:           txManager,
		Idempotency:  idempotencyStore,
		Audit:        auditService,
		Clock:        clk,
		IDs:          ids,
	})

	stockQuery := stock.NewQueryEngine(stockRepo, reservationRepo, locationRepo)
	reorderService := reorder.NewService(reorderRepo, stockQuery, clk, ids)
	productService := product.NewService(productRepo, clk, ids)
	warehouseService := warehouse.NewService(warehouseRepo, clk, ids)
	locationService := location.NewService(locationRepo, warehouseRepo, clk, ids)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger: log,
		Pool:   pool,
		Auth: middleware.TenantAuthConfig{
			JWTSecret:    cfg.Auth.JWTSecret,
			APIKeyHashes: cfg.Auth.APIKeyHashes,
		},
		Documents:  documentService,
		StockQuery: stockQuery,
		Reorder:    reorderService,
		Products:   productService,
		Warehouses: warehouseService,
		Locations:  locationService,
		Audit:      auditService,
	})

	// --- HTTP server ---
	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		log.Infow("server listening", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"kardex/internal/domain/ledger"
	"kardex/internal/domain/reports"
	"kardex/internal/domain/snapshot"
	"kardex/internal/domain/stock"
	"kardex/internal/domain/workflows/inbound"
	"kardex/internal/domain/workflows/outbound"
	"kardex/internal/domain/workflows/picking"
	"kardex/internal/domain/workflows/stockmove"
	"kardex/internal/domain/workflows/stocktaking"
	"kardex/internal/infrastructure/http/v1/handlers"
	"kardex/internal/infrastructure/http/v1/middleware"
	"kardex/internal/infrastructure/metrics"
	"kardex/internal/infrastructure/storage/postgres"
	"kardex/pkg/logger"
)

// RouterConfig carries the wired services the router exposes.
type RouterConfig struct {
	Pool   *postgres.Pool
	Logger *logger.Logger

	StockService    *stock.Service
	LedgerService   *ledger.Service
	InboundService  *inbound.Service
	OutboundService *outbound.Service
	MoveService     *stockmove.Service
	TakingService   *stocktaking.Service
	WaveService     *picking.Service
	SnapshotService *snapshot.Service
	ReportService   *reports.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Operator())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.Metrics())
	router.Use(middleware.ErrorHandler())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// Prometheus scrape endpoint
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	base := handlers.NewBaseHandler()

	api := router.Group("/api/v1")
	{
		handlers.NewInboundHandler(base, cfg.InboundService).
			RegisterRoutes(api.Group("/inbound-orders"))
		handlers.NewOutboundHandler(base, cfg.OutboundService).
			RegisterRoutes(api.Group("/outbound-orders"))
		handlers.NewMoveHandler(base, cfg.MoveService).
			RegisterRoutes(api.Group("/move-orders"))
		handlers.NewTakingHandler(base, cfg.TakingService).
			RegisterRoutes(api.Group("/taking-plans"))
		handlers.NewWaveHandler(base, cfg.WaveService).
			RegisterRoutes(api.Group("/picking-waves"))

		handlers.NewStockHandler(base, cfg.StockService).
			RegisterRoutes(api.Group("/stock"))
		handlers.NewLedgerHandler(base, cfg.LedgerService, cfg.StockService).
			RegisterRoutes(api.Group("/ledger"))
		handlers.NewReportHandler(base, cfg.ReportService).
			RegisterRoutes(api.Group("/reports"))
		handlers.NewSnapshotHandler(base, cfg.SnapshotService).
			RegisterRoutes(api.Group("/snapshots"), api.Group("/warnings"))
	}

	return router
}

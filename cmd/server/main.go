// Package main is the entry point for the kardex API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kardex/internal/domain/ledger"
	"kardex/internal/domain/reports"
	"kardex/internal/domain/snapshot"
	"kardex/internal/domain/stock"
	"kardex/internal/domain/workflows/inbound"
	"kardex/internal/domain/workflows/outbound"
	"kardex/internal/domain/workflows/picking"
	"kardex/internal/domain/workflows/stockmove"
	"kardex/internal/domain/workflows/stocktaking"
	v1 "kardex/internal/infrastructure/http/v1"
	"kardex/internal/infrastructure/metrics"
	"kardex/internal/infrastructure/numerator"
	"kardex/internal/infrastructure/storage/postgres"
	"kardex/internal/infrastructure/storage/postgres/masterdata_repo"
	"kardex/internal/infrastructure/storage/postgres/order_repo"
	"kardex/internal/infrastructure/storage/postgres/report_repo"
	"kardex/internal/infrastructure/storage/postgres/stock_repo"
	"kardex/pkg/config"
	"kardex/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting kardex server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DB.ConnectionString())
	if cfg.DB.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.DB.MaxConns)
	}
	if cfg.DB.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.DB.MinConns)
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	metrics.RegisterPoolStats(pool)

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	stockRepo := stock_repo.NewStockRepo(txManager)
	ledgerRepo := stock_repo.NewLedgerRepo(txManager)
	snapshotRepo := stock_repo.NewSnapshotRepo(txManager)
	inboundRepo := order_repo.NewInboundRepo(txManager)
	outboundRepo := order_repo.NewOutboundRepo(txManager)
	moveRepo := order_repo.NewMoveRepo(txManager)
	takingRepo := order_repo.NewTakingRepo(txManager)
	waveRepo := order_repo.NewWaveRepo(txManager)
	reportRepo := report_repo.NewReportRepo(txManager)
	lookup := masterdata_repo.NewLookup(txManager)

	trail, err := postgres.NewTransitionTrail(txManager)
	if err != nil {
		log.Fatalw("failed to initialize transition trail", "error", err)
	}

	// Number generation runs on the pool, outside business transactions.
	numeratorService := numerator.New(pool)

	rules, err := snapshot.NewRuleSet()
	if err != nil {
		log.Fatalw("failed to initialize warning rules", "error", err)
	}

	// --- Services ---
	stockService := stock.NewService(stockRepo, ledgerRepo, txManager)
	ledgerService := ledger.NewService(ledgerRepo)
	inboundService := inbound.NewService(inboundRepo, stockService, numeratorService, txManager, trail)
	outboundService := outbound.NewService(outboundRepo, stockService, numeratorService, txManager, trail)
	moveService := stockmove.NewService(moveRepo, stockService, numeratorService, txManager, trail)
	takingService := stocktaking.NewService(takingRepo, stockService, numeratorService, txManager, trail)
	waveService := picking.NewService(waveRepo, outboundService, numeratorService, txManager, trail)
	snapshotService := snapshot.NewService(snapshotRepo, stockService, lookup, txManager, rules)
	reportService := reports.NewService(reportRepo, lookup)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:            pool,
		Logger:          log,
		StockService:    stockService,
		LedgerService:   ledgerService,
		InboundService:  inboundService,
		OutboundService: outboundService,
		MoveService:     moveService,
		TakingService:   takingService,
		WaveService:     waveService,
		SnapshotService: snapshotService,
		ReportService:   reportService,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", cfg.HTTP.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
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

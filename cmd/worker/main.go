// Package main is the entry point for the kardex background worker.
// It takes the daily stock snapshot and logs current stock warnings.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"kardex/internal/core/apperror"
	"kardex/internal/domain/snapshot"
	"kardex/internal/domain/stock"
	"kardex/internal/infrastructure/metrics"
	"kardex/internal/infrastructure/storage/postgres"
	"kardex/internal/infrastructure/storage/postgres/masterdata_repo"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting kardex worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DB.ConnectionString()))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	stockRepo := stock_repo.NewStockRepo(txManager)
	ledgerRepo := stock_repo.NewLedgerRepo(txManager)
	snapshotRepo := stock_repo.NewSnapshotRepo(txManager)
	lookup := masterdata_repo.NewLookup(txManager)

	rules, err := snapshot.NewRuleSet()
	if err != nil {
		log.Fatalw("failed to initialize warning rules", "error", err)
	}

	stockService := stock.NewService(stockRepo, ledgerRepo, txManager)
	snapshotService := snapshot.NewService(snapshotRepo, stockService, lookup, txManager, rules)

	worker := NewSnapshotWorker(snapshotService, cfg.Snapshot, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// SnapshotWorker runs the daily snapshot at a fixed UTC hour.
type SnapshotWorker struct {
	service *snapshot.Service
	cfg     config.SnapshotConfig
	log     *logger.Logger
}

// NewSnapshotWorker creates a snapshot worker.
func NewSnapshotWorker(service *snapshot.Service, cfg config.SnapshotConfig, log *logger.Logger) *SnapshotWorker {
	return &SnapshotWorker{
		service: service,
		cfg:     cfg,
		log:     log.WithComponent("snapshot-worker"),
	}
}

// Run wakes up on a ticker and takes the snapshot once the configured
// hour has passed. The date-uniqueness of snapshots makes an extra
// wake-up harmless: the second attempt is a conflict and is skipped.
func (w *SnapshotWorker) Run(ctx context.Context) {
	if !w.cfg.Enabled {
		w.log.Info("snapshot loop disabled")
		<-ctx.Done()
		return
	}

	interval := w.cfg.CheckInterval
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now().UTC()
			if now.Hour() < w.cfg.Hour {
				continue
			}
			w.takeSnapshot(ctx, now)
		}
	}
}

func (w *SnapshotWorker) takeSnapshot(ctx context.Context, date time.Time) {
	start := time.Now()

	snap, err := w.service.Take(ctx, date)
	elapsed := time.Since(start)

	if err != nil {
		if appErr, ok := apperror.AsAppError(err); ok && appErr.Code == apperror.CodeConflict {
			// Already taken today.
			return
		}
		metrics.SnapshotRunsTotal.WithLabelValues("error").Inc()
		w.log.Errorw("snapshot run failed", "date", date.Format("2006-01-02"), "error", err)
		return
	}

	metrics.SnapshotRunsTotal.WithLabelValues("success").Inc()
	metrics.SnapshotDuration.Observe(elapsed.Seconds())

	w.log.Infow("snapshot taken",
		"snapshot_id", snap.ID,
		"date", snap.SnapshotDate.Format("2006-01-02"),
		"records", snap.RecordCount,
		"elapsed_ms", elapsed.Milliseconds(),
	)

	w.logWarnings(ctx)
}

// logWarnings surfaces current stock warnings into the worker log right
// after the daily snapshot.
func (w *SnapshotWorker) logWarnings(ctx context.Context) {
	warnings, err := w.service.Warnings(ctx, snapshot.WarningFilter{})
	if err != nil {
		w.log.Warnw("warning computation failed", "error", err)
		return
	}

	for _, warning := range warnings {
		w.log.Warnw("stock warning",
			"type", warning.Type,
			"rule", warning.Rule,
			"warehouse_id", warning.WarehouseID,
			"goods_id", warning.GoodsID,
			"location_id", warning.LocationID,
			"batch_no", warning.BatchNo,
			"message", warning.Message,
		)
	}

	if len(warnings) > 0 {
		w.log.Infow("stock warnings computed", "count", len(warnings))
	}
}

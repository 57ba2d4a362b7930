package snapshot

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	corecontext "kardex/internal/core/context"
	"kardex/internal/core/entity"
	"kardex/internal/core/id"
	"kardex/internal/core/tx"
	"kardex/internal/domain/masterdata"
	"kardex/internal/domain/stock"
	"kardex/pkg/logger"
)

// noExpiryDays is the daysToExpiry value handed to custom rules for
// records without an expire date.
const noExpiryDays = math.MaxInt32

// Service materializes snapshots and computes warnings. Strictly
// read-only with respect to the ledger: it never posts entries.
type Service struct {
	snapshots Repository
	stock     *stock.Service
	lookup    masterdata.Lookup
	txManager tx.Manager
	rules     *RuleSet
}

// NewService creates the snapshot and warning service.
func NewService(
	snapshots Repository,
	stockSvc *stock.Service,
	lookup masterdata.Lookup,
	txManager tx.Manager,
	rules *RuleSet,
) *Service {
	return &Service{
		snapshots: snapshots,
		stock:     stockSvc,
		lookup:    lookup,
		txManager: txManager,
		rules:     rules,
	}
}

// Rules exposes the custom warning rule set for registration.
func (s *Service) Rules() *RuleSet {
	return s.rules
}

// Take materializes a snapshot of every stock record, tagged with the
// given date. The header and all record copies commit together.
func (s *Service) Take(ctx context.Context, date time.Time) (*Snapshot, error) {
	records, err := s.stock.List(ctx, stock.RecordFilter{})
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	snap := &Snapshot{
		ID:           id.New(),
		SnapshotDate: date,
		RecordCount:  len(records),
		CreatedBy:    corecontext.OperatorOrSystem(ctx),
		CreatedAt:    time.Now().UTC(),
	}

	copies := make([]entity.StockSnapshotRecord, 0, len(records))
	for _, rec := range records {
		copies = append(copies, entity.StockSnapshotRecord{
			SnapshotID:   snap.ID,
			SnapshotDate: date,
			StockKey:     rec.StockKey,
			Quantity:     rec.Quantity,
			LockQuantity: rec.LockQuantity,
			ExpireDate:   rec.ExpireDate,
			CreatedAt:    snap.CreatedAt,
		})
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.snapshots.CreateSnapshot(ctx, snap, copies)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "snapshot taken",
		"id", snap.ID,
		"date", date.Format("2006-01-02"),
		"records", len(copies))
	return snap, nil
}

// Get returns one snapshot header with its record copies.
func (s *Service) Get(ctx context.Context, snapshotID id.ID) (*Snapshot, []entity.StockSnapshotRecord, error) {
	snap, err := s.snapshots.GetSnapshot(ctx, snapshotID)
	if err != nil {
		return nil, nil, err
	}
	records, err := s.snapshots.GetRecords(ctx, snapshotID)
	if err != nil {
		return nil, nil, fmt.Errorf("get snapshot records: %w", err)
	}
	return snap, records, nil
}

// List returns snapshot headers in a date window.
func (s *Service) List(ctx context.Context, from, to time.Time) ([]Snapshot, error) {
	return s.snapshots.ListSnapshots(ctx, from, to)
}

// WarningFilter narrows warning computation.
type WarningFilter struct {
	WarehouseID *id.ID
	GoodsID     *id.ID
	Types       []WarningType
}

// Warnings computes current stock warnings from live records:
// LOW_STOCK when available drops below the goods' safety stock,
// EXPIRING when a non-empty batch expires within the horizon, plus any
// registered custom rules. Pure view, recomputed on every call.
func (s *Service) Warnings(ctx context.Context, filter WarningFilter) ([]Warning, error) {
	records, err := s.stock.List(ctx, stock.RecordFilter{
		WarehouseID: filter.WarehouseID,
		GoodsID:     filter.GoodsID,
		ExcludeZero: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	wanted := func(t WarningType) bool {
		if len(filter.Types) == 0 {
			return true
		}
		for _, w := range filter.Types {
			if w == t {
				return true
			}
		}
		return false
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	warnings := make([]Warning, 0)

	for _, rec := range records {
		goods, err := s.lookup.Goods(ctx, rec.GoodsID)
		if err != nil {
			return nil, fmt.Errorf("lookup goods %s: %w", rec.GoodsID, err)
		}

		available := rec.Available()
		daysToExpiry := noExpiryDays
		if rec.ExpireDate != nil {
			daysToExpiry = int(rec.ExpireDate.Sub(today).Hours() / 24)
		}

		if wanted(WarningLowStock) && goods.SafetyStock.IsPositive() && available < goods.SafetyStock {
			warnings = append(warnings, Warning{
				Type:        WarningLowStock,
				StockKey:    rec.StockKey,
				Quantity:    rec.Quantity,
				Available:   available,
				SafetyStock: goods.SafetyStock,
				Message: fmt.Sprintf("available %s below safety stock %s",
					available.String(), goods.SafetyStock.String()),
			})
		}

		if wanted(WarningExpiring) && rec.ExpireDate != nil &&
			daysToExpiry <= ExpiryHorizonDays && rec.Quantity.IsPositive() {
			warnings = append(warnings, Warning{
				Type:         WarningExpiring,
				StockKey:     rec.StockKey,
				Quantity:     rec.Quantity,
				Available:    available,
				ExpireDate:   rec.ExpireDate,
				DaysToExpiry: daysToExpiry,
				Message:      fmt.Sprintf("batch expires in %d days", daysToExpiry),
			})
		}

		if wanted(WarningCustom) && s.rules != nil {
			fired, errs := s.rules.Evaluate(map[string]any{
				"quantity":     rec.Quantity.Float64(),
				"lockQuantity": rec.LockQuantity.Float64(),
				"available":    available.Float64(),
				"safetyStock":  goods.SafetyStock.Float64(),
				"daysToExpiry": daysToExpiry,
				"batchNo":      rec.BatchNo,
			})
			for _, e := range errs {
				logger.Warn(ctx, "warning rule evaluation failed",
					"key", rec.StockKey.String(),
					"error", e)
			}
			for _, name := range fired {
				warnings = append(warnings, Warning{
					Type:      WarningCustom,
					Rule:      name,
					StockKey:  rec.StockKey,
					Quantity:  rec.Quantity,
					Available: available,
					Message:   fmt.Sprintf("rule %s matched", name),
				})
			}
		}
	}

	sort.SliceStable(warnings, func(i, j int) bool {
		if warnings[i].Type != warnings[j].Type {
			return warnings[i].Type < warnings[j].Type
		}
		return warnings[i].StockKey.String() < warnings[j].StockKey.String()
	})
	return warnings, nil
}

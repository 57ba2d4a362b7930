package ledger

import (
	"context"
	"fmt"
	"time"

	"kardex/internal/core/entity"
	"kardex/internal/core/types"
)

// Service exposes read-side queries over the inventory log, used by
// reporting and audit/reconciliation tools. Writes happen only through
// the stock record store, never here.
type Service struct {
	repo Repository
}

// NewService creates a new ledger query service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// History returns the mutation history for one stock key.
func (s *Service) History(ctx context.Context, key entity.StockKey, filter EntryFilter) ([]entity.LedgerEntry, error) {
	return s.repo.ListByKey(ctx, key, filter)
}

// OrderPostings returns every entry posted under a business number.
func (s *Service) OrderPostings(ctx context.Context, businessNo string) ([]entity.LedgerEntry, error) {
	return s.repo.ListByBusinessNo(ctx, businessNo)
}

// Window returns entries in [from, to).
func (s *Service) Window(ctx context.Context, from, to time.Time, filter EntryFilter) ([]entity.LedgerEntry, error) {
	if !from.Before(to) {
		return nil, fmt.Errorf("from must be before to")
	}
	return s.repo.ListByTimeWindow(ctx, from, to, filter)
}

// ReconciliationResult reports the outcome of a ledger-vs-record check.
type ReconciliationResult struct {
	Key          entity.StockKey `json:"key"`
	LedgerSum    types.Quantity  `json:"ledgerSum"`
	RecordedQty  types.Quantity  `json:"recordedQuantity"`
	Consistent   bool            `json:"consistent"`
	CheckedAtUTC time.Time       `json:"checkedAt"`
}

// Reconcile verifies that the sum of changes for a key equals the current
// recorded quantity (initial quantity is zero for every key).
func (s *Service) Reconcile(ctx context.Context, key entity.StockKey, recordedQty types.Quantity) (ReconciliationResult, error) {
	sum, err := s.repo.SumChangeByKey(ctx, key)
	if err != nil {
		return ReconciliationResult{}, fmt.Errorf("sum ledger changes: %w", err)
	}
	return ReconciliationResult{
		Key:          key,
		LedgerSum:    sum,
		RecordedQty:  recordedQty,
		Consistent:   sum == recordedQty,
		CheckedAtUTC: time.Now().UTC(),
	}, nil
}

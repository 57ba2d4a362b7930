// Package ledger provides the append-only inventory log.
package ledger

import (
	"context"
	"time"

	"kardex/internal/core/entity"
	"kardex/internal/core/types"
)

// Repository defines operations on the inventory log.
// Append-only: no update or delete is exposed.
type Repository interface {
	// Append inserts one entry. Fails with a conflict if an entry with the
	// same (operation, business_no, line_ref) already exists.
	Append(ctx context.Context, entry *entity.LedgerEntry) error

	// GetByPosting retrieves the entry for an idempotency tuple, or a
	// NotFound error when the tuple has never been posted.
	GetByPosting(ctx context.Context, op entity.OperationType, businessNo, lineRef string) (*entity.LedgerEntry, error)

	// ListByKey returns entries for one stock key, oldest first.
	ListByKey(ctx context.Context, key entity.StockKey, filter EntryFilter) ([]entity.LedgerEntry, error)

	// ListByBusinessNo returns every entry an order posted, oldest first.
	ListByBusinessNo(ctx context.Context, businessNo string) ([]entity.LedgerEntry, error)

	// ListByTimeWindow returns entries in [from, to), oldest first.
	ListByTimeWindow(ctx context.Context, from, to time.Time, filter EntryFilter) ([]entity.LedgerEntry, error)

	// SumChangeByKey sums quantity_change for a key across the whole log.
	// Reconciliation: this must equal the key's current quantity minus its
	// initial (zero) quantity.
	SumChangeByKey(ctx context.Context, key entity.StockKey) (types.Quantity, error)
}

// EntryFilter narrows ledger range queries.
type EntryFilter struct {
	Operations []entity.OperationType
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}

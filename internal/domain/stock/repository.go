// Package stock provides the authoritative stock record store.
package stock

import (
	"context"
	"time"

	"kardex/internal/core/entity"
	"kardex/internal/core/id"
	"kardex/internal/core/types"
)

// Repository defines storage operations for stock records.
//
// GetForUpdate must lock the row (or an equivalent per-key exclusion) for
// the remainder of the enclosing transaction, so that every mutation on a
// key is linearizable with respect to every other mutation on the same
// key while mutations on different keys proceed without mutual blocking.
type Repository interface {
	// Get returns the record for a key, or a zero record if none exists.
	Get(ctx context.Context, key entity.StockKey) (entity.StockRecord, error)

	// GetForUpdate returns the record with a pessimistic per-key lock.
	// Must be called within a transaction.
	GetForUpdate(ctx context.Context, key entity.StockKey) (entity.StockRecord, error)

	// Save upserts a record. The caller holds the key lock.
	Save(ctx context.Context, rec entity.StockRecord) error

	// List returns records matching the filter.
	List(ctx context.Context, filter RecordFilter) ([]entity.StockRecord, error)
}

// RecordFilter narrows stock record queries.
type RecordFilter struct {
	WarehouseID *id.ID
	GoodsID     *id.ID
	LocationID  *id.ID
	BatchNo     *string

	// ExcludeZero drops rows with zero quantity and zero lock
	ExcludeZero bool

	// ExpiringBefore keeps only batches expiring before the given date
	ExpiringBefore *time.Time

	MinQuantity *types.Quantity

	Limit  int
	Offset int
}

package snapshot

import (
	"context"
	"time"

	"kardex/internal/core/entity"
	"kardex/internal/core/id"
)

// Repository defines storage operations for snapshots.
type Repository interface {
	// CreateSnapshot writes the header and all record copies atomically.
	CreateSnapshot(ctx context.Context, snap *Snapshot, records []entity.StockSnapshotRecord) error

	// GetSnapshot returns one snapshot header.
	GetSnapshot(ctx context.Context, snapshotID id.ID) (*Snapshot, error)

	// ListSnapshots returns headers in [from, to), newest first.
	ListSnapshots(ctx context.Context, from, to time.Time) ([]Snapshot, error)

	// GetRecords returns the record copies of one snapshot.
	GetRecords(ctx context.Context, snapshotID id.ID) ([]entity.StockSnapshotRecord, error)

	// LatestBefore returns the most recent snapshot taken before a date,
	// or a NotFound error.
	LatestBefore(ctx context.Context, date time.Time) (*Snapshot, error)
}

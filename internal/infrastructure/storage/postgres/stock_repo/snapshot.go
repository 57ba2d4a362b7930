package stock_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"kardex/internal/core/apperror"
	"kardex/internal/core/entity"
	"kardex/internal/core/id"
	"kardex/internal/domain/snapshot"
	"kardex/internal/infrastructure/storage/postgres"
)

const (
	snapshotTable       = "reg_stock_snapshots"
	snapshotRecordTable = "reg_stock_snapshot_records"
)

// SnapshotRepo implements snapshot.Repository. Record copies go in via
// COPY: a snapshot of a large warehouse writes tens of thousands of rows.
type SnapshotRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ snapshot.Repository = (*SnapshotRepo)(nil)

// NewSnapshotRepo creates a new snapshot repository.
func NewSnapshotRepo(txManager *postgres.TxManager) *SnapshotRepo {
	return &SnapshotRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateSnapshot writes the header and all record copies atomically.
func (r *SnapshotRepo) CreateSnapshot(ctx context.Context, snap *snapshot.Snapshot, records []entity.StockSnapshotRecord) error {
	return r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q := r.builder.Insert(snapshotTable).
			Columns("id", "snapshot_date", "record_count", "created_by", "created_at").
			Values(snap.ID, snap.SnapshotDate, snap.RecordCount, snap.CreatedBy, snap.CreatedAt)

		sql, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}

		querier := r.txManager.GetQuerier(ctx)
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			if postgres.IsUniqueViolation(err) {
				return apperror.NewConflict("snapshot already exists").
					WithDetail("snapshotId", snap.ID.String())
			}
			return fmt.Errorf("insert snapshot: %w", err)
		}

		if len(records) == 0 {
			return nil
		}

		inserter := postgres.NewBatchInserter(r.txManager)
		columns := []string{
			"snapshot_id", "snapshot_date",
			"warehouse_id", "goods_id", "location_id", "batch_no",
			"quantity", "lock_quantity", "expire_date", "created_at",
		}
		rows := make([][]any, 0, len(records))
		for _, rec := range records {
			rows = append(rows, []any{
				rec.SnapshotID, rec.SnapshotDate,
				rec.WarehouseID, rec.GoodsID, rec.LocationID, rec.BatchNo,
				rec.Quantity, rec.LockQuantity, rec.ExpireDate, rec.CreatedAt,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, snapshotRecordTable, columns, rows); err != nil {
			return fmt.Errorf("copy snapshot records: %w", err)
		}

		return nil
	})
}

// GetSnapshot returns one snapshot header.
func (r *SnapshotRepo) GetSnapshot(ctx context.Context, snapshotID id.ID) (*snapshot.Snapshot, error) {
	q := r.builder.Select("id", "snapshot_date", "record_count", "created_by", "created_at").
		From(snapshotTable).
		Where(squirrel.Eq{"id": snapshotID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var snap snapshot.Snapshot
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &snap, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("snapshot", snapshotID.String())
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	return &snap, nil
}

// ListSnapshots returns headers in [from, to), newest first.
func (r *SnapshotRepo) ListSnapshots(ctx context.Context, from, to time.Time) ([]snapshot.Snapshot, error) {
	q := r.builder.Select("id", "snapshot_date", "record_count", "created_by", "created_at").
		From(snapshotTable).
		Where(squirrel.GtOrEq{"snapshot_date": from}).
		Where(squirrel.Lt{"snapshot_date": to}).
		OrderBy("snapshot_date DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var snaps []snapshot.Snapshot
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &snaps, sql, args...); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	return snaps, nil
}

// GetRecords returns the record copies of one snapshot.
func (r *SnapshotRepo) GetRecords(ctx context.Context, snapshotID id.ID) ([]entity.StockSnapshotRecord, error) {
	q := r.builder.Select(
		"snapshot_id", "snapshot_date",
		"warehouse_id", "goods_id", "location_id", "batch_no",
		"quantity", "lock_quantity", "expire_date", "created_at",
	).From(snapshotRecordTable).
		Where(squirrel.Eq{"snapshot_id": snapshotID}).
		OrderBy("warehouse_id", "goods_id", "location_id", "batch_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var records []entity.StockSnapshotRecord
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &records, sql, args...); err != nil {
		return nil, fmt.Errorf("get snapshot records: %w", err)
	}

	return records, nil
}

// LatestBefore returns the most recent snapshot taken before a date.
func (r *SnapshotRepo) LatestBefore(ctx context.Context, date time.Time) (*snapshot.Snapshot, error) {
	q := r.builder.Select("id", "snapshot_date", "record_count", "created_by", "created_at").
		From(snapshotTable).
		Where(squirrel.Lt{"snapshot_date": date}).
		OrderBy("snapshot_date DESC").
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var snap snapshot.Snapshot
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &snap, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("snapshot", date.Format("2006-01-02"))
		}
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}

	return &snap, nil
}

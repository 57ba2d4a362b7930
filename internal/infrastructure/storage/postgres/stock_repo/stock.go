// Package stock_repo provides PostgreSQL implementations for the stock
// record store and the inventory log.
package stock_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"kardex/internal/core/apperror"
	"kardex/internal/core/entity"
	"kardex/internal/domain/stock"
	"kardex/internal/infrastructure/storage/postgres"
)

const stockTable = "reg_stock"

// StockRepo implements stock.Repository on the reg_stock table.
// One row per (warehouse, goods, location, batch); rows are never
// physically deleted, zero-quantity rows stay for audit continuity.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
	columns   []string
}

var _ stock.Repository = (*StockRepo)(nil)

// NewStockRepo creates a new stock record repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		columns:   postgres.ExtractDBColumns[entity.StockRecord](),
	}
}

func keyEq(key entity.StockKey) squirrel.Eq {
	return squirrel.Eq{
		"warehouse_id": key.WarehouseID,
		"goods_id":     key.GoodsID,
		"location_id":  key.LocationID,
		"batch_no":     key.BatchNo,
	}
}

// Get returns the record for a key, or a zero record if none exists.
func (r *StockRepo) Get(ctx context.Context, key entity.StockKey) (entity.StockRecord, error) {
	q := r.builder.Select(r.columns...).
		From(stockTable).
		Where(keyEq(key))

	sql, args, err := q.ToSql()
	if err != nil {
		return entity.StockRecord{}, fmt.Errorf("build query: %w", err)
	}

	var rec entity.StockRecord
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &rec, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity.StockRecord{StockKey: key}, nil
		}
		return entity.StockRecord{}, fmt.Errorf("get stock record: %w", err)
	}

	return rec, nil
}

// GetForUpdate returns the record with a row lock held until the
// enclosing transaction ends. For a key that has never been posted the
// row is seeded first (ON CONFLICT DO NOTHING), so that concurrent
// first postings on the same key serialize on the row lock too.
func (r *StockRepo) GetForUpdate(ctx context.Context, key entity.StockKey) (entity.StockRecord, error) {
	if r.txManager.GetTx(ctx) == nil {
		return entity.StockRecord{}, apperror.NewInternal(nil).
			WithDetail("reason", "GetForUpdate requires an enclosing transaction")
	}

	seed := r.builder.Insert(stockTable).
		Columns("warehouse_id", "goods_id", "location_id", "batch_no",
			"quantity", "lock_quantity",
			"created_at", "created_by", "updated_at", "updated_by",
			"deletion_mark", "version").
		Values(key.WarehouseID, key.GoodsID, key.LocationID, key.BatchNo,
			0, 0,
			squirrel.Expr("NOW()"), "", squirrel.Expr("NOW()"), "",
			false, 0).
		Suffix("ON CONFLICT (warehouse_id, goods_id, location_id, batch_no) DO NOTHING")

	sql, args, err := seed.ToSql()
	if err != nil {
		return entity.StockRecord{}, fmt.Errorf("build seed: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return entity.StockRecord{}, fmt.Errorf("seed stock record: %w", err)
	}

	q := r.builder.Select(r.columns...).
		From(stockTable).
		Where(keyEq(key)).
		Suffix("FOR UPDATE")

	sql, args, err = q.ToSql()
	if err != nil {
		return entity.StockRecord{}, fmt.Errorf("build query: %w", err)
	}

	var rec entity.StockRecord
	if err := pgxscan.Get(ctx, querier, &rec, sql, args...); err != nil {
		return entity.StockRecord{}, fmt.Errorf("get stock record for update: %w", err)
	}

	return rec, nil
}

// Save upserts a record. The caller holds the key lock.
func (r *StockRepo) Save(ctx context.Context, rec entity.StockRecord) error {
	data := postgres.StructToMap(rec)

	q := r.builder.Insert(stockTable).
		SetMap(data).
		Suffix(`ON CONFLICT (warehouse_id, goods_id, location_id, batch_no) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			lock_quantity = EXCLUDED.lock_quantity,
			expire_date = EXCLUDED.expire_date,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by,
			version = EXCLUDED.version`)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("save stock record: %w", err)
	}

	return nil
}

// List returns records matching the filter, ordered by key.
func (r *StockRepo) List(ctx context.Context, filter stock.RecordFilter) ([]entity.StockRecord, error) {
	q := r.builder.Select(r.columns...).
		From(stockTable).
		OrderBy("warehouse_id", "goods_id", "location_id", "batch_no")

	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.GoodsID != nil {
		q = q.Where(squirrel.Eq{"goods_id": *filter.GoodsID})
	}
	if filter.LocationID != nil {
		q = q.Where(squirrel.Eq{"location_id": *filter.LocationID})
	}
	if filter.BatchNo != nil {
		q = q.Where(squirrel.Eq{"batch_no": *filter.BatchNo})
	}
	if filter.ExcludeZero {
		q = q.Where("(quantity <> 0 OR lock_quantity <> 0)")
	}
	if filter.ExpiringBefore != nil {
		q = q.Where(squirrel.Lt{"expire_date": *filter.ExpiringBefore})
	}
	if filter.MinQuantity != nil {
		q = q.Where(squirrel.GtOrEq{"quantity": *filter.MinQuantity})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var records []entity.StockRecord
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &records, sql, args...); err != nil {
		return nil, fmt.Errorf("list stock records: %w", err)
	}

	return records, nil
}

// Package report_repo provides PostgreSQL implementations for reporting
// queries. Reports aggregate in the database: the ledger can hold
// millions of entries and only the grouped rows travel to the client.
package report_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"kardex/internal/domain/reports"
	"kardex/internal/infrastructure/storage/postgres"
)

const (
	ledgerTable = "reg_stock_ledger"
	stockTable  = "reg_stock"
)

// ReportRepo implements reports.Repository with grouped SQL aggregates.
type ReportRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ reports.Repository = (*ReportRepo)(nil)

// NewReportRepo creates a new report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetInOutSummary aggregates ledger movement per (warehouse, goods) over
// a date window. Outbound and move-out sums are reported as positive
// magnitudes; net change stays signed.
func (r *ReportRepo) GetInOutSummary(ctx context.Context, filter reports.InOutFilter) (*reports.InOutReport, error) {
	q := r.builder.Select(
		"warehouse_id",
		"goods_id",
		"COALESCE(SUM(quantity_change) FILTER (WHERE operation = 'INBOUND'), 0) AS inbound_quantity",
		"COALESCE(SUM(ABS(quantity_change)) FILTER (WHERE operation = 'OUTBOUND'), 0) AS outbound_quantity",
		"COALESCE(SUM(quantity_change) FILTER (WHERE operation = 'MOVE_IN'), 0) AS move_in_quantity",
		"COALESCE(SUM(ABS(quantity_change)) FILTER (WHERE operation = 'MOVE_OUT'), 0) AS move_out_quantity",
		"COALESCE(SUM(quantity_change) FILTER (WHERE operation = 'TAKING_ADJUST'), 0) AS adjust_quantity",
		"COALESCE(SUM(quantity_change), 0) AS net_change",
		"COUNT(*) AS entry_count",
	).From(ledgerTable).
		Where(squirrel.GtOrEq{"created_at": filter.FromDate}).
		Where(squirrel.Lt{"created_at": filter.ToDate}).
		GroupBy("warehouse_id", "goods_id")

	if len(filter.WarehouseIDs) > 0 {
		q = q.Where(squirrel.Eq{"warehouse_id": filter.WarehouseIDs})
	}
	if len(filter.GoodsIDs) > 0 {
		q = q.Where(squirrel.Eq{"goods_id": filter.GoodsIDs})
	}

	total, err := r.countGroups(ctx, q)
	if err != nil {
		return nil, err
	}

	q = q.OrderBy("warehouse_id", "goods_id")
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

	var rows []reports.InOutRow
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("in/out summary: %w", err)
	}

	return &reports.InOutReport{
		FromDate:  filter.FromDate,
		ToDate:    filter.ToDate,
		Rows:      rows,
		TotalRows: total,
	}, nil
}

// GetInventorySummary aggregates current stock per (warehouse, goods),
// summed over locations and batches.
func (r *ReportRepo) GetInventorySummary(ctx context.Context, filter reports.InventoryFilter) (*reports.InventoryReport, error) {
	q := r.builder.Select(
		"warehouse_id",
		"goods_id",
		"COALESCE(SUM(quantity), 0) AS quantity",
		"COALESCE(SUM(lock_quantity), 0) AS lock_quantity",
		"COALESCE(SUM(quantity - lock_quantity), 0) AS available",
		"COUNT(DISTINCT batch_no) AS batch_count",
		"COUNT(DISTINCT location_id) AS location_count",
	).From(stockTable).
		GroupBy("warehouse_id", "goods_id")

	if filter.ExcludeZero {
		q = q.Where("(quantity <> 0 OR lock_quantity <> 0)")
	}
	if len(filter.WarehouseIDs) > 0 {
		q = q.Where(squirrel.Eq{"warehouse_id": filter.WarehouseIDs})
	}
	if len(filter.GoodsIDs) > 0 {
		q = q.Where(squirrel.Eq{"goods_id": filter.GoodsIDs})
	}

	total, err := r.countGroups(ctx, q)
	if err != nil {
		return nil, err
	}

	q = q.OrderBy("warehouse_id", "goods_id")
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

	var rows []reports.InventoryRow
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("inventory summary: %w", err)
	}

	return &reports.InventoryReport{
		Rows:      rows,
		TotalRows: total,
	}, nil
}

// countGroups counts grouped rows before pagination.
func (r *ReportRepo) countGroups(ctx context.Context, q squirrel.SelectBuilder) (int64, error) {
	countQ := r.builder.Select("COUNT(*)").FromSelect(q, "sub")

	sql, args, err := countQ.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var total int64
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count groups: %w", err)
	}

	return total, nil
}

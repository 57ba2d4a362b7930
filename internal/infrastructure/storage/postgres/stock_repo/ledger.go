package stock_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"kardex/internal/core/apperror"
	"kardex/internal/core/entity"
	"kardex/internal/core/types"
	"kardex/internal/domain/ledger"
	"kardex/internal/infrastructure/storage/postgres"
)

const ledgerTable = "reg_stock_ledger"

// LedgerRepo implements ledger.Repository on the reg_stock_ledger table.
// Append-only: the table carries a unique index on
// (operation, business_no, line_ref) which enforces posting idempotency
// at the storage level.
type LedgerRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
	columns   []string
}

var _ ledger.Repository = (*LedgerRepo)(nil)

// NewLedgerRepo creates a new inventory log repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		columns:   postgres.ExtractDBColumns[entity.LedgerEntry](),
	}
}

// Append inserts one entry. A second insert with the same
// (operation, business_no, line_ref) fails with a duplicate posting error.
func (r *LedgerRepo) Append(ctx context.Context, entry *entity.LedgerEntry) error {
	q := r.builder.Insert(ledgerTable).
		SetMap(postgres.StructToMap(*entry))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicatePosting(string(entry.Operation), entry.BusinessNo, entry.LineRef)
		}
		return fmt.Errorf("append ledger entry: %w", err)
	}

	return nil
}

// GetByPosting retrieves the entry for an idempotency tuple.
func (r *LedgerRepo) GetByPosting(ctx context.Context, op entity.OperationType, businessNo, lineRef string) (*entity.LedgerEntry, error) {
	q := r.builder.Select(r.columns...).
		From(ledgerTable).
		Where(squirrel.Eq{
			"operation":   op,
			"business_no": businessNo,
			"line_ref":    lineRef,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entry entity.LedgerEntry
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &entry, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("ledger entry", businessNo)
		}
		return nil, fmt.Errorf("get ledger entry: %w", err)
	}

	return &entry, nil
}

// ListByKey returns entries for one stock key, oldest first.
func (r *LedgerRepo) ListByKey(ctx context.Context, key entity.StockKey, filter ledger.EntryFilter) ([]entity.LedgerEntry, error) {
	q := r.builder.Select(r.columns...).
		From(ledgerTable).
		Where(keyEq(key)).
		OrderBy("created_at", "entry_id")

	q = r.applyFilter(q, filter)

	return r.selectEntries(ctx, q)
}

// ListByBusinessNo returns every entry an order posted, oldest first.
func (r *LedgerRepo) ListByBusinessNo(ctx context.Context, businessNo string) ([]entity.LedgerEntry, error) {
	q := r.builder.Select(r.columns...).
		From(ledgerTable).
		Where(squirrel.Eq{"business_no": businessNo}).
		OrderBy("created_at", "entry_id")

	return r.selectEntries(ctx, q)
}

// ListByTimeWindow returns entries in [from, to), oldest first.
func (r *LedgerRepo) ListByTimeWindow(ctx context.Context, from, to time.Time, filter ledger.EntryFilter) ([]entity.LedgerEntry, error) {
	q := r.builder.Select(r.columns...).
		From(ledgerTable).
		Where(squirrel.GtOrEq{"created_at": from}).
		Where(squirrel.Lt{"created_at": to}).
		OrderBy("created_at", "entry_id")

	q = r.applyFilter(q, filter)

	return r.selectEntries(ctx, q)
}

// SumChangeByKey sums quantity_change for a key across the whole log.
func (r *LedgerRepo) SumChangeByKey(ctx context.Context, key entity.StockKey) (types.Quantity, error) {
	q := r.builder.Select("COALESCE(SUM(quantity_change), 0)").
		From(ledgerTable).
		Where(keyEq(key))

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var sum int64
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum ledger changes: %w", err)
	}

	return types.NewQuantityFromInt64Scaled(sum), nil
}

func (r *LedgerRepo) applyFilter(q squirrel.SelectBuilder, filter ledger.EntryFilter) squirrel.SelectBuilder {
	if len(filter.Operations) > 0 {
		q = q.Where(squirrel.Eq{"operation": filter.Operations})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.Lt{"created_at": *filter.ToDate})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return q
}

func (r *LedgerRepo) selectEntries(ctx context.Context, q squirrel.SelectBuilder) ([]entity.LedgerEntry, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []entity.LedgerEntry
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select ledger entries: %w", err)
	}

	return entries, nil
}

// Package order_repo provides PostgreSQL implementations for workflow
// order repositories. Headers live in one table per workflow, table
// parts (items, lines, tasks) in a companion table keyed by order_id.
package order_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
	"kardex/internal/domain"
	"kardex/internal/infrastructure/storage/postgres"
)

// baseOrderRepo provides common CRUD for one workflow order type.
// H is the header entity, I the table-part row.
type baseOrderRepo[H any, I any] struct {
	txManager  *postgres.TxManager
	builder    squirrel.StatementBuilderType
	entityName string
	table      string
	itemsTable string
	headerCols []string
	itemCols   []string
}

func newBaseOrderRepo[H any, I any](txManager *postgres.TxManager, entityName, table, itemsTable string) baseOrderRepo[H, I] {
	return baseOrderRepo[H, I]{
		txManager:  txManager,
		builder:    squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		entityName: entityName,
		table:      table,
		itemsTable: itemsTable,
		headerCols: postgres.ExtractDBColumns[H](),
		itemCols:   postgres.ExtractDBColumns[I](),
	}
}

// create inserts a new order header.
func (r *baseOrderRepo[H, I]) create(ctx context.Context, header *H) error {
	data := postgres.StructToMap(header)

	q := r.builder.Insert(r.table).SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewConflict(r.entityName + " already exists").
				WithDetail("constraint", postgres.ConstraintName(err))
		}
		return fmt.Errorf("insert %s: %w", r.table, err)
	}

	return nil
}

// update rewrites a header with optimistic locking on version.
// The stored version must match header.Version - 1: services call
// Audit.Touch before saving, which already incremented it.
func (r *baseOrderRepo[H, I]) update(ctx context.Context, header *H) error {
	data := postgres.StructToMap(header)

	entityID, ok := data["id"]
	if !ok {
		return fmt.Errorf("entity has no 'id' field")
	}
	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("entity has no 'version' field or it is not an int")
	}

	filtered := make(map[string]any, len(data))
	for col, val := range data {
		if col == "id" || col == "created_at" || col == "created_by" {
			continue
		}
		filtered[col] = val
	}

	q := r.builder.Update(r.table).
		SetMap(filtered).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"version": version - 1})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.table, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.entityName, entityID)
	}

	return nil
}

// softDelete marks an order deleted; the row and its items stay.
func (r *baseOrderRepo[H, I]) softDelete(ctx context.Context, orderID id.ID) error {
	q := r.builder.Update(r.table).
		Set("deletion_mark", true).
		Set("updated_at", squirrel.Expr("NOW()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": orderID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.table, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entityName, orderID.String())
	}

	return nil
}

func (r *baseOrderRepo[H, I]) baseSelect() squirrel.SelectBuilder {
	return r.builder.Select(r.headerCols...).From(r.table)
}

// getByID retrieves one order header.
func (r *baseOrderRepo[H, I]) getByID(ctx context.Context, orderID id.ID) (*H, error) {
	return r.getOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": orderID}), orderID.String())
}

// getByNumber retrieves one order header by business number.
func (r *baseOrderRepo[H, I]) getByNumber(ctx context.Context, number string) (*H, error) {
	return r.getOne(ctx, r.baseSelect().Where(squirrel.Eq{"number": number}), number)
}

// getForUpdate retrieves a header with a row lock.
// Must run within a transaction.
func (r *baseOrderRepo[H, I]) getForUpdate(ctx context.Context, orderID id.ID) (*H, error) {
	if r.txManager.GetTx(ctx) == nil {
		return nil, apperror.NewInternal(nil).
			WithDetail("reason", "GetForUpdate requires an enclosing transaction")
	}

	q := r.baseSelect().
		Where(squirrel.Eq{"id": orderID}).
		Suffix("FOR UPDATE")

	return r.getOne(ctx, q, orderID.String())
}

func (r *baseOrderRepo[H, I]) getOne(ctx context.Context, q squirrel.SelectBuilder, ref string) (*H, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var header H
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &header, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(r.entityName, ref)
		}
		return nil, fmt.Errorf("get %s: %w", r.table, err)
	}

	return &header, nil
}

// getItems returns the table part of one order, in line order.
func (r *baseOrderRepo[H, I]) getItems(ctx context.Context, orderID id.ID, orderBy string) ([]I, error) {
	q := r.builder.Select(r.itemCols...).
		From(r.itemsTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy(orderBy)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []I
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", r.itemsTable, err)
	}

	return items, nil
}

// saveItems rewrites the whole table part: delete then re-insert.
// Table parts are small (tens of lines), so a wholesale rewrite is
// simpler and safer than per-line diffing.
func (r *baseOrderRepo[H, I]) saveItems(ctx context.Context, orderID id.ID, items []I) error {
	del := r.builder.Delete(r.itemsTable).
		Where(squirrel.Eq{"order_id": orderID})

	sql, args, err := del.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete %s: %w", r.itemsTable, err)
	}

	if len(items) == 0 {
		return nil
	}

	ins := r.builder.Insert(r.itemsTable).
		Columns(append([]string{"order_id"}, r.itemCols...)...)
	for i := range items {
		data := postgres.StructToMap(items[i])
		row := make([]any, 0, len(r.itemCols)+1)
		row = append(row, orderID)
		for _, col := range r.itemCols {
			row = append(row, data[col])
		}
		ins = ins.Values(row...)
	}

	sql, args, err = ins.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.itemsTable, err)
	}

	return nil
}

// list applies common filtering, count, ordering and pagination to a
// prepared select. Workflow repos add their own WHERE clauses first.
func (r *baseOrderRepo[H, I]) list(ctx context.Context, q squirrel.SelectBuilder, filter domain.ListFilter) (domain.ListResult[*H], error) {
	result := domain.ListResult[*H]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"number": "%" + filter.Search + "%"})
	}
	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}

	countQ := r.builder.Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list %s: %w", r.table, err)
	}

	return result, nil
}

func (r *baseOrderRepo[H, I]) parseOrderBy(orderBy string) (string, error) {
	if strings.TrimSpace(orderBy) == "" {
		return "created_at DESC", nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	if field == "" {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
	}

	allowed := false
	for _, col := range r.headerCols {
		if col == field {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", apperror.NewValidation("invalid orderBy").
			WithDetail("orderBy", orderBy).
			WithDetail("field", field)
	}

	return field + " " + direction, nil
}

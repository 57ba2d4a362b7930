package order_repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"kardex/internal/core/id"
	"kardex/internal/domain"
	"kardex/internal/domain/workflows/picking"
	"kardex/internal/infrastructure/storage/postgres"
)

const (
	waveTable       = "doc_picking_waves"
	waveOrdersTable = "doc_wave_orders"
	waveTasksTable  = "doc_wave_tasks"
)

// WaveRepo implements picking.Repository. Membership lives in
// doc_wave_orders (ordered by position), tasks in doc_wave_tasks with
// their allocations as a jsonb column: allocations are only ever read
// and written together with their task.
type WaveRepo struct {
	baseOrderRepo[picking.Wave, picking.Task]
}

var _ picking.Repository = (*WaveRepo)(nil)

// NewWaveRepo creates a new picking wave repository.
func NewWaveRepo(txManager *postgres.TxManager) *WaveRepo {
	return &WaveRepo{
		baseOrderRepo: newBaseOrderRepo[picking.Wave, picking.Task](
			txManager, "picking wave", waveTable, waveTasksTable),
	}
}

func (r *WaveRepo) Create(ctx context.Context, wave *picking.Wave) error {
	return r.create(ctx, wave)
}

func (r *WaveRepo) GetByID(ctx context.Context, waveID id.ID) (*picking.Wave, error) {
	return r.getByID(ctx, waveID)
}

func (r *WaveRepo) GetByNumber(ctx context.Context, number string) (*picking.Wave, error) {
	return r.getByNumber(ctx, number)
}

func (r *WaveRepo) Update(ctx context.Context, wave *picking.Wave) error {
	return r.update(ctx, wave)
}

func (r *WaveRepo) Delete(ctx context.Context, waveID id.ID) error {
	return r.softDelete(ctx, waveID)
}

// SaveOrderIDs rewrites the wave membership, preserving order.
func (r *WaveRepo) SaveOrderIDs(ctx context.Context, waveID id.ID, orderIDs []id.ID) error {
	del := r.builder.Delete(waveOrdersTable).
		Where(squirrel.Eq{"wave_id": waveID})

	sql, args, err := del.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete wave orders: %w", err)
	}

	if len(orderIDs) == 0 {
		return nil
	}

	ins := r.builder.Insert(waveOrdersTable).
		Columns("wave_id", "order_id", "position")
	for i, orderID := range orderIDs {
		ins = ins.Values(waveID, orderID, i)
	}

	sql, args, err = ins.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert wave orders: %w", err)
	}

	return nil
}

// GetOrderIDs returns member order IDs in attachment order.
func (r *WaveRepo) GetOrderIDs(ctx context.Context, waveID id.ID) ([]id.ID, error) {
	q := r.builder.Select("order_id").
		From(waveOrdersTable).
		Where(squirrel.Eq{"wave_id": waveID}).
		OrderBy("position")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var orderIDs []id.ID
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &orderIDs, sql, args...); err != nil {
		return nil, fmt.Errorf("select wave orders: %w", err)
	}

	return orderIDs, nil
}

// SaveTasks rewrites the wave's task list.
func (r *WaveRepo) SaveTasks(ctx context.Context, waveID id.ID, tasks []picking.Task) error {
	del := r.builder.Delete(waveTasksTable).
		Where(squirrel.Eq{"wave_id": waveID})

	sql, args, err := del.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete wave tasks: %w", err)
	}

	if len(tasks) == 0 {
		return nil
	}

	ins := r.builder.Insert(waveTasksTable).
		Columns("wave_id", "task_id", "task_no",
			"goods_id", "location_id", "batch_no",
			"required_quantity", "picked_quantity", "status", "allocations")
	for i := range tasks {
		t := &tasks[i]
		allocations, err := json.Marshal(t.Allocations)
		if err != nil {
			return fmt.Errorf("marshal allocations: %w", err)
		}
		ins = ins.Values(waveID, t.TaskID, t.TaskNo,
			t.GoodsID, t.LocationID, t.BatchNo,
			t.RequiredQuantity, t.PickedQuantity, t.Status, allocations)
	}

	sql, args, err = ins.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert wave tasks: %w", err)
	}

	return nil
}

// GetTasks returns the wave's tasks in generation order.
func (r *WaveRepo) GetTasks(ctx context.Context, waveID id.ID) ([]picking.Task, error) {
	q := r.builder.Select("task_id", "task_no",
		"goods_id", "location_id", "batch_no",
		"required_quantity", "picked_quantity", "status", "allocations").
		From(waveTasksTable).
		Where(squirrel.Eq{"wave_id": waveID}).
		OrderBy("task_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	rows, err := querier.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select wave tasks: %w", err)
	}
	defer rows.Close()

	var tasks []picking.Task
	for rows.Next() {
		var t picking.Task
		var allocations []byte
		err := rows.Scan(&t.TaskID, &t.TaskNo,
			&t.GoodsID, &t.LocationID, &t.BatchNo,
			&t.RequiredQuantity, &t.PickedQuantity, &t.Status, &allocations)
		if err != nil {
			return nil, fmt.Errorf("scan wave task: %w", err)
		}
		if len(allocations) > 0 {
			if err := json.Unmarshal(allocations, &t.Allocations); err != nil {
				return nil, fmt.Errorf("unmarshal allocations: %w", err)
			}
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

func (r *WaveRepo) List(ctx context.Context, filter picking.ListFilter) (domain.ListResult[*picking.Wave], error) {
	q := r.baseSelect()

	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.Lt{"date": *filter.DateTo})
	}

	return r.list(ctx, q, filter.ListFilter)
}

func (r *WaveRepo) GetForUpdate(ctx context.Context, waveID id.ID) (*picking.Wave, error) {
	return r.getForUpdate(ctx, waveID)
}

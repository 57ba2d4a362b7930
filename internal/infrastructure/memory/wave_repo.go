package memory

import (
	"context"
	"sort"

	"kardex/internal/core/id"
	"kardex/internal/domain"
	"kardex/internal/domain/workflows/picking"
)

const waveEntity = "picking wave"

// waveRepo implements picking.Repository on the embedded store.
type waveRepo struct {
	s *Store
}

// WaveRepository returns the picking wave repository.
func (s *Store) WaveRepository() picking.Repository {
	return &waveRepo{s: s}
}

func (r *waveRepo) Create(ctx context.Context, wave *picking.Wave) error {
	return r.s.write(ctx, func(t *memTx) error {
		return r.s.waves.create(t, waveEntity, *wave)
	})
}

func (r *waveRepo) GetByID(ctx context.Context, waveID id.ID) (*picking.Wave, error) {
	var wave *picking.Wave
	err := r.s.read(ctx, func() error {
		var err error
		wave, err = r.s.waves.get(waveEntity, waveID)
		return err
	})
	return wave, err
}

func (r *waveRepo) GetByNumber(ctx context.Context, number string) (*picking.Wave, error) {
	var wave *picking.Wave
	err := r.s.read(ctx, func() error {
		var err error
		wave, err = r.s.waves.getByNumber(waveEntity, number)
		return err
	})
	return wave, err
}

func (r *waveRepo) Update(ctx context.Context, wave *picking.Wave) error {
	return r.s.write(ctx, func(t *memTx) error {
		return r.s.waves.update(t, waveEntity, *wave)
	})
}

func (r *waveRepo) Delete(ctx context.Context, waveID id.ID) error {
	return r.s.write(ctx, func(t *memTx) error {
		if err := r.s.waves.remove(t, waveEntity, waveID); err != nil {
			return err
		}

		prev, existed := r.s.waveOrders[waveID]
		delete(r.s.waveOrders, waveID)
		t.register(func() {
			if existed {
				r.s.waveOrders[waveID] = prev
			}
		})
		return nil
	})
}

func (r *waveRepo) SaveOrderIDs(ctx context.Context, waveID id.ID, orderIDs []id.ID) error {
	return r.s.write(ctx, func(t *memTx) error {
		prev, existed := r.s.waveOrders[waveID]
		copies := make([]id.ID, len(orderIDs))
		copy(copies, orderIDs)

		r.s.waveOrders[waveID] = copies
		t.register(func() {
			if existed {
				r.s.waveOrders[waveID] = prev
			} else {
				delete(r.s.waveOrders, waveID)
			}
		})
		return nil
	})
}

func (r *waveRepo) GetOrderIDs(ctx context.Context, waveID id.ID) ([]id.ID, error) {
	var out []id.ID
	err := r.s.read(ctx, func() error {
		ids := r.s.waveOrders[waveID]
		out = make([]id.ID, len(ids))
		copy(out, ids)
		return nil
	})
	return out, err
}

func (r *waveRepo) SaveTasks(ctx context.Context, waveID id.ID, tasks []picking.Task) error {
	return r.s.write(ctx, func(t *memTx) error {
		r.s.waves.saveItems(t, waveID, cloneTasks(tasks))
		return nil
	})
}

func (r *waveRepo) GetTasks(ctx context.Context, waveID id.ID) ([]picking.Task, error) {
	var tasks []picking.Task
	err := r.s.read(ctx, func() error {
		tasks = cloneTasks(r.s.waves.getItems(waveID))
		return nil
	})
	return tasks, err
}

// cloneTasks deep-copies the allocation slices so stored tasks never
// alias a caller's memory.
func cloneTasks(tasks []picking.Task) []picking.Task {
	out := make([]picking.Task, len(tasks))
	copy(out, tasks)
	for i := range out {
		allocs := make([]picking.Allocation, len(out[i].Allocations))
		copy(allocs, out[i].Allocations)
		out[i].Allocations = allocs
	}
	return out
}

func (r *waveRepo) List(ctx context.Context, filter picking.ListFilter) (domain.ListResult[*picking.Wave], error) {
	var matched []*picking.Wave
	err := r.s.read(ctx, func() error {
		matched = r.s.waves.list(func(w *picking.Wave) bool {
			if filter.WarehouseID != nil && w.WarehouseID != *filter.WarehouseID {
				return false
			}
			if filter.Status != nil && w.Status != *filter.Status {
				return false
			}
			if filter.DateFrom != nil && w.Date.Before(*filter.DateFrom) {
				return false
			}
			if filter.DateTo != nil && !w.Date.Before(*filter.DateTo) {
				return false
			}
			if !filter.IncludeDeleted && w.DeletionMark {
				return false
			}
			return true
		})
		return nil
	})
	if err != nil {
		return domain.ListResult[*picking.Wave]{}, err
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	page := paginate(matched, filter.Limit, filter.Offset)
	return domain.ListResult[*picking.Wave]{
		Items:      page,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

func (r *waveRepo) GetForUpdate(ctx context.Context, waveID id.ID) (*picking.Wave, error) {
	if _, err := r.s.currentTx(ctx); err != nil {
		return nil, err
	}
	return r.s.waves.get(waveEntity, waveID)
}

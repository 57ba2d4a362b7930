package memory

import (
	"context"
	"sort"

	"kardex/internal/core/id"
	"kardex/internal/domain"
	"kardex/internal/domain/workflows/stocktaking"
)

const takingEntity = "taking plan"

// takingRepo implements stocktaking.Repository on the embedded store.
type takingRepo struct {
	s *Store
}

// TakingRepository returns the taking plan repository.
func (s *Store) TakingRepository() stocktaking.Repository {
	return &takingRepo{s: s}
}

func (r *takingRepo) Create(ctx context.Context, plan *stocktaking.Plan) error {
	return r.s.write(ctx, func(t *memTx) error {
		return r.s.takings.create(t, takingEntity, *plan)
	})
}

func (r *takingRepo) GetByID(ctx context.Context, planID id.ID) (*stocktaking.Plan, error) {
	var plan *stocktaking.Plan
	err := r.s.read(ctx, func() error {
		var err error
		plan, err = r.s.takings.get(takingEntity, planID)
		return err
	})
	return plan, err
}

func (r *takingRepo) GetByNumber(ctx context.Context, number string) (*stocktaking.Plan, error) {
	var plan *stocktaking.Plan
	err := r.s.read(ctx, func() error {
		var err error
		plan, err = r.s.takings.getByNumber(takingEntity, number)
		return err
	})
	return plan, err
}

func (r *takingRepo) Update(ctx context.Context, plan *stocktaking.Plan) error {
	return r.s.write(ctx, func(t *memTx) error {
		return r.s.takings.update(t, takingEntity, *plan)
	})
}

func (r *takingRepo) Delete(ctx context.Context, planID id.ID) error {
	return r.s.write(ctx, func(t *memTx) error {
		return r.s.takings.remove(t, takingEntity, planID)
	})
}

func (r *takingRepo) GetLines(ctx context.Context, planID id.ID) ([]stocktaking.Line, error) {
	var lines []stocktaking.Line
	err := r.s.read(ctx, func() error {
		lines = r.s.takings.getItems(planID)
		return nil
	})
	return lines, err
}

func (r *takingRepo) SaveLines(ctx context.Context, planID id.ID, lines []stocktaking.Line) error {
	return r.s.write(ctx, func(t *memTx) error {
		r.s.takings.saveItems(t, planID, lines)
		return nil
	})
}

func (r *takingRepo) List(ctx context.Context, filter stocktaking.ListFilter) (domain.ListResult[*stocktaking.Plan], error) {
	var matched []*stocktaking.Plan
	err := r.s.read(ctx, func() error {
		matched = r.s.takings.list(func(p *stocktaking.Plan) bool {
			if filter.WarehouseID != nil && p.WarehouseID != *filter.WarehouseID {
				return false
			}
			if filter.Status != nil && p.Status != *filter.Status {
				return false
			}
			if filter.DateFrom != nil && p.Date.Before(*filter.DateFrom) {
				return false
			}
			if filter.DateTo != nil && !p.Date.Before(*filter.DateTo) {
				return false
			}
			if !filter.IncludeDeleted && p.DeletionMark {
				return false
			}
			return true
		})
		return nil
	})
	if err != nil {
		return domain.ListResult[*stocktaking.Plan]{}, err
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	page := paginate(matched, filter.Limit, filter.Offset)
	return domain.ListResult[*stocktaking.Plan]{
		Items:      page,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

func (r *takingRepo) GetForUpdate(ctx context.Context, planID id.ID) (*stocktaking.Plan, error) {
	if _, err := r.s.currentTx(ctx); err != nil {
		return nil, err
	}
	return r.s.takings.get(takingEntity, planID)
}

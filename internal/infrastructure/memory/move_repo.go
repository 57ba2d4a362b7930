package memory

import (
	"context"
	"sort"

	"kardex/internal/core/id"
	"kardex/internal/domain"
	"kardex/internal/domain/workflows/stockmove"
)

const moveEntity = "move order"

// moveRepo implements stockmove.Repository on the embedded store.
type moveRepo struct {
	s *Store
}

// MoveRepository returns the move order repository.
func (s *Store) MoveRepository() stockmove.Repository {
	return &moveRepo{s: s}
}

func (r *moveRepo) Create(ctx context.Context, order *stockmove.Order) error {
	return r.s.write(ctx, func(t *memTx) error {
		return r.s.moves.create(t, moveEntity, *order)
	})
}

func (r *moveRepo) GetByID(ctx context.Context, orderID id.ID) (*stockmove.Order, error) {
	var order *stockmove.Order
	err := r.s.read(ctx, func() error {
		var err error
		order, err = r.s.moves.get(moveEntity, orderID)
		return err
	})
	return order, err
}

func (r *moveRepo) GetByNumber(ctx context.Context, number string) (*stockmove.Order, error) {
	var order *stockmove.Order
	err := r.s.read(ctx, func() error {
		var err error
		order, err = r.s.moves.getByNumber(moveEntity, number)
		return err
	})
	return order, err
}

func (r *moveRepo) Update(ctx context.Context, order *stockmove.Order) error {
	return r.s.write(ctx, func(t *memTx) error {
		return r.s.moves.update(t, moveEntity, *order)
	})
}

func (r *moveRepo) Delete(ctx context.Context, orderID id.ID) error {
	return r.s.write(ctx, func(t *memTx) error {
		return r.s.moves.remove(t, moveEntity, orderID)
	})
}

func (r *moveRepo) GetItems(ctx context.Context, orderID id.ID) ([]stockmove.Item, error) {
	var items []stockmove.Item
	err := r.s.read(ctx, func() error {
		items = r.s.moves.getItems(orderID)
		return nil
	})
	return items, err
}

func (r *moveRepo) SaveItems(ctx context.Context, orderID id.ID, items []stockmove.Item) error {
	return r.s.write(ctx, func(t *memTx) error {
		r.s.moves.saveItems(t, orderID, items)
		return nil
	})
}

func (r *moveRepo) List(ctx context.Context, filter stockmove.ListFilter) (domain.ListResult[*stockmove.Order], error) {
	var matched []*stockmove.Order
	err := r.s.read(ctx, func() error {
		matched = r.s.moves.list(func(o *stockmove.Order) bool {
			if filter.WarehouseID != nil && o.WarehouseID != *filter.WarehouseID {
				return false
			}
			if filter.Status != nil && o.Status != *filter.Status {
				return false
			}
			if filter.DateFrom != nil && o.Date.Before(*filter.DateFrom) {
				return false
			}
			if filter.DateTo != nil && !o.Date.Before(*filter.DateTo) {
				return false
			}
			if !filter.IncludeDeleted && o.DeletionMark {
				return false
			}
			return true
		})
		return nil
	})
	if err != nil {
		return domain.ListResult[*stockmove.Order]{}, err
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	page := paginate(matched, filter.Limit, filter.Offset)
	return domain.ListResult[*stockmove.Order]{
		Items:      page,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

func (r *moveRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*stockmove.Order, error) {
	if _, err := r.s.currentTx(ctx); err != nil {
		return nil, err
	}
	return r.s.moves.get(moveEntity, orderID)
}

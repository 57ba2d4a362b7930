package memory

import (
	"context"
	"sort"

	"kardex/internal/core/id"
	"kardex/internal/domain"
	"kardex/internal/domain/workflows/inbound"
)

const inboundEntity = "inbound order"

// inboundRepo implements inbound.Repository on the embedded store.
type inboundRepo struct {
	s *Store
}

// InboundRepository returns the inbound order repository.
func (s *Store) InboundRepository() inbound.Repository {
	return &inboundRepo{s: s}
}

func (r *inboundRepo) Create(ctx context.Context, order *inbound.Order) error {
	return r.s.write(ctx, func(t *memTx) error {
		return r.s.inbound.create(t, inboundEntity, *order)
	})
}

func (r *inboundRepo) GetByID(ctx context.Context, orderID id.ID) (*inbound.Order, error) {
	var order *inbound.Order
	err := r.s.read(ctx, func() error {
		var err error
		order, err = r.s.inbound.get(inboundEntity, orderID)
		return err
	})
	return order, err
}

func (r *inboundRepo) GetByNumber(ctx context.Context, number string) (*inbound.Order, error) {
	var order *inbound.Order
	err := r.s.read(ctx, func() error {
		var err error
		order, err = r.s.inbound.getByNumber(inboundEntity, number)
		return err
	})
	return order, err
}

func (r *inboundRepo) Update(ctx context.Context, order *inbound.Order) error {
	return r.s.write(ctx, func(t *memTx) error {
		return r.s.inbound.update(t, inboundEntity, *order)
	})
}

func (r *inboundRepo) Delete(ctx context.Context, orderID id.ID) error {
	return r.s.write(ctx, func(t *memTx) error {
		return r.s.inbound.remove(t, inboundEntity, orderID)
	})
}

func (r *inboundRepo) GetItems(ctx context.Context, orderID id.ID) ([]inbound.Item, error) {
	var items []inbound.Item
	err := r.s.read(ctx, func() error {
		items = r.s.inbound.getItems(orderID)
		return nil
	})
	return items, err
}

func (r *inboundRepo) SaveItems(ctx context.Context, orderID id.ID, items []inbound.Item) error {
	return r.s.write(ctx, func(t *memTx) error {
		r.s.inbound.saveItems(t, orderID, items)
		return nil
	})
}

func (r *inboundRepo) List(ctx context.Context, filter inbound.ListFilter) (domain.ListResult[*inbound.Order], error) {
	var matched []*inbound.Order
	err := r.s.read(ctx, func() error {
		matched = r.s.inbound.list(func(o *inbound.Order) bool {
			if filter.SupplierID != nil && o.SupplierID != *filter.SupplierID {
				return false
			}
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
		return domain.ListResult[*inbound.Order]{}, err
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	page := paginate(matched, filter.Limit, filter.Offset)
	return domain.ListResult[*inbound.Order]{
		Items:      page,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

func (r *inboundRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*inbound.Order, error) {
	if _, err := r.s.currentTx(ctx); err != nil {
		return nil, err
	}
	return r.s.inbound.get(inboundEntity, orderID)
}

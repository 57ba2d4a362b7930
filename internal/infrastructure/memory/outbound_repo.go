package memory

import (
	"context"
	"sort"

	"kardex/internal/core/id"
	"kardex/internal/domain"
	"kardex/internal/domain/workflows/outbound"
)

const outboundEntity = "outbound order"

// outboundRepo implements outbound.Repository on the embedded store.
type outboundRepo struct {
	s *Store
}

// OutboundRepository returns the outbound order repository.
func (s *Store) OutboundRepository() outbound.Repository {
	return &outboundRepo{s: s}
}

func (r *outboundRepo) Create(ctx context.Context, order *outbound.Order) error {
	return r.s.write(ctx, func(t *memTx) error {
		return r.s.outbound.create(t, outboundEntity, *order)
	})
}

func (r *outboundRepo) GetByID(ctx context.Context, orderID id.ID) (*outbound.Order, error) {
	var order *outbound.Order
	err := r.s.read(ctx, func() error {
		var err error
		order, err = r.s.outbound.get(outboundEntity, orderID)
		return err
	})
	return order, err
}

func (r *outboundRepo) GetByNumber(ctx context.Context, number string) (*outbound.Order, error) {
	var order *outbound.Order
	err := r.s.read(ctx, func() error {
		var err error
		order, err = r.s.outbound.getByNumber(outboundEntity, number)
		return err
	})
	return order, err
}

func (r *outboundRepo) Update(ctx context.Context, order *outbound.Order) error {
	return r.s.write(ctx, func(t *memTx) error {
		return r.s.outbound.update(t, outboundEntity, *order)
	})
}

func (r *outboundRepo) Delete(ctx context.Context, orderID id.ID) error {
	return r.s.write(ctx, func(t *memTx) error {
		return r.s.outbound.remove(t, outboundEntity, orderID)
	})
}

func (r *outboundRepo) GetItems(ctx context.Context, orderID id.ID) ([]outbound.Item, error) {
	var items []outbound.Item
	err := r.s.read(ctx, func() error {
		items = r.s.outbound.getItems(orderID)
		return nil
	})
	return items, err
}

func (r *outboundRepo) SaveItems(ctx context.Context, orderID id.ID, items []outbound.Item) error {
	return r.s.write(ctx, func(t *memTx) error {
		r.s.outbound.saveItems(t, orderID, items)
		return nil
	})
}

func (r *outboundRepo) List(ctx context.Context, filter outbound.ListFilter) (domain.ListResult[*outbound.Order], error) {
	var matched []*outbound.Order
	err := r.s.read(ctx, func() error {
		matched = r.s.outbound.list(func(o *outbound.Order) bool {
			if filter.CustomerID != nil && o.CustomerID != *filter.CustomerID {
				return false
			}
			if filter.WarehouseID != nil && o.WarehouseID != *filter.WarehouseID {
				return false
			}
			if filter.Status != nil && o.Status != *filter.Status {
				return false
			}
			if filter.WaveID != nil && (o.WaveID == nil || *o.WaveID != *filter.WaveID) {
				return false
			}
			if filter.Unwaved && o.WaveID != nil {
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
		return domain.ListResult[*outbound.Order]{}, err
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	page := paginate(matched, filter.Limit, filter.Offset)
	return domain.ListResult[*outbound.Order]{
		Items:      page,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

func (r *outboundRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*outbound.Order, error) {
	if _, err := r.s.currentTx(ctx); err != nil {
		return nil, err
	}
	return r.s.outbound.get(outboundEntity, orderID)
}

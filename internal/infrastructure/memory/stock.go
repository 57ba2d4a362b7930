package memory

import (
	"context"
	"sort"

	"kardex/internal/core/entity"
	"kardex/internal/domain/stock"
)

// stockRepo implements stock.Repository on the embedded store.
type stockRepo struct {
	s *Store
}

// StockRepository returns the stock record repository.
func (s *Store) StockRepository() stock.Repository {
	return &stockRepo{s: s}
}

func cloneRecord(rec entity.StockRecord) entity.StockRecord {
	if rec.ExpireDate != nil {
		d := *rec.ExpireDate
		rec.ExpireDate = &d
	}
	return rec
}

func (r *stockRepo) Get(ctx context.Context, key entity.StockKey) (entity.StockRecord, error) {
	var rec entity.StockRecord
	err := r.s.read(ctx, func() error {
		found, ok := r.s.records[key]
		if !ok {
			rec = entity.StockRecord{StockKey: key}
			return nil
		}
		rec = cloneRecord(found)
		return nil
	})
	return rec, err
}

// GetForUpdate returns the record inside the enclosing transaction. The
// store-wide transaction lock already excludes every other writer, which
// satisfies the per-key linearizability the contract asks for.
func (r *stockRepo) GetForUpdate(ctx context.Context, key entity.StockKey) (entity.StockRecord, error) {
	if _, err := r.s.currentTx(ctx); err != nil {
		return entity.StockRecord{}, err
	}

	found, ok := r.s.records[key]
	if !ok {
		return entity.StockRecord{StockKey: key}, nil
	}
	return cloneRecord(found), nil
}

func (r *stockRepo) Save(ctx context.Context, rec entity.StockRecord) error {
	return r.s.write(ctx, func(t *memTx) error {
		key := rec.StockKey
		prev, existed := r.s.records[key]
		t.register(func() {
			if existed {
				r.s.records[key] = prev
			} else {
				delete(r.s.records, key)
			}
		})

		r.s.records[key] = cloneRecord(rec)
		return nil
	})
}

func (r *stockRepo) List(ctx context.Context, filter stock.RecordFilter) ([]entity.StockRecord, error) {
	var out []entity.StockRecord
	err := r.s.read(ctx, func() error {
		for _, rec := range r.s.records {
			if !matchRecord(rec, filter) {
				continue
			}
			out = append(out, cloneRecord(rec))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].StockKey.String() < out[j].StockKey.String()
	})
	return paginate(out, filter.Limit, filter.Offset), nil
}

func matchRecord(rec entity.StockRecord, filter stock.RecordFilter) bool {
	if filter.WarehouseID != nil && rec.WarehouseID != *filter.WarehouseID {
		return false
	}
	if filter.GoodsID != nil && rec.GoodsID != *filter.GoodsID {
		return false
	}
	if filter.LocationID != nil && rec.LocationID != *filter.LocationID {
		return false
	}
	if filter.BatchNo != nil && rec.BatchNo != *filter.BatchNo {
		return false
	}
	if filter.ExcludeZero && rec.Quantity.IsZero() && rec.LockQuantity.IsZero() {
		return false
	}
	if filter.ExpiringBefore != nil {
		if rec.ExpireDate == nil || !rec.ExpireDate.Before(*filter.ExpiringBefore) {
			return false
		}
	}
	if filter.MinQuantity != nil && rec.Quantity < *filter.MinQuantity {
		return false
	}
	return true
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

package memory

import (
	"context"
	"time"

	"kardex/internal/core/apperror"
	"kardex/internal/core/entity"
	"kardex/internal/core/types"
	"kardex/internal/domain/ledger"
)

// postingKey is the ledger uniqueness tuple.
type postingKey struct {
	op         entity.OperationType
	businessNo string
	lineRef    string
}

// ledgerRepo implements ledger.Repository on the embedded store.
// The slice is append-only; nothing ever updates or removes an entry
// except the rollback of the transaction that appended it.
type ledgerRepo struct {
	s *Store
}

// LedgerRepository returns the inventory log repository.
func (s *Store) LedgerRepository() ledger.Repository {
	return &ledgerRepo{s: s}
}

func (r *ledgerRepo) Append(ctx context.Context, entry *entity.LedgerEntry) error {
	return r.s.write(ctx, func(t *memTx) error {
		key := postingKey{op: entry.Operation, businessNo: entry.BusinessNo, lineRef: entry.LineRef}
		if _, exists := r.s.postingIndex[key]; exists {
			return apperror.NewDuplicatePosting(string(entry.Operation), entry.BusinessNo, entry.LineRef)
		}

		idx := len(r.s.entries)
		r.s.entries = append(r.s.entries, *entry)
		r.s.postingIndex[key] = idx
		t.register(func() {
			r.s.entries = r.s.entries[:idx]
			delete(r.s.postingIndex, key)
		})
		return nil
	})
}

func (r *ledgerRepo) GetByPosting(ctx context.Context, op entity.OperationType, businessNo, lineRef string) (*entity.LedgerEntry, error) {
	var entry *entity.LedgerEntry
	err := r.s.read(ctx, func() error {
		idx, ok := r.s.postingIndex[postingKey{op: op, businessNo: businessNo, lineRef: lineRef}]
		if !ok {
			return apperror.NewNotFound("ledger entry", businessNo).
				WithDetail("operation", string(op)).
				WithDetail("line_ref", lineRef)
		}
		e := r.s.entries[idx]
		entry = &e
		return nil
	})
	return entry, err
}

func (r *ledgerRepo) ListByKey(ctx context.Context, key entity.StockKey, filter ledger.EntryFilter) ([]entity.LedgerEntry, error) {
	var out []entity.LedgerEntry
	err := r.s.read(ctx, func() error {
		for _, e := range r.s.entries {
			if e.StockKey != key || !matchEntry(e, filter) {
				continue
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (r *ledgerRepo) ListByBusinessNo(ctx context.Context, businessNo string) ([]entity.LedgerEntry, error) {
	var out []entity.LedgerEntry
	err := r.s.read(ctx, func() error {
		for _, e := range r.s.entries {
			if e.BusinessNo == businessNo {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}

func (r *ledgerRepo) ListByTimeWindow(ctx context.Context, from, to time.Time, filter ledger.EntryFilter) ([]entity.LedgerEntry, error) {
	var out []entity.LedgerEntry
	err := r.s.read(ctx, func() error {
		for _, e := range r.s.entries {
			if e.CreatedAt.Before(from) || !e.CreatedAt.Before(to) {
				continue
			}
			if !matchEntry(e, filter) {
				continue
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (r *ledgerRepo) SumChangeByKey(ctx context.Context, key entity.StockKey) (types.Quantity, error) {
	var sum types.Quantity
	err := r.s.read(ctx, func() error {
		for _, e := range r.s.entries {
			if e.StockKey == key {
				sum += e.QuantityChange
			}
		}
		return nil
	})
	return sum, err
}

func matchEntry(e entity.LedgerEntry, filter ledger.EntryFilter) bool {
	if len(filter.Operations) > 0 {
		found := false
		for _, op := range filter.Operations {
			if e.Operation == op {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.FromDate != nil && e.CreatedAt.Before(*filter.FromDate) {
		return false
	}
	if filter.ToDate != nil && !e.CreatedAt.Before(*filter.ToDate) {
		return false
	}
	return true
}

package memory

import (
	"context"

	"kardex/internal/core/id"
	"kardex/internal/domain/audit"
)

// trailStore implements audit.Trail on the embedded store. Payloads are
// kept uncompressed; compression is a property of the postgres trail.
type trailStore struct {
	s *Store
}

// Trail returns the transition trail store.
func (s *Store) Trail() audit.Trail {
	return &trailStore{s: s}
}

func (r *trailStore) Record(ctx context.Context, entry audit.Entry) error {
	return r.s.write(ctx, func(t *memTx) error {
		idx := len(r.s.trail)
		r.s.trail = append(r.s.trail, entry)
		t.register(func() {
			r.s.trail = r.s.trail[:idx]
		})
		return nil
	})
}

func (r *trailStore) ListByEntity(ctx context.Context, entityType string, entityID id.ID) ([]audit.Entry, error) {
	var out []audit.Entry
	err := r.s.read(ctx, func() error {
		for _, e := range r.s.trail {
			if e.EntityType == entityType && e.EntityID == entityID {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}

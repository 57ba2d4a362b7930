package memory

import (
	"context"
	"time"

	"kardex/internal/core/apperror"
	"kardex/internal/core/entity"
	"kardex/internal/core/id"
	"kardex/internal/domain/snapshot"
)

// snapshotData bundles one snapshot header with its record copies.
type snapshotData struct {
	header  snapshot.Snapshot
	records []entity.StockSnapshotRecord
}

// snapshotRepo implements snapshot.Repository on the embedded store.
type snapshotRepo struct {
	s *Store
}

// SnapshotRepository returns the snapshot repository.
func (s *Store) SnapshotRepository() snapshot.Repository {
	return &snapshotRepo{s: s}
}

func (r *snapshotRepo) CreateSnapshot(ctx context.Context, snap *snapshot.Snapshot, records []entity.StockSnapshotRecord) error {
	return r.s.write(ctx, func(t *memTx) error {
		if _, exists := r.s.snapshots[snap.ID]; exists {
			return apperror.NewConflict("snapshot already exists").
				WithDetail("id", snap.ID)
		}

		copies := make([]entity.StockSnapshotRecord, len(records))
		copy(copies, records)
		r.s.snapshots[snap.ID] = snapshotData{header: *snap, records: copies}
		r.s.snapshotsByDate = append(r.s.snapshotsByDate, snap.ID)

		snapID := snap.ID
		t.register(func() {
			delete(r.s.snapshots, snapID)
			r.s.snapshotsByDate = r.s.snapshotsByDate[:len(r.s.snapshotsByDate)-1]
		})
		return nil
	})
}

func (r *snapshotRepo) GetSnapshot(ctx context.Context, snapshotID id.ID) (*snapshot.Snapshot, error) {
	var snap *snapshot.Snapshot
	err := r.s.read(ctx, func() error {
		data, ok := r.s.snapshots[snapshotID]
		if !ok {
			return apperror.NewNotFound("snapshot", snapshotID)
		}
		h := data.header
		snap = &h
		return nil
	})
	return snap, err
}

func (r *snapshotRepo) ListSnapshots(ctx context.Context, from, to time.Time) ([]snapshot.Snapshot, error) {
	var out []snapshot.Snapshot
	err := r.s.read(ctx, func() error {
		// newest first: walk insertion order backwards
		for i := len(r.s.snapshotsByDate) - 1; i >= 0; i-- {
			data := r.s.snapshots[r.s.snapshotsByDate[i]]
			d := data.header.SnapshotDate
			if d.Before(from) || !d.Before(to) {
				continue
			}
			out = append(out, data.header)
		}
		return nil
	})
	return out, err
}

func (r *snapshotRepo) GetRecords(ctx context.Context, snapshotID id.ID) ([]entity.StockSnapshotRecord, error) {
	var out []entity.StockSnapshotRecord
	err := r.s.read(ctx, func() error {
		data, ok := r.s.snapshots[snapshotID]
		if !ok {
			return apperror.NewNotFound("snapshot", snapshotID)
		}
		out = make([]entity.StockSnapshotRecord, len(data.records))
		copy(out, data.records)
		return nil
	})
	return out, err
}

func (r *snapshotRepo) LatestBefore(ctx context.Context, date time.Time) (*snapshot.Snapshot, error) {
	var latest *snapshot.Snapshot
	err := r.s.read(ctx, func() error {
		for _, snapID := range r.s.snapshotsByDate {
			data := r.s.snapshots[snapID]
			if !data.header.SnapshotDate.Before(date) {
				continue
			}
			if latest == nil || data.header.SnapshotDate.After(latest.SnapshotDate) {
				h := data.header
				latest = &h
			}
		}
		if latest == nil {
			return apperror.NewNotFound("snapshot", date.Format("2006-01-02"))
		}
		return nil
	})
	return latest, err
}

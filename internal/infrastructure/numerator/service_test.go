package numerator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "kardex/internal/core/numerator"
)

type fakeRow struct {
	val int64
	err error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = r.val
		}
	}
	return nil
}

// fakeQuerier simulates the sys_sequences upsert: every call advances the
// counter by the increment argument (1 when absent) and returns it.
type fakeQuerier struct {
	mu      sync.Mutex
	value   int64
	calls   int
	failing bool
}

func (q *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.failing {
		return &fakeRow{err: errors.New("connection refused")}
	}

	var increment int64 = 1
	if len(args) == 2 {
		if v, ok := args[1].(int64); ok {
			increment = v
		}
	}
	q.value += increment
	q.calls++
	return &fakeRow{val: q.value}
}

func period() time.Time {
	return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
}

func TestStrict_SequentialNumbers(t *testing.T) {
	q := &fakeQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("IN")

	for i, want := range []string{"IN-2026-00001", "IN-2026-00002", "IN-2026-00003"} {
		num, err := svc.GetNextNumber(ctx, cfg, nil, period())
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i+1, err)
		}
		if num != want {
			t.Errorf("call %d: expected %s, got %s", i+1, want, num)
		}
	}
	if q.calls != 3 {
		t.Errorf("expected one DB roundtrip per number, got %d", q.calls)
	}
}

func TestCached_OneRoundtripPerRange(t *testing.T) {
	q := &fakeQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("WV")
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 5}

	for i := 1; i <= 5; i++ {
		num, err := svc.GetNextNumber(ctx, cfg, opts, period())
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		want := formatNumber(cfg, period(), int64(i))
		if num != want {
			t.Errorf("call %d: expected %s, got %s", i, want, num)
		}
	}
	if q.calls != 1 {
		t.Errorf("expected a single range reservation for 5 numbers, got %d calls", q.calls)
	}

	// The sixth number exhausts the range and reserves another one.
	num, err := svc.GetNextNumber(ctx, cfg, opts, period())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "WV-2026-00006" {
		t.Errorf("expected WV-2026-00006, got %s", num)
	}
	if q.calls != 2 {
		t.Errorf("expected a second reservation, got %d calls", q.calls)
	}
}

func TestGetNextNumber_PropagatesDBError(t *testing.T) {
	q := &fakeQuerier{failing: true}
	svc := New(q)

	if _, err := svc.GetNextNumber(context.Background(), corenumerator.DefaultConfig("IN"), nil, period()); err == nil {
		t.Fatal("expected error from failing querier")
	}
}

func TestSetNextNumber_DropsCachedRange(t *testing.T) {
	q := &fakeQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("MV")
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	if _, err := svc.GetNextNumber(ctx, cfg, opts, period()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Jump the sequence; the stale in-memory range must not survive.
	if err := svc.SetNextNumber(ctx, cfg, period(), 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	callsAfterSet := q.calls

	if _, err := svc.GetNextNumber(ctx, cfg, opts, period()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Nine numbers were left in the old range; a fresh reservation proves
	// it was dropped.
	if q.calls != callsAfterSet+1 {
		t.Errorf("expected a fresh range reservation after set, calls went %d -> %d", callsAfterSet, q.calls)
	}
}

func TestBuildKey_ResetPeriods(t *testing.T) {
	tests := []struct {
		reset string
		want  string
	}{
		{"year", "IN_2026"},
		{"month", "IN_2026_08"},
		{"never", "IN"},
	}
	for _, tc := range tests {
		cfg := corenumerator.Config{Prefix: "IN", ResetPeriod: tc.reset}
		if got := buildKey(cfg, period()); got != tc.want {
			t.Errorf("reset %q: expected %s, got %s", tc.reset, tc.want, got)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		cfg  corenumerator.Config
		num  int64
		want string
	}{
		{corenumerator.Config{Prefix: "IN", IncludeYear: true, PadWidth: 5}, 7, "IN-2026-00007"},
		{corenumerator.Config{Prefix: "TK", IncludeYear: false, PadWidth: 3}, 42, "TK-042"},
		{corenumerator.Config{Prefix: "OUT", IncludeYear: true}, 12345, "OUT-2026-12345"},
		{corenumerator.Config{Prefix: "MV", IncludeYear: true, PadWidth: 5}, 123456, "MV-2026-123456"},
	}
	for _, tc := range tests {
		if got := formatNumber(tc.cfg, period(), tc.num); got != tc.want {
			t.Errorf("num %d: expected %s, got %s", tc.num, tc.want, got)
		}
	}
}

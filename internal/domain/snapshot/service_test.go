package snapshot_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kardex/internal/core/apperror"
	"kardex/internal/core/entity"
	"kardex/internal/core/id"
	"kardex/internal/core/types"
	"kardex/internal/domain/masterdata"
	"kardex/internal/domain/snapshot"
	"kardex/internal/domain/stock"
	"kardex/internal/infrastructure/memory"
)

func qty(v int64) types.Quantity {
	return types.NewQuantityFromInt(v)
}

type fixture struct {
	store    *memory.Store
	stockSvc *stock.Service
	lookup   *masterdata.StaticLookup
	rules    *snapshot.RuleSet
	svc      *snapshot.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	stockSvc := stock.NewService(store.StockRepository(), store.LedgerRepository(), store)
	lookup := masterdata.NewStaticLookup()
	rules, err := snapshot.NewRuleSet()
	require.NoError(t, err)
	svc := snapshot.NewService(store.SnapshotRepository(), stockSvc, lookup, store, rules)
	return &fixture{store: store, stockSvc: stockSvc, lookup: lookup, rules: rules, svc: svc}
}

func (f *fixture) seed(t *testing.T, quantity types.Quantity) entity.StockKey {
	t.Helper()
	key := entity.StockKey{
		WarehouseID: id.New(),
		GoodsID:     id.New(),
		LocationID:  id.New(),
		BatchNo:     "B-001",
	}
	_, err := f.stockSvc.Adjust(context.Background(), key, quantity, entity.OpInbound, stock.PostingRef{
		BusinessType: "seed",
		BusinessNo:   "SEED-" + key.GoodsID.String(),
		LineRef:      "1",
		Operator:     "tester",
	})
	require.NoError(t, err)
	return key
}

func TestTake_CopiesEveryRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	keyA := f.seed(t, qty(100))
	keyB := f.seed(t, qty(50))
	require.NoError(t, f.stockSvc.Reserve(ctx, keyA, qty(20)))

	date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	snap, err := f.svc.Take(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.RecordCount)

	got, records, err := f.svc.Get(ctx, snap.ID)
	require.NoError(t, err)
	assert.True(t, date.Equal(got.SnapshotDate))
	require.Len(t, records, 2)

	byKey := make(map[entity.StockKey]entity.StockSnapshotRecord)
	for _, rec := range records {
		byKey[rec.StockKey] = rec
	}
	assert.Equal(t, qty(100), byKey[keyA].Quantity)
	assert.Equal(t, qty(20), byKey[keyA].LockQuantity)
	assert.Equal(t, qty(50), byKey[keyB].Quantity)
}

func TestTake_SnapshotIsImmutableAgainstLaterPostings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	key := f.seed(t, qty(100))
	snap, err := f.svc.Take(ctx, time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	_, err = f.stockSvc.Adjust(ctx, key, qty(-40), entity.OpOutbound, stock.PostingRef{
		BusinessType: "TEST",
		BusinessNo:   "OUT-001",
		LineRef:      "1",
		Operator:     "tester",
	})
	require.NoError(t, err)

	_, records, err := f.svc.Get(ctx, snap.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, qty(100), records[0].Quantity)
}

func TestList_FiltersByDateWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, qty(10))

	day := func(d int) time.Time { return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC) }
	for _, d := range []int{10, 15, 20} {
		_, err := f.svc.Take(ctx, day(d))
		require.NoError(t, err)
	}

	got, err := f.svc.List(ctx, day(12), day(20))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, day(15).Equal(got[0].SnapshotDate))
}

func TestWarnings_LowStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	key := f.seed(t, qty(100))
	f.lookup.GoodsByID[key.GoodsID] = masterdata.GoodsInfo{
		ID:          key.GoodsID,
		Name:        "widget",
		SafetyStock: qty(90),
	}
	// 100 on hand minus 20 locked leaves 80 available, below the 90 threshold.
	require.NoError(t, f.stockSvc.Reserve(ctx, key, qty(20)))

	warnings, err := f.svc.Warnings(ctx, snapshot.WarningFilter{})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	w := warnings[0]
	assert.Equal(t, snapshot.WarningLowStock, w.Type)
	assert.Equal(t, key, w.StockKey)
	assert.Equal(t, qty(80), w.Available)
	assert.Equal(t, qty(90), w.SafetyStock)
}

func TestWarnings_NoThresholdNoLowStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Goods without safety stock never warn, however low the level.
	f.seed(t, qty(1))

	warnings, err := f.svc.Warnings(ctx, snapshot.WarningFilter{})
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestWarnings_Expiring(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	soon := f.seed(t, qty(10))
	expireSoon := time.Now().UTC().Add(3 * 24 * time.Hour)
	require.NoError(t, f.stockSvc.SetExpireDate(ctx, soon, expireSoon))

	later := f.seed(t, qty(10))
	expireLater := time.Now().UTC().Add(60 * 24 * time.Hour)
	require.NoError(t, f.stockSvc.SetExpireDate(ctx, later, expireLater))

	warnings, err := f.svc.Warnings(ctx, snapshot.WarningFilter{
		Types: []snapshot.WarningType{snapshot.WarningExpiring},
	})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, snapshot.WarningExpiring, warnings[0].Type)
	assert.Equal(t, soon, warnings[0].StockKey)
	assert.LessOrEqual(t, warnings[0].DaysToExpiry, snapshot.ExpiryHorizonDays)
}

func TestWarnings_CustomRuleFires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seed(t, qty(5))
	f.seed(t, qty(500))

	require.NoError(t, f.rules.Register("tiny-lot", `quantity < 10.0`))

	warnings, err := f.svc.Warnings(ctx, snapshot.WarningFilter{
		Types: []snapshot.WarningType{snapshot.WarningCustom},
	})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, snapshot.WarningCustom, warnings[0].Type)
	assert.Equal(t, "tiny-lot", warnings[0].Rule)
	assert.Equal(t, qty(5), warnings[0].Quantity)

	f.rules.Unregister("tiny-lot")
	warnings, err = f.svc.Warnings(ctx, snapshot.WarningFilter{
		Types: []snapshot.WarningType{snapshot.WarningCustom},
	})
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestRegister_RejectsBadExpressions(t *testing.T) {
	rules, err := snapshot.NewRuleSet()
	require.NoError(t, err)

	// Not a boolean.
	err = rules.Register("bad-type", `quantity + 1.0`)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	// Unknown variable.
	require.Error(t, rules.Register("bad-var", `unknownVar > 0.0`))

	// Empty name.
	require.Error(t, rules.Register("", `quantity > 0.0`))

	assert.Empty(t, rules.Names())
}

func TestWarnings_FilterByWarehouse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	keyA := f.seed(t, qty(5))
	f.seed(t, qty(5))
	require.NoError(t, f.rules.Register("any", `quantity > 0.0`))

	warnings, err := f.svc.Warnings(ctx, snapshot.WarningFilter{WarehouseID: &keyA.WarehouseID})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, keyA.WarehouseID, warnings[0].WarehouseID)
}

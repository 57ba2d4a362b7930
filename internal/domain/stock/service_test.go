package stock_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kardex/internal/core/apperror"
	"kardex/internal/core/entity"
	"kardex/internal/core/id"
	"kardex/internal/core/types"
	"kardex/internal/domain/ledger"
	"kardex/internal/domain/stock"
	"kardex/internal/infrastructure/memory"
)

func qty(v int64) types.Quantity {
	return types.NewQuantityFromInt(v)
}

func newService(t *testing.T) (*stock.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return stock.NewService(store.StockRepository(), store.LedgerRepository(), store), store
}

func newKey() entity.StockKey {
	return entity.StockKey{
		WarehouseID: id.New(),
		GoodsID:     id.New(),
		LocationID:  id.New(),
		BatchNo:     "B-001",
	}
}

func ref(businessNo, lineRef string) stock.PostingRef {
	return stock.PostingRef{
		BusinessType: "TEST",
		BusinessNo:   businessNo,
		LineRef:      lineRef,
		Operator:     "tester",
	}
}

func TestAdjust_CreatesRecordAndLedgerEntry(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	key := newKey()

	mut, err := svc.Adjust(ctx, key, qty(100), entity.OpInbound, ref("IN-001", "1"))
	require.NoError(t, err)
	assert.True(t, mut.Applied)
	assert.Equal(t, types.Quantity(0), mut.Before)
	assert.Equal(t, qty(100), mut.After)

	rec, err := svc.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, qty(100), rec.Quantity)
	assert.Equal(t, types.Quantity(0), rec.LockQuantity)

	entries, err := store.LedgerRepository().ListByKey(ctx, key, ledger.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.OpInbound, entries[0].Operation)
	assert.Equal(t, "IN-001", entries[0].BusinessNo)
	assert.Equal(t, types.Quantity(0), entries[0].QuantityBefore)
	assert.Equal(t, qty(100), entries[0].QuantityChange)
	assert.Equal(t, qty(100), entries[0].QuantityAfter)
	assert.Equal(t, "tester", entries[0].Operator)
}

func TestAdjust_ReplayIsIgnored(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	key := newKey()

	first, err := svc.Adjust(ctx, key, qty(50), entity.OpInbound, ref("IN-002", "1"))
	require.NoError(t, err)
	require.True(t, first.Applied)

	// Retry of the same posting tuple: no second effect.
	replay, err := svc.Adjust(ctx, key, qty(50), entity.OpInbound, ref("IN-002", "1"))
	require.NoError(t, err)
	assert.False(t, replay.Applied)
	assert.Equal(t, first.Before, replay.Before)
	assert.Equal(t, first.After, replay.After)

	rec, err := svc.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, qty(50), rec.Quantity)

	entries, err := store.LedgerRepository().ListByKey(ctx, key, ledger.EntryFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAdjust_RejectsZeroDelta(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Adjust(context.Background(), newKey(), 0, entity.OpInbound, ref("IN-003", "1"))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestAdjust_InsufficientStockLeavesRecordUnchanged(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	key := newKey()

	_, err := svc.Adjust(ctx, key, qty(10), entity.OpInbound, ref("IN-004", "1"))
	require.NoError(t, err)

	_, err = svc.Adjust(ctx, key, qty(-15), entity.OpOutbound, ref("OUT-004", "1"))
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	rec, err := svc.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, qty(10), rec.Quantity)

	entries, err := store.LedgerRepository().ListByKey(ctx, key, ledger.EntryFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAdjust_CannotDropBelowLock(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	key := newKey()

	_, err := svc.Adjust(ctx, key, qty(100), entity.OpInbound, ref("IN-005", "1"))
	require.NoError(t, err)
	require.NoError(t, svc.Reserve(ctx, key, qty(80)))

	// 100 - 30 = 70 < lock 80: refused even though quantity stays positive.
	_, err = svc.Adjust(ctx, key, qty(-30), entity.OpOutbound, ref("OUT-005", "1"))
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	rec, err := svc.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, qty(100), rec.Quantity)
	assert.Equal(t, qty(80), rec.LockQuantity)
}

func TestReserve_FailsBeyondAvailable(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	key := newKey()

	_, err := svc.Adjust(ctx, key, qty(100), entity.OpInbound, ref("IN-006", "1"))
	require.NoError(t, err)

	require.NoError(t, svc.Reserve(ctx, key, qty(60)))

	available, err := svc.Available(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, qty(40), available)

	err = svc.Reserve(ctx, key, qty(41))
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
}

func TestRelease_ClampsToCurrentLock(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	key := newKey()

	_, err := svc.Adjust(ctx, key, qty(100), entity.OpInbound, ref("IN-007", "1"))
	require.NoError(t, err)
	require.NoError(t, svc.Reserve(ctx, key, qty(20)))

	// Releasing more than locked releases only what is locked.
	require.NoError(t, svc.Release(ctx, key, qty(50)))

	rec, err := svc.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(0), rec.LockQuantity)
	assert.Equal(t, qty(100), rec.Quantity)
}

func TestConsume_DecrementsQuantityAndLockTogether(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	key := newKey()

	_, err := svc.Adjust(ctx, key, qty(100), entity.OpInbound, ref("IN-008", "1"))
	require.NoError(t, err)
	require.NoError(t, svc.Reserve(ctx, key, qty(30)))

	mut, err := svc.Consume(ctx, key, qty(30), entity.OpOutbound, ref("OUT-008", "1"))
	require.NoError(t, err)
	assert.True(t, mut.Applied)
	assert.Equal(t, qty(100), mut.Before)
	assert.Equal(t, qty(70), mut.After)

	rec, err := svc.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, qty(70), rec.Quantity)
	assert.Equal(t, types.Quantity(0), rec.LockQuantity)

	entries, err := store.LedgerRepository().ListByKey(ctx, key, ledger.EntryFilter{
		Operations: []entity.OperationType{entity.OpOutbound},
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, qty(-30), entries[0].QuantityChange)
}

func TestConsume_FailsBeyondReservation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	key := newKey()

	_, err := svc.Adjust(ctx, key, qty(100), entity.OpInbound, ref("IN-009", "1"))
	require.NoError(t, err)
	require.NoError(t, svc.Reserve(ctx, key, qty(10)))

	_, err = svc.Consume(ctx, key, qty(20), entity.OpOutbound, ref("OUT-009", "1"))
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	rec, err := svc.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, qty(100), rec.Quantity)
	assert.Equal(t, qty(10), rec.LockQuantity)
}

func TestReserve_ConcurrentExactlyOneWins(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	key := newKey()

	_, err := svc.Adjust(ctx, key, qty(25), entity.OpInbound, ref("IN-010", "1"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Reserve(ctx, key, qty(20))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, apperror.IsInsufficientStock(err))
		}
	}
	assert.Equal(t, 1, succeeded)

	rec, err := svc.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, qty(20), rec.LockQuantity)
}

func TestGet_UnknownKeyIsZeroRecord(t *testing.T) {
	svc, _ := newService(t)
	key := newKey()

	rec, err := svc.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, key, rec.StockKey)
	assert.True(t, rec.Quantity.IsZero())
	assert.True(t, rec.LockQuantity.IsZero())
}

package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func newKey() entity.StockKey {
	return entity.StockKey{
		WarehouseID: id.New(),
		GoodsID:     id.New(),
		LocationID:  id.New(),
		BatchNo:     "B-001",
	}
}

func ref(businessNo string) stock.PostingRef {
	return stock.PostingRef{
		BusinessType: "TEST",
		BusinessNo:   businessNo,
		LineRef:      "1",
		Operator:     "tester",
	}
}

func TestRunInTransaction_RollbackUnwindsAllWrites(t *testing.T) {
	store := memory.NewStore()
	stockSvc := stock.NewService(store.StockRepository(), store.LedgerRepository(), store)
	ctx := context.Background()

	key := newKey()
	_, err := stockSvc.Adjust(ctx, key, qty(100), entity.OpInbound, ref("IN-001"))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := stockSvc.Adjust(ctx, key, qty(-30), entity.OpOutbound, ref("OUT-001")); err != nil {
			return err
		}
		if _, err := stockSvc.Adjust(ctx, key, qty(50), entity.OpInbound, ref("IN-002")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Both postings and their ledger entries are gone.
	rec, err := stockSvc.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, qty(100), rec.Quantity)

	ledgerSvc := ledger.NewService(store.LedgerRepository())
	entries, err := ledgerSvc.History(ctx, key, ledger.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "IN-001", entries[0].BusinessNo)
}

func TestRunInTransaction_RollbackRestoresIdempotencyIndex(t *testing.T) {
	store := memory.NewStore()
	stockSvc := stock.NewService(store.StockRepository(), store.LedgerRepository(), store)
	ctx := context.Background()

	key := newKey()
	boom := errors.New("boom")
	err := store.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := stockSvc.Adjust(ctx, key, qty(10), entity.OpInbound, ref("IN-001")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// The rolled-back posting must not read as a replay afterwards.
	mut, err := stockSvc.Adjust(ctx, key, qty(10), entity.OpInbound, ref("IN-001"))
	require.NoError(t, err)
	assert.True(t, mut.Applied)
	assert.Equal(t, qty(10), mut.After)
}

func TestRunInTransaction_NestedCallJoinsOuter(t *testing.T) {
	store := memory.NewStore()
	stockSvc := stock.NewService(store.StockRepository(), store.LedgerRepository(), store)
	ctx := context.Background()

	key := newKey()
	boom := errors.New("boom")
	err := store.RunInTransaction(ctx, func(ctx context.Context) error {
		// Adjust opens its own RunInTransaction which must join, not
		// deadlock or commit on its own.
		if _, err := stockSvc.Adjust(ctx, key, qty(10), entity.OpInbound, ref("IN-001")); err != nil {
			return err
		}
		return store.RunInTransaction(ctx, func(ctx context.Context) error {
			return boom
		})
	})
	require.ErrorIs(t, err, boom)

	rec, err := stockSvc.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, rec.Quantity.IsZero())
}

func TestRunInTransaction_CommitIsVisibleAfterReturn(t *testing.T) {
	store := memory.NewStore()
	stockSvc := stock.NewService(store.StockRepository(), store.LedgerRepository(), store)
	ctx := context.Background()

	keyA, keyB := newKey(), newKey()
	err := store.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := stockSvc.Adjust(ctx, keyA, qty(10), entity.OpInbound, ref("IN-001")); err != nil {
			return err
		}
		_, err := stockSvc.Adjust(ctx, keyB, qty(20), entity.OpInbound, ref("IN-002"))
		return err
	})
	require.NoError(t, err)

	recA, err := stockSvc.Get(ctx, keyA)
	require.NoError(t, err)
	assert.Equal(t, qty(10), recA.Quantity)

	recB, err := stockSvc.Get(ctx, keyB)
	require.NoError(t, err)
	assert.Equal(t, qty(20), recB.Quantity)
}

func TestReadOnly_SeesCommittedState(t *testing.T) {
	store := memory.NewStore()
	stockSvc := stock.NewService(store.StockRepository(), store.LedgerRepository(), store)
	ctx := context.Background()

	key := newKey()
	_, err := stockSvc.Adjust(ctx, key, qty(10), entity.OpInbound, ref("IN-001"))
	require.NoError(t, err)

	err = store.ReadOnly(ctx, func(ctx context.Context) error {
		rec, err := stockSvc.Get(ctx, key)
		if err != nil {
			return err
		}
		assert.Equal(t, qty(10), rec.Quantity)
		return nil
	})
	require.NoError(t, err)
}

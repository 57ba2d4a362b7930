package ledger_test

import (
	"context"
	"testing"
	"time"

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

func setup(t *testing.T) (*ledger.Service, *stock.Service) {
	t.Helper()
	store := memory.NewStore()
	stockSvc := stock.NewService(store.StockRepository(), store.LedgerRepository(), store)
	return ledger.NewService(store.LedgerRepository()), stockSvc
}

func newKey() entity.StockKey {
	return entity.StockKey{
		WarehouseID: id.New(),
		GoodsID:     id.New(),
		LocationID:  id.New(),
		BatchNo:     "B-001",
	}
}

func post(t *testing.T, svc *stock.Service, key entity.StockKey, delta types.Quantity, op entity.OperationType, businessNo string) {
	t.Helper()
	_, err := svc.Adjust(context.Background(), key, delta, op, stock.PostingRef{
		BusinessType: "TEST",
		BusinessNo:   businessNo,
		LineRef:      "1",
		Operator:     "tester",
	})
	require.NoError(t, err)
}

func TestHistory_OrderedAndFiltered(t *testing.T) {
	ledgerSvc, stockSvc := setup(t)
	ctx := context.Background()
	key := newKey()

	post(t, stockSvc, key, qty(100), entity.OpInbound, "IN-001")
	post(t, stockSvc, key, qty(-30), entity.OpOutbound, "OUT-001")
	post(t, stockSvc, key, qty(-5), entity.OpTakingAdjust, "TK-001")

	all, err := ledgerSvc.History(ctx, key, ledger.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	// Chronological, and the chain is contiguous.
	assert.Equal(t, qty(100), all[0].QuantityAfter)
	assert.Equal(t, all[0].QuantityAfter, all[1].QuantityBefore)
	assert.Equal(t, all[1].QuantityAfter, all[2].QuantityBefore)
	assert.Equal(t, qty(65), all[2].QuantityAfter)

	onlyOut, err := ledgerSvc.History(ctx, key, ledger.EntryFilter{
		Operations: []entity.OperationType{entity.OpOutbound},
	})
	require.NoError(t, err)
	require.Len(t, onlyOut, 1)
	assert.Equal(t, "OUT-001", onlyOut[0].BusinessNo)
}

func TestOrderPostings(t *testing.T) {
	ledgerSvc, stockSvc := setup(t)
	ctx := context.Background()

	keyA := newKey()
	keyB := newKey()
	post(t, stockSvc, keyA, qty(10), entity.OpInbound, "IN-777")
	post(t, stockSvc, keyB, qty(20), entity.OpInbound, "IN-778")

	entries, err := ledgerSvc.OrderPostings(ctx, "IN-777")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, keyA, entries[0].StockKey)
}

func TestWindow_RejectsInvertedRange(t *testing.T) {
	ledgerSvc, _ := setup(t)

	now := time.Now()
	_, err := ledgerSvc.Window(context.Background(), now, now.Add(-time.Hour), ledger.EntryFilter{})
	require.Error(t, err)
}

func TestReconcile_ConsistentKey(t *testing.T) {
	ledgerSvc, stockSvc := setup(t)
	ctx := context.Background()
	key := newKey()

	post(t, stockSvc, key, qty(100), entity.OpInbound, "IN-002")
	post(t, stockSvc, key, qty(-40), entity.OpOutbound, "OUT-002")

	rec, err := stockSvc.Get(ctx, key)
	require.NoError(t, err)

	result, err := ledgerSvc.Reconcile(ctx, key, rec.Quantity)
	require.NoError(t, err)
	assert.True(t, result.Consistent)
	assert.Equal(t, qty(60), result.LedgerSum)
	assert.Equal(t, qty(60), result.RecordedQty)
}

func TestReconcile_DetectsDivergence(t *testing.T) {
	ledgerSvc, stockSvc := setup(t)
	ctx := context.Background()
	key := newKey()

	post(t, stockSvc, key, qty(100), entity.OpInbound, "IN-003")

	result, err := ledgerSvc.Reconcile(ctx, key, qty(90))
	require.NoError(t, err)
	assert.False(t, result.Consistent)
	assert.Equal(t, qty(100), result.LedgerSum)
}

func TestReconcile_UntouchedKeyIsConsistentAtZero(t *testing.T) {
	ledgerSvc, _ := setup(t)

	result, err := ledgerSvc.Reconcile(context.Background(), newKey(), 0)
	require.NoError(t, err)
	assert.True(t, result.Consistent)
	assert.True(t, result.LedgerSum.IsZero())
}

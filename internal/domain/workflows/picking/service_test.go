package picking_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kardex/internal/core/apperror"
	"kardex/internal/core/entity"
	"kardex/internal/core/id"
	"kardex/internal/core/numerator"
	"kardex/internal/core/types"
	"kardex/internal/domain/stock"
	"kardex/internal/domain/workflows/outbound"
	"kardex/internal/domain/workflows/picking"
	"kardex/internal/infrastructure/memory"
)

func qty(v int64) types.Quantity {
	return types.NewQuantityFromInt(v)
}

type fixture struct {
	store       *memory.Store
	stockSvc    *stock.Service
	outboundSvc *outbound.Service
	svc         *picking.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	stockSvc := stock.NewService(store.StockRepository(), store.LedgerRepository(), store)
	outboundSvc := outbound.NewService(store.OutboundRepository(), stockSvc, &numerator.MockGenerator{}, store, store.Trail())
	svc := picking.NewService(store.WaveRepository(), outboundSvc, &numerator.MockGenerator{}, store, store.Trail())
	return &fixture{store: store, stockSvc: stockSvc, outboundSvc: outboundSvc, svc: svc}
}

// pickingOrder creates an outbound order in picking with the given plan
// items, each backed by enough stock.
func (f *fixture) pickingOrder(t *testing.T, warehouseID id.ID, items ...outbound.Item) *outbound.Order {
	t.Helper()
	ctx := context.Background()

	order := outbound.NewOrder(warehouseID, id.New(), "tester")
	for _, it := range items {
		order.AddItem(it.GoodsID, it.LocationID, it.BatchNo, it.PlanQuantity)
	}
	require.NoError(t, f.outboundSvc.Create(ctx, order))

	for i := range order.Items {
		key := order.Items[i].StockKey(warehouseID)
		_, err := f.stockSvc.Adjust(ctx, key, qty(1000), entity.OpInbound, stock.PostingRef{
			BusinessType: "seed",
			BusinessNo:   "SEED-" + order.Number,
			LineRef:      order.Items[i].LineID.String(),
			Operator:     "tester",
		})
		require.NoError(t, err)
	}

	require.NoError(t, f.outboundSvc.Audit(ctx, order.ID))
	require.NoError(t, f.outboundSvc.StartPicking(ctx, order.ID))
	return order
}

func item(goodsID, locationID id.ID, batchNo string, plan types.Quantity) outbound.Item {
	return outbound.Item{GoodsID: goodsID, LocationID: locationID, BatchNo: batchNo, PlanQuantity: plan}
}

func TestRelease_ConsolidatesTasksAcrossOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	warehouseID := id.New()
	goodsID, locationID := id.New(), id.New()

	// Two orders wanting the same (location, goods, batch) merge into one task.
	orderA := f.pickingOrder(t, warehouseID, item(goodsID, locationID, "B-001", qty(30)))
	orderB := f.pickingOrder(t, warehouseID, item(goodsID, locationID, "B-001", qty(20)))

	wave := picking.NewWave(warehouseID, "tester")
	require.NoError(t, f.svc.Create(ctx, wave))
	require.NoError(t, f.svc.AddOrder(ctx, wave.ID, orderA.ID))
	require.NoError(t, f.svc.AddOrder(ctx, wave.ID, orderB.ID))
	require.NoError(t, f.svc.Release(ctx, wave.ID))

	got, err := f.svc.GetByID(ctx, wave.ID)
	require.NoError(t, err)
	assert.Equal(t, picking.WaveReleased, got.Status)
	require.Len(t, got.Tasks, 1)

	task := got.Tasks[0]
	assert.Equal(t, qty(50), task.RequiredQuantity)
	require.Len(t, task.Allocations, 2)
	assert.Equal(t, qty(30), task.Allocations[0].Quantity)
	assert.Equal(t, qty(20), task.Allocations[1].Quantity)
}

func TestCompleteTask_DistributesFullPick(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	warehouseID := id.New()
	goodsID, locationID := id.New(), id.New()
	orderA := f.pickingOrder(t, warehouseID, item(goodsID, locationID, "B-001", qty(30)))
	orderB := f.pickingOrder(t, warehouseID, item(goodsID, locationID, "B-001", qty(20)))

	wave := picking.NewWave(warehouseID, "tester")
	require.NoError(t, f.svc.Create(ctx, wave))
	require.NoError(t, f.svc.AddOrder(ctx, wave.ID, orderA.ID))
	require.NoError(t, f.svc.AddOrder(ctx, wave.ID, orderB.ID))
	require.NoError(t, f.svc.Release(ctx, wave.ID))

	got, err := f.svc.GetByID(ctx, wave.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.CompleteTask(ctx, wave.ID, got.Tasks[0].TaskID, qty(50)))

	gotA, err := f.outboundSvc.GetByID(ctx, orderA.ID)
	require.NoError(t, err)
	assert.Equal(t, qty(30), gotA.Items[0].PickedQuantity)

	gotB, err := f.outboundSvc.GetByID(ctx, orderB.ID)
	require.NoError(t, err)
	assert.Equal(t, qty(20), gotB.Items[0].PickedQuantity)

	// Last task settled: wave completes and releases membership.
	done, err := f.svc.GetByID(ctx, wave.ID)
	require.NoError(t, err)
	assert.Equal(t, picking.WaveCompleted, done.Status)
	assert.Nil(t, gotA.WaveID)
	assert.Nil(t, gotB.WaveID)
}

func TestCompleteTask_ShortPickShortensTail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	warehouseID := id.New()
	goodsID, locationID := id.New(), id.New()
	orderA := f.pickingOrder(t, warehouseID, item(goodsID, locationID, "B-001", qty(30)))
	orderB := f.pickingOrder(t, warehouseID, item(goodsID, locationID, "B-001", qty(20)))

	wave := picking.NewWave(warehouseID, "tester")
	require.NoError(t, f.svc.Create(ctx, wave))
	require.NoError(t, f.svc.AddOrder(ctx, wave.ID, orderA.ID))
	require.NoError(t, f.svc.AddOrder(ctx, wave.ID, orderB.ID))
	require.NoError(t, f.svc.Release(ctx, wave.ID))

	got, err := f.svc.GetByID(ctx, wave.ID)
	require.NoError(t, err)
	// 35 picked of the required 50: the first allocation gets its full 30,
	// the second only 5.
	require.NoError(t, f.svc.CompleteTask(ctx, wave.ID, got.Tasks[0].TaskID, qty(35)))

	gotA, err := f.outboundSvc.GetByID(ctx, orderA.ID)
	require.NoError(t, err)
	assert.Equal(t, qty(30), gotA.Items[0].PickedQuantity)

	gotB, err := f.outboundSvc.GetByID(ctx, orderB.ID)
	require.NoError(t, err)
	assert.Equal(t, qty(5), gotB.Items[0].PickedQuantity)
}

func TestCompleteTask_CannotExceedRequired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	warehouseID := id.New()
	order := f.pickingOrder(t, warehouseID, item(id.New(), id.New(), "B-001", qty(30)))

	wave := picking.NewWave(warehouseID, "tester")
	require.NoError(t, f.svc.Create(ctx, wave))
	require.NoError(t, f.svc.AddOrder(ctx, wave.ID, order.ID))
	require.NoError(t, f.svc.Release(ctx, wave.ID))

	got, err := f.svc.GetByID(ctx, wave.ID)
	require.NoError(t, err)
	err = f.svc.CompleteTask(ctx, wave.ID, got.Tasks[0].TaskID, qty(40))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestAddOrder_RequiresDraftWaveAndPickingOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	warehouseID := id.New()
	order := f.pickingOrder(t, warehouseID, item(id.New(), id.New(), "B-001", qty(10)))

	wave := picking.NewWave(warehouseID, "tester")
	require.NoError(t, f.svc.Create(ctx, wave))

	// A draft outbound order cannot join.
	draft := outbound.NewOrder(warehouseID, id.New(), "tester")
	draft.AddItem(id.New(), id.New(), "B-002", qty(5))
	require.NoError(t, f.outboundSvc.Create(ctx, draft))
	require.Error(t, f.svc.AddOrder(ctx, wave.ID, draft.ID))

	require.NoError(t, f.svc.AddOrder(ctx, wave.ID, order.ID))
	// Adding the same order twice is a no-op.
	require.NoError(t, f.svc.AddOrder(ctx, wave.ID, order.ID))
	require.NoError(t, f.svc.Release(ctx, wave.ID))

	// A released wave accepts no more members.
	other := f.pickingOrder(t, warehouseID, item(id.New(), id.New(), "B-003", qty(5)))
	assert.True(t, apperror.IsInvalidTransition(f.svc.AddOrder(ctx, wave.ID, other.ID)))
}

func TestAddOrder_ClaimsExclusiveMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	warehouseID := id.New()
	order := f.pickingOrder(t, warehouseID, item(id.New(), id.New(), "B-001", qty(10)))

	waveA := picking.NewWave(warehouseID, "tester")
	require.NoError(t, f.svc.Create(ctx, waveA))
	require.NoError(t, f.svc.AddOrder(ctx, waveA.ID, order.ID))

	waveB := picking.NewWave(warehouseID, "tester")
	require.NoError(t, f.svc.Create(ctx, waveB))
	err := f.svc.AddOrder(ctx, waveB.ID, order.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)

	// Removing from the first wave frees the order for the second.
	require.NoError(t, f.svc.RemoveOrder(ctx, waveA.ID, order.ID))
	require.NoError(t, f.svc.AddOrder(ctx, waveB.ID, order.ID))
}

func TestRelease_RejectsEmptyWave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wave := picking.NewWave(id.New(), "tester")
	require.NoError(t, f.svc.Create(ctx, wave))

	require.Error(t, f.svc.Release(ctx, wave.ID))

	got, err := f.svc.GetByID(ctx, wave.ID)
	require.NoError(t, err)
	assert.Equal(t, picking.WaveDraft, got.Status)
}

func TestCancel_ReleasesMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	warehouseID := id.New()
	order := f.pickingOrder(t, warehouseID, item(id.New(), id.New(), "B-001", qty(10)))

	wave := picking.NewWave(warehouseID, "tester")
	require.NoError(t, f.svc.Create(ctx, wave))
	require.NoError(t, f.svc.AddOrder(ctx, wave.ID, order.ID))
	require.NoError(t, f.svc.Release(ctx, wave.ID))
	require.NoError(t, f.svc.Cancel(ctx, wave.ID))

	got, err := f.svc.GetByID(ctx, wave.ID)
	require.NoError(t, err)
	assert.Equal(t, picking.WaveCancelled, got.Status)
	for _, task := range got.Tasks {
		assert.Equal(t, picking.TaskCancelled, task.Status)
	}

	// The order is free again and continues its own flow.
	gotOrder, err := f.outboundSvc.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, gotOrder.WaveID)
	require.NoError(t, f.outboundSvc.MarkReadyToShip(ctx, order.ID))
}

func TestCancelTask_SettlesWithoutPicks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	warehouseID := id.New()
	order := f.pickingOrder(t, warehouseID, item(id.New(), id.New(), "B-001", qty(10)))

	wave := picking.NewWave(warehouseID, "tester")
	require.NoError(t, f.svc.Create(ctx, wave))
	require.NoError(t, f.svc.AddOrder(ctx, wave.ID, order.ID))
	require.NoError(t, f.svc.Release(ctx, wave.ID))

	got, err := f.svc.GetByID(ctx, wave.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.CancelTask(ctx, wave.ID, got.Tasks[0].TaskID))

	done, err := f.svc.GetByID(ctx, wave.ID)
	require.NoError(t, err)
	assert.Equal(t, picking.WaveCompleted, done.Status)

	gotOrder, err := f.outboundSvc.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, gotOrder.Items[0].PickedQuantity.IsZero())
}

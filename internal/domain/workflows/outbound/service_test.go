package outbound_test

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
	"kardex/internal/domain/ledger"
	"kardex/internal/domain/stock"
	"kardex/internal/domain/workflows/outbound"
	"kardex/internal/infrastructure/memory"
)

func qty(v int64) types.Quantity {
	return types.NewQuantityFromInt(v)
}

type fixture struct {
	store    *memory.Store
	stockSvc *stock.Service
	svc      *outbound.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	stockSvc := stock.NewService(store.StockRepository(), store.LedgerRepository(), store)
	svc := outbound.NewService(store.OutboundRepository(), stockSvc, &numerator.MockGenerator{}, store, store.Trail())
	return &fixture{store: store, stockSvc: stockSvc, svc: svc}
}

// seedStock puts opening quantity on the item's stock key.
func (f *fixture) seedStock(t *testing.T, order *outbound.Order, line int, quantity types.Quantity) entity.StockKey {
	t.Helper()
	key := order.Items[line].StockKey(order.WarehouseID)
	_, err := f.stockSvc.Adjust(context.Background(), key, quantity, entity.OpInbound, stock.PostingRef{
		BusinessType: "seed",
		BusinessNo:   "SEED-" + key.BatchNo,
		LineRef:      order.Items[line].LineID.String(),
		Operator:     "tester",
	})
	require.NoError(t, err)
	return key
}

func newOrder(planQty types.Quantity) *outbound.Order {
	order := outbound.NewOrder(id.New(), id.New(), "tester")
	order.AddItem(id.New(), id.New(), "B-001", planQty)
	return order
}

func TestStartPicking_ReservesPlanQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := newOrder(qty(30))
	require.NoError(t, f.svc.Create(ctx, order))
	key := f.seedStock(t, order, 0, qty(100))

	require.NoError(t, f.svc.Audit(ctx, order.ID))
	require.NoError(t, f.svc.StartPicking(ctx, order.ID))

	rec, err := f.stockSvc.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, qty(100), rec.Quantity)
	assert.Equal(t, qty(30), rec.LockQuantity)
	assert.Equal(t, qty(70), rec.Available())
}

func TestStartPicking_InsufficientStockRollsBackReservations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := outbound.NewOrder(id.New(), id.New(), "tester")
	order.AddItem(id.New(), id.New(), "B-001", qty(10))
	order.AddItem(id.New(), id.New(), "B-002", qty(50))
	require.NoError(t, f.svc.Create(ctx, order))

	firstKey := f.seedStock(t, order, 0, qty(100))
	// Second line has only 20 available, the plan of 50 must fail.
	f.seedStock(t, order, 1, qty(20))

	require.NoError(t, f.svc.Audit(ctx, order.ID))
	err := f.svc.StartPicking(ctx, order.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	// The first line's reservation was rolled back with the transaction.
	rec, err := f.stockSvc.Get(ctx, firstKey)
	require.NoError(t, err)
	assert.True(t, rec.LockQuantity.IsZero())

	got, err := f.svc.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, outbound.StatusAudited, got.Status)
}

func TestComplete_ConsumesShippedAndReleasesLeftover(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := newOrder(qty(30))
	require.NoError(t, f.svc.Create(ctx, order))
	key := f.seedStock(t, order, 0, qty(100))

	require.NoError(t, f.svc.Audit(ctx, order.ID))
	require.NoError(t, f.svc.StartPicking(ctx, order.ID))
	require.NoError(t, f.svc.RecordPick(ctx, order.ID, order.Items[0].LineID, qty(25)))
	require.NoError(t, f.svc.MarkReadyToShip(ctx, order.ID))
	require.NoError(t, f.svc.Complete(ctx, order.ID))

	// 25 shipped; the remaining 5 of the 30 reservation released.
	rec, err := f.stockSvc.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, qty(75), rec.Quantity)
	assert.True(t, rec.LockQuantity.IsZero())

	got, err := f.svc.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, outbound.StatusCompleted, got.Status)
	assert.True(t, got.Items[0].ReservedQuantity.IsZero())

	ledgerSvc := ledger.NewService(f.store.LedgerRepository())
	entries, err := ledgerSvc.OrderPostings(ctx, got.Number)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.OpOutbound, entries[0].Operation)
	assert.Equal(t, qty(100), entries[0].QuantityBefore)
	assert.Equal(t, qty(-25), entries[0].QuantityChange)
	assert.Equal(t, qty(75), entries[0].QuantityAfter)
}

func TestRecordPick_CannotExceedPlan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := newOrder(qty(30))
	require.NoError(t, f.svc.Create(ctx, order))
	f.seedStock(t, order, 0, qty(100))

	require.NoError(t, f.svc.Audit(ctx, order.ID))
	require.NoError(t, f.svc.StartPicking(ctx, order.ID))
	require.NoError(t, f.svc.RecordPick(ctx, order.ID, order.Items[0].LineID, qty(20)))

	err := f.svc.RecordPick(ctx, order.ID, order.Items[0].LineID, qty(15))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestRecordShipment_CannotExceedReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := newOrder(qty(30))
	require.NoError(t, f.svc.Create(ctx, order))
	f.seedStock(t, order, 0, qty(100))

	require.NoError(t, f.svc.Audit(ctx, order.ID))
	require.NoError(t, f.svc.StartPicking(ctx, order.ID))
	require.NoError(t, f.svc.MarkReadyToShip(ctx, order.ID))

	require.Error(t, f.svc.RecordShipment(ctx, order.ID, order.Items[0].LineID, qty(40)))
	require.NoError(t, f.svc.RecordShipment(ctx, order.ID, order.Items[0].LineID, qty(30)))
}

func TestCancel_ReleasesOutstandingReservations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := newOrder(qty(30))
	require.NoError(t, f.svc.Create(ctx, order))
	key := f.seedStock(t, order, 0, qty(100))

	require.NoError(t, f.svc.Audit(ctx, order.ID))
	require.NoError(t, f.svc.StartPicking(ctx, order.ID))
	require.NoError(t, f.svc.Cancel(ctx, order.ID))

	rec, err := f.stockSvc.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, qty(100), rec.Quantity)
	assert.True(t, rec.LockQuantity.IsZero())

	// Terminal: completing a cancelled order is refused.
	assert.True(t, apperror.IsInvalidTransition(f.svc.Complete(ctx, order.ID)))
}

func TestWaveMembership_IsExclusive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := newOrder(qty(10))
	require.NoError(t, f.svc.Create(ctx, order))
	f.seedStock(t, order, 0, qty(100))
	require.NoError(t, f.svc.Audit(ctx, order.ID))
	require.NoError(t, f.svc.StartPicking(ctx, order.ID))

	waveA, waveB := id.New(), id.New()
	require.NoError(t, f.svc.AttachToWave(ctx, order.ID, waveA))
	// Re-attaching to the same wave is fine, another wave is not.
	require.NoError(t, f.svc.AttachToWave(ctx, order.ID, waveA))
	err := f.svc.AttachToWave(ctx, order.ID, waveB)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)

	require.NoError(t, f.svc.DetachFromWave(ctx, order.ID))
	require.NoError(t, f.svc.DetachFromWave(ctx, order.ID))
	require.NoError(t, f.svc.AttachToWave(ctx, order.ID, waveB))
}

func TestAttachToWave_RequiresPickingStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := newOrder(qty(10))
	require.NoError(t, f.svc.Create(ctx, order))

	assert.True(t, apperror.IsInvalidTransition(f.svc.AttachToWave(ctx, order.ID, id.New())))
}

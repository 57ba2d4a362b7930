package stockmove_test

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
	"kardex/internal/domain/workflows/stockmove"
	"kardex/internal/infrastructure/memory"
)

func qty(v int64) types.Quantity {
	return types.NewQuantityFromInt(v)
}

type fixture struct {
	store    *memory.Store
	stockSvc *stock.Service
	svc      *stockmove.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	stockSvc := stock.NewService(store.StockRepository(), store.LedgerRepository(), store)
	svc := stockmove.NewService(store.MoveRepository(), stockSvc, &numerator.MockGenerator{}, store, store.Trail())
	return &fixture{store: store, stockSvc: stockSvc, svc: svc}
}

func (f *fixture) seed(t *testing.T, key entity.StockKey, quantity types.Quantity) {
	t.Helper()
	_, err := f.stockSvc.Adjust(context.Background(), key, quantity, entity.OpInbound, stock.PostingRef{
		BusinessType: "seed",
		BusinessNo:   "SEED-" + key.LocationID.String(),
		LineRef:      "1",
		Operator:     "tester",
	})
	require.NoError(t, err)
}

func TestExecute_PostsBothLegs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := stockmove.NewOrder(id.New(), "tester")
	item := order.AddItem(id.New(), id.New(), id.New(), "B-001", qty(40))
	require.NoError(t, f.svc.Create(ctx, order))

	from := item.FromKey(order.WarehouseID)
	to := item.ToKey(order.WarehouseID)
	f.seed(t, from, qty(100))

	require.NoError(t, f.svc.Execute(ctx, order.ID))

	src, err := f.stockSvc.Get(ctx, from)
	require.NoError(t, err)
	assert.Equal(t, qty(60), src.Quantity)

	dst, err := f.stockSvc.Get(ctx, to)
	require.NoError(t, err)
	assert.Equal(t, qty(40), dst.Quantity)

	ledgerSvc := ledger.NewService(f.store.LedgerRepository())
	entries, err := ledgerSvc.OrderPostings(ctx, order.Number)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	ops := map[entity.OperationType]types.Quantity{}
	for _, e := range entries {
		ops[e.Operation] = e.QuantityChange
	}
	assert.Equal(t, qty(-40), ops[entity.OpMoveOut])
	assert.Equal(t, qty(40), ops[entity.OpMoveIn])
}

func TestExecute_InsufficientSourceRollsBackEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := stockmove.NewOrder(id.New(), "tester")
	first := order.AddItem(id.New(), id.New(), id.New(), "B-001", qty(10))
	second := order.AddItem(id.New(), id.New(), id.New(), "B-002", qty(50))
	require.NoError(t, f.svc.Create(ctx, order))

	f.seed(t, first.FromKey(order.WarehouseID), qty(100))
	// Second source holds only 20, the move of 50 must fail.
	f.seed(t, second.FromKey(order.WarehouseID), qty(20))

	err := f.svc.Execute(ctx, order.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	// The first item's legs were rolled back with the transaction.
	src, err := f.stockSvc.Get(ctx, first.FromKey(order.WarehouseID))
	require.NoError(t, err)
	assert.Equal(t, qty(100), src.Quantity)

	dst, err := f.stockSvc.Get(ctx, first.ToKey(order.WarehouseID))
	require.NoError(t, err)
	assert.True(t, dst.Quantity.IsZero())

	got, err := f.svc.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, stockmove.StatusPending, got.Status)
}

func TestExecute_CannotMoveLockedStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := stockmove.NewOrder(id.New(), "tester")
	item := order.AddItem(id.New(), id.New(), id.New(), "B-001", qty(40))
	require.NoError(t, f.svc.Create(ctx, order))

	from := item.FromKey(order.WarehouseID)
	f.seed(t, from, qty(100))
	// 70 reserved leaves 30 available, the move of 40 must fail.
	require.NoError(t, f.stockSvc.Reserve(ctx, from, qty(70)))

	err := f.svc.Execute(ctx, order.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
}

func TestComplete_RequiresExecution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := stockmove.NewOrder(id.New(), "tester")
	item := order.AddItem(id.New(), id.New(), id.New(), "B-001", qty(10))
	require.NoError(t, f.svc.Create(ctx, order))

	assert.True(t, apperror.IsInvalidTransition(f.svc.Complete(ctx, order.ID)))

	f.seed(t, item.FromKey(order.WarehouseID), qty(10))
	require.NoError(t, f.svc.Execute(ctx, order.ID))
	require.NoError(t, f.svc.Complete(ctx, order.ID))

	got, err := f.svc.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, stockmove.StatusCompleted, got.Status)
}

func TestCancel_OnlyBeforeExecution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := stockmove.NewOrder(id.New(), "tester")
	item := order.AddItem(id.New(), id.New(), id.New(), "B-001", qty(10))
	require.NoError(t, f.svc.Create(ctx, order))

	f.seed(t, item.FromKey(order.WarehouseID), qty(10))
	require.NoError(t, f.svc.Execute(ctx, order.ID))

	assert.True(t, apperror.IsInvalidTransition(f.svc.Cancel(ctx, order.ID)))
}

func TestValidate_RejectsSameSourceAndDestination(t *testing.T) {
	f := newFixture(t)

	order := stockmove.NewOrder(id.New(), "tester")
	loc := id.New()
	order.AddItem(id.New(), loc, loc, "B-001", qty(10))

	err := f.svc.Create(context.Background(), order)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

package stocktaking_test

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
	"kardex/internal/domain/workflows/stocktaking"
	"kardex/internal/infrastructure/memory"
)

func qty(v int64) types.Quantity {
	return types.NewQuantityFromInt(v)
}

type fixture struct {
	store    *memory.Store
	stockSvc *stock.Service
	svc      *stocktaking.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	stockSvc := stock.NewService(store.StockRepository(), store.LedgerRepository(), store)
	svc := stocktaking.NewService(store.TakingRepository(), stockSvc, &numerator.MockGenerator{}, store, store.Trail())
	return &fixture{store: store, stockSvc: stockSvc, svc: svc}
}

func (f *fixture) seed(t *testing.T, warehouseID id.ID, batchNo string, quantity types.Quantity) entity.StockKey {
	t.Helper()
	key := entity.StockKey{
		WarehouseID: warehouseID,
		GoodsID:     id.New(),
		LocationID:  id.New(),
		BatchNo:     batchNo,
	}
	_, err := f.stockSvc.Adjust(context.Background(), key, quantity, entity.OpInbound, stock.PostingRef{
		BusinessType: "seed",
		BusinessNo:   "SEED-" + batchNo,
		LineRef:      "1",
		Operator:     "tester",
	})
	require.NoError(t, err)
	return key
}

// startedPlan seeds one stock record and brings a plan over it in progress.
func startedPlan(t *testing.T, f *fixture, book types.Quantity) (*stocktaking.Plan, entity.StockKey) {
	t.Helper()
	ctx := context.Background()
	warehouseID := id.New()
	key := f.seed(t, warehouseID, "B-001", book)

	plan := stocktaking.NewPlan(warehouseID, "tester")
	require.NoError(t, f.svc.Create(ctx, plan))
	require.NoError(t, f.svc.Start(ctx, plan.ID))

	got, err := f.svc.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	return got, key
}

func TestStart_SnapshotsBookQuantities(t *testing.T) {
	f := newFixture(t)
	plan, key := startedPlan(t, f, qty(100))

	assert.Equal(t, stocktaking.PlanInProgress, plan.Status)
	line := plan.Lines[0]
	assert.Equal(t, key, line.StockKey(plan.WarehouseID))
	assert.Equal(t, qty(100), line.BookQuantity)
	assert.Equal(t, stocktaking.LinePending, line.Status)
}

func TestStart_EmptyScopeIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	plan := stocktaking.NewPlan(id.New(), "tester")
	require.NoError(t, f.svc.Create(ctx, plan))
	require.Error(t, f.svc.Start(ctx, plan.ID))

	got, err := f.svc.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, stocktaking.PlanDraft, got.Status)
}

func TestAdjust_PostsShortageAndCompletesPlan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plan, key := startedPlan(t, f, qty(100))
	lineID := plan.Lines[0].LineID

	require.NoError(t, f.svc.Count(ctx, plan.ID, lineID, qty(95)))
	require.NoError(t, f.svc.Review(ctx, plan.ID, lineID))
	require.NoError(t, f.svc.Adjust(ctx, plan.ID, lineID))

	rec, err := f.stockSvc.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, qty(95), rec.Quantity)

	got, err := f.svc.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, stocktaking.PlanCompleted, got.Status)
	assert.Equal(t, 1, got.CompletedCount)
	assert.Equal(t, 1, got.DiffCount)

	ledgerSvc := ledger.NewService(f.store.LedgerRepository())
	entries, err := ledgerSvc.OrderPostings(ctx, got.Number)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.OpTakingAdjust, entries[0].Operation)
	assert.Equal(t, qty(-5), entries[0].QuantityChange)
}

func TestAdjust_ZeroDifferenceSettlesWithoutPosting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plan, key := startedPlan(t, f, qty(100))
	lineID := plan.Lines[0].LineID

	require.NoError(t, f.svc.Count(ctx, plan.ID, lineID, qty(100)))
	require.NoError(t, f.svc.Review(ctx, plan.ID, lineID))
	require.NoError(t, f.svc.Adjust(ctx, plan.ID, lineID))

	got, err := f.svc.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, stocktaking.PlanCompleted, got.Status)
	assert.Equal(t, 0, got.DiffCount)

	ledgerSvc := ledger.NewService(f.store.LedgerRepository())
	entries, err := ledgerSvc.OrderPostings(ctx, got.Number)
	require.NoError(t, err)
	assert.Empty(t, entries)

	rec, err := f.stockSvc.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, qty(100), rec.Quantity)
}

func TestAdjust_RequiresReviewedLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plan, _ := startedPlan(t, f, qty(100))
	lineID := plan.Lines[0].LineID

	// Pending line cannot be adjusted.
	assert.True(t, apperror.IsInvalidTransition(f.svc.Adjust(ctx, plan.ID, lineID)))

	require.NoError(t, f.svc.Count(ctx, plan.ID, lineID, qty(90)))
	// Counted but not reviewed.
	assert.True(t, apperror.IsInvalidTransition(f.svc.Adjust(ctx, plan.ID, lineID)))
}

func TestExclude_SettlesWithoutAdjustment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plan, key := startedPlan(t, f, qty(100))
	lineID := plan.Lines[0].LineID

	require.NoError(t, f.svc.Exclude(ctx, plan.ID, lineID))

	got, err := f.svc.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, stocktaking.PlanCompleted, got.Status)
	assert.Equal(t, 1, got.CompletedCount)
	assert.Equal(t, 0, got.DiffCount)

	rec, err := f.stockSvc.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, qty(100), rec.Quantity)
}

func TestCount_RejectsNegativeActual(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plan, _ := startedPlan(t, f, qty(100))

	err := f.svc.Count(ctx, plan.ID, plan.Lines[0].LineID, qty(-1))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestCancel_KeepsPostedAdjustments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	warehouseID := id.New()
	keyA := f.seed(t, warehouseID, "B-001", qty(100))
	f.seed(t, warehouseID, "B-002", qty(50))

	plan := stocktaking.NewPlan(warehouseID, "tester")
	require.NoError(t, f.svc.Create(ctx, plan))
	require.NoError(t, f.svc.Start(ctx, plan.ID))

	got, err := f.svc.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)

	// Settle the first line with a shortage, then abandon the plan.
	var first stocktaking.Line
	for _, l := range got.Lines {
		if l.BatchNo == keyA.BatchNo {
			first = l
		}
	}
	require.NoError(t, f.svc.Count(ctx, plan.ID, first.LineID, qty(90)))
	require.NoError(t, f.svc.Review(ctx, plan.ID, first.LineID))
	require.NoError(t, f.svc.Adjust(ctx, plan.ID, first.LineID))
	require.NoError(t, f.svc.Cancel(ctx, plan.ID))

	cancelled, err := f.svc.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, stocktaking.PlanCancelled, cancelled.Status)

	// The posted shortage is not reversed by the cancel.
	rec, err := f.stockSvc.Get(ctx, keyA)
	require.NoError(t, err)
	assert.Equal(t, qty(90), rec.Quantity)

	// Counting on a cancelled plan is refused.
	assert.True(t, apperror.IsInvalidTransition(f.svc.Count(ctx, plan.ID, first.LineID, qty(1))))
}

func TestScope_NarrowsToGoods(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	warehouseID := id.New()
	keyA := f.seed(t, warehouseID, "B-001", qty(100))
	f.seed(t, warehouseID, "B-002", qty(50))

	plan := stocktaking.NewPlan(warehouseID, "tester")
	plan.GoodsID = &keyA.GoodsID
	require.NoError(t, f.svc.Create(ctx, plan))
	require.NoError(t, f.svc.Start(ctx, plan.ID))

	got, err := f.svc.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, keyA.GoodsID, got.Lines[0].GoodsID)
}

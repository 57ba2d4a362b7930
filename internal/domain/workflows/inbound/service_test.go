package inbound_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kardex/internal/core/apperror"
	"kardex/internal/core/entity"
	"kardex/internal/core/id"
	"kardex/internal/core/numerator"
	"kardex/internal/core/types"
	"kardex/internal/domain/ledger"
	"kardex/internal/domain/stock"
	"kardex/internal/domain/workflows/inbound"
	"kardex/internal/infrastructure/memory"
)

func qty(v int64) types.Quantity {
	return types.NewQuantityFromInt(v)
}

type fixture struct {
	store    *memory.Store
	stockSvc *stock.Service
	svc      *inbound.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	stockSvc := stock.NewService(store.StockRepository(), store.LedgerRepository(), store)
	svc := inbound.NewService(store.InboundRepository(), stockSvc, &numerator.MockGenerator{}, store, store.Trail())
	return &fixture{store: store, stockSvc: stockSvc, svc: svc}
}

func newOrder(items int) *inbound.Order {
	order := inbound.NewOrder(id.New(), id.New(), "tester")
	for i := 0; i < items; i++ {
		order.AddItem(id.New(), id.New(), "B-001", qty(100))
	}
	return order
}

func TestCreate_AssignsNumberAndPersistsItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := newOrder(2)
	require.NoError(t, f.svc.Create(ctx, order))
	assert.NotEmpty(t, order.Number)

	got, err := f.svc.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, inbound.StatusDraft, got.Status)
	assert.Len(t, got.Items, 2)
}

func TestCreate_RejectsEmptyOrder(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Create(context.Background(), newOrder(0))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestComplete_PostsQualifiedQuantityOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := newOrder(1)
	require.NoError(t, f.svc.Create(ctx, order))
	require.NoError(t, f.svc.Audit(ctx, order.ID))
	require.NoError(t, f.svc.StartReceiving(ctx, order.ID))

	expire := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.svc.RecordReceipt(ctx, order.ID, []inbound.Receipt{{
		LineID:              order.Items[0].LineID,
		ReceivedQuantity:    qty(100),
		QualifiedQuantity:   qty(95),
		UnqualifiedQuantity: qty(5),
		ExpireDate:          &expire,
	}}))
	require.NoError(t, f.svc.Complete(ctx, order.ID))

	got, err := f.svc.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, inbound.StatusCompleted, got.Status)

	key := got.Items[0].StockKey(got.WarehouseID)
	rec, err := f.stockSvc.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, qty(95), rec.Quantity)
	require.NotNil(t, rec.ExpireDate)
	assert.True(t, expire.Equal(*rec.ExpireDate))

	ledgerSvc := ledger.NewService(f.store.LedgerRepository())
	entries, err := ledgerSvc.OrderPostings(ctx, got.Number)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.OpInbound, entries[0].Operation)
	assert.Equal(t, qty(95), entries[0].QuantityChange)
}

func TestComplete_SkipsLinesWithNoQualifiedQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := newOrder(2)
	require.NoError(t, f.svc.Create(ctx, order))
	require.NoError(t, f.svc.Audit(ctx, order.ID))
	require.NoError(t, f.svc.StartReceiving(ctx, order.ID))

	// Only the first line qualifies; the second was fully rejected.
	require.NoError(t, f.svc.RecordReceipt(ctx, order.ID, []inbound.Receipt{
		{LineID: order.Items[0].LineID, ReceivedQuantity: qty(50), QualifiedQuantity: qty(50)},
		{LineID: order.Items[1].LineID, ReceivedQuantity: qty(10), UnqualifiedQuantity: qty(10)},
	}))
	require.NoError(t, f.svc.Complete(ctx, order.ID))

	got, err := f.svc.GetByID(ctx, order.ID)
	require.NoError(t, err)

	rejected, err := f.stockSvc.Get(ctx, got.Items[1].StockKey(got.WarehouseID))
	require.NoError(t, err)
	assert.True(t, rejected.Quantity.IsZero())
}

func TestRecordReceipt_RejectsSplitExceedingReceived(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := newOrder(1)
	require.NoError(t, f.svc.Create(ctx, order))
	require.NoError(t, f.svc.Audit(ctx, order.ID))
	require.NoError(t, f.svc.StartReceiving(ctx, order.ID))

	err := f.svc.RecordReceipt(ctx, order.ID, []inbound.Receipt{{
		LineID:              order.Items[0].LineID,
		ReceivedQuantity:    qty(10),
		QualifiedQuantity:   qty(8),
		UnqualifiedQuantity: qty(5),
	}})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestRecordReceipt_RequiresReceivingStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := newOrder(1)
	require.NoError(t, f.svc.Create(ctx, order))

	err := f.svc.RecordReceipt(ctx, order.ID, []inbound.Receipt{{
		LineID:           order.Items[0].LineID,
		ReceivedQuantity: qty(10),
	}})
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestTransitions_RejectSkippingStates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := newOrder(1)
	require.NoError(t, f.svc.Create(ctx, order))

	// Draft cannot go straight to Receiving or Completed.
	assert.True(t, apperror.IsInvalidTransition(f.svc.StartReceiving(ctx, order.ID)))
	assert.True(t, apperror.IsInvalidTransition(f.svc.Complete(ctx, order.ID)))
}

func TestCancel_BlocksFurtherTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := newOrder(1)
	require.NoError(t, f.svc.Create(ctx, order))
	require.NoError(t, f.svc.Cancel(ctx, order.ID))

	got, err := f.svc.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, inbound.StatusCancelled, got.Status)

	assert.True(t, apperror.IsInvalidTransition(f.svc.Audit(ctx, order.ID)))
	assert.True(t, apperror.IsInvalidTransition(f.svc.Cancel(ctx, order.ID)))
}

func TestUpdate_OnlyDraftOrdersAreEditable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := newOrder(1)
	require.NoError(t, f.svc.Create(ctx, order))
	require.NoError(t, f.svc.Audit(ctx, order.ID))

	got, err := f.svc.GetByID(ctx, order.ID)
	require.NoError(t, err)
	got.Remark = "late edit"
	require.Error(t, f.svc.Update(ctx, got))
}

func TestDelete_KeepsCompletedOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := newOrder(1)
	require.NoError(t, f.svc.Create(ctx, order))
	require.NoError(t, f.svc.Audit(ctx, order.ID))
	require.NoError(t, f.svc.StartReceiving(ctx, order.ID))
	require.NoError(t, f.svc.RecordReceipt(ctx, order.ID, []inbound.Receipt{{
		LineID:            order.Items[0].LineID,
		ReceivedQuantity:  qty(10),
		QualifiedQuantity: qty(10),
	}}))
	require.NoError(t, f.svc.Complete(ctx, order.ID))

	require.Error(t, f.svc.Delete(ctx, order.ID))

	draft := newOrder(1)
	require.NoError(t, f.svc.Create(ctx, draft))
	require.NoError(t, f.svc.Delete(ctx, draft.ID))
	_, err := f.svc.GetByID(ctx, draft.ID)
	assert.True(t, apperror.IsNotFound(err))
}

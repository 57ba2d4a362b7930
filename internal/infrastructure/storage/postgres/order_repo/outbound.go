package order_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"kardex/internal/core/id"
	"kardex/internal/domain"
	"kardex/internal/domain/workflows/outbound"
	"kardex/internal/infrastructure/storage/postgres"
)

const (
	outboundTable      = "doc_outbound_orders"
	outboundItemsTable = "doc_outbound_items"
)

// OutboundRepo implements outbound.Repository.
type OutboundRepo struct {
	baseOrderRepo[outbound.Order, outbound.Item]
}

var _ outbound.Repository = (*OutboundRepo)(nil)

// NewOutboundRepo creates a new outbound order repository.
func NewOutboundRepo(txManager *postgres.TxManager) *OutboundRepo {
	return &OutboundRepo{
		baseOrderRepo: newBaseOrderRepo[outbound.Order, outbound.Item](
			txManager, "outbound order", outboundTable, outboundItemsTable),
	}
}

func (r *OutboundRepo) Create(ctx context.Context, order *outbound.Order) error {
	return r.create(ctx, order)
}

func (r *OutboundRepo) GetByID(ctx context.Context, orderID id.ID) (*outbound.Order, error) {
	return r.getByID(ctx, orderID)
}

func (r *OutboundRepo) GetByNumber(ctx context.Context, number string) (*outbound.Order, error) {
	return r.getByNumber(ctx, number)
}

func (r *OutboundRepo) Update(ctx context.Context, order *outbound.Order) error {
	return r.update(ctx, order)
}

func (r *OutboundRepo) Delete(ctx context.Context, orderID id.ID) error {
	return r.softDelete(ctx, orderID)
}

func (r *OutboundRepo) GetItems(ctx context.Context, orderID id.ID) ([]outbound.Item, error) {
	return r.getItems(ctx, orderID, "line_no")
}

func (r *OutboundRepo) SaveItems(ctx context.Context, orderID id.ID, items []outbound.Item) error {
	return r.saveItems(ctx, orderID, items)
}

func (r *OutboundRepo) List(ctx context.Context, filter outbound.ListFilter) (domain.ListResult[*outbound.Order], error) {
	q := r.baseSelect()

	if filter.CustomerID != nil {
		q = q.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
	}
	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.WaveID != nil {
		q = q.Where(squirrel.Eq{"wave_id": *filter.WaveID})
	}
	if filter.Unwaved {
		// Wave detachment nulls wave_id, so NULL means "free for waving".
		q = q.Where("wave_id IS NULL")
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.Lt{"date": *filter.DateTo})
	}

	return r.list(ctx, q, filter.ListFilter)
}

func (r *OutboundRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*outbound.Order, error) {
	return r.getForUpdate(ctx, orderID)
}

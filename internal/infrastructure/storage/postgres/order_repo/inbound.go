package order_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"kardex/internal/core/id"
	"kardex/internal/domain"
	"kardex/internal/domain/workflows/inbound"
	"kardex/internal/infrastructure/storage/postgres"
)

const (
	inboundTable      = "doc_inbound_orders"
	inboundItemsTable = "doc_inbound_items"
)

// InboundRepo implements inbound.Repository.
type InboundRepo struct {
	baseOrderRepo[inbound.Order, inbound.Item]
}

var _ inbound.Repository = (*InboundRepo)(nil)

// NewInboundRepo creates a new inbound order repository.
func NewInboundRepo(txManager *postgres.TxManager) *InboundRepo {
	return &InboundRepo{
		baseOrderRepo: newBaseOrderRepo[inbound.Order, inbound.Item](
			txManager, "inbound order", inboundTable, inboundItemsTable),
	}
}

func (r *InboundRepo) Create(ctx context.Context, order *inbound.Order) error {
	return r.create(ctx, order)
}

func (r *InboundRepo) GetByID(ctx context.Context, orderID id.ID) (*inbound.Order, error) {
	return r.getByID(ctx, orderID)
}

func (r *InboundRepo) GetByNumber(ctx context.Context, number string) (*inbound.Order, error) {
	return r.getByNumber(ctx, number)
}

func (r *InboundRepo) Update(ctx context.Context, order *inbound.Order) error {
	return r.update(ctx, order)
}

func (r *InboundRepo) Delete(ctx context.Context, orderID id.ID) error {
	return r.softDelete(ctx, orderID)
}

func (r *InboundRepo) GetItems(ctx context.Context, orderID id.ID) ([]inbound.Item, error) {
	return r.getItems(ctx, orderID, "line_no")
}

func (r *InboundRepo) SaveItems(ctx context.Context, orderID id.ID, items []inbound.Item) error {
	return r.saveItems(ctx, orderID, items)
}

func (r *InboundRepo) List(ctx context.Context, filter inbound.ListFilter) (domain.ListResult[*inbound.Order], error) {
	q := r.baseSelect()

	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}
	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.Lt{"date": *filter.DateTo})
	}

	return r.list(ctx, q, filter.ListFilter)
}

func (r *InboundRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*inbound.Order, error) {
	return r.getForUpdate(ctx, orderID)
}

package order_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"kardex/internal/core/id"
	"kardex/internal/domain"
	"kardex/internal/domain/workflows/stockmove"
	"kardex/internal/infrastructure/storage/postgres"
)

const (
	moveTable      = "doc_move_orders"
	moveItemsTable = "doc_move_items"
)

// MoveRepo implements stockmove.Repository.
type MoveRepo struct {
	baseOrderRepo[stockmove.Order, stockmove.Item]
}

var _ stockmove.Repository = (*MoveRepo)(nil)

// NewMoveRepo creates a new move order repository.
func NewMoveRepo(txManager *postgres.TxManager) *MoveRepo {
	return &MoveRepo{
		baseOrderRepo: newBaseOrderRepo[stockmove.Order, stockmove.Item](
			txManager, "move order", moveTable, moveItemsTable),
	}
}

func (r *MoveRepo) Create(ctx context.Context, order *stockmove.Order) error {
	return r.create(ctx, order)
}

func (r *MoveRepo) GetByID(ctx context.Context, orderID id.ID) (*stockmove.Order, error) {
	return r.getByID(ctx, orderID)
}

func (r *MoveRepo) GetByNumber(ctx context.Context, number string) (*stockmove.Order, error) {
	return r.getByNumber(ctx, number)
}

func (r *MoveRepo) Update(ctx context.Context, order *stockmove.Order) error {
	return r.update(ctx, order)
}

func (r *MoveRepo) Delete(ctx context.Context, orderID id.ID) error {
	return r.softDelete(ctx, orderID)
}

func (r *MoveRepo) GetItems(ctx context.Context, orderID id.ID) ([]stockmove.Item, error) {
	return r.getItems(ctx, orderID, "line_no")
}

func (r *MoveRepo) SaveItems(ctx context.Context, orderID id.ID, items []stockmove.Item) error {
	return r.saveItems(ctx, orderID, items)
}

func (r *MoveRepo) List(ctx context.Context, filter stockmove.ListFilter) (domain.ListResult[*stockmove.Order], error) {
	q := r.baseSelect()

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

func (r *MoveRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*stockmove.Order, error) {
	return r.getForUpdate(ctx, orderID)
}

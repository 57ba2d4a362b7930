package order_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"kardex/internal/core/id"
	"kardex/internal/domain"
	"kardex/internal/domain/workflows/stocktaking"
	"kardex/internal/infrastructure/storage/postgres"
)

const (
	takingTable      = "doc_taking_plans"
	takingLinesTable = "doc_taking_lines"
)

// TakingRepo implements stocktaking.Repository.
type TakingRepo struct {
	baseOrderRepo[stocktaking.Plan, stocktaking.Line]
}

var _ stocktaking.Repository = (*TakingRepo)(nil)

// NewTakingRepo creates a new taking plan repository.
func NewTakingRepo(txManager *postgres.TxManager) *TakingRepo {
	return &TakingRepo{
		baseOrderRepo: newBaseOrderRepo[stocktaking.Plan, stocktaking.Line](
			txManager, "taking plan", takingTable, takingLinesTable),
	}
}

func (r *TakingRepo) Create(ctx context.Context, plan *stocktaking.Plan) error {
	return r.create(ctx, plan)
}

func (r *TakingRepo) GetByID(ctx context.Context, planID id.ID) (*stocktaking.Plan, error) {
	return r.getByID(ctx, planID)
}

func (r *TakingRepo) GetByNumber(ctx context.Context, number string) (*stocktaking.Plan, error) {
	return r.getByNumber(ctx, number)
}

func (r *TakingRepo) Update(ctx context.Context, plan *stocktaking.Plan) error {
	return r.update(ctx, plan)
}

func (r *TakingRepo) Delete(ctx context.Context, planID id.ID) error {
	return r.softDelete(ctx, planID)
}

func (r *TakingRepo) GetLines(ctx context.Context, planID id.ID) ([]stocktaking.Line, error) {
	return r.getItems(ctx, planID, "line_no")
}

func (r *TakingRepo) SaveLines(ctx context.Context, planID id.ID, lines []stocktaking.Line) error {
	return r.saveItems(ctx, planID, lines)
}

func (r *TakingRepo) List(ctx context.Context, filter stocktaking.ListFilter) (domain.ListResult[*stocktaking.Plan], error) {
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

func (r *TakingRepo) GetForUpdate(ctx context.Context, planID id.ID) (*stocktaking.Plan, error) {
	return r.getForUpdate(ctx, planID)
}

package stocktaking

import (
	"context"
	"time"

	"kardex/internal/core/id"
	"kardex/internal/domain"
)

// Repository defines storage operations for taking plans.
type Repository interface {
	// CRUD operations
	Create(ctx context.Context, plan *Plan) error
	GetByID(ctx context.Context, planID id.ID) (*Plan, error)
	GetByNumber(ctx context.Context, number string) (*Plan, error)
	Update(ctx context.Context, plan *Plan) error
	Delete(ctx context.Context, planID id.ID) error

	// Line operations
	GetLines(ctx context.Context, planID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, planID id.ID, lines []Line) error

	// List operations
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Plan], error)

	// GetForUpdate locks the plan row for the enclosing transaction.
	GetForUpdate(ctx context.Context, planID id.ID) (*Plan, error)
}

// ListFilter narrows taking plan queries.
type ListFilter struct {
	domain.ListFilter

	WarehouseID *id.ID
	Status      *PlanStatus
	DateFrom    *time.Time
	DateTo      *time.Time
}

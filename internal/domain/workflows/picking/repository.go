package picking

import (
	"context"
	"time"

	"kardex/internal/core/id"
	"kardex/internal/domain"
)

// Repository defines storage operations for picking waves.
type Repository interface {
	// CRUD operations
	Create(ctx context.Context, wave *Wave) error
	GetByID(ctx context.Context, waveID id.ID) (*Wave, error)
	GetByNumber(ctx context.Context, number string) (*Wave, error)
	Update(ctx context.Context, wave *Wave) error
	Delete(ctx context.Context, waveID id.ID) error

	// Membership and task persistence
	SaveOrderIDs(ctx context.Context, waveID id.ID, orderIDs []id.ID) error
	GetOrderIDs(ctx context.Context, waveID id.ID) ([]id.ID, error)
	SaveTasks(ctx context.Context, waveID id.ID, tasks []Task) error
	GetTasks(ctx context.Context, waveID id.ID) ([]Task, error)

	// List operations
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Wave], error)

	// GetForUpdate locks the wave row for the enclosing transaction.
	GetForUpdate(ctx context.Context, waveID id.ID) (*Wave, error)
}

// ListFilter narrows wave queries.
type ListFilter struct {
	domain.ListFilter

	WarehouseID *id.ID
	Status      *WaveStatus
	DateFrom    *time.Time
	DateTo      *time.Time
}

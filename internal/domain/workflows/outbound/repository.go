package outbound

import (
	"context"
	"time"

	"kardex/internal/core/id"
	"kardex/internal/domain"
)

// Repository defines storage operations for outbound orders.
type Repository interface {
	// CRUD operations
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, orderID id.ID) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	Update(ctx context.Context, order *Order) error
	Delete(ctx context.Context, orderID id.ID) error

	// Item operations
	GetItems(ctx context.Context, orderID id.ID) ([]Item, error)
	SaveItems(ctx context.Context, orderID id.ID, items []Item) error

	// List operations
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error)

	// GetForUpdate locks the header row for the enclosing transaction.
	GetForUpdate(ctx context.Context, orderID id.ID) (*Order, error)
}

// ListFilter narrows outbound order queries.
type ListFilter struct {
	domain.ListFilter

	CustomerID  *id.ID
	WarehouseID *id.ID
	Status      *Status
	WaveID      *id.ID
	// Unwaved keeps only orders not attached to any active wave
	Unwaved  bool
	DateFrom *time.Time
	DateTo   *time.Time
}

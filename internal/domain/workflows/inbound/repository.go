package inbound

import (
	"context"
	"time"

	"kardex/internal/core/id"
	"kardex/internal/domain"
)

// Repository defines storage operations for inbound orders.
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

// ListFilter narrows inbound order queries.
type ListFilter struct {
	domain.ListFilter

	SupplierID  *id.ID
	WarehouseID *id.ID
	Status      *Status
	DateFrom    *time.Time
	DateTo      *time.Time
}

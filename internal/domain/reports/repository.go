package reports

import (
	"context"
)

// Repository defines report data access.
type Repository interface {
	// GetInOutSummary aggregates ledger movement per (warehouse, goods)
	// over a date window.
	GetInOutSummary(ctx context.Context, filter InOutFilter) (*InOutReport, error)

	// GetInventorySummary aggregates current stock per (warehouse, goods).
	GetInventorySummary(ctx context.Context, filter InventoryFilter) (*InventoryReport, error)
}

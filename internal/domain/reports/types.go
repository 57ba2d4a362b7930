// Package reports provides read-only reporting over the ledger and
// stock records. Pure projections: nothing here mutates state.
package reports

import (
	"time"

	"kardex/internal/core/id"
	"kardex/internal/core/types"
)

// --- In/Out Summary ---

// InOutFilter defines the in/out summary window and scope.
type InOutFilter struct {
	FromDate time.Time
	ToDate   time.Time

	WarehouseIDs []id.ID
	GoodsIDs     []id.ID

	Limit  int
	Offset int
}

// InOutRow aggregates ledger movement for one (warehouse, goods) pair.
type InOutRow struct {
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`
	GoodsID     id.ID `db:"goods_id" json:"goodsId"`

	// Display names resolved from master data
	WarehouseName string `db:"-" json:"warehouseName,omitempty"`
	GoodsName     string `db:"-" json:"goodsName,omitempty"`

	InboundQuantity  types.Quantity `db:"inbound_quantity" json:"inboundQuantity"`
	OutboundQuantity types.Quantity `db:"outbound_quantity" json:"outboundQuantity"`
	MoveInQuantity   types.Quantity `db:"move_in_quantity" json:"moveInQuantity"`
	MoveOutQuantity  types.Quantity `db:"move_out_quantity" json:"moveOutQuantity"`
	AdjustQuantity   types.Quantity `db:"adjust_quantity" json:"adjustQuantity"`

	// NetChange is the signed sum of every movement in the window
	NetChange types.Quantity `db:"net_change" json:"netChange"`

	EntryCount int64 `db:"entry_count" json:"entryCount"`
}

// InOutReport is the in/out summary result.
type InOutReport struct {
	FromDate    time.Time  `json:"fromDate"`
	ToDate      time.Time  `json:"toDate"`
	Rows        []InOutRow `json:"rows"`
	TotalRows   int64      `json:"totalRows"`
	GeneratedAt time.Time  `json:"generatedAt"`
}

// --- Inventory Summary ---

// InventoryFilter defines the current inventory summary scope.
type InventoryFilter struct {
	WarehouseIDs []id.ID
	GoodsIDs     []id.ID

	// ExcludeZero drops empty records
	ExcludeZero bool

	Limit  int
	Offset int
}

// InventoryRow is the current state of one (warehouse, goods) pair,
// summed over locations and batches.
type InventoryRow struct {
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`
	GoodsID     id.ID `db:"goods_id" json:"goodsId"`

	WarehouseName string `db:"-" json:"warehouseName,omitempty"`
	GoodsName     string `db:"-" json:"goodsName,omitempty"`

	Quantity     types.Quantity `db:"quantity" json:"quantity"`
	LockQuantity types.Quantity `db:"lock_quantity" json:"lockQuantity"`
	Available    types.Quantity `db:"available" json:"available"`

	BatchCount    int64 `db:"batch_count" json:"batchCount"`
	LocationCount int64 `db:"location_count" json:"locationCount"`
}

// InventoryReport is the current inventory summary result.
type InventoryReport struct {
	Rows        []InventoryRow `json:"rows"`
	TotalRows   int64          `json:"totalRows"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

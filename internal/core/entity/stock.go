package entity

import (
	"fmt"
	"time"

	"kardex/internal/core/id"
	"kardex/internal/core/types"
)

// StockKey identifies one authoritative stock record:
// (warehouse, goods, location, batch).
type StockKey struct {
	WarehouseID id.ID  `db:"warehouse_id" json:"warehouseId"`
	GoodsID     id.ID  `db:"goods_id" json:"goodsId"`
	LocationID  id.ID  `db:"location_id" json:"locationId"`
	BatchNo     string `db:"batch_no" json:"batchNo"`
}

// String renders the key for error details and logs.
func (k StockKey) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", k.WarehouseID, k.GoodsID, k.LocationID, k.BatchNo)
}

// StockRecord is the authoritative quantity state for one StockKey.
// Invariant: 0 <= LockQuantity <= Quantity at all times.
// Records are created on first receipt and never physically deleted;
// zero-quantity rows persist for audit continuity.
type StockRecord struct {
	StockKey

	// Quantity is the on-hand quantity
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// LockQuantity is the portion reserved by in-flight outbound/move operations
	LockQuantity types.Quantity `db:"lock_quantity" json:"lockQuantity"`

	// ExpireDate applies to the whole batch (optional)
	ExpireDate *time.Time `db:"expire_date" json:"expireDate,omitempty"`

	Audit
}

// NewStockRecord creates an empty record for a key.
func NewStockRecord(key StockKey, operator string) StockRecord {
	return StockRecord{
		StockKey: key,
		Audit:    NewAudit(operator),
	}
}

// Available returns the quantity free to reserve.
func (r *StockRecord) Available() types.Quantity {
	return r.Quantity - r.LockQuantity
}

// CheckInvariant reports whether 0 <= lock <= quantity holds.
func (r *StockRecord) CheckInvariant() bool {
	return r.LockQuantity >= 0 && r.LockQuantity <= r.Quantity
}

// StockSnapshotRecord is a point-in-time copy of one StockRecord,
// tagged with the snapshot date. Read-only with respect to the ledger.
type StockSnapshotRecord struct {
	SnapshotID   id.ID     `db:"snapshot_id" json:"snapshotId"`
	SnapshotDate time.Time `db:"snapshot_date" json:"snapshotDate"`

	StockKey
	Quantity     types.Quantity `db:"quantity" json:"quantity"`
	LockQuantity types.Quantity `db:"lock_quantity" json:"lockQuantity"`
	ExpireDate   *time.Time     `db:"expire_date" json:"expireDate,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

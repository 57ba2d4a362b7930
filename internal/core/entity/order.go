package entity

import (
	"context"
	"time"

	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
)

// OrderHeader carries the fields every workflow order shares: identity,
// business number, warehouse scope and audit metadata. Concrete orders
// embed it and add their own status enum; the status is the single source
// of truth for which ledger postings have happened.
type OrderHeader struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Number is the business number (auto-generated, unique per order type).
	// It is the businessNo stamped on every ledger entry this order posts.
	Number string `db:"number" json:"number"`

	// Date is the business date of the order
	Date time.Time `db:"date" json:"date"`

	// WarehouseID scopes the order to one warehouse
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	// Remark is an optional user comment
	Remark string `db:"remark" json:"remark,omitempty"`

	Audit
}

// NewOrderHeader creates a header with generated ID and audit metadata.
func NewOrderHeader(warehouseID id.ID, operator string) OrderHeader {
	return OrderHeader{
		ID:          id.New(),
		Date:        time.Now().UTC(),
		WarehouseID: warehouseID,
		Audit:       NewAudit(operator),
	}
}

// Validate implements Validatable.
func (h *OrderHeader) Validate(ctx context.Context) error {
	if id.IsNil(h.WarehouseID) {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}
	if h.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}

// GetID returns the order ID.
func (h *OrderHeader) GetID() id.ID {
	return h.ID
}

// GetNumber returns the business number.
func (h *OrderHeader) GetNumber() string {
	return h.Number
}

package entity

import (
	"time"

	"kardex/internal/core/id"
	"kardex/internal/core/types"
)

// OperationType classifies a quantity mutation in the inventory log.
type OperationType string

const (
	OpInbound      OperationType = "INBOUND"
	OpOutbound     OperationType = "OUTBOUND"
	OpMoveOut      OperationType = "MOVE_OUT"
	OpMoveIn       OperationType = "MOVE_IN"
	OpTakingAdjust OperationType = "TAKING_ADJUST"
)

// LedgerEntry is one immutable record in the inventory log: exactly one
// entry per accepted quantity mutation, written in the same atomic unit
// as the StockRecord update. Never updated or deleted.
//
// Idempotency: (Operation, BusinessNo, LineRef) is unique; a repeat post
// for the same tuple is rejected as a duplicate and treated as success.
type LedgerEntry struct {
	// EntryID is unique identifier for this entry (UUIDv7)
	EntryID id.ID `db:"entry_id" json:"entryId"`

	StockKey

	// Operation classifies the mutation
	Operation OperationType `db:"operation" json:"operation"`

	// BusinessType and BusinessNo identify the originating order
	BusinessType string `db:"business_type" json:"businessType"`
	BusinessNo   string `db:"business_no" json:"businessNo"`

	// LineRef identifies the order item within the business document,
	// making retried postings detectable per item
	LineRef string `db:"line_ref" json:"lineRef"`

	// Quantity accounting: After = Before + Change, and Before equals the
	// StockRecord quantity immediately prior to the mutation.
	QuantityBefore types.Quantity `db:"quantity_before" json:"quantityBefore"`
	QuantityChange types.Quantity `db:"quantity_change" json:"quantityChange"`
	QuantityAfter  types.Quantity `db:"quantity_after" json:"quantityAfter"`

	// Operator is the acting identity (opaque to the core)
	Operator string `db:"operator" json:"operator"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewLedgerEntry creates an entry with generated ID and timestamp.
func NewLedgerEntry(key StockKey, op OperationType, before, change types.Quantity) LedgerEntry {
	return LedgerEntry{
		EntryID:        id.New(),
		StockKey:       key,
		Operation:      op,
		QuantityBefore: before,
		QuantityChange: change,
		QuantityAfter:  before + change,
		CreatedAt:      time.Now().UTC(),
	}
}

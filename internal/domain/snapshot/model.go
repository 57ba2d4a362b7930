// Package snapshot provides point-in-time stock snapshots and the stock
// warning engine.
package snapshot

import (
	"time"

	"kardex/internal/core/entity"
	"kardex/internal/core/id"
	"kardex/internal/core/types"
)

// WarningType classifies a stock warning.
type WarningType string

const (
	WarningLowStock WarningType = "LOW_STOCK"
	WarningExpiring WarningType = "EXPIRING"
	// WarningCustom covers operator-registered rules; the rule name is
	// carried in Warning.Rule.
	WarningCustom WarningType = "CUSTOM"
)

// ExpiryHorizonDays is how close a batch expiry has to be before an
// EXPIRING warning fires.
const ExpiryHorizonDays = 7

// Warning is a computed stock alert. Warnings are views over the current
// stock records, recomputed on read, never persisted.
type Warning struct {
	Type WarningType `json:"type"`

	// Rule names the custom rule for WarningCustom
	Rule string `json:"rule,omitempty"`

	entity.StockKey

	Quantity     types.Quantity `json:"quantity"`
	Available    types.Quantity `json:"available"`
	SafetyStock  types.Quantity `json:"safetyStock,omitempty"`
	ExpireDate   *time.Time     `json:"expireDate,omitempty"`
	DaysToExpiry int            `json:"daysToExpiry,omitempty"`

	Message string `json:"message"`
}

// Snapshot is the header of one snapshot run.
type Snapshot struct {
	ID           id.ID     `db:"id" json:"id"`
	SnapshotDate time.Time `db:"snapshot_date" json:"snapshotDate"`
	RecordCount  int       `db:"record_count" json:"recordCount"`
	CreatedBy    string    `db:"created_by" json:"createdBy"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

package inbound

import "kardex/internal/core/numerator"

const (
	// NumberPrefix for inbound order numbers (IN-2026-00001).
	NumberPrefix = "IN"

	// NumeratorStrategy defines the numbering strategy for inbound orders.
	// Receipts feed supplier reconciliation, so numbers must be gapless.
	NumeratorStrategy = numerator.StrategyStrict
)

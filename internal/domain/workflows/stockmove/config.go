package stockmove

import "kardex/internal/core/numerator"

const (
	// NumberPrefix for move order numbers (MV-2026-00001).
	NumberPrefix = "MV"

	// NumeratorStrategy defines the numbering strategy for move orders.
	NumeratorStrategy = numerator.StrategyCached
)

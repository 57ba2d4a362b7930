package stocktaking

import "kardex/internal/core/numerator"

const (
	// NumberPrefix for taking plan numbers (TK-2026-00001).
	NumberPrefix = "TK"

	// NumeratorStrategy defines the numbering strategy for taking plans.
	NumeratorStrategy = numerator.StrategyCached
)

package picking

import "kardex/internal/core/numerator"

const (
	// NumberPrefix for picking wave numbers (WV-2026-00001).
	NumberPrefix = "WV"

	// NumeratorStrategy defines the numbering strategy for picking waves.
	NumeratorStrategy = numerator.StrategyCached
)

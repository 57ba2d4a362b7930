package outbound

import "kardex/internal/core/numerator"

const (
	// NumberPrefix for outbound order numbers (OUT-2026-00001).
	NumberPrefix = "OUT"

	// NumeratorStrategy defines the numbering strategy for outbound orders.
	// Internal shipping documents tolerate gaps, so the cached strategy is fine.
	NumeratorStrategy = numerator.StrategyCached
)

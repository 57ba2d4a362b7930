package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantity_String(t *testing.T) {
	tests := []struct {
		name string
		q    Quantity
		want string
	}{
		{"zero", 0, "0.0000"},
		{"whole units", NewQuantityFromInt(5), "5.0000"},
		{"fractional", NewQuantityFromInt64Scaled(12500), "1.2500"},
		{"negative", NewQuantityFromInt(-3), "-3.0000"},
		{"negative fractional", NewQuantityFromInt64Scaled(-12345), "-1.2345"},
		{"sub-unit", NewQuantityFromInt64Scaled(1), "0.0001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.String())
		})
	}
}

func TestQuantity_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Quantity
	}{
		{"number", `2.5`, NewQuantityFromInt64Scaled(25000)},
		{"integer number", `100`, NewQuantityFromInt(100)},
		{"string", `"7.25"`, NewQuantityFromInt64Scaled(72500)},
		{"negative", `-0.5`, NewQuantityFromInt64Scaled(-5000)},
		{"null", `null`, 0},
		{"extra digits truncated", `1.23456`, NewQuantityFromInt64Scaled(12345)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q Quantity
			require.NoError(t, json.Unmarshal([]byte(tt.in), &q))
			assert.Equal(t, tt.want, q)
		})
	}
}

func TestQuantity_MarshalJSON_Number(t *testing.T) {
	data, err := json.Marshal(NewQuantityFromInt64Scaled(12500))
	require.NoError(t, err)
	assert.Equal(t, "1.2500", string(data))

	// Round trip.
	var q Quantity
	require.NoError(t, json.Unmarshal(data, &q))
	assert.Equal(t, NewQuantityFromInt64Scaled(12500), q)
}

func TestQuantity_Arithmetic(t *testing.T) {
	a := NewQuantityFromInt(10)
	b := NewQuantityFromInt64Scaled(2500) // 0.25

	assert.Equal(t, "10.2500", (a + b).String())
	assert.Equal(t, "9.7500", (a - b).String())
	assert.True(t, a.IsPositive())
	assert.True(t, b.Neg().IsNegative())
	assert.Equal(t, b, b.Neg().Abs())
	assert.True(t, Quantity(0).IsZero())
}

func TestQuantity_Float64(t *testing.T) {
	assert.InDelta(t, 1.25, NewQuantityFromInt64Scaled(12500).Float64(), 1e-9)
	assert.Equal(t, NewQuantityFromInt64Scaled(12500), NewQuantityFromFloat64(1.25))
}

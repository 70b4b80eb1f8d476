package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuantityFromString(t *testing.T) {
	tests := []struct {
		in   string
		want Quantity
	}{
		{"0", 0},
		{"1", 10_000},
		{"1.5", 15_000},
		{"0.0001", 1},
		{"-2.25", -22_500},
		{"+3", 30_000},
		{".5", 5_000},
		{"10.1234", 101_234},
		{"1.50000", 15_000}, // trailing zeros beyond the scale are fine
		{"  7 ", 70_000},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NewQuantityFromString(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewQuantityFromStringErrors(t *testing.T) {
	tests := []string{
		"",
		"abc",
		"1.2.3",
		"1,5",
		"1e2", // exponent notation rejected
		"2.5E-3",
		"0.00005",  // below the representable scale, not silently dropped
		"10.12345", // fifth significant decimal digit
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := NewQuantityFromString(in)
			assert.Error(t, err)
		})
	}
}

func TestQuantityString(t *testing.T) {
	tests := []struct {
		in   Quantity
		want string
	}{
		{0, "0.0000"},
		{10_000, "1.0000"},
		{15_000, "1.5000"},
		{1, "0.0001"},
		{-22_500, "-2.2500"},
		{-1, "-0.0001"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.String())
	}
}

func TestQuantityRoundTrip(t *testing.T) {
	for _, in := range []string{"0.0000", "1.5000", "-2.2500", "123456.7890"} {
		q, err := NewQuantityFromString(in)
		require.NoError(t, err)
		assert.Equal(t, in, q.String())
	}
}

func TestQuantityJSON(t *testing.T) {
	q := Quantity(15_000)

	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.Equal(t, "1.5000", string(data)) // number, not quoted

	var fromNumber Quantity
	require.NoError(t, json.Unmarshal([]byte("2.25"), &fromNumber))
	assert.Equal(t, Quantity(22_500), fromNumber)

	var fromString Quantity
	require.NoError(t, json.Unmarshal([]byte(`"-0.5"`), &fromString))
	assert.Equal(t, Quantity(-5_000), fromString)

	var fromNull Quantity = 7
	require.NoError(t, json.Unmarshal([]byte("null"), &fromNull))
	assert.True(t, fromNull.IsZero())
}

func TestQuantityPredicates(t *testing.T) {
	assert.True(t, Quantity(1).IsPositive())
	assert.True(t, Quantity(-1).IsNegative())
	assert.True(t, Quantity(0).IsZero())
	assert.Equal(t, Quantity(5), Quantity(-5).Abs())
	assert.Equal(t, Quantity(-5), Quantity(5).Neg())
	assert.Equal(t, 1.5, Quantity(15_000).Float64())
}

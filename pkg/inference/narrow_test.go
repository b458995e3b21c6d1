package inference

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/garlicdevs/csv-cleaner/pkg/models"
)

func TestNarrowIntegers(t *testing.T) {
	tests := []struct {
		name   string
		values []int64
		want   models.TypeTag
	}{
		{"empty", nil, models.Int8},
		{"small", []int64{70, 90, -3}, models.Int8},
		{"int8 bounds", []int64{math.MinInt8, math.MaxInt8}, models.Int8},
		{"just past int8", []int64{-129, 5}, models.Int16},
		{"int16", []int64{0, 32767}, models.Int16},
		{"int32", []int64{40000}, models.Int32},
		{"int64", []int64{3_000_000_000}, models.Int64},
		{"negative int64", []int64{math.MinInt64}, models.Int64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NarrowIntegers(tt.values))
		})
	}
}

func TestNarrowFloats(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   models.TypeTag
	}{
		{"integral floats become integers", []float64{1, 2, 300}, models.Int16},
		{"nulls ignored", []float64{1, math.NaN(), 2}, models.Int8},
		{"all null", []float64{math.NaN()}, models.Int8},
		{"fraction fits float32", []float64{1.5, 2.25}, models.Float32},
		{"within tolerance", []float64{math.Pi}, models.Float32},
		{"beyond float32 range", []float64{1e300}, models.Float64},
		{"infinity", []float64{math.Inf(1), 1.5}, models.Float32},
		{"beyond int64 range", []float64{1e20}, models.Float32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NarrowFloats(tt.values))
		})
	}
}

func TestRoundTrips(t *testing.T) {
	assert.True(t, RoundTripsThroughInt([]float64{1, -2, math.NaN()}))
	assert.False(t, RoundTripsThroughInt([]float64{1.5}))
	assert.False(t, RoundTripsThroughInt([]float64{math.Inf(1)}))
	assert.False(t, RoundTripsThroughInt([]float64{1e19}))
	assert.True(t, RoundTripsThroughInt([]float64{1.000001, 2}))

	assert.True(t, RoundTripsThroughFloat32([]float64{0.1, 1e30}))
	assert.False(t, RoundTripsThroughFloat32([]float64{1e40}))
}

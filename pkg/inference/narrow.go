package inference

import (
	"math"

	"github.com/garlicdevs/csv-cleaner/pkg/models"
	"github.com/garlicdevs/csv-cleaner/pkg/parse"
)

// IntWidth returns the smallest signed integer tag whose range holds [lo, hi].
func IntWidth(lo, hi int64) models.TypeTag {
	switch {
	case lo >= math.MinInt8 && hi <= math.MaxInt8:
		return models.Int8
	case lo >= math.MinInt16 && hi <= math.MaxInt16:
		return models.Int16
	case lo >= math.MinInt32 && hi <= math.MaxInt32:
		return models.Int32
	default:
		return models.Int64
	}
}

// NarrowIntegers selects the integer width for values. An empty input
// narrows to int8.
func NarrowIntegers(values []int64) models.TypeTag {
	if len(values) == 0 {
		return models.Int8
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return IntWidth(lo, hi)
}

// RoundTripsThroughInt reports whether every value survives a cast to
// nullable int64 and back. NaN entries count as nulls and always survive;
// infinities and values outside the int64 range fail the cast.
func RoundTripsThroughInt(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if _, ok := parse.NearInt(v); !ok {
			return false
		}
	}
	return true
}

// RoundTripsThroughFloat32 reports whether every value survives a cast to
// float32 and back.
func RoundTripsThroughFloat32(values []float64) bool {
	for _, v := range values {
		if !parse.IsClose(float64(float32(v)), v) {
			return false
		}
	}
	return true
}

// NarrowFloatWidth chooses float32 when the float32 round trip holds.
func NarrowFloatWidth(values []float64) models.TypeTag {
	if RoundTripsThroughFloat32(values) {
		return models.Float32
	}
	return models.Float64
}

// NarrowFloats narrows a float column: integral columns go through
// integer width selection, the rest through float width selection.
func NarrowFloats(values []float64) models.TypeTag {
	if RoundTripsThroughInt(values) {
		ints := make([]int64, 0, len(values))
		for _, v := range values {
			if !math.IsNaN(v) {
				ints = append(ints, int64(v))
			}
		}
		return NarrowIntegers(ints)
	}
	return NarrowFloatWidth(values)
}

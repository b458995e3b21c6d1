package inference

import (
	"github.com/garlicdevs/csv-cleaner/pkg/models"
	"github.com/garlicdevs/csv-cleaner/pkg/parse"
)

// Every check receives the non-blank values of one column and passes only
// when at least one value matched and the matched fraction reaches threshold.

func passes(matched, total int, threshold float64) bool {
	return matched > 0 && float64(matched)/float64(total) >= threshold
}

// CheckBoolean passes when enough values are boolean literals and the
// matched values normalize to exactly two distinct booleans.
func CheckBoolean(values []interface{}, threshold float64) (models.TypeTag, bool) {
	matched := 0
	seen := make(map[bool]struct{}, 2)
	for _, v := range values {
		if b, ok := parse.Bool(v); ok {
			matched++
			seen[b] = struct{}{}
		}
	}
	if !passes(matched, len(values), threshold) || len(seen) != 2 {
		return "", false
	}
	return models.Boolean, true
}

// CheckNumeric passes when enough values parse as numbers, then narrows:
// all-integral columns to an integer width, the rest to a float width.
func CheckNumeric(values []interface{}, threshold float64) (models.TypeTag, bool) {
	floats := make([]float64, 0, len(values))
	integral := true
	var parsed []interface{}
	for _, v := range values {
		f, ok := parse.Float(v)
		if !ok {
			continue
		}
		floats = append(floats, f)
		parsed = append(parsed, v)
		if !parse.IsIntegral(f) || !parse.InInt64Range(f) {
			integral = false
		}
	}
	if !passes(len(floats), len(values), threshold) {
		return "", false
	}
	if integral {
		ints := make([]int64, 0, len(parsed))
		for _, v := range parsed {
			n, _, _ := parse.Int(v)
			ints = append(ints, n)
		}
		return NarrowIntegers(ints), true
	}
	return NarrowFloatWidth(floats), true
}

// CheckComplex passes when enough values parse as complex numbers.
func CheckComplex(values []interface{}, threshold float64) (models.TypeTag, bool) {
	matched := 0
	for _, v := range values {
		if _, ok := parse.Complex(v); ok {
			matched++
		}
	}
	if !passes(matched, len(values), threshold) {
		return "", false
	}
	return models.Complex128, true
}

// CheckDatetime passes when enough values parse as dates or timestamps.
func CheckDatetime(values []interface{}, threshold float64) (models.TypeTag, bool) {
	matched := 0
	for _, v := range values {
		if _, ok := parse.Datetime(v); ok {
			matched++
		}
	}
	if !passes(matched, len(values), threshold) {
		return "", false
	}
	return models.Datetime, true
}

// CheckDuration passes when enough values parse as durations.
func CheckDuration(values []interface{}, threshold float64) (models.TypeTag, bool) {
	matched := 0
	for _, v := range values {
		if _, ok := parse.Duration(v); ok {
			matched++
		}
	}
	if !passes(matched, len(values), threshold) {
		return "", false
	}
	return models.Duration, true
}

// CheckCategory passes for a single distinct value or when strategy accepts
// the column.
func CheckCategory(values []interface{}, strategy CategoryStrategy) (models.TypeTag, bool) {
	texts := make([]string, len(values))
	for i, v := range values {
		texts[i] = parse.Text(v)
	}
	if distinct, _ := distinctValues(texts); len(distinct) == 1 || strategy.IsCategorical(texts) {
		return models.Category, true
	}
	return "", false
}

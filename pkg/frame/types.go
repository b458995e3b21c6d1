// Package frame provides the in-memory column store the cleaner samples into,
// classifies and converts. Columns are either raw (the values read from the
// source) or typed (the result of a cast).
package frame

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/garlicdevs/csv-cleaner/pkg/models"
)

// Kind is the storage kind of a column.
type Kind string

const (
	// KindObject holds raw values: nil, string, bool, int64 or float64
	KindObject   Kind = "object"
	KindBool     Kind = "bool"
	KindInt8     Kind = "int8"
	KindInt16    Kind = "int16"
	KindInt32    Kind = "int32"
	KindInt64    Kind = "int64"
	KindFloat32  Kind = "float32"
	KindFloat64  Kind = "float64"
	KindComplex  Kind = "complex128"
	KindDatetime Kind = "datetime"
	KindDuration Kind = "duration"
	KindCategory Kind = "category"
)

// Tag returns the TypeTag reported for a column of this kind.
// Object columns report text.
func (k Kind) Tag() models.TypeTag {
	switch k {
	case KindBool:
		return models.Boolean
	case KindInt8:
		return models.Int8
	case KindInt16:
		return models.Int16
	case KindInt32:
		return models.Int32
	case KindInt64:
		return models.Int64
	case KindFloat32:
		return models.Float32
	case KindFloat64:
		return models.Float64
	case KindComplex:
		return models.Complex128
	case KindDatetime:
		return models.Datetime
	case KindDuration:
		return models.Duration
	case KindCategory:
		return models.Category
	default:
		return models.Text
	}
}

// IsNumeric reports whether k stores integers or floats.
func (k Kind) IsNumeric() bool {
	return k.Tag().IsNumeric()
}

// IsInteger reports whether k stores one of the integer widths.
func (k Kind) IsInteger() bool {
	return k.Tag().IsInteger()
}

// width is the per-value payload size in bytes used by MemoryUsage.
func (k Kind) width() int64 {
	switch k {
	case KindBool, KindInt8:
		return 1
	case KindInt16:
		return 2
	case KindInt32, KindFloat32:
		return 4
	case KindInt64, KindFloat64, KindDuration:
		return 8
	case KindComplex:
		return 16
	case KindDatetime:
		return 24
	default:
		return 16
	}
}

// Column is the base interface for all column types.
type Column interface {
	Name() string
	Kind() Kind
	Len() int
	// Value returns the i-th value, or nil when it is null
	Value(i int) interface{}
	MemoryUsage() int64
}

// StringOverhead is the per-string header counted by MemoryUsage.
const StringOverhead = 16

var syntheticIndex = regexp.MustCompile(`^Unnamed`)

// IsSyntheticIndex reports whether a header is an index artifact left by a
// previous export (blank, or pandas' "Unnamed: N") rather than a real column.
func IsSyntheticIndex(header string) bool {
	return strings.TrimSpace(header) == "" || syntheticIndex.MatchString(header)
}

// FormatValue renders a value the way the CSV exporter and category
// dictionaries print it. Nil renders as the empty string.
func FormatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format("2006-01-02 15:04:05.999999999")
	case time.Duration:
		return x.String()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

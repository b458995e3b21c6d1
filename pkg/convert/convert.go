// Package convert casts loaded columns to their resolved types. Each column
// converts independently: a column whose cast fails keeps its original
// values and the remaining columns still convert.
package convert

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/garlicdevs/csv-cleaner/pkg/errors"
	"github.com/garlicdevs/csv-cleaner/pkg/frame"
	"github.com/garlicdevs/csv-cleaner/pkg/models"
	"github.com/garlicdevs/csv-cleaner/pkg/parse"
)

// Status is the result of converting one column.
type Status string

const (
	StatusConverted  Status = "converted"
	StatusRolledBack Status = "rolled_back"
	StatusSkipped    Status = "skipped"
)

// Outcome records what happened to one column.
type Outcome struct {
	Column string
	Tag    models.TypeTag
	Status Status
	// Nulls counts values that did not parse and were stored as null
	Nulls int
	Err   error
}

// Converter applies a TypeMap to a table.
type Converter struct {
	logger *zap.Logger
}

// New creates a converter.
func New(logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{logger: logger}
}

// Convert returns a copy of t with every mapped column cast to its tag.
// Columns absent from types are skipped. The input table is never modified.
func (c *Converter) Convert(ctx context.Context, t *frame.Table, types models.TypeMap) (*frame.Table, []Outcome) {
	out := t.Clone()
	outcomes := make([]Outcome, 0, t.NumColumns())

	for _, col := range t.Columns() {
		tag, ok := types.Get(col.Name())
		if !ok {
			outcomes = append(outcomes, Outcome{Column: col.Name(), Status: StatusSkipped})
			continue
		}
		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, Outcome{Column: col.Name(), Tag: tag, Status: StatusSkipped, Err: err})
			continue
		}

		converted, nulls, err := c.convertColumn(col, tag)
		if err == nil {
			err = out.Replace(converted)
		}
		if err != nil {
			c.logger.Warn("column conversion rolled back",
				zap.String("column", col.Name()),
				zap.String("type", string(tag)),
				zap.Error(err))
			outcomes = append(outcomes, Outcome{Column: col.Name(), Tag: tag, Status: StatusRolledBack, Err: err})
			continue
		}

		c.logger.Debug("column converted",
			zap.String("column", col.Name()),
			zap.String("type", string(tag)),
			zap.Int("coerced_nulls", nulls))
		outcomes = append(outcomes, Outcome{Column: col.Name(), Tag: tag, Status: StatusConverted, Nulls: nulls})
	}
	return out, outcomes
}

// convertColumn casts one column; a panic inside a cast becomes a
// conversion error so it cannot take other columns down.
func (c *Converter) convertColumn(col frame.Column, tag models.TypeTag) (result frame.Column, nulls int, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, nulls = nil, 0
			err = errors.Newf(errors.ErrorTypeConversion, "cast to %s panicked: %v", tag, r).
				WithDetail("column", col.Name())
		}
	}()

	switch tag {
	case models.Boolean:
		return castBool(col)
	case models.Int8:
		return castInt[int8](col, frame.KindInt8, math.MinInt8, math.MaxInt8)
	case models.Int16:
		return castInt[int16](col, frame.KindInt16, math.MinInt16, math.MaxInt16)
	case models.Int32:
		return castInt[int32](col, frame.KindInt32, math.MinInt32, math.MaxInt32)
	case models.Int64:
		return castInt[int64](col, frame.KindInt64, math.MinInt64, math.MaxInt64)
	case models.Float32:
		return castFloat[float32](col, frame.KindFloat32)
	case models.Float64:
		return castFloat[float64](col, frame.KindFloat64)
	case models.Complex128:
		return castComplex(col)
	case models.Datetime:
		return castDatetime(col)
	case models.Duration:
		return castDuration(col)
	case models.Category:
		return castCategory(col), 0, nil
	case models.Text:
		return castText(col), 0, nil
	default:
		return nil, 0, errors.Newf(errors.ErrorTypeConversion, "unknown type %q", tag).
			WithDetail("column", col.Name())
	}
}

func castError(col frame.Column, row int, tag models.TypeTag, v interface{}, reason string) error {
	return errors.Newf(errors.ErrorTypeConversion, "cannot cast %q to %s: %s", parse.Text(v), tag, reason).
		WithDetail("column", col.Name()).
		WithDetail("row", row)
}

// castBool is strict: any non-null value that is not a boolean literal fails.
func castBool(col frame.Column) (frame.Column, int, error) {
	out := frame.NewTypedColumn[bool](col.Name(), frame.KindBool, col.Len())
	for i := 0; i < col.Len(); i++ {
		v := col.Value(i)
		if parse.IsBlank(v) {
			continue
		}
		b, ok := parse.Bool(v)
		if !ok {
			return nil, 0, castError(col, i, models.Boolean, v, "not a boolean")
		}
		out.Set(i, b)
	}
	return out, 0, nil
}

type signed interface {
	~int8 | ~int16 | ~int32 | ~int64
}

// castInt stores non-numeric values as null and fails on fractional or
// out-of-range numbers.
func castInt[T signed](col frame.Column, kind frame.Kind, lo, hi int64) (frame.Column, int, error) {
	out := frame.NewTypedColumn[T](col.Name(), kind, col.Len())
	nulls := 0
	for i := 0; i < col.Len(); i++ {
		v := col.Value(i)
		if parse.IsBlank(v) {
			continue
		}
		n, ok, exact := parse.Int(v)
		if !ok {
			nulls++
			continue
		}
		if !exact {
			n, exact = nearInt(v)
		}
		if !exact {
			return nil, 0, castError(col, i, kind.Tag(), v, "not an integer")
		}
		if n < lo || n > hi {
			return nil, 0, castError(col, i, kind.Tag(), v, "out of range")
		}
		out.Set(i, T(n))
	}
	return out, nulls, nil
}

// nearInt applies the narrowing tolerance to stored floats, so a float
// column classified as integral casts without rollback. Text stays exact.
func nearInt(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case float64:
		return parse.NearInt(x)
	case float32:
		return parse.NearInt(float64(x))
	}
	return 0, false
}

// castFloat stores non-numeric values as null.
func castFloat[T ~float32 | ~float64](col frame.Column, kind frame.Kind) (frame.Column, int, error) {
	out := frame.NewTypedColumn[T](col.Name(), kind, col.Len())
	nulls := 0
	for i := 0; i < col.Len(); i++ {
		v := col.Value(i)
		if parse.IsBlank(v) {
			continue
		}
		f, ok := parse.Float(v)
		if !ok {
			nulls++
			continue
		}
		out.Set(i, T(f))
	}
	return out, nulls, nil
}

// castComplex is strict like castBool.
func castComplex(col frame.Column) (frame.Column, int, error) {
	out := frame.NewTypedColumn[complex128](col.Name(), frame.KindComplex, col.Len())
	for i := 0; i < col.Len(); i++ {
		v := col.Value(i)
		if parse.IsBlank(v) {
			continue
		}
		z, ok := parse.Complex(v)
		if !ok {
			return nil, 0, castError(col, i, models.Complex128, v, "not a complex number")
		}
		out.Set(i, z)
	}
	return out, 0, nil
}

func castDatetime(col frame.Column) (frame.Column, int, error) {
	out := frame.NewTypedColumn[time.Time](col.Name(), frame.KindDatetime, col.Len())
	nulls := 0
	for i := 0; i < col.Len(); i++ {
		v := col.Value(i)
		if parse.IsBlank(v) {
			continue
		}
		ts, ok := parse.Datetime(v)
		if !ok {
			nulls++
			continue
		}
		out.Set(i, ts)
	}
	return out, nulls, nil
}

func castDuration(col frame.Column) (frame.Column, int, error) {
	out := frame.NewTypedColumn[time.Duration](col.Name(), frame.KindDuration, col.Len())
	nulls := 0
	for i := 0; i < col.Len(); i++ {
		v := col.Value(i)
		if parse.IsBlank(v) {
			continue
		}
		d, ok := parse.Duration(v)
		if !ok {
			nulls++
			continue
		}
		out.Set(i, d)
	}
	return out, nulls, nil
}

func castCategory(col frame.Column) frame.Column {
	out := frame.NewCategoryColumn(col.Name(), col.Len())
	for i := 0; i < col.Len(); i++ {
		v := col.Value(i)
		if parse.IsBlank(v) {
			out.AppendNull()
			continue
		}
		out.Append(frame.FormatValue(v))
	}
	return out
}

func castText(col frame.Column) frame.Column {
	values := make([]interface{}, col.Len())
	for i := range values {
		if v := col.Value(i); !parse.IsBlank(v) {
			values[i] = frame.FormatValue(v)
		}
	}
	return frame.NewRawColumn(col.Name(), values)
}

// Summary counts outcomes by status.
func Summary(outcomes []Outcome) map[Status]int {
	counts := make(map[Status]int, 3)
	for _, o := range outcomes {
		counts[o.Status]++
	}
	return counts
}

// Failed returns the rolled back outcomes as one error, nil when every
// mapped column converted.
func Failed(outcomes []Outcome) error {
	var failed []string
	for _, o := range outcomes {
		if o.Status == StatusRolledBack {
			failed = append(failed, o.Column)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return errors.Newf(errors.ErrorTypeConversion, "%d column(s) kept their original values", len(failed)).
		WithDetail("columns", failed)
}

package export

import (
	"fmt"
	"io"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/garlicdevs/csv-cleaner/pkg/frame"
)

var complexType = arrow.StructOf(
	arrow.Field{Name: "real", Type: arrow.PrimitiveTypes.Float64},
	arrow.Field{Name: "imag", Type: arrow.PrimitiveTypes.Float64},
)

// arrowType maps a column kind to its Arrow type.
func arrowType(kind frame.Kind) arrow.DataType {
	switch kind {
	case frame.KindBool:
		return arrow.FixedWidthTypes.Boolean
	case frame.KindInt8:
		return arrow.PrimitiveTypes.Int8
	case frame.KindInt16:
		return arrow.PrimitiveTypes.Int16
	case frame.KindInt32:
		return arrow.PrimitiveTypes.Int32
	case frame.KindInt64:
		return arrow.PrimitiveTypes.Int64
	case frame.KindFloat32:
		return arrow.PrimitiveTypes.Float32
	case frame.KindFloat64:
		return arrow.PrimitiveTypes.Float64
	case frame.KindComplex:
		return complexType
	case frame.KindDatetime:
		return arrow.FixedWidthTypes.Timestamp_us
	case frame.KindDuration:
		return arrow.FixedWidthTypes.Duration_ns
	default:
		return arrow.BinaryTypes.String
	}
}

// ArrowSchema builds the schema of t; every field is nullable and carries
// its type tag in the field metadata.
func ArrowSchema(t *frame.Table) *arrow.Schema {
	return schemaOf(t, arrowType)
}

func schemaOf(t *frame.Table, typeOf func(frame.Kind) arrow.DataType) *arrow.Schema {
	fields := make([]arrow.Field, 0, t.NumColumns())
	for _, col := range t.Columns() {
		fields = append(fields, arrow.Field{
			Name:     col.Name(),
			Type:     typeOf(col.Kind()),
			Nullable: true,
			Metadata: arrow.NewMetadata([]string{TypeMetadataKey}, []string{string(col.Kind().Tag())}),
		})
	}
	return arrow.NewSchema(fields, nil)
}

type arrowWriter struct{}

// Write emits t as a single record batch in an Arrow IPC file.
func (arrowWriter) Write(w io.Writer, t *frame.Table) error {
	mem := memory.NewGoAllocator()
	schema := ArrowSchema(t)

	rec, err := buildRecord(mem, schema, t)
	if err != nil {
		return err
	}
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		return fmt.Errorf("failed to create arrow writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		_ = fw.Close()
		return fmt.Errorf("failed to write record batch: %w", err)
	}
	return fw.Close()
}

// buildRecord copies every column of t into one record of schema.
func buildRecord(mem memory.Allocator, schema *arrow.Schema, t *frame.Table) (arrow.Record, error) {
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for c, col := range t.Columns() {
		if err := appendColumn(b.Field(c), col); err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name(), err)
		}
	}
	return b.NewRecord(), nil
}

func appendColumn(fb array.Builder, col frame.Column) error {
	for i := 0; i < col.Len(); i++ {
		v := col.Value(i)
		if v == nil {
			fb.AppendNull()
			continue
		}
		if err := appendValue(fb, v); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}

func appendValue(fb array.Builder, v interface{}) error {
	switch b := fb.(type) {
	case *array.BooleanBuilder:
		x, ok := v.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", v)
		}
		b.Append(x)
	case *array.Int8Builder:
		x, ok := v.(int8)
		if !ok {
			return fmt.Errorf("expected int8, got %T", v)
		}
		b.Append(x)
	case *array.Int16Builder:
		x, ok := v.(int16)
		if !ok {
			return fmt.Errorf("expected int16, got %T", v)
		}
		b.Append(x)
	case *array.Int32Builder:
		x, ok := v.(int32)
		if !ok {
			return fmt.Errorf("expected int32, got %T", v)
		}
		b.Append(x)
	case *array.Int64Builder:
		switch x := v.(type) {
		case int64:
			b.Append(x)
		case time.Duration:
			b.Append(int64(x))
		default:
			return fmt.Errorf("expected int64, got %T", v)
		}
	case *array.Float32Builder:
		x, ok := v.(float32)
		if !ok {
			return fmt.Errorf("expected float32, got %T", v)
		}
		b.Append(x)
	case *array.Float64Builder:
		x, ok := v.(float64)
		if !ok {
			return fmt.Errorf("expected float64, got %T", v)
		}
		b.Append(x)
	case *array.StructBuilder:
		z, ok := v.(complex128)
		if !ok {
			return fmt.Errorf("expected complex128, got %T", v)
		}
		b.Append(true)
		b.FieldBuilder(0).(*array.Float64Builder).Append(real(z))
		b.FieldBuilder(1).(*array.Float64Builder).Append(imag(z))
	case *array.TimestampBuilder:
		ts, ok := v.(time.Time)
		if !ok {
			return fmt.Errorf("expected time.Time, got %T", v)
		}
		b.Append(arrow.Timestamp(ts.UnixMicro()))
	case *array.DurationBuilder:
		d, ok := v.(time.Duration)
		if !ok {
			return fmt.Errorf("expected time.Duration, got %T", v)
		}
		b.Append(arrow.Duration(d))
	case *array.StringBuilder:
		b.Append(frame.FormatValue(v))
	default:
		return fmt.Errorf("unsupported builder %T", fb)
	}
	return nil
}

package export

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/garlicdevs/csv-cleaner/pkg/frame"
)

// parquetType matches arrowType except for durations, which Parquet cannot
// store natively and are written as int64 nanoseconds.
func parquetType(kind frame.Kind) arrow.DataType {
	if kind == frame.KindDuration {
		return arrow.PrimitiveTypes.Int64
	}
	return arrowType(kind)
}

// ParquetSchema is the Arrow schema written to Parquet files. Field metadata
// keeps the type tag, so durations remain recognisable.
func ParquetSchema(t *frame.Table) *arrow.Schema {
	return schemaOf(t, parquetType)
}

type parquetWriter struct{}

// Write emits t as one snappy-compressed row group. The Arrow schema is
// stored in the file metadata so readers recover field metadata.
func (parquetWriter) Write(w io.Writer, t *frame.Table) error {
	mem := memory.NewGoAllocator()
	schema := ParquetSchema(t)

	rec, err := buildRecord(mem, schema, t)
	if err != nil {
		return err
	}
	defer rec.Release()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Snappy),
		parquet.WithAllocator(mem),
	)
	fw, err := pqarrow.NewFileWriter(schema, w, props,
		pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema(), pqarrow.WithAllocator(mem)))
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		_ = fw.Close()
		return fmt.Errorf("failed to write row group: %w", err)
	}
	return fw.Close()
}

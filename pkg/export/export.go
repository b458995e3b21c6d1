// Package export encodes converted tables into artifacts: delimited text,
// Arrow IPC files, Parquet files or Avro object container files, optionally
// compressed.
package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/garlicdevs/csv-cleaner/pkg/compression"
	"github.com/garlicdevs/csv-cleaner/pkg/frame"
)

// Format is an artifact encoding.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatArrow   Format = "arrow"
	FormatParquet Format = "parquet"
	FormatAvro    Format = "avro"
)

// TypeMetadataKey annotates Arrow fields with the resolved type tag.
const TypeMetadataKey = "cleaner.type"

// ParseFormat parses a format name; the empty string means csv.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatArrow, FormatParquet, FormatAvro:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", s)
	}
}

// Extension is the file suffix of the format.
func (f Format) Extension() string {
	switch f {
	case FormatArrow:
		return ".arrow"
	case FormatParquet:
		return ".parquet"
	case FormatAvro:
		return ".avro"
	default:
		return ".csv"
	}
}

// ContentType is the media type of an uncompressed artifact.
func (f Format) ContentType() string {
	switch f {
	case FormatArrow:
		return "application/vnd.apache.arrow.file"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	case FormatAvro:
		return "application/avro"
	default:
		return "text/csv"
	}
}

// Writer encodes a table to w.
type Writer interface {
	Write(w io.Writer, t *frame.Table) error
}

// NewWriter returns the writer for format.
func NewWriter(format Format) (Writer, error) {
	switch format {
	case FormatCSV, "":
		return csvWriter{}, nil
	case FormatArrow:
		return arrowWriter{}, nil
	case FormatParquet:
		return parquetWriter{}, nil
	case FormatAvro:
		return avroWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// Encode writes t in format and compresses the result with comp.
// A nil comp leaves the payload uncompressed.
func Encode(t *frame.Table, format Format, comp compression.Compressor) ([]byte, error) {
	w, err := NewWriter(format)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := w.Write(&buf, t); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", format, err)
	}
	if comp == nil {
		return buf.Bytes(), nil
	}
	out, err := comp.Compress(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to compress artifact: %w", err)
	}
	return out, nil
}

// ArtifactName is the object name of an encoded table, e.g. "converted.csv.zst".
func ArtifactName(format Format, algo compression.Algorithm) string {
	return "converted" + format.Extension() + algo.Extension()
}

package sampler

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/garlicdevs/csv-cleaner/pkg/errors"
)

// Format is a supported source format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Encodings reported in Stats.
const (
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "iso-8859-1"
	EncodingXLSX   = "xlsx"
)

// DetectFormat picks the reader from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", errors.New(errors.ErrorTypeUnsupportedFormat, "unsupported source format").
			WithDetail("path", path).
			WithDetail("extension", filepath.Ext(path))
	}
}

// rowSource yields the header and then one record per row.
type rowSource interface {
	Header() []string
	// Next returns io.EOF after the last row
	Next() ([]string, error)
	Close() error
}

// csvSource reads delimited text, optionally through a Latin-1 decoder.
type csvSource struct {
	file     *os.File
	reader   *csv.Reader
	header   []string
	validate bool
	line     int
}

func openCSV(path string, latin1 bool) (*csvSource, error) {
	file, err := os.Open(path) //nolint:gosec // G304: path is the user's source file
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open source").
			WithDetail("path", path)
	}

	var r io.Reader = file
	if latin1 {
		r = charmap.ISO8859_1.NewDecoder().Reader(file)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		reader.Comma = '\t'
	}

	s := &csvSource{file: file, reader: reader, validate: !latin1}
	header, err := s.Next()
	if err == io.EOF {
		_ = file.Close()
		return nil, errors.New(errors.ErrorTypeData, "source has no header row").
			WithDetail("path", path)
	}
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	s.header = header
	return s, nil
}

func (s *csvSource) Header() []string { return s.header }

func (s *csvSource) Next() ([]string, error) {
	record, err := s.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	s.line++
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "malformed delimited row").
			WithDetail("line", s.line)
	}
	if s.validate {
		for _, field := range record {
			if !utf8.ValidString(field) {
				return nil, errors.New(errors.ErrorTypeDecoding, "invalid UTF-8 in source").
					WithDetail("line", s.line)
			}
		}
	}
	return record, nil
}

func (s *csvSource) Close() error {
	return s.file.Close()
}

// xlsxSource reads the first sheet of a workbook.
type xlsxSource struct {
	file   *excelize.File
	rows   *excelize.Rows
	header []string
}

func openXLSX(path string) (*xlsxSource, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open workbook").
			WithDetail("path", path)
	}
	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		_ = file.Close()
		return nil, errors.New(errors.ErrorTypeData, "workbook has no sheets").
			WithDetail("path", path)
	}
	rows, err := file.Rows(sheets[0])
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read sheet").
			WithDetail("sheet", sheets[0])
	}

	s := &xlsxSource{file: file, rows: rows}
	header, err := s.Next()
	if err == io.EOF {
		_ = s.Close()
		return nil, errors.New(errors.ErrorTypeData, "sheet has no header row").
			WithDetail("sheet", sheets[0])
	}
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.header = header
	return s, nil
}

func (s *xlsxSource) Header() []string { return s.header }

func (s *xlsxSource) Next() ([]string, error) {
	if !s.rows.Next() {
		if err := s.rows.Error(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read sheet row")
		}
		return nil, io.EOF
	}
	cols, err := s.rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read sheet row")
	}
	return cols, nil
}

func (s *xlsxSource) Close() error {
	rowsErr := s.rows.Close()
	if err := s.file.Close(); err != nil {
		return err
	}
	return rowsErr
}

package export

import (
	"encoding/csv"
	"io"

	"github.com/garlicdevs/csv-cleaner/pkg/frame"
)

type csvWriter struct{}

// Write emits a header row then one row per table row; nulls are empty fields.
func (csvWriter) Write(w io.Writer, t *frame.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Names()); err != nil {
		return err
	}

	cols := t.Columns()
	row := make([]string, len(cols))
	for i := 0; i < t.NumRows(); i++ {
		for c, col := range cols {
			row[c] = frame.FormatValue(col.Value(i))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

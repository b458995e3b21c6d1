package frame

import (
	"github.com/garlicdevs/csv-cleaner/pkg/errors"
)

// Table is an ordered set of equally long, uniquely named columns.
type Table struct {
	columns []Column
	index   map[string]int
}

// NewTable creates a table, rejecting duplicate names and ragged columns.
func NewTable(columns ...Column) (*Table, error) {
	t := &Table{
		columns: make([]Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for _, col := range columns {
		if _, dup := t.index[col.Name()]; dup {
			return nil, errors.New(errors.ErrorTypeValidation, "duplicate column name").
				WithDetail("column", col.Name())
		}
		if len(t.columns) > 0 && col.Len() != t.columns[0].Len() {
			return nil, errors.New(errors.ErrorTypeValidation, "column length mismatch").
				WithDetail("column", col.Name()).
				WithDetail("rows", col.Len()).
				WithDetail("expected", t.columns[0].Len())
		}
		t.index[col.Name()] = len(t.columns)
		t.columns = append(t.columns, col)
	}
	return t, nil
}

// NumRows returns the row count, 0 for a table without columns.
func (t *Table) NumRows() int {
	if len(t.columns) == 0 {
		return 0
	}
	return t.columns[0].Len()
}

// NumColumns returns the column count.
func (t *Table) NumColumns() int {
	return len(t.columns)
}

// Columns returns the columns in order.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name()
	}
	return names
}

// Column returns the column called name.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// Replace swaps in col for the column with the same name.
func (t *Table) Replace(col Column) error {
	i, ok := t.index[col.Name()]
	if !ok {
		return errors.New(errors.ErrorTypeNotFound, "column not found").
			WithDetail("column", col.Name())
	}
	if col.Len() != t.columns[i].Len() {
		return errors.New(errors.ErrorTypeValidation, "column length mismatch").
			WithDetail("column", col.Name())
	}
	t.columns[i] = col
	return nil
}

// Clone returns a table sharing column storage but with its own column list,
// so Replace on the clone leaves t untouched.
func (t *Table) Clone() *Table {
	out := &Table{
		columns: make([]Column, len(t.columns)),
		index:   make(map[string]int, len(t.index)),
	}
	copy(out.columns, t.columns)
	for k, v := range t.index {
		out.index[k] = v
	}
	return out
}

// MemoryUsage sums the estimated footprint of every column.
func (t *Table) MemoryUsage() int64 {
	var size int64
	for _, c := range t.columns {
		size += c.MemoryUsage()
	}
	return size
}

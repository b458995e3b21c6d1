package frame

import (
	"time"
)

// RawColumn stores the values read from a source, before any cast.
type RawColumn struct {
	name   string
	values []interface{}
}

// NewRawColumn creates a raw column over values.
func NewRawColumn(name string, values []interface{}) *RawColumn {
	return &RawColumn{name: name, values: values}
}

// NewRawStrings creates a raw column from strings; nil entries are nulls.
func NewRawStrings(name string, values []*string) *RawColumn {
	out := make([]interface{}, len(values))
	for i, v := range values {
		if v != nil {
			out[i] = *v
		}
	}
	return &RawColumn{name: name, values: out}
}

func (c *RawColumn) Name() string { return c.name }
func (c *RawColumn) Kind() Kind   { return KindObject }
func (c *RawColumn) Len() int     { return len(c.values) }

func (c *RawColumn) Value(i int) interface{} {
	return c.values[i]
}

// Append adds a raw value.
func (c *RawColumn) Append(v interface{}) {
	c.values = append(c.values, v)
}

// Values returns the backing slice.
func (c *RawColumn) Values() []interface{} {
	return c.values
}

// MemoryUsage counts each string with its header, other values as one word.
func (c *RawColumn) MemoryUsage() int64 {
	var size int64
	for _, v := range c.values {
		if s, ok := v.(string); ok {
			size += StringOverhead + int64(len(s))
		} else {
			size += StringOverhead
		}
	}
	return size
}

// Scalar is the set of value types held by TypedColumn.
type Scalar interface {
	~bool | ~int8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64 |
		~complex128 | time.Time
}

// TypedColumn stores values of one Go type with a validity mask.
type TypedColumn[T Scalar] struct {
	name   string
	kind   Kind
	values []T
	valid  []bool
}

// NewTypedColumn creates an all-null typed column of n rows.
func NewTypedColumn[T Scalar](name string, kind Kind, n int) *TypedColumn[T] {
	return &TypedColumn[T]{
		name:   name,
		kind:   kind,
		values: make([]T, n),
		valid:  make([]bool, n),
	}
}

func (c *TypedColumn[T]) Name() string { return c.name }
func (c *TypedColumn[T]) Kind() Kind   { return c.kind }
func (c *TypedColumn[T]) Len() int     { return len(c.values) }

// Set stores v at row i and marks it valid.
func (c *TypedColumn[T]) Set(i int, v T) {
	c.values[i] = v
	c.valid[i] = true
}

// Get returns the value at row i and whether it is non-null.
func (c *TypedColumn[T]) Get(i int) (T, bool) {
	return c.values[i], c.valid[i]
}

func (c *TypedColumn[T]) Value(i int) interface{} {
	if !c.valid[i] {
		return nil
	}
	return c.values[i]
}

// NullCount returns the number of null rows.
func (c *TypedColumn[T]) NullCount() int {
	n := 0
	for _, ok := range c.valid {
		if !ok {
			n++
		}
	}
	return n
}

// MemoryUsage counts the payload plus one byte of validity per row.
func (c *TypedColumn[T]) MemoryUsage() int64 {
	return int64(len(c.values)) * (c.kind.width() + 1)
}

// CategoryColumn stores dictionary-encoded strings; code -1 is null.
type CategoryColumn struct {
	name  string
	codes []int32
	dict  []string
	index map[string]int32
}

// NewCategoryColumn creates an empty category column.
func NewCategoryColumn(name string, capacity int) *CategoryColumn {
	return &CategoryColumn{
		name:  name,
		codes: make([]int32, 0, capacity),
		index: make(map[string]int32),
	}
}

func (c *CategoryColumn) Name() string { return c.name }
func (c *CategoryColumn) Kind() Kind   { return KindCategory }
func (c *CategoryColumn) Len() int     { return len(c.codes) }

// Append adds a value, registering it in the dictionary when new.
func (c *CategoryColumn) Append(v string) {
	code, ok := c.index[v]
	if !ok {
		code = int32(len(c.dict))
		c.dict = append(c.dict, v)
		c.index[v] = code
	}
	c.codes = append(c.codes, code)
}

// AppendNull adds a null row.
func (c *CategoryColumn) AppendNull() {
	c.codes = append(c.codes, -1)
}

func (c *CategoryColumn) Value(i int) interface{} {
	code := c.codes[i]
	if code < 0 {
		return nil
	}
	return c.dict[code]
}

// Categories returns the dictionary in first-seen order.
func (c *CategoryColumn) Categories() []string {
	out := make([]string, len(c.dict))
	copy(out, c.dict)
	return out
}

// Code returns the dictionary code of row i, -1 for null.
func (c *CategoryColumn) Code(i int) int32 {
	return c.codes[i]
}

// MemoryUsage counts each distinct string once plus four bytes per row.
func (c *CategoryColumn) MemoryUsage() int64 {
	size := int64(len(c.codes)) * 4
	for _, s := range c.dict {
		size += StringOverhead + int64(len(s))
	}
	return size
}

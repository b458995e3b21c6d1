package models

import (
	"github.com/garlicdevs/csv-cleaner/pkg/errors"
)

// TypeEntry pairs a column name with its resolved tag.
type TypeEntry struct {
	Column string  `json:"column"`
	Tag    TypeTag `json:"type"`
}

// TypeMap is an ordered, name-unique mapping from column to TypeTag.
// It is immutable; With returns a modified copy.
type TypeMap struct {
	entries []TypeEntry
	index   map[string]int
}

// NewTypeMap builds a TypeMap, rejecting duplicate names and invalid tags.
func NewTypeMap(entries []TypeEntry) (TypeMap, error) {
	tm := TypeMap{
		entries: make([]TypeEntry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if _, dup := tm.index[e.Column]; dup {
			return TypeMap{}, errors.New(errors.ErrorTypeValidation, "duplicate column in type map").
				WithDetail("column", e.Column)
		}
		if !e.Tag.Valid() {
			return TypeMap{}, errors.New(errors.ErrorTypeValidation, "invalid type tag").
				WithDetail("column", e.Column).
				WithDetail("type", string(e.Tag))
		}
		tm.index[e.Column] = len(tm.entries)
		tm.entries = append(tm.entries, e)
	}
	return tm, nil
}

// Len returns the number of columns.
func (tm TypeMap) Len() int {
	return len(tm.entries)
}

// Get returns the tag of column.
func (tm TypeMap) Get(column string) (TypeTag, bool) {
	i, ok := tm.index[column]
	if !ok {
		return "", false
	}
	return tm.entries[i].Tag, true
}

// Columns returns the column names in order.
func (tm TypeMap) Columns() []string {
	names := make([]string, len(tm.entries))
	for i, e := range tm.entries {
		names[i] = e.Column
	}
	return names
}

// Entries returns a copy of the ordered entries.
func (tm TypeMap) Entries() []TypeEntry {
	out := make([]TypeEntry, len(tm.entries))
	copy(out, tm.entries)
	return out
}

// With returns a copy with column forced to tag, appending it when absent.
func (tm TypeMap) With(column string, tag TypeTag) (TypeMap, error) {
	entries := tm.Entries()
	if i, ok := tm.index[column]; ok {
		entries[i].Tag = tag
	} else {
		entries = append(entries, TypeEntry{Column: column, Tag: tag})
	}
	return NewTypeMap(entries)
}

// Package models defines the data model shared by the inference core and
// its collaborators: type tags, type maps, column reports and the persisted
// dataset record.
package models

import (
	"strings"
)

// TypeTag is the resolved storage type of a column.
// Exactly one tag is assigned to every column of a run.
type TypeTag string

const (
	Boolean    TypeTag = "boolean"
	Int8       TypeTag = "int8"
	Int16      TypeTag = "int16"
	Int32      TypeTag = "int32"
	Int64      TypeTag = "int64"
	Float32    TypeTag = "float32"
	Float64    TypeTag = "float64"
	Complex128 TypeTag = "complex128"
	Datetime   TypeTag = "datetime"
	Duration   TypeTag = "duration"
	Category   TypeTag = "category"
	Text       TypeTag = "text"
)

// AllTypeTags lists the closed set of tags in declaration order.
var AllTypeTags = []TypeTag{
	Boolean, Int8, Int16, Int32, Int64, Float32, Float64,
	Complex128, Datetime, Duration, Category, Text,
}

// ParseTypeTag parses a tag name case-insensitively.
func ParseTypeTag(s string) (TypeTag, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, tag := range AllTypeTags {
		if string(tag) == s {
			return tag, true
		}
	}
	return "", false
}

// Valid reports whether t belongs to the closed set.
func (t TypeTag) Valid() bool {
	for _, tag := range AllTypeTags {
		if t == tag {
			return true
		}
	}
	return false
}

// IsInteger reports whether t is one of the signed integer widths.
func (t TypeTag) IsInteger() bool {
	switch t {
	case Int8, Int16, Int32, Int64:
		return true
	}
	return false
}

// IsFloat reports whether t is one of the float widths.
func (t TypeTag) IsFloat() bool {
	return t == Float32 || t == Float64
}

// IsNumeric reports whether t is an integer or float width.
func (t TypeTag) IsNumeric() bool {
	return t.IsInteger() || t.IsFloat()
}

func (t TypeTag) String() string {
	return string(t)
}

// Friendly labels shown to users.
const (
	LabelInteger  = "integer"
	LabelFloat    = "float"
	LabelComplex  = "complex"
	LabelText     = "text"
	LabelBoolean  = "boolean"
	LabelCategory = "category"
	LabelDatetime = "datetime"
	LabelDuration = "duration"
	LabelUnknown  = "unknown"
)

var friendlyLabels = map[TypeTag]string{
	Boolean:    LabelBoolean,
	Int8:       LabelInteger,
	Int16:      LabelInteger,
	Int32:      LabelInteger,
	Int64:      LabelInteger,
	Float32:    LabelFloat,
	Float64:    LabelFloat,
	Complex128: LabelComplex,
	Datetime:   LabelDatetime,
	Duration:   LabelDuration,
	Category:   LabelCategory,
	Text:       LabelText,
}

// FriendlyLabel maps a resolved type to its user-facing label.
// Anything outside the table maps to "unknown".
func FriendlyLabel(t TypeTag) string {
	if label, ok := friendlyLabels[t]; ok {
		return label
	}
	return LabelUnknown
}

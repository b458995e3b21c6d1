package models

import (
	"time"
)

// ColumnReport is the externally visible classification result of one column.
// Only FriendlyName changes after creation, through a label override.
type ColumnReport struct {
	Name         string  `json:"name" bson:"name"`
	Type         TypeTag `json:"type" bson:"type"`
	FriendlyName string  `json:"friendly_name" bson:"friendly_name"`
}

// NewColumnReport creates a report with the default friendly label of tag.
func NewColumnReport(name string, tag TypeTag) ColumnReport {
	return ColumnReport{
		Name:         name,
		Type:         tag,
		FriendlyName: FriendlyLabel(tag),
	}
}

// Dataset is the persisted record of one inference run, keyed by Name.
type Dataset struct {
	Name        string         `json:"name" bson:"_id"`
	Columns     []ColumnReport `json:"columns" bson:"columns"`
	ArtifactKey string         `json:"artifact_key" bson:"artifact_key"`
	Format      string         `json:"format" bson:"format"`
	Compression string         `json:"compression" bson:"compression"`
	Encoding    string         `json:"encoding" bson:"encoding"`
	Rows        int            `json:"rows" bson:"rows"`
	RunID       string         `json:"run_id" bson:"run_id"`
	UpdatedAt   time.Time      `json:"updated_at" bson:"updated_at"`
}

// ApplyLabels overrides the friendly label of the named columns.
// Names without a matching column are ignored. It returns the number of
// columns changed.
func (d *Dataset) ApplyLabels(labels map[string]string) int {
	changed := 0
	for i := range d.Columns {
		if label, ok := labels[d.Columns[i].Name]; ok {
			d.Columns[i].FriendlyName = label
			changed++
		}
	}
	return changed
}

// Clone returns a deep copy of d.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	out := *d
	out.Columns = make([]ColumnReport, len(d.Columns))
	copy(out.Columns, d.Columns)
	return &out
}

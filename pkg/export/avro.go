package export

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"time"

	"github.com/linkedin/goavro/v2"

	"github.com/garlicdevs/csv-cleaner/pkg/frame"
	"github.com/garlicdevs/csv-cleaner/pkg/json"
)

const avroNamespace = "cleaner"

var invalidAvroName = regexp.MustCompile(`[^A-Za-z0-9_]`)

// avroName turns a column header into a valid, unique Avro field name.
func avroName(header string, used map[string]bool) string {
	name := invalidAvroName.ReplaceAllString(header, "_")
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "_" + name
	}
	base := name
	for i := 1; used[name]; i++ {
		name = base + "_" + strconv.Itoa(i)
	}
	used[name] = true
	return name
}

// avroField describes one column in the Avro schema.
type avroField struct {
	name   string
	branch string
	schema interface{}
}

func avroFieldFor(col frame.Column, name string) avroField {
	switch col.Kind() {
	case frame.KindBool:
		return avroField{name: name, branch: "boolean", schema: "boolean"}
	case frame.KindInt8, frame.KindInt16, frame.KindInt32:
		return avroField{name: name, branch: "int", schema: "int"}
	case frame.KindInt64:
		return avroField{name: name, branch: "long", schema: "long"}
	case frame.KindFloat32:
		return avroField{name: name, branch: "float", schema: "float"}
	case frame.KindFloat64:
		return avroField{name: name, branch: "double", schema: "double"}
	case frame.KindComplex:
		record := name + "_complex"
		return avroField{name: name, branch: avroNamespace + "." + record, schema: map[string]interface{}{
			"type":      "record",
			"name":      record,
			"namespace": avroNamespace,
			"fields": []map[string]interface{}{
				{"name": "real", "type": "double"},
				{"name": "imag", "type": "double"},
			},
		}}
	case frame.KindDatetime:
		return avroField{name: name, branch: "long.timestamp-micros", schema: map[string]interface{}{
			"type": "long", "logicalType": "timestamp-micros",
		}}
	case frame.KindDuration:
		return avroField{name: name, branch: "long", schema: "long"}
	default:
		return avroField{name: name, branch: "string", schema: "string"}
	}
}

func avroDatum(col frame.Column, v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case bool, int32, int64, float32, float64, string:
		return x, nil
	case int8:
		return int32(x), nil
	case int16:
		return int32(x), nil
	case complex128:
		return map[string]interface{}{"real": real(x), "imag": imag(x)}, nil
	case time.Time:
		return x.UTC(), nil
	case time.Duration:
		return int64(x), nil
	}
	if col.Kind() == frame.KindObject || col.Kind() == frame.KindCategory {
		return frame.FormatValue(v), nil
	}
	return nil, fmt.Errorf("unsupported value %T", v)
}

// avroSchema returns the record schema for t and the field names used for
// each column in order.
func avroSchema(t *frame.Table) (string, []avroField, error) {
	used := make(map[string]bool)
	fields := make([]avroField, 0, t.NumColumns())
	schemaFields := make([]map[string]interface{}, 0, t.NumColumns())
	for _, col := range t.Columns() {
		f := avroFieldFor(col, avroName(col.Name(), used))
		fields = append(fields, f)
		schemaFields = append(schemaFields, map[string]interface{}{
			"name":          f.name,
			"type":          []interface{}{"null", f.schema},
			"default":       nil,
			"doc":           col.Name(),
			TypeMetadataKey: string(col.Kind().Tag()),
		})
	}
	schema, err := json.Marshal(map[string]interface{}{
		"type":      "record",
		"name":      "CleanedRow",
		"namespace": avroNamespace,
		"fields":    schemaFields,
	})
	if err != nil {
		return "", nil, err
	}
	return string(schema), fields, nil
}

type avroWriter struct{}

// Write emits t as an Avro object container file, one record per row.
func (avroWriter) Write(w io.Writer, t *frame.Table) error {
	schema, fields, err := avroSchema(t)
	if err != nil {
		return fmt.Errorf("failed to build avro schema: %w", err)
	}
	codec, err := goavro.NewCodec(schema)
	if err != nil {
		return fmt.Errorf("failed to create avro codec: %w", err)
	}
	ocf, err := goavro.NewOCFWriter(goavro.OCFConfig{W: w, Codec: codec})
	if err != nil {
		return fmt.Errorf("failed to create OCF writer: %w", err)
	}

	cols := t.Columns()
	batch := make([]interface{}, 0, 1024)
	for i := 0; i < t.NumRows(); i++ {
		row := make(map[string]interface{}, len(cols))
		for c, col := range cols {
			v := col.Value(i)
			if v == nil {
				row[fields[c].name] = nil
				continue
			}
			datum, err := avroDatum(col, v)
			if err != nil {
				return fmt.Errorf("column %q row %d: %w", col.Name(), i, err)
			}
			row[fields[c].name] = goavro.Union(fields[c].branch, datum)
		}
		batch = append(batch, row)
		if len(batch) == cap(batch) {
			if err := ocf.Append(batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		return ocf.Append(batch)
	}
	return nil
}

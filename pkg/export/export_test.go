package export

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/linkedin/goavro/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garlicdevs/csv-cleaner/pkg/compression"
	"github.com/garlicdevs/csv-cleaner/pkg/frame"
)

func convertedTable(t *testing.T) *frame.Table {
	t.Helper()
	name := frame.NewRawColumn("Name", []interface{}{"Alice", "Bob"})

	birth := frame.NewTypedColumn[time.Time]("Birth date", frame.KindDatetime, 2)
	birth.Set(0, time.Date(1990, 1, 15, 0, 0, 0, 0, time.UTC))

	score := frame.NewTypedColumn[int8]("Score", frame.KindInt8, 2)
	score.Set(0, 85)
	score.Set(1, 72)

	grade := frame.NewCategoryColumn("Grade", 2)
	grade.Append("A")
	grade.Append("B")

	z := frame.NewTypedColumn[complex128]("z", frame.KindComplex, 2)
	z.Set(1, complex(1, -2))

	wait := frame.NewTypedColumn[time.Duration]("wait", frame.KindDuration, 2)
	wait.Set(0, 90*time.Minute)

	tbl, err := frame.NewTable(name, birth, score, grade, z, wait)
	require.NoError(t, err)
	return tbl
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat("Arrow")
	require.NoError(t, err)
	assert.Equal(t, FormatArrow, f)

	f, err = ParseFormat("parquet")
	require.NoError(t, err)
	assert.Equal(t, FormatParquet, f)

	_, err = ParseFormat("orc")
	assert.Error(t, err)

	assert.Equal(t, "converted.parquet.zst", ArtifactName(FormatParquet, compression.Zstd))

	assert.Equal(t, "converted.avro.gz", ArtifactName(FormatAvro, compression.Gzip))
	assert.Equal(t, "converted.csv", ArtifactName(FormatCSV, compression.None))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(FormatCSV)
	require.NoError(t, err)
	require.NoError(t, w.Write(&buf, convertedTable(t)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Name,Birth date,Score,Grade,z,wait", lines[0])
	assert.Equal(t, "Alice,1990-01-15,85,A,,1h30m0s", lines[1])
	assert.Equal(t, "Bob,,72,B,(1-2i),", lines[2])
}

func TestWriteArrow(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(FormatArrow)
	require.NoError(t, err)
	require.NoError(t, w.Write(&buf, convertedTable(t)))

	r, err := ipc.NewFileReader(bytes.NewReader(buf.Bytes()), ipc.WithAllocator(memory.NewGoAllocator()))
	require.NoError(t, err)
	defer r.Close()

	schema := r.Schema()
	require.Equal(t, 6, len(schema.Fields()))
	assert.Equal(t, arrow.PrimitiveTypes.Int8.ID(), schema.Field(2).Type.ID())
	assert.Equal(t, arrow.TIMESTAMP, schema.Field(1).Type.ID())
	assert.Equal(t, arrow.STRUCT, schema.Field(4).Type.ID())
	tag, ok := schema.Field(3).Metadata.GetValue(TypeMetadataKey)
	require.True(t, ok)
	assert.Equal(t, "category", tag)

	require.Equal(t, 1, r.NumRecords())
	rec, err := r.Record(0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.NumRows())

	scores := rec.Column(2).(*array.Int8)
	assert.Equal(t, int8(85), scores.Value(0))
	assert.True(t, rec.Column(1).IsNull(1))
	assert.True(t, rec.Column(4).IsNull(0))
}

func TestWriteParquet(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(FormatParquet)
	require.NoError(t, err)
	require.NoError(t, w.Write(&buf, convertedTable(t)))

	mem := memory.NewGoAllocator()
	tbl, err := pqarrow.ReadTable(context.Background(), bytes.NewReader(buf.Bytes()),
		parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
	require.NoError(t, err)
	defer tbl.Release()

	assert.Equal(t, int64(2), tbl.NumRows())
	schema := tbl.Schema()
	assert.Equal(t, arrow.INT8, schema.Field(2).Type.ID())
	assert.Equal(t, arrow.INT64, schema.Field(5).Type.ID(), "durations are stored as nanoseconds")

	scores := tbl.Column(2).Data().Chunk(0).(*array.Int8)
	assert.Equal(t, int8(72), scores.Value(1))
	waits := tbl.Column(5).Data().Chunk(0).(*array.Int64)
	assert.Equal(t, int64(90*time.Minute), waits.Value(0))
	assert.True(t, waits.IsNull(1))
}

func TestWriteAvro(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(FormatAvro)
	require.NoError(t, err)
	require.NoError(t, w.Write(&buf, convertedTable(t)))

	ocf, err := goavro.NewOCFReader(&buf)
	require.NoError(t, err)

	var rows []map[string]interface{}
	for ocf.Scan() {
		datum, err := ocf.Read()
		require.NoError(t, err)
		rows = append(rows, datum.(map[string]interface{}))
	}
	require.Len(t, rows, 2)

	assert.Equal(t, map[string]interface{}{"string": "Alice"}, rows[0]["Name"])
	assert.Equal(t, map[string]interface{}{"int": int32(85)}, rows[0]["Score"])
	assert.Nil(t, rows[1]["Birth_date"])
	assert.Nil(t, rows[0]["z"])
	assert.Equal(t, map[string]interface{}{"long": int64(90 * time.Minute)}, rows[0]["wait"])
}

func TestAvroName(t *testing.T) {
	used := map[string]bool{}
	assert.Equal(t, "Birth_date", avroName("Birth date", used))
	assert.Equal(t, "Birth_date_1", avroName("Birth-date", used))
	assert.Equal(t, "_2024", avroName("2024", used))
	assert.Equal(t, "_", avroName("", used))
}

func TestEncodeCompresses(t *testing.T) {
	comp, err := compression.NewCompressor(&compression.Config{Algorithm: compression.Zstd})
	require.NoError(t, err)

	data, err := Encode(convertedTable(t), FormatCSV, comp)
	require.NoError(t, err)

	plain, err := comp.Decompress(data)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(plain), "Name,Birth date"))
}

package sampler

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/garlicdevs/csv-cleaner/pkg/config"
	"github.com/garlicdevs/csv-cleaner/pkg/errors"
	"github.com/garlicdevs/csv-cleaner/pkg/frame"
	"github.com/garlicdevs/csv-cleaner/pkg/testutil"
)

func column(t *testing.T, tbl *frame.Table, name string) []interface{} {
	t.Helper()
	col, ok := tbl.Column(name)
	require.True(t, ok, "column %s", name)
	out := make([]interface{}, col.Len())
	for i := range out {
		out[i] = col.Value(i)
	}
	return out
}

func numberedRows(n int) [][]string {
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{fmt.Sprint(i)}
	}
	return rows
}

func TestDetectFormat(t *testing.T) {
	f, err := DetectFormat("data/Scores.CSV")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = DetectFormat("book.xlsx")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = DetectFormat("table.parquet")
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnsupportedFormat))
}

func TestReadLogsInternedValues(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	path := testutil.WriteFile(t, "scores.csv", []byte(testutil.ScenarioCSV))

	_, _, err := New(config.DefaultThresholds(), zap.New(core)).Load(context.Background(), path)
	require.NoError(t, err)

	entries := logs.FilterMessage("source read").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	// 30 distinct non-NA cells; the repeated grades are hits
	assert.Equal(t, int64(30), fields["interned_values"])
	assert.Equal(t, int64(8), fields["intern_hits"])
}

func TestSampleKeepsSmallChunksWhole(t *testing.T) {
	path := testutil.WriteFile(t, "scores.csv", []byte(testutil.ScenarioCSV))
	s := New(config.DefaultThresholds(), testutil.TestLogger(t))

	tbl, stats, err := s.Sample(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Birthdate", "Score", "Grade"}, tbl.Names())
	assert.Equal(t, 10, tbl.NumRows())
	assert.Equal(t, 10, stats.SourceRows)
	assert.Equal(t, 1, stats.Chunks)
	assert.Equal(t, EncodingUTF8, stats.Encoding)

	birth := column(t, tbl, "Birthdate")
	assert.Nil(t, birth[3], "blank field loads as null")
	assert.Equal(t, "1990-01-15", birth[0])
}

func TestSampleBoundsEachChunk(t *testing.T) {
	path := testutil.WriteCSV(t, "ids.csv", []string{"id"}, numberedRows(25))
	cfg := config.DefaultThresholds()
	cfg.ChunkSize = 10
	cfg.SampleSizePerChunk = 4

	tbl, stats, err := New(cfg, nil).Sample(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Chunks)
	// 4 + 4 + 4 (last chunk has 5 rows, still above the cap)
	assert.Equal(t, 12, tbl.NumRows())
	assert.Equal(t, 12, stats.SampledRows)

	ids := column(t, tbl, "id")
	chunkOf := func(v interface{}) int {
		var n int
		_, _ = fmt.Sscan(v.(string), &n)
		return n / 10
	}
	for i := 1; i < len(ids); i++ {
		assert.LessOrEqual(t, chunkOf(ids[i-1]), chunkOf(ids[i]), "chunk samples stay in file order")
	}
}

func TestSampleIsReproducible(t *testing.T) {
	path := testutil.WriteCSV(t, "ids.csv", []string{"id"}, numberedRows(200))
	cfg := config.DefaultThresholds()
	cfg.ChunkSize = 100
	cfg.SampleSizePerChunk = 10
	cfg.RandomState = 7

	first, _, err := New(cfg, nil).Sample(context.Background(), path)
	require.NoError(t, err)
	second, _, err := New(cfg, nil).Sample(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, column(t, first, "id"), column(t, second, "id"))

	cfg.RandomState = 8
	other, _, err := New(cfg, nil).Sample(context.Background(), path)
	require.NoError(t, err)
	assert.NotEqual(t, column(t, first, "id"), column(t, other, "id"))
}

func TestLoadReadsEveryRow(t *testing.T) {
	path := testutil.WriteCSV(t, "ids.csv", []string{"id"}, numberedRows(30))
	cfg := config.DefaultThresholds()
	cfg.ChunkSize = 7
	cfg.SampleSizePerChunk = 1

	tbl, stats, err := New(cfg, nil).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 30, tbl.NumRows())
	assert.Equal(t, 5, stats.Chunks)
	assert.Equal(t, "29", column(t, tbl, "id")[29])
}

func TestDropsSyntheticIndexAndDedupesHeaders(t *testing.T) {
	path := testutil.WriteFile(t, "export.csv", []byte(",Unnamed: 1,a,a,b\n0,x,1,2,3\n1,y,4,5\n"))

	tbl, stats, err := New(config.DefaultThresholds(), nil).Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "a.1", "b"}, tbl.Names())
	assert.Equal(t, []string{"", "Unnamed: 1"}, stats.Dropped)
	assert.Nil(t, column(t, tbl, "b")[1], "short rows are padded with nulls")
}

func TestNAValues(t *testing.T) {
	path := testutil.WriteFile(t, "na.csv", []byte("v\nNA\nnull\nN/A\nnone\n5\n"))

	tbl, _, err := New(config.DefaultThresholds(), nil).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{nil, nil, nil, "none", "5"}, column(t, tbl, "v"))
}

func TestLatin1Fallback(t *testing.T) {
	// "café" encoded as ISO-8859-1
	path := testutil.WriteFile(t, "latin1.csv", []byte("drink\ncaf\xe9\ntea\n"))

	tbl, stats, err := New(config.DefaultThresholds(), testutil.TestLogger(t)).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, EncodingLatin1, stats.Encoding)
	assert.Equal(t, "café", column(t, tbl, "drink")[0])
}

func TestUTF8BOMIsStripped(t *testing.T) {
	path := testutil.WriteFile(t, "bom.csv", []byte("\xef\xbb\xbfName\nAlice\n"))

	tbl, _, err := New(config.DefaultThresholds(), nil).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name"}, tbl.Names())
}

func TestFatalErrors(t *testing.T) {
	s := New(config.DefaultThresholds(), nil)
	ctx := context.Background()

	_, _, err := s.Sample(ctx, testutil.WriteFile(t, "data.json", []byte("{}")))
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnsupportedFormat))

	_, _, err = s.Sample(ctx, testutil.WriteFile(t, "empty.csv", nil))
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))

	_, _, err = s.Sample(ctx, testutil.WriteFile(t, "wide.csv", []byte("a,b\n1,2,3\n")))
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))

	_, _, err = s.Sample(ctx, "/does/not/exist.csv")
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))

	bad := config.DefaultThresholds()
	bad.ValidThreshold = 3
	_, _, err = New(bad, nil).Sample(ctx, "x.csv")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, _, err = s.Sample(cancelled, "x.csv")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSampleXLSX(t *testing.T) {
	path := testutil.WriteXLSX(t, "scores.xlsx", [][]interface{}{
		{"Name", "Score", "Grade"},
		{"Alice", 85, "A"},
		{"Bob", 72, "B"},
		{"Charlie", nil, "A"},
	})

	tbl, stats, err := New(config.DefaultThresholds(), nil).Sample(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, stats.Format)
	assert.Equal(t, []string{"Name", "Score", "Grade"}, tbl.Names())
	assert.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, []interface{}{"85", "72", nil}, column(t, tbl, "Score"))
}

func TestPickRows(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, pickRows(3, 5, 0))

	rows := pickRows(50, 10, 0)
	require.Len(t, rows, 10)
	seen := map[int]bool{}
	for i, r := range rows {
		assert.False(t, seen[r], "no replacement")
		seen[r] = true
		if i > 0 {
			assert.Less(t, rows[i-1], r)
		}
	}
	assert.Equal(t, rows, pickRows(50, 10, 0))
}

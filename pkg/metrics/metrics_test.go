package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerObservesStage(t *testing.T) {
	before := testutil.CollectAndCount(StageDuration)
	d := NewTimer("test_stage").Stop()
	assert.GreaterOrEqual(t, d.Nanoseconds(), int64(0))
	assert.Equal(t, before+1, testutil.CollectAndCount(StageDuration))
}

func TestCounters(t *testing.T) {
	ColumnsClassified.WithLabelValues("int8").Add(2)
	assert.GreaterOrEqual(t, testutil.ToFloat64(ColumnsClassified.WithLabelValues("int8")), 2.0)

	before := testutil.ToFloat64(RowsSampled)
	RowsSampled.Add(10)
	assert.Equal(t, before+10, testutil.ToFloat64(RowsSampled))
}

func TestResidentMemory(t *testing.T) {
	rss, err := ResidentMemory()
	require.NoError(t, err)
	assert.Positive(t, rss)
	assert.Equal(t, float64(rss), testutil.ToFloat64(ResidentMemoryBytes))
}

func TestWriteTextfile(t *testing.T) {
	Runs.WithLabelValues("success").Inc()
	path := filepath.Join(t.TempDir(), "cleaner.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "cleaner_runs_total")
}

package inference

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garlicdevs/csv-cleaner/pkg/config"
	"github.com/garlicdevs/csv-cleaner/pkg/frame"
	"github.com/garlicdevs/csv-cleaner/pkg/models"
	"github.com/garlicdevs/csv-cleaner/pkg/sampler"
	"github.com/garlicdevs/csv-cleaner/pkg/testutil"
)

func raw(name string, values ...interface{}) *frame.RawColumn {
	return frame.NewRawColumn(name, values)
}

func newClassifier(t *testing.T, opts ...ClassifierOption) *Classifier {
	t.Helper()
	c, err := NewClassifier(config.DefaultThresholds(), append(opts, WithLogger(testutil.TestLogger(t)))...)
	require.NoError(t, err)
	return c
}

func TestClassifierChainOrder(t *testing.T) {
	c := newClassifier(t)
	assert.Equal(t, []string{"boolean", "numeric", "complex", "datetime", "duration", "category"}, c.Steps())
	assert.Equal(t, config.StrategyCoherence, c.Strategy().Name())
}

func TestNewClassifierRejectsBadThresholds(t *testing.T) {
	cfg := config.DefaultThresholds()
	cfg.ValidThreshold = -0.1
	_, err := NewClassifier(cfg)
	assert.Error(t, err)

	cfg = config.DefaultThresholds()
	cfg.CategoryStrategy = "entropy"
	_, err = NewClassifier(cfg)
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	c := newClassifier(t)

	tests := []struct {
		name string
		col  frame.Column
		want models.TypeTag
	}{
		{"empty column", raw("e"), models.Text},
		{"all null", raw("n", nil, "  ", nil), models.Text},
		{"zero one flags", raw("f", "0", "1", "1", "0", nil), models.Boolean},
		{"yes no", raw("f", "Yes", "no", "YES"), models.Boolean},
		{"constant one is not boolean", raw("c", "1", "1", "1"), models.Int8},
		{"small integers", raw("s", "85", "72", nil, "90"), models.Int8},
		{"wide integers", raw("w", "-40000", "12"), models.Int32},
		{"integral floats", raw("i", "1.0", "2.0"), models.Int8},
		{"fractions", raw("f", "1.5", "2.25", "-0.5"), models.Float32},
		{"float64 magnitude", raw("m", "1e300", "2"), models.Float64},
		{"complex", raw("z", "1+2j", "3-4j", "(0+1j)"), models.Complex128},
		{"dates", raw("d", "1990-01-15", "1985-06-30", nil), models.Datetime},
		{"single repeated word", raw("w", "hello", "hello", "hello"), models.Category},
		{"one row", raw("r", "hello"), models.Category},
		{"grades", raw("g", "A", "B", "A", "B", "A", "B", "A", "B"), models.Category},
		{"free text", raw("t", "Alice", "Bob", "Charlie", "Diana"), models.Text},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.col))
		})
	}
}

func TestClassifyTypedColumns(t *testing.T) {
	c := newClassifier(t)

	small := frame.NewTypedColumn[int8]("small", frame.KindInt8, 3)
	small.Set(0, 5)
	small.Set(2, -5)
	assert.Equal(t, models.Int8, c.Classify(small), "narrowest integer is idempotent")

	wide := frame.NewTypedColumn[int64]("wide", frame.KindInt64, 2)
	wide.Set(0, 100)
	wide.Set(1, 300)
	assert.Equal(t, models.Int16, c.Classify(wide))

	floats := frame.NewTypedColumn[float64]("floats", frame.KindFloat64, 2)
	floats.Set(0, 3)
	floats.Set(1, 4)
	assert.Equal(t, models.Int8, c.Classify(floats))

	flags := frame.NewTypedColumn[bool]("flags", frame.KindBool, 2)
	flags.Set(0, true)
	flags.Set(1, true)
	assert.Equal(t, models.Boolean, c.Classify(flags))

	cat := frame.NewCategoryColumn("cat", 2)
	cat.Append("x")
	cat.Append("y")
	assert.Equal(t, models.Category, c.Classify(cat))
}

func TestValidThresholdIsInclusive(t *testing.T) {
	values := []interface{}{"1", "2", "x", "y"}

	tag, ok := CheckNumeric(values, 0.5)
	assert.True(t, ok)
	assert.Equal(t, models.Int8, tag)

	_, ok = CheckNumeric(values, 0.51)
	assert.False(t, ok)

	_, ok = CheckNumeric([]interface{}{"x"}, 0)
	assert.False(t, ok, "a zero threshold still needs one match")
}

func TestCheckNumericOutOfInt64Range(t *testing.T) {
	tag, ok := CheckNumeric([]interface{}{"1e20", "5"}, 0.5)
	require.True(t, ok)
	assert.Equal(t, models.Float32, tag)
}

func TestCheckDuration(t *testing.T) {
	tag, ok := CheckDuration([]interface{}{"1h30m", "2 days, 04:00", "45 mins", "n/a"}, 0.5)
	assert.True(t, ok)
	assert.Equal(t, models.Duration, tag)

	_, ok = CheckDuration([]interface{}{"12", "7"}, 0.5)
	assert.False(t, ok, "bare numbers are not durations")
}

func TestClassifyWithUniquenessStrategy(t *testing.T) {
	c := newClassifier(t, WithStrategy(&UniquenessStrategy{Threshold: 0.5}))
	assert.Equal(t, config.StrategyUniqueness, c.Strategy().Name())

	assert.Equal(t, models.Category, c.Classify(raw("g", "A", "A", "A", "B", "B", "B")))
	assert.Equal(t, models.Text, c.Classify(raw("g", "A", "B", "C", "A")))
}

func TestClassifyScenario(t *testing.T) {
	path := testutil.WriteFile(t, "scores.csv", []byte(testutil.ScenarioCSV))
	tbl, _, err := sampler.New(config.DefaultThresholds(), nil).Sample(context.Background(), path)
	require.NoError(t, err)

	types, err := newClassifier(t).ClassifyTable(tbl)
	require.NoError(t, err)

	assert.Equal(t, []models.TypeEntry{
		{Column: "Name", Tag: models.Text},
		{Column: "Birthdate", Tag: models.Datetime},
		{Column: "Score", Tag: models.Int8},
		{Column: "Grade", Tag: models.Category},
	}, types.Entries())
}

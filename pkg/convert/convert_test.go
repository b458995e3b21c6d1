package convert

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/garlicdevs/csv-cleaner/pkg/errors"
	"github.com/garlicdevs/csv-cleaner/pkg/frame"
	"github.com/garlicdevs/csv-cleaner/pkg/models"
)

func table(t *testing.T, cols map[string][]interface{}, order ...string) *frame.Table {
	t.Helper()
	columns := make([]frame.Column, 0, len(order))
	for _, name := range order {
		columns = append(columns, frame.NewRawColumn(name, cols[name]))
	}
	tbl, err := frame.NewTable(columns...)
	require.NoError(t, err)
	return tbl
}

func typeMap(t *testing.T, pairs ...string) models.TypeMap {
	t.Helper()
	entries := make([]models.TypeEntry, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		entries = append(entries, models.TypeEntry{Column: pairs[i], Tag: models.TypeTag(pairs[i+1])})
	}
	tm, err := models.NewTypeMap(entries)
	require.NoError(t, err)
	return tm
}

func values(col frame.Column) []interface{} {
	out := make([]interface{}, col.Len())
	for i := range out {
		out[i] = col.Value(i)
	}
	return out
}

func TestConvertScenarioColumns(t *testing.T) {
	tbl := table(t, map[string][]interface{}{
		"Name":      {"Alice", "Bob", nil},
		"Birthdate": {"1990-01-15", nil, "1985-06-30"},
		"Score":     {"85", "72", nil},
		"Grade":     {"A", "B", "A"},
	}, "Name", "Birthdate", "Score", "Grade")

	out, outcomes := New(nil).Convert(context.Background(), tbl,
		typeMap(t, "Name", "text", "Birthdate", "datetime", "Score", "int8", "Grade", "category"))

	require.Len(t, outcomes, 4)
	for _, o := range outcomes {
		assert.Equal(t, StatusConverted, o.Status, o.Column)
		assert.NoError(t, o.Err)
	}
	assert.NoError(t, Failed(outcomes))

	score, _ := out.Column("Score")
	assert.Equal(t, frame.KindInt8, score.Kind())
	assert.Equal(t, []interface{}{int8(85), int8(72), nil}, values(score))

	birth, _ := out.Column("Birthdate")
	assert.Equal(t, frame.KindDatetime, birth.Kind())
	ts, ok := birth.Value(0).(time.Time)
	require.True(t, ok)
	assert.True(t, ts.Equal(time.Date(1990, 1, 15, 0, 0, 0, 0, time.UTC)))
	assert.Nil(t, birth.Value(1))

	grade, _ := out.Column("Grade")
	require.IsType(t, &frame.CategoryColumn{}, grade)
	assert.Equal(t, []string{"A", "B"}, grade.(*frame.CategoryColumn).Categories())

	name, _ := out.Column("Name")
	assert.Equal(t, frame.KindObject, name.Kind())

	original, _ := tbl.Column("Score")
	assert.Equal(t, frame.KindObject, original.Kind(), "input table is untouched")
}

func TestFailedColumnRollsBackAlone(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	tbl := table(t, map[string][]interface{}{
		"flag":  {"yes", "no", "maybe"},
		"count": {"1", "2", "3"},
	}, "flag", "count")

	out, outcomes := New(zap.New(core)).Convert(context.Background(), tbl,
		typeMap(t, "flag", "boolean", "count", "int8"))

	assert.Equal(t, StatusRolledBack, outcomes[0].Status)
	assert.True(t, errors.IsType(outcomes[0].Err, errors.ErrorTypeConversion))
	assert.Equal(t, StatusConverted, outcomes[1].Status)

	flag, _ := out.Column("flag")
	assert.Equal(t, []interface{}{"yes", "no", "maybe"}, values(flag))
	count, _ := out.Column("count")
	assert.Equal(t, frame.KindInt8, count.Kind())

	assert.Equal(t, 1, logs.FilterMessage("column conversion rolled back").Len())
	assert.Equal(t, map[Status]int{StatusRolledBack: 1, StatusConverted: 1}, Summary(outcomes))
	assert.True(t, errors.IsType(Failed(outcomes), errors.ErrorTypeConversion))
}

func TestIntegerCasts(t *testing.T) {
	tests := []struct {
		name     string
		tag      string
		input    []interface{}
		want     []interface{}
		nulls    int
		rollback bool
	}{
		{"invalid text becomes null", "int16", []interface{}{"300", "n/a?", nil}, []interface{}{int16(300), nil, nil}, 1, false},
		{"integral floats", "int32", []interface{}{"1.0", "2e3"}, []interface{}{int32(1), int32(2000)}, 0, false},
		{"fraction fails", "int64", []interface{}{"1.5"}, nil, 0, true},
		{"out of range fails", "int8", []interface{}{"200"}, nil, 0, true},
		{"int64 extremes", "int64", []interface{}{"-9223372036854775808", "9223372036854775807"},
			[]interface{}{int64(-9223372036854775808), int64(9223372036854775807)}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := table(t, map[string][]interface{}{"v": tt.input}, "v")
			out, outcomes := New(nil).Convert(context.Background(), tbl, typeMap(t, "v", tt.tag))
			if tt.rollback {
				assert.Equal(t, StatusRolledBack, outcomes[0].Status)
				return
			}
			require.Equal(t, StatusConverted, outcomes[0].Status)
			assert.Equal(t, tt.nulls, outcomes[0].Nulls)
			col, _ := out.Column("v")
			assert.Equal(t, tt.want, values(col))
		})
	}
}

func TestStoredFloatsCastWithinTolerance(t *testing.T) {
	src := frame.NewTypedColumn[float64]("v", frame.KindFloat64, 3)
	src.Set(0, 1.000001)
	src.Set(1, 2)
	tbl, err := frame.NewTable(src)
	require.NoError(t, err)

	out, outcomes := New(nil).Convert(context.Background(), tbl, typeMap(t, "v", "int8"))
	require.Equal(t, StatusConverted, outcomes[0].Status)
	col, _ := out.Column("v")
	assert.Equal(t, []interface{}{int8(1), int8(2), nil}, values(col))

	text := table(t, map[string][]interface{}{"v": {"1.000001"}}, "v")
	_, outcomes = New(nil).Convert(context.Background(), text, typeMap(t, "v", "int8"))
	assert.Equal(t, StatusRolledBack, outcomes[0].Status)
}

func TestOtherCasts(t *testing.T) {
	tbl := table(t, map[string][]interface{}{
		"f":  {"1.5", "x", nil},
		"z":  {"1+2j", "3"},
		"d":  {"1h30m", "soon"},
		"b":  {"TRUE", "0"},
		"t":  {"a", "  "},
		"cx": {"1+2j", "nope"},
	}, "f", "z", "d", "b", "t", "cx")

	out, outcomes := New(nil).Convert(context.Background(), tbl,
		typeMap(t, "f", "float32", "z", "complex128", "d", "duration", "b", "boolean", "t", "text", "cx", "complex128"))

	got := map[string]Outcome{}
	for _, o := range outcomes {
		got[o.Column] = o
	}
	assert.Equal(t, StatusRolledBack, got["cx"].Status, "complex cast is strict")
	assert.Equal(t, 1, got["f"].Nulls)
	assert.Equal(t, 1, got["d"].Nulls)

	f, _ := out.Column("f")
	assert.Equal(t, []interface{}{float32(1.5), nil, nil}, values(f))
	z, _ := out.Column("z")
	assert.Equal(t, []interface{}{complex(1, 2), complex(3, 0)}, values(z))
	d, _ := out.Column("d")
	assert.Equal(t, []interface{}{90 * time.Minute, nil}, values(d))
	b, _ := out.Column("b")
	assert.Equal(t, []interface{}{true, false}, values(b))
	text, _ := out.Column("t")
	assert.Equal(t, []interface{}{"a", nil}, values(text))
}

func TestUnmappedColumnsAreSkipped(t *testing.T) {
	tbl := table(t, map[string][]interface{}{"a": {"1"}, "b": {"2"}}, "a", "b")
	_, outcomes := New(nil).Convert(context.Background(), tbl, typeMap(t, "a", "int8"))

	assert.Equal(t, StatusConverted, outcomes[0].Status)
	assert.Equal(t, StatusSkipped, outcomes[1].Status)
}

func TestCancelledContextSkipsRemainingColumns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tbl := table(t, map[string][]interface{}{"a": {"1"}}, "a")
	_, outcomes := New(nil).Convert(ctx, tbl, typeMap(t, "a", "int8"))
	assert.Equal(t, StatusSkipped, outcomes[0].Status)
	assert.ErrorIs(t, outcomes[0].Err, context.Canceled)
}

package inference

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garlicdevs/csv-cleaner/pkg/config"
)

func repeat(values []string, times int) []string {
	out := make([]string, 0, len(values)*times)
	for i := 0; i < times; i++ {
		out = append(out, values...)
	}
	return out
}

func TestNewCategoryStrategy(t *testing.T) {
	s, err := NewCategoryStrategy("", 0.5, nil)
	require.NoError(t, err)
	assert.Equal(t, config.StrategyCoherence, s.Name())

	s, err = NewCategoryStrategy(config.StrategyUniqueness, 0.3, nil)
	require.NoError(t, err)
	assert.Equal(t, &UniquenessStrategy{Threshold: 0.3}, s)

	_, err = NewCategoryStrategy("entropy", 0.5, nil)
	assert.Error(t, err)
}

func TestCoherenceStrategy(t *testing.T) {
	s := NewCoherenceStrategy(nil)

	short := []string{"a", "b", "c", "d", "e"}
	long := []string{"aaaaaaaaaa", "bbbbbbbbbb", "cccccccccc", "dddddddddd", "eeeeeeeeee"}

	tests := []struct {
		name   string
		values []string
		want   bool
	}{
		{"two sparse letters", repeat([]string{"A", "B"}, 5), true},
		{"one dense length cluster", repeat([]string{"red", "tan", "sky", "ink", "oak", "fig"}, 4), true},
		{"two dense length clusters", repeat(append(append([]string{}, short...), long...), 10), false},
		{"all distinct is not cheaper", []string{"Alice", "Bob", "Charlie", "Diana"}, false},
		{"single value repeated", repeat([]string{"x"}, 3), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.IsCategorical(tt.values))
		})
	}
}

func TestUniquenessStrategy(t *testing.T) {
	s := &UniquenessStrategy{Threshold: 0.5}

	assert.True(t, s.IsCategorical([]string{"a", "a", "a", "b", "b", "b", "c"}))
	assert.False(t, s.IsCategorical([]string{"a", "b", "c", "a"}), "too many distinct values")
	assert.False(t, s.IsCategorical([]string{"a", "a", "b", "b", "c", "c"}), "values repeat at most twice")
	assert.False(t, s.IsCategorical(nil))
}

func TestFootprints(t *testing.T) {
	values := repeat([]string{"yes", "no"}, 50)
	assert.Equal(t, int64(50*19+50*18), PlainFootprint(values))
	assert.Equal(t, int64(19+18+100), DictionaryFootprint(values, []string{"yes", "no"}))

	assert.Equal(t, int64(1), codeWidth(128))
	assert.Equal(t, int64(2), codeWidth(129))
	assert.Equal(t, int64(4), codeWidth(1<<16))
}

func TestCheckCategory(t *testing.T) {
	never := &UniquenessStrategy{Threshold: 0}

	tag, ok := CheckCategory([]interface{}{"only"}, never)
	assert.True(t, ok, "one distinct value is always a category")
	assert.Equal(t, "category", string(tag))

	_, ok = CheckCategory([]interface{}{"a", "b"}, never)
	assert.False(t, ok)

	words := strings.Fields("north south north east west south north")
	values := make([]interface{}, len(words))
	for i, w := range words {
		values[i] = w
	}
	_, ok = CheckCategory(values, NewCoherenceStrategy(nil))
	assert.True(t, ok)
}

package inference

import (
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/garlicdevs/csv-cleaner/pkg/config"
	"github.com/garlicdevs/csv-cleaner/pkg/frame"
)

// CategoryStrategy decides whether a column's valid text values form a
// bounded vocabulary worth dictionary encoding.
type CategoryStrategy interface {
	Name() string
	IsCategorical(values []string) bool
}

// NewCategoryStrategy returns the strategy registered under name.
// An empty name selects coherence.
func NewCategoryStrategy(name string, threshold float64, logger *zap.Logger) (CategoryStrategy, error) {
	switch name {
	case "", config.StrategyCoherence:
		return NewCoherenceStrategy(logger), nil
	case config.StrategyUniqueness:
		return &UniquenessStrategy{Threshold: threshold}, nil
	default:
		return nil, fmt.Errorf("unknown category strategy %q", name)
	}
}

// CoherenceStrategy accepts columns that are cheaper dictionary encoded and
// whose distinct value lengths form at most one dense cluster.
type CoherenceStrategy struct {
	Eps        float64
	MinSamples int
	logger     *zap.Logger
}

// NewCoherenceStrategy uses eps 0.5 and min_samples 5.
func NewCoherenceStrategy(logger *zap.Logger) *CoherenceStrategy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CoherenceStrategy{Eps: 0.5, MinSamples: 5, logger: logger}
}

func (s *CoherenceStrategy) Name() string { return config.StrategyCoherence }

func (s *CoherenceStrategy) IsCategorical(values []string) bool {
	distinct, _ := distinctValues(values)
	if DictionaryFootprint(values, distinct) >= PlainFootprint(values) {
		return false
	}
	if len(distinct) <= 1 {
		return true
	}

	lengths := make([]float64, len(distinct))
	for i, v := range distinct {
		lengths[i] = float64(utf8.RuneCountInString(v))
	}
	_, clusters := DBSCAN(Standardize(lengths), s.Eps, s.MinSamples)

	s.logger.Debug("length clusters",
		zap.Int("distinct", len(distinct)),
		zap.Int("clusters", clusters))

	return clusters <= 1
}

// UniquenessStrategy accepts columns with a low distinct/valid ratio whose
// distinct values mostly repeat more than twice.
type UniquenessStrategy struct {
	Threshold float64
}

func (s *UniquenessStrategy) Name() string { return config.StrategyUniqueness }

func (s *UniquenessStrategy) IsCategorical(values []string) bool {
	if len(values) == 0 {
		return false
	}
	distinct, counts := distinctValues(values)
	if float64(len(distinct))/float64(len(values)) > s.Threshold {
		return false
	}
	frequent := 0
	for _, v := range distinct {
		if counts[v] > 2 {
			frequent++
		}
	}
	return frequent*2 >= len(distinct)
}

// PlainFootprint estimates storing every value's text in its row.
func PlainFootprint(values []string) int64 {
	var size int64
	for _, v := range values {
		size += frame.StringOverhead + int64(len(v))
	}
	return size
}

// DictionaryFootprint estimates storing each distinct value once plus one
// code per row, codes sized to the dictionary.
func DictionaryFootprint(values, distinct []string) int64 {
	var size int64
	for _, v := range distinct {
		size += frame.StringOverhead + int64(len(v))
	}
	return size + int64(len(values))*codeWidth(len(distinct))
}

func codeWidth(distinct int) int64 {
	switch {
	case distinct <= 1<<7:
		return 1
	case distinct <= 1<<15:
		return 2
	case int64(distinct) <= 1<<31:
		return 4
	default:
		return 8
	}
}

// distinctValues returns the distinct values in first-seen order with counts.
func distinctValues(values []string) ([]string, map[string]int) {
	counts := make(map[string]int)
	var distinct []string
	for _, v := range values {
		if counts[v] == 0 {
			distinct = append(distinct, v)
		}
		counts[v]++
	}
	return distinct, counts
}

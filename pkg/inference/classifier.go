// Package inference implements the column type inference core: an ordered
// chain of checks that resolves each sampled column to a TypeTag, the numeric
// narrowing rules, the categorical strategies and the run pipeline tying the
// sampler, classifier and converter together.
package inference

import (
	"go.uber.org/zap"

	"github.com/garlicdevs/csv-cleaner/pkg/config"
	"github.com/garlicdevs/csv-cleaner/pkg/frame"
	"github.com/garlicdevs/csv-cleaner/pkg/models"
	"github.com/garlicdevs/csv-cleaner/pkg/parse"
)

// step is one entry of the classification chain.
type step struct {
	name  string
	check func(values []interface{}) (models.TypeTag, bool)
}

// Classifier resolves columns to TypeTags. It holds no per-column state
// and is safe for concurrent use.
type Classifier struct {
	thresholds config.ThresholdConfig
	strategy   CategoryStrategy
	logger     *zap.Logger
	chain      []step
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithLogger sets the classifier logger.
func WithLogger(logger *zap.Logger) ClassifierOption {
	return func(c *Classifier) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithStrategy overrides the categorical strategy named in the thresholds.
func WithStrategy(strategy CategoryStrategy) ClassifierOption {
	return func(c *Classifier) {
		c.strategy = strategy
	}
}

// NewClassifier creates a classifier for thresholds.
func NewClassifier(thresholds config.ThresholdConfig, opts ...ClassifierOption) (*Classifier, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	c := &Classifier{
		thresholds: thresholds,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.strategy == nil {
		strategy, err := NewCategoryStrategy(thresholds.CategoryStrategy, thresholds.CategoryThreshold, c.logger)
		if err != nil {
			return nil, err
		}
		c.strategy = strategy
	}

	valid := thresholds.ValidThreshold
	c.chain = []step{
		{"boolean", func(v []interface{}) (models.TypeTag, bool) { return CheckBoolean(v, valid) }},
		{"numeric", func(v []interface{}) (models.TypeTag, bool) { return CheckNumeric(v, valid) }},
		{"complex", func(v []interface{}) (models.TypeTag, bool) { return CheckComplex(v, valid) }},
		{"datetime", func(v []interface{}) (models.TypeTag, bool) { return CheckDatetime(v, valid) }},
		{"duration", func(v []interface{}) (models.TypeTag, bool) { return CheckDuration(v, valid) }},
		{"category", func(v []interface{}) (models.TypeTag, bool) { return CheckCategory(v, c.strategy) }},
	}
	return c, nil
}

// Steps returns the chain order.
func (c *Classifier) Steps() []string {
	names := make([]string, len(c.chain))
	for i, s := range c.chain {
		names[i] = s.name
	}
	return names
}

// Strategy returns the categorical strategy in use.
func (c *Classifier) Strategy() CategoryStrategy {
	return c.strategy
}

// Classify resolves one column. Columns already stored as a numeric kind are
// only narrowed; other typed kinds keep their tag.
func (c *Classifier) Classify(col frame.Column) models.TypeTag {
	values := nonBlank(col)
	if len(values) == 0 {
		return models.Text
	}

	kind := col.Kind()
	switch {
	case kind.IsNumeric():
		return narrowStored(kind, values)
	case kind != frame.KindObject:
		return kind.Tag()
	}

	for _, s := range c.chain {
		if tag, ok := s.check(values); ok {
			c.logger.Debug("column classified",
				zap.String("column", col.Name()),
				zap.String("check", s.name),
				zap.String("type", string(tag)),
				zap.Int("values", len(values)))
			return tag
		}
	}
	c.logger.Debug("column classified",
		zap.String("column", col.Name()),
		zap.String("check", "fallback"),
		zap.String("type", string(models.Text)),
		zap.Int("values", len(values)))
	return models.Text
}

// ClassifyTable resolves every column of t in order.
func (c *Classifier) ClassifyTable(t *frame.Table) (models.TypeMap, error) {
	entries := make([]models.TypeEntry, 0, t.NumColumns())
	for _, col := range t.Columns() {
		entries = append(entries, models.TypeEntry{Column: col.Name(), Tag: c.Classify(col)})
	}
	return models.NewTypeMap(entries)
}

func nonBlank(col frame.Column) []interface{} {
	values := make([]interface{}, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		if v := col.Value(i); !parse.IsBlank(v) {
			values = append(values, v)
		}
	}
	return values
}

func narrowStored(kind frame.Kind, values []interface{}) models.TypeTag {
	if kind.IsInteger() {
		ints := make([]int64, 0, len(values))
		for _, v := range values {
			if n, ok, exact := parse.Int(v); ok && exact {
				ints = append(ints, n)
			}
		}
		return NarrowIntegers(ints)
	}
	floats := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := parse.Float(v); ok {
			floats = append(floats, f)
		}
	}
	return NarrowFloats(floats)
}

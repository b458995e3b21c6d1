package inference

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/garlicdevs/csv-cleaner/pkg/config"
	"github.com/garlicdevs/csv-cleaner/pkg/convert"
	"github.com/garlicdevs/csv-cleaner/pkg/errors"
	"github.com/garlicdevs/csv-cleaner/pkg/frame"
	"github.com/garlicdevs/csv-cleaner/pkg/logger"
	"github.com/garlicdevs/csv-cleaner/pkg/metrics"
	"github.com/garlicdevs/csv-cleaner/pkg/models"
	"github.com/garlicdevs/csv-cleaner/pkg/observability"
	"github.com/garlicdevs/csv-cleaner/pkg/sampler"
)

// Result is the output of one inference run.
type Result struct {
	RunID   string
	Dataset string
	// Types is the map resolved from the sample
	Types models.TypeMap
	// Table is the full source after conversion
	Table *frame.Table
	// Reports describe the converted columns in source order. A column
	// whose conversion rolled back reports the kind it kept.
	Reports  []models.ColumnReport
	Outcomes []convert.Outcome
	Sample   sampler.Stats
	Load     sampler.Stats
}

// Inferencer runs sample → classify → load → convert for one source at a time.
//
// Conversion holds the complete table in memory, so peak usage is roughly the
// dataset plus the retained sample. Streaming conversion chunk by chunk is
// the path to lifting that bound.
type Inferencer struct {
	cfg        config.ThresholdConfig
	sampler    *sampler.Sampler
	classifier *Classifier
	converter  *convert.Converter
	logger     *zap.Logger
}

// NewInferencer validates cfg and builds the pipeline components.
func NewInferencer(cfg config.ThresholdConfig, log *zap.Logger, opts ...ClassifierOption) (*Inferencer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid inference configuration")
	}
	classifier, err := NewClassifier(cfg, append([]ClassifierOption{WithLogger(log)}, opts...)...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid inference configuration")
	}
	return &Inferencer{
		cfg:        cfg,
		sampler:    sampler.New(cfg, log),
		classifier: classifier,
		converter:  convert.New(log),
		logger:     log,
	}, nil
}

// Classifier returns the classifier used by runs.
func (in *Inferencer) Classifier() *Classifier {
	return in.classifier
}

// InferTypes samples path and classifies every column without loading or
// converting the full source.
func (in *Inferencer) InferTypes(ctx context.Context, path string) (models.TypeMap, sampler.Stats, error) {
	if err := ctx.Err(); err != nil {
		return models.TypeMap{}, sampler.Stats{}, err
	}

	timer := metrics.NewTimer(metrics.StageSample)
	sctx, span := observability.StartSpan(ctx, "inference.sample",
		attribute.String("dataset", filepath.Base(path)))
	sample, stats, err := in.sampler.Sample(sctx, path)
	timer.Stop()
	if err != nil {
		span.RecordError(err)
		span.End()
		return models.TypeMap{}, stats, err
	}
	span.SetAttribute("rows", stats.SampledRows)
	span.SetAttribute("chunks", stats.Chunks)
	span.End()
	metrics.RowsSampled.Add(float64(stats.SampledRows))

	timer = metrics.NewTimer(metrics.StageClassify)
	_, span = observability.StartSpan(ctx, "inference.classify",
		attribute.Int("columns", sample.NumColumns()))
	types, err := in.classifier.ClassifyTable(sample)
	timer.Stop()
	if err != nil {
		span.RecordError(err)
		span.End()
		return models.TypeMap{}, stats, errors.Wrap(err, errors.ErrorTypeInternal, "failed to build type map")
	}
	span.End()

	for _, e := range types.Entries() {
		metrics.ColumnsClassified.WithLabelValues(string(e.Tag)).Inc()
	}
	return types, stats, nil
}

// Run infers the column types of path and converts the full source. Any
// error is returned before a result exists; column rollbacks are reported
// through Result.Outcomes instead.
func (in *Inferencer) Run(ctx context.Context, path string) (*Result, error) {
	res, err := in.run(ctx, path)
	if err != nil {
		metrics.Runs.WithLabelValues("failure").Inc()
		return nil, err
	}
	metrics.Runs.WithLabelValues("success").Inc()
	return res, nil
}

func (in *Inferencer) run(ctx context.Context, path string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{RunID: uuid.NewString(), Dataset: filepath.Base(path)}
	ctx = logger.WithRunID(ctx, res.RunID)
	ctx = logger.WithDataset(ctx, res.Dataset)
	log := logger.FromContext(ctx, in.logger)

	ctx, span := observability.StartSpan(ctx, "inference.run",
		attribute.String("run_id", res.RunID),
		attribute.String("dataset", res.Dataset))
	defer func() {
		elapsed := span.End()
		log.Debug("run span ended", zap.Duration("elapsed", elapsed))
	}()

	start := time.Now()
	types, stats, err := in.InferTypes(ctx, path)
	if err != nil {
		span.RecordError(err)
		log.Error("type inference failed", zap.Error(err))
		return nil, err
	}
	res.Types, res.Sample = types, stats
	log.Debug("inferred types", zap.Any("types", types.Entries()))

	timer := metrics.NewTimer(metrics.StageLoad)
	full, loadStats, err := in.sampler.Load(ctx, path)
	timer.Stop()
	if err != nil {
		span.RecordError(err)
		log.Error("failed to load source", zap.Error(err))
		return nil, err
	}
	res.Load = loadStats

	logMemory(log, "before conversion", full)
	timer = metrics.NewTimer(metrics.StageConvert)
	cctx, cspan := observability.StartSpan(ctx, "inference.convert",
		attribute.Int("rows", full.NumRows()))
	converted, outcomes := in.converter.Convert(cctx, full, types)
	timer.Stop()
	for _, o := range outcomes {
		metrics.Conversions.WithLabelValues(string(o.Status)).Inc()
		if o.Status == convert.StatusRolledBack {
			cspan.AddEvent("column rolled back",
				attribute.String("column", o.Column),
				attribute.String("type", string(o.Tag)))
		}
	}
	cspan.End()
	logMemory(log, "after conversion", converted)
	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	res.Table = converted
	res.Outcomes = outcomes
	res.Reports = Reports(converted)
	log.Debug("converted types", zap.Any("columns", res.Reports))

	summary := convert.Summary(outcomes)
	span.SetAttribute("columns", len(res.Reports))
	span.SetAttribute("rolled_back", summary[convert.StatusRolledBack])
	log.Info("inference run completed",
		zap.String("format", string(loadStats.Format)),
		zap.String("encoding", loadStats.Encoding),
		zap.Int("rows", loadStats.SourceRows),
		zap.Int("sampled_rows", stats.SampledRows),
		zap.Int("columns", len(res.Reports)),
		zap.Int("converted", summary[convert.StatusConverted]),
		zap.Int("rolled_back", summary[convert.StatusRolledBack]),
		zap.Duration("duration", time.Since(start)))
	return res, nil
}

// Reports builds one ColumnReport per column of a converted table from the
// kind each column ended up with.
func Reports(t *frame.Table) []models.ColumnReport {
	reports := make([]models.ColumnReport, 0, t.NumColumns())
	for _, col := range t.Columns() {
		reports = append(reports, models.NewColumnReport(col.Name(), col.Kind().Tag()))
	}
	return reports
}

// InferTypes is a one-shot helper that samples and classifies path with cfg.
func InferTypes(ctx context.Context, path string, cfg config.ThresholdConfig) (models.TypeMap, error) {
	in, err := NewInferencer(cfg, nil)
	if err != nil {
		return models.TypeMap{}, err
	}
	types, _, err := in.InferTypes(ctx, path)
	return types, err
}

func logMemory(log *zap.Logger, stage string, t *frame.Table) {
	fields := []zap.Field{zap.String("stage", stage), zap.Int64("table_bytes", t.MemoryUsage())}
	if rss, err := metrics.ResidentMemory(); err == nil {
		fields = append(fields, zap.Uint64("rss_bytes", rss))
	}
	log.Info("memory usage", fields...)
}

// Package sampler reads tabular sources (delimited text and spreadsheets) in
// bounded chunks and draws a reproducible per-chunk sample for inference. It
// also loads whole tables for conversion.
package sampler

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"sort"

	"go.uber.org/zap"

	"github.com/garlicdevs/csv-cleaner/pkg/config"
	"github.com/garlicdevs/csv-cleaner/pkg/errors"
	"github.com/garlicdevs/csv-cleaner/pkg/frame"
	"github.com/garlicdevs/csv-cleaner/pkg/pool"
)

// Stats describes one read of a source.
type Stats struct {
	Format      Format
	Encoding    string
	SourceRows  int
	Chunks      int
	SampledRows int
	Dropped     []string
}

// Sampler reads sources according to a ThresholdConfig.
type Sampler struct {
	cfg    config.ThresholdConfig
	logger *zap.Logger
}

// New creates a sampler.
func New(cfg config.ThresholdConfig, logger *zap.Logger) *Sampler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sampler{cfg: cfg, logger: logger}
}

// Sample reads path chunk by chunk, keeping at most SampleSizePerChunk rows
// of each chunk. The same RandomState always yields the same rows.
func (s *Sampler) Sample(ctx context.Context, path string) (*frame.Table, Stats, error) {
	return s.read(ctx, path, true)
}

// Load reads every row of path.
func (s *Sampler) Load(ctx context.Context, path string) (*frame.Table, Stats, error) {
	return s.read(ctx, path, false)
}

func (s *Sampler) read(ctx context.Context, path string, sample bool) (*frame.Table, Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, Stats{}, err
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, Stats{}, errors.Wrap(err, errors.ErrorTypeConfig, "invalid sampler configuration")
	}
	format, err := DetectFormat(path)
	if err != nil {
		return nil, Stats{}, err
	}

	if format == FormatXLSX {
		src, err := openXLSX(path)
		if err != nil {
			return nil, Stats{}, err
		}
		defer src.Close()
		return s.collect(src, sample, Stats{Format: format, Encoding: EncodingXLSX})
	}

	table, stats, err := s.readCSV(path, sample, false)
	if err == nil || !errors.IsType(err, errors.ErrorTypeDecoding) {
		return table, stats, err
	}

	s.logger.Warn("source is not valid UTF-8, retrying as ISO-8859-1",
		zap.String("path", path),
		zap.Error(err))
	table, stats, err = s.readCSV(path, sample, true)
	if err != nil {
		return nil, Stats{}, errors.Wrap(err, errors.ErrorTypeDecoding, "source could not be decoded").
			WithDetail("path", path)
	}
	return table, stats, nil
}

func (s *Sampler) readCSV(path string, sample, latin1 bool) (*frame.Table, Stats, error) {
	src, err := openCSV(path, latin1)
	if err != nil {
		return nil, Stats{}, err
	}
	defer src.Close()

	stats := Stats{Format: FormatCSV, Encoding: EncodingUTF8}
	if latin1 {
		stats.Encoding = EncodingLatin1
	}
	return s.collect(src, sample, stats)
}

func (s *Sampler) collect(src rowSource, sample bool, stats Stats) (*frame.Table, Stats, error) {
	header := src.Header()
	keep, names := s.resolveHeader(header, &stats)

	columns := make([][]interface{}, len(keep))
	interner := pool.NewInterner(pool.DefaultInternSize)
	chunk := make([][]string, 0, min(s.cfg.ChunkSize, 4096))

	flush := func() {
		if len(chunk) == 0 {
			return
		}
		stats.Chunks++
		rows := allRows(len(chunk))
		if sample {
			rows = pickRows(len(chunk), s.cfg.SampleSizePerChunk, s.cfg.RandomState)
		}
		for _, r := range rows {
			record := chunk[r]
			for c, idx := range keep {
				columns[c] = append(columns[c], s.value(record, idx, interner))
			}
		}
		stats.SampledRows += len(rows)
		chunk = chunk[:0]
	}

	for {
		record, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, Stats{}, err
		}
		if len(record) > len(header) {
			return nil, Stats{}, errors.New(errors.ErrorTypeData, "row has more fields than the header").
				WithDetail("row", stats.SourceRows+1).
				WithDetail("fields", len(record)).
				WithDetail("expected", len(header))
		}
		stats.SourceRows++
		chunk = append(chunk, record)
		if len(chunk) >= s.cfg.ChunkSize {
			flush()
		}
	}
	flush()

	cols := make([]frame.Column, len(keep))
	for c := range keep {
		if columns[c] == nil {
			columns[c] = []interface{}{}
		}
		cols[c] = frame.NewRawColumn(names[c], columns[c])
	}
	table, err := frame.NewTable(cols...)
	if err != nil {
		return nil, Stats{}, err
	}

	interned, hits, _ := interner.Stats()
	s.logger.Debug("source read",
		zap.String("format", string(stats.Format)),
		zap.String("encoding", stats.Encoding),
		zap.Int("source_rows", stats.SourceRows),
		zap.Int("chunks", stats.Chunks),
		zap.Int("kept_rows", stats.SampledRows),
		zap.Int("interned_values", interned),
		zap.Int64("intern_hits", hits),
		zap.Strings("dropped_columns", stats.Dropped))
	return table, stats, nil
}

// resolveHeader drops synthetic index columns and de-duplicates the rest
// the way pandas does: a, a.1, a.2.
func (s *Sampler) resolveHeader(header []string, stats *Stats) ([]int, []string) {
	var keep []int
	var names []string
	used := make(map[string]bool)
	suffix := make(map[string]int)
	for i, h := range header {
		if frame.IsSyntheticIndex(h) {
			stats.Dropped = append(stats.Dropped, h)
			continue
		}
		name := h
		for used[name] {
			suffix[h]++
			name = fmt.Sprintf("%s.%d", h, suffix[h])
		}
		used[name] = true
		keep = append(keep, i)
		names = append(names, name)
	}
	return keep, names
}

// value returns the cell at idx: nil when missing or an NA literal, the
// interned string otherwise.
func (s *Sampler) value(record []string, idx int, interner *pool.Interner) interface{} {
	if idx >= len(record) {
		return nil
	}
	raw := record[idx]
	if s.cfg.IsNA(raw) {
		return nil
	}
	return interner.Intern(raw)
}

// pickRows draws k of n row indices uniformly without replacement, reseeding
// with seed for every chunk, and returns them in file order.
func pickRows(n, k int, seed uint64) []int {
	if n <= k {
		return allRows(n)
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	rows := rng.Perm(n)[:k]
	sort.Ints(rows)
	return rows
}

func allRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

// Package metrics exposes Prometheus metrics for inference runs: run and
// column counters, per-stage latency and process memory.
//
// # Basic Usage
//
//	timer := metrics.NewTimer(metrics.StageSample)
//	table, stats, err := s.Sample(ctx, path)
//	timer.Stop()
//
//	metrics.ColumnsClassified.WithLabelValues("int8").Inc()
//
// The default registry can be written to a node_exporter textfile with
// WriteTextfile after each command.
package metrics

import (
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shirou/gopsutil/v3/process"
)

// Pipeline stages observed by StageDuration.
const (
	StageSample   = "sample"
	StageClassify = "classify"
	StageLoad     = "load"
	StageConvert  = "convert"
	StageExport   = "export"
)

var (
	// Runs counts inference runs by outcome (success, failure)
	Runs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleaner_runs_total",
			Help: "Total number of inference runs",
		},
		[]string{"status"},
	)

	// ColumnsClassified counts resolved columns by type tag
	ColumnsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleaner_columns_classified_total",
			Help: "Total number of columns classified, by resolved type",
		},
		[]string{"type"},
	)

	// Conversions counts column conversions by status (converted, rolled_back, skipped)
	Conversions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleaner_conversions_total",
			Help: "Total number of column conversions, by outcome",
		},
		[]string{"status"},
	)

	// RowsSampled counts rows kept by the sampler
	RowsSampled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cleaner_rows_sampled_total",
			Help: "Total number of rows kept by the sampler",
		},
	)

	// StageDuration tracks the latency of each pipeline stage in seconds
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "cleaner_stage_duration_seconds",
			Help: "Duration of inference pipeline stages in seconds",
			Buckets: []float64{
				0.001, // 1ms - tiny files
				0.01,
				0.1,
				1,
				10,
				60, // 1m - multi-gigabyte sources
			},
		},
		[]string{"stage"},
	)

	// ResidentMemoryBytes is the process RSS sampled after each stage
	ResidentMemoryBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cleaner_resident_memory_bytes",
			Help: "Resident set size of the process in bytes",
		},
	)
)

// Timer measures one pipeline stage and reports it to StageDuration.
type Timer struct {
	start time.Time
	stage string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(stage string) *Timer {
	return &Timer{
		start: time.Now(),
		stage: stage,
	}
}

// Stop observes the elapsed time and returns it. Each call observes again.
func (t *Timer) Stop() time.Duration {
	duration := time.Since(t.start)
	StageDuration.WithLabelValues(t.stage).Observe(duration.Seconds())
	return duration
}

// ResidentMemory returns the RSS of the current process and updates
// ResidentMemoryBytes.
func ResidentMemory() (uint64, error) {
	proc, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // pids fit in int32
	if err != nil {
		return 0, err
	}
	info, err := proc.MemoryInfo()
	if err != nil {
		return 0, err
	}
	ResidentMemoryBytes.Set(float64(info.RSS))
	return info.RSS, nil
}

// WriteTextfile writes the default registry in text exposition format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

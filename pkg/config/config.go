// Package config provides the configuration system for the cleaner.
// Every tunable of an inference run lives in ThresholdConfig and is passed
// to the core explicitly; AppConfig adds the surrounding catalog, output,
// logging and observability sections used by the CLI.
//
// Example usage:
//
//	cfg := config.Default()
//	cfg.Inference.ValidThreshold = 0.8
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
)

// Category strategies accepted by ThresholdConfig.CategoryStrategy.
const (
	StrategyCoherence  = "coherence"
	StrategyUniqueness = "uniqueness"
)

// DefaultNAValues are the literals loaded as missing values, matching the
// set pandas recognises by default.
var DefaultNAValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

// AppConfig is the top-level configuration of the cleaner CLI.
type AppConfig struct {
	// Inference holds every tunable of the sampling and classification core
	Inference ThresholdConfig `yaml:"inference" json:"inference" mapstructure:"inference"`

	// Catalog selects where column reports and converted artifacts are stored
	Catalog CatalogConfig `yaml:"catalog" json:"catalog" mapstructure:"catalog"`

	// Output controls the converted artifact encoding
	Output OutputConfig `yaml:"output" json:"output" mapstructure:"output"`

	// Logging configures the zap logger
	Logging LoggingConfig `yaml:"logging" json:"logging" mapstructure:"logging"`

	// Observability configures tracing and metrics output
	Observability ObservabilityConfig `yaml:"observability" json:"observability" mapstructure:"observability"`
}

// ThresholdConfig contains the sampling and classification parameters.
type ThresholdConfig struct {
	// ChunkSize bounds the number of rows read per chunk
	ChunkSize int `yaml:"chunk_size" json:"chunk_size" mapstructure:"chunk_size"`
	// SampleSizePerChunk caps the rows drawn from each chunk
	SampleSizePerChunk int `yaml:"sample_size_per_chunk" json:"sample_size_per_chunk" mapstructure:"sample_size_per_chunk"`
	// RandomState seeds the per-chunk sampler
	RandomState uint64 `yaml:"random_state" json:"random_state" mapstructure:"random_state"`
	// ValidThreshold is the minimum parse fraction for the boolean, numeric,
	// complex, datetime and duration checks
	ValidThreshold float64 `yaml:"valid_threshold" json:"valid_threshold" mapstructure:"valid_threshold"`
	// CategoryThreshold is the maximum distinct/valid ratio for the uniqueness strategy
	CategoryThreshold float64 `yaml:"category_threshold" json:"category_threshold" mapstructure:"category_threshold"`
	// CategoryStrategy selects the categorical eligibility policy (coherence, uniqueness)
	CategoryStrategy string `yaml:"category_strategy" json:"category_strategy" mapstructure:"category_strategy"`
	// NAValues lists the literals read as missing values
	NAValues []string `yaml:"na_values" json:"na_values" mapstructure:"na_values"`
}

// CatalogConfig selects the metadata and blob stores.
type CatalogConfig struct {
	// Backend is one of memory, fs, postgres, sqlite, mysql, sqlserver, mongo
	Backend string `yaml:"backend" json:"backend" mapstructure:"backend"`
	// DSN is the connection string for database backends
	DSN string `yaml:"dsn" json:"dsn" mapstructure:"dsn"`
	// Database names the MongoDB database
	Database string `yaml:"database" json:"database" mapstructure:"database"`
	// Dir is the root directory of the fs backend
	Dir string `yaml:"dir" json:"dir" mapstructure:"dir"`
	// Blob configures where converted artifacts are written
	Blob BlobConfig `yaml:"blob" json:"blob" mapstructure:"blob"`
}

// BlobConfig selects the artifact store.
type BlobConfig struct {
	// Backend is one of memory, fs, s3, gcs
	Backend string `yaml:"backend" json:"backend" mapstructure:"backend"`
	// Bucket names the S3 or GCS bucket
	Bucket string `yaml:"bucket" json:"bucket" mapstructure:"bucket"`
	// Prefix is prepended to every object key
	Prefix string `yaml:"prefix" json:"prefix" mapstructure:"prefix"`
	// Region is the AWS region for s3
	Region string `yaml:"region" json:"region" mapstructure:"region"`
	// Dir is the root directory of the fs backend
	Dir string `yaml:"dir" json:"dir" mapstructure:"dir"`
	// Endpoint overrides the S3 endpoint for S3-compatible stores
	Endpoint string `yaml:"endpoint" json:"endpoint" mapstructure:"endpoint"`
	// CredentialsFile is a GCS service account key file
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file" mapstructure:"credentials_file"`
}

// OutputConfig controls how converted tables are encoded.
type OutputConfig struct {
	// Format is one of csv, arrow, parquet, avro
	Format string `yaml:"format" json:"format" mapstructure:"format"`
	// Compression is one of none, gzip, zstd, lz4
	Compression string `yaml:"compression" json:"compression" mapstructure:"compression"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level" mapstructure:"level"`
	Encoding    string `yaml:"encoding" json:"encoding" mapstructure:"encoding"`
	Development bool   `yaml:"development" json:"development" mapstructure:"development"`
}

// ObservabilityConfig contains tracing and metrics settings.
type ObservabilityConfig struct {
	// EnableTracing exports spans of each run to stdout
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing" mapstructure:"enable_tracing"`
	// TracingSampleRate controls trace sampling (0.0-1.0)
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate" mapstructure:"tracing_sample_rate"`
	// MetricsFile, when set, receives the Prometheus text exposition after each command
	MetricsFile string `yaml:"metrics_file" json:"metrics_file" mapstructure:"metrics_file"`
}

// DefaultThresholds returns the inference defaults.
func DefaultThresholds() ThresholdConfig {
	na := make([]string, len(DefaultNAValues))
	copy(na, DefaultNAValues)
	return ThresholdConfig{
		ChunkSize:          1_000_000,
		SampleSizePerChunk: 1_000_000,
		RandomState:        0,
		ValidThreshold:     0.5,
		CategoryThreshold:  0.5,
		CategoryStrategy:   StrategyCoherence,
		NAValues:           na,
	}
}

// Default creates an AppConfig with working defaults: an fs catalog under
// ./.cleaner, uncompressed CSV artifacts and info-level JSON logs.
func Default() *AppConfig {
	return &AppConfig{
		Inference: DefaultThresholds(),
		Catalog: CatalogConfig{
			Backend: "fs",
			Dir:     ".cleaner/catalog",
			Blob: BlobConfig{
				Backend: "fs",
				Dir:     ".cleaner/artifacts",
			},
		},
		Output: OutputConfig{
			Format:      "csv",
			Compression: "none",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
		Observability: ObservabilityConfig{
			TracingSampleRate: 1.0,
		},
	}
}

// Validate checks the thresholds and sizes before a run starts.
func (tc *ThresholdConfig) Validate() error {
	if tc.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive")
	}
	if tc.SampleSizePerChunk <= 0 {
		return fmt.Errorf("sample_size_per_chunk must be positive")
	}
	if tc.ValidThreshold < 0 || tc.ValidThreshold > 1 {
		return fmt.Errorf("valid_threshold must be within [0, 1], got %v", tc.ValidThreshold)
	}
	if tc.CategoryThreshold < 0 || tc.CategoryThreshold > 1 {
		return fmt.Errorf("category_threshold must be within [0, 1], got %v", tc.CategoryThreshold)
	}
	switch tc.CategoryStrategy {
	case "", StrategyCoherence, StrategyUniqueness:
	default:
		return fmt.Errorf("unknown category_strategy %q", tc.CategoryStrategy)
	}
	return nil
}

// IsNA reports whether raw is one of the configured missing-value literals.
func (tc *ThresholdConfig) IsNA(raw string) bool {
	for _, na := range tc.NAValues {
		if raw == na {
			return true
		}
	}
	return false
}

// Validate validates the whole configuration.
func (c *AppConfig) Validate() error {
	if err := c.Inference.Validate(); err != nil {
		return fmt.Errorf("inference: %w", err)
	}
	switch c.Catalog.Backend {
	case "memory", "fs", "postgres", "sqlite", "mysql", "sqlserver", "mongo":
	default:
		return fmt.Errorf("catalog: unknown backend %q", c.Catalog.Backend)
	}
	switch c.Catalog.Backend {
	case "postgres", "sqlite", "mysql", "sqlserver", "mongo":
		if c.Catalog.DSN == "" {
			return fmt.Errorf("catalog: dsn is required for backend %q", c.Catalog.Backend)
		}
	case "fs":
		if c.Catalog.Dir == "" {
			return fmt.Errorf("catalog: dir is required for the fs backend")
		}
	}
	switch c.Catalog.Blob.Backend {
	case "memory":
	case "fs":
		if c.Catalog.Blob.Dir == "" {
			return fmt.Errorf("catalog.blob: dir is required for the fs backend")
		}
	case "s3", "gcs":
		if c.Catalog.Blob.Bucket == "" {
			return fmt.Errorf("catalog.blob: bucket is required for backend %q", c.Catalog.Blob.Backend)
		}
	default:
		return fmt.Errorf("catalog.blob: unknown backend %q", c.Catalog.Blob.Backend)
	}
	switch c.Output.Format {
	case "csv", "arrow", "parquet", "avro":
	default:
		return fmt.Errorf("output: unknown format %q", c.Output.Format)
	}
	switch c.Output.Compression {
	case "", "none", "gzip", "zstd", "lz4":
	default:
		return fmt.Errorf("output: unknown compression %q", c.Output.Compression)
	}
	if c.Observability.TracingSampleRate < 0 || c.Observability.TracingSampleRate > 1 {
		return fmt.Errorf("observability: tracing_sample_rate must be within [0, 1]")
	}
	return nil
}

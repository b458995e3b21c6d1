package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides, e.g. CLEANER_INFERENCE_VALID_THRESHOLD.
const EnvPrefix = "CLEANER"

// Load loads a configuration from a YAML file.
func Load(filePath string, config interface{}) error {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: File path is controlled by caller
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Substitute environment variables
	content := substituteEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(content), config); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// Save saves a configuration to a YAML file.
func Save(filePath string, config interface{}) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// NewViper returns a viper instance seeded with Default() values,
// CLEANER_* environment overrides and, when filePath is set, the YAML file.
// Flags are bound by the caller.
func NewViper(filePath string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if filePath != "" {
		data, err := os.ReadFile(filePath) //nolint:gosec // G304: File path is controlled by caller
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		v.SetConfigType("yaml")
		if err := v.ReadConfig(strings.NewReader(substituteEnvVars(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}
	return v, nil
}

// FromViper decodes and validates an AppConfig.
func FromViper(v *viper.Viper) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *AppConfig) {
	v.SetDefault("inference.chunk_size", d.Inference.ChunkSize)
	v.SetDefault("inference.sample_size_per_chunk", d.Inference.SampleSizePerChunk)
	v.SetDefault("inference.random_state", d.Inference.RandomState)
	v.SetDefault("inference.valid_threshold", d.Inference.ValidThreshold)
	v.SetDefault("inference.category_threshold", d.Inference.CategoryThreshold)
	v.SetDefault("inference.category_strategy", d.Inference.CategoryStrategy)
	v.SetDefault("inference.na_values", d.Inference.NAValues)

	v.SetDefault("catalog.backend", d.Catalog.Backend)
	v.SetDefault("catalog.dsn", d.Catalog.DSN)
	v.SetDefault("catalog.database", d.Catalog.Database)
	v.SetDefault("catalog.dir", d.Catalog.Dir)
	v.SetDefault("catalog.blob.backend", d.Catalog.Blob.Backend)
	v.SetDefault("catalog.blob.bucket", d.Catalog.Blob.Bucket)
	v.SetDefault("catalog.blob.prefix", d.Catalog.Blob.Prefix)
	v.SetDefault("catalog.blob.region", d.Catalog.Blob.Region)
	v.SetDefault("catalog.blob.dir", d.Catalog.Blob.Dir)
	v.SetDefault("catalog.blob.endpoint", d.Catalog.Blob.Endpoint)
	v.SetDefault("catalog.blob.credentials_file", d.Catalog.Blob.CredentialsFile)

	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.compression", d.Output.Compression)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.encoding", d.Logging.Encoding)
	v.SetDefault("logging.development", d.Logging.Development)

	v.SetDefault("observability.enable_tracing", d.Observability.EnableTracing)
	v.SetDefault("observability.tracing_sample_rate", d.Observability.TracingSampleRate)
	v.SetDefault("observability.metrics_file", d.Observability.MetricsFile)
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		envValue := os.Getenv(varName)
		content = content[:start] + envValue + content[end+1:]
	}
	return content
}

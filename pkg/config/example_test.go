package config_test

import (
	"fmt"
	"log"

	"github.com/garlicdevs/csv-cleaner/pkg/config"
)

// ExampleDefaultThresholds shows the inference defaults.
func ExampleDefaultThresholds() {
	cfg := config.DefaultThresholds()

	fmt.Printf("Chunk Size: %d\n", cfg.ChunkSize)
	fmt.Printf("Sample Size Per Chunk: %d\n", cfg.SampleSizePerChunk)
	fmt.Printf("Valid Threshold: %v\n", cfg.ValidThreshold)
	fmt.Printf("Category Strategy: %s\n", cfg.CategoryStrategy)

	// Output:
	// Chunk Size: 1000000
	// Sample Size Per Chunk: 1000000
	// Valid Threshold: 0.5
	// Category Strategy: coherence
}

// ExampleAppConfig_Validate shows how to validate a configuration
// before using it.
func ExampleAppConfig_Validate() {
	cfg := config.Default()
	cfg.Inference.ValidThreshold = 0.9
	cfg.Output.Format = "arrow"
	cfg.Output.Compression = "zstd"

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	fmt.Println("Configuration is valid!")

	// Output:
	// Configuration is valid!
}

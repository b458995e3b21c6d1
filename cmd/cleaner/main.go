package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garlicdevs/csv-cleaner/internal/service"
	"github.com/garlicdevs/csv-cleaner/pkg/catalog"
	"github.com/garlicdevs/csv-cleaner/pkg/config"
	"github.com/garlicdevs/csv-cleaner/pkg/inference"
	"github.com/garlicdevs/csv-cleaner/pkg/logger"
	"github.com/garlicdevs/csv-cleaner/pkg/metrics"
	"github.com/garlicdevs/csv-cleaner/pkg/observability"
)

var version = "0.1.0"

// app is the state shared by every subcommand once the root pre-run has
// loaded the configuration.
type app struct {
	configFile string
	cfg        *config.AppConfig
	log        *zap.Logger
}

func main() {
	a := &app{}

	root := &cobra.Command{
		Use:   "cleaner",
		Short: "Infer and convert column types of CSV and XLSX files",
		Long: `cleaner samples a delimited text or spreadsheet file, resolves the most
compact storage type of every column (boolean, integer and float widths,
complex, datetime, duration, category or text), converts the whole file and
stores the result together with a per-column report.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}
	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "Path to a YAML configuration file")
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String("catalog", "", "Catalog backend (memory, fs, postgres, sqlite, mysql, sqlserver, mongo)")
	root.PersistentFlags().String("catalog-dsn", "", "Connection string of the catalog backend")

	root.AddCommand(
		a.inferCommand(),
		a.listCommand(),
		a.showCommand(),
		a.fetchCommand(),
		a.overrideCommand(),
		configCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Show version information",
			Annotations: map[string]string{
				skipSetup: "true",
			},
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("cleaner v%s\n", version)
				fmt.Printf("Go version: %s\n", runtime.Version())
				fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			},
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// skipSetup marks commands that run without loading configuration.
const skipSetup = "skip-setup"

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[skipSetup] != "" {
		return nil
	}

	v, err := config.NewViper(a.configFile)
	if err != nil {
		return err
	}
	bindings := map[string]string{
		"logging.level":                   "log-level",
		"catalog.backend":                 "catalog",
		"catalog.dsn":                     "catalog-dsn",
		"output.format":                   "format",
		"output.compression":              "compression",
		"inference.valid_threshold":       "valid-threshold",
		"inference.category_threshold":    "category-threshold",
		"inference.category_strategy":     "strategy",
		"inference.chunk_size":            "chunk-size",
		"inference.sample_size_per_chunk": "sample-size",
		"inference.random_state":          "seed",
	}
	for key, name := range bindings {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Encoding:    cfg.Logging.Encoding,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stderr"},
	}); err != nil {
		return err
	}
	a.log = logger.Get().With(zap.String("component", "cleaner-cli"))

	if cfg.Observability.EnableTracing {
		if err := observability.Init(observability.TracingConfig{
			ServiceName:    "cleaner",
			ServiceVersion: version,
			SamplingRate:   cfg.Observability.TracingSampleRate,
			Writer:         os.Stderr,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) teardown() error {
	if a.cfg == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := observability.Shutdown(ctx); err != nil {
		a.log.Warn("failed to flush spans", zap.Error(err))
	}
	if path := a.cfg.Observability.MetricsFile; path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	_ = logger.Sync()
	return nil
}

// openService connects the catalog and builds the service. The returned
// close function releases the catalog connections.
func (a *app) openService(ctx context.Context) (*service.Service, func(), error) {
	in, err := inference.NewInferencer(a.cfg.Inference, a.log)
	if err != nil {
		return nil, nil, err
	}
	cat, err := catalog.Open(ctx, a.cfg.Catalog, a.log)
	if err != nil {
		return nil, nil, err
	}
	svc, err := service.New(in, cat, a.cfg.Output, a.log)
	if err != nil {
		_ = cat.Close()
		return nil, nil, err
	}
	return svc, func() {
		if err := cat.Close(); err != nil {
			a.log.Warn("failed to close catalog", zap.Error(err))
		}
	}, nil
}

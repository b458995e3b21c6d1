package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garlicdevs/csv-cleaner/internal/service"
	"github.com/garlicdevs/csv-cleaner/pkg/config"
	"github.com/garlicdevs/csv-cleaner/pkg/convert"
	"github.com/garlicdevs/csv-cleaner/pkg/inference"
	"github.com/garlicdevs/csv-cleaner/pkg/json"
	"github.com/garlicdevs/csv-cleaner/pkg/models"
)

func (a *app) inferCommand() *cobra.Command {
	var name string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "infer <file>",
		Short: "Infer column types, convert the file and store the result",
		Long: `Infer samples the file, resolves one type per column, converts every row
and stores the converted artifact and column report in the catalog under the
dataset name (the file name unless --name is set). An existing dataset of
the same name is replaced.

Example:
  cleaner infer scores.csv --format arrow --compression zstd
  cleaner infer scores.csv --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if dryRun {
				in, err := inference.NewInferencer(a.cfg.Inference, a.log)
				if err != nil {
					return err
				}
				types, _, err := in.InferTypes(ctx, args[0])
				if err != nil {
					return err
				}
				reports := make([]models.ColumnReport, 0, types.Len())
				for _, e := range types.Entries() {
					reports = append(reports, models.NewColumnReport(e.Column, e.Tag))
				}
				return writeJSON(cmd.OutOrStdout(), reports)
			}

			svc, closeFn, err := a.openService(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := svc.Upload(ctx, args[0], name)
			if err != nil {
				return err
			}
			for _, o := range res.Outcomes {
				if o.Status == convert.StatusRolledBack {
					a.log.Warn("column kept its original values",
						zap.String("column", o.Column),
						zap.String("type", string(o.Tag)),
						zap.Error(o.Err))
				}
			}
			return writeJSON(cmd.OutOrStdout(), service.Metadata{
				DownloadURL: res.DownloadURL,
				Columns:     res.Dataset.Columns,
			})
		},
	}

	defaults := config.DefaultThresholds()
	cmd.Flags().StringVarP(&name, "name", "n", "", "Dataset name (defaults to the file name)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only sample and classify; print the inferred columns without storing anything")
	cmd.Flags().String("format", "", "Artifact format (csv, arrow, parquet, avro)")
	cmd.Flags().String("compression", "", "Artifact compression (none, gzip, zstd, lz4)")
	cmd.Flags().Float64("valid-threshold", defaults.ValidThreshold, "Minimum fraction of values a typed check must parse")
	cmd.Flags().Float64("category-threshold", defaults.CategoryThreshold, "Maximum distinct/valid ratio of the uniqueness strategy")
	cmd.Flags().String("strategy", defaults.CategoryStrategy, "Categorical strategy (coherence, uniqueness)")
	cmd.Flags().Int("chunk-size", defaults.ChunkSize, "Rows read per chunk")
	cmd.Flags().Int("sample-size", defaults.SampleSizePerChunk, "Rows sampled per chunk")
	cmd.Flags().Uint64("seed", defaults.RandomState, "Sampling seed")
	return cmd
}

func (a *app) listCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			datasets, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), datasets)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCOLUMNS\tROWS\tFORMAT\tUPDATED")
			for _, ds := range datasets {
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n",
					ds.Name, len(ds.Columns), ds.Rows, ds.Format, ds.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full records as JSON")
	return cmd
}

func (a *app) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <dataset>",
		Short: "Print the download URL and column report of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			meta, err := svc.Metadata(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), meta)
		},
	}
}

func (a *app) fetchCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "fetch <dataset>",
		Short: "Write the converted artifact of a dataset",
		Long: `Fetch decompresses the stored artifact. CSV artifacts are printed as text
unless --output is set; other formats require --output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			content, err := svc.Content(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output != "" {
				if err := os.WriteFile(output, content.Data, 0o600); err != nil {
					return fmt.Errorf("failed to write %s: %w", output, err)
				}
				a.log.Info("artifact written", zap.String("path", output), zap.Int("bytes", len(content.Data)))
				return nil
			}
			if content.Text == "" && len(content.Data) > 0 {
				return fmt.Errorf("%s artifacts are binary; use --output", content.Dataset.Format)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), content.Text)
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the artifact to this file")
	return cmd
}

func (a *app) overrideCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "override <dataset> <column=label>...",
		Short: "Change the friendly label of columns",
		Long: `Override sets the label shown for each named column. Column types are not
changed and names that match no column are ignored.

Example:
  cleaner override scores.csv Score="Exam score" Grade=letter`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			labels, err := parseLabels(args[1:])
			if err != nil {
				return err
			}
			svc, closeFn, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			ds, changed, err := svc.Override(cmd.Context(), args[0], labels)
			if err != nil {
				return err
			}
			if changed < len(labels) {
				a.log.Info("some columns did not match", zap.Int("changed", changed), zap.Int("requested", len(labels)))
			}
			return writeJSON(cmd.OutOrStdout(), ds.Columns)
		},
	}
}

func configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "config",
		Short:       "Manage configuration files",
		Annotations: map[string]string{skipSetup: "true"},
	}
	cmd.AddCommand(&cobra.Command{
		Use:         "init [path]",
		Short:       "Write the default configuration as YAML",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{skipSetup: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "cleaner.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := config.Save(path, config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	})
	return cmd
}

// parseLabels parses column=label pairs; the first '=' separates the two.
func parseLabels(pairs []string) (map[string]string, error) {
	labels := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		column, label, ok := strings.Cut(pair, "=")
		if !ok || column == "" {
			return nil, fmt.Errorf("invalid label %q: want column=label", pair)
		}
		labels[column] = label
	}
	return labels, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	return json.MarshalToWriter(w, v, true)
}

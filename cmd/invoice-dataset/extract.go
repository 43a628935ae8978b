// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/invoice-dataset/internal/chat"
	"github.com/pdiddy/invoice-dataset/internal/dataset"
	"github.com/pdiddy/invoice-dataset/internal/extract"
	"github.com/pdiddy/invoice-dataset/internal/journal"
	"github.com/pdiddy/invoice-dataset/internal/secrets"
	"github.com/pdiddy/invoice-dataset/pkg/types"
)

const (
	defaultInputDir = "../dataset/mdData"
	defaultOutput   = "invoiceDataset.jsonl"
)

var extractFlags = []string{
	"input-dir", "output", "sink", "limit", "model", "base-url",
	"concurrency", "timeout", "rate-limit-retries", "journal",
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract invoice fields from markdown into the dataset",
	Long: `Extract sends every *.md file of the input directory to the chat model
together with fixed extraction instructions, and appends one JSON line per
answered file to the dataset. Files the model leaves unanswered, or whose
request fails, are reported and skipped; the batch always continues.

Use --preview (or --sink console) to print records instead of writing them.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, extractFlags...)
	},
	RunE: runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.String("input-dir", defaultInputDir, "directory of invoice markdown files")
	f.String("output", defaultOutput, "JSON-Lines dataset file (appended to)")
	f.String("sink", string(types.SinkJSONL), "record destination: jsonl or console")
	f.Int("limit", 0, "process at most this many files (0 = all)")
	f.Bool("preview", false, fmt.Sprintf("print the first %d records to the console instead of writing", extract.PreviewLimit))
	f.String("model", chat.DefaultModel, "chat model identifier")
	f.String("base-url", chat.DefaultBaseURL, "OpenAI-compatible API root")
	f.Int("concurrency", 1, "maximum in-flight completion requests")
	f.Duration("timeout", 0, "per-request timeout (0 = none)")
	f.Int("rate-limit-retries", 0, "retries for HTTP 429 responses (0 = none)")
	f.String("journal", "", "SQLite run journal path (empty disables)")

	rootCmd.AddCommand(extractCmd)
}

// extractionConfig assembles the extract settings from viper, which layers
// flags over environment over config file.
func extractionConfig(preview bool) types.ExtractionConfig {
	cfg := types.ExtractionConfig{
		AIConfig: types.AIConfig{
			Model:            viper.GetString("model"),
			APIKey:           secrets.APIKey(viper.GetString("api_key"), loadedSecrets),
			BaseURL:          viper.GetString("base_url"),
			Timeout:          viper.GetDuration("timeout"),
			RateLimitRetries: viper.GetInt("rate_limit_retries"),
		},
		InputDir:    viper.GetString("input_dir"),
		Output:      viper.GetString("output"),
		Sink:        types.SinkKind(viper.GetString("sink")),
		Limit:       viper.GetInt("limit"),
		Concurrency: viper.GetInt("concurrency"),
		Journal:     viper.GetString("journal"),
	}
	if cfg.InputDir == "" {
		cfg.InputDir = defaultInputDir
	}
	if cfg.Output == "" {
		cfg.Output = defaultOutput
	}
	if preview {
		cfg.Sink = types.SinkConsole
		if cfg.Limit <= 0 || cfg.Limit > extract.PreviewLimit {
			cfg.Limit = extract.PreviewLimit
		}
	}
	return cfg
}

func runExtract(cmd *cobra.Command, args []string) error {
	preview, _ := cmd.Flags().GetBool("preview")
	cfg := extractionConfig(preview)

	client, err := chat.New(cfg.AIConfig, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink, err := dataset.NewSink(cfg.Sink, cfg.Output, os.Stdout)
	if err != nil {
		return err
	}
	defer sink.Close()

	var rec extract.Recorder
	var run *journal.Run
	if cfg.Journal != "" {
		j, err := journal.Open(cfg.Journal)
		if err != nil {
			return err
		}
		defer j.Close()

		run, err = j.Begin(ctx, journal.RunInfo{
			InputDir: cfg.InputDir,
			Sink:     cfg.Sink,
			Output:   cfg.Output,
			Model:    cfg.Model,
		})
		if err != nil {
			return err
		}
		rec = run
		logger.Info("journaling run", "id", run.ID, "journal", cfg.Journal)
	}

	logger.Debug("starting extraction", "input_dir", cfg.InputDir, "sink", cfg.Sink,
		"model", cfg.Model, "concurrency", cfg.Concurrency, "limit", cfg.Limit)

	summary, err := extract.Run(ctx, client, sink, rec, cfg, os.Stdout)
	if err != nil {
		return err
	}

	if run != nil {
		// The signal context may already be cancelled; totals are still recorded.
		if err := run.Finish(context.Background(), summary.Extracted, summary.Skipped, summary.Failed); err != nil {
			logger.Warn("finishing journal run", "err", err)
		}
	}
	if cfg.Sink == types.SinkJSONL {
		fmt.Fprintf(os.Stdout, "dataset: %s\n", cfg.Output)
	}
	return nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/invoice-dataset/internal/journal"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List extraction runs recorded in the journal",
	Long: `Runs prints the most recent extraction runs from the SQLite journal
written by "extract --journal". With --files, the per-file outcomes of the
newest run are listed as well.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, "journal")
	},
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().String("journal", "", "SQLite run journal path")
	runsCmd.Flags().Int("limit", 10, "number of runs to show (0 = all)")
	runsCmd.Flags().Bool("files", false, "also list file outcomes of the newest run")

	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	path := viper.GetString("journal")
	if path == "" {
		return errors.New("no journal configured: pass --journal or set journal in the config file")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	limit, _ := cmd.Flags().GetInt("limit")
	withFiles, _ := cmd.Flags().GetBool("files")

	j, err := journal.Open(path)
	if err != nil {
		return err
	}
	defer j.Close()

	ctx := context.Background()
	runs, err := j.Recent(ctx, limit)
	if err != nil {
		return err
	}
	printRuns(os.Stdout, runs)

	if withFiles && len(runs) > 0 {
		files, err := j.Files(ctx, runs[0].ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "\nrun %s\n", runs[0].ID)
		for _, o := range files {
			fmt.Fprintf(os.Stdout, "%-4d %-9s %-30s %8s  %s\n",
				o.Seq, o.Status, o.FileName, o.Elapsed.Round(time.Millisecond), o.Detail)
		}
	}
	return nil
}

func printRuns(w io.Writer, runs []journal.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}

	fmt.Fprintf(w, "%-36s  %-20s  %-8s  %-16s  %9s  %7s  %6s\n",
		"ID", "Started", "Sink", "Model", "Extracted", "Skipped", "Failed")
	fmt.Fprintln(w, strings.Repeat("-", 116))
	for _, r := range runs {
		model := r.Model
		if len(model) > 16 {
			model = model[:13] + "..."
		}
		started := r.StartedAt.Local().Format("2006-01-02 15:04:05")
		if r.FinishedAt == nil {
			started += "*"
		}
		fmt.Fprintf(w, "%-36s  %-20s  %-8s  %-16s  %9d  %7d  %6d\n",
			r.ID, started, r.Sink, model, r.Extracted, r.Skipped, r.Failed)
	}
	fmt.Fprintf(w, "\n%d run(s); * = unfinished\n", len(runs))
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/invoice-dataset/internal/dataset"
)

var lintCmd = &cobra.Command{
	Use:   "lint [file]",
	Short: "Check a dataset file for malformed lines",
	Long: `Lint reads a JSON-Lines dataset (default invoiceDataset.jsonl) and
reports lines that are not JSON, do not hold exactly a system, user and
assistant message, or whose assistant reply is not an invoice object with the
five expected fields. Nothing is rewritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLint,
}

func init() {
	lintCmd.Flags().String("format", "text", "report format: text, yaml, or json")
	lintCmd.Flags().Bool("strict", false, "exit non-zero when any issue is found")

	rootCmd.AddCommand(lintCmd)
}

func runLint(cmd *cobra.Command, args []string) error {
	path := defaultOutput
	if len(args) == 1 {
		path = args[0]
	}
	format, _ := cmd.Flags().GetString("format")
	strict, _ := cmd.Flags().GetBool("strict")

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	report, err := dataset.Lint(f)
	if err != nil {
		return err
	}

	if err := writeLintReport(os.Stdout, path, report, format); err != nil {
		return err
	}
	if strict && !report.Clean() {
		return fmt.Errorf("%d malformed line(s) in %s", len(report.Issues), path)
	}
	return nil
}

func writeLintReport(w io.Writer, path string, report dataset.LintReport, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(report)
	case "text", "":
		for _, is := range report.Issues {
			src := is.Source
			if src == "" {
				src = "-"
			}
			fmt.Fprintf(w, "line %-5d %-16s %-20s %s\n", is.Line, is.Kind, src, is.Detail)
		}
		fmt.Fprintf(w, "%s: %d line(s), %d valid, %d issue(s)\n", path, report.Lines, report.Valid, len(report.Issues))
		return nil
	default:
		return fmt.Errorf("unsupported format %q: use text, yaml, or json", format)
	}
}

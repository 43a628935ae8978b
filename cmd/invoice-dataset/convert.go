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

	"github.com/pdiddy/invoice-dataset/internal/container"
	"github.com/pdiddy/invoice-dataset/internal/convert"
	"github.com/pdiddy/invoice-dataset/pkg/types"
)

const defaultSourceDir = "../dataset/originalData"

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert invoice PDFs to markdown",
	Long: `Convert pipes every *.pdf in the source directory through the markitdown
container image (docker, with podman as fallback) and writes <name>.md into
the markdown directory that extract reads from. Existing markdown is kept
unless --force is given.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, "source-dir", "markdown-dir", "image", "force")
	},
	RunE: runConvert,
}

func init() {
	f := convertCmd.Flags()
	f.String("source-dir", defaultSourceDir, "directory of invoice PDFs")
	f.String("markdown-dir", defaultInputDir, "directory receiving markdown output")
	f.String("image", convert.DefaultImage, "markitdown container image")
	f.Bool("force", false, "reconvert PDFs whose markdown already exists")

	rootCmd.AddCommand(convertCmd)
}

func conversionConfig() types.ConversionConfig {
	return types.ConversionConfig{
		SourceDir:   viper.GetString("source_dir"),
		MarkdownDir: viper.GetString("markdown_dir"),
		Image:       viper.GetString("image"),
		Force:       viper.GetBool("force"),
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg := conversionConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := container.DetectRuntime(ctx)
	if err != nil {
		return err
	}
	logger.Debug("container runtime", "name", rt.Name(), "image", cfg.Image)

	conv, err := convert.NewMarkitdownConverter(ctx, rt, cfg.Image)
	if err != nil {
		return err
	}

	result, err := convert.ConvertDir(ctx, conv, cfg.SourceDir, cfg.MarkdownDir, cfg.Force, os.Stdout)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d PDF(s) failed conversion", result.Failed)
	}
	return nil
}

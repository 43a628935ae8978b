// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the invoice-dataset CLI. It converts
// invoice PDFs to markdown, extracts structured fields from the markdown with
// a hosted model, and checks the resulting JSON-Lines dataset.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/invoice-dataset/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// logger receives diagnostics on stderr. Per-file progress goes to stdout.
var logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "invoice-dataset"})

var rootCmd = &cobra.Command{
	Use:   "invoice-dataset",
	Short: "Build a fine-tuning dataset from invoice documents",
	Long: `invoice-dataset turns a folder of invoices into a chat-format JSON-Lines
dataset. Each line holds the system instructions, the invoice markdown, and
the fields a hosted model extracted from it.

Stages are subcommands: convert (PDF to markdown), extract (markdown to
dataset lines), lint (check a dataset), and runs (list journaled runs).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := secrets.LoadDotEnv(".env"); err != nil {
			return err
		}
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", "keys", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initLogger, initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./invoice-dataset.yaml or ~/.config/invoice-dataset/invoice-dataset.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "diagnostic log level: debug, info, warn, error")
}

func initLogger() {
	name, _ := rootCmd.PersistentFlags().GetString("log-level")
	level, err := log.ParseLevel(name)
	if err != nil {
		logger.Warn("unknown log level, using warn", "level", name)
		level = log.WarnLevel
	}
	logger.SetLevel(level)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("invoice-dataset")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "invoice-dataset"))
		}
	}

	viper.SetEnvPrefix("INVOICE_DATASET")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logger.Info("using config file", "path", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		logger.Error("reading config file", "path", cfgFile, "err", err)
	}
}

// bindFlags binds the named flags of cmd to viper keys. Flag names use
// dashes; keys use underscores, matching the config file.
// Call it from PreRunE: extract and runs share the journal key.
func bindFlags(cmd *cobra.Command, names ...string) error {
	for _, name := range names {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			return fmt.Errorf("unknown flag %q", name)
		}
		if err := viper.BindPFlag(strings.ReplaceAll(name, "-", "_"), f); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

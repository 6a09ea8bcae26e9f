// Package cmd provides the ledgersync CLI commands.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/ledgersync/internal/config"
	"github.com/MrJamesThe3rd/ledgersync/internal/logging"
)

var (
	envFile string
	debug   bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ledgersync",
	Short: "Import bank statements into a personal finance ledger",
	Long: `ledgersync reads bank and card statements (OFX, CGD and Wallet CSV
exports), pairs transfers between your own accounts, infers categories from
the ledger's history and submits the result to Firefly III or Wallet.

Example:
  ledgersync import-files --config import.yaml --dry-run
  ledgersync runs --limit 10`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var envFiles []string
		if envFile != "" {
			envFiles = append(envFiles, envFile)
		}

		var err error

		cfg, err = config.Load(envFiles...)
		if err != nil {
			return err
		}

		level := cfg.App.LogLevel
		if debug {
			level = "debug"
		}

		logger, err := logging.New(level, cfg.App.LogFormat, os.Stderr)
		if err != nil {
			return err
		}

		slog.SetDefault(logger)

		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "env file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(runsCmd)
}

func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}

package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/ledgersync/internal/app"
	"github.com/MrJamesThe3rd/ledgersync/internal/config"
	"github.com/MrJamesThe3rd/ledgersync/internal/pipeline"
	"github.com/MrJamesThe3rd/ledgersync/internal/snapshot"
)

var (
	importFile string
	dryRun     bool
)

var importCmd = &cobra.Command{
	Use:   "import-files",
	Short: "Import statement files into the destination ledger",
	Long: `Load the statement files listed in an import config, reconcile them
against the destination ledger and submit what is new.

Both snapshots (preprocessed_transactions.json and transactions.json) are
written to SNAPSHOT_DIR, also on a dry run.

Example:
  ledgersync import-files --config import.yaml
  ledgersync import-files --config import.yaml --dry-run`,
	Run: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importFile, "config", "", "import config file, YAML or JSON (required)")
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "stop before submitting")

	importCmd.MarkFlagRequired("config")
}

func runImport(cmd *cobra.Command, args []string) {
	imp, err := config.LoadImport(importFile)
	exitOnError(err, "failed to load import config")

	maxDate, err := imp.Cutoff()
	exitOnError(err, "invalid import config")

	ctx := cmd.Context()

	a, err := app.New(ctx, cfg, slog.Default())
	exitOnError(err, "failed to initialize")
	defer a.Close()

	slog.Info("starting import", "destination", imp.Destination, "files", len(imp.Files), "dry_run", dryRun)

	res, err := a.Pipeline.Run(ctx, pipeline.Params{
		Destination: imp.Destination,
		Auth:        imp.APIAuth,
		MaxDate:     maxDate,
		DryRun:      dryRun,
		Files:       imp.Files,
	})
	exitOnError(err, "import failed")

	fmt.Println("\n=== Import Summary ===")
	fmt.Printf("Transactions:  %d\n", len(res.Transactions))
	fmt.Printf("Transfers:     %d\n", len(res.Pairs))
	fmt.Printf("Already sent:  %d\n", len(res.Skipped))

	if res.Submitted {
		fmt.Printf("Submitted:     %d\n", len(res.Pending))
	} else {
		fmt.Printf("Would submit:  %d (dry run)\n", len(res.Pending))
	}

	fmt.Printf("Snapshot:      %s\n", a.Snapshots.Path(snapshot.Final))

	if res.Run != nil {
		fmt.Printf("Run:           %s\n", res.Run.ID)
	}

	fmt.Println()
}

package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/ledgersync/internal/app"
	"github.com/MrJamesThe3rd/ledgersync/internal/history"
)

var (
	runsLimit       int
	runsDestination string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent import runs",
	Long: `List recorded import runs, newest first.

Example:
  ledgersync runs
  ledgersync runs --destination wallet --limit 5`,
	Run: runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum number of runs to show")
	runsCmd.Flags().StringVar(&runsDestination, "destination", "", "only show runs for this destination")
}

func runRuns(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	a, err := app.New(ctx, cfg, slog.Default())
	exitOnError(err, "failed to initialize")
	defer a.Close()

	list, err := a.History.List(ctx, history.ListFilter{Destination: runsDestination, Limit: runsLimit})
	exitOnError(err, "failed to list runs")

	if len(list) == 0 {
		fmt.Println("No runs recorded yet.")
		return
	}

	fmt.Printf("%-36s  %-16s  %-9s  %-9s  %8s  %8s  %s\n", "ID", "STARTED", "DEST", "STATUS", "IMPORTED", "SKIPPED", "ERROR")

	for _, run := range list {
		fmt.Printf("%-36s  %-16s  %-9s  %-9s  %8d  %8d  %s\n",
			run.ID,
			run.StartedAt.Local().Format(time.DateTime[:16]),
			run.Destination,
			run.Status,
			run.Imported,
			run.Skipped,
			run.Error,
		)
	}
}

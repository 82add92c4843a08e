package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// sweepCmd represents the sweep command
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Backfill stubborn venues, snapshot the dataset, prune old backups",
	Long: `Run the maintenance pass over the dataset.

Venues the regular resolution pass could not place are retried against the
Foursquare details and global search endpoints. Venues that definitively no
longer exist are marked unavailable and never retried. On the first sign of
a transient Foursquare failure the backfill stops to protect the API quota.

Afterwards the five durable files are copied into a dated backup snapshot,
and snapshots older than the retention window are deleted. Backups run even
when the backfill stopped early.`,
	Example: `  # Run the full maintenance pass
  untappd-data sweep`,
	Args: cobra.NoArgs,
	Run:  runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) {
	cfg, store, log := setupStage()
	ctx, cancel := stageContext()
	defer cancel()

	if err := runSweepStage(ctx, cfg, store, log); err != nil {
		fmt.Fprintf(os.Stderr, "sweep failed: %v\n", err)
		os.Exit(1)
	}
}

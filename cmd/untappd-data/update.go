package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Feed selection flags, shared by update and run
	breweries string
	workers   int
)

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Fetch tracked brewery feeds and store new posts",
	Long: `Fetch the RSS feed of every tracked brewery and store posts that are
new since the last run.

Feeds are fetched concurrently. Each brewery has its own checkpoint, so a
brewery whose feed fails this run is retried from the same place next run
while the others move on. Stored posts are kept verbatim; the parse stage
turns them into dataset rows later.`,
	Example: `  # Fetch feeds for the configured breweries
  untappd-data update

  # Track a different brewery set for this run
  untappd-data update --breweries 1001,4406

  # Fetch with more concurrent workers
  untappd-data update --workers 4`,
	Args: cobra.NoArgs,
	Run:  runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().StringVar(&breweries, "breweries", "", "comma separated brewery ids to track")
	updateCmd.Flags().IntVar(&workers, "workers", 0, "concurrent feed fetches")
}

func runUpdate(cmd *cobra.Command, args []string) {
	cfg, store, log := setupStage()
	ctx, cancel := stageContext()
	defer cancel()

	if err := runUpdateStage(ctx, cfg, store, log); err != nil {
		fmt.Fprintf(os.Stderr, "update failed: %v\n", err)
		os.Exit(1)
	}
}

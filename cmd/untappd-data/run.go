package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dallangoldblatt/untappd-data/pkg/config"
	"github.com/dallangoldblatt/untappd-data/pkg/logger"
	"github.com/dallangoldblatt/untappd-data/pkg/report"
	"github.com/dallangoldblatt/untappd-data/pkg/storage"
)

// stageFunc runs one pipeline stage end to end
type stageFunc func(context.Context, *config.Config, storage.ObjectStore, logger.Logger) error

// pipelineStages lists the stages in pipeline order
var pipelineStages = []struct {
	name string
	run  stageFunc
}{
	{report.StageUpdate, runUpdateStage},
	{report.StageParse, runParseStage},
	{report.StageVenues, runVenuesStage},
	{report.StageSweep, runSweepStage},
}

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run all four pipeline stages once, in order",
	Long: `Run update, parse, venues and sweep back to back.

The stages are independent: a failing stage is reported but does not stop
the ones after it, since each works from its own durable checkpoints. The
command exits nonzero when any stage failed.`,
	Example: `  # One full pipeline pass
  untappd-data run

  # Full pass against a local data directory
  untappd-data run --store local --data-dir ./data`,
	Args: cobra.NoArgs,
	Run:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&breweries, "breweries", "", "comma separated brewery ids to track")
	runCmd.Flags().IntVar(&workers, "workers", 0, "concurrent feed fetches")
}

func runRun(cmd *cobra.Command, args []string) {
	cfg, store, log := setupStage()
	ctx, cancel := stageContext()
	defer cancel()

	failed := 0
	for _, stage := range pipelineStages {
		if ctx.Err() != nil {
			break
		}
		if err := stage.run(ctx, cfg, store, log); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s failed: %v\n", stage.name, err)
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

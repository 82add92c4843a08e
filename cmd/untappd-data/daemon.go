package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/dallangoldblatt/untappd-data/internal/runlock"
)

// daemonCmd represents the daemon command
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the pipeline stages on their configured schedules",
	Long: `Run in the foreground and trigger each pipeline stage on its cron
schedule from the configuration.

A stage whose previous run is still in progress is skipped, not queued; the
next scheduled trigger picks up from the checkpoints as usual. A stage with
an empty schedule never runs. The daemon stops on SIGINT or SIGTERM after
waiting for stages that are mid-run.`,
	Example: `  # Run with the configured schedules
  untappd-data daemon

  # Typical schedule section of the config file:
  #   schedule:
  #     update: "0 * * * *"
  #     parse:  "15 * * * *"
  #     venues: "30 * * * *"
  #     sweep:  "45 3 * * *"`,
	Args: cobra.NoArgs,
	Run:  runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, args []string) {
	cfg, store, log := setupStage()
	ctx, cancel := stageContext()
	defer cancel()

	scheduler := cron.New()

	specs := []struct {
		name string
		spec string
		run  stageFunc
	}{
		{pipelineStages[0].name, cfg.Schedule.Update, pipelineStages[0].run},
		{pipelineStages[1].name, cfg.Schedule.Parse, pipelineStages[1].run},
		{pipelineStages[2].name, cfg.Schedule.Venues, pipelineStages[2].run},
		{pipelineStages[3].name, cfg.Schedule.Sweep, pipelineStages[3].run},
	}

	scheduled := 0
	for _, entry := range specs {
		entry := entry
		if entry.spec == "" {
			log.InfoWithFields("Stage has no schedule", map[string]interface{}{
				"stage": entry.name,
			})
			continue
		}

		_, err := scheduler.AddFunc(entry.spec, func() {
			err := entry.run(ctx, cfg, store, log)
			if err == nil {
				return
			}
			if errors.Is(err, runlock.ErrHeld) {
				log.WarnWithFields("Skipping stage, previous run still in progress", map[string]interface{}{
					"stage": entry.name,
				})
				return
			}
			log.ErrorWithFields("Scheduled stage failed", map[string]interface{}{
				"stage": entry.name,
				"error": err.Error(),
			})
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid %s schedule %q: %v\n", entry.name, entry.spec, err)
			os.Exit(1)
		}
		scheduled++
	}

	if scheduled == 0 {
		fmt.Fprintln(os.Stderr, "no stage has a schedule configured")
		os.Exit(1)
	}

	log.InfoWithFields("Daemon started", map[string]interface{}{
		"update": cfg.Schedule.Update,
		"parse":  cfg.Schedule.Parse,
		"venues": cfg.Schedule.Venues,
		"sweep":  cfg.Schedule.Sweep,
	})

	scheduler.Start()
	<-ctx.Done()

	log.Info("Shutting down, waiting for running stages")
	<-scheduler.Stop().Done()
	log.Info("Daemon stopped")
}

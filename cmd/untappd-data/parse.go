package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Turn stored posts into dataset rows",
	Long: `Parse stored feed posts into the append-only check-in table and record
venues that have never been seen before.

Parsing is incremental: each brewery has its own checkpoint and only posts
past it are touched. Every parsed post is committed durably before the next
one starts, so an interrupted run loses nothing. Malformed posts are logged
and skipped without blocking the posts behind them.`,
	Example: `  # Parse everything stored since the last run
  untappd-data parse`,
	Args: cobra.NoArgs,
	Run:  runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) {
	cfg, store, log := setupStage()
	ctx, cancel := stageContext()
	defer cancel()

	if err := runParseStage(ctx, cfg, store, log); err != nil {
		fmt.Fprintf(os.Stderr, "parse failed: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// venuesCmd represents the venues command
var venuesCmd = &cobra.Command{
	Use:   "venues",
	Short: "Resolve registered venues to locations",
	Long: `Look up the location of every registered venue that is still missing
one.

Each venue is tried against the check-in page it was first seen on, then
against the Foursquare search API when the page has nothing. A location row
always comes from a single service; the two are never blended. Venues that
neither service can place stay marked missing and are retried on every run.

A service that keeps failing is dropped for the rest of the run; the other
carries on alone. Requires Foursquare credentials.`,
	Example: `  # Resolve whatever is currently missing
  untappd-data venues`,
	Args: cobra.NoArgs,
	Run:  runVenues,
}

func init() {
	rootCmd.AddCommand(venuesCmd)
}

func runVenues(cmd *cobra.Command, args []string) {
	cfg, store, log := setupStage()
	ctx, cancel := stageContext()
	defer cancel()

	if err := runVenuesStage(ctx, cfg, store, log); err != nil {
		fmt.Fprintf(os.Stderr, "venues failed: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// Version information, overridden at build time
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile   string
	logLevel     string
	storeBackend string
	bucket       string
	dataDir      string
	profileName  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "untappd-data",
	Short: "Incremental Untappd check-in harvesting pipeline",
	Long: `untappd-data harvests brewery check-in activity from Untappd RSS feeds
into an append-only CSV dataset, resolves the venues named in it and keeps
dated backups of everything.

The pipeline runs as four stages, each incremental and safe to re-run:

  update   fetch tracked brewery feeds and store new posts
  parse    turn stored posts into dataset rows and register new venues
  venues   resolve registered venues via Untappd pages and Foursquare
  sweep    backfill stubborn venues, snapshot the dataset, prune old backups

Each stage picks up exactly where the previous run left off. Run stages
individually, all at once with 'run', or on a schedule with 'daemon'.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .untappd-data.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", "", "object store backend (local or s3)")
	rootCmd.PersistentFlags().StringVar(&bucket, "bucket", "", "bucket holding the dataset (s3 backend)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory holding the dataset (local backend)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "P", "", "stored credential profile to use")

	rootCmd.SetVersionTemplate(`untappd-data {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

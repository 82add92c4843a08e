package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dallangoldblatt/untappd-data/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage untappd-data configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables and .env files
  - Configuration file
  - Default values (lowest priority)`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created in the current directory as '.untappd-data.yaml'
unless a different path is given with the --config flag.`,
	Run: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration the pipeline would run with, merged from all
sources. Secrets are masked.`,
	Run: runConfigShow,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load and validate the configuration, reporting errors and warnings.

Validation checks the YAML syntax, the tracked brewery set, value ranges
and whether credentials are configured for the stages that need them.`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".untappd-data.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintf(os.Stderr, "configuration file already exists: %s\n", configPath)
		os.Exit(1)
	}

	exampleConfig := `# untappd-data configuration file
#
# Credentials never belong in this file. Use 'untappd-data auth login',
# or the untappd_access_key_id / untappd_secret_access_key /
# foursquare_client_id / foursquare_client_secret environment variables.

# Durable object store holding posts, datasets, checkpoints and backups
store:
  # "local" keeps everything under local_directory, "s3" in the bucket
  backend: "local"
  bucket: ""
  region: "us-west-1"
  local_directory: "./data"
  lock_directory: "./data/.locks"

# RSS feed ingestion
feed:
  # Untappd brewery ids to track
  breweries:
    - "1001"
    - "4406"
  base_url: "https://untappd.com"
  fetch_timeout: 30s
  workers: 2

# Untappd check-in page lookups (venue resolution)
untappd:
  base_url: "https://untappd.com"
  request_interval: 2s
  request_jitter: 500ms
  request_timeout: 30s

# Foursquare venue API (venue resolution fallback and sweep backfill)
foursquare:
  base_url: "https://api.foursquare.com/v2"
  search_lat_long: "32.715736,-117.161087"
  search_radius: 25000
  search_limit: 10
  request_interval: 750ms
  request_timeout: 30s

# Cron schedules for daemon mode; empty means the stage never runs
schedule:
  update: "0 * * * *"
  parse: "15 * * * *"
  venues: "30 * * * *"
  sweep: "45 3 * * *"

# Retry behavior for feed fetches and venue lookups
retry:
  max_attempts: 3
  initial_delay: 1s
  max_delay: 30s
  multiplier: 2.0

# Backup snapshot retention
retention:
  backup_prefix: "Backups/"
  days: 7

# Logging
logging:
  # debug, info, warn, error
  level: "info"
  # console for interactive runs, json for daemon mode
  format: "console"
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create configuration file: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Configuration file created:", configPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("1. Edit the brewery list and store settings")
	fmt.Println("2. Run 'untappd-data auth login' to store credentials")
	fmt.Println("3. Check everything with 'untappd-data config validate'")
	fmt.Println("4. Run the pipeline with 'untappd-data run'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, buildFlags())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	displayCfg := *cfg
	displayCfg.Store.SecretAccessKey = maskValue(cfg.Store.SecretAccessKey)
	displayCfg.Foursquare.ClientSecret = maskValue(cfg.Foursquare.ClientSecret)

	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to format configuration: %v\n", err)
		os.Exit(1)
	}

	fmt.Print(string(data))

	fmt.Println()
	fmt.Println("Configuration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables and .env files")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (searched in standard locations)")
	}
	fmt.Println("4. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, buildFlags())
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration validation failed: %v\n", err)
		os.Exit(1)
	}

	var warnings []string
	var errors []string

	if cfg.Foursquare.ClientID == "" || cfg.Foursquare.ClientSecret == "" {
		warnings = append(warnings, "foursquare credentials not configured; the venues and sweep stages will refuse to run")
	}
	if cfg.Store.Backend == "s3" && (cfg.Store.AccessKeyID == "" || cfg.Store.SecretAccessKey == "") {
		warnings = append(warnings, "object store credentials not configured; falling back to the default AWS credential chain")
	}

	if cfg.Store.Backend == "local" {
		if err := os.MkdirAll(cfg.Store.LocalDirectory, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create data directory: %v", err))
		}
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}

	if len(errors) > 0 {
		fmt.Fprintln(os.Stderr, "configuration has errors:")
		for _, e := range errors {
			fmt.Fprintf(os.Stderr, "  - %s\n", e)
		}
		os.Exit(1)
	}

	if len(warnings) > 0 {
		fmt.Println("Configuration warnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
		fmt.Println()
	}

	fmt.Println("Configuration is valid")
	fmt.Println()
	fmt.Println("Summary:")
	fmt.Printf("  Store: %s\n", describeStore(cfg))
	fmt.Printf("  Tracked breweries: %s\n", strings.Join(cfg.Feed.Breweries, ", "))
	fmt.Printf("  Feed workers: %d\n", cfg.Feed.Workers)
	fmt.Printf("  Backup retention: %d days under %s\n", cfg.Retention.Days, cfg.Retention.BackupPrefix)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}

func describeStore(cfg *config.Config) string {
	if cfg.Store.Backend == "s3" {
		return fmt.Sprintf("s3 bucket %q in %s", cfg.Store.Bucket, cfg.Store.Region)
	}
	return fmt.Sprintf("local directory %s", cfg.Store.LocalDirectory)
}

func maskValue(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

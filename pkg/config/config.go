package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the Untappd data pipeline
type Config struct {
	// Durable object store settings
	Store StoreConfig `yaml:"store" json:"store"`

	// RSS feed ingestion settings
	Feed FeedConfig `yaml:"feed" json:"feed"`

	// Untappd web page lookup settings (venue resolution, service A)
	Untappd UntappdConfig `yaml:"untappd" json:"untappd"`

	// Foursquare API settings (venue resolution, service B)
	Foursquare FoursquareConfig `yaml:"foursquare" json:"foursquare"`

	// Daemon scheduling cadences
	Schedule ScheduleConfig `yaml:"schedule" json:"schedule"`

	// Retry behavior for external calls
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Backup retention settings
	Retention RetentionConfig `yaml:"retention" json:"retention"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// StoreConfig holds durable object store configuration
type StoreConfig struct {
	// Backend selects the store implementation: "local" or "s3"
	Backend         string `yaml:"backend" json:"backend"`
	Bucket          string `yaml:"bucket" json:"bucket"`
	Region          string `yaml:"region" json:"region"`
	AccessKeyID     string `yaml:"access_key_id" json:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" json:"secret_access_key"`
	LocalDirectory  string `yaml:"local_directory" json:"local_directory"`
	LockDirectory   string `yaml:"lock_directory" json:"lock_directory"`
}

// FeedConfig holds RSS ingestion configuration
type FeedConfig struct {
	// Breweries is the ordered set of tracked brewery ids
	Breweries    []string      `yaml:"breweries" json:"breweries"`
	BaseURL      string        `yaml:"base_url" json:"base_url"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" json:"fetch_timeout"`
	Workers      int           `yaml:"workers" json:"workers"`
}

// UntappdConfig holds settings for scraping Untappd checkin and venue pages
type UntappdConfig struct {
	BaseURL         string        `yaml:"base_url" json:"base_url"`
	RequestInterval time.Duration `yaml:"request_interval" json:"request_interval"`
	RequestJitter   time.Duration `yaml:"request_jitter" json:"request_jitter"`
	RequestTimeout  time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// FoursquareConfig holds Foursquare v2 API configuration
type FoursquareConfig struct {
	BaseURL         string        `yaml:"base_url" json:"base_url"`
	ClientID        string        `yaml:"client_id" json:"client_id"`
	ClientSecret    string        `yaml:"client_secret" json:"client_secret"`
	SearchLatLong   string        `yaml:"search_lat_long" json:"search_lat_long"`
	SearchRadius    int           `yaml:"search_radius" json:"search_radius"`
	SearchLimit     int           `yaml:"search_limit" json:"search_limit"`
	RequestInterval time.Duration `yaml:"request_interval" json:"request_interval"`
	RequestTimeout  time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// ScheduleConfig holds cron specs for daemon mode. The venues and sweep
// stages share a lock, so their cadences must not overlap in practice.
type ScheduleConfig struct {
	Update string `yaml:"update" json:"update"`
	Parse  string `yaml:"parse" json:"parse"`
	Venues string `yaml:"venues" json:"venues"`
	Sweep  string `yaml:"sweep" json:"sweep"`
}

// RetryConfig holds retry behavior for external calls
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" json:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay" json:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" json:"multiplier"`
}

// RetentionConfig holds backup snapshot retention settings
type RetentionConfig struct {
	BackupPrefix string `yaml:"backup_prefix" json:"backup_prefix"`
	Days         int    `yaml:"days" json:"days"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:        "local",
			Region:         "us-east-1",
			LocalDirectory: "./data",
			LockDirectory:  "./data/.locks",
		},
		Feed: FeedConfig{
			BaseURL:      "https://untappd.com/rss/brewery",
			FetchTimeout: 30 * time.Second,
			Workers:      3,
		},
		Untappd: UntappdConfig{
			BaseURL:         "https://untappd.com",
			RequestInterval: 4 * time.Second,
			RequestJitter:   time.Second,
			RequestTimeout:  30 * time.Second,
		},
		Foursquare: FoursquareConfig{
			BaseURL:         "https://api.foursquare.com/v2",
			SearchLatLong:   "32.715736,-117.161087",
			SearchRadius:    25000,
			SearchLimit:     10,
			RequestInterval: 750 * time.Millisecond,
			RequestTimeout:  15 * time.Second,
		},
		Schedule: ScheduleConfig{
			Update: "0 * * * *",
			Parse:  "10 * * * *",
			Venues: "20 * * * *",
			Sweep:  "0 6 * * 0",
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 2 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
		Retention: RetentionConfig{
			BackupPrefix: "Backups/",
			Days:         7,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			File:   "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables. The credential
// and brewery variables keep the names the deployment has always used.
func (c *Config) LoadFromEnv() error {
	// Store credentials and location
	if bucket := os.Getenv("untappd_bucket"); bucket != "" {
		c.Store.Bucket = bucket
		c.Store.Backend = "s3"
	}
	if accessKey := os.Getenv("untappd_access_key_id"); accessKey != "" {
		c.Store.AccessKeyID = accessKey
	}
	if secretKey := os.Getenv("untappd_secret_access_key"); secretKey != "" {
		c.Store.SecretAccessKey = secretKey
	}
	if region := os.Getenv("untappd_region"); region != "" {
		c.Store.Region = region
	}

	// Tracked breweries, comma separated
	if breweries := os.Getenv("untappd_breweries"); breweries != "" {
		c.Feed.Breweries = splitBreweries(breweries)
	}

	// Foursquare credentials
	if clientID := os.Getenv("foursquare_client_id"); clientID != "" {
		c.Foursquare.ClientID = clientID
	}
	if clientSecret := os.Getenv("foursquare_client_secret"); clientSecret != "" {
		c.Foursquare.ClientSecret = clientSecret
	}

	// Pipeline settings
	if backend := os.Getenv("UNTAPPD_DATA_STORE_BACKEND"); backend != "" {
		c.Store.Backend = backend
	}
	if dir := os.Getenv("UNTAPPD_DATA_LOCAL_DIR"); dir != "" {
		c.Store.LocalDirectory = dir
	}
	if workers := os.Getenv("UNTAPPD_DATA_WORKERS"); workers != "" {
		var val int
		fmt.Sscanf(workers, "%d", &val)
		if val > 0 {
			c.Feed.Workers = val
		}
	}
	if days := os.Getenv("UNTAPPD_DATA_RETENTION_DAYS"); days != "" {
		var val int
		fmt.Sscanf(days, "%d", &val)
		if val > 0 {
			c.Retention.Days = val
		}
	}

	// Logging
	if logLevel := os.Getenv("UNTAPPD_DATA_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat := os.Getenv("UNTAPPD_DATA_LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}

	return nil
}

// splitBreweries parses a comma separated brewery id list
func splitBreweries(raw string) []string {
	parts := strings.Split(raw, ",")
	breweries := make([]string, 0, len(parts))
	for _, p := range parts {
		if id := strings.TrimSpace(p); id != "" {
			breweries = append(breweries, id)
		}
	}
	return breweries
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".untappd-data.yaml",
		".untappd-data.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "untappd-data", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "untappd-data", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".untappd-data.yaml"),
		filepath.Join(os.Getenv("HOME"), ".untappd-data.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Validate store settings
	switch c.Store.Backend {
	case "local":
		if c.Store.LocalDirectory == "" {
			errs = append(errs, errors.New("local store directory is required"))
		}
	case "s3":
		if c.Store.Bucket == "" {
			errs = append(errs, errors.New("s3 bucket is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}

	// Validate feed settings
	if len(c.Feed.Breweries) == 0 {
		errs = append(errs, errors.New("at least one tracked brewery id is required"))
	}
	for _, id := range c.Feed.Breweries {
		if strings.TrimSpace(id) == "" {
			errs = append(errs, errors.New("brewery ids must be non-empty"))
		}
	}
	if c.Feed.BaseURL == "" {
		errs = append(errs, errors.New("feed base URL is required"))
	}
	if c.Feed.Workers <= 0 {
		errs = append(errs, errors.New("feed workers must be positive"))
	}
	if c.Feed.Workers > 10 {
		errs = append(errs, errors.New("feed workers should not exceed 10"))
	}

	// Validate retry settings
	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("retry max attempts must be positive"))
	}
	if c.Retry.InitialDelay <= 0 {
		errs = append(errs, errors.New("retry initial delay must be positive"))
	}

	// Validate pacing
	if c.Untappd.RequestInterval <= 0 {
		errs = append(errs, errors.New("untappd request interval must be positive"))
	}
	if c.Foursquare.RequestInterval <= 0 {
		errs = append(errs, errors.New("foursquare request interval must be positive"))
	}

	// Validate retention
	if c.Retention.Days <= 0 {
		errs = append(errs, errors.New("retention days must be positive"))
	}
	if c.Retention.BackupPrefix == "" {
		errs = append(errs, errors.New("backup prefix is required"))
	}

	// Validate logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}
	validLogFormats := map[string]bool{
		"console": true, "json": true,
	}
	if !validLogFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, errors.New("invalid log format"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if breweries, ok := flags["breweries"].(string); ok && breweries != "" {
		c.Feed.Breweries = splitBreweries(breweries)
	}
	if backend, ok := flags["store"].(string); ok && backend != "" {
		c.Store.Backend = backend
	}
	if bucket, ok := flags["bucket"].(string); ok && bucket != "" {
		c.Store.Bucket = bucket
	}
	if dir, ok := flags["data-dir"].(string); ok && dir != "" {
		c.Store.LocalDirectory = dir
	}
	if workers, ok := flags["workers"].(int); ok && workers > 0 {
		c.Feed.Workers = workers
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".env"))
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".untappd-data.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

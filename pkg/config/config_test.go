package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	// Test default values
	if config.Store.Backend != "local" {
		t.Errorf("Expected default store backend to be local, got %s", config.Store.Backend)
	}

	if config.Feed.BaseURL != "https://untappd.com/rss/brewery" {
		t.Errorf("Expected default feed base URL, got %s", config.Feed.BaseURL)
	}

	if config.Untappd.RequestInterval != 4*time.Second {
		t.Errorf("Expected default untappd request interval to be 4s, got %v", config.Untappd.RequestInterval)
	}

	if config.Foursquare.RequestInterval != 750*time.Millisecond {
		t.Errorf("Expected default foursquare request interval to be 750ms, got %v", config.Foursquare.RequestInterval)
	}

	if config.Retention.Days != 7 {
		t.Errorf("Expected default retention to be 7 days, got %d", config.Retention.Days)
	}

	if config.Retention.BackupPrefix != "Backups/" {
		t.Errorf("Expected default backup prefix to be Backups/, got %s", config.Retention.BackupPrefix)
	}
}

func TestLoadFromEnv(t *testing.T) {
	// Set test environment variables
	os.Setenv("untappd_bucket", "test-bucket")
	os.Setenv("untappd_access_key_id", "test-access-key")
	os.Setenv("untappd_secret_access_key", "test-secret-key")
	os.Setenv("untappd_breweries", "1001, 2002,3003")
	os.Setenv("foursquare_client_id", "test-client-id")
	os.Setenv("foursquare_client_secret", "test-client-secret")
	os.Setenv("UNTAPPD_DATA_LOG_LEVEL", "debug")
	os.Setenv("UNTAPPD_DATA_RETENTION_DAYS", "14")

	defer func() {
		// Clean up environment variables
		os.Unsetenv("untappd_bucket")
		os.Unsetenv("untappd_access_key_id")
		os.Unsetenv("untappd_secret_access_key")
		os.Unsetenv("untappd_breweries")
		os.Unsetenv("foursquare_client_id")
		os.Unsetenv("foursquare_client_secret")
		os.Unsetenv("UNTAPPD_DATA_LOG_LEVEL")
		os.Unsetenv("UNTAPPD_DATA_RETENTION_DAYS")
	}()

	config := DefaultConfig()
	err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}

	if config.Store.Bucket != "test-bucket" {
		t.Errorf("Expected bucket test-bucket, got %s", config.Store.Bucket)
	}

	// Setting a bucket switches the backend to s3
	if config.Store.Backend != "s3" {
		t.Errorf("Expected backend s3 after bucket env var, got %s", config.Store.Backend)
	}

	if config.Store.AccessKeyID != "test-access-key" {
		t.Errorf("Expected access key, got %s", config.Store.AccessKeyID)
	}

	if len(config.Feed.Breweries) != 3 {
		t.Fatalf("Expected 3 breweries, got %d", len(config.Feed.Breweries))
	}
	expected := []string{"1001", "2002", "3003"}
	for i, id := range expected {
		if config.Feed.Breweries[i] != id {
			t.Errorf("Expected brewery %s at index %d, got %s", id, i, config.Feed.Breweries[i])
		}
	}

	if config.Foursquare.ClientID != "test-client-id" {
		t.Errorf("Expected foursquare client id, got %s", config.Foursquare.ClientID)
	}

	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", config.Logging.Level)
	}

	if config.Retention.Days != 14 {
		t.Errorf("Expected retention days 14, got %d", config.Retention.Days)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
store:
  backend: s3
  bucket: yaml-bucket
  region: us-west-2
feed:
  breweries:
    - "1001"
    - "2002"
  workers: 5
foursquare:
  client_id: yaml-client
retention:
  days: 10
logging:
  level: warn
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	config := DefaultConfig()
	if err := config.LoadFromFile(configPath); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Store.Bucket != "yaml-bucket" {
		t.Errorf("Expected bucket yaml-bucket, got %s", config.Store.Bucket)
	}
	if config.Store.Region != "us-west-2" {
		t.Errorf("Expected region us-west-2, got %s", config.Store.Region)
	}
	if len(config.Feed.Breweries) != 2 {
		t.Errorf("Expected 2 breweries, got %d", len(config.Feed.Breweries))
	}
	if config.Feed.Workers != 5 {
		t.Errorf("Expected 5 workers, got %d", config.Feed.Workers)
	}
	if config.Retention.Days != 10 {
		t.Errorf("Expected 10 retention days, got %d", config.Retention.Days)
	}
	if config.Logging.Level != "warn" {
		t.Errorf("Expected log level warn, got %s", config.Logging.Level)
	}

	// Defaults survive for fields the file does not set
	if config.Untappd.RequestInterval != 4*time.Second {
		t.Errorf("Expected default untappd interval to survive, got %v", config.Untappd.RequestInterval)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	config := DefaultConfig()
	err := config.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("Expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := DefaultConfig()
		c.Feed.Breweries = []string{"1001"}
		return c
	}

	t.Run("valid config", func(t *testing.T) {
		if err := valid().Validate(); err != nil {
			t.Errorf("Expected valid config, got %v", err)
		}
	})

	t.Run("no breweries", func(t *testing.T) {
		c := DefaultConfig()
		if err := c.Validate(); err == nil {
			t.Error("Expected error for empty brewery list")
		}
	})

	t.Run("s3 requires bucket", func(t *testing.T) {
		c := valid()
		c.Store.Backend = "s3"
		c.Store.Bucket = ""
		if err := c.Validate(); err == nil {
			t.Error("Expected error for s3 backend without bucket")
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		c := valid()
		c.Store.Backend = "ftp"
		if err := c.Validate(); err == nil {
			t.Error("Expected error for unknown backend")
		}
	})

	t.Run("too many workers", func(t *testing.T) {
		c := valid()
		c.Feed.Workers = 11
		if err := c.Validate(); err == nil {
			t.Error("Expected error for workers > 10")
		}
	})

	t.Run("bad log level", func(t *testing.T) {
		c := valid()
		c.Logging.Level = "verbose"
		if err := c.Validate(); err == nil {
			t.Error("Expected error for invalid log level")
		}
	})

	t.Run("bad retention", func(t *testing.T) {
		c := valid()
		c.Retention.Days = 0
		if err := c.Validate(); err == nil {
			t.Error("Expected error for zero retention days")
		}
	})
}

func TestSaveAndReload(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "saved", "config.yaml")

	config := DefaultConfig()
	config.Feed.Breweries = []string{"1001", "2002"}
	config.Store.Bucket = "round-trip-bucket"

	if err := config.Save(configPath); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded := DefaultConfig()
	if err := reloaded.LoadFromFile(configPath); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	if reloaded.Store.Bucket != "round-trip-bucket" {
		t.Errorf("Expected bucket to round trip, got %s", reloaded.Store.Bucket)
	}
	if len(reloaded.Feed.Breweries) != 2 {
		t.Errorf("Expected breweries to round trip, got %v", reloaded.Feed.Breweries)
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()

	flags := map[string]interface{}{
		"breweries": "4004,5005",
		"store":     "s3",
		"bucket":    "flag-bucket",
		"workers":   7,
		"log-level": "error",
	}
	config.MergeCommandLineFlags(flags)

	if len(config.Feed.Breweries) != 2 || config.Feed.Breweries[0] != "4004" {
		t.Errorf("Expected flag breweries, got %v", config.Feed.Breweries)
	}
	if config.Store.Backend != "s3" {
		t.Errorf("Expected backend s3, got %s", config.Store.Backend)
	}
	if config.Store.Bucket != "flag-bucket" {
		t.Errorf("Expected flag bucket, got %s", config.Store.Bucket)
	}
	if config.Feed.Workers != 7 {
		t.Errorf("Expected 7 workers, got %d", config.Feed.Workers)
	}
	if config.Logging.Level != "error" {
		t.Errorf("Expected log level error, got %s", config.Logging.Level)
	}
}

func TestLoadPrecedence(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
feed:
  breweries: ["1001"]
logging:
  level: warn
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	os.Setenv("UNTAPPD_DATA_LOG_LEVEL", "error")
	defer os.Unsetenv("UNTAPPD_DATA_LOG_LEVEL")

	// Env beats file
	config, err := Load(configPath, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Logging.Level != "error" {
		t.Errorf("Expected env to override file, got %s", config.Logging.Level)
	}

	// Flags beat env
	config, err = Load(configPath, map[string]interface{}{"log-level": "debug"})
	if err != nil {
		t.Fatalf("Load with flags failed: %v", err)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Expected flag to override env, got %s", config.Logging.Level)
	}
}

package storage

import (
	"testing"

	"github.com/dallangoldblatt/untappd-data/pkg/config"
)

func configWithBackend(t *testing.T, backend string) config.StoreConfig {
	t.Helper()
	return config.StoreConfig{
		Backend:        backend,
		LocalDirectory: t.TempDir(),
		Bucket:         "test-bucket",
		Region:         "us-east-1",
	}
}

func TestNewS3Store(t *testing.T) {
	store, err := NewS3Store(config.StoreConfig{
		Backend:         "s3",
		Bucket:          "test-bucket",
		Region:          "us-east-1",
		AccessKeyID:     "AKIATEST",
		SecretAccessKey: "secret",
	})
	if err != nil {
		t.Fatalf("NewS3Store failed: %v", err)
	}
	if store.bucket != "test-bucket" {
		t.Errorf("Expected bucket test-bucket, got %s", store.bucket)
	}
}

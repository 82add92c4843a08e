package storage

import (
	"context"
	"fmt"

	"github.com/dallangoldblatt/untappd-data/pkg/config"
)

// ObjectStore is the durable store every pipeline stage reads and writes.
// Keys are namespaced by dataset kind: posts live under
// "<brewery id>/<brewery id>-<post id>", the checkpoint and dataset files at
// the root, and backup snapshots under the configured backup prefix.
type ObjectStore interface {
	// Put writes value under key, overwriting any existing object
	Put(ctx context.Context, key string, value []byte) error
	// Get returns the object under key, or a not found error when absent
	Get(ctx context.Context, key string) ([]byte, error)
	// Exists reports whether an object is stored under key
	Exists(ctx context.Context, key string) (bool, error)
	// List returns all keys with the given prefix, sorted
	List(ctx context.Context, prefix string) ([]string, error)
	// Delete removes the object under key; deleting an absent key is not an error
	Delete(ctx context.Context, key string) error
	// Copy duplicates the object under key to newKey
	Copy(ctx context.Context, key, newKey string) error
}

// New creates an object store from the store configuration
func New(cfg config.StoreConfig) (ObjectStore, error) {
	switch cfg.Backend {
	case "local":
		return NewLocalStore(cfg.LocalDirectory)
	case "s3":
		return NewS3Store(cfg)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Backend)
	}
}

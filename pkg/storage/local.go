package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	errs "github.com/dallangoldblatt/untappd-data/pkg/errors"
)

// LocalStore implements ObjectStore over a directory tree. Slashes in keys
// become subdirectories. Writes go through a temp file and rename so a
// crashed run never leaves a half written object behind.
type LocalStore struct {
	root string
}

// NewLocalStore creates a local store rooted at dir
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("local store directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &LocalStore{root: dir}, nil
}

// Root returns the store's root directory
func (l *LocalStore) Root() string {
	return l.root
}

// Put writes value under key atomically
func (l *LocalStore) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errs.NewStorage(fmt.Sprintf("failed to create directory for %s", key), err)
	}

	tempFile := path + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return errs.NewStorage(fmt.Sprintf("failed to create temporary file for %s", key), err)
	}

	_, writeErr := out.Write(value)
	var syncErr error
	if writeErr == nil {
		syncErr = out.Sync()
	}
	closeErr := out.Close()

	if writeErr != nil {
		os.Remove(tempFile)
		return errs.NewStorage(fmt.Sprintf("failed to write %s", key), writeErr)
	}
	if syncErr != nil {
		os.Remove(tempFile)
		return errs.NewStorage(fmt.Sprintf("failed to sync %s", key), syncErr)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return errs.NewStorage(fmt.Sprintf("failed to close %s", key), closeErr)
	}

	// Atomic rename
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return errs.NewStorage(fmt.Sprintf("failed to rename temporary file for %s", key), err)
	}

	return nil
}

// Get returns the object under key
func (l *LocalStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := l.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.NewNotFound(fmt.Sprintf("object %s not found", key))
		}
		return nil, errs.NewStorage(fmt.Sprintf("failed to read %s", key), err)
	}
	return data, nil
}

// Exists reports whether an object is stored under key
func (l *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	path, err := l.path(key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errs.NewStorage(fmt.Sprintf("failed to stat %s", key), err)
}

// List returns all keys with the given prefix, sorted
func (l *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var keys []string
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, ".tmp") {
			return nil
		}

		rel, err := filepath.Rel(l.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, errs.NewStorage(fmt.Sprintf("failed to list prefix %s", prefix), err)
	}

	sort.Strings(keys)
	return keys, nil
}

// Delete removes the object under key
func (l *LocalStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := l.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errs.NewStorage(fmt.Sprintf("failed to delete %s", key), err)
	}
	return nil
}

// Copy duplicates the object under key to newKey
func (l *LocalStore) Copy(ctx context.Context, key, newKey string) error {
	data, err := l.Get(ctx, key)
	if err != nil {
		return err
	}
	return l.Put(ctx, newKey, data)
}

// path maps a key to a filesystem path, rejecting keys that would escape
// the store root
func (l *LocalStore) path(key string) (string, error) {
	if key == "" {
		return "", errs.NewStorage("empty key", nil)
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", errs.NewStorage(fmt.Sprintf("invalid key %s", key), nil)
	}
	return filepath.Join(l.root, clean), nil
}

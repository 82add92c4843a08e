package storage

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	errs "github.com/dallangoldblatt/untappd-data/pkg/errors"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}
	return store
}

func TestLocalStorePutGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "1001/1001-42", []byte("<item>post</item>")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	data, err := store.Get(ctx, "1001/1001-42")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(data) != "<item>post</item>" {
		t.Errorf("Expected stored content back, got %q", data)
	}

	// Overwrite
	if err := store.Put(ctx, "1001/1001-42", []byte("replaced")); err != nil {
		t.Fatalf("Put overwrite failed: %v", err)
	}
	data, err = store.Get(ctx, "1001/1001-42")
	if err != nil {
		t.Fatalf("Get after overwrite failed: %v", err)
	}
	if string(data) != "replaced" {
		t.Errorf("Expected overwritten content, got %q", data)
	}
}

func TestLocalStoreGetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "no/such/key")
	if err == nil {
		t.Fatal("Expected error for missing key")
	}
	if !errs.IsNotFound(err) {
		t.Errorf("Expected not found error, got %v", err)
	}
}

func TestLocalStoreExists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ok, err := store.Exists(ctx, "last_update.json")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if ok {
		t.Error("Expected missing key to not exist")
	}

	if err := store.Put(ctx, "last_update.json", []byte("{}")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	ok, err = store.Exists(ctx, "last_update.json")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !ok {
		t.Error("Expected stored key to exist")
	}
}

func TestLocalStoreList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	keys := []string{
		"1001/1001-1",
		"1001/1001-2",
		"2002/2002-9",
		"Backups/2024-01-01/venue_list.csv",
		"venue_list.csv",
	}
	for _, key := range keys {
		if err := store.Put(ctx, key, []byte("x")); err != nil {
			t.Fatalf("Put %s failed: %v", key, err)
		}
	}

	got, err := store.List(ctx, "1001/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"1001/1001-1", "1001/1001-2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List(1001/) = %v, want %v", got, want)
	}

	got, err = store.List(ctx, "Backups/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want = []string{"Backups/2024-01-01/venue_list.csv"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List(Backups/) = %v, want %v", got, want)
	}

	// Empty prefix lists everything, sorted
	got, err = store.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != len(keys) {
		t.Errorf("List(\"\") returned %d keys, want %d", len(got), len(keys))
	}
}

func TestLocalStoreDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "venue_list.csv", []byte("venue,checkin_url\n")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Delete(ctx, "venue_list.csv"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "venue_list.csv"); !errs.IsNotFound(err) {
		t.Errorf("Expected not found after delete, got %v", err)
	}

	// Deleting an absent key is fine
	if err := store.Delete(ctx, "venue_list.csv"); err != nil {
		t.Errorf("Expected deleting absent key to succeed, got %v", err)
	}
}

func TestLocalStoreCopy(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "venue_locations.csv", []byte("header\nrow\n")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if err := store.Copy(ctx, "venue_locations.csv", "Backups/2024-06-01/venue_locations.csv"); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}

	data, err := store.Get(ctx, "Backups/2024-06-01/venue_locations.csv")
	if err != nil {
		t.Fatalf("Get of copy failed: %v", err)
	}
	if string(data) != "header\nrow\n" {
		t.Errorf("Expected copied content, got %q", data)
	}

	// Copying a missing source reports not found
	if err := store.Copy(ctx, "missing.csv", "Backups/x"); !errs.IsNotFound(err) {
		t.Errorf("Expected not found for missing source, got %v", err)
	}
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"../outside", "/abs/path", ""} {
		if err := store.Put(ctx, key, []byte("x")); err == nil {
			t.Errorf("Expected Put(%q) to fail", key)
		}
	}
}

func TestLocalStoreLeavesNoTempFiles(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "last_parsed.json", []byte("{}")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	entries, err := os.ReadDir(store.Root())
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".tmp" {
			t.Errorf("Found leftover temp file %s", entry.Name())
		}
	}
}

func TestNewFromConfig(t *testing.T) {
	t.Run("local backend", func(t *testing.T) {
		store, err := New(configWithBackend(t, "local"))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if _, ok := store.(*LocalStore); !ok {
			t.Errorf("Expected *LocalStore, got %T", store)
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		if _, err := New(configWithBackend(t, "gopher")); err == nil {
			t.Error("Expected error for unknown backend")
		}
	})
}

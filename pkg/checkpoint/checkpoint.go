package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	errs "github.com/dallangoldblatt/untappd-data/pkg/errors"
	"github.com/dallangoldblatt/untappd-data/pkg/logger"
	"github.com/dallangoldblatt/untappd-data/pkg/storage"
)

// Checkpoint maps a brewery ID to the highest post ID a stage has handled
// for that brewery. A brewery absent from the map has never been processed.
type Checkpoint map[string]int64

// Get returns the checkpointed post ID for a brewery
func (c Checkpoint) Get(breweryID string) (int64, bool) {
	id, ok := c[breweryID]
	return id, ok
}

// Advance moves the brewery's checkpoint forward to postID. Checkpoints
// only move forward; a postID at or below the current value is ignored.
func (c Checkpoint) Advance(breweryID string, postID int64) bool {
	current, ok := c[breweryID]
	if ok && postID <= current {
		return false
	}
	c[breweryID] = postID
	return true
}

// Breweries returns the checkpointed brewery IDs in sorted order
func (c Checkpoint) Breweries() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns an independent copy of the checkpoint
func (c Checkpoint) Clone() Checkpoint {
	clone := make(Checkpoint, len(c))
	for id, postID := range c {
		clone[id] = postID
	}
	return clone
}

// Store persists one stage's checkpoint under a fixed object store key.
// The stored form is a flat JSON object of brewery ID to post ID, which is
// the format earlier deployments of the pipeline wrote.
type Store struct {
	store  storage.ObjectStore
	key    string
	logger logger.Logger
}

// NewStore creates a checkpoint store for the given key
func NewStore(store storage.ObjectStore, key string, log logger.Logger) *Store {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Store{
		store:  store,
		key:    key,
		logger: log,
	}
}

// Load reads the checkpoint. An absent object loads as an empty checkpoint
// so a first run processes everything.
func (s *Store) Load(ctx context.Context) (Checkpoint, error) {
	data, err := s.store.Get(ctx, s.key)
	if err != nil {
		if errs.IsNotFound(err) {
			s.logger.DebugWithFields("No checkpoint yet, starting fresh", map[string]interface{}{
				"key": s.key,
			})
			return Checkpoint{}, nil
		}
		return nil, fmt.Errorf("failed to load checkpoint %s: %w", s.key, err)
	}

	// Earlier deployments wrote post IDs as JSON numbers, as strings, and
	// as "" for breweries added but never processed. Accept all three.
	var raw map[string]json.Number
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errs.NewParsing(fmt.Sprintf("decoding checkpoint %s", s.key), err)
	}

	cp := make(Checkpoint, len(raw))
	for breweryID, num := range raw {
		if num.String() == "" {
			continue
		}
		id, err := strconv.ParseInt(num.String(), 10, 64)
		if err != nil {
			return nil, errs.NewParsing(fmt.Sprintf("checkpoint %s has non-numeric post id for brewery %s", s.key, breweryID), err)
		}
		cp[breweryID] = id
	}

	s.logger.DebugWithFields("Checkpoint loaded", map[string]interface{}{
		"key":       s.key,
		"breweries": len(cp),
	})
	return cp, nil
}

// Save overwrites the stored checkpoint
func (s *Store) Save(ctx context.Context, cp Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint %s: %w", s.key, err)
	}

	if err := s.store.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("failed to save checkpoint %s: %w", s.key, err)
	}

	s.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"key":       s.key,
		"breweries": len(cp),
	})
	return nil
}

// Exists reports whether a checkpoint has ever been saved
func (s *Store) Exists(ctx context.Context) (bool, error) {
	return s.store.Exists(ctx, s.key)
}

// Package runlock serializes pipeline stage runs with file locks. The
// resolver and the sweeper share one lock because both write the venue
// locations table.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/dallangoldblatt/untappd-data/pkg/logger"
)

// Lock names, one per serialization domain
const (
	Ingest = "ingest.lock"
	Parse  = "parse.lock"
	Venues = "venues.lock"
)

// ErrHeld is returned when another invocation already holds the lock
var ErrHeld = errors.New("another run is already in progress")

// Lock is a held file lock
type Lock struct {
	flock  *flock.Flock
	name   string
	logger logger.Logger
}

// Acquire takes the named lock under dir without blocking. A lock held by
// another invocation returns ErrHeld.
func Acquire(dir, name string, log logger.Logger) (*Lock, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	fl := flock.New(filepath.Join(dir, name))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring %s: %w", name, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", name, ErrHeld)
	}

	log.DebugWithFields("Run lock acquired", map[string]interface{}{
		"lock": name,
	})
	return &Lock{flock: fl, name: name, logger: log}, nil
}

// Release drops the lock
func (l *Lock) Release() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("releasing %s: %w", l.name, err)
	}
	l.logger.DebugWithFields("Run lock released", map[string]interface{}{
		"lock": l.name,
	})
	return nil
}

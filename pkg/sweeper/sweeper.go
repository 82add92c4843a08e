package sweeper

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/dallangoldblatt/untappd-data/pkg/dataset"
	errs "github.com/dallangoldblatt/untappd-data/pkg/errors"
	"github.com/dallangoldblatt/untappd-data/pkg/foursquare"
	"github.com/dallangoldblatt/untappd-data/pkg/logger"
	"github.com/dallangoldblatt/untappd-data/pkg/models"
	"github.com/dallangoldblatt/untappd-data/pkg/retry"
	"github.com/dallangoldblatt/untappd-data/pkg/storage"
)

const backupDateLayout = "2006-01-02"

// ElevatedLookup is the premium venue API surface the backfill phase uses.
// The Foursquare client implements this.
type ElevatedLookup interface {
	Details(ctx context.Context, venueID string) (models.VenueFacts, error)
	SearchGlobal(ctx context.Context, venue string) (models.VenueFacts, error)
}

// Sweeper is the weekly maintenance stage: it backfills missing venue rows
// through the elevated lookup, snapshots the durable files, and prunes old
// snapshots.
type Sweeper struct {
	store        storage.ObjectStore
	locations    *dataset.LocationsTable
	elevated     ElevatedLookup
	retrier      *retry.LookupRetrier
	backupPrefix string
	retainDays   int
	logger       logger.Logger
	now          func() time.Time
}

// Summary reports what one sweep did
type Summary struct {
	Backfilled      int           `json:"backfilled"`
	Unavailable     int           `json:"unavailable"`
	BackfillStopped bool          `json:"backfill_stopped"`
	BackedUp        int           `json:"backed_up"`
	SkippedBackups  int           `json:"skipped_backups"`
	PrunedDays      int           `json:"pruned_days"`
	PrunedObjects   int           `json:"pruned_objects"`
	Duration        time.Duration `json:"duration"`
}

// New creates a sweeper. backupPrefix is the key prefix snapshots live
// under and retainDays how many days of snapshots survive a sweep.
func New(store storage.ObjectStore, elevated ElevatedLookup, retrier *retry.LookupRetrier, backupPrefix string, retainDays int, log logger.Logger) *Sweeper {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Sweeper{
		store:        store,
		locations:    dataset.NewLocationsTable(store),
		elevated:     elevated,
		retrier:      retrier,
		backupPrefix: backupPrefix,
		retainDays:   retainDays,
		logger:       log,
		now:          time.Now,
	}
}

// Run executes the three sweep phases in order: backfill, backup, prune.
// The backup and prune phases run even when the backfill phase stopped
// early or failed.
func (s *Sweeper) Run(ctx context.Context) (*Summary, error) {
	start := s.now()
	summary := &Summary{}

	var failures []error
	if err := s.backfill(ctx, summary); err != nil {
		failures = append(failures, fmt.Errorf("backfill: %w", err))
	}
	if err := s.backup(ctx, summary); err != nil {
		failures = append(failures, fmt.Errorf("backup: %w", err))
	}
	if err := s.prune(ctx, summary); err != nil {
		failures = append(failures, fmt.Errorf("prune: %w", err))
	}

	summary.Duration = time.Since(start)
	s.logger.InfoWithFields("Sweep completed", map[string]interface{}{
		"backfilled":       summary.Backfilled,
		"unavailable":      summary.Unavailable,
		"backfill_stopped": summary.BackfillStopped,
		"backed_up":        summary.BackedUp,
		"pruned_objects":   summary.PrunedObjects,
		"duration":         summary.Duration,
	})

	return summary, stderrors.Join(failures...)
}

// backfill re-queries every missing venue row through the elevated lookup.
// A transient failure stops the phase so a flaky upstream cannot drain the
// premium quota; the remaining rows stay missing until the next sweep.
func (s *Sweeper) backfill(ctx context.Context, summary *Summary) error {
	rows, err := s.locations.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading venue locations: %w", err)
	}

	changed := false
	for i, row := range rows {
		if row.Status != models.StatusMissing {
			continue
		}
		if err := ctx.Err(); err != nil {
			summary.BackfillStopped = true
			break
		}

		facts, err := s.lookupElevated(ctx, row)
		switch {
		case err == nil:
			rows[i] = row.ApplyElevated(facts)
			summary.Backfilled++
			changed = true
		case errs.IsRetryableError(err):
			summary.BackfillStopped = true
			s.logger.WarnWithFields("Elevated lookup is failing, stopping backfill for this sweep", map[string]interface{}{
				"venue": row.Venue,
				"error": err.Error(),
			})
		default:
			rows[i] = row.MarkUnavailable()
			summary.Unavailable++
			changed = true
			s.logger.InfoWithFields("Venue has no recoverable location data", map[string]interface{}{
				"venue": row.Venue,
				"error": err.Error(),
			})
		}

		if summary.BackfillStopped {
			break
		}
	}

	if !changed {
		return nil
	}
	if err := s.locations.Save(ctx, rows); err != nil {
		return fmt.Errorf("saving venue locations: %w", err)
	}
	return nil
}

// lookupElevated fetches venue details by id when the row already carries
// one, and falls back to the global name search otherwise
func (s *Sweeper) lookupElevated(ctx context.Context, row models.VenueLocation) (models.VenueFacts, error) {
	var facts models.VenueFacts
	id := foursquareID(row)

	err := s.retrier.Do(ctx, func() error {
		var lookupErr error
		if id != "" {
			facts, lookupErr = s.elevated.Details(ctx, id)
		} else {
			facts, lookupErr = s.elevated.SearchGlobal(ctx, row.Venue)
		}
		return lookupErr
	})
	return facts, err
}

// foursquareID extracts the venue id from a row's Foursquare URL cell, or
// returns "" when the cell holds a marker or no URL
func foursquareID(row models.VenueLocation) string {
	if !strings.HasPrefix(row.FoursquareURL, foursquare.VenueURLPrefix) {
		return ""
	}
	return row.FoursquareURL[strings.LastIndex(row.FoursquareURL, "/")+1:]
}

// backup copies the five durable files into a dated snapshot prefix.
// Files that do not exist yet are skipped; a young deployment may not have
// produced all of them.
func (s *Sweeper) backup(ctx context.Context, summary *Summary) error {
	day := s.now()

	for _, key := range dataset.SnapshotKeys {
		target := dataset.BackupKey(s.backupPrefix, day, key)
		err := s.store.Copy(ctx, key, target)
		if err != nil {
			if errs.IsNotFound(err) {
				summary.SkippedBackups++
				s.logger.InfoWithFields("Skipping backup of absent file", map[string]interface{}{
					"key": key,
				})
				continue
			}
			return fmt.Errorf("copying %s to %s: %w", key, target, err)
		}
		summary.BackedUp++
	}

	s.logger.InfoWithFields("Snapshot written", map[string]interface{}{
		"prefix":  dataset.BackupDatePrefix(s.backupPrefix, day),
		"files":   summary.BackedUp,
		"skipped": summary.SkippedBackups,
	})
	return nil
}

// prune deletes every snapshot day that is strictly older than the
// retention window, whatever its age; missed sweeps do not leave orphans
// behind
func (s *Sweeper) prune(ctx context.Context, summary *Summary) error {
	keys, err := s.store.List(ctx, s.backupPrefix)
	if err != nil {
		return fmt.Errorf("listing snapshots: %w", err)
	}

	// The date layout sorts lexicographically, so day strings compare
	// directly against the cutoff day
	cutoff := s.now().AddDate(0, 0, -s.retainDays).Format(backupDateLayout)

	expiredDays := make(map[string]bool)
	for _, key := range keys {
		rest := strings.TrimPrefix(key, s.backupPrefix)
		day, _, found := strings.Cut(rest, "/")
		if !found {
			continue
		}

		if _, err := time.Parse(backupDateLayout, day); err != nil {
			s.logger.WarnWithFields("Ignoring snapshot with unrecognized date segment", map[string]interface{}{
				"key": key,
			})
			continue
		}
		if day >= cutoff {
			continue
		}

		if err := s.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("deleting snapshot %s: %w", key, err)
		}
		summary.PrunedObjects++
		expiredDays[day] = true
	}
	summary.PrunedDays = len(expiredDays)

	if summary.PrunedObjects > 0 {
		s.logger.InfoWithFields("Expired snapshots pruned", map[string]interface{}{
			"days":    summary.PrunedDays,
			"objects": summary.PrunedObjects,
		})
	}
	return nil
}

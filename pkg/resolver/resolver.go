package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/dallangoldblatt/untappd-data/pkg/dataset"
	errs "github.com/dallangoldblatt/untappd-data/pkg/errors"
	"github.com/dallangoldblatt/untappd-data/pkg/logger"
	"github.com/dallangoldblatt/untappd-data/pkg/models"
	"github.com/dallangoldblatt/untappd-data/pkg/retry"
	"github.com/dallangoldblatt/untappd-data/pkg/storage"
)

// CheckinLookup resolves a venue from its first checkin page. The Untappd
// scraper implements this.
type CheckinLookup interface {
	Lookup(ctx context.Context, checkinURL string) (models.VenueFacts, error)
}

// VenueSearch resolves a venue by name. The Foursquare client implements
// this.
type VenueSearch interface {
	Search(ctx context.Context, venue string) (models.VenueFacts, error)
}

// Resolver fills the venue locations table from the venue registry. Each
// venue is resolved by the checkin page lookup first and the name search
// second; whichever succeeds first supplies the whole row.
type Resolver struct {
	registry  *dataset.RegistryTable
	locations *dataset.LocationsTable
	untappd   CheckinLookup
	search    VenueSearch
	retrier   *retry.LookupRetrier
	logger    logger.Logger
}

// Summary reports what one resolution run did
type Summary struct {
	Attempted int           `json:"attempted"`
	Resolved  int           `json:"resolved"`
	Fallback  int           `json:"fallback"`
	Missing   int           `json:"missing"`
	Skipped   int           `json:"skipped"`
	Unvisited int           `json:"unvisited"`
	Duration  time.Duration `json:"duration"`
}

// breakers tracks which lookup services have stopped responding this run.
// Once a service exhausts its retries on a transient error it is not called
// again until the next run.
type breakers struct {
	untappd    bool
	foursquare bool
}

func (b breakers) allDown() bool {
	return b.untappd && b.foursquare
}

// New creates a resolver over the given store and lookup services
func New(store storage.ObjectStore, untappd CheckinLookup, search VenueSearch, retrier *retry.LookupRetrier, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Resolver{
		registry:  dataset.NewRegistryTable(store),
		locations: dataset.NewLocationsTable(store),
		untappd:   untappd,
		search:    search,
		retrier:   retrier,
		logger:    log,
	}
}

// Run visits every registry venue that has no locations row yet or whose
// row is still missing, resolves it, and saves the updated table. Venues
// already resolved or marked unavailable are left alone. When both lookup
// services have tripped their breakers the run stops early and the
// unvisited venues keep their current state.
func (r *Resolver) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{}

	entries, err := r.registry.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading venue registry: %w", err)
	}

	rows, err := r.locations.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading venue locations: %w", err)
	}

	index := make(map[string]int, len(rows))
	for i, row := range rows {
		index[row.Venue] = i
	}

	r.logger.InfoWithFields("Starting venue resolution", map[string]interface{}{
		"registry_venues": len(entries),
		"location_rows":   len(rows),
	})

	var down breakers
	var runErr error
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			summary.Unvisited = len(entries) - i
			runErr = err
			break
		}
		if down.allDown() {
			summary.Unvisited = len(entries) - i
			r.logger.WarnWithFields("Both lookup services are unavailable, stopping early", map[string]interface{}{
				"unvisited": summary.Unvisited,
			})
			break
		}

		if pos, ok := index[entry.Venue]; ok && rows[pos].Status != models.StatusMissing {
			summary.Skipped++
			continue
		}

		summary.Attempted++
		row, viaFallback := r.resolve(ctx, entry, &down)
		switch row.Status {
		case models.StatusResolved:
			summary.Resolved++
			if viaFallback {
				summary.Fallback++
			}
		default:
			summary.Missing++
		}

		if pos, ok := index[entry.Venue]; ok {
			rows[pos] = row
		} else {
			index[entry.Venue] = len(rows)
			rows = append(rows, row)
		}
	}

	if err := r.locations.Save(ctx, rows); err != nil {
		return summary, fmt.Errorf("saving venue locations: %w", err)
	}

	summary.Duration = time.Since(start)
	r.logger.InfoWithFields("Venue resolution completed", map[string]interface{}{
		"attempted": summary.Attempted,
		"resolved":  summary.Resolved,
		"fallback":  summary.Fallback,
		"missing":   summary.Missing,
		"skipped":   summary.Skipped,
		"unvisited": summary.Unvisited,
		"duration":  summary.Duration,
	})

	return summary, runErr
}

// resolve works one venue through the service order. The first service that
// returns usable facts supplies the entire row; a service that definitively
// has nothing falls through to the next; a service that keeps failing
// transiently trips its breaker and the venue stays missing for this run.
func (r *Resolver) resolve(ctx context.Context, entry models.RegistryEntry, down *breakers) (models.VenueLocation, bool) {
	if !down.untappd {
		facts, err := r.lookupCheckin(ctx, entry.CheckinURL)
		switch {
		case err == nil && facts.Resolved():
			return models.NewResolvedLocation(entry.Venue, facts), false
		case err == nil:
			r.logger.DebugWithFields("Checkin page had no usable venue data", map[string]interface{}{
				"venue": entry.Venue,
			})
		case errs.IsRetryableError(err):
			down.untappd = true
			r.logger.WarnWithFields("Checkin page lookups are failing, falling back to search only", map[string]interface{}{
				"venue": entry.Venue,
				"error": err.Error(),
			})
		default:
			r.logger.DebugWithFields("Checkin page lookup found nothing", map[string]interface{}{
				"venue": entry.Venue,
				"error": err.Error(),
			})
		}
	}

	if !down.foursquare {
		facts, err := r.searchVenue(ctx, entry.Venue)
		switch {
		case err == nil && facts.Resolved():
			return models.NewResolvedLocation(entry.Venue, facts), true
		case err == nil:
			r.logger.DebugWithFields("Search result had no usable venue data", map[string]interface{}{
				"venue": entry.Venue,
			})
		case errs.IsRetryableError(err):
			down.foursquare = true
			r.logger.WarnWithFields("Venue search is failing, stopping search lookups", map[string]interface{}{
				"venue": entry.Venue,
				"error": err.Error(),
			})
		default:
			r.logger.DebugWithFields("Venue search found nothing", map[string]interface{}{
				"venue": entry.Venue,
				"error": err.Error(),
			})
		}
	}

	return models.NewMissingLocation(entry.Venue), false
}

func (r *Resolver) lookupCheckin(ctx context.Context, checkinURL string) (models.VenueFacts, error) {
	var facts models.VenueFacts
	err := r.retrier.Do(ctx, func() error {
		var lookupErr error
		facts, lookupErr = r.untappd.Lookup(ctx, checkinURL)
		return lookupErr
	})
	return facts, err
}

func (r *Resolver) searchVenue(ctx context.Context, venue string) (models.VenueFacts, error) {
	var facts models.VenueFacts
	err := r.retrier.Do(ctx, func() error {
		var searchErr error
		facts, searchErr = r.search.Search(ctx, venue)
		return searchErr
	})
	return facts, err
}

package dataset

import (
	"context"

	"github.com/dallangoldblatt/untappd-data/pkg/models"
	"github.com/dallangoldblatt/untappd-data/pkg/storage"
)

// RegistryHeader is the column order of the venue registry
var RegistryHeader = []string{"venue", "checkin_url"}

// RegistryTable records the first check-in page each venue was seen on.
// The venue name is the identity; later sightings never replace the first.
type RegistryTable struct {
	store storage.ObjectStore
}

// NewRegistryTable returns the venue registry backed by the given store
func NewRegistryTable(store storage.ObjectStore) *RegistryTable {
	return &RegistryTable{store: store}
}

// Load reads every registry entry in stored order
func (t *RegistryTable) Load(ctx context.Context) ([]models.RegistryEntry, error) {
	records, err := readTable(ctx, t.store, KeyVenueRegistry, RegistryHeader)
	if err != nil {
		return nil, err
	}

	entries := make([]models.RegistryEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, models.RegistryEntry{Venue: rec[0], CheckinURL: rec[1]})
	}
	return entries, nil
}

// Save overwrites the registry with the given entries in order
func (t *RegistryTable) Save(ctx context.Context, entries []models.RegistryEntry) error {
	records := make([][]string, 0, len(entries))
	for _, e := range entries {
		records = append(records, []string{e.Venue, e.CheckinURL})
	}
	return writeTable(ctx, t.store, KeyVenueRegistry, RegistryHeader, records)
}

// VenueNames returns the set of venue names present in entries
func VenueNames(entries []models.RegistryEntry) map[string]struct{} {
	set := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		set[e.Venue] = struct{}{}
	}
	return set
}

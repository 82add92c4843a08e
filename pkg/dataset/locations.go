package dataset

import (
	"context"

	"github.com/dallangoldblatt/untappd-data/pkg/models"
	"github.com/dallangoldblatt/untappd-data/pkg/storage"
)

// LocationsHeader is the column order of the venue location table
var LocationsHeader = []string{"venue", "untappd_url", "foursquare_url", "address", "lat", "long", "categories", "in_united_states"}

// LocationsTable holds the lookup result per venue, one row per venue name.
// Unresolved rows carry marker cells; the typed status is derived from the
// cells on load and never stored as its own column.
type LocationsTable struct {
	store storage.ObjectStore
}

// NewLocationsTable returns the venue location table backed by the given store
func NewLocationsTable(store storage.ObjectStore) *LocationsTable {
	return &LocationsTable{store: store}
}

// Load reads every location row in stored order, deriving each row's status
func (t *LocationsTable) Load(ctx context.Context) ([]models.VenueLocation, error) {
	records, err := readTable(ctx, t.store, KeyVenueLocations, LocationsHeader)
	if err != nil {
		return nil, err
	}

	locations := make([]models.VenueLocation, 0, len(records))
	for _, rec := range records {
		locations = append(locations, models.VenueLocation{
			Venue:          rec[0],
			UntappdURL:     rec[1],
			FoursquareURL:  rec[2],
			Address:        rec[3],
			Latitude:       rec[4],
			Longitude:      rec[5],
			Categories:     rec[6],
			InUnitedStates: rec[7],
			Status:         models.StatusFromCells(rec[1:]),
		})
	}
	return locations, nil
}

// Save overwrites the table with the given rows in order
func (t *LocationsTable) Save(ctx context.Context, locations []models.VenueLocation) error {
	records := make([][]string, 0, len(locations))
	for _, l := range locations {
		records = append(records, []string{l.Venue, l.UntappdURL, l.FoursquareURL, l.Address, l.Latitude, l.Longitude, l.Categories, l.InUnitedStates})
	}
	return writeTable(ctx, t.store, KeyVenueLocations, LocationsHeader, records)
}

// LocationVenues returns the set of venue names present in rows
func LocationVenues(locations []models.VenueLocation) map[string]struct{} {
	set := make(map[string]struct{}, len(locations))
	for _, l := range locations {
		set[l.Venue] = struct{}{}
	}
	return set
}

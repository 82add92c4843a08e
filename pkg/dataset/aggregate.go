package dataset

import (
	"context"

	"github.com/dallangoldblatt/untappd-data/pkg/models"
	"github.com/dallangoldblatt/untappd-data/pkg/storage"
)

// AggregateHeader is the column order of the check-in table
var AggregateHeader = []string{"guid", "username", "brewery", "beer", "venue", "comment", "rating", "date", "url"}

// AggregateTable is the append-only table of parsed check-ins. Rows are
// never rewritten once appended; the GUID column is the dedup key.
type AggregateTable struct {
	store storage.ObjectStore
}

// NewAggregateTable returns the check-in table backed by the given store
func NewAggregateTable(store storage.ObjectStore) *AggregateTable {
	return &AggregateTable{store: store}
}

// Load reads every check-in row in stored order
func (t *AggregateTable) Load(ctx context.Context) ([]models.Checkin, error) {
	records, err := readTable(ctx, t.store, KeyAggregateData, AggregateHeader)
	if err != nil {
		return nil, err
	}

	checkins := make([]models.Checkin, 0, len(records))
	for _, rec := range records {
		checkins = append(checkins, models.Checkin{
			GUID:     rec[0],
			Username: rec[1],
			Brewery:  rec[2],
			Beer:     rec[3],
			Venue:    rec[4],
			Comment:  rec[5],
			Rating:   rec[6],
			Date:     rec[7],
			URL:      rec[8],
		})
	}
	return checkins, nil
}

// Save overwrites the table with the given rows in order
func (t *AggregateTable) Save(ctx context.Context, checkins []models.Checkin) error {
	records := make([][]string, 0, len(checkins))
	for _, c := range checkins {
		records = append(records, []string{c.GUID, c.Username, c.Brewery, c.Beer, c.Venue, c.Comment, c.Rating, c.Date, c.URL})
	}
	return writeTable(ctx, t.store, KeyAggregateData, AggregateHeader, records)
}

// GUIDs returns the set of check-in GUIDs present in rows
func GUIDs(checkins []models.Checkin) map[string]struct{} {
	set := make(map[string]struct{}, len(checkins))
	for _, c := range checkins {
		set[c.GUID] = struct{}{}
	}
	return set
}

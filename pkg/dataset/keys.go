package dataset

import "time"

// Object store keys for the dataset files. Post objects live beside these
// under per-brewery prefixes, see models.PostKey.
const (
	// KeyLastUpdate is the ingest checkpoint: newest stored post per brewery
	KeyLastUpdate = "last_update.json"
	// KeyLastParsed is the parse checkpoint: newest parsed post per brewery
	KeyLastParsed = "last_parsed.json"
	// KeyAggregateData is the append-only check-in table
	KeyAggregateData = "untappd_aggregate_data.csv"
	// KeyVenueRegistry is the venue first-sighting table
	KeyVenueRegistry = "venue_list.csv"
	// KeyVenueLocations is the venue location table
	KeyVenueLocations = "venue_locations.csv"
)

// SnapshotKeys are the files copied into each dated backup snapshot
var SnapshotKeys = []string{
	KeyLastUpdate,
	KeyLastParsed,
	KeyAggregateData,
	KeyVenueRegistry,
	KeyVenueLocations,
}

// BackupDatePrefix returns the snapshot prefix for a day, e.g.
// "Backups/2026-08-22/". The backup root itself comes from configuration.
func BackupDatePrefix(root string, day time.Time) string {
	return root + day.Format("2006-01-02") + "/"
}

// BackupKey returns the snapshot key for one file on one day
func BackupKey(root string, day time.Time, name string) string {
	return BackupDatePrefix(root, day) + name
}

package models

// Marker strings written into unresolved cells of the venue location table.
// They exist only at the serialization boundary; code works with VenueStatus.
const (
	MissingMarker     = "Missing"
	UnavailableMarker = "Unavailable"
)

// VenueStatus is the resolution state of a venue location record
type VenueStatus int

const (
	// StatusResolved means at least one lookup service supplied location data
	StatusResolved VenueStatus = iota
	// StatusMissing means every lookup so far has failed; retried each run
	StatusMissing
	// StatusUnavailable means the elevated re-attempt also failed. Terminal:
	// no further automated lookups happen for this venue.
	StatusUnavailable
)

// String returns the status name
func (s VenueStatus) String() string {
	switch s {
	case StatusResolved:
		return "resolved"
	case StatusMissing:
		return "missing"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// VenueLocation is one row of the venue location table. Field values hold
// real data, a marker string, or "" for fields a successful lookup simply
// did not supply.
type VenueLocation struct {
	Venue          string
	UntappdURL     string
	FoursquareURL  string
	Address        string
	Latitude       string
	Longitude      string
	Categories     string
	InUnitedStates string
	Status         VenueStatus
}

// NewMissingLocation builds the record written when every service failed:
// all location fields carry the missing marker
func NewMissingLocation(venue string) VenueLocation {
	return VenueLocation{
		Venue:          venue,
		UntappdURL:     MissingMarker,
		FoursquareURL:  MissingMarker,
		Address:        MissingMarker,
		Latitude:       MissingMarker,
		Longitude:      MissingMarker,
		Categories:     MissingMarker,
		InUnitedStates: MissingMarker,
		Status:         StatusMissing,
	}
}

// NewResolvedLocation builds a resolved record from the facts one service
// supplied. Fields the service did not supply stay blank; nothing is merged
// from a second service.
func NewResolvedLocation(venue string, facts VenueFacts) VenueLocation {
	return VenueLocation{
		Venue:          venue,
		UntappdURL:     facts.UntappdURL,
		FoursquareURL:  facts.FoursquareURL,
		Address:        facts.Address,
		Latitude:       facts.Latitude,
		Longitude:      facts.Longitude,
		Categories:     facts.Categories,
		InUnitedStates: facts.InUnitedStates(),
		Status:         StatusResolved,
	}
}

// ApplyElevated folds a successful elevated lookup into the row. Supplied
// fields replace whatever the cell held; unsupplied fields keep real values
// but clear markers, since the new data settles the venue and no further
// attempts will fill the gaps.
func (v VenueLocation) ApplyElevated(facts VenueFacts) VenueLocation {
	v.UntappdURL = elevatedCell(v.UntappdURL, facts.UntappdURL)
	v.FoursquareURL = elevatedCell(v.FoursquareURL, facts.FoursquareURL)
	v.Address = elevatedCell(v.Address, facts.Address)
	v.Latitude = elevatedCell(v.Latitude, facts.Latitude)
	v.Longitude = elevatedCell(v.Longitude, facts.Longitude)
	v.Categories = elevatedCell(v.Categories, facts.Categories)
	v.InUnitedStates = elevatedCell(v.InUnitedStates, facts.InUnitedStates())
	v.Status = StatusFromCells([]string{
		v.UntappdURL, v.FoursquareURL, v.Address, v.Latitude,
		v.Longitude, v.Categories, v.InUnitedStates,
	})
	return v
}

func elevatedCell(existing, supplied string) string {
	if supplied != "" {
		return supplied
	}
	if existing == MissingMarker || existing == UnavailableMarker {
		return ""
	}
	return existing
}

// MarkUnavailable writes the unavailable marker into every cell still
// holding the missing marker or nothing, and moves the status to terminal
func (v VenueLocation) MarkUnavailable() VenueLocation {
	v.UntappdURL = unavailableCell(v.UntappdURL)
	v.FoursquareURL = unavailableCell(v.FoursquareURL)
	v.Address = unavailableCell(v.Address)
	v.Latitude = unavailableCell(v.Latitude)
	v.Longitude = unavailableCell(v.Longitude)
	v.Categories = unavailableCell(v.Categories)
	v.InUnitedStates = unavailableCell(v.InUnitedStates)
	v.Status = StatusUnavailable
	return v
}

func unavailableCell(cell string) string {
	if cell == "" || cell == MissingMarker {
		return UnavailableMarker
	}
	return cell
}

// StatusFromCells derives the typed status from persisted cell values
func StatusFromCells(cells []string) VenueStatus {
	missing := false
	for _, cell := range cells {
		switch cell {
		case UnavailableMarker:
			return StatusUnavailable
		case MissingMarker:
			missing = true
		}
	}
	if missing {
		return StatusMissing
	}
	return StatusResolved
}

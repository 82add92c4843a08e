package models

import "strconv"

// Post is one feed entry for a brewery. Identity is (BreweryID, ID); the
// raw item XML is stored verbatim and re-parsed later, so Raw is the
// authoritative content and the remaining fields are conveniences extracted
// at fetch time.
type Post struct {
	BreweryID string
	ID        int64
	GUID      string
	Title     string
	Link      string
	Published string
	Raw       []byte
}

// Key returns the object store key for the post
func (p Post) Key() string {
	return p.BreweryID + "/" + p.BreweryID + "-" + strconv.FormatInt(p.ID, 10)
}

// PostKey builds the object store key for a (brewery, post id) pair
func PostKey(breweryID string, postID int64) string {
	return breweryID + "/" + breweryID + "-" + strconv.FormatInt(postID, 10)
}

// Checkin is the structured record extracted from one post. A checkin with
// no venue mention has an empty Venue.
type Checkin struct {
	GUID     string
	Username string
	Brewery  string
	Beer     string
	Venue    string
	Comment  string
	Rating   string
	Date     string
	URL      string
}

// HasVenue reports whether the checkin mentions a venue
func (c Checkin) HasVenue() bool {
	return c.Venue != ""
}

// RegistryEntry records the first sighting of a venue: the venue name and
// the checkin page it was first seen on
type RegistryEntry struct {
	Venue      string
	CheckinURL string
}

// VenueFacts is the partial location data one lookup service returned for a
// venue. Empty fields were not supplied by that service.
type VenueFacts struct {
	UntappdURL    string
	FoursquareURL string
	FoursquareID  string
	Address       string
	Latitude      string
	Longitude     string
	Categories    string
	Country       string
}

// Resolved reports whether the facts amount to a usable resolution
func (f VenueFacts) Resolved() bool {
	return f.Address != "" || (f.Latitude != "" && f.Longitude != "")
}

// InUnitedStates renders the US flag cell from the country name
func (f VenueFacts) InUnitedStates() string {
	if f.Country == "" {
		return ""
	}
	return strconv.FormatBool(f.Country == "United States")
}

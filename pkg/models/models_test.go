package models

import (
	"testing"
)

func TestPostKey(t *testing.T) {
	tests := []struct {
		breweryID string
		postID    int64
		want      string
	}{
		{"1001", 1474189569, "1001/1001-1474189569"},
		{"4406", 7, "4406/4406-7"},
	}

	for _, tt := range tests {
		if got := PostKey(tt.breweryID, tt.postID); got != tt.want {
			t.Errorf("PostKey(%q, %d) = %q, want %q", tt.breweryID, tt.postID, got, tt.want)
		}
	}

	p := Post{BreweryID: "1001", ID: 1474189569}
	if got := p.Key(); got != "1001/1001-1474189569" {
		t.Errorf("Post.Key() = %q, want %q", got, "1001/1001-1474189569")
	}
}

func TestCheckinHasVenue(t *testing.T) {
	with := Checkin{Venue: "Hamilton's Tavern"}
	if !with.HasVenue() {
		t.Error("expected HasVenue to be true when venue is set")
	}

	without := Checkin{Venue: ""}
	if without.HasVenue() {
		t.Error("expected HasVenue to be false when venue is empty")
	}
}

func TestVenueFactsResolved(t *testing.T) {
	tests := []struct {
		name  string
		facts VenueFacts
		want  bool
	}{
		{"address only", VenueFacts{Address: "1521 30th St"}, true},
		{"coordinates only", VenueFacts{Latitude: "32.72", Longitude: "-117.13"}, true},
		{"latitude without longitude", VenueFacts{Latitude: "32.72"}, false},
		{"urls without location", VenueFacts{UntappdURL: "https://untappd.com/v/x/1"}, false},
		{"empty", VenueFacts{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.facts.Resolved(); got != tt.want {
				t.Errorf("Resolved() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVenueFactsInUnitedStates(t *testing.T) {
	tests := []struct {
		country string
		want    string
	}{
		{"United States", "true"},
		{"Canada", "false"},
		{"", ""},
	}

	for _, tt := range tests {
		facts := VenueFacts{Country: tt.country}
		if got := facts.InUnitedStates(); got != tt.want {
			t.Errorf("InUnitedStates() with country %q = %q, want %q", tt.country, got, tt.want)
		}
	}
}

func TestVenueStatusString(t *testing.T) {
	tests := []struct {
		status VenueStatus
		want   string
	}{
		{StatusResolved, "resolved"},
		{StatusMissing, "missing"},
		{StatusUnavailable, "unavailable"},
		{VenueStatus(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("VenueStatus(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestNewMissingLocation(t *testing.T) {
	loc := NewMissingLocation("Nowhere Bar")

	if loc.Venue != "Nowhere Bar" {
		t.Errorf("venue = %q, want %q", loc.Venue, "Nowhere Bar")
	}
	if loc.Status != StatusMissing {
		t.Errorf("status = %v, want %v", loc.Status, StatusMissing)
	}
	for _, cell := range []string{loc.UntappdURL, loc.FoursquareURL, loc.Address, loc.Latitude, loc.Longitude, loc.Categories, loc.InUnitedStates} {
		if cell != MissingMarker {
			t.Errorf("cell = %q, want %q", cell, MissingMarker)
		}
	}
}

func TestNewResolvedLocation(t *testing.T) {
	facts := VenueFacts{
		UntappdURL:    "https://untappd.com/v/hamiltons-tavern/123",
		FoursquareURL: "https://foursquare.com/v/456",
		Address:       "1521 30th St San Diego CA",
		Latitude:      "32.72",
		Longitude:     "-117.13",
		Categories:    "Bar, Pub",
		Country:       "United States",
	}

	loc := NewResolvedLocation("Hamilton's Tavern", facts)

	if loc.Status != StatusResolved {
		t.Errorf("status = %v, want %v", loc.Status, StatusResolved)
	}
	if loc.Address != facts.Address {
		t.Errorf("address = %q, want %q", loc.Address, facts.Address)
	}
	if loc.InUnitedStates != "true" {
		t.Errorf("in united states = %q, want %q", loc.InUnitedStates, "true")
	}

	// A service that resolved without supplying every field leaves gaps blank.
	partial := NewResolvedLocation("Somewhere", VenueFacts{Address: "123 Main St"})
	if partial.Categories != "" {
		t.Errorf("categories = %q, want empty", partial.Categories)
	}
	if partial.InUnitedStates != "" {
		t.Errorf("in united states = %q, want empty", partial.InUnitedStates)
	}
}

func TestMarkUnavailable(t *testing.T) {
	loc := NewMissingLocation("Nowhere Bar")
	loc.Categories = ""

	marked := loc.MarkUnavailable()

	if marked.Status != StatusUnavailable {
		t.Errorf("status = %v, want %v", marked.Status, StatusUnavailable)
	}
	if marked.UntappdURL != UnavailableMarker {
		t.Errorf("untappd url = %q, want %q", marked.UntappdURL, UnavailableMarker)
	}
	if marked.Categories != UnavailableMarker {
		t.Errorf("categories = %q, want %q", marked.Categories, UnavailableMarker)
	}

	// Real values survive a partial record being marked off.
	partial := NewMissingLocation("Half Known")
	partial.Address = "500 Elm St"
	marked = partial.MarkUnavailable()
	if marked.Address != "500 Elm St" {
		t.Errorf("address = %q, want preserved value", marked.Address)
	}
	if marked.Latitude != UnavailableMarker {
		t.Errorf("latitude = %q, want %q", marked.Latitude, UnavailableMarker)
	}
}

func TestApplyElevated(t *testing.T) {
	// A row left partly filled by an earlier deployment: urls and
	// coordinates known, the rest unresolved.
	partial := NewMissingLocation("Hamilton's Tavern")
	partial.UntappdURL = "https://untappd.com/v/hamiltons-tavern/123"
	partial.FoursquareURL = "https://foursquare.com/v/4aa7"
	partial.Latitude = "32.72"
	partial.Longitude = "-117.13"

	facts := VenueFacts{
		FoursquareURL: "https://foursquare.com/v/4aa7",
		Address:       "1521 30th St, San Diego, CA 92102, United States",
		Latitude:      "32.721841",
		Longitude:     "-117.129098",
		Categories:    "Bar, Pub",
		Country:       "United States",
	}

	updated := partial.ApplyElevated(facts)

	if updated.Status != StatusResolved {
		t.Errorf("status = %v, want resolved", updated.Status)
	}
	if updated.UntappdURL != "https://untappd.com/v/hamiltons-tavern/123" {
		t.Errorf("untappd url = %q, want kept", updated.UntappdURL)
	}
	if updated.Latitude != "32.721841" {
		t.Errorf("latitude = %q, want replaced with supplied value", updated.Latitude)
	}
	if updated.InUnitedStates != "true" {
		t.Errorf("in united states = %q, want %q", updated.InUnitedStates, "true")
	}

	// A fully missing row resolved by name search: unsupplied cells clear
	// to blank rather than keeping markers.
	missing := NewMissingLocation("Toronado")
	updated = missing.ApplyElevated(VenueFacts{
		FoursquareURL: "https://foursquare.com/v/4ab9",
		Address:       "547 Haight St, San Francisco, CA 94117",
		Latitude:      "37.772",
		Longitude:     "-122.431",
		Categories:    "Beer Bar",
		Country:       "United States",
	})
	if updated.Status != StatusResolved {
		t.Errorf("status = %v, want resolved", updated.Status)
	}
	if updated.UntappdURL != "" {
		t.Errorf("untappd url = %q, want blank", updated.UntappdURL)
	}
}

func TestStatusFromCells(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
		want  VenueStatus
	}{
		{"all data", []string{"https://untappd.com/v/x/1", "addr", "32.7"}, StatusResolved},
		{"one missing", []string{"https://untappd.com/v/x/1", MissingMarker, "32.7"}, StatusMissing},
		{"all missing", []string{MissingMarker, MissingMarker}, StatusMissing},
		{"unavailable wins over missing", []string{MissingMarker, UnavailableMarker}, StatusUnavailable},
		{"empty cells resolved", []string{"", ""}, StatusResolved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFromCells(tt.cells); got != tt.want {
				t.Errorf("StatusFromCells(%v) = %v, want %v", tt.cells, got, tt.want)
			}
		})
	}
}

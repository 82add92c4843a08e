package foursquare

import (
	"strconv"
	"strings"

	"github.com/dallangoldblatt/untappd-data/pkg/models"
)

type searchResponse struct {
	Response struct {
		Venues []venue `json:"venues"`
	} `json:"response"`
}

type detailsResponse struct {
	Response struct {
		Venue venue `json:"venue"`
	} `json:"response"`
}

type venue struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Location   location   `json:"location"`
	Categories []category `json:"categories"`
}

// Lat and Lng are pointers so an absent coordinate is not mistaken for 0,0
type location struct {
	Lat              *float64 `json:"lat"`
	Lng              *float64 `json:"lng"`
	FormattedAddress []string `json:"formattedAddress"`
	Country          string   `json:"country"`
}

type category struct {
	Name string `json:"name"`
}

// usable reports whether the venue carries enough location data to resolve
// a row: a formatted address or a full coordinate pair
func (v venue) usable() bool {
	if len(v.Location.FormattedAddress) > 0 {
		return true
	}
	return v.Location.Lat != nil && v.Location.Lng != nil
}

func (v venue) facts() models.VenueFacts {
	facts := models.VenueFacts{
		FoursquareID: v.ID,
		Address:      strings.Join(v.Location.FormattedAddress, ", "),
		Categories:   v.categoryNames(),
		Country:      v.Location.Country,
	}
	if v.ID != "" {
		facts.FoursquareURL = VenueURLPrefix + v.ID
	}
	if v.Location.Lat != nil {
		facts.Latitude = strconv.FormatFloat(*v.Location.Lat, 'f', -1, 64)
	}
	if v.Location.Lng != nil {
		facts.Longitude = strconv.FormatFloat(*v.Location.Lng, 'f', -1, 64)
	}
	return facts
}

func (v venue) categoryNames() string {
	if len(v.Categories) == 0 {
		return "Uncategorized"
	}

	names := make([]string, 0, len(v.Categories))
	for _, cat := range v.Categories {
		names = append(names, cat.Name)
	}
	return strings.Join(names, ", ")
}

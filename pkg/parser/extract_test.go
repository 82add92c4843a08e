package parser

import (
	"testing"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/dallangoldblatt/untappd-data/pkg/errors"
)

func TestSplitTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		beer  string
		venue string
	}{
		{
			name:  "beer with venue",
			title: "Dallan G. is drinking an Awesome Ale by Ballast Point Brewing Company at Hamilton's Tavern",
			beer:  "Awesome Ale by Ballast Point Brewing Company",
			venue: "Hamilton's Tavern",
		},
		{
			name:  "beer without venue",
			title: "Dallan G. is drinking an Awesome Ale by Ballast Point Brewing Company",
			beer:  "Awesome Ale by Ballast Point Brewing Company",
			venue: "",
		},
		{
			name:  "venue name containing at",
			title: "Dallan G. is drinking a Pale Ale by Stone Brewing at The Station at Ferry Landing",
			beer:  "Pale Ale by Stone Brewing",
			venue: "The Station at Ferry Landing",
		},
		{
			name:  "beer name containing at",
			title: "Dallan G. is drinking a Victory at Sea by Ballast Point Brewing Company at Hamilton's Tavern",
			beer:  "Victory at Sea by Ballast Point Brewing Company",
			venue: "Hamilton's Tavern",
		},
		{
			name:  "beer name containing at without venue",
			title: "Dallan G. is drinking a Victory at Sea by Ballast Point Brewing Company",
			beer:  "Victory at Sea by Ballast Point Brewing Company",
			venue: "",
		},
		{
			name:  "schrute farm beer",
			title: "Dallan G. is drinking a Murder at Schrute Farm...Death by Fire by Beachwood Brewing at Beachwood BBQ",
			beer:  "Murder at Schrute Farm...Death by Fire by Beachwood Brewing",
			venue: "Beachwood BBQ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			beer, venue, err := splitTitle(tt.title)
			require.NoError(t, err)
			assert.Equal(t, tt.beer, beer)
			assert.Equal(t, tt.venue, venue)
		})
	}
}

func TestSplitTitleNoMarker(t *testing.T) {
	_, _, err := splitTitle("Dallan G. earned the Beer Foodie badge")
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeParsing, errs.TypeOf(err))
}

func TestSplitAtOccurrence(t *testing.T) {
	tests := []struct {
		s     string
		n     int
		left  string
		right string
		found bool
	}{
		{"a at b at c", 1, "a", "b at c", true},
		{"a at b at c", 2, "a at b", "c", true},
		{"a at b", 2, "a at b", "", false},
		{"no separator", 1, "no separator", "", false},
	}

	for _, tt := range tests {
		left, right, found := splitAtOccurrence(tt.s, " at ", tt.n)
		assert.Equal(t, tt.left, left, tt.s)
		assert.Equal(t, tt.right, right, tt.s)
		assert.Equal(t, tt.found, found, tt.s)
	}
}

func TestSplitDescription(t *testing.T) {
	tests := []struct {
		name        string
		description string
		comment     string
		rating      string
	}{
		{"comment and rating", "Crisp and hoppy. (4.25/5 Stars)", "Crisp and hoppy.", "4.25"},
		{"rating only", "(3.5/5 Stars)", "", "3.5"},
		{"no rating suffix", "Just a note without a score", "Just a note without a score", ""},
		{"parens inside comment", "Good (I think) stuff (4/5 Stars)", "Good (I think) stuff", "4"},
		{"non numeric rating", "Odd one (unrated/5 Stars)", "Odd one", ""},
		{"parens without stars", "Tried this one (on tap)", "Tried this one", ""},
		{"empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comment, rating := splitDescription(tt.description)
			assert.Equal(t, tt.comment, comment)
			assert.Equal(t, tt.rating, rating)
		})
	}
}

func TestUsernameFromLink(t *testing.T) {
	username, err := usernameFromLink("https://untappd.com/user/sdbeerfan/checkin/1474189569")
	require.NoError(t, err)
	assert.Equal(t, "sdbeerfan", username)
}

func TestUsernameFromLinkMalformed(t *testing.T) {
	for _, link := range []string{"", "checkin"} {
		_, err := usernameFromLink(link)
		require.Error(t, err, link)
	}
}

func TestBuildCheckin(t *testing.T) {
	item := &gofeed.Item{
		Title:       "Dallan G. is drinking an Awesome Ale by Ballast Point Brewing Company at Hamilton's Tavern",
		Link:        "https://untappd.com/user/sdbeerfan/checkin/1474189569",
		Description: "Crisp and hoppy. (4.25/5 Stars)",
		Published:   "Sun, 18 Sep 2016 09:06:09 +0000",
	}

	checkin, err := buildCheckin("1001", 1474189569, item)
	require.NoError(t, err)

	assert.Equal(t, "1474189569", checkin.GUID)
	assert.Equal(t, "sdbeerfan", checkin.Username)
	assert.Equal(t, "1001", checkin.Brewery)
	assert.Equal(t, "Awesome Ale by Ballast Point Brewing Company", checkin.Beer)
	assert.Equal(t, "Hamilton's Tavern", checkin.Venue)
	assert.Equal(t, "Crisp and hoppy.", checkin.Comment)
	assert.Equal(t, "4.25", checkin.Rating)
	assert.Equal(t, "Sun, 18 Sep 2016 09:06:09 +0000", checkin.Date)
	assert.Equal(t, "https://untappd.com/user/sdbeerfan/checkin/1474189569", checkin.URL)
	assert.True(t, checkin.HasVenue())
}

func TestBuildCheckinBadTitle(t *testing.T) {
	item := &gofeed.Item{
		Title: "Dallan G. earned a badge",
		Link:  "https://untappd.com/user/sdbeerfan/checkin/1474189569",
	}
	_, err := buildCheckin("1001", 1474189569, item)
	require.Error(t, err)
}

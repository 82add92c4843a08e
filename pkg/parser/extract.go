package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"

	errs "github.com/dallangoldblatt/untappd-data/pkg/errors"
	"github.com/dallangoldblatt/untappd-data/pkg/models"
)

const drinkingMarker = " is drinking "

// beersWithAt are beer names whose own name contains " at ", so the venue
// starts at the second occurrence rather than the first
var beersWithAt = []string{
	"victory at sea",
	"murder at schrute farm...death by fire",
}

// buildCheckin turns one stored post into an aggregate dataset row. The guid
// column carries the numeric post id, which is what later runs deduplicate on.
func buildCheckin(breweryID string, postID int64, item *gofeed.Item) (models.Checkin, error) {
	beer, venue, err := splitTitle(item.Title)
	if err != nil {
		return models.Checkin{}, err
	}

	username, err := usernameFromLink(item.Link)
	if err != nil {
		return models.Checkin{}, err
	}

	comment, rating := splitDescription(item.Description)

	return models.Checkin{
		GUID:     strconv.FormatInt(postID, 10),
		Username: username,
		Brewery:  breweryID,
		Beer:     beer,
		Venue:    venue,
		Comment:  comment,
		Rating:   rating,
		Date:     item.Published,
		URL:      item.Link,
	}, nil
}

// splitTitle takes a post title of the form
//
//	<user> is drinking <article> <beer> by <brewery> at <venue>
//
// and returns the beer cell (article dropped, byline kept) and the venue.
// The venue part is optional. Titles whose beer name itself contains " at "
// split at the second occurrence instead of the first.
func splitTitle(title string) (string, string, error) {
	_, rest, found := strings.Cut(title, drinkingMarker)
	if !found {
		return "", "", errs.NewParsing(fmt.Sprintf("title %q has no drinking marker", title), nil)
	}

	occurrence := 1
	lower := strings.ToLower(title)
	for _, name := range beersWithAt {
		if strings.Contains(lower, name) {
			occurrence = 2
			break
		}
	}

	beerPart, venue, found := splitAtOccurrence(rest, " at ", occurrence)
	if !found {
		beerPart, venue = rest, ""
	}

	// Drop the leading article ("a", "an", "some")
	_, beer, found := strings.Cut(beerPart, " ")
	if !found {
		beer = ""
	}

	return beer, venue, nil
}

// splitAtOccurrence splits s around the nth occurrence of sep
func splitAtOccurrence(s, sep string, n int) (string, string, bool) {
	offset := 0
	for i := 0; i < n; i++ {
		idx := strings.Index(s[offset:], sep)
		if idx == -1 {
			return s, "", false
		}
		offset += idx
		if i < n-1 {
			offset += len(sep)
		}
	}
	return s[:offset], s[offset+len(sep):], true
}

// splitDescription separates the free text comment from the trailing
// "(<rating>/5 Stars)" suffix. A tail that does not parse as a number
// yields an empty rating cell.
func splitDescription(description string) (string, string) {
	idx := strings.LastIndex(description, "(")
	if idx == -1 {
		return strings.TrimSpace(description), ""
	}

	comment := strings.TrimSpace(description[:idx])
	tail := description[idx+1:]

	rating, _, found := strings.Cut(tail, "/5 Stars")
	if !found {
		return comment, ""
	}
	rating = strings.TrimSpace(rating)
	if _, err := strconv.ParseFloat(rating, 64); err != nil {
		return comment, ""
	}
	return comment, rating
}

// usernameFromLink pulls the username out of a checkin link, which has the
// form https://untappd.com/user/<username>/checkin/<id>
func usernameFromLink(link string) (string, error) {
	parts := strings.Split(link, "/")
	if len(parts) < 3 {
		return "", errs.NewParsing(fmt.Sprintf("link %q has no username segment", link), nil)
	}
	username := parts[len(parts)-3]
	if username == "" {
		return "", errs.NewParsing(fmt.Sprintf("link %q has no username segment", link), nil)
	}
	return username, nil
}

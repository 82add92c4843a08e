// Package untappd scrapes venue location data from Untappd pages.
//
// Resolution follows the trail a human would: the venue's first-seen
// checkin page links to the venue page, and the venue page carries the
// Foursquare link, coordinates in its meta tags, and the address block.
// Fetches are paced with jitter and rotate browser User-Agent strings.
package untappd

package untappd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dallangoldblatt/untappd-data/pkg/config"
	errs "github.com/dallangoldblatt/untappd-data/pkg/errors"
	"github.com/dallangoldblatt/untappd-data/pkg/logger"
)

const checkinPage = `<html><body>
<div class="checkin">
  <p class="user"><a href="/user/beerfan">beerfan</a></p>
  <p class="location"><a href="/v/hamiltons-tavern/4aa7">Hamilton's Tavern</a></p>
</div>
</body></html>`

const venuePage = `<html><head>
<meta property="place:location:latitude" content="32.721841"/>
<meta property="place:location:longitude" content="-117.129098"/>
<meta property="og:country-name" content="United States"/>
</head><body>
<div class="venue-header">
  <div class="venue-name">
    <h1>Hamilton's Tavern</h1>
    <h2>Bar</h2>
    <p class="address">1521 30th St San Diego, CA <a href="#map">( Map )</a></p>
  </div>
</div>
<div class="venue-social">
  <a class="fs track-click" href="https://foursquare.com/v/4aa7?utm=untappd">Foursquare</a>
  <a class="tw track-click" href="https://twitter.com/hamiltonstavern">Twitter</a>
</div>
</body></html>`

func newTestScraper(baseURL string) *Scraper {
	return NewScraper(config.UntappdConfig{
		BaseURL:        baseURL,
		RequestTimeout: 5 * time.Second,
	}, logger.NewTestLogger())
}

func TestLookup(t *testing.T) {
	var agents []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents = append(agents, r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/user/beerfan/checkin/1474189570":
			w.Write([]byte(checkinPage))
		case "/v/hamiltons-tavern/4aa7":
			w.Write([]byte(venuePage))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	scraper := newTestScraper(server.URL)
	facts, err := scraper.Lookup(context.Background(), server.URL+"/user/beerfan/checkin/1474189570")
	require.NoError(t, err)

	assert.Equal(t, server.URL+"/v/hamiltons-tavern/4aa7", facts.UntappdURL)
	assert.Equal(t, "https://foursquare.com/v/4aa7", facts.FoursquareURL)
	assert.Equal(t, "32.721841", facts.Latitude)
	assert.Equal(t, "-117.129098", facts.Longitude)
	assert.Equal(t, "1521 30th St San Diego, CA", facts.Address)
	assert.Equal(t, "Bar", facts.Categories)
	assert.Equal(t, "United States", facts.Country)
	assert.True(t, facts.Resolved())

	// Both pages were fetched with the same rotated browser identity
	require.Len(t, agents, 2)
	assert.Equal(t, agents[0], agents[1])
	assert.Contains(t, userAgents, agents[0])
}

func TestLookupNoVenueLink(t *testing.T) {
	bare := `<html><body><div class="checkin"><p class="comment">quiet night in</p></div></body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(bare))
	}))
	defer server.Close()

	_, err := newTestScraper(server.URL).Lookup(context.Background(), server.URL+"/user/x/checkin/1")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestLookupCheckinGone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := newTestScraper(server.URL).Lookup(context.Background(), server.URL+"/user/x/checkin/1")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestLookupVenueGone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/user/") {
			w.Write([]byte(checkinPage))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := newTestScraper(server.URL).Lookup(context.Background(), server.URL+"/user/x/checkin/1")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestLookupRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestScraper(server.URL).Lookup(context.Background(), server.URL+"/user/x/checkin/1")
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeRateLimit, errs.TypeOf(err))
	assert.True(t, errs.IsRetryableError(err))
}

func TestLookupPartialVenuePage(t *testing.T) {
	// Coordinates only: no social block, no address. Still usable data.
	sparse := `<html><head>
<meta property="place:location:latitude" content="32.7"/>
<meta property="place:location:longitude" content="-117.1"/>
</head><body><h1>Somewhere</h1></body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/user/") {
			w.Write([]byte(checkinPage))
			return
		}
		w.Write([]byte(sparse))
	}))
	defer server.Close()

	facts, err := newTestScraper(server.URL).Lookup(context.Background(), server.URL+"/user/x/checkin/1")
	require.NoError(t, err)

	assert.Empty(t, facts.FoursquareURL)
	assert.Empty(t, facts.Address)
	assert.Equal(t, "32.7", facts.Latitude)
	assert.True(t, facts.Resolved())
}

package untappd

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/dallangoldblatt/untappd-data/pkg/config"
	errs "github.com/dallangoldblatt/untappd-data/pkg/errors"
	"github.com/dallangoldblatt/untappd-data/pkg/logger"
	"github.com/dallangoldblatt/untappd-data/pkg/models"
	"github.com/dallangoldblatt/untappd-data/pkg/ratelimit"
)

// Browser identities rotated across page fetches so scrape traffic does not
// present a single fingerprint.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/74.0.3729.169 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/72.0.3626.121 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/74.0.3729.157 Safari/537.36",
	"Mozilla/5.0 (Windows NT 6.1; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/46.0.2490.80 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_11_5) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/50.0.2661.102 Safari/537.36",
	"Mozilla/4.0 (compatible; MSIE 6.0; Windows NT 5.1; SV1)",
	"Mozilla/5.0 (Windows NT 6.1; WOW64; Trident/7.0; rv:11.0) like Gecko",
}

// Scraper resolves a venue by following its first-seen checkin page to the
// venue page and scraping location data there. Fetches are paced with
// jitter; each lookup uses one randomly chosen browser identity.
type Scraper struct {
	httpClient *http.Client
	baseURL    string
	limiter    *ratelimit.IntervalLimiter
	logger     logger.Logger
}

// NewScraper creates a scraper from the Untappd configuration
func NewScraper(cfg config.UntappdConfig, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Scraper{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		limiter: ratelimit.NewIntervalLimiter(cfg.RequestInterval, cfg.RequestJitter),
		logger:  log,
	}
}

// Lookup scrapes location facts for the venue first seen on checkinURL.
// A not found error means the pages answered but hold no venue data, so
// retrying will not help; other errors are transport level.
func (s *Scraper) Lookup(ctx context.Context, checkinURL string) (models.VenueFacts, error) {
	s.limiter.Wait()

	userAgent := userAgents[rand.Intn(len(userAgents))]

	checkinDoc, err := s.fetchPage(ctx, checkinURL, userAgent)
	if err != nil {
		return models.VenueFacts{}, err
	}

	venuePath, ok := venueLink(checkinDoc)
	if !ok {
		s.logger.DebugWithFields("checkin page has no venue link", map[string]interface{}{
			"url": checkinURL,
		})
		return models.VenueFacts{}, errs.NewNotFound(fmt.Sprintf("checkin %s no longer names a venue", checkinURL))
	}

	venueURL := venuePath
	if !strings.HasPrefix(venuePath, "http") {
		venueURL = s.baseURL + venuePath
	}

	venueDoc, err := s.fetchPage(ctx, venueURL, userAgent)
	if err != nil {
		return models.VenueFacts{}, err
	}

	facts := venueFacts(venueDoc)
	facts.UntappdURL = venueURL

	s.logger.DebugWithFields("scraped venue page", map[string]interface{}{
		"url":      venueURL,
		"resolved": facts.Resolved(),
	})
	return facts, nil
}

func (s *Scraper) fetchPage(ctx context.Context, url, userAgent string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, "creating page request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errs.NewNetwork(fmt.Sprintf("fetching %s", url), err)
	}
	defer resp.Body.Close()

	s.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   http.MethodGet,
		"url":      url,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if resp.StatusCode == http.StatusNotFound {
		// Deleted checkins and merged venues return 404 for good
		return nil, errs.NewNotFound(fmt.Sprintf("page %s is gone", url))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errs.FromStatusCode(resp.StatusCode, fmt.Sprintf("page request for %s", url))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errs.NewParsing(fmt.Sprintf("parsing page %s", url), err)
	}
	return doc, nil
}

// venueLink finds the venue page link on a checkin page, the anchor nested
// in the location paragraph
func venueLink(doc *goquery.Document) (string, bool) {
	href, ok := doc.Find("p.location a").First().Attr("href")
	if !ok || href == "" {
		return "", false
	}
	return href, true
}

// venueFacts scrapes the venue page. The Foursquare link sits in the social
// block, coordinates in the page's place meta tags; name block and meta tags
// supply the rest when present.
func venueFacts(doc *goquery.Document) models.VenueFacts {
	var facts models.VenueFacts

	if href, ok := doc.Find("div.venue-social a.fs.track-click").First().Attr("href"); ok {
		facts.FoursquareURL = strings.SplitN(href, "?", 2)[0]
	}

	facts.Latitude = metaContent(doc, "place:location:latitude")
	facts.Longitude = metaContent(doc, "place:location:longitude")
	facts.Country = metaContent(doc, "og:country-name")

	address := doc.Find("p.address").First()
	if address.Length() > 0 {
		// Drop the trailing map link, keep the text nodes
		facts.Address = strings.TrimSpace(address.Contents().Not("a").Text())
	}

	facts.Categories = strings.TrimSpace(doc.Find("div.venue-name h2").First().Text())

	return facts
}

func metaContent(doc *goquery.Document, property string) string {
	content, _ := doc.Find(fmt.Sprintf("meta[property=%q]", property)).First().Attr("content")
	return content
}

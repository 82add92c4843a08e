package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/dallangoldblatt/untappd-data/pkg/config"
	errs "github.com/dallangoldblatt/untappd-data/pkg/errors"
	"github.com/dallangoldblatt/untappd-data/pkg/logger"
	"github.com/dallangoldblatt/untappd-data/pkg/models"
	"github.com/dallangoldblatt/untappd-data/pkg/ratelimit"
)

// Client fetches brewery RSS feeds over HTTP. All fetches share one token
// bucket sized to the worker pool, capping traffic against the feed host at
// one pool-wide burst per second.
type Client struct {
	httpClient *http.Client
	parser     *gofeed.Parser
	baseURL    string
	limiter    *ratelimit.TokenBucket
	logger     logger.Logger
}

// NewClient creates a feed client from the feed configuration
func NewClient(cfg config.FeedConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	burst := cfg.Workers
	if burst < 1 {
		burst = 1
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.FetchTimeout,
		},
		parser:  gofeed.NewParser(),
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		limiter: ratelimit.NewTokenBucket(burst, time.Second),
		logger:  log,
	}
}

// FeedURL returns the feed URL for a brewery
func (c *Client) FeedURL(breweryID string) string {
	return c.baseURL + "/" + breweryID
}

// ListPosts fetches and parses a brewery's feed. Each returned post carries
// the verbatim item XML it was parsed from.
func (c *Client) ListPosts(ctx context.Context, breweryID string) ([]models.Post, error) {
	url := c.FeedURL(breweryID)

	c.logger.DebugWithFields("fetching brewery feed", map[string]interface{}{
		"brewery_id": breweryID,
		"url":        url,
	})

	body, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	parsed, err := c.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, errs.NewParsing(fmt.Sprintf("parsing feed for brewery %s", breweryID), err)
	}

	rawItems, err := extractRawItems(body)
	if err != nil {
		return nil, errs.NewParsing(fmt.Sprintf("extracting items for brewery %s", breweryID), err)
	}
	if len(rawItems) != len(parsed.Items) {
		return nil, errs.NewParsing(fmt.Sprintf("feed for brewery %s has %d items but %d raw entries", breweryID, len(parsed.Items), len(rawItems)), nil)
	}

	posts := make([]models.Post, 0, len(parsed.Items))
	for i, item := range parsed.Items {
		post, err := postFromItem(breweryID, item, rawItems[i])
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	c.logger.DebugWithFields("fetched brewery feed", map[string]interface{}{
		"brewery_id": breweryID,
		"posts":      len(posts),
	})
	return posts, nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	c.limiter.Wait()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, "creating feed request", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "application/rss+xml, application/xml;q=0.9, text/xml;q=0.8")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.NewNetwork(fmt.Sprintf("fetching %s", url), err)
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      url,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if resp.StatusCode != http.StatusOK {
		return nil, errs.FromStatusCode(resp.StatusCode, fmt.Sprintf("feed request for %s", url))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.NewNetwork(fmt.Sprintf("reading feed body from %s", url), err)
	}
	return body, nil
}

// postFromItem builds a post from one parsed item and its raw XML. The post
// ID is the numeric tail of the item's GUID, which for check-in posts is the
// check-in URL.
func postFromItem(breweryID string, item *gofeed.Item, raw []byte) (models.Post, error) {
	id, err := PostIDFromGUID(item.GUID)
	if err != nil {
		return models.Post{}, errs.NewParsing(fmt.Sprintf("post in brewery %s feed has unusable guid %q", breweryID, item.GUID), err)
	}

	return models.Post{
		BreweryID: breweryID,
		ID:        id,
		GUID:      item.GUID,
		Title:     item.Title,
		Link:      item.Link,
		Published: item.Published,
		Raw:       raw,
	}, nil
}

// PostIDFromGUID extracts the numeric post ID from an item GUID, the
// segment after the final slash
func PostIDFromGUID(guid string) (int64, error) {
	tail := guid
	if i := strings.LastIndex(guid, "/"); i >= 0 {
		tail = guid[i+1:]
	}
	id, err := strconv.ParseInt(tail, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("guid %q has no numeric tail: %w", guid, err)
	}
	return id, nil
}

package foursquare

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dallangoldblatt/untappd-data/pkg/config"
	errs "github.com/dallangoldblatt/untappd-data/pkg/errors"
	"github.com/dallangoldblatt/untappd-data/pkg/logger"
	"github.com/dallangoldblatt/untappd-data/pkg/models"
	"github.com/dallangoldblatt/untappd-data/pkg/ratelimit"
)

// VenueURLPrefix is the public page prefix a venue id maps to
const VenueURLPrefix = "https://foursquare.com/v/"

// Client talks to the Foursquare v2 venues API. Search is the normal-quota
// name lookup near the configured home coordinates; SearchGlobal and Details
// are the elevated modes the sweeper uses.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	clientID     string
	clientSecret string
	searchLL     string
	radius       int
	limit        int
	limiter      *ratelimit.IntervalLimiter
	logger       logger.Logger
}

// NewClient creates a client from the Foursquare configuration
func NewClient(cfg config.FoursquareConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		searchLL:     cfg.SearchLatLong,
		radius:       cfg.SearchRadius,
		limit:        cfg.SearchLimit,
		limiter:      ratelimit.NewIntervalLimiter(cfg.RequestInterval, 0),
		logger:       log,
	}
}

// Search looks a venue up by name near the home coordinates. The first
// returned venue whose name matches and carries usable location data wins;
// no such venue is a not found error.
func (c *Client) Search(ctx context.Context, venue string) (models.VenueFacts, error) {
	params := c.params()
	params.Set("intent", "browse")
	params.Set("query", venue)
	params.Set("ll", c.searchLL)
	params.Set("radius", strconv.Itoa(c.radius))
	params.Set("limit", strconv.Itoa(c.limit))

	return c.search(ctx, venue, params)
}

// SearchGlobal is the elevated fallback for venues with no known id: the
// same name lookup without a location bound
func (c *Client) SearchGlobal(ctx context.Context, venue string) (models.VenueFacts, error) {
	params := c.params()
	params.Set("intent", "global")
	params.Set("query", venue)
	params.Set("limit", strconv.Itoa(c.limit))

	return c.search(ctx, venue, params)
}

func (c *Client) search(ctx context.Context, venue string, params url.Values) (models.VenueFacts, error) {
	var parsed searchResponse
	if err := c.getJSON(ctx, c.baseURL+"/venues/search", params, &parsed); err != nil {
		return models.VenueFacts{}, err
	}

	for _, candidate := range parsed.Response.Venues {
		if !strings.EqualFold(candidate.Name, venue) {
			continue
		}
		if !candidate.usable() {
			continue
		}
		c.logger.DebugWithFields("venue matched in search", map[string]interface{}{
			"venue":         venue,
			"foursquare_id": candidate.ID,
		})
		return candidate.facts(), nil
	}

	return models.VenueFacts{}, errs.NewNotFound(fmt.Sprintf("no search result matches venue %q", venue))
}

// Details fetches one venue by id on the premium endpoint. A bad request
// means the id no longer exists; both that and a response without usable
// location data are not found errors, since retrying cannot help.
func (c *Client) Details(ctx context.Context, venueID string) (models.VenueFacts, error) {
	var parsed detailsResponse
	err := c.getJSON(ctx, c.baseURL+"/venues/"+url.PathEscape(venueID), c.params(), &parsed)
	if err != nil {
		var apiErr *errs.Error
		if stderrors.As(err, &apiErr) && apiErr.Code == http.StatusBadRequest {
			return models.VenueFacts{}, errs.NewNotFound(fmt.Sprintf("venue id %s no longer exists", venueID))
		}
		return models.VenueFacts{}, err
	}

	if !parsed.Response.Venue.usable() {
		return models.VenueFacts{}, errs.NewNotFound(fmt.Sprintf("venue id %s has no public location data", venueID))
	}
	return parsed.Response.Venue.facts(), nil
}

func (c *Client) params() url.Values {
	params := url.Values{}
	params.Set("v", time.Now().Format("20060102"))
	params.Set("client_id", c.clientID)
	params.Set("client_secret", c.clientSecret)
	return params
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, target interface{}) error {
	c.limiter.Wait()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeUnknown, "creating API request", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.NewNetwork(fmt.Sprintf("calling %s", endpoint), err)
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   http.MethodGet,
		"url":      endpoint,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if resp.StatusCode != http.StatusOK {
		return errs.FromStatusCode(resp.StatusCode, fmt.Sprintf("API request to %s", endpoint))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.NewNetwork(fmt.Sprintf("reading response from %s", endpoint), err)
	}
	if err := json.Unmarshal(body, target); err != nil {
		return errs.NewParsing(fmt.Sprintf("decoding response from %s", endpoint), err)
	}
	return nil
}

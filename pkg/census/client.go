// Package census fetches ACS 5-year tract-level variables from the Census
// Data API. Tract data is loaded in bulk per county and looked up per point by
// tract GEOID.
package census

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// ACS variable codes requested per tract.
const (
	varMedianYearBuilt = "B25035_001E"
	varMedianIncome    = "B19013_001E"
	varTenureTotal     = "B25003_001E"
	varTenureOwner     = "B25003_002E"
	varHousingUnits    = "B25001_001E"
)

// acsDataset is the dataset path under the API base URL.
const acsDataset = "2022/acs/acs5"

// Client fetches tract-level ACS data.
type Client interface {
	// TractsForCounty returns ACS data for every tract in a county, keyed by
	// 11-digit tract GEOID. County is identified by 2-digit state FIPS plus
	// 3-digit county FIPS.
	TractsForCounty(ctx context.Context, stateFIPS, countyFIPS string) (map[string]TractData, error)

	// TractsForCounties bulk-loads several counties concurrently and merges
	// the results. A failed county degrades to missing data.
	TractsForCounties(ctx context.Context, counties []County) (map[string]TractData, error)
}

// County identifies one county by FIPS codes.
type County struct {
	StateFIPS  string
	CountyFIPS string
}

// TractData carries the ACS variables for one census tract.
type TractData struct {
	GEOID            string
	MedianYearBuilt  int
	MedianIncome     int
	OwnerOccupiedPct int
	HousingUnits     int
}

// Option configures the client.
type Option func(*client)

// WithBaseURL overrides the Census Data API base URL.
func WithBaseURL(url string) Option {
	return func(c *client) {
		c.baseURL = url
	}
}

// WithAPIKey sets the Census API key. Requests work unkeyed at low volume.
func WithAPIKey(key string) Option {
	return func(c *client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithWorkers caps concurrent county loads in TractsForCounties.
func WithWorkers(n int) Option {
	return func(c *client) {
		if n > 0 {
			c.workers = n
		}
	}
}

type client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	workers    int
}

const defaultBaseURL = "https://api.census.gov/data"

// NewClient creates a Census Data API client.
func NewClient(opts ...Option) Client {
	c := &client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(10, 10),
		workers:    30,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Package geocode looks up the census geography for coordinates via the
// Census Geocoder API. The radar pipeline uses it to assign sampled points to
// census tracts before scoring.
package geocode

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Client resolves coordinates to census geography.
type Client interface {
	// TractForPoint returns the census geography containing a point.
	TractForPoint(ctx context.Context, lat, lng float64) (*TractResult, error)

	// BatchTracts resolves many points with a capped number of in-flight
	// lookups. The result slice is positionally aligned with the input.
	BatchTracts(ctx context.Context, points []Point) ([]TractResult, error)
}

// Point is an input coordinate pair.
type Point struct {
	Lat float64
	Lng float64
}

// TractResult holds the census geography for one point.
type TractResult struct {
	TractGEOID string // 11-digit state+county+tract code
	CountyFIPS string
	CountyName string
	State      string
	Matched    bool
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithBaseURL overrides the Census Geocoder base URL.
func WithBaseURL(url string) Option {
	return func(g *geocoder) {
		g.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second rate limit for Census API calls.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		g.limiter = rate.NewLimiter(rate.Limit(rps), int(rps))
	}
}

// WithWorkers caps the number of concurrent lookups in BatchTracts.
func WithWorkers(n int) Option {
	return func(g *geocoder) {
		if n > 0 {
			g.workers = n
		}
	}
}

type geocoder struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	workers    int
}

const defaultBaseURL = "https://geocoding.geo.census.gov/geocoder"

// NewClient creates a geocoding Client with the given options.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(50, 50), // Census default: 50 req/s
		workers:    60,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

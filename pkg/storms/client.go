// Package storms fetches recent severe-weather events near a point from the
// NCEI storm events search service. Events are a scoring signal only; nothing
// is stored.
package storms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://www.ncei.noaa.gov/access/services/search/v1"

// Client looks up storm events.
type Client interface {
	// EventsNear returns storm events within radiusMeters of a point over the
	// configured lookback window.
	EventsNear(ctx context.Context, lat, lng, radiusMeters float64) ([]Event, error)
}

// Event is one severe-weather event.
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"eventType"`
	Lat  float64   `json:"latitude"`
	Lng  float64   `json:"longitude"`
	Date time.Time `json:"date"`
}

// searchResponse is the search service response envelope.
type searchResponse struct {
	Results []struct {
		ID        string  `json:"id"`
		EventType string  `json:"eventType"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		BeginDate string  `json:"beginDate"`
	} `json:"results"`
}

// Option configures the client.
type Option func(*client)

// WithBaseURL overrides the search service base URL.
func WithBaseURL(url string) Option {
	return func(c *client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithLookback sets how many years back to search.
func WithLookback(years int) Option {
	return func(c *client) {
		if years > 0 {
			c.lookbackYears = years
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *client) {
		c.now = now
	}
}

type client struct {
	baseURL       string
	httpClient    *http.Client
	lookbackYears int
	now           func() time.Time
}

// NewClient creates a storm events client.
func NewClient(opts ...Option) Client {
	c := &client{
		baseURL:       defaultBaseURL,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		lookbackYears: 2,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EventsNear returns storm events within radiusMeters of a point.
func (c *client) EventsNear(ctx context.Context, lat, lng, radiusMeters float64) ([]Event, error) {
	end := c.now()
	start := end.AddDate(-c.lookbackYears, 0, 0)

	// Bounding box around the point; the service filters coarsely by bbox and
	// the scorer applies the precise distance decay.
	dLat := radiusMeters / 111320.0
	dLng := radiusMeters / (111320.0 * math.Cos(lat*math.Pi/180))

	params := url.Values{
		"dataset":   {"stormevents"},
		"startDate": {start.Format("2006-01-02")},
		"endDate":   {end.Format("2006-01-02")},
		"bbox": {fmt.Sprintf("%f,%f,%f,%f",
			lng-dLng, lat-dLat, lng+dLng, lat+dLat)},
	}

	reqURL := c.baseURL + "/data?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "storms: build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "storms: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("storms: returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "storms: read body")
	}

	var searchResp searchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, eris.Wrap(err, "storms: parse response")
	}

	events := make([]Event, 0, len(searchResp.Results))
	for _, r := range searchResp.Results {
		e := Event{
			ID:   r.ID,
			Type: r.EventType,
			Lat:  r.Latitude,
			Lng:  r.Longitude,
		}
		if t, parseErr := time.Parse("2006-01-02", r.BeginDate); parseErr == nil {
			e.Date = t
		}
		events = append(events, e)
	}
	return events, nil
}

// Package places provides a thin client for the Google Places API (New),
// covering the searches, place details, and street-view metadata lookups used
// by the radar pipeline.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL           = "https://places.googleapis.com/v1"
	defaultStreetViewBaseURL = "https://maps.googleapis.com/maps/api/streetview"
)

// searchFieldMask lists the place fields requested for searches.
const searchFieldMask = "places.id,places.displayName,places.formattedAddress,places.location," +
	"places.rating,places.userRatingCount,places.websiteUri,places.nationalPhoneNumber," +
	"places.types,places.primaryType,places.businessStatus"

// Client performs Google Places API operations.
type Client interface {
	// TextSearch runs a Places text search biased to a circle.
	TextSearch(ctx context.Context, req TextSearchRequest) (*SearchResponse, error)

	// PlaceDetails fetches full details for one place id.
	PlaceDetails(ctx context.Context, placeID string) (*Place, error)

	// StreetViewAvailable reports whether street-view imagery exists at a point.
	StreetViewAvailable(ctx context.Context, lat, lng float64) (bool, error)
}

// TextSearchRequest describes a text search biased to a circular area.
type TextSearchRequest struct {
	TextQuery    string   `json:"textQuery"`
	PageToken    string   `json:"pageToken,omitempty"`
	MaxResults   int      `json:"pageSize,omitempty"`
	IncludedType string   `json:"includedType,omitempty"`
	LocationBias *CircleB `json:"locationBias,omitempty"`
}

// CircleB wraps a circle for the locationBias request field.
type CircleB struct {
	Circle Circle `json:"circle"`
}

// Circle is a center point plus radius in meters.
type Circle struct {
	Center LatLng  `json:"center"`
	Radius float64 `json:"radius"`
}

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SearchResponse is the response from a Places search.
type SearchResponse struct {
	Places        []Place `json:"places"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}

// Place represents a place returned by the API.
type Place struct {
	ID                  string      `json:"id"`
	DisplayName         DisplayName `json:"displayName"`
	FormattedAddress    string      `json:"formattedAddress"`
	Location            *LatLng     `json:"location,omitempty"`
	Rating              float64     `json:"rating"`
	UserRatingCount     int         `json:"userRatingCount"`
	WebsiteURI          string      `json:"websiteUri"`
	NationalPhoneNumber string      `json:"nationalPhoneNumber"`
	Types               []string    `json:"types"`
	PrimaryType         string      `json:"primaryType"`
	BusinessStatus      string      `json:"businessStatus"`
}

// DisplayName holds the place's display name.
type DisplayName struct {
	Text string `json:"text"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default Places API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithStreetViewBaseURL overrides the Street View Static API base URL.
func WithStreetViewBaseURL(url string) Option {
	return func(c *httpClient) {
		c.streetViewBaseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets the requests-per-second limit for API calls.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps))
	}
}

type httpClient struct {
	apiKey            string
	baseURL           string
	streetViewBaseURL string
	http              *http.Client
	limiter           *rate.Limiter
}

// NewClient creates a Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:            apiKey,
		baseURL:           defaultBaseURL,
		streetViewBaseURL: defaultStreetViewBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(10, 10),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) TextSearch(ctx context.Context, req TextSearchRequest) (*SearchResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "places: text search rate limit")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "places: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places:searchText", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "places: create request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Goog-Api-Key", c.apiKey)
	httpReq.Header.Set("X-Goog-FieldMask", searchFieldMask+",nextPageToken")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "places: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "places: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("places: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result SearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "places: unmarshal response")
	}

	return &result, nil
}

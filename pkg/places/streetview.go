package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"
)

// streetViewMetadata is the Street View Static API metadata response.
type streetViewMetadata struct {
	Status string `json:"status"`
}

// StreetViewAvailable reports whether street-view imagery exists at a point.
// The metadata endpoint is free of charge, so this is safe to call per lead.
func (c *httpClient) StreetViewAvailable(ctx context.Context, lat, lng float64) (bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, eris.Wrap(err, "places: street view rate limit")
	}

	params := url.Values{
		"location": {fmt.Sprintf("%f,%f", lat, lng)},
		"key":      {c.apiKey},
	}

	reqURL := c.streetViewBaseURL + "/metadata?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false, eris.Wrap(err, "places: create street view request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, eris.Wrap(err, "places: send street view request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, eris.Wrap(err, "places: read street view response")
	}

	if resp.StatusCode != http.StatusOK {
		return false, eris.Errorf("places: street view returned status %d", resp.StatusCode)
	}

	var meta streetViewMetadata
	if err := json.Unmarshal(respBody, &meta); err != nil {
		return false, eris.Wrap(err, "places: unmarshal street view response")
	}

	return meta.Status == "OK", nil
}

// StreetViewImageURL returns the static image URL for a point. No request is
// made; the URL embeds the API key and is meant for direct client use.
func StreetViewImageURL(apiKey string, lat, lng float64) string {
	params := url.Values{
		"size":     {"640x400"},
		"location": {fmt.Sprintf("%f,%f", lat, lng)},
		"key":      {apiKey},
	}
	return defaultStreetViewBaseURL + "?" + params.Encode()
}

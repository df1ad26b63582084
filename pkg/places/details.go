package places

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"
)

// detailsFieldMask lists the fields requested for a place-details lookup.
const detailsFieldMask = "id,displayName,formattedAddress,location,rating,userRatingCount," +
	"websiteUri,nationalPhoneNumber,types,primaryType,businessStatus"

// PlaceDetails fetches full details for one place id.
func (c *httpClient) PlaceDetails(ctx context.Context, placeID string) (*Place, error) {
	if placeID == "" {
		return nil, eris.New("places: place id is required")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "places: details rate limit")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/places/"+url.PathEscape(placeID), nil)
	if err != nil {
		return nil, eris.Wrap(err, "places: create details request")
	}

	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", detailsFieldMask)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "places: send details request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "places: read details response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("places: details returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var place Place
	if err := json.Unmarshal(respBody, &place); err != nil {
		return nil, eris.Wrap(err, "places: unmarshal details response")
	}

	return &place, nil
}

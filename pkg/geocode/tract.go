package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

const (
	censusBenchmark = "Public_AR_Current"
	censusVintage   = "Current_Current"
)

// coordinatesResponse is the JSON response from the Census geographies API.
type coordinatesResponse struct {
	Result struct {
		Geographies struct {
			Tracts []struct {
				GEOID string `json:"GEOID"`
			} `json:"Census Tracts"`
			Counties []struct {
				GEOID    string `json:"GEOID"`
				BaseName string `json:"BASENAME"`
			} `json:"Counties"`
			States []struct {
				Stusab string `json:"STUSAB"`
			} `json:"States"`
		} `json:"geographies"`
	} `json:"result"`
}

// TractForPoint returns the census geography containing a point.
// An unmatched point (ocean, outside the US) is not an error.
func (g *geocoder) TractForPoint(ctx context.Context, lat, lng float64) (*TractResult, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: tract rate limit")
	}

	params := url.Values{
		"x":         {fmt.Sprintf("%f", lng)},
		"y":         {fmt.Sprintf("%f", lat)},
		"benchmark": {censusBenchmark},
		"vintage":   {censusVintage},
		"format":    {"json"},
	}

	reqURL := g.baseURL + "/geographies/coordinates?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build tract request")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: tract request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: census returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read tract body")
	}

	var coordResp coordinatesResponse
	if err := json.Unmarshal(body, &coordResp); err != nil {
		return nil, eris.Wrap(err, "geocode: parse tract response")
	}

	geos := coordResp.Result.Geographies
	if len(geos.Tracts) == 0 {
		return &TractResult{Matched: false}, nil
	}

	result := &TractResult{
		TractGEOID: geos.Tracts[0].GEOID,
		Matched:    true,
	}
	if len(geos.Counties) > 0 {
		result.CountyFIPS = geos.Counties[0].GEOID
		result.CountyName = geos.Counties[0].BaseName
	}
	if len(geos.States) > 0 {
		result.State = geos.States[0].Stusab
	}
	return result, nil
}

// BatchTracts resolves many points concurrently, capped at the configured
// worker count. A failed lookup degrades to an unmatched result for that
// point; the batch itself only fails on context cancellation.
func (g *geocoder) BatchTracts(ctx context.Context, points []Point) ([]TractResult, error) {
	if len(points) == 0 {
		return nil, nil
	}

	results := make([]TractResult, len(points))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)

	for i, p := range points {
		eg.Go(func() error {
			if egCtx.Err() != nil {
				return egCtx.Err()
			}
			r, err := g.TractForPoint(egCtx, p.Lat, p.Lng)
			if err != nil {
				// Missing data for one point, not a batch failure.
				results[i] = TractResult{Matched: false}
				return nil
			}
			results[i] = *r
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, eris.Wrap(err, "geocode: batch tracts")
	}
	return results, nil
}

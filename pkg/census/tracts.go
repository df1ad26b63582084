package census

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TractsForCounty returns ACS data for every tract in a county.
func (c *client) TractsForCounty(ctx context.Context, stateFIPS, countyFIPS string) (map[string]TractData, error) {
	if stateFIPS == "" || countyFIPS == "" {
		return nil, eris.New("census: state and county FIPS are required")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "census: rate limit")
	}

	getVars := strings.Join([]string{
		varMedianYearBuilt, varMedianIncome, varTenureTotal, varTenureOwner, varHousingUnits,
	}, ",")

	params := url.Values{
		"get": {getVars},
		"for": {"tract:*"},
		"in":  {"state:" + stateFIPS + " county:" + countyFIPS},
	}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	reqURL := c.baseURL + "/" + acsDataset + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "census: build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "census: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("census: returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "census: read body")
	}

	return parseACSRows(body)
}

// parseACSRows parses the API's array-of-arrays payload. The first row is the
// header; trailing columns are the state/county/tract identifiers.
func parseACSRows(body []byte) (map[string]TractData, error) {
	var rows [][]string
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, eris.Wrap(err, "census: parse response")
	}
	if len(rows) < 2 {
		return map[string]TractData{}, nil
	}

	header := rows[0]
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{varMedianYearBuilt, "state", "county", "tract"} {
		if _, ok := col[required]; !ok {
			return nil, eris.Errorf("census: response missing column %q", required)
		}
	}

	tracts := make(map[string]TractData, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) != len(header) {
			continue
		}

		geoid := row[col["state"]] + row[col["county"]] + row[col["tract"]]
		td := TractData{
			GEOID:           geoid,
			MedianYearBuilt: acsInt(row, col, varMedianYearBuilt),
			MedianIncome:    acsInt(row, col, varMedianIncome),
			HousingUnits:    acsInt(row, col, varHousingUnits),
		}

		total := acsInt(row, col, varTenureTotal)
		owner := acsInt(row, col, varTenureOwner)
		if total > 0 {
			td.OwnerOccupiedPct = int(float64(owner) / float64(total) * 100)
		}

		tracts[geoid] = td
	}
	return tracts, nil
}

// acsInt reads one integer cell. The API signals missing data with negative
// sentinels (e.g. -666666666), which collapse to zero here.
func acsInt(row []string, col map[string]int, name string) int {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return 0
	}
	v, err := strconv.Atoi(strings.TrimSpace(row[i]))
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// TractsForCounties bulk-loads several counties concurrently and merges the
// results. A failed county load is logged and degrades to missing data.
func (c *client) TractsForCounties(ctx context.Context, counties []County) (map[string]TractData, error) {
	if len(counties) == 0 {
		return map[string]TractData{}, nil
	}

	merged := make(map[string]TractData)
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(c.workers)

	for _, county := range counties {
		eg.Go(func() error {
			tracts, err := c.TractsForCounty(egCtx, county.StateFIPS, county.CountyFIPS)
			if err != nil {
				zap.L().Warn("census county load failed",
					zap.String("state", county.StateFIPS),
					zap.String("county", county.CountyFIPS),
					zap.Error(err),
				)
				return nil
			}
			mu.Lock()
			for geoid, td := range tracts {
				merged[geoid] = td
			}
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, eris.Wrap(err, "census: load counties")
	}
	return merged, nil
}

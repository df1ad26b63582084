package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/revenue-radar/internal/cache"
	"github.com/sells-group/revenue-radar/internal/radar"
	"github.com/sells-group/revenue-radar/internal/tracts"
	"github.com/sells-group/revenue-radar/pkg/census"
	"github.com/sells-group/revenue-radar/pkg/geocode"
	"github.com/sells-group/revenue-radar/pkg/places"
	"github.com/sells-group/revenue-radar/pkg/storms"
)

// radarEnv holds the initialized store and search service shared by the
// serve/search/cache commands.
type radarEnv struct {
	Store   cache.Store
	Service *radar.Service
}

// Close releases the store.
func (e *radarEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initRadar validates config, opens the cache store, builds all upstream
// clients, and assembles the search service. Callers should defer
// env.Close().
func initRadar(ctx context.Context, mode string) (*radarEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	store, err := cache.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	httpTimeout := func(secs int) *http.Client {
		if secs <= 0 {
			secs = 10
		}
		return &http.Client{Timeout: time.Duration(secs) * time.Second}
	}

	placesClient := places.NewClient(cfg.Places.Key,
		places.WithBaseURL(cfg.Places.BaseURL),
		places.WithHTTPClient(httpTimeout(cfg.Places.TimeoutSecs)),
		places.WithRateLimit(cfg.Places.RatePerSec),
	)
	geocodeClient := geocode.NewClient(
		geocode.WithBaseURL(cfg.Census.GeocoderBaseURL),
		geocode.WithHTTPClient(httpTimeout(cfg.Census.TimeoutSecs)),
		geocode.WithWorkers(cfg.Census.GeocodeWorkers),
	)
	censusClient := census.NewClient(
		census.WithBaseURL(cfg.Census.ACSBaseURL),
		census.WithAPIKey(cfg.Census.Key),
		census.WithHTTPClient(httpTimeout(cfg.Census.TimeoutSecs)),
		census.WithWorkers(cfg.Census.TractWorkers),
	)
	stormsClient := storms.NewClient(
		storms.WithBaseURL(cfg.Storms.BaseURL),
		storms.WithHTTPClient(httpTimeout(cfg.Storms.TimeoutSecs)),
		storms.WithLookback(cfg.Storms.LookbackYrs),
	)

	deps := radar.Deps{
		Store:   store,
		Places:  placesClient,
		Geocode: geocodeClient,
		Census:  censusClient,
		Storms:  stormsClient,
	}

	if dir := cfg.Tracts.ShapefileDir; dir != "" {
		idx, err := tracts.LoadDir(dir)
		if err != nil {
			// The geocoder path still works; warn and continue.
			zap.L().Warn("tract index unavailable, using remote geocoder", zap.Error(err))
		} else {
			deps.Tracts = idx
		}
	}

	return &radarEnv{
		Store:   store,
		Service: radar.New(cfg.Radar, deps),
	}, nil
}

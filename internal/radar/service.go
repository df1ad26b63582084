// Package radar coordinates a search request end to end: input
// normalization, quota enforcement, cache lookup, builder dispatch,
// clustering, and cache write-back.
package radar

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/revenue-radar/internal/cache"
	"github.com/sells-group/revenue-radar/internal/cluster"
	"github.com/sells-group/revenue-radar/internal/config"
	"github.com/sells-group/revenue-radar/internal/geo"
	"github.com/sells-group/revenue-radar/internal/lead"
	"github.com/sells-group/revenue-radar/internal/scoring"
	"github.com/sells-group/revenue-radar/internal/tracts"
	"github.com/sells-group/revenue-radar/pkg/census"
	"github.com/sells-group/revenue-radar/pkg/geocode"
	"github.com/sells-group/revenue-radar/pkg/places"
	"github.com/sells-group/revenue-radar/pkg/storms"
)

// Deps are the external collaborators a Service needs. Tracts is optional;
// when present, tract assignment runs against the local index instead of the
// Census geocoder.
type Deps struct {
	Store   cache.Store
	Places  places.Client
	Geocode geocode.Client
	Census  census.Client
	Storms  storms.Client
	Tracts  *tracts.Index
}

// Service runs searches. Safe for concurrent use; all mutable state lives in
// the cache store.
type Service struct {
	cfg  config.RadarConfig
	deps Deps
	now  func() time.Time
}

func New(cfg config.RadarConfig, deps Deps) *Service {
	return &Service{cfg: cfg, deps: deps, now: time.Now}
}

// Params are the normalized search inputs.
type Params struct {
	Lat         float64
	Lng         float64
	RadiusMiles float64
	Industry    string
	Trade       string
	FiltersJSON string
	NoCache     bool
	// OrgID is empty for anonymous/demo access, which is unmetered.
	OrgID string
}

// Meta describes how a response was produced.
type Meta struct {
	Industry    string       `json:"industry"`
	Trade       string       `json:"trade,omitempty"`
	Center      [2]float64   `json:"center"` // [lng, lat]
	RadiusMiles float64      `json:"radius"`
	MaxResults  int          `json:"maxResults"`
	ResultCount int          `json:"resultCount"`
	Cached      bool         `json:"cached"`
	Timestamp   time.Time    `json:"timestamp"`
	CensusStats *CensusStats `json:"censusStats,omitempty"`
}

// CensusStats summarizes the census data behind a residential search.
type CensusStats struct {
	Counties      int `json:"counties"`
	Tracts        int `json:"tracts"`
	MatchedPoints int `json:"matchedPoints"`
	SampledPoints int `json:"sampledPoints"`
}

// Response is the full search payload. It is what gets cached, so cached
// replays only differ in meta.cached.
type Response struct {
	Leads         *geojson.FeatureCollection `json:"leads"`
	Storms        *geojson.FeatureCollection `json:"storms"`
	Permits       *geojson.FeatureCollection `json:"permits"`
	Neighborhoods *geojson.FeatureCollection `json:"neighborhoods,omitempty"`
	CensusStats   *CensusStats               `json:"censusStats,omitempty"`
	Meta          Meta                       `json:"meta"`
}

// QuotaError reports an exhausted daily search quota.
type QuotaError struct {
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("daily search limit of %d reached, resets %s", e.Limit, e.ResetAt.Format(time.RFC3339))
}

// Search runs the request pipeline: normalize, cache-read, quota check,
// builder dispatch, clustering, cache-write, counter increment.
//
// A cache hit is served before the quota check so cached responses stay free
// for metered orgs. Builder failures degrade to an empty 200-shaped response;
// only quota exhaustion surfaces as an error.
func (s *Service) Search(ctx context.Context, p Params) (*Response, error) {
	p = s.normalize(p)
	profile := scoring.ProfileFor(p.Industry)
	filters := scoring.ParseFilters(p.FiltersJSON)
	radiusMeters := geo.MilesToMeters(p.RadiusMiles)

	log := zap.L().With(
		zap.String("industry", string(profile.Industry)),
		zap.String("trade", p.Trade),
		zap.Float64("lat", p.Lat),
		zap.Float64("lng", p.Lng),
		zap.Float64("radius_miles", p.RadiusMiles),
	)

	key := cache.Key(p.Lat, p.Lng, radiusMeters, string(profile.Industry), p.Trade)

	if !p.NoCache {
		if resp := s.readCache(ctx, key, log); resp != nil {
			return resp, nil
		}
	}

	metered := p.OrgID != ""
	if metered {
		if err := s.checkQuota(ctx, p.OrgID); err != nil {
			return nil, err
		}
	}

	result, err := s.dispatch(ctx, p, profile, filters, radiusMeters)
	if err != nil {
		// Internal failures never surface as a 5xx; the client gets a
		// valid empty payload and the error stays in the logs.
		log.Error("builder failed, returning empty result", zap.Error(err))
		return s.emptyResponse(p, profile), nil
	}

	cluster.AnnotateNearby(result.leads)
	clusters := cluster.Build(result.leads)

	resp := &Response{
		Leads:       lead.Collection(result.leads),
		Storms:      lead.StormCollection(result.storms),
		Permits:     lead.PermitCollection(result.permits),
		CensusStats: result.censusStats,
		Meta: Meta{
			Industry:    string(profile.Industry),
			Trade:       p.Trade,
			Center:      [2]float64{p.Lng, p.Lat},
			RadiusMiles: p.RadiusMiles,
			MaxResults:  s.cfg.MaxResults,
			ResultCount: len(result.leads),
			Cached:      false,
			Timestamp:   s.now().UTC(),
			CensusStats: result.censusStats,
		},
	}
	if fc := cluster.Neighborhoods(clusters); len(fc.Features) > 0 {
		resp.Neighborhoods = fc
	}

	s.writeCache(ctx, key, resp, log)

	if metered {
		if _, err := s.deps.Store.IncrCounter(ctx, cache.CounterKey(p.OrgID, s.now()), counterTTL(s.now())); err != nil {
			log.Warn("usage counter increment failed", zap.Error(err))
		}
	}

	log.Info("search complete", zap.Int("leads", len(result.leads)), zap.Int("clusters", len(clusters)))
	return resp, nil
}

// normalize silently repairs out-of-range inputs instead of rejecting them.
func (s *Service) normalize(p Params) Params {
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 || (p.Lat == 0 && p.Lng == 0) {
		p.Lat = s.cfg.DefaultLat
		p.Lng = s.cfg.DefaultLng
	}
	maxMiles := scoring.ProfileFor(p.Industry).MaxRadiusMiles
	if p.RadiusMiles <= 0 || p.RadiusMiles > maxMiles {
		p.RadiusMiles = maxMiles
	}
	return p
}

func (s *Service) checkQuota(ctx context.Context, orgID string) error {
	limit := int64(s.cfg.DailyLimit)
	if limit <= 0 {
		return nil
	}

	n, err := s.deps.Store.GetCounter(ctx, cache.CounterKey(orgID, s.now()))
	if err != nil {
		// A broken counter store should not take searches down with it.
		zap.L().Warn("quota lookup failed, allowing request", zap.Error(err))
		return nil
	}
	if n >= limit {
		return &QuotaError{Limit: limit, Remaining: 0, ResetAt: nextUTCMidnight(s.now())}
	}
	return nil
}

func (s *Service) readCache(ctx context.Context, key string, log *zap.Logger) *Response {
	data, ok, err := s.deps.Store.Get(ctx, key)
	if err != nil {
		log.Warn("cache read failed", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		log.Warn("cache entry unreadable, recomputing", zap.Error(err))
		return nil
	}
	resp.Meta.Cached = true
	log.Debug("cache hit", zap.String("key", key[:12]))
	return &resp
}

func (s *Service) writeCache(ctx context.Context, key string, resp *Response, log *zap.Logger) {
	data, err := json.Marshal(resp)
	if err != nil {
		log.Warn("cache marshal failed", zap.Error(err))
		return
	}
	ttl := time.Duration(s.cfg.CacheTTLHours) * time.Hour
	if err := s.deps.Store.Set(ctx, key, data, ttl); err != nil {
		log.Warn("cache write failed", zap.Error(err))
	}

	// Opportunistic expiry sweep; never blocks or fails the request.
	go func() {
		sweepCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := s.deps.Store.Sweep(sweepCtx); err != nil {
			zap.L().Debug("cache sweep failed", zap.Error(err))
		}
	}()
}

func (s *Service) emptyResponse(p Params, profile scoring.Profile) *Response {
	return &Response{
		Leads:   geojson.NewFeatureCollection(),
		Storms:  geojson.NewFeatureCollection(),
		Permits: geojson.NewFeatureCollection(),
		Meta: Meta{
			Industry:    string(profile.Industry),
			Trade:       p.Trade,
			Center:      [2]float64{p.Lng, p.Lat},
			RadiusMiles: p.RadiusMiles,
			MaxResults:  s.cfg.MaxResults,
			ResultCount: 0,
			Cached:      false,
			Timestamp:   s.now().UTC(),
		},
	}
}

// PlaceDetails proxies a single place lookup for the detail panel.
func (s *Service) PlaceDetails(ctx context.Context, placeID string) (*places.Place, error) {
	if placeID == "" {
		return nil, eris.New("radar: place id is required")
	}
	return s.deps.Places.PlaceDetails(ctx, placeID)
}

// StreetViewAvailable reports whether imagery exists at a point.
func (s *Service) StreetViewAvailable(ctx context.Context, lat, lng float64) (bool, error) {
	return s.deps.Places.StreetViewAvailable(ctx, lat, lng)
}

func nextUTCMidnight(now time.Time) time.Time {
	t := now.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
}

// counterTTL keeps day-keyed counters alive just past their day.
func counterTTL(now time.Time) time.Duration {
	return time.Until(nextUTCMidnight(now)) + time.Hour
}

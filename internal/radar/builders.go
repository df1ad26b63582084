package radar

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/revenue-radar/internal/geo"
	"github.com/sells-group/revenue-radar/internal/lead"
	"github.com/sells-group/revenue-radar/internal/scoring"
	"github.com/sells-group/revenue-radar/pkg/census"
	"github.com/sells-group/revenue-radar/pkg/geocode"
	"github.com/sells-group/revenue-radar/pkg/places"
)

// placesPageSize is the Places API maximum page size.
const placesPageSize = 20

// permitProbability is the estimated share of sampled residential points
// with recent permit activity nearby. Drawn from the same seeded RNG as the
// point lattice so it is reproducible per search center.
const permitProbability = 0.15

type buildResult struct {
	leads       []lead.ScoredLead
	storms      []lead.StormEvent
	permits     []lead.Permit
	censusStats *CensusStats
}

// dispatch maps the industry's builder kind to a strategy. Unrecognized
// industries already resolved to the residential profile upstream.
func (s *Service) dispatch(ctx context.Context, p Params, profile scoring.Profile, filters scoring.Filters, radiusMeters float64) (*buildResult, error) {
	switch profile.Kind {
	case scoring.KindPlaces:
		return s.buildPlaces(ctx, p, profile, filters, radiusMeters)
	case scoring.KindPhotographer:
		return s.buildPhotographer(ctx, p, profile, filters, radiusMeters)
	default:
		return s.buildResidential(ctx, p, filters, radiusMeters)
	}
}

// buildPlaces pages through a Places text search and scores each business
// against the industry profile.
func (s *Service) buildPlaces(ctx context.Context, p Params, profile scoring.Profile, filters scoring.Filters, radiusMeters float64) (*buildResult, error) {
	candidates, err := s.fetchPlaces(ctx, profile.Query, p, radiusMeters)
	if err != nil {
		return nil, err
	}

	var leads []lead.ScoredLead
	for _, place := range candidates {
		l := scoring.ScorePlace(place, profile, filters)
		if l == nil {
			continue
		}
		if geo.Distance(p.Lat, p.Lng, l.Lat, l.Lng) > radiusMeters {
			continue
		}
		leads = append(leads, *l)
	}

	return &buildResult{leads: s.sortAndCap(leads)}, nil
}

// buildPhotographer searches venues and scores them against the niche
// profile named by the trade parameter.
func (s *Service) buildPhotographer(ctx context.Context, p Params, profile scoring.Profile, filters scoring.Filters, radiusMeters float64) (*buildResult, error) {
	niche := scoring.NicheProfileFor(p.Trade)

	candidates, err := s.fetchPlaces(ctx, profile.Query, p, radiusMeters)
	if err != nil {
		return nil, err
	}

	var leads []lead.ScoredLead
	for _, place := range candidates {
		l := scoring.ScorePhotographer(place, niche, filters)
		if l == nil {
			continue
		}
		if geo.Distance(p.Lat, p.Lng, l.Lat, l.Lng) > radiusMeters {
			continue
		}
		leads = append(leads, *l)
	}

	return &buildResult{leads: s.sortAndCap(leads)}, nil
}

// fetchPlaces pages through text-search results until the result cap or the
// last page.
func (s *Service) fetchPlaces(ctx context.Context, query string, p Params, radiusMeters float64) ([]places.Place, error) {
	var out []places.Place
	pageToken := ""
	for {
		resp, err := s.deps.Places.TextSearch(ctx, places.TextSearchRequest{
			TextQuery:  query,
			PageToken:  pageToken,
			MaxResults: placesPageSize,
			LocationBias: &places.CircleB{Circle: places.Circle{
				Center: places.LatLng{Latitude: p.Lat, Longitude: p.Lng},
				Radius: radiusMeters,
			}},
		})
		if err != nil {
			return nil, eris.Wrap(err, "radar: places search")
		}
		out = append(out, resp.Places...)
		if resp.NextPageToken == "" || len(out) >= s.cfg.MaxResults {
			return out, nil
		}
		pageToken = resp.NextPageToken
	}
}

// buildResidential samples a deterministic point lattice inside the radius,
// resolves each point to a census tract, loads ACS and storm context
// concurrently, and scores every sample.
func (s *Service) buildResidential(ctx context.Context, p Params, filters scoring.Filters, radiusMeters float64) (*buildResult, error) {
	trade := scoring.TradeProfileFor(p.Trade)

	rng := geo.NewRand(geo.SeedForCenter(p.Lat, p.Lng))
	n := s.cfg.MaxResults
	points := make([]geocode.Point, n)
	permitDraws := make([]bool, n)
	for i := 0; i < n; i++ {
		lng, lat := geo.RandomPointInRadius(p.Lng, p.Lat, radiusMeters, rng)
		points[i] = geocode.Point{Lat: lat, Lng: lng}
		permitDraws[i] = rng.Float64() < permitProbability
	}

	assignments, err := s.assignTracts(ctx, points)
	if err != nil {
		return nil, err
	}

	counties := countiesFrom(assignments)

	var tractData map[string]census.TractData
	var stormEvents []lead.StormEvent

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := s.deps.Census.TractsForCounties(gctx, counties)
		if err != nil {
			return eris.Wrap(err, "radar: census load")
		}
		tractData = data
		return nil
	})
	g.Go(func() error {
		events, err := s.deps.Storms.EventsNear(gctx, p.Lat, p.Lng, radiusMeters)
		if err != nil {
			// Storm data is one signal among several; a storms outage
			// degrades scoring rather than failing the search.
			zap.L().Warn("storm lookup failed, continuing without storm signal", zap.Error(err))
			return nil
		}
		for _, e := range events {
			stormEvents = append(stormEvents, lead.StormEvent{
				ID: e.ID, Lat: e.Lat, Lng: e.Lng, Type: e.Type, Date: e.Date,
			})
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	currentYear := s.now().Year()
	matched := 0
	var leads []lead.ScoredLead
	var permits []lead.Permit
	for i, pt := range points {
		in := scoring.ResidentialInput{
			Lat:            pt.Lat,
			Lng:            pt.Lng,
			Storms:         stormEvents,
			PermitActivity: permitDraws[i],
		}
		if a := assignments[i]; a.Matched {
			matched++
			if td, ok := tractData[a.TractGEOID]; ok {
				in.Tract = &lead.CensusTractData{
					TractID:          td.GEOID,
					MedianYearBuilt:  td.MedianYearBuilt,
					MedianIncome:     td.MedianIncome,
					OwnerOccupiedPct: td.OwnerOccupiedPct,
					HousingUnits:     td.HousingUnits,
				}
			}
			in.State = a.State
		}

		l := scoring.ScoreResidential(in, trade, filters, currentYear)
		if l.Score <= 0 {
			continue
		}
		leads = append(leads, *l)
		if l.PermitActivity {
			permits = append(permits, lead.Permit{
				ID:     uuid.NewString(),
				Lat:    pt.Lat,
				Lng:    pt.Lng,
				Type:   fmt.Sprintf("%s permit", trade.Trade),
				Issued: s.now().UTC().AddDate(0, -1, 0),
			})
		}
	}

	stats := &CensusStats{
		Counties:      len(counties),
		Tracts:        len(tractData),
		MatchedPoints: matched,
		SampledPoints: n,
	}

	return &buildResult{
		leads:       s.sortAndCap(leads),
		storms:      stormEvents,
		permits:     permits,
		censusStats: stats,
	}, nil
}

// assignTracts prefers the local TIGER index and falls back to the Census
// geocoder batch endpoint.
func (s *Service) assignTracts(ctx context.Context, points []geocode.Point) ([]geocode.TractResult, error) {
	if s.deps.Tracts != nil {
		results := make([]geocode.TractResult, len(points))
		for i, pt := range points {
			geoid, county, ok := s.deps.Tracts.Lookup(pt.Lat, pt.Lng)
			results[i] = geocode.TractResult{TractGEOID: geoid, CountyFIPS: county, Matched: ok}
		}
		return results, nil
	}

	results, err := s.deps.Geocode.BatchTracts(ctx, points)
	if err != nil {
		return nil, eris.Wrap(err, "radar: batch tract lookup")
	}
	return results, nil
}

// countiesFrom collects the distinct counties covering the matched points.
func countiesFrom(assignments []geocode.TractResult) []census.County {
	seen := map[string]bool{}
	var counties []census.County
	for _, a := range assignments {
		if !a.Matched || len(a.CountyFIPS) < 5 || seen[a.CountyFIPS] {
			continue
		}
		seen[a.CountyFIPS] = true
		counties = append(counties, census.County{
			StateFIPS:  a.CountyFIPS[:2],
			CountyFIPS: a.CountyFIPS[2:5],
		})
	}
	return counties
}

// sortAndCap orders leads descending by score and trims to the result cap.
// sort.SliceStable keeps upstream iteration order for ties.
func (s *Service) sortAndCap(leads []lead.ScoredLead) []lead.ScoredLead {
	sort.SliceStable(leads, func(i, j int) bool {
		return leads[i].Score > leads[j].Score
	})
	if len(leads) > s.cfg.MaxResults {
		leads = leads[:s.cfg.MaxResults]
	}
	return leads
}

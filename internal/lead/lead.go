// Package lead defines the candidate records produced by a radar search and
// their GeoJSON representations.
package lead

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ScoredLead is one candidate prospect or property surfaced by a search. Leads
// live only for the duration of a request; results are cached as payload blobs,
// never persisted as rows.
type ScoredLead struct {
	ID      string  `json:"id"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Name    string  `json:"name,omitempty"`
	Address string  `json:"address,omitempty"`
	City    string  `json:"city,omitempty"`
	State   string  `json:"state,omitempty"`

	// Business fields (places-based and photographer builders).
	PlaceID     string  `json:"place_id,omitempty"`
	Category    string  `json:"category,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	ReviewCount int     `json:"review_count,omitempty"`
	Website     string  `json:"website,omitempty"`
	Phone       string  `json:"phone,omitempty"`

	// Residential fields.
	TractID          string `json:"tract_id,omitempty"`
	PropertyAge      int    `json:"property_age,omitempty"`
	MedianYearBuilt  int    `json:"median_year_built,omitempty"`
	MedianIncome     int    `json:"median_income,omitempty"`
	OwnerOccupiedPct int    `json:"owner_occupied_pct,omitempty"`
	StormHit         bool   `json:"storm_hit,omitempty"`
	PermitActivity   bool   `json:"permit_activity,omitempty"`

	// Score in [0, 10], its justification, and the dominant signal.
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
	Trigger string   `json:"trigger,omitempty"`

	// Derived after the full batch is scored.
	NearbyCount int    `json:"nearby_count"`
	ClusterID   string `json:"cluster_id,omitempty"`
}

// StormEvent is a severe-weather event used as a proximity signal.
type StormEvent struct {
	ID   string    `json:"id"`
	Lat  float64   `json:"lat"`
	Lng  float64   `json:"lng"`
	Type string    `json:"type"`
	Date time.Time `json:"date"`
}

// CensusTractData carries the ACS variables for one census tract.
type CensusTractData struct {
	TractID          string `json:"tract_id"`
	MedianYearBuilt  int    `json:"median_year_built"`
	MedianIncome     int    `json:"median_income"`
	OwnerOccupiedPct int    `json:"owner_occupied_pct"`
	HousingUnits     int    `json:"housing_units"`
}

// Permit is an estimated building-permit activity marker.
type Permit struct {
	ID     string    `json:"id"`
	Lat    float64   `json:"lat"`
	Lng    float64   `json:"lng"`
	Type   string    `json:"type"`
	Issued time.Time `json:"issued"`
}

// Feature converts the lead to a GeoJSON point feature.
func (l *ScoredLead) Feature() *geojson.Feature {
	f := geojson.NewFeature(orb.Point{l.Lng, l.Lat})
	f.ID = l.ID
	f.Properties = geojson.Properties{
		"id":           l.ID,
		"score":        l.Score,
		"reasons":      l.Reasons,
		"nearby_count": l.NearbyCount,
	}
	setIfNotZero(f.Properties, "name", l.Name)
	setIfNotZero(f.Properties, "address", l.Address)
	setIfNotZero(f.Properties, "city", l.City)
	setIfNotZero(f.Properties, "state", l.State)
	setIfNotZero(f.Properties, "place_id", l.PlaceID)
	setIfNotZero(f.Properties, "category", l.Category)
	setIfNotZero(f.Properties, "website", l.Website)
	setIfNotZero(f.Properties, "phone", l.Phone)
	setIfNotZero(f.Properties, "tract_id", l.TractID)
	setIfNotZero(f.Properties, "trigger", l.Trigger)
	setIfNotZero(f.Properties, "cluster_id", l.ClusterID)
	if l.Rating > 0 {
		f.Properties["rating"] = l.Rating
		f.Properties["review_count"] = l.ReviewCount
	}
	if l.MedianYearBuilt > 0 {
		f.Properties["median_year_built"] = l.MedianYearBuilt
		f.Properties["property_age"] = l.PropertyAge
	}
	if l.MedianIncome > 0 {
		f.Properties["median_income"] = l.MedianIncome
	}
	if l.OwnerOccupiedPct > 0 {
		f.Properties["owner_occupied_pct"] = l.OwnerOccupiedPct
	}
	if l.StormHit {
		f.Properties["storm_hit"] = true
	}
	if l.PermitActivity {
		f.Properties["permit_activity"] = true
	}
	return f
}

// Collection converts a lead slice to a GeoJSON FeatureCollection. A nil or
// empty slice yields a valid, empty collection.
func Collection(leads []ScoredLead) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i := range leads {
		fc.Append(leads[i].Feature())
	}
	return fc
}

// StormCollection converts storm events to a GeoJSON FeatureCollection.
func StormCollection(storms []StormEvent) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, s := range storms {
		f := geojson.NewFeature(orb.Point{s.Lng, s.Lat})
		f.ID = s.ID
		f.Properties = geojson.Properties{
			"id":   s.ID,
			"type": s.Type,
			"date": s.Date.Format(time.RFC3339),
		}
		fc.Append(f)
	}
	return fc
}

// PermitCollection converts permits to a GeoJSON FeatureCollection.
func PermitCollection(permits []Permit) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range permits {
		f := geojson.NewFeature(orb.Point{p.Lng, p.Lat})
		f.ID = p.ID
		f.Properties = geojson.Properties{
			"id":     p.ID,
			"type":   p.Type,
			"issued": p.Issued.Format(time.RFC3339),
		}
		fc.Append(f)
	}
	return fc
}

func setIfNotZero(props geojson.Properties, key, val string) {
	if val != "" {
		props[key] = val
	}
}

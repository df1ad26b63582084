// Package cluster groups scored leads that sit close together into
// neighborhood aggregates and annotates each lead with its local density.
package cluster

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/sells-group/revenue-radar/internal/geo"
	"github.com/sells-group/revenue-radar/internal/lead"
)

// NearbyRadiusMeters is the radius used both for the nearby-count pass and as
// the greedy clustering threshold (~0.3 miles). The two were historically
// separate constants in different unit systems that approximated the same
// real-world distance; they are consolidated here.
const NearbyRadiusMeters = 483.0

// Cluster is a set of nearby leads collapsed into one map aggregate.
type Cluster struct {
	ID        string
	CenterLat float64
	CenterLng float64
	// Members indexes into the lead slice the cluster was built from.
	Members  []int
	AvgScore float64
}

// AnnotateNearby sets NearbyCount on every lead: the number of other leads
// within NearbyRadiusMeters. Pairwise O(n²), acceptable because result sets
// are capped by configuration.
func AnnotateNearby(leads []lead.ScoredLead) {
	for i := range leads {
		count := 0
		for j := range leads {
			if i == j {
				continue
			}
			if geo.Distance(leads[i].Lat, leads[i].Lng, leads[j].Lat, leads[j].Lng) <= NearbyRadiusMeters {
				count++
			}
		}
		leads[i].NearbyCount = count
	}
}

// Build greedily assigns every lead to exactly one cluster: a lead joins the
// first existing cluster whose seed point is within NearbyRadiusMeters,
// otherwise it seeds a new one. Iteration order is the input order, so a
// score-sorted input seeds clusters around the strongest leads. Each lead's
// ClusterID is set in place; single-member clusters are reported as
// singletons.
func Build(leads []lead.ScoredLead) []Cluster {
	var clusters []Cluster

	for i := range leads {
		assigned := false
		for c := range clusters {
			seed := clusters[c].Members[0]
			if geo.Distance(leads[i].Lat, leads[i].Lng, leads[seed].Lat, leads[seed].Lng) <= NearbyRadiusMeters {
				clusters[c].Members = append(clusters[c].Members, i)
				assigned = true
				break
			}
		}
		if !assigned {
			clusters = append(clusters, Cluster{
				ID:      fmt.Sprintf("cluster-%d", len(clusters)+1),
				Members: []int{i},
			})
		}
	}

	for c := range clusters {
		var sumLat, sumLng, sumScore float64
		for _, m := range clusters[c].Members {
			sumLat += leads[m].Lat
			sumLng += leads[m].Lng
			sumScore += leads[m].Score
			leads[m].ClusterID = clusters[c].ID
		}
		n := float64(len(clusters[c].Members))
		clusters[c].CenterLat = sumLat / n
		clusters[c].CenterLng = sumLng / n
		clusters[c].AvgScore = sumScore / n
	}

	return clusters
}

// Neighborhoods renders multi-member clusters as a GeoJSON FeatureCollection
// of circular polygons around each centroid. Singletons are excluded; they
// are represented only in the leads collection.
func Neighborhoods(clusters []Cluster) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, c := range clusters {
		if len(c.Members) < 2 {
			continue
		}
		f := geojson.NewFeature(circlePolygon(c.CenterLat, c.CenterLng, NearbyRadiusMeters))
		f.ID = c.ID
		f.Properties = geojson.Properties{
			"id":         c.ID,
			"lead_count": len(c.Members),
			"avg_score":  math.Round(c.AvgScore*10) / 10,
			"center":     []float64{c.CenterLng, c.CenterLat},
		}
		fc.Append(f)
	}
	return fc
}

// circlePolygon approximates a circle with a 24-vertex ring, correcting the
// degree deltas for latitude.
func circlePolygon(lat, lng, radiusMeters float64) orb.Polygon {
	const segments = 24

	latRad := lat * math.Pi / 180
	metersPerDegLat := 111132.92 - 559.82*math.Cos(2*latRad)
	metersPerDegLng := 111412.84 * math.Cos(latRad)

	ring := make(orb.Ring, 0, segments+1)
	for i := 0; i <= segments; i++ {
		theta := 2 * math.Pi * float64(i) / segments
		dLng := radiusMeters * math.Cos(theta) / metersPerDegLng
		dLat := radiusMeters * math.Sin(theta) / metersPerDegLat
		ring = append(ring, orb.Point{lng + dLng, lat + dLat})
	}
	return orb.Polygon{ring}
}

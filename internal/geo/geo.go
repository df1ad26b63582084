// Package geo provides the geographic math used by the radar pipeline:
// great-circle distance, unit conversion, and area-uniform point sampling.
package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used for haversine distance.
const EarthRadiusMeters = 6371000.0

// MetersPerMile is the exact international mile in meters.
const MetersPerMile = 1609.344

// MilesToMeters converts miles to meters.
func MilesToMeters(miles float64) float64 {
	return miles * MetersPerMile
}

// MetersToMiles converts meters to miles.
func MetersToMiles(meters float64) float64 {
	return meters / MetersPerMile
}

// Distance returns the great-circle (haversine) distance in meters between
// two points given in degrees. It is symmetric and zero for identical points.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// RandomPointInRadius samples a point uniformly by area within radiusMeters of
// the center, returning (lng, lat). The radial coordinate uses r = R*sqrt(u) so
// samples do not pile up near the center, and degree deltas are corrected for
// the meters-per-degree at the center latitude.
func RandomPointInRadius(centerLng, centerLat, radiusMeters float64, rng *Rand) (lng, lat float64) {
	r := radiusMeters * math.Sqrt(rng.Float64())
	theta := 2 * math.Pi * rng.Float64()

	latRad := centerLat * math.Pi / 180
	metersPerDegLat := 111132.92 - 559.82*math.Cos(2*latRad)
	metersPerDegLng := 111412.84 * math.Cos(latRad)

	dx := r * math.Cos(theta)
	dy := r * math.Sin(theta)

	return centerLng + dx/metersPerDegLng, centerLat + dy/metersPerDegLat
}

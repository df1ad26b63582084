package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMilesToMeters(t *testing.T) {
	assert.InDelta(t, 1609.344, MilesToMeters(1), 0.0001)
	assert.InDelta(t, 804.672, MilesToMeters(0.5), 0.0001)
	assert.Zero(t, MilesToMeters(0))
}

func TestMetersToMilesRoundTrip(t *testing.T) {
	assert.InDelta(t, 10.0, MetersToMiles(MilesToMeters(10)), 1e-9)
}

func TestDistanceZeroForIdenticalPoints(t *testing.T) {
	assert.Zero(t, Distance(39.4143, -77.4105, 39.4143, -77.4105))
}

func TestDistanceSymmetric(t *testing.T) {
	d1 := Distance(39.4143, -77.4105, 38.9072, -77.0369)
	d2 := Distance(38.9072, -77.0369, 39.4143, -77.4105)
	assert.InDelta(t, d1, d2, 1e-9)
}

func TestDistanceKnownPairs(t *testing.T) {
	// Frederick MD to Washington DC is roughly 65 km.
	d := Distance(39.4143, -77.4105, 38.9072, -77.0369)
	assert.InDelta(t, 65000, d, 2000)

	// One degree of latitude at the equator is ~111.19 km with R=6371km.
	d = Distance(0, 0, 1, 0)
	assert.InDelta(t, 111195, d, 50)
}

func TestDistanceShortRange(t *testing.T) {
	// ~483m north of the reference point.
	d := Distance(39.4143, -77.4105, 39.41865, -77.4105)
	assert.InDelta(t, 483, d, 5)
}

func TestRandDeterministic(t *testing.T) {
	a := NewRand(12345)
	b := NewRand(12345)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestRandRange(t *testing.T) {
	r := NewRand(98765)
	for i := 0; i < 1000; i++ {
		v := r.Float64()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestSeedForCenter(t *testing.T) {
	assert.Equal(t, int64(math.Floor(39.4143*1000-77.4105*100)), SeedForCenter(39.4143, -77.4105))
	// Nearby but distinct centers get distinct seeds.
	assert.NotEqual(t, SeedForCenter(39.4143, -77.4105), SeedForCenter(39.5143, -77.4105))
}

func TestRandomPointInRadiusDeterministic(t *testing.T) {
	seed := SeedForCenter(39.4143, -77.4105)
	a := NewRand(seed)
	b := NewRand(seed)

	for i := 0; i < 50; i++ {
		lngA, latA := RandomPointInRadius(-77.4105, 39.4143, 16093.44, a)
		lngB, latB := RandomPointInRadius(-77.4105, 39.4143, 16093.44, b)
		assert.Equal(t, lngA, lngB)
		assert.Equal(t, latA, latB)
	}
}

func TestRandomPointInRadiusStaysInside(t *testing.T) {
	rng := NewRand(SeedForCenter(39.4143, -77.4105))
	radius := MilesToMeters(10)

	for i := 0; i < 500; i++ {
		lng, lat := RandomPointInRadius(-77.4105, 39.4143, radius, rng)
		d := Distance(39.4143, -77.4105, lat, lng)
		// Degree-delta approximation introduces a small error at the rim.
		assert.LessOrEqual(t, d, radius*1.01)
	}
}

func TestRandomPointInRadiusAreaUniform(t *testing.T) {
	// With r = R*sqrt(u), about a quarter of the samples should land within
	// half the radius. Angle-uniform sampling would put half of them there.
	rng := NewRand(42)
	radius := MilesToMeters(10)

	inner := 0
	const n = 2000
	for i := 0; i < n; i++ {
		lng, lat := RandomPointInRadius(-77.4105, 39.4143, radius, rng)
		if Distance(39.4143, -77.4105, lat, lng) < radius/2 {
			inner++
		}
	}

	ratio := float64(inner) / n
	assert.InDelta(t, 0.25, ratio, 0.05)
}

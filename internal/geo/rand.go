package geo

import "math"

// lcg constants, the classic glibc parameters. Distribution quality is not a
// concern here; the generator only needs to be reproducible for a given seed.
const (
	lcgMultiplier = 1103515245
	lcgIncrement  = 12345
	lcgModulus    = 1 << 31
)

// Rand is a deterministic linear congruential generator. Identical seeds
// produce identical sequences, which keeps the sampled candidate lattice for a
// search center stable across requests and therefore cache-consistent.
type Rand struct {
	state int64
}

// NewRand returns a generator seeded with the given value.
func NewRand(seed int64) *Rand {
	return &Rand{state: seed % lcgModulus}
}

// SeedForCenter derives the canonical seed for a search center. Two requests
// for the same (rounded) center must generate the same candidate points.
func SeedForCenter(lat, lng float64) int64 {
	return int64(math.Floor(lat*1000 + lng*100))
}

// Float64 returns the next value in [0, 1).
func (r *Rand) Float64() float64 {
	r.state = (r.state*lcgMultiplier + lcgIncrement) % lcgModulus
	if r.state < 0 {
		r.state += lcgModulus
	}
	return float64(r.state) / float64(lcgModulus)
}

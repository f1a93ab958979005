package eew

import "math/rand"

// RNG is the single seedable random source consumed by the station
// growth loop and the tracker. It is never touched by pure read
// operations: the tracker draws its initial perturbation from it when a
// scenario is created or reset, and Driver.Tick draws from it for station
// growth and revision steps.
type RNG struct {
	r *rand.Rand
}

// NewRNG returns an RNG seeded with the given value. Two RNGs built from the
// same seed draw identical sequences, which is what makes scenario replay
// deterministic in tests.
func NewRNG(seed uint64) *RNG {
	return &RNG{r: rand.New(rand.NewSource(int64(seed)))}
}

// Uniform returns a float64 drawn uniformly from [lo, hi).
func (g *RNG) Uniform(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + g.r.Float64()*(hi-lo)
}

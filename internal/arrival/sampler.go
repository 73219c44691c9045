package arrival

import (
	"math"
	"math/rand"
)

// NextArrival samples the next arrival time at or after t via thinning
// against the curve's envelope, within the window [t, t+horizon). Returns
// +Inf if the curve's max rate is non-positive or the horizon is
// exhausted before a candidate is accepted.
//
// Both u and d are drawn strictly from (0, 1] to avoid log(0); rng must be
// a single RNG owned by the caller (the passenger controller) so sampling
// stays reproducible under a fixed seed.
func NextArrival(rng *rand.Rand, curve *Curve, t, horizon float64) float64 {
	maxRate := curve.MaxRate()
	if maxRate <= 0 {
		return math.Inf(1)
	}
	limit := t + horizon
	cur := t
	for {
		u := positiveUnit(rng)
		w := -math.Log(u) / maxRate
		cur += w
		if cur >= limit {
			return math.Inf(1)
		}
		d := positiveUnit(rng)
		if d <= curve.Rate(cur)/maxRate {
			return cur
		}
	}
}

// positiveUnit draws a float64 in (0, 1], never exactly 0.
func positiveUnit(rng *rand.Rand) float64 {
	v := rng.Float64()
	for v == 0 {
		v = rng.Float64()
	}
	return v
}

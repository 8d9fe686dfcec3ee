package learner

import (
	"math"
	"math/rand/v2"
	"time"
)

// maxResample bounds rejection sampling; after that the draw is clamped.
const maxResample = 1000

func gauss(r *rand.Rand, mean, sd float64) float64 {
	return r.NormFloat64()*sd + mean
}

// boundedGauss draws from N(mean, sd) until the sample lands in [lo, hi].
func boundedGauss(r *rand.Rand, mean, sd, lo, hi float64) float64 {
	var v float64
	for i := 0; i < maxResample; i++ {
		v = gauss(r, mean, sd)
		if v >= lo && v <= hi {
			return v
		}
	}
	return clamp(v, lo, hi)
}

// gaussAbove draws from N(mean, sd) until the sample exceeds floor.
func gaussAbove(r *rand.Rand, mean, sd, floor float64) float64 {
	for i := 0; i < maxResample; i++ {
		if v := gauss(r, mean, sd); v > floor {
			return v
		}
	}
	return floor + sd
}

// Triangular samples a triangular distribution on [lo, hi] with the given mode.
func Triangular(r *rand.Rand, lo, hi, mode float64) float64 {
	if hi <= lo {
		return lo
	}
	u := r.Float64()
	c := (mode - lo) / (hi - lo)
	if u < c {
		return lo + math.Sqrt(u*(hi-lo)*(mode-lo))
	}
	return hi - math.Sqrt((1-u)*(hi-lo)*(hi-mode))
}

func bernoulli(r *rand.Rand, p float64) bool {
	return r.Float64() < p
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

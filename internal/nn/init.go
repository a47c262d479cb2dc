package nn

import (
	"math"
	"math/rand/v2"
)

// newRand returns a generator seeded with seed, or a randomly seeded one if
// seed is 0.
func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		//nolint:gosec // Weight initialization is not security-critical
		seed = rand.Uint64()
	}
	//nolint:gosec // Weight initialization is not security-critical
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Xavier returns n values drawn from the Xavier (Glorot) uniform
// distribution U(-sqrt(6/(fanIn+fanOut)), sqrt(6/(fanIn+fanOut))).
func Xavier(fanIn, fanOut, n int, rng *rand.Rand) []float32 {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	values := make([]float32, n)
	for i := range values {
		values[i] = float32((rng.Float64()*2.0 - 1.0) * bound)
	}
	return values
}

// Package randutil builds reproducible generators from integer seeds.
package randutil

import rand "math/rand/v2"

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a PCG generator for seed. Nearby seeds give unrelated
// sequences, so callers may hand out seed, seed+1, ... to independent workers.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(splitmix(u), splitmix(u+goldenRatio64)))
}

// Fork draws a seed from r and returns a new generator for it. The child
// shares no state with r.
func Fork(r *rand.Rand) *rand.Rand {
	return New(r.Int64())
}

// splitmix is the SplitMix64 finaliser.
func splitmix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

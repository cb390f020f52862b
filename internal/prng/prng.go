// Package prng provides a small seeded pseudo-random generator whose output
// is a pure function of a string seed.
//
// The generator hashes the seed with 32-bit FNV-1a and then steps a
// Mulberry32 state. Every operation is performed on uint32 so sequences are
// identical on every platform.
package prng

const (
	fnvOffset = 2166136261
	fnvPrime  = 16777619
	increment = 0x6D2B79F5
)

// Hash returns the 32-bit FNV-1a hash of the bytes of s.
func Hash(s string) uint32 {
	var h uint32 = fnvOffset
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}

// New returns a generator of floats in [0,1) seeded from seed.
// Two generators built from the same seed yield the same sequence.
func New(seed string) func() float64 {
	state := Hash(seed)
	if state == 0 {
		state = 1
	}
	return func() float64 {
		state += increment
		t := (state ^ state>>15) * (1 | state)
		t ^= t + (t^t>>7)*(61|t)
		return float64(t^t>>14) / 4294967296
	}
}

// Intn returns floor(next()*n), the usual way of drawing an index from a
// generator returned by New. n must be positive.
func Intn(next func() float64, n int) int {
	return int(next() * float64(n))
}

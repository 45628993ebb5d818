package core

import "math/rand/v2"

// RNG is a thin convenience wrapper around math/rand/v2 for deterministic seeding.
type RNG struct {
	src *rand.PCG
	r   *rand.Rand
}

// NewRNG creates a deterministic RNG using the provided seed.
func NewRNG(seed int64) *RNG {
	src := rand.NewPCG(uint64(seed), 0)
	return &RNG{src: src, r: rand.New(src)}
}

// IntN returns a random int in [0, n). It returns 0 when n <= 0.
func (r *RNG) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return r.r.IntN(n)
}

// Float64 returns a random float in [0, 1).
func (r *RNG) Float64() float64 { return r.r.Float64() }

// Uint64 returns a random 64-bit value.
func (r *RNG) Uint64() uint64 { return r.r.Uint64() }

// Uint32 returns a random 32-bit value.
func (r *RNG) Uint32() uint32 { return r.r.Uint32() }

// Shuffle permutes n elements using the provided swap function.
func (r *RNG) Shuffle(n int, swap func(i, j int)) { r.r.Shuffle(n, swap) }

// Split derives an independent stream. The parent advances by two draws, so
// splitting is itself deterministic.
func (r *RNG) Split() *RNG {
	src := rand.NewPCG(r.r.Uint64(), r.r.Uint64())
	return &RNG{src: src, r: rand.New(src)}
}

// Source exposes the underlying generator for libraries that accept a
// rand.Source. Draws made through it advance this RNG.
func (r *RNG) Source() rand.Source { return r.src }

// Rand exposes the underlying rand.Rand for advanced use.
func (r *RNG) Rand() *rand.Rand { return r.r }

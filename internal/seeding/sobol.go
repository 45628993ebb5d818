package seeding

import (
	"math/bits"

	"mmas/internal/core"
)

// sobolBits is the output resolution of the net. 2^30 cells is far beyond any
// lattice the simulator can hold in memory.
const sobolBits = 30

// sobolNet returns the 2^m points of the one-dimensional Sobol sequence in
// Gray-code order, scrambled with a random lower-triangular linear matrix and
// a random digital shift. The first dimension of Sobol uses the identity
// direction numbers, so scrambling only needs to fill the bits below each
// diagonal entry.
func sobolNet(m int, rng *core.RNG) []float64 {
	n := 1 << m
	mask := uint32(1)<<sobolBits - 1

	var dir [sobolBits]uint32
	for k := 0; k < sobolBits; k++ {
		lead := uint32(1) << (sobolBits - 1 - k)
		below := lead - 1
		dir[k] = lead | (rng.Uint32() & below)
	}
	shift := rng.Uint32() & mask

	out := make([]float64, n)
	x := shift
	scale := 1.0 / float64(uint32(1)<<sobolBits)
	out[0] = float64(x) * scale
	for i := 1; i < n; i++ {
		c := bits.TrailingZeros(uint(i))
		x ^= dir[c]
		out[i] = float64(x) * scale
	}
	return out
}

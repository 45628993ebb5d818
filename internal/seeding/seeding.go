// Package seeding places grain nuclei on a lattice.
//
// Pseudo draws linear indices directly; the low-discrepancy methods emit
// points in [0,1) that are scaled by cols*rows, truncated to a linear index
// and unfolded row-major into (x, y). Seeds are stamped in generation order so
// seed k owns label k+1.
package seeding

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/samplemv"

	"mmas/internal/core"
	"mmas/internal/lattice"
)

// Place generates seeds for n requested orientations and stamps them onto l.
// It returns the number of seeds actually stamped, which exceeds n for Sobol
// when n is not a power of two.
func Place(l *lattice.Lattice, n int, m Method, rng *core.RNG) (int, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrCount, n)
	}
	if len(l.Seeds()) != 0 {
		return 0, ErrSeeded
	}

	total := l.Cols() * l.Rows()
	var indices []int
	switch m {
	case Pseudo:
		indices = make([]int, n)
		for i := range indices {
			indices[i] = rng.IntN(total)
		}
	case Sobol:
		indices = scale(sobolNet(sobolExponent(n), rng), total)
	case Halton:
		indices = scale(haltonSample(n, rng), total)
		shuffle(indices, rng)
	case Latin:
		indices = scale(latinSample(n, rng), total)
		shuffle(indices, rng)
	}

	for _, idx := range indices {
		if _, err := l.Stamp(unfold(idx, l.Rows())); err != nil {
			return 0, err
		}
	}
	return len(indices), nil
}

// Points returns the seed coordinates a method would produce on a cols x rows
// lattice without touching any lattice.
func Points(cols, rows, n int, m Method, rng *core.RNG) ([]lattice.Point, error) {
	l, err := lattice.New(cols, rows)
	if err != nil {
		return nil, err
	}
	if _, err := Place(l, n, m, rng); err != nil {
		return nil, err
	}
	return l.Seeds(), nil
}

// unfold maps a linear index to a coordinate. The column is the quotient by
// the column height, so every index in [0, cols*rows) lands inside the grid.
func unfold(idx, rows int) lattice.Point {
	return lattice.Point{X: idx / rows, Y: idx % rows}
}

func scale(samples []float64, total int) []int {
	out := make([]int, len(samples))
	for i, v := range samples {
		idx := int(v * float64(total))
		if idx >= total {
			idx = total - 1
		}
		if idx < 0 {
			idx = 0
		}
		out[i] = idx
	}
	return out
}

func shuffle(indices []int, rng *core.RNG) {
	rng.Shuffle(len(indices), func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})
}

func haltonSample(n int, rng *core.RNG) []float64 {
	batch := mat.NewDense(n, 1, nil)
	samplemv.Halton{
		Kind: samplemv.Owen,
		Q:    distmv.NewUnitUniform(1, rng.Source()),
		Src:  rng.Source(),
	}.Sample(batch)
	return mat.Col(nil, 0, batch)
}

func latinSample(n int, rng *core.RNG) []float64 {
	batch := mat.NewDense(n, 1, nil)
	samplemv.LatinHypercube{
		Q:   distmv.NewUnitUniform(1, rng.Source()),
		Src: rng.Source(),
	}.Sample(batch)
	return mat.Col(nil, 0, batch)
}

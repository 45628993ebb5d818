// Package analysis derives observables from a lattice: connected grains,
// size statistics and grain-growth kinetics.
package analysis

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"

	"mmas/internal/lattice"
	"mmas/internal/potts"
)

// ErrSamples indicates too few usable samples for a fit.
var ErrSamples = errors.New("analysis: not enough samples")

// Grain is a maximal 8-connected region of one label.
type Grain struct {
	Label int32
	// Cells holds row-major indices.
	Cells []int
}

// Area returns the number of cells in the grain.
func (g Grain) Area() int { return len(g.Cells) }

// Grains labels the connected components of l. Two cells of the same label
// sharing an edge or a corner belong to the same grain. Grains are returned in
// scan order of their first cell.
func Grains(l *lattice.Lattice) []Grain {
	cols, rows := l.Cols(), l.Rows()
	seen := make([]bool, l.Len())
	var grains []Grain
	var queue []int

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			start := l.Index(x, y)
			if seen[start] {
				continue
			}
			label := l.At(x, y)
			seen[start] = true
			queue = append(queue[:0], start)
			for qi := 0; qi < len(queue); qi++ {
				u := queue[qi]
				ux, uy := u%cols, u/cols
				for _, off := range lattice.MooreOffsets {
					vx, vy := ux+off.X, uy+off.Y
					if !l.InBounds(vx, vy) || l.At(vx, vy) != label {
						continue
					}
					v := l.Index(vx, vy)
					if !seen[v] {
						seen[v] = true
						queue = append(queue, v)
					}
				}
			}
			grains = append(grains, Grain{Label: label, Cells: append([]int(nil), queue...)})
		}
	}
	return grains
}

// Stats summarises a microstructure.
type Stats struct {
	Grains        int
	Labels        int
	MeanArea      float64
	StdArea       float64
	MaxArea       int
	BoundaryPairs int
}

// Measure computes grain statistics for l.
func Measure(l *lattice.Lattice) Stats {
	grains := Grains(l)
	areas := make([]float64, len(grains))
	labels := make(map[int32]struct{})
	maxArea := 0
	for i, g := range grains {
		areas[i] = float64(g.Area())
		labels[g.Label] = struct{}{}
		maxArea = max(maxArea, g.Area())
	}
	s := Stats{
		Grains:        len(grains),
		Labels:        len(labels),
		MaxArea:       maxArea,
		BoundaryPairs: potts.BoundaryPairs(l),
	}
	switch len(areas) {
	case 0:
	case 1:
		s.MeanArea = areas[0]
	default:
		s.MeanArea, s.StdArea = stat.MeanStdDev(areas, nil)
	}
	return s
}

// GrowthExponent fits log(mean area) = a + b*log(MCS) over samples with
// positive MCS and area and returns b. Normal curvature-driven growth gives
// b close to 1.
func GrowthExponent(samples []Sample) (float64, error) {
	var xs, ys []float64
	for _, s := range samples {
		if s.MCS <= 0 || s.MeanArea <= 0 {
			continue
		}
		xs = append(xs, math.Log(s.MCS))
		ys = append(ys, math.Log(s.MeanArea))
	}
	if len(xs) < 2 {
		return 0, ErrSamples
	}
	_, slope := stat.LinearRegression(xs, ys, nil, false)
	return slope, nil
}

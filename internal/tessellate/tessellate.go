// Package tessellate turns a seeded lattice into a Voronoi partition by giving
// every unassigned cell the label found at its nearest seed.
//
// Distances are squared Euclidean. Equidistant seeds resolve to the one
// generated first. The label copied is whatever the seed cell holds, so seeds
// that collided during placement share the label of the last one stamped.
package tessellate

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"mmas/internal/lattice"
)

// Strategy selects the nearest-seed search.
type Strategy string

const (
	// Scan checks every seed for every cell.
	Scan Strategy = "scan"
	// KDTree answers nearest-seed queries from a k-d tree.
	KDTree Strategy = "kdtree"
)

var (
	// ErrNoSeeds indicates the lattice has no seeds to tessellate from.
	ErrNoSeeds = errors.New("tessellate: lattice has no seeds")
	// ErrUnknownStrategy indicates an unsupported search strategy.
	ErrUnknownStrategy = errors.New("tessellate: unknown strategy")
)

// ParseStrategy converts a name into a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	s := Strategy(strings.ToLower(strings.TrimSpace(name)))
	switch s {
	case Scan, KDTree:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Fill assigns every unassigned cell the label of its nearest seed. Cells that
// already carry a label are left untouched.
func Fill(l *lattice.Lattice, s Strategy) error {
	if len(l.Seeds()) == 0 {
		return ErrNoSeeds
	}
	var nearest func(x, y int) int
	switch s {
	case Scan:
		nearest = func(x, y int) int { return Nearest(l.Seeds(), x, y) }
	case KDTree:
		idx := newSeedIndex(l.Seeds())
		nearest = idx.nearest
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, string(s))
	}

	for x := 0; x < l.Cols(); x++ {
		for y := 0; y < l.Rows(); y++ {
			if l.At(x, y) != lattice.Unassigned {
				continue
			}
			seed := l.Seeds()[nearest(x, y)]
			l.Set(x, y, l.At(seed.X, seed.Y))
		}
	}
	return nil
}

// Nearest returns the index of the seed closest to (x, y). A strict
// comparison keeps the earliest seed on ties.
func Nearest(seeds []lattice.Point, x, y int) int {
	best := -1
	bestDist := math.MaxInt
	for i, s := range seeds {
		d := distanceSquared(s, x, y)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func distanceSquared(s lattice.Point, x, y int) int {
	dx, dy := s.X-x, s.Y-y
	return dx*dx + dy*dy
}

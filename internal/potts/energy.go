package potts

import "mmas/internal/lattice"

// forwardOffsets visits each unordered Moore pair exactly once.
var forwardOffsets = [4]lattice.Point{{X: 1, Y: 0}, {X: -1, Y: 1}, {X: 0, Y: 1}, {X: 1, Y: 1}}

// BoundaryPairs counts unordered pairs of Moore-adjacent cells whose labels
// differ. It is half the sum of unlike-neighbour counts over all sites.
func BoundaryPairs(l *lattice.Lattice) int {
	pairs := 0
	for y := 0; y < l.Rows(); y++ {
		for x := 0; x < l.Cols(); x++ {
			v := l.At(x, y)
			for _, off := range forwardOffsets {
				nx, ny := x+off.X, y+off.Y
				if l.InBounds(nx, ny) && l.At(nx, ny) != v {
					pairs++
				}
			}
		}
	}
	return pairs
}

// TotalEnergy returns the interfacial energy of the whole lattice, J per
// unlike pair.
func (e *Engine) TotalEnergy() float64 {
	return e.params.GrainBoundaryEnergy * float64(BoundaryPairs(e.lat))
}

// Package lattice holds the grain label grid shared by seeding, tessellation,
// the grain-growth engine and every read-only collaborator.
//
// Labels are stored row-major (index y*cols+x) so renderers can consume the
// backing slice directly. Coordinates are always given as (x, y) with x the
// column and y the row, matching the [col][row] persistence layout.
package lattice

import "fmt"

// Unassigned marks a cell that has not yet been given a grain label.
const Unassigned int32 = 0

// Point is an integer lattice coordinate.
type Point struct {
	X, Y int
}

// MooreOffsets lists the 8 neighbour offsets of the Moore neighbourhood.
var MooreOffsets = [8]Point{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// Lattice stores grain labels and the ordered seed list.
type Lattice struct {
	cols, rows int
	cells      []int32
	seeds      []Point
}

// New allocates a lattice with every cell unassigned.
func New(cols, rows int) (*Lattice, error) {
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrDimensions, cols, rows)
	}
	return &Lattice{cols: cols, rows: rows, cells: make([]int32, cols*rows)}, nil
}

// Cols returns the number of columns.
func (l *Lattice) Cols() int { return l.cols }

// Rows returns the number of rows.
func (l *Lattice) Rows() int { return l.rows }

// Len returns the number of cells.
func (l *Lattice) Len() int { return len(l.cells) }

// Cells exposes the backing slice in row-major order.
func (l *Lattice) Cells() []int32 { return l.cells }

// Index returns the linear slice index for coordinates (x, y).
func (l *Lattice) Index(x, y int) int { return y*l.cols + x }

// InBounds reports whether (x, y) lies inside the lattice.
func (l *Lattice) InBounds(x, y int) bool {
	return x >= 0 && x < l.cols && y >= 0 && y < l.rows
}

// At returns the label at (x, y).
func (l *Lattice) At(x, y int) int32 { return l.cells[y*l.cols+x] }

// Set writes the label at (x, y).
func (l *Lattice) Set(x, y int, label int32) { l.cells[y*l.cols+x] = label }

// Seeds returns the seed coordinates in generation order. Seed k owns label k+1.
func (l *Lattice) Seeds() []Point { return l.seeds }

// Stamp appends a seed and writes its label (len(seeds) after appending) into
// the cell. A seed landing on an earlier seed overwrites that seed's label.
func (l *Lattice) Stamp(p Point) (int32, error) {
	if !l.InBounds(p.X, p.Y) {
		return 0, fmt.Errorf("%w: (%d,%d) outside %dx%d", ErrOutOfBounds, p.X, p.Y, l.cols, l.rows)
	}
	l.seeds = append(l.seeds, p)
	label := int32(len(l.seeds))
	l.Set(p.X, p.Y, label)
	return label, nil
}

// Unassigned counts cells still holding the zero label.
func (l *Lattice) Unassigned() int {
	n := 0
	for _, c := range l.cells {
		if c == Unassigned {
			n++
		}
	}
	return n
}

// DistinctSeeds counts unique seed coordinates. It is smaller than
// len(Seeds()) when seeds collided during placement.
func (l *Lattice) DistinctSeeds() int {
	seen := make(map[Point]struct{}, len(l.seeds))
	for _, s := range l.seeds {
		seen[s] = struct{}{}
	}
	return len(seen)
}

// MaxLabel returns the largest label present on the lattice.
func (l *Lattice) MaxLabel() int32 {
	var m int32
	for _, c := range l.cells {
		if c > m {
			m = c
		}
	}
	return m
}

// Clone returns a deep copy.
func (l *Lattice) Clone() *Lattice {
	return &Lattice{
		cols:  l.cols,
		rows:  l.rows,
		cells: append([]int32(nil), l.cells...),
		seeds: append([]Point(nil), l.seeds...),
	}
}

// Equal reports whether two lattices have the same shape, labels and seeds.
func (l *Lattice) Equal(o *Lattice) bool {
	if l == nil || o == nil {
		return l == o
	}
	if l.cols != o.cols || l.rows != o.rows || len(l.seeds) != len(o.seeds) {
		return false
	}
	for i := range l.cells {
		if l.cells[i] != o.cells[i] {
			return false
		}
	}
	for i := range l.seeds {
		if l.seeds[i] != o.seeds[i] {
			return false
		}
	}
	return true
}

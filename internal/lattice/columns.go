package lattice

import "fmt"

// Columns exports the labels in [col][row] form.
func (l *Lattice) Columns() [][]int32 {
	out := make([][]int32, l.cols)
	for x := 0; x < l.cols; x++ {
		col := make([]int32, l.rows)
		for y := 0; y < l.rows; y++ {
			col[y] = l.At(x, y)
		}
		out[x] = col
	}
	return out
}

// FromColumns rebuilds a lattice from [col][row] labels and a seed list
// without re-running tessellation. Every label must lie in 1..len(seeds) and
// every seed inside the grid.
func FromColumns(cols [][]int32, seeds []Point) (*Lattice, error) {
	if len(cols) == 0 || len(cols[0]) == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrDimensions)
	}
	l, err := New(len(cols), len(cols[0]))
	if err != nil {
		return nil, err
	}
	if len(seeds) == 0 {
		return nil, fmt.Errorf("%w: no seeds", ErrLabel)
	}
	maxLabel := int32(len(seeds))
	for x, col := range cols {
		if len(col) != l.rows {
			return nil, fmt.Errorf("%w: column %d has %d rows, want %d", ErrNonRectangular, x, len(col), l.rows)
		}
		for y, v := range col {
			if v < 1 || v > maxLabel {
				return nil, fmt.Errorf("%w: cell (%d,%d)=%d, want 1..%d", ErrLabel, x, y, v, maxLabel)
			}
			l.Set(x, y, v)
		}
	}
	for i, s := range seeds {
		if !l.InBounds(s.X, s.Y) {
			return nil, fmt.Errorf("%w: seed %d at (%d,%d)", ErrOutOfBounds, i, s.X, s.Y)
		}
	}
	l.seeds = append([]Point(nil), seeds...)
	return l, nil
}

package lattice

import "errors"

var (
	// ErrDimensions indicates non-positive column or row counts.
	ErrDimensions = errors.New("lattice: cols and rows must be positive")
	// ErrOutOfBounds indicates a coordinate outside the lattice.
	ErrOutOfBounds = errors.New("lattice: coordinate out of bounds")
	// ErrNonRectangular indicates columns of differing lengths.
	ErrNonRectangular = errors.New("lattice: all columns must have the same length")
	// ErrLabel indicates a label outside 1..len(seeds).
	ErrLabel = errors.New("lattice: label out of range")
)

package seeding

import "errors"

var (
	// ErrUnknownMethod indicates an unsupported seed distribution method.
	ErrUnknownMethod = errors.New("seeding: unknown seed method")
	// ErrCount indicates a non-positive orientation count.
	ErrCount = errors.New("seeding: orientation count must be positive")
	// ErrSeeded indicates the lattice already carries seeds.
	ErrSeeded = errors.New("seeding: lattice already seeded")
)

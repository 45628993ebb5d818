package potts

import (
	"context"

	"golang.org/x/sync/errgroup"

	"mmas/internal/core"
)

// sublattice is the stride of the site colouring used by Sweep. Two sites of
// the same colour are at least three cells apart along some axis, so neither
// lies in the other's Moore neighbourhood and no attempt reads a cell another
// attempt of the same phase writes.
const sublattice = 3

// Sweep attempts a reorientation at every site exactly once, in
// nine phases of non-interacting sites. Columns of each phase are dealt
// round-robin to workers, each drawing from its own stream split off the
// engine RNG, so results depend on the worker count but not on scheduling.
// The context is checked between columns; on cancellation the sweep stops
// with the lattice in a valid, partially swept state.
func (e *Engine) Sweep(ctx context.Context, workers int) error {
	if workers < 1 {
		workers = 1
	}
	cols, rows := e.lat.Cols(), e.lat.Rows()
	if workers > cols {
		workers = cols
	}

	streams := make([]*core.RNG, workers)
	for i := range streams {
		streams[i] = e.rng.Split()
	}
	attempts := make([]uint64, workers)
	accepted := make([]uint64, workers)
	defer func() {
		for w := 0; w < workers; w++ {
			e.attempts += attempts[w]
			e.accepted += accepted[w]
		}
	}()

	for phase := 0; phase < sublattice*sublattice; phase++ {
		ox, oy := phase%sublattice, phase/sublattice
		g, gctx := errgroup.WithContext(ctx)
		for w := 0; w < workers; w++ {
			g.Go(func() error {
				rng := streams[w]
				for x := ox + sublattice*w; x < cols; x += sublattice * workers {
					if err := gctx.Err(); err != nil {
						return err
					}
					for y := oy; y < rows; y += sublattice {
						switch e.attempt(x, y, rng) {
						case Accepted:
							accepted[w]++
							attempts[w]++
						case Rejected:
							attempts[w]++
						}
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

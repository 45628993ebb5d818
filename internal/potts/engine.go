// Package potts evolves a labelled lattice with the Monte Carlo Potts model of
// grain growth.
//
// The site energy is J times the number of unlike Moore neighbours minus 8J,
// so a site buried inside its own grain sits at the minimum of -8J. Lattice
// edges are clipped, not wrapped.
package potts

import (
	"fmt"
	"math"

	"mmas/internal/core"
	"mmas/internal/lattice"
)

// NearestNeighbors is the size of the Moore neighbourhood.
const NearestNeighbors = 8

// Outcome reports what a single reorientation attempt did.
type Outcome int

const (
	// NoOp means the site had no unlike neighbours; nothing was evaluated.
	NoOp Outcome = iota
	// Rejected means a candidate was evaluated and refused.
	Rejected
	// Accepted means the site took the candidate label.
	Accepted
)

func (o Outcome) String() string {
	switch o {
	case NoOp:
		return "noop"
	case Rejected:
		return "rejected"
	case Accepted:
		return "accepted"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Engine owns the simulation state and is the only mutator of its lattice.
type Engine struct {
	lat     *lattice.Lattice
	params  Params
	variant Variant
	rng     *core.RNG

	attempts uint64
	accepted uint64
}

// New creates an engine over l. The engine keeps l by reference.
func New(l *lattice.Lattice, p Params, rng *core.RNG) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Engine{lat: l, params: p, variant: Metropolis, rng: rng}, nil
}

// Lattice returns the lattice being evolved.
func (e *Engine) Lattice() *lattice.Lattice { return e.lat }

// Params returns the current thermodynamic parameters.
func (e *Engine) Params() Params { return e.params }

// SetParams replaces the parameters after validating them.
func (e *Engine) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e.params = p
	return nil
}

// Variant returns the reorientation rule used by Tick.
func (e *Engine) Variant() Variant { return e.variant }

// SetVariant selects the reorientation rule used by Tick.
func (e *Engine) SetVariant(v Variant) error {
	if _, err := ParseVariant(string(v)); err != nil {
		return err
	}
	e.variant = v
	return nil
}

// Attempts returns how many attempts evaluated a candidate label.
func (e *Engine) Attempts() uint64 { return e.attempts }

// Accepted returns how many attempts changed a label.
func (e *Engine) Accepted() uint64 { return e.accepted }

// SetCounters restores counters from a saved state.
func (e *Engine) SetCounters(attempts, accepted uint64) {
	e.attempts = attempts
	e.accepted = accepted
}

// MCS returns the elapsed Monte Carlo steps: attempts per lattice site.
// Rejected attempts count toward it. Earlier versions of the model counted
// accepted reorientations only, so their MCS advanced more slowly and is not
// comparable step for step.
func (e *Engine) MCS() uint64 {
	return e.attempts / uint64(e.lat.Len())
}

// DifferentNeighbors counts Moore neighbours of (x, y) whose label differs
// from the site's current label and returns those labels deduplicated, in
// first-seen order.
func (e *Engine) DifferentNeighbors(x, y int) (int, []int32) {
	return differentNeighbors(e.lat, x, y, nil)
}

// DifferentNeighborsWith counts Moore neighbours of (x, y) whose label
// differs from orientation.
func (e *Engine) DifferentNeighborsWith(x, y int, orientation int32) int {
	return countUnlike(e.lat, x, y, orientation)
}

// FreeEnergy returns the interfacial energy of (x, y) with its current label.
func (e *Engine) FreeEnergy(x, y int) float64 {
	return e.energy(countUnlike(e.lat, x, y, e.lat.At(x, y)))
}

// FreeEnergyWith returns the energy (x, y) would have carrying orientation.
func (e *Engine) FreeEnergyWith(x, y int, orientation int32) float64 {
	return e.energy(countUnlike(e.lat, x, y, orientation))
}

func (e *Engine) energy(unlike int) float64 {
	j := e.params.GrainBoundaryEnergy
	return j*float64(unlike) - j*NearestNeighbors
}

// AcceptProbability returns the probability that a move with energy change
// delta is accepted.
func (e *Engine) AcceptProbability(delta float64) float64 {
	if delta <= 0 {
		return 1
	}
	if e.params.Temperature == 0 {
		return 0
	}
	return math.Exp(-delta / (e.params.BoltzConst * e.params.Temperature))
}

// Accept applies the Metropolis rule to an energy change. A uniform draw is
// consumed only for unfavourable moves at positive temperature.
func (e *Engine) Accept(delta float64) bool {
	return e.accept(delta, e.rng)
}

func (e *Engine) accept(delta float64, rng *core.RNG) bool {
	if delta <= 0 {
		return true
	}
	if e.params.Temperature == 0 {
		return false
	}
	return rng.Float64() < math.Exp(-delta/(e.params.BoltzConst*e.params.Temperature))
}

// Reorient performs one Metropolis attempt at (x, y).
func (e *Engine) Reorient(x, y int) Outcome {
	out := e.reorient(x, y, e.rng)
	e.count(out)
	return out
}

func (e *Engine) reorient(x, y int, rng *core.RNG) Outcome {
	var buf [NearestNeighbors]int32
	unlike, labels := differentNeighbors(e.lat, x, y, buf[:0])
	if len(labels) == 0 {
		return NoOp
	}
	candidate := labels[rng.IntN(len(labels))]
	delta := e.energy(countUnlike(e.lat, x, y, candidate)) - e.energy(unlike)
	if !e.accept(delta, rng) {
		return Rejected
	}
	e.lat.Set(x, y, candidate)
	return Accepted
}

// ReorientExhaustive tries every unlike neighbour label at (x, y), comparing
// each against the energy the site had before the call, and leaves the site
// on the last label that did not raise it.
func (e *Engine) ReorientExhaustive(x, y int) Outcome {
	out := e.reorientExhaustive(x, y)
	e.count(out)
	return out
}

func (e *Engine) reorientExhaustive(x, y int) Outcome {
	var buf [NearestNeighbors]int32
	unlike, labels := differentNeighbors(e.lat, x, y, buf[:0])
	if len(labels) == 0 {
		return NoOp
	}
	start := e.energy(unlike)
	out := Rejected
	for _, candidate := range labels {
		if e.energy(countUnlike(e.lat, x, y, candidate))-start <= 0 {
			e.lat.Set(x, y, candidate)
			out = Accepted
		}
	}
	return out
}

// attempt runs one attempt of the configured variant without counting it.
func (e *Engine) attempt(x, y int, rng *core.RNG) Outcome {
	if e.variant == Exhaustive {
		return e.reorientExhaustive(x, y)
	}
	return e.reorient(x, y, rng)
}

func (e *Engine) count(out Outcome) {
	switch out {
	case Accepted:
		e.accepted++
		e.attempts++
	case Rejected:
		e.attempts++
	}
}

// Tick runs batch attempts on sites drawn independently and uniformly, using
// the configured variant. It returns the number of accepted attempts.
func (e *Engine) Tick(batch int) int {
	cols, rows := e.lat.Cols(), e.lat.Rows()
	accepted := 0
	for i := 0; i < batch; i++ {
		x := e.rng.IntN(cols)
		y := e.rng.IntN(rows)
		out := e.attempt(x, y, e.rng)
		e.count(out)
		if out == Accepted {
			accepted++
		}
	}
	return accepted
}

// differentNeighbors appends the distinct unlike labels around (x, y) to buf.
func differentNeighbors(l *lattice.Lattice, x, y int, buf []int32) (int, []int32) {
	self := l.At(x, y)
	unlike := 0
	labels := buf
	for _, off := range lattice.MooreOffsets {
		nx, ny := x+off.X, y+off.Y
		if !l.InBounds(nx, ny) {
			continue
		}
		v := l.At(nx, ny)
		if v == self {
			continue
		}
		unlike++
		seen := false
		for _, s := range labels {
			if s == v {
				seen = true
				break
			}
		}
		if !seen {
			labels = append(labels, v)
		}
	}
	return unlike, labels
}

func countUnlike(l *lattice.Lattice, x, y int, orientation int32) int {
	unlike := 0
	for _, off := range lattice.MooreOffsets {
		nx, ny := x+off.X, y+off.Y
		if !l.InBounds(nx, ny) {
			continue
		}
		if l.At(nx, ny) != orientation {
			unlike++
		}
	}
	return unlike
}

package core

import (
	"fmt"
	"sort"
)

// Size describes the dimensions of a simulation lattice.
type Size struct {
	W int
	H int
}

// Sim defines the minimal contract a lattice simulation must implement.
//
// Cells exposes the labels in row-major order (index y*W+x). The slice is the
// live backing store and must only be read between calls to Step.
type Sim interface {
	Name() string
	Size() Size
	Reset(seed int64)
	Step()
	Cells() []int32
	// Levels reports how many distinct labels a renderer should expect.
	Levels() int
}

// Factory constructs a Sim using an optional configuration map.
type Factory func(cfg map[string]string) (Sim, error)

var sims = map[string]Factory{}

// Register adds a simulation factory under the provided name.
func Register(name string, f Factory) {
	if name == "" || f == nil {
		return
	}
	sims[name] = f
}

// Lookup builds the named simulation, failing when the name is unknown.
func Lookup(name string, cfg map[string]string) (Sim, error) {
	f, ok := sims[name]
	if !ok {
		names := make([]string, 0, len(sims))
		for n := range sims {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown sim %q (available: %v)", name, names)
	}
	return f(cfg)
}

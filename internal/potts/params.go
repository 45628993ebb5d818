package potts

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrParams indicates invalid thermodynamic parameters.
	ErrParams = errors.New("potts: invalid parameters")
	// ErrUnknownVariant indicates an unsupported reorientation variant.
	ErrUnknownVariant = errors.New("potts: unknown variant")
)

// Params holds the thermodynamic inputs of the acceptance rule.
type Params struct {
	// Temperature of 0 accepts only moves that do not raise the energy.
	Temperature float64
	// GrainBoundaryEnergy scales the interfacial energy per unlike neighbour.
	GrainBoundaryEnergy float64
	// BoltzConst scales the thermal term of the acceptance probability.
	BoltzConst float64
}

// DefaultParams returns T=0, J=1, k=1.
func DefaultParams() Params {
	return Params{Temperature: 0, GrainBoundaryEnergy: 1, BoltzConst: 1}
}

// Validate reports parameters that would make the acceptance rule meaningless.
func (p Params) Validate() error {
	switch {
	case math.IsNaN(p.Temperature) || math.IsInf(p.Temperature, 0) || p.Temperature < 0:
		return fmt.Errorf("%w: temperature must be >= 0, got %v", ErrParams, p.Temperature)
	case math.IsNaN(p.GrainBoundaryEnergy) || math.IsInf(p.GrainBoundaryEnergy, 0) || p.GrainBoundaryEnergy <= 0:
		return fmt.Errorf("%w: grain boundary energy must be > 0, got %v", ErrParams, p.GrainBoundaryEnergy)
	case math.IsNaN(p.BoltzConst) || math.IsInf(p.BoltzConst, 0) || p.BoltzConst <= 0:
		return fmt.Errorf("%w: boltzmann constant must be > 0, got %v", ErrParams, p.BoltzConst)
	}
	return nil
}

// Variant selects the per-site reorientation rule used by Tick.
type Variant string

const (
	// Metropolis samples one candidate from the unlike neighbours and applies
	// the temperature-weighted acceptance rule.
	Metropolis Variant = "metropolis"
	// Exhaustive tries every unlike neighbour label in turn against the
	// site's starting energy and keeps the last non-increasing one. It ignores
	// temperature. It reproduces an early form of the model and is not
	// equivalent to Metropolis.
	Exhaustive Variant = "exhaustive"
)

// ParseVariant converts a name into a Variant.
func ParseVariant(name string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(name)))
	switch v {
	case Metropolis, Exhaustive:
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVariant, name)
}

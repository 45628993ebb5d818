// Package micro assembles a seeded, tessellated lattice and its grain-growth
// engine into a single simulation.
package micro

import (
	"fmt"
	"math"

	"mmas/internal/core"
	"mmas/internal/lattice"
	"mmas/internal/potts"
	"mmas/internal/seeding"
	"mmas/internal/store"
	"mmas/internal/tessellate"
)

// Microstructure is a polycrystalline lattice evolving under the Potts model.
type Microstructure struct {
	cfg    Config
	lat    *lattice.Lattice
	engine *potts.Engine
}

// New validates cfg and builds the initial microstructure from cfg.Seed.
func New(cfg Config) (*Microstructure, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Microstructure{cfg: cfg}
	if err := m.build(cfg.Seed); err != nil {
		return nil, err
	}
	return m, nil
}

// Restore rebuilds a microstructure from a snapshot without re-tessellating.
// Counters resume from the snapshot. The random stream restarts from the
// default seed.
func Restore(snap *store.Snapshot) (*Microstructure, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	method, err := snap.Method()
	if err != nil {
		return nil, err
	}
	lat, err := snap.Lattice()
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	cfg.CellSize = snap.CellSize
	cfg.Width = snap.Cols * snap.CellSize
	cfg.Height = snap.Rows * snap.CellSize
	cfg.Orientations = snap.Orientations
	cfg.Method = method
	p := snap.Params()
	cfg.Temperature = p.Temperature
	cfg.GrainBoundaryEnergy = p.GrainBoundaryEnergy
	cfg.BoltzConst = p.BoltzConst

	engine, err := potts.New(lat, p, core.NewRNG(cfg.Seed))
	if err != nil {
		return nil, err
	}
	engine.SetCounters(snap.Attempts, snap.Accepted)
	return &Microstructure{cfg: cfg, lat: lat, engine: engine}, nil
}

func (m *Microstructure) build(seed int64) error {
	rng := core.NewRNG(seed)
	lat, err := lattice.New(m.cfg.Cols(), m.cfg.Rows())
	if err != nil {
		return err
	}
	if _, err := seeding.Place(lat, m.cfg.Orientations, m.cfg.Method, rng); err != nil {
		return err
	}
	if err := tessellate.Fill(lat, m.cfg.Tessellation); err != nil {
		return err
	}
	engine, err := potts.New(lat, m.cfg.Params(), rng)
	if err != nil {
		return err
	}
	if err := engine.SetVariant(m.cfg.Variant); err != nil {
		return err
	}
	m.lat, m.engine = lat, engine
	return nil
}

// Name returns the simulation identifier.
func (m *Microstructure) Name() string { return "grain-growth" }

// Size reports the lattice dimensions in cells.
func (m *Microstructure) Size() core.Size { return core.Size{W: m.lat.Cols(), H: m.lat.Rows()} }

// Reset reseeds and re-tessellates the lattice. A zero seed reuses the
// configured one.
func (m *Microstructure) Reset(seed int64) {
	if seed == 0 {
		seed = m.cfg.Seed
	}
	// The config was validated in New, so build only fails on a bug.
	if err := m.build(seed); err != nil {
		panic(fmt.Sprintf("micro: reset: %v", err))
	}
}

// Step runs one batch of reorientation attempts.
func (m *Microstructure) Step() { m.engine.Tick(m.cfg.Batch) }

// Cells exposes the row-major grain labels.
func (m *Microstructure) Cells() []int32 { return m.lat.Cells() }

// Levels reports the number of grain orientations.
func (m *Microstructure) Levels() int { return m.OrientationCount() }

// OrientationCount is the number of seeds actually placed. Sobol rounds the
// requested count up to a power of two.
func (m *Microstructure) OrientationCount() int { return len(m.lat.Seeds()) }

// DistinctSeeds counts seeds at unique coordinates.
func (m *Microstructure) DistinctSeeds() int { return m.lat.DistinctSeeds() }

// Lattice returns the live lattice.
func (m *Microstructure) Lattice() *lattice.Lattice { return m.lat }

// Engine returns the grain-growth engine.
func (m *Microstructure) Engine() *potts.Engine { return m.engine }

// Config returns the configuration, with parameters reflecting live changes.
func (m *Microstructure) Config() Config { return m.cfg }

// Snapshot captures the current state for persistence. Grain colours are
// left for the caller to attach.
func (m *Microstructure) Snapshot() *store.Snapshot {
	return store.Capture(m.lat, m.cfg.CellSize, m.cfg.Method, m.cfg.Orientations, m.engine.Params(), m.engine.Attempts(), m.engine.Accepted())
}

// Parameters exposes the current configuration and progress counters.
func (m *Microstructure) Parameters() core.ParameterSnapshot {
	p := m.engine.Params()
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{
		{
			Name: "Lattice",
			Params: []core.Parameter{
				core.IntParam("cols", "Columns", m.lat.Cols()),
				core.IntParam("rows", "Rows", m.lat.Rows()),
				core.IntParam("orientations", "Orientations", m.OrientationCount()),
				core.TextParam("method", "Seed method", m.cfg.Method.String()),
			},
		},
		{
			Name: "Potts",
			Params: []core.Parameter{
				core.FloatParam("temperature", "Temperature", p.Temperature),
				core.FloatParam("grain_boundary_energy", "Boundary energy J", p.GrainBoundaryEnergy),
				core.FloatParam("boltz_const", "Boltzmann k", p.BoltzConst),
				core.TextParam("variant", "Variant", string(m.engine.Variant())),
				core.IntParam("batch", "Attempts per tick", m.cfg.Batch),
			},
		},
		{
			Name: "Progress",
			Params: []core.Parameter{
				core.Uint64Param("mcs", "MCS", m.engine.MCS()),
				core.Uint64Param("attempts", "Attempts", m.engine.Attempts()),
				core.Uint64Param("accepted", "Accepted", m.engine.Accepted()),
			},
		},
	}}
}

// ParameterControls lists the values adjustable while running.
func (m *Microstructure) ParameterControls() []core.ParameterControl {
	return []core.ParameterControl{
		{Key: "temperature", Label: "Temperature", Type: core.ParamTypeFloat, Step: 0.05, Min: 0, HasMin: true},
		{Key: "grain_boundary_energy", Label: "Boundary energy J", Type: core.ParamTypeFloat, Step: 0.1, Min: 0.1, HasMin: true},
		{Key: "boltz_const", Label: "Boltzmann k", Type: core.ParamTypeFloat, Step: 0.1, Min: 0.1, HasMin: true},
		{Key: "batch", Label: "Attempts per tick", Type: core.ParamTypeInt, Step: 500, Min: 1, HasMin: true},
	}
}

// SetFloatParameter updates a thermodynamic parameter, clamping to the
// control minimum. It reports whether the key is known.
func (m *Microstructure) SetFloatParameter(key string, value float64) bool {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return false
	}
	p := m.engine.Params()
	switch key {
	case "temperature":
		p.Temperature = math.Max(value, 0)
	case "grain_boundary_energy":
		p.GrainBoundaryEnergy = math.Max(value, 0.1)
	case "boltz_const":
		p.BoltzConst = math.Max(value, 0.1)
	default:
		return false
	}
	if err := m.engine.SetParams(p); err != nil {
		return false
	}
	m.cfg.Temperature = p.Temperature
	m.cfg.GrainBoundaryEnergy = p.GrainBoundaryEnergy
	m.cfg.BoltzConst = p.BoltzConst
	return true
}

// SetIntParameter updates the tick batch size.
func (m *Microstructure) SetIntParameter(key string, value int) bool {
	if key != "batch" {
		return false
	}
	m.cfg.Batch = max(value, 1)
	return true
}

// OverrideFlags maps command-line flag names to the parameter keys they set.
var OverrideFlags = map[string]string{
	"T":           "temperature",
	"temperature": "temperature",
	"g":           "grain_boundary_energy",
	"grain":       "grain_boundary_energy",
	"b":           "boltz_const",
	"boltz":       "boltz_const",
	"batch":       "batch",
	"variant":     "variant",
}

// Override copies the named parameters from cfg onto m. It is used to adjust
// a restored microstructure from the command line.
func (m *Microstructure) Override(cfg Config, keys ...string) error {
	for _, key := range keys {
		var ok bool
		switch key {
		case "temperature":
			ok = m.SetFloatParameter(key, cfg.Temperature)
		case "grain_boundary_energy":
			ok = m.SetFloatParameter(key, cfg.GrainBoundaryEnergy)
		case "boltz_const":
			ok = m.SetFloatParameter(key, cfg.BoltzConst)
		case "batch":
			ok = m.SetIntParameter(key, cfg.Batch)
		case "variant":
			if err := m.setVariant(cfg.Variant); err != nil {
				return err
			}
			ok = true
		}
		if !ok {
			return fmt.Errorf("%w: cannot override %q", ErrConfig, key)
		}
	}
	return nil
}

func (m *Microstructure) setVariant(v potts.Variant) error {
	v, err := potts.ParseVariant(string(v))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if err := m.engine.SetVariant(v); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	m.cfg.Variant = v
	return nil
}

func init() {
	core.Register("grain-growth", func(cfg map[string]string) (core.Sim, error) {
		return New(FromMap(cfg))
	})
}

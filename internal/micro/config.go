package micro

import (
	"errors"
	"fmt"
	"strconv"

	"mmas/internal/potts"
	"mmas/internal/seeding"
	"mmas/internal/tessellate"
)

// ErrConfig indicates an invalid microstructure configuration.
var ErrConfig = errors.New("micro: invalid config")

// Config controls how a microstructure is built and evolved. Width and
// Height are in pixels; the lattice has Width/CellSize columns and
// Height/CellSize rows. A zero Height makes the window square.
type Config struct {
	Width    int
	Height   int
	CellSize int

	Orientations int
	Method       seeding.Method
	Tessellation tessellate.Strategy

	Temperature         float64
	GrainBoundaryEnergy float64
	BoltzConst          float64
	Variant             potts.Variant

	// Batch is the number of reorientation attempts per Step.
	Batch int
	Seed  int64
}

// DefaultConfig returns a 100x100 lattice of 100 Halton-seeded grains
// evolving at zero temperature.
func DefaultConfig() Config {
	p := potts.DefaultParams()
	return Config{
		Width:               500,
		CellSize:            5,
		Orientations:        100,
		Method:              seeding.Halton,
		Tessellation:        tessellate.KDTree,
		Temperature:         p.Temperature,
		GrainBoundaryEnergy: p.GrainBoundaryEnergy,
		BoltzConst:          p.BoltzConst,
		Variant:             potts.Metropolis,
		Batch:               1000,
		Seed:                1337,
	}
}

// Cols returns the number of lattice columns.
func (c Config) Cols() int {
	if c.CellSize <= 0 {
		return 0
	}
	return c.Width / c.CellSize
}

// Rows returns the number of lattice rows.
func (c Config) Rows() int {
	if c.CellSize <= 0 {
		return 0
	}
	h := c.Height
	if h == 0 {
		h = c.Width
	}
	return h / c.CellSize
}

// Params returns the thermodynamic parameters.
func (c Config) Params() potts.Params {
	return potts.Params{
		Temperature:         c.Temperature,
		GrainBoundaryEnergy: c.GrainBoundaryEnergy,
		BoltzConst:          c.BoltzConst,
	}
}

// Validate normalises the enumerated fields and reports the first problem.
func (c *Config) Validate() error {
	if c.CellSize <= 0 {
		return fmt.Errorf("%w: cell size must be positive, got %d", ErrConfig, c.CellSize)
	}
	if c.Cols() < 1 || c.Rows() < 1 {
		return fmt.Errorf("%w: %dx%d px at cell size %d leaves no lattice", ErrConfig, c.Width, c.Height, c.CellSize)
	}
	if c.Orientations < 1 {
		return fmt.Errorf("%w: orientations must be positive, got %d", ErrConfig, c.Orientations)
	}
	if c.Batch < 1 {
		return fmt.Errorf("%w: batch must be positive, got %d", ErrConfig, c.Batch)
	}
	m, err := seeding.ParseMethod(string(c.Method))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	s, err := tessellate.ParseStrategy(string(c.Tessellation))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	v, err := potts.ParseVariant(string(c.Variant))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	c.Method, c.Tessellation, c.Variant = m, s, v
	return nil
}

// FlagSet is the subset of flag registration shared by the standard library
// flag package and gnuflag.
type FlagSet interface {
	IntVar(p *int, name string, value int, usage string)
	Int64Var(p *int64, name string, value int64, usage string)
	Float64Var(p *float64, name string, value float64, usage string)
	StringVar(p *string, name string, value string, usage string)
}

// Bind registers the configuration flags on fs, using the receiver's current
// values as defaults. Short and long names share storage.
func (c *Config) Bind(fs FlagSet) {
	c.bindInt(fs, &c.Width, "w", "width", "window width in pixels")
	fs.IntVar(&c.Height, "height", c.Height, "window height in pixels (0 matches the width)")
	c.bindInt(fs, &c.CellSize, "c", "cell-size", "cell size in pixels")
	c.bindInt(fs, &c.Orientations, "o", "orientations", "number of seeds / grain orientations")
	c.bindString(fs, (*string)(&c.Method), "m", "method", "seed method: pseudo, sobol, halton or latin")
	fs.StringVar((*string)(&c.Tessellation), "tessellation", string(c.Tessellation), "tessellation strategy: scan or kdtree")
	c.bindFloat(fs, &c.Temperature, "T", "temperature", "simulation temperature")
	c.bindFloat(fs, &c.GrainBoundaryEnergy, "g", "grain", "grain boundary energy J")
	c.bindFloat(fs, &c.BoltzConst, "b", "boltz", "Boltzmann constant k")
	fs.StringVar((*string)(&c.Variant), "variant", string(c.Variant), "reorientation rule: metropolis or exhaustive")
	fs.IntVar(&c.Batch, "batch", c.Batch, "reorientation attempts per tick")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "random seed")
}

func (c *Config) bindInt(fs FlagSet, p *int, short, long, usage string) {
	fs.IntVar(p, short, *p, usage)
	fs.IntVar(p, long, *p, usage)
}

func (c *Config) bindFloat(fs FlagSet, p *float64, short, long, usage string) {
	fs.Float64Var(p, short, *p, usage)
	fs.Float64Var(p, long, *p, usage)
}

func (c *Config) bindString(fs FlagSet, p *string, short, long, usage string) {
	fs.StringVar(p, short, *p, usage)
	fs.StringVar(p, long, *p, usage)
}

// FromMap populates the config from a string map (flag-style key/value
// pairs). Unparsable values are ignored; call Validate afterwards.
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	lookup := func(keys ...string) (string, bool) {
		for _, k := range keys {
			if v, ok := cfg[k]; ok {
				return v, true
			}
		}
		return "", false
	}
	if v, ok := lookup("w", "width"); ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Width = parsed
		}
	}
	if v, ok := lookup("h", "height"); ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Height = parsed
		}
	}
	if v, ok := lookup("c", "cell_size"); ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.CellSize = parsed
		}
	}
	if v, ok := lookup("o", "orientations"); ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Orientations = parsed
		}
	}
	if v, ok := lookup("m", "method"); ok {
		c.Method = seeding.Method(v)
	}
	if v, ok := lookup("tessellation"); ok {
		c.Tessellation = tessellate.Strategy(v)
	}
	if v, ok := lookup("T", "temperature"); ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 {
			c.Temperature = parsed
		}
	}
	if v, ok := lookup("g", "grain_boundary_energy"); ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			c.GrainBoundaryEnergy = parsed
		}
	}
	if v, ok := lookup("b", "boltz_const"); ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			c.BoltzConst = parsed
		}
	}
	if v, ok := lookup("variant"); ok {
		c.Variant = potts.Variant(v)
	}
	if v, ok := lookup("batch"); ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Batch = parsed
		}
	}
	if v, ok := lookup("seed"); ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}
	return c
}

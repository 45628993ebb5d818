// Package store persists microstructures: single JSON snapshots that can be
// reloaded without re-tessellating, and a SQLite checkpoint log for long
// headless runs.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"mmas/internal/lattice"
	"mmas/internal/potts"
	"mmas/internal/seeding"
)

var (
	// ErrMissingField indicates a required snapshot key was absent.
	ErrMissingField = errors.New("store: missing field")
	// ErrInvalid indicates a snapshot whose fields contradict each other.
	ErrInvalid = errors.New("store: invalid snapshot")
)

// Color is an RGB triple.
type Color [3]uint8

// Snapshot is the resumable state of a microstructure. Grid is indexed
// [col][row] and Seeds lists [x, y] pairs in generation order. Orientations
// is the requested seed count; Sobol rounds it up, so len(Seeds) may be
// larger.
type Snapshot struct {
	Cols                int       `json:"cols"`
	Rows                int       `json:"rows"`
	CellSize            int       `json:"grid_cell_size"`
	Orientations        int       `json:"orientations"`
	SeedMethod          string    `json:"seed_method"`
	Grid                [][]int32 `json:"grid"`
	Seeds               [][2]int  `json:"seeds"`
	GrainColors         []Color   `json:"grain_colors,omitempty"`
	Temperature         float64   `json:"temperature"`
	GrainBoundaryEnergy float64   `json:"grain_boundary_energy"`
	BoltzConst          float64   `json:"boltz_const"`
	Attempts            uint64    `json:"attempts"`
	Accepted            uint64    `json:"accepted"`
}

// wireSnapshot mirrors Snapshot with pointers so absent keys are detectable.
// Seeds and colours are decoded as open slices so entries of the wrong length
// are caught instead of being padded or truncated into fixed arrays. Seed
// coordinates may be written as floats.
type wireSnapshot struct {
	Cols                *int        `json:"cols"`
	Rows                *int        `json:"rows"`
	CellSize            *int        `json:"grid_cell_size"`
	Orientations        *int        `json:"orientations"`
	SeedMethod          *string     `json:"seed_method"`
	Grid                [][]int32   `json:"grid"`
	Seeds               [][]float64 `json:"seeds"`
	GrainColors         [][]int     `json:"grain_colors"`
	Temperature         *float64    `json:"temperature"`
	GrainBoundaryEnergy *float64    `json:"grain_boundary_energy"`
	BoltzConst          *float64    `json:"boltz_const"`
	Attempts            *uint64     `json:"attempts"`
	Accepted            *uint64     `json:"accepted"`
}

func decodeSeeds(raw [][]float64) ([][2]int, error) {
	seeds := make([][2]int, len(raw))
	for i, p := range raw {
		if len(p) != 2 {
			return nil, fmt.Errorf("%w: seed %d has %d coordinates, want 2", ErrInvalid, i, len(p))
		}
		for j, v := range p {
			if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
				return nil, fmt.Errorf("%w: seed %d coordinate %v is not a whole number", ErrInvalid, i, v)
			}
			seeds[i][j] = int(v)
		}
	}
	return seeds, nil
}

func decodeColors(raw [][]int) ([]Color, error) {
	if raw == nil {
		return nil, nil
	}
	colors := make([]Color, len(raw))
	for i, c := range raw {
		if len(c) != 3 {
			return nil, fmt.Errorf("%w: grain color %d has %d channels, want 3", ErrInvalid, i, len(c))
		}
		for j, v := range c {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("%w: grain color %d channel %d = %d, want 0..255", ErrInvalid, i, j, v)
			}
			colors[i][j] = uint8(v)
		}
	}
	return colors, nil
}

// Capture builds a snapshot from a lattice and the engine parameters.
// orientations is the requested seed count, which Sobol may exceed.
func Capture(l *lattice.Lattice, cellSize int, method seeding.Method, orientations int, p potts.Params, attempts, accepted uint64) *Snapshot {
	seeds := make([][2]int, len(l.Seeds()))
	for i, s := range l.Seeds() {
		seeds[i] = [2]int{s.X, s.Y}
	}
	return &Snapshot{
		Cols:                l.Cols(),
		Rows:                l.Rows(),
		CellSize:            cellSize,
		Orientations:        orientations,
		SeedMethod:          method.String(),
		Grid:                l.Columns(),
		Seeds:               seeds,
		Temperature:         p.Temperature,
		GrainBoundaryEnergy: p.GrainBoundaryEnergy,
		BoltzConst:          p.BoltzConst,
		Attempts:            attempts,
		Accepted:            accepted,
	}
}

// Lattice rebuilds the lattice described by the snapshot.
func (s *Snapshot) Lattice() (*lattice.Lattice, error) {
	seeds := make([]lattice.Point, len(s.Seeds))
	for i, p := range s.Seeds {
		seeds[i] = lattice.Point{X: p[0], Y: p[1]}
	}
	l, err := lattice.FromColumns(s.Grid, seeds)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return l, nil
}

// Params returns the thermodynamic parameters recorded in the snapshot.
func (s *Snapshot) Params() potts.Params {
	return potts.Params{
		Temperature:         s.Temperature,
		GrainBoundaryEnergy: s.GrainBoundaryEnergy,
		BoltzConst:          s.BoltzConst,
	}
}

// Method returns the recorded seed method.
func (s *Snapshot) Method() (seeding.Method, error) {
	return seeding.ParseMethod(s.SeedMethod)
}

// Validate checks that the snapshot describes a consistent microstructure.
func (s *Snapshot) Validate() error {
	if s.Cols <= 0 || s.Rows <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalid, s.Cols, s.Rows)
	}
	if s.CellSize <= 0 {
		return fmt.Errorf("%w: grid_cell_size %d", ErrInvalid, s.CellSize)
	}
	if len(s.Grid) != s.Cols {
		return fmt.Errorf("%w: grid has %d columns, cols is %d", ErrInvalid, len(s.Grid), s.Cols)
	}
	for x, col := range s.Grid {
		if len(col) != s.Rows {
			return fmt.Errorf("%w: grid column %d has %d rows, rows is %d", ErrInvalid, x, len(col), s.Rows)
		}
	}
	method, err := s.Method()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if s.Orientations < 1 || method.Emitted(s.Orientations) != len(s.Seeds) {
		return fmt.Errorf("%w: orientations %d (%s) but %d seeds", ErrInvalid, s.Orientations, method, len(s.Seeds))
	}
	if s.GrainColors != nil && len(s.GrainColors) != len(s.Seeds) {
		return fmt.Errorf("%w: %d grain colors for %d seeds", ErrInvalid, len(s.GrainColors), len(s.Seeds))
	}
	if err := s.Params().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if s.Accepted > s.Attempts {
		return fmt.Errorf("%w: accepted %d exceeds attempts %d", ErrInvalid, s.Accepted, s.Attempts)
	}
	_, err = s.Lattice()
	return err
}

// Encode writes the snapshot as JSON.
func Encode(w io.Writer, s *Snapshot) error {
	return json.NewEncoder(w).Encode(s)
}

// Decode reads a snapshot strictly: unknown keys, missing required keys and
// inconsistent content are all errors. Nothing is repaired.
func Decode(r io.Reader) (*Snapshot, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var w wireSnapshot
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("store: decode snapshot: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after snapshot", ErrInvalid)
	}

	var missing []string
	need := func(ok bool, key string) {
		if !ok {
			missing = append(missing, key)
		}
	}
	need(w.Cols != nil, "cols")
	need(w.Rows != nil, "rows")
	need(w.CellSize != nil, "grid_cell_size")
	need(w.Orientations != nil, "orientations")
	need(w.SeedMethod != nil, "seed_method")
	need(w.Grid != nil, "grid")
	need(w.Seeds != nil, "seeds")
	need(w.Temperature != nil, "temperature")
	need(w.GrainBoundaryEnergy != nil, "grain_boundary_energy")
	need(w.BoltzConst != nil, "boltz_const")
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}

	seeds, err := decodeSeeds(w.Seeds)
	if err != nil {
		return nil, err
	}
	colors, err := decodeColors(w.GrainColors)
	if err != nil {
		return nil, err
	}
	s := &Snapshot{
		Cols:                *w.Cols,
		Rows:                *w.Rows,
		CellSize:            *w.CellSize,
		Orientations:        *w.Orientations,
		SeedMethod:          *w.SeedMethod,
		Grid:                w.Grid,
		Seeds:               seeds,
		GrainColors:         colors,
		Temperature:         *w.Temperature,
		GrainBoundaryEnergy: *w.GrainBoundaryEnergy,
		BoltzConst:          *w.BoltzConst,
	}
	if w.Attempts != nil {
		s.Attempts = *w.Attempts
	}
	if w.Accepted != nil {
		s.Accepted = *w.Accepted
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Marshal returns the JSON encoding of s.
func Marshal(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes data with the same rules as Decode.
func Unmarshal(data []byte) (*Snapshot, error) {
	return Decode(bytes.NewReader(data))
}

// FileName returns a fresh snapshot file name, mmas_<uuid hex>.json.
func FileName() string {
	return "mmas_" + strings.ReplaceAll(uuid.NewString(), "-", "") + ".json"
}

// Save writes the snapshot to a new uniquely named file in dir and returns
// its path.
func Save(dir string, s *Snapshot) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("store: create %s: %w", dir, err)
	}
	path := filepath.Join(dir, FileName())
	tmp, err := os.CreateTemp(dir, ".mmas-*.tmp")
	if err != nil {
		return "", fmt.Errorf("store: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := Encode(tmp, s); err != nil {
		tmp.Close()
		return "", fmt.Errorf("store: write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("store: write snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("store: rename snapshot: %w", err)
	}
	return path, nil
}

// Load reads and validates a snapshot file.
func Load(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

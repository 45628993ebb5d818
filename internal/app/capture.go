package app

import (
	"fmt"
	"path/filepath"
	"time"

	"mmas/internal/core"
	"mmas/internal/micro"
	"mmas/internal/render"
	"mmas/internal/store"
)

// Palettes holds the two ways of colouring grains.
type Palettes struct {
	Gray  render.Palette
	Color render.Palette
}

// NewPalettes builds palettes for levels orientations. Stored colours are
// reused when they cover every orientation; otherwise colours are drawn
// from seed.
func NewPalettes(levels int, stored []store.Color, seed int64) Palettes {
	p := Palettes{Gray: render.GrayPalette(levels)}
	if len(stored) == levels && levels > 0 {
		p.Color = render.FromStore(stored)
	} else {
		p.Color = render.RandomColors(levels, core.NewRNG(seed))
	}
	return p
}

// Pick returns the colour palette when colored is set, grayscale otherwise.
func (p Palettes) Pick(colored bool) render.Palette {
	if colored {
		return p.Color
	}
	return p.Gray
}

// Capture writes PNG snapshots and JSON documents of a microstructure. PNG
// names carry the whole seconds elapsed since the capture was created.
type Capture struct {
	Dir   string
	start time.Time
	now   func() time.Time
}

// NewCapture returns a Capture writing into dir.
func NewCapture(dir string) *Capture {
	return &Capture{Dir: dir, start: time.Now(), now: time.Now}
}

// Elapsed returns the whole seconds since the capture was created.
func (c *Capture) Elapsed() int {
	return int(c.now().Sub(c.start) / time.Second)
}

// PNG renders m with palette and saves it under the snapshot naming scheme.
func (c *Capture) PNG(m *micro.Microstructure, palette render.Palette) (string, error) {
	cfg := m.Config()
	size := m.Size()
	name := render.SnapshotName(cfg.Width, cfg.CellSize, cfg.Method.String(), m.OrientationCount(), m.Engine().MCS(), c.Elapsed())
	path := filepath.Join(c.Dir, name)
	img := render.Image(m.Cells(), size.W, size.H, palette, cfg.CellSize)
	if err := render.SavePNG(path, img); err != nil {
		return "", err
	}
	return path, nil
}

// JSON saves m together with its grain colours.
func (c *Capture) JSON(m *micro.Microstructure, colors render.Palette) (string, error) {
	snap := m.Snapshot()
	if len(colors) == m.OrientationCount()+1 {
		snap.GrainColors = colors.Store()
	}
	path, err := store.Save(c.Dir, snap)
	if err != nil {
		return "", fmt.Errorf("app: save microstructure: %w", err)
	}
	return path, nil
}

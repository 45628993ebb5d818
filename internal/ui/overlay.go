//go:build ebiten

package ui

import (
	"image/color"
	"math"

	"mmas/internal/core"
	"mmas/internal/lattice"
	"mmas/internal/render"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

type latticeProvider interface {
	Lattice() *lattice.Lattice
}

// Overlay draws optional visuals on top of the grain map: grain boundaries
// (key 1) and seed markers (key 2).
type Overlay struct {
	sim            core.Sim
	scale          int
	showBoundaries bool
	showSeeds      bool

	maskImg *ebiten.Image
	maskBuf []byte
	edges   []bool

	pixel *ebiten.Image
}

var (
	boundaryTint = color.RGBA{R: 255, G: 64, B: 64, A: 220}
	seedTint     = color.RGBA{R: 64, G: 220, B: 255, A: 255}
)

// NewOverlay constructs a new overlay instance.
func NewOverlay(sim core.Sim, scale int) *Overlay {
	o := &Overlay{sim: sim, scale: scale}
	o.pixel = ebiten.NewImage(1, 1)
	o.pixel.Fill(color.White)
	return o
}

// Update toggles overlays from the keyboard.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit1) {
		o.showBoundaries = !o.showBoundaries
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit2) {
		o.showSeeds = !o.showSeeds
	}
}

// Draw renders the enabled overlays onto the provided screen.
func (o *Overlay) Draw(screen *ebiten.Image) {
	size := o.sim.Size()
	if size.W <= 0 || size.H <= 0 {
		return
	}
	scale := o.scale
	if scale <= 0 {
		scale = 1
	}
	if o.showBoundaries {
		o.drawBoundaries(screen, size, scale)
	}
	if o.showSeeds {
		if provider, ok := o.sim.(latticeProvider); ok {
			o.drawSeeds(screen, provider.Lattice().Seeds(), scale)
		}
	}
}

func (o *Overlay) drawBoundaries(screen *ebiten.Image, size core.Size, scale int) {
	total := size.W * size.H
	cells := o.sim.Cells()
	if len(cells) != total {
		return
	}
	if o.maskImg == nil || o.maskImg.Bounds().Dx() != size.W || o.maskImg.Bounds().Dy() != size.H {
		o.maskImg = ebiten.NewImage(size.W, size.H)
		o.maskBuf = make([]byte, 4*total)
	}
	o.edges = render.Boundaries(cells, size.W, size.H, o.edges)
	for i, edge := range o.edges {
		base := i * 4
		if !edge {
			o.maskBuf[base+0] = 0
			o.maskBuf[base+1] = 0
			o.maskBuf[base+2] = 0
			o.maskBuf[base+3] = 0
			continue
		}
		// WritePixels expects premultiplied alpha.
		a := float64(boundaryTint.A) / 255
		o.maskBuf[base+0] = uint8(math.Round(float64(boundaryTint.R) * a))
		o.maskBuf[base+1] = uint8(math.Round(float64(boundaryTint.G) * a))
		o.maskBuf[base+2] = uint8(math.Round(float64(boundaryTint.B) * a))
		o.maskBuf[base+3] = boundaryTint.A
	}
	o.maskImg.WritePixels(o.maskBuf)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(scale), float64(scale))
	screen.DrawImage(o.maskImg, op)
}

func (o *Overlay) drawSeeds(screen *ebiten.Image, seeds []lattice.Point, scale int) {
	s := float64(scale)
	arm := math.Max(3, 1.5*s)
	for _, p := range seeds {
		cx := (float64(p.X) + 0.5) * s
		cy := (float64(p.Y) + 0.5) * s
		o.drawLine(screen, cx-arm, cy, cx+arm, cy, 1, seedTint)
		o.drawLine(screen, cx, cy-arm, cx, cy+arm, 1, seedTint)
		o.drawPoint(screen, cx, cy, math.Max(2, 0.6*s), seedTint)
	}
}

func (o *Overlay) drawPoint(screen *ebiten.Image, x, y, size float64, col color.RGBA) {
	if o.pixel == nil || size <= 0 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(size, size)
	op.GeoM.Translate(x-size*0.5, y-size*0.5)
	op.ColorScale.ScaleWithColor(col)
	screen.DrawImage(o.pixel, op)
}

func (o *Overlay) drawLine(screen *ebiten.Image, x1, y1, x2, y2, thickness float64, col color.RGBA) {
	if o.pixel == nil || thickness <= 0 {
		return
	}
	dx := x2 - x1
	dy := y2 - y1
	length := math.Hypot(dx, dy)
	if length <= 1e-4 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(length, thickness)
	op.GeoM.Translate(0, -thickness/2)
	op.GeoM.Rotate(math.Atan2(dy, dx))
	op.GeoM.Translate(x1, y1)
	op.ColorScale.ScaleWithColor(col)
	screen.DrawImage(o.pixel, op)
}

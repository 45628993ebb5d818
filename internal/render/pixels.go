// Package render turns grain labels into pixels. It never mutates the
// lattice; callers hand it a stable label slice between ticks.
package render

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/transform"

	"mmas/internal/core"
	"mmas/internal/store"
)

// Palette maps a label to a colour. Index 0 is the unassigned colour.
type Palette []color.RGBA

// Grayscale maps labels 1..levels onto 0..255. A single level, or a label
// outside the range, maps to black.
func Grayscale(label int32, levels int) uint8 {
	if levels <= 1 || label < 1 || int(label) > levels {
		return 0
	}
	return uint8((int(label) - 1) * 255 / (levels - 1))
}

// GrayPalette returns the grayscale palette for levels orientations.
func GrayPalette(levels int) Palette {
	p := make(Palette, levels+1)
	p[0] = color.RGBA{A: 255}
	for l := 1; l <= levels; l++ {
		s := Grayscale(int32(l), levels)
		p[l] = color.RGBA{R: s, G: s, B: s, A: 255}
	}
	return p
}

// RandomColors returns a palette with one random opaque colour per grain.
func RandomColors(levels int, rng *core.RNG) Palette {
	p := make(Palette, levels+1)
	p[0] = color.RGBA{A: 255}
	for l := 1; l <= levels; l++ {
		p[l] = color.RGBA{R: uint8(rng.IntN(256)), G: uint8(rng.IntN(256)), B: uint8(rng.IntN(256)), A: 255}
	}
	return p
}

// FromStore builds a palette from persisted grain colours, which are
// indexed from label 1.
func FromStore(colors []store.Color) Palette {
	p := make(Palette, len(colors)+1)
	p[0] = color.RGBA{A: 255}
	for i, c := range colors {
		p[i+1] = color.RGBA{R: c[0], G: c[1], B: c[2], A: 255}
	}
	return p
}

// Store returns the persisted form of the palette.
func (p Palette) Store() []store.Color {
	if len(p) <= 1 {
		return nil
	}
	out := make([]store.Color, len(p)-1)
	for i, c := range p[1:] {
		out[i] = store.Color{c.R, c.G, c.B}
	}
	return out
}

// FillRGBA converts labels into RGBA pixels in buf. Labels past the end of
// the palette take its last colour. An empty palette clears the buffer to
// transparent black.
func FillRGBA(buf []byte, cells []int32, palette Palette) {
	if len(palette) == 0 {
		clear(buf[:4*len(cells)])
		return
	}

	last := len(palette) - 1
	for i, c := range cells {
		idx := int(c)
		if idx > last {
			idx = last
		}
		if idx < 0 {
			idx = 0
		}
		base := i * 4
		col := palette[idx]
		buf[base+0] = col.R
		buf[base+1] = col.G
		buf[base+2] = col.B
		buf[base+3] = col.A
	}
}

// Image renders row-major labels of a w x h lattice, each cell drawn as a
// cellSize square.
func Image(cells []int32, w, h int, palette Palette, cellSize int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	FillRGBA(img.Pix, cells, palette)
	if cellSize <= 1 {
		return img
	}
	return transform.Resize(img, w*cellSize, h*cellSize, transform.NearestNeighbor)
}

package render

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/segment"
	"golang.org/x/sync/errgroup"
)

// EdgeDir is the folder, inside the processed directory, that receives
// boundary images.
const EdgeDir = "highlighted-boundaries"

// edgeLevel is the threshold applied to the inverted edge map. Anything
// short of pure white is a boundary pixel.
const edgeLevel = 250

// Boundaries marks cells of a w x h row-major label grid that have an
// unlike right or lower neighbour. dst is reused when large enough.
func Boundaries(cells []int32, w, h int, dst []bool) []bool {
	if cap(dst) < w*h {
		dst = make([]bool, w*h)
	}
	dst = dst[:w*h]
	clear(dst)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if x+1 < w && cells[idx] != cells[idx+1] {
				dst[idx] = true
				dst[idx+1] = true
			}
			if y+1 < h && cells[idx] != cells[idx+w] {
				dst[idx] = true
				dst[idx+w] = true
			}
		}
	}
	return dst
}

// HighlightBoundaries reduces a rendered microstructure to black grain
// boundaries on white.
func HighlightBoundaries(img image.Image) *image.Gray {
	edges := effect.EdgeDetection(effect.Grayscale(img), 1)
	return segment.Threshold(effect.Invert(edges), edgeLevel)
}

// EdgeName returns the output name for a snapshot image.
func EdgeName(name string) string {
	return strings.TrimSuffix(name, ".png") + "_edge.png"
}

// HighlightDir writes a boundary image for every snapshot PNG in dir into
// dir/highlighted-boundaries, using up to workers concurrent conversions.
// Previously produced edge images are skipped. It returns the number of
// images written.
func HighlightDir(ctx context.Context, dir string, workers int) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("render: read %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || !strings.HasSuffix(n, ".png") || strings.HasSuffix(n, "_edge.png") {
			continue
		}
		names = append(names, n)
	}
	if len(names) == 0 {
		return 0, nil
	}
	out := filepath.Join(dir, EdgeDir)
	if err := os.MkdirAll(out, 0o755); err != nil {
		return 0, fmt.Errorf("render: create %s: %w", out, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for _, n := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := imgio.Open(filepath.Join(dir, n))
			if err != nil {
				return fmt.Errorf("render: open %s: %w", n, err)
			}
			return SavePNG(filepath.Join(out, EdgeName(n)), HighlightBoundaries(img))
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(names), nil
}

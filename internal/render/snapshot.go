package render

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"
)

// SnapshotName returns the image file name for a snapshot taken elapsed
// seconds after start, e.g. micro_w500_c5_mhalton_o100_mcs0012_t000030.png.
func SnapshotName(width, cellSize int, method string, orientations int, mcs uint64, elapsed int) string {
	return fmt.Sprintf("micro_w%d_c%d_m%s_o%d_mcs%04d_t%06d.png", width, cellSize, method, orientations, mcs, elapsed)
}

// SavePNG encodes img as PNG at path.
func SavePNG(path string, img image.Image) error {
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("render: save %s: %w", filepath.Base(path), err)
	}
	return nil
}

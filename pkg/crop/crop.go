// Package crop cuts one sub-image per antinode out of an annotated frame.
package crop

import (
	"fmt"
	"image"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/drscotthawley/espiownage/pkg/ellipse"
	"github.com/drscotthawley/espiownage/pkg/imageio"
	"github.com/drscotthawley/espiownage/pkg/types"
)

// Result describes one cropped antinode.
type Result struct {
	Image image.Image
	Box   image.Rectangle
	Rings float64
}

// Cropper extracts antinode crops using the unclamped ellipse bounding box.
type Cropper struct {
	Encode types.EncodeOptions
}

// New returns a Cropper writing png crops.
func New() *Cropper {
	return &Cropper{Encode: types.EncodeOptions{Format: "png", Quality: 90}}
}

// NewWithOptions returns a Cropper writing crops with the given encoding.
func NewWithOptions(opts types.EncodeOptions) *Cropper {
	return &Cropper{Encode: opts}
}

// Crops returns a crop for every antinode whose box overlaps img. Boxes that
// miss the image entirely are skipped and counted.
func (c *Cropper) Crops(img image.Image, anns []ellipse.Annotation) ([]Result, int) {
	var results []Result
	skipped := 0
	for _, e := range anns {
		if e.IsPlaceholder() {
			continue
		}
		box := e.BoundingBox()
		cropped, ok := imageio.Crop(img, box)
		if !ok {
			skipped++
			continue
		}
		results = append(results, Result{
			Image: cropped,
			Box:   box.Rect(),
			Rings: math.Round(e.Rings*100) / 100,
		})
	}
	return results, skipped
}

// FileName builds stem_xmin_ymin_xmax_ymax_rings.ext for a crop.
func (c *Cropper) FileName(stem string, r Result) string {
	return fmt.Sprintf("%s_%d_%d_%d_%d_%s.%s", stem,
		r.Box.Min.X, r.Box.Min.Y, r.Box.Max.X, r.Box.Max.Y,
		FormatRings(r.Rings), imageio.Extension(c.Encode.Format))
}

// Save writes every crop of one frame into outDir and returns the written paths.
func (c *Cropper) Save(outDir, stem string, results []Result) ([]string, error) {
	paths := make([]string, 0, len(results))
	for _, r := range results {
		path := filepath.Join(outDir, c.FileName(stem, r))
		if err := imageio.Save(r.Image, path, c.Encode); err != nil {
			return paths, fmt.Errorf("failed to save crop %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// FormatRings prints a ring count with at least one decimal digit, so 5
// becomes "5.0" and 2.25 stays "2.25".
func FormatRings(r float64) string {
	s := strconv.FormatFloat(r, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

package types

import (
	"image"
	"math"
)

// Box is an axis-aligned rectangle in pixel coordinates given by its corners.
type Box struct {
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`
}

// Width returns the horizontal extent of the box.
func (b Box) Width() float64 {
	return b.XMax - b.XMin
}

// Height returns the vertical extent of the box.
func (b Box) Height() float64 {
	return b.YMax - b.YMin
}

// Area returns the box area, or zero when either side is non-positive.
func (b Box) Area() float64 {
	if b.Empty() {
		return 0
	}
	return b.Width() * b.Height()
}

// Empty reports whether the box has zero or negative area.
func (b Box) Empty() bool {
	return b.XMax <= b.XMin || b.YMax <= b.YMin
}

// XYWH returns the box as [x, y, width, height], the layout COCO uses.
func (b Box) XYWH() [4]float64 {
	return [4]float64{b.XMin, b.YMin, b.Width(), b.Height()}
}

// Overlaps reports whether two boxes touch or intersect.
func (b Box) Overlaps(o Box) bool {
	if b.XMax < o.XMin || b.XMin > o.XMax {
		return false
	}
	if b.YMax < o.YMin || b.YMin > o.YMax {
		return false
	}
	return true
}

// Inside reports whether the box lies fully within [0,w]x[0,h].
func (b Box) Inside(w, h float64) bool {
	return b.XMin >= 0 && b.YMin >= 0 && b.XMax <= w && b.YMax <= h
}

// Rect rounds the box corners to the nearest pixel.
func (b Box) Rect() image.Rectangle {
	return image.Rect(
		int(math.Round(b.XMin)), int(math.Round(b.YMin)),
		int(math.Round(b.XMax)), int(math.Round(b.YMax)),
	)
}

// EncodeOptions selects the file format used when writing raster output
type EncodeOptions struct {
	Format   string `json:"format"`
	Quality  int    `json:"quality"`
	Lossless bool   `json:"lossless"`
}

// Package overlay draws annotations on top of a frame for visual checking.
package overlay

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/drscotthawley/espiownage/pkg/ellipse"
	"github.com/drscotthawley/espiownage/pkg/types"
)

// Style sets the colors and stroke used when drawing.
type Style struct {
	Ellipse  color.NRGBA
	HandleA  color.NRGBA
	HandleB  color.NRGBA
	Box      color.NRGBA
	Stroke   int
	Handle   int // half-size of a handle marker
	ShowBox  bool
	Contours int // contour steps
}

// DefaultStyle matches the editor: red outlines, a red A handle, a blue B
// handle and gold boxes.
func DefaultStyle() Style {
	return Style{
		Ellipse:  color.NRGBA{255, 0, 0, 255},
		HandleA:  color.NRGBA{255, 0, 0, 255},
		HandleB:  color.NRGBA{0, 170, 255, 255},
		Box:      color.NRGBA{255, 204, 0, 255},
		Stroke:   2,
		Handle:   4,
		ShowBox:  true,
		Contours: ellipse.DefaultContourSteps,
	}
}

// Draw returns a copy of img with every antinode outlined. Ellipses whose
// sampled contour falls entirely outside the frame are left out.
func Draw(img image.Image, anns []ellipse.Annotation, st Style) *image.NRGBA {
	out := imaging.Clone(img)
	w, h := out.Bounds().Dx(), out.Bounds().Dy()

	frame := types.Box{XMax: float64(w), YMax: float64(h)}
	for _, e := range anns {
		if e.IsPlaceholder() {
			continue
		}
		pts := e.Contour(st.Contours)
		if !ellipse.ContourBounds(pts).Overlaps(frame) {
			continue
		}
		if st.ShowBox {
			if box, err := e.ClampedBoundingBox(float64(w), float64(h)); err == nil {
				drawBox(out, box, st.Box, st.Stroke)
			}
		}

		for i := range pts {
			next := pts[(i+1)%len(pts)]
			drawLine(out, pts[i], next, st.Ellipse, st.Stroke)
		}

		hp := e.Handles()
		drawMarker(out, hp.A, st.HandleA, st.Handle)
		drawMarker(out, hp.B, st.HandleB, st.Handle)
	}
	return out
}

func drawBox(img *image.NRGBA, box types.Box, c color.NRGBA, stroke int) {
	r := box.Rect()
	x0, y0, x1, y1 := r.Min.X, r.Min.Y, r.Max.X, r.Max.Y
	for s := 0; s < stroke; s++ {
		drawHLine(img, y0+s, x0, x1, c)
		drawHLine(img, y1-1-s, x0, x1, c)
		drawVLine(img, x0+s, y0, y1, c)
		drawVLine(img, x1-1-s, y0, y1, c)
	}
}

// drawLine plots a segment with square pens of the given stroke width.
func drawLine(img *image.NRGBA, a, b ellipse.Point, c color.NRGBA, stroke int) {
	steps := int(math.Ceil(math.Max(math.Abs(b.X-a.X), math.Abs(b.Y-a.Y))))
	if steps < 1 {
		steps = 1
	}
	half := stroke / 2
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := int(math.Round(a.X + t*(b.X-a.X)))
		y := int(math.Round(a.Y + t*(b.Y-a.Y)))
		for dy := 0; dy < stroke; dy++ {
			drawHLine(img, y-half+dy, x-half, x-half+stroke, c)
		}
	}
}

func drawMarker(img *image.NRGBA, p ellipse.Point, c color.NRGBA, size int) {
	x, y := int(math.Round(p.X)), int(math.Round(p.Y))
	for dy := -size; dy <= size; dy++ {
		drawHLine(img, y+dy, x-size, x+size+1, c)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	x0, x1 = max(x0, 0), min(x1, img.Bounds().Dx())
	for x := x0; x < x1; x++ {
		img.SetNRGBA(x, y, c)
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	y0, y1 = max(y0, 0), min(y1, img.Bounds().Dy())
	for y := y0; y < y1; y++ {
		img.SetNRGBA(x, y, c)
	}
}

// Visible counts the ellipses Draw would outline on a w x h frame.
func Visible(anns []ellipse.Annotation, w, h int, st Style) int {
	frame := types.Box{XMax: float64(w), YMax: float64(h)}
	n := 0
	for _, e := range anns {
		if !e.IsPlaceholder() && ellipse.ContourBounds(e.Contour(st.Contours)).Overlaps(frame) {
			n++
		}
	}
	return n
}

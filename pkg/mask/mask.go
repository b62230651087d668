// Package mask rasterizes ellipse annotations into single-channel
// segmentation masks.
package mask

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/drscotthawley/espiownage/pkg/ellipse"
)

// Overlap decides what happens where a new ellipse covers pixels that an
// earlier one already set.
type Overlap int

const (
	// LastWins overwrites earlier values; draw order is input order.
	LastWins Overlap = iota
	// FirstWins only writes pixels still holding the background value.
	FirstWins
)

// ParseOverlap maps "last"/"first" to an Overlap policy.
func ParseOverlap(s string) (Overlap, error) {
	switch s {
	case "", "last":
		return LastWins, nil
	case "first":
		return FirstWins, nil
	}
	return LastWins, fmt.Errorf("unknown overlap policy %q (use last or first)", s)
}

func (o Overlap) String() string {
	if o == FirstWins {
		return "first"
	}
	return "last"
}

// Rasterize fills the ellipse into canvas with value. A pixel is inside when
// its center lies inside the ellipse. Pixels outside the canvas are ignored.
// With FirstWins, only pixels equal to background are written.
func Rasterize(canvas *image.Gray, e ellipse.Annotation, value uint8, policy Overlap, background uint8) {
	if e.A <= 0 || e.B <= 0 {
		return
	}
	r := e.BoundingBox()
	bounds := canvas.Bounds()
	rect := image.Rect(
		int(math.Floor(r.XMin)), int(math.Floor(r.YMin)),
		int(math.Ceil(r.XMax))+1, int(math.Ceil(r.YMax))+1,
	).Intersect(bounds)
	if rect.Empty() {
		return
	}

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		row := canvas.Pix[(y-bounds.Min.Y)*canvas.Stride:]
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if !e.Contains(ellipse.Pt(float64(x)+0.5, float64(y)+0.5)) {
				continue
			}
			i := x - bounds.Min.X
			if policy == FirstWins && row[i] != background {
				continue
			}
			row[i] = value
		}
	}
}

// FillMode chooses the value written for each annotation.
type FillMode int

const (
	// FillRings writes the quantized ring class of each annotation.
	FillRings FillMode = iota
	// FillFlat writes the same value for every antinode.
	FillFlat
)

// ParseFillMode maps "rings"/"flat" to a FillMode.
func ParseFillMode(s string) (FillMode, error) {
	switch s {
	case "", "rings":
		return FillRings, nil
	case "flat":
		return FillFlat, nil
	}
	return FillRings, fmt.Errorf("unknown mask mode %q (use rings or flat)", s)
}

// Builder turns one image's annotation set into a mask.
type Builder struct {
	Quantizer ellipse.Quantizer
	Mode      FillMode
	Overlap   Overlap
	FlatValue uint8
}

// Values is the set of pixel values present in a mask.
type Values map[uint8]struct{}

// Union adds every value of other into v.
func (v Values) Union(other Values) {
	for k := range other {
		v[k] = struct{}{}
	}
}

// Sorted lists the values in ascending order.
func (v Values) Sorted() []int {
	out := make([]int, 0, len(v))
	for k := range v {
		out = append(out, int(k))
	}
	sort.Ints(out)
	return out
}

// Value returns the fill value for one annotation.
func (b Builder) Value(e ellipse.Annotation) (uint8, error) {
	if b.Mode == FillFlat {
		return b.FlatValue, nil
	}
	idx := b.Quantizer.Index(e.Rings)
	if idx < 0 || idx > math.MaxUint8 {
		return 0, fmt.Errorf("ring class %d does not fit an 8-bit mask (step %v too small)", idx, b.Quantizer.Step())
	}
	return uint8(idx), nil
}

// Build draws every antinode of anns, in order, onto a fresh width x height
// mask and reports which values the mask ended up holding. Placeholders are
// skipped.
func (b Builder) Build(width, height int, anns []ellipse.Annotation) (*image.Gray, Values, error) {
	canvas := image.NewGray(image.Rect(0, 0, width, height))
	for _, e := range anns {
		if e.IsPlaceholder() {
			continue
		}
		v, err := b.Value(e)
		if err != nil {
			return nil, nil, err
		}
		Rasterize(canvas, e, v, b.Overlap, 0)
	}
	return canvas, Collect(canvas), nil
}

// Collect returns the set of values present in a mask.
func Collect(m *image.Gray) Values {
	vals := Values{}
	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			vals[m.GrayAt(x, y).Y] = struct{}{}
		}
	}
	return vals
}

// Colorize maps class values to visible gray levels for inspection; the
// largest class present becomes white.
func Colorize(m *image.Gray) *image.Gray {
	out := image.NewGray(m.Bounds())
	var maxV uint8
	for _, v := range m.Pix {
		if v > maxV {
			maxV = v
		}
	}
	if maxV == 0 {
		return out
	}
	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := m.GrayAt(x, y).Y
			out.SetGray(x, y, color.Gray{Y: uint8(int(v) * 255 / int(maxV))})
		}
	}
	return out
}

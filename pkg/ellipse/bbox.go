package ellipse

import (
	"math"

	"github.com/drscotthawley/espiownage/pkg/types"
)

// BoundingBox returns the tight axis-aligned box of the rotated ellipse.
func (e Annotation) BoundingBox() types.Box {
	sin, cos := math.Sincos(radians(e.Angle))
	a2, b2 := e.A*e.A, e.B*e.B
	dx := math.Sqrt(a2*cos*cos + b2*sin*sin)
	dy := math.Sqrt(a2*sin*sin + b2*cos*cos)
	return types.Box{
		XMin: e.Center.X - dx,
		YMin: e.Center.Y - dy,
		XMax: e.Center.X + dx,
		YMax: e.Center.Y + dy,
	}
}

// ClampedBoundingBox clamps the tight box into [0,width]x[0,height].
// It returns ErrDegenerate when nothing of the ellipse box is left.
func (e Annotation) ClampedBoundingBox(width, height float64) (types.Box, error) {
	return ClampBox(e.BoundingBox(), width, height)
}

// ClampBox clamps box into [0,width]x[0,height].
func ClampBox(box types.Box, width, height float64) (types.Box, error) {
	c := types.Box{
		XMin: clamp(box.XMin, 0, width),
		YMin: clamp(box.YMin, 0, height),
		XMax: clamp(box.XMax, 0, width),
		YMax: clamp(box.YMax, 0, height),
	}
	if c.Empty() {
		return types.Box{}, ErrDegenerate
	}
	return c, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

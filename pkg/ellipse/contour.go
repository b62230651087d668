package ellipse

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/drscotthawley/espiownage/pkg/types"
)

// DefaultContourSteps is the vertex count used for drawing outlines.
const DefaultContourSteps = 100

// Contour samples the ellipse boundary as a closed polygon of exactly steps
// vertices; the first vertex is not repeated at the end. Non-positive steps
// fall back to DefaultContourSteps.
func (e Annotation) Contour(steps int) []Point {
	if steps <= 0 {
		steps = DefaultContourSteps
	}
	sin, cos := math.Sincos(radians(e.Angle))
	pts := make([]Point, steps)
	for i := range pts {
		theta := 2 * math.Pi * float64(i) / float64(steps)
		x1 := e.A * math.Cos(theta)
		y1 := e.B * math.Sin(theta)
		// y points down, so the cross terms carry the opposite sign of the
		// usual rotation matrix.
		pts[i] = Point{
			X: e.Center.X + x1*cos + y1*sin,
			Y: e.Center.Y + y1*cos - x1*sin,
		}
	}
	return pts
}

// ContourBounds returns the min/max box of a sampled contour.
func ContourBounds(pts []Point) types.Box {
	if len(pts) == 0 {
		return types.Box{}
	}
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = p.X, p.Y
	}
	return types.Box{
		XMin: floats.Min(xs),
		YMin: floats.Min(ys),
		XMax: floats.Max(xs),
		YMax: floats.Max(ys),
	}
}

// Contains reports whether p lies inside or on the ellipse.
func (e Annotation) Contains(p Point) bool {
	if e.A <= 0 || e.B <= 0 {
		return false
	}
	sin, cos := math.Sincos(radians(e.Angle))
	u, v := e.local(p, sin, cos)
	return (u*u)/(e.A*e.A)+(v*v)/(e.B*e.B) <= 1
}

// local maps an image point into the ellipse frame, where the semi-major
// axis runs along u. It inverts the rotation used by Contour.
func (e Annotation) local(p Point, sin, cos float64) (float64, float64) {
	dx := p.X - e.Center.X
	dy := p.Y - e.Center.Y
	return dx*cos - dy*sin, dx*sin + dy*cos
}

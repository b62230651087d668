package ellipse

import (
	"fmt"
	"math"
)

// MaxRings is the largest ring count an annotation may carry.
const MaxRings = 11.0

// Annotation is one antinode: an oriented ellipse plus its ring count.
// After normalization A >= B and Angle lies in [0, 360).
type Annotation struct {
	Center Point   `json:"center"`
	A      float64 `json:"a"`
	B      float64 `json:"b"`
	Angle  float64 `json:"angle"`
	Rings  float64 `json:"rings"`
}

// New validates and normalizes raw record values. A zero ring count is
// accepted and yields a placeholder that exports must skip.
func New(cx, cy, a, b, angle, rings float64) (Annotation, error) {
	if math.IsNaN(rings) || rings < 0 || rings > MaxRings {
		return Annotation{}, &ValidationError{Reason: fmt.Sprintf("rings %v outside [0, %v]", rings, MaxRings)}
	}
	if a < 0 || b < 0 {
		return Annotation{}, &ValidationError{Reason: fmt.Sprintf("negative axis (a=%v, b=%v)", a, b)}
	}
	for _, v := range []float64{cx, cy, a, b, angle} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Annotation{}, &ValidationError{Reason: "non-finite geometry"}
		}
	}
	na, nb, nangle := Normalize(a, b, angle)
	return Annotation{Center: Pt(cx, cy), A: na, B: nb, Angle: nangle, Rings: rings}, nil
}

// Normalize enforces a >= b. When the axes are swapped the angle turns by 90
// degrees so the ellipse itself is unchanged. The angle is reduced to [0, 360).
func Normalize(a, b, angle float64) (float64, float64, float64) {
	if a < b {
		a, b = b, a
		angle += 90
	}
	return a, b, wrapDegrees(angle)
}

// Normalized returns a copy of e with Normalize applied.
func (e Annotation) Normalized() Annotation {
	e.A, e.B, e.Angle = Normalize(e.A, e.B, e.Angle)
	return e
}

// IsPlaceholder reports whether the annotation marks "no antinode".
func (e Annotation) IsPlaceholder() bool {
	return e.Rings == 0
}

// Values returns the record tuple cx, cy, a, b, angle, rings.
func (e Annotation) Values() [6]float64 {
	return [6]float64{e.Center.X, e.Center.Y, e.A, e.B, e.Angle, e.Rings}
}

// Translate moves the ellipse center by (dx, dy).
func (e *Annotation) Translate(dx, dy float64) {
	e.Center.X += dx
	e.Center.Y += dy
}

func wrapDegrees(angle float64) float64 {
	m := math.Mod(angle, 360)
	if m < 0 {
		m += 360
	}
	if m >= 360 {
		m = 0
	}
	return m
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

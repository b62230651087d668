package ellipse

import "math"

// Axis names which handle of an ellipse is being manipulated.
type Axis int

const (
	AxisA Axis = iota // semi-major handle, sets A and the angle
	AxisB             // semi-minor handle, sets B and the angle offset by 90 degrees
)

func (a Axis) String() string {
	if a == AxisB {
		return "b"
	}
	return "a"
}

// HandlePair holds the two draggable axis endpoints of an ellipse.
type HandlePair struct {
	A Point
	B Point
}

// Handles returns the contour points at theta = 0 and theta = pi/2.
func (e Annotation) Handles() HandlePair {
	sin, cos := math.Sincos(radians(e.Angle))
	return HandlePair{
		A: Point{X: e.Center.X + e.A*cos, Y: e.Center.Y - e.A*sin},
		B: Point{X: e.Center.X + e.B*sin, Y: e.Center.Y + e.B*cos},
	}
}

// Handle returns the position of one handle.
func (e Annotation) Handle(axis Axis) Point {
	h := e.Handles()
	if axis == AxisB {
		return h.B
	}
	return h.A
}

// InverseFromHandle recovers the dragged axis length and the ellipse angle
// from a handle position. The returned angle is in [0, 360).
func InverseFromHandle(center, dragged Point, axis Axis) (length, angle float64) {
	length = center.Distance(dragged)
	angle = degrees(math.Atan2(center.Y-dragged.Y, dragged.X-center.X))
	if axis == AxisB {
		angle += 90
	}
	return length, wrapDegrees(angle)
}

// DragHandle moves one handle to pos. The dragged axis takes the new length,
// the whole ellipse takes the new angle and the other axis keeps its length.
// The result is not normalized, so A may temporarily be shorter than B.
func (e Annotation) DragHandle(axis Axis, pos Point) Annotation {
	length, angle := InverseFromHandle(e.Center, pos, axis)
	if axis == AxisB {
		e.B = length
	} else {
		e.A = length
	}
	e.Angle = angle
	return e
}

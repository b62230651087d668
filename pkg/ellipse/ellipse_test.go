package ellipse

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

const tol = 1e-6

func mustNew(t *testing.T, cx, cy, a, b, angle, rings float64) Annotation {
	t.Helper()
	e, err := New(cx, cy, a, b, angle, rings)
	require.NoError(t, err)
	return e
}

func angleDiff(x, y float64) float64 {
	d := math.Mod(math.Abs(x-y), 360)
	return math.Min(d, 360-d)
}

func TestNormalizeSwapsAxes(t *testing.T) {
	a, b, angle := Normalize(30, 42, 63)
	require.Equal(t, 42.0, a)
	require.Equal(t, 30.0, b)
	require.InDelta(t, 153.0, angle, tol)
}

func TestNormalizeIdempotent(t *testing.T) {
	cases := [][3]float64{
		{30, 42, 63},
		{1, 2, 300},
		{5, 5, -45},
		{10, 80, 725},
		{0.5, 0.75, 0},
	}
	for _, c := range cases {
		a1, b1, ang1 := Normalize(c[0], c[1], c[2])
		a2, b2, ang2 := Normalize(a1, b1, ang1)
		require.GreaterOrEqual(t, a1, b1)
		require.Equal(t, a1, a2)
		require.Equal(t, b1, b2)
		require.InDelta(t, ang1, ang2, tol)
		require.GreaterOrEqual(t, ang1, 0.0)
		require.Less(t, ang1, 360.0)
	}
}

func TestNewValidation(t *testing.T) {
	_, err := New(10, 10, 5, 5, 0, 11.5)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	_, err = New(10, 10, -1, 5, 0, 3)
	require.True(t, errors.As(err, &verr))

	_, err = New(10, 10, 5, 5, 0, -0.1)
	require.True(t, errors.As(err, &verr))

	e, err := New(10, 10, 5, 5, 0, 0)
	require.NoError(t, err)
	require.True(t, e.IsPlaceholder())

	e, err = New(10, 10, 5, 5, 0, 11)
	require.NoError(t, err)
	require.False(t, e.IsPlaceholder())
}

func TestHandlesRoundTrip(t *testing.T) {
	angles := []float64{0, 15, 63, 90, 153, 179.5, 210, 359}
	for _, ang := range angles {
		e := mustNew(t, 200, 150, 60, 25, ang, 4)
		h := e.Handles()

		a, angA := InverseFromHandle(e.Center, h.A, AxisA)
		require.InDelta(t, e.A, a, tol)
		require.InDelta(t, 0, angleDiff(e.Angle, angA), tol, "angle %v", ang)

		b, angB := InverseFromHandle(e.Center, h.B, AxisB)
		require.InDelta(t, e.B, b, tol)
		require.InDelta(t, 0, angleDiff(e.Angle, angB), tol, "angle %v", ang)
	}
}

func TestHandlesMatchContour(t *testing.T) {
	e := mustNew(t, 100, 80, 40, 20, 33, 2)
	pts := e.Contour(4)
	h := e.Handles()
	require.InDelta(t, pts[0].X, h.A.X, tol)
	require.InDelta(t, pts[0].Y, h.A.Y, tol)
	require.InDelta(t, pts[1].X, h.B.X, tol)
	require.InDelta(t, pts[1].Y, h.B.Y, tol)
}

func TestHandleImageOrientation(t *testing.T) {
	// positive angle turns the a-handle upward on screen
	e := mustNew(t, 0, 0, 10, 5, 90, 1)
	h := e.Handles()
	require.InDelta(t, 0, h.A.X, tol)
	require.InDelta(t, -10, h.A.Y, tol)
}

func TestDragHandleKeepsOtherAxis(t *testing.T) {
	e := mustNew(t, 100, 100, 50, 20, 0, 3)

	moved := e.DragHandle(AxisA, Pt(100, 40))
	require.InDelta(t, 60, moved.A, tol)
	require.InDelta(t, 20, moved.B, tol)
	require.InDelta(t, 90, moved.Angle, tol)

	h := moved.Handles()
	require.InDelta(t, 20, moved.Center.Distance(h.B), tol)
	require.InDelta(t, 60, moved.Center.Distance(h.A), tol)

	rotated := e.DragHandle(AxisB, Pt(130, 100))
	require.InDelta(t, 30, rotated.B, tol)
	require.InDelta(t, 50, rotated.A, tol)
	require.InDelta(t, 90, rotated.Angle, tol)
	require.InDelta(t, 130, rotated.Handles().B.X, tol)
}

func TestContourShape(t *testing.T) {
	e := mustNew(t, 10, 20, 5, 3, 0, 1)
	pts := e.Contour(100)
	require.Len(t, pts, 100)
	require.InDelta(t, 15, pts[0].X, tol)
	require.InDelta(t, 20, pts[0].Y, tol)
	require.Equal(t, pts, e.Contour(100))
	require.Len(t, e.Contour(0), DefaultContourSteps)
}

func TestBoundingBoxMatchesDenseContour(t *testing.T) {
	cases := []Annotation{
		mustNew(t, 256, 192, 80, 30, 0, 2),
		mustNew(t, 256, 192, 80, 30, 37, 2),
		mustNew(t, 100, 300, 120, 10, 123.4, 5),
		mustNew(t, 37, 42, 30, 42, 63, 5),
		mustNew(t, 400, 60, 45, 45, 271, 1),
	}
	for _, e := range cases {
		box := e.BoundingBox()
		dense := ContourBounds(e.Contour(3600))
		got := []float64{box.XMin, box.YMin, box.XMax, box.YMax}
		want := []float64{dense.XMin, dense.YMin, dense.XMax, dense.YMax}
		require.True(t, floats.EqualApprox(got, want, 1), "box %v dense %v", box, dense)
	}
}

func TestClampedBoundingBoxDegenerate(t *testing.T) {
	e := mustNew(t, -100, -100, 5, 5, 0, 3)
	_, err := e.ClampedBoundingBox(512, 384)
	require.ErrorIs(t, err, ErrDegenerate)
}

func TestEndToEndRow(t *testing.T) {
	e := mustNew(t, 37, 42, 30, 42, 63, 5.0)
	require.Equal(t, 42.0, e.A)
	require.Equal(t, 30.0, e.B)
	require.InDelta(t, 153, e.Angle, tol)

	c := math.Cos(153 * math.Pi / 180)
	s := math.Sin(153 * math.Pi / 180)
	wantWidth := 2 * math.Sqrt(42*42*c*c+30*30*s*s)
	require.InDelta(t, wantWidth, e.BoundingBox().Width(), 1)

	box, err := e.ClampedBoundingBox(512, 384)
	require.NoError(t, err)
	require.True(t, box.Inside(512, 384))
	require.InDelta(t, e.BoundingBox().XMax, box.XMax, tol)
}

func TestQuantizer(t *testing.T) {
	q, err := NewQuantizer(0.5)
	require.NoError(t, err)
	require.Less(t, q.Index(1.0), q.Index(2.0))
	require.Less(t, q.Index(2.0), q.Index(3.0))
	require.Equal(t, 23, q.NumClasses(MaxRings))

	fine, err := NewQuantizer(0.1)
	require.NoError(t, err)
	require.Equal(t, 3, fine.Index(0.3))
	require.Equal(t, 110, fine.Index(11))

	prev := fine.Index(0)
	for r := 0.0; r <= MaxRings; r += 0.01 {
		idx := fine.Index(r)
		require.GreaterOrEqual(t, idx, prev)
		prev = idx
	}

	_, err = NewQuantizer(0)
	require.Error(t, err)
}

func TestContains(t *testing.T) {
	e := mustNew(t, 50, 50, 20, 5, 90, 1)
	require.True(t, e.Contains(Pt(50, 35)))
	require.False(t, e.Contains(Pt(65, 50)))
}

func BenchmarkContour(b *testing.B) {
	e := Annotation{Center: Pt(256, 192), A: 80, B: 30, Angle: 37, Rings: 3}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Contour(DefaultContourSteps)
	}
}

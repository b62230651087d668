package overlay

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/drscotthawley/espiownage/pkg/ellipse"
)

func createTestImage(width, height int) image.Image {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 64
	}
	return img
}

func TestDrawMarksContourHandlesAndBox(t *testing.T) {
	e, err := ellipse.New(100, 75, 40, 20, 0, 3)
	require.NoError(t, err)
	st := DefaultStyle()

	out := Draw(createTestImage(200, 150), []ellipse.Annotation{e, {}}, st)
	require.Equal(t, image.Rect(0, 0, 200, 150), out.Bounds())

	// handle A at (140, 75), handle B at (100, 95)
	require.Equal(t, st.HandleA, out.NRGBAAt(140, 75))
	require.Equal(t, st.HandleB, out.NRGBAAt(100, 95))
	// top of the contour at (100, 55) lies on the box edge too
	require.NotEqual(t, color.NRGBA{64, 64, 64, 255}, out.NRGBAAt(100, 55))
	// box corner
	require.Equal(t, st.Box, out.NRGBAAt(60, 55))
	// untouched center and far corner
	require.Equal(t, color.NRGBA{64, 64, 64, 255}, out.NRGBAAt(100, 75))
	require.Equal(t, color.NRGBA{64, 64, 64, 255}, out.NRGBAAt(5, 5))
}

func TestDrawClipsAtEdges(t *testing.T) {
	e, err := ellipse.New(0, 0, 30, 20, 45, 2)
	require.NoError(t, err)
	require.NotPanics(t, func() {
		Draw(createTestImage(50, 40), []ellipse.Annotation{e}, DefaultStyle())
	})
}

func TestDrawSkipsEllipsesOutsideFrame(t *testing.T) {
	inside, err := ellipse.New(100, 75, 40, 20, 0, 3)
	require.NoError(t, err)
	outside, err := ellipse.New(400, 300, 30, 20, 30, 2)
	require.NoError(t, err)
	st := DefaultStyle()

	require.Equal(t, 1, Visible([]ellipse.Annotation{inside, outside, {}}, 200, 150, st))

	img := createTestImage(200, 150)
	alone := Draw(img, []ellipse.Annotation{inside}, st)
	both := Draw(img, []ellipse.Annotation{inside, outside}, st)
	require.Equal(t, alone.Pix, both.Pix)
}

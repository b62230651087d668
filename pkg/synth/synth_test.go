package synth

import (
	"image"
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/drscotthawley/espiownage/internal/utils"
	"github.com/drscotthawley/espiownage/pkg/imageio"
	"github.com/drscotthawley/espiownage/pkg/record"
	"github.com/drscotthawley/espiownage/pkg/types"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 128, 96
	cfg.Seed = 42
	return cfg
}

func TestGenerateDeterministic(t *testing.T) {
	g := New(smallConfig())
	f1, err := g.Generate(5)
	require.NoError(t, err)
	f2, err := g.Generate(5)
	require.NoError(t, err)

	require.Equal(t, f1.Image.Pix, f2.Image.Pix)
	require.Equal(t, f1.Annotations, f2.Annotations)

	f3, err := g.Generate(6)
	require.NoError(t, err)
	require.NotEqual(t, f1.Image.Pix, f3.Image.Pix)
}

func TestGenerateAnnotations(t *testing.T) {
	cfg := smallConfig()
	g := New(cfg)
	for n := 0; n < 10; n++ {
		f, err := g.Generate(n)
		require.NoError(t, err)
		require.Equal(t, image.Rect(0, 0, cfg.Width, cfg.Height), f.Image.Bounds())
		require.NotEmpty(t, f.Annotations)
		require.LessOrEqual(t, len(f.Annotations), cfg.MaxAntinodes)

		var boxes []types.Box
		for _, a := range f.Annotations {
			require.GreaterOrEqual(t, a.A, a.B)
			require.Greater(t, a.Rings, 0.0)
			require.LessOrEqual(t, a.Rings, 11.0)
			require.InDelta(t, math.Round(a.Rings*10), a.Rings*10, 1e-9)

			box := a.BoundingBox()
			require.True(t, box.Inside(float64(cfg.Width), float64(cfg.Height)), "frame %d box %+v", n, box)
			for _, other := range boxes {
				require.False(t, box.Overlaps(other))
			}
			boxes = append(boxes, box)
		}
	}
}

func TestFrameWrite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, PrepareDirs(dir))

	f, err := New(smallConfig()).Generate(12)
	require.NoError(t, err)
	imgPath, recPath, err := f.Write(dir)
	require.NoError(t, err)

	require.Equal(t, filepath.Join(dir, "images", "steelpan_0000012.png"), imgPath)
	require.Equal(t, filepath.Join(dir, "annotations", "steelpan_0000012.csv"), recPath)
	require.True(t, utils.FileExists(imgPath))

	anns, err := record.ReadFile(recPath)
	require.NoError(t, err)
	require.Len(t, anns, len(f.Annotations))
}

func TestBandpassMixup(t *testing.T) {
	dir := t.TempDir()
	bg := image.NewGray(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			bg.Pix[y*bg.Stride+x] = uint8(x * 4)
		}
	}
	bgPath := filepath.Join(dir, "real.png")
	require.NoError(t, imageio.Save(bg, bgPath, types.EncodeOptions{Format: "png"}))

	cfg := smallConfig()
	cfg.Backgrounds = []string{bgPath}
	f, err := New(cfg).Generate(1)
	require.NoError(t, err)

	lo, hi := uint8(255), uint8(0)
	for _, v := range f.Image.Pix {
		lo, hi = min(lo, v), max(hi, v)
	}
	require.Equal(t, uint8(0), lo)
	require.Equal(t, uint8(255), hi)
}

func TestBandpassMixupMissingBackground(t *testing.T) {
	cfg := smallConfig()
	cfg.Backgrounds = []string{filepath.Join(t.TempDir(), "nope.png")}
	_, err := New(cfg).Generate(1)
	require.Error(t, err)
}

func TestFFTRoundTrip(t *testing.T) {
	w, h := 8, 4
	data := make([]complex128, w*h)
	for i := range data {
		data[i] = complex(float64(i*i%17), 0)
	}
	back := fft2(fft2(data, w, h, false), w, h, true)
	for i := range data {
		require.InDelta(t, real(data[i]), real(back[i])/float64(w*h), 1e-9)
		require.InDelta(t, 0, imag(back[i])/float64(w*h), 1e-9)
	}
}

func TestSignedFreq(t *testing.T) {
	require.Equal(t, 0, signedFreq(0, 8))
	require.Equal(t, 3, signedFreq(3, 8))
	require.Equal(t, -4, signedFreq(4, 8))
	require.Equal(t, -1, signedFreq(7, 8))
}

func TestRandIntCollapsedRange(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	require.Equal(t, 7, randInt(rng, 7, 3))
	for i := 0; i < 100; i++ {
		v := randInt(rng, 2, 4)
		require.True(t, v >= 2 && v <= 4)
	}
}

func BenchmarkGenerate(b *testing.B) {
	g := New(DefaultConfig())
	for i := 0; i < b.N; i++ {
		if _, err := g.Generate(i); err != nil {
			b.Fatal(err)
		}
	}
}

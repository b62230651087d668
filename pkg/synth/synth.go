// Package synth generates fake ESPI-like steelpan images together with their
// ellipse annotations, for training data augmentation.
package synth

import (
	"fmt"
	"image"
	"math"
	"math/rand"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/drscotthawley/espiownage/internal/utils"
	"github.com/drscotthawley/espiownage/pkg/ellipse"
	"github.com/drscotthawley/espiownage/pkg/imageio"
	"github.com/drscotthawley/espiownage/pkg/mask"
	"github.com/drscotthawley/espiownage/pkg/record"
	"github.com/drscotthawley/espiownage/pkg/types"
)

// Config holds the generator settings.
type Config struct {
	Width        int
	Height       int
	Seed         int64
	MaxAntinodes int
	BlurProb     float64
	MinLineWidth float64  // pixels per dark/light ring pair
	Backgrounds  []string // real images for band-pass mixup; empty disables it
}

// DefaultConfig returns the settings used for the published fake dataset.
func DefaultConfig() Config {
	return Config{
		Width:        512,
		Height:       384,
		Seed:         1,
		MaxAntinodes: 6,
		BlurProb:     0.3,
		MinLineWidth: 4,
	}
}

const (
	background = 128
	maxTries   = 2000
	lowPass    = 8 // half-width of the frequency square taken from real images
)

// Frame is one generated image and its annotations.
type Frame struct {
	Number      int
	Image       *image.Gray
	Annotations []ellipse.Annotation
}

// Generator renders frames. Each frame is seeded from Seed and its number,
// so frames can be produced in any order or in parallel.
type Generator struct {
	cfg Config
}

// New creates a Generator.
func New(cfg Config) *Generator {
	return &Generator{cfg: cfg}
}

// Generate renders frame number n.
func (g *Generator) Generate(n int) (Frame, error) {
	rng := rand.New(rand.NewSource(g.cfg.Seed + int64(n)))
	w, h := g.cfg.Width, g.cfg.Height

	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = background
	}

	g.drawWaves(img, rng)

	maxAn := g.cfg.MaxAntinodes
	if maxAn < 1 {
		maxAn = 1
	}
	anns := g.drawAntinodes(img, rng, randInt(rng, 1, maxAn))

	if rng.Float64() <= g.cfg.BlurProb {
		img = blur(img, []int{3, 5}[rng.Intn(2)])
	}

	// post-blur noise, normal with mean 40 and sigma 40, saturating
	for i, v := range img.Pix {
		noise := math.Round(rng.NormFloat64()*40 + 40)
		img.Pix[i] = clampByte(float64(v) + clamp(noise, 0, 255))
	}

	// drop roughly half the pixels
	for i := range img.Pix {
		if rng.Intn(2) == 0 {
			img.Pix[i] = 0
		}
	}

	if len(g.cfg.Backgrounds) > 0 {
		mixed, err := g.bandpassMixup(img, rng)
		if err != nil {
			return Frame{}, err
		}
		img = mixed
	}

	return Frame{Number: n, Image: img, Annotations: anns}, nil
}

// Write stores a frame as images/steelpan_NNNNNNN.png and
// annotations/steelpan_NNNNNNN.csv under outDir.
func (f Frame) Write(outDir string) (string, string, error) {
	prefix := fmt.Sprintf("steelpan_%07d", f.Number)
	imgPath := filepath.Join(outDir, "images", prefix+".png")
	recPath := filepath.Join(outDir, "annotations", prefix+".csv")

	if err := imageio.Save(f.Image, imgPath, types.EncodeOptions{Format: "png"}); err != nil {
		return "", "", err
	}
	anns := f.Annotations
	if len(anns) == 0 {
		anns = []ellipse.Annotation{{}}
	}
	if err := record.WriteFile(recPath, anns); err != nil {
		return "", "", err
	}
	return imgPath, recPath, nil
}

// PrepareDirs creates the images/ and annotations/ output directories.
func PrepareDirs(outDir string) error {
	for _, d := range []string{outDir, filepath.Join(outDir, "images"), filepath.Join(outDir, "annotations")} {
		if err := utils.EnsureDir(d); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) drawWaves(img *image.Gray, rng *rand.Rand) {
	w, h := g.cfg.Width, g.cfg.Height
	amp := float64(randInt(rng, 10, 200))
	wavelength := float64(randInt(rng, 100, w/2))
	thickness := randInt(rng, 15, 40)
	slope := 3 * (rng.Float64() - 0.5)
	spacing := randInt(rng, thickness+thickness*int(math.Abs(1.5*slope)), h/3)
	lines := 60 + h/spacing
	half := float64(thickness) / 2

	yAt := func(start float64, x int) float64 {
		fx := float64(x)
		return start + slope*fx + amp*math.Cos(fx/wavelength)
	}
	for j := 0; j < lines; j++ {
		start := float64(j*spacing) - float64(w)*math.Abs(slope)
		for x := 0; x < w; x++ {
			y0 := yAt(start, x)
			y1 := y0
			if x+1 < w {
				y1 = yAt(start, x+1)
			}
			lo := int(math.Floor(math.Min(y0, y1) - half))
			hi := int(math.Ceil(math.Max(y0, y1) + half))
			if hi < 0 || lo >= h {
				continue
			}
			for y := max(lo, 0); y <= min(hi, h-1); y++ {
				img.Pix[y*img.Stride+x] = 0
			}
		}
	}
}

func (g *Generator) drawAntinodes(img *image.Gray, rng *rand.Rand, count int) []ellipse.Annotation {
	w, h := g.cfg.Width, g.cfg.Height
	var anns []ellipse.Annotation
	var boxes []types.Box

	for an := 0; an < count; an++ {
		a, b := sortedAxes(rng, 15, int(float64(w)/3.5), int(float64(h)/3.5))
		rings := 0.5 + rng.Float64()*(ellipse.MaxRings-0.5)
		if float64(b)/rings < g.cfg.MinLineWidth {
			rings = float64(b) / g.cfg.MinLineWidth
		}
		e := place(rng, w, h, a, b, randInt(rng, 1, 179))

		tries := 0
		for (overlapsAny(e.BoundingBox(), boxes) || !e.BoundingBox().Inside(float64(w), float64(h))) && tries < maxTries {
			tries++
			a, b = sortedAxes(rng, 25, w/3, h/3)
			if float64(b)/rings < g.cfg.MinLineWidth {
				rings = float64(b) / g.cfg.MinLineWidth
			}
			e = place(rng, w, h, a, b, randInt(rng, 1, 180))
		}
		if tries >= maxTries {
			continue
		}

		e.Rings = math.Round(rings*10) / 10
		drawRings(img, rng, e, rings)
		anns = append(anns, e)
		boxes = append(boxes, e.BoundingBox())
	}
	return anns
}

// drawRings paints concentric bands whose intensity follows a sinusoid with
// the requested number of periods from center to edge.
func drawRings(img *image.Gray, rng *rand.Rand, e ellipse.Annotation, rings float64) {
	if rings < 0.2 {
		rings = 0.2 + 0.2*rng.Float64()
	}
	n := int(math.Max(e.A, e.B))
	phase := 2 * math.Pi * rng.Float64()
	minc := float64(randInt(rng, 0, 60))
	maxc := float64(randInt(rng, 150, 250))

	// outermost first so each smaller band overwrites the interior
	for j := n - 1; j >= 0; j-- {
		c := minc + (maxc-minc)*math.Sin(2*math.Pi*rings*float64(j)/float64(n)+phase)
		scale := float64(j+1) / float64(n+1)
		band := e
		band.A, band.B = e.A*scale, e.B*scale
		mask.Rasterize(img, band, clampByte(math.Trunc(c)), mask.LastWins, 0)
	}
}

func place(rng *rand.Rand, w, h, a, b, angle int) ellipse.Annotation {
	return ellipse.Annotation{
		Center: ellipse.Pt(float64(randInt(rng, a, w-a)), float64(randInt(rng, b, h-b))),
		A:      float64(a),
		B:      float64(b),
		Angle:  float64(angle),
	}
}

func sortedAxes(rng *rand.Rand, lo, hiA, hiB int) (int, int) {
	a, b := randInt(rng, lo, hiA), randInt(rng, lo, hiB)
	if a < b {
		a, b = b, a
	}
	return a, b
}

func overlapsAny(box types.Box, boxes []types.Box) bool {
	for _, other := range boxes {
		if box.Overlaps(other) {
			return true
		}
	}
	return false
}

// blur applies a Gaussian blur matching an OpenCV kernel of size k.
func blur(img *image.Gray, k int) *image.Gray {
	sigma := 0.3*(float64(k-1)*0.5-1) + 0.8
	return imageio.ToGray(imaging.Blur(img, sigma))
}

// randInt returns an int in [lo, hi], both inclusive. A reversed range
// collapses to lo.
func randInt(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampByte(v float64) uint8 {
	return uint8(clamp(v, 0, 255))
}

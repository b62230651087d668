// Package imageio loads and saves the raster images the annotation tools work
// on: source ESPI frames, masks, crops and synthetic images.
package imageio

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/drscotthawley/espiownage/pkg/types"
)

// Load decodes an image from a file path, falling back to an explicit WebP
// decode for files the registered decoders reject.
func Load(path string) (image.Image, error) {
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.HasSuffix(strings.ToLower(path), ".webp") {
		if img, err := webp.Decode(f); err == nil {
			return img, nil
		}
	}
	return nil, fmt.Errorf("image: unknown format for %s", path)
}

// Size reads only the header of an image file and returns its dimensions.
func Size(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode header of %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}

// LoadGray loads an image and converts it to 8-bit grayscale.
func LoadGray(path string) (*image.Gray, error) {
	img, err := Load(path)
	if err != nil {
		return nil, err
	}
	return ToGray(img), nil
}

// ToGray converts any image to *image.Gray with origin at (0,0).
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			g.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return g
}

// Save writes an image in the format named by opts (png, jpg or webp).
// Masks must be saved as png so class values survive unchanged.
func Save(img image.Image, path string, opts types.EncodeOptions) error {
	switch strings.ToLower(opts.Format) {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		wopts := &webp.Options{Lossless: opts.Lossless, Quality: float32(opts.Quality)}
		return webp.Encode(f, img, wopts)
	case "", "png":
		return imaging.Save(img, path)
	case "jpg", "jpeg":
		q := opts.Quality
		if q <= 0 {
			q = 90
		}
		return imaging.Save(img, path, imaging.JPEGQuality(q))
	default:
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
}

// Crop cuts box (rounded to whole pixels) out of img. It returns false when
// the box does not overlap the image at all.
func Crop(img image.Image, box types.Box) (image.Image, bool) {
	rect := box.Rect().Add(img.Bounds().Min).Intersect(img.Bounds())
	if rect.Empty() {
		return nil, false
	}
	return imaging.Crop(img, rect), true
}

// Extension returns the file extension used for a format name.
func Extension(format string) string {
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		return "jpg"
	case "webp":
		return "webp"
	default:
		return "png"
	}
}

package synth

import (
	"fmt"
	"image"
	"math"
	"math/cmplx"
	"math/rand"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/drscotthawley/espiownage/pkg/imageio"
)

// bandpassMixup swaps the lowest spatial frequencies of a fake frame for
// those of a randomly chosen, randomly flipped real image, keeping the fake
// mid and high frequencies, then stretches the result to 0..255.
func (g *Generator) bandpassMixup(fake *image.Gray, rng *rand.Rand) (*image.Gray, error) {
	w, h := fake.Bounds().Dx(), fake.Bounds().Dy()
	path := g.cfg.Backgrounds[rng.Intn(len(g.cfg.Backgrounds))]
	gray, err := imageio.LoadGray(path)
	if err != nil {
		return nil, fmt.Errorf("background %s: %w", path, err)
	}
	var realImg image.Image = gray
	if realImg.Bounds().Dx() != w || realImg.Bounds().Dy() != h {
		realImg = imaging.Resize(realImg, w, h, imaging.Lanczos)
	}
	switch rng.Intn(4) {
	case 0:
		realImg = imaging.FlipH(imaging.FlipV(realImg))
	case 1:
		realImg = imaging.FlipV(realImg)
	case 2:
		realImg = imaging.FlipH(realImg)
	}
	ref := imageio.ToGray(realImg)

	fakeF := fft2(toComplex(fake), w, h, false)
	refF := fft2(toComplex(ref), w, h, false)
	scale := complex(rng.Float64()*3, 0)

	for y := 0; y < h; y++ {
		ky := signedFreq(y, h)
		for x := 0; x < w; x++ {
			kx := signedFreq(x, w)
			if ky >= -lowPass && ky < lowPass && kx >= -lowPass && kx < lowPass {
				i := y*w + x
				fakeF[i] = scale * refF[i]
			}
		}
	}

	back := fft2(fakeF, w, h, true)
	mags := make([]float64, len(back))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, c := range back {
		m := cmplx.Abs(c)
		mags[i] = m
		lo, hi = math.Min(lo, m), math.Max(hi, m)
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	if hi > lo {
		for i, m := range mags {
			out.Pix[i] = clampByte(math.Round(255 * (m - lo) / (hi - lo)))
		}
	}
	return out, nil
}

func toComplex(img *image.Gray) []complex128 {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	out := make([]complex128, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out[y*w+x] = complex(float64(img.Pix[y*img.Stride+x]), 0)
		}
	}
	return out
}

// fft2 transforms a row-major w x h grid along rows, then columns. The
// inverse is unnormalized; callers rescale.
func fft2(data []complex128, w, h int, inverse bool) []complex128 {
	out := make([]complex128, len(data))
	copy(out, data)

	rowFFT := fourier.NewCmplxFFT(w)
	src := make([]complex128, w)
	dst := make([]complex128, w)
	for y := 0; y < h; y++ {
		copy(src, out[y*w:(y+1)*w])
		if inverse {
			rowFFT.Sequence(dst, src)
		} else {
			rowFFT.Coefficients(dst, src)
		}
		copy(out[y*w:(y+1)*w], dst)
	}

	colFFT := fourier.NewCmplxFFT(h)
	src = make([]complex128, h)
	dst = make([]complex128, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			src[y] = out[y*w+x]
		}
		if inverse {
			colFFT.Sequence(dst, src)
		} else {
			colFFT.Coefficients(dst, src)
		}
		for y := 0; y < h; y++ {
			out[y*w+x] = dst[y]
		}
	}
	return out
}

// signedFreq maps an FFT bin index to its signed frequency.
func signedFreq(k, n int) int {
	if k >= n/2 {
		return k - n
	}
	return k
}

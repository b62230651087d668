package ellipse

import (
	"fmt"
	"math"
)

// Quantizer buckets continuous ring counts into class indices. Mask
// rasterization and dataset export must use the same Quantizer so a given
// ring count maps to the same class everywhere.
type Quantizer struct {
	step float64
}

// NewQuantizer returns a Quantizer with the given bucket width.
func NewQuantizer(step float64) (Quantizer, error) {
	if !(step > 0) || math.IsInf(step, 0) {
		return Quantizer{}, fmt.Errorf("ring step must be positive, got %v", step)
	}
	return Quantizer{step: step}, nil
}

// Step returns the bucket width.
func (q Quantizer) Step() float64 {
	return q.step
}

// Index returns round(rings/step), halves rounding to even.
func (q Quantizer) Index(rings float64) int {
	return int(math.RoundToEven(rings / q.step))
}

// NumClasses returns the number of classes needed to hold every index up to
// and including maxRings.
func (q Quantizer) NumClasses(maxRings float64) int {
	return q.Index(maxRings) + 1
}

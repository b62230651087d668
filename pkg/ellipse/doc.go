// Package ellipse models an oriented ellipse annotation of an antinode on an
// ESPI image and the conversions every downstream tool shares: interaction
// handles, the inverse handle transform, tight bounding boxes, contour
// sampling and ring-count quantization.
//
// Angles are in degrees, anti-clockwise from the positive x axis to the
// semi-major axis, in image coordinates where y grows downward.
package ellipse

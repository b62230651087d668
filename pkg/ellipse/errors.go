package ellipse

import (
	"errors"
	"fmt"
)

// ErrDegenerate is returned when an ellipse's bounding box collapses to zero
// or negative area after clamping to the image. Callers skip that annotation
// and keep going.
var ErrDegenerate = errors.New("degenerate geometry")

// ParseError reports a record row with a missing or non-numeric field.
type ParseError struct {
	Line  int
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: field %s: %v", e.Line, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError reports values that are numeric but out of range: a ring
// count outside [0, MaxRings] or a negative axis. These abort processing;
// they are never clamped.
type ValidationError struct {
	Line   int
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: invalid annotation: %s", e.Line, e.Reason)
	}
	return "invalid annotation: " + e.Reason
}

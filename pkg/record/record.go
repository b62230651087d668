// Package record reads and writes per-image annotation records: header-less
// CSV rows of cx,cy,a,b,angle,rings, one file per image sharing the image's
// file stem.
package record

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/drscotthawley/espiownage/pkg/ellipse"
)

// Columns names the record fields in file order.
var Columns = [6]string{"cx", "cy", "a", "b", "angle", "rings"}

// Read parses every row of a record. Exact duplicate rows are dropped, keeping
// the first. Placeholders (rings == 0) are returned; use Antinodes to drop them.
// Any malformed row fails the whole record.
func Read(r io.Reader) ([]ellipse.Annotation, error) {
	var anns []ellipse.Annotation
	err := eachRow(r, func(ann ellipse.Annotation, err error) error {
		if err != nil {
			return err
		}
		anns = append(anns, ann)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return anns, nil
}

// ReadLenient parses a record like Read but skips rows that are malformed or
// fail validation, returning one error per skipped row.
func ReadLenient(r io.Reader) ([]ellipse.Annotation, []error) {
	var anns []ellipse.Annotation
	var skipped []error
	_ = eachRow(r, func(ann ellipse.Annotation, err error) error {
		if err != nil {
			skipped = append(skipped, err)
			return nil
		}
		anns = append(anns, ann)
		return nil
	})
	return anns, skipped
}

// eachRow calls fn for every distinct row with either the annotation or the
// row's error. Iteration stops when fn returns an error.
func eachRow(r io.Reader, fn func(ellipse.Annotation, error) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	seen := make(map[[6]float64]bool)
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			var perr *csv.ParseError
			line := 0
			if errors.As(err, &perr) {
				line = perr.Line
			}
			if ferr := fn(ellipse.Annotation{}, &ellipse.ParseError{Line: line, Err: err}); ferr != nil {
				return ferr
			}
			continue
		}
		line, _ := cr.FieldPos(0)

		vals, err := parseRow(fields, line)
		if err != nil {
			if ferr := fn(ellipse.Annotation{}, err); ferr != nil {
				return ferr
			}
			continue
		}
		if seen[vals] {
			continue
		}
		seen[vals] = true

		ann, err := ellipse.New(vals[0], vals[1], vals[2], vals[3], vals[4], vals[5])
		if err != nil {
			var verr *ellipse.ValidationError
			if errors.As(err, &verr) {
				verr.Line = line
			}
		}
		if ferr := fn(ann, err); ferr != nil {
			return ferr
		}
	}
}

func parseRow(fields []string, line int) ([6]float64, error) {
	var vals [6]float64
	if len(fields) != len(Columns) {
		return vals, &ellipse.ParseError{
			Line: line,
			Err:  fmt.Errorf("expected %d fields, got %d", len(Columns), len(fields)),
		}
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return vals, &ellipse.ParseError{Line: line, Field: Columns[i], Err: err}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return vals, &ellipse.ParseError{Line: line, Field: Columns[i], Err: fmt.Errorf("non-finite value %q", f)}
		}
		vals[i] = v
	}
	return vals, nil
}

// ReadFile reads the record stored at path.
func ReadFile(path string) ([]ellipse.Annotation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	anns, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return anns, nil
}

// ReadFileLenient reads the record at path, skipping bad rows. The returned
// error is set only when the file cannot be opened.
func ReadFileLenient(path string) ([]ellipse.Annotation, []error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	anns, skipped := ReadLenient(f)
	for i, e := range skipped {
		skipped[i] = fmt.Errorf("%s: %w", path, e)
	}
	return anns, skipped, nil
}

// Write serializes annotations back to rows, one per annotation, in order.
func Write(w io.Writer, anns []ellipse.Annotation) error {
	bw := bufio.NewWriter(w)
	for _, ann := range anns {
		if _, err := bw.WriteString(FormatRow(ann) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile overwrites the record at path.
func WriteFile(path string, anns []ellipse.Annotation) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, anns); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// FormatRow renders one annotation as a record row without a newline.
func FormatRow(ann ellipse.Annotation) string {
	vals := ann.Values()
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

// Antinodes filters out placeholder annotations, preserving order.
func Antinodes(anns []ellipse.Annotation) []ellipse.Annotation {
	out := make([]ellipse.Annotation, 0, len(anns))
	for _, a := range anns {
		if !a.IsPlaceholder() {
			out = append(out, a)
		}
	}
	return out
}

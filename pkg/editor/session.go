// Package editor models an interactive ellipse-annotation editing session
// without any GUI: pointer events and commands go in, annotations come out.
package editor

import (
	"errors"
	"fmt"
	"math"

	"github.com/drscotthawley/espiownage/pkg/ellipse"
	"github.com/drscotthawley/espiownage/pkg/imageio"
	"github.com/drscotthawley/espiownage/pkg/overlay"
	"github.com/drscotthawley/espiownage/pkg/record"
	"github.com/drscotthawley/espiownage/pkg/types"
)

// Part identifies which piece of a token the pointer grabbed.
type Part int

const (
	PartBody Part = iota
	PartHandleA
	PartHandleB
)

func (p Part) String() string {
	switch p {
	case PartHandleA:
		return "handle-a"
	case PartHandleB:
		return "handle-b"
	default:
		return "body"
	}
}

func (p Part) axis() ellipse.Axis {
	if p == PartHandleB {
		return ellipse.AxisB
	}
	return ellipse.AxisA
}

// Token is one editable ellipse.
type Token struct {
	ID  int
	Ann ellipse.Annotation
}

// Hit is the result of a pointer hit test.
type Hit struct {
	ID   int
	Part Part
}

// Defaults for a newly created ellipse.
const (
	DefaultAxis  = 50.0
	DefaultRings = 1.0
	HandleRadius = 4.0
)

// ErrNoFiles is returned when a session is started without any pairs.
var ErrNoFiles = errors.New("no files to edit")

type drag struct {
	hit  Hit
	last ellipse.Point
}

// Session holds the state of one editing run over a list of files.
type Session struct {
	pairs  []record.Pair
	index  int
	width  int
	height int
	tokens []*Token
	nextID int
	drag   *drag
	dirty  bool

	skipped []error
}

// NewSession opens the first pair.
func NewSession(pairs []record.Pair) (*Session, error) {
	if len(pairs) == 0 {
		return nil, ErrNoFiles
	}
	s := &Session{pairs: pairs}
	if err := s.load(0); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) load(i int) error {
	p := s.pairs[i]
	anns, skipped, err := record.ReadFileLenient(p.Record)
	if err != nil {
		return err
	}
	w, h, err := imageio.Size(p.Image)
	if err != nil {
		return fmt.Errorf("failed to read image size: %w", err)
	}

	s.index, s.width, s.height = i, w, h
	s.tokens = s.tokens[:0]
	s.drag = nil
	s.dirty = false
	s.skipped = skipped
	for _, a := range record.Antinodes(anns) {
		s.add(a)
	}
	return nil
}

func (s *Session) add(a ellipse.Annotation) *Token {
	s.nextID++
	t := &Token{ID: s.nextID, Ann: a}
	s.tokens = append(s.tokens, t)
	return t
}

// Current returns the pair being edited.
func (s *Session) Current() record.Pair { return s.pairs[s.index] }

// Index returns the position of the current pair.
func (s *Session) Index() int { return s.index }

// Len returns the number of pairs in the session.
func (s *Session) Len() int { return len(s.pairs) }

// Size returns the current image dimensions.
func (s *Session) Size() (int, int) { return s.width, s.height }

// Skipped returns the rows of the current record that could not be turned
// into ellipses. Saving drops them from the file.
func (s *Session) Skipped() []error { return s.skipped }

// Dirty reports unsaved changes to the current file.
func (s *Session) Dirty() bool { return s.dirty }

// Next moves to the following file, wrapping to the first. Unsaved changes
// are discarded.
func (s *Session) Next() error {
	return s.load((s.index + 1) % len(s.pairs))
}

// Prev moves to the previous file, wrapping to the last.
func (s *Session) Prev() error {
	return s.load((s.index - 1 + len(s.pairs)) % len(s.pairs))
}

// Tokens returns the current tokens in drawing order.
func (s *Session) Tokens() []Token {
	out := make([]Token, len(s.tokens))
	for i, t := range s.tokens {
		out[i] = *t
	}
	return out
}

func (s *Session) find(id int) (int, *Token) {
	for i, t := range s.tokens {
		if t.ID == id {
			return i, t
		}
	}
	return -1, nil
}

func (s *Session) remove(id int) bool {
	i, _ := s.find(id)
	if i < 0 {
		return false
	}
	s.tokens = append(s.tokens[:i], s.tokens[i+1:]...)
	s.dirty = true
	return true
}

// HitTest finds what lies under p. Handles take precedence over bodies, and
// later tokens are on top of earlier ones.
func (s *Session) HitTest(p ellipse.Point) (Hit, bool) {
	for i := len(s.tokens) - 1; i >= 0; i-- {
		t := s.tokens[i]
		h := t.Ann.Handles()
		if p.Distance(h.A) <= HandleRadius {
			return Hit{ID: t.ID, Part: PartHandleA}, true
		}
		if p.Distance(h.B) <= HandleRadius {
			return Hit{ID: t.ID, Part: PartHandleB}, true
		}
	}
	for i := len(s.tokens) - 1; i >= 0; i-- {
		if s.tokens[i].Ann.Contains(p) {
			return Hit{ID: s.tokens[i].ID, Part: PartBody}, true
		}
	}
	return Hit{}, false
}

// Press starts a drag on whatever lies under p.
func (s *Session) Press(p ellipse.Point) (Hit, bool) {
	hit, ok := s.HitTest(p)
	if !ok {
		s.drag = nil
		return Hit{}, false
	}
	s.drag = &drag{hit: hit, last: p}
	return hit, true
}

// Motion continues the current drag. A body follows the pointer; a handle
// sets its axis length and the ellipse angle while the other axis keeps its
// length.
func (s *Session) Motion(p ellipse.Point) {
	if s.drag == nil {
		return
	}
	_, t := s.find(s.drag.hit.ID)
	if t == nil {
		s.drag = nil
		return
	}
	switch s.drag.hit.Part {
	case PartBody:
		d := p.Sub(s.drag.last)
		t.Ann.Translate(d.X, d.Y)
	default:
		t.Ann = t.Ann.DragHandle(s.drag.hit.Part.axis(), p)
	}
	s.drag.last = p
	s.dirty = true
}

// Release ends the current drag. Releasing a body outside the image deletes
// the token; the return value reports that.
func (s *Session) Release(p ellipse.Point) bool {
	if s.drag == nil {
		return false
	}
	d := s.drag
	s.drag = nil
	if d.hit.Part != PartBody {
		return false
	}
	if p.X < 0 || p.Y < 0 || p.X > float64(s.width) || p.Y > float64(s.height) {
		return s.remove(d.hit.ID)
	}
	return false
}

// Create adds a default ellipse centered at p.
func (s *Session) Create(p ellipse.Point) Token {
	t := s.add(ellipse.Annotation{Center: p, A: DefaultAxis, B: DefaultAxis, Rings: DefaultRings})
	s.dirty = true
	return *t
}

// SetRings changes a token's ring count. Zero rings deletes the token.
func (s *Session) SetRings(id int, rings float64) error {
	_, t := s.find(id)
	if t == nil {
		return fmt.Errorf("no ellipse with id %d", id)
	}
	if math.IsNaN(rings) || rings < 0 || rings > ellipse.MaxRings {
		return &ellipse.ValidationError{Reason: fmt.Sprintf("rings %v outside [0, %v]", rings, ellipse.MaxRings)}
	}
	if rings == 0 {
		s.remove(id)
		return nil
	}
	t.Ann.Rings = rings
	s.dirty = true
	return nil
}

// Annotations returns the normalized annotations as they would be saved.
func (s *Session) Annotations() []ellipse.Annotation {
	out := make([]ellipse.Annotation, len(s.tokens))
	for i, t := range s.tokens {
		out[i] = t.Ann.Normalized()
	}
	return out
}

// Save overwrites the current record. A file with no ellipses gets a single
// placeholder row.
func (s *Session) Save() error {
	anns := s.Annotations()
	if len(anns) == 0 {
		anns = []ellipse.Annotation{{}}
	}
	if err := record.WriteFile(s.Current().Record, anns); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// Render draws the current tokens over the current image and writes the
// result to path. It returns how many ellipses are visible in the frame.
func (s *Session) Render(path string) (int, error) {
	img, err := imageio.Load(s.Current().Image)
	if err != nil {
		return 0, err
	}
	anns := make([]ellipse.Annotation, len(s.tokens))
	for i, t := range s.tokens {
		anns[i] = t.Ann
	}
	st := overlay.DefaultStyle()
	out := overlay.Draw(img, anns, st)
	if err := imageio.Save(out, path, types.EncodeOptions{Format: "png", Quality: 90}); err != nil {
		return 0, err
	}
	return overlay.Visible(anns, s.width, s.height, st), nil
}

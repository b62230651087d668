package editor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/drscotthawley/espiownage/pkg/ellipse"
	"github.com/drscotthawley/espiownage/pkg/record"
)

// ErrQuit is returned by Execute for the quit command.
var ErrQuit = errors.New("quit")

// Execute runs one command line against the session and returns the text to
// show the user. Commands:
//
//	next | prev | list | save | quit
//	press X Y | motion X Y | release X Y
//	drag X0 Y0 X1 Y1      press, move and release in one step
//	dclick X Y            create a default ellipse
//	rings ID N            set ring count, 0 deletes
//	render PATH           write the frame with outlines drawn
func (s *Session) Execute(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return "", nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "q", "quit":
		return "", ErrQuit
	case "next", "right":
		if err := s.Next(); err != nil {
			return "", err
		}
		return s.statusWithSkipped(), nil
	case "prev", "left":
		if err := s.Prev(); err != nil {
			return "", err
		}
		return s.statusWithSkipped(), nil
	case "list", "l":
		return s.Listing(), nil
	case "save", "s":
		if err := s.Save(); err != nil {
			return "", err
		}
		return "saved " + s.Current().Record, nil
	case "press":
		p, err := point(args, 0)
		if err != nil {
			return "", err
		}
		hit, ok := s.Press(p)
		if !ok {
			return "nothing here", nil
		}
		return fmt.Sprintf("grabbed %d %s", hit.ID, hit.Part), nil
	case "motion":
		p, err := point(args, 0)
		if err != nil {
			return "", err
		}
		s.Motion(p)
		return "", nil
	case "release":
		p, err := point(args, 0)
		if err != nil {
			return "", err
		}
		if s.Release(p) {
			return "deleted", nil
		}
		return "", nil
	case "drag":
		from, err := point(args, 0)
		if err != nil {
			return "", err
		}
		to, err := point(args, 2)
		if err != nil {
			return "", err
		}
		hit, ok := s.Press(from)
		if !ok {
			return "nothing here", nil
		}
		s.Motion(to)
		if s.Release(to) {
			return fmt.Sprintf("deleted %d", hit.ID), nil
		}
		return fmt.Sprintf("moved %d %s", hit.ID, hit.Part), nil
	case "dclick", "create":
		p, err := point(args, 0)
		if err != nil {
			return "", err
		}
		t := s.Create(p)
		return fmt.Sprintf("created %d", t.ID), nil
	case "rings":
		if len(args) != 2 {
			return "", fmt.Errorf("usage: rings ID N")
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return "", fmt.Errorf("bad id %q: %w", args[0], err)
		}
		n, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return "", fmt.Errorf("bad ring count %q: %w", args[1], err)
		}
		if err := s.SetRings(id, n); err != nil {
			return "", err
		}
		return "", nil
	case "render":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: render PATH")
		}
		n, err := s.Render(args[0])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("rendered %s (%d ellipses)", args[0], n), nil
	default:
		return "", fmt.Errorf("unknown command %q", cmd)
	}
}

// Status describes the current file.
func (s *Session) Status() string {
	p := s.Current()
	return fmt.Sprintf("%d/%d: meta_file = %s, img_file = %s", s.index+1, len(s.pairs), p.Record, p.Image)
}

func (s *Session) statusWithSkipped() string {
	var b strings.Builder
	b.WriteString(s.Status())
	for _, err := range s.skipped {
		fmt.Fprintf(&b, "\nskipped row: %v", err)
	}
	return b.String()
}

// Listing shows the current file and one row per token as it would be saved.
func (s *Session) Listing() string {
	var b strings.Builder
	b.WriteString(s.Status())
	for _, t := range s.tokens {
		fmt.Fprintf(&b, "\n%d: %s", t.ID, record.FormatRow(t.Ann.Normalized()))
	}
	return b.String()
}

// Run reads commands from r until EOF or quit, writing responses to w. A
// failing command is reported and the session continues.
func (s *Session) Run(r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		out, err := s.Execute(sc.Text())
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
			continue
		}
		if out != "" {
			fmt.Fprintln(w, out)
		}
	}
	return sc.Err()
}

func point(args []string, at int) (ellipse.Point, error) {
	if len(args) < at+2 {
		return ellipse.Point{}, fmt.Errorf("expected coordinates X Y")
	}
	x, err := strconv.ParseFloat(args[at], 64)
	if err != nil {
		return ellipse.Point{}, fmt.Errorf("bad x %q: %w", args[at], err)
	}
	y, err := strconv.ParseFloat(args[at+1], 64)
	if err != nil {
		return ellipse.Point{}, fmt.Errorf("bad y %q: %w", args[at+1], err)
	}
	return ellipse.Pt(x, y), nil
}

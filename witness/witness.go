// Package witness implements the textual witness grammar spec.md
// §4.6 describes, grounded on the original tool's line/column-tracked
// hand-written scanner (btorsim.cpp's next_char/prev_char and
// parse_assignment/parse_state_part/parse_input_part/
// parse_sat_witness functions): a status line, an optional claim line
// of b<n>/j<n> tokens, and a sequence of frames each holding an
// optional state block and a mandatory input block, terminated by a
// lone '.'.
package witness

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nrb-sim/btorsim/btorsimerr"
)

// Assignment is one "<pos> [<idx>] <value> [<symbol>]" line: pos
// indexes into the model's Inputs or States slice (in declaration
// order), idx is present only for an array assignment (a bit-pattern
// for one index, or "*" meaning "every index"), value is the raw
// bit-pattern text, and symbol is an optional trailing comment name.
type Assignment struct {
	Pos    int
	Index  string // "" when this is a plain bit-vector assignment
	Value  string
	Symbol string
	Line   int64
}

// IsArrayWildcard reports whether this assignment sets every index of
// an array state to the same value ("[*] <value>").
func (a Assignment) IsArrayWildcard() bool { return a.Index == "*" }

// Frame is one simulation step's worth of assignments: an optional
// state block (accepted in any frame) and a mandatory input block.
type Frame struct {
	Step   int64
	States []Assignment
	Inputs []Assignment
}

// Witness is one fully parsed trace.
type Witness struct {
	Status string // "sat", "unknown", or "" for an implicit sat trace
	Claims []string // raw "b<n>"/"j<n>" tokens from the optional claim line
	Frames []Frame
}

// Reader scans a witness file into a Witness, tracking line and
// column for diagnostics exactly as the original parser does.
type Reader struct {
	path    string
	scanner *bufio.Scanner
	lineno  int64
	column  int64
	line    string
	done    bool
}

// NewReader returns a Reader over r, reporting path in parse errors.
func NewReader(r io.Reader, path string) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	return &Reader{path: path, scanner: s}
}

func (rd *Reader) nextLine() (string, bool) {
	if !rd.scanner.Scan() {
		rd.done = true
		return "", false
	}
	rd.lineno++
	rd.line = rd.scanner.Text()
	rd.column = int64(len(rd.line)-len(strings.TrimLeft(rd.line, " \t"))) + 1
	return rd.line, true
}

func (rd *Reader) errf(format string, args ...interface{}) error {
	return rd.errfAt(rd.column, format, args...)
}

func (rd *Reader) errfAt(column int64, format string, args ...interface{}) error {
	return &btorsimerr.ParseError{
		Pos: btorsimerr.Position{Path: rd.path, Line: rd.lineno, Column: column},
		Msg: fmt.Sprintf(format, args...),
	}
}

// fieldColumns returns the 1-based column at which each whitespace
// separated field of raw starts, so a malformed field within a line
// can be reported at its own position rather than the line's start.
func fieldColumns(raw string) []int64 {
	var cols []int64
	inField := false
	for i, r := range raw {
		if r == ' ' || r == '\t' {
			inField = false
			continue
		}
		if !inField {
			cols = append(cols, int64(i)+1)
			inField = true
		}
	}
	return cols
}

// ReadAll parses the entire witness stream. Multiple traces
// back-to-back (separated by a status line) are not supported: any
// line after a frame's '.' that does not start a new '#'/'@' block,
// such as a second status line, is reported as a parse error,
// matching btorsim's single-witness CLI contract.
func (rd *Reader) ReadAll() (*Witness, error) {
	w := &Witness{}

	line, ok := rd.nextLine()
	if !ok {
		return nil, rd.errf("empty witness file")
	}
	line = strings.TrimSpace(line)
	switch line {
	case "sat", "unknown":
		w.Status = line
		line, ok = rd.nextLine()
		if !ok {
			return w, nil
		}
	}

	if strings.HasPrefix(line, "b") || strings.HasPrefix(line, "j") {
		if claims, isClaim := parseClaimLine(line); isClaim {
			w.Claims = claims
			line, ok = rd.nextLine()
			if !ok {
				return w, nil
			}
		}
	}

	for {
		trimmed := strings.TrimSpace(line)
		if trimmed == "." {
			// End of witness sentinel seen outside a frame: nothing
			// left to parse.
			return w, nil
		}
		frame, nextLine, more, err := rd.parseFrame(trimmed)
		if err != nil {
			return nil, err
		}
		w.Frames = append(w.Frames, frame)
		if !more {
			return w, nil
		}
		line = nextLine
	}
}

func parseClaimLine(line string) ([]string, bool) {
	fields := strings.Fields(line)
	for _, f := range fields {
		if len(f) < 2 {
			return nil, false
		}
		if (f[0] != 'b' && f[0] != 'j') || !isAllDigits(f[1:]) {
			return nil, false
		}
	}
	return fields, true
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// parseFrame reads one "#k ... @k ... ." block starting from
// firstLine (already read and trimmed). It returns the parsed frame,
// the first unconsumed line (valid only when more is true), and
// whether another frame may follow.
func (rd *Reader) parseFrame(firstLine string) (Frame, string, bool, error) {
	var frame Frame
	line := firstLine

	if strings.HasPrefix(line, "#") {
		step, err := parseFrameMarker(line, '#')
		if err != nil {
			return frame, "", false, rd.errf("%v", err)
		}
		frame.Step = step
		for {
			next, ok := rd.nextLine()
			if !ok {
				return frame, "", false, rd.errf("unexpected end of file in state block")
			}
			trimmed := strings.TrimSpace(next)
			if strings.HasPrefix(trimmed, "@") {
				line = trimmed
				break
			}
			a, err := rd.parseAssignment(next)
			if err != nil {
				return frame, "", false, err
			}
			frame.States = append(frame.States, a)
		}
	}

	if !strings.HasPrefix(line, "@") {
		return frame, "", false, rd.errf("expected '@<k>' input block marker, got %q", line)
	}
	step, err := parseFrameMarker(line, '@')
	if err != nil {
		return frame, "", false, rd.errf("%v", err)
	}
	frame.Step = step

	for {
		next, ok := rd.nextLine()
		if !ok {
			// EOF implicitly ends the witness.
			return frame, "", false, nil
		}
		trimmed := strings.TrimSpace(next)
		if trimmed == "" {
			continue
		}
		if trimmed == "." {
			// '.' ends this frame only; peek ahead for another frame.
			peek, ok := rd.nextLine()
			if !ok {
				return frame, "", false, nil
			}
			peekTrimmed := strings.TrimSpace(peek)
			if peekTrimmed == "" {
				return frame, "", false, nil
			}
			if !strings.HasPrefix(peekTrimmed, "#") && !strings.HasPrefix(peekTrimmed, "@") {
				return frame, "", false, rd.errf("unexpected content %q after end of frame", peekTrimmed)
			}
			return frame, peekTrimmed, true, nil
		}
		a, err := rd.parseAssignment(next)
		if err != nil {
			return frame, "", false, err
		}
		frame.Inputs = append(frame.Inputs, a)
	}
}

func parseFrameMarker(s string, want byte) (int64, error) {
	if len(s) < 2 || s[0] != want {
		return 0, fmt.Errorf("malformed frame marker %q", s)
	}
	n, err := strconv.ParseInt(s[1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed frame index in %q", s)
	}
	return n, nil
}

// parseAssignment parses one "<pos> [<idx>] <value> [<symbol>]" line,
// reporting any malformed field at its own column within raw rather
// than the line's start (spec.md §4.6's line/column-tracked reader).
func (rd *Reader) parseAssignment(raw string) (Assignment, error) {
	fields := strings.Fields(raw)
	cols := fieldColumns(raw)
	if len(fields) < 2 {
		return Assignment{}, rd.errf("malformed assignment %q", strings.TrimSpace(raw))
	}
	pos, err := strconv.Atoi(fields[0])
	if err != nil {
		return Assignment{}, rd.errfAt(cols[0], "malformed assignment position %q", fields[0])
	}
	a := Assignment{Pos: pos, Line: rd.lineno}
	rest := fields[1:]

	if strings.HasPrefix(rest[0], "[") {
		idx := strings.TrimSuffix(strings.TrimPrefix(rest[0], "["), "]")
		a.Index = idx
		rest = rest[1:]
	}
	if len(rest) < 1 {
		return Assignment{}, rd.errfAt(cols[0], "assignment %q missing value", strings.TrimSpace(raw))
	}
	a.Value = rest[0]
	if len(rest) > 1 {
		a.Symbol = rest[1]
	}
	return a, nil
}

// Package model holds the read-only data produced by the model parser
// collaborator spec.md names: a vector of Lines indexed by integer id,
// each carrying a tag, a sort, argument ids, and optional immediate
// payload. Model itself also implements a minimal line-oriented reader
// for the textual model format, since spec.md treats parsing as an
// external collaborator but the simulator still needs a concrete
// implementation to run standalone.
package model

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nrb-sim/btorsim/btorsimerr"
	"github.com/nrb-sim/btorsim/btorsimlog"
)

// SortKind distinguishes the two sort shapes spec.md §3 allows.
type SortKind int

const (
	SortInvalid SortKind = iota
	SortBitvec
	SortArray
)

// Sort is either bitvec(width) or array(index_width, element_width).
type Sort struct {
	Kind       SortKind
	Width      uint // meaningful when Kind == SortBitvec
	IndexWidth uint // meaningful when Kind == SortArray
	ElemWidth  uint // meaningful when Kind == SortArray
}

// Line is one read-only record of the model.
type Line struct {
	ID       int64
	Tag      Tag
	SortID   int64
	Sort     Sort
	Args     []int64 // argument line ids; may be negative (bit-wise negation at reference site)
	Constant string
	Symbol   string
	LineNo   int64
}

// Model is the full read-only program the core consumes.
type Model struct {
	Path  string
	Lines map[int64]*Line
	MaxID int64

	Inputs      []*Line
	States      []*Line
	Bads        []*Line
	Constraints []*Line
	Justices    []*Line
	Fairs       []*Line
	Outputs     []*Line

	// Init/Next bind a state id to the line that defines its
	// initialization / transition expression.
	Init map[int64]*Line
	Next map[int64]*Line
}

// Line looks up a line by id, panicking (an internal invariant
// violation, not a user-facing error) if it is absent.
func (m *Model) Line(id int64) *Line {
	l, ok := m.Lines[id]
	if !ok {
		panic(fmt.Sprintf("model: unexpected empty id %d", id))
	}
	return l
}

// IsMeta reports whether a line is excluded from the "evaluate
// everything reachable" sweep spec.md §4.4 step 1 describes: sort,
// init, next, bad, constraint, fair, justice, output declarations
// carry no evaluable value of their own (bad/constraint/output alias
// an argument's value, evaluated when that property is checked).
func (l *Line) IsMeta() bool {
	switch l.Tag {
	case TagSort, TagInit, TagNext, TagBad, TagConstraint, TagFair, TagJustice, TagOutput:
		return true
	default:
		return false
	}
}

// Load reads a model file in the textual line-based format spec.md
// §6 summarises: "<id> <tag> <sort-ref> <args...> [immediate]".
func Load(r io.Reader, path string) (*Model, error) {
	m := &Model{
		Path:  path,
		Lines: make(map[int64]*Line),
		Init:  make(map[int64]*Line),
		Next:  make(map[int64]*Line),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	var lineno int64
	for scanner.Scan() {
		lineno++
		text := scanner.Text()
		if idx := strings.IndexByte(text, ';'); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		line, err := parseLine(text, lineno, path)
		if err != nil {
			return nil, err
		}
		if line.ID > m.MaxID {
			m.MaxID = line.ID
		}
		m.Lines[line.ID] = line
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("model: reading %s: %w", path, err)
	}

	if err := m.resolve(); err != nil {
		return nil, err
	}
	return m, nil
}

func parseLine(text string, lineno int64, path string) (*Line, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return nil, &btorsimerr.ParseError{
			Pos: btorsimerr.Position{Path: path, Line: lineno},
			Msg: "expected '<id> <tag> ...'",
		}
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || id < 1 {
		return nil, &btorsimerr.ParseError{
			Pos: btorsimerr.Position{Path: path, Line: lineno},
			Msg: fmt.Sprintf("invalid line id %q", fields[0]),
		}
	}
	tag, ok := ParseTag(fields[1])
	if !ok {
		return nil, &btorsimerr.ParseError{
			Pos: btorsimerr.Position{Path: path, Line: lineno},
			Msg: fmt.Sprintf("unknown tag %q", fields[1]),
		}
	}

	line := &Line{ID: id, Tag: tag, LineNo: lineno}
	rest := fields[2:]

	switch tag {
	case TagSort:
		if len(rest) < 2 {
			return nil, parseErr(path, lineno, "sort: expected 'bitvec <n>' or 'array <i> <e>'")
		}
		switch rest[0] {
		case "bitvec":
			width, err := parseUint(rest[1])
			if err != nil {
				return nil, parseErr(path, lineno, "sort bitvec: %v", err)
			}
			line.Sort = Sort{Kind: SortBitvec, Width: width}
		case "array":
			if len(rest) < 3 {
				return nil, parseErr(path, lineno, "sort array: expected index/element sort ids")
			}
			idxID, err1 := strconv.ParseInt(rest[1], 10, 64)
			elemID, err2 := strconv.ParseInt(rest[2], 10, 64)
			if err1 != nil || err2 != nil {
				return nil, parseErr(path, lineno, "sort array: malformed sort ids")
			}
			line.Args = []int64{idxID, elemID}
			line.Sort = Sort{Kind: SortArray}
		default:
			return nil, parseErr(path, lineno, "unsupported sort '%s'", rest[0])
		}
		return line, nil

	case TagInput, TagState:
		if len(rest) < 1 {
			return nil, parseErr(path, lineno, "%s: missing sort reference", tag)
		}
		sortID, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return nil, parseErr(path, lineno, "%s: malformed sort reference", tag)
		}
		line.SortID = sortID
		if len(rest) > 1 {
			line.Symbol = rest[1]
		}
		return line, nil

	case TagOutput, TagBad, TagConstraint, TagFair:
		if len(rest) < 1 {
			return nil, parseErr(path, lineno, "%s: missing argument", tag)
		}
		arg, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return nil, parseErr(path, lineno, "%s: malformed argument", tag)
		}
		line.Args = []int64{arg}
		if len(rest) > 1 {
			line.Symbol = rest[1]
		}
		return line, nil

	case TagJustice:
		if len(rest) < 1 {
			return nil, parseErr(path, lineno, "justice: missing count")
		}
		n, err := strconv.Atoi(rest[0])
		if err != nil || len(rest) < 1+n {
			return nil, parseErr(path, lineno, "justice: malformed argument count")
		}
		for _, s := range rest[1 : 1+n] {
			arg, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, parseErr(path, lineno, "justice: malformed argument")
			}
			line.Args = append(line.Args, arg)
		}
		return line, nil

	case TagInit, TagNext:
		if len(rest) < 3 {
			return nil, parseErr(path, lineno, "%s: expected '<sort> <state> <expr>'", tag)
		}
		sortID, e1 := strconv.ParseInt(rest[0], 10, 64)
		stateID, e2 := strconv.ParseInt(rest[1], 10, 64)
		exprID, e3 := strconv.ParseInt(rest[2], 10, 64)
		if e1 != nil || e2 != nil || e3 != nil {
			return nil, parseErr(path, lineno, "%s: malformed arguments", tag)
		}
		line.SortID = sortID
		line.Args = []int64{stateID, exprID}
		return line, nil

	case TagConst, TagConstd, TagConsth:
		if len(rest) < 2 {
			return nil, parseErr(path, lineno, "%s: expected '<sort> <constant>'", tag)
		}
		sortID, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return nil, parseErr(path, lineno, "%s: malformed sort reference", tag)
		}
		line.SortID = sortID
		line.Constant = rest[1]
		return line, nil

	case TagZero, TagOne, TagOnes:
		if len(rest) < 1 {
			return nil, parseErr(path, lineno, "%s: missing sort reference", tag)
		}
		sortID, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return nil, parseErr(path, lineno, "%s: malformed sort reference", tag)
		}
		line.SortID = sortID
		return line, nil

	case TagSlice:
		if len(rest) < 4 {
			return nil, parseErr(path, lineno, "slice: expected '<sort> <arg> <hi> <lo>'")
		}
		return parseArgsWithSort(line, rest, path, lineno, 1, 2)

	case TagUext, TagSext:
		if len(rest) < 3 {
			return nil, parseErr(path, lineno, "%s: expected '<sort> <arg> <width>'", tag)
		}
		return parseArgsWithSort(line, rest, path, lineno, 1, 1)

	default:
		// Generic n-ary operator: '<sort> <arg1> [<arg2> [<arg3>]]'.
		if len(rest) < 1 {
			return nil, parseErr(path, lineno, "%s: missing sort reference", tag)
		}
		sortID, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return nil, parseErr(path, lineno, "%s: malformed sort reference", tag)
		}
		line.SortID = sortID
		for _, s := range rest[1:] {
			arg, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				// Trailing symbol, not an argument; stop consuming.
				break
			}
			line.Args = append(line.Args, arg)
		}
		return line, nil
	}
}

// parseArgsWithSort handles the "<sort> <arg> <imm1> [<imm2>]" shapes
// used by slice/uext/sext, where trailing fields are immediate
// integers rather than line-id arguments.
func parseArgsWithSort(line *Line, rest []string, path string, lineno int64, nArgIDs, nImmediates int) (*Line, error) {
	sortID, err := strconv.ParseInt(rest[0], 10, 64)
	if err != nil {
		return nil, parseErr(path, lineno, "%s: malformed sort reference", line.Tag)
	}
	line.SortID = sortID
	if len(rest) < 1+nArgIDs+nImmediates {
		return nil, parseErr(path, lineno, "%s: not enough arguments", line.Tag)
	}
	arg, err := strconv.ParseInt(rest[1], 10, 64)
	if err != nil {
		return nil, parseErr(path, lineno, "%s: malformed argument", line.Tag)
	}
	line.Args = append(line.Args, arg)
	for _, s := range rest[1+nArgIDs : 1+nArgIDs+nImmediates] {
		imm, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, parseErr(path, lineno, "%s: malformed immediate", line.Tag)
		}
		line.Args = append(line.Args, imm)
	}
	return line, nil
}

func parseErr(path string, lineno int64, format string, args ...interface{}) error {
	return &btorsimerr.ParseError{
		Pos: btorsimerr.Position{Path: path, Line: lineno},
		Msg: fmt.Sprintf(format, args...),
	}
}

func parseUint(s string) (uint, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("width must be >= 1")
	}
	return uint(n), nil
}

// resolve fills in sort references, and the derived Inputs/States/
// Bads/Constraints/Justices/Fairs/Outputs/Init/Next slices, in id
// order (matching the original tool's push_back-in-parse-order
// behaviour, so witness assignment positions line up).
func (m *Model) resolve() error {
	for id := int64(1); id <= m.MaxID; id++ {
		l, ok := m.Lines[id]
		if !ok {
			continue
		}
		if l.Tag == TagSort {
			continue
		}
		if l.SortID != 0 {
			sortLine, ok := m.Lines[l.SortID]
			if !ok || sortLine.Tag != TagSort {
				return parseErr(m.Path, l.LineNo, "unresolved sort reference %d", l.SortID)
			}
			l.Sort = sortLine.Sort
		}
	}

	// Resolve array sort element/index widths (sort lines reference
	// other sort lines by id for the array case).
	for _, l := range m.Lines {
		if l.Tag == TagSort && l.Sort.Kind == SortArray {
			idxSort := m.Lines[l.Args[0]]
			elemSort := m.Lines[l.Args[1]]
			if idxSort == nil || elemSort == nil || idxSort.Tag != TagSort || elemSort.Tag != TagSort {
				return parseErr(m.Path, l.LineNo, "array sort: unresolved component sort")
			}
			l.Sort.IndexWidth = idxSort.Sort.Width
			l.Sort.ElemWidth = elemSort.Sort.Width
		}
	}
	// Re-propagate now-resolved array sorts to their referencing lines.
	for id := int64(1); id <= m.MaxID; id++ {
		l, ok := m.Lines[id]
		if !ok || l.Tag == TagSort {
			continue
		}
		if l.SortID != 0 {
			l.Sort = m.Lines[l.SortID].Sort
		}
	}

	for id := int64(1); id <= m.MaxID; id++ {
		l, ok := m.Lines[id]
		if !ok {
			continue
		}
		switch l.Tag {
		case TagInput:
			m.Inputs = append(m.Inputs, l)
		case TagState:
			m.States = append(m.States, l)
		case TagBad:
			m.Bads = append(m.Bads, l)
		case TagConstraint:
			m.Constraints = append(m.Constraints, l)
		case TagJustice:
			m.Justices = append(m.Justices, l)
		case TagFair:
			m.Fairs = append(m.Fairs, l)
		case TagOutput:
			m.Outputs = append(m.Outputs, l)
		case TagInit:
			m.Init[l.Args[0]] = l
		case TagNext:
			m.Next[l.Args[0]] = l
		}
	}

	for _, state := range m.States {
		if m.Next[state.ID] == nil {
			btorsimlog.Msg(1, "state %d without next function", state.ID)
		}
	}
	return nil
}

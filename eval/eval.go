// Package eval implements the recursive, memoized expression
// evaluator spec.md §4.2 describes: given a line id, produce its
// current-step value by recursively evaluating its arguments first,
// dispatching on the line's tag, and caching the result in the shared
// state.Store so no line is evaluated twice in the same step.
//
// The dispatch shape mirrors the teacher's ExprEvaluator.Evaluate
// (expr.go) and, underneath, the original tool's simulate() in
// btorsim.cpp: a big switch on tag, each case calling straight into
// the bv/array value-domain methods. Unlike the teacher's evaluator,
// this one carries no symbolic constant-folding layer: every line
// resolves to a concrete value, so there is nothing to fold.
package eval

import (
	"github.com/nrb-sim/btorsim/array"
	"github.com/nrb-sim/btorsim/btorsimerr"
	"github.com/nrb-sim/btorsim/bv"
	"github.com/nrb-sim/btorsim/model"
	"github.com/nrb-sim/btorsim/state"
)

// Evaluator ties a model to the state store it evaluates lines into.
type Evaluator struct {
	Model *model.Model
	Store *state.Store
}

// New returns an Evaluator over m, reading/writing into st.
func New(m *model.Model, st *state.Store) *Evaluator {
	return &Evaluator{Model: m, Store: st}
}

// Eval returns the current value of line id, recursing into its
// arguments and memoizing through the store. A negative id means
// "evaluate |id|, then bitwise-negate the bit-vector result", per
// spec.md §3's reference-site negation convention; it is an error to
// apply this to an array-typed line.
func (e *Evaluator) Eval(id int64) (state.Slot, error) {
	if id < 0 {
		slot, err := e.Eval(-id)
		if err != nil {
			return state.Slot{}, err
		}
		if slot.Kind != state.Bitvec {
			return state.Slot{}, &btorsimerr.WitnessConflictError{
				Msg: "negative reference to a non-bitvec line",
			}
		}
		return state.BitvecSlot(slot.Bit.Not()), nil
	}

	if e.Store.Materialized(id) {
		return e.Store.Get(id), nil
	}

	line := e.Model.Line(id)
	slot, err := e.evalLine(line)
	if err != nil {
		return state.Slot{}, err
	}
	e.Store.Set(id, slot)
	return slot, nil
}

func (e *Evaluator) evalLine(l *model.Line) (state.Slot, error) {
	if l.Tag.Unsupported() {
		return state.Slot{}, &btorsimerr.UnsupportedOpError{LineID: l.ID, Tag: l.Tag.String()}
	}

	switch l.Tag {
	case model.TagInput, model.TagState:
		// Inputs/states are assigned externally (random driver or
		// witness replay) before evaluation reaches them; if nothing
		// has materialized the id yet, treat it as the all-zero value
		// (spec.md §4.5 step 2's default for unbound inputs).
		return zeroValueOf(l), nil

	case model.TagBad, model.TagConstraint, model.TagFair, model.TagOutput:
		return e.Eval(l.Args[0])

	case model.TagConst:
		v, err := bv.FromBinaryString(l.Constant)
		if err != nil {
			return state.Slot{}, err
		}
		return state.BitvecSlot(padOrTrim(v, l.Sort.Width)), nil
	case model.TagConstd:
		v, err := bv.FromDecimalString(l.Constant, l.Sort.Width)
		if err != nil {
			return state.Slot{}, err
		}
		return state.BitvecSlot(v), nil
	case model.TagConsth:
		v, err := bv.FromHexString(l.Constant, l.Sort.Width)
		if err != nil {
			return state.Slot{}, err
		}
		return state.BitvecSlot(v), nil
	case model.TagZero:
		return state.BitvecSlot(bv.Zero(l.Sort.Width)), nil
	case model.TagOne:
		return state.BitvecSlot(bv.One(l.Sort.Width)), nil
	case model.TagOnes:
		return state.BitvecSlot(bv.Ones(l.Sort.Width)), nil
	}

	// Ite/Eq/Neq are polymorphic over bitvec and array operands, so
	// they're dispatched before the array/bitvec split below (an Ite
	// over arrays has an array-sorted result, but nothing in
	// evalArrayLine knows how to select between two array operands).
	switch l.Tag {
	case model.TagIte, model.TagEq, model.TagNeq:
		return e.evalBitvecLine(l)
	}

	if l.Sort.Kind == model.SortArray {
		return e.evalArrayLine(l)
	}
	return e.evalBitvecLine(l)
}

func zeroValueOf(l *model.Line) state.Slot {
	if l.Sort.Kind == model.SortArray {
		return state.ArraySlot(array.New(l.Sort.IndexWidth, l.Sort.ElemWidth))
	}
	return state.BitvecSlot(bv.Zero(l.Sort.Width))
}

// padOrTrim adjusts a binary-string-derived constant to the sort's
// declared width, since "const" literals are written at exactly the
// sort's width but the parser doesn't know the width until resolve().
func padOrTrim(v *bv.Value, width uint) *bv.Value {
	if v.Width() == width {
		return v
	}
	if v.Width() < width {
		return v.Uext(width - v.Width())
	}
	return v.Slice(width-1, 0)
}

func (e *Evaluator) argBitvec(id int64) (*bv.Value, error) {
	slot, err := e.Eval(id)
	if err != nil {
		return nil, err
	}
	if slot.Kind != state.Bitvec {
		return nil, &btorsimerr.WitnessConflictError{Msg: "expected bit-vector operand"}
	}
	return slot.Bit, nil
}

func (e *Evaluator) argArray(id int64) (*array.Model, error) {
	slot, err := e.Eval(id)
	if err != nil {
		return nil, err
	}
	if slot.Kind != state.Array {
		return nil, &btorsimerr.WitnessConflictError{Msg: "expected array operand"}
	}
	return slot.Arr, nil
}

func (e *Evaluator) evalBitvecLine(l *model.Line) (state.Slot, error) {
	switch l.Tag {
	case model.TagSlice:
		a, err := e.argBitvec(l.Args[0])
		if err != nil {
			return state.Slot{}, err
		}
		hi, lo := uint(l.Args[1]), uint(l.Args[2])
		return state.BitvecSlot(a.Slice(hi, lo)), nil
	case model.TagUext:
		a, err := e.argBitvec(l.Args[0])
		if err != nil {
			return state.Slot{}, err
		}
		return state.BitvecSlot(a.Uext(uint(l.Args[1]))), nil
	case model.TagSext:
		a, err := e.argBitvec(l.Args[0])
		if err != nil {
			return state.Slot{}, err
		}
		return state.BitvecSlot(a.Sext(uint(l.Args[1]))), nil
	case model.TagConcat:
		a, err := e.argBitvec(l.Args[0])
		if err != nil {
			return state.Slot{}, err
		}
		b, err := e.argBitvec(l.Args[1])
		if err != nil {
			return state.Slot{}, err
		}
		return state.BitvecSlot(a.Concat(b)), nil
	}

	if l.Tag == model.TagIte {
		cond, err := e.argBitvec(l.Args[0])
		if err != nil {
			return state.Slot{}, err
		}
		tSlot, err := e.Eval(l.Args[1])
		if err != nil {
			return state.Slot{}, err
		}
		eSlot, err := e.Eval(l.Args[2])
		if err != nil {
			return state.Slot{}, err
		}
		if tSlot.Kind == state.Array {
			return state.ArraySlot(array.Ite(cond, tSlot.Arr, eSlot.Arr)), nil
		}
		if cond.Uint64() != 0 {
			return tSlot, nil
		}
		return eSlot, nil
	}

	if l.Tag == model.TagEq || l.Tag == model.TagNeq {
		lhs, err := e.Eval(l.Args[0])
		if err != nil {
			return state.Slot{}, err
		}
		rhs, err := e.Eval(l.Args[1])
		if err != nil {
			return state.Slot{}, err
		}
		var eq bool
		if lhs.Kind == state.Array {
			eq = array.Eq(lhs.Arr, rhs.Arr)
		} else {
			eq = lhs.Bit.Eq(rhs.Bit).Uint64() != 0
		}
		if l.Tag == model.TagNeq {
			eq = !eq
		}
		return state.BitvecSlot(boolBV(eq)), nil
	}

	if l.Tag == model.TagRead {
		arr, err := e.argArray(l.Args[0])
		if err != nil {
			return state.Slot{}, err
		}
		idx, err := e.argBitvec(l.Args[1])
		if err != nil {
			return state.Slot{}, err
		}
		value, _ := arr.Read(idx)
		return state.BitvecSlot(value), nil
	}

	a, err := e.argBitvec(l.Args[0])
	if err != nil {
		return state.Slot{}, err
	}

	unary, isUnary := unaryOps[l.Tag]
	if isUnary {
		return state.BitvecSlot(unary(a)), nil
	}

	if len(l.Args) < 2 {
		return state.Slot{}, &btorsimerr.UnsupportedOpError{LineID: l.ID, Tag: l.Tag.String()}
	}
	b, err := e.argBitvec(l.Args[1])
	if err != nil {
		return state.Slot{}, err
	}
	binary, isBinary := binaryOps[l.Tag]
	if !isBinary {
		return state.Slot{}, &btorsimerr.UnsupportedOpError{LineID: l.ID, Tag: l.Tag.String()}
	}
	return state.BitvecSlot(binary(a, b)), nil
}

func (e *Evaluator) evalArrayLine(l *model.Line) (state.Slot, error) {
	if l.Tag == model.TagWrite {
		arr, err := e.argArray(l.Args[0])
		if err != nil {
			return state.Slot{}, err
		}
		idx, err := e.argBitvec(l.Args[1])
		if err != nil {
			return state.Slot{}, err
		}
		elem, err := e.argBitvec(l.Args[2])
		if err != nil {
			return state.Slot{}, err
		}
		return state.ArraySlot(arr.Write(idx, elem)), nil
	}
	return state.Slot{}, &btorsimerr.UnsupportedOpError{LineID: l.ID, Tag: l.Tag.String()}
}

func boolBV(b bool) *bv.Value {
	if b {
		return bv.One(1)
	}
	return bv.Zero(1)
}

var unaryOps = map[model.Tag]func(*bv.Value) *bv.Value{
	model.TagNeg:    (*bv.Value).Neg,
	model.TagInc:    (*bv.Value).Inc,
	model.TagDec:    (*bv.Value).Dec,
	model.TagNot:    (*bv.Value).Not,
	model.TagRedand: (*bv.Value).Redand,
	model.TagRedor:  (*bv.Value).Redor,
	model.TagRedxor: (*bv.Value).Redxor,
}

var binaryOps = map[model.Tag]func(*bv.Value, *bv.Value) *bv.Value{
	model.TagAdd:  (*bv.Value).Add,
	model.TagSub:  (*bv.Value).Sub,
	model.TagMul:  (*bv.Value).Mul,
	model.TagUdiv: (*bv.Value).UDiv,
	model.TagSdiv: (*bv.Value).SDiv,
	model.TagUrem: (*bv.Value).URem,
	model.TagSrem: (*bv.Value).SRem,

	model.TagAnd:     (*bv.Value).And,
	model.TagOr:      (*bv.Value).Or,
	model.TagXor:     (*bv.Value).Xor,
	model.TagXnor:    (*bv.Value).Xnor,
	model.TagNand:    (*bv.Value).Nand,
	model.TagNor:     (*bv.Value).Nor,
	model.TagImplies: (*bv.Value).Implies,
	model.TagIff:     (*bv.Value).Iff,

	model.TagSll: (*bv.Value).Sll,
	model.TagSrl: (*bv.Value).Srl,
	model.TagSra: (*bv.Value).Sra,

	model.TagUlt:  (*bv.Value).Ult,
	model.TagUlte: (*bv.Value).Ulte,
	model.TagUgt:  (*bv.Value).Ugt,
	model.TagUgte: (*bv.Value).Ugte,
	model.TagSlt:  (*bv.Value).Slt,
	model.TagSlte: (*bv.Value).Slte,
	model.TagSgt:  (*bv.Value).Sgt,
	model.TagSgte: (*bv.Value).Sgte,
}

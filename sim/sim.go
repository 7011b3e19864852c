// Package sim implements the stepper orchestration loop spec.md §4.4
// describes: per step, evaluate every non-meta line, compute the next
// state, check constraints, check bad properties, and notify an
// optional waveform emitter — in that strict order, matching the
// original tool's simulate()/update_current_state loop in
// btorsim.cpp.
package sim

import (
	"fmt"

	"github.com/nrb-sim/btorsim/array"
	"github.com/nrb-sim/btorsim/btorsimerr"
	"github.com/nrb-sim/btorsim/btorsimlog"
	"github.com/nrb-sim/btorsim/bv"
	"github.com/nrb-sim/btorsim/eval"
	"github.com/nrb-sim/btorsim/model"
	"github.com/nrb-sim/btorsim/rng"
	"github.com/nrb-sim/btorsim/state"
)

// Emitter is notified once at the end of every step with the state
// store, so a waveform writer can record value changes without the
// stepper knowing anything about VCD.
type Emitter interface {
	Step(k int64, m *model.Model, st *state.Store)
}

// Simulator owns a model and its live state, and runs it forward one
// step at a time.
type Simulator struct {
	Model   *model.Model
	Store   *state.Store
	Emitter Emitter

	stateIDs []int64

	// ReachedBads[i] is the first step at which Bads[i] was observed
	// true, or -1 if never reached.
	ReachedBads []int64

	// ConstraintViolatedAt is the first step at which any constraint
	// was observed false, or -1 if never violated.
	ConstraintViolatedAt int64

	// UnboundValue supplies the value a state with no init/next
	// function takes at step 0 and every following step (spec.md
	// §4.4 step 2, §4.5 step 1's "zero or random per flag"). nil
	// means always the zero value, matching checking mode.
	UnboundValue func(width uint) *bv.Value
}

// New builds a Simulator over m with a freshly allocated state store.
func New(m *model.Model) *Simulator {
	ids := make([]int64, len(m.States))
	for i, s := range m.States {
		ids[i] = s.ID
	}
	bads := make([]int64, len(m.Bads))
	for i := range bads {
		bads[i] = -1
	}
	return &Simulator{
		Model:                 m,
		Store:                 state.New(m.MaxID),
		stateIDs:              ids,
		ReachedBads:           bads,
		ConstraintViolatedAt:  -1,
	}
}

// InputAssigner supplies the value an input line should take at a
// given step, e.g. the random driver or a witness replay cursor.
type InputAssigner func(input *model.Line, step int64) (state.Slot, error)

// Step advances the simulator by one discrete time step: at step 0 it
// initializes every state from its "init" line (falling back to
// unboundSlot's value, zero or drawn from UnboundValue, when a state
// has none), at later steps it commits the
// previous step's next-state values; then it assigns inputs, forces
// every non-meta line to materialize, checks constraints, checks bad
// properties, and notifies the emitter.
func (s *Simulator) Step(step int64, assignInput InputAssigner) error {
	if step == 0 {
		if err := s.initializeStates(); err != nil {
			return err
		}
	} else {
		s.Store.CommitTransition(s.stateIDs)
	}
	s.Store.ResetStep(s.stateIDs)

	for _, input := range s.Model.Inputs {
		slot, err := assignInput(input, step)
		if err != nil {
			return err
		}
		s.Store.Set(input.ID, slot)
	}

	e := eval.New(s.Model, s.Store)

	for id := int64(1); id <= s.Model.MaxID; id++ {
		line, ok := s.Model.Lines[id]
		if !ok || line.IsMeta() {
			continue
		}
		if _, err := e.Eval(id); err != nil {
			return err
		}
	}

	for _, st := range s.Model.States {
		if nextLine, ok := s.Model.Next[st.ID]; ok {
			slot, err := e.Eval(nextLine.Args[1])
			if err != nil {
				return err
			}
			s.Store.SetNext(st.ID, slot)
			continue
		}
		s.Store.SetNext(st.ID, s.unboundSlot(st))
	}

	for i, c := range s.Model.Constraints {
		slot, err := e.Eval(c.Args[0])
		if err != nil {
			return err
		}
		if slot.Bit.Uint64() == 0 {
			if s.ConstraintViolatedAt < 0 {
				s.ConstraintViolatedAt = step
			}
			btorsimlog.Msg(1, "constraint %d violated at step %d", i, step)
		}
	}

	if s.ConstraintViolatedAt < 0 {
		for i, b := range s.Model.Bads {
			slot, err := e.Eval(b.Args[0])
			if err != nil {
				return err
			}
			if slot.Bit.Uint64() != 0 && s.ReachedBads[i] < 0 {
				s.ReachedBads[i] = step
				btorsimlog.Msg(1, "bad %d reached at step %d", i, step)
			}
		}
	}

	if s.Emitter != nil {
		s.Emitter.Step(step, s.Model, s.Store)
	}
	return nil
}

func (s *Simulator) initializeStates() error {
	e := eval.New(s.Model, s.Store)
	for _, st := range s.Model.States {
		if initLine, ok := s.Model.Init[st.ID]; ok {
			slot, err := e.Eval(initLine.Args[1])
			if err != nil {
				return err
			}
			s.Store.Set(st.ID, slot)
			continue
		}
		s.Store.Set(st.ID, s.unboundSlot(st))
	}
	return nil
}

// unboundSlot produces the value a state with no init (at step 0) or
// no next (at every step) takes on: zero by default, or a fresh value
// drawn from UnboundValue in random mode. Array-sorted unbound states
// are always a fresh empty array; the original's optional random seed
// for such arrays has no bit-vector analogue to draw from here.
func (s *Simulator) unboundSlot(st *model.Line) state.Slot {
	if st.Sort.Kind == model.SortArray {
		return state.ArraySlot(array.New(st.Sort.IndexWidth, st.Sort.ElemWidth))
	}
	if s.UnboundValue != nil {
		return state.BitvecSlot(s.UnboundValue(st.Sort.Width))
	}
	return state.BitvecSlot(bv.Zero(st.Sort.Width))
}

// AnyBadReached reports whether at least one bad property has been
// observed true.
func (s *Simulator) AnyBadReached() bool {
	for _, r := range s.ReachedBads {
		if r >= 0 {
			return true
		}
	}
	return false
}

// AllBadsReached reports whether every bad property has been observed
// true at least once (spec.md §4.5 step 4's random-driver halt
// condition); vacuously false when the model declares no bad property.
func (s *Simulator) AllBadsReached() bool {
	if len(s.ReachedBads) == 0 {
		return false
	}
	for _, r := range s.ReachedBads {
		if r < 0 {
			return false
		}
	}
	return true
}

// RandomAssigner returns an InputAssigner that draws every bit-vector
// input's value from stream, per spec.md §4.5's random-simulation
// driver. An array-sorted input is not assigned: the assigner returns
// an error for it.
func RandomAssigner(stream *rng.Stream) InputAssigner {
	return func(input *model.Line, step int64) (state.Slot, error) {
		if input.Sort.Kind == model.SortArray {
			return state.Slot{}, &btorsimerr.WitnessConflictError{
				Msg: fmt.Sprintf("input %d: array-sorted inputs are not supported", input.ID),
			}
		}
		return state.BitvecSlot(stream.NextValue(input.Sort.Width)), nil
	}
}

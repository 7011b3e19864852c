package sim

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrb-sim/btorsim/bv"
	"github.com/nrb-sim/btorsim/model"
	"github.com/nrb-sim/btorsim/rng"
	"github.com/nrb-sim/btorsim/state"
)

func load(t *testing.T, text string) *model.Model {
	t.Helper()
	m, err := model.Load(strings.NewReader(text), "t.btor2")
	require.NoError(t, err)
	return m
}

// A counter that starts at 0, increments every step, and is bad once
// it reaches 3 (width 4, so this is reached deterministically
// regardless of input randomization, since the counter has no input).
const counterBadModel = `
1 sort bitvec 4
2 zero 1
3 state 1 counter
4 one 1
5 add 1 3 4
6 init 1 3 2
7 next 1 3 5
8 const 1 0011
9 eq 1 3 8
10 bad 9
`

func TestStepperReachesBad(t *testing.T) {
	m := load(t, counterBadModel)
	s := New(m)
	stream := rng.New(1)

	for k := int64(0); k < 5; k++ {
		require.NoError(t, s.Step(k, RandomAssigner(stream)))
	}

	require.True(t, s.AnyBadReached())
	assert.Equal(t, int64(3), s.ReachedBads[0])
}

// A constraint that is violated once an unconstrained input goes
// high, used to exercise the constraint-checking step.
const constraintModel = `
1 sort bitvec 1
2 input 1 trigger
3 not 1 2
4 constraint 3
`

func TestStepperDetectsConstraintViolation(t *testing.T) {
	m := load(t, constraintModel)
	s := New(m)

	assigner := func(input *model.Line, step int64) (state.Slot, error) {
		if step == 1 {
			return state.BitvecSlot(bv.One(1)), nil
		}
		return state.BitvecSlot(bv.Zero(1)), nil
	}

	for k := int64(0); k < 3; k++ {
		require.NoError(t, s.Step(k, assigner))
	}
	assert.Equal(t, int64(1), s.ConstraintViolatedAt)
}

const arrayModel = `
1 sort bitvec 4
2 sort bitvec 8
3 sort array 1 2
4 state 3 mem
5 input 1 addr
6 input 2 data
7 write 3 4 5 6
8 next 3 4 7
9 read 2 4 5
10 output 9
`

func TestStepperArrayWriteThenNextStepRead(t *testing.T) {
	m := load(t, arrayModel)
	s := New(m)

	values := []uint64{0, 7, 99}
	step := 0
	assigner := func(input *model.Line, k int64) (state.Slot, error) {
		if input.Symbol == "addr" {
			return state.BitvecSlot(bv.FromUint64(5, 4)), nil
		}
		v := values[step%len(values)]
		return state.BitvecSlot(bv.FromUint64(v, 8)), nil
	}

	for k := int64(0); k < 3; k++ {
		step = int(k)
		require.NoError(t, s.Step(k, assigner))
	}

	slot := s.Store.Get(4)
	require.Equal(t, state.Array, slot.Kind)
	val, ok := slot.Arr.ValueAt(5)
	require.True(t, ok)
	assert.Equal(t, uint64(7), val.Uint64())
}

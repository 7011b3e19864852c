package eval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrb-sim/btorsim/array"
	"github.com/nrb-sim/btorsim/model"
	"github.com/nrb-sim/btorsim/state"
)

func load(t *testing.T, text string) *model.Model {
	t.Helper()
	m, err := model.Load(strings.NewReader(text), "t.btor2")
	require.NoError(t, err)
	return m
}

func TestEvalArithmetic(t *testing.T) {
	const text = `
1 sort bitvec 8
2 const 1 00000011
3 const 1 00000101
4 add 1 2 3
`
	m := load(t, text)
	st := state.New(m.MaxID)
	e := New(m, st)

	slot, err := e.Eval(4)
	require.NoError(t, err)
	require.Equal(t, state.Bitvec, slot.Kind)
	assert.Equal(t, uint64(8), slot.Bit.Uint64())
}

func TestEvalNegativeReferenceNegates(t *testing.T) {
	const text = `
1 sort bitvec 4
2 const 1 0011
`
	m := load(t, text)
	st := state.New(m.MaxID)
	e := New(m, st)

	slot, err := e.Eval(-2)
	require.NoError(t, err)
	assert.Equal(t, uint64(0b1100), slot.Bit.Uint64())
}

func TestEvalMemoizesLine(t *testing.T) {
	const text = `
1 sort bitvec 4
2 const 1 0001
3 add 1 2 2
`
	m := load(t, text)
	st := state.New(m.MaxID)
	e := New(m, st)

	_, err := e.Eval(3)
	require.NoError(t, err)
	assert.True(t, st.Materialized(2))
	assert.True(t, st.Materialized(3))
}

func TestEvalIteOnArrays(t *testing.T) {
	const text = `
1 sort bitvec 1
2 sort bitvec 4
3 sort bitvec 8
4 sort array 2 3
5 state 4 mem
6 one 1
7 ite 4 6 5 5
`
	m := load(t, text)
	st := state.New(m.MaxID)
	e := New(m, st)

	slot, err := e.Eval(7)
	require.NoError(t, err)
	assert.Equal(t, state.Array, slot.Kind)
}

func TestEvalUnsupportedOpFails(t *testing.T) {
	const text = `
1 sort bitvec 4
2 input 1
3 rol 1 2 2
`
	m := load(t, text)
	st := state.New(m.MaxID)
	e := New(m, st)

	_, err := e.Eval(3)
	require.Error(t, err)
}

func TestEvalReadWrite(t *testing.T) {
	const text = `
1 sort bitvec 4
2 sort bitvec 8
3 sort array 1 2
4 state 3 mem
5 const 1 0001
6 const 2 00000111
7 write 3 4 5 6
8 read 2 7 5
`
	m := load(t, text)
	st := state.New(m.MaxID)
	st.Set(4, state.ArraySlot(array.New(4, 8)))
	e := New(m, st)

	slot, err := e.Eval(8)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), slot.Bit.Uint64())
}

func TestEvalZeroOneOnes(t *testing.T) {
	const text = `
1 sort bitvec 4
2 zero 1
3 one 1
4 ones 1
`
	m := load(t, text)
	st := state.New(m.MaxID)
	e := New(m, st)

	z, err := e.Eval(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), z.Bit.Uint64())

	o, err := e.Eval(3)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), o.Bit.Uint64())

	ones, err := e.Eval(4)
	require.NoError(t, err)
	assert.True(t, ones.Bit.IsAllOnes())
}

package vcd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrb-sim/btorsim/bv"
	"github.com/nrb-sim/btorsim/model"
	"github.com/nrb-sim/btorsim/state"
)

func TestWriterEmitsHeaderAndScalarChange(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)
	w.Hierarchical = true

	line := &model.Line{ID: 3, Symbol: "counter", Sort: model.Sort{Kind: model.SortBitvec, Width: 4}}
	w.Track(line)

	st := state.New(10)
	st.Set(3, state.BitvecSlot(bv.FromUint64(5, 4)))
	w.Step(0, &model.Model{}, st)

	require.NoError(t, w.Close())
	out := buf.String()
	assert.Contains(t, out, "$scope module top $end")
	assert.Contains(t, out, "$var wire 4 n3 counter $end")
	assert.Contains(t, out, "#0")
	assert.Contains(t, out, "b0101 n3")
}

func TestWriterSkipsUnchangedValue(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)
	w.Hierarchical = true
	line := &model.Line{ID: 1, Symbol: "x", Sort: model.Sort{Kind: model.SortBitvec, Width: 1}}
	w.Track(line)

	st := state.New(10)
	st.Set(1, state.BitvecSlot(bv.One(1)))
	w.Step(0, &model.Model{}, st)
	w.Step(1, &model.Model{}, st)

	require.NoError(t, w.Close())
	assert.Equal(t, 1, strings.Count(buf.String(), "1n1"))
}

func TestReadInfoParsesClocksAndBads(t *testing.T) {
	const text = `name mytop
posedge 5
bad 7 overflow
`
	top, clocks, bads, err := ReadInfo(strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, "mytop", top)
	assert.Equal(t, Posedge, clocks[5])
	assert.Equal(t, "overflow", bads[7])
}

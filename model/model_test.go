package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const counterModel = `
1 sort bitvec 8
2 zero 1
3 input 1 reset
4 state 1 counter
5 one 1
6 add 1 4 5
7 ite 1 3 2 6
8 init 1 4 2
9 next 1 4 7
10 sort bitvec 1
11 ugte 10 4 5
12 bad 11
`

func TestLoadCounterModel(t *testing.T) {
	m, err := Load(strings.NewReader(counterModel), "counter.btor2")
	require.NoError(t, err)

	require.Len(t, m.States, 1)
	assert.Equal(t, int64(4), m.States[0].ID)
	assert.Equal(t, "counter", m.States[0].Symbol)

	require.Len(t, m.Inputs, 1)
	assert.Equal(t, "reset", m.Inputs[0].Symbol)

	require.Len(t, m.Bads, 1)
	assert.Equal(t, int64(11), m.Bads[0].Args[0])

	init := m.Init[4]
	require.NotNil(t, init)
	assert.Equal(t, int64(2), init.Args[1])

	next := m.Next[4]
	require.NotNil(t, next)
	assert.Equal(t, int64(7), next.Args[1])

	sortLine := m.Line(1)
	assert.Equal(t, SortBitvec, sortLine.Sort.Kind)
	assert.Equal(t, uint(8), sortLine.Sort.Width)

	addLine := m.Line(6)
	assert.Equal(t, TagAdd, addLine.Tag)
	assert.Equal(t, []int64{4, 5}, addLine.Args)
}

func TestLoadArraySort(t *testing.T) {
	const text = `
1 sort bitvec 4
2 sort bitvec 8
3 sort array 1 2
4 state 3 mem
`
	m, err := Load(strings.NewReader(text), "mem.btor2")
	require.NoError(t, err)

	memLine := m.Line(4)
	require.Equal(t, SortArray, memLine.Sort.Kind)
	assert.Equal(t, uint(4), memLine.Sort.IndexWidth)
	assert.Equal(t, uint(8), memLine.Sort.ElemWidth)
}

func TestLoadRejectsUnknownTag(t *testing.T) {
	_, err := Load(strings.NewReader("1 frobnicate 2\n"), "bad.btor2")
	require.Error(t, err)
}

func TestLoadSkipsCommentsAndBlankLines(t *testing.T) {
	const text = `
; a leading comment
1 sort bitvec 1 ; trailing comment

2 one 1
`
	m, err := Load(strings.NewReader(text), "comment.btor2")
	require.NoError(t, err)
	assert.Len(t, m.Lines, 2)
}

func TestLoadSlice(t *testing.T) {
	const text = `
1 sort bitvec 8
2 sort bitvec 4
3 input 1 x
4 slice 2 3 3 0
`
	m, err := Load(strings.NewReader(text), "slice.btor2")
	require.NoError(t, err)
	slice := m.Line(4)
	assert.Equal(t, []int64{3, 3, 0}, slice.Args)
}

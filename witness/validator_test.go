package witness

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrb-sim/btorsim/model"
)

// counterModel mirrors spec scenario 1: a 4-bit counter starting at 0,
// incrementing every step, bad once it reaches 5.
const counterModel = `
1 sort bitvec 4
2 zero 1
3 state 1 c
4 init 1 3 2
5 one 1
6 add 1 3 5
7 next 1 3 6
8 const 1 0101
9 eq 1 3 8
10 bad 9
`

func loadModel(t *testing.T, text string) *model.Model {
	t.Helper()
	m, err := model.Load(strings.NewReader(text), "t.btor2")
	require.NoError(t, err)
	return m
}

func TestValidatorReplaysHappyPathAcrossFrames(t *testing.T) {
	const wit = `sat
b0
#0
0 0000 c
@0
.
#1
0 0001 c
@1
.
#2
0 0010 c
@2
.
#3
0 0011 c
@3
.
#4
0 0100 c
@4
.
#5
0 0101 c
@5
.
`
	m := loadModel(t, counterModel)
	w, err := NewReader(strings.NewReader(wit), "t.wit").ReadAll()
	require.NoError(t, err)

	v := NewValidator(m, w)
	require.NoError(t, v.Run())
}

func TestValidatorRejectsIncompatibleStateAssignmentAtLaterFrame(t *testing.T) {
	const wit = `sat
b0
#0
0 0000 c
@0
.
#1
0 0001 c
@1
.
#2
0 0010 c
@2
.
#3
0 1111 c
@3
.
`
	m := loadModel(t, counterModel)
	w, err := NewReader(strings.NewReader(wit), "t.wit").ReadAll()
	require.NoError(t, err)

	v := NewValidator(m, w)
	err = v.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incompatible assignment for state 0 id 3 in time frame 3")
}

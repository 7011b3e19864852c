package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrb-sim/btorsim/bv"
)

func TestStoreSetGet(t *testing.T) {
	s := New(10)
	assert.False(t, s.Materialized(4))

	s.Set(4, BitvecSlot(bv.FromUint64(7, 8)))
	require.True(t, s.Materialized(4))
	got := s.Get(4)
	require.Equal(t, Bitvec, got.Kind)
	assert.Equal(t, uint64(7), got.Bit.Uint64())
}

func TestCommitTransitionMovesNextToCurrent(t *testing.T) {
	s := New(10)
	s.SetNext(4, BitvecSlot(bv.FromUint64(9, 8)))
	s.CommitTransition([]int64{4})

	got := s.Get(4)
	require.Equal(t, Bitvec, got.Kind)
	assert.Equal(t, uint64(9), got.Bit.Uint64())

	next := s.GetNext(4)
	assert.False(t, next.IsValid())
}

func TestResetStepPreservesStateValuesOnly(t *testing.T) {
	s := New(10)
	s.Set(4, BitvecSlot(bv.FromUint64(1, 8)))
	s.Set(5, BitvecSlot(bv.FromUint64(2, 8)))

	s.ResetStep([]int64{4})
	assert.True(t, s.Materialized(4))
	assert.False(t, s.Materialized(5))
}

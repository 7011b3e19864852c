package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreamDeterministic(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.NextWord(), b.NextWord())
	}
}

func TestStreamVariesWithSeed(t *testing.T) {
	a := New(1)
	b := New(2)
	assert.NotEqual(t, a.NextWord(), b.NextWord())
}

func TestZeroSeedRemapped(t *testing.T) {
	s := New(0)
	assert.NotEqual(t, uint32(0), s.NextWord())
}

func TestNextValueWidth(t *testing.T) {
	s := New(7)
	v := s.NextValue(37)
	assert.Equal(t, uint(37), v.Width())
}

func TestNextBitsMasksTopWord(t *testing.T) {
	s := New(99)
	words := s.NextBits(5)
	assert.Len(t, words, 1)
	assert.LessOrEqual(t, words[0], uint32(31))
}

// Package rng implements the deterministic pseudo-random generator the
// random-simulation driver uses (spec.md §4.5), grounded on the
// original tool's BtorSimRNG: a minimal, dependency-free xorshift32
// word stream chosen so any seed replays bit-for-bit identically
// across runs and across re-implementations.
package rng

import "github.com/nrb-sim/btorsim/bv"

// Stream produces a deterministic sequence of 32-bit words from a
// seed, and fills bit-vectors of arbitrary width by concatenating as
// many words as needed.
type Stream struct {
	state uint32
}

// New returns a stream seeded from seed. A zero seed is remapped to a
// nonzero internal state since xorshift32 has a fixed point at zero.
func New(seed uint64) *Stream {
	s := uint32(seed) ^ uint32(seed>>32)
	if s == 0 {
		s = 0x9e3779b9
	}
	return &Stream{state: s}
}

// NextWord advances the stream and returns the next 32-bit word.
func (s *Stream) NextWord() uint32 {
	x := s.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	s.state = x
	return x
}

// NextBits returns a value with exactly width bits of randomness (the
// high bits of the last word are discarded when width is not a
// multiple of 32), assembled word-by-word least-significant-word first.
func (s *Stream) NextBits(width uint) []uint32 {
	n := (width + 31) / 32
	words := make([]uint32, n)
	for i := range words {
		words[i] = s.NextWord()
	}
	if rem := width % 32; rem != 0 {
		mask := uint32(1)<<rem - 1
		words[n-1] &= mask
	}
	return words
}

// NextValue returns a freshly randomized bit-vector of the given width.
func (s *Stream) NextValue(width uint) *bv.Value {
	return bv.FromWords(s.NextBits(width), width)
}


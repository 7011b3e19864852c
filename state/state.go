// Package state holds the simulator's current/next assignment vectors:
// a tagged union per line id, parallel current and next arrays, and a
// bitset tracking which ids have been materialized during the step
// currently in progress (spec.md §3, "State store").
package state

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/nrb-sim/btorsim/array"
	"github.com/nrb-sim/btorsim/bv"
)

// Kind distinguishes the three slot shapes a line id can hold.
type Kind int

const (
	Invalid Kind = iota
	Bitvec
	Array
)

// Slot is a tagged union holding either a bit-vector or array value,
// or nothing (Invalid) when the id has not been assigned this step.
type Slot struct {
	Kind  Kind
	Bit   *bv.Value
	Arr   *array.Model
}

// BitvecSlot wraps a bit-vector value as a Slot.
func BitvecSlot(v *bv.Value) Slot { return Slot{Kind: Bitvec, Bit: v} }

// ArraySlot wraps an array value as a Slot.
func ArraySlot(m *array.Model) Slot { return Slot{Kind: Array, Arr: m} }

// IsValid reports whether the slot carries an assigned value.
func (s Slot) IsValid() bool { return s.Kind != Invalid }

// Store holds the current and next assignment vectors, index-aligned
// by line id (Current[0]/Next[0] are unused placeholders so ids can be
// used directly as the index).
type Store struct {
	Current []Slot
	Next    []Slot

	// materialized tracks which ids have a Current assignment already
	// computed this step, so the evaluator's memoized recursion (§4.2)
	// can tell "not yet evaluated" from "evaluated to the zero value".
	materialized *bitset.BitSet
}

// New allocates a Store sized to hold ids [0, maxID].
func New(maxID int64) *Store {
	n := int(maxID) + 1
	return &Store{
		Current:      make([]Slot, n),
		Next:         make([]Slot, n),
		materialized: bitset.New(uint(n)),
	}
}

func (s *Store) checkBounds(id int64) {
	if id < 0 || int(id) >= len(s.Current) {
		panic(fmt.Sprintf("state: id %d out of range [0, %d)", id, len(s.Current)))
	}
}

// Get returns the current value at id.
func (s *Store) Get(id int64) Slot {
	s.checkBounds(id)
	return s.Current[id]
}

// Materialized reports whether id has been evaluated for the step in
// progress.
func (s *Store) Materialized(id int64) bool {
	s.checkBounds(id)
	return s.materialized.Test(uint(id))
}

// Set stores slot as the current, materialized value for id.
func (s *Store) Set(id int64, slot Slot) {
	s.checkBounds(id)
	s.Current[id] = slot
	s.materialized.Set(uint(id))
}

// SetNext stores slot as the pending next-state value for id.
func (s *Store) SetNext(id int64, slot Slot) {
	s.checkBounds(id)
	s.Next[id] = slot
}

// GetNext returns the pending next-state value for id.
func (s *Store) GetNext(id int64) Slot {
	s.checkBounds(id)
	return s.Next[id]
}

// ResetStep clears the materialized-this-step bitset and the current
// non-state evaluation cache ahead of evaluating a fresh step, while
// leaving state-id current values (committed from the prior step's
// next values) untouched.
func (s *Store) ResetStep(stateIDs []int64) {
	s.materialized.ClearAll()
	for _, id := range stateIDs {
		s.checkBounds(id)
		if s.Current[id].IsValid() {
			s.materialized.Set(uint(id))
		}
	}
}

// CommitTransition moves every pending Next value into Current,
// matching spec.md §4.4's "commit_transition moves next to current at
// the start of each step".
func (s *Store) CommitTransition(stateIDs []int64) {
	for _, id := range stateIDs {
		s.checkBounds(id)
		if s.Next[id].IsValid() {
			s.Current[id] = s.Next[id]
			s.Next[id] = Slot{}
		}
	}
}

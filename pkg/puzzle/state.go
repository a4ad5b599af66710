package puzzle

import (
	"fmt"
	"strings"
)

// State is a permutation of piece positions plus an orientation value per
// slot. Perm[i] is the piece (identified by its home slot) currently sitting
// in slot i; Ori[i] is that piece's orientation modulo the slot cardinality.
// The solved state has Perm[i] = i and Ori[i] = 0 everywhere.
//
// States are plain value data. A total order exists (Compare) and is used for
// canonical-minimum selection by the symmetry engine; it carries no other
// meaning.
type State struct {
	Perm []uint8
	Ori  []uint8
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	c := State{Perm: make([]uint8, len(s.Perm)), Ori: make([]uint8, len(s.Ori))}
	copy(c.Perm, s.Perm)
	copy(c.Ori, s.Ori)
	return c
}

// Equal reports whether two states are identical.
func (s State) Equal(o State) bool {
	if len(s.Perm) != len(o.Perm) {
		return false
	}
	for i := range s.Perm {
		if s.Perm[i] != o.Perm[i] || s.Ori[i] != o.Ori[i] {
			return false
		}
	}
	return true
}

// Compare returns -1, 0 or +1 ordering states lexicographically by
// permutation, then by orientation.
func (s State) Compare(o State) int {
	for i := range s.Perm {
		if s.Perm[i] != o.Perm[i] {
			if s.Perm[i] < o.Perm[i] {
				return -1
			}
			return 1
		}
	}
	for i := range s.Ori {
		if s.Ori[i] != o.Ori[i] {
			if s.Ori[i] < o.Ori[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// String renders the state as "perm/ori" digit lists, for logs and tests.
func (s State) String() string {
	var b strings.Builder
	for i, p := range s.Perm {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d", p)
	}
	b.WriteByte('/')
	for i, o := range s.Ori {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d", o)
	}
	return b.String()
}

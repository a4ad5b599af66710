// Package symmetry computes a puzzle's symmetry group and canonicalizes
// states and move sets under conjugation.
//
// The group is generated once from the structure-preserving relabelings
// declared by the puzzle definition - a fixed, small, enumerable set such as
// the rotations of the physical puzzle. It acts on states and on moves by
// conjugation: relabel, act, relabel back.
//
// Canonicalization maps any state to the numerically-minimal member of its
// orbit, which lets pruning tables and search treat symmetry-equivalent
// states as one. The stabilizer of a state restricts which moves need to be
// tried at a search node: moves related by a stabilizer element lead to
// symmetry-equivalent subtrees, so only one representative per orbit is
// expanded.
package symmetry

import (
	"math/bits"

	"github.com/matzehuels/cyclesolver/pkg/errors"
	"github.com/matzehuels/cyclesolver/pkg/puzzle"
)

// maxGroupSize bounds the symmetry group so stabilizers fit in a bitmask.
const maxGroupSize = 64

// Mask is a subgroup of the symmetry group as a bitmask over element
// indices. Bit 0 (the identity) is always set for masks produced here.
type Mask uint64

// Has reports whether element idx is in the subgroup.
func (m Mask) Has(idx int) bool { return m&(1<<idx) != 0 }

// Count returns the subgroup's size.
func (m Mask) Count() int { return bits.OnesCount64(uint64(m)) }

// Group is the symmetry group of a puzzle: the closure of the definition's
// symmetry generators under composition. Element 0 is the identity.
// Immutable after construction; safe for concurrent use.
type Group struct {
	def      *puzzle.Definition
	elems    []puzzle.Transform
	invs     []puzzle.Transform // inverse transform per element
	conjMove [][]int            // conjMove[sym][move] = index of sym∘move∘sym⁻¹
}

// New computes the symmetry group of d. Every element's conjugation action
// must map each generator move onto a generator move; a declared symmetry
// that fails this is a configuration error.
func New(d *puzzle.Definition) (*Group, error) {
	cards := d.Cards()
	elems := []puzzle.Transform{puzzle.IdentityTransform(d.Size())}

	// Close the generator set under composition, breadth-first.
	frontier := elems
	for len(frontier) > 0 {
		var next []puzzle.Transform
		for _, e := range frontier {
			for _, g := range d.SymmetryGenerators() {
				c := puzzle.Compose(e, g, cards)
				if !containsTransform(elems, c) {
					if len(elems) >= maxGroupSize {
						return nil, errors.New(errors.ErrCodeInvalidPuzzle,
							"symmetry group exceeds %d elements", maxGroupSize)
					}
					elems = append(elems, c)
					next = append(next, c)
				}
			}
		}
		frontier = next
	}

	g := &Group{def: d, elems: elems}
	g.invs = make([]puzzle.Transform, len(elems))
	for i, e := range elems {
		g.invs[i] = puzzle.Inverse(e, cards)
	}

	// Precompute the conjugation action on the move list.
	moves := d.Moves()
	g.conjMove = make([][]int, len(elems))
	for si := range elems {
		g.conjMove[si] = make([]int, len(moves))
		for mi, m := range moves {
			conj := g.conjugate(si, m.T)
			found := -1
			for mj, cand := range moves {
				if cand.T.Equal(conj) {
					found = mj
					break
				}
			}
			if found == -1 {
				return nil, errors.New(errors.ErrCodeInvalidPuzzle,
					"symmetry element %d conjugates move %q outside the move set", si, m.Name)
			}
			g.conjMove[si][mi] = found
		}
	}
	return g, nil
}

func containsTransform(elems []puzzle.Transform, t puzzle.Transform) bool {
	for _, e := range elems {
		if e.Equal(t) {
			return true
		}
	}
	return false
}

// Size returns the group order.
func (g *Group) Size() int { return len(g.elems) }

// Element returns the transform of group element idx.
func (g *Group) Element(idx int) puzzle.Transform { return g.elems[idx] }

// conjugate returns sym ∘ t ∘ sym⁻¹ as a transform: relabel with sym⁻¹,
// apply t, relabel back.
func (g *Group) conjugate(sym int, t puzzle.Transform) puzzle.Transform {
	cards := g.def.Cards()
	return puzzle.Compose(puzzle.Compose(g.invs[sym], t, cards), g.elems[sym], cards)
}

// ConjugateState applies group element sym to a state by conjugation.
func (g *Group) ConjugateState(sym int, s puzzle.State) puzzle.State {
	t := puzzle.Transform{Perm: make([]int, len(s.Perm)), Ori: make([]int, len(s.Ori))}
	for i := range s.Perm {
		t.Perm[i] = int(s.Perm[i])
		t.Ori[i] = int(s.Ori[i])
	}
	c := g.conjugate(sym, t)
	out := puzzle.State{Perm: make([]uint8, len(c.Perm)), Ori: make([]uint8, len(c.Ori))}
	for i := range c.Perm {
		out.Perm[i] = uint8(c.Perm[i])
		out.Ori[i] = uint8(c.Ori[i])
	}
	return out
}

// ConjugateMove returns the move index of sym ∘ move ∘ sym⁻¹.
func (g *Group) ConjugateMove(sym, move int) int {
	return g.conjMove[sym][move]
}

// Canonicalize returns the numerically-minimal state in the symmetry orbit
// of s and the group element mapping s to that representative. Total on all
// states; ties between symmetries resolve to the lowest element index, so
// the result is deterministic.
func (g *Group) Canonicalize(s puzzle.State) (puzzle.State, int) {
	best := s
	bestSym := 0
	for si := 1; si < len(g.elems); si++ {
		cand := g.ConjugateState(si, s)
		if cand.Compare(best) < 0 {
			best = cand
			bestSym = si
		}
	}
	return best, bestSym
}

// Stabilizer returns the subgroup fixing s. Computed from the state on
// demand, never cached: the stabilizer of σ(s) is the σ-conjugate of the
// stabilizer of s, so caching would invite stale back-references.
func (g *Group) Stabilizer(s puzzle.State) Mask {
	var m Mask = 1 // identity always fixes s
	for si := 1; si < len(g.elems); si++ {
		if g.ConjugateState(si, s).Equal(s) {
			m |= 1 << si
		}
	}
	return m
}

// ReduceMoves filters a move index set down to one representative per orbit
// under the stabilizer subgroup: the lowest move index of each orbit. Moves
// related by a stabilizer element explore symmetry-equivalent subtrees.
func (g *Group) ReduceMoves(stab Mask, moveIdx []int) []int {
	out := moveIdx[:0:0]
	for _, mi := range moveIdx {
		minIdx := mi
		for si := 1; si < len(g.elems); si++ {
			if !stab.Has(si) {
				continue
			}
			if c := g.conjMove[si][mi]; c < minIdx {
				minIdx = c
			}
		}
		if minIdx == mi {
			out = append(out, mi)
		}
	}
	return out
}

// Package puzzle models abstract permutation puzzles: pieces with positions
// and orientations, and a finite set of named generator moves acting on them
// as permutation+orientation transforms.
//
// A Definition is immutable after construction and shared read-only by every
// other component. All operations on it are pure functions: applying a move
// never mutates the input state. Inconsistent definitions (moves permuting
// out of range, orientation cardinality mismatches) are rejected at
// construction time and never surface mid-search.
//
// The package also provides the coordinate projections used by pruning
// tables (see coord.go) and cycle-structure extraction and target matching
// (see cycles.go).
package puzzle

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/matzehuels/cyclesolver/pkg/errors"
)

// Generator is one of the puzzle's atomic reversible transformations,
// e.g. a quarter turn of one face. Moves are powers of generators.
type Generator struct {
	Name string    // single-token name, e.g. "U"
	Axis int       // generators sharing an axis commute and are redundant in sequence
	Turn Transform // the power-1 transform
}

// Definition is an immutable description of a puzzle: piece slots,
// per-slot orientation cardinality, and the generator moves.
type Definition struct {
	name    string
	cards   []int
	gens    []Generator
	symGens []Transform
	moves   []Move
	id      string
}

// Spec carries the raw inputs to NewDefinition.
type Spec struct {
	Name string
	// Cards is the orientation cardinality per slot (>= 1).
	Cards []int
	// Generators are the atomic moves; powers are derived automatically.
	Generators []Generator
	// SymmetryGenerators seed the puzzle's symmetry group. Each must be a
	// structure-preserving relabeling whose conjugation action maps every
	// generator move onto a generator move. May be empty.
	SymmetryGenerators []Transform
}

// NewDefinition validates spec and constructs a Definition.
// Validation failures return an INVALID_PUZZLE error.
func NewDefinition(spec Spec) (*Definition, error) {
	n := len(spec.Cards)
	if n == 0 {
		return nil, errors.New(errors.ErrCodeInvalidPuzzle, "puzzle has no pieces")
	}
	if len(spec.Generators) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidPuzzle, "puzzle has no generator moves")
	}
	for i, c := range spec.Cards {
		if c < 1 {
			return nil, errors.New(errors.ErrCodeInvalidPuzzle, "slot %d has orientation cardinality %d", i, c)
		}
	}

	seen := map[string]bool{}
	for _, g := range spec.Generators {
		if g.Name == "" {
			return nil, errors.New(errors.ErrCodeInvalidPuzzle, "generator with empty name")
		}
		if seen[g.Name] {
			return nil, errors.New(errors.ErrCodeInvalidPuzzle, "duplicate generator name %q", g.Name)
		}
		seen[g.Name] = true
		if err := validateTransform(g.Turn, spec.Cards); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPuzzle, err, "generator %q", g.Name)
		}
	}
	for i, t := range spec.SymmetryGenerators {
		if err := validateTransform(t, spec.Cards); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPuzzle, err, "symmetry generator %d", i)
		}
	}

	d := &Definition{
		name:    spec.Name,
		cards:   append([]int(nil), spec.Cards...),
		gens:    append([]Generator(nil), spec.Generators...),
		symGens: append([]Transform(nil), spec.SymmetryGenerators...),
	}
	d.expandMoves()
	d.id = d.computeID()
	return d, nil
}

func validateTransform(t Transform, cards []int) error {
	n := len(cards)
	if len(t.Perm) != n || len(t.Ori) != n {
		return fmt.Errorf("transform covers %d slots, puzzle has %d", len(t.Perm), n)
	}
	hit := make([]bool, n)
	for i, p := range t.Perm {
		if p < 0 || p >= n {
			return fmt.Errorf("slot %d permutes to %d, out of range", i, p)
		}
		if hit[p] {
			return fmt.Errorf("slot %d mapped twice", p)
		}
		hit[p] = true
		if cards[p] != cards[i] {
			return fmt.Errorf("slot %d (cardinality %d) moves to slot %d (cardinality %d)",
				p, cards[p], i, cards[i])
		}
		if t.Ori[i] < 0 || t.Ori[i] >= cards[i] {
			return fmt.Errorf("slot %d orientation delta %d exceeds cardinality %d", i, t.Ori[i], cards[i])
		}
	}
	return nil
}

// expandMoves derives the full move list: every generator power short of the
// generator's order, named in face-turn notation (U, U2, U').
func (d *Definition) expandMoves() {
	for gi, g := range d.gens {
		order := Order(g.Turn, d.cards)
		for p := 1; p < order; p++ {
			d.moves = append(d.moves, Move{
				Gen:   gi,
				Power: p,
				Axis:  g.Axis,
				Name:  moveName(g.Name, p, order),
				T:     Power(g.Turn, p, d.cards),
				index: len(d.moves),
			})
		}
	}
}

func (d *Definition) computeID() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%v|", d.name, d.cards)
	for _, g := range d.gens {
		fmt.Fprintf(h, "%s:%d:%v:%v|", g.Name, g.Axis, g.Turn.Perm, g.Turn.Ori)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Name returns the puzzle's display name.
func (d *Definition) Name() string { return d.name }

// ID returns a short content hash identifying the puzzle, used to validate
// persisted pruning tables against the live definition.
func (d *Definition) ID() string { return d.id }

// Size returns the number of piece slots.
func (d *Definition) Size() int { return len(d.cards) }

// Cards returns the per-slot orientation cardinalities. The slice is shared;
// callers must not mutate it.
func (d *Definition) Cards() []int { return d.cards }

// Generators returns the generator list. The slice is shared read-only.
func (d *Definition) Generators() []Generator { return d.gens }

// SymmetryGenerators returns the declared symmetry seed transforms.
func (d *Definition) SymmetryGenerators() []Transform { return d.symGens }

// Moves returns every generator power as a Move, in generator declaration
// order. The slice is shared read-only.
func (d *Definition) Moves() []Move { return d.moves }

// Identity returns the solved state.
func (d *Definition) Identity() State {
	s := State{Perm: make([]uint8, len(d.cards)), Ori: make([]uint8, len(d.cards))}
	for i := range s.Perm {
		s.Perm[i] = uint8(i)
	}
	return s
}

// Apply returns the state reached by applying t to s. Pure: s is unchanged.
func (d *Definition) Apply(s State, t Transform) State {
	n := len(d.cards)
	out := State{Perm: make([]uint8, n), Ori: make([]uint8, n)}
	for i := 0; i < n; i++ {
		src := t.Perm[i]
		out.Perm[i] = s.Perm[src]
		out.Ori[i] = uint8((int(s.Ori[src]) + t.Ori[i]) % d.cards[i])
	}
	return out
}

// ApplyMove returns the state reached by applying m to s.
func (d *Definition) ApplyMove(s State, m Move) State {
	return d.Apply(s, m.T)
}

// ApplyMoves applies a move sequence left to right.
func (d *Definition) ApplyMoves(s State, moves []Move) State {
	for _, m := range moves {
		s = d.ApplyMove(s, m)
	}
	return s
}

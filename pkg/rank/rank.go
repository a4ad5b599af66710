// Package rank orders minimal-length solutions by how cheap they are to
// execute physically. Fewer distinct axes beat fewer regrips beat raw turn
// count, and exact ties fall back to notation order so the winner never
// depends on enumeration order.
package rank

import (
	"sort"

	"github.com/matzehuels/cyclesolver/pkg/puzzle"
)

// Cost weights. An extra axis costs more than an extra regrip, which costs
// more than an extra quarter turn.
const (
	axisWeight   = 4
	regripWeight = 2
)

// Ranked is a solution annotated with its ease score.
type Ranked struct {
	Moves    []puzzle.Move
	Notation string
	Score    int
}

// Ranker scores move sequences for a fixed puzzle definition.
type Ranker struct {
	order []int // generator order, indexed by Move.Gen
}

// New creates a ranker for the definition.
func New(d *puzzle.Definition) *Ranker {
	order := make([]int, len(d.Generators()))
	for _, m := range d.Moves() {
		// Powers run 1..order-1, so the order is one past the largest power.
		if m.Power+1 > order[m.Gen] {
			order[m.Gen] = m.Power + 1
		}
	}
	return &Ranker{order: order}
}

// Score computes the ease cost of a move sequence. Lower is easier.
func (r *Ranker) Score(moves []puzzle.Move) int {
	if len(moves) == 0 {
		return 0
	}

	score := 0
	axes := map[int]bool{}
	for i, m := range moves {
		axes[m.Axis] = true
		if i > 0 && m.Axis != moves[i-1].Axis {
			score += regripWeight
		}
		score += r.turnCost(m)
	}
	return score + axisWeight*len(axes)
}

// turnCost counts quarter turns, taking the shorter direction: power 3 of an
// order-4 generator is a single quarter turn backwards.
func (r *Ranker) turnCost(m puzzle.Move) int {
	order := r.order[m.Gen]
	if inv := order - m.Power; inv < m.Power {
		return inv
	}
	return m.Power
}

// Rank scores every solution and sorts by ascending score, then by notation.
// The output is independent of the input order.
func (r *Ranker) Rank(solutions [][]puzzle.Move) []Ranked {
	ranked := make([]Ranked, len(solutions))
	for i, sol := range solutions {
		ranked[i] = Ranked{
			Moves:    sol,
			Notation: puzzle.FormatMoves(sol),
			Score:    r.Score(sol),
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score < ranked[j].Score
		}
		return ranked[i].Notation < ranked[j].Notation
	})
	return ranked
}

// Best returns the easiest solution. ok is false when solutions is empty.
func (r *Ranker) Best(solutions [][]puzzle.Move) (best Ranked, ok bool) {
	ranked := r.Rank(solutions)
	if len(ranked) == 0 {
		return Ranked{}, false
	}
	return ranked[0], true
}

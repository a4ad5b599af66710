package prune

import (
	"fmt"
	"strings"

	"github.com/matzehuels/cyclesolver/pkg/errors"
	"github.com/matzehuels/cyclesolver/pkg/puzzle"
)

// Cartesian sums the bounds of exact tables over independent subspaces. The
// sum is admissible only when the factors' slot sets are pairwise disjoint
// and every generator acts trivially on all but at most one factor, so that
// a single move can advance at most one factor's distance. Both conditions
// are enforced at construction; a violating set is a configuration error,
// never a silently inadmissible heuristic.
type Cartesian struct {
	factors []*Exact
	name    string
}

// NewCartesian validates the independence of the factors and combines them.
func NewCartesian(def *puzzle.Definition, factors ...*Exact) (*Cartesian, error) {
	if len(factors) < 2 {
		return nil, errors.New(errors.ErrCodeInvalidPuzzle,
			"cartesian needs at least two factors, got %d", len(factors))
	}
	seen := make(map[int]bool)
	for _, f := range factors {
		for _, s := range f.coord.Slots() {
			if seen[s] {
				return nil, errors.New(errors.ErrCodeInvalidPuzzle,
					"cartesian factors share slot %d", s)
			}
			seen[s] = true
		}
	}
	for _, g := range def.Generators() {
		touched := 0
		for _, f := range factors {
			if !trivialOn(g, f.coord.Slots()) {
				touched++
			}
		}
		if touched > 1 {
			return nil, errors.New(errors.ErrCodeInvalidPuzzle,
				"generator %q acts on more than one cartesian factor", g.Name)
		}
	}

	names := make([]string, len(factors))
	for i, f := range factors {
		names[i] = f.Name()
	}
	return &Cartesian{
		factors: factors,
		name:    fmt.Sprintf("cart(%s)", strings.Join(names, ",")),
	}, nil
}

// trivialOn reports whether g leaves every listed slot's position and
// orientation untouched.
func trivialOn(g puzzle.Generator, slots []int) bool {
	for _, s := range slots {
		if g.Turn.Perm[s] != s || g.Turn.Ori[s] != 0 {
			return false
		}
	}
	return true
}

func (t *Cartesian) Name() string { return t.name }

func (t *Cartesian) Lookup(s puzzle.State) int {
	sum := 0
	for _, f := range t.factors {
		v := f.Lookup(s)
		if v >= Infinite {
			return Infinite
		}
		sum += v
	}
	return sum
}

func (t *Cartesian) Stats() Stats {
	var agg Stats
	for _, f := range t.factors {
		st := f.Stats()
		agg.Probes += st.Probes
		agg.Entries += st.Entries
	}
	return agg
}

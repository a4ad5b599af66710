// Package prune builds and serves admissible pruning tables: lower bounds on
// the number of moves separating a state from the nearest goal-equivalent
// state, keyed by coordinate projections.
//
// Tables never overestimate. Exact tables hold true distances within their
// coordinate space; cartesian tables sum two exact tables over independent
// subspaces; compressed tables quantize an exact table into narrow codes that
// round distances down. The Manager serves the maximum bound over its table
// set and grows finer tables in the background when probe traffic justifies
// the memory.
package prune

import (
	"sync/atomic"

	"github.com/matzehuels/cyclesolver/pkg/puzzle"
)

// unset marks an entry not yet reached by the reverse search. After a build
// completes, an unset entry is a coordinate no move sequence can reach.
const unset = 0xFF

// Infinite is the bound reported for provably unreachable coordinates. Any
// finite search bound is below it, so such branches are always pruned.
const Infinite = 1 << 24

// Table is an admissible heuristic: Lookup never exceeds the true distance
// from s to the nearest goal-equivalent state. Implementations are safe for
// concurrent lookups.
type Table interface {
	// Name identifies the table for logs, hooks and persistence.
	Name() string
	// Lookup returns a lower bound on the distance from s to the goal set.
	Lookup(s puzzle.State) int
	// Stats reports probe and entry counts for growth decisions.
	Stats() Stats
}

// Stats are a table's usage counters.
type Stats struct {
	// Probes is the number of Lookup calls served.
	Probes uint64
	// Entries is the number of coordinate indices the table covers.
	Entries uint64
}

// Exact holds the true distance-to-goal for every index of one coordinate.
// Distances are bytes; unset entries are unreachable coordinates.
type Exact struct {
	coord    puzzle.Coordinate
	depths   []byte
	maxDepth int
	probes   atomic.Uint64
}

func (t *Exact) Name() string { return t.coord.Name() }

// MaxDepth returns the largest finite distance in the table: the eccentricity
// of the goal set within the coordinate space.
func (t *Exact) MaxDepth() int { return t.maxDepth }

// Coordinate returns the projection the table is keyed by.
func (t *Exact) Coordinate() puzzle.Coordinate { return t.coord }

func (t *Exact) Lookup(s puzzle.State) int {
	t.probes.Add(1)
	d := t.depths[t.coord.Encode(s)]
	if d == unset {
		return Infinite
	}
	return int(d)
}

func (t *Exact) Stats() Stats {
	return Stats{Probes: t.probes.Load(), Entries: uint64(len(t.depths))}
}

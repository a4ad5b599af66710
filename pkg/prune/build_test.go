package prune

import (
	"bytes"
	"context"
	"testing"

	"github.com/matzehuels/cyclesolver/pkg/errors"
	"github.com/matzehuels/cyclesolver/pkg/puzzle"
)

func allSlots(d *puzzle.Definition) []int {
	slots := make([]int, d.Size())
	for i := range slots {
		slots[i] = i
	}
	return slots
}

// Two independent four-cycles: U turns slots 0-3, D turns slots 4-7.
// Small enough to verify tables against an exhaustive search.
func twoFacePuzzle(t *testing.T) *puzzle.Definition {
	t.Helper()
	d, err := puzzle.NewDefinition(puzzle.Spec{
		Name:  "twoface",
		Cards: []int{1, 1, 1, 1, 1, 1, 1, 1},
		Generators: []puzzle.Generator{
			{Name: "U", Axis: 0, Turn: puzzle.Transform{
				Perm: []int{3, 0, 1, 2, 4, 5, 6, 7},
				Ori:  make([]int, 8),
			}},
			{Name: "D", Axis: 1, Turn: puzzle.Transform{
				Perm: []int{0, 1, 2, 3, 7, 4, 5, 6},
				Ori:  make([]int, 8),
			}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func solvedOn(d *puzzle.Definition, slots []int) func(puzzle.State) bool {
	return func(s puzzle.State) bool {
		for _, slot := range slots {
			if int(s.Perm[slot]) != slot || s.Ori[slot] != 0 {
				return false
			}
		}
		return true
	}
}

// The exact table must agree with an independent breadth-first search over
// the real state space: for every reachable state, the table bound equals
// the true distance to the nearest goal-equivalent state.
func TestBuildExact_MatchesExhaustiveSearch(t *testing.T) {
	d := twoFacePuzzle(t)
	top := []int{0, 1, 2, 3}
	coord, err := puzzle.NewPermCoordinate(d, top)
	if err != nil {
		t.Fatal(err)
	}
	table, err := BuildExact(context.Background(), d, coord, solvedOn(d, top), 2)
	if err != nil {
		t.Fatal(err)
	}

	// Exhaustive forward BFS over full states from solved.
	type node struct {
		s puzzle.State
		d int
	}
	dist := map[string]node{}
	frontier := []puzzle.State{d.Identity()}
	dist[d.Identity().String()] = node{d.Identity(), 0}
	for depth := 0; len(frontier) > 0; depth++ {
		var next []puzzle.State
		for _, s := range frontier {
			for _, m := range d.Moves() {
				ns := d.ApplyMove(s, m)
				if _, seen := dist[ns.String()]; !seen {
					dist[ns.String()] = node{ns, depth + 1}
					next = append(next, ns)
				}
			}
		}
		frontier = next
	}
	if len(dist) != 16 {
		t.Fatalf("reachable states = %d, want 16 (C4 x C4)", len(dist))
	}

	goal := solvedOn(d, top)
	for _, n := range dist {
		// True distance from n.s to the goal set, by BFS from n.s.
		want := bfsDistance(d, n.s, goal)
		if got := table.Lookup(n.s); got != want {
			t.Errorf("Lookup(%s) = %d, want %d", n.s, got, want)
		}
	}
}

func bfsDistance(d *puzzle.Definition, from puzzle.State, goal func(puzzle.State) bool) int {
	seen := map[string]bool{from.String(): true}
	frontier := []puzzle.State{from}
	for depth := 0; len(frontier) > 0; depth++ {
		var next []puzzle.State
		for _, s := range frontier {
			if goal(s) {
				return depth
			}
		}
		for _, s := range frontier {
			for _, m := range d.Moves() {
				ns := d.ApplyMove(s, m)
				if !seen[ns.String()] {
					seen[ns.String()] = true
					next = append(next, ns)
				}
			}
		}
		frontier = next
	}
	return Infinite
}

func TestBuildExact_UnreachableCoordinateIsInfinite(t *testing.T) {
	d := twoFacePuzzle(t)
	top := []int{0, 1, 2, 3}
	coord, _ := puzzle.NewPermCoordinate(d, top)
	table, err := BuildExact(context.Background(), d, coord, solvedOn(d, top), 1)
	if err != nil {
		t.Fatal(err)
	}

	// A transposition of two top pieces is outside the cyclic group C4.
	s := d.Identity()
	s.Perm[0], s.Perm[1] = 1, 0
	if got := table.Lookup(s); got != Infinite {
		t.Errorf("Lookup(transposition) = %d, want Infinite", got)
	}
	if table.MaxDepth() != 2 {
		t.Errorf("MaxDepth = %d, want 2 (U2 is the far point of C4)", table.MaxDepth())
	}
}

// Worker count must not influence table contents.
func TestBuildExact_DeterministicAcrossWorkerCounts(t *testing.T) {
	d := puzzle.Cube222()
	coord, err := puzzle.NewOriCoordinate(d, allSlots(d))
	if err != nil {
		t.Fatal(err)
	}
	goal := func(s puzzle.State) bool {
		sum := 0
		for i := range s.Ori {
			sum += int(s.Ori[i])
		}
		return sum%3 == 0
	}

	one, err := BuildExact(context.Background(), d, coord, goal, 1)
	if err != nil {
		t.Fatal(err)
	}
	many, err := BuildExact(context.Background(), d, coord, goal, 7)
	if err != nil {
		t.Fatal(err)
	}

	b1, _ := one.MarshalBinary()
	b7, _ := many.MarshalBinary()
	if !bytes.Equal(b1, b7) {
		t.Error("table bytes differ between 1 and 7 workers")
	}
}

// Depth passes must be isolated: every worker compares neighbors against the
// frozen previous pass, never against bytes another worker is writing. Run a
// large perm coordinate with many workers so the race detector has plenty of
// overlapping chunks to observe.
func TestBuildExact_ParallelPassIsolation(t *testing.T) {
	d := puzzle.Cube222()
	coord, err := puzzle.NewPermCoordinate(d, allSlots(d))
	if err != nil {
		t.Fatal(err)
	}
	goal := solvedOn(d, []int{0, 1, 2})

	serial, err := BuildExact(context.Background(), d, coord, goal, 1)
	if err != nil {
		t.Fatal(err)
	}
	parallel, err := BuildExact(context.Background(), d, coord, goal, 8)
	if err != nil {
		t.Fatal(err)
	}

	bs, _ := serial.MarshalBinary()
	bp, _ := parallel.MarshalBinary()
	if !bytes.Equal(bs, bp) {
		t.Error("table bytes differ between serial and parallel builds")
	}
}

// Exact tables are consistent: adjacent states differ by at most one.
func TestBuildExact_ConsistentAcrossMoves(t *testing.T) {
	d := puzzle.Cube222()
	coord, _ := puzzle.NewOriCoordinate(d, allSlots(d))
	solved := func(s puzzle.State) bool {
		for i := range s.Ori {
			if s.Ori[i] != 0 {
				return false
			}
		}
		return true
	}
	table, err := BuildExact(context.Background(), d, coord, solved, 0)
	if err != nil {
		t.Fatal(err)
	}

	scramble, _ := d.ParseMoves("R U F' U2 R' F R2")
	s := d.Identity()
	for _, sm := range scramble {
		s = d.ApplyMove(s, sm)
		h := table.Lookup(s)
		for _, m := range d.Moves() {
			nh := table.Lookup(d.ApplyMove(s, m))
			if nh < h-1 || nh > h+1 {
				t.Fatalf("bound jumps from %d to %d across one move", h, nh)
			}
		}
	}
}

func TestBuildExact_Cancellation(t *testing.T) {
	d := puzzle.Cube222()
	coord, _ := puzzle.NewPermCoordinate(d, allSlots(d))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BuildExact(ctx, d, coord, func(puzzle.State) bool { return false }, 2)
	if !errors.Is(err, errors.ErrCodeAborted) {
		t.Errorf("err = %v, want ABORTED", err)
	}
}

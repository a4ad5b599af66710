package rank

import (
	"reflect"
	"testing"

	"github.com/matzehuels/cyclesolver/pkg/puzzle"
)

func mustParse(t *testing.T, d *puzzle.Definition, alg string) []puzzle.Move {
	t.Helper()
	moves, err := d.ParseMoves(alg)
	if err != nil {
		t.Fatal(err)
	}
	return moves
}

func TestScore_FewerAxesWins(t *testing.T) {
	d := puzzle.Cube222()
	r := New(d)

	sameAxis := r.Score(mustParse(t, d, "U U2"))
	twoAxes := r.Score(mustParse(t, d, "U R"))
	if sameAxis >= twoAxes {
		t.Errorf("Score(U U2) = %d, Score(U R) = %d; single axis should be cheaper", sameAxis, twoAxes)
	}
}

func TestScore_FewerRegripsWins(t *testing.T) {
	d := puzzle.Cube222()
	r := New(d)

	// Same axis set and turn total, different interleaving.
	grouped := r.Score(mustParse(t, d, "U U2 R R2"))
	alternating := r.Score(mustParse(t, d, "U R U2 R2"))
	if grouped >= alternating {
		t.Errorf("grouped = %d, alternating = %d; fewer axis changes should be cheaper", grouped, alternating)
	}
}

func TestScore_TurnCosts(t *testing.T) {
	d := puzzle.Cube222()
	r := New(d)

	quarter := r.Score(mustParse(t, d, "U"))
	inverse := r.Score(mustParse(t, d, "U'"))
	half := r.Score(mustParse(t, d, "U2"))
	if quarter != inverse {
		t.Errorf("U and U' should score equally: %d vs %d", quarter, inverse)
	}
	if half <= quarter {
		t.Errorf("half turn (%d) should cost more than quarter (%d)", half, quarter)
	}

	if r.Score(nil) != 0 {
		t.Error("empty sequence should score zero")
	}
}

func TestBest_LexicographicTieBreak(t *testing.T) {
	d := puzzle.Cube222()
	r := New(d)

	solutions := [][]puzzle.Move{
		mustParse(t, d, "U'"),
		mustParse(t, d, "U"),
	}
	best, ok := r.Best(solutions)
	if !ok {
		t.Fatal("expected a best solution")
	}
	if best.Notation != "U" {
		t.Errorf("best = %s, want U by notation tie-break", best.Notation)
	}

	if _, ok := r.Best(nil); ok {
		t.Error("Best(nil) should report no solution")
	}
}

func TestRank_IndependentOfInputOrder(t *testing.T) {
	d := puzzle.Cube222()
	r := New(d)

	algs := []string{"U R", "U U2", "F'", "R2 F2"}
	forward := make([][]puzzle.Move, len(algs))
	for i, a := range algs {
		forward[i] = mustParse(t, d, a)
	}
	backward := make([][]puzzle.Move, len(algs))
	for i := range algs {
		backward[i] = forward[len(algs)-1-i]
	}

	got := notations(r.Rank(forward))
	if !reflect.DeepEqual(got, notations(r.Rank(backward))) {
		t.Errorf("ranking depends on input order: %v", got)
	}
	for i := 1; i < len(got); i++ {
		a, b := r.Rank(forward)[i-1], r.Rank(forward)[i]
		if a.Score > b.Score {
			t.Errorf("ranking not sorted: %s(%d) before %s(%d)", a.Notation, a.Score, b.Notation, b.Score)
		}
	}
}

func notations(ranked []Ranked) []string {
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.Notation
	}
	return out
}

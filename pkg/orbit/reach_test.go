package orbit

import (
	"testing"

	"github.com/matzehuels/cyclesolver/pkg/errors"
	"github.com/matzehuels/cyclesolver/pkg/puzzle"
)

func TestCheckTarget_ThreeCycleReachable(t *testing.T) {
	d := puzzle.Cube222()
	target := puzzle.Target{
		Registers: allSlots(d),
		Cycles:    []puzzle.Cycle{{Length: 3}},
	}
	if err := NewCalculator(d).CheckTarget(target); err != nil {
		t.Errorf("3-cycle should pass the gate: %v", err)
	}
}

// A lone twisted corner over the full register set violates the
// orientation-sum invariant with nowhere to absorb the remainder.
func TestCheckTarget_SingleTwistUnreachable(t *testing.T) {
	d := puzzle.Cube222()
	target := puzzle.Target{
		Registers: allSlots(d),
		Cycles:    []puzzle.Cycle{{Length: 1, Twist: 1}},
	}
	err := NewCalculator(d).CheckTarget(target)
	if !errors.Is(err, errors.ErrCodeUnreachableTarget) {
		t.Errorf("err = %v, want UNREACHABLE_TARGET", err)
	}
	if !errors.IsTerminal(err) {
		t.Error("unreachable target must be terminal")
	}
}

// The same twisted corner becomes admissible when untracked movable slots
// exist: the compensating twist lands outside the registers.
func TestCheckTarget_TwistAbsorbedOutsideRegisters(t *testing.T) {
	d := puzzle.Cube222()
	target := puzzle.Target{
		Registers: []int{puzzle.URF, puzzle.UFL, puzzle.ULB, puzzle.UBR},
		Cycles:    []puzzle.Cycle{{Length: 1, Twist: 1}},
	}
	if err := NewCalculator(d).CheckTarget(target); err != nil {
		t.Errorf("absorbable twist should pass the gate: %v", err)
	}
}

func TestCheckTarget_FixedRegisterCannotCycle(t *testing.T) {
	d := puzzle.Cube222()
	// DBL never moves, so a 2-cycle over {URF, DBL} has only one movable
	// register to work with.
	target := puzzle.Target{
		Registers: []int{puzzle.URF, puzzle.DBL},
		Cycles:    []puzzle.Cycle{{Length: 2}},
	}
	err := NewCalculator(d).CheckTarget(target)
	if !errors.Is(err, errors.ErrCodeUnreachableTarget) {
		t.Errorf("err = %v, want UNREACHABLE_TARGET", err)
	}
}

// Four orientation-free slots and a single double-swap generator: every
// reachable permutation is even.
func evenSwapPuzzle(t *testing.T) *puzzle.Definition {
	t.Helper()
	d, err := puzzle.NewDefinition(puzzle.Spec{
		Name:  "evenswap",
		Cards: []int{1, 1, 1, 1},
		Generators: []puzzle.Generator{
			{Name: "S", Axis: 0, Turn: puzzle.Transform{
				Perm: []int{1, 0, 3, 2},
				Ori:  []int{0, 0, 0, 0},
			}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestCheckTarget_OddParityUnreachable(t *testing.T) {
	d := evenSwapPuzzle(t)
	target := puzzle.Target{
		Registers: []int{0, 1, 2, 3},
		Cycles:    []puzzle.Cycle{{Length: 2}},
	}
	err := NewCalculator(d).CheckTarget(target)
	if !errors.Is(err, errors.ErrCodeUnreachableTarget) {
		t.Errorf("err = %v, want UNREACHABLE_TARGET", err)
	}
}

func TestCheckTarget_OddParityAbsorbedOutsideRegisters(t *testing.T) {
	d := evenSwapPuzzle(t)
	// Two untracked movable slots can host the compensating transposition.
	target := puzzle.Target{
		Registers: []int{0, 1},
		Cycles:    []puzzle.Cycle{{Length: 2}},
	}
	if err := NewCalculator(d).CheckTarget(target); err != nil {
		t.Errorf("parity absorbed by untracked slots should pass: %v", err)
	}
}

func TestCheckTarget_InvalidTarget(t *testing.T) {
	d := puzzle.Cube222()
	target := puzzle.Target{
		Registers: []int{99},
		Cycles:    []puzzle.Cycle{{Length: 1, Twist: 1}},
	}
	err := NewCalculator(d).CheckTarget(target)
	if !errors.Is(err, errors.ErrCodeInvalidTarget) {
		t.Errorf("err = %v, want INVALID_TARGET", err)
	}
}

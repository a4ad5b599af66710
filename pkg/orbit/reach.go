package orbit

import (
	"github.com/matzehuels/cyclesolver/pkg/errors"
	"github.com/matzehuels/cyclesolver/pkg/puzzle"
)

// CheckTarget decides whether the move group can realize the target's cycle
// structure at all. It rejects only provably unreachable targets, so a nil
// return is a necessary condition, not a guarantee; the search remains the
// final arbiter. All parity and twist rules are gated on invariants verified
// against the actual generator set, never assumed from puzzle folklore.
func (c *Calculator) CheckTarget(t puzzle.Target) error {
	if err := t.Validate(c.def); err != nil {
		return err
	}
	n := c.def.Size()
	movable, twistable := c.slotCapabilities()

	inReg := make([]bool, n)
	for _, r := range t.Registers {
		inReg[r] = true
	}

	movableRegs, twistableRegs := 0, 0
	for _, r := range t.Registers {
		if movable[r] {
			movableRegs++
		}
		if twistable[r] {
			twistableRegs++
		}
	}

	// Every cycled piece occupies a register some generator can move.
	if moved := t.MovedPieces(); moved > movableRegs {
		return errors.New(errors.ErrCodeUnreachableTarget,
			"target cycles %d pieces but only %d tracked registers can move", moved, movableRegs)
	}

	hasTwist := false
	for _, cy := range t.Cycles {
		if cy.Twist != 0 {
			hasTwist = true
			break
		}
	}
	if hasTwist && twistableRegs == 0 {
		return errors.New(errors.ErrCodeUnreachableTarget,
			"target requires twist but no tracked register can change orientation")
	}

	// The movable slots form a generator-closed set: a globally fixed slot is
	// fixed by every generator, so nothing maps into or out of it.
	var moving []int
	for i := 0; i < n; i++ {
		if movable[i] {
			moving = append(moving, i)
		}
	}
	if len(moving) == 0 {
		return errors.New(errors.ErrCodeUnreachableTarget, "no generator moves any slot")
	}

	// Spare capacity: movable slots outside the tracked registers are
	// don't-care and can absorb parity or twist the registers cannot.
	spareMovable, spareTwistable := 0, 0
	for _, s := range moving {
		if !inReg[s] {
			spareMovable++
			if twistable[s] {
				spareTwistable++
			}
		}
	}

	// Orientation-sum conservation: when every generator preserves the total
	// twist and nothing outside the registers can soak up the remainder, the
	// target's twist sum must itself vanish.
	if conserved, m := c.twistInvariant(moving); conserved && spareTwistable == 0 {
		if tw := t.TotalTwist(c.def); tw%m != 0 {
			return errors.New(errors.ErrCodeUnreachableTarget,
				"total twist %d is not 0 mod %d and no untracked slot can absorb it", tw, m)
		}
	}

	// Permutation parity: with only even generators the whole state stays
	// even. An odd target needs a transposition among untracked movable
	// slots, which takes at least two of them.
	if !c.oddReachable(moving) && t.PermutationParity() == 1 && spareMovable < 2 {
		return errors.New(errors.ErrCodeUnreachableTarget,
			"odd permutation target with even generators and no untracked slots to absorb parity")
	}
	return nil
}

// slotCapabilities classifies each slot: movable when some generator changes
// its occupant, twistable when its orientation can change, either by a direct
// generator delta or by travelling through a movement orbit that has one.
func (c *Calculator) slotCapabilities() (movable, twistable []bool) {
	n := c.def.Size()
	cards := c.def.Cards()
	movable = make([]bool, n)
	twistable = make([]bool, n)

	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}

	delta := make([]bool, n)
	for _, g := range c.def.Generators() {
		for i := 0; i < n; i++ {
			if g.Turn.Perm[i] != i {
				movable[i] = true
				if ra, rb := find(i), find(g.Turn.Perm[i]); ra != rb {
					parent[ra] = rb
				}
			}
			if cards[i] > 1 && g.Turn.Ori[i]%cards[i] != 0 {
				delta[i] = true
			}
		}
	}

	orbitTwists := make(map[int]bool)
	for i := 0; i < n; i++ {
		if delta[i] {
			orbitTwists[find(i)] = true
		}
	}
	for i := 0; i < n; i++ {
		if delta[i] || (movable[i] && orbitTwists[find(i)]) {
			twistable[i] = true
		}
	}
	return movable, twistable
}

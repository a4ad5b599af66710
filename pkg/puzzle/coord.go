package puzzle

import (
	"fmt"
	"sort"

	"github.com/matzehuels/cyclesolver/pkg/errors"
)

// Coordinate is a projection from full State to a compact integer index,
// the reduced representation pruning tables are keyed by.
//
// A coordinate is registered over a slot subset that must be closed under
// every generator move, so that the projected transition of any move is a
// function of the coordinate alone. Decode returns the canonical
// representative: the tracked projection realized, everything else solved.
type Coordinate interface {
	// Name identifies the coordinate scheme, e.g. "perm[0-7]".
	Name() string
	// Size is the number of distinct indices.
	Size() int
	// Slots returns the tracked slot subset in ascending order.
	Slots() []int
	// Encode projects a state to its index.
	Encode(s State) int
	// Decode returns the representative state for an index.
	Decode(idx int) State
}

// validateClosed checks that slots is non-empty, in range, and closed under
// every generator of d.
func validateClosed(d *Definition, slots []int) ([]int, error) {
	if len(slots) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidPuzzle, "coordinate over empty slot set")
	}
	sorted := append([]int(nil), slots...)
	sort.Ints(sorted)
	member := make([]bool, d.Size())
	for _, s := range sorted {
		if s < 0 || s >= d.Size() {
			return nil, errors.New(errors.ErrCodeInvalidPuzzle, "coordinate slot %d out of range", s)
		}
		member[s] = true
	}
	for _, g := range d.gens {
		for _, s := range sorted {
			if !member[g.Turn.Perm[s]] {
				return nil, errors.New(errors.ErrCodeInvalidPuzzle,
					"coordinate slots not closed under generator %q (slot %d)", g.Name, s)
			}
		}
	}
	return sorted, nil
}

// =============================================================================
// Permutation coordinate
// =============================================================================

// PermCoordinate ranks the permutation of a tracked slot subset via its
// Lehmer code. Size is k! for k tracked slots.
type PermCoordinate struct {
	def   *Definition
	slots []int
	rel   []int // slot -> relative index within slots, -1 if untracked
	size  int
}

// NewPermCoordinate builds a permutation coordinate over slots.
func NewPermCoordinate(d *Definition, slots []int) (*PermCoordinate, error) {
	sorted, err := validateClosed(d, slots)
	if err != nil {
		return nil, err
	}
	rel := make([]int, d.Size())
	for i := range rel {
		rel[i] = -1
	}
	for r, s := range sorted {
		rel[s] = r
	}
	return &PermCoordinate{def: d, slots: sorted, rel: rel, size: factorial(len(sorted))}, nil
}

func (c *PermCoordinate) Name() string {
	return fmt.Sprintf("perm[%d-%d]", c.slots[0], c.slots[len(c.slots)-1])
}

func (c *PermCoordinate) Size() int    { return c.size }
func (c *PermCoordinate) Slots() []int { return c.slots }

// Encode ranks the relative permutation of the tracked pieces. Tracked slots
// always hold tracked pieces because the subset is generator-closed.
func (c *PermCoordinate) Encode(s State) int {
	k := len(c.slots)
	relPerm := make([]int, k)
	for r, slot := range c.slots {
		relPerm[r] = c.rel[s.Perm[slot]]
	}
	return lehmerRank(relPerm)
}

// Decode unranks idx into a representative with untracked slots solved.
func (c *PermCoordinate) Decode(idx int) State {
	s := c.def.Identity()
	relPerm := lehmerUnrank(idx, len(c.slots))
	for r, slot := range c.slots {
		s.Perm[slot] = uint8(c.slots[relPerm[r]])
	}
	return s
}

// =============================================================================
// Orientation coordinate
// =============================================================================

// OriCoordinate packs the orientation digits of a tracked slot subset in
// mixed radix. Size is the product of the tracked cardinalities.
type OriCoordinate struct {
	def   *Definition
	slots []int
	size  int
}

// NewOriCoordinate builds an orientation coordinate over slots.
func NewOriCoordinate(d *Definition, slots []int) (*OriCoordinate, error) {
	sorted, err := validateClosed(d, slots)
	if err != nil {
		return nil, err
	}
	size := 1
	for _, s := range sorted {
		size *= d.cards[s]
	}
	return &OriCoordinate{def: d, slots: sorted, size: size}, nil
}

func (c *OriCoordinate) Name() string {
	return fmt.Sprintf("ori[%d-%d]", c.slots[0], c.slots[len(c.slots)-1])
}

func (c *OriCoordinate) Size() int    { return c.size }
func (c *OriCoordinate) Slots() []int { return c.slots }

func (c *OriCoordinate) Encode(s State) int {
	idx := 0
	for _, slot := range c.slots {
		idx = idx*c.def.cards[slot] + int(s.Ori[slot])
	}
	return idx
}

func (c *OriCoordinate) Decode(idx int) State {
	s := c.def.Identity()
	for i := len(c.slots) - 1; i >= 0; i-- {
		slot := c.slots[i]
		card := c.def.cards[slot]
		s.Ori[slot] = uint8(idx % card)
		idx /= card
	}
	return s
}

// =============================================================================
// Full coordinate
// =============================================================================

// FullCoordinate combines the permutation and orientation coordinates of one
// slot subset into a single index: perm * oriSize + ori. It captures the
// complete configuration of the subset, so pruning tables over it are exact
// for targets confined to those slots.
type FullCoordinate struct {
	perm *PermCoordinate
	ori  *OriCoordinate
}

// NewFullCoordinate builds a combined coordinate over slots.
func NewFullCoordinate(d *Definition, slots []int) (*FullCoordinate, error) {
	p, err := NewPermCoordinate(d, slots)
	if err != nil {
		return nil, err
	}
	o, err := NewOriCoordinate(d, slots)
	if err != nil {
		return nil, err
	}
	return &FullCoordinate{perm: p, ori: o}, nil
}

func (c *FullCoordinate) Name() string {
	return fmt.Sprintf("full[%d-%d]", c.perm.slots[0], c.perm.slots[len(c.perm.slots)-1])
}

func (c *FullCoordinate) Size() int    { return c.perm.Size() * c.ori.Size() }
func (c *FullCoordinate) Slots() []int { return c.perm.Slots() }

func (c *FullCoordinate) Encode(s State) int {
	return c.perm.Encode(s)*c.ori.Size() + c.ori.Encode(s)
}

func (c *FullCoordinate) Decode(idx int) State {
	s := c.perm.Decode(idx / c.ori.Size())
	o := c.ori.Decode(idx % c.ori.Size())
	for _, slot := range c.ori.slots {
		s.Ori[slot] = o.Ori[slot]
	}
	return s
}

// =============================================================================
// Ranking helpers
// =============================================================================

func factorial(n int) int {
	result := 1
	for i := 2; i <= n; i++ {
		result *= i
	}
	return result
}

// lehmerRank ranks a permutation of [0..k) lexicographically.
func lehmerRank(perm []int) int {
	k := len(perm)
	rank := 0
	for i := 0; i < k; i++ {
		smaller := 0
		for j := i + 1; j < k; j++ {
			if perm[j] < perm[i] {
				smaller++
			}
		}
		rank = rank*(k-i) + smaller
	}
	return rank
}

// lehmerUnrank inverts lehmerRank for permutations of [0..k).
func lehmerUnrank(rank, k int) []int {
	digits := make([]int, k)
	for i := k - 1; i >= 0; i-- {
		digits[i] = rank % (k - i)
		rank /= (k - i)
	}
	avail := make([]int, k)
	for i := range avail {
		avail[i] = i
	}
	perm := make([]int, k)
	for i := 0; i < k; i++ {
		d := digits[i]
		perm[i] = avail[d]
		avail = append(avail[:d], avail[d+1:]...)
	}
	return perm
}

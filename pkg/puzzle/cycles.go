package puzzle

import (
	"fmt"
	"sort"
	"strings"

	"github.com/matzehuels/cyclesolver/pkg/errors"
)

// Cycle describes one cycle of a permutation restricted to a register set:
// its length and the total orientation twist accumulated around it, modulo
// the cycle's orientation cardinality. A twisted 1-cycle is a piece in place
// with nonzero orientation.
type Cycle struct {
	Length int `json:"length" toml:"length"`
	Twist  int `json:"twist" toml:"twist"`
}

// Structure is a normalized multiset of cycles: sorted by length, then twist.
// Trivial fixed points (length 1, twist 0) are excluded.
type Structure []Cycle

func normalize(cycles []Cycle) Structure {
	out := make(Structure, 0, len(cycles))
	for _, c := range cycles {
		if c.Length == 1 && c.Twist == 0 {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Length != out[j].Length {
			return out[i].Length < out[j].Length
		}
		return out[i].Twist < out[j].Twist
	})
	return out
}

// Equal reports multiset equality of two normalized structures.
func (s Structure) Equal(o Structure) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// String renders a structure as "(len,twist)(len,twist)...".
func (s Structure) String() string {
	if len(s) == 0 {
		return "(identity)"
	}
	var b strings.Builder
	for _, c := range s {
		fmt.Fprintf(&b, "(%d,%d)", c.Length, c.Twist)
	}
	return b.String()
}

// CycleStructure extracts the cycle structure of s restricted to the given
// slots. The second return is false when a cycle escapes the slot subset,
// i.e. a register piece is permuted with a non-register piece; such a state
// never matches any target over those registers.
func (d *Definition) CycleStructure(s State, slots []int) (Structure, bool) {
	member := make([]bool, d.Size())
	for _, sl := range slots {
		member[sl] = true
	}
	seen := make([]bool, d.Size())
	var cycles []Cycle
	for _, start := range slots {
		if seen[start] {
			continue
		}
		length, twist := 0, 0
		escaped := false
		j := start
		for !seen[j] {
			seen[j] = true
			length++
			twist += int(s.Ori[j])
			next := int(s.Perm[j])
			if !member[next] {
				escaped = true
				break
			}
			j = next
		}
		if escaped {
			return nil, false
		}
		cycles = append(cycles, Cycle{Length: length, Twist: twist % d.cards[start]})
	}
	return normalize(cycles), true
}

// Target is a cycle-structure goal over a designated register subset of
// pieces; pieces outside Registers are don't-care. Supplied externally per
// search request.
type Target struct {
	Registers []int   `json:"registers" toml:"registers"`
	Cycles    []Cycle `json:"cycles" toml:"cycles"`
}

// Validate checks a target against a definition: registers in range and
// distinct, cycle lengths positive and summing to at most the register
// count, twists within the register cardinality.
func (t Target) Validate(d *Definition) error {
	if len(t.Registers) == 0 {
		return errors.New(errors.ErrCodeInvalidTarget, "target has no register pieces")
	}
	seen := make(map[int]bool)
	card := 0
	for _, r := range t.Registers {
		if r < 0 || r >= d.Size() {
			return errors.New(errors.ErrCodeInvalidTarget, "register slot %d out of range", r)
		}
		if seen[r] {
			return errors.New(errors.ErrCodeInvalidTarget, "register slot %d listed twice", r)
		}
		seen[r] = true
		if card == 0 {
			card = d.cards[r]
		} else if d.cards[r] != card {
			return errors.New(errors.ErrCodeInvalidTarget,
				"register slots mix orientation cardinalities %d and %d", card, d.cards[r])
		}
	}
	if len(t.Cycles) == 0 {
		return errors.New(errors.ErrCodeInvalidTarget, "target has no cycles")
	}
	total := 0
	for _, c := range t.Cycles {
		if c.Length < 1 {
			return errors.New(errors.ErrCodeInvalidTarget, "cycle length %d", c.Length)
		}
		if c.Length == 1 && c.Twist%card == 0 {
			return errors.New(errors.ErrCodeInvalidTarget, "trivial 1-cycle in target")
		}
		if c.Twist < 0 || c.Twist >= card {
			return errors.New(errors.ErrCodeInvalidTarget, "cycle twist %d exceeds cardinality %d", c.Twist, card)
		}
		total += c.Length
	}
	if total > len(t.Registers) {
		return errors.New(errors.ErrCodeInvalidTarget,
			"cycles cover %d pieces, only %d registers", total, len(t.Registers))
	}
	return nil
}

// Structure returns the target's normalized cycle multiset.
func (t Target) Structure() Structure {
	return normalize(t.Cycles)
}

// Matches reports whether state s exhibits exactly the target cycle
// structure on the register pieces, don't-care pieces unconstrained.
func (t Target) Matches(d *Definition, s State) bool {
	got, ok := d.CycleStructure(s, t.Registers)
	if !ok {
		return false
	}
	return got.Equal(t.Structure())
}

// MatchesPermutation reports whether the permutation part of s exhibits the
// target cycle lengths on the registers, ignoring twists. Used to seed
// pruning tables over permutation-only coordinates, where the orientation is
// not part of the index: any coordinate some goal state projects to must be
// seeded, so twists are treated as free.
func (t Target) MatchesPermutation(d *Definition, s State) bool {
	got, ok := d.CycleStructure(s, t.Registers)
	if !ok {
		return false
	}
	want := t.Structure()

	lengths := func(st Structure) []int {
		var out []int
		for _, c := range st {
			if c.Length > 1 {
				out = append(out, c.Length)
			}
		}
		return out
	}
	a, b := lengths(got), lengths(want)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TotalTwist returns the sum of the target's cycle twists modulo the
// register cardinality. States matching the target carry this much twist on
// their register pieces in total.
func (t Target) TotalTwist(d *Definition) int {
	card := d.cards[t.Registers[0]]
	total := 0
	for _, c := range t.Cycles {
		total += c.Twist
	}
	return total % card
}

// PermutationParity returns the parity (0 even, 1 odd) of any permutation
// realizing the target's cycle lengths on the registers.
func (t Target) PermutationParity() int {
	parity := 0
	for _, c := range t.Cycles {
		parity ^= (c.Length - 1) & 1
	}
	return parity
}

// Order returns the order of the cycle as a puzzle element with orientation
// cardinality card: the repetition count returning its pieces to place and
// orientation. A twisted cycle needs card/gcd(twist, card) laps instead of
// one.
func (c Cycle) Order(card int) int {
	if card <= 1 || c.Twist%card == 0 {
		return c.Length
	}
	return c.Length * (card / gcd(c.Twist%card, card))
}

// RegisterOrder returns the order of any state matching the target restricted
// to its registers: the least common multiple of the cycle orders. This is
// the modulus a register built from the target can count in.
func (t Target) RegisterOrder(d *Definition) int {
	card := d.cards[t.Registers[0]]
	order := 1
	for _, c := range t.Cycles {
		order = lcm(order, c.Order(card))
	}
	return order
}

// MovedPieces returns how many register pieces a matching state displaces or
// twists: the total length of non-trivial cycles.
func (t Target) MovedPieces() int {
	moved := 0
	for _, c := range t.Cycles {
		if c.Length > 1 || c.Twist != 0 {
			moved += c.Length
		}
	}
	return moved
}

// Key returns a canonical string identifying the target, stable across runs,
// used for cache keys and archive lookups.
func (t Target) Key() string {
	regs := append([]int(nil), t.Registers...)
	sort.Ints(regs)
	parts := make([]string, 0, len(regs)+1)
	for _, r := range regs {
		parts = append(parts, fmt.Sprintf("%d", r))
	}
	return fmt.Sprintf("r%s:%s", strings.Join(parts, ","), t.Structure().String())
}

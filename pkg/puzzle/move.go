package puzzle

import (
	"strconv"
	"strings"

	"github.com/matzehuels/cyclesolver/pkg/errors"
)

// Move is a reference to a generator plus a power (quarter turn, half turn,
// ...). Every move has a unique inverse within the move list.
type Move struct {
	Gen   int    // index into Definition.Generators
	Power int    // 1 <= Power < generator order
	Axis  int    // copied from the generator
	Name  string // face-turn notation, e.g. "U", "U2", "U'"
	T     Transform

	index int // position in Definition.Moves
}

// Index returns the move's position in Definition.Moves. Indexes are dense
// and stable for a given definition, so they can key lookup tables.
func (m Move) Index() int { return m.index }

// moveName renders a generator power in face-turn notation: power 1 is the
// bare name, the inverse power gets a prime, everything else a digit suffix.
func moveName(gen string, power, order int) string {
	switch {
	case power == 1:
		return gen
	case power == order-1 && order > 2:
		return gen + "'"
	case 2*power > order:
		return gen + strconv.Itoa(order-power) + "'"
	default:
		return gen + strconv.Itoa(power)
	}
}

// Invert returns the inverse of m.
func (d *Definition) Invert(m Move) Move {
	order := Order(d.gens[m.Gen].Turn, d.cards)
	inv := order - m.Power
	for _, cand := range d.moves {
		if cand.Gen == m.Gen && cand.Power == inv {
			return cand
		}
	}
	// Unreachable for a validated definition: every power short of the
	// generator order is in the move list.
	panic("puzzle: move inverse missing from move list")
}

// MoveByName looks up a move by its face-turn name.
func (d *Definition) MoveByName(name string) (Move, bool) {
	for _, m := range d.moves {
		if m.Name == name {
			return m, true
		}
	}
	return Move{}, false
}

// ParseMoves parses a whitespace-separated algorithm string such as
// "U R2 F'" into a move sequence.
func (d *Definition) ParseMoves(alg string) ([]Move, error) {
	fields := strings.Fields(alg)
	moves := make([]Move, 0, len(fields))
	for _, f := range fields {
		m, ok := d.MoveByName(f)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidTarget, "unknown move %q", f)
		}
		moves = append(moves, m)
	}
	return moves, nil
}

// FormatMoves renders a move sequence in face-turn notation.
func FormatMoves(moves []Move) string {
	names := make([]string, len(moves))
	for i, m := range moves {
		names[i] = m.Name
	}
	return strings.Join(names, " ")
}

// AlgorithmOrder returns the order of a move sequence: the number of times
// it must be repeated to restore the solved state. This is the lcm over the
// cycles of its combined transform of cycleLength * card/gcd(card, twist),
// the "chromatic order" used by the register architecture to size registers.
func (d *Definition) AlgorithmOrder(moves []Move) int {
	t := IdentityTransform(len(d.cards))
	for _, m := range moves {
		t = Compose(t, m.T, d.cards)
	}

	seen := make([]bool, len(t.Perm))
	order := 1
	for i := range t.Perm {
		if seen[i] {
			continue
		}
		length, twist := 0, 0
		for j := i; !seen[j]; j = t.Perm[j] {
			seen[j] = true
			length++
			twist += t.Ori[j]
		}
		card := d.cards[i]
		twist %= card
		cycleOrder := length * (card / gcd(card, twist))
		order = lcm(order, cycleOrder)
	}
	return order
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func lcm(a, b int) int {
	return a / gcd(a, b) * b
}

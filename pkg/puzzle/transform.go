package puzzle

// Transform is a total bijection on (position, orientation) pairs: slot i
// receives the piece from slot Perm[i] and gains the orientation delta Ori[i],
// taken modulo the slot's orientation cardinality. Both generator moves and
// symmetry relabelings are transforms; they compose by group multiplication.
type Transform struct {
	Perm []int
	Ori  []int
}

// IdentityTransform returns the identity transform on n slots.
func IdentityTransform(n int) Transform {
	t := Transform{Perm: make([]int, n), Ori: make([]int, n)}
	for i := range t.Perm {
		t.Perm[i] = i
	}
	return t
}

// Compose returns the transform equivalent to applying a first, then b.
// cards holds the per-slot orientation cardinalities.
func Compose(a, b Transform, cards []int) Transform {
	n := len(a.Perm)
	c := Transform{Perm: make([]int, n), Ori: make([]int, n)}
	for i := 0; i < n; i++ {
		c.Perm[i] = a.Perm[b.Perm[i]]
		c.Ori[i] = (a.Ori[b.Perm[i]] + b.Ori[i]) % cards[i]
	}
	return c
}

// Inverse returns the transform undoing a.
func Inverse(a Transform, cards []int) Transform {
	n := len(a.Perm)
	inv := Transform{Perm: make([]int, n), Ori: make([]int, n)}
	for i := 0; i < n; i++ {
		inv.Perm[a.Perm[i]] = i
	}
	for i := 0; i < n; i++ {
		inv.Ori[i] = (cards[i] - a.Ori[inv.Perm[i]]%cards[i]) % cards[i]
	}
	return inv
}

// Power returns a composed with itself k times. k must be >= 1.
func Power(a Transform, k int, cards []int) Transform {
	t := a
	for i := 1; i < k; i++ {
		t = Compose(t, a, cards)
	}
	return t
}

// Order returns the smallest k >= 1 with a^k equal to the identity.
func Order(a Transform, cards []int) int {
	t := a
	k := 1
	for !isIdentity(t) {
		t = Compose(t, a, cards)
		k++
	}
	return k
}

// Equal reports whether two transforms are identical.
func (a Transform) Equal(b Transform) bool {
	if len(a.Perm) != len(b.Perm) {
		return false
	}
	for i := range a.Perm {
		if a.Perm[i] != b.Perm[i] || a.Ori[i] != b.Ori[i] {
			return false
		}
	}
	return true
}

func isIdentity(t Transform) bool {
	for i := range t.Perm {
		if t.Perm[i] != i || t.Ori[i] != 0 {
			return false
		}
	}
	return true
}

// permParity returns 0 for an even permutation and 1 for an odd one.
func permParity(perm []int) int {
	seen := make([]bool, len(perm))
	parity := 0
	for i := range perm {
		if seen[i] {
			continue
		}
		length := 0
		for j := i; !seen[j]; j = perm[j] {
			seen[j] = true
			length++
		}
		parity ^= (length - 1) & 1
	}
	return parity
}

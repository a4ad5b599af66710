package puzzle

// Corner slot labels for the 2x2x2 preset, in the conventional order.
const (
	URF = iota
	UFL
	ULB
	UBR
	DFR
	DLF
	DBL
	DRB
)

// Cube222 returns the 2x2x2-style puzzle: 8 corner pieces with 3
// orientations each and U, R, F quarter-turn generators. The DBL corner is
// untouched by all three generators, which fixes the puzzle in space and
// keeps the move group free of whole-cube rotations.
//
// The symmetry seed is the 120° rotation about the URF-DBL diagonal, whose
// conjugation action cycles the U, R and F axes. It generates the symmetry
// group of order 3 that preserves the generator set.
func Cube222() *Definition {
	cards := []int{3, 3, 3, 3, 3, 3, 3, 3}

	u := Transform{
		Perm: []int{UBR, URF, UFL, ULB, DFR, DLF, DBL, DRB},
		Ori:  []int{0, 0, 0, 0, 0, 0, 0, 0},
	}
	r := Transform{
		Perm: []int{DFR, UFL, ULB, URF, DRB, DLF, DBL, UBR},
		Ori:  []int{2, 0, 0, 1, 1, 0, 0, 2},
	}
	f := Transform{
		Perm: []int{UFL, DLF, ULB, UBR, URF, DFR, DBL, DRB},
		Ori:  []int{1, 2, 0, 0, 2, 1, 0, 0},
	}

	// 120° rotation about the URF-DBL diagonal: U -> R -> F -> U.
	sURF3 := Transform{
		Perm: []int{URF, DFR, DLF, UFL, UBR, DRB, DBL, ULB},
		Ori:  []int{1, 2, 1, 2, 2, 1, 2, 1},
	}

	d, err := NewDefinition(Spec{
		Name:  "cube222",
		Cards: cards,
		Generators: []Generator{
			{Name: "U", Axis: 0, Turn: u},
			{Name: "R", Axis: 1, Turn: r},
			{Name: "F", Axis: 2, Turn: f},
		},
		SymmetryGenerators: []Transform{sURF3},
	})
	if err != nil {
		// The preset is a compile-time constant; a validation failure is a bug.
		panic(err)
	}
	return d
}

package cli

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matzehuels/cyclesolver/pkg/puzzle"
)

func TestPuzzleByName(t *testing.T) {
	for _, name := range []string{"", "cube222"} {
		def, err := puzzleByName(name)
		if err != nil {
			t.Fatalf("puzzleByName(%q): %v", name, err)
		}
		if def.ID() != "cube222" {
			t.Errorf("puzzleByName(%q) = %s", name, def.ID())
		}
	}
	if _, err := puzzleByName("megaminx"); err == nil {
		t.Error("unknown puzzle should be rejected")
	}
}

func TestParseRegisters(t *testing.T) {
	def := puzzle.Cube222()

	for _, s := range []string{"", "all"} {
		regs, err := parseRegisters(def, s)
		if err != nil {
			t.Fatalf("parseRegisters(%q): %v", s, err)
		}
		if len(regs) != def.Size() {
			t.Errorf("parseRegisters(%q) selected %d slots, want %d", s, len(regs), def.Size())
		}
	}

	regs, err := parseRegisters(def, "0, 2,5")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(regs, []int{0, 2, 5}) {
		t.Errorf("regs = %v", regs)
	}

	if _, err := parseRegisters(def, "0,x"); err == nil {
		t.Error("non-numeric register should be rejected")
	}
}

func TestParseCycles(t *testing.T) {
	cycles, err := parseCycles("3:1, 2")
	if err != nil {
		t.Fatal(err)
	}
	want := []puzzle.Cycle{{Length: 3, Twist: 1}, {Length: 2}}
	if !reflect.DeepEqual(cycles, want) {
		t.Errorf("cycles = %v, want %v", cycles, want)
	}

	for _, s := range []string{"", "x", "3:y"} {
		if _, err := parseCycles(s); err == nil {
			t.Errorf("parseCycles(%q) should fail", s)
		}
	}
}

func TestParseTarget(t *testing.T) {
	def := puzzle.Cube222()

	target, err := parseTarget(def, "all", "3")
	if err != nil {
		t.Fatal(err)
	}
	if len(target.Registers) != def.Size() || len(target.Cycles) != 1 {
		t.Errorf("target = %+v", target)
	}

	// Cycle covers more pieces than the register set.
	if _, err := parseTarget(def, "0,1", "3"); err == nil {
		t.Error("oversized cycle should fail validation")
	}
	if _, err := parseTarget(def, "99", "1:1"); err == nil {
		t.Error("out-of-range register should fail validation")
	}
}

func TestLoadTargetFile(t *testing.T) {
	def := puzzle.Cube222()
	path := filepath.Join(t.TempDir(), "target.toml")
	content := `
registers = [0, 1, 2, 3]

[[cycles]]
length = 3
twist = 1
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	target, err := loadTargetFile(def, path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(target.Registers, []int{0, 1, 2, 3}) {
		t.Errorf("registers = %v", target.Registers)
	}
	want := []puzzle.Cycle{{Length: 3, Twist: 1}}
	if !reflect.DeepEqual(target.Cycles, want) {
		t.Errorf("cycles = %v, want %v", target.Cycles, want)
	}

	// Omitted registers select every slot.
	if err := os.WriteFile(path, []byte("[[cycles]]\nlength = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	target, err = loadTargetFile(def, path)
	if err != nil {
		t.Fatal(err)
	}
	if len(target.Registers) != def.Size() {
		t.Errorf("registers = %v, want all slots", target.Registers)
	}

	if _, err := loadTargetFile(def, filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("missing file should fail")
	}
}

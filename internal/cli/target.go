package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/cyclesolver/pkg/puzzle"
)

// puzzleByName resolves a puzzle preset. Only the pocket-cube preset ships
// today; custom definitions come in through the API.
func puzzleByName(name string) (*puzzle.Definition, error) {
	switch name {
	case "", "cube222":
		return puzzle.Cube222(), nil
	}
	return nil, fmt.Errorf("unknown puzzle %q (available: cube222)", name)
}

// parseRegisters parses a comma-separated slot list. "all" or an empty
// string selects every slot.
func parseRegisters(def *puzzle.Definition, s string) ([]int, error) {
	if s == "" || s == "all" {
		regs := make([]int, def.Size())
		for i := range regs {
			regs[i] = i
		}
		return regs, nil
	}
	fields := strings.Split(s, ",")
	regs := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("invalid register %q", f)
		}
		regs = append(regs, n)
	}
	return regs, nil
}

// parseCycles parses a cycle-structure spec: comma-separated entries of the
// form "length" or "length:twist", e.g. "3" or "3:1,2:0".
func parseCycles(s string) ([]puzzle.Cycle, error) {
	if s == "" {
		return nil, fmt.Errorf("a cycle structure is required, e.g. --cycles 3")
	}
	fields := strings.Split(s, ",")
	cycles := make([]puzzle.Cycle, 0, len(fields))
	for _, f := range fields {
		var c puzzle.Cycle
		parts := strings.SplitN(strings.TrimSpace(f), ":", 2)
		length, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid cycle length %q", parts[0])
		}
		c.Length = length
		if len(parts) == 2 {
			twist, err := strconv.Atoi(parts[1])
			if err != nil {
				return nil, fmt.Errorf("invalid cycle twist %q", parts[1])
			}
			c.Twist = twist
		}
		cycles = append(cycles, c)
	}
	return cycles, nil
}

// targetFile is the TOML shape of a target file: an optional register list
// (defaulting to every slot) and one [[cycles]] table per cycle.
type targetFile struct {
	Registers []int          `toml:"registers"`
	Cycles    []puzzle.Cycle `toml:"cycles"`
}

// loadTargetFile reads a validated target from a TOML file.
func loadTargetFile(def *puzzle.Definition, path string) (puzzle.Target, error) {
	var tf targetFile
	if _, err := toml.DecodeFile(path, &tf); err != nil {
		return puzzle.Target{}, fmt.Errorf("read target file: %w", err)
	}
	if len(tf.Registers) == 0 {
		tf.Registers = make([]int, def.Size())
		for i := range tf.Registers {
			tf.Registers[i] = i
		}
	}
	target := puzzle.Target{Registers: tf.Registers, Cycles: tf.Cycles}
	if err := target.Validate(def); err != nil {
		return puzzle.Target{}, err
	}
	return target, nil
}

// parseTarget combines the register and cycle specs into a validated target.
func parseTarget(def *puzzle.Definition, registers, cycles string) (puzzle.Target, error) {
	regs, err := parseRegisters(def, registers)
	if err != nil {
		return puzzle.Target{}, err
	}
	cyc, err := parseCycles(cycles)
	if err != nil {
		return puzzle.Target{}, err
	}
	target := puzzle.Target{Registers: regs, Cycles: cyc}
	if err := target.Validate(def); err != nil {
		return puzzle.Target{}, err
	}
	return target, nil
}

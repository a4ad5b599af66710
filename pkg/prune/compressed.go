package prune

import (
	"fmt"
	"sync/atomic"

	"github.com/matzehuels/cyclesolver/pkg/errors"
	"github.com/matzehuels/cyclesolver/pkg/puzzle"
)

// Compressed quantizes an exact table into fixed-width codes packed several
// entries per byte. A code c decodes to c*step, the floor of its depth
// bucket, so every lookup is a safe underestimate of the exact distance.
// Unreachable entries share the top code; their bound degrades from Infinite
// to the top bucket floor, which stays admissible.
type Compressed struct {
	coord   puzzle.Coordinate
	bits    uint
	step    int
	packed  []byte
	name    string
	probes  atomic.Uint64
	entries uint64
}

// Compress quantizes t into width-bit codes. bits must divide 8.
func Compress(t *Exact, bits uint) (*Compressed, error) {
	if bits == 0 || bits > 8 || 8%bits != 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig,
			"compressed table width %d does not divide a byte", bits)
	}
	levels := 1 << bits
	step := (t.maxDepth + levels) / levels
	if step < 1 {
		step = 1
	}

	perByte := int(8 / bits)
	mask := byte(levels - 1)
	packed := make([]byte, (len(t.depths)+perByte-1)/perByte)
	for i, d := range t.depths {
		code := levels - 1
		if d != unset {
			if c := int(d) / step; c < code {
				code = c
			}
		}
		shift := uint(i%perByte) * bits
		packed[i/perByte] |= (byte(code) & mask) << shift
	}

	return &Compressed{
		coord:   t.coord,
		bits:    bits,
		step:    step,
		packed:  packed,
		name:    fmt.Sprintf("%s/q%d", t.coord.Name(), bits),
		entries: uint64(len(t.depths)),
	}, nil
}

func (t *Compressed) Name() string { return t.name }

func (t *Compressed) Lookup(s puzzle.State) int {
	t.probes.Add(1)
	idx := t.coord.Encode(s)
	perByte := int(8 / t.bits)
	shift := uint(idx%perByte) * t.bits
	code := (t.packed[idx/perByte] >> shift) & byte(1<<t.bits-1)
	return int(code) * t.step
}

func (t *Compressed) Stats() Stats {
	return Stats{Probes: t.probes.Load(), Entries: t.entries}
}

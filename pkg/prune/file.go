package prune

import (
	"bytes"
	"encoding/binary"

	"github.com/matzehuels/cyclesolver/pkg/errors"
	"github.com/matzehuels/cyclesolver/pkg/puzzle"
)

// Persisted table layout: puzzle ID, target key, magic, format version,
// table kind, entry bit width, max depth, coordinate scheme name, entry
// count, payload. Every field is validated on load; a table built for a
// different puzzle, target, or coordinate is rejected with TABLE_MISMATCH,
// never silently reused. Depths are seeded from a target-specific goal set,
// so a table restored for the wrong target would overestimate and prune the
// true goals.
const (
	tableMagic   = "CYPT"
	tableVersion = 2

	kindExact = 0
)

// MarshalBinary serializes the table for persistence.
func (t *Exact) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(tableMagic)
	buf.WriteByte(tableVersion)
	buf.WriteByte(kindExact)
	buf.WriteByte(8) // bits per entry
	buf.WriteByte(byte(t.maxDepth))
	writeString(&buf, t.coord.Name())
	var count [8]byte
	binary.LittleEndian.PutUint64(count[:], uint64(len(t.depths)))
	buf.Write(count[:])
	buf.Write(t.depths)
	return buf.Bytes(), nil
}

// MarshalTable serializes t together with the puzzle and target it was
// built for.
func MarshalTable(def *puzzle.Definition, target puzzle.Target, t *Exact) ([]byte, error) {
	body, err := t.MarshalBinary()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	writeString(&buf, def.ID())
	writeString(&buf, target.Key())
	buf.Write(body)
	return buf.Bytes(), nil
}

// LoadTable deserializes data into an exact table keyed by coord, verifying
// the embedded puzzle ID, target key, and coordinate scheme against the live
// definition and request.
func LoadTable(def *puzzle.Definition, target puzzle.Target, coord puzzle.Coordinate, data []byte) (*Exact, error) {
	r := &reader{data: data}

	id, ok := r.string()
	if !ok {
		return nil, mismatch("truncated header")
	}
	if id != def.ID() {
		return nil, mismatch("built for puzzle %s, want %s", id, def.ID())
	}
	targetKey, ok := r.string()
	if !ok {
		return nil, mismatch("truncated header")
	}
	if targetKey != target.Key() {
		return nil, mismatch("built for target %s, want %s", targetKey, target.Key())
	}
	if magic, ok := r.bytes(4); !ok || string(magic) != tableMagic {
		return nil, mismatch("bad magic")
	}
	version, ok := r.byte()
	if !ok || version != tableVersion {
		return nil, mismatch("unsupported version %d", version)
	}
	kind, ok := r.byte()
	if !ok || kind != kindExact {
		return nil, mismatch("unsupported table kind %d", kind)
	}
	bits, ok := r.byte()
	if !ok || bits != 8 {
		return nil, mismatch("unsupported entry width %d", bits)
	}
	maxDepth, ok := r.byte()
	if !ok {
		return nil, mismatch("truncated header")
	}
	scheme, ok := r.string()
	if !ok {
		return nil, mismatch("truncated header")
	}
	if scheme != coord.Name() {
		return nil, mismatch("coordinate scheme %q, want %q", scheme, coord.Name())
	}
	countBytes, ok := r.bytes(8)
	if !ok {
		return nil, mismatch("truncated header")
	}
	count := binary.LittleEndian.Uint64(countBytes)
	if count != uint64(coord.Size()) {
		return nil, mismatch("%d entries, coordinate has %d", count, coord.Size())
	}
	depths, ok := r.bytes(int(count))
	if !ok || r.remaining() != 0 {
		return nil, mismatch("payload size does not match entry count")
	}

	return &Exact{
		coord:    coord,
		depths:   append([]byte(nil), depths...),
		maxDepth: int(maxDepth),
	}, nil
}

func mismatch(format string, args ...any) error {
	return errors.New(errors.ErrCodeTableMismatch, "pruning table: "+format, args...)
}

func writeString(buf *bytes.Buffer, s string) {
	var n [2]byte
	binary.LittleEndian.PutUint16(n[:], uint16(len(s)))
	buf.Write(n[:])
	buf.WriteString(s)
}

// reader is a bounds-checked cursor over the serialized form.
type reader struct {
	data []byte
	off  int
}

func (r *reader) remaining() int { return len(r.data) - r.off }

func (r *reader) bytes(n int) ([]byte, bool) {
	if r.remaining() < n {
		return nil, false
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, true
}

func (r *reader) byte() (byte, bool) {
	b, ok := r.bytes(1)
	if !ok {
		return 0, false
	}
	return b[0], true
}

func (r *reader) string() (string, bool) {
	nb, ok := r.bytes(2)
	if !ok {
		return "", false
	}
	n := int(binary.LittleEndian.Uint16(nb))
	b, ok := r.bytes(n)
	if !ok {
		return "", false
	}
	return string(b), true
}

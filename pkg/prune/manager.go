package prune

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/matzehuels/cyclesolver/pkg/errors"
	"github.com/matzehuels/cyclesolver/pkg/observability"
	"github.com/matzehuels/cyclesolver/pkg/puzzle"
)

// defaultMemoryBudget caps background table growth at 256 MiB.
const defaultMemoryBudget = 1 << 28

// Options configure a Manager.
type Options struct {
	// Workers is the parallelism of table builds. Defaults to NumCPU.
	Workers int
	// MemoryBudget is the byte ceiling for grown tables. Zero disables
	// growth entirely; unset picks the default.
	MemoryBudget uint64
	// Policy decides when probe traffic justifies growth.
	// Defaults to DefaultGrowthPolicy.
	Policy GrowthPolicy
	// Preloaded tables, typically restored from cache, are used instead of
	// building the initial set.
	Preloaded []Table

	budgetSet bool
}

// ValidateAndSetDefaults normalizes o in place.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "workers must be >= 0, got %d", o.Workers)
	}
	if o.Workers == 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.MemoryBudget == 0 && !o.budgetSet {
		o.MemoryBudget = defaultMemoryBudget
	}
	if o.Policy == nil {
		o.Policy = DefaultGrowthPolicy
	}
	return nil
}

// DisableGrowth zeroes the memory budget explicitly, pinning the table set.
func (o *Options) DisableGrowth() {
	o.MemoryBudget = 0
	o.budgetSet = true
}

// Manager owns the pruning tables for one puzzle/target pair. It serves the
// maximum bound over its table set and, when the growth policy fires, builds
// a full-coordinate table in the background and swaps it in. Growth failures
// are reported through hooks and skipped; they never fail a lookup.
type Manager struct {
	def    *puzzle.Definition
	target puzzle.Target
	opts   Options
	slots  []int

	// growCtx bounds background growth builds; it is the context the Manager
	// was constructed under.
	growCtx context.Context

	mu      sync.RWMutex
	tables  []Table
	growing atomic.Bool
	grown   atomic.Bool
}

// NewManager validates the target, closes its registers under the generator
// set, and builds (or adopts) the initial permutation and orientation tables.
func NewManager(ctx context.Context, def *puzzle.Definition, target puzzle.Target, opts Options) (*Manager, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if err := target.Validate(def); err != nil {
		return nil, err
	}

	m := &Manager{
		def:     def,
		target:  target,
		opts:    opts,
		slots:   CloseSlots(def, target.Registers),
		growCtx: ctx,
	}

	if len(opts.Preloaded) > 0 {
		m.tables = append([]Table(nil), opts.Preloaded...)
		if err := m.addCartesian(ctx); err != nil {
			return nil, err
		}
		return m, nil
	}

	permCoord, err := puzzle.NewPermCoordinate(def, m.slots)
	if err != nil {
		return nil, err
	}
	permTable, err := BuildExact(ctx, def, permCoord, m.permGoal(), opts.Workers)
	if err != nil {
		return nil, err
	}
	oriCoord, err := puzzle.NewOriCoordinate(def, m.slots)
	if err != nil {
		return nil, err
	}
	oriTable, err := BuildExact(ctx, def, oriCoord, m.oriGoal(), opts.Workers)
	if err != nil {
		return nil, err
	}
	m.tables = []Table{permTable, oriTable}
	if err := m.addCartesian(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// addCartesian builds one exact full-coordinate table per independent factor
// of the closed slot set and adds their sum to the table set. The closed
// slots split into factors when the generator orbits partition them and no
// generator spans two orbits; a move then advances at most one factor, so
// the summed bound stays admissible and dominates the per-table maximum.
// Single-factor slot sets and factors over the memory budget leave the set
// unchanged.
func (m *Manager) addCartesian(ctx context.Context) error {
	factors := independentFactors(m.def, m.slots)
	if factors == nil {
		return nil
	}
	exacts := make([]*Exact, 0, len(factors))
	for _, f := range factors {
		coord, err := puzzle.NewFullCoordinate(m.def, f)
		if err != nil {
			return err
		}
		if m.opts.MemoryBudget == 0 || uint64(coord.Size()) > m.opts.MemoryBudget {
			observability.Tables().OnGrowSkipped(ctx, coord.Name(), uint64(coord.Size()))
			return nil
		}
		tbl, err := BuildExact(ctx, m.def, coord, m.factorGoal(f), m.opts.Workers)
		if err != nil {
			return err
		}
		exacts = append(exacts, tbl)
	}
	cart, err := NewCartesian(m.def, exacts...)
	if err != nil {
		return err
	}
	m.tables = append(m.tables, cart)
	return nil
}

// Heuristic returns the best admissible bound the table set offers for s:
// the maximum over all tables, since each is individually admissible.
func (m *Manager) Heuristic(s puzzle.State) int {
	m.mu.RLock()
	tables := m.tables
	m.mu.RUnlock()

	h := 0
	for _, t := range tables {
		if v := t.Lookup(s); v > h {
			h = v
		}
	}
	m.maybeGrow()
	return h
}

// Tables returns a snapshot of the current table set.
func (m *Manager) Tables() []Table {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Table(nil), m.tables...)
}

// ExactTables returns the exact tables of the current set, for persistence.
func (m *Manager) ExactTables() []*Exact {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Exact
	for _, t := range m.tables {
		if e, ok := t.(*Exact); ok {
			out = append(out, e)
		}
	}
	return out
}

// Stats aggregates probe and entry counts over the table set.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var agg Stats
	for _, t := range m.tables {
		st := t.Stats()
		agg.Probes += st.Probes
		agg.Entries += st.Entries
	}
	return agg
}

// maybeGrow launches one background growth build when the policy fires.
func (m *Manager) maybeGrow() {
	if m.grown.Load() || m.opts.MemoryBudget == 0 {
		return
	}
	st := m.Stats()
	if !m.opts.Policy(st.Probes, st.Entries, m.opts.MemoryBudget) {
		return
	}
	if !m.growing.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer m.growing.Store(false)
		// Failures surface through table hooks; lookups keep serving the
		// existing set.
		_ = m.GrowNow(m.growCtx)
	}()
}

// GrowNow synchronously builds the full-coordinate table, compressed if the
// exact form exceeds the budget, and adds it to the set. A build the budget
// cannot hold returns RESOURCE_EXHAUSTED.
func (m *Manager) GrowNow(ctx context.Context) error {
	if m.grown.Load() {
		return nil
	}
	full, err := puzzle.NewFullCoordinate(m.def, m.slots)
	if err != nil {
		return err
	}

	size := uint64(full.Size())
	var bits uint
	switch {
	case size <= m.opts.MemoryBudget:
		bits = 8
	case size/4 <= m.opts.MemoryBudget:
		bits = 2
	default:
		observability.Tables().OnGrowSkipped(ctx, full.Name(), size/4)
		return errors.New(errors.ErrCodeResourceExhausted,
			"full table needs %d bytes, budget is %d", size/4, m.opts.MemoryBudget)
	}

	exact, err := BuildExact(ctx, m.def, full, m.fullGoal(), m.opts.Workers)
	if err != nil {
		return err
	}
	var tbl Table = exact
	if bits != 8 {
		if tbl, err = Compress(exact, bits); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.tables = append(m.tables, tbl)
	m.mu.Unlock()
	m.grown.Store(true)
	return nil
}

// permGoal accepts every state whose permutation projection matches the
// target, ignoring orientation. A superset of the goal set, so admissible
// for the permutation coordinate.
func (m *Manager) permGoal() func(puzzle.State) bool {
	return func(s puzzle.State) bool {
		return m.target.MatchesPermutation(m.def, s)
	}
}

// oriGoal accepts every state whose register orientations sum to the
// target's total twist. Non-cycled registers are solved in a goal state, so
// every goal state satisfies the congruence: a superset, hence admissible.
func (m *Manager) oriGoal() func(puzzle.State) bool {
	cards := m.def.Cards()
	mod := cards[m.target.Registers[0]]
	want := m.target.TotalTwist(m.def)
	return func(s puzzle.State) bool {
		sum := 0
		for _, r := range m.target.Registers {
			sum += int(s.Ori[r])
		}
		return sum%mod == want
	}
}

// fullGoal is the exact goal test; the full coordinate captures the complete
// configuration of the closed register set.
func (m *Manager) fullGoal() func(puzzle.State) bool {
	return func(s puzzle.State) bool {
		return m.target.Matches(m.def, s)
	}
}

// factorGoal accepts every state whose cycle structure over the factor's
// registers embeds in the target structure, with the leftover cycles short
// enough to fit on the registers of the other factors. Goal states restrict
// to factors this way, since every cycle of a reachable state lies within a
// single generator-closed factor: a superset, hence admissible.
func (m *Manager) factorGoal(factor []int) func(puzzle.State) bool {
	inFactor := make(map[int]bool, len(factor))
	for _, s := range factor {
		inFactor[s] = true
	}
	var regs []int
	for _, r := range m.target.Registers {
		if inFactor[r] {
			regs = append(regs, r)
		}
	}
	outside := len(m.target.Registers) - len(regs)
	want := m.target.Structure()
	return func(s puzzle.State) bool {
		if len(regs) == 0 {
			return true
		}
		got, ok := m.def.CycleStructure(s, regs)
		if !ok {
			return false
		}
		rest, ok := subtractStructure(want, got)
		if !ok {
			return false
		}
		remaining := 0
		for _, c := range rest {
			remaining += c.Length
		}
		return remaining <= outside
	}
}

// subtractStructure removes each cycle of part from whole, matching length
// and twist, reporting the leftover and whether part embeds in whole.
func subtractStructure(whole, part puzzle.Structure) (puzzle.Structure, bool) {
	rest := append(puzzle.Structure(nil), whole...)
	for _, c := range part {
		found := -1
		for i, w := range rest {
			if w == c {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, false
		}
		rest = append(rest[:found], rest[found+1:]...)
	}
	return rest, true
}

// independentFactors partitions slots into generator orbits, returned only
// when there are at least two and no generator acts on more than one. A
// generator spanning two orbits could advance both distances in one move,
// which would break the cartesian sum.
func independentFactors(def *puzzle.Definition, slots []int) [][]int {
	assigned := make(map[int]bool, len(slots))
	var factors [][]int
	for _, s := range slots {
		if assigned[s] {
			continue
		}
		var members []int
		queue := []int{s}
		assigned[s] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			members = append(members, cur)
			for _, g := range def.Generators() {
				if n := g.Turn.Perm[cur]; !assigned[n] {
					assigned[n] = true
					queue = append(queue, n)
				}
			}
		}
		sort.Ints(members)
		// Slots no generator touches form orbits of fixed pieces; their
		// distance is always zero, so they add nothing to the sum.
		mobile := false
		for _, g := range def.Generators() {
			if !trivialOn(g, members) {
				mobile = true
				break
			}
		}
		if mobile {
			factors = append(factors, members)
		}
	}
	if len(factors) < 2 {
		return nil
	}
	for _, g := range def.Generators() {
		touched := 0
		for _, f := range factors {
			if !trivialOn(g, f) {
				touched++
			}
		}
		if touched > 1 {
			return nil
		}
	}
	return factors
}

// CloseSlots expands regs to the smallest generator-closed superset. Callers
// restoring cached tables use it to reconstruct the coordinates a Manager
// would build for the same target.
func CloseSlots(def *puzzle.Definition, regs []int) []int {
	member := make([]bool, def.Size())
	queue := append([]int(nil), regs...)
	for _, r := range regs {
		member[r] = true
	}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, g := range def.Generators() {
			if n := g.Turn.Perm[s]; !member[n] {
				member[n] = true
				queue = append(queue, n)
			}
		}
	}
	var out []int
	for s, in := range member {
		if in {
			out = append(out, s)
		}
	}
	sort.Ints(out)
	return out
}

// Package search finds shortest move sequences producing a target cycle
// structure, by iterative-deepening A* over the puzzle's move graph.
//
// The engine walks a phase machine Idle -> Bounding -> Expanding ->
// (Solved | Exhausted). Each Expanding pass runs a depth-bounded DFS from
// the solved state, fanned out over the symmetry-reduced first moves; when a
// pass ends without a solution the bound is raised directly to the minimum
// f-value that was pruned, never by a blind increment. A pass that finds a
// solution still runs to completion, so every minimal-length solution (up to
// the symmetry of intermediate states) is enumerated and the result set is
// independent of worker scheduling.
//
// Exhausted is only ever reached through proof: either the orbit calculator
// rejects the target outright, or the whole reachable space within the move
// closure was enumerated. A configured bound ceiling aborts instead, and
// says so.
package search

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matzehuels/cyclesolver/pkg/errors"
	"github.com/matzehuels/cyclesolver/pkg/observability"
	"github.com/matzehuels/cyclesolver/pkg/orbit"
	"github.com/matzehuels/cyclesolver/pkg/prune"
	"github.com/matzehuels/cyclesolver/pkg/puzzle"
	"github.com/matzehuels/cyclesolver/pkg/symmetry"
)

// defaultMaxBound caps the deepest iteration attempted before aborting.
const defaultMaxBound = 20

// cancelPollMask throttles cancellation polls to every 256th node.
const cancelPollMask = 0xFF

// Phase is the engine's lifecycle state.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseBounding
	PhaseExpanding
	PhaseSolved
	PhaseExhausted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseBounding:
		return "bounding"
	case PhaseExpanding:
		return "expanding"
	case PhaseSolved:
		return "solved"
	case PhaseExhausted:
		return "exhausted"
	}
	return "unknown"
}

// Bounder supplies admissible lower bounds for the remaining distance.
type Bounder interface {
	Heuristic(s puzzle.State) int
}

// Options configure a search.
type Options struct {
	// Workers is the root-branch parallelism. Defaults to NumCPU.
	Workers int
	// MaxBound is the deepest iteration attempted; exceeding it aborts the
	// search rather than running unbounded. Defaults to 20.
	MaxBound int
}

// ValidateAndSetDefaults normalizes o in place.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "workers must be >= 0, got %d", o.Workers)
	}
	if o.Workers == 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.MaxBound < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max bound must be >= 0, got %d", o.MaxBound)
	}
	if o.MaxBound == 0 {
		o.MaxBound = defaultMaxBound
	}
	return nil
}

// Result reports a completed search.
type Result struct {
	// Solutions are all minimal move sequences found, sorted by notation for
	// a scheduling-independent order.
	Solutions [][]puzzle.Move
	// Length is the common length of the solutions.
	Length int
	// Bounds is the sequence of depth bounds the engine iterated through.
	Bounds []int
	// Nodes is the total number of nodes expanded across all iterations.
	Nodes uint64
}

// Engine runs iterative-deepening searches for one puzzle/target pair.
// An Engine is single-use: Run may be called once.
type Engine struct {
	def    *puzzle.Definition
	sym    *symmetry.Group
	orb    *orbit.Calculator
	tables Bounder
	target puzzle.Target
	opts   Options

	moveOrder []int         // move indices in expansion order
	goalSyms  symmetry.Mask // symmetries mapping the register set onto itself
	phase     atomic.Int32
	cancelled atomic.Bool
}

// New validates the target and prepares an engine.
func New(def *puzzle.Definition, sym *symmetry.Group, tables Bounder, target puzzle.Target, opts Options) (*Engine, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if err := target.Validate(def); err != nil {
		return nil, err
	}
	e := &Engine{
		def:    def,
		sym:    sym,
		orb:    orbit.NewCalculator(def),
		tables: tables,
		target: target,
		opts:   opts,
	}
	e.moveOrder = expansionOrder(def.Moves())
	e.goalSyms = registerSymmetries(sym, target.Registers)
	e.phase.Store(int32(PhaseIdle))
	return e, nil
}

// registerSymmetries finds the symmetries that permute the target's register
// set onto itself. Only those make symmetric branches goal-equivalent: a
// symmetry moving a register off the tracked set maps matching states to
// non-matching ones, so it must not drive move reduction.
func registerSymmetries(sym *symmetry.Group, regs []int) symmetry.Mask {
	inReg := make(map[int]bool, len(regs))
	for _, r := range regs {
		inReg[r] = true
	}
	var mask symmetry.Mask = 1
	for si := 1; si < sym.Size(); si++ {
		perm := sym.Element(si).Perm
		ok := true
		for _, r := range regs {
			if !inReg[perm[r]] {
				ok = false
				break
			}
		}
		if ok {
			mask |= 1 << si
		}
	}
	return mask
}

// expansionOrder sorts move indices ease-first: quarter turns before higher
// powers, then by generator. The order is a fixed property of the
// definition, so expansion is deterministic.
func expansionOrder(moves []puzzle.Move) []int {
	idx := make([]int, len(moves))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ma, mb := moves[idx[a]], moves[idx[b]]
		if ma.Power != mb.Power {
			return ma.Power < mb.Power
		}
		return ma.Gen < mb.Gen
	})
	return idx
}

// Phase returns the engine's current lifecycle phase.
func (e *Engine) Phase() Phase { return Phase(e.phase.Load()) }

// Run searches for all minimal move sequences realizing the target.
// Unreachable targets fail fast with UNREACHABLE_TARGET; cancellation and
// the bound ceiling return ABORTED.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	e.phase.Store(int32(PhaseBounding))
	if err := e.orb.CheckTarget(e.target); err != nil {
		if errors.Is(err, errors.ErrCodeUnreachableTarget) {
			e.phase.Store(int32(PhaseExhausted))
		}
		return nil, err
	}

	start := e.def.Identity()
	bound := e.tables.Heuristic(start)
	if bound >= prune.Infinite {
		// The tables' reverse search is exhaustive within its coordinate:
		// an unset entry for the solved state proves no path exists.
		e.phase.Store(int32(PhaseExhausted))
		return nil, errors.New(errors.ErrCodeUnreachableTarget,
			"no path from the solved state to any goal coordinate")
	}
	if bound < 1 {
		// The solved state never exhibits a non-trivial target.
		bound = 1
	}

	// Symmetries fixing the solved state make whole root branches
	// equivalent; expand one representative per orbit.
	roots := e.sym.ReduceMoves(e.sym.Stabilizer(start)&e.goalSyms, e.moveOrder)

	res := &Result{}
	for {
		if bound > e.opts.MaxBound {
			e.phase.Store(int32(PhaseExhausted))
			observability.Search().OnAbort(ctx, "bound ceiling")
			return nil, errors.New(errors.ErrCodeAborted,
				"no solution within %d moves (next bound %d)", e.opts.MaxBound, bound)
		}
		res.Bounds = append(res.Bounds, bound)

		e.phase.Store(int32(PhaseExpanding))
		observability.Search().OnBoundStart(ctx, bound)
		iterStart := time.Now()
		sols, minPruned, nodes, err := e.iterate(ctx, start, roots, bound)
		res.Nodes += nodes
		observability.Search().OnBoundComplete(ctx, bound, nodes, time.Since(iterStart))
		if err != nil {
			observability.Search().OnAbort(ctx, "cancelled")
			return nil, err
		}

		if len(sols) > 0 {
			sortSolutions(sols)
			res.Solutions = sols
			res.Length = bound
			e.phase.Store(int32(PhaseSolved))
			for _, sol := range sols {
				observability.Search().OnSolution(ctx, puzzle.FormatMoves(sol), len(sol))
			}
			return res, nil
		}
		if minPruned >= prune.Infinite {
			// Every branch died on a proven-unreachable coordinate or ran
			// out of states: the move closure holds no matching state.
			e.phase.Store(int32(PhaseExhausted))
			return nil, errors.New(errors.ErrCodeUnreachableTarget,
				"search space exhausted at bound %d with no matching state", bound)
		}
		e.phase.Store(int32(PhaseBounding))
		bound = minPruned
	}
}

// iterate runs one depth-bounded pass, fanning root branches out over the
// worker pool. All branches run to completion even after a solution is
// found, so the pass enumerates every solution at this bound.
func (e *Engine) iterate(ctx context.Context, start puzzle.State, roots []int, bound int) ([][]puzzle.Move, int, uint64, error) {
	workers := e.opts.Workers
	if workers > len(roots) {
		workers = len(roots)
	}

	moves := e.def.Moves()
	var next atomic.Int64
	results := make([]dfsState, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(st *dfsState) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					st.err = errors.New(errors.ErrCodeWorkerFailure, "search worker panic: %v", rec)
					e.cancelled.Store(true)
				}
			}()
			st.ctx = ctx
			st.bound = bound
			st.minPruned = prune.Infinite
			st.path = make([]puzzle.Move, 0, bound)
			for {
				i := int(next.Add(1)) - 1
				if i >= len(roots) {
					return
				}
				m := moves[roots[i]]
				st.path = append(st.path[:0], m)
				if err := e.dfs(st, e.def.ApplyMove(start, m), 1, m.Gen, m.Axis); err != nil {
					st.err = err
					return
				}
			}
		}(&results[w])
	}
	wg.Wait()

	var sols [][]puzzle.Move
	minPruned := prune.Infinite
	var nodes uint64
	var firstErr error
	for i := range results {
		st := &results[i]
		nodes += st.nodes
		if st.err != nil {
			// A worker failure outranks the cancellations it triggered.
			if firstErr == nil || !errors.Is(st.err, errors.ErrCodeAborted) {
				firstErr = st.err
			}
			continue
		}
		sols = append(sols, st.solutions...)
		if st.minPruned < minPruned {
			minPruned = st.minPruned
		}
	}
	if firstErr != nil {
		return nil, 0, nodes, firstErr
	}
	return sols, minPruned, nodes, nil
}

// dfsState is one worker's scratch space for a pass.
type dfsState struct {
	ctx       context.Context
	bound     int
	path      []puzzle.Move
	solutions [][]puzzle.Move
	minPruned int
	nodes     uint64
	err       error
}

// dfs expands s at depth g. lastGen and lastAxis identify the move that
// produced s, for redundancy filtering.
func (e *Engine) dfs(st *dfsState, s puzzle.State, g, lastGen, lastAxis int) error {
	st.nodes++
	if st.nodes&cancelPollMask == 0 {
		if e.cancelled.Load() || st.ctx.Err() != nil {
			e.cancelled.Store(true)
			return errors.New(errors.ErrCodeAborted, "search cancelled at depth %d", g)
		}
	}

	f := g + e.tables.Heuristic(s)
	if f > st.bound {
		if f < st.minPruned {
			st.minPruned = f
		}
		return nil
	}
	if g == st.bound {
		// The bound sequence guarantees no matching state exists above this
		// depth, so the goal test is only needed at the frontier.
		if e.target.Matches(e.def, s) {
			st.solutions = append(st.solutions, append([]puzzle.Move(nil), st.path...))
		} else if st.bound+1 < st.minPruned {
			// A non-matching frontier state needs at least one more move.
			st.minPruned = st.bound + 1
		}
		return nil
	}

	moves := e.def.Moves()
	candidates := e.moveOrder
	if stab := e.sym.Stabilizer(s) & e.goalSyms; stab.Count() > 1 {
		candidates = e.sym.ReduceMoves(stab, candidates)
	}
	for _, mi := range candidates {
		m := moves[mi]
		// Successive moves of one generator collapse into a single power,
		// and equal-axis generators commute: force ascending order per axis.
		if m.Gen == lastGen || (m.Axis == lastAxis && m.Gen < lastGen) {
			continue
		}
		st.path = append(st.path, m)
		err := e.dfs(st, e.def.ApplyMove(s, m), g+1, m.Gen, m.Axis)
		st.path = st.path[:len(st.path)-1]
		if err != nil {
			return err
		}
	}
	return nil
}

func sortSolutions(sols [][]puzzle.Move) {
	sort.Slice(sols, func(i, j int) bool {
		return puzzle.FormatMoves(sols[i]) < puzzle.FormatMoves(sols[j])
	})
}

// Package solver wires the full solve pipeline behind one entry point.
//
// A solve runs analyze → tables → search → rank:
//
//  1. Analyze: orbit and parity accounting over the target's register set,
//     rejecting provably unreachable targets before any table is built
//  2. Tables: pruning tables restored from cache or built fresh
//  3. Search: parallel iterative deepening over the reduced branch set
//  4. Rank: minimal solutions ordered by physical ease
//
// Both CLI and API use the same Solver so caching and archive behavior stay
// identical across entry points.
//
// # Usage
//
//	s := solver.New(cache, nil, store, logger)
//	result, err := s.Execute(ctx, solver.Options{
//	    Definition: puzzle.Cube222(),
//	    Target:     target,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Best.Notation)
package solver

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cyclesolver/pkg/archive"
	"github.com/matzehuels/cyclesolver/pkg/cache"
	"github.com/matzehuels/cyclesolver/pkg/errors"
	"github.com/matzehuels/cyclesolver/pkg/observability"
	"github.com/matzehuels/cyclesolver/pkg/orbit"
	"github.com/matzehuels/cyclesolver/pkg/prune"
	"github.com/matzehuels/cyclesolver/pkg/puzzle"
	"github.com/matzehuels/cyclesolver/pkg/rank"
	"github.com/matzehuels/cyclesolver/pkg/search"
	"github.com/matzehuels/cyclesolver/pkg/symmetry"
)

// Solver encapsulates pipeline execution with caching and archiving.
//
// The Solver is stateless except for its backends; multiple goroutines can
// safely share one Solver with different options.
type Solver struct {
	Cache   cache.Cache
	Keyer   cache.Keyer
	Archive archive.Store // optional; nil disables archiving
	Logger  *log.Logger
}

// New creates a solver with the given backends.
// A nil cache disables caching, a nil keyer uses the default key scheme, and
// a nil logger uses the package default.
func New(c cache.Cache, keyer cache.Keyer, store archive.Store, logger *log.Logger) *Solver {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Solver{Cache: c, Keyer: keyer, Archive: store, Logger: logger}
}

// Options configure one solve request.
type Options struct {
	// Definition is the puzzle to solve on. Required.
	Definition *puzzle.Definition
	// Target is the cycle structure to realize. Required.
	Target puzzle.Target

	// Workers is the parallelism for table builds and search.
	// Defaults to NumCPU via the downstream components.
	Workers int
	// MaxBound caps the deepest iteration before the search reports a
	// cutoff. Zero picks the search default.
	MaxBound int
	// MemoryBudget caps background table growth. Zero picks the default.
	MemoryBudget uint64
	// Policy overrides the table growth policy.
	Policy prune.GrowthPolicy
	// Refresh skips archive and cache reads, forcing a fresh solve.
	Refresh bool
}

// ValidateAndSetDefaults normalizes o in place.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Definition == nil {
		return errors.New(errors.ErrCodeInvalidConfig, "puzzle definition is required")
	}
	if o.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "workers must be >= 0, got %d", o.Workers)
	}
	return nil
}

// Stats records per-stage timings and search effort.
type Stats struct {
	AnalyzeTime time.Duration `json:"analyze_time"`
	TableTime   time.Duration `json:"table_time"`
	SearchTime  time.Duration `json:"search_time"`
	Nodes       uint64        `json:"nodes"`
	Bounds      []int         `json:"bounds,omitempty"`
}

// CacheInfo reports which stages were served from cache or archive.
type CacheInfo struct {
	SolutionHit bool `json:"solution_hit"`
	ArchiveHit  bool `json:"archive_hit"`
	TableHits   int  `json:"table_hits"`
}

// Result is the outcome of one solve.
type Result struct {
	// Best is the easiest minimal solution.
	Best rank.Ranked
	// Ranked lists every minimal solution in ease order.
	Ranked []rank.Ranked
	// Length is the proven minimal move count.
	Length int
	// Orbit is the reachability analysis of the closed register set.
	Orbit *orbit.Info

	Stats     Stats
	CacheInfo CacheInfo
}

// cachedSolution is the wire form of an archived solve stored in the cache.
// Solutions carries every minimal solution so a cache hit reproduces the full
// ranked list, not just the best entry.
type cachedSolution struct {
	Notation  string   `json:"notation"`
	Length    int      `json:"length"`
	Score     int      `json:"score"`
	Solutions []string `json:"solutions,omitempty"`
}

// Execute runs the complete analyze → tables → search → rank pipeline.
func (s *Solver) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	def, target := opts.Definition, opts.Target
	if err := target.Validate(def); err != nil {
		return nil, err
	}

	result := &Result{}
	if !opts.Refresh {
		if res, ok := s.lookupSolved(ctx, def, target, result); ok {
			return res, nil
		}
	}

	// Stage 1: Analyze
	analyzeStart := time.Now()
	calc := orbit.NewCalculator(def)
	if err := calc.CheckTarget(target); err != nil {
		return nil, err
	}
	info, err := calc.Analyze(prune.CloseSlots(def, target.Registers))
	if err != nil {
		return nil, err
	}
	result.Orbit = info
	result.Stats.AnalyzeTime = time.Since(analyzeStart)

	s.Logger.Info("analyzed target",
		"order", info.Order,
		"divisor", info.Divisor,
		"duration", result.Stats.AnalyzeTime)

	// Stage 2: Tables
	tableStart := time.Now()
	mgr, err := s.buildTables(ctx, def, target, &opts, result)
	if err != nil {
		return nil, err
	}
	result.Stats.TableTime = time.Since(tableStart)

	s.Logger.Info("tables ready",
		"count", len(mgr.Tables()),
		"restored", result.CacheInfo.TableHits,
		"duration", result.Stats.TableTime)

	// Stage 3: Search
	searchStart := time.Now()
	sym, err := symmetry.New(def)
	if err != nil {
		return nil, err
	}
	eng, err := search.New(def, sym, mgr, target, search.Options{
		Workers:  opts.Workers,
		MaxBound: opts.MaxBound,
	})
	if err != nil {
		return nil, err
	}
	found, err := eng.Run(ctx)
	if err != nil {
		return nil, err
	}
	result.Stats.SearchTime = time.Since(searchStart)
	result.Stats.Nodes = found.Nodes
	result.Stats.Bounds = found.Bounds
	result.Length = found.Length

	s.Logger.Info("search finished",
		"length", found.Length,
		"solutions", len(found.Solutions),
		"nodes", found.Nodes,
		"duration", result.Stats.SearchTime)

	// Stage 4: Rank
	ranker := rank.New(def)
	result.Ranked = ranker.Rank(found.Solutions)
	result.Best = result.Ranked[0]

	s.storeSolved(ctx, def, target, result, result.Stats.SearchTime)
	return result, nil
}

// lookupSolved serves a previous solve from the solution cache or the
// archive. ok is false when neither holds the target.
func (s *Solver) lookupSolved(ctx context.Context, def *puzzle.Definition, target puzzle.Target, result *Result) (*Result, bool) {
	key := s.Keyer.SolutionKey(def.ID(), target.Key())
	if data, hit, err := s.Cache.Get(ctx, key); err == nil && hit {
		var sol cachedSolution
		if json.Unmarshal(data, &sol) == nil {
			if ranked, ok := s.reconstructRanked(def, sol.Notation, sol.Score, sol.Solutions); ok {
				observability.Cache().OnCacheHit(ctx, "solution")
				result.CacheInfo.SolutionHit = true
				result.Ranked = ranked
				result.Best = ranked[0]
				result.Length = sol.Length
				return result, true
			}
		}
	}
	observability.Cache().OnCacheMiss(ctx, "solution")

	if s.Archive == nil {
		return nil, false
	}
	rec, err := s.Archive.Find(ctx, def.ID(), target.Key())
	if err != nil {
		s.Logger.Warn("archive lookup failed", "err", err)
		return nil, false
	}
	if rec == nil {
		return nil, false
	}
	ranked, ok := s.reconstructRanked(def, rec.Notation, rec.Score, rec.Solutions)
	if !ok {
		return nil, false
	}
	result.CacheInfo.ArchiveHit = true
	result.Ranked = ranked
	result.Best = ranked[0]
	result.Length = rec.Length
	return result, true
}

// reconstructRanked rebuilds the full ranked list from persisted notations,
// re-scoring them deterministically. Records written before the full list was
// persisted carry only the best solution and fall back to a one-entry list.
func (s *Solver) reconstructRanked(def *puzzle.Definition, best string, score int, all []string) ([]rank.Ranked, bool) {
	if len(all) == 0 {
		moves, err := def.ParseMoves(best)
		if err != nil {
			return nil, false
		}
		return []rank.Ranked{{Moves: moves, Notation: best, Score: score}}, true
	}
	solutions := make([][]puzzle.Move, 0, len(all))
	for _, notation := range all {
		moves, err := def.ParseMoves(notation)
		if err != nil {
			return nil, false
		}
		solutions = append(solutions, moves)
	}
	return rank.New(def).Rank(solutions), true
}

// storeSolved writes the finished solve to the cache and the archive.
// Failures are logged and dropped; persistence never fails a solve.
func (s *Solver) storeSolved(ctx context.Context, def *puzzle.Definition, target puzzle.Target, result *Result, elapsed time.Duration) {
	notations := make([]string, len(result.Ranked))
	for i, r := range result.Ranked {
		notations[i] = r.Notation
	}
	data, err := json.Marshal(cachedSolution{
		Notation:  result.Best.Notation,
		Length:    result.Length,
		Score:     result.Best.Score,
		Solutions: notations,
	})
	if err == nil {
		key := s.Keyer.SolutionKey(def.ID(), target.Key())
		if err := s.Cache.Set(ctx, key, data, cache.SolutionTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "solution", len(data))
		}
	}

	if s.Archive == nil {
		return
	}
	rec := &archive.Record{
		PuzzleID:  def.ID(),
		TargetKey: target.Key(),
		Notation:  result.Best.Notation,
		Solutions: notations,
		Length:    result.Length,
		Score:     result.Best.Score,
		Nodes:     result.Stats.Nodes,
		Elapsed:   elapsed,
	}
	if err := s.Archive.Save(ctx, rec); err != nil {
		s.Logger.Warn("archive store failed", "err", err)
	}
}

// buildTables restores the initial table pair from cache when possible and
// builds the rest, persisting fresh builds for the next run.
func (s *Solver) buildTables(ctx context.Context, def *puzzle.Definition, target puzzle.Target, opts *Options, result *Result) (*prune.Manager, error) {
	mgrOpts := prune.Options{
		Workers:      opts.Workers,
		MemoryBudget: opts.MemoryBudget,
		Policy:       opts.Policy,
	}

	slots := prune.CloseSlots(def, target.Registers)
	permCoord, err := puzzle.NewPermCoordinate(def, slots)
	if err != nil {
		return nil, err
	}
	oriCoord, err := puzzle.NewOriCoordinate(def, slots)
	if err != nil {
		return nil, err
	}

	if !opts.Refresh {
		var preloaded []prune.Table
		for _, coord := range []puzzle.Coordinate{permCoord, oriCoord} {
			key := s.Keyer.TableKey(def.ID(), coord.Name(), target.Key())
			data, hit, err := s.Cache.Get(ctx, key)
			if err != nil || !hit {
				observability.Cache().OnCacheMiss(ctx, "table")
				break
			}
			tbl, err := prune.LoadTable(def, target, coord, data)
			if err != nil {
				// A stale or foreign table forces regeneration.
				s.Logger.Warn("cached table rejected", "table", coord.Name(), "err", err)
				break
			}
			observability.Cache().OnCacheHit(ctx, "table")
			preloaded = append(preloaded, tbl)
		}
		if len(preloaded) == 2 {
			result.CacheInfo.TableHits = len(preloaded)
			mgrOpts.Preloaded = preloaded
			return prune.NewManager(ctx, def, target, mgrOpts)
		}
	}

	mgr, err := prune.NewManager(ctx, def, target, mgrOpts)
	if err != nil {
		return nil, err
	}
	for _, tbl := range mgr.ExactTables() {
		data, err := prune.MarshalTable(def, target, tbl)
		if err != nil {
			continue
		}
		key := s.Keyer.TableKey(def.ID(), tbl.Name(), target.Key())
		if err := s.Cache.Set(ctx, key, data, cache.TableTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "table", len(data))
		}
	}
	return mgr, nil
}

// Close releases the solver's backends.
func (s *Solver) Close(ctx context.Context) error {
	var firstErr error
	if s.Cache != nil {
		firstErr = s.Cache.Close()
	}
	if s.Archive != nil {
		if err := s.Archive.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

package prune

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/matzehuels/cyclesolver/pkg/errors"
	"github.com/matzehuels/cyclesolver/pkg/observability"
	"github.com/matzehuels/cyclesolver/pkg/puzzle"
)

// cancelStride is how many indices a worker scans between cancellation polls.
const cancelStride = 4096

// BuildExact fills an exact table by reverse breadth-first search from the
// goal set. goal must accept a superset of the goal states' projections onto
// the coordinate, or the table would overestimate.
//
// The index space is split into one contiguous chunk per worker. Each depth
// pass, every worker scans its own chunk for unset entries whose neighbors
// sit at the current depth in a frozen snapshot of the previous pass, and
// writes depth+1 into its chunk only. Neighbor reads go through the snapshot
// rather than the live array, so no worker ever reads a byte another worker
// may be writing, and the finished table is byte-identical regardless of
// worker count. Cancellation is polled between strides, always before any
// write.
func BuildExact(ctx context.Context, def *puzzle.Definition, coord puzzle.Coordinate,
	goal func(puzzle.State) bool, workers int) (*Exact, error) {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	n := coord.Size()
	depths := make([]byte, n)
	for i := range depths {
		depths[i] = unset
	}
	chunks := chunkRanges(n, workers)
	start := time.Now()
	observability.Tables().OnBuildStart(ctx, coord.Name(), n)

	// Seed pass: mark every goal-equivalent coordinate at depth zero.
	_, err := scanChunks(chunks, func(lo, hi int) (int, error) {
		filled := 0
		for idx := lo; idx < hi; idx++ {
			if idx%cancelStride == 0 {
				if err := ctx.Err(); err != nil {
					return 0, errors.Wrap(errors.ErrCodeAborted, err, "table build cancelled")
				}
			}
			if goal(coord.Decode(idx)) {
				depths[idx] = 0
				filled++
			}
		}
		return filled, nil
	})
	if err != nil {
		observability.Tables().OnBuildComplete(ctx, coord.Name(), 0, time.Since(start), err)
		return nil, err
	}

	moves := def.Moves()
	maxDepth := 0
	prev := make([]byte, n)
	for depth := 0; ; depth++ {
		if depth+1 >= unset {
			return nil, errors.New(errors.ErrCodeInternal,
				"table depth exceeds %d for coordinate %s", unset-1, coord.Name())
		}
		// Freeze the previous pass. Neighbor lookups read prev while the
		// workers write depth+1 into depths.
		copy(prev, depths)
		filled, err := scanChunks(chunks, func(lo, hi int) (int, error) {
			count := 0
			for idx := lo; idx < hi; idx++ {
				if idx%cancelStride == 0 {
					if err := ctx.Err(); err != nil {
						return 0, errors.Wrap(errors.ErrCodeAborted, err, "table build cancelled")
					}
				}
				if prev[idx] != unset {
					continue
				}
				s := coord.Decode(idx)
				for _, m := range moves {
					if prev[coord.Encode(def.ApplyMove(s, m))] == byte(depth) {
						depths[idx] = byte(depth + 1)
						count++
						break
					}
				}
			}
			return count, nil
		})
		if err != nil {
			observability.Tables().OnBuildComplete(ctx, coord.Name(), maxDepth, time.Since(start), err)
			return nil, err
		}
		if filled == 0 {
			break
		}
		maxDepth = depth + 1
		observability.Tables().OnBuildDepth(ctx, coord.Name(), maxDepth, filled)
	}

	observability.Tables().OnBuildComplete(ctx, coord.Name(), maxDepth, time.Since(start), nil)
	return &Exact{coord: coord, depths: depths, maxDepth: maxDepth}, nil
}

// chunkRanges splits [0, n) into at most workers contiguous half-open ranges.
func chunkRanges(n, workers int) [][2]int {
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	ranges := make([][2]int, 0, workers)
	chunk, rem := n/workers, n%workers
	lo := 0
	for i := 0; i < workers; i++ {
		hi := lo + chunk
		if i < rem {
			hi++
		}
		ranges = append(ranges, [2]int{lo, hi})
		lo = hi
	}
	return ranges
}

// scanChunks runs fn over every chunk concurrently and sums the counts.
// A worker panic is reported as WORKER_FAILURE rather than crashing the
// process.
func scanChunks(chunks [][2]int, fn func(lo, hi int) (int, error)) (int, error) {
	var wg sync.WaitGroup
	counts := make([]int, len(chunks))
	errs := make([]error, len(chunks))
	for i, r := range chunks {
		wg.Add(1)
		go func(i, lo, hi int) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					errs[i] = errors.New(errors.ErrCodeWorkerFailure, "table worker panic: %v", rec)
				}
			}()
			counts[i], errs[i] = fn(lo, hi)
		}(i, r[0], r[1])
	}
	wg.Wait()

	total := 0
	for i := range chunks {
		if errs[i] != nil {
			return 0, errs[i]
		}
		total += counts[i]
	}
	return total, nil
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cyclesolver/pkg/errors"
	"github.com/matzehuels/cyclesolver/pkg/puzzle"
	"github.com/matzehuels/cyclesolver/pkg/solver"
)

// solveCommand creates the solve command.
func (c *CLI) solveCommand() *cobra.Command {
	var (
		puzzleName string
		registers  string
		cycles     string
		targetPath string
		workers    int
		maxBound   int
		noCache    bool
		refresh    bool
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Find the shortest move sequence realizing a cycle structure",
		Long: `Find the shortest move sequence realizing a cycle structure.

The target is a multiset of cycles over a register subset of pieces, given as
comma-separated "length" or "length:twist" entries. Pieces outside the
register set are unconstrained.

Examples:

  # A twist-free 3-cycle over all pieces
  cyclesolver solve --cycles 3

  # A twisted 2-cycle plus a plain 3-cycle on specific slots
  cyclesolver solve --registers 0,1,2,3,4 --cycles 2:1,3

  # The same target from a TOML file with [[cycles]] tables
  cyclesolver solve --file target.toml

Results are cached locally; targets proven unreachable by orbit and parity
analysis fail fast without searching.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := puzzleByName(puzzleName)
			if err != nil {
				return err
			}
			var target puzzle.Target
			if targetPath != "" {
				target, err = loadTargetFile(def, targetPath)
			} else {
				target, err = parseTarget(def, registers, cycles)
			}
			if err != nil {
				return err
			}

			s, err := c.newSolver(cmd.Context(), noCache)
			if err != nil {
				return fmt.Errorf("initialize solver: %w", err)
			}
			defer s.Close(cmd.Context())

			opts := solver.Options{
				Definition:   def,
				Target:       target,
				Workers:      pickInt(workers, c.Config.Workers),
				MaxBound:     pickInt(maxBound, c.Config.MaxBound),
				MemoryBudget: c.Config.MemoryBudget(),
				Refresh:      refresh,
			}
			return c.runSolve(cmd.Context(), s, opts, asJSON)
		},
	}

	cmd.Flags().StringVarP(&puzzleName, "puzzle", "p", "cube222", "puzzle preset")
	cmd.Flags().StringVarP(&registers, "registers", "r", "all", "register slots (comma-separated, or \"all\")")
	cmd.Flags().StringVarP(&cycles, "cycles", "c", "", "cycle structure, e.g. \"3\" or \"3:1,2:0\"")
	cmd.Flags().StringVarP(&targetPath, "file", "f", "", "read the target from a TOML file")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "parallel workers (0 = all cores)")
	cmd.Flags().IntVar(&maxBound, "max-bound", 0, "deepest bound before giving up (0 = default)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached and archived results")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the result as JSON")
	cmd.MarkFlagsMutuallyExclusive("cycles", "file")

	return cmd
}

// runSolve executes the pipeline and renders the outcome.
func (c *CLI) runSolve(ctx context.Context, s *solver.Solver, opts solver.Options, asJSON bool) error {
	spinner := newSpinnerWithContext(ctx, "Searching...")
	spinner.Start()

	start := time.Now()
	res, err := s.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Solve failed")
		if errors.Is(err, errors.ErrCodeUnreachableTarget) {
			printDetail("%s", errors.UserMessage(err))
			printDetail("The orbit and parity analysis proves no state has this cycle structure.")
		}
		return err
	}
	spinner.Stop()

	if asJSON {
		return writeSolveJSON(os.Stdout, opts, res)
	}

	cached := res.CacheInfo.SolutionHit || res.CacheInfo.ArchiveHit
	printSuccess("Solved in %s", time.Since(start).Round(time.Millisecond))
	printAlgorithm(res.Best.Notation)
	printSolveStats(res.Length, len(res.Ranked), res.Stats.Nodes, cached)

	if !cached {
		printNewline()
		printKeyValue("ease score", fmt.Sprintf("%d", res.Best.Score))
		printKeyValue("bounds", fmt.Sprintf("%v", res.Stats.Bounds))
		printKeyValue("analyze", res.Stats.AnalyzeTime.Round(time.Millisecond).String())
		printKeyValue("tables", res.Stats.TableTime.Round(time.Millisecond).String())
		printKeyValue("search", res.Stats.SearchTime.Round(time.Millisecond).String())
		if res.Orbit != nil {
			printKeyValue("orbit size", res.Orbit.Order.String())
		}
	}
	return nil
}

// solveJSON is the machine-readable solve output.
type solveJSON struct {
	Puzzle    string           `json:"puzzle"`
	Target    string           `json:"target"`
	Algorithm string           `json:"algorithm"`
	Length    int              `json:"length"`
	Score     int              `json:"score"`
	Solutions []string         `json:"solutions"`
	Stats     solver.Stats     `json:"stats"`
	CacheInfo solver.CacheInfo `json:"cache_info"`
}

func writeSolveJSON(w *os.File, opts solver.Options, res *solver.Result) error {
	out := solveJSON{
		Puzzle:    opts.Definition.Name(),
		Target:    opts.Target.Key(),
		Algorithm: res.Best.Notation,
		Length:    res.Length,
		Score:     res.Best.Score,
		Stats:     res.Stats,
		CacheInfo: res.CacheInfo,
	}
	for _, sol := range res.Ranked {
		out.Solutions = append(out.Solutions, sol.Notation)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// pickInt prefers the flag value over the config value.
func pickInt(flag, config int) int {
	if flag != 0 {
		return flag
	}
	return config
}

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cyclesolver/pkg/cache"
	"github.com/matzehuels/cyclesolver/pkg/prune"
	"github.com/matzehuels/cyclesolver/pkg/puzzle"
)

// tablesCommand creates the pruning-table management command.
func (c *CLI) tablesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Build and export pruning tables",
	}

	cmd.AddCommand(c.tablesBuildCommand())

	return cmd
}

// tablesBuildCommand creates the "tables build" subcommand.
func (c *CLI) tablesBuildCommand() *cobra.Command {
	var (
		puzzleName string
		registers  string
		cycles     string
		workers    int
		output     string
		noCache    bool
		plain      bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the pruning tables for a target ahead of time",
		Long: `Build the pruning tables for a target ahead of time.

Tables are stored in the cache so later solves skip the build, and can
additionally be exported to files with --output. Table files embed the
puzzle identity and coordinate scheme; loading rejects mismatches.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := puzzleByName(puzzleName)
			if err != nil {
				return err
			}
			target, err := parseTarget(def, registers, cycles)
			if err != nil {
				return err
			}

			var mgr *prune.Manager
			build := func(ctx context.Context) error {
				var err error
				mgr, err = prune.NewManager(ctx, def, target, prune.Options{
					Workers: pickInt(workers, c.Config.Workers),
					Policy:  prune.NeverGrow,
				})
				return err
			}

			if plain {
				err = build(cmd.Context())
			} else {
				err = runWithBuildProgress(cmd.Context(), build)
			}
			if err != nil {
				return err
			}

			return c.persistTables(cmd.Context(), def, target, mgr, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&puzzleName, "puzzle", "p", "cube222", "puzzle preset")
	cmd.Flags().StringVarP(&registers, "registers", "r", "all", "register slots (comma-separated, or \"all\")")
	cmd.Flags().StringVarP(&cycles, "cycles", "c", "", "cycle structure, e.g. \"3\" or \"3:1,2:0\"")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "parallel workers (0 = all cores)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "also export table files to this directory")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "skip storing tables in the cache")
	cmd.Flags().BoolVar(&plain, "plain", false, "disable the progress display")
	_ = cmd.MarkFlagRequired("cycles")

	return cmd
}

// persistTables writes the built tables to the cache and, optionally, files.
// Entries are keyed per target since the tables' goal seeds are
// target-specific.
func (c *CLI) persistTables(ctx context.Context, def *puzzle.Definition, target puzzle.Target, mgr *prune.Manager, output string, noCache bool) error {
	ca, err := c.newCache(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	defer ca.Close()
	keyer := cache.NewDefaultKeyer()

	tables := mgr.ExactTables()
	for _, tbl := range tables {
		data, err := prune.MarshalTable(def, target, tbl)
		if err != nil {
			return fmt.Errorf("serialize table %s: %w", tbl.Name(), err)
		}

		if !noCache {
			key := keyer.TableKey(def.ID(), tbl.Name(), target.Key())
			if err := ca.Set(ctx, key, data, cache.TableTTL); err != nil {
				printWarning("cache write failed for %s: %v", tbl.Name(), err)
			}
		}

		if output != "" {
			if err := os.MkdirAll(output, 0o755); err != nil {
				return err
			}
			path := filepath.Join(output, tableFileName(def, tbl))
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			printDetail("wrote %s", path)
		}

		printSuccess("%s: depth %d", tbl.Name(), tbl.MaxDepth())
	}
	printInfo("%d tables ready", len(tables))
	return nil
}

// tableFileName flattens a table name into a filesystem-safe file name,
// e.g. "cube222-perm-0-7.bin".
func tableFileName(def *puzzle.Definition, tbl *prune.Exact) string {
	name := tbl.Name()
	replacer := strings.NewReplacer("[", "-", "]", "", ",", "-")
	return fmt.Sprintf("%s-%s.bin", def.Name(), replacer.Replace(name))
}

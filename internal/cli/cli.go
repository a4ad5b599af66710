// Package cli implements the cyclesolver command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cyclesolver/pkg/archive"
	"github.com/matzehuels/cyclesolver/pkg/buildinfo"
	"github.com/matzehuels/cyclesolver/pkg/cache"
	"github.com/matzehuels/cyclesolver/pkg/solver"
)

// appName is the application name used for directories and display.
const appName = "cyclesolver"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config Config
}

// New creates a new CLI instance with a default logger and the on-disk
// configuration, falling back to defaults when no config file exists.
func New(w io.Writer, level log.Level) *CLI {
	cfg, err := LoadConfig("")
	if err != nil {
		cfg = DefaultConfig()
	}
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
		Config: cfg,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Cyclesolver finds shortest move sequences for cycle-structure targets",
		Long:         `Cyclesolver is a combinatorial search engine that finds the shortest move sequences producing a requested permutation cycle structure on a twisty puzzle, using symmetry reduction, orbit accounting, and admissible pruning tables.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.solveCommand())
	root.AddCommand(c.tablesCommand())
	root.AddCommand(c.orbitCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newSolver assembles a solver from the configured backends.
func (c *CLI) newSolver(ctx context.Context, noCache bool) (*solver.Solver, error) {
	ca, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	store, err := c.newArchive(ctx)
	if err != nil {
		_ = ca.Close()
		return nil, err
	}
	return solver.New(ca, nil, store, c.Logger), nil
}

// newCache picks the cache backend: Redis when configured, otherwise the
// XDG file cache. Falls back to a null cache when no directory is available.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache || c.Config.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	if c.Config.Cache.RedisAddr != "" {
		return cache.NewRedisCache(ctx, c.Config.Cache.RedisAddr,
			c.Config.Cache.RedisPassword, c.Config.Cache.RedisDB)
	}
	dir := c.Config.Cache.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// newArchive connects to the configured archive, or returns nil when
// archiving is not configured.
func (c *CLI) newArchive(ctx context.Context) (archive.Store, error) {
	if c.Config.Archive.MongoURI == "" {
		return nil, nil
	}
	db := c.Config.Archive.Database
	if db == "" {
		db = appName
	}
	return archive.NewMongoStore(ctx, c.Config.Archive.MongoURI, db)
}

// cacheDir returns the cache directory using the XDG standard
// (~/.cache/cyclesolver/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

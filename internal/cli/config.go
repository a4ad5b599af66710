package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the on-disk CLI configuration, read from
// ~/.config/cyclesolver/config.toml (or $XDG_CONFIG_HOME).
type Config struct {
	// Workers is the default parallelism for table builds and search.
	// Zero means NumCPU.
	Workers int `toml:"workers"`
	// MaxBound caps the deepest search iteration. Zero keeps the engine
	// default.
	MaxBound int `toml:"max_bound"`
	// MemoryBudgetMB caps background pruning-table growth, in MiB.
	MemoryBudgetMB int `toml:"memory_budget_mb"`

	Cache   CacheConfig   `toml:"cache"`
	Archive ArchiveConfig `toml:"archive"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	// Disabled turns caching off entirely.
	Disabled bool `toml:"disabled"`
	// Dir overrides the XDG file cache directory.
	Dir string `toml:"dir"`
	// RedisAddr switches to the Redis backend when set, e.g. "localhost:6379".
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// ArchiveConfig configures the solved-target archive.
type ArchiveConfig struct {
	// MongoURI enables archiving when set, e.g. "mongodb://localhost:27017".
	MongoURI string `toml:"mongo_uri"`
	// Database is the MongoDB database name. Defaults to "cyclesolver".
	Database string `toml:"database"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() Config {
	return Config{}
}

// MemoryBudget converts the configured MiB budget to bytes.
// Zero means the component default.
func (c Config) MemoryBudget() uint64 {
	return uint64(c.MemoryBudgetMB) << 20
}

// LoadConfig reads the config file at path, or the default location when
// path is empty. A missing file yields the defaults without error.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		var err error
		if path, err = configPath(); err != nil {
			return DefaultConfig(), nil
		}
	}
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return DefaultConfig(), err
	}
	return cfg, nil
}

// configPath returns the config file path using the XDG standard
// (~/.config/cyclesolver/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

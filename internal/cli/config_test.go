package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("missing file should yield defaults, got %+v", cfg)
	}
}

func TestLoadConfig_ParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
workers = 4
max_bound = 14
memory_budget_mb = 64

[cache]
redis_addr = "localhost:6379"
redis_db = 2

[archive]
mongo_uri = "mongodb://localhost:27017"
database = "solves"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Workers != 4 || cfg.MaxBound != 14 {
		t.Errorf("search settings not parsed: %+v", cfg)
	}
	if cfg.MemoryBudget() != 64<<20 {
		t.Errorf("MemoryBudget() = %d, want 64 MiB in bytes", cfg.MemoryBudget())
	}
	if cfg.Cache.RedisAddr != "localhost:6379" || cfg.Cache.RedisDB != 2 {
		t.Errorf("cache settings not parsed: %+v", cfg.Cache)
	}
	if cfg.Archive.MongoURI != "mongodb://localhost:27017" || cfg.Archive.Database != "solves" {
		t.Errorf("archive settings not parsed: %+v", cfg.Archive)
	}
}

func TestLoadConfig_InvalidToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("workers = ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("malformed config should return an error")
	}
}

func TestConfigPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	path, err := configPath()
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join("/tmp/xdg", appName, "config.toml") {
		t.Errorf("configPath = %s", path)
	}
}

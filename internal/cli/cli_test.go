package cli

import (
	"io"
	"testing"
)

func TestNew_DefaultsWithoutConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	c := New(io.Discard, LogInfo)
	if c.Logger == nil {
		t.Fatal("logger not initialized")
	}
	if c.Config != DefaultConfig() {
		t.Errorf("config = %+v, want defaults", c.Config)
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	root := New(io.Discard, LogInfo).RootCommand()
	if root.Use != appName {
		t.Errorf("root.Use = %s", root.Use)
	}

	want := map[string]bool{
		"solve": false, "tables": false, "orbit": false,
		"serve": false, "cache": false, "completion": false,
	}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %s not registered", name)
		}
	}
}

func TestCacheDir_XDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	dir, err := cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/tmp/xdg-cache/"+appName {
		t.Errorf("cacheDir = %s", dir)
	}
}

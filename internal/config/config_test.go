package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, FileName), "")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	path, ok, err := Find(nested)
	if err != nil || !ok {
		t.Fatalf("Find() = %q, %v, %v", path, ok, err)
	}
	if path != filepath.Join(root, FileName) {
		t.Fatalf("found %q", path)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	write(t, path, `
[bench]
order = "original"
iterations = 5
cache = true
colour = "blue"

[log]
level = "debug"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Bench.Order != "original" || cfg.Bench.Iterations != 5 || !cfg.Bench.CacheEnabled() {
		t.Fatalf("bench = %+v", cfg.Bench)
	}
	if cfg.Bench.Engine != "native" || cfg.Log.Format != "text" {
		t.Fatal("defaults lost")
	}
	if cfg.Log.Level != "debug" || cfg.Path != path {
		t.Fatalf("cfg = %+v", cfg)
	}
	if len(cfg.Unknown) != 1 || cfg.Unknown[0] != "bench.colour" {
		t.Fatalf("unknown = %v", cfg.Unknown)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"syntax":     "[bench\n",
		"order":      "[bench]\norder = \"sideways\"\n",
		"iterations": "[bench]\niterations = 0\n",
		"jobs":       "[bench]\njobs = -1\n",
		"ui":         "[bench]\nui = \"maybe\"\n",
		"engine":     "[bench]\nengine = \"v8\"\n",
		"format":     "[log]\nformat = \"xml\"\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			write(t, path, content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.HasPrefix(err.Error(), path) {
				t.Fatalf("error lacks path: %v", err)
			}
		})
	}
}

func TestDiscover(t *testing.T) {
	cfg, err := Discover("", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != "" || cfg.Bench.Iterations != 1 || cfg.Bench.CacheEnabled() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}

	explicit := filepath.Join(t.TempDir(), "other.toml")
	write(t, explicit, "[bench]\njobs = 3\n")
	cfg, err = Discover(explicit, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Bench.Jobs != 3 {
		t.Fatalf("jobs = %d", cfg.Bench.Jobs)
	}
}

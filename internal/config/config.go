// Package config loads smap.toml, the optional per-project settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the name looked up from the working directory upwards.
const FileName = "smap.toml"

// Config is the decoded settings file. Zero values mean "not set".
type Config struct {
	Bench Bench `toml:"bench"`
	Log   Log   `toml:"log"`

	// Path is the file the config was read from, empty for defaults.
	Path string `toml:"-"`
	// Unknown lists keys present in the file but not understood.
	Unknown []string `toml:"-"`
}

// Bench holds defaults for `smap bench`.
type Bench struct {
	Order      string `toml:"order"`
	Engine     string `toml:"engine"`
	Iterations int    `toml:"iterations"`
	Jobs       int    `toml:"jobs"`
	Cache      *bool  `toml:"cache"`
	UI         string `toml:"ui"`
}

// Log holds logger settings.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Bench: Bench{Order: "generated", Engine: "native", Iterations: 1, UI: "auto"},
		Log:   Log{Level: "warn", Format: "text"},
	}
}

// Find walks up from startDir looking for smap.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Load decodes path over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	cfg.Path = path
	for _, key := range meta.Undecoded() {
		cfg.Unknown = append(cfg.Unknown, key.String())
	}
	sort.Strings(cfg.Unknown)
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover loads explicit when set, otherwise the nearest smap.toml above
// startDir, otherwise the defaults.
func Discover(explicit, startDir string) (Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Bench.Order) {
	case "generated", "original":
	default:
		return fmt.Errorf("[bench].order must be generated or original, got %q", c.Bench.Order)
	}
	switch strings.ToLower(c.Bench.Engine) {
	case "native", "go-sourcemap":
	default:
		return fmt.Errorf("[bench].engine must be native or go-sourcemap, got %q", c.Bench.Engine)
	}
	if c.Bench.Iterations < 1 {
		return fmt.Errorf("[bench].iterations must be at least 1, got %d", c.Bench.Iterations)
	}
	if c.Bench.Jobs < 0 {
		return fmt.Errorf("[bench].jobs must not be negative, got %d", c.Bench.Jobs)
	}
	switch strings.ToLower(c.Bench.UI) {
	case "auto", "on", "off":
	default:
		return fmt.Errorf("[bench].ui must be auto, on or off, got %q", c.Bench.UI)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("[log].format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// CacheEnabled reports whether the mapping cache is on; it is off unless
// the file turns it on.
func (b Bench) CacheEnabled() bool {
	return b.Cache != nil && *b.Cache
}

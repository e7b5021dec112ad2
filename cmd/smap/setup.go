package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"smap/internal/config"
	"smap/internal/observ"
)

// session holds per-invocation state built in PersistentPreRunE.
type session struct {
	cfg      config.Config
	timer    *observ.Timer
	quiet    bool
	timings  bool
	cleanups []func()
}

var current = &session{cfg: config.Default(), timer: observ.NewTimer()}

func setupCommand(cmd *cobra.Command) error {
	root := cmd.Root()
	pf := root.PersistentFlags()

	colorMode, err := pf.GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	if err := applyColorMode(colorMode); err != nil {
		return err
	}
	quiet, err := pf.GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	timings, err := pf.GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	configPath, err := pf.GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}

	s := &session{timer: observ.NewTimer(), quiet: quiet, timings: timings}
	idx := s.timer.Begin("config")
	cfg, err := config.Discover(configPath, ".")
	if err != nil {
		return err
	}
	s.timer.End(idx, cfg.Path)
	s.cfg = cfg
	current = s

	if err := setupLogger(cmd, cfg.Log); err != nil {
		return err
	}
	if cfg.Path != "" {
		logger.WithField("path", cfg.Path).Debug("loaded config")
	}
	for _, key := range cfg.Unknown {
		logger.WithField("key", key).Warn("unknown config key")
	}

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	s.cleanups = append(s.cleanups, stopProfiling)

	stopTracing, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	s.cleanups = append(s.cleanups, stopTracing)
	return nil
}

// teardownCommand runs the cleanups registered by setupCommand. It runs
// after Execute returns so failed commands still flush profiles and traces.
func teardownCommand(w io.Writer) {
	s := current
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		s.cleanups[i]()
	}
	s.cleanups = nil
	if s.timings {
		fmt.Fprint(w, s.timer.Summary())
	}
}

func applyColorMode(mode string) error {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		color.NoColor = !isTerminal(os.Stdout)
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	return nil
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("error:"), err)
}

// flagOrConfig returns the flag value when it was set on the command line,
// otherwise fallback.
func flagOrConfig[T any](cmd *cobra.Command, name string, get func(string) (T, error), fallback T) (T, error) {
	v, err := get(name)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to get %s flag: %w", name, err)
	}
	if !cmd.Flags().Changed(name) {
		return fallback, nil
	}
	return v, nil
}

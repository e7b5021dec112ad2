package main

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"smap/internal/config"
)

var logger = logrus.New()

// setupLogger configures logger from config, with --log-level and
// --log-format taking precedence.
func setupLogger(cmd *cobra.Command, cfg config.Log) error {
	pf := cmd.Root().PersistentFlags()
	level, err := pf.GetString("log-level")
	if err != nil {
		return fmt.Errorf("failed to get log-level flag: %w", err)
	}
	format, err := pf.GetString("log-format")
	if err != nil {
		return fmt.Errorf("failed to get log-format flag: %w", err)
	}
	if level == "" {
		level = cfg.Level
	}
	if format == "" {
		format = cfg.Format
	}
	return configureLogger(logger, cmd, level, format)
}

func configureLogger(l *logrus.Logger, cmd *cobra.Command, level, format string) error {
	l.SetOutput(cmd.ErrOrStderr())
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	l.SetLevel(lvl)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("invalid log format %q (expected text|json)", format)
	}
	return nil
}

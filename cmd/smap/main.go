package main

import (
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"smap/internal/version"
)

// appFs is the filesystem commands read maps from.
var appFs = afero.NewOsFs()

var rootCmd = &cobra.Command{
	Use:           "smap",
	Short:         "Source map consumer, generator and benchmark harness",
	Long:          `smap parses source map v3 files, answers position queries, lints and re-serializes maps, and measures consumer performance.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupCommand(cmd)
	},
}

func init() {
	rootCmd.Version = version.Info()
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(mappingsCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)

	pf := rootCmd.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.String("config", "", "path to smap.toml (default: nearest one above the working directory)")
	pf.String("log-level", "", "log level (trace|debug|info|warn|error)")
	pf.String("log-format", "", "log format (text|json)")
	pf.String("cpu-profile", "", "write CPU profile to file")
	pf.String("mem-profile", "", "write heap profile to file")
	pf.String("runtime-trace", "", "write Go runtime trace to file")
	pf.String("trace", "", "trace output file (- for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "ring", "trace storage (stream|ring|both)")
	pf.Int("trace-ring-size", 4096, "ring buffer capacity in events")
	pf.Duration("trace-heartbeat", 0, "emit heartbeat events at this interval (0 disables)")
}

// main executes the root command. Any command error exits with status 1.
func main() {
	err := rootCmd.Execute()
	teardownCommand(os.Stderr)
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

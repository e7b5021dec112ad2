package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"smap/internal/diag"
	"smap/internal/loader"
	"smap/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Lint source maps and report problems",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().String("format", "short", "output format (short|json)")
	validateCmd.Flags().Int("max-diagnostics", 100, "maximum number of diagnostics per file (0 = all)")
	validateCmd.Flags().Bool("notes", true, "print notes under diagnostics")
	validateCmd.Flags().Bool("strict", false, "treat warnings as errors")
}

var errValidationFailed = errors.New("validation failed")

type validateOptions struct {
	format string
	limit  int
	notes  bool
	strict bool
	quiet  bool
}

func runValidate(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	opts := validateOptions{quiet: current.quiet}
	var err error
	if opts.format, err = flags.GetString("format"); err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if opts.limit, err = flags.GetInt("max-diagnostics"); err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if opts.notes, err = flags.GetBool("notes"); err != nil {
		return fmt.Errorf("failed to get notes flag: %w", err)
	}
	if opts.strict, err = flags.GetBool("strict"); err != nil {
		return fmt.Errorf("failed to get strict flag: %w", err)
	}
	switch opts.format {
	case "short", "json":
	default:
		return fmt.Errorf("unsupported format %q (must be short or json)", opts.format)
	}

	failed := false
	for _, path := range args {
		idx := current.timer.Begin("validate")
		name, bag := validateFile(path, opts.limit)
		current.timer.End(idx, path)

		if err := writeDiagnostics(cmd.OutOrStdout(), name, bag, opts); err != nil {
			return err
		}
		if bag.HasErrors() || (opts.strict && bag.HasWarnings()) {
			failed = true
		}
	}
	if failed {
		return errValidationFailed
	}
	return nil
}

// validateFile loads and lints path. Load failures become a diagnostic so
// every input produces a report.
func validateFile(path string, limit int) (string, *diag.Bag) {
	doc, err := loader.Load(appFs, path)
	if err != nil {
		bag := diag.NewBag(limit)
		bag.Add(diag.NewError(diag.IOLoadFileError, diag.Doc, err.Error()))
		return path, bag
	}
	return doc.MapURL, validate.Map(doc.Raw, limit)
}

func writeDiagnostics(out io.Writer, name string, bag *diag.Bag, opts validateOptions) error {
	if opts.format == "json" {
		return diag.WriteJSON(out, name, bag)
	}

	text := diag.FormatShort(name, bag.Items(), opts.notes)
	if text != "" {
		for _, line := range strings.Split(text, "\n") {
			label, rest, _ := strings.Cut(line, " ")
			if _, err := fmt.Fprintf(out, "%s %s\n", severityColor(label).Sprint(label), rest); err != nil {
				return err
			}
		}
	}
	if bag.Dropped() > 0 {
		fmt.Fprintf(out, "%s: %d more diagnostics not shown\n", name, bag.Dropped())
	}
	if !opts.quiet {
		fmt.Fprintln(out, summarizeBag(name, bag))
	}
	return nil
}

func severityColor(label string) *color.Color {
	switch label {
	case "error":
		return color.New(color.FgRed, color.Bold)
	case "warning":
		return color.New(color.FgYellow, color.Bold)
	case "note":
		return color.New(color.Faint)
	default:
		return color.New(color.FgCyan)
	}
}

func summarizeBag(name string, bag *diag.Bag) string {
	counts := map[diag.Severity]int{}
	for _, d := range bag.Items() {
		counts[d.Severity]++
	}
	if bag.Len() == 0 {
		return color.GreenString("%s: ok", name)
	}
	return fmt.Sprintf("%s: %d errors, %d warnings, %d infos",
		name, counts[diag.SevError], counts[diag.SevWarning], counts[diag.SevInfo])
}

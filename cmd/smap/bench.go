package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"smap/internal/bench"
	"smap/internal/mcache"
	"smap/internal/sourcemap"
)

var benchCmd = &cobra.Command{
	Use:   "bench <file>...",
	Short: "Time consumer construction plus a full traversal of each map",
	Long: `bench loads each file (a source map, or generated code with a sourceMappingURL
comment), then constructs a consumer and walks every mapping once. The time of
construction plus traversal is printed as "bench: <duration>".`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBenchCmd,
}

func init() {
	benchCmd.Flags().String("order", "generated", "traversal order (generated|original)")
	benchCmd.Flags().Int("iterations", 1, "timed runs per file")
	benchCmd.Flags().Int("jobs", 0, "files measured at once (0 = GOMAXPROCS)")
	benchCmd.Flags().String("engine", "native", "implementation to measure (native|go-sourcemap)")
	benchCmd.Flags().Bool("cache", false, "reuse decoded mappings from the on-disk cache")
	benchCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	benchCmd.Flags().String("format", "text", "output format (text|json)")
}

type benchOptions struct {
	files      []string
	order      sourcemap.Order
	engine     bench.Engine
	iterations int
	jobs       int
	cache      bool
	ui         uiMode
	format     string
	timings    bool
	quiet      bool
}

func readBenchOptions(cmd *cobra.Command, args []string) (benchOptions, error) {
	cfg := current.cfg.Bench
	flags := cmd.Flags()
	opts := benchOptions{files: args, timings: current.timings, quiet: current.quiet}

	orderStr, err := flagOrConfig(cmd, "order", flags.GetString, cfg.Order)
	if err != nil {
		return opts, err
	}
	if opts.order, err = sourcemap.ParseOrder(strings.ToLower(orderStr)); err != nil {
		return opts, err
	}
	engineStr, err := flagOrConfig(cmd, "engine", flags.GetString, cfg.Engine)
	if err != nil {
		return opts, err
	}
	if opts.engine, err = bench.ParseEngine(strings.ToLower(engineStr)); err != nil {
		return opts, err
	}
	if opts.iterations, err = flagOrConfig(cmd, "iterations", flags.GetInt, cfg.Iterations); err != nil {
		return opts, err
	}
	if opts.iterations < 1 {
		return opts, fmt.Errorf("--iterations must be at least 1, got %d", opts.iterations)
	}
	if opts.jobs, err = flagOrConfig(cmd, "jobs", flags.GetInt, cfg.Jobs); err != nil {
		return opts, err
	}
	if opts.cache, err = flagOrConfig(cmd, "cache", flags.GetBool, cfg.CacheEnabled()); err != nil {
		return opts, err
	}
	uiStr, err := flagOrConfig(cmd, "ui", flags.GetString, cfg.UI)
	if err != nil {
		return opts, err
	}
	if opts.ui, err = readUIMode(uiStr); err != nil {
		return opts, err
	}
	if opts.format, err = flags.GetString("format"); err != nil {
		return opts, fmt.Errorf("failed to get format flag: %w", err)
	}
	switch opts.format {
	case "text", "json":
	default:
		return opts, fmt.Errorf("unsupported format %q (must be text or json)", opts.format)
	}
	return opts, nil
}

func runBenchCmd(cmd *cobra.Command, args []string) error {
	opts, err := readBenchOptions(cmd, args)
	if err != nil {
		return err
	}
	req := &bench.Request{
		Files:      opts.files,
		Order:      opts.order,
		Engine:     opts.engine,
		Iterations: opts.iterations,
		Jobs:       opts.jobs,
		Fs:         appFs,
	}
	if opts.cache {
		if req.Cache, err = mcache.Open("smap"); err != nil {
			return fmt.Errorf("failed to open mapping cache: %w", err)
		}
	}
	logger.WithFields(logrus.Fields{
		"files":      len(opts.files),
		"order":      opts.order.String(),
		"engine":     opts.engine,
		"iterations": opts.iterations,
	}).Debug("bench starting")

	idx := current.timer.Begin("bench")
	var results []bench.Result
	var runErr error
	if opts.format == "text" && !opts.quiet && len(opts.files) > 1 && shouldUseTUI(opts.ui) {
		results, runErr = runBenchWithUI(cmd.Context(), "bench", req)
	} else {
		results, runErr = bench.Run(cmd.Context(), req)
	}
	current.timer.End(idx, fmt.Sprintf("%d files", len(opts.files)))

	for i := range results {
		r := &results[i]
		if r.Err != nil {
			logger.WithField("file", r.File).WithError(r.Err).Debug("bench failed")
			continue
		}
		current.timer.Record("  "+r.File, r.Timings.Sum(bench.Stages...), fmt.Sprintf("%d runs", len(r.Runs)))
	}

	if err := writeBenchResults(cmd.OutOrStdout(), results, opts); err != nil {
		return err
	}
	return runErr
}

func runBenchWithUI(ctx context.Context, title string, req *bench.Request) ([]bench.Result, error) {
	type outcome struct {
		results []bench.Result
		err     error
	}
	events := make(chan bench.Event, 256)
	done := make(chan outcome, 1)

	go func() {
		reqCopy := *req
		reqCopy.Progress = bench.ChannelSink{Ch: events}
		res, err := bench.Run(ctx, &reqCopy)
		done <- outcome{results: res, err: err}
		close(events)
	}()

	uiErr := runProgressUI(title, req.Files, events)
	// the UI may quit early; drain so the producer can finish
	for range events {
	}
	out := <-done
	if uiErr != nil {
		return out.results, uiErr
	}
	return out.results, out.err
}

type benchJSON struct {
	File     string             `json:"file"`
	Mappings int                `json:"mappings"`
	Runs     []int64            `json:"runs_ns,omitempty"`
	Best     int64              `json:"best_ns"`
	Mean     int64              `json:"mean_ns"`
	Stages   map[string]float64 `json:"stages_ms,omitempty"`
	Error    string             `json:"error,omitempty"`
}

func writeBenchResults(out io.Writer, results []bench.Result, opts benchOptions) error {
	if opts.format == "json" {
		payload := make([]benchJSON, 0, len(results))
		for _, r := range results {
			item := benchJSON{File: r.File, Mappings: r.Mappings, Best: int64(r.Best), Mean: int64(r.Mean)}
			for _, run := range r.Runs {
				item.Runs = append(item.Runs, int64(run))
			}
			for _, stage := range bench.Stages {
				if r.Timings.Has(stage) {
					if item.Stages == nil {
						item.Stages = make(map[string]float64, len(bench.Stages))
					}
					item.Stages[string(stage)] = toMillis(r.Timings.Duration(stage))
				}
			}
			if r.Err != nil {
				item.Error = r.Err.Error()
			}
			payload = append(payload, item)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}

	multi := len(results) > 1
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			// reported through the returned error
			continue
		}
		if _, err := fmt.Fprintln(out, bench.FormatResult(r, multi)); err != nil {
			return err
		}
		if opts.timings {
			printStageTimings(out, r.Timings)
		}
	}
	return nil
}

// Package bench measures how long it takes to construct a source map
// consumer and walk all of its mappings.
//
// The timed window of one run covers construction plus a full traversal.
// Disposal happens after the window closes and is reported separately.
package bench

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"smap/internal/loader"
	"smap/internal/mcache"
	"smap/internal/sourcemap"
	"smap/internal/trace"
)

// Request describes one benchmark invocation.
type Request struct {
	Files      []string
	Order      sourcemap.Order
	Engine     Engine
	Iterations int
	// Jobs bounds how many files are measured at once; <=0 means GOMAXPROCS.
	Jobs     int
	Fs       afero.Fs
	Cache    *mcache.Cache
	Progress ProgressSink
}

// Result is the measurement of one file.
type Result struct {
	File string
	// Mappings is the count seen by the last traversal, -1 when the
	// engine cannot enumerate.
	Mappings int
	Runs     []time.Duration
	Best     time.Duration
	Mean     time.Duration
	Timings  Timings
	Err      error
}

// Run measures every file in req. Results keep the order of req.Files;
// per-file failures are stored in Result.Err and joined into the returned
// error.
func Run(ctx context.Context, req *Request) ([]Result, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	local := *req
	req = &local
	if req.Order == 0 {
		req.Order = sourcemap.GeneratedOrder
	}
	if req.Iterations < 1 {
		req.Iterations = 1
	}
	if req.Fs == nil {
		req.Fs = afero.NewOsFs()
	}
	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	eng, err := engineFor(req.Engine, req.Cache)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(req.Files))
	emitQueued(req.Progress, req.Files)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, file := range req.Files {
		g.Go(func() error {
			results[i] = runFile(gctx, eng, req, file)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.File, r.Err))
		}
	}
	return results, errors.Join(errs...)
}

func runFile(ctx context.Context, eng engine, req *Request, file string) (res Result) {
	res = Result{File: file, Mappings: -1}
	ctx, span := trace.Start(ctx, trace.ScopeFile, "file:"+file)
	defer func() {
		detail := "ok"
		if res.Err != nil {
			detail = res.Err.Error()
		}
		span.WithExtra("runs", fmt.Sprint(len(res.Runs))).End(detail)
	}()

	if err := ctx.Err(); err != nil {
		res.Err = err
		emit(req.Progress, file, StageRead, StatusError, err, 0)
		return res
	}

	emit(req.Progress, file, StageRead, StatusWorking, nil, 0)
	start := time.Now()
	doc, err := loader.Load(req.Fs, file)
	res.Timings.Set(StageRead, time.Since(start))
	if err != nil {
		res.Err = err
		emit(req.Progress, file, StageRead, StatusError, err, res.Timings.Duration(StageRead))
		return res
	}

	for i := 0; i < req.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			res.Err = err
			break
		}
		if err := measure(ctx, eng, req, doc, &res); err != nil {
			res.Err = err
			break
		}
	}
	if res.Err != nil {
		emit(req.Progress, file, StageIterate, StatusError, res.Err, res.Timings.Sum(Stages...))
		return res
	}

	res.Best, res.Mean = summarize(res.Runs)
	emit(req.Progress, file, StageDispose, StatusDone, nil, res.Timings.Sum(Stages...))
	return res
}

// measure performs one timed run. Progress events and disposal happen
// outside the timed window; disposal runs whenever construction succeeded.
func measure(ctx context.Context, eng engine, req *Request, doc *loader.Document, res *Result) (err error) {
	emit(req.Progress, res.File, StageParse, StatusWorking, nil, 0)

	start := time.Now()
	s, err := eng.construct(ctx, doc)
	parsed := time.Now()
	res.Timings.Add(StageParse, parsed.Sub(start))
	if err != nil {
		return err
	}
	defer func() {
		disposeStart := time.Now()
		derr := s.dispose()
		res.Timings.Add(StageDispose, time.Since(disposeStart))
		if err == nil {
			err = derr
		}
	}()

	n, err := s.iterate(req.Order)
	end := time.Now()
	res.Timings.Add(StageIterate, end.Sub(parsed))
	emit(req.Progress, res.File, StageIterate, StatusWorking, nil, end.Sub(start))
	if err != nil {
		return err
	}
	res.Mappings = n
	res.Runs = append(res.Runs, end.Sub(start))
	return nil
}

func summarize(runs []time.Duration) (best, mean time.Duration) {
	if len(runs) == 0 {
		return 0, 0
	}
	best = runs[0]
	var total time.Duration
	for _, r := range runs {
		total += r
		if r < best {
			best = r
		}
	}
	return best, total / time.Duration(len(runs))
}

// FormatResult renders r as "bench: <duration>". The duration is the mean
// of all runs; with more than one run the best run is appended. withFile
// adds the file name.
func FormatResult(r *Result, withFile bool) string {
	if r.Err != nil {
		return fmt.Sprintf("bench: %s: %v", r.File, r.Err)
	}
	out := "bench: " + r.Mean.String()
	if len(r.Runs) > 1 {
		out += fmt.Sprintf(" (best %s, %d runs)", r.Best, len(r.Runs))
	}
	if withFile {
		out += " " + r.File
	}
	return out
}

package bench

import (
	"fmt"
	"time"
)

// Stage describes one step of measuring a file.
type Stage string

const (
	// StageRead reads and locates the map.
	StageRead Stage = "read"
	// StageParse constructs the consumer.
	StageParse Stage = "parse"
	// StageIterate walks every mapping once.
	StageIterate Stage = "iterate"
	// StageDispose releases the consumer. It is not part of the timed window.
	StageDispose Stage = "dispose"
)

// Stages lists the stages in execution order.
var Stages = []Stage{StageRead, StageParse, StageIterate, StageDispose}

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the file is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the file is in the stage.
	StatusWorking Status = "working"
	// StatusDone indicates the file is measured.
	StatusDone Status = "done"
	// StatusError indicates the file failed.
	StatusError Status = "error"
)

// Event reports progress for a file (or for the whole run when File is empty).
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// Engine selects the source map implementation being measured.
type Engine string

const (
	// EngineNative measures internal/sourcemap.
	EngineNative Engine = "native"
	// EngineGoSourcemap measures github.com/go-sourcemap/sourcemap, which
	// decodes everything while parsing and has no traversal API.
	EngineGoSourcemap Engine = "go-sourcemap"
)

// ParseEngine converts a flag value to Engine.
func ParseEngine(s string) (Engine, error) {
	switch Engine(s) {
	case EngineNative, "":
		return EngineNative, nil
	case EngineGoSourcemap:
		return EngineGoSourcemap, nil
	default:
		return "", fmt.Errorf("unsupported engine: %s (supported: native, go-sourcemap)", s)
	}
}

// Timings holds stage durations summed over all iterations.
type Timings struct {
	stages map[Stage]time.Duration
}

func (t *Timings) ensure() {
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
}

// Set stores a duration for the given stage.
func (t *Timings) Set(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	t.ensure()
	t.stages[stage] = dur
}

// Add accumulates a duration for the given stage.
func (t *Timings) Add(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	t.ensure()
	t.stages[stage] += dur
}

// Has reports whether a duration for stage is recorded.
func (t Timings) Has(stage Stage) bool {
	if t.stages == nil {
		return false
	}
	_, ok := t.stages[stage]
	return ok
}

// Duration returns the recorded duration for stage.
func (t Timings) Duration(stage Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	return t.stages[stage]
}

// Sum returns the sum of durations across the provided stages.
func (t Timings) Sum(stages ...Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	var total time.Duration
	for _, stage := range stages {
		total += t.stages[stage]
	}
	return total
}

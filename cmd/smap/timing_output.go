package main

import (
	"fmt"
	"io"
	"time"

	"smap/internal/bench"
)

func printStageTimings(out io.Writer, timings bench.Timings) {
	if out == nil {
		return
	}
	for _, stage := range bench.Stages {
		if !timings.Has(stage) {
			continue
		}
		fmt.Fprintf(out, "  %-8s %.3f ms\n", stage, toMillis(timings.Duration(stage)))
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

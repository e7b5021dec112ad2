// Package trace records spans for the phases of smap commands: reading a
// map, decoding its mappings, walking them and disposing the consumer.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	smap bench --trace=- --trace-level=phase app.js.map
//
// # Architecture
//
// The package provides several tracer implementations:
//
//   - Nop: zero-overhead tracer used when tracing is off
//   - StreamTracer: immediate write to a file or stderr
//   - RingTracer: circular buffer that can be dumped on failure
//   - MultiTracer: fan-out to several tracers
//
// # Levels and scopes
//
// LevelPhase emits command, file and phase spans. LevelDetail and
// LevelDebug add per-section spans of indexed maps.
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopeFile, "bench:app.js.map")
//	defer span.End("")
package trace

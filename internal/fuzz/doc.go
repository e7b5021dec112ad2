// Package fuzztests holds Go fuzz harnesses for the source map decoding
// path: VLQ digits, the mappings string, consumer construction and the
// validator. The harnesses look for panics and runaway allocation on
// arbitrary input; they do not check results against a reference.
//
// Run one with, for example:
//
//	go test ./internal/fuzz -run=^$ -fuzz=FuzzConsumer
package fuzztests

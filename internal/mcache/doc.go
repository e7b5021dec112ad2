// Package mcache keeps decoded mappings on disk so that repeated runs over
// the same source map skip VLQ decoding.
//
// Entries are msgpack-encoded and keyed by the SHA-256 of the raw mappings
// string, so a changed map never hits a stale entry.
package mcache

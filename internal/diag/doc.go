// Package diag defines the findings reported by the source map linter.
//
// Diagnostic is the central record:
//
//   - Severity: Info, Warning or Error.
//   - Code: numeric identifier with a stable string form (SM1001 ...).
//     Codes are grouped by thousands: 1xxx document, 2xxx mappings,
//     3xxx sections, 4xxx I/O.
//   - Message: short human text.
//   - At: the Location inside the map, see Location for the coordinates.
//   - Notes: optional secondary locations.
//
// Checks emit through a Reporter, usually a BagReporter, or through the
// ReportBuilder helpers when notes are attached. Bag supports a limit,
// sorting, deduplication and merging. Rendering to the short line form or
// JSON lives in format.go; colouring is left to the CLI.
package diag

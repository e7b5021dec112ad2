package diag

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// FormatShort renders one line per diagnostic:
//
//	error SM2001 app.js.map mappings@17 message
//
// Notes follow their diagnostic when includeNotes is set.
func FormatShort(path string, diags []Diagnostic, includeNotes bool) string {
	var b strings.Builder
	for i, d := range diags {
		if i > 0 {
			b.WriteByte('\n')
		}
		writeShort(&b, d.Severity.Label(), d.Code, path, d.At, d.Message)
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			b.WriteByte('\n')
			writeShort(&b, "note", d.Code, path, n.At, n.Msg)
		}
	}
	return b.String()
}

func writeShort(b *strings.Builder, label string, code Code, path string, at Location, msg string) {
	fmt.Fprintf(b, "%s %s %s", label, code.ID(), path)
	if loc := at.String(); loc != "" {
		b.WriteByte(' ')
		b.WriteString(loc)
	}
	b.WriteByte(' ')
	b.WriteString(sanitizeMessage(msg))
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}

// LocationJSON is the JSON form of Location.
type LocationJSON struct {
	Field  string `json:"field,omitempty"`
	Offset *int   `json:"offset,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// NoteJSON is the JSON form of Note.
type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

// DiagnosticJSON is the JSON form of Diagnostic.
type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Title    string       `json:"title"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
}

// Output is the root of the JSON report.
type Output struct {
	File        string           `json:"file"`
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	Dropped     int              `json:"dropped,omitempty"`
}

func makeLocation(at Location) LocationJSON {
	loc := LocationJSON{Field: at.Field, Line: at.Line, Column: at.Column}
	if at.Offset >= 0 {
		off := at.Offset
		loc.Offset = &off
	}
	return loc
}

// BuildOutput converts a bag into its JSON form.
func BuildOutput(path string, bag *Bag) Output {
	out := Output{File: path, Diagnostics: make([]DiagnosticJSON, 0, bag.Len()), Count: bag.Len(), Dropped: bag.Dropped()}
	for _, d := range bag.Items() {
		dj := DiagnosticJSON{
			Severity: d.Severity.Label(),
			Code:     d.Code.ID(),
			Title:    d.Code.Title(),
			Message:  d.Message,
			Location: makeLocation(d.At),
		}
		for _, n := range d.Notes {
			dj.Notes = append(dj.Notes, NoteJSON{Message: n.Msg, Location: makeLocation(n.At)})
		}
		out.Diagnostics = append(out.Diagnostics, dj)
	}
	return out
}

// WriteJSON writes the bag as an indented JSON document.
func WriteJSON(w io.Writer, path string, bag *Bag) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildOutput(path, bag))
}

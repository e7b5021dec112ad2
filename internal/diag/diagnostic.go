package diag

import (
	"strconv"
)

// Location points into a source map document. Field names the JSON member
// ("mappings", "sources", "sections[1].map"), empty for the document itself.
// For "mappings" Line and Column are the generated position of the segment.
type Location struct {
	Field  string
	Offset int // byte offset, or element index for array fields; -1 when unknown
	Line   int // 1-based, 0 when unknown
	Column int
}

// Doc is the location of the whole document.
var Doc = Location{Offset: -1}

func (l Location) String() string {
	s := l.Field
	switch {
	case l.Line > 0:
		if s != "" {
			s += ":"
		}
		s += strconv.Itoa(l.Line) + ":" + strconv.Itoa(l.Column)
	case l.Offset >= 0:
		s += "@" + strconv.Itoa(l.Offset)
	}
	return s
}

func (l Location) less(o Location) bool {
	if l.Field != o.Field {
		return l.Field < o.Field
	}
	if l.Line != o.Line {
		return l.Line < o.Line
	}
	if l.Column != o.Column {
		return l.Column < o.Column
	}
	return l.Offset < o.Offset
}

type Note struct {
	At  Location
	Msg string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	At       Location
	Notes    []Note
}

func New(sev Severity, code Code, at Location, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		At:       at,
		Message:  msg,
	}
}

func NewError(code Code, at Location, msg string) Diagnostic {
	return New(SevError, code, at, msg)
}

func (d Diagnostic) WithNote(at Location, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{At: at, Msg: msg})
	return d
}

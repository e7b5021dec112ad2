// Package mappings decodes the "mappings" field of a source map and answers
// position queries over the decoded list.
package mappings

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"fortio.org/safecast"

	"smap/internal/vlq"
)

// EndOfLine marks a mapping that spans to the end of its generated line.
const EndOfLine = math.MaxUint32

// Mapping is one decoded segment. Lines and columns are 0-based.
type Mapping struct {
	_msgpack struct{} `msgpack:",as_array"`

	GeneratedLine       uint32
	GeneratedColumn     uint32
	LastGeneratedColumn uint32
	Source              int32 // -1 when the segment has no original
	OriginalLine        uint32
	OriginalColumn      uint32
	Name                int32 // -1 when the segment has no name
}

// HasOriginal reports whether the mapping points into a source.
func (m Mapping) HasOriginal() bool { return m.Source >= 0 }

// HasName reports whether the mapping carries a name.
func (m Mapping) HasName() bool { return m.Name >= 0 }

var (
	// ErrInvalidSegment reports a segment with 2, 3 or more than 5 fields.
	ErrInvalidSegment = errors.New("invalid segment length")
	// ErrNegativeValue reports a running value that drops below zero.
	ErrNegativeValue = errors.New("negative value")
	// ErrOverflow reports a running value that no longer fits into 32 bits.
	ErrOverflow = errors.New("value overflow")
)

// DecodeError locates a decoding failure in the mappings string.
type DecodeError struct {
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("mappings: offset %d: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Segment is a mapping as it appears in the mappings string.
type Segment struct {
	Offset  int // byte offset of the segment's first field
	Fields  int // 1, 4 or 5
	Mapping Mapping
}

// Mappings is a decoded mappings string.
type Mappings struct {
	mu        sync.Mutex
	generated []Mapping
	sorted    bool
	original  []Mapping
	spans     bool
	maxSource int32
	maxName   int32
}

// Decode parses s. The result is sorted lazily on first query.
func Decode(s string) (*Mappings, error) {
	m := &Mappings{maxSource: -1, maxName: -1}
	m.generated = make([]Mapping, 0, estimateSegments(s))
	err := walk(s, func(seg Segment) {
		m.generated = append(m.generated, seg.Mapping)
		m.maxSource = max(m.maxSource, seg.Mapping.Source)
		m.maxName = max(m.maxName, seg.Mapping.Name)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// DecodeRaw parses s and returns the segments in file order.
func DecodeRaw(s string) ([]Segment, error) {
	segs := make([]Segment, 0, estimateSegments(s))
	err := walk(s, func(seg Segment) {
		segs = append(segs, seg)
	})
	return segs, err
}

// FromGenerated wraps a list already sorted by generated position, such as
// one restored from the disk cache.
func FromGenerated(list []Mapping) *Mappings {
	m := &Mappings{generated: list, sorted: true, maxSource: -1, maxName: -1}
	for i := range list {
		m.maxSource = max(m.maxSource, list[i].Source)
		m.maxName = max(m.maxName, list[i].Name)
	}
	return m
}

func estimateSegments(s string) int {
	n := 1
	for i := 0; i < len(s); i++ {
		if s[i] == ',' || s[i] == ';' {
			n++
		}
	}
	return n
}

func walk(s string, emit func(Segment)) error {
	var (
		line                      uint32
		column                    int64
		source, origLine, origCol int64
		name                      int64
		fields                    [5]int32
	)
	for pos := 0; pos < len(s); {
		switch s[pos] {
		case ';':
			line++
			column = 0
			pos++
			continue
		case ',':
			pos++
			continue
		}

		start := pos
		n := 0
		for pos < len(s) && s[pos] != ',' && s[pos] != ';' {
			if n == len(fields) {
				return &DecodeError{Offset: start, Err: ErrInvalidSegment}
			}
			v, next, err := vlq.Decode(s, pos)
			if err != nil {
				return &DecodeError{Offset: pos, Err: err}
			}
			fields[n] = v
			n++
			pos = next
		}
		if n == 2 || n == 3 {
			return &DecodeError{Offset: start, Err: ErrInvalidSegment}
		}

		column += int64(fields[0])
		mapping := Mapping{GeneratedLine: line, Source: -1, Name: -1}
		var err error
		if mapping.GeneratedColumn, err = narrow(column); err != nil {
			return &DecodeError{Offset: start, Err: err}
		}
		if n >= 4 {
			source += int64(fields[1])
			origLine += int64(fields[2])
			origCol += int64(fields[3])
			if mapping.Source, err = narrowIndex(source); err != nil {
				return &DecodeError{Offset: start, Err: err}
			}
			if mapping.OriginalLine, err = narrow(origLine); err != nil {
				return &DecodeError{Offset: start, Err: err}
			}
			if mapping.OriginalColumn, err = narrow(origCol); err != nil {
				return &DecodeError{Offset: start, Err: err}
			}
		}
		if n == 5 {
			name += int64(fields[4])
			if mapping.Name, err = narrowIndex(name); err != nil {
				return &DecodeError{Offset: start, Err: err}
			}
		}
		emit(Segment{Offset: start, Fields: n, Mapping: mapping})
	}
	return nil
}

func narrow(v int64) (uint32, error) {
	if v < 0 {
		return 0, ErrNegativeValue
	}
	u, err := safecast.Conv[uint32](v)
	if err != nil {
		return 0, ErrOverflow
	}
	return u, nil
}

func narrowIndex(v int64) (int32, error) {
	if v < 0 {
		return 0, ErrNegativeValue
	}
	i, err := safecast.Conv[int32](v)
	if err != nil {
		return 0, ErrOverflow
	}
	return i, nil
}

// Len returns the number of decoded mappings.
func (m *Mappings) Len() int { return len(m.generated) }

// MaxSource returns the largest source index referenced, or -1.
func (m *Mappings) MaxSource() int32 { return m.maxSource }

// MaxName returns the largest name index referenced, or -1.
func (m *Mappings) MaxName() int32 { return m.maxName }

// ByGenerated returns the mappings sorted by generated position. The slice
// is shared; callers must not modify it.
func (m *Mappings) ByGenerated() []Mapping {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byGeneratedLocked()
}

func (m *Mappings) byGeneratedLocked() []Mapping {
	if !m.sorted {
		slices.SortStableFunc(m.generated, CompareGenerated)
		m.sorted = true
	}
	return m.generated
}

// ByOriginal returns the mappings that have an original position, sorted
// by original position. The slice is shared; callers must not modify it.
func (m *Mappings) ByOriginal() []Mapping {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byOriginalLocked()
}

func (m *Mappings) byOriginalLocked() []Mapping {
	if m.original != nil {
		return m.original
	}
	gen := m.byGeneratedLocked()
	list := make([]Mapping, 0, len(gen))
	for _, mp := range gen {
		if mp.HasOriginal() {
			list = append(list, mp)
		}
	}
	slices.SortStableFunc(list, CompareOriginal)
	m.original = list
	return list
}

// HasSpans reports whether ComputeColumnSpans has run.
func (m *Mappings) HasSpans() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spans
}

// ComputeColumnSpans fills LastGeneratedColumn: the column before the next
// mapping on the same line, or EndOfLine for the last one.
func (m *Mappings) ComputeColumnSpans() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.spans {
		return
	}
	gen := m.byGeneratedLocked()
	for i := range gen {
		cur := &gen[i]
		if i+1 < len(gen) && gen[i+1].GeneratedLine == cur.GeneratedLine {
			next := gen[i+1].GeneratedColumn
			if next > cur.GeneratedColumn {
				cur.LastGeneratedColumn = next - 1
			} else {
				cur.LastGeneratedColumn = cur.GeneratedColumn
			}
			continue
		}
		cur.LastGeneratedColumn = EndOfLine
	}
	m.spans = true
	// the original ordering holds copies; rebuild it with spans
	m.original = nil
}

// CompareGenerated orders by generated position, then by original position
// and name. Absent sources and names sort last.
func CompareGenerated(a, b Mapping) int {
	if c := cmpUint(a.GeneratedLine, b.GeneratedLine); c != 0 {
		return c
	}
	if c := cmpUint(a.GeneratedColumn, b.GeneratedColumn); c != 0 {
		return c
	}
	if c := cmpIndex(a.Source, b.Source); c != 0 {
		return c
	}
	if c := cmpUint(a.OriginalLine, b.OriginalLine); c != 0 {
		return c
	}
	if c := cmpUint(a.OriginalColumn, b.OriginalColumn); c != 0 {
		return c
	}
	return cmpIndex(a.Name, b.Name)
}

// CompareOriginal orders by source, original position, generated position
// and name.
func CompareOriginal(a, b Mapping) int {
	if c := cmpIndex(a.Source, b.Source); c != 0 {
		return c
	}
	if c := cmpUint(a.OriginalLine, b.OriginalLine); c != 0 {
		return c
	}
	if c := cmpUint(a.OriginalColumn, b.OriginalColumn); c != 0 {
		return c
	}
	if c := cmpUint(a.GeneratedLine, b.GeneratedLine); c != 0 {
		return c
	}
	if c := cmpUint(a.GeneratedColumn, b.GeneratedColumn); c != 0 {
		return c
	}
	return cmpIndex(a.Name, b.Name)
}

func cmpUint(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpIndex(a, b int32) int {
	switch {
	case a == b:
		return 0
	case a < 0:
		return 1
	case b < 0:
		return -1
	case a < b:
		return -1
	}
	return 1
}

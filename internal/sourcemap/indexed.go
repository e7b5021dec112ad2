package sourcemap

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"smap/internal/bsearch"
	"smap/internal/trace"
)

type section struct {
	// 0-based generated position of the section start
	line, column int
	consumer     *BasicConsumer
}

// IndexedConsumer reads a source map made of sections. Each section is a
// complete map placed at an offset of the generated file.
type IndexedConsumer struct {
	mu       sync.Mutex
	file     string
	sections []section
	closed   bool
}

func newIndexed(ctx context.Context, raw *RawMap, o options) (*IndexedConsumer, error) {
	if err := checkVersion(raw.Version); err != nil {
		return nil, err
	}

	// offsets are validated in order before any section is built
	last := RawOffset{Line: -1}
	for i, s := range raw.Sections {
		if s.URL != "" {
			return nil, fmt.Errorf("%w: section %d", ErrSectionURL, i)
		}
		if s.Map == nil {
			return nil, fmt.Errorf("%w: section %d", ErrMissingSectionMap, i)
		}
		if s.Map.IsIndexed() {
			return nil, fmt.Errorf("%w: section %d", ErrNestedSections, i)
		}
		if s.Offset.Line < 0 || s.Offset.Column < 0 {
			return nil, fmt.Errorf("%w: section %d starts at %d:%d", ErrSectionOrder, i, s.Offset.Line, s.Offset.Column)
		}
		if s.Offset.Line < last.Line || (s.Offset.Line == last.Line && s.Offset.Column < last.Column) {
			return nil, fmt.Errorf("%w: section %d at %d:%d follows %d:%d",
				ErrSectionOrder, i, s.Offset.Line, s.Offset.Column, last.Line, last.Column)
		}
		last = s.Offset
	}

	ctx, span := trace.Start(ctx, trace.ScopePhase, "sections")
	defer span.WithExtra("count", strconv.Itoa(len(raw.Sections))).End("")

	c := &IndexedConsumer{
		file:     raw.File,
		sections: make([]section, len(raw.Sections)),
	}

	g, gctx := errgroup.WithContext(ctx)
	if o.concurrency > 0 {
		g.SetLimit(o.concurrency)
	}
	for i := range raw.Sections {
		s := raw.Sections[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sctx, sspan := trace.Start(gctx, trace.ScopeSection, "section:"+strconv.Itoa(i))
			defer sspan.End("")
			consumer, err := newBasic(sctx, s.Map, o)
			if err != nil {
				return fmt.Errorf("section %d: %w", i, err)
			}
			c.sections[i] = section{line: s.Offset.Line, column: s.Offset.Column, consumer: consumer}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return c, nil
}

// File returns the "file" field.
func (c *IndexedConsumer) File() string { return c.file }

// SourceRoot is always empty; each section has its own.
func (c *IndexedConsumer) SourceRoot() string { return "" }

// Sources returns the sources of all sections, in section order.
func (c *IndexedConsumer) Sources() []string {
	var out []string
	for _, s := range c.sections {
		out = append(out, s.consumer.Sources()...)
	}
	return out
}

// Sections returns the number of sections.
func (c *IndexedConsumer) Sections() int { return len(c.sections) }

func (c *IndexedConsumer) checkOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}

// shift moves a section-local mapping to its place in the generated file.
func (s *section) shift(m Mapping) Mapping {
	if m.Generated.Line == 1 {
		m.Generated.Column += s.column
		if m.LastGeneratedColumn >= 0 && m.LastGeneratedColumn != ColumnEndOfLine {
			m.LastGeneratedColumn += s.column
		}
	}
	m.Generated.Line += s.line
	return m
}

// EachMapping walks the sections in order. A span that reaches the end of
// a line stops where the next section begins.
func (c *IndexedConsumer) EachMapping(order Order, fn func(Mapping)) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	for i := range c.sections {
		s := &c.sections[i]
		var next *section
		if i+1 < len(c.sections) {
			next = &c.sections[i+1]
		}
		err := s.consumer.EachMapping(order, func(m Mapping) {
			m = s.shift(m)
			if next != nil && m.LastGeneratedColumn == ColumnEndOfLine && m.Generated.Line == next.line+1 {
				m.LastGeneratedColumn = max(next.column-1, m.Generated.Column)
			}
			fn(m)
		})
		if err != nil {
			return fmt.Errorf("section %d: %w", i, err)
		}
	}
	return nil
}

// OriginalPositionFor looks up the section covering generated and queries it.
func (c *IndexedConsumer) OriginalPositionFor(generated Position, bias Bias) (Mapping, bool, error) {
	if err := checkPosition(generated); err != nil {
		return Mapping{}, false, err
	}
	if err := c.checkOpen(); err != nil {
		return Mapping{}, false, err
	}

	line0 := generated.Line - 1
	i := bsearch.Search(generated, c.sections, func(p Position, s section) int {
		if d := (p.Line - 1) - s.line; d != 0 {
			return d
		}
		return p.Column - s.column
	}, func(a, b section) bool {
		return a.line == b.line && a.column == b.column
	}, GreatestLowerBound)
	if i < 0 {
		return Mapping{}, false, nil
	}
	s := &c.sections[i]

	local := Position{Line: line0 - s.line + 1, Column: generated.Column}
	if line0 == s.line {
		local.Column -= s.column
	}
	m, ok, err := s.consumer.OriginalPositionFor(local, bias)
	if err != nil || !ok {
		return Mapping{}, false, err
	}
	return s.shift(m), true, nil
}

// GeneratedPositionFor asks every section that knows source, in order, and
// returns the first hit.
func (c *IndexedConsumer) GeneratedPositionFor(source string, original Position, bias Bias) (Mapping, bool, error) {
	if err := checkPosition(original); err != nil {
		return Mapping{}, false, err
	}
	if err := c.checkOpen(); err != nil {
		return Mapping{}, false, err
	}
	for i := range c.sections {
		s := &c.sections[i]
		if _, ok := s.consumer.findSource(source); !ok {
			continue
		}
		m, ok, err := s.consumer.GeneratedPositionFor(source, original, bias)
		if err != nil {
			return Mapping{}, false, err
		}
		if ok {
			return s.shift(m), true, nil
		}
	}
	return Mapping{}, false, nil
}

// AllGeneratedPositionsFor collects the matches of every section.
func (c *IndexedConsumer) AllGeneratedPositionsFor(source string, line, column int, hasColumn bool) ([]Mapping, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	var out []Mapping
	for i := range c.sections {
		s := &c.sections[i]
		found, err := s.consumer.AllGeneratedPositionsFor(source, line, column, hasColumn)
		if err != nil {
			return nil, err
		}
		for _, m := range found {
			out = append(out, s.shift(m))
		}
	}
	return out, nil
}

// ComputeColumnSpans computes spans in every section.
func (c *IndexedConsumer) ComputeColumnSpans() error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	for i := range c.sections {
		if err := c.sections[i].consumer.ComputeColumnSpans(); err != nil {
			return fmt.Errorf("section %d: %w", i, err)
		}
	}
	return nil
}

// HasContentsOfAllSources reports whether every section embeds all sources.
func (c *IndexedConsumer) HasContentsOfAllSources() bool {
	for i := range c.sections {
		if !c.sections[i].consumer.HasContentsOfAllSources() {
			return false
		}
	}
	return true
}

// SourceContentFor returns the content from the first section that has it.
func (c *IndexedConsumer) SourceContentFor(source string) (string, bool) {
	for i := range c.sections {
		if content, ok := c.sections[i].consumer.SourceContentFor(source); ok {
			return content, true
		}
	}
	return "", false
}

// Close closes every section.
func (c *IndexedConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.closed = true
	for i := range c.sections {
		// sections are only closed here, so ErrClosed cannot occur
		_ = c.sections[i].consumer.Close()
	}
	return nil
}

package sourcemap

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"

	"smap/internal/arrayset"
	"smap/internal/mappings"
	"smap/internal/mcache"
	"smap/internal/srcurl"
	"smap/internal/trace"
)

// BasicConsumer reads a source map without sections.
type BasicConsumer struct {
	mu sync.Mutex

	file           string
	sourceRoot     string
	names          []string
	sourcesContent []*string
	rawMappings    string
	mapURL         string
	sources        *arrayset.Set

	cache  *mcache.Cache
	tracer trace.Tracer
	parent uint64

	mappings *mappings.Mappings
	lookup   map[string]int
	nfc      map[string]int
	closed   bool
}

func newBasic(ctx context.Context, raw *RawMap, o options) (*BasicConsumer, error) {
	if err := checkVersion(raw.Version); err != nil {
		return nil, err
	}
	tracer, parent := tracerOf(ctx)

	abs := make([]string, len(raw.Sources))
	for i, s := range raw.Sources {
		abs[i] = srcurl.ComputeSourceURL(raw.SourceRoot, s, o.mapURL)
	}

	return &BasicConsumer{
		file:           raw.File,
		sourceRoot:     raw.SourceRoot,
		names:          raw.Names,
		sourcesContent: raw.SourcesContent,
		rawMappings:    raw.Mappings,
		mapURL:         o.mapURL,
		sources:        arrayset.FromSlice(abs, true),
		cache:          o.cache,
		tracer:         tracer,
		parent:         parent,
		lookup:         make(map[string]int),
	}, nil
}

// File returns the "file" field.
func (c *BasicConsumer) File() string { return c.file }

// SourceRoot returns the "sourceRoot" field.
func (c *BasicConsumer) SourceRoot() string { return c.sourceRoot }

// Sources returns the absolute source URLs in map order.
func (c *BasicConsumer) Sources() []string { return c.sources.Slice() }

// Names returns the "names" field.
func (c *BasicConsumer) Names() []string { return c.names }

// decoded returns the decoded mappings, decoding them on first use.
func (c *BasicConsumer) decoded() (*mappings.Mappings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if c.mappings != nil {
		return c.mappings, nil
	}

	span := trace.Begin(c.tracer, trace.ScopePhase, "decode", c.parent)
	m, source, err := c.load()
	if err != nil {
		span.End(err.Error())
		return nil, err
	}
	if limit := c.sources.Len(); int(m.MaxSource()) >= limit {
		err = fmt.Errorf("%w: %d, map has %d sources", ErrSourceIndex, m.MaxSource(), limit)
	} else if int(m.MaxName()) >= len(c.names) {
		err = fmt.Errorf("%w: %d, map has %d names", ErrNameIndex, m.MaxName(), len(c.names))
	}
	if err != nil {
		span.End(err.Error())
		return nil, err
	}
	span.WithExtra("mappings", strconv.Itoa(m.Len())).WithExtra("from", source).End("")

	c.mappings = m
	return m, nil
}

func (c *BasicConsumer) load() (*mappings.Mappings, string, error) {
	if c.cache == nil {
		m, err := mappings.Decode(c.rawMappings)
		return m, "vlq", err
	}

	key := mcache.KeyOf(c.rawMappings)
	if list, ok, err := c.cache.Get(key); err == nil && ok {
		return mappings.FromGenerated(list), "cache", nil
	}
	m, err := mappings.Decode(c.rawMappings)
	if err != nil {
		return nil, "vlq", err
	}
	if err := c.cache.Put(key, m.ByGenerated()); err != nil {
		trace.Point(c.tracer, trace.ScopePhase, "cache-write", err.Error(), c.parent)
	}
	return m, "vlq", nil
}

// resolve converts a decoded mapping into the caller-facing form.
func (c *BasicConsumer) resolve(m mappings.Mapping, spans bool) Mapping {
	out := Mapping{
		Generated: Position{
			Line:   int(m.GeneratedLine) + 1,
			Column: int(m.GeneratedColumn),
		},
		LastGeneratedColumn: ColumnUnknown,
	}
	if spans {
		if m.LastGeneratedColumn == mappings.EndOfLine {
			out.LastGeneratedColumn = ColumnEndOfLine
		} else {
			out.LastGeneratedColumn = int(m.LastGeneratedColumn)
		}
	}
	if m.HasOriginal() {
		out.Source, _ = c.sources.At(int(m.Source))
		out.Original = Position{
			Line:   int(m.OriginalLine) + 1,
			Column: int(m.OriginalColumn),
		}
		if m.HasName() {
			out.Name = c.names[m.Name]
		}
	}
	return out
}

// EachMapping calls fn once per mapping in the given order.
func (c *BasicConsumer) EachMapping(order Order, fn func(Mapping)) error {
	m, err := c.decoded()
	if err != nil {
		return err
	}

	var list []mappings.Mapping
	switch order {
	case GeneratedOrder:
		list = m.ByGenerated()
	case OriginalOrder:
		list = m.ByOriginal()
	default:
		return fmt.Errorf("%w: %d", ErrInvalidOrder, order)
	}

	span := trace.Begin(c.tracer, trace.ScopePhase, "iterate", c.parent)
	spans := m.HasSpans()
	for i := range list {
		fn(c.resolve(list[i], spans))
	}
	span.WithExtra("order", order.String()).End("")
	return nil
}

// OriginalPositionFor returns the original position for a generated one.
// ok is false when no mapping with an original covers the position.
func (c *BasicConsumer) OriginalPositionFor(generated Position, bias Bias) (Mapping, bool, error) {
	if err := checkPosition(generated); err != nil {
		return Mapping{}, false, err
	}
	m, err := c.decoded()
	if err != nil {
		return Mapping{}, false, err
	}
	line, col, err := toUint(generated)
	if err != nil {
		return Mapping{}, false, err
	}

	found, ok := m.OriginalLocationFor(line, col, bias)
	if !ok || !found.HasOriginal() {
		return Mapping{}, false, nil
	}
	return c.resolve(found, m.HasSpans()), true, nil
}

// GeneratedPositionFor returns the generated position for an original one.
// source may be given relative to the map URL or to the source root.
func (c *BasicConsumer) GeneratedPositionFor(source string, original Position, bias Bias) (Mapping, bool, error) {
	if err := checkPosition(original); err != nil {
		return Mapping{}, false, err
	}
	m, err := c.decoded()
	if err != nil {
		return Mapping{}, false, err
	}
	idx, ok := c.findSource(source)
	if !ok {
		return Mapping{}, false, nil
	}
	line, col, err := toUint(original)
	if err != nil {
		return Mapping{}, false, err
	}
	src, err := safecast.Conv[int32](idx)
	if err != nil {
		return Mapping{}, false, err
	}

	found, ok := m.GeneratedLocationFor(src, line, col, bias)
	if !ok {
		return Mapping{}, false, nil
	}
	return c.resolve(found, m.HasSpans()), true, nil
}

// AllGeneratedPositionsFor returns every generated position for an original
// line, or for the closest original column at or after column when
// hasColumn is set.
func (c *BasicConsumer) AllGeneratedPositionsFor(source string, line, column int, hasColumn bool) ([]Mapping, error) {
	if !hasColumn {
		column = 0
	}
	if err := checkPosition(Position{Line: line, Column: column}); err != nil {
		return nil, err
	}
	m, err := c.decoded()
	if err != nil {
		return nil, err
	}
	idx, ok := c.findSource(source)
	if !ok {
		return nil, nil
	}
	l, col, err := toUint(Position{Line: line, Column: column})
	if err != nil {
		return nil, err
	}
	src, err := safecast.Conv[int32](idx)
	if err != nil {
		return nil, err
	}

	found := m.AllGeneratedLocationsFor(src, l, col, hasColumn)
	spans := m.HasSpans()
	out := make([]Mapping, len(found))
	for i := range found {
		out[i] = c.resolve(found[i], spans)
	}
	return out, nil
}

// ComputeColumnSpans fills LastGeneratedColumn of every mapping.
func (c *BasicConsumer) ComputeColumnSpans() error {
	m, err := c.decoded()
	if err != nil {
		return err
	}
	m.ComputeColumnSpans()
	return nil
}

// HasContentsOfAllSources reports whether every source has embedded content.
func (c *BasicConsumer) HasContentsOfAllSources() bool {
	if len(c.sourcesContent) < c.sources.Len() {
		return false
	}
	for _, sc := range c.sourcesContent {
		if sc == nil {
			return false
		}
	}
	return true
}

// SourceContentFor returns the embedded content of source.
func (c *BasicConsumer) SourceContentFor(source string) (string, bool) {
	if len(c.sourcesContent) == 0 {
		return "", false
	}
	idx, ok := c.findSource(source)
	if !ok || idx >= len(c.sourcesContent) || c.sourcesContent[idx] == nil {
		return "", false
	}
	return *c.sourcesContent[idx], true
}

// Close drops decoded mappings and caches.
func (c *BasicConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.closed = true
	c.mappings = nil
	c.lookup = nil
	c.nfc = nil
	return nil
}

// findSource returns the index of source, which may be absolute, relative
// to the map URL or relative to the source root.
func (c *BasicConsumer) findSource(source string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, false
	}
	if idx, ok := c.lookup[source]; ok {
		return idx, true
	}

	candidates := [...]string{
		srcurl.ComputeSourceURL("", source, c.mapURL),
		srcurl.ComputeSourceURL(c.sourceRoot, source, c.mapURL),
	}
	for _, cand := range candidates {
		if idx, ok := c.sources.IndexOf(cand); ok {
			c.lookup[source] = idx
			return idx, true
		}
	}

	// differently composed unicode in file names
	if c.nfc == nil {
		c.nfc = make(map[string]int, c.sources.Len())
		for i, s := range c.sources.Slice() {
			key := nfcKey(s)
			if _, dup := c.nfc[key]; !dup {
				c.nfc[key] = i
			}
		}
	}
	for _, cand := range candidates {
		if idx, ok := c.nfc[nfcKey(cand)]; ok {
			c.lookup[source] = idx
			return idx, true
		}
	}
	return 0, false
}

// nfcKey undoes the percent-encoding applied by srcurl before composing, so
// "cafe%CC%81.js" and "caf%C3%A9.js" share a key.
func nfcKey(u string) string {
	if dec, err := url.PathUnescape(u); err == nil {
		u = dec
	}
	return norm.NFC.String(u)
}

func toUint(p Position) (uint32, uint32, error) {
	line, err := safecast.Conv[uint32](p.Line - 1)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: line %d: %w", ErrInvalidPosition, p.Line, err)
	}
	col, err := safecast.Conv[uint32](p.Column)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: column %d: %w", ErrInvalidPosition, p.Column, err)
	}
	return line, col, nil
}

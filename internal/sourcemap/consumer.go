package sourcemap

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"smap/internal/bsearch"
	"smap/internal/mcache"
	"smap/internal/trace"
)

// Position is a location in a file. Lines are 1-based, columns 0-based.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

const (
	// ColumnUnknown is the LastGeneratedColumn before column spans are computed.
	ColumnUnknown = -1
	// ColumnEndOfLine is the LastGeneratedColumn of a mapping that spans to
	// the end of its line.
	ColumnEndOfLine = math.MaxInt32
)

// Mapping is a resolved mapping as handed to callers. Source is the
// absolute source URL; Original is zero when the mapping has no original.
type Mapping struct {
	Generated           Position `json:"generated"`
	Original            Position `json:"original"`
	Source              string   `json:"source,omitempty"`
	Name                string   `json:"name,omitempty"`
	LastGeneratedColumn int      `json:"lastGeneratedColumn"`
}

// HasOriginal reports whether the mapping points into a source.
func (m Mapping) HasOriginal() bool { return m.Original.Line > 0 }

// Order selects the traversal order of EachMapping.
type Order uint8

const (
	// GeneratedOrder walks mappings by generated line and column.
	GeneratedOrder Order = 1
	// OriginalOrder walks mappings by source, original line and column.
	OriginalOrder Order = 2
)

func (o Order) String() string {
	switch o {
	case GeneratedOrder:
		return "generated"
	case OriginalOrder:
		return "original"
	default:
		return "unknown"
	}
}

// ParseOrder converts a flag value to Order.
func ParseOrder(s string) (Order, error) {
	switch s {
	case "generated", "1":
		return GeneratedOrder, nil
	case "original", "2":
		return OriginalOrder, nil
	default:
		return 0, fmt.Errorf("invalid order: %q (expected: generated|original)", s)
	}
}

// Bias selects the neighbour returned when a lookup misses.
type Bias = bsearch.Bias

const (
	GreatestLowerBound = bsearch.GreatestLowerBound
	LeastUpperBound    = bsearch.LeastUpperBound
)

// ParseBias converts a flag value to Bias.
func ParseBias(s string) (Bias, error) {
	switch s {
	case "glb", "greatest-lower-bound", "":
		return GreatestLowerBound, nil
	case "lub", "least-upper-bound":
		return LeastUpperBound, nil
	default:
		return 0, fmt.Errorf("invalid bias: %q (expected: glb|lub)", s)
	}
}

var (
	ErrClosed             = errors.New("sourcemap: consumer is closed")
	ErrUnsupportedVersion = errors.New("sourcemap: unsupported version")
	ErrSectionOrder       = errors.New("sourcemap: section offsets must be ordered and non-overlapping")
	ErrSectionURL         = errors.New("sourcemap: sections with url are not supported")
	ErrNestedSections     = errors.New("sourcemap: nested sections are not supported")
	ErrMissingSectionMap  = errors.New("sourcemap: section has no map")
	ErrInvalidPosition    = errors.New("sourcemap: invalid position")
	ErrSourceIndex        = errors.New("sourcemap: source index out of range")
	ErrNameIndex          = errors.New("sourcemap: name index out of range")
	ErrInvalidOrder       = errors.New("sourcemap: invalid order")
)

// Consumer answers queries about a parsed source map. Every method returns
// ErrClosed after Close.
type Consumer interface {
	File() string
	SourceRoot() string
	// Sources returns the absolute URLs of all sources.
	Sources() []string

	// EachMapping calls fn once per mapping in the given order.
	EachMapping(order Order, fn func(Mapping)) error

	OriginalPositionFor(generated Position, bias Bias) (Mapping, bool, error)
	GeneratedPositionFor(source string, original Position, bias Bias) (Mapping, bool, error)
	AllGeneratedPositionsFor(source string, line, column int, hasColumn bool) ([]Mapping, error)

	ComputeColumnSpans() error
	HasContentsOfAllSources() bool
	SourceContentFor(source string) (string, bool)

	// Close releases decoded mappings and lookup caches.
	Close() error
}

var (
	_ Consumer = (*BasicConsumer)(nil)
	_ Consumer = (*IndexedConsumer)(nil)
)

// Option configures consumer construction.
type Option func(*options)

type options struct {
	mapURL      string
	cache       *mcache.Cache
	concurrency int
}

// WithSourceMapURL sets the URL the map was loaded from; relative sources
// resolve against its directory.
func WithSourceMapURL(url string) Option {
	return func(o *options) { o.mapURL = url }
}

// WithCache stores and reuses decoded mappings in c.
func WithCache(c *mcache.Cache) Option {
	return func(o *options) { o.cache = c }
}

// WithConcurrency bounds how many sections of an indexed map are built at
// once. Values below 1 mean no limit.
func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New parses data and builds a BasicConsumer, or an IndexedConsumer when the
// map has sections. Mappings are decoded on first use.
func New(ctx context.Context, data []byte, opts ...Option) (Consumer, error) {
	raw, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return NewFromRaw(ctx, raw, opts...)
}

// NewFromRaw builds a consumer from an already decoded document.
func NewFromRaw(ctx context.Context, raw *RawMap, opts ...Option) (Consumer, error) {
	o := buildOptions(opts)
	if raw.IsIndexed() {
		return newIndexed(ctx, raw, o)
	}
	return newBasic(ctx, raw, o)
}

func checkVersion(v Version) error {
	if v != SupportedVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	return nil
}

func checkPosition(p Position) error {
	if p.Line < 1 {
		return fmt.Errorf("%w: line %d, lines start at 1", ErrInvalidPosition, p.Line)
	}
	if p.Column < 0 {
		return fmt.Errorf("%w: column %d, columns start at 0", ErrInvalidPosition, p.Column)
	}
	return nil
}

func tracerOf(ctx context.Context) (trace.Tracer, uint64) {
	return trace.FromContext(ctx), trace.CurrentSpan(ctx).SpanID
}

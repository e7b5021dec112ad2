package sourcemap

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smap/internal/mappings"
	"smap/internal/mcache"
	"smap/internal/trace"
)

func newConsumer(t *testing.T, data string, opts ...Option) Consumer {
	t.Helper()
	c, err := New(context.Background(), []byte(data), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func collect(t *testing.T, c Consumer, order Order) []Mapping {
	t.Helper()
	var out []Mapping
	require.NoError(t, c.EachMapping(order, func(m Mapping) {
		out = append(out, m)
	}))
	return out
}

func TestNewPicksConsumerKind(t *testing.T) {
	_, ok := newConsumer(t, testMap).(*BasicConsumer)
	assert.True(t, ok, "map without sections must give a BasicConsumer")

	_, ok = newConsumer(t, indexedTestMap).(*IndexedConsumer)
	assert.True(t, ok, "map with sections must give an IndexedConsumer")
}

func TestSources(t *testing.T) {
	cases := []struct {
		name string
		data string
		want []string
	}{
		{"source root", testMap, []string{"/the/root/one.js", "/the/root/two.js"}},
		{"indexed", indexedTestMap, []string{"/the/root/one.js", "/the/root/two.js"}},
		{"indexed different roots", indexedTestMapDifferentSourceRoots, []string{"/the/root/one.js", "/different/root/two.js"}},
		{"no source root", testMapNoSourceRoot, []string{"one.js", "two.js"}},
		{"empty source root", testMapEmptySourceRoot, []string{"one.js", "two.js"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, newConsumer(t, tc.data).Sources())
		})
	}
}

func TestSourcesWithMapURL(t *testing.T) {
	c := newConsumer(t, testMapNoSourceRoot, WithSourceMapURL("http://example.com/static/min.js.map"))
	assert.Equal(t, []string{"http://example.com/static/one.js", "http://example.com/static/two.js"}, c.Sources())

	m, ok, err := c.GeneratedPositionFor("one.js", Position{Line: 2, Column: 10}, GreatestLowerBound)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Position{Line: 1, Column: 28}, m.Generated)
}

func TestParseVariants(t *testing.T) {
	t.Run("string version", func(t *testing.T) {
		c := newConsumer(t, `{"version":"3","sources":["a.js"],"names":[],"mappings":"AAAA"}`)
		assert.Equal(t, []string{"a.js"}, c.Sources())
	})
	t.Run("xssi prefix", func(t *testing.T) {
		c := newConsumer(t, ")]}'\n"+testMap)
		assert.Equal(t, "min.js", c.File())
	})
	t.Run("byte order mark", func(t *testing.T) {
		c := newConsumer(t, "\xef\xbb\xbf"+testMap)
		assert.Equal(t, "/the/root", c.SourceRoot())
	})
	t.Run("unsupported version", func(t *testing.T) {
		_, err := New(context.Background(), []byte(`{"version":2,"sources":[],"names":[],"mappings":""}`))
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
	})
	t.Run("bad json", func(t *testing.T) {
		_, err := New(context.Background(), []byte(`{"version":3,`))
		assert.Error(t, err)
	})
}

func TestEachMappingGeneratedOrder(t *testing.T) {
	got := collect(t, newConsumer(t, testMap), GeneratedOrder)
	require.Len(t, got, 13)

	assert.Equal(t, Mapping{
		Generated:           Position{Line: 1, Column: 1},
		Original:            Position{Line: 1, Column: 1},
		Source:              "/the/root/one.js",
		LastGeneratedColumn: ColumnUnknown,
	}, got[0])
	assert.Equal(t, Mapping{
		Generated:           Position{Line: 2, Column: 28},
		Original:            Position{Line: 2, Column: 10},
		Source:              "/the/root/two.js",
		Name:                "n",
		LastGeneratedColumn: ColumnUnknown,
	}, got[12])

	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1].Generated, got[i].Generated
		assert.True(t, prev.Line < cur.Line || (prev.Line == cur.Line && prev.Column <= cur.Column),
			"mapping %d (%s) before %d (%s)", i-1, prev, i, cur)
	}
}

func TestEachMappingOriginalOrder(t *testing.T) {
	got := collect(t, newConsumer(t, testMap), OriginalOrder)
	require.Len(t, got, 13)

	for i := 0; i < 7; i++ {
		assert.Equal(t, "/the/root/one.js", got[i].Source)
	}
	for i := 7; i < 13; i++ {
		assert.Equal(t, "/the/root/two.js", got[i].Source)
	}
	assert.Equal(t, Position{Line: 2, Column: 14}, got[6].Original)
	assert.Equal(t, Position{Line: 1, Column: 32}, got[6].Generated)
}

func TestEachMappingInvalidOrder(t *testing.T) {
	err := newConsumer(t, testMap).EachMapping(Order(7), func(Mapping) {})
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestEachMappingDecodeError(t *testing.T) {
	c := newConsumer(t, `{"version":3,"sources":["a.js"],"names":[],"mappings":"AAAA,AA"}`)
	err := c.EachMapping(GeneratedOrder, func(Mapping) {})
	require.ErrorIs(t, err, mappings.ErrInvalidSegment)
	var de *mappings.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 5, de.Offset)
}

func TestEachMappingIndexOutOfRange(t *testing.T) {
	c := newConsumer(t, `{"version":3,"sources":["a.js"],"names":[],"mappings":"ACAA"}`)
	assert.ErrorIs(t, c.EachMapping(GeneratedOrder, func(Mapping) {}), ErrSourceIndex)

	c = newConsumer(t, `{"version":3,"sources":["a.js"],"names":["x"],"mappings":"AAAAC"}`)
	assert.ErrorIs(t, c.EachMapping(GeneratedOrder, func(Mapping) {}), ErrNameIndex)
}

func TestOriginalPositionFor(t *testing.T) {
	c := newConsumer(t, testMap)
	cases := []struct {
		gen    Position
		source string
		orig   Position
		name   string
	}{
		{Position{1, 1}, "/the/root/one.js", Position{1, 1}, ""},
		{Position{1, 5}, "/the/root/one.js", Position{1, 5}, ""},
		{Position{1, 9}, "/the/root/one.js", Position{1, 11}, ""},
		{Position{1, 18}, "/the/root/one.js", Position{1, 21}, "bar"},
		{Position{1, 21}, "/the/root/one.js", Position{2, 3}, ""},
		{Position{1, 28}, "/the/root/one.js", Position{2, 10}, "baz"},
		{Position{1, 32}, "/the/root/one.js", Position{2, 14}, "bar"},
		{Position{2, 1}, "/the/root/two.js", Position{1, 1}, ""},
		{Position{2, 18}, "/the/root/two.js", Position{1, 21}, "n"},
		{Position{2, 28}, "/the/root/two.js", Position{2, 10}, "n"},
	}
	for _, tc := range cases {
		m, ok, err := c.OriginalPositionFor(tc.gen, GreatestLowerBound)
		require.NoError(t, err)
		require.True(t, ok, "no mapping at %s", tc.gen)
		assert.Equal(t, tc.source, m.Source, "source at %s", tc.gen)
		assert.Equal(t, tc.orig, m.Original, "original at %s", tc.gen)
		assert.Equal(t, tc.name, m.Name, "name at %s", tc.gen)
	}
}

func TestOriginalPositionForFuzzy(t *testing.T) {
	c := newConsumer(t, testMap)

	m, ok, err := c.OriginalPositionFor(Position{Line: 1, Column: 20}, GreatestLowerBound)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Position{Line: 1, Column: 21}, m.Original)

	m, ok, err = c.OriginalPositionFor(Position{Line: 1, Column: 20}, LeastUpperBound)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Position{Line: 2, Column: 3}, m.Original)

	// nothing before column 1 on line 2
	_, ok, err = c.OriginalPositionFor(Position{Line: 2, Column: 0}, GreatestLowerBound)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = c.OriginalPositionFor(Position{Line: 100, Column: 0}, GreatestLowerBound)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvalidPositions(t *testing.T) {
	c := newConsumer(t, testMap)

	_, _, err := c.OriginalPositionFor(Position{Line: 0, Column: 0}, GreatestLowerBound)
	assert.ErrorIs(t, err, ErrInvalidPosition)
	_, _, err = c.OriginalPositionFor(Position{Line: 1, Column: -1}, GreatestLowerBound)
	assert.ErrorIs(t, err, ErrInvalidPosition)
	_, _, err = c.GeneratedPositionFor("one.js", Position{Line: 0, Column: 0}, GreatestLowerBound)
	assert.ErrorIs(t, err, ErrInvalidPosition)
	_, err = c.AllGeneratedPositionsFor("one.js", 0, 0, false)
	assert.ErrorIs(t, err, ErrInvalidPosition)
	_, err = c.AllGeneratedPositionsFor("one.js", 1, -1, true)
	assert.ErrorIs(t, err, ErrInvalidPosition)
}

func TestGeneratedPositionFor(t *testing.T) {
	c := newConsumer(t, testMap)

	for _, source := range []string{"one.js", "/the/root/one.js"} {
		m, ok, err := c.GeneratedPositionFor(source, Position{Line: 2, Column: 10}, GreatestLowerBound)
		require.NoError(t, err)
		require.True(t, ok, "source %q", source)
		assert.Equal(t, Position{Line: 1, Column: 28}, m.Generated)
		assert.Equal(t, "baz", m.Name)
	}

	m, ok, err := c.GeneratedPositionFor("two.js", Position{Line: 1, Column: 21}, GreatestLowerBound)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Position{Line: 2, Column: 18}, m.Generated)

	m, ok, err = c.GeneratedPositionFor("one.js", Position{Line: 2, Column: 12}, LeastUpperBound)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Position{Line: 1, Column: 32}, m.Generated)

	_, ok, err = c.GeneratedPositionFor("three.js", Position{Line: 1, Column: 0}, GreatestLowerBound)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGeneratedPositionForUnicodeNormalization(t *testing.T) {
	// the map stores the file name decomposed, the query uses the precomposed form
	c := newConsumer(t, `{"version":3,"sources":["cafe\u0301.js"],"names":[],"mappings":"AAAA"}`)
	m, ok, err := c.GeneratedPositionFor("caf\u00e9.js", Position{Line: 1, Column: 0}, GreatestLowerBound)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Position{Line: 1, Column: 0}, m.Generated)

	rooted := newConsumer(t, `{"version":3,"sourceRoot":"/src","sources":["cafe\u0301.js"],"sourcesContent":["x"],"names":[],"mappings":"AAAA"}`)
	content, ok := rooted.SourceContentFor("/src/caf\u00e9.js")
	require.True(t, ok)
	assert.Equal(t, "x", content)
	_, ok = rooted.SourceContentFor("/src/cafe.js")
	assert.False(t, ok)
}

func TestAllGeneratedPositionsFor(t *testing.T) {
	g := NewGenerator(GeneratorOptions{File: "generated.js"})
	for _, m := range []Mapping{
		{Generated: Position{1, 2}, Original: Position{1, 1}, Source: "bar.coffee"},
		{Generated: Position{2, 2}, Original: Position{2, 1}, Source: "bar.coffee"},
		{Generated: Position{3, 3}, Original: Position{2, 2}, Source: "bar.coffee"},
		{Generated: Position{4, 2}, Original: Position{3, 1}, Source: "bar.coffee"},
	} {
		require.NoError(t, g.AddMapping(m))
	}
	c := newConsumer(t, g.String())

	all, err := c.AllGeneratedPositionsFor("bar.coffee", 2, 0, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, Position{Line: 2, Column: 2}, all[0].Generated)
	assert.Equal(t, Position{Line: 3, Column: 3}, all[1].Generated)

	all, err = c.AllGeneratedPositionsFor("bar.coffee", 2, 2, true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, Position{Line: 3, Column: 3}, all[0].Generated)

	all, err = c.AllGeneratedPositionsFor("baz.coffee", 2, 0, false)
	require.NoError(t, err)
	assert.Empty(t, all)

	all, err = c.AllGeneratedPositionsFor("bar.coffee", 9, 0, false)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestComputeColumnSpans(t *testing.T) {
	c := newConsumer(t, testMap)
	require.NoError(t, c.ComputeColumnSpans())

	got := collect(t, c, GeneratedOrder)
	want := []int{4, 8, 17, 20, 27, 31, ColumnEndOfLine, 4, 8, 17, 20, 27, ColumnEndOfLine}
	require.Len(t, got, len(want))
	for i, m := range got {
		assert.Equal(t, want[i], m.LastGeneratedColumn, "mapping %d at %s", i, m.Generated)
	}

	m, ok, err := c.OriginalPositionFor(Position{Line: 1, Column: 9}, GreatestLowerBound)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 17, m.LastGeneratedColumn)
}

func TestSourceContent(t *testing.T) {
	c := newConsumer(t, testMapWithSourcesContent)
	assert.True(t, c.HasContentsOfAllSources())

	content, ok := c.SourceContentFor("one.js")
	require.True(t, ok)
	assert.Equal(t, " ONE.foo = function (bar) {\n   return baz(bar);\n };", content)

	content, ok = c.SourceContentFor("/the/root/two.js")
	require.True(t, ok)
	assert.Equal(t, " TWO.inc = function (n) {\n   return n + 1;\n };", content)

	_, ok = c.SourceContentFor("three.js")
	assert.False(t, ok)

	plain := newConsumer(t, testMap)
	assert.False(t, plain.HasContentsOfAllSources())
	_, ok = plain.SourceContentFor("one.js")
	assert.False(t, ok)

	partial := newConsumer(t, `{"version":3,"sources":["a.js","b.js"],"sourcesContent":["a",null],"names":[],"mappings":""}`)
	assert.False(t, partial.HasContentsOfAllSources())
	_, ok = partial.SourceContentFor("b.js")
	assert.False(t, ok)
}

func TestClose(t *testing.T) {
	c, err := New(context.Background(), []byte(testMap))
	require.NoError(t, err)
	require.NoError(t, c.Close())

	assert.ErrorIs(t, c.Close(), ErrClosed)
	assert.ErrorIs(t, c.EachMapping(GeneratedOrder, func(Mapping) {}), ErrClosed)
	_, _, err = c.OriginalPositionFor(Position{Line: 1, Column: 1}, GreatestLowerBound)
	assert.ErrorIs(t, err, ErrClosed)
	_, _, err = c.GeneratedPositionFor("one.js", Position{Line: 1, Column: 1}, GreatestLowerBound)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, c.ComputeColumnSpans(), ErrClosed)
}

func TestDecodesOnce(t *testing.T) {
	ring := trace.NewRingTracer(64, trace.LevelDebug)
	ctx := trace.WithTracer(context.Background(), ring)
	c, err := New(ctx, []byte(testMap))
	require.NoError(t, err)
	defer c.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, c.EachMapping(GeneratedOrder, func(Mapping) {}))
	}
	decodes := 0
	for _, ev := range ring.Snapshot() {
		if ev.Name == "decode" && ev.Kind == trace.KindSpanEnd {
			decodes++
		}
	}
	assert.Equal(t, 1, decodes)
}

func TestWithCache(t *testing.T) {
	cache, err := mcache.OpenFs(afero.NewMemMapFs(), "/cache")
	require.NoError(t, err)

	ring := trace.NewRingTracer(64, trace.LevelDebug)
	ctx := trace.WithTracer(context.Background(), ring)

	first, err := New(ctx, []byte(testMap), WithCache(cache))
	require.NoError(t, err)
	want := collect(t, first, GeneratedOrder)
	require.NoError(t, first.Close())

	second, err := New(ctx, []byte(testMap), WithCache(cache))
	require.NoError(t, err)
	got := collect(t, second, GeneratedOrder)
	require.NoError(t, second.Close())
	assert.Equal(t, want, got)

	var from []string
	for _, ev := range ring.Snapshot() {
		if ev.Name == "decode" && ev.Kind == trace.KindSpanEnd {
			from = append(from, ev.Extra["from"])
		}
	}
	assert.Equal(t, []string{"vlq", "cache"}, from)
}

func TestParseOrderAndBias(t *testing.T) {
	o, err := ParseOrder("original")
	require.NoError(t, err)
	assert.Equal(t, OriginalOrder, o)
	_, err = ParseOrder("sideways")
	assert.Error(t, err)

	b, err := ParseBias("lub")
	require.NoError(t, err)
	assert.Equal(t, LeastUpperBound, b)
	_, err = ParseBias("nearest")
	assert.Error(t, err)
}

package sourcemap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexedMatchesFlatMap(t *testing.T) {
	for _, order := range []Order{GeneratedOrder, OriginalOrder} {
		t.Run(order.String(), func(t *testing.T) {
			flat := collect(t, newConsumer(t, testMap), order)
			indexed := collect(t, newConsumer(t, indexedTestMap), order)
			assert.Equal(t, flat, indexed)
		})
	}
}

func TestIndexedOriginalPositionFor(t *testing.T) {
	flat := newConsumer(t, testMap)
	indexed := newConsumer(t, indexedTestMap)

	require.NoError(t, flat.EachMapping(GeneratedOrder, func(want Mapping) {
		got, ok, err := indexed.OriginalPositionFor(want.Generated, GreatestLowerBound)
		require.NoError(t, err)
		require.True(t, ok, "no mapping at %s", want.Generated)
		assert.Equal(t, want, got)
	}))

	_, ok, err := indexed.OriginalPositionFor(Position{Line: 2, Column: 0}, GreatestLowerBound)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIndexedGeneratedPositionFor(t *testing.T) {
	c := newConsumer(t, indexedTestMap)

	m, ok, err := c.GeneratedPositionFor("one.js", Position{Line: 2, Column: 10}, GreatestLowerBound)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Position{Line: 1, Column: 28}, m.Generated)

	m, ok, err = c.GeneratedPositionFor("/the/root/two.js", Position{Line: 2, Column: 10}, GreatestLowerBound)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Position{Line: 2, Column: 28}, m.Generated)

	_, ok, err = c.GeneratedPositionFor("three.js", Position{Line: 1, Column: 0}, GreatestLowerBound)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIndexedAllGeneratedPositionsFor(t *testing.T) {
	c := newConsumer(t, indexedTestMap)
	all, err := c.AllGeneratedPositionsFor("two.js", 1, 0, false)
	require.NoError(t, err)

	var got []Position
	for _, m := range all {
		got = append(got, m.Generated)
	}
	assert.Equal(t, []Position{{2, 1}, {2, 5}, {2, 9}, {2, 18}}, got)
}

func TestIndexedSourceContent(t *testing.T) {
	c := newConsumer(t, indexedTestMap)
	assert.True(t, c.HasContentsOfAllSources())

	content, ok := c.SourceContentFor("two.js")
	require.True(t, ok)
	assert.Equal(t, " TWO.inc = function (n) {\n   return n + 1;\n };", content)

	assert.False(t, newConsumer(t, indexedTestMapDifferentSourceRoots).HasContentsOfAllSources())
}

const sameLineSections = `{
  "version": 3,
  "sections": [
    {"offset": {"line": 0, "column": 0}, "map": {"version": 3, "sources": ["a.js"], "names": [], "mappings": "AAAA"}},
    {"offset": {"line": 0, "column": 10}, "map": {"version": 3, "sources": ["b.js"], "names": [], "mappings": "AAAA,EAAE"}}
  ]
}`

func TestIndexedColumnOffset(t *testing.T) {
	c := newConsumer(t, sameLineSections)

	got := collect(t, c, GeneratedOrder)
	require.Len(t, got, 3)
	assert.Equal(t, Position{Line: 1, Column: 0}, got[0].Generated)
	assert.Equal(t, Position{Line: 1, Column: 10}, got[1].Generated)
	assert.Equal(t, Position{Line: 1, Column: 12}, got[2].Generated)

	m, ok, err := c.OriginalPositionFor(Position{Line: 1, Column: 11}, GreatestLowerBound)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b.js", m.Source)
	assert.Equal(t, Position{Line: 1, Column: 10}, m.Generated)

	m, ok, err = c.OriginalPositionFor(Position{Line: 1, Column: 5}, GreatestLowerBound)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a.js", m.Source)
}

func TestIndexedColumnSpansStopAtNextSection(t *testing.T) {
	c := newConsumer(t, sameLineSections)
	require.NoError(t, c.ComputeColumnSpans())

	got := collect(t, c, GeneratedOrder)
	require.Len(t, got, 3)
	assert.Equal(t, 9, got[0].LastGeneratedColumn)
	assert.Equal(t, 11, got[1].LastGeneratedColumn)
	assert.Equal(t, ColumnEndOfLine, got[2].LastGeneratedColumn)
}

func TestIndexedSectionErrors(t *testing.T) {
	cases := []struct {
		name string
		data string
		want error
	}{
		{
			name: "unordered",
			data: `{"version":3,"sections":[
				{"offset":{"line":1,"column":0},"map":{"version":3,"sources":[],"names":[],"mappings":""}},
				{"offset":{"line":0,"column":0},"map":{"version":3,"sources":[],"names":[],"mappings":""}}]}`,
			want: ErrSectionOrder,
		},
		{
			name: "same line earlier column",
			data: `{"version":3,"sections":[
				{"offset":{"line":0,"column":5},"map":{"version":3,"sources":[],"names":[],"mappings":""}},
				{"offset":{"line":0,"column":2},"map":{"version":3,"sources":[],"names":[],"mappings":""}}]}`,
			want: ErrSectionOrder,
		},
		{
			name: "negative offset",
			data: `{"version":3,"sections":[
				{"offset":{"line":-1,"column":0},"map":{"version":3,"sources":[],"names":[],"mappings":""}}]}`,
			want: ErrSectionOrder,
		},
		{
			name: "url",
			data: `{"version":3,"sections":[{"offset":{"line":0,"column":0},"url":"other.js.map"}]}`,
			want: ErrSectionURL,
		},
		{
			name: "missing map",
			data: `{"version":3,"sections":[{"offset":{"line":0,"column":0}}]}`,
			want: ErrMissingSectionMap,
		},
		{
			name: "nested",
			data: `{"version":3,"sections":[{"offset":{"line":0,"column":0},"map":{"version":3,"sections":[
				{"offset":{"line":0,"column":0},"map":{"version":3,"sources":[],"names":[],"mappings":""}}]}}]}`,
			want: ErrNestedSections,
		},
		{
			name: "section version",
			data: `{"version":3,"sections":[{"offset":{"line":0,"column":0},"map":{"version":2,"sources":[],"names":[],"mappings":""}}]}`,
			want: ErrUnsupportedVersion,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(context.Background(), []byte(tc.data))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestIndexedClose(t *testing.T) {
	c, err := New(context.Background(), []byte(indexedTestMap), WithConcurrency(1))
	require.NoError(t, err)
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Close(), ErrClosed)
	assert.ErrorIs(t, c.EachMapping(GeneratedOrder, func(Mapping) {}), ErrClosed)
}

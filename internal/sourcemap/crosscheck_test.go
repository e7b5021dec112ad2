package sourcemap

import (
	"context"
	"path"
	"testing"

	gosourcemap "github.com/go-sourcemap/sourcemap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAgreesWithGoSourcemap compares lookups at every mapped position with
// an independent decoder.
func TestAgreesWithGoSourcemap(t *testing.T) {
	other, err := gosourcemap.Parse("", []byte(testMap))
	require.NoError(t, err)
	assert.Equal(t, "min.js", other.File())

	c := newConsumer(t, testMap)
	lineOffset, first := 0, true
	require.NoError(t, c.EachMapping(GeneratedOrder, func(m Mapping) {
		source, name, line, column, ok := other.Source(m.Generated.Line, m.Generated.Column)
		require.True(t, ok, "go-sourcemap has no mapping at %s", m.Generated)
		assert.Equal(t, path.Base(m.Source), path.Base(source), "source at %s", m.Generated)
		assert.Equal(t, m.Name, name, "name at %s", m.Generated)
		assert.Equal(t, m.Original.Column, column, "column at %s", m.Generated)
		// both decoders must agree on lines up to the base they count from
		if first {
			lineOffset, first = line-m.Original.Line, false
		}
		assert.Equal(t, m.Original.Line+lineOffset, line, "line at %s", m.Generated)
	}))
}

func BenchmarkConstructAndIterate(b *testing.B) {
	data := []byte(testMap)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c, err := New(context.Background(), data)
		if err != nil {
			b.Fatal(err)
		}
		if err := c.EachMapping(GeneratedOrder, func(Mapping) {}); err != nil {
			b.Fatal(err)
		}
		_ = c.Close()
	}
}

func BenchmarkGoSourcemapParse(b *testing.B) {
	data := []byte(testMap)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := gosourcemap.Parse("", data); err != nil {
			b.Fatal(err)
		}
	}
}

package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSniff(t *testing.T) {
	s, err := Sniff([]byte(")]}'\n" + mapJSON))
	require.NoError(t, err)
	assert.Equal(t, Summary{
		Version:       "3",
		File:          "app.js",
		Sources:       2,
		Names:         1,
		MappingsBytes: len("AAAA;AACA,CAAC"),
		Lines:         2,
	}, s)
}

func TestSniffIndexed(t *testing.T) {
	raw := `{"version":"3","file":"min.js","sections":[
		{"offset":{"line":0,"column":0},"map":{"version":3,"sources":["a.js"],"sourcesContent":["x"],"names":[],"mappings":"AAAA"}},
		{"offset":{"line":1,"column":0},"map":{"version":3,"sources":["b.js","c.js"],"sourcesContent":[null,"y"],"names":["n"],"mappings":"AAAA;;"}}
	]}`
	s, err := Sniff([]byte(raw))
	require.NoError(t, err)
	assert.True(t, s.Indexed)
	assert.Equal(t, "3", s.Version)
	assert.Equal(t, 2, s.Sections)
	assert.Equal(t, 3, s.Sources)
	assert.Equal(t, 1, s.Names)
	assert.Equal(t, 2, s.SourcesContent)
	assert.Equal(t, 4, s.Lines)
}

func TestSniffInvalid(t *testing.T) {
	_, err := Sniff([]byte(`{"version":3,`))
	assert.ErrorIs(t, err, ErrNotJSON)
}

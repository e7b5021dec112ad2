package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smap/internal/diag"
)

func codes(bag *diag.Bag) []diag.Code {
	var out []diag.Code
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func find(t *testing.T, bag *diag.Bag, code diag.Code) diag.Diagnostic {
	t.Helper()
	for _, d := range bag.Items() {
		if d.Code == code {
			return d
		}
	}
	t.Fatalf("no %s in %v", code.ID(), codes(bag))
	return diag.Diagnostic{}
}

func TestCleanMap(t *testing.T) {
	bag := Map([]byte(`{"version":3,"sources":["a.js"],"names":["x"],"mappings":"AAAAA,EAAE"}`), 0)
	assert.Zero(t, bag.Len(), "unexpected findings: %v", codes(bag))
}

func TestInvalidJSON(t *testing.T) {
	bag := Map([]byte("{\n  \"version\": 3,\n  \"sources\": [}\n"), 0)
	require.Equal(t, 1, bag.Len())
	d := bag.Items()[0]
	assert.Equal(t, diag.DocInvalidJSON, d.Code)
	assert.Equal(t, diag.SevError, d.Severity)
	assert.Equal(t, 3, d.At.Line)
	assert.True(t, bag.HasErrors())
}

func TestWrongFieldType(t *testing.T) {
	bag := Map([]byte(`{"version":3,"sources":"a.js","names":[],"mappings":""}`), 0)
	d := find(t, bag, diag.DocInvalidJSON)
	assert.Equal(t, "sources", d.At.Field)
}

func TestDocumentChecks(t *testing.T) {
	bag := Map([]byte(`{"version":2,"sourceRoot":"","sources":["a.js","a.js"],"sourcesContent":["1","2","3"],"names":[]}`), 0)
	find(t, bag, diag.DocUnsupportedVersion)
	find(t, bag, diag.DocEmptySourceRoot)
	find(t, bag, diag.DocSourcesContentLen)
	dup := find(t, bag, diag.DocDuplicateSource)
	assert.Equal(t, 1, dup.At.Offset)
	missing := find(t, bag, diag.DocMissingField)
	assert.Equal(t, "mappings", missing.At.Field)
}

func TestMappingChecks(t *testing.T) {
	// segment 2 goes back to column 0, segment 3 points at source 1 and name 1
	bag := Map([]byte(`{"version":3,"sources":["a.js","b.js"],"names":["x"],"mappings":"KAAA,LAAA;ACAAC"}`), 0)

	order := find(t, bag, diag.MapSegmentOrder)
	assert.Equal(t, diag.SevWarning, order.Severity)
	assert.Equal(t, diag.Location{Field: "mappings", Offset: 5, Line: 1, Column: 0}, order.At)

	name := find(t, bag, diag.MapNameIndex)
	assert.Equal(t, 2, name.At.Line)

	unused := find(t, bag, diag.MapUnusedName)
	assert.Equal(t, "names", unused.At.Field)
	assert.False(t, containsCode(bag, diag.MapSourceIndex))
	assert.False(t, containsCode(bag, diag.MapUnusedSource))
}

func TestSourceIndexAndUnusedSource(t *testing.T) {
	bag := Map([]byte(`{"version":3,"sources":["a.js"],"names":[],"mappings":"ACAA"}`), 0)
	find(t, bag, diag.MapSourceIndex)
	unused := find(t, bag, diag.MapUnusedSource)
	assert.Equal(t, `no segment points into "a.js"`, unused.Message)
	assert.NotContains(t, unused.Message, "never referenced")
}

func TestDecodeError(t *testing.T) {
	bag := Map([]byte(`{"version":3,"sources":["a.js"],"names":[],"mappings":"AAAA,AA"}`), 0)
	d := find(t, bag, diag.MapDecode)
	assert.Equal(t, 5, d.At.Offset)
	assert.False(t, containsCode(bag, diag.MapUnusedSource), "usage is not reported after a decode error")
}

func TestGeneratedOnly(t *testing.T) {
	bag := Map([]byte(`{"version":3,"sources":[],"names":[],"mappings":"A,C"}`), 0)
	assert.Equal(t, []diag.Code{diag.MapGeneratedOnly}, codes(bag))
	assert.False(t, bag.HasWarnings())
}

func TestSectionChecks(t *testing.T) {
	raw := `{"version":3,"mappings":"","sections":[
		{"offset":{"line":2,"column":0},"map":{"version":3,"sources":["a.js"],"names":[],"mappings":"ACAA"}},
		{"offset":{"line":1,"column":0},"map":{"version":3,"sources":[],"names":[],"mappings":""}},
		{"offset":{"line":3,"column":0},"url":"x.map"},
		{"offset":{"line":4,"column":0}},
		{"offset":{"line":5,"column":0},"map":{"version":3,"sections":[]}}
	]}`
	bag := Map([]byte(raw), 0)

	find(t, bag, diag.DocMappingsWithSection)
	assert.Equal(t, "sections[1]", find(t, bag, diag.SecOrder).At.Field)
	assert.Equal(t, "sections[2]", find(t, bag, diag.SecURL).At.Field)
	assert.Equal(t, "sections[3]", find(t, bag, diag.SecMissingMap).At.Field)
	assert.Equal(t, "sections[4]", find(t, bag, diag.SecNested).At.Field)
	assert.Equal(t, "sections[0].map.mappings", find(t, bag, diag.MapSourceIndex).At.Field)
	assert.Equal(t, "sections[0].map.sources", find(t, bag, diag.MapUnusedSource).At.Field)
}

func TestLimit(t *testing.T) {
	bag := Map([]byte(`{"version":3,"sources":["a","b","c","d"],"names":[],"mappings":""}`), 2)
	assert.Equal(t, 2, bag.Len())
	assert.Equal(t, 2, bag.Dropped())
}

func containsCode(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

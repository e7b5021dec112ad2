package mappings

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smap/internal/bsearch"
	"smap/internal/vlq"
)

const fixture = "CAAC,IAAI,IAAM,SAAUA,GAClB,OAAOC,IAAID;CCDb,IAAI,IAAM,SAAUE,GAClB,OAAOA"

func mk(genLine, genCol uint32, src int32, origLine, origCol uint32, name int32) Mapping {
	return Mapping{
		GeneratedLine:   genLine,
		GeneratedColumn: genCol,
		Source:          src,
		OriginalLine:    origLine,
		OriginalColumn:  origCol,
		Name:            name,
	}
}

func fixtureMappings() []Mapping {
	return []Mapping{
		mk(0, 1, 0, 0, 1, -1),
		mk(0, 5, 0, 0, 5, -1),
		mk(0, 9, 0, 0, 11, -1),
		mk(0, 18, 0, 0, 21, 0),
		mk(0, 21, 0, 1, 3, -1),
		mk(0, 28, 0, 1, 10, 1),
		mk(0, 32, 0, 1, 14, 0),
		mk(1, 1, 1, 0, 1, -1),
		mk(1, 5, 1, 0, 5, -1),
		mk(1, 9, 1, 0, 11, -1),
		mk(1, 18, 1, 0, 21, 2),
		mk(1, 21, 1, 1, 3, -1),
		mk(1, 28, 1, 1, 10, 2),
	}
}

func TestDecodeFixture(t *testing.T) {
	m, err := Decode(fixture)
	require.NoError(t, err)
	assert.Equal(t, 13, m.Len())
	assert.Equal(t, fixtureMappings(), m.ByGenerated())
	assert.Equal(t, int32(1), m.MaxSource())
	assert.Equal(t, int32(2), m.MaxName())
}

func TestDecodeEmptyAndSeparators(t *testing.T) {
	m, err := Decode("")
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())

	m, err = Decode(";;,;A")
	require.NoError(t, err)
	require.Equal(t, 1, m.Len())
	got := m.ByGenerated()[0]
	assert.Equal(t, uint32(3), got.GeneratedLine)
	assert.False(t, got.HasOriginal())
	assert.False(t, got.HasName())
}

func TestDecodeCarriesDeltasAcrossLines(t *testing.T) {
	// the generated column resets per line, everything else carries on
	m, err := Decode("ACEG;ACEG")
	require.NoError(t, err)
	gen := m.ByGenerated()
	require.Len(t, gen, 2)
	assert.Equal(t, mk(0, 0, 1, 2, 3, -1), gen[0])
	assert.Equal(t, mk(1, 0, 2, 4, 6, -1), gen[1])
}

func TestDecodeSortsWithinLine(t *testing.T) {
	m, err := Decode("K,F")
	require.NoError(t, err)
	gen := m.ByGenerated()
	require.Len(t, gen, 2)
	assert.Equal(t, uint32(3), gen[0].GeneratedColumn)
	assert.Equal(t, uint32(5), gen[1].GeneratedColumn)
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name   string
		in     string
		want   error
		offset int
	}{
		{"two fields", "AA", ErrInvalidSegment, 0},
		{"three fields", "A,AAA", ErrInvalidSegment, 2},
		{"six fields", "AAAAAA", ErrInvalidSegment, 0},
		{"negative column", "D", ErrNegativeValue, 0},
		{"negative source", "ADAA", ErrNegativeValue, 0},
		{"bad digit", "A,A!", vlq.ErrInvalidDigit, 3},
		{"truncated", "g", vlq.ErrUnexpectedEnd, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.in)
			require.ErrorIs(t, err, tc.want)
			var de *DecodeError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tc.offset, de.Offset)
		})
	}
}

func TestDecodeRawKeepsFileOrder(t *testing.T) {
	segs, err := DecodeRaw("K,F;AACA")
	require.NoError(t, err)
	require.Len(t, segs, 3)
	assert.Equal(t, uint32(5), segs[0].Mapping.GeneratedColumn)
	assert.Equal(t, uint32(3), segs[1].Mapping.GeneratedColumn)
	assert.Equal(t, 2, segs[1].Offset)
	assert.Equal(t, 4, segs[2].Fields)
	assert.Equal(t, 4, segs[2].Offset)
}

func TestByOriginal(t *testing.T) {
	m, err := Decode(fixture)
	require.NoError(t, err)
	orig := m.ByOriginal()
	require.Len(t, orig, 13)
	for i := 1; i < len(orig); i++ {
		assert.LessOrEqual(t, CompareOriginal(orig[i-1], orig[i]), 0)
	}
	assert.Equal(t, mk(0, 1, 0, 0, 1, -1), orig[0])
	assert.Equal(t, mk(1, 28, 1, 1, 10, 2), orig[len(orig)-1])
}

func TestByOriginalSkipsGeneratedOnly(t *testing.T) {
	m, err := Decode("A,CAAA,C")
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())
	assert.Len(t, m.ByOriginal(), 1)
}

func TestCompareGeneratedAbsentSortsLast(t *testing.T) {
	withSource := mk(0, 0, 0, 0, 0, -1)
	without := mk(0, 0, -1, 0, 0, -1)
	assert.Negative(t, CompareGenerated(withSource, without))
	assert.Positive(t, CompareGenerated(without, withSource))
	assert.Zero(t, CompareGenerated(without, without))
}

func TestOriginalLocationFor(t *testing.T) {
	m, err := Decode(fixture)
	require.NoError(t, err)

	got, ok := m.OriginalLocationFor(0, 1, bsearch.GreatestLowerBound)
	require.True(t, ok)
	assert.Equal(t, uint32(0), got.OriginalLine)
	assert.Equal(t, uint32(1), got.OriginalColumn)

	got, ok = m.OriginalLocationFor(0, 20, bsearch.GreatestLowerBound)
	require.True(t, ok)
	assert.Equal(t, uint32(18), got.GeneratedColumn)

	got, ok = m.OriginalLocationFor(0, 20, bsearch.LeastUpperBound)
	require.True(t, ok)
	assert.Equal(t, uint32(21), got.GeneratedColumn)

	// before the first mapping of the line
	_, ok = m.OriginalLocationFor(1, 0, bsearch.GreatestLowerBound)
	assert.False(t, ok)

	// past the last line
	_, ok = m.OriginalLocationFor(5, 0, bsearch.GreatestLowerBound)
	assert.False(t, ok)
}

func TestGeneratedLocationFor(t *testing.T) {
	m, err := Decode(fixture)
	require.NoError(t, err)

	got, ok := m.GeneratedLocationFor(0, 1, 3, bsearch.GreatestLowerBound)
	require.True(t, ok)
	assert.Equal(t, uint32(0), got.GeneratedLine)
	assert.Equal(t, uint32(21), got.GeneratedColumn)

	got, ok = m.GeneratedLocationFor(1, 0, 21, bsearch.GreatestLowerBound)
	require.True(t, ok)
	assert.Equal(t, uint32(1), got.GeneratedLine)
	assert.Equal(t, uint32(18), got.GeneratedColumn)

	_, ok = m.GeneratedLocationFor(5, 0, 0, bsearch.GreatestLowerBound)
	assert.False(t, ok)
}

func TestAllGeneratedLocationsFor(t *testing.T) {
	// source 0: original column 1 at generated columns 1 and 2, original
	// column 3 at generated column 3, original line 1 on the next line
	m, err := Decode("CAAC,CAAA,CAAE;AACH")
	require.NoError(t, err)

	all := m.AllGeneratedLocationsFor(0, 0, 0, false)
	require.Len(t, all, 3)
	assert.Equal(t, uint32(1), all[0].GeneratedColumn)
	assert.Equal(t, uint32(2), all[1].GeneratedColumn)
	assert.Equal(t, uint32(3), all[2].GeneratedColumn)

	all = m.AllGeneratedLocationsFor(0, 0, 1, true)
	require.Len(t, all, 2)
	assert.Equal(t, uint32(1), all[0].GeneratedColumn)
	assert.Equal(t, uint32(2), all[1].GeneratedColumn)

	all = m.AllGeneratedLocationsFor(0, 0, 2, true)
	require.Len(t, all, 1)
	assert.Equal(t, uint32(3), all[0].GeneratedColumn)

	// column past every mapping on the line falls through to the next line
	all = m.AllGeneratedLocationsFor(0, 0, 9, true)
	assert.Empty(t, all)

	all = m.AllGeneratedLocationsFor(0, 1, 0, false)
	require.Len(t, all, 1)
	assert.Equal(t, uint32(1), all[0].GeneratedLine)

	assert.Empty(t, m.AllGeneratedLocationsFor(3, 0, 0, false))
}

func TestComputeColumnSpans(t *testing.T) {
	m, err := Decode(fixture)
	require.NoError(t, err)
	assert.False(t, m.HasSpans())

	m.ComputeColumnSpans()
	m.ComputeColumnSpans()
	assert.True(t, m.HasSpans())

	gen := m.ByGenerated()
	assert.Equal(t, uint32(4), gen[0].LastGeneratedColumn)
	assert.Equal(t, uint32(31), gen[5].LastGeneratedColumn)
	assert.Equal(t, uint32(EndOfLine), gen[6].LastGeneratedColumn)
	assert.Equal(t, uint32(EndOfLine), gen[12].LastGeneratedColumn)

	// the original ordering sees the spans too
	for _, mp := range m.ByOriginal() {
		assert.NotZero(t, mp.LastGeneratedColumn)
	}
}

func TestFromGenerated(t *testing.T) {
	m := FromGenerated(fixtureMappings())
	assert.Equal(t, 13, m.Len())
	assert.Equal(t, int32(2), m.MaxName())
	got, ok := m.OriginalLocationFor(1, 18, bsearch.GreatestLowerBound)
	require.True(t, ok)
	assert.Equal(t, int32(2), got.Name)
}

func BenchmarkDecode(b *testing.B) {
	line := strings.Repeat("CAAC,IAAI,IAAM,SAAUA,GAClB,", 40)
	s := strings.Repeat(line+";", 500)
	b.SetBytes(int64(len(s)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m, err := Decode(s)
		if err != nil {
			b.Fatal(err)
		}
		_ = m.ByGenerated()
	}
}

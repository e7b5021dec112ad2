package mappings

import "smap/internal/bsearch"

type generatedNeedle struct {
	line, column uint32
}

type originalNeedle struct {
	source       int32
	line, column uint32
}

func compareGeneratedNeedle(n generatedNeedle, m Mapping) int {
	if c := cmpUint(n.line, m.GeneratedLine); c != 0 {
		return c
	}
	return cmpUint(n.column, m.GeneratedColumn)
}

func sameGenerated(a, b Mapping) bool {
	return a.GeneratedLine == b.GeneratedLine && a.GeneratedColumn == b.GeneratedColumn
}

func compareOriginalNeedle(n originalNeedle, m Mapping) int {
	if c := cmpIndex(n.source, m.Source); c != 0 {
		return c
	}
	if c := cmpUint(n.line, m.OriginalLine); c != 0 {
		return c
	}
	return cmpUint(n.column, m.OriginalColumn)
}

func sameOriginal(a, b Mapping) bool {
	return a.Source == b.Source && a.OriginalLine == b.OriginalLine && a.OriginalColumn == b.OriginalColumn
}

// OriginalLocationFor finds the mapping for a generated position. Only a
// mapping on the requested line counts as a hit.
func (m *Mappings) OriginalLocationFor(line, column uint32, bias bsearch.Bias) (Mapping, bool) {
	gen := m.ByGenerated()
	i := bsearch.Search(generatedNeedle{line, column}, gen, compareGeneratedNeedle, sameGenerated, bias)
	if i < 0 || gen[i].GeneratedLine != line {
		return Mapping{}, false
	}
	return gen[i], true
}

// GeneratedLocationFor finds the mapping for an original position in the
// source with index source.
func (m *Mappings) GeneratedLocationFor(source int32, line, column uint32, bias bsearch.Bias) (Mapping, bool) {
	orig := m.ByOriginal()
	i := bsearch.Search(originalNeedle{source, line, column}, orig, compareOriginalNeedle, sameOriginal, bias)
	if i < 0 || orig[i].Source != source {
		return Mapping{}, false
	}
	return orig[i], true
}

// AllGeneratedLocationsFor returns every mapping for an original line. When
// hasColumn is set only mappings at the closest column at or after column
// are returned; otherwise the whole line starting at column is returned.
func (m *Mappings) AllGeneratedLocationsFor(source int32, line, column uint32, hasColumn bool) []Mapping {
	if !hasColumn {
		column = 0
	}
	orig := m.ByOriginal()
	i := bsearch.Search(originalNeedle{source, line, column}, orig, compareOriginalNeedle, sameOriginal, bsearch.LeastUpperBound)
	if i < 0 {
		return nil
	}

	var out []Mapping
	first := orig[i]
	for ; i < len(orig); i++ {
		mp := orig[i]
		if mp.Source != source {
			break
		}
		if hasColumn {
			if mp.OriginalLine != line || mp.OriginalColumn != first.OriginalColumn {
				break
			}
		} else if mp.OriginalLine != first.OriginalLine {
			break
		}
		out = append(out, mp)
	}
	return out
}

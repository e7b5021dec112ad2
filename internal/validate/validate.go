// Package validate lints source map documents and reports findings as
// diag diagnostics.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"

	"smap/internal/diag"
	"smap/internal/loader"
	"smap/internal/mappings"
	"smap/internal/sourcemap"
)

// Map checks raw and returns the findings, at most limit of them
// (limit <= 0 means all).
func Map(raw []byte, limit int) *diag.Bag {
	bag := diag.NewBag(limit)
	r := diag.NewDedupReporter(diag.BagReporter{Bag: bag})

	data := sourcemap.StripPrefix(raw)
	var doc sourcemap.RawMap
	if err := json.Unmarshal(data, &doc); err != nil {
		reportJSON(r, data, err)
		return bag
	}

	checkMap(r, "", gjson.ParseBytes(data), &doc)
	bag.Sort()
	return bag
}

func reportJSON(r diag.Reporter, data []byte, err error) {
	at := diag.Doc
	var syntax *json.SyntaxError
	var typ *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntax):
		off := int(syntax.Offset)
		pos := loader.BuildLineIndex(data).Position(off)
		at = diag.Location{Offset: off, Line: pos.Line, Column: pos.Col}
	case errors.As(err, &typ):
		at = diag.Location{Field: typ.Field, Offset: int(typ.Offset)}
	}
	diag.ReportError(r, diag.DocInvalidJSON, at, err.Error()).Emit()
}

func field(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// checkMap lints one map. prefix is the field path of the map inside an
// indexed document; node is its gjson view, used to tell absent fields from
// empty ones.
func checkMap(r diag.Reporter, prefix string, node gjson.Result, doc *sourcemap.RawMap) {
	if !node.Get("version").Exists() {
		diag.ReportError(r, diag.DocMissingField, diag.Location{Field: field(prefix, "version"), Offset: -1},
			"version is missing").Emit()
	} else if doc.Version != sourcemap.SupportedVersion {
		diag.ReportError(r, diag.DocUnsupportedVersion, diag.Location{Field: field(prefix, "version"), Offset: -1},
			fmt.Sprintf("version %d, only %d is supported", doc.Version, sourcemap.SupportedVersion)).Emit()
	}

	if doc.IsIndexed() {
		checkSections(r, prefix, node, doc)
		return
	}

	for _, name := range [...]string{"sources", "mappings"} {
		if !node.Get(name).Exists() {
			diag.ReportError(r, diag.DocMissingField, diag.Location{Field: field(prefix, name), Offset: -1},
				name+" is missing").Emit()
		}
	}
	if sr := node.Get("sourceRoot"); sr.Exists() && sr.String() == "" {
		diag.ReportInfo(r, diag.DocEmptySourceRoot, diag.Location{Field: field(prefix, "sourceRoot"), Offset: -1},
			"sourceRoot is empty and will be ignored").Emit()
	}
	if len(doc.SourcesContent) > len(doc.Sources) {
		diag.ReportError(r, diag.DocSourcesContentLen, diag.Location{Field: field(prefix, "sourcesContent"), Offset: -1},
			fmt.Sprintf("%d contents for %d sources", len(doc.SourcesContent), len(doc.Sources))).Emit()
	}
	seen := make(map[string]int, len(doc.Sources))
	for i, s := range doc.Sources {
		if first, dup := seen[s]; dup {
			diag.ReportWarning(r, diag.DocDuplicateSource, diag.Location{Field: field(prefix, "sources"), Offset: i},
				fmt.Sprintf("%q repeats entry %d", s, first)).Emit()
			continue
		}
		seen[s] = i
	}

	checkMappings(r, field(prefix, "mappings"), doc)
}

func checkMappings(r diag.Reporter, fieldName string, doc *sourcemap.RawMap) {
	segs, err := mappings.DecodeRaw(doc.Mappings)
	if err != nil {
		at := diag.Location{Field: fieldName, Offset: -1}
		var de *mappings.DecodeError
		if errors.As(err, &de) {
			at.Offset = de.Offset
		}
		diag.ReportError(r, diag.MapDecode, at, err.Error()).Emit()
	}

	usedSources := make([]bool, len(doc.Sources))
	usedNames := make([]bool, len(doc.Names))
	withOriginal := 0
	prevLine, prevCol := uint32(0), int64(-1)
	for _, seg := range segs {
		m := seg.Mapping
		at := diag.Location{
			Field:  fieldName,
			Offset: seg.Offset,
			Line:   int(m.GeneratedLine) + 1,
			Column: int(m.GeneratedColumn),
		}
		if m.GeneratedLine != prevLine {
			prevLine, prevCol = m.GeneratedLine, -1
		}
		if int64(m.GeneratedColumn) < prevCol {
			diag.ReportWarning(r, diag.MapSegmentOrder, at,
				fmt.Sprintf("column %d follows column %d", m.GeneratedColumn, prevCol)).Emit()
		}
		prevCol = int64(m.GeneratedColumn)

		if !m.HasOriginal() {
			continue
		}
		withOriginal++
		if int(m.Source) >= len(doc.Sources) {
			diag.ReportError(r, diag.MapSourceIndex, at,
				fmt.Sprintf("source %d, map has %d sources", m.Source, len(doc.Sources))).Emit()
		} else {
			usedSources[m.Source] = true
		}
		if m.HasName() {
			if int(m.Name) >= len(doc.Names) {
				diag.ReportError(r, diag.MapNameIndex, at,
					fmt.Sprintf("name %d, map has %d names", m.Name, len(doc.Names))).Emit()
			} else {
				usedNames[m.Name] = true
			}
		}
	}

	if err != nil {
		// usage counts are meaningless for a truncated list
		return
	}
	if len(segs) > 0 && withOriginal == 0 {
		diag.ReportInfo(r, diag.MapGeneratedOnly, diag.Location{Field: fieldName, Offset: -1},
			"no segment points into a source").Emit()
	}
	for i, used := range usedSources {
		if !used {
			diag.ReportWarning(r, diag.MapUnusedSource, diag.Location{Field: sourcesField(fieldName), Offset: i},
				fmt.Sprintf("no segment points into %q", doc.Sources[i])).Emit()
		}
	}
	for i, used := range usedNames {
		if !used {
			diag.ReportInfo(r, diag.MapUnusedName, diag.Location{Field: namesField(fieldName), Offset: i},
				fmt.Sprintf("no segment uses %q", doc.Names[i])).Emit()
		}
	}
}

func sourcesField(mappingsField string) string {
	return mappingsField[:len(mappingsField)-len("mappings")] + "sources"
}

func namesField(mappingsField string) string {
	return mappingsField[:len(mappingsField)-len("mappings")] + "names"
}

func checkSections(r diag.Reporter, prefix string, node gjson.Result, doc *sourcemap.RawMap) {
	if node.Get("mappings").Exists() {
		diag.ReportWarning(r, diag.DocMappingsWithSection, diag.Location{Field: field(prefix, "mappings"), Offset: -1},
			"mappings are ignored when sections are present").Emit()
	}

	sections := node.Get("sections").Array()
	last := sourcemap.RawOffset{Line: -1}
	for i, s := range doc.Sections {
		name := field(prefix, "sections["+strconv.Itoa(i)+"]")
		at := diag.Location{Field: name, Offset: -1}

		if s.Offset.Line < 0 || s.Offset.Column < 0 ||
			s.Offset.Line < last.Line || (s.Offset.Line == last.Line && s.Offset.Column < last.Column) {
			diag.ReportError(r, diag.SecOrder, at,
				fmt.Sprintf("offset %d:%d follows %d:%d", s.Offset.Line, s.Offset.Column, max(last.Line, 0), last.Column)).Emit()
		} else {
			last = s.Offset
		}

		switch {
		case s.URL != "":
			diag.ReportError(r, diag.SecURL, at, "external section map "+s.URL+" is not supported").Emit()
		case s.Map == nil:
			diag.ReportError(r, diag.SecMissingMap, at, "section has neither map nor url").Emit()
		case s.Map.IsIndexed():
			diag.ReportError(r, diag.SecNested, at, "a section map cannot have sections").Emit()
		default:
			var sub gjson.Result
			if i < len(sections) {
				sub = sections[i].Get("map")
			}
			checkMap(r, field(name, "map"), sub, s.Map)
		}
	}
}

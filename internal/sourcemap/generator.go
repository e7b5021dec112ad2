package sourcemap

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"fortio.org/safecast"

	"smap/internal/arrayset"
	"smap/internal/srcurl"
	"smap/internal/vlq"
)

// ErrInvalidMapping is returned by AddMapping for a mapping that is neither
// generated-only nor fully specified.
var ErrInvalidMapping = errors.New("sourcemap: invalid mapping")

// GeneratorOptions configures a Generator.
type GeneratorOptions struct {
	File           string
	SourceRoot     string
	SkipValidation bool
}

// Generator builds a source map incrementally.
type Generator struct {
	file           string
	sourceRoot     string
	skipValidation bool

	sources  *arrayset.Set
	names    *arrayset.Set
	mappings []Mapping
	sorted   bool
	contents map[string]string
}

// NewGenerator returns an empty generator.
func NewGenerator(opts GeneratorOptions) *Generator {
	return &Generator{
		file:           opts.File,
		sourceRoot:     opts.SourceRoot,
		skipValidation: opts.SkipValidation,
		sources:        arrayset.New(),
		names:          arrayset.New(),
		sorted:         true,
		contents:       make(map[string]string),
	}
}

// NewGeneratorFromConsumer rebuilds a generator holding the mappings and
// source contents of c. Sources are made relative to c's source root.
func NewGeneratorFromConsumer(c Consumer) (*Generator, error) {
	return NewGeneratorWithRoot(c, c.SourceRoot())
}

// NewGeneratorWithRoot is NewGeneratorFromConsumer with sources made
// relative to root instead.
func NewGeneratorWithRoot(c Consumer, root string) (*Generator, error) {
	g := NewGenerator(GeneratorOptions{File: c.File(), SourceRoot: root})

	var addErr error
	err := c.EachMapping(GeneratedOrder, func(m Mapping) {
		if addErr != nil {
			return
		}
		out := Mapping{Generated: m.Generated}
		if m.HasOriginal() {
			out.Source = m.Source
			if root != "" {
				out.Source = srcurl.Relative(root, m.Source)
			}
			out.Original = m.Original
			out.Name = m.Name
		}
		addErr = g.AddMapping(out)
	})
	if err != nil {
		return nil, err
	}
	if addErr != nil {
		return nil, addErr
	}

	for _, s := range c.Sources() {
		rel := s
		if root != "" {
			rel = srcurl.Relative(root, s)
		}
		if !g.sources.Has(rel) {
			g.sources.Add(rel, false)
		}
		if content, ok := c.SourceContentFor(s); ok {
			g.SetSourceContent(s, content)
		}
	}
	return g, nil
}

// AddMapping records one mapping. Generated positions use 1-based lines and
// 0-based columns, as do original ones.
func (g *Generator) AddMapping(m Mapping) error {
	if !g.skipValidation {
		if err := validateMapping(m); err != nil {
			return err
		}
	}

	if m.Source != "" && !g.sources.Has(m.Source) {
		g.sources.Add(m.Source, false)
	}
	if m.Name != "" && !g.names.Has(m.Name) {
		g.names.Add(m.Name, false)
	}

	if n := len(g.mappings); n > 0 && g.sorted && compareGenerated(g.mappings[n-1], m) > 0 {
		g.sorted = false
	}
	g.mappings = append(g.mappings, m)
	return nil
}

func validateMapping(m Mapping) error {
	genOK := m.Generated.Line > 0 && m.Generated.Column >= 0
	switch {
	case genOK && !m.HasOriginal() && m.Source == "" && m.Name == "":
		return nil
	case genOK && m.HasOriginal() && m.Original.Column >= 0 && m.Source != "":
		return nil
	}
	return fmt.Errorf("%w: generated %s, original %s, source %q, name %q",
		ErrInvalidMapping, m.Generated, m.Original, m.Source, m.Name)
}

// SetSourceContent embeds the content of source.
func (g *Generator) SetSourceContent(source, content string) {
	g.contents[g.relative(source)] = content
}

// RemoveSourceContent drops embedded content of source.
func (g *Generator) RemoveSourceContent(source string) {
	delete(g.contents, g.relative(source))
}

func (g *Generator) relative(source string) string {
	if g.sourceRoot != "" {
		return srcurl.Relative(g.sourceRoot, source)
	}
	return source
}

// compareGenerated orders by generated position, then source, original
// position and name. Mappings without a source sort last.
func compareGenerated(a, b Mapping) int {
	if c := a.Generated.Line - b.Generated.Line; c != 0 {
		return c
	}
	if c := a.Generated.Column - b.Generated.Column; c != 0 {
		return c
	}
	if c := compareOptional(a.Source, b.Source); c != 0 {
		return c
	}
	if c := a.Original.Line - b.Original.Line; c != 0 {
		return c
	}
	if c := a.Original.Column - b.Original.Column; c != 0 {
		return c
	}
	return compareOptional(a.Name, b.Name)
}

func compareOptional(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}
	return strings.Compare(a, b)
}

func (g *Generator) serializeMappings() (string, error) {
	if !g.sorted {
		slices.SortStableFunc(g.mappings, compareGenerated)
		g.sorted = true
	}

	var buf []byte
	prevLine, prevColumn := 1, 0
	prevSource, prevName := 0, 0
	prevOrigLine, prevOrigCol := 0, 0
	for i, m := range g.mappings {
		if m.Generated.Line < prevLine {
			return "", fmt.Errorf("%w: generated line %d", ErrInvalidMapping, m.Generated.Line)
		}
		if m.Generated.Line != prevLine {
			prevColumn = 0
			for m.Generated.Line != prevLine {
				buf = append(buf, ';')
				prevLine++
			}
		} else if i > 0 {
			if compareGenerated(m, g.mappings[i-1]) == 0 {
				continue
			}
			buf = append(buf, ',')
		}

		var err error
		if buf, err = appendDelta(buf, m.Generated.Column, &prevColumn); err != nil {
			return "", err
		}
		if m.Source == "" {
			continue
		}
		src, _ := g.sources.IndexOf(m.Source)
		if buf, err = appendDelta(buf, src, &prevSource); err != nil {
			return "", err
		}
		if buf, err = appendDelta(buf, m.Original.Line-1, &prevOrigLine); err != nil {
			return "", err
		}
		if buf, err = appendDelta(buf, m.Original.Column, &prevOrigCol); err != nil {
			return "", err
		}
		if m.Name != "" {
			name, _ := g.names.IndexOf(m.Name)
			if buf, err = appendDelta(buf, name, &prevName); err != nil {
				return "", err
			}
		}
	}
	return string(buf), nil
}

func appendDelta(buf []byte, value int, prev *int) ([]byte, error) {
	d, err := safecast.Conv[int32](value - *prev)
	if err != nil {
		return buf, fmt.Errorf("sourcemap: delta %d: %w", value-*prev, err)
	}
	*prev = value
	return vlq.Append(buf, d), nil
}

// RawMap returns the document the generator would serialize.
func (g *Generator) RawMap() (*RawMap, error) {
	mappings, err := g.serializeMappings()
	if err != nil {
		return nil, err
	}
	raw := &RawMap{
		Version:    SupportedVersion,
		Sources:    g.sources.Slice(),
		Names:      g.names.Slice(),
		Mappings:   mappings,
		File:       g.file,
		SourceRoot: g.sourceRoot,
	}
	if len(g.contents) > 0 {
		raw.SourcesContent = make([]*string, len(raw.Sources))
		for i, s := range raw.Sources {
			if content, ok := g.contents[g.relative(s)]; ok {
				raw.SourcesContent[i] = &content
			}
		}
	}
	return raw, nil
}

// MarshalJSON serializes the generated map.
func (g *Generator) MarshalJSON() ([]byte, error) {
	raw, err := g.RawMap()
	if err != nil {
		return nil, err
	}
	return json.Marshal(raw)
}

// String returns the serialized map, or an empty string if it cannot be
// encoded.
func (g *Generator) String() string {
	data, err := g.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(data)
}

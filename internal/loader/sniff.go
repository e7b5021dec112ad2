package loader

import (
	"errors"

	"github.com/tidwall/gjson"

	"smap/internal/sourcemap"
)

// ErrNotJSON is returned by Sniff for input that is not valid JSON.
var ErrNotJSON = errors.New("not a valid JSON document")

// Summary describes a map without decoding its mappings.
type Summary struct {
	Version        string `json:"version"`
	File           string `json:"file,omitempty"`
	SourceRoot     string `json:"sourceRoot,omitempty"`
	Sources        int    `json:"sources"`
	Names          int    `json:"names"`
	SourcesContent int    `json:"sourcesContent"`
	Sections       int    `json:"sections"`
	Indexed        bool   `json:"indexed"`
	MappingsBytes  int    `json:"mappingsBytes"`
	Lines          int    `json:"lines"` // generated lines covered by the mappings
}

// Sniff reads the top-level fields of raw. For an indexed map the counts
// add up the sections.
func Sniff(raw []byte) (Summary, error) {
	raw = sourcemap.StripPrefix(raw)
	if !gjson.ValidBytes(raw) {
		return Summary{}, ErrNotJSON
	}

	res := gjson.GetManyBytes(raw, "version", "file", "sourceRoot", "sections")
	s := Summary{
		Version:    res[0].String(),
		File:       res[1].String(),
		SourceRoot: res[2].String(),
	}
	if res[3].Exists() {
		s.Indexed = true
		for _, section := range res[3].Array() {
			s.Sections++
			s.add(section.Get("map"))
		}
		return s, nil
	}
	s.add(gjson.ParseBytes(raw))
	return s, nil
}

func (s *Summary) add(m gjson.Result) {
	s.Sources += int(m.Get("sources.#").Int())
	s.Names += int(m.Get("names.#").Int())
	if mappings := m.Get("mappings").String(); mappings != "" {
		s.MappingsBytes += len(mappings)
		s.Lines += countLines(mappings)
	}
	m.Get("sourcesContent").ForEach(func(_, v gjson.Result) bool {
		if v.Type == gjson.String {
			s.SourcesContent++
		}
		return true
	})
}

func countLines(mappings string) int {
	n := 1
	for i := 0; i < len(mappings); i++ {
		if mappings[i] == ';' {
			n++
		}
	}
	return n
}

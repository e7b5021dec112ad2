package sourcemap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SupportedVersion is the only source map revision understood here.
const SupportedVersion = 3

// Version is the "version" field. Some tools write it as a string, so both
// 3 and "3" decode.
type Version int

// UnmarshalJSON accepts a number or a numeric string.
func (v *Version) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*v = 0
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("sourcemap: invalid version %s", data)
	}
	*v = Version(n)
	return nil
}

// RawMap mirrors the JSON document. Field order is the serialization order
// used by the generator.
type RawMap struct {
	Version        Version      `json:"version"`
	Sources        []string     `json:"sources"`
	Names          []string     `json:"names"`
	Mappings       string       `json:"mappings"`
	File           string       `json:"file,omitempty"`
	SourceRoot     string       `json:"sourceRoot,omitempty"`
	SourcesContent []*string    `json:"sourcesContent,omitempty"`
	Sections       []RawSection `json:"sections,omitempty"`
}

// RawOffset is the 0-based generated position where a section starts.
type RawOffset struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// RawSection is one entry of an indexed map.
type RawSection struct {
	Offset RawOffset `json:"offset"`
	Map    *RawMap   `json:"map,omitempty"`
	URL    string    `json:"url,omitempty"`
}

// IsIndexed reports whether the map is made of sections.
func (r *RawMap) IsIndexed() bool {
	return r.Sections != nil
}

var (
	utf8BOM    = []byte("\xef\xbb\xbf")
	xssiPrefix = []byte(")]}'")
)

// StripPrefix removes a UTF-8 byte order mark and the ")]}'" line some
// servers prepend to defeat cross-site script inclusion.
func StripPrefix(data []byte) []byte {
	data = bytes.TrimPrefix(data, utf8BOM)
	if bytes.HasPrefix(data, xssiPrefix) {
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			return data[i+1:]
		}
		return data[len(xssiPrefix):]
	}
	return data
}

// Parse decodes a source map document.
func Parse(data []byte) (*RawMap, error) {
	var raw RawMap
	if err := json.Unmarshal(StripPrefix(data), &raw); err != nil {
		return nil, fmt.Errorf("sourcemap: decode json: %w", err)
	}
	return &raw, nil
}

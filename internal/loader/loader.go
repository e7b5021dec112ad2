// Package loader reads source maps from a filesystem, either directly or by
// following the sourceMappingURL comment of generated code.
package loader

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
)

var (
	// ErrNoSourceMap is returned for generated code without a sourceMappingURL comment.
	ErrNoSourceMap = errors.New("no sourceMappingURL comment found")
	// ErrRemoteMap is returned when the comment points to a URL with a scheme.
	ErrRemoteMap = errors.New("remote source maps are not fetched")
	// ErrDataURL is returned for a malformed or non-JSON data URL.
	ErrDataURL = errors.New("invalid data URL")
)

// Flags describe how a document was found.
type Flags uint8

const (
	// FlagInline marks a map decoded from a data URL.
	FlagInline Flags = 1 << iota
	// FlagFromComment marks a map found through a sourceMappingURL comment.
	FlagFromComment
	// FlagHadBOM marks a map that started with a UTF-8 byte order mark.
	FlagHadBOM
)

// Document is a source map read from disk.
type Document struct {
	Path   string // file passed to Load
	MapURL string // location relative sources resolve against
	Raw    []byte
	Inline bool
	Hash   [32]byte
	Flags  Flags
}

// Load reads path from fs. A .map or .json file, or one whose content is a
// JSON object, is the map itself. Anything else is treated as generated code
// and its last sourceMappingURL comment is followed.
func Load(fs afero.Fs, p string) (*Document, error) {
	content, err := afero.ReadFile(fs, p)
	if err != nil {
		return nil, err
	}
	if isMapFile(p, content) {
		return newDocument(p, filepath.ToSlash(p), content, 0), nil
	}

	ref, ok := FindSourceMappingURL(content)
	if !ok {
		return nil, fmt.Errorf("%s: %w", p, ErrNoSourceMap)
	}
	if strings.HasPrefix(ref, "data:") {
		raw, err := DecodeDataURL(ref)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		// sources of an inline map resolve against the generated file
		return newDocument(p, filepath.ToSlash(p), raw, FlagInline|FlagFromComment), nil
	}
	if isRemote(ref) {
		return nil, fmt.Errorf("%s: %w: %s", p, ErrRemoteMap, ref)
	}

	rel, err := url.PathUnescape(ref)
	if err != nil {
		rel = ref
	}
	// strip query and fragment, they never name a file
	if i := strings.IndexAny(rel, "?#"); i >= 0 {
		rel = rel[:i]
	}
	mapPath := filepath.Join(filepath.Dir(p), filepath.FromSlash(rel))
	raw, err := afero.ReadFile(fs, mapPath)
	if err != nil {
		return nil, fmt.Errorf("%s: sourceMappingURL %s: %w", p, ref, err)
	}
	return newDocument(p, filepath.ToSlash(mapPath), raw, FlagFromComment), nil
}

func newDocument(p, mapURL string, raw []byte, flags Flags) *Document {
	if bytes.HasPrefix(raw, utf8BOM) {
		flags |= FlagHadBOM
	}
	return &Document{
		Path:   p,
		MapURL: mapURL,
		Raw:    raw,
		Inline: flags&FlagInline != 0,
		Hash:   sha256.Sum256(raw),
		Flags:  flags,
	}
}

var (
	utf8BOM    = []byte("\xef\xbb\xbf")
	xssiPrefix = []byte(")]}'")
)

func isMapFile(p string, content []byte) bool {
	switch strings.ToLower(path.Ext(filepath.ToSlash(p))) {
	case ".map", ".json":
		return true
	}
	content = bytes.TrimPrefix(content, utf8BOM)
	if bytes.HasPrefix(content, xssiPrefix) {
		return true
	}
	content = bytes.TrimLeft(content, " \t\r\n")
	return len(content) > 0 && content[0] == '{'
}

var remoteRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+\-.]*:`)

func isRemote(ref string) bool {
	return remoteRe.MatchString(ref) || strings.HasPrefix(ref, "//")
}

// JS line comments and CSS block comments, with the legacy "@" marker.
var sourceMappingURLRe = regexp.MustCompile(
	`(?m)(?://[#@][ \t]*sourceMappingURL=([^\s'"*]+)[ \t\r]*$|/\*[#@][ \t]*sourceMappingURL=([^\s'"*]+)[ \t]*\*/)`)

// FindSourceMappingURL returns the URL of the last sourceMappingURL comment.
func FindSourceMappingURL(content []byte) (string, bool) {
	all := sourceMappingURLRe.FindAllSubmatch(content, -1)
	if len(all) == 0 {
		return "", false
	}
	last := all[len(all)-1]
	if len(last[1]) > 0 {
		return string(last[1]), true
	}
	return string(last[2]), true
}

// DecodeDataURL returns the payload of a data: URL holding JSON.
func DecodeDataURL(ref string) ([]byte, error) {
	rest, ok := strings.CutPrefix(ref, "data:")
	if !ok {
		return nil, fmt.Errorf("%w: missing data: scheme", ErrDataURL)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("%w: missing comma", ErrDataURL)
	}

	params := strings.Split(meta, ";")
	mediaType := strings.ToLower(strings.TrimSpace(params[0]))
	if mediaType != "" && mediaType != "application/json" && mediaType != "text/json" {
		return nil, fmt.Errorf("%w: media type %q", ErrDataURL, mediaType)
	}
	isBase64 := false
	for _, param := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(param), "base64") {
			isBase64 = true
		}
	}

	if !isBase64 {
		s, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDataURL, err)
		}
		return []byte(s), nil
	}
	out, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// some bundlers drop the padding
		out, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDataURL, err)
	}
	return out, nil
}

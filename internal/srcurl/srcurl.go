// Package srcurl resolves the URLs found in source maps: the map's own URL,
// its "sourceRoot" and every entry of "sources".
//
// All helpers keep the kind of their input. A path-relative input yields a
// path-relative output, even when it climbs above its starting point with
// "..". To get there every input is resolved against a synthetic
// "http://host/" base that is deep enough to absorb all ".." segments, and
// the synthetic part is stripped again afterwards.
package srcurl

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Kind classifies a URL string.
type Kind uint8

const (
	// PathRelative is a plain relative path such as "src/a.js".
	PathRelative Kind = iota
	// PathAbsolute starts with a single slash.
	PathAbsolute
	// SchemeRelative starts with "//".
	SchemeRelative
	// Absolute carries its own scheme.
	Absolute
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case PathRelative:
		return "path-relative"
	case PathAbsolute:
		return "path-absolute"
	case SchemeRelative:
		return "scheme-relative"
	case Absolute:
		return "absolute"
	default:
		return "unknown"
	}
}

const (
	protocol        = "http:"
	protocolAndHost = protocol + "//host"
)

var absoluteScheme = regexp.MustCompile(`^[A-Za-z0-9+\-.]+:/`)

// KindOf classifies s.
func KindOf(s string) Kind {
	if strings.HasPrefix(s, "/") {
		if strings.HasPrefix(s, "//") {
			return SchemeRelative
		}
		return PathAbsolute
	}
	if absoluteScheme.MatchString(s) {
		return Absolute
	}
	return PathRelative
}

// Normalize removes dot segments and applies URL escaping to s.
func Normalize(s string) string {
	return transform(s, nil)
}

// EnsureDirectory makes s end with a slash.
func EnsureDirectory(s string) string {
	return transform(s, func(u *url.URL) {
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
			if u.RawPath != "" {
				u.RawPath += "/"
			}
		}
	})
}

// TrimFilename drops the last path segment of s, keeping the trailing slash.
func TrimFilename(s string) string {
	return transform(s, func(u *url.URL) {
		u.Path = u.Path[:strings.LastIndex(u.Path, "/")+1]
		if u.RawPath != "" {
			u.RawPath = u.RawPath[:strings.LastIndex(u.RawPath, "/")+1]
		}
	})
}

// Join resolves path against root, treating root as a directory.
func Join(root, path string) string {
	pathKind := KindOf(path)
	rootKind := KindOf(root)

	root = EnsureDirectory(root)

	switch {
	case pathKind == Absolute:
		return withBase(path, "")
	case rootKind == Absolute:
		return withBase(path, root)
	case pathKind == SchemeRelative:
		return Normalize(path)
	case rootKind == SchemeRelative:
		return strings.TrimPrefix(withBase(path, withBase(root, protocolAndHost)), protocol)
	case pathKind == PathAbsolute:
		return Normalize(path)
	case rootKind == PathAbsolute:
		return strings.TrimPrefix(withBase(path, withBase(root, protocolAndHost)), protocolAndHost)
	}

	base := safeBase(path + root)
	joined := withBase(path, withBase(root, base))
	b, err := url.Parse(base)
	if err != nil {
		return joined
	}
	j, err := url.Parse(joined)
	if err != nil {
		return joined
	}
	return relativeURL(b, j)
}

// Relative returns target expressed relative to root when both share kind,
// scheme and host. Otherwise it returns the normalized target.
func Relative(root, target string) string {
	if rel, ok := replaceIfPossible(root, target); ok {
		return rel
	}
	return Normalize(target)
}

// ComputeSourceURL returns the URL of a "sources" entry given the map's
// sourceRoot and the URL the map was loaded from. Empty strings mean absent.
//
// A path-absolute source is made relative to a non-empty sourceRoot, so
// {sourceRoot: "dir", sources: ["/a.js"]} resolves to "dir/a.js".
func ComputeSourceURL(sourceRoot, source, mapURL string) string {
	if sourceRoot != "" && KindOf(source) == PathAbsolute {
		source = source[1:]
	}

	u := Normalize(source)
	if sourceRoot != "" {
		u = Join(sourceRoot, u)
	}
	if mapURL != "" {
		u = Join(TrimFilename(mapURL), u)
	}
	return u
}

func replaceIfPossible(root, target string) (string, bool) {
	if KindOf(root) != KindOf(target) {
		return "", false
	}

	b, err := url.Parse(safeBase(root + target))
	if err != nil {
		return "", false
	}
	rootRef, err := url.Parse(root)
	if err != nil {
		return "", false
	}
	targetRef, err := url.Parse(target)
	if err != nil {
		return "", false
	}
	rootURL := b.ResolveReference(rootRef)
	targetURL := b.ResolveReference(targetRef)

	if rootURL.Scheme != targetURL.Scheme ||
		rootURL.User.String() != targetURL.User.String() ||
		rootURL.Host != targetURL.Host {
		return "", false
	}
	return relativeURL(rootURL, targetURL), true
}

// transform resolves input against a safe base, lets mutate adjust the
// result and converts it back to the kind of input.
func transform(input string, mutate func(*url.URL)) string {
	kind := KindOf(input)
	base, err := url.Parse(safeBase(input))
	if err != nil {
		return input
	}
	ref, err := url.Parse(input)
	if err != nil {
		return input
	}
	u := base.ResolveReference(ref)
	if mutate != nil {
		mutate(u)
	}

	switch kind {
	case Absolute:
		return u.String()
	case SchemeRelative:
		return strings.TrimPrefix(u.String(), protocol)
	case PathAbsolute:
		return strings.TrimPrefix(u.String(), protocolAndHost)
	default:
		return relativeURL(base, u)
	}
}

func withBase(input, base string) string {
	ref, err := url.Parse(input)
	if err != nil {
		return input
	}
	if base == "" {
		return ref.ResolveReference(&url.URL{}).String()
	}
	b, err := url.Parse(base)
	if err != nil {
		return input
	}
	return b.ResolveReference(ref).String()
}

// safeBase returns "http://host/" followed by one unique segment for every
// ".." in input.
func safeBase(input string) string {
	dots := strings.Count(input, "..")
	segment := uniqueSegment("p", input)

	var b strings.Builder
	b.WriteString(protocolAndHost)
	b.WriteByte('/')
	for range dots {
		b.WriteString(segment)
		b.WriteByte('/')
	}
	return b.String()
}

// uniqueSegment picks a segment name absent from input; otherwise the
// relative path from base back to input could not be computed.
func uniqueSegment(prefix, input string) string {
	for id := 0; ; id++ {
		ident := prefix + strconv.Itoa(id)
		if !strings.Contains(input, ident) {
			return ident
		}
	}
}

func relativeURL(root, target *url.URL) string {
	targetParts := strings.Split(target.EscapedPath(), "/")
	rootParts := strings.Split(root.EscapedPath(), "/")

	// a trailing slash would make us relative to the wrong directory
	if len(rootParts) > 0 && rootParts[len(rootParts)-1] == "" {
		rootParts = rootParts[:len(rootParts)-1]
	}

	for len(targetParts) > 0 && len(rootParts) > 0 && targetParts[0] == rootParts[0] {
		targetParts = targetParts[1:]
		rootParts = rootParts[1:]
	}

	parts := make([]string, 0, len(rootParts)+len(targetParts))
	for range rootParts {
		parts = append(parts, "..")
	}
	parts = append(parts, targetParts...)

	rel := strings.Join(parts, "/")
	if target.RawQuery != "" || target.ForceQuery {
		rel += "?" + target.RawQuery
	}
	if target.Fragment != "" {
		rel += "#" + target.EscapedFragment()
	}
	return rel
}

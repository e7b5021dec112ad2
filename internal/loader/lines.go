package loader

// LineCol is a 1-based line and column in a file.
type LineCol struct {
	Line int
	Col  int
}

// LineIndex holds the offsets of every '\n' in a file.
type LineIndex []int

// BuildLineIndex indexes the line breaks of content.
func BuildLineIndex(content []byte) LineIndex {
	out := make(LineIndex, 0, 16)
	for i, b := range content {
		if b == '\n' {
			out = append(out, i)
		}
	}
	return out
}

// Position converts a byte offset into a line and column.
func (idx LineIndex) Position(off int) LineCol {
	// largest idx[i] < off
	lo, hi := 0, len(idx)-1
	for lo <= hi {
		mid := (lo + hi) >> 1
		if idx[mid] < off {
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	if hi < 0 {
		return LineCol{Line: 1, Col: off + 1}
	}
	return LineCol{Line: hi + 2, Col: off - idx[hi]}
}

// Package arrayset provides an insertion-ordered set of strings that also
// answers "at which index was this added".
package arrayset

// Set keeps strings in insertion order. When duplicates are allowed the
// backing slice keeps every copy but IndexOf reports the first one.
type Set struct {
	items []string
	index map[string]int
}

// New returns an empty Set.
func New() *Set {
	return &Set{index: make(map[string]int)}
}

// FromSlice builds a Set from items.
func FromSlice(items []string, allowDuplicates bool) *Set {
	s := &Set{
		items: make([]string, 0, len(items)),
		index: make(map[string]int, len(items)),
	}
	for _, it := range items {
		s.Add(it, allowDuplicates)
	}
	return s
}

// Add appends item unless it is already present and duplicates are not allowed.
func (s *Set) Add(item string, allowDuplicates bool) {
	_, dup := s.index[item]
	idx := len(s.items)
	if !dup || allowDuplicates {
		s.items = append(s.items, item)
	}
	if !dup {
		s.index[item] = idx
	}
}

// Has reports whether item is in the set.
func (s *Set) Has(item string) bool {
	_, ok := s.index[item]
	return ok
}

// IndexOf returns the index item was first added at.
func (s *Set) IndexOf(item string) (int, bool) {
	idx, ok := s.index[item]
	return idx, ok
}

// At returns the element at idx.
func (s *Set) At(idx int) (string, bool) {
	if idx < 0 || idx >= len(s.items) {
		return "", false
	}
	return s.items[idx], true
}

// Size returns the number of distinct elements.
func (s *Set) Size() int {
	return len(s.index)
}

// Len returns the number of stored elements, duplicates included.
func (s *Set) Len() int {
	return len(s.items)
}

// Slice returns a copy of the stored elements in index order.
func (s *Set) Slice() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

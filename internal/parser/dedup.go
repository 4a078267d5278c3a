package parser

import "strings"

// FoldSet tracks strings under case-insensitive equality.
type FoldSet struct {
	seen map[string]struct{}
}

// NewFoldSet creates a FoldSet with the given estimated capacity.
func NewFoldSet(estimatedCapacity int) *FoldSet {
	return &FoldSet{
		seen: make(map[string]struct{}, estimatedCapacity),
	}
}

// Add records v and reports whether it was new.
func (s *FoldSet) Add(v string) bool {
	key := strings.ToLower(v)
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Has reports whether v, ignoring case, has been added.
func (s *FoldSet) Has(v string) bool {
	_, ok := s.seen[strings.ToLower(v)]
	return ok
}

// Len returns the number of distinct entries.
func (s *FoldSet) Len() int {
	return len(s.seen)
}

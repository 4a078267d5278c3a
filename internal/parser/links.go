package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/IshaanNene/critterdex/internal/types"
)

// DefaultLinkPattern matches internal wiki paths made of letters,
// underscores, and parentheses.
const DefaultLinkPattern = `/wiki/[A-Za-z_()]+`

// WikiLinks returns every match of pattern in the raw markup, in order of
// appearance. Matching is done on the raw bytes, not on parsed anchors, so
// links inside scripts and inline JSON are found too.
func WikiLinks(body []byte, pattern *regexp.Regexp) []string {
	matches := pattern.FindAll(body, -1)
	links := make([]string, len(matches))
	for i, m := range matches {
		links[i] = string(m)
	}
	return links
}

// DedupeFold removes case-insensitive duplicates, keeping the first-seen
// spelling at its original position.
func DedupeFold(paths []string) []string {
	seen := NewFoldSet(len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if seen.Add(p) {
			out = append(out, p)
		}
	}
	return out
}

// RangeFilter returns the paths strictly between /wiki/<start> and
// /wiki/<end>. Markers match exactly and the first occurrence of each is
// used. A missing marker, or an end marker that does not follow the start
// marker, is types.ErrNotFound.
func RangeFilter(paths []string, start, end string) ([]string, error) {
	startIdx := indexOf(paths, "/wiki/"+start)
	if startIdx < 0 {
		return nil, fmt.Errorf("range start %q: %w", start, types.ErrNotFound)
	}
	endIdx := indexOf(paths, "/wiki/"+end)
	if endIdx < 0 {
		return nil, fmt.Errorf("range end %q: %w", end, types.ErrNotFound)
	}
	if endIdx <= startIdx {
		return nil, fmt.Errorf("range end %q precedes start %q: %w", end, start, types.ErrNotFound)
	}
	return append([]string(nil), paths[startIdx+1:endIdx]...), nil
}

// Absolute prefixes each path with the site base URL.
func Absolute(baseURL string, paths []string) []string {
	base := strings.TrimRight(baseURL, "/")
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = base + p
	}
	return out
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return -1
}

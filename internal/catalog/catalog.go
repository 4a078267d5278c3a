// Package catalog enumerates the game editions and creature kinds the wiki
// is crawled for, and the root category pages they map to.
package catalog

import (
	"fmt"
	"strings"
)

// Version identifies a game edition. The value is the wiki's own tag, as
// used in category page names and In_<Version> heading anchors.
type Version string

const (
	AnimalCrossing Version = "Animal_Crossing"
	WildWorld      Version = "Wild_World"
	CityFolk       Version = "City_Folk"
	NewLeaf        Version = "New_Leaf"
	NewHorizons    Version = "New_Horizons"
)

// Kind identifies a creature category.
type Kind string

const (
	Bugs    Kind = "bugs"
	Fish    Kind = "fish"
	DeepSea Kind = "deep-sea_creatures"
)

var versions = []Version{AnimalCrossing, WildWorld, CityFolk, NewLeaf, NewHorizons}

var kinds = []Kind{Bugs, Fish, DeepSea}

// Versions returns every edition in release order.
func Versions() []Version {
	return append([]Version(nil), versions...)
}

// Kinds returns every creature kind in declaration order.
func Kinds() []Kind {
	return append([]Kind(nil), kinds...)
}

// ParseVersion matches s against the known editions, ignoring case.
func ParseVersion(s string) (Version, error) {
	for _, v := range versions {
		if strings.EqualFold(string(v), strings.TrimSpace(s)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown version %q", s)
}

// ParseKind matches s against the known creature kinds, ignoring case.
func ParseKind(s string) (Kind, error) {
	for _, k := range kinds {
		if strings.EqualFold(string(k), strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown creature kind %q", s)
}

// AppliesTo reports whether creatures of kind k exist in edition v.
// Deep-sea creatures were introduced in New Leaf.
func (k Kind) AppliesTo(v Version) bool {
	if k == DeepSea {
		return v == NewLeaf || v == NewHorizons
	}
	return true
}

// Target is a root category page for one (version, kind) pair.
type Target struct {
	Version Version
	Kind    Kind
	URL     string
}

// Table returns the output table name, e.g. "new_horizons_fish".
func (t Target) Table() string {
	return strings.ToLower(string(t.Version)) + "_" + string(t.Kind)
}

func (t Target) String() string {
	return string(t.Kind) + "_(" + string(t.Version) + ")"
}

// RootURL returns the category page address for (v, k) under baseURL.
func RootURL(baseURL string, v Version, k Kind) string {
	return strings.TrimRight(baseURL, "/") + "/wiki/" + string(k) + "_(" + string(v) + ")"
}

// Filter restricts target enumeration. Empty slices match everything.
type Filter struct {
	Versions []Version
	Kinds    []Kind
}

func (f Filter) allows(v Version, k Kind) bool {
	if len(f.Versions) > 0 && !contains(f.Versions, v) {
		return false
	}
	if len(f.Kinds) > 0 && !contains(f.Kinds, k) {
		return false
	}
	return true
}

// Targets enumerates every compatible (version, kind) pair allowed by
// filter, versions in release order and kinds in declaration order.
func Targets(baseURL string, filter Filter) []Target {
	var targets []Target
	for _, v := range versions {
		for _, k := range kinds {
			if !k.AppliesTo(v) || !filter.allows(v, k) {
				continue
			}
			targets = append(targets, Target{
				Version: v,
				Kind:    k,
				URL:     RootURL(baseURL, v, k),
			})
		}
	}
	return targets
}

func contains[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

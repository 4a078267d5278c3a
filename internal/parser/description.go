package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/critterdex/internal/types"
)

// Policy locates a version's description inside a detail page.
//
// The page is searched for the element with id AnchorPrefix+version. Each
// selector in Tags is then tried in order: the first element matching it
// that follows the anchor in document order and whose text is at least
// MinLength characters long is the description. Shorter matches are
// captions or sentence fragments that some layouts place before the real
// paragraph.
type Policy struct {
	AnchorPrefix string
	Tags         []string
	MinLength    int
}

// DefaultPolicy is the policy the crawler was last tuned against.
func DefaultPolicy() Policy {
	return Policy{
		AnchorPrefix: "In_",
		Tags:         []string{"p"},
		MinLength:    120,
	}
}

func (pol Policy) accepts(text string) bool {
	return utf8.RuneCountInString(text) >= pol.MinLength
}

// Description returns the cleaned description for version.
//
// A page without the version anchor returns types.ErrNotFound: the creature
// is not in that edition. A page where no candidate after the anchor is
// long enough returns types.ErrMalformedPage.
func (p *Page) Description(version string, pol Policy) (string, error) {
	anchorID := pol.AnchorPrefix + version
	anchor := p.doc.Find(`[id="` + anchorID + `"]`).First()
	if anchor.Length() == 0 {
		return "", fmt.Errorf("anchor %s: %w", anchorID, types.ErrNotFound)
	}

	order := documentOrder(p.root)
	after := order[anchor.Get(0)]

	for _, tag := range pol.Tags {
		var found string
		p.doc.Find(tag).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if order[sel.Get(0)] <= after {
				return true
			}
			text := sel.Text()
			if !pol.accepts(text) {
				return true
			}
			found = CleanDescription(text)
			return found == ""
		})
		if found != "" {
			return found, nil
		}
	}

	return "", &types.ParseError{
		URL:     p.URL,
		Version: version,
		Err:     fmt.Errorf("no %s after %s reaches %d characters: %w", strings.Join(pol.Tags, "/"), anchorID, pol.MinLength, types.ErrMalformedPage),
	}
}

// CleanDescription trims quote, space, and newline characters from both
// ends. Empty input yields empty output.
func CleanDescription(s string) string {
	return strings.Trim(s, "\" \n")
}

// documentOrder numbers every node in a pre-order walk of the tree.
func documentOrder(root *html.Node) map[*html.Node]int {
	order := make(map[*html.Node]int)
	i := 0
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		order[n] = i
		i++
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return order
}

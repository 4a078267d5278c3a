package parser

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/critterdex/internal/types"
)

// Page is a parsed creature detail page. The tree is parsed once and
// queried with both CSS selectors (goquery) and XPath (htmlquery).
type Page struct {
	URL  string
	root *html.Node
	doc  *goquery.Document
}

// ParsePage parses raw markup fetched from url.
func ParsePage(url string, body []byte) (*Page, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &types.ParseError{URL: url, Err: err}
	}
	return &Page{
		URL:  url,
		root: root,
		doc:  goquery.NewDocumentFromNode(root),
	}, nil
}

// Title returns the text of the document's <title> element.
func (p *Page) Title() (string, error) {
	node, err := htmlquery.Query(p.root, "//title")
	if err != nil {
		return "", &types.ParseError{URL: p.URL, Err: err}
	}
	if node == nil {
		return "", fmt.Errorf("title element: %w", types.ErrNotFound)
	}
	return htmlquery.InnerText(node), nil
}

// Name returns the creature's display name from the page title.
func (p *Page) Name() (string, error) {
	title, err := p.Title()
	if err != nil {
		return "", err
	}
	return NameFromTitle(title)
}

// NameFromTitle returns the part of a wiki title before the first '|',
// with the single separator character preceding the pipe removed:
// "Sea Bass | Animal Crossing Wiki" yields "Sea Bass".
func NameFromTitle(title string) (string, error) {
	idx := strings.Index(title, "|")
	if idx < 0 {
		return "", fmt.Errorf("title %q has no separator: %w", title, types.ErrNotFound)
	}
	name := title[:idx]
	_, size := utf8.DecodeLastRuneInString(name)
	name = name[:len(name)-size]
	if name == "" {
		return "", fmt.Errorf("title %q has an empty name: %w", title, types.ErrNotFound)
	}
	return name, nil
}

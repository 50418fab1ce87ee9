// Package dom turns serialized markup captured from the live page into queryable
// snapshots and provides the text and style helpers the extractors share.
package dom

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// ErrEmptySnapshot is returned when the captured markup holds no element.
var ErrEmptySnapshot = errors.New("dom: snapshot contains no element")

var backgroundURLRe = regexp.MustCompile(`url\(\s*["']?([^"')]+?)["']?\s*\)`)

// Parse parses the outer HTML of a single element and returns a selection rooted at it.
func Parse(outerHTML string) (*goquery.Selection, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(outerHTML))
	if err != nil {
		return nil, fmt.Errorf("dom: parse snapshot: %w", err)
	}
	root := doc.Find("body").Children().First()
	if root.Length() == 0 {
		// Elements that may only live in <head> end up there after parsing.
		root = doc.Find("head").Children().First()
	}
	if root.Length() == 0 {
		return nil, ErrEmptySnapshot
	}
	return root, nil
}

// BackgroundImageURL pulls the first url(...) out of an inline style or computed
// background-image value.
func BackgroundImageURL(style string) (string, bool) {
	if !strings.Contains(style, "url(") {
		return "", false
	}
	m := backgroundURLRe.FindStringSubmatch(style)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// XPath evaluates expr relative to every node of sel and returns the matches in order.
func XPath(sel *goquery.Selection, expr string) ([]*html.Node, error) {
	var out []*html.Node
	for _, n := range sel.Nodes {
		nodes, err := htmlquery.QueryAll(n, expr)
		if err != nil {
			return nil, fmt.Errorf("dom: xpath %q: %w", expr, err)
		}
		out = append(out, nodes...)
	}
	return out, nil
}

// XPathText returns the rendered text of the first node matching expr, or "".
func XPathText(sel *goquery.Selection, expr string) string {
	nodes, err := XPath(sel, expr)
	if err != nil || len(nodes) == 0 {
		return ""
	}
	return InnerText(goquery.NewDocumentFromNode(nodes[0]).Selection)
}

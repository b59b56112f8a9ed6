package pipeline

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultKeywords mark a block of text as part of the terms
var DefaultKeywords = []string{
	"terms",
	"usage",
	"license",
	"privacy",
	"data",
	"limitation",
	"prohibited",
	"commercial",
	"redistribution",
}

var (
	skippedElements = map[atom.Atom]bool{
		atom.Script: true,
		atom.Style:  true,
		atom.Footer: true,
		atom.Nav:    true,
		atom.Head:   true,
	}
	blockElements = map[atom.Atom]bool{
		atom.P:  true,
		atom.Li: true,
		atom.H1: true,
		atom.H2: true,
		atom.H3: true,
		atom.H4: true,
	}
)

// TermsExtractor pulls the legally relevant text out of a terms page
type TermsExtractor struct {
	keywords []string
}

// NewTermsExtractor creates an extractor; no keywords means DefaultKeywords
func NewTermsExtractor(keywords ...string) *TermsExtractor {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	lower := make([]string, len(keywords))
	for i, kw := range keywords {
		lower[i] = strings.ToLower(kw)
	}
	return &TermsExtractor{keywords: lower}
}

// Extract returns the text of every paragraph, list item and h1-h4 heading
// that mentions a keyword, one block per line in document order.
func (e *TermsExtractor) Extract(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	var blocks []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skippedElements[n.DataAtom] {
				return
			}
			if blockElements[n.DataAtom] {
				text := nodeText(n)
				if text != "" && e.relevant(text) {
					blocks = append(blocks, text)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(blocks, "\n"), nil
}

func (e *TermsExtractor) relevant(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range e.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// nodeText joins the text under n with single spaces, skipping the same
// elements Extract does.
func nodeText(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		case html.ElementNode:
			if skippedElements[n.DataAtom] {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

package source

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Line is one block-terminated text run with the links seen inside it.
// Scrape adapters classify sequences of these instead of walking markup.
type Line struct {
	Text  string
	Hrefs []string
}

var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"br": true,
}

// ParseLines tokenizes an HTML document into a flat line sequence. Text
// nodes accumulate until a block-level tag opens or closes; hrefs are
// collected in document order and deduplicated per line.
func ParseLines(r io.Reader) ([]Line, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	t := &lineTokenizer{}
	t.walk(doc)
	t.flush()
	return t.lines, nil
}

type lineTokenizer struct {
	lines       []Line
	textParts   []string
	hrefs       []string
	anchorDepth int
	currentHref string
}

func (t *lineTokenizer) walk(n *html.Node) {
	switch n.Type {
	case html.ElementNode:
		if blockTags[n.Data] {
			t.flush()
		}
		if n.Data == "a" {
			t.anchorDepth++
			if href := attr(n, "href"); href != "" {
				t.currentHref = href
			}
		}
	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text != "" {
			t.textParts = append(t.textParts, text)
			if t.anchorDepth > 0 && t.currentHref != "" {
				t.hrefs = append(t.hrefs, t.currentHref)
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		t.walk(c)
	}

	if n.Type == html.ElementNode {
		if n.Data == "a" {
			t.anchorDepth--
			if t.anchorDepth == 0 {
				t.currentHref = ""
			}
		}
		if blockTags[n.Data] {
			t.flush()
		}
	}
}

func (t *lineTokenizer) flush() {
	if len(t.textParts) == 0 {
		t.hrefs = nil
		return
	}
	text := strings.TrimSpace(strings.Join(t.textParts, " "))
	if text != "" {
		t.lines = append(t.lines, Line{Text: text, Hrefs: dedupe(t.hrefs)})
	}
	t.textParts = nil
	t.hrefs = nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func dedupe(hrefs []string) []string {
	if len(hrefs) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(hrefs))
	var out []string
	for _, h := range hrefs {
		if !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	return out
}

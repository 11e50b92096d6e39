// Package dom wraps golang.org/x/net/html with the document operations the
// editing engine needs: CSS selector resolution, structural insertion,
// attribute and class helpers, inline style parsing, and the exclusion
// rules that keep the editor's own injected UI out of reach.
package dom

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed HTML document the engine mutates in place.
type Document struct {
	root *html.Node
}

// Parse parses a full HTML document. The tree is normalised the way
// browsers normalise it (html/head/body are synthesised if missing).
func Parse(content string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	return &Document{root: root}, nil
}

// Root returns the document node.
func (d *Document) Root() *html.Node { return d.root }

// Render serialises the document back to HTML.
func (d *Document) Render() (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return "", fmt.Errorf("dom: render: %w", err)
	}
	return buf.String(), nil
}

// Head returns the <head> element, or nil.
func (d *Document) Head() *html.Node { return d.findAtom(atom.Head) }

// Body returns the <body> element, or nil.
func (d *Document) Body() *html.Node { return d.findAtom(atom.Body) }

func (d *Document) findAtom(a atom.Atom) *html.Node {
	var found *html.Node
	Walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == a {
			found = n
			return false
		}
		return true
	})
	return found
}

// QueryAll returns every element matching the CSS selector, excluding
// nodes owned by the editor's injected UI.
func (d *Document) QueryAll(selector string) ([]*html.Node, error) {
	m, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, fmt.Errorf("dom: selector %q: %w", selector, err)
	}
	var out []*html.Node
	for _, n := range cascadia.QueryAll(d.root, m) {
		if IsEditorOwned(n) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// Contains reports whether n is still attached to this document.
// Every node reference held across an asynchronous gap must be
// re-validated with this before use.
func (d *Document) Contains(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == d.root {
			return true
		}
	}
	return false
}

// ParseFragment parses markup in the context of the given element, the
// same way innerHTML assignment parses (e.g. <tr> needs a <table> context).
func ParseFragment(markup string, context *html.Node) ([]*html.Node, error) {
	ctx := context
	if ctx == nil || ctx.Type != html.ElementNode {
		ctx = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, fmt.Errorf("dom: parse fragment: %w", err)
	}
	return nodes, nil
}

// RenderNode serialises a single node subtree.
func RenderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("dom: render node: %w", err)
	}
	return buf.String(), nil
}

// Walk visits n and its subtree depth-first. Returning false from fn
// stops descent into that subtree (not the whole walk).
func Walk(n *html.Node, fn func(*html.Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		Walk(c, fn)
	}
}

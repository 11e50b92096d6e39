package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Reserved namespace for everything the editor injects into the host
// document. Elements in this namespace are invisible to selector
// generation, selector resolution, and drop targeting.
const (
	// NamespacePrefix marks editor-owned ids and class tokens.
	NamespacePrefix = "domedit-"
	// NamespaceAttr marks editor-owned elements regardless of class.
	NamespaceAttr = "data-domedit"
	// RootID is the id of the editor's root container; everything nested
	// under it is editor-owned.
	RootID = "domedit-root"
	// StylesheetID is the id of the engine-owned <style> element that
	// carries pseudo-state rules.
	StylesheetID = "domedit-rules"
)

// IsEditorOwned reports whether a node belongs to the editor's injected UI:
// it carries the marker attribute or a namespaced id, or is nested under an
// element that does. Namespaced class tokens alone do not confer ownership:
// the engine puts transient highlight classes on page elements during a
// drag, and those must stay selectable.
func IsEditorOwned(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		if _, ok := GetAttr(cur, NamespaceAttr); ok {
			return true
		}
		if id, ok := GetAttr(cur, "id"); ok && strings.HasPrefix(id, NamespacePrefix) {
			return true
		}
	}
	return false
}

// PageClasses returns the element's class tokens with editor-owned tokens
// filtered out. Selector generation must never bake editor classes into
// a selector: they disappear when the editor detaches.
func PageClasses(n *html.Node) []string {
	var out []string
	for _, c := range Classes(n) {
		if strings.HasPrefix(c, NamespacePrefix) {
			continue
		}
		out = append(out, c)
	}
	return out
}

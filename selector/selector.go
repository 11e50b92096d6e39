// Package selector generates CSS selectors that identify an element
// uniquely and survive page reloads. The strategy mirrors how domwatch
// computes XPaths from sibling indexes, expressed as CSS so the selectors
// can be resolved by any querySelector-compatible engine.
package selector

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/domedit/dom"
)

// Framework-generated ids change between renders and must never anchor a
// selector. React useId emits colon-delimited ids; several UI kits emit
// purely numeric ones.
var generatedIDPattern = regexp.MustCompile(`^\d+$|:`)

// Generate produces a selector for el, deterministic for a given DOM shape.
//
// If the element has a stable author-assigned id the selector is just "#id".
// Otherwise a path of tag[.classes][:nth-child(n)] parts is built from the
// element up to (but excluding) body, joined top-down with " > ".
//
// There is no failure mode beyond editor-owned elements: the worst case is
// a long selector, unique against the current DOM shape but not guaranteed
// globally minimal.
func Generate(el *html.Node) (string, error) {
	if el == nil || el.Type != html.ElementNode {
		return "", fmt.Errorf("selector: target is not an element")
	}
	if dom.IsEditorOwned(el) {
		return "", fmt.Errorf("selector: element is editor-owned")
	}

	if id, ok := dom.GetAttr(el, "id"); ok && isStableID(id) {
		return "#" + id, nil
	}

	var parts []string
	for cur := el; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		if cur.DataAtom == atom.Body || cur.DataAtom == atom.Html {
			break
		}
		parts = append([]string{levelPart(cur)}, parts...)
		if cur.Parent == nil || cur.Parent.Type != html.ElementNode {
			break
		}
	}
	if len(parts) == 0 {
		// el is body or html itself.
		return el.Data, nil
	}
	return strings.Join(parts, " > "), nil
}

func isStableID(id string) bool {
	if id == "" {
		return false
	}
	if strings.HasPrefix(id, dom.NamespacePrefix) {
		return false
	}
	return !generatedIDPattern.MatchString(id)
}

// levelPart renders one path level: tag, page-owned classes, and an
// :nth-child disambiguator when siblings share the tag name. The index
// counts all element siblings, not just same-tag ones, matching what
// :nth-child resolves against.
func levelPart(el *html.Node) string {
	var sb strings.Builder
	sb.WriteString(el.Data)

	for _, c := range dom.PageClasses(el) {
		sb.WriteString(".")
		sb.WriteString(c)
	}

	if el.Parent != nil {
		sameTag := 0
		index := 0
		pos := 0
		for sib := el.Parent.FirstChild; sib != nil; sib = sib.NextSibling {
			if sib.Type != html.ElementNode {
				continue
			}
			pos++
			if sib == el {
				index = pos
			}
			if sib.Data == el.Data {
				sameTag++
			}
		}
		if sameTag > 1 {
			fmt.Fprintf(&sb, ":nth-child(%d)", index)
		}
	}
	return sb.String()
}

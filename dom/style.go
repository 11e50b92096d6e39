package dom

import (
	"strings"

	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
)

// Declaration is one CSS property/value pair from an inline style.
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// ParseInlineStyle parses a style attribute value into ordered declarations.
// Unparseable input yields an empty list rather than an error: a broken
// style attribute on the page must not block the engine.
func ParseInlineStyle(style string) []Declaration {
	decls, err := parser.ParseDeclarations(style)
	if err != nil {
		return nil
	}
	out := make([]Declaration, 0, len(decls))
	for _, d := range decls {
		prop := strings.TrimSpace(d.Property)
		if prop == "" {
			continue
		}
		out = append(out, Declaration{
			Property:  prop,
			Value:     strings.TrimSpace(d.Value),
			Important: d.Important,
		})
	}
	return out
}

// SerializeInlineStyle renders declarations back to a style attribute value.
func SerializeInlineStyle(decls []Declaration) string {
	var sb strings.Builder
	for i, d := range decls {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(d.Property)
		sb.WriteString(": ")
		sb.WriteString(d.Value)
		if d.Important {
			sb.WriteString(" !important")
		}
		sb.WriteString(";")
	}
	return sb.String()
}

// MergeInlineStyle overlays new properties onto existing declarations.
// Existing declarations keep their position; new properties are appended
// in sorted order for determinism.
func MergeInlineStyle(existing []Declaration, props map[string]string) []Declaration {
	out := make([]Declaration, 0, len(existing)+len(props))
	seen := make(map[string]bool, len(props))
	for _, d := range existing {
		if v, ok := props[d.Property]; ok {
			out = append(out, Declaration{Property: d.Property, Value: v})
			seen[d.Property] = true
			continue
		}
		out = append(out, d)
	}
	for _, prop := range sortedKeys(props) {
		if !seen[prop] {
			out = append(out, Declaration{Property: prop, Value: props[prop]})
		}
	}
	return out
}

// DeclarationsFromMap builds declarations from a property map in sorted
// property order.
func DeclarationsFromMap(props map[string]string) []Declaration {
	out := make([]Declaration, 0, len(props))
	for _, prop := range sortedKeys(props) {
		out = append(out, Declaration{Property: prop, Value: props[prop]})
	}
	return out
}

// InlineStyle returns the parsed declarations of an element's style attribute.
func InlineStyle(n *html.Node) []Declaration {
	raw, _ := GetAttr(n, "style")
	return ParseInlineStyle(raw)
}

package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// GetAttr returns the value of the named attribute and whether it is present.
func GetAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or adds an attribute.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes an attribute if present.
func RemoveAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// CopyAttrs returns a copy of the node's attribute slice, suitable for
// verbatim restoration.
func CopyAttrs(n *html.Node) []html.Attribute {
	out := make([]html.Attribute, len(n.Attr))
	copy(out, n.Attr)
	return out
}

// Classes returns the class tokens of an element in document order.
func Classes(n *html.Node) []string {
	raw, _ := GetAttr(n, "class")
	return strings.Fields(raw)
}

// HasClass reports whether the element carries the class token.
func HasClass(n *html.Node, class string) bool {
	for _, c := range Classes(n) {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass appends a class token if absent.
func AddClass(n *html.Node, class string) {
	if HasClass(n, class) {
		return
	}
	raw, ok := GetAttr(n, "class")
	if !ok || raw == "" {
		SetAttr(n, "class", class)
		return
	}
	SetAttr(n, "class", raw+" "+class)
}

// RemoveClass drops a class token, preserving the order of the rest.
// No-op when the element has no class attribute.
func RemoveClass(n *html.Node, class string) {
	if _, ok := GetAttr(n, "class"); !ok {
		return
	}
	classes := Classes(n)
	kept := classes[:0]
	for _, c := range classes {
		if c != class {
			kept = append(kept, c)
		}
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}

// Detach removes n from its parent. No-op for orphans.
func Detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// InsertAt places n relative to target according to pos. The node must be
// detached first. before/after require the target to have a parent.
func InsertAt(target, n *html.Node, pos Position) error {
	switch pos {
	case PosBefore:
		if target.Parent == nil {
			return errNoParent(target)
		}
		target.Parent.InsertBefore(n, target)
	case PosAfter:
		if target.Parent == nil {
			return errNoParent(target)
		}
		if target.NextSibling != nil {
			target.Parent.InsertBefore(n, target.NextSibling)
		} else {
			target.Parent.AppendChild(n)
		}
	case PosFirstChild:
		if target.FirstChild != nil {
			target.InsertBefore(n, target.FirstChild)
		} else {
			target.AppendChild(n)
		}
	case PosLastChild:
		target.AppendChild(n)
	default:
		return &PositionError{Position: string(pos)}
	}
	return nil
}

// Reattach restores n under parent at its captured position. If the
// captured next sibling is no longer a child of parent, the node is
// appended instead.
func Reattach(parent, n, next *html.Node) {
	if next != nil && next.Parent == parent {
		parent.InsertBefore(n, next)
		return
	}
	parent.AppendChild(n)
}

// IsDescendant reports whether n is inside ancestor's subtree
// (a node is not its own descendant).
func IsDescendant(ancestor, n *html.Node) bool {
	for cur := n.Parent; cur != nil; cur = cur.Parent {
		if cur == ancestor {
			return true
		}
	}
	return false
}

// Children returns the direct child nodes of n as a slice.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// RemoveChildren detaches and returns all direct children of n, in order.
func RemoveChildren(n *html.Node) []*html.Node {
	kids := Children(n)
	for _, c := range kids {
		n.RemoveChild(c)
	}
	return kids
}

// TextContent concatenates the text nodes of a subtree.
func TextContent(n *html.Node) string {
	var sb strings.Builder
	Walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}

// Clone deep-copies a node subtree. Parent and sibling links of the copy
// are nil so it can be inserted anywhere.
func Clone(n *html.Node) *html.Node {
	cp := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      CopyAttrs(n),
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		cp.AppendChild(Clone(c))
	}
	return cp
}

// CreateElement synthesises a new element with the given tag, attributes
// and optional text content. Attribute order is sorted for determinism.
func CreateElement(tag string, attrs map[string]string, text string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: strings.ToLower(tag)}
	for _, key := range sortedKeys(attrs) {
		n.Attr = append(n.Attr, html.Attribute{Key: key, Val: attrs[key]})
	}
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
	return n
}

// PositionError reports an unrecognised insertion position.
type PositionError struct{ Position string }

func (e *PositionError) Error() string { return "dom: invalid position " + e.Position }

type noParentError struct{ tag string }

func errNoParent(n *html.Node) error { return &noParentError{tag: n.Data} }

func (e *noParentError) Error() string { return "dom: element <" + e.tag + "> has no parent" }

package apply

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/domedit/change"
	"github.com/hazyhaar/domedit/dom"
)

// StyleSheet manages the single engine-owned <style> element that carries
// pseudo-state rules. Each rule has a stable id so reverting a record
// removes exactly the rules it owns, never the whole sheet.
type StyleSheet struct {
	doc   *dom.Document
	node  *html.Node
	order []string
	rules map[string]string // rule id -> serialised rule block
}

// NewStyleSheet binds a sheet to a document. The <style> element is not
// injected until the first rule is written.
func NewStyleSheet(doc *dom.Document) *StyleSheet {
	return &StyleSheet{doc: doc, rules: make(map[string]string)}
}

// Put writes or updates one rule block for a selector/pseudo-state pair.
func (s *StyleSheet) Put(ruleID, selector string, pseudo change.PseudoState, decls []dom.Declaration) {
	sel := selector
	if suffix := pseudoSuffix(pseudo); suffix != "" {
		sel += suffix
	}
	var sb strings.Builder
	sb.WriteString(sel)
	sb.WriteString(" { ")
	sb.WriteString(dom.SerializeInlineStyle(decls))
	sb.WriteString(" }")

	if _, ok := s.rules[ruleID]; !ok {
		s.order = append(s.order, ruleID)
	}
	s.rules[ruleID] = sb.String()
	s.flush()
}

// Remove deletes the rules with the given ids.
func (s *StyleSheet) Remove(ruleIDs []string) {
	drop := make(map[string]bool, len(ruleIDs))
	for _, id := range ruleIDs {
		drop[id] = true
	}
	kept := s.order[:0]
	for _, id := range s.order {
		if drop[id] {
			delete(s.rules, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	s.flush()
}

// flush rewrites the <style> element's text to the current rule set,
// injecting or removing the element as needed.
func (s *StyleSheet) flush() {
	if len(s.order) == 0 {
		if s.node != nil {
			dom.Detach(s.node)
			s.node = nil
		}
		return
	}

	if s.node == nil || !s.doc.Contains(s.node) {
		s.node = &html.Node{
			Type:     html.ElementNode,
			Data:     "style",
			DataAtom: atom.Style,
			Attr: []html.Attribute{
				{Key: "id", Val: dom.StylesheetID},
				{Key: dom.NamespaceAttr, Val: "stylesheet"},
			},
		}
		parent := s.doc.Head()
		if parent == nil {
			parent = s.doc.Body()
		}
		if parent == nil {
			parent = s.doc.Root()
		}
		parent.AppendChild(s.node)
	}

	var sb strings.Builder
	for i, id := range s.order {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(s.rules[id])
	}

	dom.RemoveChildren(s.node)
	s.node.AppendChild(&html.Node{Type: html.TextNode, Data: sb.String()})
}

func pseudoSuffix(state change.PseudoState) string {
	switch state {
	case "hover":
		return ":hover"
	case "active":
		return ":active"
	case "focus":
		return ":focus"
	default:
		return ""
	}
}

package apply

import (
	"golang.org/x/net/html"

	"github.com/hazyhaar/domedit/change"
)

// AppliedState captures whatever original state is needed to invert one
// applied record. It is pure runtime bookkeeping: created the instant a
// record is applied, consulted and discarded when it is reverted, never
// serialised. Node pointers held here are back-references only; Revert
// re-validates attachment before touching them.
type AppliedState struct {
	record change.Record

	// target is the element the record was applied to. Nil for javascript.
	target *html.Node

	// prevChildren are the child nodes displaced by text/html.
	prevChildren []*html.Node

	// prevAttrs is the full attribute slice before a style/class/attribute
	// mutation. Restoring the whole slice verbatim avoids double-toggling
	// values also touched by another record.
	prevAttrs []html.Attribute

	// ruleIDs are the stylesheet rules owned by a styleRules record.
	ruleIDs []string

	// origParent/origNext locate the pre-mutation tree position for
	// move and remove.
	origParent *html.Node
	origNext   *html.Node

	// inserted is the node created by insert/create.
	inserted *html.Node
}

// Record returns the change record this state belongs to.
func (s *AppliedState) Record() change.Record { return s.record }

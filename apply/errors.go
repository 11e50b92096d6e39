package apply

import (
	"fmt"

	"github.com/hazyhaar/domedit/change"
)

// The error taxonomy. All three are non-fatal: a failing record is skipped
// and reported, the rest of the set is still processed.

// SelectorMiss reports a selector that did not resolve to exactly one
// page element.
type SelectorMiss struct {
	Selector string
	Matches  int
}

func (e *SelectorMiss) Error() string {
	return fmt.Sprintf("apply: selector %q matched %d elements, want 1", e.Selector, e.Matches)
}

// InvalidStructuralTarget reports a move/drop whose target is the moving
// element itself or one of its descendants. No DOM mutation is performed.
type InvalidStructuralTarget struct {
	Selector string
	Target   string
}

func (e *InvalidStructuralTarget) Error() string {
	return fmt.Sprintf("apply: moving %q into %q would create a cycle", e.Selector, e.Target)
}

// ApplyError reports an unexpected failure while mutating the document,
// e.g. a node that detached between resolution and use.
type ApplyError struct {
	Kind     change.Kind
	Selector string
	Err      error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("apply: %s on %q: %v", e.Kind, e.Selector, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

func applyErr(kind change.Kind, selector, format string, args ...any) *ApplyError {
	return &ApplyError{Kind: kind, Selector: selector, Err: fmt.Errorf(format, args...)}
}

// Package change defines the declarative edit records applied by domedit.
// These are the public API contract: whatever authors the edits (a human
// driving the editor, or an external generator) produces Records, and the
// engine replays them against a live document.
package change

import "fmt"

// Kind discriminates the edit operation a Record describes.
type Kind string

const (
	KindText       Kind = "text"       // replace text content
	KindStyle      Kind = "style"      // inline style declarations
	KindStyleRules Kind = "styleRules" // pseudo-state rules via engine stylesheet
	KindClass      Kind = "class"      // class token add/remove
	KindAttribute  Kind = "attribute"  // attribute values
	KindHTML       Kind = "html"       // replace inner markup
	KindJavascript Kind = "javascript" // page-context script, no revert semantics
	KindMove       Kind = "move"       // relocate the element
	KindRemove     Kind = "remove"     // detach the element
	KindInsert     Kind = "insert"     // new element from raw markup
	KindCreate     Kind = "create"     // new element from structured attributes
)

// Position is an insertion point relative to a target element.
type Position string

const (
	PositionBefore     Position = "before"
	PositionAfter      Position = "after"
	PositionFirstChild Position = "firstChild"
	PositionLastChild  Position = "lastChild"
)

// PseudoState is a CSS pseudo-state a styleRules record can target.
type PseudoState string

const (
	StateNormal PseudoState = "normal"
	StateHover  PseudoState = "hover"
	StateActive PseudoState = "active"
	StateFocus  PseudoState = "focus"
)

// PseudoStates lists all states in the order rules are written to the
// engine stylesheet.
var PseudoStates = []PseudoState{StateNormal, StateHover, StateActive, StateFocus}

// Record is a single declarative edit. Which fields are meaningful depends
// on Type; Validate enforces the per-kind shape.
type Record struct {
	Type     Kind   `json:"type"`
	Selector string `json:"selector"`
	Disabled bool   `json:"disabled,omitempty"` // disabled records are never applied

	// text / html / javascript
	Value string `json:"value,omitempty"`

	// style
	Properties map[string]string `json:"properties,omitempty"`
	// style / attribute: merge onto existing values instead of replacing them
	MergeMode bool `json:"mergeMode,omitempty"`

	// styleRules
	States    map[PseudoState]map[string]string `json:"states,omitempty"`
	Important *bool                             `json:"important,omitempty"` // default true

	// class
	Add    []string `json:"add,omitempty"`
	Remove []string `json:"remove,omitempty"`

	// attribute
	Values map[string]string `json:"values,omitempty"`

	// move / insert / create
	TargetSelector string   `json:"targetSelector,omitempty"`
	Position       Position `json:"position,omitempty"`

	// insert
	HTML string `json:"html,omitempty"`

	// create
	Tag        string            `json:"tag,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Text       string            `json:"text,omitempty"`
}

// ImportantOrDefault resolves the Important flag for styleRules records.
// An absent field means true.
func (r *Record) ImportantOrDefault() bool {
	if r.Important == nil {
		return true
	}
	return *r.Important
}

// Validate checks that the record carries the fields its kind requires.
func (r *Record) Validate() error {
	if r.Selector == "" {
		return fmt.Errorf("change: %s record has empty selector", r.Type)
	}

	switch r.Type {
	case KindText, KindHTML, KindJavascript:
		// Value may legitimately be empty (clear text / clear markup).
		return nil
	case KindStyle:
		// An empty property map is allowed: replace mode with no
		// properties clears the inline style.
		return nil
	case KindStyleRules:
		for state := range r.States {
			switch state {
			case StateNormal, StateHover, StateActive, StateFocus:
			default:
				return fmt.Errorf("change: styleRules has unknown pseudo-state %q", state)
			}
		}
		return nil
	case KindClass:
		if len(r.Add) == 0 && len(r.Remove) == 0 {
			return fmt.Errorf("change: class record adds and removes nothing")
		}
		return nil
	case KindAttribute:
		if len(r.Values) == 0 && r.MergeMode {
			return fmt.Errorf("change: attribute merge record has no values")
		}
		return nil
	case KindMove:
		if r.TargetSelector == "" {
			return fmt.Errorf("change: move record has empty targetSelector")
		}
		return validPosition(r.Position)
	case KindRemove:
		return nil
	case KindInsert:
		if r.HTML == "" {
			return fmt.Errorf("change: insert record has empty html")
		}
		return validPosition(r.Position)
	case KindCreate:
		if r.Tag == "" {
			return fmt.Errorf("change: create record has empty tag")
		}
		return validPosition(r.Position)
	default:
		return fmt.Errorf("change: unknown record type %q", r.Type)
	}
}

func validPosition(p Position) error {
	switch p {
	case PositionBefore, PositionAfter, PositionFirstChild, PositionLastChild:
		return nil
	default:
		return fmt.Errorf("change: invalid position %q", p)
	}
}

// Structural reports whether the record alters tree shape rather than
// element content or attributes.
func (r *Record) Structural() bool {
	switch r.Type {
	case KindMove, KindRemove, KindInsert, KindCreate:
		return true
	}
	return false
}

// Set is an ordered list of Records belonging to one named variant.
// Records are applied in list order and reverted in reverse order.
type Set struct {
	Variant string   `json:"variant"`
	Records []Record `json:"records"`
}

// Enabled returns the records that are not disabled, preserving order.
func (s *Set) Enabled() []Record {
	out := make([]Record, 0, len(s.Records))
	for _, r := range s.Records {
		if !r.Disabled {
			out = append(out, r)
		}
	}
	return out
}

// Validate checks every record in the set.
func (s *Set) Validate() error {
	if s.Variant == "" {
		return fmt.Errorf("change: set has empty variant name")
	}
	for i := range s.Records {
		if err := s.Records[i].Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return nil
}

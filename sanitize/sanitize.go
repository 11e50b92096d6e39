// Package sanitize defines the markup trust boundary in front of the
// html/insert/create record kinds. Raw markup in a change record is
// authored outside the engine, so it passes through a bluemonday policy
// before it is ever parsed into the document.
package sanitize

import "github.com/microcosm-cc/bluemonday"

// Policy sanitises raw markup before it enters the document.
type Policy struct {
	p *bluemonday.Policy
}

// Default is the editing policy: UGC plus the structural elements and
// presentation attributes a visual editor legitimately produces.
func Default() *Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements(
		"div", "span", "section", "article", "header", "footer",
		"nav", "main", "aside", "button", "figure", "figcaption",
	)
	p.AllowAttrs("style", "class", "id", "title", "role").Globally()
	p.AllowDataAttributes()
	return &Policy{p: p}
}

// Strict is plain bluemonday UGC: no style, no class, no data attributes.
func Strict() *Policy {
	return &Policy{p: bluemonday.UGCPolicy()}
}

// Wrap adapts a caller-supplied bluemonday policy.
func Wrap(p *bluemonday.Policy) *Policy {
	return &Policy{p: p}
}

// Sanitize returns the markup with everything outside the policy stripped.
func (p *Policy) Sanitize(markup string) string {
	return p.p.Sanitize(markup)
}

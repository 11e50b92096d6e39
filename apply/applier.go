// Package apply materialises change records onto a live document and can
// revert them deterministically. Per-kind apply/revert logic is a single
// exhaustive switch over change.Kind; everything captured for undo lives
// in AppliedState and never leaves this package.
package apply

import (
	"context"
	"log/slog"

	"golang.org/x/net/html"

	"github.com/hazyhaar/domedit/change"
	"github.com/hazyhaar/domedit/dom"
	"github.com/hazyhaar/domedit/idgen"
	"github.com/hazyhaar/domedit/sanitize"
)

// ScriptRunner executes javascript-kind records in page context. The
// engine tracks no side effects and offers no revert for scripts; re-apply
// re-executes, so scripts must be idempotent by authoring convention.
type ScriptRunner interface {
	Run(ctx context.Context, script string) error
}

// Event is one apply/revert/skip outcome, handed to the audit recorder.
type Event struct {
	Variant  string
	Selector string
	Kind     change.Kind
	Action   string // applied | reverted | skipped
	Err      string
}

// Recorder receives outcome events. Implementations must not block the
// caller; the audit package provides a SQLite-backed one.
type Recorder interface {
	RecordEvent(ctx context.Context, ev Event)
}

// Config configures an Applier.
type Config struct {
	Doc *dom.Document

	// Runner executes javascript records. Nil refuses them: script
	// execution is an explicit opt-in trust decision.
	Runner ScriptRunner

	// Policy sanitises html/insert markup. Nil uses sanitize.Default.
	Policy *sanitize.Policy

	// Recorder receives outcome events. Optional.
	Recorder Recorder

	Logger *slog.Logger
}

// Applier applies and reverts change records against one document. It is
// not safe for concurrent use; the engine is single-caller by construction
// (one drag session, one preview).
type Applier struct {
	doc      *dom.Document
	sheet    *StyleSheet
	runner   ScriptRunner
	policy   *sanitize.Policy
	recorder Recorder
	logger   *slog.Logger
	newRule  idgen.Generator

	// active tracks applied state per variant so Reapply can clear a
	// set's previous application before applying from scratch.
	active map[string][]*AppliedState
}

// New creates an Applier for a document.
func New(cfg Config) *Applier {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Policy == nil {
		cfg.Policy = sanitize.Default()
	}
	return &Applier{
		doc:      cfg.Doc,
		sheet:    NewStyleSheet(cfg.Doc),
		runner:   cfg.Runner,
		policy:   cfg.Policy,
		recorder: cfg.Recorder,
		logger:   cfg.Logger,
		newRule:  idgen.Prefixed("rule_", idgen.Default),
		active:   make(map[string][]*AppliedState),
	}
}

// Doc returns the document this applier mutates.
func (a *Applier) Doc() *dom.Document { return a.doc }

// resolve returns the single page element the selector identifies.
// Zero or multiple matches is a SelectorMiss.
func (a *Applier) resolve(kind change.Kind, sel string) (*html.Node, error) {
	nodes, err := a.doc.QueryAll(sel)
	if err != nil {
		return nil, &ApplyError{Kind: kind, Selector: sel, Err: err}
	}
	if len(nodes) != 1 {
		return nil, &SelectorMiss{Selector: sel, Matches: len(nodes)}
	}
	return nodes[0], nil
}

// Apply applies one record and returns the state needed to invert it.
// The returned error is always a SelectorMiss, InvalidStructuralTarget,
// or ApplyError.
func (a *Applier) Apply(ctx context.Context, rec change.Record) (*AppliedState, error) {
	if err := rec.Validate(); err != nil {
		return nil, &ApplyError{Kind: rec.Type, Selector: rec.Selector, Err: err}
	}

	st := &AppliedState{record: rec}

	switch rec.Type {
	case change.KindText:
		el, err := a.resolve(rec.Type, rec.Selector)
		if err != nil {
			return nil, err
		}
		st.target = el
		st.prevChildren = dom.RemoveChildren(el)
		el.AppendChild(&html.Node{Type: html.TextNode, Data: rec.Value})

	case change.KindHTML:
		el, err := a.resolve(rec.Type, rec.Selector)
		if err != nil {
			return nil, err
		}
		frag, err := dom.ParseFragment(a.policy.Sanitize(rec.Value), el)
		if err != nil {
			return nil, &ApplyError{Kind: rec.Type, Selector: rec.Selector, Err: err}
		}
		st.target = el
		st.prevChildren = dom.RemoveChildren(el)
		for _, n := range frag {
			el.AppendChild(n)
		}

	case change.KindStyle:
		el, err := a.resolve(rec.Type, rec.Selector)
		if err != nil {
			return nil, err
		}
		st.target = el
		st.prevAttrs = dom.CopyAttrs(el)
		var decls []dom.Declaration
		if rec.MergeMode {
			decls = dom.MergeInlineStyle(dom.InlineStyle(el), rec.Properties)
		} else {
			decls = dom.DeclarationsFromMap(rec.Properties)
		}
		if len(decls) == 0 {
			dom.RemoveAttr(el, "style")
		} else {
			dom.SetAttr(el, "style", dom.SerializeInlineStyle(decls))
		}

	case change.KindStyleRules:
		// Pseudo-states cannot be expressed inline, so each non-empty
		// state becomes one rule in the engine-owned stylesheet keyed by
		// the record's selector.
		important := rec.ImportantOrDefault()
		for _, state := range change.PseudoStates {
			props := rec.States[state]
			if len(props) == 0 {
				continue
			}
			decls := dom.DeclarationsFromMap(props)
			if important {
				for i := range decls {
					decls[i].Important = true
				}
			}
			id := a.newRule()
			a.sheet.Put(id, rec.Selector, state, decls)
			st.ruleIDs = append(st.ruleIDs, id)
		}

	case change.KindClass:
		el, err := a.resolve(rec.Type, rec.Selector)
		if err != nil {
			return nil, err
		}
		st.target = el
		st.prevAttrs = dom.CopyAttrs(el)
		for _, c := range rec.Add {
			dom.AddClass(el, c)
		}
		for _, c := range rec.Remove {
			dom.RemoveClass(el, c)
		}

	case change.KindAttribute:
		el, err := a.resolve(rec.Type, rec.Selector)
		if err != nil {
			return nil, err
		}
		st.target = el
		st.prevAttrs = dom.CopyAttrs(el)
		if !rec.MergeMode {
			el.Attr = nil
		}
		for _, key := range sortedKeys(rec.Values) {
			dom.SetAttr(el, key, rec.Values[key])
		}

	case change.KindJavascript:
		if a.runner == nil {
			return nil, applyErr(rec.Type, rec.Selector, "no script runner configured")
		}
		if err := a.runner.Run(ctx, rec.Value); err != nil {
			return nil, &ApplyError{Kind: rec.Type, Selector: rec.Selector, Err: err}
		}
		// No revert semantics: side effects are not tracked.

	case change.KindMove:
		el, err := a.resolve(rec.Type, rec.Selector)
		if err != nil {
			return nil, err
		}
		tgt, err := a.resolve(rec.Type, rec.TargetSelector)
		if err != nil {
			return nil, err
		}
		if tgt == el || dom.IsDescendant(el, tgt) {
			return nil, &InvalidStructuralTarget{Selector: rec.Selector, Target: rec.TargetSelector}
		}
		st.target = el
		st.origParent = el.Parent
		st.origNext = el.NextSibling
		dom.Detach(el)
		if err := dom.InsertAt(tgt, el, dom.Position(rec.Position)); err != nil {
			// Undo the detach so a failed move leaves the tree unchanged.
			dom.Reattach(st.origParent, el, st.origNext)
			return nil, &ApplyError{Kind: rec.Type, Selector: rec.Selector, Err: err}
		}

	case change.KindRemove:
		el, err := a.resolve(rec.Type, rec.Selector)
		if err != nil {
			return nil, err
		}
		if el.Parent == nil {
			return nil, applyErr(rec.Type, rec.Selector, "element has no parent")
		}
		st.target = el
		st.origParent = el.Parent
		st.origNext = el.NextSibling
		dom.Detach(el)

	case change.KindInsert, change.KindCreate:
		tgt, err := a.resolve(rec.Type, rec.Selector)
		if err != nil {
			return nil, err
		}
		node, err := a.synthesise(rec, tgt)
		if err != nil {
			return nil, err
		}
		if err := dom.InsertAt(tgt, node, dom.Position(rec.Position)); err != nil {
			return nil, &ApplyError{Kind: rec.Type, Selector: rec.Selector, Err: err}
		}
		st.inserted = node
	}

	return st, nil
}

// synthesise builds the new element for insert/create records.
func (a *Applier) synthesise(rec change.Record, context *html.Node) (*html.Node, error) {
	if rec.Type == change.KindCreate {
		return dom.CreateElement(rec.Tag, rec.Attributes, rec.Text), nil
	}
	parseCtx := context
	if rec.Position == change.PositionBefore || rec.Position == change.PositionAfter {
		parseCtx = context.Parent
	}
	frag, err := dom.ParseFragment(a.policy.Sanitize(rec.HTML), parseCtx)
	if err != nil {
		return nil, &ApplyError{Kind: rec.Type, Selector: rec.Selector, Err: err}
	}
	for _, n := range frag {
		if n.Type == html.ElementNode {
			return n, nil
		}
	}
	return nil, applyErr(rec.Type, rec.Selector, "markup produced no element")
}

// Revert inverts one applied record. Best-effort: if the captured context
// no longer exists (the original parent was removed by a later, unrelated
// mutation) the revert is skipped and reported rather than panicking.
func (a *Applier) Revert(ctx context.Context, st *AppliedState) error {
	rec := st.record

	switch rec.Type {
	case change.KindText, change.KindHTML:
		if !a.doc.Contains(st.target) {
			return applyErr(rec.Type, rec.Selector, "target detached before revert")
		}
		dom.RemoveChildren(st.target)
		for _, c := range st.prevChildren {
			st.target.AppendChild(c)
		}

	case change.KindStyle, change.KindClass, change.KindAttribute:
		if !a.doc.Contains(st.target) {
			return applyErr(rec.Type, rec.Selector, "target detached before revert")
		}
		st.target.Attr = st.prevAttrs

	case change.KindStyleRules:
		a.sheet.Remove(st.ruleIDs)

	case change.KindJavascript:
		// Nothing to invert.

	case change.KindMove:
		if !a.doc.Contains(st.origParent) {
			return applyErr(rec.Type, rec.Selector, "original parent detached before revert")
		}
		dom.Detach(st.target)
		dom.Reattach(st.origParent, st.target, st.origNext)

	case change.KindRemove:
		if !a.doc.Contains(st.origParent) {
			return applyErr(rec.Type, rec.Selector, "original parent detached before revert")
		}
		dom.Reattach(st.origParent, st.target, st.origNext)

	case change.KindInsert, change.KindCreate:
		if a.doc.Contains(st.inserted) {
			dom.Detach(st.inserted)
		}
	}

	return nil
}

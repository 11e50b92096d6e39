// Package domedit is the DOM change application and interactive editing
// engine: the counterpart of domwatch. It applies declarative, replayable
// change records to a document, reverts them deterministically, previews
// named variants exclusively, and turns pointer-driven drag gestures into
// move records.
//
// The engine's only boundary is data: ordered change sets in, move records
// and structured apply reports out. Where the document actually lives (in
// memory, or mirrored to a Chrome page via the live package) is the
// caller's wiring decision.
package domedit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/hazyhaar/domedit/apply"
	"github.com/hazyhaar/domedit/change"
	"github.com/hazyhaar/domedit/dom"
	"github.com/hazyhaar/domedit/drag"
	"github.com/hazyhaar/domedit/preview"
	"github.com/hazyhaar/domedit/sanitize"
	"github.com/hazyhaar/domedit/selector"
)

// Options wires an Editor's collaborators. Everything is optional except
// the document.
type Options struct {
	// Layout supplies geometry for drag sessions. Nil disables dragging.
	Layout dom.Layout

	// Runner executes javascript-kind records. Nil refuses them.
	Runner apply.ScriptRunner

	// Recorder receives apply/revert/skip events.
	Recorder apply.Recorder

	// Policy sanitises html/insert markup. Nil uses sanitize.Default.
	Policy *sanitize.Policy

	// EmitMove receives the move records produced by drag drops.
	EmitMove func(change.Record)

	// Mirror, when set, receives the rendered document after every
	// mutating operation so a live page stays in sync.
	Mirror Mirror

	// SettleDelay for drop previews.
	SettleDelay time.Duration

	Logger *slog.Logger
}

// Mirror pushes the rendered document to wherever it is displayed.
// live.Page implements this against a real browser tab.
type Mirror interface {
	Push(ctx context.Context, html string) error
}

// Editor ties one document to its applier, preview coordinator, and drag
// controller. One Editor per edited document.
type Editor struct {
	mu      sync.Mutex
	doc     *dom.Document
	applier *apply.Applier
	preview *preview.Coordinator
	drag    *drag.Controller
	mirror  Mirror
	logger  *slog.Logger
}

// New creates an Editor over a parsed document.
func New(doc *dom.Document, opts Options) *Editor {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	applier := apply.New(apply.Config{
		Doc:      doc,
		Runner:   opts.Runner,
		Policy:   opts.Policy,
		Recorder: opts.Recorder,
		Logger:   opts.Logger,
	})

	return &Editor{
		doc:     doc,
		applier: applier,
		preview: preview.New(applier, opts.Logger),
		drag: drag.New(drag.Config{
			Doc:         doc,
			Layout:      opts.Layout,
			Emit:        opts.EmitMove,
			SettleDelay: opts.SettleDelay,
			Logger:      opts.Logger,
		}),
		mirror: opts.Mirror,
		logger: opts.Logger,
	}
}

// syncMirror renders the document and pushes it to the mirror. Errors are
// logged and never propagate: a flaky mirror must not corrupt the engine's
// own state.
func (e *Editor) syncMirror(ctx context.Context) {
	if e.mirror == nil {
		return
	}
	out, err := e.doc.Render()
	if err != nil {
		e.logger.Error("editor: render for mirror failed", "error", err)
		return
	}
	if err := e.mirror.Push(ctx, out); err != nil {
		e.logger.Error("editor: mirror push failed", "error", err)
	}
}

// Document returns the edited document.
func (e *Editor) Document() *dom.Document { return e.doc }

// HTML renders the document's current state.
func (e *Editor) HTML() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Render()
}

// ApplySet applies a change set permanently (outside the preview
// lifecycle). Idempotent per variant: an already-applied variant is
// reverted first and applied from scratch.
func (e *Editor) ApplySet(ctx context.Context, set *change.Set) *apply.Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	rep := e.applier.Reapply(ctx, set)
	e.syncMirror(ctx)
	return rep
}

// RevertSet reverts everything applied under a variant.
func (e *Editor) RevertSet(ctx context.Context, variant string) *apply.Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	rep := e.applier.RevertSet(ctx, variant)
	e.syncMirror(ctx)
	return rep
}

// SetPreview makes set the exclusive active preview (nil clears it).
func (e *Editor) SetPreview(ctx context.Context, variant string, set *change.Set) *apply.Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	rep := e.preview.SetPreview(ctx, variant, set)
	e.syncMirror(ctx)
	return rep
}

// ClearPreview reverts the active preview, if any.
func (e *Editor) ClearPreview(ctx context.Context) *apply.Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	rep := e.preview.Clear(ctx)
	e.syncMirror(ctx)
	return rep
}

// ActivePreview returns the variant currently previewed, or "".
func (e *Editor) ActivePreview() string {
	return e.preview.Active()
}

// Drag returns the drag controller for pointer event delivery.
func (e *Editor) Drag() *drag.Controller { return e.drag }

// GenerateSelector produces a stable selector for an element of this
// document.
func (e *Editor) GenerateSelector(el *html.Node) (string, error) {
	return selector.Generate(el)
}

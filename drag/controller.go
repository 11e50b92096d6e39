package drag

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/hazyhaar/domedit/change"
	"github.com/hazyhaar/domedit/dom"
	"github.com/hazyhaar/domedit/idgen"
	"github.com/hazyhaar/domedit/selector"
)

// State of the drag controller.
type State int

const (
	// StateIdle means no drag session exists.
	StateIdle State = iota
	// StateDragging means a session is live and consuming pointer events.
	StateDragging
	// StateDropped means a drop preview is visible and the settle timer is
	// running; a new drag cannot start until it fires.
	StateDropped
)

// PointerEvent carries viewport coordinates of a pointer event.
type PointerEvent struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Editor-owned classes used for visual feedback during a drag.
const (
	classClone   = dom.NamespacePrefix + "drag-clone"
	classTarget  = dom.NamespacePrefix + "drop-target"
	classInvalid = dom.NamespacePrefix + "drop-invalid"
	classSettled = dom.NamespacePrefix + "drop-settled"
)

// session is the ephemeral state of one drag gesture, destroyed on drop
// or cancel.
type session struct {
	id        string
	source    *html.Node
	sourceSel string

	// pre-drag position, for cancel/restore
	origParent *html.Node
	origNext   *html.Node

	clone *html.Node

	// current candidate drop zone
	target    *html.Node
	targetSel string
	res       Resolution
}

// Config configures a Controller.
type Config struct {
	Doc    *dom.Document
	Layout dom.Layout

	// Emit receives the single move record produced by a successful drop.
	Emit func(change.Record)

	// SettleDelay is how long the drop preview stays visible before the
	// element is restored and the record emitted. Zero finishes inline.
	SettleDelay time.Duration

	Logger *slog.Logger
}

// Controller orchestrates pointer-driven drag sessions. At most one
// session is live at a time; Begin refuses while one is active. The
// visible relocation on drop is only a preview: the authoritative
// relocation happens later, when the emitted record is applied.
type Controller struct {
	mu     sync.Mutex
	doc    *dom.Document
	layout dom.Layout
	emit   func(change.Record)
	settle time.Duration
	logger *slog.Logger
	newID  idgen.Generator

	state State
	sess  *session
	timer *time.Timer
}

// New creates a Controller.
func New(cfg Config) *Controller {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Controller{
		doc:    cfg.Doc,
		layout: cfg.Layout,
		emit:   cfg.Emit,
		settle: cfg.SettleDelay,
		logger: cfg.Logger,
		newID:  idgen.Prefixed("drag_", idgen.Default),
	}
}

// State returns the controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Begin starts a drag session on pointer-down over el. Editor-owned
// elements are not draggable, and a new session cannot start while one
// is live.
func (c *Controller) Begin(el *html.Node, ev PointerEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return fmt.Errorf("drag: session already active")
	}
	if el == nil || el.Type != html.ElementNode {
		return fmt.Errorf("drag: source is not an element")
	}
	if dom.IsEditorOwned(el) {
		return fmt.Errorf("drag: source is editor-owned")
	}
	sel, err := selector.Generate(el)
	if err != nil {
		return fmt.Errorf("drag: %w", err)
	}

	clone := dom.Clone(el)
	dom.SetAttr(clone, dom.NamespaceAttr, "drag-clone")
	dom.SetAttr(clone, "class", classClone)
	dom.SetAttr(clone, "style", cloneStyle(ev))
	if body := c.doc.Body(); body != nil {
		body.AppendChild(clone)
	}

	c.sess = &session{
		id:         c.newID(),
		source:     el,
		sourceSel:  sel,
		origParent: el.Parent,
		origNext:   el.NextSibling,
		clone:      clone,
	}
	c.state = StateDragging
	c.logger.Debug("drag: begin", "id", c.sess.id, "selector", sel)
	return nil
}

// Move updates the visual clone and re-resolves the candidate drop zone
// under the pointer. Invalid targets are highlighted as rejected and
// produce no preview.
func (c *Controller) Move(ev PointerEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateDragging {
		return
	}
	dom.SetAttr(c.sess.clone, "style", cloneStyle(ev))

	target := c.hitTest(ev)
	c.setTarget(target, ev)
}

// Drop ends the session on pointer-up. Over a valid target it previews the
// move on the real element, waits the settle delay, restores the element
// to its pre-drag position, and emits exactly one move record. Anywhere
// else it cancels cleanly.
func (c *Controller) Drop(ev PointerEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateDragging {
		return fmt.Errorf("drag: no active session")
	}

	// Final resolution at the release point.
	if target := c.hitTest(ev); target != nil {
		c.setTarget(target, ev)
	}

	sess := c.sess
	if sess.target == nil || !sess.res.Valid {
		c.cancelLocked()
		return nil
	}

	// Live preview: actually relocate the real element.
	dom.Detach(sess.source)
	if err := dom.InsertAt(sess.target, sess.source, dom.Position(sess.res.Position)); err != nil {
		dom.Reattach(sess.origParent, sess.source, sess.origNext)
		c.cancelLocked()
		return fmt.Errorf("drag: preview move: %w", err)
	}
	dom.Detach(sess.clone)
	dom.RemoveClass(sess.target, classTarget)
	dom.AddClass(sess.source, classSettled)
	c.state = StateDropped

	if c.settle <= 0 {
		c.finishLocked()
		return nil
	}
	c.timer = time.AfterFunc(c.settle, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.state == StateDropped {
			c.finishLocked()
		}
	})
	return nil
}

// Cancel aborts the session (pointer-up over no valid target, or Escape):
// the clone is removed, every temporary highlight in the document is
// cleared, the element is back at its pre-drag position, and nothing is
// emitted.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateIdle {
		return
	}
	if c.state == StateDropped {
		// Undo the drop preview before the settle timer fires.
		dom.Detach(c.sess.source)
		dom.Reattach(c.sess.origParent, c.sess.source, c.sess.origNext)
	}
	c.cancelLocked()
}

// finishLocked ends a settled drop: restore the element, sweep highlights,
// emit the single move record.
func (c *Controller) finishLocked() {
	sess := c.sess

	dom.Detach(sess.source)
	dom.Reattach(sess.origParent, sess.source, sess.origNext)
	c.teardownLocked()

	rec := change.Record{
		Type:           change.KindMove,
		Selector:       sess.sourceSel,
		TargetSelector: sess.targetSel,
		Position:       sess.res.Position,
	}
	c.logger.Debug("drag: drop emitted",
		"id", sess.id, "selector", sess.sourceSel, "target", sess.targetSel, "position", string(sess.res.Position))
	if c.emit != nil {
		c.emit(rec)
	}
}

func (c *Controller) cancelLocked() {
	c.logger.Debug("drag: cancelled", "id", c.sess.id)
	c.teardownLocked()
}

// teardownLocked tears down listeners-equivalent state: timer, clone, and
// highlight styling on every element in the document, not only the target.
func (c *Controller) teardownLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	dom.Detach(c.sess.clone)
	c.sweepHighlights()
	c.sess = nil
	c.state = StateIdle
}

func (c *Controller) sweepHighlights() {
	dom.Walk(c.doc.Root(), func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		for _, cl := range [...]string{classTarget, classInvalid, classSettled} {
			dom.RemoveClass(n, cl)
		}
		if v, ok := dom.GetAttr(n, "class"); ok && strings.TrimSpace(v) == "" {
			dom.RemoveAttr(n, "class")
		}
		return true
	})
}

// hitTest finds the page element under the pointer, or nil.
func (c *Controller) hitTest(ev PointerEvent) *html.Node {
	if c.layout == nil {
		return nil
	}
	sel, err := c.layout.ElementAt(ev.X, ev.Y)
	if err != nil || sel == "" {
		return nil
	}
	nodes, err := c.doc.QueryAll(sel)
	if err != nil || len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// setTarget re-resolves the drop zone and moves the highlight.
func (c *Controller) setTarget(target *html.Node, ev PointerEvent) {
	sess := c.sess

	if sess.target != nil && sess.target != target {
		dom.RemoveClass(sess.target, classTarget)
		dom.RemoveClass(sess.target, classInvalid)
	}
	if target == nil {
		sess.target = nil
		sess.targetSel = ""
		return
	}

	targetSel, err := selector.Generate(target)
	if err != nil {
		sess.target = nil
		sess.targetSel = ""
		return
	}
	bounds, err := c.layout.Bounds(targetSel)
	if err != nil {
		sess.target = nil
		sess.targetSel = ""
		return
	}

	sess.target = target
	sess.targetSel = targetSel
	sess.res = Resolve(target, sess.source, ev.Y, bounds)

	if sess.res.Valid {
		dom.RemoveClass(target, classInvalid)
		dom.AddClass(target, classTarget)
	} else {
		dom.RemoveClass(target, classTarget)
		dom.AddClass(target, classInvalid)
	}
}

func cloneStyle(ev PointerEvent) string {
	return fmt.Sprintf(
		"position: fixed; left: %.0fpx; top: %.0fpx; pointer-events: none; opacity: 0.7; z-index: 2147483647;",
		ev.X, ev.Y)
}

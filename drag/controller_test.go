package drag

import (
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/hazyhaar/domedit/change"
	"github.com/hazyhaar/domedit/dom"
)

// stubLayout serves fixed bounding boxes and resolves hit tests by point
// containment, the way a real page layout would.
type stubLayout struct {
	rects map[string]dom.Rect
}

func (s *stubLayout) Bounds(selector string) (dom.Rect, error) {
	return s.rects[selector], nil
}

func (s *stubLayout) ElementAt(x, y float64) (string, error) {
	for sel, r := range s.rects {
		if x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height {
			return sel, nil
		}
	}
	return "", nil
}

type emitLog struct {
	mu   sync.Mutex
	recs []change.Record
}

func (l *emitLog) emit(rec change.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recs = append(l.recs, rec)
}

func (l *emitLog) records() []change.Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]change.Record(nil), l.recs...)
}

const dragFixture = `<body>
<ul id="list"><li id="x">one</li><li id="y">two</li></ul>
<div id="zone"></div>
</body>`

// Non-overlapping boxes: #x on top, #y below it, #zone further down.
var dragRects = map[string]dom.Rect{
	"#x":    {X: 0, Y: 0, Width: 100, Height: 40},
	"#y":    {X: 0, Y: 40, Width: 100, Height: 40},
	"#zone": {X: 0, Y: 100, Width: 100, Height: 100},
}

func setup(t *testing.T, settle time.Duration) (*Controller, *dom.Document, *emitLog) {
	t.Helper()
	doc, err := dom.Parse(dragFixture)
	if err != nil {
		t.Fatal(err)
	}
	log := &emitLog{}
	c := New(Config{
		Doc:         doc,
		Layout:      &stubLayout{rects: dragRects},
		Emit:        log.emit,
		SettleDelay: settle,
	})
	return c, doc, log
}

func render(t *testing.T, doc *dom.Document) string {
	t.Helper()
	out, err := doc.Render()
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func queryOne(t *testing.T, doc *dom.Document, sel string) *html.Node {
	t.Helper()
	nodes, err := doc.QueryAll(sel)
	if err != nil {
		t.Fatalf("QueryAll(%q): %v", sel, err)
	}
	if len(nodes) != 1 {
		t.Fatalf("QueryAll(%q) = %d nodes, want 1", sel, len(nodes))
	}
	return nodes[0]
}

func TestDropEmitsOneRecordAndRestores(t *testing.T) {
	c, doc, log := setup(t, 0)
	before := render(t, doc)
	x := queryOne(t, doc, "#x")

	if err := c.Begin(x, PointerEvent{X: 10, Y: 10}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if got := c.State(); got != StateDragging {
		t.Fatalf("State = %v, want dragging", got)
	}

	// Pointer in the bottom quarter of #y: position after.
	c.Move(PointerEvent{X: 50, Y: 75})
	if err := c.Drop(PointerEvent{X: 50, Y: 75}); err != nil {
		t.Fatalf("Drop: %v", err)
	}

	if got := c.State(); got != StateIdle {
		t.Errorf("State after drop = %v, want idle", got)
	}

	recs := log.records()
	if len(recs) != 1 {
		t.Fatalf("emitted %d records, want 1", len(recs))
	}
	rec := recs[0]
	if rec.Type != change.KindMove || rec.Selector != "#x" ||
		rec.TargetSelector != "#y" || rec.Position != change.PositionAfter {
		t.Errorf("record = %+v", rec)
	}

	// The visible relocation was only a preview; the document is restored.
	if got := render(t, doc); got != before {
		t.Errorf("document changed after drop\nbefore: %s\nafter:  %s", before, got)
	}
}

func TestDropOverSelfEmitsNothing(t *testing.T) {
	c, doc, log := setup(t, 0)
	before := render(t, doc)
	x := queryOne(t, doc, "#x")

	if err := c.Begin(x, PointerEvent{X: 10, Y: 10}); err != nil {
		t.Fatal(err)
	}
	// Pointer stays inside #x itself.
	c.Move(PointerEvent{X: 50, Y: 20})
	if err := c.Drop(PointerEvent{X: 50, Y: 20}); err != nil {
		t.Fatal(err)
	}

	if len(log.records()) != 0 {
		t.Error("drop over self must emit nothing")
	}
	if got := c.State(); got != StateIdle {
		t.Errorf("State = %v, want idle", got)
	}
	if render(t, doc) != before {
		t.Error("cancelled drop mutated the document")
	}
}

func TestDropOverNothingCancels(t *testing.T) {
	c, doc, log := setup(t, 0)
	before := render(t, doc)
	x := queryOne(t, doc, "#x")

	c.Begin(x, PointerEvent{X: 10, Y: 10})
	if err := c.Drop(PointerEvent{X: 500, Y: 500}); err != nil {
		t.Fatal(err)
	}

	if len(log.records()) != 0 {
		t.Error("drop over nothing must emit nothing")
	}
	if render(t, doc) != before {
		t.Error("cancelled drop mutated the document")
	}
}

func TestCancelRestoresOriginalPosition(t *testing.T) {
	c, doc, log := setup(t, 0)
	before := render(t, doc)
	x := queryOne(t, doc, "#x")

	c.Begin(x, PointerEvent{X: 10, Y: 10})
	c.Move(PointerEvent{X: 50, Y: 75})
	c.Cancel()

	if got := c.State(); got != StateIdle {
		t.Errorf("State = %v, want idle", got)
	}
	if len(log.records()) != 0 {
		t.Error("cancel must emit nothing")
	}
	if got := render(t, doc); got != before {
		t.Errorf("cancel did not restore the document\nbefore: %s\nafter:  %s", before, got)
	}
}

func TestCancelDuringSettleUndoesPreview(t *testing.T) {
	c, doc, log := setup(t, time.Hour)
	before := render(t, doc)
	x := queryOne(t, doc, "#x")

	c.Begin(x, PointerEvent{X: 10, Y: 10})
	c.Move(PointerEvent{X: 50, Y: 75})
	if err := c.Drop(PointerEvent{X: 50, Y: 75}); err != nil {
		t.Fatal(err)
	}
	if got := c.State(); got != StateDropped {
		t.Fatalf("State = %v, want dropped", got)
	}
	// The preview really relocated the element.
	if render(t, doc) == before {
		t.Fatal("drop preview did not move the element")
	}

	c.Cancel()
	if len(log.records()) != 0 {
		t.Error("cancel during settle must emit nothing")
	}
	if got := render(t, doc); got != before {
		t.Errorf("cancel during settle did not restore the document\nbefore: %s\nafter:  %s", before, got)
	}
	if got := c.State(); got != StateIdle {
		t.Errorf("State = %v, want idle", got)
	}
}

func TestSettleTimerFinishes(t *testing.T) {
	c, doc, log := setup(t, 10*time.Millisecond)
	before := render(t, doc)
	x := queryOne(t, doc, "#x")

	c.Begin(x, PointerEvent{X: 10, Y: 10})
	c.Move(PointerEvent{X: 50, Y: 75})
	if err := c.Drop(PointerEvent{X: 50, Y: 75}); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for c.State() != StateIdle {
		if time.Now().After(deadline) {
			t.Fatal("settle timer never finished the drop")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if n := len(log.records()); n != 1 {
		t.Fatalf("emitted %d records, want 1", n)
	}
	if got := render(t, doc); got != before {
		t.Error("document not restored after settle")
	}
}

func TestBeginGuards(t *testing.T) {
	c, doc, _ := setup(t, 0)
	x := queryOne(t, doc, "#x")
	y := queryOne(t, doc, "#y")

	if err := c.Begin(x, PointerEvent{}); err != nil {
		t.Fatal(err)
	}
	if err := c.Begin(y, PointerEvent{}); err == nil {
		t.Error("second Begin while dragging: want error")
	}
	c.Cancel()

	if err := c.Begin(nil, PointerEvent{}); err == nil {
		t.Error("nil source: want error")
	}

	owned := &html.Node{Type: html.ElementNode, Data: "div",
		Attr: []html.Attribute{{Key: dom.NamespaceAttr, Val: "panel"}}}
	if err := c.Begin(owned, PointerEvent{}); err == nil {
		t.Error("editor-owned source: want error")
	}
}

func TestCloneIsInvisibleToSelectors(t *testing.T) {
	c, doc, _ := setup(t, 0)
	x := queryOne(t, doc, "#x")

	if err := c.Begin(x, PointerEvent{X: 10, Y: 10}); err != nil {
		t.Fatal(err)
	}

	// The clone copies the source's id, but it is editor-owned and must
	// never shadow the real element.
	nodes, err := doc.QueryAll("#x")
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 1 || nodes[0] != x {
		t.Errorf("#x resolved to %d nodes during drag, want the original only", len(nodes))
	}

	out := render(t, doc)
	if !strings.Contains(out, classClone) {
		t.Error("clone not present in the document during drag")
	}
	c.Cancel()
	if strings.Contains(render(t, doc), classClone) {
		t.Error("clone survived cancel")
	}
}

func TestMoveHighlightsTarget(t *testing.T) {
	c, doc, _ := setup(t, 0)
	x := queryOne(t, doc, "#x")

	c.Begin(x, PointerEvent{X: 10, Y: 10})

	c.Move(PointerEvent{X: 50, Y: 75})
	if y := queryOne(t, doc, "#y"); !dom.HasClass(y, classTarget) {
		t.Error("valid target not highlighted")
	}

	// Moving over the dragged element itself flips to the invalid highlight.
	c.Move(PointerEvent{X: 50, Y: 20})
	if xEl := queryOne(t, doc, "#x"); !dom.HasClass(xEl, classInvalid) {
		t.Error("invalid target not highlighted as invalid")
	}
	if y := queryOne(t, doc, "#y"); dom.HasClass(y, classTarget) {
		t.Error("previous target highlight not cleared")
	}

	c.Cancel()
	for _, sel := range []string{"#x", "#y"} {
		el := queryOne(t, doc, sel)
		for _, cl := range []string{classTarget, classInvalid, classSettled} {
			if dom.HasClass(el, cl) {
				t.Errorf("%s still carries %s after cancel", sel, cl)
			}
		}
	}
}

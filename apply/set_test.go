package apply

import (
	"context"
	"strings"
	"testing"

	"github.com/hazyhaar/domedit/change"
	"github.com/hazyhaar/domedit/dom"
)

type eventLog struct {
	events []Event
}

func (l *eventLog) RecordEvent(_ context.Context, ev Event) {
	l.events = append(l.events, ev)
}

func (l *eventLog) actions() []string {
	out := make([]string, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.Action
	}
	return out
}

func TestApplySetSkipsDisabled(t *testing.T) {
	a, doc := newApplier(t)

	set := &change.Set{
		Variant: "v1",
		Records: []change.Record{
			{Type: change.KindText, Selector: "#a", Value: "on"},
			{Type: change.KindText, Selector: "#b", Value: "off", Disabled: true},
		},
	}

	rep := a.ApplySet(context.Background(), set)
	if rep.Applied != 1 {
		t.Errorf("Applied = %d, want 1", rep.Applied)
	}
	if len(rep.Issues) != 0 {
		t.Errorf("Issues = %v, want none", rep.Issues)
	}
	if got := dom.TextContent(queryOne(t, doc, "#b")); got != "beta" {
		t.Errorf("disabled record was applied: #b text = %q", got)
	}
}

func TestApplySetContinuesPastFailure(t *testing.T) {
	a, doc := newApplier(t)

	set := &change.Set{
		Variant: "v1",
		Records: []change.Record{
			{Type: change.KindText, Selector: "#a", Value: "one"},
			{Type: change.KindText, Selector: "#missing", Value: "two"},
			{Type: change.KindText, Selector: "#b", Value: "three"},
		},
	}

	rep := a.ApplySet(context.Background(), set)
	if rep.Applied != 2 {
		t.Errorf("Applied = %d, want 2", rep.Applied)
	}
	if len(rep.Issues) != 1 {
		t.Fatalf("Issues = %d, want 1", len(rep.Issues))
	}
	if rep.Issues[0].Index != 1 || rep.Issues[0].Action != "apply" {
		t.Errorf("issue = %+v", rep.Issues[0])
	}
	if got := dom.TextContent(queryOne(t, doc, "#b")); got != "three" {
		t.Errorf("record after the failure not applied: #b text = %q", got)
	}
}

func TestRevertSetRestoresDocument(t *testing.T) {
	a, doc := newApplier(t)
	before := render(t, doc)

	set := &change.Set{
		Variant: "v1",
		Records: []change.Record{
			{Type: change.KindClass, Selector: "#b", Add: []string{"lit"}},
			{Type: change.KindMove, Selector: "#x", TargetSelector: "#y", Position: change.PositionAfter},
			{Type: change.KindText, Selector: "#a", Value: "edited"},
		},
	}

	a.ApplySet(context.Background(), set)
	if render(t, doc) == before {
		t.Fatal("set left the document unchanged")
	}
	if !a.HasActive("v1") {
		t.Fatal("want active state for v1")
	}

	rep := a.RevertSet(context.Background(), "v1")
	if rep.Reverted != 3 {
		t.Errorf("Reverted = %d, want 3", rep.Reverted)
	}
	if got := render(t, doc); got != before {
		t.Errorf("revert did not restore the document\nbefore: %s\nafter:  %s", before, got)
	}
	if a.HasActive("v1") {
		t.Error("v1 state must be cleared after revert")
	}
}

func TestReapplyIsIdempotent(t *testing.T) {
	a, doc := newApplier(t)

	set := &change.Set{
		Variant: "v1",
		Records: []change.Record{
			{Type: change.KindClass, Selector: "#b", Add: []string{"lit"}},
			{Type: change.KindText, Selector: "#a", Value: "edited"},
		},
	}

	a.Reapply(context.Background(), set)
	once := render(t, doc)

	rep := a.Reapply(context.Background(), set)
	if rep.Reverted != 2 || rep.Applied != 2 {
		t.Errorf("second Reapply: reverted=%d applied=%d, want 2/2", rep.Reverted, rep.Applied)
	}
	if got := render(t, doc); got != once {
		t.Errorf("second Reapply changed the document\nonce:  %s\ntwice: %s", once, got)
	}

	// State is replaced, not stacked: one revert restores the original.
	if n := len(a.active["v1"]); n != 2 {
		t.Errorf("active states = %d, want 2", n)
	}
}

func TestActiveVariants(t *testing.T) {
	a, _ := newApplier(t)

	a.ApplySet(context.Background(), &change.Set{Variant: "beta", Records: []change.Record{
		{Type: change.KindText, Selector: "#a", Value: "b"},
	}})
	a.ApplySet(context.Background(), &change.Set{Variant: "alpha", Records: []change.Record{
		{Type: change.KindText, Selector: "#b", Value: "a"},
	}})

	got := a.ActiveVariants()
	if len(got) != 2 || got[0] != "alpha" || got[1] != "beta" {
		t.Errorf("ActiveVariants = %v, want [alpha beta]", got)
	}
}

func TestRecorderSeesOutcomes(t *testing.T) {
	doc, err := dom.Parse(fixture)
	if err != nil {
		t.Fatal(err)
	}
	log := &eventLog{}
	a := New(Config{Doc: doc, Recorder: log})

	set := &change.Set{
		Variant: "v1",
		Records: []change.Record{
			{Type: change.KindText, Selector: "#a", Value: "x"},
			{Type: change.KindText, Selector: "#missing", Value: "y"},
		},
	}
	a.ApplySet(context.Background(), set)
	a.RevertSet(context.Background(), "v1")

	got := strings.Join(log.actions(), ",")
	want := "applied,skipped,reverted"
	if got != want {
		t.Errorf("actions = %q, want %q", got, want)
	}
	if log.events[1].Err == "" {
		t.Error("skipped event must carry the error")
	}
	if log.events[0].Variant != "v1" || log.events[0].Kind != change.KindText {
		t.Errorf("event fields = %+v", log.events[0])
	}
}

package apply

import (
	"context"
	"sort"

	"github.com/hazyhaar/domedit/change"
)

// Issue is one record that could not be applied or reverted. Partial
// application is the expected degraded mode: the authored changes may
// target elements that do not exist on a given page load.
type Issue struct {
	Index  int           `json:"index"`
	Action string        `json:"action"` // apply | revert
	Record change.Record `json:"record"`
	Err    string        `json:"error"`
}

// Report summarises one pass over a set.
type Report struct {
	Variant  string  `json:"variant"`
	Applied  int     `json:"applied"`
	Reverted int     `json:"reverted"`
	Issues   []Issue `json:"issues,omitempty"`
}

// ApplySet applies the enabled records of a set in list order, recording
// applied state under the set's variant name. A failing record is skipped
// and reported; it never aborts the rest of the set.
func (a *Applier) ApplySet(ctx context.Context, set *change.Set) *Report {
	rep := &Report{Variant: set.Variant}

	for i, rec := range set.Records {
		if rec.Disabled {
			continue
		}
		st, err := a.Apply(ctx, rec)
		if err != nil {
			rep.Issues = append(rep.Issues, Issue{Index: i, Action: "apply", Record: rec, Err: err.Error()})
			a.record(ctx, set.Variant, rec, "skipped", err)
			a.logger.Warn("apply: record skipped",
				"variant", set.Variant, "index", i, "type", string(rec.Type), "error", err)
			continue
		}
		a.active[set.Variant] = append(a.active[set.Variant], st)
		rep.Applied++
		a.record(ctx, set.Variant, rec, "applied", nil)
	}

	return rep
}

// RevertSet reverts everything applied under a variant, in reverse apply
// order, and clears its state. Best-effort: failures are reported and the
// remaining states are still reverted.
func (a *Applier) RevertSet(ctx context.Context, variant string) *Report {
	rep := &Report{Variant: variant}
	states := a.active[variant]

	for i := len(states) - 1; i >= 0; i-- {
		st := states[i]
		if err := a.Revert(ctx, st); err != nil {
			rep.Issues = append(rep.Issues, Issue{Index: i, Action: "revert", Record: st.record, Err: err.Error()})
			a.record(ctx, variant, st.record, "skipped", err)
			a.logger.Warn("apply: revert skipped",
				"variant", variant, "type", string(st.record.Type), "error", err)
			continue
		}
		rep.Reverted++
		a.record(ctx, variant, st.record, "reverted", nil)
	}

	delete(a.active, variant)
	return rep
}

// Reapply clears any existing applied state for the set, then applies it
// from scratch. Idempotent: calling it twice leaves the document in the
// same state as calling it once.
func (a *Applier) Reapply(ctx context.Context, set *change.Set) *Report {
	revert := a.RevertSet(ctx, set.Variant)
	rep := a.ApplySet(ctx, set)
	rep.Reverted = revert.Reverted
	rep.Issues = append(revert.Issues, rep.Issues...)
	return rep
}

// ActiveVariants lists variants with live applied state, sorted.
func (a *Applier) ActiveVariants() []string {
	out := make([]string, 0, len(a.active))
	for v := range a.active {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// HasActive reports whether a variant has live applied state.
func (a *Applier) HasActive(variant string) bool {
	return len(a.active[variant]) > 0
}

func (a *Applier) record(ctx context.Context, variant string, rec change.Record, action string, err error) {
	if a.recorder == nil {
		return
	}
	ev := Event{Variant: variant, Selector: rec.Selector, Kind: rec.Type, Action: action}
	if err != nil {
		ev.Err = err.Error()
	}
	a.recorder.RecordEvent(ctx, ev)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

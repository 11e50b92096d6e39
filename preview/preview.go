// Package preview owns the single active preview: an applied, revertible
// change set for one variant. Switching variants and turning the preview
// off are the same code path with different arguments, so no mutation from
// a previous variant can linger after a switch.
package preview

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hazyhaar/domedit/apply"
	"github.com/hazyhaar/domedit/change"
)

// Coordinator enforces the at-most-one-active-preview invariant. It is the
// façade used when toggling between variants.
type Coordinator struct {
	mu      sync.Mutex
	applier *apply.Applier
	active  string
	logger  *slog.Logger
}

// New creates a Coordinator over an applier.
func New(applier *apply.Applier, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{applier: applier, logger: logger}
}

// SetPreview makes the given set the active preview. Whatever is currently
// previewed is fully reverted first, then only the enabled records of the
// new set are applied, in list order. A nil set reverts and leaves no
// active preview.
func (c *Coordinator) SetPreview(ctx context.Context, variant string, set *change.Set) *apply.Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != "" {
		rep := c.applier.RevertSet(ctx, c.active)
		if len(rep.Issues) > 0 {
			c.logger.Warn("preview: revert incomplete",
				"variant", c.active, "issues", len(rep.Issues))
		}
		c.active = ""
	}

	if set == nil {
		return &apply.Report{Variant: variant}
	}

	rep := c.applier.ApplySet(ctx, set)
	c.active = set.Variant
	c.logger.Info("preview: active",
		"variant", set.Variant, "applied", rep.Applied, "issues", len(rep.Issues))
	return rep
}

// Clear reverts the active preview, if any.
func (c *Coordinator) Clear(ctx context.Context) *apply.Report {
	return c.SetPreview(ctx, "", nil)
}

// Active returns the variant currently previewed, or "".
func (c *Coordinator) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

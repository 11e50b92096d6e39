// Package drag implements pointer-driven structural editing: resolving an
// insertion position from noisy pointer coordinates, and the drag session
// state machine that previews a move and emits a single move record.
package drag

import (
	"golang.org/x/net/html"

	"github.com/hazyhaar/domedit/change"
	"github.com/hazyhaar/domedit/dom"
)

// Resolution is the outcome of position resolution for one candidate
// drop target.
type Resolution struct {
	Position change.Position
	// Valid is false when the target is the dragged element itself or one
	// of its descendants; dropping there would create a cycle.
	Valid bool
}

// childIneligible lists void and replaced elements that cannot take
// children; firstChild/lastChild falls back to after for these.
var childIneligible = map[string]bool{
	"img": true, "br": true, "hr": true, "input": true,
	"textarea": true, "select": true, "iframe": true, "embed": true,
	"object": true, "video": true, "audio": true, "canvas": true,
	"source": true, "track": true, "wbr": true, "area": true,
	"col": true, "meta": true, "link": true, "param": true,
}

// Resolve splits the target's bounding box into three horizontal bands:
// top quarter means before, bottom quarter means after, and the middle
// half means firstChild or lastChild depending on which side of the
// vertical midpoint the pointer is on.
func Resolve(target, dragged *html.Node, pointerY float64, bounds dom.Rect) Resolution {
	res := Resolution{Valid: true}

	if target == dragged || dom.IsDescendant(dragged, target) {
		res.Valid = false
	}

	rel := pointerY - bounds.Y
	switch {
	case rel < bounds.Height/4:
		res.Position = change.PositionBefore
	case rel > bounds.Height*3/4:
		res.Position = change.PositionAfter
	default:
		if childIneligible[target.Data] {
			res.Position = change.PositionAfter
		} else if pointerY < bounds.MidY() {
			res.Position = change.PositionFirstChild
		} else {
			res.Position = change.PositionLastChild
		}
	}
	return res
}

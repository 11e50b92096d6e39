package dom

// Rect is an element's bounding box in viewport coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// MidY returns the vertical midpoint of the box.
func (r Rect) MidY() float64 { return r.Y + r.Height/2 }

// Layout supplies geometry for pointer-driven operations. An in-memory
// document has no layout, so geometry always comes from a collaborator:
// the live package implements this against a real page, tests use stubs.
type Layout interface {
	// Bounds returns the bounding box of the first element matching the
	// selector.
	Bounds(selector string) (Rect, error)

	// ElementAt returns a selector for the topmost page element under the
	// viewport point, or "" when nothing selectable is there. Editor-owned
	// elements are never returned.
	ElementAt(x, y float64) (string, error)
}

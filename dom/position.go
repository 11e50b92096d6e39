package dom

import "sort"

// Position is an insertion point relative to a target element. It mirrors
// change.Position; the string values are identical so the apply layer can
// convert with a plain cast.
type Position string

const (
	PosBefore     Position = "before"
	PosAfter      Position = "after"
	PosFirstChild Position = "firstChild"
	PosLastChild  Position = "lastChild"
)

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Package registry assigns compact display ids to opaque box identifiers.
//
// Raw identifiers from the packing service are long and meaningless to an
// operator. A Registry hands out 1, 2, 3, ... in first-seen order and
// remembers the mapping for one viewing session. Reset discards it.
package registry

import (
	"errors"
	"math"

	"packview/internal/layout"
)

// ErrRegistryExhausted is returned when no further display id can be issued
// without reusing one.
var ErrRegistryExhausted = errors.New("display id space exhausted")

// DefaultMaxID caps display ids so they fit the widest label the renderers
// lay out.
const DefaultMaxID = math.MaxInt32

// Registry is not safe for concurrent use; it is owned by a single session.
type Registry struct {
	ids   map[layout.BoxID]int
	boxes []layout.BoxID // boxes[id-1] is the box for display id id
	max   int
}

// New returns an empty registry capped at DefaultMaxID.
func New() *Registry {
	return NewWithLimit(DefaultMaxID)
}

// NewWithLimit returns an empty registry that issues at most max ids.
func NewWithLimit(max int) *Registry {
	if max <= 0 {
		max = DefaultMaxID
	}
	return &Registry{ids: make(map[layout.BoxID]int), max: max}
}

// Resolve returns the display id for id, assigning the next one if id has not
// been seen since the last Reset. Empty cells resolve to 0 and are not
// recorded.
func (r *Registry) Resolve(id layout.BoxID) (int, error) {
	if id.IsEmpty() {
		return 0, nil
	}
	if n, ok := r.ids[id]; ok {
		return n, nil
	}
	if len(r.boxes) >= r.max {
		return 0, ErrRegistryExhausted
	}
	r.boxes = append(r.boxes, id)
	n := len(r.boxes)
	r.ids[id] = n
	return n, nil
}

// Lookup returns the box behind a display id.
func (r *Registry) Lookup(displayID int) (layout.BoxID, bool) {
	if displayID < 1 || displayID > len(r.boxes) {
		return layout.Empty, false
	}
	return r.boxes[displayID-1], true
}

// Len returns the number of ids issued since the last Reset.
func (r *Registry) Len() int { return len(r.boxes) }

// Reset forgets every mapping; the next new box gets display id 1.
func (r *Registry) Reset() {
	clear(r.ids)
	r.boxes = r.boxes[:0]
}

// Package navigator tracks which horizontal layer of a container is shown.
package navigator

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned by Jump for a layer outside [0, height).
var ErrOutOfRange = errors.New("layer out of range")

// Navigator is the layer state machine. The zero value has no layout loaded
// (height 0) and ignores Next/Previous.
type Navigator struct {
	current int
	height  int
	onLoad  func()
}

// New returns a navigator that calls onLoad every time a layout is loaded.
// onLoad may be nil.
func New(onLoad func()) *Navigator {
	return &Navigator{onLoad: onLoad}
}

// Load switches to a new layout of the given height: the layer goes back to
// 0 and the load hook runs.
func (n *Navigator) Load(height int) {
	if height < 0 {
		height = 0
	}
	n.height = height
	n.current = 0
	if n.onLoad != nil {
		n.onLoad()
	}
}

// Current returns the displayed layer.
func (n *Navigator) Current() int { return n.current }

// Height returns the number of layers.
func (n *Navigator) Height() int { return n.height }

// Loaded reports whether a layout with at least one layer is loaded.
func (n *Navigator) Loaded() bool { return n.height > 0 }

// AtStart reports whether Previous would be a no-op.
func (n *Navigator) AtStart() bool { return n.current == 0 }

// AtEnd reports whether Next would be a no-op.
func (n *Navigator) AtEnd() bool { return n.current >= n.height-1 }

// Next moves up one layer. It reports whether the layer changed.
func (n *Navigator) Next() bool {
	if n.current < n.height-1 {
		n.current++
		return true
	}
	return false
}

// Previous moves down one layer. It reports whether the layer changed.
func (n *Navigator) Previous() bool {
	if n.current > 0 {
		n.current--
		return true
	}
	return false
}

// First jumps to layer 0.
func (n *Navigator) First() { n.current = 0 }

// Last jumps to the top layer.
func (n *Navigator) Last() {
	if n.height > 0 {
		n.current = n.height - 1
	}
}

// Jump moves to layer. Unlike Next/Previous it does not clamp.
func (n *Navigator) Jump(layer int) error {
	if layer < 0 || layer >= n.height {
		return fmt.Errorf("layer %d not in [0, %d): %w", layer, n.height, ErrOutOfRange)
	}
	n.current = layer
	return nil
}

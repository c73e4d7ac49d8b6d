// Package ui layout constants for consistent spacing and dimensions
package ui

// Layout constants for viewport and panel sizing
const (
	// Viewport padding and margins
	ViewportHorizontalPadding = 4

	// Chrome around the grid
	HeaderHeight    = 3 // container size, layer line, blank
	InspectorHeight = 2 // divider, inspector line
	StatusBarHeight = 1
	HelpPaneHeight  = 1
	BannerHeight    = 3

	// Legend panel
	LegendWidth    = 28
	LegendMinWidth = 16

	// Grid cells
	MinCellWidth = 1

	// Responsive breakpoints
	MinimumTerminalWidth  = 40
	MinimumTerminalHeight = 12
	CompactModeWidth      = 80
)

// LayoutConfig provides computed layout dimensions based on terminal size
type LayoutConfig struct {
	TerminalWidth  int
	TerminalHeight int
	IsCompact      bool
}

// NewLayoutConfig creates a layout configuration for the given terminal size
func NewLayoutConfig(width, height int) LayoutConfig {
	return LayoutConfig{
		TerminalWidth:  width,
		TerminalHeight: height,
		IsCompact:      width < CompactModeWidth,
	}
}

// ContentWidth returns the usable content width for the grid area. The
// legend panel takes space only outside compact mode.
func (l LayoutConfig) ContentWidth() int {
	w := l.TerminalWidth - ViewportHorizontalPadding
	if !l.IsCompact {
		w -= LegendWidth
	}
	return max(w, 0)
}

// ContentHeight returns the number of grid rows that fit, 0 before the first
// resize message. Room for the error banner is always kept.
func (l LayoutConfig) ContentHeight() int {
	if l.TerminalHeight == 0 {
		return 0
	}
	return max(l.TerminalHeight-HeaderHeight-InspectorHeight-StatusBarHeight-HelpPaneHeight-BannerHeight, 1)
}

// TooSmall reports a known terminal below the minimum usable size.
func (l LayoutConfig) TooSmall() bool {
	if l.TerminalWidth == 0 && l.TerminalHeight == 0 {
		return false
	}
	return l.TerminalWidth < MinimumTerminalWidth || l.TerminalHeight < MinimumTerminalHeight
}

// CellWidth picks how many columns each grid cell gets so cols cells fit in
// the content width, capped at maxWidth. A zero-sized terminal (before the
// first resize message) gets maxWidth.
func (l LayoutConfig) CellWidth(cols, maxWidth int) int {
	maxWidth = max(maxWidth, MinCellWidth)
	if l.TerminalWidth == 0 || cols <= 0 {
		return maxWidth
	}
	return min(max(l.ContentWidth()/cols, MinCellWidth), maxWidth)
}

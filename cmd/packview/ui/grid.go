package ui

import (
	"fmt"
	"strconv"
	"strings"

	"packview/internal/packing"
	"packview/internal/palette"
	"packview/internal/session"

	"github.com/charmbracelet/lipgloss"
)

const (
	// emptyGlyph marks an unoccupied cell so the grid reads without colour.
	emptyGlyph = "·"
	// overflowGlyph fills a cell too narrow for its label.
	overflowGlyph = "+"
)

// GridOptions controls grid rendering.
type GridOptions struct {
	CellWidth int
	Cursor    bool
	CursorRow int
	CursorCol int
	Height    int // rows shown, 0 for all; the window follows CursorRow
}

// LabelWidth is the cell width needed to print every display id up to
// maxID in full.
func LabelWidth(maxID int) int {
	return max(len(strconv.Itoa(max(maxID, 0))), MinCellWidth)
}

// CellBackground is the terminal colour of a cell: its base colour blended
// against the theme background at the cell's intensity.
func (s Styles) CellBackground(c session.Cell) lipgloss.Color {
	if c.Style.Empty {
		return lipgloss.Color(c.Style.Base)
	}
	return lipgloss.Color(palette.Blend(c.Style.Base, palette.Color(s.Theme.Background), c.Intensity))
}

// fitLabel centres label in width columns. A label that does not fit is
// replaced by overflow glyphs, never by part of itself.
func fitLabel(label string, width int) string {
	r := []rune(label)
	if len(r) > width {
		r = []rune(strings.Repeat(overflowGlyph, width))
	}
	pad := width - len(r)
	left := pad / 2
	return strings.Repeat(" ", left) + string(r) + strings.Repeat(" ", pad-left)
}

// RenderCell renders one cell.
func (s Styles) RenderCell(c session.Cell, width int, selected bool) string {
	width = max(width, MinCellWidth)
	label := c.Style.Label
	fg := lipgloss.Color(palette.PolarNight0)
	if c.Style.Empty {
		label = emptyGlyph
		fg = s.Theme.Muted
	}
	st := lipgloss.NewStyle().
		Background(s.CellBackground(c)).
		Foreground(fg)
	if selected {
		st = st.Inherit(s.Cursor)
	}
	return st.Render(fitLabel(label, width))
}

// RenderGrid renders a frame row by row, top row first. With a Height set
// only that many rows around the cursor are drawn.
func (s Styles) RenderGrid(f session.Frame, o GridOptions) string {
	lo, hi := VisibleRows(len(f.Rows), o.Height, o.CursorRow)
	lines := make([]string, 0, hi-lo)
	for r := lo; r < hi; r++ {
		row := f.Rows[r]
		var b strings.Builder
		for c, cell := range row {
			sel := o.Cursor && r == o.CursorRow && c == o.CursorCol
			b.WriteString(s.RenderCell(cell, o.CellWidth, sel))
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

// VisibleRows returns the window [lo, hi) of n rows that fits height and
// keeps cursor in view. A height of 0 shows everything.
func VisibleRows(n, height, cursor int) (lo, hi int) {
	if height <= 0 || n <= height {
		return 0, n
	}
	lo = min(max(cursor-height/2, 0), n-height)
	return lo, lo + height
}

// DescribeBox is the one-line form of a box looked up from the service.
func DescribeBox(b *packing.BoxDetails) string {
	parts := []string{
		"Box ID: " + b.BoxID,
		"customer " + b.CustomerID,
		fmt.Sprintf("%d × %d × %d", b.Length, b.Breadth, b.Height),
		"weight " + strconv.FormatFloat(b.Weight, 'f', -1, 64),
	}
	if b.Fragile {
		parts = append(parts, "fragile")
	}
	if b.ShipmentID != "" {
		parts = append(parts, "shipment "+b.ShipmentID)
	}
	return strings.Join(parts, " • ")
}

// RenderLegend lists every box issued so far with its colour swatch.
func (s Styles) RenderLegend(entries []session.LegendEntry, width int) string {
	if len(entries) == 0 {
		return s.Muted.Render("no boxes")
	}
	width = max(width, LegendMinWidth)
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, s.Bold.Render("Boxes"))
	for _, e := range entries {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(e.Style.Base)).Render("██")
		text := fmt.Sprintf("%3d %s", e.DisplayID, e.Box)
		if n := width - 3; len([]rune(text)) > n {
			text = string([]rune(text)[:n-1]) + "…"
		}
		lines = append(lines, swatch+" "+s.Body.Render(text))
	}
	return strings.Join(lines, "\n")
}

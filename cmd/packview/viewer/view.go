package viewer

import (
	"fmt"
	"strings"

	"packview/cmd/packview/ui"

	"github.com/charmbracelet/lipgloss"
)

// View renders the active screen.
func (m Model) View() string {
	if m.layout.TooSmall() {
		return m.tooSmallView()
	}
	var sections []string
	if m.mode == LayoutMode && m.session.Loaded() {
		sections = append(sections, m.layoutView())
	} else {
		sections = append(sections, m.searchView())
	}
	if m.err != nil {
		// Service messages are shown verbatim.
		sections = append(sections, m.styles.Banner.Render(m.err.Error()))
	}
	if m.status != "" {
		st := m.styles.Success
		if m.statusWarn {
			st = m.styles.Warning
		}
		sections = append(sections, st.Render(m.status))
	}
	return strings.Join(sections, "\n")
}

func (m Model) tooSmallView() string {
	return m.styles.Content.Render(strings.Join([]string{
		m.styles.Warning.Render("Terminal too small"),
		m.styles.Muted.Render(fmt.Sprintf("%d×%d, need at least %d×%d",
			m.layout.TerminalWidth, m.layout.TerminalHeight,
			ui.MinimumTerminalWidth, ui.MinimumTerminalHeight)),
	}, "\n"))
}

func (m Model) searchView() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Check Shipment"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	if m.loading {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf("Loading %s...", m.loadingID)))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Footer.Render("enter fetch • esc clear • ctrl+c quit"))
	return b.String()
}

func (m Model) layoutView() string {
	dims := m.frame.Dims
	nav := m.session.Navigator()

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.Header.Render(fmt.Sprintf("Container Size: %s", dims)),
		m.styles.Badge.Render(m.session.ShipmentID()),
	)
	layerLine := m.styles.Subtitle.Render(fmt.Sprintf("Layer %d of %d", nav.Current()+1, nav.Height()))

	cols := 0
	if len(m.frame.Rows) > 0 {
		cols = len(m.frame.Rows[0])
	}
	grid := m.styles.RenderGrid(m.frame, ui.GridOptions{
		CellWidth: max(m.layout.CellWidth(cols, m.maxCellWidth), ui.LabelWidth(m.session.Registry().Len())),
		Cursor:    true,
		CursorRow: m.cursorRow,
		CursorCol: m.cursorCol,
		Height:    m.layout.ContentHeight(),
	})
	body := grid
	if !m.layout.IsCompact {
		legend := m.styles.RenderLegend(m.session.Legend(), ui.LegendWidth)
		body = lipgloss.JoinHorizontal(lipgloss.Top, grid, "   ", legend)
	}

	return strings.Join([]string{
		header,
		layerLine,
		"",
		body,
		m.styles.RenderDivider(lipgloss.Width(body)),
		m.inspector(),
		m.help.View(m.keys),
	}, "\n")
}

// inspector describes the cell under the cursor.
func (m Model) inspector() string {
	cell, ok := m.selected()
	if !ok {
		return ""
	}
	pos := fmt.Sprintf("x=%d y=%d z=%d", cell.X, cell.Y, cell.Z)
	if cell.Box.IsEmpty() {
		return m.styles.Muted.Render("Empty • " + pos)
	}
	if cell.Box == m.detailsBox {
		switch {
		case m.detailsErr != nil:
			return m.styles.Error.Render(fmt.Sprintf("Box ID: %s • %v", cell.Box, m.detailsErr))
		case m.details != nil:
			return m.styles.Body.Render(fmt.Sprintf("%s • #%d • %s", ui.DescribeBox(m.details), cell.DisplayID, pos))
		}
	}
	return m.styles.Body.Render(fmt.Sprintf("Box ID: %s • #%d • %s", cell.Box, cell.DisplayID, pos))
}

package export

import (
	"fmt"
	"strings"

	"packview/internal/layout"
	"packview/internal/session"

	"github.com/charmbracelet/glamour"
)

// Summary describes a loaded shipment for the Markdown report.
type Summary struct {
	ShipmentID string
	Dims       layout.Dimensions
	Filled     int
	Ratio      float64
	Legend     []session.LegendEntry
}

// Summarize collects a Summary from a session after its layers have been
// rendered, so the legend covers every box.
func Summarize(s *session.Session) Summary {
	out := Summary{ShipmentID: s.ShipmentID(), Legend: s.Legend()}
	if g := s.Grid(); g != nil {
		out.Dims = g.Dims()
		out.Filled, out.Ratio = g.Occupancy()
	}
	return out
}

// Markdown renders the summary as a Markdown document.
func (s Summary) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Shipment %s\n\n", s.ShipmentID)
	fmt.Fprintf(&b, "- **Container Size:** %s\n", s.Dims)
	fmt.Fprintf(&b, "- **Layers:** %d\n", s.Dims.Height)
	fmt.Fprintf(&b, "- **Boxes:** %d\n", len(s.Legend))
	fmt.Fprintf(&b, "- **Occupancy:** %d of %d cells (%.1f%%)\n\n", s.Filled, s.Dims.Volume(), s.Ratio*100)

	if len(s.Legend) == 0 {
		b.WriteString("_Container is empty._\n")
		return b.String()
	}

	b.WriteString("| # | Box ID | Colour | Cells |\n")
	b.WriteString("|---:|---|---|---:|\n")
	for _, e := range s.Legend {
		fmt.Fprintf(&b, "| %d | `%s` | %s | %d |\n", e.DisplayID, escapeCell(string(e.Box)), e.Style.Base, e.Cells)
	}
	return b.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "`", "'")
}

// Terminal renders Markdown for the terminal. An empty style picks one from
// the terminal background.
func Terminal(md string, width int, style string) (string, error) {
	styleOpt := glamour.WithAutoStyle()
	if style != "" {
		styleOpt = glamour.WithStandardStyle(style)
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	return r.Render(md)
}

// Package export writes rendered layers out of the terminal: PNG contact
// sheets, interactive HTML charts and a Markdown summary.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"packview/internal/palette"
	"packview/internal/session"

	"github.com/fogleman/gg"
)

// Background is the sheet colour cells are blended against.
const Background = palette.PolarNight0

// PNGOptions controls contact sheet geometry.
type PNGOptions struct {
	CellSize int // pixels per grid cell
	Columns  int // layers per sheet row
}

// DefaultPNGOptions matches the default export config.
var DefaultPNGOptions = PNGOptions{CellSize: 32, Columns: 4}

type sheet struct {
	cell, margin, header int
	panelW, panelH       int
	perRow, rows         int
}

func layoutSheet(frames []session.Frame, o PNGOptions) sheet {
	s := sheet{cell: o.CellSize, margin: o.CellSize / 2, header: o.CellSize}
	f := frames[0]
	s.panelW = len(f.Rows[0]) * s.cell
	s.panelH = len(f.Rows)*s.cell + s.header
	s.perRow = min(max(o.Columns, 1), len(frames))
	s.rows = (len(frames) + s.perRow - 1) / s.perRow
	return s
}

func (s sheet) size() (w, h int) {
	return s.margin + s.perRow*(s.panelW+s.margin), s.margin + s.rows*(s.panelH+s.margin)
}

// panel returns the top-left corner of panel i's title row.
func (s sheet) panel(i int) (x, y int) {
	return s.margin + (i%s.perRow)*(s.panelW+s.margin), s.margin + (i/s.perRow)*(s.panelH+s.margin)
}

// cellOrigin returns the top-left pixel of display cell (r, c) in panel i.
func (s sheet) cellOrigin(i, r, c int) (x, y int) {
	px, py := s.panel(i)
	return px + c*s.cell, py + s.header + r*s.cell
}

// CellColor is the on-sheet colour of a rendered cell.
func CellColor(c session.Cell) palette.Color {
	if c.Style.Empty {
		return c.Style.Base
	}
	return palette.Blend(c.Style.Base, Background, c.Intensity)
}

// WritePNG draws frames as a contact sheet, one panel per layer, bottom
// layer first.
func WritePNG(w io.Writer, frames []session.Frame, o PNGOptions) error {
	dc, err := drawSheet(frames, o)
	if err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

// SavePNG writes the contact sheet to path, creating parent directories.
func SavePNG(path string, frames []session.Frame, o PNGOptions) error {
	dc, err := drawSheet(frames, o)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	return dc.SavePNG(path)
}

func drawSheet(frames []session.Frame, o PNGOptions) (*gg.Context, error) {
	if len(frames) == 0 || len(frames[0].Rows) == 0 || len(frames[0].Rows[0]) == 0 {
		return nil, fmt.Errorf("nothing to export")
	}
	if o.CellSize < 8 {
		return nil, fmt.Errorf("cell size must be at least 8 pixels, got %d", o.CellSize)
	}

	s := layoutSheet(frames, o)
	w, h := s.size()
	dc := gg.NewContext(w, h)
	dc.SetHexColor(string(Background))
	dc.Clear()

	labels := s.cell >= 24
	for i, f := range frames {
		px, py := s.panel(i)
		dc.SetHexColor(string(palette.SnowStorm0))
		dc.DrawStringAnchored(fmt.Sprintf("Layer %d of %d", f.Layer+1, f.Dims.Height),
			float64(px), float64(py)+float64(s.header)/2, 0, 0.5)

		for r, row := range f.Rows {
			for c, cell := range row {
				x, y := s.cellOrigin(i, r, c)
				fx, fy, size := float64(x), float64(y), float64(s.cell)

				dc.SetHexColor(string(cell.Style.Border))
				dc.DrawRectangle(fx, fy, size, size)
				dc.Fill()

				dc.SetHexColor(string(CellColor(cell)))
				dc.DrawRectangle(fx+1, fy+1, size-2, size-2)
				dc.Fill()

				if labels && !cell.Style.Empty {
					dc.SetHexColor(string(palette.PolarNight0))
					dc.DrawStringAnchored(cell.Style.Label, fx+size/2, fy+size/2, 0.5, 0.5)
				}
			}
		}
	}
	return dc, nil
}

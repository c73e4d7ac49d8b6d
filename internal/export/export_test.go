package export

import (
	"bytes"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"packview/internal/layout"
	"packview/internal/palette"
	"packview/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loaded returns a session holding a 3 x 2 x 2 container with two boxes.
func loaded(t *testing.T) *session.Session {
	t.Helper()
	m, err := palette.NewMapper(nil)
	require.NoError(t, err)
	s := session.New(m, rand.New(rand.NewSource(7)), nil)

	cells := make([][][]layout.BoxID, 3)
	for x := range cells {
		cells[x] = [][]layout.BoxID{make([]layout.BoxID, 2), make([]layout.BoxID, 2)}
	}
	cells[0][0][0] = "abc"
	cells[1][0][0] = "abc"
	cells[2][1][1] = "x|y"
	g, err := layout.New(layout.Dimensions{Width: 3, Height: 2, Depth: 2}, cells)
	require.NoError(t, err)
	s.Load("SHIP-TEST", g)
	return s
}

func frames(t *testing.T, s *session.Session) []session.Frame {
	t.Helper()
	fs, err := s.RenderAll()
	require.NoError(t, err)
	return fs
}

// =============================================================================
// PNG
// =============================================================================

func TestWritePNG_CellColours(t *testing.T) {
	fs := frames(t, loaded(t))
	o := PNGOptions{CellSize: 10, Columns: 4}

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, fs, o))
	img, err := png.Decode(&buf)
	require.NoError(t, err)

	s := layoutSheet(fs, o)
	w, h := s.size()
	assert.Equal(t, w, img.Bounds().Dx())
	assert.Equal(t, h, img.Bounds().Dy())

	for i, f := range fs {
		for r, row := range f.Rows {
			for c, cell := range row {
				x, y := s.cellOrigin(i, r, c)
				got := img.At(x+o.CellSize/2, y+o.CellSize/2)
				gr, gg, gb, _ := got.RGBA()
				wr, wg, wb := CellColor(cell).RGB()
				assert.Equal(t, []uint8{wr, wg, wb}, []uint8{uint8(gr >> 8), uint8(gg >> 8), uint8(gb >> 8)},
					"layer %d cell (%d,%d)", i, r, c)
			}
		}
	}
}

func TestSheetLayout_WrapsColumns(t *testing.T) {
	fs := frames(t, loaded(t))
	s := layoutSheet(fs, PNGOptions{CellSize: 10, Columns: 1})
	assert.Equal(t, 1, s.perRow)
	assert.Equal(t, 2, s.rows)

	_, y0 := s.panel(0)
	_, y1 := s.panel(1)
	assert.Equal(t, s.panelH+s.margin, y1-y0)
}

func TestSavePNG_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "SHIP-TEST.png")
	require.NoError(t, SavePNG(path, frames(t, loaded(t)), DefaultPNGOptions))

	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()
	_, err = png.DecodeConfig(fh)
	assert.NoError(t, err)
}

func TestWritePNG_Rejects(t *testing.T) {
	assert.Error(t, WritePNG(&bytes.Buffer{}, nil, DefaultPNGOptions))
	assert.Error(t, WritePNG(&bytes.Buffer{}, frames(t, loaded(t)), PNGOptions{CellSize: 2, Columns: 1}))
}

func TestCellColor(t *testing.T) {
	empty := session.Cell{Style: palette.EmptyStyle, Intensity: 1}
	assert.Equal(t, palette.PolarNight2, CellColor(empty))

	full := session.Cell{DisplayID: 1, Style: palette.Style{Base: palette.AuroraRed}, Intensity: 1}
	assert.Equal(t, palette.AuroraRed, CellColor(full))

	faint := full
	faint.Intensity = 0.3
	assert.NotEqual(t, palette.AuroraRed, CellColor(faint))
}

// =============================================================================
// HTML
// =============================================================================

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, frames(t, loaded(t)), HTMLOptions{Theme: "dark"}))

	page := buf.String()
	assert.Contains(t, page, "Layer 1 of 2")
	assert.Contains(t, page, "Layer 2 of 2")
	assert.Contains(t, page, "abc (1)")
	assert.Contains(t, page, string(palette.AuroraRed))
	assert.Contains(t, page, string(palette.AuroraGreen))
	assert.Contains(t, page, "empty")
}

func TestWriteHTML_NoFrames(t *testing.T) {
	assert.Error(t, WriteHTML(&bytes.Buffer{}, nil, HTMLOptions{}))
}

// =============================================================================
// SUMMARY
// =============================================================================

func TestSummary_Markdown(t *testing.T) {
	s := loaded(t)
	_ = frames(t, s)

	md := Summarize(s).Markdown()
	assert.Contains(t, md, "# Shipment SHIP-TEST")
	assert.Contains(t, md, "3 × 2 × 2")
	assert.Contains(t, md, "3 of 12 cells (25.0%)")
	assert.Contains(t, md, "| 1 | `abc` | #BF616A | 2 |")
	assert.Contains(t, md, "| 2 | `x\\|y` | #A3BE8C | 1 |")
}

func TestSummary_EmptyContainer(t *testing.T) {
	md := Summary{ShipmentID: "SHIP-0", Dims: layout.Dimensions{Width: 1, Height: 1, Depth: 1}}.Markdown()
	assert.Contains(t, md, "Container is empty")
	assert.NotContains(t, md, "| # |")
}

func TestTerminal(t *testing.T) {
	out, err := Terminal("# Shipment SHIP-1\n\nhello", 60, "notty")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "SHIP-1"))
}

package layout

import "fmt"

// Layer is a read-only horizontal cross-section of a Grid at a fixed height.
// Row 0 is the far edge of the container (z = depth-1) and the last row the
// near edge (z = 0); column c is x = c.
type Layer struct {
	index int
	rows  int
	cols  int
	cells []BoxID
}

// Slice extracts layer y of g in display orientation: cell (r, c) reads
// g.At(c, y, depth-1-r). The returned Layer does not alias g.
func Slice(g *Grid, y int) (Layer, error) {
	d := g.Dims()
	if y < 0 || y >= d.Height {
		return Layer{}, fmt.Errorf("layer %d not in [0, %d): %w", y, d.Height, ErrOutOfRange)
	}

	l := Layer{
		index: y,
		rows:  d.Depth,
		cols:  d.Width,
		cells: make([]BoxID, d.Depth*d.Width),
	}
	for r := 0; r < l.rows; r++ {
		z := d.Depth - 1 - r
		for c := 0; c < l.cols; c++ {
			l.cells[r*l.cols+c] = g.cells[g.index(c, y, z)]
		}
	}
	return l, nil
}

// Index returns the height position the layer was cut at.
func (l Layer) Index() int { return l.index }

// Rows returns the number of display rows (the container depth).
func (l Layer) Rows() int { return l.rows }

// Cols returns the number of display columns (the container width).
func (l Layer) Cols() int { return l.cols }

// Cell returns the box at display position (r, c).
func (l Layer) Cell(r, c int) (BoxID, error) {
	if r < 0 || r >= l.rows || c < 0 || c >= l.cols {
		return Empty, fmt.Errorf("display cell (%d, %d) not in %dx%d layer: %w", r, c, l.rows, l.cols, ErrOutOfRange)
	}
	return l.cells[r*l.cols+c], nil
}

// Source maps display position (r, c) back to grid coordinates.
func (l Layer) Source(r, c int) (x, y, z int) {
	return c, l.index, l.rows - 1 - r
}

// Grid returns a fresh rows x cols copy of the layer.
func (l Layer) Grid() [][]BoxID {
	out := make([][]BoxID, l.rows)
	for r := range out {
		out[r] = make([]BoxID, l.cols)
		copy(out[r], l.cells[r*l.cols:(r+1)*l.cols])
	}
	return out
}

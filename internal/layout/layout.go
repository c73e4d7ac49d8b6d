// Package layout holds the container occupancy grid returned by the packing
// service and the layer slicing used to display it.
package layout

import (
	"errors"
	"fmt"
	"math"
)

// ErrOutOfRange is returned when a grid or layer index falls outside the
// container's declared dimensions.
var ErrOutOfRange = errors.New("index out of range")

// BoxID is the opaque identifier the packing service writes into a cell.
// The zero value marks an empty cell.
type BoxID string

// Empty is the empty-cell marker.
const Empty BoxID = ""

// IsEmpty reports whether the cell holds no box.
func (b BoxID) IsEmpty() bool { return b == Empty }

// Dimensions are the container extents along each axis.
type Dimensions struct {
	Width  int `json:"container_x"` // x
	Height int `json:"container_y"` // y, the layer axis
	Depth  int `json:"container_z"` // z
}

// Validate checks that every extent is positive and the volume fits an int.
func (d Dimensions) Validate() error {
	if d.Width <= 0 || d.Height <= 0 || d.Depth <= 0 {
		return &DecodeError{Reason: fmt.Sprintf("container dimensions must be positive, got %s", d)}
	}
	if d.Width > math.MaxInt/d.Height || d.Width*d.Height > math.MaxInt/d.Depth {
		return &DecodeError{Reason: fmt.Sprintf("container volume of %s overflows", d)}
	}
	return nil
}

// Volume returns the number of unit cells in the container.
func (d Dimensions) Volume() int { return d.Width * d.Height * d.Depth }

// Contains reports whether (x, y, z) lies inside the container.
func (d Dimensions) Contains(x, y, z int) bool {
	return x >= 0 && x < d.Width &&
		y >= 0 && y < d.Height &&
		z >= 0 && z < d.Depth
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%d × %d × %d", d.Width, d.Height, d.Depth)
}

// DecodeError reports a layout that violates the packing service contract:
// grid extents that disagree with the declared dimensions, or a query
// outside them. It is never patched over by clamping.
type DecodeError struct {
	Axis     string // "x", "y" or "z"; empty for whole-layout faults
	Path     []int  // index path to the offending slice
	Expected int
	Actual   int
	Reason   string
	Err      error
}

func (e *DecodeError) Error() string {
	if e.Reason != "" {
		return "layout decode: " + e.Reason
	}
	return fmt.Sprintf("layout decode: %s extent at %v is %d, want %d", e.Axis, e.Path, e.Actual, e.Expected)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Grid is an immutable occupancy grid indexed [x][y][z]. Cells are stored
// flat in x-major order.
type Grid struct {
	dims  Dimensions
	cells []BoxID
}

// New validates cells against dims and copies them into a Grid. Every
// extent is checked before anything is allocated.
func New(dims Dimensions, cells [][][]BoxID) (*Grid, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	if len(cells) != dims.Width {
		return nil, &DecodeError{Axis: "x", Path: []int{}, Expected: dims.Width, Actual: len(cells)}
	}
	for x, plane := range cells {
		if len(plane) != dims.Height {
			return nil, &DecodeError{Axis: "y", Path: []int{x}, Expected: dims.Height, Actual: len(plane)}
		}
		for y, column := range plane {
			if len(column) != dims.Depth {
				return nil, &DecodeError{Axis: "z", Path: []int{x, y}, Expected: dims.Depth, Actual: len(column)}
			}
		}
	}

	g := &Grid{dims: dims, cells: make([]BoxID, dims.Volume())}
	for x, plane := range cells {
		for y, column := range plane {
			copy(g.cells[g.index(x, y, 0):], column)
		}
	}
	return g, nil
}

// Dims returns the container dimensions.
func (g *Grid) Dims() Dimensions { return g.dims }

func (g *Grid) index(x, y, z int) int {
	return (x*g.dims.Height+y)*g.dims.Depth + z
}

// At returns the box occupying (x, y, z), or Empty.
func (g *Grid) At(x, y, z int) (BoxID, error) {
	if !g.dims.Contains(x, y, z) {
		return Empty, &DecodeError{
			Reason: fmt.Sprintf("cell (%d, %d, %d) outside %s", x, y, z, g.dims),
			Err:    ErrOutOfRange,
		}
	}
	return g.cells[g.index(x, y, z)], nil
}

// Boxes returns the distinct box identifiers in x, y, z scan order.
func (g *Grid) Boxes() []BoxID {
	seen := make(map[BoxID]struct{})
	var out []BoxID
	for _, id := range g.cells {
		if id.IsEmpty() {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// CellCount returns how many cells id occupies.
func (g *Grid) CellCount(id BoxID) int {
	n := 0
	for _, c := range g.cells {
		if c == id {
			n++
		}
	}
	return n
}

// Occupancy returns the number of filled cells and the filled fraction of
// the container volume.
func (g *Grid) Occupancy() (filled int, ratio float64) {
	for _, c := range g.cells {
		if !c.IsEmpty() {
			filled++
		}
	}
	return filled, float64(filled) / float64(len(g.cells))
}

package layout

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// filled builds a w x h x d cell array where every cell is empty.
func filled(w, h, d int) [][][]BoxID {
	cells := make([][][]BoxID, w)
	for x := range cells {
		cells[x] = make([][]BoxID, h)
		for y := range cells[x] {
			cells[x][y] = make([]BoxID, d)
		}
	}
	return cells
}

// =============================================================================
// GRID CONSTRUCTION
// =============================================================================

func TestNew_RejectsNonPositiveDimensions(t *testing.T) {
	_, err := New(Dimensions{Width: 2, Height: 0, Depth: 2}, nil)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Contains(t, err.Error(), "must be positive")
}

func TestNew_RejectsExtentMismatch(t *testing.T) {
	dims := Dimensions{Width: 2, Height: 2, Depth: 2}

	tests := []struct {
		name  string
		cells func() [][][]BoxID
		axis  string
	}{
		{"short x", func() [][][]BoxID { return filled(1, 2, 2) }, "x"},
		{"short y", func() [][][]BoxID {
			c := filled(2, 2, 2)
			c[1] = c[1][:1]
			return c
		}, "y"},
		{"long z", func() [][][]BoxID {
			c := filled(2, 2, 2)
			c[0][1] = append(c[0][1], "extra")
			return c
		}, "z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(dims, tt.cells())
			var de *DecodeError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.axis, de.Axis)
		})
	}
}

func TestAt_OutOfRange(t *testing.T) {
	g, err := New(Dimensions{Width: 2, Height: 3, Depth: 4}, filled(2, 3, 4))
	require.NoError(t, err)

	for _, p := range [][3]int{{-1, 0, 0}, {2, 0, 0}, {0, 3, 0}, {0, 0, 4}} {
		_, err := g.At(p[0], p[1], p[2])
		assert.True(t, errors.Is(err, ErrOutOfRange), "point %v", p)
		var de *DecodeError
		assert.ErrorAs(t, err, &de)
	}
}

func TestGrid_CopiesInput(t *testing.T) {
	cells := filled(1, 1, 1)
	cells[0][0][0] = "abc"
	g, err := New(Dimensions{Width: 1, Height: 1, Depth: 1}, cells)
	require.NoError(t, err)

	cells[0][0][0] = "mutated"
	id, err := g.At(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, BoxID("abc"), id)
}

func TestGrid_BoxesAndOccupancy(t *testing.T) {
	cells := filled(2, 2, 2)
	cells[0][0][0] = "abc"
	cells[1][0][0] = "abc"
	cells[1][1][1] = "xyz"
	g, err := New(Dimensions{Width: 2, Height: 2, Depth: 2}, cells)
	require.NoError(t, err)

	assert.Equal(t, []BoxID{"abc", "xyz"}, g.Boxes())
	assert.Equal(t, 2, g.CellCount("abc"))
	filledCells, ratio := g.Occupancy()
	assert.Equal(t, 3, filledCells)
	assert.InDelta(t, 0.375, ratio, 1e-9)
}

// =============================================================================
// WIRE DECODING
// =============================================================================

func TestDecode_ServiceBody(t *testing.T) {
	body := `{
	  "container_x": 2.0, "container_y": 1.0, "container_z": 2.0,
	  "layout": [[["BOX-1", ""]], [[null, 7]]]
	}`
	g, err := Decode(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, Dimensions{Width: 2, Height: 1, Depth: 2}, g.Dims())

	got := [][]BoxID{}
	for x := 0; x < 2; x++ {
		var col []BoxID
		for z := 0; z < 2; z++ {
			id, err := g.At(x, 0, z)
			require.NoError(t, err)
			col = append(col, id)
		}
		got = append(got, col)
	}
	want := [][]BoxID{{"BOX-1", Empty}, {Empty, "7"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decoded cells mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_Rejects(t *testing.T) {
	tests := map[string]string{
		"fractional extent": `{"container_x": 1.5, "container_y": 1, "container_z": 1, "layout": [[[""]]]}`,
		"missing extent":    `{"container_x": 1, "container_y": 1, "layout": [[[""]]]}`,
		"zero extent":       `{"container_x": 0, "container_y": 1, "container_z": 1, "layout": []}`,
		"grid mismatch":     `{"container_x": 1, "container_y": 1, "container_z": 2, "layout": [[[""]]]}`,
		"bool cell":         `{"container_x": 1, "container_y": 1, "container_z": 1, "layout": [[[true]]]}`,
		"not json":          `<html>`,
		"huge extents":      `{"container_x": 1, "container_y": 2147483647, "container_z": 2147483647, "layout": [[[""]]]}`,
		"volume overflow":   `{"container_x": 2147483647, "container_y": 2147483647, "container_z": 2147483647, "layout": [[[""]]]}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(body))
			var de *DecodeError
			require.ErrorAs(t, err, &de)
		})
	}
}

func TestNew_ChecksExtentsBeforeAllocating(t *testing.T) {
	_, err := New(Dimensions{Width: 1, Height: math.MaxInt32, Depth: math.MaxInt32}, [][][]BoxID{{{""}}})
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "y", de.Axis)
	assert.Equal(t, 1, de.Actual)
}

func TestEncode_DecodeAgrees(t *testing.T) {
	cells := filled(3, 2, 2)
	cells[2][1][0] = "SHIP-1"
	g, err := New(Dimensions{Width: 3, Height: 2, Depth: 2}, cells)
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, Encode(&sb, g))

	back, err := Decode(strings.NewReader(sb.String()))
	require.NoError(t, err)
	assert.Equal(t, g.Dims(), back.Dims())
	id, err := back.At(2, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, BoxID("SHIP-1"), id)
}

package layout

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlice_ScenarioA(t *testing.T) {
	cells := filled(2, 2, 2)
	cells[0][0][0] = "abc"
	cells[1][0][0] = "abc"
	g, err := New(Dimensions{Width: 2, Height: 2, Depth: 2}, cells)
	require.NoError(t, err)

	l, err := Slice(g, 0)
	require.NoError(t, err)

	// depth 2: row 0 is z=1 (empty), row 1 is z=0.
	want := [][]BoxID{
		{Empty, Empty},
		{"abc", "abc"},
	}
	if diff := cmp.Diff(want, l.Grid()); diff != "" {
		t.Errorf("layer 0 mismatch (-want +got):\n%s", diff)
	}
}

func TestSlice_OrientationRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 20; trial++ {
		w, h, d := 1+rng.Intn(5), 1+rng.Intn(5), 1+rng.Intn(5)
		cells := filled(w, h, d)
		for x := range cells {
			for y := range cells[x] {
				for z := range cells[x][y] {
					if rng.Intn(3) > 0 {
						cells[x][y][z] = BoxID(fmt.Sprintf("B%d", rng.Intn(6)))
					}
				}
			}
		}
		g, err := New(Dimensions{Width: w, Height: h, Depth: d}, cells)
		require.NoError(t, err)

		for y := 0; y < h; y++ {
			l, err := Slice(g, y)
			require.NoError(t, err)
			require.Equal(t, d, l.Rows())
			require.Equal(t, w, l.Cols())
			for x := 0; x < w; x++ {
				for z := 0; z < d; z++ {
					got, err := l.Cell(d-1-z, x)
					require.NoError(t, err)
					assert.Equal(t, cells[x][y][z], got, "trial %d cell (%d,%d,%d)", trial, x, y, z)
				}
			}
		}
	}
}

func TestSlice_SourceInvertsCell(t *testing.T) {
	g, err := New(Dimensions{Width: 3, Height: 2, Depth: 4}, filled(3, 2, 4))
	require.NoError(t, err)
	l, err := Slice(g, 1)
	require.NoError(t, err)

	x, y, z := l.Source(0, 2)
	assert.Equal(t, [3]int{2, 1, 3}, [3]int{x, y, z})
	x, y, z = l.Source(3, 0)
	assert.Equal(t, [3]int{0, 1, 0}, [3]int{x, y, z})
}

func TestSlice_OutOfRange(t *testing.T) {
	g, err := New(Dimensions{Width: 1, Height: 2, Depth: 1}, filled(1, 2, 1))
	require.NoError(t, err)

	for _, y := range []int{-1, 2} {
		_, err := Slice(g, y)
		assert.True(t, errors.Is(err, ErrOutOfRange), "layer %d", y)
	}

	l, err := Slice(g, 1)
	require.NoError(t, err)
	_, err = l.Cell(1, 0)
	assert.True(t, errors.Is(err, ErrOutOfRange))
}

func TestSlice_SnapshotIsIndependent(t *testing.T) {
	cells := filled(1, 1, 1)
	cells[0][0][0] = "a"
	g, err := New(Dimensions{Width: 1, Height: 1, Depth: 1}, cells)
	require.NoError(t, err)

	l, err := Slice(g, 0)
	require.NoError(t, err)
	rows := l.Grid()
	rows[0][0] = "changed"

	id, err := g.At(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, BoxID("a"), id)
	again, err := l.Cell(0, 0)
	require.NoError(t, err)
	assert.Equal(t, BoxID("a"), again)
}

package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// wireLayout is the check-shipment response body. The service declares the
// container extents as floats and fills empty cells with "".
type wireLayout struct {
	ContainerX json.Number           `json:"container_x"`
	ContainerY json.Number           `json:"container_y"`
	ContainerZ json.Number           `json:"container_z"`
	Layout     [][][]json.RawMessage `json:"layout"`
}

// Decode reads a check-shipment response body and builds a validated Grid.
func Decode(r io.Reader) (*Grid, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var w wireLayout
	if err := dec.Decode(&w); err != nil {
		return nil, &DecodeError{Reason: "malformed layout body", Err: err}
	}

	var dims Dimensions
	var err error
	if dims.Width, err = extent("container_x", w.ContainerX); err != nil {
		return nil, err
	}
	if dims.Height, err = extent("container_y", w.ContainerY); err != nil {
		return nil, err
	}
	if dims.Depth, err = extent("container_z", w.ContainerZ); err != nil {
		return nil, err
	}

	cells := make([][][]BoxID, len(w.Layout))
	for x, plane := range w.Layout {
		cells[x] = make([][]BoxID, len(plane))
		for y, column := range plane {
			cells[x][y] = make([]BoxID, len(column))
			for z, raw := range column {
				id, err := cellID(raw)
				if err != nil {
					return nil, &DecodeError{Reason: fmt.Sprintf("cell (%d, %d, %d): %v", x, y, z, err), Err: err}
				}
				cells[x][y][z] = id
			}
		}
	}
	return New(dims, cells)
}

func extent(field string, n json.Number) (int, error) {
	if n == "" {
		return 0, &DecodeError{Reason: field + " missing"}
	}
	f, err := n.Float64()
	if err != nil {
		return 0, &DecodeError{Reason: fmt.Sprintf("%s %q is not a number", field, n), Err: err}
	}
	if f != math.Trunc(f) || f <= 0 || f > math.MaxInt32 {
		return 0, &DecodeError{Reason: fmt.Sprintf("%s must be a positive integer, got %s", field, n)}
	}
	return int(f), nil
}

// cellID maps a raw JSON cell to a BoxID. null and "" are empty; numbers keep
// their literal text so 7 and "7" name the same box.
func cellID(raw json.RawMessage) (BoxID, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Empty, nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Empty, err
		}
		return BoxID(s), nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return Empty, err
		}
		return BoxID(n.String()), nil
	default:
		return Empty, fmt.Errorf("unsupported cell value %s", raw)
	}
}

// Encode writes g in the check-shipment wire format, empty cells as "".
func Encode(w io.Writer, g *Grid) error {
	d := g.Dims()
	out := struct {
		ContainerX int         `json:"container_x"`
		ContainerY int         `json:"container_y"`
		ContainerZ int         `json:"container_z"`
		Layout     [][][]BoxID `json:"layout"`
	}{ContainerX: d.Width, ContainerY: d.Height, ContainerZ: d.Depth}

	out.Layout = make([][][]BoxID, d.Width)
	for x := range out.Layout {
		out.Layout[x] = make([][]BoxID, d.Height)
		for y := range out.Layout[x] {
			out.Layout[x][y] = make([]BoxID, d.Depth)
			copy(out.Layout[x][y], g.cells[g.index(x, y, 0):g.index(x, y, 0)+d.Depth])
		}
	}
	return json.NewEncoder(w).Encode(out)
}

// Package session owns the state of one shipment view: the loaded layout,
// the display id registry and the current layer.
//
// A Session is confined to one goroutine (the viewer's update loop or a
// single render job). Fetches run elsewhere and hand their result back via
// Accept together with the token Begin issued for them; only the most
// recently issued token is accepted, so a slow response can never replace a
// newer one.
package session

import (
	"errors"
	"fmt"

	"packview/internal/layout"
	"packview/internal/navigator"
	"packview/internal/palette"
	"packview/internal/registry"

	"go.uber.org/zap"
)

// ErrNoLayout is returned when an operation needs a layout and none is
// loaded.
var ErrNoLayout = errors.New("no layout loaded")

// Token identifies one fetch request.
type Token uint64

// Cell is one rendered grid position.
type Cell struct {
	Box       layout.BoxID
	DisplayID int
	Style     palette.Style
	Intensity float64
	X, Y, Z   int
}

// Frame is a rendered layer.
type Frame struct {
	ShipmentID string
	Dims       layout.Dimensions
	Layer      int
	Rows       [][]Cell
}

// Session is a single viewing session.
type Session struct {
	grid       *layout.Grid
	shipmentID string
	reg        *registry.Registry
	nav        *navigator.Navigator
	mapper     *palette.Mapper
	rng        palette.Picker
	issued     Token
	logger     *zap.Logger
}

// New creates an empty session. rng drives the cosmetic per-cell intensity.
func New(mapper *palette.Mapper, rng palette.Picker, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		reg:    registry.New(),
		mapper: mapper,
		rng:    rng,
		logger: logger,
	}
	s.nav = navigator.New(s.reg.Reset)
	return s
}

// Begin issues the token for a new fetch of shipmentID. Any earlier token
// becomes stale.
func (s *Session) Begin(shipmentID string) Token {
	s.issued++
	s.logger.Debug("fetch issued", zap.String("shipment_id", shipmentID), zap.Uint64("token", uint64(s.issued)))
	return s.issued
}

// Current reports whether tok is the latest issued token.
func (s *Session) Current(tok Token) bool { return tok == s.issued }

// Accept installs g as the layout for tok. Stale tokens and nil grids are
// ignored and Accept returns false. Loading resets the layer to 0 and clears
// the registry.
func (s *Session) Accept(tok Token, shipmentID string, g *layout.Grid) bool {
	if !s.Current(tok) {
		s.logger.Info("stale layout dropped",
			zap.String("shipment_id", shipmentID),
			zap.Uint64("token", uint64(tok)),
			zap.Uint64("latest", uint64(s.issued)))
		return false
	}
	return s.Load(shipmentID, g) == nil
}

// Load installs g unconditionally. Used by sources that do not race, such as
// a file reload. A nil grid leaves the session untouched.
func (s *Session) Load(shipmentID string, g *layout.Grid) error {
	if g == nil {
		return ErrNoLayout
	}
	s.grid = g
	s.shipmentID = shipmentID
	s.nav.Load(g.Dims().Height)
	s.logger.Info("layout loaded",
		zap.String("shipment_id", shipmentID),
		zap.Stringer("dims", g.Dims()))
	return nil
}

// Discard drops the current view, as on "new search". Outstanding fetches
// become stale.
func (s *Session) Discard() {
	s.issued++
	s.grid = nil
	s.shipmentID = ""
	s.nav.Load(0)
}

// Loaded reports whether a layout is installed.
func (s *Session) Loaded() bool { return s.grid != nil }

// Grid returns the loaded layout, or nil.
func (s *Session) Grid() *layout.Grid { return s.grid }

// ShipmentID returns the id of the loaded shipment.
func (s *Session) ShipmentID() string { return s.shipmentID }

// Navigator exposes the layer state machine.
func (s *Session) Navigator() *navigator.Navigator { return s.nav }

// Registry exposes the display id registry.
func (s *Session) Registry() *registry.Registry { return s.reg }

// Mapper returns the palette in use.
func (s *Session) Mapper() *palette.Mapper { return s.mapper }

// Render renders the current layer.
func (s *Session) Render() (Frame, error) {
	return s.RenderLayer(s.nav.Current())
}

// RenderLayer slices layer y and resolves every cell through the registry
// and palette, in display order.
func (s *Session) RenderLayer(y int) (Frame, error) {
	if s.grid == nil {
		return Frame{}, ErrNoLayout
	}
	l, err := layout.Slice(s.grid, y)
	if err != nil {
		return Frame{}, err
	}

	f := Frame{
		ShipmentID: s.shipmentID,
		Dims:       s.grid.Dims(),
		Layer:      y,
		Rows:       make([][]Cell, l.Rows()),
	}
	for r := 0; r < l.Rows(); r++ {
		f.Rows[r] = make([]Cell, l.Cols())
		for c := 0; c < l.Cols(); c++ {
			box, err := l.Cell(r, c)
			if err != nil {
				return Frame{}, err
			}
			id, err := s.reg.Resolve(box)
			if err != nil {
				return Frame{}, fmt.Errorf("resolve %q: %w", box, err)
			}
			cell := Cell{Box: box, DisplayID: id, Style: s.mapper.StyleFor(id)}
			cell.X, cell.Y, cell.Z = l.Source(r, c)
			if id > 0 {
				cell.Intensity = palette.Intensity(s.rng)
			} else {
				cell.Intensity = 1
			}
			f.Rows[r][c] = cell
		}
	}
	return f, nil
}

// RenderAll renders every layer bottom to top without moving the navigator.
func (s *Session) RenderAll() ([]Frame, error) {
	if s.grid == nil {
		return nil, fmt.Errorf("no layout loaded")
	}
	frames := make([]Frame, 0, s.grid.Dims().Height)
	for y := 0; y < s.grid.Dims().Height; y++ {
		f, err := s.RenderLayer(y)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// LegendEntry describes one issued display id.
type LegendEntry struct {
	DisplayID int
	Box       layout.BoxID
	Cells     int
	Style     palette.Style
}

// Legend returns the entries for all display ids issued since the last load.
func (s *Session) Legend() []LegendEntry {
	out := make([]LegendEntry, 0, s.reg.Len())
	for id := 1; id <= s.reg.Len(); id++ {
		box, _ := s.reg.Lookup(id)
		e := LegendEntry{DisplayID: id, Box: box, Style: s.mapper.StyleFor(id)}
		if s.grid != nil {
			e.Cells = s.grid.CellCount(box)
		}
		out = append(out, e)
	}
	return out
}

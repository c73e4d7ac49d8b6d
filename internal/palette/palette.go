// Package palette maps display ids to cell colours.
//
// Two concerns are kept apart. StyleFor is a pure function of the display id
// and the palette: the same box is always the same base colour. Intensity is
// drawn independently for every rendered cell so neighbouring cells of one
// box are visually separable; it is cosmetic and deliberately random.
package palette

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// MinColors is the smallest palette accepted.
const MinColors = 10

// Color is a "#rrggbb" hex colour.
type Color string

// Nord colours used by the default palette and the empty-cell style.
const (
	PolarNight0  Color = "#2E3440"
	PolarNight1  Color = "#3B4252"
	PolarNight2  Color = "#434C5E"
	PolarNight3  Color = "#4C566A"
	SnowStorm0   Color = "#D8DEE9"
	SnowStorm2   Color = "#ECEFF4"
	Frost0       Color = "#8FBCBB"
	Frost1       Color = "#88C0D0"
	Frost2       Color = "#81A1C1"
	Frost3       Color = "#5E81AC"
	AuroraRed    Color = "#BF616A"
	AuroraOrange Color = "#D08770"
	AuroraYellow Color = "#EBCB8B"
	AuroraGreen  Color = "#A3BE8C"
	AuroraPink   Color = "#B48EAD"
)

// Default is the ordered base palette cycled through by display id.
var Default = []Color{
	AuroraRed,
	AuroraGreen,
	AuroraYellow,
	AuroraPink,
	AuroraOrange,
	Frost0,
	Frost1,
	Frost2,
	Frost3,
	SnowStorm0,
}

// Intensity steps: 0.30, 0.35, ... 1.00.
const (
	minIntensityPct  = 30
	intensityStepPct = 5
	intensitySteps   = 15
)

// Style is the deterministic part of a cell's appearance.
type Style struct {
	Base   Color
	Border Color
	Empty  bool
	Label  string
}

// EmptyStyle is the fixed style of an unoccupied cell.
var EmptyStyle = Style{Base: PolarNight2, Border: PolarNight3, Empty: true}

// Picker is the random source used for per-cell intensity. *rand.Rand
// satisfies it.
type Picker interface {
	Intn(n int) int
}

// Mapper holds an ordered palette.
type Mapper struct {
	colors []Color
}

// NewMapper validates colors and returns a Mapper. A nil or empty slice
// selects Default.
func NewMapper(colors []Color) (*Mapper, error) {
	if len(colors) == 0 {
		colors = Default
	}
	if len(colors) < MinColors {
		return nil, fmt.Errorf("palette needs at least %d colours, got %d", MinColors, len(colors))
	}
	seen := make(map[Color]bool, len(colors))
	for i, c := range colors {
		norm, err := Parse(string(c))
		if err != nil {
			return nil, fmt.Errorf("palette entry %d: %w", i, err)
		}
		if seen[norm] {
			return nil, fmt.Errorf("palette entry %d: duplicate colour %s", i, norm)
		}
		seen[norm] = true
	}
	out := make([]Color, len(colors))
	copy(out, colors)
	return &Mapper{colors: out}, nil
}

// Size returns the number of base colours.
func (m *Mapper) Size() int { return len(m.colors) }

// Colors returns a copy of the palette.
func (m *Mapper) Colors() []Color {
	out := make([]Color, len(m.colors))
	copy(out, m.colors)
	return out
}

// Index returns the palette slot for a display id: (id-1) mod size.
func (m *Mapper) Index(displayID int) int {
	return (displayID - 1) % len(m.colors)
}

// StyleFor returns the style of a display id; 0 (or less) is the empty cell.
func (m *Mapper) StyleFor(displayID int) Style {
	if displayID <= 0 {
		return EmptyStyle
	}
	return Style{
		Base:   m.colors[m.Index(displayID)],
		Border: PolarNight3,
		Label:  strconv.Itoa(displayID),
	}
}

// Intensity draws a cosmetic opacity in [0.30, 1.00] for one rendered cell.
// Callers must not memoise it per display id.
func Intensity(p Picker) float64 {
	pct := minIntensityPct + p.Intn(intensitySteps)*intensityStepPct
	return float64(pct) / 100
}

// Parse normalises "#RGB" or "#RRGGBB" (with or without '#') to "#RRGGBB".
func Parse(s string) (Color, error) {
	c, err := parseHex(s)
	if err != nil {
		return "", err
	}
	return Color(strings.ToUpper(c.Hex())), nil
}

func parseHex(s string) (colorful.Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if (len(hex) != 3 && len(hex) != 6) || strings.IndexFunc(hex, notHexDigit) >= 0 {
		return colorful.Color{}, fmt.Errorf("invalid hex colour %q", s)
	}
	c, err := colorful.Hex("#" + hex)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	return c, nil
}

func notHexDigit(r rune) bool {
	return !('0' <= r && r <= '9' || 'a' <= r && r <= 'f' || 'A' <= r && r <= 'F')
}

// RGB returns the colour channels. Invalid colours read as black.
func (c Color) RGB() (r, g, b uint8) {
	col, err := parseHex(string(c))
	if err != nil {
		return 0, 0, 0
	}
	return col.RGB255()
}

// Blend composites c over bg at the given opacity. Invalid colours read as
// black.
func Blend(c, bg Color, alpha float64) Color {
	alpha = min(max(alpha, 0), 1)
	fg, _ := parseHex(string(c))
	back, _ := parseHex(string(bg))
	return Color(strings.ToUpper(back.BlendRgb(fg, alpha).Clamped().Hex()))
}

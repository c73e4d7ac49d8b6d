package config

import (
	"fmt"
	"time"

	"packview/internal/palette"
)

// ViewerConfig holds interactive viewer configuration.
type ViewerConfig struct {
	// Theme is "auto", "light" or "dark"
	Theme string `yaml:"theme" json:"theme"`

	// Palette overrides the default Nord box colours (at least 10 hex colours)
	Palette []string `yaml:"palette,omitempty" json:"palette,omitempty"`

	// MaxCellWidth caps the terminal columns used per grid cell
	MaxCellWidth int `yaml:"max_cell_width" json:"max_cell_width"`

	// Seed fixes the cosmetic intensity sequence (0 = random per run)
	Seed int64 `yaml:"seed,omitempty" json:"seed,omitempty"`

	// WatchDebounce coalesces rapid writes to a watched layout file
	WatchDebounce string `yaml:"watch_debounce" json:"watch_debounce"`
}

// ValidThemes lists the accepted theme names.
var ValidThemes = []string{"auto", "light", "dark"}

// PaletteColors converts the configured palette; nil selects the default.
func (v ViewerConfig) PaletteColors() []palette.Color {
	if len(v.Palette) == 0 {
		return nil
	}
	out := make([]palette.Color, len(v.Palette))
	for i, c := range v.Palette {
		out[i] = palette.Color(c)
	}
	return out
}

func (v ViewerConfig) validate() error {
	valid := false
	for _, t := range ValidThemes {
		if v.Theme == t {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid viewer theme: %s (valid: %v)", v.Theme, ValidThemes)
	}
	if _, err := palette.NewMapper(v.PaletteColors()); err != nil {
		return fmt.Errorf("invalid viewer palette: %w", err)
	}
	if v.MaxCellWidth < 1 {
		return fmt.Errorf("viewer max_cell_width must be positive, got %d", v.MaxCellWidth)
	}
	if _, err := time.ParseDuration(v.WatchDebounce); err != nil {
		return fmt.Errorf("invalid viewer watch_debounce %q: %w", v.WatchDebounce, err)
	}
	return nil
}

// Package ui provides the visual styling for the packview terminal viewer.
// Colours come from the Nord palette the box colours are drawn from, with
// light and dark variants.
package ui

import (
	"os"
	"strconv"
	"strings"

	"packview/internal/palette"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Light Mode Colors
	LightBackground = lipgloss.Color(palette.SnowStorm2)
	LightForeground = lipgloss.Color(palette.PolarNight0)
	LightPrimary    = lipgloss.Color(palette.Frost3)
	LightMuted      = lipgloss.Color(palette.PolarNight3)
	LightBorder     = lipgloss.Color(palette.SnowStorm0)

	// Dark Mode Colors
	DarkBackground = lipgloss.Color(palette.PolarNight0)
	DarkForeground = lipgloss.Color(palette.SnowStorm2)
	DarkPrimary    = lipgloss.Color(palette.Frost1)
	DarkMuted      = lipgloss.Color(palette.PolarNight3)
	DarkBorder     = lipgloss.Color(palette.PolarNight1)

	// Semantic Colors (same in both modes)
	Destructive = lipgloss.Color(palette.AuroraRed)
	Success     = lipgloss.Color(palette.AuroraGreen)
	Warning     = lipgloss.Color(palette.AuroraYellow)
)

// Theme holds the current color scheme
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme
func LightTheme() Theme {
	return Theme{
		Background: LightBackground,
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Muted:      LightMuted,
		Border:     LightBorder,
		IsDark:     false,
	}
}

// DarkTheme returns the dark mode theme
func DarkTheme() Theme {
	return Theme{
		Background: DarkBackground,
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		IsDark:     true,
	}
}

// DetectTheme honours PACKVIEW_DARK_MODE, then guesses the terminal
// background from COLORFGBG, falling back to dark.
func DetectTheme() Theme {
	if v := os.Getenv("PACKVIEW_DARK_MODE"); v != "" {
		if dark, err := strconv.ParseBool(v); err == nil {
			if dark {
				return DarkTheme()
			}
			return LightTheme()
		}
	}

	// Format is usually "foreground;background"
	if parts := strings.Split(os.Getenv("COLORFGBG"), ";"); len(parts) == 2 {
		if bgIdx, err := strconv.Atoi(parts[1]); err == nil {
			if (bgIdx >= 0 && bgIdx <= 6) || bgIdx == 8 {
				return DarkTheme()
			}
			return LightTheme()
		}
	}

	return DarkTheme()
}

// ThemeFor resolves a configured theme name ("auto", "light", "dark").
func ThemeFor(name string) Theme {
	switch name {
	case "light":
		return LightTheme()
	case "dark":
		return DarkTheme()
	default:
		return DetectTheme()
	}
}

// Styles holds all the styled components
type Styles struct {
	Theme Theme

	// Layout
	Header  lipgloss.Style
	Footer  lipgloss.Style
	Content lipgloss.Style

	// Text
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style

	// Interactive
	Prompt lipgloss.Style
	Cursor lipgloss.Style

	// Status
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style

	// Components
	Spinner lipgloss.Style
	Divider lipgloss.Style
	Badge   lipgloss.Style
	Banner  lipgloss.Style
}

// NewStyles creates a new Styles instance with the given theme
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Padding(0, 1).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 1),

		Content: lipgloss.NewStyle().
			Padding(1, 2),

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Subtitle: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Bold: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Prompt: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Cursor: lipgloss.NewStyle().
			Reverse(true).
			Bold(true),

		Success: lipgloss.NewStyle().
			Foreground(Success).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true),

		Spinner: lipgloss.NewStyle().
			Foreground(theme.Primary),

		Divider: lipgloss.NewStyle().
			Foreground(theme.Border),

		Badge: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(theme.Background).
			Padding(0, 1).
			Bold(true),

		Banner: lipgloss.NewStyle().
			Foreground(Destructive).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Destructive),
	}
}

// RenderDivider returns a horizontal divider
func (s Styles) RenderDivider(width int) string {
	return s.Divider.Render(strings.Repeat("─", max(width, 0)))
}

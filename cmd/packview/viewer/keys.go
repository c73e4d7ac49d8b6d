package viewer

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the layout view bindings.
type keyMap struct {
	NextLayer  key.Binding
	PrevLayer  key.Binding
	FirstLayer key.Binding
	LastLayer  key.Binding
	Up         key.Binding
	Down       key.Binding
	Left       key.Binding
	Right      key.Binding
	Copy       key.Binding
	Details    key.Binding
	NewSearch  key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		NextLayer: key.NewBinding(
			key.WithKeys("]", "pgup", "tab"),
			key.WithHelp("]/pgup", "layer up"),
		),
		PrevLayer: key.NewBinding(
			key.WithKeys("[", "pgdown", "shift+tab"),
			key.WithHelp("[/pgdn", "layer down"),
		),
		FirstLayer: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g/home", "bottom layer"),
		),
		LastLayer: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G/end", "top layer"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "cursor up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "cursor down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "cursor left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "cursor right"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy box id"),
		),
		Details: key.NewBinding(
			key.WithKeys("i", "enter"),
			key.WithHelp("i/enter", "box details"),
		),
		NewSearch: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n/esc", "new search"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PrevLayer, k.NextLayer, k.Details, k.Copy, k.NewSearch, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PrevLayer, k.NextLayer, k.FirstLayer, k.LastLayer},
		{k.Up, k.Down, k.Left, k.Right},
		{k.Details, k.Copy, k.NewSearch, k.Help, k.Quit},
	}
}

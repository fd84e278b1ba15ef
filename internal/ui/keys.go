package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds every binding the list reacts to.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Expand   key.Binding
	Refresh  key.Binding
	Photos   key.Binding
	Debug    key.Binding
	Quit     key.Binding

	// photo viewer
	Prev  key.Binding
	Next  key.Binding
	Close key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup", "b"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown", "f"), key.WithHelp("pgdn", "page down")),
		Top:      key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom:   key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		Expand:   key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "show more")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Photos:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "photos")),
		Debug:    key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "debug")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		Prev:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "prev")),
		Next:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "next")),
		Close: key.NewBinding(key.WithKeys("esc", "q"), key.WithHelp("esc", "close")),
	}
}

// ShortHelp implements help.KeyMap for the list footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.Expand, k.Photos, k.Refresh, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.Expand, k.Photos, k.Refresh, k.Debug, k.Quit},
	}
}

// viewerHelp is the help.KeyMap shown inside the photo viewer.
type viewerHelp struct{ k keyMap }

func (v viewerHelp) ShortHelp() []key.Binding {
	return []key.Binding{v.k.Prev, v.k.Next, v.k.Close}
}

func (v viewerHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{v.ShortHelp()}
}

package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the board view.
type KeyMap struct {
	// Navigation
	Left     key.Binding
	Right    key.Binding
	Up       key.Binding
	Down     key.Binding
	LaneUp   key.Binding
	LaneDown key.Binding
	Top      key.Binding
	Bottom   key.Binding

	// Collapse
	CollapseColumn key.Binding
	CollapseLane   key.Binding
	ExpandAll      key.Binding

	// Actions
	Move     key.Binding
	Pick     key.Binding
	Drop     key.Binding
	Cancel   key.Binding
	Open     key.Binding
	Yank     key.Binding
	Filter   key.Binding
	Assignee key.Binding
	Reload   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous column"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next column"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous item"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next item"),
		),
		LaneUp: key.NewBinding(
			key.WithKeys("K", "shift+up"),
			key.WithHelp("K", "previous lane"),
		),
		LaneDown: key.NewBinding(
			key.WithKeys("J", "shift+down"),
			key.WithHelp("J", "next lane"),
		),
		Top: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "first item"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "last item"),
		),
		CollapseColumn: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "collapse column"),
		),
		CollapseLane: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "collapse lane"),
		),
		ExpandAll: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "expand all"),
		),
		Move: key.NewBinding(
			key.WithKeys("m", " "),
			key.WithHelp("m", "move item"),
		),
		Pick: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pick target cell"),
		),
		Drop: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "drop / open"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel move"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter", "o"),
			key.WithHelp("enter", "item details"),
		),
		Yank: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy item id"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter items"),
		),
		Assignee: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "cycle assignee"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload board"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns key bindings to be shown in the mini help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.LaneUp, k.LaneDown, k.Top, k.Bottom},
		{k.CollapseColumn, k.CollapseLane, k.ExpandAll},
		{k.Move, k.Pick, k.Drop, k.Cancel},
		{k.Open, k.Yank, k.Filter, k.Assignee, k.Reload, k.Help, k.Quit},
	}
}

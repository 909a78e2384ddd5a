package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the key bindings shared by the views
type KeyMap struct {
	Quit   key.Binding
	Back   key.Binding
	Enter  key.Binding
	Tab    key.Binding
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Today  key.Binding
	New    key.Binding
	Delete key.Binding
	Help   key.Binding

	// Chart
	NewInstance key.Binding
	NewSubTask  key.Binding
	Fold        key.Binding
	FoldAll     key.Binding
	MoveUp      key.Binding
	MoveDown    key.Binding
	Detail      key.Binding
	Revalidate  key.Binding
	Edit        key.Binding
	Settings    key.Binding
	Highlight   key.Binding
	Save        key.Binding
}

// DefaultKeyMap returns the default bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("↵", "select"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "earlier"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "later"),
		),
		Today: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "today"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		NewInstance: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "schedule"),
		),
		NewSubTask: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "new subtask"),
		),
		Fold: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "fold"),
		),
		FoldAll: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "fold all"),
		),
		MoveUp: key.NewBinding(
			key.WithKeys("K", "shift+up"),
			key.WithHelp("K", "move up"),
		),
		MoveDown: key.NewBinding(
			key.WithKeys("J", "shift+down"),
			key.WithHelp("J", "move down"),
		),
		Detail: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "detail"),
		),
		Revalidate: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "revalidate"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Settings: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "project"),
		),
		Highlight: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "highlight"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
	}
}

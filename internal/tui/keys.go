package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Toggle     key.Binding
	SelectAll  key.Binding
	SelectNone key.Binding
	Mode       key.Binding
	Artist     key.Binding
	Apply      key.Binding
	Undo       key.Binding
	Edit       key.Binding
	Clear      key.Binding
	Nuke       key.Binding
	Tags       key.Binding
	AddFolder  key.Binding
	Remove     key.Binding
	ClearAll   key.Binding
	Help       key.Binding
	Quit       key.Binding
}

var keys = keyMap{
	Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
	SelectAll:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select all")),
	SelectNone: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "select none")),
	Mode:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mode")),
	Artist:     key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "artist")),
	Apply:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "rename")),
	Undo:       key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
	Edit:       key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit name")),
	Clear:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear edit")),
	Nuke:       key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "nuke tags")),
	Tags:       key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "edit tags")),
	AddFolder:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "add folder")),
	Remove:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove")),
	ClearAll:   key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "clear list")),
	Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Mode, k.Apply, k.Undo, k.Edit, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.SelectAll, k.SelectNone, k.Remove, k.ClearAll},
		{k.Mode, k.Artist, k.Apply, k.Undo, k.Nuke},
		{k.Edit, k.Clear, k.Tags, k.AddFolder},
		{k.Help, k.Quit},
	}
}

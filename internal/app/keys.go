package app

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Submit        key.Binding
	Newline       key.Binding
	Enhance       key.Binding
	ToggleOutput  key.Binding
	SwitchField   key.Binding
	Clear         key.Binding
	Shutdown      key.Binding
	CopyLast      key.Binding
	ScrollUp      key.Binding
	ScrollDown    key.Binding
	ToggleHelp    key.Binding
	Quit          key.Binding
	ConfirmYes    key.Binding
	ConfirmCancel key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Submit:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Newline:       key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"), key.WithHelp("ctrl+j", "newline")),
		Enhance:       key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "enhance")),
		ToggleOutput:  key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "output format")),
		SwitchField:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch field")),
		Clear:         key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear")),
		Shutdown:      key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "shutdown agent")),
		CopyLast:      key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy reply")),
		ScrollUp:      key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		ScrollDown:    key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		ToggleHelp:    key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "help")),
		Quit:          key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		ConfirmYes:    key.NewBinding(key.WithKeys("y", "Y", "enter"), key.WithHelp("y", "confirm")),
		ConfirmCancel: key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "cancel")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Enhance, k.ToggleOutput, k.CopyLast, k.ToggleHelp, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Newline, k.Enhance, k.ToggleOutput, k.SwitchField},
		{k.Clear, k.Shutdown, k.CopyLast},
		{k.ScrollUp, k.ScrollDown, k.ToggleHelp, k.Quit},
	}
}

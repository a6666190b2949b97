// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// FormKeyMap defines the keybindings for the registration form.
type FormKeyMap struct {
	// Focus
	Next key.Binding
	Prev key.Binding

	// Actions
	Confirm key.Binding
	Submit  key.Binding

	// General
	Help key.Binding
	Quit key.Binding
}

// Form holds the active form keybindings.
var Form = DefaultFormKeyMap()

// DefaultFormKeyMap returns the default keybindings.
func DefaultFormKeyMap() FormKeyMap {
	return FormKeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab/↓", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab/↑", "previous field"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "next / submit"),
		),
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "submit"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "quit"),
		),
	}
}

// ShortHelp returns keybindings for the short help view.
func (k FormKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Confirm, k.Quit}
}

// FullHelp returns keybindings for the full help view.
func (k FormKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev},      // Focus
		{k.Confirm, k.Submit}, // Actions
		{k.Help, k.Quit},      // General
	}
}

// ResetForTesting restores the default keybindings.
func ResetForTesting() {
	Form = DefaultFormKeyMap()
}

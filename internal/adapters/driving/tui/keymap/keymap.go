// Package keymap defines keybindings for the review TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the review flow.
type KeyMap struct {
	// Approve accepts the highlighted suggestion.
	Approve key.Binding

	// Reject declines the highlighted suggestion.
	Reject key.Binding

	// Skip moves past the current note without deciding.
	Skip key.Binding

	// Up moves the highlight up the suggestion list.
	Up key.Binding

	// Down moves the highlight down the suggestion list.
	Down key.Binding

	// Quit ends the review session.
	Quit key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Approve: key.NewBinding(
			key.WithKeys("a", "enter"),
			key.WithHelp("a", "approve"),
		),
		Reject: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reject"),
		),
		Skip: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "skip"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the keybindings shown in the hint line.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Approve, k.Reject, k.Skip, k.Up, k.Down, k.Quit}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}

package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/lox/blackjack/blackjack"
)

type keyMap struct {
	Deal   key.Binding
	Hit    key.Binding
	Stand  key.Binding
	Up     key.Binding
	Down   key.Binding
	Quit   key.Binding
	Action map[blackjack.Action]key.Binding
}

func newKeyMap() keyMap {
	km := keyMap{
		Deal:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "deal")),
		Hit:   key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "hit")),
		Stand: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stand")),
		Up:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll up")),
		Down:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll down")),
		Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
	km.Action = map[blackjack.Action]key.Binding{
		blackjack.Deal:  km.Deal,
		blackjack.Hit:   km.Hit,
		blackjack.Stand: km.Stand,
	}
	return km
}

// ShortHelp is shown by the help bubble next to the action keys.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Deal, k.Hit, k.Stand}, k.ShortHelp()}
}

package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Tab bar
	NextTab     key.Binding
	TabDash     key.Binding
	TabMeds     key.Binding
	TabSchedule key.Binding
	TabSettings key.Binding

	// Actions
	Take      key.Binding
	Skip      key.Binding
	New       key.Binding
	Edit      key.Binding
	Delete    key.Binding
	LogMeal   key.Binding
	Refresh   key.Binding
	WeekLeft  key.Binding
	WeekRight key.Binding

	// Help toggle
	Help key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next view"),
		),
		TabDash: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "dashboard"),
		),
		TabMeds: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "medications"),
		),
		TabSchedule: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "week"),
		),
		TabSettings: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "settings"),
		),
		Take: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "mark taken"),
		),
		Skip: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "skip dose"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "add medication"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		LogMeal: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "log meal"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		WeekLeft: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "previous day"),
		),
		WeekRight: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "next day"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back, k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.TabDash, k.TabMeds, k.TabSchedule, k.TabSettings, k.NextTab},
		{k.Take, k.Skip, k.New, k.Edit, k.Delete},
		{k.LogMeal, k.Refresh, k.WeekLeft, k.WeekRight, k.Help},
	}
}

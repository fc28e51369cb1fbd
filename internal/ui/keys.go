package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the board.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Escape     key.Binding

	// View switching
	ViewBoard key.Binding
	ViewLogs  key.Binding
	History   key.Binding

	// Order actions
	Add      key.Binding
	Edit     key.Binding
	Deliver  key.Binding
	Complete key.Binding
	Cancel   key.Binding
	Export   key.Binding
	CopyID   key.Binding

	// Navigation
	Up           key.Binding
	Down         key.Binding
	Left         key.Binding
	Right        key.Binding
	Top          key.Binding
	Bottom       key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding

	// Logs actions
	ToggleFollow key.Binding
	LevelFilter  key.Binding
	Search       key.Binding
	NextMatch    key.Binding
	PrevMatch    key.Binding

	// Forms and prompts
	Confirm    key.Binding
	NextField  key.Binding
	PrevField  key.Binding
	WithReturn key.Binding
	NoReturn   key.Binding
	Yes        key.Binding
	No         key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Close / back to board"),
		),

		ViewBoard: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "Board"),
		),
		ViewLogs: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "App log"),
		),
		History: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "History"),
		),

		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Add order"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "Edit order"),
		),
		Deliver: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Confirm delivery"),
		),
		Complete: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Complete pickup"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Cancel order"),
		),
		Export: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "Export history"),
		),
		CopyID: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "Copy order id"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/left", "Move left"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/right", "Move right"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "Half page up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "Half page down"),
		),

		ToggleFollow: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("Space", "Toggle follow mode"),
		),
		LevelFilter: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "Cycle level filter"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Search log"),
		),
		NextMatch: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Next match"),
		),
		PrevMatch: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "Previous match"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "Next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "Previous field"),
		),
		WithReturn: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Schedule pickup"),
		),
		NoReturn: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "No pickup"),
		),
		Yes: key.NewBinding(
			key.WithKeys("y", "enter"),
			key.WithHelp("y", "Yes"),
		),
		No: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n", "No"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ViewBoard, k.ViewLogs, k.History, k.Escape},
		{k.Up, k.Down, k.Left, k.Right, k.Top, k.Bottom},
		{k.Add, k.Edit, k.Deliver, k.Complete, k.Cancel},
		{k.Export, k.CopyID},
		{k.ToggleFollow, k.LevelFilter, k.Search, k.NextMatch, k.PrevMatch},
		{k.CycleTheme, k.Help, k.Quit},
	}
}

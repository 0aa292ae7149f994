// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program and the control channel back to the player
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Action is a user request raised from the TUI
type Action int

const (
	ActionVolume Action = iota
	ActionRestart
	ActionReleaseLoop
	ActionQuit
)

// ControlMsg carries one user request to the player
type ControlMsg struct {
	Action Action
	Volume int
	Muted  bool
}

// Controls holds the channel for user requests
type Controls struct {
	Requests chan ControlMsg
}

// NewControls creates a new control handler
func NewControls() *Controls {
	return &Controls{
		Requests: make(chan ControlMsg, 10),
	}
}

// send never blocks the UI; a nil Controls discards
func (c *Controls) send(msg ControlMsg) {
	if c == nil {
		return
	}
	select {
	case c.Requests <- msg:
	default:
	}
}

// NewModel creates a new TUI model
func NewModel(controls *Controls) Model {
	return Model{
		volume:   100,
		controls: controls,
	}
}

// Run creates the TUI program; the caller runs it
func Run(controls *Controls) *tea.Program {
	return tea.NewProgram(NewModel(controls), tea.WithAltScreen())
}

// ABOUTME: Bubbletea model for player TUI
// ABOUTME: Tracks stream format, position and loop state, and maps keys to controls
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Model represents the TUI state
type Model struct {
	// Source
	source      string
	description string
	connected   bool

	// Stream
	sampleRate int
	channels   int
	total      int

	// Playback
	position  int
	loopCount int
	looping   bool
	finished  bool
	volume    int
	muted     bool

	showInfo bool

	controls *Controls

	width  int
	height int
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
		if m.finished {
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(m.renderPlayback())
	if m.showInfo && m.description != "" {
		b.WriteString(m.renderInfo())
	}
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderHeader() string {
	status := m.source
	if status == "" {
		status = "No stream"
	}
	format := "-"
	if m.sampleRate > 0 {
		format = fmt.Sprintf("%dHz %s", m.sampleRate, channelName(m.channels))
	}

	return fmt.Sprintf(`┌─ loopdec ────────────────────────────────────────────┐
│ Source: %-44s │
│ Format: %-44s │
├──────────────────────────────────────────────────────┤
`, truncate(status, 44), format)
}

func (m Model) renderPlayback() string {
	loop := "off"
	if m.looping {
		loop = fmt.Sprintf("on, %d done", m.loopCount)
	} else if m.loopCount > 0 {
		loop = fmt.Sprintf("released after %d", m.loopCount)
	}

	muteText := ""
	if m.muted {
		muteText = " (muted)"
	}

	pos := clock(m.position, m.sampleRate)
	if m.total > 0 {
		pos += " / " + clock(m.total, m.sampleRate)
	}

	return fmt.Sprintf("│ Time:   %-44s │\n"+
		"│ Loop:   %-44s │\n"+
		"│ Volume: [%s] %3d%%%-27s │\n"+
		"├──────────────────────────────────────────────────────┤\n",
		pos, loop, renderBar(m.volume, 100, 10), m.volume, muteText)
}

func (m Model) renderInfo() string {
	var b strings.Builder
	for _, line := range strings.Split(m.description, "\n") {
		if line == "" {
			continue
		}
		b.WriteString(fmt.Sprintf("│ %-52s │\n", truncate(line, 52)))
	}
	b.WriteString("├──────────────────────────────────────────────────────┤\n")
	return b.String()
}

func (m Model) renderHelp() string {
	return `│ ↑/↓:Volume  m:Mute  r:Restart  l:End loop  i:Info  q │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.controls.send(ControlMsg{Action: ActionQuit})
		return m, tea.Quit
	case "up":
		m.volume = min(m.volume+5, 100)
		m.controls.send(ControlMsg{Action: ActionVolume, Volume: m.volume, Muted: m.muted})
	case "down":
		m.volume = max(m.volume-5, 0)
		m.controls.send(ControlMsg{Action: ActionVolume, Volume: m.volume, Muted: m.muted})
	case "m":
		m.muted = !m.muted
		m.controls.send(ControlMsg{Action: ActionVolume, Volume: m.volume, Muted: m.muted})
	case "r":
		m.controls.send(ControlMsg{Action: ActionRestart})
	case "l":
		m.controls.send(ControlMsg{Action: ActionReleaseLoop})
	case "i":
		m.showInfo = !m.showInfo
	}

	return m, nil
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Connected != nil {
		m.connected = *msg.Connected
	}
	if msg.Source != "" {
		m.source = msg.Source
	}
	if msg.Description != "" {
		m.description = msg.Description
	}
	if msg.SampleRate != 0 {
		m.sampleRate = msg.SampleRate
		m.channels = msg.Channels
		m.total = msg.Total
	}
	if msg.Position != nil {
		m.position = *msg.Position
		m.loopCount = msg.LoopCount
		m.looping = msg.Looping
	}
	if msg.Finished {
		m.finished = true
	}
}

// StatusMsg updates TUI state; zero fields are left unchanged
type StatusMsg struct {
	Connected   *bool
	Source      string
	Description string
	SampleRate  int
	Channels    int
	Total       int
	Position    *int
	LoopCount   int
	Looping     bool
	Finished    bool
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	switch channels {
	case 1:
		return "Mono"
	case 2:
		return "Stereo"
	}
	return fmt.Sprintf("%dch", channels)
}

// clock formats a sample count as m:ss.mmm
func clock(samples, rate int) string {
	if rate <= 0 {
		return "0:00.000"
	}
	d := time.Duration(samples) * time.Second / time.Duration(rate)
	return fmt.Sprintf("%d:%02d.%03d", int(d.Minutes()), int(d.Seconds())%60, d.Milliseconds()%1000)
}

// Package activity provides the activity tab: models added and purchases over time.
package activity

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/aximo-tui/internal/app"
	"github.com/j-veylop/aximo-tui/internal/models"
)

// keyMap defines the key bindings specific to the activity tab.
type keyMap struct {
	ToggleRange key.Binding
	Up          key.Binding
	Down        key.Binding
}

// defaultKeyMap returns the default key bindings for the activity tab.
func defaultKeyMap() keyMap {
	return keyMap{
		ToggleRange: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle time range"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// Model represents the activity tab state. The statistics themselves live
// in the shared state; the tab only asks for a different range.
type Model struct {
	state     *app.State
	width     int
	height    int
	keys      keyMap
	viewport  viewport.Model
	timeRange models.TimeRange
}

// New creates a new activity model.
func New(state *app.State) *Model {
	return &Model{
		state:     state,
		keys:      defaultKeyMap(),
		viewport:  viewport.New(0, 0),
		timeRange: models.TimeRange30Days,
	}
}

// Init initializes the activity tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the activity tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.ActivityLoadedMsg:
		if msg.Error == nil {
			m.timeRange = msg.TimeRange
		}

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ToggleRange) {
			next := m.timeRange.Next()
			m.timeRange = next
			return m, func() tea.Msg { return app.LoadActivityMsg{TimeRange: next} }
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

// SetSize sets the available size for the activity tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.ToggleRange,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.ToggleRange},
		{m.keys.Up, m.keys.Down},
	}
}

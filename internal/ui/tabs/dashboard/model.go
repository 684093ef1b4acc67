// Package dashboard provides the live metrics tab for the SipStream TUI.
package dashboard

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sipsmart/sipstream/internal/app"
	"github.com/sipsmart/sipstream/internal/ui/components"
)

// keyMap defines the key bindings specific to the dashboard tab.
type keyMap struct {
	ScrollUp   key.Binding
	ScrollDown key.Binding
}

// defaultKeyMap returns the default key bindings for the dashboard tab.
func defaultKeyMap() keyMap {
	return keyMap{
		ScrollUp: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "scroll down"),
		),
	}
}

// Model represents the dashboard tab state.
type Model struct {
	state       *app.State
	goalML      float64
	chartWindow time.Duration
	spinner     components.LoadingSpinner
	goalBar     components.GoalBar
	keys        keyMap
	viewport    viewport.Model
	width       int
	height      int
}

// New creates a new dashboard model.
func New(state *app.State, goalML float64, chartWindow time.Duration) *Model {
	return &Model{
		state:       state,
		goalML:      goalML,
		chartWindow: chartWindow,
		spinner:     components.NewSpinner("Waiting for sensor..."),
		goalBar:     components.NewGoalBar(),
		keys:        defaultKeyMap(),
		viewport:    viewport.New(0, 0),
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Init()
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// SetSize sets the available size for the dashboard.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.ScrollUp, m.keys.ScrollDown}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.ScrollUp, m.keys.ScrollDown},
	}
}

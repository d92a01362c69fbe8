// Package history provides the history tab for viewing recorded quota samples.
package history

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/omni-quota/internal/app"
	"github.com/j-veylop/omni-quota/internal/models"
)

// SeriesFunc returns the recorded percentages of one account/model pair,
// oldest first.
type SeriesFunc func(id models.Identity, model string) []float64

// keyMap defines the key bindings specific to the history tab.
type keyMap struct {
	ToggleOverview key.Binding
	Up             key.Binding
	Down           key.Binding
}

// defaultKeyMap returns the default key bindings for the history tab.
func defaultKeyMap() keyMap {
	return keyMap{
		ToggleOverview: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "toggle all-models overview"),
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

// Model represents the history tab state.
type Model struct {
	state        *app.State
	series       SeriesFunc
	keys         keyMap
	viewport     viewport.Model
	width        int
	height       int
	showOverview bool
}

// New creates a new history model. series may be nil.
func New(state *app.State, series SeriesFunc) *Model {
	return &Model{
		state:        state,
		series:       series,
		keys:         defaultKeyMap(),
		viewport:     viewport.New(0, 0),
		showOverview: true,
	}
}

// Init initializes the history tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the history tab. The chart reads the sampler
// on every render, so data messages need no handling here.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if key.Matches(keyMsg, m.keys.ToggleOverview) {
		m.showOverview = !m.showOverview
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(keyMsg)
	return m, cmd
}

// SetSize sets the available size for the history tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// seriesFor returns the samples of a model, or nil without a source.
func (m *Model) seriesFor(id models.Identity, model string) []float64 {
	if m.series == nil || model == "" {
		return nil
	}
	return m.series(id, model)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.ToggleOverview}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.ToggleOverview},
		{m.keys.Up, m.keys.Down},
	}
}

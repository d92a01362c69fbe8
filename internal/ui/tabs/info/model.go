// Package info provides the info tab with configuration and build details.
package info

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/omni-quota/internal/app"
	"github.com/j-veylop/omni-quota/internal/config"
)

// maxPollInterval bounds the interval reachable with the slower key.
const maxPollInterval = 10 * time.Minute

// keyMap defines the key bindings specific to the info tab.
type keyMap struct {
	CopyStore key.Binding
	CopyLog   key.Binding
	Faster    key.Binding
	Slower    key.Binding
	Up        key.Binding
	Down      key.Binding
}

// defaultKeyMap returns the default key bindings for the info tab.
func defaultKeyMap() keyMap {
	return keyMap{
		CopyStore: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy store path"),
		),
		CopyLog: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "copy log path"),
		),
		Faster: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "poll faster"),
		),
		Slower: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "poll slower"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
	}
}

// Model represents the info tab state.
type Model struct {
	state    *app.State
	config   *config.Config
	width    int
	height   int
	interval time.Duration
	keys     keyMap
	viewport viewport.Model
}

// New creates a new info model.
func New(state *app.State, cfg *config.Config) *Model {
	m := &Model{
		state:    state,
		config:   cfg,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
	if cfg != nil {
		m.interval = cfg.PollInterval
	}
	return m
}

// Init initializes the info tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the info tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.CopyStore):
		return m, m.copyCmd(func(c *config.Config) string { return c.StorePath }, "store path")
	case key.Matches(keyMsg, m.keys.CopyLog):
		return m, m.copyCmd(func(c *config.Config) string { return c.LogPath }, "log path")
	case key.Matches(keyMsg, m.keys.Faster):
		return m, m.setIntervalCmd(m.interval / 2)
	case key.Matches(keyMsg, m.keys.Slower):
		return m, m.setIntervalCmd(m.interval * 2)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(keyMsg)
	return m, cmd
}

func (m *Model) copyCmd(field func(*config.Config) string, label string) tea.Cmd {
	if m.config == nil {
		return nil
	}
	text := field(m.config)
	if text == "" {
		return nil
	}
	return func() tea.Msg {
		return app.CopyToClipboardMsg{Text: text, Label: label}
	}
}

// setIntervalCmd clamps d and requests it unless it matches the current one.
func (m *Model) setIntervalCmd(d time.Duration) tea.Cmd {
	if m.interval <= 0 {
		return nil
	}
	d = min(max(d, config.MinPollInterval), maxPollInterval)
	if d == m.interval {
		return nil
	}
	m.interval = d
	return func() tea.Msg {
		return app.SetPollIntervalMsg{Interval: d}
	}
}

// SetSize sets the available size for the info tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.CopyStore}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.CopyStore, m.keys.CopyLog},
		{m.keys.Faster, m.keys.Slower},
		{m.keys.Up, m.keys.Down},
	}
}

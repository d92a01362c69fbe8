// Package dashboard provides the account and quota overview tab.
package dashboard

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/omni-quota/internal/app"
	"github.com/j-veylop/omni-quota/internal/display"
	"github.com/j-veylop/omni-quota/internal/models"
	"github.com/j-veylop/omni-quota/internal/ui/components"
)

const animationDuration = 1.5

type animationTickMsg time.Time

func animationTickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*40, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// keyMap defines the key bindings specific to the dashboard tab.
type keyMap struct {
	NextAccount  key.Binding
	PrevAccount  key.Binding
	FirstAccount key.Binding
	LastAccount  key.Binding
	NextModel    key.Binding
	PrevModel    key.Binding
	SelectModel  key.Binding
	Remove       key.Binding
	Cleanup      key.Binding
}

// defaultKeyMap returns the default key bindings for the dashboard tab.
func defaultKeyMap() keyMap {
	return keyMap{
		NextAccount: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "next account"),
		),
		PrevAccount: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "prev account"),
		),
		FirstAccount: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "first account"),
		),
		LastAccount: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "last account"),
		),
		NextModel: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("→/l", "next model"),
		),
		PrevModel: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("←/h", "prev model"),
		),
		SelectModel: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "show model in status line"),
		),
		Remove: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "remove account"),
		),
		Cleanup: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clean up invalid accounts"),
		),
	}
}

// AnimationState tracks the state of an animation.
type AnimationState struct {
	StartTime      time.Time
	CurrentPercent float64
	TargetPercent  float64
	StartPercent   float64
}

// Model represents the dashboard tab state.
type Model struct {
	state          *app.State
	animations     map[string]*AnimationState
	spinner        components.ScanSpinner
	keys           keyMap
	viewport       viewport.Model
	prefs          display.Prefs
	width          int
	height         int
	modelIndex     int
	animationFrame int
}

// New creates a new dashboard model.
func New(state *app.State, prefs display.Prefs) *Model {
	return &Model{
		state:      state,
		prefs:      prefs,
		spinner:    components.NewScanSpinner(time.Now()),
		keys:       defaultKeyMap(),
		viewport:   viewport.New(0, 0),
		animations: make(map[string]*AnimationState),
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Init(), animationTickCmd())
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case animationTickMsg:
		cmds = append(cmds, m.handleAnimationTick(msg))

	case app.AccountsLoadedMsg, app.SnapshotUpdatedMsg:
		m.syncAnimationTargets(time.Now())
		m.syncFocusedModel()
		cmds = append(cmds, animationTickCmd())

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyMsg(msg))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleAnimationTick(msg animationTickMsg) tea.Cmd {
	m.animationFrame++
	now := time.Time(msg)

	animating := m.syncAnimationTargets(now)
	m.stepAnimations(now)

	if animating || m.state.AnyLoading() {
		return animationTickCmd()
	}
	return nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	count := m.state.GetAccountCount()
	idx := m.state.GetSelectedAccountIndex()

	switch {
	case key.Matches(msg, m.keys.NextAccount):
		if count > 0 {
			return m.selectAccount((idx + 1) % count)
		}
	case key.Matches(msg, m.keys.PrevAccount):
		if count > 0 {
			return m.selectAccount((idx - 1 + count) % count)
		}
	case key.Matches(msg, m.keys.FirstAccount):
		if count > 0 {
			return m.selectAccount(0)
		}
	case key.Matches(msg, m.keys.LastAccount):
		if count > 0 {
			return m.selectAccount(count - 1)
		}
	case key.Matches(msg, m.keys.NextModel):
		m.moveModel(1)
	case key.Matches(msg, m.keys.PrevModel):
		m.moveModel(-1)
	case key.Matches(msg, m.keys.SelectModel):
		if name := m.focusedModel(); name != "" {
			return func() tea.Msg { return app.SelectModelMsg{Name: name} }
		}
	case key.Matches(msg, m.keys.Remove):
		if acc, ok := m.state.SelectedAccount(); ok {
			return func() tea.Msg { return app.RemoveAccountMsg{ID: acc.ID} }
		}
	case key.Matches(msg, m.keys.Cleanup):
		return func() tea.Msg { return app.CleanupAccountsMsg{} }
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) selectAccount(idx int) tea.Cmd {
	m.state.SetSelectedAccountIndex(idx)
	m.modelIndex = 0
	m.syncFocusedModel()

	acc, ok := m.state.SelectedAccount()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		return app.SelectedAccountChangedMsg{Index: idx, ID: acc.ID}
	}
}

// visibleModels returns the filtered models of the selected account.
func (m *Model) visibleModels() []models.ModelQuota {
	acc, ok := m.state.SelectedAccount()
	if !ok {
		return nil
	}
	return display.FilterModels(acc.Models, m.prefs)
}

func (m *Model) moveModel(delta int) {
	visible := m.visibleModels()
	if len(visible) == 0 {
		return
	}
	m.modelIndex = (m.modelIndex + delta + len(visible)) % len(visible)
	m.syncFocusedModel()
}

func (m *Model) focusedModel() string {
	visible := m.visibleModels()
	if len(visible) == 0 {
		return ""
	}
	m.modelIndex = max(0, min(m.modelIndex, len(visible)-1))
	return visible[m.modelIndex].Name
}

func (m *Model) syncFocusedModel() {
	m.state.SetFocusedModel(m.focusedModel())
}

// SetSize sets the available size for the dashboard.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

func animationKey(id models.Identity, model string) string {
	return string(id) + ":" + model
}

// syncAnimationTargets points every model bar at its latest percentage and
// reports whether any bar still has to move.
func (m *Model) syncAnimationTargets(now time.Time) bool {
	animating := false
	for _, acc := range m.state.GetAccounts() {
		for _, mq := range acc.Models {
			if m.updateAnimationState(animationKey(acc.ID, mq.Name), float64(mq.Percentage), now) {
				animating = true
			}
		}
	}
	return animating
}

func (m *Model) updateAnimationState(animKey string, target float64, now time.Time) bool {
	state, exists := m.animations[animKey]
	if !exists {
		state = &AnimationState{StartTime: now}
		m.animations[animKey] = state
	}

	if target != state.TargetPercent {
		state.StartPercent = state.CurrentPercent
		state.TargetPercent = target
		state.StartTime = now
	}

	return state.CurrentPercent != state.TargetPercent
}

func (m *Model) stepAnimations(now time.Time) {
	for _, state := range m.animations {
		if state.CurrentPercent == state.TargetPercent {
			continue
		}
		elapsed := now.Sub(state.StartTime).Seconds()
		if elapsed >= animationDuration {
			state.CurrentPercent = state.TargetPercent
			continue
		}
		progress := elapsed / animationDuration
		ease := 1.0 - (1.0-progress)*(1.0-progress)
		state.CurrentPercent = state.StartPercent + (state.TargetPercent-state.StartPercent)*ease
	}
}

// displayPercent returns the animated percentage for a bar, or the real one
// before any animation has started.
func (m *Model) displayPercent(id models.Identity, mq models.ModelQuota) int {
	if anim, ok := m.animations[animationKey(id, mq.Name)]; ok {
		return int(anim.CurrentPercent + 0.5)
	}
	return mq.Percentage
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.NextAccount,
		m.keys.PrevAccount,
		m.keys.SelectModel,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.NextAccount, m.keys.PrevAccount, m.keys.FirstAccount, m.keys.LastAccount},
		{m.keys.NextModel, m.keys.PrevModel, m.keys.SelectModel},
		{m.keys.Remove, m.keys.Cleanup},
	}
}

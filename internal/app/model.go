// Package app implements the main Bubble Tea application with tab-based navigation.
package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/omni-quota/internal/display"
	"github.com/j-veylop/omni-quota/internal/services"
	"github.com/j-veylop/omni-quota/internal/ui/styles"
)

// TabID represents the identifier for a tab in the application.
type TabID int

const (
	// TabDashboard is the ID for the dashboard tab.
	TabDashboard TabID = iota
	// TabHistory is the ID for the history tab.
	TabHistory
	// TabInfo is the ID for the info tab.
	TabInfo
)

// String returns the string representation of the TabID.
func (t TabID) String() string {
	switch t {
	case TabDashboard:
		return "Dashboard"
	case TabHistory:
		return "History"
	case TabInfo:
		return "Info"
	default:
		return "Unknown"
	}
}

// Tab defines the interface that all tabs must implement.
type Tab interface {
	// Init initializes the tab and returns any initial commands.
	Init() tea.Cmd

	// Update handles messages and returns the updated tab and any commands.
	Update(msg tea.Msg) (Tab, tea.Cmd)

	// View renders the tab content.
	View() string

	// SetSize sets the available size for the tab.
	SetSize(width, height int)

	// ShortHelp returns key bindings for the short help view.
	ShortHelp() []key.Binding

	// FullHelp returns key bindings for the full help view.
	FullHelp() [][]key.Binding
}

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	Tab1     key.Binding
	Tab2     key.Binding
	Tab3     key.Binding
	NextTab  key.Binding
	PrevTab  key.Binding
	Refresh  key.Binding
	Redetect key.Binding
	Help     key.Binding
	Quit     key.Binding
	Escape   key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	km := KeyMap{}
	km = setTabKeys(km)
	km = setActionKeys(km)
	return km
}

func setTabKeys(k KeyMap) KeyMap {
	k.Tab1 = key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "dashboard"))
	k.Tab2 = key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "history"))
	k.Tab3 = key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "info"))
	k.NextTab = key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab"))
	k.PrevTab = key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab"))
	return k
}

func setActionKeys(k KeyMap) KeyMap {
	k.Refresh = key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "refresh"))
	k.Redetect = key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "redetect"))
	k.Help = key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help"))
	k.Quit = key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit"))
	k.Escape = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close"))
	return k
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Refresh, k.Redetect, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab1, k.Tab2, k.Tab3},
		{k.NextTab, k.PrevTab},
		{k.Refresh, k.Redetect, k.Help, k.Quit},
	}
}

// Styles defines the application styles.
type Styles struct {
	TabBar      lipgloss.Style
	ActiveTab   lipgloss.Style
	InactiveTab lipgloss.Style

	NotificationSuccess lipgloss.Style
	NotificationError   lipgloss.Style
	NotificationWarning lipgloss.Style
	NotificationInfo    lipgloss.Style

	Content lipgloss.Style
	Toast   lipgloss.Style

	Title     lipgloss.Style
	Subtle    lipgloss.Style
	Highlight lipgloss.Style
}

// DefaultStyles returns the default application styles.
func DefaultStyles() Styles {
	subtle := lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	highlight := lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}

	s := Styles{}
	s.TabBar = lipgloss.NewStyle().Padding(0, 1).BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).BorderForeground(subtle)
	s.ActiveTab = lipgloss.NewStyle().Bold(true).Foreground(highlight).Padding(0, 2)
	s.InactiveTab = lipgloss.NewStyle().Foreground(subtle).Padding(0, 2)

	s.NotificationSuccess = styles.NotificationSuccessStyle
	s.NotificationError = styles.NotificationErrorStyle
	s.NotificationWarning = styles.NotificationWarningStyle
	s.NotificationInfo = styles.NotificationInfoStyle

	s.Content = lipgloss.NewStyle().Padding(1, 2)
	s.Toast = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(subtle)

	s.Title = lipgloss.NewStyle().Bold(true).Foreground(highlight)
	s.Subtle = lipgloss.NewStyle().Foreground(subtle)
	s.Highlight = lipgloss.NewStyle().Foreground(highlight)

	return s
}

// Model is the main application model.
type Model struct {
	state    *State
	services *services.Manager

	eventChannel chan services.ServiceEvent

	styles Styles
	prefs  display.Prefs

	tabNames []string
	tabs     []Tab

	keymap  KeyMap
	help    help.Model
	spinner spinner.Model

	activeTab TabID
	width     int
	height    int

	showHelp bool
	ready    bool
}

// NewModel initializes a new application model. mgr may be nil.
func NewModel(mgr *services.Manager) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	prefs := display.DefaultPrefs()
	if mgr != nil && mgr.Config() != nil {
		prefs = mgr.Config().DisplayPrefs()
	}

	return &Model{
		activeTab: TabDashboard,
		tabNames:  []string{TabDashboard.String(), TabHistory.String(), TabInfo.String()},
		tabs:      make([]Tab, 3),
		state:     NewState(),
		services:  mgr,
		keymap:    DefaultKeyMap(),
		styles:    DefaultStyles(),
		help:      help.New(),
		spinner:   s,
		prefs:     prefs,
	}
}

// SetTabs sets the tabs for the model.
func (m *Model) SetTabs(tabs []Tab) {
	m.tabs = tabs
	if m.width > 0 && m.height > 0 {
		m.updateTabSizes()
	}
}

// GetState returns the application state.
func (m *Model) GetState() *State {
	return m.state
}

// GetServices returns the service manager.
func (m *Model) GetServices() *services.Manager {
	return m.services
}

// Prefs returns the display preferences shared with tabs.
func (m *Model) Prefs() display.Prefs {
	return m.prefs
}

// GetActiveTab returns the currently active tab ID.
func (m *Model) GetActiveTab() TabID {
	return m.activeTab
}

// IsReady returns true if the model is ready (window size received).
func (m *Model) IsReady() bool {
	return m.ready
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	m.state.SetLoadingNotification("Loading...")

	cmds := []tea.Cmd{
		m.spinner.Tick,
		defaultTickCmd(),
	}

	if m.services != nil {
		cmds = append(cmds, subscribeToServicesCmd(m.services), loadAccountsCmd(m.services))
	}

	for _, tab := range m.tabs {
		if tab != nil {
			cmds = append(cmds, tab.Init())
		}
	}

	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg, tea.KeyMsg, spinner.TickMsg:
		if cmd := m.handleTeaMsg(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
		if km, ok := msg.(tea.KeyMsg); ok && m.consumesKey(km) {
			return m, tea.Batch(cmds...)
		}

	default:
		cmds = append(cmds, m.handleAppMsg(msg)...)
	}

	if cmd := m.updateActiveTab(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// consumesKey reports whether a global binding handled the key, so the active
// tab does not see it too.
func (m *Model) consumesKey(msg tea.KeyMsg) bool {
	if m.showHelp {
		return true
	}
	return key.Matches(msg, m.keymap.Refresh, m.keymap.Redetect, m.keymap.Help,
		m.keymap.Tab1, m.keymap.Tab2, m.keymap.Tab3, m.keymap.NextTab, m.keymap.PrevTab)
}

func (m *Model) handleTeaMsg(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.updateTabSizes()
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) handleAppMsg(msg tea.Msg) []tea.Cmd {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case TickMsg:
		m.state.ClearExpiredNotifications()
		cmds = append(cmds, defaultTickCmd())
	case SubscriptionEventMsg:
		m.eventChannel = msg.Channel
		cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))
	case ServiceEventMsg:
		cmds = append(cmds, m.handleServiceEventMsg(msg)...)
	case AccountsLoadedMsg:
		m.handleAccountsLoaded(msg)
	case RefreshResultMsg:
		cmds = append(cmds, m.handleRefreshResult(msg)...)
	case RemoveAccountMsg:
		if m.services != nil {
			cmds = append(cmds, removeAccountCmd(m.services, msg.ID))
		}
	case RemoveAccountResultMsg:
		cmds = append(cmds, m.handleRemoveResult(msg))
	case CleanupAccountsMsg:
		if m.services != nil {
			cmds = append(cmds, cleanupCmd(m.services))
		}
	case CleanupResultMsg:
		cmds = append(cmds, m.handleCleanupResult(msg))
	case SelectModelMsg:
		if m.services != nil {
			cmds = append(cmds, selectModelCmd(m.services, msg.Name))
		}
	case SelectModelResultMsg:
		cmds = append(cmds, m.handleSelectModelResult(msg))
	case SetPollIntervalMsg:
		cmds = append(cmds, m.handleSetPollInterval(msg))
	case CopyToClipboardMsg:
		cmds = append(cmds, copyToClipboardCmd(msg.Text, msg.Label))
	case ClipboardResultMsg:
		cmds = append(cmds, m.handleClipboardResult(msg))
	case AddNotificationMsg:
		id := m.state.AddNotification(msg.Type, msg.Message, msg.Duration)
		if msg.Duration > 0 {
			cmds = append(cmds, clearNotificationCmd(id, msg.Duration))
		}
	case RemoveNotificationMsg:
		m.state.RemoveNotification(msg.ID)
	case ClearExpiredNotificationsMsg:
		m.state.ClearExpiredNotifications()
	case StartLoadingMsg:
		m.handleStartLoading(msg)
	case StopLoadingMsg:
		m.stopLoading(msg.Resource)
	case ErrorMsg:
		cmds = append(cmds, notifyErrorCmd(fmt.Sprintf("%s: %v", msg.Context, msg.Error)))
	case TabSwitchMsg:
		m.activeTab = msg.Tab
		m.updateTabSizes()
	case ToggleHelpMsg:
		m.showHelp = !m.showHelp
	}
	return cmds
}

func (m *Model) handleServiceEventMsg(msg ServiceEventMsg) []tea.Cmd {
	var cmds []tea.Cmd
	if cmd := m.handleServiceEvent(msg.Event); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if m.eventChannel != nil {
		cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))
	}
	return cmds
}

func (m *Model) handleServiceEvent(event services.ServiceEvent) tea.Cmd {
	switch e := event.(type) {
	case services.AccountsChangedEvent:
		m.state.SetAccounts(e.Accounts)

	case services.SnapshotEvent:
		m.state.SetSnapshot(e.Snapshot)
		m.stopLoading(ResourceCycle)
		snap := e.Snapshot
		return func() tea.Msg { return SnapshotUpdatedMsg{Snapshot: snap} }

	case services.ErrorEvent:
		return notifyErrorCmd(fmt.Sprintf("[%s] %v", e.Service, e.Error))

	case services.StatsEvent:
		m.state.SetStats(e)
	}
	return nil
}

func (m *Model) handleAccountsLoaded(msg AccountsLoadedMsg) {
	m.state.SetAccounts(msg.Accounts)
	m.state.SetStats(msg.Stats)
	m.state.SetSnapshot(msg.Snapshot)
	m.state.SetSelectedModel(msg.Selected)
	m.state.SetLoading(ResourceInitial, false)
	m.stopLoading(ResourceAccounts)
}

func (m *Model) handleRefreshResult(msg RefreshResultMsg) []tea.Cmd {
	m.stopLoading(ResourceCycle)
	if !msg.Ran {
		return []tea.Cmd{notifyInfoCmd("Refresh skipped, a cycle ran moments ago")}
	}
	var cmds []tea.Cmd
	if msg.Redetect {
		cmds = append(cmds, notifySuccessCmd("Credentials reloaded"))
	}
	if m.services != nil {
		cmds = append(cmds, loadAccountsCmd(m.services))
	}
	return cmds
}

func (m *Model) handleRemoveResult(msg RemoveAccountResultMsg) tea.Cmd {
	if msg.Error != nil {
		return notifyErrorCmd(fmt.Sprintf("Failed to remove %s: %v", msg.Name, msg.Error))
	}
	return notifySuccessCmd(fmt.Sprintf("Removed %s", msg.Name))
}

func (m *Model) handleCleanupResult(msg CleanupResultMsg) tea.Cmd {
	switch {
	case msg.Error != nil:
		return notifyErrorCmd(fmt.Sprintf("Cleanup failed: %v", msg.Error))
	case msg.Removed == 0:
		return notifyInfoCmd("No invalid accounts")
	default:
		return notifySuccessCmd(fmt.Sprintf("Removed %d invalid account(s)", msg.Removed))
	}
}

func (m *Model) handleSetPollInterval(msg SetPollIntervalMsg) tea.Cmd {
	if m.services != nil {
		m.services.Scheduler().SetInterval(msg.Interval)
	}
	return notifyInfoCmd("Poll interval set to " + msg.Interval.String())
}

func (m *Model) handleClipboardResult(msg ClipboardResultMsg) tea.Cmd {
	if msg.Error != nil {
		return notifyErrorCmd(fmt.Sprintf("Copy failed: %v", msg.Error))
	}
	return notifySuccessCmd(fmt.Sprintf("Copied %s", msg.Label))
}

func (m *Model) handleSelectModelResult(msg SelectModelResultMsg) tea.Cmd {
	if msg.Error != nil {
		return notifyErrorCmd(msg.Error.Error())
	}
	m.state.SetSelectedModel(msg.Name)
	return notifyInfoCmd(fmt.Sprintf("Status line shows %s", display.ShortName(msg.Name)))
}

func (m *Model) handleStartLoading(msg StartLoadingMsg) {
	m.state.SetLoading(msg.Resource, true)
	m.state.SetLoadingNotification("Refreshing...")
}

func (m *Model) stopLoading(resource string) {
	m.state.SetLoading(resource, false)
	if !m.state.AnyLoading() {
		m.state.ClearLoadingNotification()
	}
}

func (m *Model) startCycle(redetect bool) tea.Cmd {
	if m.services == nil {
		return nil
	}
	return tea.Batch(
		func() tea.Msg { return StartLoadingMsg{Resource: ResourceCycle} },
		refreshCmd(m.services, redetect),
	)
}

func (m *Model) updateActiveTab(msg tea.Msg) tea.Cmd {
	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		var cmd tea.Cmd
		m.tabs[m.activeTab], cmd = m.tabs[m.activeTab].Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) updateTabSizes() {
	contentHeight := max(0, m.height-5)
	for _, tab := range m.tabs {
		if tab != nil {
			tab.SetSize(m.width, contentHeight)
		}
	}
}

func (m *Model) switchTab(id TabID) {
	m.activeTab = id
	m.updateTabSizes()
}

// handleKeyMsg handles keyboard input.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		return tea.Quit

	case key.Matches(msg, m.keymap.Help):
		m.showHelp = !m.showHelp

	case key.Matches(msg, m.keymap.Escape):
		m.showHelp = false

	case m.showHelp:

	case key.Matches(msg, m.keymap.Tab1):
		m.switchTab(TabDashboard)

	case key.Matches(msg, m.keymap.Tab2):
		m.switchTab(TabHistory)

	case key.Matches(msg, m.keymap.Tab3):
		m.switchTab(TabInfo)

	case key.Matches(msg, m.keymap.NextTab):
		if n := len(m.tabs); n > 0 {
			m.switchTab(TabID((int(m.activeTab) + 1) % n))
		}

	case key.Matches(msg, m.keymap.PrevTab):
		if n := len(m.tabs); n > 0 {
			m.switchTab(TabID((int(m.activeTab) - 1 + n) % n))
		}

	case key.Matches(msg, m.keymap.Refresh):
		return m.startCycle(false)

	case key.Matches(msg, m.keymap.Redetect):
		return m.startCycle(true)
	}
	return nil
}

// View renders the application UI.
func (m *Model) View() string {
	var b strings.Builder

	if m.width > 0 {
		b.WriteString(m.renderNavbar())
		b.WriteString("\n")
	}

	if !m.ready {
		b.WriteString(m.styles.Content.Render(fmt.Sprintf("%s Loading...", m.spinner.View())))
		return b.String()
	}

	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		b.WriteString(m.tabs[m.activeTab].View())
	} else {
		b.WriteString(m.styles.Content.Render(m.styles.Subtle.Render("Nothing to show here.")))
	}
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	mainView := padLines(b.String(), m.height)

	if m.showHelp {
		mainView = m.overlayCentered(mainView, m.renderHelp())
	}

	return m.overlayToasts(mainView, m.renderNotifications())
}

// StatusLine returns the one-line quota summary for the primary account.
func (m *Model) StatusLine() string {
	return display.StatusLine(m.state.GetSnapshot(), m.prefs, m.state.GetSelectedModel())
}

func (m *Model) renderFooter() string {
	snap := m.state.GetSnapshot()
	bar := styles.StatusBarStyle
	if !snap.Connected {
		bar = styles.OfflineStyle
	}
	return lipgloss.JoinHorizontal(lipgloss.Center,
		bar.Render(m.StatusLine()),
		" ",
		m.help.View(m.keymap),
	)
}

func (m *Model) renderNavbar() string {
	tabs := make([]string, 0, len(m.tabNames))
	for i, name := range m.tabNames {
		if TabID(i) == m.activeTab {
			tabs = append(tabs, m.styles.ActiveTab.Render(fmt.Sprintf("[%d] %s", i+1, name)))
		} else {
			tabs = append(tabs, m.styles.InactiveTab.Render(fmt.Sprintf(" %d  %s", i+1, name)))
		}
	}
	return m.styles.TabBar.Width(m.width).Render(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
}

// padLines extends view to at least height lines so overlays have rows to land on.
func padLines(view string, height int) string {
	if n := strings.Count(view, "\n") + 1; n < height {
		view += strings.Repeat("\n", height-n)
	}
	return view
}

func (m *Model) overlayCentered(mainView, overlay string) string {
	mainLines := strings.Split(mainView, "\n")
	overlayLines := strings.Split(overlay, "\n")
	overlayWidth := lipgloss.Width(overlay)

	y := max(0, (m.height-len(overlayLines))/2)
	x := max(0, (m.width-overlayWidth)/2)

	for i, overlayLine := range overlayLines {
		row := y + i
		if row >= len(mainLines) {
			break
		}
		line := mainLines[row]
		left := ansi.Truncate(line, x, "")
		if w := lipgloss.Width(left); w < x {
			left += strings.Repeat(" ", x-w)
		}
		right := ansi.TruncateLeft(line, x+overlayWidth, "")
		mainLines[row] = left + overlayLine + right
	}

	return strings.Join(mainLines, "\n")
}

func (m *Model) renderNotifications() []string {
	notifications := m.state.GetNotifications()
	toasts := make([]string, 0, len(notifications))

	for _, n := range notifications {
		var style lipgloss.Style
		var prefix string

		switch n.Type {
		case NotificationSuccess:
			style, prefix = m.styles.NotificationSuccess, "[OK]"
		case NotificationError:
			style, prefix = m.styles.NotificationError, "[ERR]"
		case NotificationWarning:
			style, prefix = m.styles.NotificationWarning, "[WARN]"
		case NotificationInfo:
			style, prefix = m.styles.NotificationInfo, "[INFO]"
		case NotificationLoading:
			style, prefix = m.styles.NotificationInfo, m.spinner.View()
		}

		content := style.Render(fmt.Sprintf("%s %s", prefix, n.Message))
		toasts = append(toasts, m.styles.Toast.Render(content))
	}

	return toasts
}

func (m *Model) overlayToasts(mainView string, toasts []string) string {
	if len(toasts) == 0 {
		return mainView
	}

	stack := lipgloss.JoinVertical(lipgloss.Right, toasts...)
	startX := max(m.width-lipgloss.Width(stack)-2, 0)
	mainLines := strings.Split(mainView, "\n")

	for i, toastLine := range strings.Split(stack, "\n") {
		row := 2 + i
		if row >= len(mainLines) {
			break
		}
		line := mainLines[row]
		if w := lipgloss.Width(line); w < startX {
			mainLines[row] = line + strings.Repeat(" ", startX-w) + toastLine
		} else {
			mainLines[row] = ansi.Truncate(line, startX, "") + toastLine
		}
	}

	return strings.Join(mainLines, "\n")
}

func (m *Model) renderHelp() string {
	lines := []string{
		m.styles.Title.Render("Keyboard Shortcuts"),
		"",
		m.styles.Highlight.Render("Global"),
		m.help.FullHelpView(m.keymap.FullHelp()),
		"",
	}

	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		if groups := m.tabs[m.activeTab].FullHelp(); len(groups) > 0 {
			lines = append(lines,
				m.styles.Highlight.Render(fmt.Sprintf("%s Tab", m.tabNames[m.activeTab])),
				m.help.FullHelpView(groups),
				"",
			)
		}
	}

	lines = append(lines, m.styles.Subtle.Render("Press ? or Esc to close"))

	return styles.HelpPanelStyle.Render(strings.Join(lines, "\n"))
}

package dashboard

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/omni-quota/internal/app"
	"github.com/j-veylop/omni-quota/internal/display"
	"github.com/j-veylop/omni-quota/internal/models"
	"github.com/j-veylop/omni-quota/internal/services"
)

func seededState() *app.State {
	state := app.NewState()
	state.SetLoading(app.ResourceInitial, false)
	state.SetAccounts([]models.AccountRecord{
		{
			ID:           "inst_alice@example.com",
			DisplayName:  "Alice",
			Email:        "alice@example.com",
			Tier:         "Pro",
			LastActiveAt: time.Now().Add(-2 * time.Hour),
			Models: []models.ModelQuota{
				{Name: "Claude Opus 4.5", Percentage: 80, ResetLabel: "2h 05m"},
				{Name: "Gemini 3 Pro (High)", Percentage: 40},
				{Name: "Gemini 3 Flash", Percentage: 10},
			},
		},
		{
			ID:          "inst_bob@example.com",
			DisplayName: "Bob",
			Models:      []models.ModelQuota{{Name: "Claude Sonnet 4.5", Percentage: 55}},
		},
	})
	state.SetSnapshot(models.DisplaySnapshot{AccountID: "inst_alice@example.com", Connected: true})
	return state
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func run(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

func TestNew(t *testing.T) {
	m := New(app.NewState(), display.DefaultPrefs())
	if m == nil {
		t.Fatal("New returned nil")
	}
	if m.Init() == nil {
		t.Error("Init returned nil")
	}
}

func TestModel_ViewLoading(t *testing.T) {
	m := New(app.NewState(), display.DefaultPrefs())
	m.SetSize(80, 24)
	if view := m.View(); !strings.Contains(view, "Looking for language servers") {
		t.Errorf("View should show the spinner label, got %q", view)
	}
}

func TestModel_ViewLoadingCountsEndpoints(t *testing.T) {
	state := app.NewState()
	state.SetStats(services.StatsEvent{Endpoints: 2})
	m := New(state, display.DefaultPrefs())
	m.SetSize(80, 24)
	if view := m.View(); !strings.Contains(view, "Reading quota from 2 language servers") {
		t.Errorf("View should report adopted endpoints, got %q", view)
	}
}

func TestModel_ViewEmpty(t *testing.T) {
	state := app.NewState()
	state.SetLoading(app.ResourceInitial, false)
	m := New(state, display.DefaultPrefs())
	m.SetSize(100, 40)

	if view := m.View(); !strings.Contains(view, "No accounts discovered yet") {
		t.Errorf("View should show the empty hint, got %q", view)
	}
}

func TestModel_ViewAccounts(t *testing.T) {
	m := New(seededState(), display.DefaultPrefs())
	m.SetSize(120, 60)

	view := m.View()
	for _, want := range []string{"Alice", "Bob", "alice@example.com", "2h ago", "Claude Opus 4.5", "Gemini 3 Flash"} {
		if !strings.Contains(view, want) {
			t.Errorf("View should contain %q", want)
		}
	}
	if strings.Contains(view, "Claude Sonnet 4.5") {
		t.Error("only the selected account's models should be listed")
	}
}

func TestModel_ViewHonorsFilters(t *testing.T) {
	prefs := display.DefaultPrefs()
	prefs.ShowGeminiFlash = false
	m := New(seededState(), prefs)
	m.SetSize(120, 60)

	if view := m.View(); strings.Contains(view, "Gemini 3 Flash") {
		t.Error("hidden Gemini Flash should not be rendered")
	}
}

func TestModel_AccountNavigation(t *testing.T) {
	state := seededState()
	m := New(state, display.DefaultPrefs())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	msg, ok := run(cmd).(app.SelectedAccountChangedMsg)
	if !ok {
		t.Fatalf("expected SelectedAccountChangedMsg, got %T", run(cmd))
	}
	if msg.Index != 1 || msg.ID != "inst_bob@example.com" {
		t.Errorf("selection = %+v", msg)
	}
	if state.GetFocusedModel() != "Claude Sonnet 4.5" {
		t.Errorf("focused model = %q", state.GetFocusedModel())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if state.GetSelectedAccountIndex() != 0 {
		t.Error("navigation should wrap around")
	}

	m.Update(keyRunes("G"))
	if state.GetSelectedAccountIndex() != 1 {
		t.Error("G should jump to the last account")
	}
	m.Update(keyRunes("g"))
	if state.GetSelectedAccountIndex() != 0 {
		t.Error("g should jump to the first account")
	}
}

func TestModel_ModelCursorAndSelect(t *testing.T) {
	state := seededState()
	m := New(state, display.DefaultPrefs())

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if got := state.GetFocusedModel(); got != "Gemini 3 Pro (High)" {
		t.Errorf("focused model = %q", got)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if got := state.GetFocusedModel(); got != "Gemini 3 Flash" {
		t.Errorf("cursor should wrap to the last model, got %q", got)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	sel, ok := run(cmd).(app.SelectModelMsg)
	if !ok || sel.Name != "Gemini 3 Flash" {
		t.Errorf("enter should select the focused model, got %#v", run(cmd))
	}
}

func TestModel_RemoveAndCleanup(t *testing.T) {
	m := New(seededState(), display.DefaultPrefs())

	_, cmd := m.Update(keyRunes("d"))
	rm, ok := run(cmd).(app.RemoveAccountMsg)
	if !ok || rm.ID != "inst_alice@example.com" {
		t.Errorf("d should request removal of the selected account, got %#v", run(cmd))
	}

	_, cmd = m.Update(keyRunes("c"))
	if _, ok := run(cmd).(app.CleanupAccountsMsg); !ok {
		t.Errorf("c should request cleanup, got %#v", run(cmd))
	}
}

func TestModel_NoAccountsKeys(t *testing.T) {
	state := app.NewState()
	m := New(state, display.DefaultPrefs())

	for _, k := range []tea.KeyMsg{{Type: tea.KeyDown}, {Type: tea.KeyEnter}, keyRunes("d")} {
		_, cmd := m.Update(k)
		if msg := run(cmd); msg != nil {
			t.Errorf("key %q with no accounts produced %T", k.String(), msg)
		}
	}
}

func TestModel_Animation(t *testing.T) {
	state := seededState()
	m := New(state, display.DefaultPrefs())
	start := time.Now()

	if !m.syncAnimationTargets(start) {
		t.Fatal("new targets should start animating")
	}

	acc, _ := state.SelectedAccount()
	opus := acc.Models[0]

	m.stepAnimations(start.Add(750 * time.Millisecond))
	mid := m.displayPercent(acc.ID, opus)
	if mid <= 0 || mid >= 80 {
		t.Errorf("mid-animation percent = %d, want between 0 and 80", mid)
	}

	m.stepAnimations(start.Add(2 * time.Second))
	if got := m.displayPercent(acc.ID, opus); got != 80 {
		t.Errorf("final percent = %d, want 80", got)
	}
	if m.syncAnimationTargets(start.Add(2 * time.Second)) {
		t.Error("settled bars should not animate")
	}
}

func TestModel_DisplayPercentWithoutAnimation(t *testing.T) {
	m := New(app.NewState(), display.DefaultPrefs())
	mq := models.ModelQuota{Name: "Claude Opus 4.5", Percentage: 42}
	if got := m.displayPercent("x", mq); got != 42 {
		t.Errorf("displayPercent = %d, want 42", got)
	}
}

func TestFormatAgo(t *testing.T) {
	tests := []struct {
		want string
		d    time.Duration
	}{
		{"just now", 10 * time.Second},
		{"5m ago", 5 * time.Minute},
		{"3h ago", 3 * time.Hour},
		{"2d ago", 50 * time.Hour},
	}
	for _, tt := range tests {
		if got := formatAgo(tt.d); got != tt.want {
			t.Errorf("formatAgo(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewState(), display.DefaultPrefs())
	if len(m.ShortHelp()) == 0 {
		t.Error("ShortHelp empty")
	}
	if len(m.FullHelp()) != 3 {
		t.Errorf("FullHelp groups = %d, want 3", len(m.FullHelp()))
	}
}

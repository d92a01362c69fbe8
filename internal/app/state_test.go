package app

import (
	"testing"
	"time"

	"github.com/j-veylop/omni-quota/internal/models"
	"github.com/j-veylop/omni-quota/internal/services"
)

func records(names ...string) []models.AccountRecord {
	out := make([]models.AccountRecord, 0, len(names))
	for _, n := range names {
		out = append(out, models.AccountRecord{
			ID:          models.Identity("inst_" + n),
			DisplayName: n,
			Models:      []models.ModelQuota{{Name: "Claude Opus 4.5", Percentage: 80}},
		})
	}
	return out
}

func TestNewState(t *testing.T) {
	s := NewState()
	if s == nil {
		t.Fatal("NewState returned nil")
	}
	if len(s.Accounts) != 0 {
		t.Error("Accounts should be empty")
	}
	if !s.Loading.Initial {
		t.Error("Initial loading should be true")
	}
}

func TestState_SetLoading(t *testing.T) {
	s := NewState()

	s.SetLoading(ResourceCycle, true)
	if !s.Loading.Cycle {
		t.Error("Cycle loading should be true")
	}

	s.SetLoading(ResourceCycle, false)
	if !s.AnyLoading() {
		t.Error("AnyLoading should be true (Initial is true)")
	}

	s.SetLoading(ResourceInitial, false)
	if s.AnyLoading() {
		t.Error("AnyLoading should be false")
	}
	if s.IsInitialLoading() {
		t.Error("IsInitialLoading should be false")
	}

	s.SetLoading("bogus", true)
	if s.AnyLoading() {
		t.Error("unknown resources should be ignored")
	}
}

func TestState_AccountsAndSelection(t *testing.T) {
	s := NewState()
	if _, ok := s.SelectedAccount(); ok {
		t.Error("SelectedAccount should fail with no accounts")
	}

	s.SetAccounts(records("alice", "bob", "carol"))
	if s.GetAccountCount() != 3 {
		t.Fatalf("count = %d, want 3", s.GetAccountCount())
	}

	s.SetSelectedAccountIndex(2)
	acc, ok := s.SelectedAccount()
	if !ok || acc.DisplayName != "carol" {
		t.Errorf("SelectedAccount = %q, %v", acc.DisplayName, ok)
	}

	s.SetSelectedAccountIndex(10)
	if got := s.GetSelectedAccountIndex(); got != 2 {
		t.Errorf("index should clamp to 2, got %d", got)
	}

	s.SetAccounts(records("alice"))
	if got := s.GetSelectedAccountIndex(); got != 0 {
		t.Errorf("index should clamp after shrink, got %d", got)
	}

	s.SetSelectedAccountIndex(-4)
	if got := s.GetSelectedAccountIndex(); got != 0 {
		t.Errorf("negative index should clamp to 0, got %d", got)
	}
}

func TestState_GetAccountsReturnsCopy(t *testing.T) {
	s := NewState()
	s.SetAccounts(records("alice"))

	got := s.GetAccounts()
	got[0].DisplayName = "mallory"

	if s.GetAccounts()[0].DisplayName != "alice" {
		t.Error("GetAccounts should return a copy")
	}
}

func TestState_IsPrimary(t *testing.T) {
	s := NewState()
	if s.IsPrimary("") {
		t.Error("empty snapshot should have no primary")
	}

	s.SetSnapshot(models.DisplaySnapshot{AccountID: "inst_alice", Connected: true})
	if !s.IsPrimary("inst_alice") {
		t.Error("alice should be primary")
	}
	if s.IsPrimary("inst_bob") {
		t.Error("bob should not be primary")
	}
}

func TestState_FocusedModelFallsBackToSelected(t *testing.T) {
	s := NewState()
	s.SetSelectedModel("Gemini 3 Pro (High)")

	if got := s.GetFocusedModel(); got != "Gemini 3 Pro (High)" {
		t.Errorf("GetFocusedModel = %q", got)
	}

	s.SetFocusedModel("Claude Opus 4.5")
	if got := s.GetFocusedModel(); got != "Claude Opus 4.5" {
		t.Errorf("GetFocusedModel = %q", got)
	}
	if got := s.GetSelectedModel(); got != "Gemini 3 Pro (High)" {
		t.Errorf("GetSelectedModel = %q", got)
	}
}

func TestState_Stats(t *testing.T) {
	s := NewState()
	if s.GetStats() != nil {
		t.Error("stats should start nil")
	}
	s.SetStats(services.StatsEvent{AccountCount: 2, MaxAccounts: 10})
	if s.GetStats().AccountCount != 2 {
		t.Error("stats not stored")
	}
}

func TestState_Notifications(t *testing.T) {
	s := NewState()

	id := s.AddNotification(NotificationSuccess, "Success", time.Second)
	if id == "" {
		t.Error("AddNotification returned empty ID")
	}
	other := s.AddNotification(NotificationInfo, "Info", time.Second)
	if other == id {
		t.Error("notification IDs should be unique")
	}

	if len(s.GetNotifications()) != 2 {
		t.Errorf("Expected 2 notifications, got %d", len(s.GetNotifications()))
	}

	s.RemoveNotification(id)
	notifs := s.GetNotifications()
	if len(notifs) != 1 || notifs[0].ID != other {
		t.Errorf("RemoveNotification left %+v", notifs)
	}
}

func TestState_NotificationLimit(t *testing.T) {
	s := NewState()
	for range maxNotifications + 5 {
		s.AddNotification(NotificationInfo, "n", 0)
	}
	if got := len(s.GetNotifications()); got != maxNotifications {
		t.Errorf("notifications = %d, want %d", got, maxNotifications)
	}
}

func TestState_ClearExpiredNotifications(t *testing.T) {
	s := NewState()
	s.AddNotification(NotificationInfo, "Expired", time.Nanosecond)
	s.AddNotification(NotificationInfo, "Sticky", 0)

	time.Sleep(2 * time.Millisecond)
	s.ClearExpiredNotifications()

	notifs := s.GetNotifications()
	if len(notifs) != 1 || notifs[0].Message != "Sticky" {
		t.Errorf("ClearExpiredNotifications left %+v", notifs)
	}
}

func TestState_LoadingNotification(t *testing.T) {
	s := NewState()

	s.SetLoadingNotification("Loading...")
	s.SetLoadingNotification("Refreshing...")

	notifs := s.GetNotifications()
	if len(notifs) != 1 {
		t.Fatalf("Expected 1 loading notification, got %d", len(notifs))
	}
	if notifs[0].Type != NotificationLoading || notifs[0].Message != "Refreshing..." {
		t.Errorf("loading notification = %+v", notifs[0])
	}

	s.ClearLoadingNotification()
	if len(s.GetNotifications()) != 0 {
		t.Error("loading notification should be cleared")
	}
}

func TestNotificationType_String(t *testing.T) {
	tests := []struct {
		want string
		t    NotificationType
	}{
		{"success", NotificationSuccess},
		{"error", NotificationError},
		{"warning", NotificationWarning},
		{"info", NotificationInfo},
		{"loading", NotificationLoading},
		{"unknown", NotificationType(99)},
	}
	for _, tt := range tests {
		if got := tt.t.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestState_TimeSinceUpdate(t *testing.T) {
	s := NewState()
	if s.TimeSinceUpdate() != 0 {
		t.Error("TimeSinceUpdate should be 0 before any update")
	}
	s.SetSnapshot(models.DisplaySnapshot{})
	if s.TimeSinceUpdate() < 0 {
		t.Error("TimeSinceUpdate should be non-negative")
	}
}

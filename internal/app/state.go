// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/j-veylop/omni-quota/internal/models"
	"github.com/j-veylop/omni-quota/internal/services"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"

	maxNotifications = 10
)

// Loading resources.
const (
	ResourceInitial  = "initial"
	ResourceAccounts = "accounts"
	ResourceCycle    = "cycle"
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	CreatedAt time.Time
	ID        string
	Message   string
	Type      NotificationType
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// LoadingState tracks loading states for different resources.
type LoadingState struct {
	Initial  bool
	Accounts bool
	Cycle    bool
}

// State is the data shared between the root model and its tabs.
type State struct {
	mu sync.RWMutex

	LastUpdated time.Time
	Stats       *services.StatsEvent
	Accounts    []models.AccountRecord
	Snapshot    models.DisplaySnapshot

	// SelectedModel is the persisted status line model.
	SelectedModel string
	// FocusedModel is the model under the dashboard cursor.
	FocusedModel         string
	SelectedAccountIndex int

	Loading LoadingState

	notifications []Notification
}

// NewState creates an empty state in the initial loading phase.
func NewState() *State {
	return &State{
		Accounts:      make([]models.AccountRecord, 0),
		notifications: make([]Notification, 0),
		Loading: LoadingState{
			Initial: true,
		},
	}
}

// SetLoading sets the loading state for a specific resource.
func (s *State) SetLoading(resource string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch resource {
	case ResourceInitial:
		s.Loading.Initial = loading
	case ResourceAccounts:
		s.Loading.Accounts = loading
	case ResourceCycle:
		s.Loading.Cycle = loading
	}
}

// AnyLoading returns true if any resource is currently loading.
func (s *State) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Initial || s.Loading.Accounts || s.Loading.Cycle
}

// IsInitialLoading returns true if initial data is still loading.
func (s *State) IsInitialLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Initial
}

// SetAccounts replaces the account list and keeps the selection within range.
func (s *State) SetAccounts(accounts []models.AccountRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Accounts = accounts
	s.LastUpdated = time.Now()
	s.SelectedAccountIndex = clampIndex(s.SelectedAccountIndex, len(accounts))
}

// GetAccounts returns a copy of the accounts list.
func (s *State) GetAccounts() []models.AccountRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]models.AccountRecord, len(s.Accounts))
	copy(accounts, s.Accounts)
	return accounts
}

// GetAccountCount returns the number of accounts.
func (s *State) GetAccountCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.Accounts)
}

// SelectedAccount returns the account under the cursor.
func (s *State) SelectedAccount() (models.AccountRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.SelectedAccountIndex < 0 || s.SelectedAccountIndex >= len(s.Accounts) {
		return models.AccountRecord{}, false
	}
	return s.Accounts[s.SelectedAccountIndex].Clone(), true
}

// IsPrimary reports whether id is the account currently shown on the status line.
func (s *State) IsPrimary(id models.Identity) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Snapshot.AccountID != "" && s.Snapshot.AccountID == id
}

// SetSnapshot stores the latest primary snapshot.
func (s *State) SetSnapshot(snap models.DisplaySnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Snapshot = snap
	s.LastUpdated = time.Now()
}

// GetSnapshot returns the latest primary snapshot.
func (s *State) GetSnapshot() models.DisplaySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Snapshot
}

// SetStats updates the statistics.
func (s *State) SetStats(stats services.StatsEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Stats = &stats
}

// GetStats returns the current statistics.
func (s *State) GetStats() *services.StatsEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Stats
}

// SetSelectedModel records the persisted status line model.
func (s *State) SetSelectedModel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SelectedModel = name
}

// GetSelectedModel returns the persisted status line model.
func (s *State) GetSelectedModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.SelectedModel
}

// SetFocusedModel records the model under the dashboard cursor.
func (s *State) SetFocusedModel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FocusedModel = name
}

// GetFocusedModel returns the model under the dashboard cursor, falling back
// to the status line model.
func (s *State) GetFocusedModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FocusedModel != "" {
		return s.FocusedModel
	}
	return s.SelectedModel
}

// GetSelectedAccountIndex returns the currently selected account index.
func (s *State) GetSelectedAccountIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.SelectedAccountIndex
}

// SetSelectedAccountIndex updates the selected account index.
func (s *State) SetSelectedAccountIndex(idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SelectedAccountIndex = clampIndex(idx, len(s.Accounts))
}

func clampIndex(idx, n int) int {
	if n == 0 || idx < 0 {
		return 0
	}
	return min(idx, n-1)
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.notifications = append(s.notifications, Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	})

	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = activeNotifications(s.notifications)
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return activeNotifications(s.notifications)
}

func activeNotifications(all []Notification) []Notification {
	active := make([]Notification, 0, len(all))
	for _, n := range all {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	return active
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.RemoveNotification(LoadingNotificationID)
}

// TimeSinceUpdate returns the duration since the last update.
func (s *State) TimeSinceUpdate() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.LastUpdated.IsZero() {
		return 0
	}
	return time.Since(s.LastUpdated)
}

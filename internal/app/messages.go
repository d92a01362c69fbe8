package app

import (
	"time"

	"github.com/j-veylop/omni-quota/internal/models"
	"github.com/j-veylop/omni-quota/internal/services"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// StartLoadingMsg signals that a resource is starting to load.
type StartLoadingMsg struct {
	Resource string
}

// StopLoadingMsg signals that a resource has finished loading.
type StopLoadingMsg struct {
	Resource string
}

// AccountsLoadedMsg contains the registry contents and the primary snapshot.
type AccountsLoadedMsg struct {
	Accounts []models.AccountRecord
	Stats    services.StatsEvent
	Snapshot models.DisplaySnapshot
	Selected string
}

// RefreshResultMsg reports whether a requested cycle actually ran.
type RefreshResultMsg struct {
	Ran      bool
	Redetect bool
}

// RemoveAccountMsg requests removal of an account.
type RemoveAccountMsg struct {
	ID models.Identity
}

// RemoveAccountResultMsg contains the result of an account removal.
type RemoveAccountResultMsg struct {
	ID    models.Identity
	Name  string
	Error error
}

// CleanupAccountsMsg requests removal of every stored account that no longer
// validates.
type CleanupAccountsMsg struct{}

// CleanupResultMsg contains the result of a cleanup.
type CleanupResultMsg struct {
	Removed int
	Error   error
}

// SelectModelMsg requests the status line to follow the named model.
type SelectModelMsg struct {
	Name string
}

// SelectModelResultMsg contains the result of a model selection.
type SelectModelResultMsg struct {
	Name  string
	Error error
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// SnapshotUpdatedMsg is forwarded to tabs after a cycle completes.
type SnapshotUpdatedMsg struct {
	Snapshot models.DisplaySnapshot
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}

// SelectedAccountChangedMsg signals that the selected account in the UI has changed.
type SelectedAccountChangedMsg struct {
	ID    models.Identity
	Index int
}

// FocusedModelChangedMsg signals that the model cursor moved.
type FocusedModelChangedMsg struct {
	Name string
}

// SetPollIntervalMsg requests a new interval for the running poll loop.
type SetPollIntervalMsg struct {
	Interval time.Duration
}

// CopyToClipboardMsg requests copying text to the system clipboard.
type CopyToClipboardMsg struct {
	Text  string
	Label string
}

// ClipboardResultMsg reports the outcome of a clipboard write.
type ClipboardResultMsg struct {
	Error error
	Label string
}

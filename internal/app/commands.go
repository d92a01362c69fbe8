package app

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/omni-quota/internal/models"
	"github.com/j-veylop/omni-quota/internal/services"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief notifications.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second
)

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// defaultTickCmd returns a command that sends a TickMsg after the default interval.
func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// loadAccountsCmd returns a command that loads accounts, stats and the
// current snapshot.
func loadAccountsCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		accounts, stats := mgr.InitialState()
		return AccountsLoadedMsg{
			Accounts: accounts,
			Stats:    stats,
			Snapshot: mgr.Snapshot(),
			Selected: mgr.SelectedModel(),
		}
	}
}

// subscribeToServicesCmd returns a command that subscribes to service events.
func subscribeToServicesCmd(mgr *services.Manager) tea.Cmd {
	ch, _ := mgr.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// refreshCmd runs a poll cycle, dropping cached credentials first when
// redetect is set.
func refreshCmd(mgr *services.Manager, redetect bool) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		var ran bool
		if redetect {
			ran = mgr.Redetect(ctx)
		} else {
			ran = mgr.Refresh(ctx)
		}
		return RefreshResultMsg{Ran: ran, Redetect: redetect}
	}
}

// removeAccountCmd returns a command that removes an account.
func removeAccountCmd(mgr *services.Manager, id models.Identity) tea.Cmd {
	return func() tea.Msg {
		name := string(id)
		if rec, ok := mgr.Accounts().Get(id); ok {
			name = rec.DisplayName
		}
		return RemoveAccountResultMsg{
			ID:    id,
			Name:  name,
			Error: mgr.RemoveAccount(id),
		}
	}
}

// cleanupCmd returns a command that drops invalid stored accounts.
func cleanupCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		n, err := mgr.CleanupInvalidAccounts()
		return CleanupResultMsg{Removed: n, Error: err}
	}
}

// selectModelCmd returns a command that persists the status line model.
func selectModelCmd(mgr *services.Manager, name string) tea.Cmd {
	return func() tea.Msg {
		return SelectModelResultMsg{Name: name, Error: mgr.SelectModel(name)}
	}
}

// clipboardWrite is swapped out in tests.
var clipboardWrite = clipboard.WriteAll

// copyToClipboardCmd returns a command that writes text to the clipboard.
func copyToClipboardCmd(text, label string) tea.Cmd {
	return func() tea.Msg {
		return ClipboardResultMsg{Label: label, Error: clipboardWrite(text)}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

func notifyCmd(t NotificationType, message string, d time.Duration) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{Type: t, Message: message, Duration: d}
	}
}

// notifySuccessCmd returns a command that adds a success notification.
func notifySuccessCmd(message string) tea.Cmd {
	return notifyCmd(NotificationSuccess, message, DefaultNotificationDuration)
}

// notifyErrorCmd returns a command that adds an error notification.
func notifyErrorCmd(message string) tea.Cmd {
	return notifyCmd(NotificationError, message, LongNotificationDuration)
}

// notifyWarningCmd returns a command that adds a warning notification.
func notifyWarningCmd(message string) tea.Cmd {
	return notifyCmd(NotificationWarning, message, DefaultNotificationDuration)
}

// notifyInfoCmd returns a command that adds an info notification.
func notifyInfoCmd(message string) tea.Cmd {
	return notifyCmd(NotificationInfo, message, QuickNotificationDuration)
}

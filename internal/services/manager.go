// Package services provides service orchestration for the TUI and CLI.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/omni-quota/internal/config"
	"github.com/j-veylop/omni-quota/internal/db"
	"github.com/j-veylop/omni-quota/internal/discovery"
	"github.com/j-veylop/omni-quota/internal/logger"
	"github.com/j-veylop/omni-quota/internal/metrics"
	"github.com/j-veylop/omni-quota/internal/models"
	"github.com/j-veylop/omni-quota/internal/probe"
	"github.com/j-veylop/omni-quota/internal/services/accounts"
	"github.com/j-veylop/omni-quota/internal/services/auth"
	"github.com/j-veylop/omni-quota/internal/services/history"
	"github.com/j-veylop/omni-quota/internal/services/poller"
	"github.com/j-veylop/omni-quota/internal/services/quota"
)

// resetJump is the percentage point increase treated as a quota reset.
const resetJump = 20

type (
	// AccountsChangedEvent is emitted when the accounts list changes.
	AccountsChangedEvent struct {
		Primary  models.Identity
		Accounts []models.AccountRecord
	}

	// SnapshotEvent is emitted after every completed poll cycle.
	SnapshotEvent struct {
		Snapshot models.DisplaySnapshot
		Result   poller.CycleResult
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Error   error
		Service string
	}

	// StatsEvent is emitted when global statistics change.
	StatsEvent struct {
		AccountCount int
		MaxAccounts  int
		HistorySize  int
		Endpoints    int
		Connected    bool
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (AccountsChangedEvent) isServiceEvent() {}
func (SnapshotEvent) isServiceEvent()        {}
func (ErrorEvent) isServiceEvent()           {}
func (StatsEvent) isServiceEvent()           {}

// notifyFunc sends a desktop notification.
type notifyFunc func(title, message string, icon any) error

// Manager orchestrates services and event routing.
type Manager struct {
	mu            sync.RWMutex
	cfg           *config.Config
	store         db.Store
	database      *db.DB
	registry      *accounts.Registry
	history       *history.Sampler
	resolver      *auth.Resolver
	scheduler     *poller.Scheduler
	metrics       *metrics.Metrics
	notify        notifyFunc
	subscribers   []chan<- ServiceEvent
	previous      map[string]int
	selectedModel string
	cancel        context.CancelFunc
	closeOnce     sync.Once
}

// NewManager creates a service manager backed by the SQLite store at
// cfg.StorePath.
func NewManager(cfg *config.Config) (*Manager, error) {
	database, err := db.New(cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	m := metrics.New(metrics.DefaultNamespace)
	resolver := auth.New(cfg.GeminiDir)
	client := probe.New(probe.WithMetrics(m))
	locator := discovery.New(cfg.ProcessPattern, nil)
	fetcher := quota.NewFetcher(client, resolver)
	fetcher.SetLocale(cfg.Language)

	mgr, err := newManager(cfg, database, probe.NewDiscoverer(locator, client, resolver), fetcher, m)
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	mgr.database = database
	mgr.resolver = resolver
	resolver.OnChange(func() {
		go mgr.Refresh(context.Background())
	})
	return mgr, nil
}

// newManager wires the manager around the given store and cycle inputs.
func newManager(cfg *config.Config, store db.Store, source poller.EndpointSource,
	fetcher poller.StatusFetcher, m *metrics.Metrics,
) (*Manager, error) {
	registry, err := accounts.New(store, store, cfg.MaxAccounts)
	if err != nil {
		return nil, err
	}
	registry.SetMetrics(m)

	sampler, err := history.New(store)
	if err != nil {
		return nil, err
	}

	mgr := &Manager{
		cfg:      cfg,
		store:    store,
		registry: registry,
		history:  sampler,
		metrics:  m,
		notify:   beeep.Notify,
		previous: make(map[string]int),
	}

	var selected string
	if _, err := db.GetJSON(store, db.KeySelectedModel, &selected); err != nil {
		logger.Warn("Failed to load selected model", "error", err)
	}
	mgr.selectedModel = selected

	mgr.scheduler = poller.New(source, fetcher, registry,
		poller.WithInterval(cfg.PollInterval),
		poller.WithMetrics(m),
		poller.WithHistory(sampler),
	)
	mgr.scheduler.OnCycle(mgr.handleCycle)
	mgr.scheduler.OnError(func(err error) {
		mgr.broadcast(ErrorEvent{Service: "discovery", Error: err})
	})
	return mgr, nil
}

// Start begins monitoring when enabled, watches the credentials directory and
// serves metrics when an address is configured.
func (m *Manager) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()

	if m.resolver != nil {
		if err := m.resolver.Watch(ctx); err != nil {
			logger.Warn("Failed to watch credentials", "error", err)
		}
	}

	if m.cfg.MetricsAddr != "" {
		go func() {
			if err := m.metrics.Serve(ctx, m.cfg.MetricsAddr); err != nil {
				m.broadcast(ErrorEvent{Service: "metrics", Error: err})
			}
		}()
	}

	if m.cfg.EnableMonitoring {
		m.scheduler.Start(ctx)
	}
}

// handleCycle converts a cycle result into events.
func (m *Manager) handleCycle(res poller.CycleResult) {
	if res.Err != nil {
		m.broadcast(ErrorEvent{Service: "poller", Error: res.Err})
	}

	m.broadcast(SnapshotEvent{Snapshot: res.Primary, Result: res})
	if len(res.Accepted) > 0 {
		m.broadcast(AccountsChangedEvent{
			Accounts: m.registry.GetAccounts(),
			Primary:  res.Primary.AccountID,
		})
	}
	m.broadcast(m.GetStats())

	if res.Primary.HasData() {
		m.checkNotifications(res.Primary)
	}
}

func (m *Manager) checkNotifications(snap models.DisplaySnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	crit := m.cfg.CriticalThreshold
	for _, mq := range snap.Models {
		key := string(snap.AccountID) + "/" + mq.Name
		old, exists := m.previous[key]
		m.previous[key] = mq.Percentage
		if !exists || !m.cfg.Notifications {
			continue
		}

		// Only notify if we crossed the threshold downwards
		if mq.Percentage < crit && old >= crit {
			title := fmt.Sprintf("Critical Quota: %s", snap.Name)
			body := fmt.Sprintf("%s is below %d%% (%d%%)", mq.Name, crit, mq.Percentage)
			m.sendNotification(title, body)
		}

		if mq.Percentage-old > resetJump {
			title := fmt.Sprintf("Quota Reset: %s", snap.Name)
			body := fmt.Sprintf("%s has been refreshed (%d%%).", mq.Name, mq.Percentage)
			m.sendNotification(title, body)
		}
	}
}

func (m *Manager) sendNotification(title, body string) {
	if err := m.notify(title, body, ""); err != nil {
		logger.Debug("Notification failed", "title", title, "error", err)
	}
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Refresh runs a poll cycle now. It reports false when the rate gate or a
// running cycle suppressed it.
func (m *Manager) Refresh(ctx context.Context) bool {
	return m.scheduler.Trigger(ctx)
}

// Redetect drops cached credentials and runs a cycle.
func (m *Manager) Redetect(ctx context.Context) bool {
	if m.resolver != nil {
		m.resolver.Invalidate()
	}
	return m.scheduler.Trigger(ctx)
}

// Scan runs a single cycle and returns its result.
func (m *Manager) Scan(ctx context.Context) poller.CycleResult {
	m.scheduler.Trigger(ctx)
	return m.scheduler.LastCycle()
}

// RemoveAccount deletes an account with its secrets and history.
func (m *Manager) RemoveAccount(id models.Identity) error {
	if err := m.registry.Remove(id); err != nil {
		return err
	}
	if err := m.history.RemoveAccount(id); err != nil {
		logger.Warn("Failed to remove account history", "id", id, "error", err)
	}
	m.broadcast(AccountsChangedEvent{
		Accounts: m.registry.GetAccounts(),
		Primary:  m.scheduler.Snapshot().AccountID,
	})
	return nil
}

// CleanupInvalidAccounts removes stored accounts that no longer validate.
func (m *Manager) CleanupInvalidAccounts() (int, error) {
	n, err := m.registry.CleanupInvalidAccounts()
	if n > 0 {
		m.broadcast(AccountsChangedEvent{
			Accounts: m.registry.GetAccounts(),
			Primary:  m.scheduler.Snapshot().AccountID,
		})
	}
	return n, err
}

// ResetAccounts forgets every account with its secrets and history.
func (m *Manager) ResetAccounts() error {
	err := errors.Join(m.registry.Reset(), m.history.Clear())
	m.broadcast(AccountsChangedEvent{
		Accounts: m.registry.GetAccounts(),
		Primary:  m.scheduler.Snapshot().AccountID,
	})
	return err
}

// SelectModel persists the model shown on the status line.
func (m *Manager) SelectModel(name string) error {
	if err := db.PutJSON(m.store, db.KeySelectedModel, name); err != nil {
		return fmt.Errorf("failed to save selected model: %w", err)
	}
	m.mu.Lock()
	m.selectedModel = name
	m.mu.Unlock()
	return nil
}

// SelectedModel returns the persisted status line model.
func (m *Manager) SelectedModel() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selectedModel
}

// GetStats returns aggregated statistics.
func (m *Manager) GetStats() StatsEvent {
	snap := m.scheduler.Snapshot()
	return StatsEvent{
		AccountCount: m.registry.Count(),
		MaxAccounts:  m.registry.MaxAccounts(),
		HistorySize:  m.history.Len(),
		Endpoints:    m.scheduler.LastCycle().Endpoints,
		Connected:    snap.Connected,
	}
}

// Snapshot returns the current primary display snapshot.
func (m *Manager) Snapshot() models.DisplaySnapshot {
	return m.scheduler.Snapshot()
}

// Accounts returns the account registry.
func (m *Manager) Accounts() *accounts.Registry {
	return m.registry
}

// History returns the history sampler.
func (m *Manager) History() *history.Sampler {
	return m.history
}

// Scheduler returns the poll scheduler.
func (m *Manager) Scheduler() *poller.Scheduler {
	return m.scheduler
}

// Config returns the configuration the manager was built with.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// Compact reclaims space in the backing database. It is a no-op for
// in-memory stores.
func (m *Manager) Compact() error {
	if m.database == nil {
		return nil
	}
	return m.database.Vacuum()
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	var errs []error
	m.closeOnce.Do(func() {
		if m.scheduler != nil {
			m.scheduler.Stop()
		}

		m.mu.Lock()
		if m.cancel != nil {
			m.cancel()
		}
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()

		if m.resolver != nil {
			if err := m.resolver.Close(); err != nil {
				errs = append(errs, err)
			}
		}

		if m.database != nil {
			if err := m.database.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}

// InitialState returns the initial state of all services for TUI initialization.
func (m *Manager) InitialState() ([]models.AccountRecord, StatsEvent) {
	m.registry.RefreshLabels(time.Now())
	return m.registry.GetAccounts(), m.GetStats()
}

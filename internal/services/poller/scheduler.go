// Package poller runs discovery, fetch and reconcile cycles on a schedule.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/j-veylop/omni-quota/internal/errors"
	"github.com/j-veylop/omni-quota/internal/logger"
	"github.com/j-veylop/omni-quota/internal/metrics"
	"github.com/j-veylop/omni-quota/internal/models"
	"github.com/j-veylop/omni-quota/internal/services/accounts"
)

const (
	// DefaultInterval is the time between scheduled cycles.
	DefaultInterval = 2 * time.Minute
	// MinGap is the minimum time between two cycle starts.
	MinGap = 5 * time.Second
)

// State is the scheduler's position in the cycle.
type State int

// Cycle states.
const (
	StateIdle State = iota
	StateDiscovering
	StateFetching
	StateReconciling
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDiscovering:
		return "discovering"
	case StateFetching:
		return "fetching"
	case StateReconciling:
		return "reconciling"
	default:
		return "unknown"
	}
}

// EndpointSource yields the adopted endpoints of a cycle.
type EndpointSource interface {
	Discover(ctx context.Context) ([]models.Endpoint, error)
}

// StatusFetcher fetches the candidate record served by an endpoint.
type StatusFetcher interface {
	FetchStatus(ctx context.Context, ep models.Endpoint) (*models.AccountRecord, error)
}

// AccountStore receives candidate records.
type AccountStore interface {
	Upsert(id models.Identity, rec models.AccountRecord) (bool, error)
	Get(id models.Identity) (models.AccountRecord, bool)
	SetSecret(id models.Identity, purpose, value string) error
	RefreshLabels(now time.Time)
}

// HistoryRecorder receives per-model samples of accepted records.
type HistoryRecorder interface {
	Record(id models.Identity, model string, pct int) (bool, error)
}

// CycleResult summarizes one completed cycle.
type CycleResult struct {
	Err       error
	Primary   models.DisplaySnapshot
	Accepted  []models.Identity
	Started   time.Time
	Endpoints int
	Rejected  int
	Failed    int
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInterval sets the scheduled cycle interval.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.interval = d }
}

// WithMinGap overrides the minimum gap between cycle starts.
func WithMinGap(d time.Duration) Option {
	return func(s *Scheduler) { s.minGap = d }
}

// WithMetrics attaches instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithHistory records accepted model percentages.
func WithHistory(h HistoryRecorder) Option {
	return func(s *Scheduler) { s.history = h }
}

// Scheduler owns the poll loop and the last computed display snapshot.
type Scheduler struct {
	source   EndpointSource
	fetcher  StatusFetcher
	store    AccountStore
	history  HistoryRecorder
	metrics  *metrics.Metrics
	now      func() time.Time
	stopChan chan struct{}
	onCycle  func(CycleResult)
	onError  func(error)
	resetCh  chan time.Duration

	lastStart time.Time
	last      CycleResult
	snapshot  models.DisplaySnapshot
	interval  time.Duration
	minGap    time.Duration
	state     State
	running   bool
	stopOnce  sync.Once
	mu        sync.RWMutex
}

// New creates a scheduler. It does not start polling.
func New(source EndpointSource, fetcher StatusFetcher, store AccountStore, opts ...Option) *Scheduler {
	s := &Scheduler{
		source:   source,
		fetcher:  fetcher,
		store:    store,
		now:      time.Now,
		interval: DefaultInterval,
		minGap:   MinGap,
		stopChan: make(chan struct{}),
		resetCh:  make(chan time.Duration, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	return s
}

// OnCycle registers a callback invoked after every completed cycle.
func (s *Scheduler) OnCycle(fn func(CycleResult)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCycle = fn
}

// OnError registers a callback for errors that need user attention, such as
// a missing host tool.
func (s *Scheduler) OnError(fn func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = fn
}

// Start runs an immediate cycle and then one per interval until ctx is
// cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	go s.loop(ctx)
}

func (s *Scheduler) loop(ctx context.Context) {
	s.Trigger(ctx)

	s.mu.RLock()
	interval := s.interval
	s.mu.RUnlock()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Trigger(ctx)
		case d := <-s.resetCh:
			ticker.Reset(d)
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		}
	}
}

// Stop ends the poll loop. It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// SetInterval changes the scheduled interval of a running loop.
func (s *Scheduler) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	s.interval = d
	s.mu.Unlock()

	// keep only the newest pending reset
	select {
	case <-s.resetCh:
	default:
	}
	select {
	case s.resetCh <- d:
	default:
	}
}

// Interval returns the scheduled interval.
func (s *Scheduler) Interval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.interval
}

// Trigger runs a cycle now unless one is in progress or the previous one
// started less than the minimum gap ago. It blocks until the cycle completes
// and reports whether it ran.
func (s *Scheduler) Trigger(ctx context.Context) bool {
	s.mu.Lock()
	now := s.now()
	if s.running || (!s.lastStart.IsZero() && now.Sub(s.lastStart) < s.minGap) {
		s.mu.Unlock()
		s.metrics.RecordCycle("skipped")
		return false
	}
	s.running = true
	s.lastStart = now
	s.mu.Unlock()

	res := s.runCycle(ctx, now)

	s.mu.Lock()
	s.running = false
	s.state = StateIdle
	s.last = res
	s.snapshot = res.Primary
	onCycle := s.onCycle
	s.mu.Unlock()

	if onCycle != nil {
		onCycle(res)
	}
	return true
}

// State returns the current cycle state.
func (s *Scheduler) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// LastCycle returns the result of the most recent cycle.
func (s *Scheduler) LastCycle() CycleResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Snapshot returns the current primary display snapshot.
func (s *Scheduler) Snapshot() models.DisplaySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.snapshot
	snap.Models = models.CloneModels(snap.Models)
	return snap
}

// Connected reports whether the last cycle adopted at least one endpoint.
func (s *Scheduler) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Connected
}

func (s *Scheduler) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Scheduler) runCycle(ctx context.Context, started time.Time) (res CycleResult) {
	res.Started = started
	res.Primary = models.DisplaySnapshot{UpdatedAt: started}

	defer func() {
		if r := recover(); r != nil {
			err := &apperrors.CycleError{Err: fmt.Errorf("panic: %v", r)}
			logger.Error("Poll cycle panicked", "error", err)
			s.metrics.RecordCycle("error")
			res = CycleResult{Started: started, Err: err, Primary: s.Snapshot()}
		}
	}()

	s.setState(StateDiscovering)
	endpoints, err := s.source.Discover(ctx)
	if err != nil {
		if apperrors.IsCapability(err) {
			logger.Warn("Discovery unavailable", "error", err)
			s.reportError(err)
		} else {
			err = &apperrors.CycleError{Err: err}
			logger.Error("Discovery failed", "error", err)
		}
		res.Err = err
		s.metrics.RecordCycle("error")
		return res
	}
	res.Endpoints = len(endpoints)
	if len(endpoints) == 0 {
		logger.Debug("No endpoints adopted")
		s.metrics.RecordCycle("offline")
		return res
	}
	res.Primary.Connected = true

	s.setState(StateFetching)
	primarySet := false
	for _, ep := range endpoints {
		if ctx.Err() != nil {
			break
		}
		id, ok := s.processEndpoint(ctx, ep, &res)
		if !ok || primarySet {
			continue
		}
		if rec, found := s.store.Get(id); found {
			res.Primary.AccountID = rec.ID
			res.Primary.Name = rec.DisplayName
			res.Primary.Models = models.CloneModels(rec.Models)
			primarySet = true
		}
	}

	s.setState(StateReconciling)
	s.store.RefreshLabels(s.now())
	for i := range res.Primary.Models {
		res.Primary.Models[i].Refresh(s.now())
	}

	s.metrics.RecordCycle("ok")
	return res
}

// processEndpoint fetches, validates and stores one endpoint's record.
// Failures are logged and do not affect other endpoints.
func (s *Scheduler) processEndpoint(ctx context.Context, ep models.Endpoint, res *CycleResult) (models.Identity, bool) {
	rec, err := s.fetcher.FetchStatus(ctx, ep)
	if err != nil {
		if !s.rejectInvalid(ep, err, res) {
			logger.Warn("Failed to fetch status", "pid", ep.PID, "port", ep.Port, "error", err)
			res.Failed++
		}
		return "", false
	}

	accepted, err := s.store.Upsert(rec.ID, *rec)
	if !accepted {
		switch {
		case s.rejectInvalid(ep, err, res):
		case errors.Is(err, accounts.ErrAccountLimit):
			logger.Warn("Account limit reached, ignoring account", "id", rec.ID)
			res.Rejected++
		default:
			logger.Warn("Account not stored", "id", rec.ID, "error", err)
			res.Failed++
		}
		return "", false
	}
	if err != nil {
		logger.Warn("Account stored in memory only", "id", rec.ID, "error", err)
	}
	res.Accepted = append(res.Accepted, rec.ID)

	s.storeSecret(rec.ID, models.SecretCSRFToken, ep.CSRFToken)
	s.storeSecret(rec.ID, models.SecretAuthToken, ep.AuthToken)

	for _, m := range rec.Models {
		s.metrics.SetModelQuota(string(rec.ID), m.Name, m.Percentage)
		if s.history == nil {
			continue
		}
		if _, err := s.history.Record(rec.ID, m.Name, m.Percentage); err != nil {
			logger.Warn("Failed to record history", "id", rec.ID, "model", m.Name, "error", err)
		}
	}
	return rec.ID, true
}

func (s *Scheduler) storeSecret(id models.Identity, purpose, value string) {
	if value == "" {
		return
	}
	if err := s.store.SetSecret(id, purpose, value); err != nil {
		logger.Warn("Failed to store token", "id", id, "purpose", purpose, "error", err)
	}
}

// rejectInvalid counts err as a rejection when it carries a validation failure.
func (s *Scheduler) rejectInvalid(ep models.Endpoint, err error, res *CycleResult) bool {
	var ve *apperrors.ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	logger.Info("Rejected account data", "pid", ep.PID, "reason", ve.Reason)
	s.metrics.RecordRejection(ve.Code)
	res.Rejected++
	return true
}

func (s *Scheduler) reportError(err error) {
	s.mu.RLock()
	onError := s.onError
	s.mu.RUnlock()
	if onError != nil {
		onError(err)
	}
}

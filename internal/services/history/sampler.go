// Package history records per-account, per-model quota samples over time.
package history

import (
	"fmt"
	"sync"
	"time"

	"github.com/j-veylop/omni-quota/internal/db"
	apperrors "github.com/j-veylop/omni-quota/internal/errors"
	"github.com/j-veylop/omni-quota/internal/logger"
	"github.com/j-veylop/omni-quota/internal/models"
)

const (
	// DefaultCapacity is the maximum number of retained snapshots.
	DefaultCapacity = 500
	// DefaultWindow suppresses unchanged samples for the same pair.
	DefaultWindow = time.Hour
)

// Sampler is a bounded, persisted list of quota snapshots.
type Sampler struct {
	kv        db.KV
	now       func() time.Time
	snapshots []models.HistorySnapshot
	capacity  int
	window    time.Duration
	mu        sync.RWMutex
}

// New creates a sampler backed by kv and loads any persisted snapshots.
func New(kv db.KV) (*Sampler, error) {
	s := &Sampler{
		kv:       kv,
		now:      time.Now,
		capacity: DefaultCapacity,
		window:   DefaultWindow,
	}

	var stored []models.HistorySnapshot
	ok, err := db.GetJSON(kv, db.KeyHistory, &stored)
	if err != nil {
		if !ok {
			return nil, fmt.Errorf("failed to load history: %w", err)
		}
		logger.Warn("Discarding unreadable history", "error", err)
		stored = nil
	}
	if len(stored) > s.capacity {
		stored = stored[len(stored)-s.capacity:]
	}
	s.snapshots = stored
	return s, nil
}

// Record appends a snapshot unless the last one for the same account and
// model has the same percentage and is younger than the window. It reports
// whether a snapshot was appended.
func (s *Sampler) Record(id models.Identity, model string, pct int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for i := len(s.snapshots) - 1; i >= 0; i-- {
		last := s.snapshots[i]
		if last.AccountID != id || last.ModelName != model {
			continue
		}
		if last.Percentage == pct && now.Sub(last.Time()) < s.window {
			return false, nil
		}
		break
	}

	s.snapshots = append(s.snapshots, models.HistorySnapshot{
		AccountID:  id,
		ModelName:  model,
		Percentage: pct,
		Timestamp:  now.UnixMilli(),
	})
	if over := len(s.snapshots) - s.capacity; over > 0 {
		s.snapshots = append([]models.HistorySnapshot(nil), s.snapshots[over:]...)
	}
	return true, s.persistLocked()
}

// History returns every retained snapshot, oldest first.
func (s *Sampler) History() []models.HistorySnapshot {
	return s.filter(func(models.HistorySnapshot) bool { return true })
}

// ForAccount returns the snapshots of one account.
func (s *Sampler) ForAccount(id models.Identity) []models.HistorySnapshot {
	return s.filter(func(h models.HistorySnapshot) bool { return h.AccountID == id })
}

// ForModel returns the snapshots of one account and model.
func (s *Sampler) ForModel(id models.Identity, model string) []models.HistorySnapshot {
	return s.filter(func(h models.HistorySnapshot) bool {
		return h.AccountID == id && h.ModelName == model
	})
}

// Series returns the percentages of ForModel as chart input.
func (s *Sampler) Series(id models.Identity, model string) []float64 {
	snaps := s.ForModel(id, model)
	out := make([]float64, len(snaps))
	for i, h := range snaps {
		out[i] = float64(h.Percentage)
	}
	return out
}

// Len returns the number of retained snapshots.
func (s *Sampler) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}

// Clear drops every snapshot and the persisted list.
func (s *Sampler) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = nil
	if err := s.kv.Delete(db.KeyHistory); err != nil {
		return &apperrors.PersistenceError{Key: db.KeyHistory, Err: err}
	}
	return nil
}

// RemoveAccount drops every snapshot of id.
func (s *Sampler) RemoveAccount(id models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.snapshots[:0]
	for _, h := range s.snapshots {
		if h.AccountID != id {
			kept = append(kept, h)
		}
	}
	if len(kept) == len(s.snapshots) {
		return nil
	}
	s.snapshots = kept
	return s.persistLocked()
}

func (s *Sampler) filter(keep func(models.HistorySnapshot) bool) []models.HistorySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.HistorySnapshot
	for _, h := range s.snapshots {
		if keep(h) {
			out = append(out, h)
		}
	}
	return out
}

func (s *Sampler) persistLocked() error {
	if err := db.PutJSON(s.kv, db.KeyHistory, s.snapshots); err != nil {
		logger.Error("Failed to persist history", "error", err)
		return &apperrors.PersistenceError{Key: db.KeyHistory, Err: err}
	}
	return nil
}

// Package accounts provides the account registry: validated, capped,
// display-name-deduplicated account records with write-through persistence.
package accounts

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/j-veylop/omni-quota/internal/db"
	apperrors "github.com/j-veylop/omni-quota/internal/errors"
	"github.com/j-veylop/omni-quota/internal/logger"
	"github.com/j-veylop/omni-quota/internal/metrics"
	"github.com/j-veylop/omni-quota/internal/models"
)

// DefaultMaxAccounts is the default cap on distinct identities.
const DefaultMaxAccounts = 10

const blobVersion = 1

var (
	// ErrAccountLimit is returned when a new identity would exceed the cap.
	ErrAccountLimit = errors.New("account limit reached")
	// ErrAccountNotFound is returned when an identity is not registered.
	ErrAccountNotFound = errors.New("account not found")
)

// AccountsBlob is the persisted collection.
type AccountsBlob struct {
	Accounts []models.AccountRecord `json:"accounts"`
	Version  int                    `json:"version,omitempty"`
}

// Registry holds account records keyed by identity.
type Registry struct {
	accounts    map[models.Identity]*models.AccountRecord
	kv          db.KV
	secrets     db.Secrets
	metrics     *metrics.Metrics
	now         func() time.Time
	maxAccounts int
	mu          sync.RWMutex
}

// New creates a registry and loads the persisted collection from kv.
// A corrupt blob is logged and treated as empty.
func New(kv db.KV, secrets db.Secrets, maxAccounts int) (*Registry, error) {
	if maxAccounts < 1 {
		maxAccounts = DefaultMaxAccounts
	}
	r := &Registry{
		accounts:    make(map[models.Identity]*models.AccountRecord),
		kv:          kv,
		secrets:     secrets,
		now:         time.Now,
		maxAccounts: maxAccounts,
	}

	data, ok, err := kv.Get(db.KeyAccounts)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	if ok {
		records, err := parseAccounts(data)
		if err != nil {
			logger.Warn("Discarding unreadable accounts blob", "error", err)
		}
		for i := range records {
			rec := records[i]
			if rec.ID == "" {
				continue
			}
			r.accounts[rec.ID] = &rec
		}
	}

	if evicted, err := r.evictOverCapLocked(); len(evicted) > 0 {
		logger.Info("Evicted accounts over the configured maximum",
			"max", maxAccounts, "evicted", len(evicted))
		if err != nil {
			logger.Warn("Failed to persist eviction", "error", err)
		}
	}
	return r, nil
}

// SetMetrics attaches instrumentation.
func (r *Registry) SetMetrics(m *metrics.Metrics) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = m
	m.SetAccounts(len(r.accounts))
}

type legacyModel struct {
	ResetTimestamp *int64 `json:"resetTimestamp,omitempty"`
	Name           string `json:"name"`
	ResetTime      string `json:"resetTime,omitempty"`
	Percentage     int    `json:"percentage"`
}

type legacyAccount struct {
	ID          string        `json:"id"`
	DisplayName string        `json:"displayName"`
	Email       string        `json:"email,omitempty"`
	Tier        string        `json:"tier"`
	Models      []legacyModel `json:"models,omitempty"`
	LastActive  int64         `json:"lastActive"`
}

var dedupSuffixRe = regexp.MustCompile(`^(.*\S) \((\d+)\)$`)

// parseAccounts parses account data handling multiple formats.
func parseAccounts(data []byte) ([]models.AccountRecord, error) {
	// 1. Current versioned blob
	var blob AccountsBlob
	if err := json.Unmarshal(data, &blob); err == nil && (blob.Version >= blobVersion || blob.Accounts != nil) {
		return blob.Accounts, nil
	}

	// 2. Legacy array with epoch-ms activity and rendered reset labels
	var legacy []legacyAccount
	if err := json.Unmarshal(data, &legacy); err == nil {
		records := make([]models.AccountRecord, 0, len(legacy))
		for _, acc := range legacy {
			records = append(records, migrateLegacy(acc))
		}
		return records, nil
	}

	return nil, fmt.Errorf("failed to parse accounts: invalid format")
}

func migrateLegacy(acc legacyAccount) models.AccountRecord {
	rec := models.AccountRecord{
		ID:          models.Identity(acc.ID),
		DisplayName: acc.DisplayName,
		BaseName:    acc.DisplayName,
		Email:       acc.Email,
		Tier:        acc.Tier,
	}
	if m := dedupSuffixRe.FindStringSubmatch(acc.DisplayName); m != nil {
		rec.BaseName = m[1]
	}
	if acc.LastActive > 0 {
		rec.LastActiveAt = time.UnixMilli(acc.LastActive)
	}

	for _, lm := range acc.Models {
		mq := models.ModelQuota{Name: lm.Name, Percentage: lm.Percentage, ResetLabel: lm.ResetTime}
		if lm.ResetTimestamp != nil && *lm.ResetTimestamp > 0 {
			ts := *lm.ResetTimestamp
			mq.ResetAt = &ts
		} else {
			mq.MigrateLabel(rec.LastActiveAt)
		}
		rec.Models = append(rec.Models, mq)
	}
	models.SortModels(rec.Models)
	return rec
}

// Upsert validates rec and stores it under id. It reports whether the record
// was accepted. An accepted record whose write failed returns true and a
// *errors.PersistenceError; the in-memory state keeps the update.
func (r *Registry) Upsert(id models.Identity, rec models.AccountRecord) (bool, error) {
	if err := models.Validate(&rec); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.accounts[id]
	if !exists && len(r.accounts) >= r.maxAccounts {
		return false, ErrAccountLimit
	}

	base := strings.TrimSpace(rec.Name())
	rec.ID = id
	rec.BaseName = base
	if exists && existing.Name() == base {
		rec.DisplayName = existing.DisplayName
	} else {
		rec.DisplayName = r.uniqueDisplayName(id, base)
	}
	if rec.LastActiveAt.IsZero() {
		rec.LastActiveAt = r.now()
	}

	stored := rec.Clone()
	r.accounts[id] = &stored
	r.metrics.SetAccounts(len(r.accounts))

	if err := r.persistLocked(); err != nil {
		return true, err
	}
	return true, nil
}

// uniqueDisplayName suffixes base with " (n)" when other identities already
// use it. n starts at the number of such identities plus one.
func (r *Registry) uniqueDisplayName(id models.Identity, base string) string {
	taken := make(map[string]bool)
	sameBase := 0
	for otherID, other := range r.accounts {
		if otherID == id {
			continue
		}
		taken[other.DisplayName] = true
		if other.Name() == base {
			sameBase++
		}
	}
	if sameBase == 0 && !taken[base] {
		return base
	}

	n := sameBase + 1
	for {
		candidate := base + " (" + strconv.Itoa(n) + ")"
		if !taken[candidate] {
			return candidate
		}
		n++
	}
}

// GetAccounts returns all records, most recently active first.
func (r *Registry) GetAccounts() []models.AccountRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedLocked()
}

func (r *Registry) sortedLocked() []models.AccountRecord {
	out := make([]models.AccountRecord, 0, len(r.accounts))
	for _, rec := range r.accounts {
		out = append(out, rec.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].LastActiveAt.Equal(out[j].LastActiveAt) {
			return out[i].LastActiveAt.After(out[j].LastActiveAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Get returns the record for id.
func (r *Registry) Get(id models.Identity) (models.AccountRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.accounts[id]
	if !ok {
		return models.AccountRecord{}, false
	}
	return rec.Clone(), true
}

// Count returns the number of registered identities.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts)
}

// MaxAccounts returns the current cap.
func (r *Registry) MaxAccounts() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.maxAccounts
}

// Remove deletes the record for id and every secret stored for it.
func (r *Registry) Remove(id models.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[id]; !ok {
		return ErrAccountNotFound
	}
	delete(r.accounts, id)
	r.metrics.SetAccounts(len(r.accounts))
	r.metrics.ForgetAccount(string(id))

	persistErr := r.persistLocked()
	if err := r.deleteSecretsLocked(id); err != nil {
		return errors.Join(persistErr, err)
	}
	return persistErr
}

func (r *Registry) deleteSecretsLocked(id models.Identity) error {
	if r.secrets == nil {
		return nil
	}
	if err := r.secrets.DeleteSecrets(string(id)); err != nil {
		r.metrics.RecordPersistenceError("secrets")
		return &apperrors.PersistenceError{Key: "secrets", Err: err}
	}
	return nil
}

// CleanupInvalidAccounts revalidates every record and removes failures.
// It returns the number of removed records.
func (r *Registry) CleanupInvalidAccounts() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []models.Identity
	for id, rec := range r.accounts {
		if err := models.Validate(rec); err != nil {
			logger.Info("Removing invalid account", "id", id, "reason", err)
			removed = append(removed, id)
		}
	}
	if len(removed) == 0 {
		return 0, nil
	}

	var errs []error
	for _, id := range removed {
		delete(r.accounts, id)
		r.metrics.ForgetAccount(string(id))
		if err := r.deleteSecretsLocked(id); err != nil {
			errs = append(errs, err)
		}
	}
	r.metrics.SetAccounts(len(r.accounts))
	if err := r.persistLocked(); err != nil {
		errs = append([]error{err}, errs...)
	}
	return len(removed), errors.Join(errs...)
}

// SetMaxAccounts changes the cap. When lowering it below the current count,
// the least recently active identities are evicted, with their secrets.
func (r *Registry) SetMaxAccounts(n int) ([]models.Identity, error) {
	if n < 1 {
		return nil, fmt.Errorf("max accounts must be at least 1, got %d", n)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.maxAccounts = n
	return r.evictOverCapLocked()
}

// evictOverCapLocked drops the least recently active identities, with their
// secrets, until the collection fits maxAccounts.
func (r *Registry) evictOverCapLocked() ([]models.Identity, error) {
	if len(r.accounts) <= r.maxAccounts {
		return nil, nil
	}

	sorted := r.sortedLocked()
	var evicted []models.Identity
	var errs []error
	for _, rec := range sorted[r.maxAccounts:] {
		delete(r.accounts, rec.ID)
		r.metrics.ForgetAccount(string(rec.ID))
		evicted = append(evicted, rec.ID)
		if err := r.deleteSecretsLocked(rec.ID); err != nil {
			errs = append(errs, err)
		}
	}
	r.metrics.SetAccounts(len(r.accounts))
	if err := r.persistLocked(); err != nil {
		errs = append([]error{err}, errs...)
	}
	return evicted, errors.Join(errs...)
}

// SetSecret stores a secret value for id.
func (r *Registry) SetSecret(id models.Identity, purpose, value string) error {
	if r.secrets == nil {
		return nil
	}
	if err := r.secrets.SetSecret(string(id), purpose, value); err != nil {
		r.metrics.RecordPersistenceError("secrets")
		return &apperrors.PersistenceError{Key: "secrets", Err: err}
	}
	return nil
}

// GetSecret returns the secret for id and purpose.
func (r *Registry) GetSecret(id models.Identity, purpose string) (string, bool) {
	if r.secrets == nil {
		return "", false
	}
	v, ok, err := r.secrets.GetSecret(string(id), purpose)
	if err != nil {
		logger.Warn("Failed to read secret", "id", id, "error", err)
		return "", false
	}
	return v, ok
}

// Reset clears the collection and its persisted blob. Secrets of cleared
// identities are removed as well.
func (r *Registry) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for id := range r.accounts {
		r.metrics.ForgetAccount(string(id))
		if err := r.deleteSecretsLocked(id); err != nil {
			errs = append(errs, err)
		}
	}
	r.accounts = make(map[models.Identity]*models.AccountRecord)
	r.metrics.SetAccounts(0)

	if err := r.kv.Delete(db.KeyAccounts); err != nil {
		r.metrics.RecordPersistenceError(db.KeyAccounts)
		errs = append(errs, &apperrors.PersistenceError{Key: db.KeyAccounts, Err: err})
	}
	return errors.Join(errs...)
}

// RefreshLabels recomputes every stored model's reset label from ResetAt.
func (r *Registry) RefreshLabels(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.accounts {
		rec.RefreshLabels(now)
	}
}

// persistLocked writes the whole collection (must hold lock).
func (r *Registry) persistLocked() error {
	blob := AccountsBlob{Accounts: r.sortedLocked(), Version: blobVersion}
	if err := db.PutJSON(r.kv, db.KeyAccounts, blob); err != nil {
		r.metrics.RecordPersistenceError(db.KeyAccounts)
		logger.Error("Failed to persist accounts", "error", err)
		return &apperrors.PersistenceError{Key: db.KeyAccounts, Err: err}
	}
	return nil
}

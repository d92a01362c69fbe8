// Package auth resolves the optional external credential and installation id
// written by the Gemini tooling, caching the token and watching for changes.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/omni-quota/internal/logger"
)

const (
	// CredentialsFile holds the OAuth credentials inside the Gemini directory.
	CredentialsFile = "oauth_creds.json"

	// DefaultTTL is how long a token lookup, including a miss, is reused.
	DefaultTTL = 60 * time.Second

	debounceInterval = 100 * time.Millisecond
)

type credentials struct {
	AccessToken string `json:"access_token"`
	ExpiryDate  int64  `json:"expiry_date,omitempty"`
}

// Resolver reads the credential file on demand.
type Resolver struct {
	cachedAt      time.Time
	now           func() time.Time
	watcher       *fsnotify.Watcher
	debounceTimer *time.Timer
	onChange      func()
	stopChan      chan struct{}
	dir           string
	token         string
	ttl           time.Duration
	mu            sync.Mutex
	cached        bool
	found         bool
	stopOnce      sync.Once
}

// DefaultDir returns ~/.gemini.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".gemini")
}

// New creates a Resolver rooted at dir. An empty dir uses DefaultDir.
func New(dir string) *Resolver {
	if dir == "" {
		dir = DefaultDir()
	}
	return &Resolver{
		dir:      dir,
		ttl:      DefaultTTL,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
}

// Dir returns the Gemini directory.
func (r *Resolver) Dir() string {
	return r.dir
}

// OnChange registers fn to run after the credential file changes.
func (r *Resolver) OnChange(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// AuthToken returns the access token, if a non-expired one exists on disk.
// Results, including absence, are cached for the resolver TTL.
func (r *Resolver) AuthToken() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if r.cached && now.Sub(r.cachedAt) < r.ttl {
		return r.token, r.found
	}

	token, err := r.readToken(now)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Debug("Failed to read credentials", "error", err)
	}
	r.token = token
	r.found = token != ""
	r.cachedAt = now
	r.cached = true
	return r.token, r.found
}

func (r *Resolver) readToken(now time.Time) (string, error) {
	data, err := os.ReadFile(filepath.Join(r.dir, CredentialsFile))
	if err != nil {
		return "", err
	}

	var creds credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", fmt.Errorf("failed to parse credentials: %w", err)
	}
	if creds.ExpiryDate > 0 && now.UnixMilli() >= creds.ExpiryDate {
		return "", nil
	}
	return strings.TrimSpace(creds.AccessToken), nil
}

// Invalidate drops the cached lookup so the next call reads from disk.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cached = false
	r.token = ""
	r.found = false
}

// InstallationID returns the persisted installation id, or "" when absent.
func (r *Resolver) InstallationID() string {
	data, err := os.ReadFile(filepath.Join(r.dir, "antigravity", "installation_id"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Watch invalidates the cache whenever the credential file is written,
// created or removed. A missing directory disables watching without error.
func (r *Resolver) Watch(ctx context.Context) error {
	if _, err := os.Stat(r.dir); err != nil {
		logger.Debug("Credentials directory not watched", "dir", r.dir, "error", err)
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(r.dir); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return fmt.Errorf("failed to watch %s: %w", r.dir, err)
	}

	r.mu.Lock()
	r.watcher = watcher
	r.mu.Unlock()

	go r.watchLoop(ctx, watcher)
	return nil
}

// watchLoop handles file system events with debouncing.
func (r *Resolver) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != CredentialsFile {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			r.mu.Lock()
			if r.debounceTimer != nil {
				r.debounceTimer.Stop()
			}
			r.debounceTimer = time.AfterFunc(debounceInterval, r.handleChange)
			r.mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Credentials watcher error", "error", err)

		case <-ctx.Done():
			_ = r.Close()
			return

		case <-r.stopChan:
			return
		}
	}
}

func (r *Resolver) handleChange() {
	r.Invalidate()
	logger.Debug("Credentials changed", "dir", r.dir)

	r.mu.Lock()
	onChange := r.onChange
	r.mu.Unlock()

	if onChange != nil {
		onChange()
	}
}

// Close stops watching.
func (r *Resolver) Close() error {
	var err error
	r.stopOnce.Do(func() {
		close(r.stopChan)

		r.mu.Lock()
		defer r.mu.Unlock()
		if r.debounceTimer != nil {
			r.debounceTimer.Stop()
		}
		if r.watcher != nil {
			err = r.watcher.Close()
		}
	})
	return err
}

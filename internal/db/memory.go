package db

import (
	"sync"
)

// Memory is an in-process Store. It is used when no database path is
// configured and in tests.
type Memory struct {
	kv       map[string][]byte
	secrets  map[string]map[string]string
	writeErr error
	writes   int
	mu       sync.Mutex
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		kv:      make(map[string][]byte),
		secrets: make(map[string]map[string]string),
	}
}

// FailWrites makes every subsequent write return err. A nil err restores writes.
func (m *Memory) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// Writes returns the number of successful KV writes.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Get returns the value stored under key.
func (m *Memory) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.kv[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Put replaces the value stored under key.
func (m *Memory) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	v := make([]byte, len(value))
	copy(v, value)
	m.kv[key] = v
	m.writes++
	return nil
}

// Delete removes key.
func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	delete(m.kv, key)
	return nil
}

// SetSecret stores a secret for identity and purpose.
func (m *Memory) SetSecret(identity, purpose, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	if m.secrets[identity] == nil {
		m.secrets[identity] = make(map[string]string)
	}
	m.secrets[identity][purpose] = value
	return nil
}

// GetSecret returns the secret for identity and purpose.
func (m *Memory) GetSecret(identity, purpose string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.secrets[identity][purpose]
	return v, ok, nil
}

// DeleteSecrets removes every secret stored for identity.
func (m *Memory) DeleteSecrets(identity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	delete(m.secrets, identity)
	return nil
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*DB)(nil)
)

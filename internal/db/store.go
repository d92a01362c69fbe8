package db

import (
	"encoding/json"
	"fmt"
)

// KV is a durable string-keyed blob store. Writes replace the whole value.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte) error
	Delete(key string) error
}

// Secrets stores per-identity, per-purpose secret values outside the KV blobs.
type Secrets interface {
	SetSecret(identity, purpose, value string) error
	GetSecret(identity, purpose string) (string, bool, error)
	DeleteSecrets(identity string) error
}

// Store combines both persistence capabilities.
type Store interface {
	KV
	Secrets
}

// Well-known KV keys.
const (
	KeyAccounts      = "accounts"
	KeyHistory       = "history"
	KeySelectedModel = "selected_model"
)

// GetJSON decodes the value stored under key into v.
// It reports false when the key does not exist.
func GetJSON(kv KV, key string, v any) (bool, error) {
	data, ok, err := kv.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// PutJSON encodes v and stores it under key.
func PutJSON(kv KV, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return kv.Put(key, data)
}

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Get returns the value stored under key.
func (db *DB) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := db.QueryRowContext(context.Background(),
		"SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

// Put replaces the value stored under key.
func (db *DB) Put(key string, value []byte) error {
	query := `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := db.ExecContext(context.Background(), query, key, value); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (db *DB) Delete(key string) error {
	if _, err := db.ExecContext(context.Background(), "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// SetSecret stores a secret for identity and purpose.
func (db *DB) SetSecret(identity, purpose, value string) error {
	query := `
		INSERT INTO secrets (identity, purpose, value, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(identity, purpose) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := db.ExecContext(context.Background(), query, identity, purpose, value); err != nil {
		return fmt.Errorf("failed to store secret: %w", err)
	}
	return nil
}

// GetSecret returns the secret for identity and purpose.
func (db *DB) GetSecret(identity, purpose string) (string, bool, error) {
	var value string
	err := db.QueryRowContext(context.Background(),
		"SELECT value FROM secrets WHERE identity = ? AND purpose = ?", identity, purpose).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read secret: %w", err)
	}
	return value, true, nil
}

// DeleteSecrets removes every secret stored for identity.
func (db *DB) DeleteSecrets(identity string) error {
	if _, err := db.ExecContext(context.Background(), "DELETE FROM secrets WHERE identity = ?", identity); err != nil {
		return fmt.Errorf("failed to delete secrets: %w", err)
	}
	return nil
}

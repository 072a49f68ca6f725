package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Sync state keys
const (
	SyncKeyLastSync  = "last_sync"
	SyncKeyLastError = "last_error"
)

// GetSyncState returns the value stored under key, or "" when unset
func (db *DB) GetSyncState(key string) (string, error) {
	var value string
	err := db.QueryRow(`SELECT value FROM sync_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading sync state %q: %w", key, err)
	}
	return value, nil
}

// SetSyncState stores value under key
func (db *DB) SetSyncState(key, value string) error {
	_, err := db.Exec(`
		INSERT INTO sync_state (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("writing sync state %q: %w", key, err)
	}
	return nil
}

// GetSyncTime reads a timestamp written by SetSyncTime. Unset or
// unparseable values return the zero time.
func (db *DB) GetSyncTime(key string) (time.Time, error) {
	v, err := db.GetSyncState(key)
	if err != nil || v == "" {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, nil
	}
	return t, nil
}

// SetSyncTime stores t in UTC under key
func (db *DB) SetSyncTime(key string, t time.Time) error {
	return db.SetSyncState(key, t.UTC().Format(time.RFC3339))
}

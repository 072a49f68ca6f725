package store

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationTable = "schema_migrations"

// migrate applies every embedded migration that has not run yet, each in
// its own transaction, in file name order
func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS ` + migrationTable + ` (
		name TEXT PRIMARY KEY,
		applied_at INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("creating migration table: %w", err)
	}

	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("listing migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		applied, err := migrationApplied(db, name)
		if err != nil {
			return fmt.Errorf("checking migration %s: %w", name, err)
		}
		if applied {
			continue
		}

		content, err := migrationFiles.ReadFile(name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := applyMigration(db, name, upSection(string(content))); err != nil {
			return err
		}
	}

	return nil
}

func applyMigration(db *sql.DB, name, upSQL string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning migration %s: %w", name, err)
	}

	if strings.TrimSpace(upSQL) != "" {
		if _, err := tx.Exec(upSQL); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("running migration %s: %w", name, err)
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO `+migrationTable+` (name, applied_at) VALUES (?, ?)`,
		name, time.Now().UTC().Unix(),
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("recording migration %s: %w", name, err)
	}

	return tx.Commit()
}

func migrationApplied(db *sql.DB, name string) (bool, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM `+migrationTable+` WHERE name = ?`, name).Scan(&n)
	return n > 0, err
}

// upSection returns the SQL between "-- +migrate Up" and "-- +migrate Down"
func upSection(content string) string {
	const up, down = "-- +migrate Up", "-- +migrate Down"

	if i := strings.Index(content, up); i >= 0 {
		content = content[i+len(up):]
	}
	if i := strings.Index(content, down); i >= 0 {
		content = content[:i]
	}
	return content
}

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNoAuth is returned when no Strava account is connected
var ErrNoAuth = errors.New("no authentication stored")

// The auth table holds at most one row, the connected athlete
const authRowID = 1

// GetAuth returns the connected athlete's tokens, or ErrNoAuth
func (db *DB) GetAuth() (*Auth, error) {
	var (
		a                      Auth
		expiresAt, connectedAt int64
	)
	err := db.QueryRow(`
		SELECT athlete_id, access_token, refresh_token, expires_at, connected_at
		FROM auth
		WHERE id = ?
	`, authRowID).Scan(&a.AthleteID, &a.AccessToken, &a.RefreshToken, &expiresAt, &connectedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoAuth
	}
	if err != nil {
		return nil, fmt.Errorf("reading auth: %w", err)
	}

	a.ExpiresAt = time.Unix(expiresAt, 0)
	a.ConnectedAt = time.Unix(connectedAt, 0)
	return &a, nil
}

// SaveAuth stores the tokens of a newly connected athlete, replacing any
// previous connection. ConnectedAt is set to now.
func (db *DB) SaveAuth(a *Auth) error {
	a.ConnectedAt = time.Now().Truncate(time.Second)
	_, err := db.Exec(`
		INSERT INTO auth (id, athlete_id, access_token, refresh_token, expires_at, connected_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			athlete_id = excluded.athlete_id,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			connected_at = excluded.connected_at,
			updated_at = CURRENT_TIMESTAMP
	`, authRowID, a.AthleteID, a.AccessToken, a.RefreshToken, a.ExpiresAt.Unix(), a.ConnectedAt.Unix())
	if err != nil {
		return fmt.Errorf("saving auth: %w", err)
	}
	return nil
}

// UpdateTokens stores refreshed tokens for the connected athlete.
// Returns ErrNoAuth when the account was disconnected in the meantime.
func (db *DB) UpdateTokens(accessToken, refreshToken string, expiresAt time.Time) error {
	res, err := db.Exec(`
		UPDATE auth
		SET access_token = ?, refresh_token = ?, expires_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, accessToken, refreshToken, expiresAt.Unix(), authRowID)
	if err != nil {
		return fmt.Errorf("updating tokens: %w", err)
	}
	return requireRow(res, ErrNoAuth)
}

// DeleteAuth forgets the connected athlete. Deleting when nothing is
// stored is not an error.
func (db *DB) DeleteAuth() error {
	if _, err := db.Exec(`DELETE FROM auth WHERE id = ?`, authRowID); err != nil {
		return fmt.Errorf("deleting auth: %w", err)
	}
	return nil
}

// requireRow returns notFound when res touched no rows
func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

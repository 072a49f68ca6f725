package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNoReferencePerformance is returned when no PB has been stored on the profile
var ErrNoReferencePerformance = errors.New("no reference performance stored")

// Profile defaults
const (
	DefaultFitnessLevel = "beginner"
	DefaultWeeklyGoalKm = 20.0
	DefaultDistanceUnit = "km"
)

// GetProfile returns the runner profile, creating it with defaults on first access
func (db *DB) GetProfile() (*Profile, error) {
	if _, err := db.Exec(`INSERT OR IGNORE INTO profile (id) VALUES (1)`); err != nil {
		return nil, fmt.Errorf("creating default profile: %w", err)
	}

	var p Profile
	var athleteID sql.NullInt64
	var updatedAt string
	err := db.QueryRow(`
		SELECT display_name, fitness_level, weekly_goal_km, distance_unit,
			strava_athlete_id, pb_event, pb_time, updated_at
		FROM profile
		WHERE id = 1
	`).Scan(&p.DisplayName, &p.FitnessLevel, &p.WeeklyGoalKm, &p.DistanceUnit,
		&athleteID, &p.PBEvent, &p.PBTime, &updatedAt)
	if err != nil {
		return nil, err
	}

	if athleteID.Valid {
		id := athleteID.Int64
		p.AthleteID = &id
	}
	p.UpdatedAt = parseSQLiteTime(updatedAt)
	return &p, nil
}

// UpdateProfile saves the editable profile fields. Empty values keep their defaults.
func (db *DB) UpdateProfile(p *Profile) error {
	if _, err := db.GetProfile(); err != nil {
		return err
	}

	fitness := p.FitnessLevel
	if fitness == "" {
		fitness = DefaultFitnessLevel
	}
	goal := p.WeeklyGoalKm
	if goal <= 0 {
		goal = DefaultWeeklyGoalKm
	}
	unit := p.DistanceUnit
	if unit == "" {
		unit = DefaultDistanceUnit
	}

	_, err := db.Exec(`
		UPDATE profile
		SET display_name = ?, fitness_level = ?, weekly_goal_km = ?, distance_unit = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`, p.DisplayName, fitness, goal, unit)
	return err
}

// SetProfileAthlete links the profile to a Strava athlete
func (db *DB) SetProfileAthlete(athleteID int64) error {
	if _, err := db.GetProfile(); err != nil {
		return err
	}
	_, err := db.Exec(`
		UPDATE profile SET strava_athlete_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = 1
	`, athleteID)
	return err
}

// SetReferencePerformance stores the last submitted PB on the profile
func (db *DB) SetReferencePerformance(event, timeHMS string) error {
	if _, err := db.GetProfile(); err != nil {
		return err
	}
	_, err := db.Exec(`
		UPDATE profile SET pb_event = ?, pb_time = ?, updated_at = CURRENT_TIMESTAMP WHERE id = 1
	`, event, timeHMS)
	return err
}

// GetReferencePerformance returns the stored PB event and time
func (db *DB) GetReferencePerformance() (event, timeHMS string, err error) {
	p, err := db.GetProfile()
	if err != nil {
		return "", "", err
	}
	if !p.HasReferencePerformance() {
		return "", "", ErrNoReferencePerformance
	}
	return p.PBEvent, p.PBTime, nil
}

// parseSQLiteTime parses CURRENT_TIMESTAMP output ("2006-01-02 15:04:05", UTC)
func parseSQLiteTime(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		return time.Time{}
	}
	return t
}

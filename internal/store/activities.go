package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrActivityNotFound is returned when an activity doesn't exist
var ErrActivityNotFound = errors.New("activity not found")

const activityColumns = `id, athlete_id, name, type, start_date, start_date_local, timezone,
	distance, moving_time, elapsed_time, total_elevation_gain,
	average_speed, max_speed, average_heartrate, max_heartrate, has_heartrate`

// UpsertActivity inserts or updates an activity
func (db *DB) UpsertActivity(a *Activity) error {
	_, err := db.Exec(`
		INSERT INTO activities (
			id, athlete_id, name, type, start_date, start_date_local, timezone,
			distance, moving_time, elapsed_time, total_elevation_gain,
			average_speed, max_speed, average_heartrate, max_heartrate,
			has_heartrate, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			athlete_id = excluded.athlete_id,
			name = excluded.name,
			type = excluded.type,
			start_date = excluded.start_date,
			start_date_local = excluded.start_date_local,
			timezone = excluded.timezone,
			distance = excluded.distance,
			moving_time = excluded.moving_time,
			elapsed_time = excluded.elapsed_time,
			total_elevation_gain = excluded.total_elevation_gain,
			average_speed = excluded.average_speed,
			max_speed = excluded.max_speed,
			average_heartrate = excluded.average_heartrate,
			max_heartrate = excluded.max_heartrate,
			has_heartrate = excluded.has_heartrate,
			updated_at = CURRENT_TIMESTAMP
	`,
		a.ID, a.AthleteID, a.Name, a.Type,
		a.StartDate.UTC().Format(time.RFC3339), a.StartDateLocal.Format(time.RFC3339), a.Timezone,
		a.Distance, a.MovingTime, a.ElapsedTime, a.TotalElevationGain,
		a.AverageSpeed, a.MaxSpeed, a.AverageHeartrate, a.MaxHeartrate,
		boolToInt(a.HasHeartrate),
	)
	return err
}

// GetActivity retrieves an activity by ID
func (db *DB) GetActivity(id int64) (*Activity, error) {
	row := db.QueryRow(`SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)

	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrActivityNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListActivities returns activities ordered by start date descending
func (db *DB) ListActivities(limit, offset int) ([]Activity, error) {
	rows, err := db.Query(`
		SELECT `+activityColumns+`
		FROM activities
		ORDER BY start_date DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivities(rows)
}

// ListAllActivities returns every stored activity, newest first
func (db *DB) ListAllActivities() ([]Activity, error) {
	rows, err := db.Query(`SELECT ` + activityColumns + ` FROM activities ORDER BY start_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivities(rows)
}

// ListActivitiesSince returns activities started at or after since, newest first
func (db *DB) ListActivitiesSince(since time.Time) ([]Activity, error) {
	rows, err := db.Query(`
		SELECT `+activityColumns+`
		FROM activities
		WHERE start_date >= ?
		ORDER BY start_date DESC
	`, since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivities(rows)
}

// CountActivities returns the total number of activities
func (db *DB) CountActivities() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM activities").Scan(&count)
	return count, err
}

// LatestActivityDate returns the start date of the newest activity, or the zero time
func (db *DB) LatestActivityDate() (time.Time, error) {
	var latest sql.NullString
	if err := db.QueryRow("SELECT MAX(start_date) FROM activities").Scan(&latest); err != nil {
		return time.Time{}, err
	}
	if !latest.Valid {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, latest.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing start_date %q: %w", latest.String, err)
	}
	return t, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivity(row rowScanner) (*Activity, error) {
	var a Activity
	var startDate, startDateLocal string
	var timezone sql.NullString
	var elevation, avgSpeed, maxSpeed sql.NullFloat64
	var hasHR int

	err := row.Scan(
		&a.ID, &a.AthleteID, &a.Name, &a.Type, &startDate, &startDateLocal, &timezone,
		&a.Distance, &a.MovingTime, &a.ElapsedTime, &elevation,
		&avgSpeed, &maxSpeed, &a.AverageHeartrate, &a.MaxHeartrate, &hasHR,
	)
	if err != nil {
		return nil, err
	}

	a.StartDate, err = time.Parse(time.RFC3339, startDate)
	if err != nil {
		return nil, fmt.Errorf("parsing start_date %q: %w", startDate, err)
	}
	a.StartDateLocal, err = time.Parse(time.RFC3339, startDateLocal)
	if err != nil {
		return nil, fmt.Errorf("parsing start_date_local %q: %w", startDateLocal, err)
	}
	a.Timezone = timezone.String
	a.TotalElevationGain = elevation.Float64
	a.AverageSpeed = avgSpeed.Float64
	a.MaxSpeed = maxSpeed.Float64
	a.HasHeartrate = hasHR == 1

	return &a, nil
}

func scanActivities(rows *sql.Rows) ([]Activity, error) {
	var activities []Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

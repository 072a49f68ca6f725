package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrPlanNotFound is returned when no training plan is stored
var ErrPlanNotFound = errors.New("training plan not found")

// planTimeLayout is fixed-width so created_at sorts lexically
const planTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const planColumns = `id, race_type, goal_time, race_date, runs_per_week,
	weekly_goal_km, plan, message, ai_generated, is_active, created_at`

// SavePlan stores a new active plan and deactivates all earlier ones.
// ID and CreatedAt are filled in when empty.
func (db *DB) SavePlan(p *TrainingPlan) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.IsActive = true

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE training_plans SET is_active = 0 WHERE is_active = 1`); err != nil {
		return fmt.Errorf("deactivating plans: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO training_plans (`+planColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)
	`,
		p.ID, p.RaceType, p.GoalTime, p.RaceDate, p.RunsPerWeek,
		p.WeeklyGoal, p.Plan, p.Message, boolToInt(p.AIGenerated),
		p.CreatedAt.UTC().Format(planTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting plan: %w", err)
	}

	return tx.Commit()
}

// LatestPlan returns the most recently created plan
func (db *DB) LatestPlan() (*TrainingPlan, error) {
	row := db.QueryRow(`
		SELECT ` + planColumns + `
		FROM training_plans
		ORDER BY created_at DESC
		LIMIT 1
	`)
	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	return p, err
}

// ListPlans returns stored plans, newest first
func (db *DB) ListPlans(limit int) ([]TrainingPlan, error) {
	rows, err := db.Query(`
		SELECT `+planColumns+`
		FROM training_plans
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []TrainingPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

func scanPlan(row rowScanner) (*TrainingPlan, error) {
	var p TrainingPlan
	var aiGenerated, isActive int
	var createdAt string

	err := row.Scan(
		&p.ID, &p.RaceType, &p.GoalTime, &p.RaceDate, &p.RunsPerWeek,
		&p.WeeklyGoal, &p.Plan, &p.Message, &aiGenerated, &isActive, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	p.CreatedAt, err = time.Parse(planTimeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	p.AIGenerated = aiGenerated == 1
	p.IsActive = isActive == 1
	return &p, nil
}

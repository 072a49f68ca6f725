package store

import "time"

// Auth holds the Strava OAuth tokens for the connected athlete
type Auth struct {
	AthleteID    int64     `db:"athlete_id"`
	AccessToken  string    `db:"access_token"`
	RefreshToken string    `db:"refresh_token"`
	ExpiresAt    time.Time `db:"expires_at"`
	ConnectedAt  time.Time `db:"connected_at"` // set by SaveAuth
}

// Activity is a Strava activity summary
type Activity struct {
	ID                 int64     `db:"id" json:"id"`
	AthleteID          int64     `db:"athlete_id" json:"athlete_id"`
	Name               string    `db:"name" json:"name"`
	Type               string    `db:"type" json:"type"`
	StartDate          time.Time `db:"start_date" json:"start_date"`
	StartDateLocal     time.Time `db:"start_date_local" json:"start_date_local"`
	Timezone           string    `db:"timezone" json:"timezone,omitempty"`
	Distance           float64   `db:"distance" json:"distance"`         // meters
	MovingTime         int       `db:"moving_time" json:"moving_time"`   // seconds
	ElapsedTime        int       `db:"elapsed_time" json:"elapsed_time"` // seconds
	TotalElevationGain float64   `db:"total_elevation_gain" json:"total_elevation_gain"`
	AverageSpeed       float64   `db:"average_speed" json:"average_speed"` // m/s
	MaxSpeed           float64   `db:"max_speed" json:"max_speed"`         // m/s
	AverageHeartrate   *float64  `db:"average_heartrate" json:"average_heartrate,omitempty"`
	MaxHeartrate       *float64  `db:"max_heartrate" json:"max_heartrate,omitempty"`
	HasHeartrate       bool      `db:"has_heartrate" json:"has_heartrate"`
}

// Profile is the single local runner profile
type Profile struct {
	DisplayName  string  `db:"display_name" json:"display_name"`
	FitnessLevel string  `db:"fitness_level" json:"fitness_level"`
	WeeklyGoalKm float64 `db:"weekly_goal_km" json:"weekly_goal_km"`
	DistanceUnit string  `db:"distance_unit" json:"distance_unit"` // "km" or "mi"
	AthleteID    *int64  `db:"strava_athlete_id" json:"strava_athlete_id,omitempty"`

	// Last submitted reference performance, empty until the first pace calculation
	PBEvent string `db:"pb_event" json:"pb_event,omitempty"`
	PBTime  string `db:"pb_time" json:"pb_time,omitempty"`

	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// HasReferencePerformance reports whether a PB has been stored
func (p *Profile) HasReferencePerformance() bool {
	return p.PBEvent != "" && p.PBTime != ""
}

// TrainingPlan is a stored AI-generated plan
type TrainingPlan struct {
	ID          string    `db:"id" json:"id"`
	RaceType    string    `db:"race_type" json:"race_type"`
	GoalTime    string    `db:"goal_time" json:"goal_time"`
	RaceDate    string    `db:"race_date" json:"race_date"`
	RunsPerWeek int       `db:"runs_per_week" json:"runs_per_week"`
	WeeklyGoal  float64   `db:"weekly_goal_km" json:"weekly_goal_km"`
	Plan        string    `db:"plan" json:"plan"`
	Message     string    `db:"message" json:"message"`
	AIGenerated bool      `db:"ai_generated" json:"ai_generated"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
